package discovery

import (
	"net"
	"testing"

	"github.com/deckwatch/deckwatch/internal/protocol"
)

func testDatagram(token protocol.Token, action string) []byte {
	return protocol.EncodeDiscovery(&protocol.DiscoveryMessage{
		Token:           token,
		DeviceName:      "prime4",
		Action:          action,
		SoftwareName:    "JP13",
		SoftwareVersion: "2.4.1",
		Port:            51000,
	})
}

func TestParseDatagramFilters(t *testing.T) {
	local := protocol.NewToken()
	remote := protocol.NewToken()
	scanner := NewScanner(local)
	addr := &net.UDPAddr{IP: net.IPv4(192, 168, 1, 40), Port: 40000}

	valid := testDatagram(remote, protocol.ActionHowdy)

	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{name: "valid howdy", data: valid, want: true},
		{name: "wrong magic", data: append([]byte("Xria"), valid[4:]...), want: false},
		{name: "exit action", data: testDatagram(remote, protocol.ActionExit), want: false},
		{name: "unknown action", data: testDatagram(remote, "DISCOVERER_YOLO_"), want: false},
		{name: "own token loopback", data: testDatagram(local, protocol.ActionHowdy), want: false},
		{name: "truncated", data: valid[:9], want: false},
		{name: "empty", data: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device := scanner.parseDatagram(tt.data, addr)
			if got := device != nil; got != tt.want {
				t.Errorf("parseDatagram() produced device = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseDatagramFields(t *testing.T) {
	scanner := NewScanner(protocol.NewToken())
	remote := protocol.NewToken()
	addr := &net.UDPAddr{IP: net.IPv4(10, 0, 0, 7), Port: 48000}

	device := scanner.parseDatagram(testDatagram(remote, protocol.ActionHowdy), addr)
	if device == nil {
		t.Fatal("parseDatagram() returned nil for valid datagram")
	}

	if !device.IP.Equal(addr.IP) {
		t.Errorf("IP = %v, want %v (datagram source, not payload)", device.IP, addr.IP)
	}
	if device.Port != 51000 {
		t.Errorf("Port = %d, want 51000 (payload port, not UDP source)", device.Port)
	}
	if device.Name != "prime4" {
		t.Errorf("Name = %q, want prime4", device.Name)
	}
	if device.Token != remote {
		t.Errorf("Token = %s, want %s", device.Token, remote)
	}
	if device.Addr() != "10.0.0.7:51000" {
		t.Errorf("Addr() = %q, want 10.0.0.7:51000", device.Addr())
	}
}

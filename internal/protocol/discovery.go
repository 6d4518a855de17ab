package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Discovery wire constants (UDP broadcast)
const (
	// DiscoveryPort is the fixed well-known UDP port for presence datagrams
	DiscoveryPort = 51337

	// ActionHowdy marks a presence announcement
	ActionHowdy = "DISCOVERER_HOWDY_"
	// ActionExit marks a departure announcement; shares the magic prefix
	// but must not produce a discovered device
	ActionExit = "DISCOVERER_EXIT_"
)

// discoveryMagic prefixes every discovery datagram
var discoveryMagic = []byte("airD")

// DiscoveryMessage is the payload of one presence datagram.
type DiscoveryMessage struct {
	Token           Token
	DeviceName      string
	Action          string
	SoftwareName    string
	SoftwareVersion string
	// Port is the device's main TCP port. Clients that host no services
	// announce 0.
	Port uint16
}

// EncodeDiscovery builds the datagram bytes for m.
func EncodeDiscovery(m *DiscoveryMessage) []byte {
	var buf bytes.Buffer
	buf.Write(discoveryMagic)
	buf.Write(m.Token[:])
	buf.Write(PackString(m.DeviceName))
	buf.Write(PackString(m.Action))
	buf.Write(PackString(m.SoftwareName))
	buf.Write(PackString(m.SoftwareVersion))
	var port [2]byte
	binary.BigEndian.PutUint16(port[:], m.Port)
	buf.Write(port[:])
	return buf.Bytes()
}

// DecodeDiscovery parses a presence datagram. It validates only structure;
// action filtering is the caller's concern.
func DecodeDiscovery(data []byte) (*DiscoveryMessage, error) {
	if len(data) < len(discoveryMagic)+TokenSize {
		return nil, fmt.Errorf("%w: discovery datagram too short (%d bytes)", ErrProtocol, len(data))
	}
	if !bytes.HasPrefix(data, discoveryMagic) {
		return nil, fmt.Errorf("%w: bad discovery magic %q", ErrProtocol, data[:len(discoveryMagic)])
	}

	m := &DiscoveryMessage{}
	offset := len(discoveryMagic)
	copy(m.Token[:], data[offset:offset+TokenSize])
	offset += TokenSize

	var err error
	if m.DeviceName, offset, err = UnpackString(data, offset); err != nil {
		return nil, fmt.Errorf("device name: %w", err)
	}
	if m.Action, offset, err = UnpackString(data, offset); err != nil {
		return nil, fmt.Errorf("action: %w", err)
	}
	if m.SoftwareName, offset, err = UnpackString(data, offset); err != nil {
		return nil, fmt.Errorf("software name: %w", err)
	}
	if m.SoftwareVersion, offset, err = UnpackString(data, offset); err != nil {
		return nil, fmt.Errorf("software version: %w", err)
	}
	if len(data)-offset < 2 {
		return nil, fmt.Errorf("%w: discovery datagram missing port field", ErrProtocol)
	}
	m.Port = binary.BigEndian.Uint16(data[offset:])

	return m, nil
}

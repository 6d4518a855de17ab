package discovery

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/deckwatch/deckwatch/internal/logging"
	"github.com/deckwatch/deckwatch/internal/protocol"
)

// DefaultAnnounceInterval is how often presence datagrams are broadcast.
// Hardware forgets tokens it has not heard from recently, so this must stay
// well under the device-side expiry.
const DefaultAnnounceInterval = 1 * time.Second

// Announcer periodically broadcasts this client's presence so that hardware
// devices learn its token before it connects to them.
type Announcer struct {
	// Token is the client identity to announce
	Token protocol.Token

	// DeviceName is the display name broadcast to peers
	DeviceName string

	// SoftwareName and SoftwareVersion describe this client
	SoftwareName    string
	SoftwareVersion string

	// Port is the announced main TCP port. Clients that host no services
	// leave it 0; the emulator announces its listener port here.
	Port uint16

	// Interval between broadcasts; DefaultAnnounceInterval if zero
	Interval time.Duration
}

// Run broadcasts presence datagrams until ctx is cancelled. Send failures
// are logged and swallowed - discoverability is best-effort and must never
// take the session down.
func (a *Announcer) Run(ctx context.Context) {
	interval := a.Interval
	if interval == 0 {
		interval = DefaultAnnounceInterval
	}

	datagram := protocol.EncodeDiscovery(&protocol.DiscoveryMessage{
		Token:           a.Token,
		DeviceName:      a.DeviceName,
		Action:          protocol.ActionHowdy,
		SoftwareName:    a.SoftwareName,
		SoftwareVersion: a.SoftwareVersion,
		Port:            a.Port,
	})

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		a.sendOnce(datagram)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// sendOnce opens a short-lived broadcast socket, sends one datagram and
// closes it again. Keeping no socket open between ticks sidesteps interface
// changes (wifi roaming, DHCP renews) at negligible cost.
func (a *Announcer) sendOnce(datagram []byte) {
	conn, err := net.DialUDP("udp4", nil, &net.UDPAddr{
		IP:   net.IPv4bcast,
		Port: protocol.DiscoveryPort,
	})
	if err != nil {
		logging.Warn("Presence broadcast socket failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if _, err := conn.Write(datagram); err != nil {
		logging.Warn("Presence broadcast send failed", zap.Error(err))
	}
}

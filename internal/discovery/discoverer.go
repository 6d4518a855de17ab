package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/deckwatch/deckwatch/internal/logging"
	"github.com/deckwatch/deckwatch/internal/protocol"
)

// DefaultScanTimeout is the default discovery scan window
const DefaultScanTimeout = 5 * time.Second

// maxDatagramSize is larger than any observed presence datagram
const maxDatagramSize = 4096

// DeviceHandler receives devices as they are found, before the scan window
// closes. It decouples datagram parsing from whatever aggregates the results.
type DeviceHandler interface {
	OnDeviceFound(*Device)
}

// DeviceHandlerFunc adapts a function to the DeviceHandler interface
type DeviceHandlerFunc func(*Device)

// OnDeviceFound implements DeviceHandler
func (f DeviceHandlerFunc) OnDeviceFound(d *Device) { f(d) }

// Scanner collects distinct StagelinQ devices within a bounded time window.
type Scanner struct {
	// Token is this client's own identity; its loopback announcements are
	// filtered out of scan results
	Token protocol.Token

	// Timeout is the scan window; DefaultScanTimeout if zero
	Timeout time.Duration

	// Handler, if set, is invoked for each device as it is found
	Handler DeviceHandler
}

// NewScanner creates a Scanner with default settings
func NewScanner(token protocol.Token) *Scanner {
	return &Scanner{
		Token:   token,
		Timeout: DefaultScanTimeout,
	}
}

// Scan listens on the discovery port until the scan window elapses and
// returns the distinct devices heard, in arrival order. Devices are
// deduplicated by token; this client's own token is discarded. Malformed
// datagrams are logged and skipped.
func (s *Scanner) Scan(ctx context.Context) ([]*Device, error) {
	timeout := s.Timeout
	if timeout == 0 {
		timeout = DefaultScanTimeout
	}

	conn, err := listenDiscovery(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to bind discovery port %d: %w", protocol.DiscoveryPort, err)
	}
	defer conn.Close()

	// Cancellation unblocks the read loop by expiring the deadline
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, fmt.Errorf("failed to arm scan deadline: %w", err)
	}

	var (
		devices []*Device
		seen    = make(map[protocol.Token]bool)
		buf     = make([]byte, maxDatagramSize)
	)

	for {
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				// Scan window closed
				return devices, ctx.Err()
			}
			return devices, fmt.Errorf("discovery read failed: %w", err)
		}

		device := s.parseDatagram(buf[:n], addr)
		if device == nil || seen[device.Token] {
			continue
		}
		seen[device.Token] = true
		devices = append(devices, device)
		if s.Handler != nil {
			s.Handler.OnDeviceFound(device)
		}
	}
}

// parseDatagram converts one datagram into a Device. Returns nil for
// anything that must not produce a device: malformed data, non-howdy
// actions, or our own loopback broadcast.
func (s *Scanner) parseDatagram(data []byte, addr *net.UDPAddr) *Device {
	msg, err := protocol.DecodeDiscovery(data)
	if err != nil {
		logging.Debug("Skipping malformed discovery datagram",
			zap.String("remote_addr", addr.String()),
			zap.Error(err),
		)
		return nil
	}

	// EXIT and other subtypes share the magic prefix
	if msg.Action != protocol.ActionHowdy {
		return nil
	}

	// Our own announcer reflected back at us
	if msg.Token == s.Token {
		return nil
	}

	logging.Debug("Device announcement",
		zap.String("device", msg.DeviceName),
		zap.String("remote_addr", addr.String()),
		zap.Uint16("port", msg.Port),
	)

	return &Device{
		IP:              addr.IP,
		Port:            msg.Port,
		Name:            msg.DeviceName,
		SoftwareName:    msg.SoftwareName,
		SoftwareVersion: msg.SoftwareVersion,
		Token:           msg.Token,
		DiscoveredAt:    time.Now(),
	}
}

// listenDiscovery binds the discovery port, permissively. Hardware or other
// clients on the same host may already hold the port, so after an exclusive
// bind fails we retry with address reuse enabled, then once more on the
// wildcard "udp" network.
func listenDiscovery(ctx context.Context) (*net.UDPConn, error) {
	laddr := &net.UDPAddr{IP: net.IPv4zero, Port: protocol.DiscoveryPort}

	conn, err := net.ListenUDP("udp4", laddr)
	if err == nil {
		return conn, nil
	}
	firstErr := err

	lc := net.ListenConfig{Control: reuseAddrControl}
	for _, network := range []string{"udp4", "udp"} {
		pc, err := lc.ListenPacket(ctx, network, fmt.Sprintf(":%d", protocol.DiscoveryPort))
		if err != nil {
			continue
		}
		udpConn, ok := pc.(*net.UDPConn)
		if !ok {
			pc.Close()
			continue
		}
		logging.Debug("Discovery port bound with address reuse",
			zap.String("network", network))
		return udpConn, nil
	}

	return nil, firstErr
}

package client

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/deckwatch/deckwatch/internal/discovery"
	"github.com/deckwatch/deckwatch/internal/protocol"
)

const (
	dialTimeout      = 5 * time.Second
	negotiateTimeout = 10 * time.Second
)

// mainConn is an open main-port connection with its keepalive loop running
// and the device's service list already negotiated.
type mainConn struct {
	conn     net.Conn
	device   *discovery.Device
	services []protocol.ServiceDescriptor

	stopKeepalive context.CancelFunc
	stopOnCancel  func() bool
}

// dialAndNegotiate connects to a device's main port, starts the keepalive
// sender (devices expect early proof of liveness, so it runs during the
// handshake already) and performs the services-request exchange.
func dialAndNegotiate(ctx context.Context, token protocol.Token, device *discovery.Device) (*mainConn, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", device.Addr())
	if err != nil {
		return nil, fmt.Errorf("failed to connect %s: %w", device.Addr(), err)
	}

	kaCtx, kaCancel := context.WithCancel(ctx)
	go runKeepalive(kaCtx, conn, token, device.Token)

	// Cancellation unblocks any pending read
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })

	services, err := negotiateServices(conn, token)
	if err != nil {
		kaCancel()
		stop()
		conn.Close()
		return nil, fmt.Errorf("service negotiation with %s failed: %w", device, err)
	}

	return &mainConn{
		conn:          conn,
		device:        device,
		services:      services,
		stopKeepalive: kaCancel,
		stopOnCancel:  stop,
	}, nil
}

// Close stops the keepalive loop and closes the connection. Close errors
// are ignored; the session is over either way.
func (m *mainConn) Close() {
	m.stopKeepalive()
	m.stopOnCancel()
	_ = m.conn.Close()
}

// FindService returns the named service descriptor if the device offers it.
func (m *mainConn) FindService(name string) (protocol.ServiceDescriptor, bool) {
	for _, svc := range m.services {
		if svc.Name == name {
			return svc, true
		}
	}
	return protocol.ServiceDescriptor{}, false
}

// negotiateServices sends the services request and collects announcements
// until the device's reference message marks the end of the list. Any other
// message id means the handshake failed.
func negotiateServices(conn net.Conn, token protocol.Token) ([]protocol.ServiceDescriptor, error) {
	if err := conn.SetDeadline(time.Now().Add(negotiateTimeout)); err != nil {
		return nil, fmt.Errorf("failed to arm negotiation deadline: %w", err)
	}
	defer conn.SetDeadline(time.Time{})

	if _, err := conn.Write(protocol.EncodeServicesRequest(token)); err != nil {
		return nil, fmt.Errorf("failed to send services request: %w", err)
	}

	var services []protocol.ServiceDescriptor
	for {
		id, err := protocol.ReadMessageID(conn)
		if err != nil {
			return nil, err
		}
		switch id {
		case protocol.MsgIDServiceAnnouncement:
			svc, err := protocol.ReadServiceAnnouncement(conn)
			if err != nil {
				return nil, err
			}
			services = append(services, svc)
		case protocol.MsgIDReference:
			// End-of-service-list marker; its 40-byte body is skipped
			if err := protocol.DiscardReference(conn); err != nil {
				return nil, err
			}
			return services, nil
		default:
			return nil, fmt.Errorf("%w: unexpected message id 0x%08x during negotiation", protocol.ErrProtocol, id)
		}
	}
}

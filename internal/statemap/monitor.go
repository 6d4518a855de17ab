package statemap

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/deckwatch/deckwatch/internal/logging"
	"github.com/deckwatch/deckwatch/internal/protocol"
)

// dialTimeout bounds the StateMap connect; the device already answered on
// its main port moments earlier, so anything slow is effectively gone.
const dialTimeout = 5 * time.Second

// Monitor subscribes to the fixed state path set on one device's StateMap
// service and feeds pushed updates into its Table until the connection
// drops. It never reconnects on its own - that is the supervisor's job.
type Monitor struct {
	// Addr is the StateMap service endpoint (host:port)
	Addr string

	// Token is this client's identity token
	Token protocol.Token

	// Table receives every decoded state update
	Table *Table
}

// Run connects, subscribes and then decodes emits until the connection
// fails or ctx is cancelled. A nil return means clean cancellation; any
// error means the connection is lost.
func (m *Monitor) Run(ctx context.Context) error {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", m.Addr)
	if err != nil {
		return fmt.Errorf("failed to connect StateMap service at %s: %w", m.Addr, err)
	}
	defer conn.Close()

	// Cancellation unblocks the read loop
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	return m.monitor(ctx, conn)
}

func (m *Monitor) monitor(ctx context.Context, conn net.Conn) error {
	// Announce our own StateMap endpoint first. The protocol is nominally
	// bidirectional; we never serve state but devices expect the greeting.
	var localPort uint16
	if tcpAddr, ok := conn.LocalAddr().(*net.TCPAddr); ok {
		localPort = uint16(tcpAddr.Port)
	}
	announce := protocol.EncodeServiceAnnouncement(m.Token, protocol.StateMapService, localPort)
	if err := protocol.WriteFrame(conn, announce); err != nil {
		return fmt.Errorf("failed to announce on StateMap connection: %w", err)
	}

	for _, path := range SubscriptionPaths() {
		// Interval 0 = push on change
		if err := protocol.WriteFrame(conn, protocol.EncodeStateSubscribe(path, 0)); err != nil {
			return fmt.Errorf("failed to subscribe %s: %w", path, err)
		}
	}
	logging.Info("StateMap subscriptions active",
		zap.String("remote_addr", m.Addr),
		zap.Int("paths", len(SubscriptionPaths())),
	)

	for {
		payload, err := protocol.ReadFrame(conn)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			// Clean EOF and partial reads alike mean the device is gone
			return fmt.Errorf("StateMap connection lost: %w", err)
		}

		path, jsonText, err := protocol.DecodeStateEmit(payload)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("StateMap stream desynced: %w", err)
		}

		logging.LogStateEmit(path, jsonText)
		if err := m.Table.SetJSON(path, jsonText); err != nil {
			// Framing is intact, only this value is garbage; keep reading
			logging.Warn("Ignoring unparseable state value", zap.String("path", path), zap.Error(err))
		}
	}
}

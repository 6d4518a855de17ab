package client

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/deckwatch/deckwatch/internal/discovery"
	"github.com/deckwatch/deckwatch/internal/logging"
	"github.com/deckwatch/deckwatch/internal/protocol"
	"github.com/deckwatch/deckwatch/internal/statemap"
)

const (
	// retryBackoff separates discovery/negotiation rounds that came up empty
	retryBackoff = 10 * time.Second

	// announceGrace is how long to keep announcing after discovery before
	// connecting; hardware must have seen our token to accept the TCP
	// connection
	announceGrace = 3 * time.Second
)

var errNoDevices = errors.New("no devices discovered")

// run is the supervisor loop. It owns every network task of the session and
// returns only when ctx is cancelled.
func (c *Client) run(ctx context.Context) {
	defer close(c.done)

	// The announcer runs for the whole session, not just during scans
	go c.announce(ctx)

	for ctx.Err() == nil {
		c.cycle(ctx)
	}
	logging.Info("Client stopped")
}

// cycle performs one Discovering -> ... -> Lost round. Panics are contained
// here: whatever happens, the loop transitions instead of crashing the host
// process.
func (c *Client) cycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Supervisor recovered from panic", zap.Any("panic", r))
			sleepCtx(ctx, c.retryBackoff)
		}
		// Lost (or never got anywhere): no stale state may survive into
		// the next round
		c.table.Clear()
		c.resolveMu.Lock()
		c.resolver.Reset()
		c.resolveMu.Unlock()
	}()

	devices := c.discoverDevices(ctx)
	if len(devices) == 0 {
		return // cancelled
	}

	// Give devices time to register our announcements before we knock
	sleepCtx(ctx, c.graceWait)

	monitored := false
	for _, device := range devices {
		if ctx.Err() != nil {
			return
		}
		if c.superviseDevice(ctx, device) {
			monitored = true
			break
		}
	}

	if !monitored && ctx.Err() == nil {
		logging.Warn("No usable device this round, backing off",
			zap.Int("devices", len(devices)),
			zap.Duration("backoff", c.retryBackoff),
		)
		sleepCtx(ctx, c.retryBackoff)
	}
}

// discoverDevices scans until at least one device shows up, backing off
// between empty rounds. Returns nil only on cancellation.
func (c *Client) discoverDevices(ctx context.Context) []*discovery.Device {
	var devices []*discovery.Device
	op := func() error {
		logging.Debug("Scanning for devices")
		found, err := c.discover(ctx)
		if err != nil {
			logging.Warn("Discovery scan failed", zap.Error(err))
			return err
		}
		if len(found) == 0 {
			return errNoDevices
		}
		devices = found
		return nil
	}

	policy := backoff.WithContext(backoff.NewConstantBackOff(c.retryBackoff), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil
	}

	logging.Info("Devices discovered", zap.Int("count", len(devices)))
	return devices
}

// superviseDevice negotiates with one device and, if it offers StateMap,
// monitors it until the connection is lost. Returns true when monitoring
// actually happened (regardless of how it ended).
func (c *Client) superviseDevice(ctx context.Context, device *discovery.Device) bool {
	mc, err := dialAndNegotiate(ctx, c.token, device)
	if err != nil {
		logging.Warn("Device negotiation failed", zap.String("device", device.String()), zap.Error(err))
		return false
	}
	defer mc.Close()

	svc, ok := mc.FindService(protocol.StateMapService)
	if !ok {
		logging.Warn("Device offers no StateMap service",
			zap.String("device", device.String()),
			zap.Int("services", len(mc.services)),
		)
		return false
	}

	addr := net.JoinHostPort(device.IP.String(), strconv.Itoa(int(svc.Port)))
	logging.Info("Monitoring device state",
		zap.String("device", device.String()),
		zap.String("statemap_addr", addr),
	)

	monitor := &statemap.Monitor{Addr: addr, Token: c.token, Table: c.table}
	if err := monitor.Run(ctx); err != nil {
		logging.Warn("Device connection lost", zap.String("device", device.String()), zap.Error(err))
	}
	return true
}

// sleepCtx waits d or until ctx is cancelled, whichever comes first
func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

package emulator

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/deckwatch/deckwatch/internal/discovery"
	"github.com/deckwatch/deckwatch/internal/logging"
	"github.com/deckwatch/deckwatch/internal/protocol"
)

// stateConn is one connected StateMap client. Emit pushes and subscription
// replays can race, so every write goes through the per-connection mutex.
type stateConn struct {
	conn net.Conn
	mu   sync.Mutex
}

func (s *stateConn) writeEmit(path, jsonText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return protocol.WriteFrame(s.conn, protocol.EncodeStateEmit(path, jsonText))
}

// Device is a fake StagelinQ device. It listens on ephemeral TCP ports on
// all interfaces so a client may reach it via loopback or the LAN address
// a broadcast datagram arrives from.
type Device struct {
	// Name is the announced device display name
	Name string

	// Token identifies the fake device
	Token protocol.Token

	// AnnounceInterval enables UDP presence broadcasts when non-zero.
	// Tests leave it 0 and hand the device record to the client directly.
	AnnounceInterval time.Duration

	mainLn  net.Listener
	stateLn net.Listener

	mu    sync.Mutex
	state map[string]string     // scripted state, replayed on subscribe
	conns map[*stateConn]bool   // live StateMap clients
	subs  map[*stateConn]map[string]bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a stopped emulator device with a fresh token.
func New(name string) *Device {
	return &Device{
		Name:  name,
		Token: protocol.NewToken(),
		state: make(map[string]string),
		conns: make(map[*stateConn]bool),
		subs:  make(map[*stateConn]map[string]bool),
	}
}

// Start opens the main and StateMap listeners and begins serving. With
// AnnounceInterval set it also broadcasts presence datagrams.
func (d *Device) Start() error {
	mainLn, err := net.Listen("tcp", ":0")
	if err != nil {
		return fmt.Errorf("failed to open main listener: %w", err)
	}
	stateLn, err := net.Listen("tcp", ":0")
	if err != nil {
		mainLn.Close()
		return fmt.Errorf("failed to open StateMap listener: %w", err)
	}
	d.mainLn, d.stateLn = mainLn, stateLn

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel

	d.wg.Add(2)
	go d.acceptLoop(ctx, mainLn, d.handleMain)
	go d.acceptLoop(ctx, stateLn, d.handleState)

	if d.AnnounceInterval > 0 {
		announcer := &discovery.Announcer{
			Token:           d.Token,
			DeviceName:      d.Name,
			SoftwareName:    "deckwatch-emulator",
			SoftwareVersion: "0.0",
			Port:            d.MainPort(),
			Interval:        d.AnnounceInterval,
		}
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			announcer.Run(ctx)
		}()
	}

	logging.Info("Emulator started",
		zap.String("name", d.Name),
		zap.Uint16("main_port", d.MainPort()),
		zap.Uint16("statemap_port", d.StateMapPort()),
	)
	return nil
}

// Stop closes all listeners and connections and waits for the serve loops.
func (d *Device) Stop() {
	if d.cancel == nil {
		return
	}
	d.cancel()
	d.mainLn.Close()
	d.stateLn.Close()
	d.DropStateConnections()
	d.wg.Wait()
	d.cancel = nil
}

// MainPort returns the main TCP port.
func (d *Device) MainPort() uint16 {
	return uint16(d.mainLn.Addr().(*net.TCPAddr).Port)
}

// StateMapPort returns the StateMap service port.
func (d *Device) StateMapPort() uint16 {
	return uint16(d.stateLn.Addr().(*net.TCPAddr).Port)
}

// Record returns this emulator as a discovery record, the way a scan on
// loopback would report it.
func (d *Device) Record() *discovery.Device {
	return &discovery.Device{
		IP:              net.IPv4(127, 0, 0, 1),
		Port:            d.MainPort(),
		Name:            d.Name,
		SoftwareName:    "deckwatch-emulator",
		SoftwareVersion: "0.0",
		Token:           d.Token,
		DiscoveredAt:    time.Now(),
	}
}

// SetState scripts a state value without pushing it. Clients receive it
// when they subscribe to the path.
func (d *Device) SetState(path, jsonText string) {
	d.mu.Lock()
	d.state[path] = jsonText
	d.mu.Unlock()
}

// Emit updates a state value and pushes it to every connected client that
// subscribed to the path.
func (d *Device) Emit(path, jsonText string) {
	d.mu.Lock()
	d.state[path] = jsonText
	var targets []*stateConn
	for sc := range d.conns {
		if d.subs[sc][path] {
			targets = append(targets, sc)
		}
	}
	d.mu.Unlock()

	for _, sc := range targets {
		if err := sc.writeEmit(path, jsonText); err != nil {
			logging.Debug("Emulator push failed", zap.String("path", path), zap.Error(err))
		}
	}
}

// DropStateConnections closes every StateMap connection, simulating a
// device-side failure mid-stream.
func (d *Device) DropStateConnections() {
	d.mu.Lock()
	conns := make([]*stateConn, 0, len(d.conns))
	for sc := range d.conns {
		conns = append(conns, sc)
	}
	d.mu.Unlock()

	for _, sc := range conns {
		sc.conn.Close()
	}
}

func (d *Device) acceptLoop(ctx context.Context, ln net.Listener, handle func(context.Context, net.Conn)) {
	defer d.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			handle(ctx, conn)
		}()
	}
}

// handleMain serves the services handshake and swallows keepalives.
func (d *Device) handleMain(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		id, err := protocol.ReadMessageID(conn)
		if err != nil {
			return
		}
		switch id {
		case protocol.MsgIDServicesRequest:
			var clientToken protocol.Token
			if _, err := io.ReadFull(conn, clientToken[:]); err != nil {
				return
			}
			announcement := protocol.EncodeServiceAnnouncement(d.Token, protocol.StateMapService, d.StateMapPort())
			if _, err := conn.Write(announcement); err != nil {
				return
			}
			// Reference doubles as the end-of-service-list marker
			if _, err := conn.Write(protocol.EncodeReference(d.Token, clientToken, 0)); err != nil {
				return
			}
		case protocol.MsgIDReference:
			if err := protocol.DiscardReference(conn); err != nil {
				return
			}
		case protocol.MsgIDServiceAnnouncement:
			if _, err := protocol.ReadServiceAnnouncement(conn); err != nil {
				return
			}
		default:
			logging.Debug("Emulator: unknown main-port message", zap.Uint32("id", id))
			return
		}
	}
}

// handleState serves one StateMap client: record subscriptions, replay the
// scripted value on subscribe, and keep the connection open for pushes.
func (d *Device) handleState(ctx context.Context, conn net.Conn) {
	sc := &stateConn{conn: conn}

	d.mu.Lock()
	d.conns[sc] = true
	d.subs[sc] = make(map[string]bool)
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		delete(d.conns, sc)
		delete(d.subs, sc)
		d.mu.Unlock()
		conn.Close()
	}()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		payload, err := protocol.ReadFrame(conn)
		if err != nil {
			return
		}

		path, _, err := protocol.DecodeStateSubscribe(payload)
		if err != nil {
			// Not a subscription - most likely the client's service
			// announcement greeting. Ignore it.
			continue
		}

		d.mu.Lock()
		d.subs[sc][path] = true
		jsonText, ok := d.state[path]
		d.mu.Unlock()

		if ok {
			if err := sc.writeEmit(path, jsonText); err != nil {
				return
			}
		}
	}
}

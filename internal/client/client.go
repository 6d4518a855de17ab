package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/deckwatch/deckwatch/internal/config"
	"github.com/deckwatch/deckwatch/internal/discovery"
	"github.com/deckwatch/deckwatch/internal/mix"
	"github.com/deckwatch/deckwatch/internal/protocol"
	"github.com/deckwatch/deckwatch/internal/statemap"
	"github.com/deckwatch/deckwatch/internal/version"
)

// softwareName is announced in presence datagrams
const softwareName = "deckwatch"

// Client is the public face of the StagelinQ session: start it, poll
// CurrentTrack, stop it. Safe for concurrent use.
type Client struct {
	token protocol.Token
	table *statemap.Table

	resolveMu sync.Mutex
	resolver  *mix.Resolver

	// Seams the supervisor runs through; tests substitute these to drive
	// the state machine without real UDP broadcast traffic
	discover     func(context.Context) ([]*discovery.Device, error)
	announce     func(context.Context)
	graceWait    time.Duration
	retryBackoff time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Client from cfg. The identity token is generated once here
// and kept for the client's lifetime.
func New(cfg *config.Config) *Client {
	token := protocol.NewToken()

	c := &Client{
		token: token,
		table: statemap.NewTable(),
		resolver: mix.NewResolver(mix.Options{
			SkipDecks:  cfg.SkipSet(),
			Preference: cfg.MixPreference,
			LeftDecks:  cfg.LeftDecks,
			RightDecks: cfg.RightDecks,
		}),
		graceWait:    announceGrace,
		retryBackoff: retryBackoff,
	}

	scanner := discovery.NewScanner(token)
	scanner.Timeout = cfg.ScanTimeout()
	c.discover = scanner.Scan

	announcer := &discovery.Announcer{
		Token:           token,
		DeviceName:      cfg.DeviceName,
		SoftwareName:    softwareName,
		SoftwareVersion: version.Version,
	}
	c.announce = announcer.Run

	return c
}

// Token returns the client's identity token.
func (c *Client) Token() protocol.Token {
	return c.token
}

// Start launches the supervisor in the background. It returns immediately;
// discovery and connection handling proceed asynchronously.
func (c *Client) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return errors.New("client already started")
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.run(ctx)
	return nil
}

// Stop cancels all tasks, closes all sockets and waits for the supervisor
// to exit. Stopping a client that never started is a no-op.
func (c *Client) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// CurrentTrack resolves the live state table and returns the currently
// audible playing track, or nil when nothing qualifies. Gaps are normal -
// hosts are expected to poll and tolerate nil.
func (c *Client) CurrentTrack() *mix.Track {
	c.resolveMu.Lock()
	defer c.resolveMu.Unlock()
	return c.resolver.Resolve(c.table)
}

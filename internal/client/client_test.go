package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/deckwatch/deckwatch/internal/config"
	"github.com/deckwatch/deckwatch/internal/discovery"
	"github.com/deckwatch/deckwatch/internal/emulator"
	"github.com/deckwatch/deckwatch/internal/statemap"
)

// newTestClient wires a client to the emulator through the supervisor seams:
// discovery returns the emulator's loopback record directly, announcing is a
// no-op, and the waits are shrunk so reconnection rounds take milliseconds.
func newTestClient(t *testing.T, emu *emulator.Device) *Client {
	t.Helper()

	c := New(config.Default())
	c.discover = func(context.Context) ([]*discovery.Device, error) {
		return []*discovery.Device{emu.Record()}, nil
	}
	c.announce = func(context.Context) {}
	c.graceWait = 0
	c.retryBackoff = 50 * time.Millisecond

	require.NoError(t, c.Start())
	t.Cleanup(c.Stop)
	return c
}

func startEmulator(t *testing.T) *emulator.Device {
	t.Helper()
	emu := emulator.New("EMU PRIME 4")
	require.NoError(t, emu.Start())
	t.Cleanup(emu.Stop)
	return emu
}

func TestEndToEnd(t *testing.T) {
	emu := startEmulator(t)
	emu.SetState(statemap.DeckPlay(1), `{"state":true}`)
	emu.SetState(statemap.DeckArtist(1), `{"string":"Daft Punk"}`)
	emu.SetState(statemap.DeckTitle(1), `{"string":"Around the World"}`)
	emu.SetState(statemap.FaderPosition(1), `{"value":0.8}`)
	emu.SetState(statemap.CrossfaderPath, `{"value":0.5}`)

	c := newTestClient(t, emu)

	require.Eventually(t, func() bool {
		tr := c.CurrentTrack()
		return tr != nil && tr.Deck == 1 &&
			tr.Artist == "Daft Punk" && tr.Title == "Around the World"
	}, 5*time.Second, 10*time.Millisecond, "playing deck never became visible")

	// Stopping the deck must clear the current track on the next push
	emu.Emit(statemap.DeckPlay(1), `{"state":false}`)
	require.Eventually(t, func() bool {
		return c.CurrentTrack() == nil
	}, 5*time.Second, 10*time.Millisecond, "stopped deck still reported as playing")
}

func TestReconnectAfterDrop(t *testing.T) {
	emu := startEmulator(t)
	emu.SetState(statemap.DeckPlay(2), `{"state":true}`)
	emu.SetState(statemap.DeckArtist(2), `{"string":"Justice"}`)
	emu.SetState(statemap.DeckTitle(2), `{"string":"Genesis"}`)
	emu.SetState(statemap.FaderPosition(2), `{"value":1.0}`)
	emu.SetState(statemap.CrossfaderPath, `{"value":0.5}`)

	c := newTestClient(t, emu)

	require.Eventually(t, func() bool {
		tr := c.CurrentTrack()
		return tr != nil && tr.Deck == 2
	}, 5*time.Second, 10*time.Millisecond, "playing deck never became visible")

	// Change the scripted track, then kill the connection. The replacement
	// track can only arrive through a fresh session's subscription replay,
	// so seeing it proves the supervisor reconnected.
	emu.SetState(statemap.DeckArtist(2), `{"string":"Moderat"}`)
	emu.SetState(statemap.DeckTitle(2), `{"string":"A New Error"}`)
	emu.DropStateConnections()

	require.Eventually(t, func() bool {
		tr := c.CurrentTrack()
		return tr != nil && tr.Artist == "Moderat" && tr.Title == "A New Error"
	}, 10*time.Second, 10*time.Millisecond, "client never reconnected after drop")
}

func TestStartTwiceFails(t *testing.T) {
	emu := startEmulator(t)
	c := newTestClient(t, emu)
	require.Error(t, c.Start())
}

func TestStopWithoutStart(t *testing.T) {
	c := New(config.Default())
	c.Stop() // must not panic or block
}

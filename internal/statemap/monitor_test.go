package statemap

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deckwatch/deckwatch/internal/protocol"
)

// drainHandshake consumes the monitor's announcement frame and one
// subscribe frame per path from the device side of the pipe.
func drainHandshake(t *testing.T, conn net.Conn) {
	t.Helper()
	for i := 0; i < len(SubscriptionPaths())+1; i++ {
		_, err := protocol.ReadFrame(conn)
		require.NoError(t, err)
	}
}

func TestMonitorAppliesEmits(t *testing.T) {
	clientSide, deviceSide := net.Pipe()
	defer clientSide.Close()

	table := NewTable()
	monitor := &Monitor{Addr: "pipe", Token: protocol.NewToken(), Table: table}

	done := make(chan error, 1)
	go func() {
		done <- monitor.monitor(context.Background(), clientSide)
	}()

	drainHandshake(t, deviceSide)

	emits := []struct{ path, json string }{
		{"/Engine/Deck1/Play", `{"state":true,"type":1}`},
		{"/Engine/Deck1/Track/ArtistName", `{"string":"A","type":8}`},
		{"/Engine/Deck1/Track/SongName", `{"string":"T","type":8}`},
		{"/Mixer/CH1faderPosition", `{"value":0.8,"type":10}`},
		// overwrite in place
		{"/Mixer/CH1faderPosition", `{"value":0.4,"type":10}`},
	}
	for _, e := range emits {
		require.NoError(t, protocol.WriteFrame(deviceSide, protocol.EncodeStateEmit(e.path, e.json)))
	}

	// A bad JSON value must be skipped without ending the loop
	require.NoError(t, protocol.WriteFrame(deviceSide, protocol.EncodeStateEmit("/Engine/Deck1/PlayState", `{broken`)))
	require.NoError(t, protocol.WriteFrame(deviceSide, protocol.EncodeStateEmit("/Engine/Deck2/Play", `{"state":false}`)))

	// Device drops the connection; the monitor must report loss
	deviceSide.Close()
	select {
	case err := <-done:
		require.Error(t, err, "connection drop must surface as an error")
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop after connection drop")
	}

	play, ok := table.Get("/Engine/Deck1/Play")
	require.True(t, ok)
	assert.True(t, play.StateFlag())

	artist, _ := table.Get("/Engine/Deck1/Track/ArtistName")
	text, _ := artist.Text()
	assert.Equal(t, "A", text)

	fader, _ := table.Get("/Mixer/CH1faderPosition")
	f, _ := fader.Float()
	assert.InDelta(t, 0.4, f, 1e-9, "later emit must overwrite earlier one")

	_, ok = table.Get("/Engine/Deck1/PlayState")
	assert.False(t, ok, "unparseable value must not be stored")

	deck2, ok := table.Get("/Engine/Deck2/Play")
	require.True(t, ok, "emits after a bad value must still be applied")
	assert.False(t, deck2.StateFlag())
}

func TestMonitorStopsOnDesync(t *testing.T) {
	clientSide, deviceSide := net.Pipe()
	defer clientSide.Close()
	defer deviceSide.Close()

	monitor := &Monitor{Addr: "pipe", Token: protocol.NewToken(), Table: NewTable()}

	done := make(chan error, 1)
	go func() {
		done <- monitor.monitor(context.Background(), clientSide)
	}()

	drainHandshake(t, deviceSide)

	// Valid frame, but not a state emit payload
	require.NoError(t, protocol.WriteFrame(deviceSide, []byte("garbage-payload")))

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop on desynced stream")
	}
}

func TestMonitorCleanCancellation(t *testing.T) {
	clientSide, deviceSide := net.Pipe()
	defer deviceSide.Close()

	monitor := &Monitor{Addr: "pipe", Token: protocol.NewToken(), Table: NewTable()}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- monitor.monitor(ctx, clientSide)
	}()

	drainHandshake(t, deviceSide)

	cancel()
	// monitor's Run normally closes the conn via context.AfterFunc; the
	// test owns the conn here, so mimic that.
	clientSide.Close()

	select {
	case err := <-done:
		assert.NoError(t, err, "cancellation must not be reported as a failure")
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop after cancellation")
	}
}

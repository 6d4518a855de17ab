package mix

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deckwatch/deckwatch/internal/statemap"
)

func set(t *testing.T, table *statemap.Table, path, json string) {
	t.Helper()
	require.NoError(t, table.SetJSON(path, json))
}

// loadDeck populates a deck with play state, metadata and fader position
func loadDeck(t *testing.T, table *statemap.Table, deck int, playing bool, artist, title string, fader float64) {
	t.Helper()
	set(t, table, statemap.DeckPlay(deck), fmt.Sprintf(`{"state":%v,"type":1}`, playing))
	set(t, table, statemap.DeckArtist(deck), fmt.Sprintf(`{"string":%q,"type":8}`, artist))
	set(t, table, statemap.DeckTitle(deck), fmt.Sprintf(`{"string":%q,"type":8}`, title))
	set(t, table, statemap.FaderPosition(deck), fmt.Sprintf(`{"value":%v,"type":10}`, fader))
}

func setCrossfader(t *testing.T, table *statemap.Table, pos float64) {
	t.Helper()
	set(t, table, statemap.CrossfaderPath, fmt.Sprintf(`{"value":%v,"type":10}`, pos))
}

func TestResolveEmptyTable(t *testing.T) {
	r := NewResolver(Options{})
	assert.Nil(t, r.Resolve(statemap.NewTable()))
}

func TestResolveRequiresPlayFlag(t *testing.T) {
	table := statemap.NewTable()
	loadDeck(t, table, 1, false, "A", "T", 1.0)
	setCrossfader(t, table, 0.5)

	r := NewResolver(Options{})
	assert.Nil(t, r.Resolve(table))
}

func TestResolveRequiresMetadata(t *testing.T) {
	table := statemap.NewTable()
	// playing with fader up, but no artist/title entries at all
	set(t, table, statemap.DeckPlay(1), `{"state":true}`)
	set(t, table, statemap.FaderPosition(1), `{"value":1.0}`)

	r := NewResolver(Options{})
	assert.Nil(t, r.Resolve(table))
}

func TestAudibilityThreshold(t *testing.T) {
	// crossfader centered -> factor 1.0 for deck 1, so effective volume
	// equals the fader position exactly
	tests := []struct {
		fader   float64
		audible bool
	}{
		{fader: 0.1, audible: false}, // boundary: <= 0.1 is inaudible
		{fader: 0.11, audible: true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("fader=%v", tt.fader), func(t *testing.T) {
			table := statemap.NewTable()
			loadDeck(t, table, 1, true, "A", "T", tt.fader)
			setCrossfader(t, table, 0.5)

			track := NewResolver(Options{}).Resolve(table)
			if tt.audible {
				require.NotNil(t, track)
				assert.Equal(t, 1, track.Deck)
				assert.InDelta(t, tt.fader, track.Volume, 1e-9)
			} else {
				assert.Nil(t, track)
			}
		})
	}
}

func TestCrossfaderEdges(t *testing.T) {
	// Assumes the factory side mapping: decks 1,3 left / 2,4 right. That
	// mapping is a heuristic without hardware confirmation, which is why
	// it is configurable (see TestCustomSideAssignment).
	tests := []struct {
		name       string
		deck       int
		crossfader float64
		audible    bool
	}{
		{name: "left deck, full left", deck: 1, crossfader: 0.0, audible: true},
		{name: "left deck, centered", deck: 1, crossfader: 0.5, audible: true},
		{name: "left deck, cut at 0.8", deck: 1, crossfader: 0.8, audible: false},
		{name: "left deck, full right", deck: 1, crossfader: 1.0, audible: false},
		{name: "right deck, full right", deck: 2, crossfader: 1.0, audible: true},
		{name: "right deck, centered", deck: 2, crossfader: 0.5, audible: true},
		{name: "right deck, cut at 0.2", deck: 2, crossfader: 0.2, audible: false},
		{name: "right deck, full left", deck: 2, crossfader: 0.0, audible: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := statemap.NewTable()
			loadDeck(t, table, tt.deck, true, "A", "T", 1.0)
			setCrossfader(t, table, tt.crossfader)

			track := NewResolver(Options{}).Resolve(table)
			if tt.audible {
				require.NotNil(t, track)
				assert.Equal(t, tt.deck, track.Deck)
			} else {
				assert.Nil(t, track)
			}
		})
	}
}

func TestCrossfaderRamp(t *testing.T) {
	table := statemap.NewTable()
	loadDeck(t, table, 1, true, "A", "T", 1.0)
	setCrossfader(t, table, 0.65) // halfway through the left-side ramp

	track := NewResolver(Options{}).Resolve(table)
	require.NotNil(t, track)
	assert.InDelta(t, 0.5, track.Volume, 1e-9)
}

func TestCrossfaderDefaultsToCenter(t *testing.T) {
	// No crossfader entry in the table: both sides play at full factor
	for _, deck := range []int{1, 2} {
		table := statemap.NewTable()
		loadDeck(t, table, deck, true, "A", "T", 0.9)

		track := NewResolver(Options{}).Resolve(table)
		require.NotNil(t, track, "deck %d", deck)
		assert.InDelta(t, 0.9, track.Volume, 1e-9)
	}
}

func TestTieBreakPreference(t *testing.T) {
	tests := []struct {
		preference string
		wantDeck   int
	}{
		{preference: PreferNewest, wantDeck: 2},
		{preference: PreferOldest, wantDeck: 1},
	}

	for _, tt := range tests {
		t.Run(tt.preference, func(t *testing.T) {
			table := statemap.NewTable()
			setCrossfader(t, table, 0.5)

			r := NewResolver(Options{Preference: tt.preference})
			clock := time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC)
			r.now = func() time.Time { return clock }

			// Deck 1 starts first
			loadDeck(t, table, 1, true, "First", "T1", 1.0)
			track := r.Resolve(table)
			require.NotNil(t, track)
			require.Equal(t, 1, track.Deck)

			// Deck 2 comes in later, equally loud
			clock = clock.Add(3 * time.Minute)
			loadDeck(t, table, 2, true, "Second", "T2", 1.0)

			track = r.Resolve(table)
			require.NotNil(t, track)
			assert.Equal(t, tt.wantDeck, track.Deck)
		})
	}
}

func TestTieBandExcludesQuietDecks(t *testing.T) {
	table := statemap.NewTable()
	setCrossfader(t, table, 0.5)

	r := NewResolver(Options{}) // newest preference
	clock := time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return clock }

	loadDeck(t, table, 1, true, "Loud", "T1", 1.0)
	require.NotNil(t, r.Resolve(table))

	// Deck 2 is newer but at half volume - below 80% of the max, so the
	// newest preference must not reach it
	clock = clock.Add(time.Minute)
	loadDeck(t, table, 2, true, "Quiet", "T2", 0.5)

	track := r.Resolve(table)
	require.NotNil(t, track)
	assert.Equal(t, 1, track.Deck)
}

func TestDeckSkip(t *testing.T) {
	table := statemap.NewTable()
	loadDeck(t, table, 1, true, "A", "T", 1.0)
	setCrossfader(t, table, 0.5)

	r := NewResolver(Options{SkipDecks: map[int]bool{1: true}})
	assert.Nil(t, r.Resolve(table), "skipped deck must never be selected")
}

func TestStartTimestampPersistsWhilePlaying(t *testing.T) {
	table := statemap.NewTable()
	loadDeck(t, table, 1, true, "A", "T", 1.0)
	setCrossfader(t, table, 0.5)

	r := NewResolver(Options{})
	clock := time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC)
	first := clock
	r.now = func() time.Time { return clock }

	track := r.Resolve(table)
	require.NotNil(t, track)
	assert.Equal(t, first, track.StartedAt)

	// Later polls keep the original timestamp
	clock = clock.Add(5 * time.Minute)
	track = r.Resolve(table)
	require.NotNil(t, track)
	assert.Equal(t, first, track.StartedAt)

	// Stop clears it; resuming starts a fresh timestamp
	set(t, table, statemap.DeckPlay(1), `{"state":false}`)
	assert.Nil(t, r.Resolve(table))

	clock = clock.Add(time.Minute)
	set(t, table, statemap.DeckPlay(1), `{"state":true}`)
	track = r.Resolve(table)
	require.NotNil(t, track)
	assert.Equal(t, clock, track.StartedAt)
}

func TestResetClearsTimestamps(t *testing.T) {
	table := statemap.NewTable()
	loadDeck(t, table, 1, true, "A", "T", 1.0)

	r := NewResolver(Options{})
	clock := time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return clock }

	require.NotNil(t, r.Resolve(table))

	r.Reset()
	clock = clock.Add(time.Hour)

	track := r.Resolve(table)
	require.NotNil(t, track)
	assert.Equal(t, clock, track.StartedAt, "reset must forget the old start time")
}

func TestOptionalTrackFields(t *testing.T) {
	table := statemap.NewTable()
	loadDeck(t, table, 3, true, "Moderat", "A New Error", 1.0)
	set(t, table, statemap.DeckAlbum(3), `{"string":"Moderat","type":8}`)
	set(t, table, statemap.DeckGenre(3), `{"string":"Electronic","type":8}`)
	set(t, table, statemap.DeckBPM(3), `{"value":124.5,"type":10}`)
	setCrossfader(t, table, 0.5)

	track := NewResolver(Options{}).Resolve(table)
	require.NotNil(t, track)
	assert.Equal(t, "Moderat", track.Artist)
	assert.Equal(t, "A New Error", track.Title)
	assert.Equal(t, "Moderat", track.Album)
	assert.Equal(t, "Electronic", track.Genre)
	assert.Equal(t, "124.5", track.BPM)
}

func TestCustomSideAssignment(t *testing.T) {
	// Swap the factory mapping: deck 1 right, deck 2 left
	table := statemap.NewTable()
	loadDeck(t, table, 1, true, "A", "T", 1.0)
	setCrossfader(t, table, 1.0)

	r := NewResolver(Options{LeftDecks: []int{2, 4}, RightDecks: []int{1, 3}})
	track := r.Resolve(table)
	require.NotNil(t, track, "deck 1 on the right side is audible at full-right crossfader")
	assert.Equal(t, 1, track.Deck)

	// And with the factory mapping the same state is silent
	assert.Nil(t, NewResolver(Options{}).Resolve(table))
}

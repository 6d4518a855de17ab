package mix

import (
	"strconv"
	"time"

	"github.com/deckwatch/deckwatch/internal/statemap"
)

// Preference values for tie-breaking among equally loud decks
const (
	PreferNewest = "newest"
	PreferOldest = "oldest"
)

// audibleThreshold is the effective volume a deck must exceed to count
const audibleThreshold = 0.1

// tieBand keeps decks within this fraction of the loudest candidate in the
// tie-break pool
const tieBand = 0.8

// Options configure a Resolver.
type Options struct {
	// SkipDecks are deck numbers never considered (e.g. a sampler deck)
	SkipDecks map[int]bool

	// Preference breaks ties among equally loud decks: PreferNewest
	// (default) or PreferOldest
	Preference string

	// LeftDecks/RightDecks assign decks to crossfader sides. Defaults to
	// 1,3 left and 2,4 right - an observed heuristic, not confirmed
	// hardware behavior, hence overridable.
	LeftDecks  []int
	RightDecks []int
}

// Track is the resolved now-playing result.
type Track struct {
	Deck   int
	Artist string
	Title  string

	// Best-effort extras, empty when the table has no value for them
	Album string
	Genre string
	BPM   string

	// StartedAt is when this deck was first observed playing and audible
	StartedAt time.Time

	// Volume is the deck's effective audible volume at resolve time
	Volume float64
}

type crossfaderSide int

const (
	sideNone crossfaderSide = iota
	sideLeft
	sideRight
)

// Resolver computes the audible playing deck from a live state table. Not
// safe for concurrent use; it is designed to be polled from one goroutine.
type Resolver struct {
	skip       map[int]bool
	preference string
	sides      map[int]crossfaderSide

	// started tracks when each deck was first seen playing+audible; it
	// persists across polls and is cleared per deck on stop
	started map[int]time.Time

	now func() time.Time
}

// NewResolver creates a Resolver from opts, applying defaults for anything
// unset.
func NewResolver(opts Options) *Resolver {
	left, right := opts.LeftDecks, opts.RightDecks
	if len(left) == 0 && len(right) == 0 {
		left, right = []int{1, 3}, []int{2, 4}
	}
	sides := make(map[int]crossfaderSide)
	for _, d := range left {
		sides[d] = sideLeft
	}
	for _, d := range right {
		sides[d] = sideRight
	}

	preference := opts.Preference
	if preference == "" {
		preference = PreferNewest
	}

	skip := opts.SkipDecks
	if skip == nil {
		skip = map[int]bool{}
	}

	return &Resolver{
		skip:       skip,
		preference: preference,
		sides:      sides,
		started:    make(map[int]time.Time),
		now:        time.Now,
	}
}

// Reset drops all tracked per-deck timestamps. The supervisor calls this
// when the device connection is lost.
func (r *Resolver) Reset() {
	r.started = make(map[int]time.Time)
}

type candidate struct {
	deck      int
	volume    float64
	startedAt time.Time
}

// Resolve evaluates the table fresh and returns the audible playing track,
// or nil when nothing qualifies.
func (r *Resolver) Resolve(table *statemap.Table) *Track {
	crossfader := 0.5
	if v, ok := table.Get(statemap.CrossfaderPath); ok {
		if f, ok := v.Float(); ok {
			crossfader = f
		}
	}

	var candidates []candidate
	for deck := 1; deck <= statemap.DeckCount; deck++ {
		if r.skip[deck] {
			continue
		}

		if !r.deckPlaying(table, deck) {
			delete(r.started, deck)
			continue
		}

		fader := 0.0
		if v, ok := table.Get(statemap.FaderPosition(deck)); ok {
			if f, ok := v.Float(); ok {
				fader = f
			}
		}

		volume := fader * r.crossfaderFactor(deck, crossfader)
		if volume <= audibleThreshold {
			delete(r.started, deck)
			continue
		}

		startedAt, ok := r.started[deck]
		if !ok {
			startedAt = r.now()
			r.started[deck] = startedAt
		}

		candidates = append(candidates, candidate{deck: deck, volume: volume, startedAt: startedAt})
	}

	selected, ok := r.selectCandidate(candidates)
	if !ok {
		return nil
	}
	return r.buildTrack(table, selected)
}

// deckPlaying requires the play flag plus artist and title entries; a deck
// with no loaded track metadata is never a candidate.
func (r *Resolver) deckPlaying(table *statemap.Table, deck int) bool {
	play, ok := table.Get(statemap.DeckPlay(deck))
	if !ok {
		return false
	}
	if _, ok := table.Get(statemap.DeckArtist(deck)); !ok {
		return false
	}
	if _, ok := table.Get(statemap.DeckTitle(deck)); !ok {
		return false
	}
	return play.StateFlag()
}

// crossfaderFactor models how much of a deck's side the crossfader lets
// through. Left side: full at <= 0.5, ramping out until 0.8. Right side is
// the mirror: silent until 0.2, full from 0.5. Decks assigned to no side
// bypass the crossfader entirely.
func (r *Resolver) crossfaderFactor(deck int, crossfader float64) float64 {
	switch r.sides[deck] {
	case sideLeft:
		switch {
		case crossfader <= 0.5:
			return 1.0
		case crossfader >= 0.8:
			return 0.0
		default:
			return (0.8 - crossfader) / 0.3
		}
	case sideRight:
		switch {
		case crossfader >= 0.5:
			return 1.0
		case crossfader <= 0.2:
			return 0.0
		default:
			return (crossfader - 0.2) / 0.3
		}
	default:
		return 1.0
	}
}

func (r *Resolver) selectCandidate(candidates []candidate) (candidate, bool) {
	switch len(candidates) {
	case 0:
		return candidate{}, false
	case 1:
		return candidates[0], true
	}

	maxVolume := candidates[0].volume
	for _, c := range candidates[1:] {
		if c.volume > maxVolume {
			maxVolume = c.volume
		}
	}

	// Keep only decks within the tie band of the loudest
	var pool []candidate
	for _, c := range candidates {
		if c.volume >= tieBand*maxVolume {
			pool = append(pool, c)
		}
	}

	best := pool[0]
	for _, c := range pool[1:] {
		switch r.preference {
		case PreferOldest:
			if c.startedAt.Before(best.startedAt) {
				best = c
			}
		default: // PreferNewest
			if c.startedAt.After(best.startedAt) {
				best = c
			}
		}
	}
	return best, true
}

func (r *Resolver) buildTrack(table *statemap.Table, c candidate) *Track {
	track := &Track{
		Deck:      c.deck,
		StartedAt: c.startedAt,
		Volume:    c.volume,
	}
	if v, ok := table.Get(statemap.DeckArtist(c.deck)); ok {
		track.Artist, _ = v.Text()
	}
	if v, ok := table.Get(statemap.DeckTitle(c.deck)); ok {
		track.Title, _ = v.Text()
	}
	if v, ok := table.Get(statemap.DeckAlbum(c.deck)); ok {
		track.Album, _ = v.Text()
	}
	if v, ok := table.Get(statemap.DeckGenre(c.deck)); ok {
		track.Genre, _ = v.Text()
	}
	if v, ok := table.Get(statemap.DeckBPM(c.deck)); ok {
		if s, ok := v.Text(); ok {
			track.BPM = s
		} else if f, ok := v.Float(); ok {
			track.BPM = strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	return track
}

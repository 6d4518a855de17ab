// Package mix decides which deck, if any, is the currently audible playing
// track.
//
// The hardware never says "this is what the audience hears" - the resolver
// derives it from the live state table: a deck counts only when it is
// playing with a loaded artist/title, its channel fader is up, and the
// crossfader is not cutting its side out. The product of fader position and
// crossfader factor is the deck's effective volume; decks at or below 0.1
// are inaudible. When several decks are within 80% of the loudest, the
// configured preference picks the newest- or oldest-started one.
//
// The resolver owns a small map of deck -> first-observed-playing timestamp
// that persists across polls and resets when a deck stops or the connection
// is lost. It is meant to be called from a single polling goroutine.
package mix

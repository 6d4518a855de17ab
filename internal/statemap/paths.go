package statemap

import "fmt"

// DeckCount is the number of playback decks the hardware line exposes
const DeckCount = 4

// CrossfaderPath is the single global crossfader position
const CrossfaderPath = "/Mixer/CrossfaderPosition"

// Per-deck state paths
func DeckPlay(deck int) string       { return fmt.Sprintf("/Engine/Deck%d/Play", deck) }
func DeckPlayState(deck int) string  { return fmt.Sprintf("/Engine/Deck%d/PlayState", deck) }
func DeckArtist(deck int) string     { return fmt.Sprintf("/Engine/Deck%d/Track/ArtistName", deck) }
func DeckTitle(deck int) string      { return fmt.Sprintf("/Engine/Deck%d/Track/SongName", deck) }
func DeckAlbum(deck int) string      { return fmt.Sprintf("/Engine/Deck%d/Track/AlbumName", deck) }
func DeckBPM(deck int) string        { return fmt.Sprintf("/Engine/Deck%d/Track/CurrentBPM", deck) }
func DeckGenre(deck int) string      { return fmt.Sprintf("/Engine/Deck%d/Track/Genre", deck) }
func DeckSongLoaded(deck int) string { return fmt.Sprintf("/Engine/Deck%d/Track/SongLoaded", deck) }

// FaderPosition is the per-channel fader for the deck's mixer channel
func FaderPosition(deck int) string { return fmt.Sprintf("/Mixer/CH%dfaderPosition", deck) }

// SubscriptionPaths returns every path the monitor subscribes to: all
// per-deck paths for decks 1..DeckCount plus the crossfader.
func SubscriptionPaths() []string {
	var paths []string
	for deck := 1; deck <= DeckCount; deck++ {
		paths = append(paths,
			DeckPlay(deck),
			DeckPlayState(deck),
			DeckArtist(deck),
			DeckTitle(deck),
			DeckAlbum(deck),
			DeckBPM(deck),
			DeckGenre(deck),
			DeckSongLoaded(deck),
			FaderPosition(deck),
		)
	}
	return append(paths, CrossfaderPath)
}

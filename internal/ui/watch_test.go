package ui

import (
	"testing"
	"time"

	"github.com/deckwatch/deckwatch/internal/mix"
)

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"zero", 0, "0:00"},
		{"seconds", 42 * time.Second, "0:42"},
		{"minutes", 3*time.Minute + 7*time.Second, "3:07"},
		{"hour boundary", time.Hour, "1:00:00"},
		{"marathon", 2*time.Hour + 15*time.Minute + 9*time.Second, "2:15:09"},
		{"negative clamps", -5 * time.Second, "0:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatElapsed(tt.d); got != tt.want {
				t.Errorf("FormatElapsed(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}

func TestFormatTrackLine(t *testing.T) {
	tests := []struct {
		name  string
		track mix.Track
		want  string
	}{
		{
			name:  "minimal",
			track: mix.Track{Deck: 1, Artist: "Daft Punk", Title: "Around the World"},
			want:  "deck 1: Daft Punk - Around the World",
		},
		{
			name:  "with bpm",
			track: mix.Track{Deck: 2, Artist: "Justice", Title: "Genesis", BPM: "98"},
			want:  "deck 2: Justice - Genesis [98 BPM]",
		},
		{
			name:  "full metadata",
			track: mix.Track{Deck: 3, Artist: "Moderat", Title: "A New Error", BPM: "124.5", Genre: "Electronic"},
			want:  "deck 3: Moderat - A New Error [124.5 BPM] (Electronic)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatTrackLine(&tt.track); got != tt.want {
				t.Errorf("FormatTrackLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

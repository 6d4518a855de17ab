package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Color palette for terminal output
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // Purple - titles, borders
	SuccessColor = lipgloss.Color("#43BF6D") // Green - playing marker
	WarningColor = lipgloss.Color("#FFA500") // Orange - idle/waiting
	MutedColor   = lipgloss.Color("#626262") // Gray - labels, help text
	TextColor    = lipgloss.Color("#FFFFFF") // White - values
)

// Layout constants
const (
	MinTerminalWidth = 40 // Minimum supported terminal width
	MaxContentWidth  = 80 // Maximum card width before capping
)

var (
	// TitleStyle is for the program banner line
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	// CardStyle frames the now-playing block
	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(PrimaryColor).
			Padding(1, 2)

	// DeckBadgeStyle marks which deck the track comes from
	DeckBadgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#000000")).
			Background(SuccessColor).
			Bold(true).
			Padding(0, 1)

	// TrackTitleStyle is for the track title line
	TrackTitleStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Bold(true)

	// TrackArtistStyle is for the artist line
	TrackArtistStyle = lipgloss.NewStyle().
				Foreground(TextColor)

	// LabelStyle is for field labels (Album:, BPM:, ...)
	LabelStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	// ValueStyle is for field values
	ValueStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	// IdleStyle is for the "nothing playing" line
	IdleStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// HelpStyle is for the key-hint footer
	HelpStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	// DeviceNameStyle is for device names in discovery listings
	DeviceNameStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	// SpinnerStyle colors the waiting spinner
	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)
)

// GetTerminalWidth returns the current terminal width clamped to the
// supported range, or MaxContentWidth when stdout is not a terminal.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return MaxContentWidth
	}
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	if width > MaxContentWidth {
		return MaxContentWidth
	}
	return width
}

// IsTerminal reports whether stdout is an interactive terminal. The watch
// command falls back to plain line output when it is not.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

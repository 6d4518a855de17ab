package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/deckwatch/deckwatch/internal/discovery"
	"github.com/deckwatch/deckwatch/internal/mix"
)

// RenderDeviceList renders discovery results as a styled listing for the
// discover command.
func RenderDeviceList(devices []*discovery.Device) string {
	if len(devices) == 0 {
		return IdleStyle.Render("No devices found.") + "\n"
	}

	var lines []string
	lines = append(lines, TitleStyle.Render(fmt.Sprintf("Found %d device(s)", len(devices))), "")
	for _, dev := range devices {
		name := DeviceNameStyle.Render(dev.Name)
		addr := ValueStyle.Render(dev.Addr())
		software := LabelStyle.Render(fmt.Sprintf("%s %s", dev.SoftwareName, dev.SoftwareVersion))
		token := LabelStyle.Render("token " + dev.Token.String())

		lines = append(lines,
			"  "+name+"  "+addr,
			"    "+software,
			"    "+token,
			"",
		)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...) + "\n"
}

// FormatTrackLine renders one track as a single plain line, used by the
// watch command when stdout is not a terminal.
func FormatTrackLine(track *mix.Track) string {
	var b strings.Builder
	fmt.Fprintf(&b, "deck %d: %s - %s", track.Deck, track.Artist, track.Title)
	if track.BPM != "" {
		fmt.Fprintf(&b, " [%s BPM]", track.BPM)
	}
	if track.Genre != "" {
		fmt.Fprintf(&b, " (%s)", track.Genre)
	}
	return b.String()
}

package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/deckwatch/deckwatch/internal/mix"
)

// TrackSource is the slice of the client the watch screen polls. Gaps are
// normal: a nil track means nothing audible is playing right now.
type TrackSource interface {
	CurrentTrack() *mix.Track
}

// pollInterval is how often the screen re-resolves the current track
const pollInterval = 500 * time.Millisecond

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// WatchModel is the live now-playing screen.
type WatchModel struct {
	source  TrackSource
	spinner spinner.Model
	track   *mix.Track
	width   int
}

// NewWatchModel creates the watch screen polling the given source.
func NewWatchModel(source TrackSource) WatchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return WatchModel{
		source:  source,
		spinner: s,
		width:   GetTerminalWidth(),
	}
}

// Init implements tea.Model
func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick())
}

// Update implements tea.Model
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		if m.width > MaxContentWidth {
			m.width = MaxContentWidth
		}

	case tickMsg:
		m.track = m.source.CurrentTrack()
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model
func (m WatchModel) View() string {
	banner := TitleStyle.Render("deckwatch")

	var body string
	if m.track == nil {
		body = IdleStyle.Render(m.spinner.View() + " waiting for a playing deck...")
	} else {
		body = renderTrackCard(m.track, m.width)
	}

	help := HelpStyle.Render("q: quit")

	return lipgloss.JoinVertical(lipgloss.Left, banner, "", body, "", help) + "\n"
}

// renderTrackCard renders the bordered now-playing block for one track.
func renderTrackCard(track *mix.Track, width int) string {
	badge := DeckBadgeStyle.Render(fmt.Sprintf("DECK %d", track.Deck))
	header := lipgloss.JoinHorizontal(lipgloss.Left,
		badge,
		LabelStyle.Render("  playing for "+FormatElapsed(time.Since(track.StartedAt))),
	)

	lines := []string{
		header,
		"",
		TrackTitleStyle.Render(track.Title),
		TrackArtistStyle.Render(track.Artist),
	}

	if extras := renderTrackExtras(track); extras != "" {
		lines = append(lines, "", extras)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)

	cardWidth := width - 4
	if cardWidth < MinTerminalWidth-4 {
		cardWidth = MinTerminalWidth - 4
	}
	return CardStyle.Width(cardWidth).Render(content)
}

// renderTrackExtras renders the optional metadata line, skipping fields the
// device never reported.
func renderTrackExtras(track *mix.Track) string {
	var parts []string
	if track.Album != "" {
		parts = append(parts, LabelStyle.Render("Album ")+ValueStyle.Render(track.Album))
	}
	if track.BPM != "" {
		parts = append(parts, LabelStyle.Render("BPM ")+ValueStyle.Render(track.BPM))
	}
	if track.Genre != "" {
		parts = append(parts, LabelStyle.Render("Genre ")+ValueStyle.Render(track.Genre))
	}
	parts = append(parts, LabelStyle.Render("Vol ")+ValueStyle.Render(fmt.Sprintf("%d%%", int(track.Volume*100))))

	return lipgloss.JoinHorizontal(lipgloss.Left, joinWithSeparator(parts, LabelStyle.Render("  ·  "))...)
}

func joinWithSeparator(parts []string, sep string) []string {
	var out []string
	for i, p := range parts {
		if i > 0 {
			out = append(out, sep)
		}
		out = append(out, p)
	}
	return out
}

// FormatElapsed renders a play duration as m:ss (or h:mm:ss for marathon
// sets).
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	h, m, s := total/3600, (total/60)%60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// RunWatch runs the interactive watch screen until the user quits.
func RunWatch(source TrackSource) error {
	p := tea.NewProgram(NewWatchModel(source), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

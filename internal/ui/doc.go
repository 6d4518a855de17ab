// Package ui renders deckwatch's terminal output: the interactive
// now-playing screen used by the watch command and the styled listings the
// one-shot commands print.
//
// The interactive screen is a Bubble Tea program that polls the client for
// the current track twice a second. Non-interactive callers use the plain
// formatting helpers instead so output stays pipeable.
package ui

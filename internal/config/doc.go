// Package config loads and persists the deckwatch user configuration.
//
// The configuration lives as YAML in the platform user config directory
// (~/.config/deckwatch/config.yaml on unix). A missing file is not an
// error: defaults apply. The file covers the discovery scan window, the
// deck-skip list, the newest/oldest mix preference and the crossfader
// left/right deck assignment.
package config

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Mix preference values: which deck wins among equally loud candidates
const (
	PreferNewest = "newest"
	PreferOldest = "oldest"
)

// Config holds the user-editable deckwatch settings.
type Config struct {
	// DeviceName is the display name broadcast in presence datagrams
	DeviceName string `yaml:"device_name"`

	// DiscoveryTimeout is the scan window in seconds
	DiscoveryTimeout float64 `yaml:"discovery_timeout"`

	// SkipDecks lists deck numbers ("1".."4") that are never selected,
	// e.g. a deck wired to a sampler
	SkipDecks []string `yaml:"skip_decks,omitempty"`

	// MixPreference picks among equally loud decks: "newest" or "oldest"
	MixPreference string `yaml:"mix_preference"`

	// LeftDecks and RightDecks assign decks to crossfader sides. The
	// factory wiring (1,3 left / 2,4 right) is a heuristic, not confirmed
	// hardware law, so it stays overridable.
	LeftDecks  []int `yaml:"left_decks,omitempty"`
	RightDecks []int `yaml:"right_decks,omitempty"`
}

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		DeviceName:       "deckwatch",
		DiscoveryTimeout: 5.0,
		MixPreference:    PreferNewest,
		LeftDecks:        []int{1, 3},
		RightDecks:       []int{2, 4},
	}
}

// ScanTimeout returns the discovery window as a duration.
func (c *Config) ScanTimeout() time.Duration {
	if c.DiscoveryTimeout <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.DiscoveryTimeout * float64(time.Second))
}

// SkipSet parses SkipDecks into a deck-number set. Entries that are not
// valid deck numbers are ignored.
func (c *Config) SkipSet() map[int]bool {
	set := make(map[int]bool, len(c.SkipDecks))
	for _, s := range c.SkipDecks {
		if n, err := strconv.Atoi(s); err == nil {
			set[n] = true
		}
	}
	return set
}

// Validate checks field values that have a closed domain.
func (c *Config) Validate() error {
	switch c.MixPreference {
	case PreferNewest, PreferOldest:
	default:
		return fmt.Errorf("invalid mix_preference %q (want %q or %q)", c.MixPreference, PreferNewest, PreferOldest)
	}
	return nil
}

// GetConfigDir returns the deckwatch configuration directory, creating
// nothing. Uses the platform user config dir (~/.config/deckwatch on unix).
func GetConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config dir: %w", err)
	}
	return filepath.Join(base, "deckwatch"), nil
}

// GetConfigPath returns the full path of the config file.
func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config file from the default location. A missing file is
// not an error - defaults are returned.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config file at path, filling unset fields with
// defaults.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to the default location, creating the directory
// if needed.
func (c *Config) Save() error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

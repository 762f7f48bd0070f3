// Package config persists user-facing settings between runs: the last
// serial port, plot window, filter configuration and behavior flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/lh2uav/groundlink/internal/filter"
	"github.com/lh2uav/groundlink/internal/store"
)

// DisplayMode selects which plot curves are drawn.
type DisplayMode string

const (
	DisplayRaw      DisplayMode = "raw"
	DisplayFiltered DisplayMode = "filtered"
	DisplayBoth     DisplayMode = "both"
)

// Settings is the persisted configuration surface.
type Settings struct {
	LastPort string `toml:"last_port"`
	Baud     int    `toml:"baud"`
	SaveDir  string `toml:"save_dir"`

	PlotWindowMode    string `toml:"plot_window_mode"`
	PlotWindowPoints  int    `toml:"plot_window_points"`
	PlotWindowSeconds int    `toml:"plot_window_seconds"`

	FilterMode    string  `toml:"filter_mode"`
	FilterAlpha   float64 `toml:"filter_alpha"`
	FilterWindowN int     `toml:"filter_window_n"`

	DisplayMode string `toml:"display_mode"`
	WaitAckGate bool   `toml:"wait_ack_gate"`
	ShowLog     bool   `toml:"show_log"`
}

// Default mirrors the host GUI defaults.
func Default() Settings {
	fc := filter.DefaultConfig()
	return Settings{
		Baud:              115200,
		PlotWindowMode:    string(store.WindowPoints),
		PlotWindowPoints:  5000,
		PlotWindowSeconds: 1000,
		FilterMode:        string(fc.Mode),
		FilterAlpha:       fc.Alpha,
		FilterWindowN:     fc.WindowN,
		DisplayMode:       string(DisplayBoth),
		WaitAckGate:       true,
		ShowLog:           false,
	}
}

// DefaultPath resolves the per-user settings file location.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve config dir: %w", err)
	}
	return filepath.Join(base, "groundlink", "settings.toml"), nil
}

// Load reads path, filling defaults for anything unset. A missing file
// is not an error; defaults are returned.
func Load(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return Settings{}, fmt.Errorf("config: load %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	s.normalize()
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Save writes the settings to path, creating parent directories.
func Save(path string, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// normalize folds invalid enum labels back to defaults rather than
// failing, since settings files survive app upgrades.
func (s *Settings) normalize() {
	if mode, ok := filter.ParseMode(s.FilterMode); ok {
		s.FilterMode = string(mode)
	} else {
		s.FilterMode = string(filter.ModeEMA)
	}
	switch store.WindowMode(s.PlotWindowMode) {
	case store.WindowPoints, store.WindowSeconds:
	default:
		s.PlotWindowMode = string(store.WindowPoints)
	}
	switch DisplayMode(strings.ToLower(s.DisplayMode)) {
	case DisplayRaw, DisplayFiltered, DisplayBoth:
		s.DisplayMode = strings.ToLower(s.DisplayMode)
	default:
		s.DisplayMode = string(DisplayBoth)
	}
}

// Validate reports the first invalid numeric field.
func (s Settings) Validate() error {
	if s.Baud <= 0 {
		return fmt.Errorf("config: invalid baud %d", s.Baud)
	}
	if s.PlotWindowPoints < 1 {
		return fmt.Errorf("config: plot_window_points %d < 1", s.PlotWindowPoints)
	}
	if s.PlotWindowSeconds < 1 {
		return fmt.Errorf("config: plot_window_seconds %d < 1", s.PlotWindowSeconds)
	}
	if err := s.FilterConfig().Validate(); err != nil {
		return err
	}
	return nil
}

// FilterConfig converts the persisted filter fields.
func (s Settings) FilterConfig() filter.Config {
	mode, _ := filter.ParseMode(s.FilterMode)
	return filter.Config{Mode: mode, Alpha: s.FilterAlpha, WindowN: s.FilterWindowN}
}

// StoreOptions converts the persisted plot/filter fields.
func (s Settings) StoreOptions() store.Options {
	return store.Options{
		WindowMode:  store.WindowMode(s.PlotWindowMode),
		PlotPoints:  s.PlotWindowPoints,
		PlotSeconds: s.PlotWindowSeconds,
		Filter:      s.FilterConfig(),
	}
}

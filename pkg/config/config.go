// Package config loads, validates, and writes the scrollwm TOML
// configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/scrollwm/scrollwm/internal/gestures"
	"github.com/scrollwm/scrollwm/internal/hotkeys"
	"github.com/scrollwm/scrollwm/internal/rules"
)

// FileName is the config file looked up in each search directory.
const FileName = "scrollwm.toml"

// Config is the complete application configuration.
type Config struct {
	Layout      LayoutConfig      `mapstructure:"layout" toml:"layout"`
	Appearance  AppearanceConfig  `mapstructure:"appearance" toml:"appearance"`
	Behavior    BehaviorConfig    `mapstructure:"behavior" toml:"behavior"`
	Hotkeys     []hotkeys.Binding `mapstructure:"hotkeys" toml:"hotkeys,omitempty"`
	WindowRules []rules.Spec      `mapstructure:"window_rules" toml:"window_rules,omitempty"`
	SnapHints   SnapHintsConfig   `mapstructure:"snap_hints" toml:"snap_hints"`
	Gestures    gestures.Config   `mapstructure:"gestures" toml:"gestures"`
	Metrics     MetricsConfig     `mapstructure:"metrics" toml:"metrics"`
}

// LayoutConfig carries the layout engine constants.
type LayoutConfig struct {
	Gap                int    `mapstructure:"gap" toml:"gap"`
	OuterGap           int    `mapstructure:"outer_gap" toml:"outer_gap"`
	DefaultColumnWidth int    `mapstructure:"default_column_width" toml:"default_column_width"`
	CenteringMode      string `mapstructure:"centering_mode" toml:"centering_mode"`
}

// AppearanceConfig selects the visibility strategy and border styling.
type AppearanceConfig struct {
	UseCloaking            bool   `mapstructure:"use_cloaking" toml:"use_cloaking"`
	UseDeferredPositioning bool   `mapstructure:"use_deferred_positioning" toml:"use_deferred_positioning"`
	ActiveBorderColor      uint32 `mapstructure:"active_border_color" toml:"active_border_color"`
}

// BehaviorConfig carries focus and logging behavior.
type BehaviorConfig struct {
	FocusFollowsMouse        bool   `mapstructure:"focus_follows_mouse" toml:"focus_follows_mouse"`
	FocusFollowsMouseDelayMs uint32 `mapstructure:"focus_follows_mouse_delay_ms" toml:"focus_follows_mouse_delay_ms"`
	TrackFocusChanges        bool   `mapstructure:"track_focus_changes" toml:"track_focus_changes"`
	LogLevel                 string `mapstructure:"log_level" toml:"log_level"`
}

// SnapHintsConfig styles the snap hint overlay.
type SnapHintsConfig struct {
	Enabled    bool   `mapstructure:"enabled" toml:"enabled"`
	DurationMs uint32 `mapstructure:"duration_ms" toml:"duration_ms"`
	Opacity    uint8  `mapstructure:"opacity" toml:"opacity"`
}

// MetricsConfig enables the debug metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" toml:"enabled"`
	Addr    string `mapstructure:"addr" toml:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Layout: LayoutConfig{
			Gap:                10,
			OuterGap:           10,
			DefaultColumnWidth: 800,
			CenteringMode:      "center",
		},
		Appearance: AppearanceConfig{
			UseCloaking:            true,
			UseDeferredPositioning: true,
			ActiveBorderColor:      0x00E08030,
		},
		Behavior: BehaviorConfig{
			FocusFollowsMouse:        false,
			FocusFollowsMouseDelayMs: 200,
			TrackFocusChanges:        true,
			LogLevel:                 "info",
		},
		Hotkeys: []hotkeys.Binding{
			{Chord: "Win+H", Command: "focus_left"},
			{Chord: "Win+L", Command: "focus_right"},
			{Chord: "Win+K", Command: "focus_up"},
			{Chord: "Win+J", Command: "focus_down"},
			{Chord: "Win+Shift+H", Command: "move_column_left"},
			{Chord: "Win+Shift+L", Command: "move_column_right"},
			{Chord: "Win+Minus", Command: "resize_shrink"},
			{Chord: "Win+Plus", Command: "resize_grow"},
			{Chord: "Win+F", Command: "toggle_fullscreen"},
			{Chord: "Win+Shift+Space", Command: "toggle_floating"},
			{Chord: "Win+Q", Command: "close_window"},
			{Chord: "Win+Comma", Command: "focus_monitor_left"},
			{Chord: "Win+Period", Command: "focus_monitor_right"},
			{Chord: "Win+Shift+Comma", Command: "move_window_to_monitor_left"},
			{Chord: "Win+Shift+Period", Command: "move_window_to_monitor_right"},
		},
		SnapHints: SnapHintsConfig{
			Enabled:    true,
			DurationMs: 350,
			Opacity:    160,
		},
		Gestures: gestures.Config{
			Enabled: true,
			Left:    "focus_left",
			Right:   "focus_right",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9188",
		},
	}
}

// SearchPaths returns the config lookup locations in priority order:
// user app-data directory, user config directory, working directory.
func SearchPaths() []string {
	return []string{
		filepath.Join(xdg.DataHome, "scrollwm", FileName),
		filepath.Join(xdg.ConfigHome, "scrollwm", FileName),
		FileName,
	}
}

// Resolve returns the first existing config file, or "" when none exists.
func Resolve() string {
	for _, path := range SearchPaths() {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// Load reads and validates the config at path. An empty path resolves
// through the search order; when no file exists the defaults are
// returned with an empty path.
func Load(path string) (Config, string, error) {
	if path == "" {
		path = Resolve()
		if path == "" {
			return Default(), "", nil
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, path, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, path, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := Validate(&cfg); err != nil {
		return Config{}, path, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, path, nil
}

func setDefaults(v *viper.Viper) {
	def := Default()
	v.SetDefault("layout.gap", def.Layout.Gap)
	v.SetDefault("layout.outer_gap", def.Layout.OuterGap)
	v.SetDefault("layout.default_column_width", def.Layout.DefaultColumnWidth)
	v.SetDefault("layout.centering_mode", def.Layout.CenteringMode)
	v.SetDefault("appearance.use_cloaking", def.Appearance.UseCloaking)
	v.SetDefault("appearance.use_deferred_positioning", def.Appearance.UseDeferredPositioning)
	v.SetDefault("appearance.active_border_color", def.Appearance.ActiveBorderColor)
	v.SetDefault("behavior.focus_follows_mouse", def.Behavior.FocusFollowsMouse)
	v.SetDefault("behavior.focus_follows_mouse_delay_ms", def.Behavior.FocusFollowsMouseDelayMs)
	v.SetDefault("behavior.track_focus_changes", def.Behavior.TrackFocusChanges)
	v.SetDefault("behavior.log_level", def.Behavior.LogLevel)
	v.SetDefault("snap_hints.enabled", def.SnapHints.Enabled)
	v.SetDefault("snap_hints.duration_ms", def.SnapHints.DurationMs)
	v.SetDefault("snap_hints.opacity", def.SnapHints.Opacity)
	v.SetDefault("gestures.enabled", def.Gestures.Enabled)
	v.SetDefault("gestures.left", def.Gestures.Left)
	v.SetDefault("gestures.right", def.Gestures.Right)
	v.SetDefault("metrics.enabled", def.Metrics.Enabled)
	v.SetDefault("metrics.addr", def.Metrics.Addr)
}

// Validate checks the whole config. Rule and hotkey compilation errors
// reject the config; numeric bounds are clamped in place the same way
// the layout setters clamp.
func Validate(cfg *Config) error {
	if cfg.Layout.Gap < 0 {
		cfg.Layout.Gap = 0
	}
	if cfg.Layout.OuterGap < 0 {
		cfg.Layout.OuterGap = 0
	}
	if cfg.Layout.DefaultColumnWidth < 100 {
		cfg.Layout.DefaultColumnWidth = 100
	}
	switch cfg.Layout.CenteringMode {
	case "center", "just_in_view":
	default:
		return fmt.Errorf("layout.centering_mode: unknown mode %q", cfg.Layout.CenteringMode)
	}
	switch cfg.Behavior.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("behavior.log_level: unknown level %q", cfg.Behavior.LogLevel)
	}
	if _, err := rules.Compile(cfg.WindowRules); err != nil {
		return err
	}
	if _, err := hotkeys.NewTable(cfg.Hotkeys); err != nil {
		return err
	}
	return nil
}

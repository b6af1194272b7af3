package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
[layout]
gap = 8
outer_gap = 12
default_column_width = 640
centering_mode = "just_in_view"

[appearance]
use_cloaking = false
use_deferred_positioning = true
active_border_color = 16744448

[behavior]
focus_follows_mouse = true
focus_follows_mouse_delay_ms = 150
log_level = "debug"

[[hotkeys]]
chord = "Win+H"
command = "focus_left"

[[hotkeys]]
chord = "Win+L"
command = "focus_right"

[[window_rules]]
match_executable = "explorer.exe"
action = "ignore"

[[window_rules]]
match_title = "Picture-in-Picture"
action = "float"
width = 640
height = 360

[snap_hints]
enabled = true
duration_ms = 500
opacity = 128

[gestures]
enabled = true
left = "focus_left"
right = "focus_right"
`)

	cfg, loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, loaded)
	assert.Equal(t, 8, cfg.Layout.Gap)
	assert.Equal(t, 640, cfg.Layout.DefaultColumnWidth)
	assert.Equal(t, "just_in_view", cfg.Layout.CenteringMode)
	assert.False(t, cfg.Appearance.UseCloaking)
	assert.Equal(t, uint32(16744448), cfg.Appearance.ActiveBorderColor)
	assert.True(t, cfg.Behavior.FocusFollowsMouse)
	assert.Equal(t, uint32(150), cfg.Behavior.FocusFollowsMouseDelayMs)
	assert.Len(t, cfg.Hotkeys, 2)
	assert.Len(t, cfg.WindowRules, 2)
	assert.Equal(t, 640, cfg.WindowRules[1].Width)
	assert.Equal(t, uint8(128), cfg.SnapHints.Opacity)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	xdg.Reload()
	t.Cleanup(xdg.Reload)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, path, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, Default(), cfg)
}

func TestLoadAppliesDefaultsForOmittedSections(t *testing.T) {
	path := writeConfig(t, `
[layout]
gap = 4
`)
	cfg, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Layout.Gap)
	assert.Equal(t, Default().Layout.DefaultColumnWidth, cfg.Layout.DefaultColumnWidth)
	assert.Equal(t, Default().Behavior.LogLevel, cfg.Behavior.LogLevel)
	assert.True(t, cfg.Appearance.UseCloaking)
}

func TestLoadRejectsInvalidRegex(t *testing.T) {
	path := writeConfig(t, `
[[window_rules]]
match_class = "[broken"
action = "tile"
`)
	_, _, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsDuplicateChords(t *testing.T) {
	path := writeConfig(t, `
[[hotkeys]]
chord = "Win+L"
command = "focus_right"

[[hotkeys]]
chord = "win+l"
command = "focus_left"
`)
	_, _, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsBadEnums(t *testing.T) {
	path := writeConfig(t, `
[layout]
centering_mode = "sideways"
`)
	_, _, err := Load(path)
	assert.Error(t, err)

	path = writeConfig(t, `
[behavior]
log_level = "loud"
`)
	_, _, err = Load(path)
	assert.Error(t, err)
}

func TestLoadClampsNumericBounds(t *testing.T) {
	path := writeConfig(t, `
[layout]
gap = -5
outer_gap = -1
default_column_width = 10
`)
	cfg, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Layout.Gap)
	assert.Equal(t, 0, cfg.Layout.OuterGap)
	assert.Equal(t, 100, cfg.Layout.DefaultColumnWidth)
}

func TestWriteDefaultRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, WriteDefault(path, false))

	cfg, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	// Refuses to overwrite without force.
	assert.Error(t, WriteDefault(path, false))
	assert.NoError(t, WriteDefault(path, true))
}

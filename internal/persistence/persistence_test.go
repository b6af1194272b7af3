package persistence

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrollwm/scrollwm/pkg/models"
)

func sampleSnapshot() Snapshot {
	return Snapshot{
		SavedAt:            time.Date(2024, 5, 20, 9, 30, 0, 0, time.UTC),
		FocusedMonitorName: `\\.\DISPLAY1`,
		Workspaces: []MonitorRecord{{
			MonitorDeviceName: `\\.\DISPLAY1`,
			Workspace: WorkspaceRecord{
				ScrollOffset:  320,
				FocusedColumn: 1,
				FocusedWindow: 0,
				Columns: []ColumnRecord{
					{Width: 800, Windows: []WindowRef{{ClassName: "Chrome_WidgetWin_1", Executable: "chrome.exe"}}},
					{Width: 600, Windows: []WindowRef{
						{ClassName: "CASCADIA_HOSTING_WINDOW_CLASS", Executable: "WindowsTerminal.exe"},
						{ClassName: "CASCADIA_HOSTING_WINDOW_CLASS", Executable: "WindowsTerminal.exe"},
					}},
				},
				Floating: []FloatingRecord{{
					Ref:  WindowRef{ClassName: "Notepad", Executable: "notepad.exe"},
					Rect: models.NewRect(200, 200, 800, 600),
				}},
			},
		}},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, sampleSnapshot()))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot(), loaded)
}

func TestSaveIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, Save(path, sampleSnapshot()))
	require.NoError(t, Save(path, sampleSnapshot()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("{truncated"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func termMeta() models.WindowMetadata {
	return models.WindowMetadata{ClassName: "CASCADIA_HOSTING_WINDOW_CLASS", Executable: "WindowsTerminal.exe"}
}

func TestBuildRestorePlanMatchesByClassAndExecutable(t *testing.T) {
	record := sampleSnapshot().Workspaces[0].Workspace
	live := []LiveWindow{
		{ID: 10, Meta: models.WindowMetadata{ClassName: "Chrome_WidgetWin_1", Executable: "CHROME.EXE"}},
		{ID: 11, Meta: termMeta()},
		{ID: 12, Meta: termMeta()},
		{ID: 13, Meta: models.WindowMetadata{ClassName: "Notepad", Executable: "notepad.exe"}},
		{ID: 14, Meta: models.WindowMetadata{ClassName: "SomethingElse", Executable: "other.exe"}},
	}

	plan := BuildRestorePlan(record, live)
	require.Len(t, plan.Columns, 2)
	assert.Equal(t, []models.WindowID{10}, plan.Columns[0].Windows)
	assert.Equal(t, 800, plan.Columns[0].Width)
	// Two identical tuples claim distinct windows in enumeration order.
	assert.Equal(t, []models.WindowID{11, 12}, plan.Columns[1].Windows)

	require.Len(t, plan.Floating, 1)
	assert.Equal(t, models.WindowID(13), plan.Floating[0].Window)

	assert.True(t, plan.Claimed[10])
	assert.False(t, plan.Claimed[14], "unmatched windows stay unclaimed")
	assert.Equal(t, 1, plan.FocusedColumn)
	assert.Equal(t, 320.0, plan.ScrollOffset)
}

func TestBuildRestorePlanDropsDeadReferences(t *testing.T) {
	record := sampleSnapshot().Workspaces[0].Workspace
	live := []LiveWindow{{ID: 11, Meta: termMeta()}}

	plan := BuildRestorePlan(record, live)
	require.Len(t, plan.Columns, 1)
	assert.Equal(t, []models.WindowID{11}, plan.Columns[0].Windows)
	assert.Empty(t, plan.Floating)
	// Focus pointed at a column that shrank to index 0.
	assert.Equal(t, 0, plan.FocusedColumn)
	assert.Equal(t, 0, plan.FocusedWindow)
}

func TestBuildRestorePlanEmptyLiveSet(t *testing.T) {
	plan := BuildRestorePlan(sampleSnapshot().Workspaces[0].Workspace, nil)
	assert.Empty(t, plan.Columns)
	assert.Empty(t, plan.Floating)
	assert.Equal(t, 0, plan.FocusedColumn)
}

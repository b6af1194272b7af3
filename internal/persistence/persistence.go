// Package persistence saves and restores the daemon's layout across
// sessions. Monitors are matched by device name; windows are matched by
// their (class name, executable) tuple since OS window ids do not survive
// a restart.
package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/scrollwm/scrollwm/pkg/models"
)

// FileName is the snapshot file name under the app-data directory.
const FileName = "state.json"

// WindowRef identifies a persisted window for re-matching after restart.
type WindowRef struct {
	ClassName  string `json:"class_name"`
	Executable string `json:"executable"`
}

// ColumnRecord is one persisted column.
type ColumnRecord struct {
	Width   int         `json:"width"`
	Windows []WindowRef `json:"windows"`
}

// FloatingRecord is one persisted floating window.
type FloatingRecord struct {
	Ref  WindowRef   `json:"ref"`
	Rect models.Rect `json:"rect"`
}

// WorkspaceRecord is the persisted form of one workspace.
type WorkspaceRecord struct {
	ScrollOffset  float64          `json:"scroll_offset"`
	FocusedColumn int              `json:"focused_column"`
	FocusedWindow int              `json:"focused_window"`
	Columns       []ColumnRecord   `json:"columns"`
	Floating      []FloatingRecord `json:"floating,omitempty"`
}

// MonitorRecord pairs a workspace with its monitor's device name.
type MonitorRecord struct {
	MonitorDeviceName string          `json:"monitor_device_name"`
	Workspace         WorkspaceRecord `json:"workspace"`
}

// Snapshot is the on-disk file layout.
type Snapshot struct {
	SavedAt            time.Time       `json:"saved_at"`
	FocusedMonitorName string          `json:"focused_monitor_name"`
	Workspaces         []MonitorRecord `json:"workspaces"`
}

// DefaultPath returns the snapshot location under the user's app-data
// directory.
func DefaultPath() string {
	return filepath.Join(xdg.DataHome, "scrollwm", FileName)
}

// Save writes the snapshot atomically: a temp file in the target
// directory followed by a rename.
func Save(path string, snapshot Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	payload, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), FileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(payload, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// Load reads a snapshot. A missing file returns os.ErrNotExist.
func Load(path string) (Snapshot, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, err
	}
	var snapshot Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return snapshot, nil
}

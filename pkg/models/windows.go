package models

import "time"

// Placement is one computed window position produced by the layout engine.
// Visible reports whether the rect intersects the viewport; non-visible
// placements are still emitted so the applier can cloak or park the window.
type Placement struct {
	Window  WindowID `json:"window"`
	Rect    Rect     `json:"rect"`
	Visible bool     `json:"visible"`
}

// WindowInfo is the query-surface description of one managed window.
type WindowInfo struct {
	ID          uint64 `json:"id"`
	Title       string `json:"title"`
	ClassName   string `json:"class_name"`
	ProcessID   uint32 `json:"process_id"`
	Executable  string `json:"executable"`
	Rect        Rect   `json:"rect"`
	ColumnIndex *int   `json:"column_index"`
	WindowIndex *int   `json:"window_index"`
	MonitorID   int64  `json:"monitor_id"`
	IsFloating  bool   `json:"is_floating"`
	IsFocused   bool   `json:"is_focused"`
}

// MonitorInfo describes one physical monitor as enumerated from the OS.
type MonitorInfo struct {
	ID         MonitorID `json:"id"`
	DeviceName string    `json:"device_name"`
	Bounds     Rect      `json:"bounds"`
	WorkArea   Rect      `json:"work_area"`
	IsPrimary  bool      `json:"is_primary"`
}

// WindowMetadata holds the identifying attributes fetched from the OS when
// a window first appears; rule evaluation and persistence matching run
// against these fields.
type WindowMetadata struct {
	Title      string `json:"title"`
	ClassName  string `json:"class_name"`
	Executable string `json:"executable"`
	ProcessID  uint32 `json:"process_id"`
}

// StatusInfo is the query_status response payload.
type StatusInfo struct {
	Version        string    `json:"version"`
	StartedAt      time.Time `json:"started_at"`
	UptimeSeconds  int64     `json:"uptime_seconds"`
	ManagedWindows int       `json:"managed_windows"`
	MonitorCount   int       `json:"monitor_count"`
	Paused         bool      `json:"paused"`
}

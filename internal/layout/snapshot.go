package layout

import "github.com/scrollwm/scrollwm/pkg/models"

// ColumnSnapshot is the serialized form of one column.
type ColumnSnapshot struct {
	Width   int               `json:"width"`
	Windows []models.WindowID `json:"windows"`
}

// FloatingSnapshot is the serialized form of one floating window.
type FloatingSnapshot struct {
	Window models.WindowID `json:"window"`
	Rect   models.Rect     `json:"rect"`
}

// Snapshot is the full serializable state of a workspace. Round-tripping
// through FromSnapshot reproduces an equivalent workspace.
type Snapshot struct {
	Columns            []ColumnSnapshot   `json:"columns"`
	FocusedColumn      int                `json:"focused_column"`
	FocusedWindow      int                `json:"focused_window"`
	ScrollOffset       float64            `json:"scroll_offset"`
	Gap                int                `json:"gap"`
	OuterGap           int                `json:"outer_gap"`
	DefaultColumnWidth int                `json:"default_column_width"`
	CenteringMode      CenteringMode      `json:"centering_mode"`
	Floating           []FloatingSnapshot `json:"floating"`
}

// Snapshot captures the workspace state for persistence.
func (w *Workspace) Snapshot() Snapshot {
	s := Snapshot{
		Columns:            make([]ColumnSnapshot, 0, len(w.columns)),
		FocusedColumn:      w.focusedColumn,
		FocusedWindow:      w.focusedWindow,
		ScrollOffset:       w.scrollOffset,
		Gap:                w.gap,
		OuterGap:           w.outerGap,
		DefaultColumnWidth: w.defaultColumnWidth,
		CenteringMode:      w.centeringMode,
		Floating:           make([]FloatingSnapshot, 0, len(w.floatingOrder)),
	}
	for _, col := range w.columns {
		s.Columns = append(s.Columns, ColumnSnapshot{Width: col.Width(), Windows: col.Windows()})
	}
	for _, id := range w.floatingOrder {
		s.Floating = append(s.Floating, FloatingSnapshot{Window: id, Rect: w.floating[id]})
	}
	return s
}

// FromSnapshot rebuilds a workspace from serialized state. Inputs that
// violate invariants (duplicate ids, out-of-range focus, negative offsets)
// are repaired rather than rejected: a stale or hand-edited snapshot must
// never prevent startup.
func FromSnapshot(s Snapshot) *Workspace {
	w := NewWorkspace(Options{
		Gap:                s.Gap,
		OuterGap:           s.OuterGap,
		DefaultColumnWidth: s.DefaultColumnWidth,
		CenteringMode:      s.CenteringMode,
	})
	seen := make(map[models.WindowID]struct{})
	for _, cs := range s.Columns {
		col := NewColumn(cs.Width)
		for _, id := range cs.Windows {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			col.Push(id)
		}
		if !col.IsEmpty() {
			w.columns = append(w.columns, col)
		}
	}
	for _, f := range s.Floating {
		if _, dup := seen[f.Window]; dup {
			continue
		}
		seen[f.Window] = struct{}{}
		w.floating[f.Window] = f.Rect
		w.floatingOrder = append(w.floatingOrder, f.Window)
	}
	if len(w.columns) > 0 {
		w.focusedColumn = s.FocusedColumn
		if w.focusedColumn < 0 || w.focusedColumn >= len(w.columns) {
			w.focusedColumn = 0
		}
		w.focusedWindow = s.FocusedWindow
		w.clampFocusedWindow()
	}
	if s.ScrollOffset > 0 {
		w.scrollOffset = sanitize(s.ScrollOffset)
	}
	w.debugValidate()
	return w
}

package layout

import "fmt"

// invariantChecks gates the post-mutation validation pass. Off in normal
// operation; the test suites switch it on so every public mutation is
// followed by a full structural check.
var invariantChecks = false

// EnableInvariantChecks turns on post-mutation validation for the process.
func EnableInvariantChecks() { invariantChecks = true }

func (w *Workspace) debugValidate() {
	if !invariantChecks {
		return
	}
	if err := w.Validate(); err != nil {
		panic(err)
	}
}

// Validate checks the workspace's structural invariants: window uniqueness
// across columns and the floating set, focus indices in range, non-negative
// scroll offset, and agreement between the floating map and its order list.
func (w *Workspace) Validate() error {
	seen := make(map[uint64]struct{}, w.WindowCount())
	for colIdx, col := range w.columns {
		for _, id := range col.windows {
			if _, dup := seen[uint64(id)]; dup {
				return fmt.Errorf("window %d appears more than once (column %d)", id, colIdx)
			}
			seen[uint64(id)] = struct{}{}
		}
		if col.Width() < MinColumnWidth {
			return fmt.Errorf("column %d width %d below minimum", colIdx, col.Width())
		}
	}
	for id := range w.floating {
		if _, dup := seen[uint64(id)]; dup {
			return fmt.Errorf("window %d is both tiled and floating", id)
		}
	}
	if len(w.floating) != len(w.floatingOrder) {
		return fmt.Errorf("floating order list out of sync: %d entries for %d windows",
			len(w.floatingOrder), len(w.floating))
	}
	if len(w.columns) == 0 {
		if w.focusedColumn != 0 || w.focusedWindow != 0 {
			return fmt.Errorf("empty workspace with focus (%d,%d)", w.focusedColumn, w.focusedWindow)
		}
	} else {
		if w.focusedColumn < 0 || w.focusedColumn >= len(w.columns) {
			return fmt.Errorf("focused column %d out of range [0,%d)", w.focusedColumn, len(w.columns))
		}
		if w.focusedWindow < 0 || w.focusedWindow >= w.columns[w.focusedColumn].Len() {
			return fmt.Errorf("focused window %d out of range [0,%d)",
				w.focusedWindow, w.columns[w.focusedColumn].Len())
		}
	}
	if w.scrollOffset < 0 {
		return fmt.Errorf("negative scroll offset %f", w.scrollOffset)
	}
	return nil
}

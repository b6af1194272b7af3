package persistence

import (
	"strings"

	"github.com/scrollwm/scrollwm/pkg/models"
)

// LiveWindow is one currently existing window offered to the matcher, in
// enumeration order.
type LiveWindow struct {
	ID   models.WindowID
	Meta models.WindowMetadata
}

// RestoredColumn is one column of the restore plan with resolved ids.
type RestoredColumn struct {
	Width   int
	Windows []models.WindowID
}

// RestoredFloating is one resolved floating window.
type RestoredFloating struct {
	Window models.WindowID
	Rect   models.Rect
}

// RestorePlan is the result of matching a persisted workspace against the
// live window set. Claimed windows skip normal rule evaluation; everything
// else enters the workspace the usual way.
type RestorePlan struct {
	Columns       []RestoredColumn
	Floating      []RestoredFloating
	ScrollOffset  float64
	FocusedColumn int
	FocusedWindow int
	Claimed       map[models.WindowID]bool
}

func refMatches(ref WindowRef, meta models.WindowMetadata) bool {
	return strings.EqualFold(ref.ClassName, meta.ClassName) &&
		strings.EqualFold(ref.Executable, meta.Executable)
}

// BuildRestorePlan resolves each persisted window reference to the first
// unclaimed live window with the same (class, executable) tuple, in
// enumeration order. References with no live counterpart are dropped;
// columns that end up empty are dropped with them.
func BuildRestorePlan(record WorkspaceRecord, live []LiveWindow) RestorePlan {
	plan := RestorePlan{
		ScrollOffset:  record.ScrollOffset,
		FocusedColumn: record.FocusedColumn,
		FocusedWindow: record.FocusedWindow,
		Claimed:       make(map[models.WindowID]bool),
	}

	claim := func(ref WindowRef) (models.WindowID, bool) {
		for _, w := range live {
			if plan.Claimed[w.ID] || !refMatches(ref, w.Meta) {
				continue
			}
			plan.Claimed[w.ID] = true
			return w.ID, true
		}
		return 0, false
	}

	for _, col := range record.Columns {
		restored := RestoredColumn{Width: col.Width}
		for _, ref := range col.Windows {
			if id, ok := claim(ref); ok {
				restored.Windows = append(restored.Windows, id)
			}
		}
		if len(restored.Windows) > 0 {
			plan.Columns = append(plan.Columns, restored)
		}
	}
	for _, f := range record.Floating {
		if id, ok := claim(f.Ref); ok {
			plan.Floating = append(plan.Floating, RestoredFloating{Window: id, Rect: f.Rect})
		}
	}

	if plan.FocusedColumn >= len(plan.Columns) {
		plan.FocusedColumn = 0
		plan.FocusedWindow = 0
	} else if plan.FocusedColumn >= 0 && plan.FocusedWindow >= len(plan.Columns[plan.FocusedColumn].Windows) {
		plan.FocusedWindow = 0
	}
	return plan
}

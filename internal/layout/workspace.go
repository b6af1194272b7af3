package layout

import (
	"fmt"
	"math"
	"time"

	"github.com/scrollwm/scrollwm/pkg/models"
)

// CenteringMode selects how ensure-visible positions the focused column.
type CenteringMode string

const (
	// CenteringCenter centers the focused column in the viewport.
	CenteringCenter CenteringMode = "center"
	// CenteringJustInView pans the minimum distance needed when the focused
	// column is entirely outside the viewport.
	CenteringJustInView CenteringMode = "just_in_view"
)

// Options carries the layout constants a workspace is created with.
type Options struct {
	Gap                int
	OuterGap           int
	DefaultColumnWidth int
	CenteringMode      CenteringMode
}

// Workspace is the per-monitor layout state: an ordered strip of columns,
// a floating set, focus indices, and the scroll offset positioning the
// viewport over the strip. All mutation goes through the exported methods;
// every fallible operation either fully applies or returns an error with
// no state change.
type Workspace struct {
	columns            []*Column
	focusedColumn      int
	focusedWindow      int
	scrollOffset       float64
	gap                int
	outerGap           int
	defaultColumnWidth int
	centeringMode      CenteringMode
	floating           map[models.WindowID]models.Rect
	floatingOrder      []models.WindowID
	anim               *scrollAnimation
}

// NewWorkspace returns an empty workspace with clamped layout constants.
func NewWorkspace(opts Options) *Workspace {
	w := &Workspace{
		centeringMode: opts.CenteringMode,
		floating:      make(map[models.WindowID]models.Rect),
	}
	w.SetGap(opts.Gap)
	w.SetOuterGap(opts.OuterGap)
	w.SetDefaultColumnWidth(opts.DefaultColumnWidth)
	if w.centeringMode == "" {
		w.centeringMode = CenteringCenter
	}
	return w
}

// Gap returns the inter-column and intra-stack gap.
func (w *Workspace) Gap() int { return w.gap }

// SetGap sets the gap, clamped to zero.
func (w *Workspace) SetGap(gap int) {
	if gap < 0 {
		gap = 0
	}
	w.gap = gap
}

// OuterGap returns the padding between the viewport edge and the strip.
func (w *Workspace) OuterGap() int { return w.outerGap }

// SetOuterGap sets the outer gap, clamped to zero.
func (w *Workspace) SetOuterGap(gap int) {
	if gap < 0 {
		gap = 0
	}
	w.outerGap = gap
}

// DefaultColumnWidth returns the width assigned to newly created columns.
func (w *Workspace) DefaultColumnWidth() int { return w.defaultColumnWidth }

// SetDefaultColumnWidth sets the default column width, clamped to
// MinColumnWidth.
func (w *Workspace) SetDefaultColumnWidth(width int) {
	w.defaultColumnWidth = clampWidth(width)
}

// CenteringMode returns the active centering mode.
func (w *Workspace) CenteringMode() CenteringMode { return w.centeringMode }

// SetCenteringMode switches the centering mode.
func (w *Workspace) SetCenteringMode(mode CenteringMode) { w.centeringMode = mode }

// ScrollOffset returns the current viewport displacement from the strip
// origin.
func (w *Workspace) ScrollOffset() float64 { return w.scrollOffset }

// ColumnCount returns the number of columns in the strip.
func (w *Workspace) ColumnCount() int { return len(w.columns) }

// Columns returns a read-only view of the strip, leftmost first. Callers
// must not mutate the returned columns.
func (w *Workspace) Columns() []*Column {
	out := make([]*Column, len(w.columns))
	copy(out, w.columns)
	return out
}

// FocusedColumnIndex returns the index of the focused column; zero when
// the workspace is empty.
func (w *Workspace) FocusedColumnIndex() int { return w.focusedColumn }

// FocusedWindowIndex returns the stack index of the focused window within
// the focused column; zero when the workspace is empty.
func (w *Workspace) FocusedWindowIndex() int { return w.focusedWindow }

// FocusedWindow returns the focused tiled window, if any.
func (w *Workspace) FocusedWindow() (models.WindowID, bool) {
	if len(w.columns) == 0 {
		return 0, false
	}
	return w.columns[w.focusedColumn].WindowAt(w.focusedWindow)
}

// InsertWindow creates a new column holding only id immediately to the
// right of the focused column (at index 0 in an empty workspace) and moves
// focus to it. Fails with ErrDuplicateWindow when the id is already managed.
func (w *Workspace) InsertWindow(id models.WindowID) error {
	if w.ContainsWindow(id) {
		return fmt.Errorf("insert %d: %w", id, ErrDuplicateWindow)
	}
	col := NewColumn(w.defaultColumnWidth)
	col.Push(id)
	at := 0
	if len(w.columns) > 0 {
		at = w.focusedColumn + 1
	}
	w.columns = append(w.columns, nil)
	copy(w.columns[at+1:], w.columns[at:])
	w.columns[at] = col
	w.focusedColumn = at
	w.focusedWindow = 0
	w.debugValidate()
	return nil
}

// InsertWindowInColumn stacks id into an existing column at the given
// position and moves focus to it.
func (w *Workspace) InsertWindowInColumn(id models.WindowID, colIdx, position int) error {
	if w.ContainsWindow(id) {
		return fmt.Errorf("insert %d: %w", id, ErrDuplicateWindow)
	}
	if colIdx < 0 || colIdx >= len(w.columns) {
		return fmt.Errorf("insert %d in column %d: %w", id, colIdx, ErrColumnOutOfBounds)
	}
	if err := w.columns[colIdx].InsertAt(position, id); err != nil {
		return fmt.Errorf("insert %d in column %d: %w", id, colIdx, err)
	}
	w.focusedColumn = colIdx
	w.focusedWindow = position
	w.debugValidate()
	return nil
}

// RemoveWindow removes id from the strip or the floating set, applying the
// focus-on-removal policy. Emptied columns are removed.
func (w *Workspace) RemoveWindow(id models.WindowID) error {
	if _, ok := w.floating[id]; ok {
		w.removeFloating(id)
		w.debugValidate()
		return nil
	}
	for colIdx, col := range w.columns {
		winIdx, ok := col.Remove(id)
		if !ok {
			continue
		}
		if col.IsEmpty() {
			w.removeColumn(colIdx)
		} else if colIdx == w.focusedColumn {
			switch {
			case winIdx < w.focusedWindow:
				w.focusedWindow--
			case winIdx == w.focusedWindow && w.focusedWindow >= col.Len():
				// Removed the focused window at the bottom of the stack.
				w.focusedWindow = col.Len() - 1
			}
		}
		w.debugValidate()
		return nil
	}
	return fmt.Errorf("remove %d: %w", id, ErrWindowNotFound)
}

// removeColumn drops the column at colIdx and repairs the focus indices.
// Focus lands on the column at the same index when one exists, else the
// one to the left.
func (w *Workspace) removeColumn(colIdx int) {
	w.columns = append(w.columns[:colIdx], w.columns[colIdx+1:]...)
	if len(w.columns) == 0 {
		w.focusedColumn = 0
		w.focusedWindow = 0
		return
	}
	switch {
	case colIdx < w.focusedColumn:
		w.focusedColumn--
	case colIdx == w.focusedColumn:
		if w.focusedColumn >= len(w.columns) {
			w.focusedColumn = len(w.columns) - 1
		}
		w.focusedWindow = 0
	}
	w.clampFocusedWindow()
}

func (w *Workspace) clampFocusedWindow() {
	if len(w.columns) == 0 {
		w.focusedWindow = 0
		return
	}
	if n := w.columns[w.focusedColumn].Len(); w.focusedWindow >= n {
		w.focusedWindow = n - 1
	}
	if w.focusedWindow < 0 {
		w.focusedWindow = 0
	}
}

// FocusLeft moves focus one column left. Out-of-bounds requests are no-ops.
func (w *Workspace) FocusLeft() {
	if len(w.columns) == 0 || w.focusedColumn == 0 {
		return
	}
	w.focusedColumn--
	w.clampFocusedWindow()
	w.debugValidate()
}

// FocusRight moves focus one column right. Out-of-bounds requests are
// no-ops; navigation does not wrap at the strip ends.
func (w *Workspace) FocusRight() {
	if len(w.columns) == 0 || w.focusedColumn >= len(w.columns)-1 {
		return
	}
	w.focusedColumn++
	w.clampFocusedWindow()
	w.debugValidate()
}

// FocusUp moves focus one window up within the focused column's stack.
func (w *Workspace) FocusUp() {
	if len(w.columns) == 0 || w.focusedWindow == 0 {
		return
	}
	w.focusedWindow--
	w.debugValidate()
}

// FocusDown moves focus one window down within the focused column's stack.
func (w *Workspace) FocusDown() {
	if len(w.columns) == 0 {
		return
	}
	if w.focusedWindow >= w.columns[w.focusedColumn].Len()-1 {
		return
	}
	w.focusedWindow++
	w.debugValidate()
}

// FocusWindow points the focus indices at id. Focusing a floating window
// leaves the tiled focus untouched. Does not scroll.
func (w *Workspace) FocusWindow(id models.WindowID) error {
	if _, ok := w.floating[id]; ok {
		return nil
	}
	for colIdx, col := range w.columns {
		if winIdx := col.IndexOf(id); winIdx >= 0 {
			w.focusedColumn = colIdx
			w.focusedWindow = winIdx
			w.debugValidate()
			return nil
		}
	}
	return fmt.Errorf("focus %d: %w", id, ErrWindowNotFound)
}

// SetFocus sets the focus indices directly after validating both.
func (w *Workspace) SetFocus(colIdx, winIdx int) error {
	if colIdx < 0 || colIdx >= len(w.columns) {
		return fmt.Errorf("set focus (%d,%d): %w", colIdx, winIdx, ErrColumnOutOfBounds)
	}
	if winIdx < 0 || winIdx >= w.columns[colIdx].Len() {
		return fmt.Errorf("set focus (%d,%d): %w", colIdx, winIdx, ErrWindowIndexOutOfBounds)
	}
	w.focusedColumn = colIdx
	w.focusedWindow = winIdx
	w.debugValidate()
	return nil
}

// MoveColumnLeft swaps the focused column with its left neighbor; focus
// follows the column. Returns false at the strip edge.
func (w *Workspace) MoveColumnLeft() bool {
	if len(w.columns) == 0 || w.focusedColumn == 0 {
		return false
	}
	i := w.focusedColumn
	w.columns[i-1], w.columns[i] = w.columns[i], w.columns[i-1]
	w.focusedColumn--
	w.debugValidate()
	return true
}

// MoveColumnRight swaps the focused column with its right neighbor; focus
// follows the column. Returns false at the strip edge.
func (w *Workspace) MoveColumnRight() bool {
	if len(w.columns) == 0 || w.focusedColumn >= len(w.columns)-1 {
		return false
	}
	i := w.focusedColumn
	w.columns[i], w.columns[i+1] = w.columns[i+1], w.columns[i]
	w.focusedColumn++
	w.debugValidate()
	return true
}

// ResizeFocusedColumn adjusts the focused column's width by delta pixels,
// clamped to MinColumnWidth.
func (w *Workspace) ResizeFocusedColumn(delta int) {
	if len(w.columns) == 0 {
		return
	}
	col := w.columns[w.focusedColumn]
	col.SetWidth(satAdd(col.Width(), delta))
	w.debugValidate()
}

// SetFocusedColumnWidth assigns an absolute width to the focused column,
// clamped to MinColumnWidth.
func (w *Workspace) SetFocusedColumnWidth(width int) {
	if len(w.columns) == 0 {
		return
	}
	w.columns[w.focusedColumn].SetWidth(width)
	w.debugValidate()
}

// EqualizeColumnWidths distributes the viewport width evenly across all
// columns, accounting for gaps.
func (w *Workspace) EqualizeColumnWidths(viewport models.Rect) {
	n := len(w.columns)
	if n == 0 {
		return
	}
	usable := satSub(viewport.Width(), satAdd(satMul(2, w.outerGap), satMul(w.gap, n-1)))
	width := usable / n
	for _, col := range w.columns {
		col.SetWidth(width)
	}
	w.debugValidate()
}

// stripWidth returns the total width of the strip including outer gaps.
func (w *Workspace) stripWidth() int {
	if len(w.columns) == 0 {
		return 0
	}
	x := satMul(2, w.outerGap)
	for _, col := range w.columns {
		x = satAdd(x, col.Width())
	}
	return satAdd(x, satMul(w.gap, len(w.columns)-1))
}

// maxScroll returns the largest offset manual scrolling may reach.
func (w *Workspace) maxScroll(viewport models.Rect) float64 {
	m := satSub(w.stripWidth(), viewport.Width())
	if m < 0 {
		m = 0
	}
	return float64(m)
}

// columnX returns the strip-coordinate left edge of column i.
func (w *Workspace) columnX(i int) int {
	x := w.outerGap
	for j := 0; j < i && j < len(w.columns); j++ {
		x = satAdd(x, satAdd(w.columns[j].Width(), w.gap))
	}
	return x
}

// ScrollBy pans the viewport by delta pixels, clamped to the scrollable
// range. Cancels any in-flight scroll animation.
func (w *Workspace) ScrollBy(delta float64, viewport models.Rect) {
	w.anim = nil
	w.scrollOffset = clampFloat(sanitize(w.scrollOffset+delta), 0, w.maxScroll(viewport))
	w.debugValidate()
}

// visibleTarget computes the offset ensure-visible should land on, or the
// current offset when no adjustment is needed.
func (w *Workspace) visibleTarget(viewport models.Rect) float64 {
	if len(w.columns) == 0 {
		return w.scrollOffset
	}
	col := w.columns[w.focusedColumn]
	colLeft := float64(w.columnX(w.focusedColumn))
	colRight := colLeft + float64(col.Width())
	vw := float64(viewport.Width())

	switch w.centeringMode {
	case CenteringJustInView:
		viewLeft := w.scrollOffset
		viewRight := viewLeft + vw
		if colRight > viewLeft && colLeft < viewRight {
			return w.scrollOffset
		}
		var target float64
		if colLeft >= viewRight {
			target = colRight - vw
		} else {
			target = colLeft
		}
		return clampFloat(sanitize(target), 0, w.maxScroll(viewport))
	default:
		// Center mode may legitimately exceed the manual-scroll range when
		// centering a column near the strip's right end; only the lower
		// bound is clamped.
		center := colLeft + float64(col.Width())/2
		target := center - vw/2
		return math.Max(0, sanitize(target))
	}
}

// EnsureFocusedVisible snaps the scroll offset so the focused column is
// visible per the centering mode. Cancels any in-flight animation.
func (w *Workspace) EnsureFocusedVisible(viewport models.Rect) {
	w.anim = nil
	w.scrollOffset = w.visibleTarget(viewport)
	w.debugValidate()
}

// EnsureFocusedVisibleAnimated starts a scroll animation towards the
// ensure-visible target. A no-op when the offset is already there.
func (w *Workspace) EnsureFocusedVisibleAnimated(viewport models.Rect, duration time.Duration, easing Easing, now time.Time) {
	target := w.visibleTarget(viewport)
	if target == w.scrollOffset {
		return
	}
	w.StartScrollAnimation(target, duration, easing, now)
}

// StartScrollAnimation begins animating the scroll offset towards target.
// A new animation replaces any in-flight one from the current offset.
func (w *Workspace) StartScrollAnimation(target float64, duration time.Duration, easing Easing, now time.Time) {
	target = math.Max(0, sanitize(target))
	if duration <= 0 {
		w.anim = nil
		w.scrollOffset = target
		w.debugValidate()
		return
	}
	w.anim = &scrollAnimation{
		startOffset:  w.scrollOffset,
		targetOffset: target,
		startTime:    now,
		duration:     duration,
		easing:       easing,
	}
}

// AnimationActive reports whether a scroll animation is in flight.
func (w *Workspace) AnimationActive() bool { return w.anim != nil }

// TickAnimation advances the active animation to the given instant and
// reports whether it is still running. On completion the offset lands on
// the target exactly and the animation is cleared.
func (w *Workspace) TickAnimation(now time.Time) bool {
	if w.anim == nil {
		return false
	}
	offset, running := w.anim.offsetAt(now)
	w.scrollOffset = offset
	if !running {
		w.anim = nil
	}
	w.debugValidate()
	return running
}

// AddFloating places id in the floating set at the given rect.
func (w *Workspace) AddFloating(id models.WindowID, rect models.Rect) error {
	if w.ContainsWindow(id) {
		return fmt.Errorf("float %d: %w", id, ErrDuplicateWindow)
	}
	w.floating[id] = rect
	w.floatingOrder = append(w.floatingOrder, id)
	w.debugValidate()
	return nil
}

// SetFloatingRect updates the stored rect of a floating window.
func (w *Workspace) SetFloatingRect(id models.WindowID, rect models.Rect) error {
	if _, ok := w.floating[id]; !ok {
		return fmt.Errorf("move floating %d: %w", id, ErrWindowNotFound)
	}
	w.floating[id] = rect
	return nil
}

// FloatingRect returns the stored rect of a floating window.
func (w *Workspace) FloatingRect(id models.WindowID) (models.Rect, bool) {
	rect, ok := w.floating[id]
	return rect, ok
}

// IsFloating reports whether id is in the floating set.
func (w *Workspace) IsFloating(id models.WindowID) bool {
	_, ok := w.floating[id]
	return ok
}

func (w *Workspace) removeFloating(id models.WindowID) {
	delete(w.floating, id)
	for i, f := range w.floatingOrder {
		if f == id {
			w.floatingOrder = append(w.floatingOrder[:i], w.floatingOrder[i+1:]...)
			break
		}
	}
}

// WindowLocation describes where a window lives inside a workspace.
type WindowLocation struct {
	ColumnIndex int
	WindowIndex int
	Floating    bool
}

// FindWindowLocation locates id within the strip or the floating set.
func (w *Workspace) FindWindowLocation(id models.WindowID) (WindowLocation, bool) {
	if _, ok := w.floating[id]; ok {
		return WindowLocation{Floating: true}, true
	}
	for colIdx, col := range w.columns {
		if winIdx := col.IndexOf(id); winIdx >= 0 {
			return WindowLocation{ColumnIndex: colIdx, WindowIndex: winIdx}, true
		}
	}
	return WindowLocation{}, false
}

// ContainsWindow reports whether id is managed by this workspace.
func (w *Workspace) ContainsWindow(id models.WindowID) bool {
	_, ok := w.FindWindowLocation(id)
	return ok
}

// WindowCount returns the number of managed windows, tiled and floating.
func (w *Workspace) WindowCount() int {
	n := len(w.floating)
	for _, col := range w.columns {
		n += col.Len()
	}
	return n
}

// AllWindowIDs returns every managed window: tiled windows in column order
// followed by floating windows in insertion order.
func (w *Workspace) AllWindowIDs() []models.WindowID {
	out := make([]models.WindowID, 0, w.WindowCount())
	for _, col := range w.columns {
		out = append(out, col.windows...)
	}
	out = append(out, w.floatingOrder...)
	return out
}

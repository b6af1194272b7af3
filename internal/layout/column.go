package layout

import "github.com/scrollwm/scrollwm/pkg/models"

// MinColumnWidth is the lower bound every column width is clamped to.
const MinColumnWidth = 100

// Column is an ordered vertical stack of windows sharing one pixel width.
type Column struct {
	windows []models.WindowID
	width   int
}

// NewColumn returns an empty column with the given width, clamped to
// MinColumnWidth.
func NewColumn(width int) *Column {
	return &Column{width: clampWidth(width)}
}

func clampWidth(width int) int {
	if width < MinColumnWidth {
		return MinColumnWidth
	}
	return width
}

// Width returns the column's pixel width.
func (c *Column) Width() int { return c.width }

// SetWidth sets the column width, clamped to MinColumnWidth.
func (c *Column) SetWidth(width int) { c.width = clampWidth(width) }

// Len returns the number of windows stacked in the column.
func (c *Column) Len() int { return len(c.windows) }

// IsEmpty reports whether the column holds no windows.
func (c *Column) IsEmpty() bool { return len(c.windows) == 0 }

// Push appends a window at the bottom of the stack.
func (c *Column) Push(id models.WindowID) {
	c.windows = append(c.windows, id)
}

// InsertAt inserts a window at the given stack position.
// Returns ErrWindowIndexOutOfBounds when index is outside [0, Len()].
func (c *Column) InsertAt(index int, id models.WindowID) error {
	if index < 0 || index > len(c.windows) {
		return ErrWindowIndexOutOfBounds
	}
	c.windows = append(c.windows, 0)
	copy(c.windows[index+1:], c.windows[index:])
	c.windows[index] = id
	return nil
}

// Remove removes the window with the given id and returns the stack index
// it occupied. The second result is false when the id is not present.
func (c *Column) Remove(id models.WindowID) (int, bool) {
	for i, w := range c.windows {
		if w == id {
			c.windows = append(c.windows[:i], c.windows[i+1:]...)
			return i, true
		}
	}
	return 0, false
}

// Swap exchanges two stack positions.
// Returns ErrWindowIndexOutOfBounds when either index is invalid.
func (c *Column) Swap(i, j int) error {
	if i < 0 || i >= len(c.windows) || j < 0 || j >= len(c.windows) {
		return ErrWindowIndexOutOfBounds
	}
	c.windows[i], c.windows[j] = c.windows[j], c.windows[i]
	return nil
}

// IndexOf returns the stack index of id, or -1 when absent.
func (c *Column) IndexOf(id models.WindowID) int {
	for i, w := range c.windows {
		if w == id {
			return i
		}
	}
	return -1
}

// WindowAt returns the window at the given stack index.
func (c *Column) WindowAt(index int) (models.WindowID, bool) {
	if index < 0 || index >= len(c.windows) {
		return 0, false
	}
	return c.windows[index], true
}

// Windows returns a copy of the stack, top first.
func (c *Column) Windows() []models.WindowID {
	out := make([]models.WindowID, len(c.windows))
	copy(out, c.windows)
	return out
}

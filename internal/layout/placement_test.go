package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrollwm/scrollwm/pkg/models"
)

func TestStackedColumnHeights(t *testing.T) {
	w := NewWorkspace(testOptions())
	require.NoError(t, w.InsertWindow(1))
	require.NoError(t, w.InsertWindowInColumn(2, 0, 1))
	require.NoError(t, w.InsertWindowInColumn(3, 0, 2))

	placements := w.ComputePlacements(testViewport())
	require.Len(t, placements, 3)

	// usable = 780, gaps = 20, each window (780-20)/3 = 253.
	assert.Equal(t, models.NewRect(10, 10, 300, 253), placements[0].Rect)
	assert.Equal(t, models.NewRect(10, 273, 300, 253), placements[1].Rect)
	assert.Equal(t, models.NewRect(10, 536, 300, 253), placements[2].Rect)
	for _, p := range placements {
		assert.True(t, p.Visible)
	}
}

func TestViewportSmallerThanOuterGaps(t *testing.T) {
	w := NewWorkspace(testOptions())
	require.NoError(t, w.InsertWindow(1))
	require.NoError(t, w.InsertWindowInColumn(2, 0, 1))

	placements := w.ComputePlacements(models.NewRect(0, 0, 1000, 15))
	require.Len(t, placements, 2)
	for _, p := range placements {
		assert.Equal(t, 0, p.Rect.Height())
		assert.False(t, p.Visible)
	}
}

func TestManyStackedWindowsZeroHeightNoOverlap(t *testing.T) {
	w := NewWorkspace(testOptions())
	require.NoError(t, w.InsertWindow(1))
	for id := models.WindowID(2); id <= 60; id++ {
		require.NoError(t, w.InsertWindowInColumn(id, 0, int(id-1)))
	}

	placements := w.ComputePlacements(models.NewRect(0, 0, 1000, 100))
	require.Len(t, placements, 60)
	for _, p := range placements {
		assert.Equal(t, 0, p.Rect.Height())
		assert.False(t, p.Visible)
	}
	// Zero-height rects cannot overlap by definition; the emitted y
	// positions must still be strictly increasing.
	for i := 1; i < len(placements); i++ {
		assert.Greater(t, placements[i].Rect.Y(), placements[i-1].Rect.Y())
	}
}

func TestOffscreenPlacementsStillEmitted(t *testing.T) {
	w := NewWorkspace(testOptions())
	viewport := testViewport()
	for id := models.WindowID(1); id <= 6; id++ {
		require.NoError(t, w.InsertWindow(id))
	}
	w.EnsureFocusedVisible(viewport)

	placements := w.ComputePlacements(viewport)
	require.Len(t, placements, 6)

	visible := 0
	for _, p := range placements {
		if p.Visible {
			visible++
			assert.True(t, p.Rect.Intersects(viewport))
		} else {
			assert.False(t, p.Rect.Intersects(viewport))
		}
	}
	assert.Greater(t, visible, 0)
	assert.Less(t, visible, 6)
}

func TestComputePlacementsIsPure(t *testing.T) {
	w := NewWorkspace(testOptions())
	require.NoError(t, w.InsertWindow(1))
	require.NoError(t, w.InsertWindow(2))
	require.NoError(t, w.AddFloating(3, models.NewRect(40, 40, 500, 400)))
	w.ScrollBy(37.5, testViewport())

	first := w.ComputePlacements(testViewport())
	second := w.ComputePlacements(testViewport())
	assert.Equal(t, first, second)
}

func TestFloatingEmittedLastIndependentOfScroll(t *testing.T) {
	w := NewWorkspace(testOptions())
	viewport := testViewport()
	for id := models.WindowID(1); id <= 5; id++ {
		require.NoError(t, w.InsertWindow(id))
	}
	rect := models.NewRect(100, 100, 400, 300)
	require.NoError(t, w.AddFloating(9, rect))

	w.ScrollBy(500, viewport)
	placements := w.ComputePlacements(viewport)
	last := placements[len(placements)-1]
	assert.Equal(t, models.WindowID(9), last.Window)
	assert.Equal(t, rect, last.Rect)
	assert.True(t, last.Visible)
}

func TestViewportOriginTranslation(t *testing.T) {
	w := NewWorkspace(testOptions())
	require.NoError(t, w.InsertWindow(1))

	// A viewport on a secondary monitor to the right of the primary.
	viewport := models.NewRect(1920, 200, 1000, 800)
	placements := w.ComputePlacements(viewport)
	require.Len(t, placements, 1)
	assert.Equal(t, models.NewRect(1930, 210, 300, 780), placements[0].Rect)
	assert.True(t, placements[0].Visible)
}

func TestFractionalOffsetRoundedOnce(t *testing.T) {
	w := NewWorkspace(testOptions())
	for id := models.WindowID(1); id <= 5; id++ {
		require.NoError(t, w.InsertWindow(id))
	}
	w.ScrollBy(100.4, testViewport())

	placements := w.ComputePlacements(testViewport())
	// round(100.4) = 100 applied to every column identically.
	assert.Equal(t, 10-100, placements[0].Rect.X())
	assert.Equal(t, 320-100, placements[1].Rect.X())
	assert.Equal(t, 630-100, placements[2].Rect.X())
}

package layout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrollwm/scrollwm/pkg/models"
)

func TestScrollAnimationEaseOut(t *testing.T) {
	w := NewWorkspace(testOptions())
	require.NoError(t, w.InsertWindow(1))

	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	w.StartScrollAnimation(300, 200*time.Millisecond, EasingEaseOut, t0)
	assert.True(t, w.AnimationActive())

	running := w.TickAnimation(t0.Add(100 * time.Millisecond))
	assert.True(t, running)
	// ease_out(0.5) = 1 - 0.25 = 0.75 → lerp(0, 300, 0.75) = 225.
	assert.InDelta(t, 225.0, w.ScrollOffset(), 1e-9)

	running = w.TickAnimation(t0.Add(200 * time.Millisecond))
	assert.False(t, running)
	assert.Equal(t, 300.0, w.ScrollOffset())
	assert.False(t, w.AnimationActive())
}

func TestScrollAnimationReplacedMidFlight(t *testing.T) {
	w := NewWorkspace(testOptions())
	t0 := time.Unix(100, 0)

	w.StartScrollAnimation(400, 200*time.Millisecond, EasingLinear, t0)
	w.TickAnimation(t0.Add(100 * time.Millisecond))
	assert.InDelta(t, 200.0, w.ScrollOffset(), 1e-9)

	// The replacement starts from the current offset, not the original.
	t1 := t0.Add(100 * time.Millisecond)
	w.StartScrollAnimation(0, 100*time.Millisecond, EasingLinear, t1)
	w.TickAnimation(t1.Add(50 * time.Millisecond))
	assert.InDelta(t, 100.0, w.ScrollOffset(), 1e-9)
}

func TestScrollAnimationCancelledByDirectScroll(t *testing.T) {
	w := NewWorkspace(testOptions())
	for id := models.WindowID(1); id <= 5; id++ {
		require.NoError(t, w.InsertWindow(id))
	}
	t0 := time.Unix(0, 0)
	w.StartScrollAnimation(500, time.Second, EasingLinear, t0)

	w.ScrollBy(100, testViewport())
	assert.False(t, w.AnimationActive())
	assert.Equal(t, 100.0, w.ScrollOffset())
	assert.False(t, w.TickAnimation(t0.Add(time.Second)))
	assert.Equal(t, 100.0, w.ScrollOffset())
}

func TestComputePlacementsAnimatedDoesNotMutate(t *testing.T) {
	w := NewWorkspace(testOptions())
	require.NoError(t, w.InsertWindow(1))
	t0 := time.Unix(0, 0)
	w.StartScrollAnimation(100, 100*time.Millisecond, EasingLinear, t0)

	mid := t0.Add(50 * time.Millisecond)
	first := w.ComputePlacementsAnimated(testViewport(), mid)
	second := w.ComputePlacementsAnimated(testViewport(), mid)
	assert.Equal(t, first, second)
	assert.Equal(t, 0.0, w.ScrollOffset())
	assert.True(t, w.AnimationActive())

	// Sampling past the end lands exactly on the target.
	done := w.ComputePlacementsAnimated(testViewport(), t0.Add(time.Second))
	assert.Equal(t, 10-100, done[0].Rect.X())
}

func TestEnsureFocusedVisibleAnimated(t *testing.T) {
	w := NewWorkspace(testOptions())
	viewport := testViewport()
	require.NoError(t, w.InsertWindow(1))
	require.NoError(t, w.InsertWindow(2))
	require.NoError(t, w.InsertWindow(3))

	t0 := time.Unix(0, 0)
	w.EnsureFocusedVisibleAnimated(viewport, 200*time.Millisecond, EasingEaseOut, t0)
	require.True(t, w.AnimationActive())

	w.TickAnimation(t0.Add(200 * time.Millisecond))
	assert.Equal(t, 280.0, w.ScrollOffset())

	// Already on target: nothing to animate.
	w.EnsureFocusedVisibleAnimated(viewport, 200*time.Millisecond, EasingEaseOut, t0)
	assert.False(t, w.AnimationActive())
}

func TestZeroDurationAnimationSnaps(t *testing.T) {
	w := NewWorkspace(testOptions())
	w.StartScrollAnimation(120, 0, EasingLinear, time.Unix(0, 0))
	assert.False(t, w.AnimationActive())
	assert.Equal(t, 120.0, w.ScrollOffset())
}

package gestures

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testConfig() Config {
	return Config{
		Enabled: true,
		Left:    "focus_left",
		Right:   "focus_right",
		Up:      "focus_up",
		Down:    "focus_down",
	}
}

func TestGestureFiresAtThreeNotches(t *testing.T) {
	r := NewRecognizer(testConfig())
	t0 := time.Unix(0, 0)

	cmd, fired := r.Feed(WheelDelta, 0, t0)
	assert.False(t, fired)
	cmd, fired = r.Feed(WheelDelta, 0, t0.Add(50*time.Millisecond))
	assert.False(t, fired)
	cmd, fired = r.Feed(WheelDelta, 0, t0.Add(100*time.Millisecond))
	assert.True(t, fired)
	assert.Equal(t, "focus_right", cmd)

	// Accumulator resets after firing.
	_, fired = r.Feed(WheelDelta, 0, t0.Add(150*time.Millisecond))
	assert.False(t, fired)
}

func TestGestureDirections(t *testing.T) {
	t0 := time.Unix(0, 0)

	r := NewRecognizer(testConfig())
	cmd, fired := r.Feed(-3*WheelDelta, 0, t0)
	assert.True(t, fired)
	assert.Equal(t, "focus_left", cmd)

	cmd, fired = r.Feed(0, 3*WheelDelta, t0.Add(time.Second))
	assert.True(t, fired)
	assert.Equal(t, "focus_up", cmd)

	cmd, fired = r.Feed(0, -3*WheelDelta, t0.Add(2*time.Second))
	assert.True(t, fired)
	assert.Equal(t, "focus_down", cmd)
}

func TestAccumulatorResetsOnTimeout(t *testing.T) {
	r := NewRecognizer(testConfig())
	t0 := time.Unix(0, 0)

	r.Feed(2*WheelDelta, 0, t0)
	// A gap beyond the window discards the partial gesture.
	_, fired := r.Feed(WheelDelta, 0, t0.Add(time.Second))
	assert.False(t, fired)
	// Two more notches inside the window complete it.
	cmd, fired := r.Feed(2*WheelDelta, 0, t0.Add(time.Second+100*time.Millisecond))
	assert.True(t, fired)
	assert.Equal(t, "focus_right", cmd)
}

func TestDisabledRecognizerNeverFires(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	r := NewRecognizer(cfg)

	_, fired := r.Feed(100*WheelDelta, 0, time.Unix(0, 0))
	assert.False(t, fired)
}

func TestUnmappedDirectionSwallowed(t *testing.T) {
	cfg := testConfig()
	cfg.Up = ""
	r := NewRecognizer(cfg)

	_, fired := r.Feed(0, 3*WheelDelta, time.Unix(0, 0))
	assert.False(t, fired)

	// A later unmapped gesture is swallowed the same way.
	cmd, fired := r.Feed(0, 3*WheelDelta, time.Unix(1, 0))
	assert.False(t, fired)
	assert.Empty(t, cmd)
}

func TestCustomThresholdAndWindow(t *testing.T) {
	cfg := testConfig()
	cfg.Threshold = WheelDelta
	cfg.WindowMs = 50
	r := NewRecognizer(cfg)
	t0 := time.Unix(0, 0)

	cmd, fired := r.Feed(WheelDelta, 0, t0)
	assert.True(t, fired)
	assert.Equal(t, "focus_right", cmd)

	r.Feed(WheelDelta/2, 0, t0.Add(10*time.Millisecond))
	_, fired = r.Feed(WheelDelta/2, 0, t0.Add(100*time.Millisecond))
	assert.False(t, fired, "window expired between the two half-notches")
}
// Package gestures turns raw wheel deltas from the low-level mouse hook
// into command ids. A gesture fires once the accumulated delta along one
// axis crosses the threshold within a sliding activity window.
package gestures

import "time"

// WheelDelta is the standard Win32 wheel notch (WHEEL_DELTA).
const WheelDelta = 120

// DefaultThreshold is three standard wheel notches.
const DefaultThreshold = 3 * WheelDelta

// DefaultWindow is the activity window; the accumulator resets when the
// gap between events exceeds it.
const DefaultWindow = 300 * time.Millisecond

// Config maps each axis direction to a command id. Empty commands
// disable that direction.
type Config struct {
	Enabled   bool          `mapstructure:"enabled" toml:"enabled"`
	Threshold int           `mapstructure:"threshold" toml:"threshold,omitempty"`
	WindowMs  uint32        `mapstructure:"window_ms" toml:"window_ms,omitempty"`
	Left      string        `mapstructure:"left" toml:"left,omitempty"`
	Right     string        `mapstructure:"right" toml:"right,omitempty"`
	Up        string        `mapstructure:"up" toml:"up,omitempty"`
	Down      string        `mapstructure:"down" toml:"down,omitempty"`
}

// Window returns the configured activity window, falling back to the
// default.
func (c Config) Window() time.Duration {
	if c.WindowMs == 0 {
		return DefaultWindow
	}
	return time.Duration(c.WindowMs) * time.Millisecond
}

func (c Config) threshold() int {
	if c.Threshold <= 0 {
		return DefaultThreshold
	}
	return c.Threshold
}

// Recognizer accumulates wheel deltas and reports fired gestures. It is
// driven from the event loop and needs no locking.
type Recognizer struct {
	config    Config
	accumX    int
	accumY    int
	lastEvent time.Time
}

// NewRecognizer returns a recognizer for the given config.
func NewRecognizer(config Config) *Recognizer {
	return &Recognizer{config: config}
}

// Feed adds one wheel event. dx is the horizontal wheel delta, dy the
// vertical one. Returns the fired command id, if any.
func (r *Recognizer) Feed(dx, dy int, now time.Time) (string, bool) {
	if !r.config.Enabled {
		return "", false
	}
	if !r.lastEvent.IsZero() && now.Sub(r.lastEvent) > r.config.Window() {
		r.accumX = 0
		r.accumY = 0
	}
	r.lastEvent = now
	r.accumX += dx
	r.accumY += dy

	threshold := r.config.threshold()
	var command string
	switch {
	case r.accumX <= -threshold:
		command = r.config.Left
	case r.accumX >= threshold:
		command = r.config.Right
	case r.accumY >= threshold:
		command = r.config.Up
	case r.accumY <= -threshold:
		command = r.config.Down
	default:
		return "", false
	}
	r.accumX = 0
	r.accumY = 0
	if command == "" {
		return "", false
	}
	return command, true
}

// Reset clears the accumulators, e.g. after a command interrupted the
// gesture.
func (r *Recognizer) Reset() {
	r.accumX = 0
	r.accumY = 0
	r.lastEvent = time.Time{}
}

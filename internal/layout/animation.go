package layout

import (
	"math"
	"time"
)

// Easing selects the interpolation curve for scroll animations.
type Easing string

const (
	EasingLinear    Easing = "linear"
	EasingEaseIn    Easing = "ease_in"
	EasingEaseOut   Easing = "ease_out"
	EasingEaseInOut Easing = "ease_in_out"
)

// easingFunc returns the curve for the given easing; unknown values fall
// back to linear.
func easingFunc(e Easing) func(float64) float64 {
	switch e {
	case EasingEaseIn:
		return func(t float64) float64 { return t * t }
	case EasingEaseOut:
		return func(t float64) float64 { return 1 - (1-t)*(1-t) }
	case EasingEaseInOut:
		return func(t float64) float64 {
			if t < 0.5 {
				return 2 * t * t
			}
			return 1 - math.Pow(-2*t+2, 2)/2
		}
	default:
		return func(t float64) float64 { return t }
	}
}

// scrollAnimation is the active scroll transition. It is plain state
// sampled on each tick, not a goroutine.
type scrollAnimation struct {
	startOffset  float64
	targetOffset float64
	startTime    time.Time
	duration     time.Duration
	easing       Easing
}

// offsetAt returns the interpolated offset at the given instant and whether
// the animation is still running at that instant.
func (a *scrollAnimation) offsetAt(now time.Time) (float64, bool) {
	if a.duration <= 0 || !now.Before(a.startTime.Add(a.duration)) {
		return a.targetOffset, false
	}
	elapsed := now.Sub(a.startTime)
	if elapsed < 0 {
		elapsed = 0
	}
	t := float64(elapsed) / float64(a.duration)
	eased := easingFunc(a.easing)(t)
	offset := a.startOffset + (a.targetOffset-a.startOffset)*eased
	return sanitize(offset), true
}

// sanitize maps NaN and infinities to zero. Degenerate viewports can push
// NaN through the float math and it must not reach placement emission.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

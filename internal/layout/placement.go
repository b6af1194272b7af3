package layout

import (
	"math"
	"time"

	"github.com/scrollwm/scrollwm/pkg/models"
)

// ComputePlacements walks the strip left to right and emits one placement
// per window, translated by the rounded scroll offset, followed by the
// floating windows at their stored rects. The computation is pure: it
// reads workspace state and allocates a fresh slice.
func (w *Workspace) ComputePlacements(viewport models.Rect) []models.Placement {
	return w.placementsAtOffset(viewport, w.scrollOffset)
}

// ComputePlacementsAnimated emits placements using the animated offset
// sampled at the given instant. Does not mutate the workspace; advancing
// and draining the animation is TickAnimation's job.
func (w *Workspace) ComputePlacementsAnimated(viewport models.Rect, now time.Time) []models.Placement {
	offset := w.scrollOffset
	if w.anim != nil {
		offset, _ = w.anim.offsetAt(now)
	}
	return w.placementsAtOffset(viewport, offset)
}

func (w *Workspace) placementsAtOffset(viewport models.Rect, offset float64) []models.Placement {
	out := make([]models.Placement, 0, w.WindowCount())

	usableHeight := satSub(viewport.Height(), satMul(2, w.outerGap))
	if usableHeight < 0 {
		usableHeight = 0
	}
	// Rounded once here so every column shares the same translation and
	// adjacent columns cannot jitter apart by a sub-pixel disagreement.
	shift := int(math.Round(sanitize(offset)))

	x := w.outerGap
	for _, col := range w.columns {
		n := col.Len()
		if n > 0 {
			windowGaps := satMul(w.gap, n-1)
			windowHeight := satSub(usableHeight, windowGaps) / n
			if windowHeight < 0 {
				windowHeight = 0
			}
			y := w.outerGap
			for _, id := range col.windows {
				rect := models.NewRect(
					satAdd(viewport.X(), satSub(x, shift)),
					satAdd(viewport.Y(), y),
					col.Width(),
					windowHeight,
				)
				out = append(out, models.Placement{
					Window:  id,
					Rect:    rect,
					Visible: rect.Intersects(viewport),
				})
				y = satAdd(y, satAdd(windowHeight, w.gap))
			}
		}
		x = satAdd(x, satAdd(col.Width(), w.gap))
	}

	for _, id := range w.floatingOrder {
		rect := w.floating[id]
		out = append(out, models.Placement{
			Window:  id,
			Rect:    rect,
			Visible: rect.Intersects(viewport),
		})
	}
	return out
}

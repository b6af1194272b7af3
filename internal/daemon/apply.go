package daemon

import (
	"github.com/scrollwm/scrollwm/pkg/models"
)

// offScreenMargin is how far past the union of monitor bounds hidden
// windows are parked under the MoveOffScreen strategy.
const offScreenMargin = 200

// applyAll pushes placements for every monitor.
func (d *Daemon) applyAll() {
	for mid := range d.workspaces {
		d.applyMonitor(mid)
	}
}

// applyMonitor computes and applies the placements of one monitor:
// batched moves for the visible placements, then the visibility strategy
// for the hidden set. Placement application is serialized by the loop, so at
// most one batch per monitor is ever in flight.
func (d *Daemon) applyMonitor(mid models.MonitorID) {
	if d.paused {
		return
	}
	ws, ok := d.workspaces[mid]
	if !ok {
		return
	}
	viewport := d.viewport(mid)

	var placements []models.Placement
	if ws.AnimationActive() {
		placements = ws.ComputePlacementsAnimated(viewport, d.clock())
	} else {
		placements = ws.ComputePlacements(viewport)
	}
	if len(placements) == 0 {
		return
	}

	placements = d.overrideFullscreen(placements, viewport)

	visible := make([]models.Placement, 0, len(placements))
	hidden := make([]models.Placement, 0)
	for _, p := range placements {
		if p.Visible {
			visible = append(visible, p)
		} else {
			hidden = append(hidden, p)
		}
	}

	d.moveBatch(visible)
	d.hideSet(hidden)

	// Visible windows must not stay cloaked from an earlier scroll.
	if d.cfg.Appearance.UseCloaking {
		for _, p := range visible {
			if err := d.plat.SetCloaked(p.Window, false); err != nil {
				d.logger.WithError(err).WithField("window", p.Window).Debug("Uncloak failed")
			}
		}
	}
	d.metrics.placementsTotal.Add(float64(len(placements)))
}

// overrideFullscreen swaps the computed rect for work-area bounds on
// windows in fullscreen state.
func (d *Daemon) overrideFullscreen(placements []models.Placement, workArea models.Rect) []models.Placement {
	if len(d.fullscreen) == 0 {
		return placements
	}
	out := make([]models.Placement, len(placements))
	copy(out, placements)
	for i, p := range out {
		if _, fullscreen := d.fullscreen[p.Window]; fullscreen {
			out[i].Rect = workArea
			out[i].Visible = true
		}
	}
	return out
}

// moveBatch commits a set of placements through the deferred positioning
// API when enabled. A wholesale batch failure falls back to per-window
// moves; windows an otherwise successful batch reported as failed are
// retried individually once.
func (d *Daemon) moveBatch(placements []models.Placement) {
	if len(placements) == 0 {
		return
	}
	if !d.cfg.Appearance.UseDeferredPositioning {
		for _, p := range placements {
			d.moveOne(p.Window, p.Rect)
		}
		return
	}

	batch := d.plat.BeginBatch(len(placements))
	for _, p := range placements {
		batch.Add(p.Window, p.Rect)
	}
	failed, err := batch.Commit()
	if err != nil {
		d.logger.WithError(err).Debug("Batched positioning failed; falling back to singles")
		for _, p := range placements {
			d.moveOne(p.Window, p.Rect)
		}
		return
	}
	if len(failed) > 0 {
		retry := make(map[models.WindowID]struct{}, len(failed))
		for _, id := range failed {
			retry[id] = struct{}{}
		}
		for _, p := range placements {
			if _, bad := retry[p.Window]; bad {
				d.moveOne(p.Window, p.Rect)
			}
		}
	}
}

// moveOne is the single-window move with one retry on transient failure.
func (d *Daemon) moveOne(id models.WindowID, rect models.Rect) {
	if err := d.plat.SetWindowRect(id, rect); err == nil {
		return
	}
	if err := d.plat.SetWindowRect(id, rect); err != nil {
		d.logger.WithError(err).WithField("window", id).Debug("Window move failed")
	}
}

// hideSet applies the configured visibility strategy to non-visible
// placements: cloak keeps the window positioned but invisible,
// MoveOffScreen parks it past the right edge of every monitor.
func (d *Daemon) hideSet(hidden []models.Placement) {
	if len(hidden) == 0 {
		return
	}
	if d.cfg.Appearance.UseCloaking {
		d.moveBatch(hidden)
		for _, p := range hidden {
			if err := d.plat.SetCloaked(p.Window, true); err != nil {
				d.logger.WithError(err).WithField("window", p.Window).Debug("Cloak failed")
			}
		}
		return
	}

	parkX := d.offScreenX()
	for _, p := range hidden {
		rect := models.NewRect(parkX, p.Rect.Y(), p.Rect.Width(), p.Rect.Height())
		d.moveOne(p.Window, rect)
	}
}

// offScreenX returns a fixed x coordinate to the right of the union of
// all monitor bounds.
func (d *Daemon) offScreenX() int {
	right := 0
	for _, info := range d.monitors {
		if r := info.Bounds.Right(); r > right {
			right = r
		}
	}
	return right + offScreenMargin
}

package daemon

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/scrollwm/scrollwm/internal/layout"
	"github.com/scrollwm/scrollwm/internal/platform"
	"github.com/scrollwm/scrollwm/internal/rules"
	"github.com/scrollwm/scrollwm/pkg/models"
)

// Default floating dimensions when neither the rule nor the window
// provides usable bounds.
const (
	defaultFloatWidth  = 800
	defaultFloatHeight = 600
)

// moveEventRate coalesces MovedOrResized bursts per window: continuous
// drag-resize fires dozens of events per second and one reconciliation
// per interval is enough.
var moveEventRate = rate.Every(50 * time.Millisecond)

// handleWindowEvent reconciles one OS window event against the layout
// state. Every entry point except Destroyed revalidates the handle first;
// events race with state changes and a stale handle must not re-enter
// management.
func (d *Daemon) handleWindowEvent(ev platform.WindowEvent) {
	d.metrics.eventsTotal.WithLabelValues(string(ev.Type)).Inc()

	if ev.Type != platform.EventDestroyed && ev.Type != platform.EventDisplayChange {
		if !d.plat.IsWindowValid(ev.Window) {
			return
		}
	}

	switch ev.Type {
	case platform.EventCreated:
		d.onCreated(ev.Window)
	case platform.EventDestroyed:
		d.onDestroyed(ev.Window)
	case platform.EventFocused:
		d.onFocused(ev.Window)
	case platform.EventMinimized:
		d.onMinimized(ev.Window)
	case platform.EventRestored:
		d.onRestored(ev.Window)
	case platform.EventMovedOrResized:
		d.onMovedOrResized(ev.Window)
	case platform.EventDisplayChange:
		if err := d.reconcileMonitors(); err != nil {
			d.logger.WithError(err).Warn("Monitor reconciliation failed")
			return
		}
		d.applyAll()
	case platform.EventMouseEnter:
		d.onMouseEnter(ev.Window)
	}
}

func (d *Daemon) isKnown(id models.WindowID) bool {
	if _, ok := d.windowMonitor[id]; ok {
		return true
	}
	if _, ok := d.ignored[id]; ok {
		return true
	}
	_, ok := d.minimized[id]
	return ok
}

func (d *Daemon) onCreated(id models.WindowID) {
	if d.isKnown(id) {
		return
	}
	meta, err := d.plat.GetWindowMetadata(id)
	if err != nil {
		d.logger.WithError(err).WithField("window", id).Debug("Metadata fetch failed")
		return
	}
	d.meta[id] = meta
	d.adoptWindow(id, meta)

	if mid, ok := d.windowMonitor[id]; ok {
		ws := d.workspaces[mid]
		ws.EnsureFocusedVisibleAnimated(d.viewport(mid),
			scrollAnimationDuration, layout.EasingEaseOut, d.clock())
		if ws.AnimationActive() {
			d.startAnimationTicker()
		}
		d.applyMonitor(mid)
	}
}

// adoptWindow runs rule evaluation and places the window accordingly.
func (d *Daemon) adoptWindow(id models.WindowID, meta models.WindowMetadata) {
	decision := d.rules.Evaluate(meta)
	switch decision.Action {
	case rules.ActionIgnore:
		d.ignored[id] = struct{}{}
		return
	case rules.ActionFloat:
		mid := d.monitorForWindow(id)
		rect := d.ruleFloatRect(decision, id)
		if err := d.workspaces[mid].AddFloating(id, rect); err != nil {
			d.logger.WithError(err).WithField("window", id).Warn("Float insert failed")
			return
		}
		d.windowMonitor[id] = mid
	default:
		mid := d.monitorForWindow(id)
		if err := d.workspaces[mid].InsertWindow(id); err != nil {
			d.logger.WithError(err).WithField("window", id).Warn("Tile insert failed")
			return
		}
		d.windowMonitor[id] = mid
	}
	d.metrics.managedWindows.Set(float64(len(d.windowMonitor)))
}

// ruleFloatRect sizes a rule-floated window: the rule's dimensions when
// given, otherwise the defaults, centered in the monitor's work area.
func (d *Daemon) ruleFloatRect(decision rules.Decision, id models.WindowID) models.Rect {
	width, height := decision.Width, decision.Height
	if width <= 0 || height <= 0 {
		width, height = defaultFloatWidth, defaultFloatHeight
	}
	return d.centeredRect(width, height)
}

// centeredRect centers a w×h rect in the focused monitor's work area.
func (d *Daemon) centeredRect(width, height int) models.Rect {
	wa := d.viewport(d.focusedMonitor)
	return models.NewRect(
		wa.X()+(wa.Width()-width)/2,
		wa.Y()+(wa.Height()-height)/2,
		width, height,
	)
}

// monitorForWindow picks the monitor whose work area contains the window
// center, falling back to the focused monitor.
func (d *Daemon) monitorForWindow(id models.WindowID) models.MonitorID {
	rect, err := d.plat.GetWindowRect(id)
	if err != nil {
		return d.focusedMonitor
	}
	cx, cy := rect.CenterX(), rect.CenterY()
	for mid, info := range d.monitors {
		if info.WorkArea.Contains(cx, cy) {
			return mid
		}
	}
	return d.focusedMonitor
}

func (d *Daemon) onDestroyed(id models.WindowID) {
	delete(d.ignored, id)
	delete(d.minimized, id)
	delete(d.fullscreen, id)
	delete(d.moveLimiters, id)
	if id == d.ffmTarget {
		d.stopFFMTimer()
	}

	ws, mid, ok := d.owningWorkspace(id)
	if !ok {
		delete(d.meta, id)
		return
	}
	if err := ws.RemoveWindow(id); err != nil {
		d.logger.WithError(err).WithField("window", id).Debug("Removal after destroy failed")
	}
	delete(d.windowMonitor, id)
	delete(d.meta, id)
	d.metrics.managedWindows.Set(float64(len(d.windowMonitor)))

	if id == d.lastFocused {
		d.lastFocused = 0
	}
	d.applyMonitor(mid)
	if mid == d.focusedMonitor {
		d.activateFocused()
	}
}

// onFocused mirrors an externally driven focus change (alt-tab, click)
// into the layout state. It never scrolls; only the mouse-driven path
// through the debounce timer does.
func (d *Daemon) onFocused(id models.WindowID) {
	if !d.cfg.Behavior.TrackFocusChanges {
		return
	}
	ws, mid, ok := d.owningWorkspace(id)
	if !ok {
		return
	}
	d.focusedMonitor = mid
	if err := ws.FocusWindow(id); err != nil {
		return
	}
	d.updateBorder(id)
}

// onMinimized removes the window from the layout but keeps its metadata
// so a later restore re-enters rule evaluation.
func (d *Daemon) onMinimized(id models.WindowID) {
	ws, mid, ok := d.owningWorkspace(id)
	if !ok {
		return
	}
	if err := ws.RemoveWindow(id); err != nil {
		return
	}
	delete(d.windowMonitor, id)
	d.minimized[id] = struct{}{}
	d.applyMonitor(mid)
}

func (d *Daemon) onRestored(id models.WindowID) {
	if _, wasMinimized := d.minimized[id]; !wasMinimized {
		return
	}
	delete(d.minimized, id)
	meta, ok := d.meta[id]
	if !ok {
		fetched, err := d.plat.GetWindowMetadata(id)
		if err != nil {
			return
		}
		meta = fetched
		d.meta[id] = meta
	}
	d.adoptWindow(id, meta)
	if mid, managed := d.windowMonitor[id]; managed {
		d.applyMonitor(mid)
	}
}

// onMovedOrResized tracks user-driven geometry changes: floating windows
// keep their new rect, tiled windows dragged onto another monitor
// migrate.
func (d *Daemon) onMovedOrResized(id models.WindowID) {
	limiter, ok := d.moveLimiters[id]
	if !ok {
		limiter = rate.NewLimiter(moveEventRate, 1)
		d.moveLimiters[id] = limiter
	}
	if !limiter.Allow() {
		return
	}

	ws, mid, managed := d.owningWorkspace(id)
	if !managed {
		return
	}

	if ws.IsFloating(id) {
		rect, err := d.plat.GetWindowRect(id)
		if err != nil {
			return
		}
		_ = ws.SetFloatingRect(id, rect)
		return
	}

	// A tiled window dragged into another monitor's bounds migrates there.
	target := d.monitorByBoundsCenter(id)
	if target == 0 || target == mid {
		return
	}
	if err := ws.RemoveWindow(id); err != nil {
		return
	}
	if err := d.workspaces[target].InsertWindow(id); err != nil {
		d.logger.WithError(err).WithField("window", id).Error("Migration insert failed")
		_ = ws.InsertWindow(id)
		return
	}
	d.windowMonitor[id] = target
	d.applyMonitor(mid)
	d.applyMonitor(target)
}

// monitorByBoundsCenter locates the monitor whose bounds hold the window
// center; zero when the OS rect is unavailable.
func (d *Daemon) monitorByBoundsCenter(id models.WindowID) models.MonitorID {
	rect, err := d.plat.GetWindowRect(id)
	if err != nil {
		return 0
	}
	cx, cy := rect.CenterX(), rect.CenterY()
	for mid, info := range d.monitors {
		if info.Bounds.Contains(cx, cy) {
			return mid
		}
	}
	return 0
}

// onMouseEnter arms or re-arms the focus-follows-mouse debounce.
func (d *Daemon) onMouseEnter(id models.WindowID) {
	if !d.cfg.Behavior.FocusFollowsMouse || d.mouseGuard == nil {
		return
	}
	ws, _, ok := d.owningWorkspace(id)
	if !ok || ws.IsFloating(id) {
		return
	}
	if current, focused := d.workspace().FocusedWindow(); focused && current == id {
		d.stopFFMTimer()
		return
	}

	delay := time.Duration(d.cfg.Behavior.FocusFollowsMouseDelayMs) * time.Millisecond
	d.ffmTarget = id
	if d.ffmTimer == nil {
		d.ffmTimer = time.NewTimer(delay)
	} else {
		if !d.ffmTimer.Stop() {
			select {
			case <-d.ffmTimer.C:
			default:
			}
		}
		d.ffmTimer.Reset(delay)
	}
}

// fireFocusFollowsMouse performs the debounced focus switch. The trigger
// was the mouse, so this path does scroll the target into view.
func (d *Daemon) fireFocusFollowsMouse() {
	id := d.ffmTarget
	d.stopFFMTimer()
	if id == 0 || !d.plat.IsWindowValid(id) {
		return
	}
	ws, mid, ok := d.owningWorkspace(id)
	if !ok {
		return
	}
	if current, focused := ws.FocusedWindow(); focused && current == id {
		return
	}
	d.focusedMonitor = mid
	if err := ws.FocusWindow(id); err != nil {
		return
	}
	ws.EnsureFocusedVisibleAnimated(d.viewport(mid),
		scrollAnimationDuration, layout.EasingEaseOut, d.clock())
	if ws.AnimationActive() {
		d.startAnimationTicker()
	}
	d.applyMonitor(mid)
	d.activateFocused()
}

package daemon

import (
	"context"
	"fmt"

	"github.com/scrollwm/scrollwm/internal/ipc"
	"github.com/scrollwm/scrollwm/internal/layout"
	"github.com/scrollwm/scrollwm/internal/platform"
	"github.com/scrollwm/scrollwm/pkg/models"
)

// resizeStep is the pixel step used by the hotkey-only resize commands.
const resizeStep = 50

// Hotkey-only command ids; these never appear on the IPC surface but are
// bindable in the config.
const (
	cmdResizeShrink = "resize_shrink"
	cmdResizeGrow   = "resize_grow"
	cmdScrollLeft   = "scroll_left"
	cmdScrollRight  = "scroll_right"
)

// handleCommand is the single entry point for every mutation: IPC,
// hotkeys, gestures, and the config watcher all end up here on the loop
// goroutine.
func (d *Daemon) handleCommand(req ipc.Request) ipc.Response {
	_, span := d.tracer.Start(context.Background(), "daemon.handleCommand")
	defer span.End()
	d.metrics.commandsTotal.WithLabelValues(req.Cmd).Inc()

	switch req.Cmd {
	case ipc.CmdFocusLeft:
		return d.navigate(func(ws *layout.Workspace) { ws.FocusLeft() })
	case ipc.CmdFocusRight:
		return d.navigate(func(ws *layout.Workspace) { ws.FocusRight() })
	case ipc.CmdFocusUp:
		return d.navigate(func(ws *layout.Workspace) { ws.FocusUp() })
	case ipc.CmdFocusDown:
		return d.navigate(func(ws *layout.Workspace) { ws.FocusDown() })

	case ipc.CmdMoveColumnLeft:
		d.workspace().MoveColumnLeft()
		return d.afterGeometryChange()
	case ipc.CmdMoveColumnRight:
		d.workspace().MoveColumnRight()
		return d.afterGeometryChange()

	case ipc.CmdScroll:
		d.workspace().ScrollBy(float64(req.Delta), d.viewport(d.focusedMonitor))
		d.applyMonitor(d.focusedMonitor)
		return ipc.OKResponse()
	case cmdScrollLeft:
		return d.handleCommand(ipc.Request{Cmd: ipc.CmdScroll, Delta: -3 * resizeStep})
	case cmdScrollRight:
		return d.handleCommand(ipc.Request{Cmd: ipc.CmdScroll, Delta: 3 * resizeStep})

	case ipc.CmdResize:
		d.workspace().ResizeFocusedColumn(req.Delta)
		return d.afterGeometryChange()
	case cmdResizeShrink:
		return d.handleCommand(ipc.Request{Cmd: ipc.CmdResize, Delta: -resizeStep})
	case cmdResizeGrow:
		return d.handleCommand(ipc.Request{Cmd: ipc.CmdResize, Delta: resizeStep})

	case ipc.CmdSetColumnWidth:
		return d.setColumnWidth(req.Width)

	case ipc.CmdFocusMonitorLeft:
		return d.focusMonitor(-1)
	case ipc.CmdFocusMonitorRight:
		return d.focusMonitor(+1)
	case ipc.CmdMoveWindowToMonitorLeft:
		return d.moveWindowToMonitor(-1)
	case ipc.CmdMoveWindowToMonitorRight:
		return d.moveWindowToMonitor(+1)

	case ipc.CmdCloseWindow:
		return d.closeFocusedWindow()
	case ipc.CmdToggleFloating:
		return d.toggleFloating()
	case ipc.CmdToggleFullscreen:
		return d.toggleFullscreen()

	case ipc.CmdRefresh:
		d.refreshWindows()
		d.applyAll()
		return ipc.OKResponse()
	case ipc.CmdApply:
		d.applyAll()
		return ipc.OKResponse()
	case ipc.CmdReload:
		return d.reloadConfig()
	case ipc.CmdPause:
		d.paused = true
		return ipc.OKResponse()
	case ipc.CmdResume:
		d.paused = false
		d.applyAll()
		return ipc.OKResponse()

	case ipc.CmdQueryWorkspace:
		return d.queryWorkspace()
	case ipc.CmdQueryFocused:
		return d.queryFocused()
	case ipc.CmdQueryAllWindows:
		return d.queryAllWindows()
	case ipc.CmdQueryStatus:
		return d.queryStatus()

	case ipc.CmdStop:
		d.stopping = true
		return ipc.OKResponse()
	}
	return ipc.ErrorResponse(fmt.Sprintf("unknown command %q", req.Cmd))
}

// navigate runs a focus movement, animates the viewport after it, and
// raises the newly focused window.
func (d *Daemon) navigate(move func(*layout.Workspace)) ipc.Response {
	ws := d.workspace()
	move(ws)
	ws.EnsureFocusedVisibleAnimated(d.viewport(d.focusedMonitor),
		scrollAnimationDuration, layout.EasingEaseOut, d.clock())
	if ws.AnimationActive() {
		d.startAnimationTicker()
	}
	d.applyMonitor(d.focusedMonitor)
	d.activateFocused()
	return ipc.OKResponse()
}

// afterGeometryChange reapplies the focused monitor and keeps the focused
// column in view.
func (d *Daemon) afterGeometryChange() ipc.Response {
	ws := d.workspace()
	ws.EnsureFocusedVisible(d.viewport(d.focusedMonitor))
	d.applyMonitor(d.focusedMonitor)
	return ipc.OKResponse()
}

func (d *Daemon) setColumnWidth(preset string) ipc.Response {
	ws := d.workspace()
	viewport := d.viewport(d.focusedMonitor)
	switch preset {
	case ipc.WidthOneThird:
		ws.SetFocusedColumnWidth(viewport.Width() / 3)
	case ipc.WidthHalf:
		ws.SetFocusedColumnWidth(viewport.Width() / 2)
	case ipc.WidthTwoThirds:
		ws.SetFocusedColumnWidth(viewport.Width() * 2 / 3)
	case ipc.WidthEqualize:
		ws.EqualizeColumnWidths(viewport)
	default:
		return ipc.ErrorResponse(fmt.Sprintf("unknown width preset %q", preset))
	}
	return d.afterGeometryChange()
}

func (d *Daemon) focusMonitor(direction int) ipc.Response {
	target, ok := d.adjacentMonitor(direction)
	if !ok {
		return ipc.OKResponse() // edge of the monitor row: no-op
	}
	d.focusedMonitor = target
	d.activateFocused()
	return ipc.OKResponse()
}

// moveWindowToMonitor removes the focused window from its workspace and
// inserts it into the adjacent monitor's workspace; focus follows the
// window. The two mutations happen back to back on the loop, so no
// intermediate state is observable.
func (d *Daemon) moveWindowToMonitor(direction int) ipc.Response {
	source := d.workspace()
	id, ok := source.FocusedWindow()
	if !ok {
		return ipc.ErrorResponse("no focused window")
	}
	target, okMon := d.adjacentMonitor(direction)
	if !okMon {
		return ipc.OKResponse()
	}

	if err := source.RemoveWindow(id); err != nil {
		return ipc.ErrorResponse(err.Error())
	}
	targetWS := d.workspaces[target]
	if err := targetWS.InsertWindow(id); err != nil {
		// The id cannot already exist on the target; reinsert at home as
		// a last resort so the window is not lost.
		d.logger.WithError(err).WithField("window", id).Error("Cross-monitor insert failed")
		_ = source.InsertWindow(id)
		return ipc.ErrorResponse(err.Error())
	}
	d.windowMonitor[id] = target
	sourceMonitor := d.focusedMonitor
	d.focusedMonitor = target

	targetWS.EnsureFocusedVisibleAnimated(d.viewport(target),
		scrollAnimationDuration, layout.EasingEaseOut, d.clock())
	if targetWS.AnimationActive() {
		d.startAnimationTicker()
	}
	d.applyMonitor(sourceMonitor)
	d.applyMonitor(target)
	d.activateFocused()
	return ipc.OKResponse()
}

// closeFocusedWindow asks the OS to close the window gracefully; the
// layout mutation happens when the Destroyed event arrives.
func (d *Daemon) closeFocusedWindow() ipc.Response {
	ws := d.workspace()
	id, ok := ws.FocusedWindow()
	if !ok {
		return ipc.ErrorResponse("no focused window")
	}
	if err := d.plat.RequestClose(id); err != nil {
		return ipc.ErrorResponse(err.Error())
	}
	return ipc.OKResponse()
}

func (d *Daemon) toggleFloating() ipc.Response {
	ws := d.workspace()
	id, ok := ws.FocusedWindow()
	if ok {
		// Tiled → floating at the window's current bounds, or the rule's
		// dimensions when its rule provides them.
		rect := d.floatingRectFor(id)
		if err := ws.RemoveWindow(id); err != nil {
			return ipc.ErrorResponse(err.Error())
		}
		if err := ws.AddFloating(id, rect); err != nil {
			return ipc.ErrorResponse(err.Error())
		}
		d.updateBorder(id)
		d.applyMonitor(d.focusedMonitor)
		return ipc.OKResponse()
	}

	// No tiled focus: float → tile the last focused window if it floats.
	if d.lastFocused != 0 && ws.IsFloating(d.lastFocused) {
		id = d.lastFocused
	} else {
		return ipc.ErrorResponse("no focused window")
	}
	if err := ws.RemoveWindow(id); err != nil {
		return ipc.ErrorResponse(err.Error())
	}
	if err := ws.InsertWindow(id); err != nil {
		return ipc.ErrorResponse(err.Error())
	}
	return d.afterGeometryChange()
}

// floatingRectFor picks the rect a window gets when it starts floating.
func (d *Daemon) floatingRectFor(id models.WindowID) models.Rect {
	if meta, ok := d.meta[id]; ok {
		decision := d.rules.Evaluate(meta)
		if decision.Width > 0 && decision.Height > 0 {
			return d.centeredRect(decision.Width, decision.Height)
		}
	}
	if rect, err := d.plat.GetWindowRect(id); err == nil && !rect.IsEmpty() {
		return rect
	}
	return d.centeredRect(defaultFloatWidth, defaultFloatHeight)
}

func (d *Daemon) toggleFullscreen() ipc.Response {
	ws := d.workspace()
	id, ok := ws.FocusedWindow()
	if !ok && d.lastFocused != 0 && ws.IsFloating(d.lastFocused) {
		id, ok = d.lastFocused, true
	}
	if !ok {
		return ipc.ErrorResponse("no focused window")
	}
	if _, fullscreen := d.fullscreen[id]; fullscreen {
		delete(d.fullscreen, id)
	} else {
		rect, err := d.plat.GetWindowRect(id)
		if err != nil {
			return ipc.ErrorResponse(err.Error())
		}
		d.fullscreen[id] = rect
	}
	d.applyMonitor(d.focusedMonitor)
	return ipc.OKResponse()
}

// handleHotkey resolves a WM_HOTKEY id through the current table.
func (d *Daemon) handleHotkey(id int) {
	if d.hotkeyReg == nil {
		return
	}
	command, ok := d.hotkeyReg.CommandForID(id)
	if !ok {
		return
	}
	resp := d.handleCommand(ipc.Request{Cmd: command})
	if resp.Error != "" {
		d.logger.WithField("command", command).WithField("error", resp.Error).
			Debug("Hotkey command failed")
	}
}

// handleWheel feeds the gesture recognizer.
func (d *Daemon) handleWheel(ev platform.WheelEvent) {
	command, fired := d.gesture.Feed(ev.DeltaX, ev.DeltaY, d.clock())
	if !fired {
		return
	}
	d.metrics.gesturesTotal.Inc()
	resp := d.handleCommand(ipc.Request{Cmd: command})
	if resp.Error != "" {
		d.logger.WithField("command", command).Debug("Gesture command failed")
	}
}

// activateFocused raises the focused window and moves the active border.
func (d *Daemon) activateFocused() {
	ws := d.workspace()
	id, ok := ws.FocusedWindow()
	if !ok {
		return
	}
	if err := d.plat.SetForeground(id); err != nil {
		d.logger.WithError(err).WithField("window", id).Debug("Foreground activation failed")
	}
	d.updateBorder(id)
}

// updateBorder moves the active-border attribute from the previously
// focused window to the new one.
func (d *Daemon) updateBorder(id models.WindowID) {
	if id == d.lastFocused {
		return
	}
	if d.lastFocused != 0 {
		if err := d.plat.ClearBorderColor(d.lastFocused); err != nil {
			d.logger.WithError(err).Debug("Border reset failed")
		}
	}
	if err := d.plat.SetBorderColor(id, d.cfg.Appearance.ActiveBorderColor); err != nil {
		d.logger.WithError(err).Debug("Border set failed")
	}
	d.lastFocused = id
}

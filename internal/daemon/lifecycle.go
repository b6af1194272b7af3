package daemon

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/scrollwm/scrollwm/internal/hotkeys"
	"github.com/scrollwm/scrollwm/internal/ipc"
	"github.com/scrollwm/scrollwm/internal/persistence"
	"github.com/scrollwm/scrollwm/internal/platform"
	"github.com/scrollwm/scrollwm/pkg/config"
	"github.com/scrollwm/scrollwm/pkg/models"
)

// shutdownDrainTimeout bounds how long queued events are processed after
// a stop request.
const shutdownDrainTimeout = 500 * time.Millisecond

// safeCallback wraps an OS callback so a panic is logged instead of
// unwinding across the hook boundary.
func (d *Daemon) safeCallback(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.WithField("panic", r).WithField("callback", name).Error("Panic in OS callback")
		}
	}()
	fn()
}

// installHooks wires the OS event taps into the mailbox through the
// forwarding registry. The window event hooks are required; the mouse
// hook only degrades gestures and focus-follows-mouse when it fails.
func (d *Daemon) installHooks() error {
	setForwarder(d.post)

	guard, err := d.plat.InstallEventHooks(func(ev platform.WindowEvent) {
		d.safeCallback("window-event", func() { forward(eventMsg{ev: ev}) })
	})
	if err != nil {
		return err
	}
	d.hookGuard = guard

	mouseGuard, err := d.plat.InstallMouseHook(func(ev platform.WheelEvent) {
		d.safeCallback("mouse-hook", func() { forward(wheelMsg{ev: ev}) })
	})
	if err != nil {
		d.logger.WithError(err).Warn("Mouse hook unavailable; gestures and focus-follows-mouse disabled")
	} else {
		d.mouseGuard = mouseGuard
	}

	hotkeyGuard, err := d.plat.InstallHotkeyHandler(func(id int) {
		d.safeCallback("hotkey", func() { forward(hotkeyMsg{id: id}) })
	})
	if err != nil {
		d.logger.WithError(err).Warn("Hotkey handler unavailable; hotkeys disabled")
	} else {
		d.hotkeyGuard = hotkeyGuard
	}
	return nil
}

func (d *Daemon) releaseGuards() {
	setForwarder(nil)
	for _, guard := range []platform.Guard{d.mouseGuard, d.hotkeyGuard, d.hookGuard} {
		if guard != nil {
			if err := guard.Close(); err != nil {
				d.logger.WithError(err).Warn("Failed to release platform hook")
			}
		}
	}
	d.mouseGuard, d.hotkeyGuard, d.hookGuard = nil, nil, nil
}

// registerHotkeys compiles and registers the config's hotkey table. The
// config was validated at load, so compilation rarely fails; when it does,
// no hotkeys are registered.
func (d *Daemon) registerHotkeys() {
	table, err := hotkeys.NewTable(d.cfg.Hotkeys)
	if err != nil {
		d.logger.WithError(err).Warn("Hotkey table rejected; no hotkeys registered")
		return
	}
	d.hotkeyReg = hotkeys.Register(d.logger, d.plat, table)
}

func (d *Daemon) unregisterHotkeys() {
	if d.hotkeyReg != nil {
		d.hotkeyReg.Close()
		d.hotkeyReg = nil
	}
}

// startIPC brings up the control channel. Handlers run on connection
// goroutines and block on the loop's reply.
func (d *Daemon) startIPC() error {
	server, err := ipc.NewServer(d.logger, ipc.DefaultEndpoint, func(req ipc.Request) ipc.Response {
		reply := make(chan ipc.Response, 1)
		forward(cmdMsg{req: req, reply: reply})
		select {
		case resp := <-reply:
			return resp
		case <-time.After(ipc.ClientTimeout):
			return ipc.ErrorResponse("daemon busy")
		}
	})
	if err != nil {
		return err
	}
	d.ipcServer = server
	go server.Serve()
	return nil
}

func (d *Daemon) startConfigWatcher() {
	if d.cfgPath == "" {
		return
	}
	watcher, err := config.Watch(d.logger, d.cfgPath, func() { forward(reloadMsg{}) })
	if err != nil {
		d.logger.WithError(err).Warn("Config watcher unavailable")
		return
	}
	d.cfgWatcher = watcher
}

// restoreOrAdopt enumerates the existing windows and places them: first
// from the persisted snapshot matched by monitor device name, then by
// rule evaluation for everything unclaimed.
func (d *Daemon) restoreOrAdopt() {
	ids, err := d.plat.EnumerateWindows()
	if err != nil {
		d.logger.WithError(err).Warn("Window enumeration failed")
		return
	}

	live := make([]persistence.LiveWindow, 0, len(ids))
	for _, id := range ids {
		meta, err := d.plat.GetWindowMetadata(id)
		if err != nil {
			continue
		}
		d.meta[id] = meta
		live = append(live, persistence.LiveWindow{ID: id, Meta: meta})
	}

	claimed := d.restoreFromSnapshot(live)

	for _, w := range live {
		if claimed[w.ID] {
			continue
		}
		d.adoptWindow(w.ID, w.Meta)
	}
}

// restoreFromSnapshot applies the persisted layout and returns the set of
// windows it claimed.
func (d *Daemon) restoreFromSnapshot(live []persistence.LiveWindow) map[models.WindowID]bool {
	claimed := make(map[models.WindowID]bool)

	snapshot, err := persistence.Load(d.statePath)
	if err != nil {
		if !os.IsNotExist(err) {
			d.logger.WithError(err).Warn("Ignoring unreadable state snapshot")
		}
		return claimed
	}

	byDevice := make(map[string]models.MonitorID, len(d.monitors))
	for id, info := range d.monitors {
		byDevice[info.DeviceName] = id
	}

	for _, record := range snapshot.Workspaces {
		mid, ok := byDevice[record.MonitorDeviceName]
		if !ok {
			continue
		}
		ws := d.workspaces[mid]
		plan := persistence.BuildRestorePlan(record.Workspace, live)
		if len(plan.Columns) == 0 && len(plan.Floating) == 0 {
			continue
		}

		for _, col := range plan.Columns {
			for i, id := range col.Windows {
				var err error
				if i == 0 {
					err = ws.InsertWindow(id)
				} else {
					err = ws.InsertWindowInColumn(id, ws.FocusedColumnIndex(), i)
				}
				if err != nil {
					d.logger.WithError(err).WithField("window", id).Warn("Restore insert failed")
					continue
				}
				d.windowMonitor[id] = mid
				claimed[id] = true
			}
			ws.SetFocusedColumnWidth(col.Width)
		}
		for _, f := range plan.Floating {
			if err := ws.AddFloating(f.Window, f.Rect); err != nil {
				d.logger.WithError(err).WithField("window", f.Window).Warn("Restore float failed")
				continue
			}
			d.windowMonitor[f.Window] = mid
			claimed[f.Window] = true
		}

		if err := ws.SetFocus(plan.FocusedColumn, plan.FocusedWindow); err == nil {
			if id, ok := ws.FocusedWindow(); ok {
				d.lastFocused = id
			}
		}
		ws.ScrollBy(plan.ScrollOffset, d.viewport(mid))

		d.logger.WithFields(logrus.Fields{
			"monitor": record.MonitorDeviceName,
			"windows": len(claimed),
		}).Info("Restored workspace from snapshot")
	}

	if snapshot.FocusedMonitorName != "" {
		if mid, ok := byDevice[snapshot.FocusedMonitorName]; ok {
			d.focusedMonitor = mid
		}
	}
	return claimed
}

// saveSnapshot writes the current layout for the next session.
func (d *Daemon) saveSnapshot() {
	snapshot := persistence.Snapshot{
		SavedAt:            d.clock(),
		FocusedMonitorName: d.monitors[d.focusedMonitor].DeviceName,
	}
	for _, mid := range d.monitorsByX() {
		ws := d.workspaces[mid]
		s := ws.Snapshot()
		record := persistence.WorkspaceRecord{
			ScrollOffset:  s.ScrollOffset,
			FocusedColumn: s.FocusedColumn,
			FocusedWindow: s.FocusedWindow,
		}
		for _, col := range s.Columns {
			cr := persistence.ColumnRecord{Width: col.Width}
			for _, id := range col.Windows {
				meta := d.meta[id]
				cr.Windows = append(cr.Windows, persistence.WindowRef{
					ClassName:  meta.ClassName,
					Executable: meta.Executable,
				})
			}
			record.Columns = append(record.Columns, cr)
		}
		for _, f := range s.Floating {
			meta := d.meta[f.Window]
			record.Floating = append(record.Floating, persistence.FloatingRecord{
				Ref:  persistence.WindowRef{ClassName: meta.ClassName, Executable: meta.Executable},
				Rect: f.Rect,
			})
		}
		snapshot.Workspaces = append(snapshot.Workspaces, persistence.MonitorRecord{
			MonitorDeviceName: d.monitors[mid].DeviceName,
			Workspace:         record,
		})
	}
	if err := persistence.Save(d.statePath, snapshot); err != nil {
		d.logger.WithError(err).Warn("Failed to write state snapshot")
	}
}

// shutdown runs the ordered teardown: stop accepting commands, drain the
// queue, uncloak everything, persist. Hook and hotkey release happens in
// Run's defers afterwards.
func (d *Daemon) shutdown() {
	d.logger.Info("Shutting down")
	if d.cfgWatcher != nil {
		_ = d.cfgWatcher.Close()
		d.cfgWatcher = nil
	}
	if d.ipcServer != nil {
		_ = d.ipcServer.Close()
		d.ipcServer = nil
	}
	d.stopMetrics()

	deadline := time.After(shutdownDrainTimeout)
drain:
	for {
		select {
		case msg := <-d.mailbox:
			if cmd, isCmd := msg.(cmdMsg); isCmd {
				// Late commands get a terse refusal instead of a mutation.
				cmd.reply <- ipc.ErrorResponse("daemon is shutting down")
				continue
			}
			d.dispatch(msg)
		case <-deadline:
			break drain
		default:
			break drain
		}
	}

	d.uncloakAll()
	d.saveSnapshot()
	d.stopAnimationTicker()
	d.stopFFMTimer()
}

// uncloakAll makes every managed window visible again. Also the panic
// hook's recovery path, so it must not depend on daemon state beyond the
// window registry.
func (d *Daemon) uncloakAll() {
	for id := range d.windowMonitor {
		if err := d.plat.SetCloaked(id, false); err != nil {
			d.logger.WithError(err).WithField("window", id).Debug("Uncloak failed")
		}
	}
	for id := range d.minimized {
		_ = d.plat.SetCloaked(id, false)
	}
}

func (d *Daemon) startAnimationTicker() {
	if d.animTicker == nil {
		d.animTicker = time.NewTicker(animationInterval)
	}
}

func (d *Daemon) stopAnimationTicker() {
	if d.animTicker != nil {
		d.animTicker.Stop()
		d.animTicker = nil
	}
}

// tickAnimations advances every active animation and stops the ticker
// when the last one drains.
func (d *Daemon) tickAnimations(now time.Time) {
	anyRunning := false
	for mid, ws := range d.workspaces {
		if !ws.AnimationActive() {
			continue
		}
		if ws.TickAnimation(now) {
			anyRunning = true
		}
		d.applyMonitor(mid)
	}
	if !anyRunning {
		d.stopAnimationTicker()
	}
}

func (d *Daemon) stopFFMTimer() {
	if d.ffmTimer != nil {
		d.ffmTimer.Stop()
		d.ffmTimer = nil
	}
	d.ffmTarget = 0
}

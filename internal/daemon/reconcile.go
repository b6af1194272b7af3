package daemon

import (
	"github.com/scrollwm/scrollwm/internal/gestures"
	"github.com/scrollwm/scrollwm/internal/ipc"
	"github.com/scrollwm/scrollwm/internal/layout"
	"github.com/scrollwm/scrollwm/internal/rules"
	"github.com/scrollwm/scrollwm/pkg/config"
	"github.com/scrollwm/scrollwm/pkg/models"
)

// reconcileMonitors diffs the OS monitor enumeration against the
// registry: new monitors get empty workspaces, departed monitors migrate
// their windows to the primary survivor, survivors refresh their bounds.
func (d *Daemon) reconcileMonitors() error {
	enumerated, err := d.plat.EnumerateMonitors()
	if err != nil {
		return err
	}

	seen := make(map[models.MonitorID]models.MonitorInfo, len(enumerated))
	var primary models.MonitorID
	for _, info := range enumerated {
		seen[info.ID] = info
		if info.IsPrimary {
			primary = info.ID
		}
	}
	if primary == 0 && len(enumerated) > 0 {
		primary = enumerated[0].ID
	}

	// Additions and refreshes.
	for id, info := range seen {
		if _, known := d.monitors[id]; !known {
			d.logger.WithField("monitor", info.DeviceName).Info("Monitor added")
			d.workspaces[id] = layout.NewWorkspace(d.layoutOptions())
		}
		d.monitors[id] = info
	}

	// Removals: migrate windows in original column order, then drop.
	for id := range d.monitors {
		if _, alive := seen[id]; alive {
			continue
		}
		d.logger.WithField("monitor", d.monitors[id].DeviceName).Info("Monitor removed")
		d.migrateWorkspace(id, primary)
		delete(d.workspaces, id)
		delete(d.monitors, id)
	}

	if _, alive := seen[d.focusedMonitor]; !alive {
		d.focusedMonitor = primary
	}
	d.metrics.monitorCount.Set(float64(len(d.monitors)))
	return nil
}

// migrateWorkspace appends the source workspace's columns to the target,
// preserving column grouping, order, and widths; floating windows keep
// their rects.
func (d *Daemon) migrateWorkspace(source, target models.MonitorID) {
	sourceWS, ok := d.workspaces[source]
	if !ok || source == target {
		return
	}
	targetWS, ok := d.workspaces[target]
	if !ok {
		return
	}

	snapshot := sourceWS.Snapshot()
	// Park focus on the last column so InsertWindow appends to the strip.
	if n := targetWS.ColumnCount(); n > 0 {
		_ = targetWS.SetFocus(n-1, 0)
	}
	for _, col := range snapshot.Columns {
		for i, id := range col.Windows {
			var err error
			if i == 0 {
				err = targetWS.InsertWindow(id)
			} else {
				err = targetWS.InsertWindowInColumn(id, targetWS.FocusedColumnIndex(), i)
			}
			if err != nil {
				d.logger.WithError(err).WithField("window", id).Warn("Monitor migration insert failed")
				continue
			}
			d.windowMonitor[id] = target
		}
		targetWS.SetFocusedColumnWidth(col.Width)
	}
	for _, f := range snapshot.Floating {
		if err := targetWS.AddFloating(f.Window, f.Rect); err != nil {
			d.logger.WithError(err).WithField("window", f.Window).Warn("Monitor migration float failed")
			continue
		}
		d.windowMonitor[f.Window] = target
	}
}

// refreshWindows re-enumerates the OS windows and reconciles both
// directions: adopt unknown windows, drop invalid ones.
func (d *Daemon) refreshWindows() {
	ids, err := d.plat.EnumerateWindows()
	if err != nil {
		d.logger.WithError(err).Warn("Window enumeration failed")
		return
	}
	current := make(map[models.WindowID]struct{}, len(ids))
	for _, id := range ids {
		current[id] = struct{}{}
		if d.isKnown(id) {
			continue
		}
		meta, err := d.plat.GetWindowMetadata(id)
		if err != nil {
			continue
		}
		d.meta[id] = meta
		d.adoptWindow(id, meta)
	}

	// Windows that disappeared without a Destroyed event.
	for id := range d.windowMonitor {
		if _, alive := current[id]; !alive && !d.plat.IsWindowValid(id) {
			d.onDestroyed(id)
		}
	}
}

// reloadConfig re-reads the config file, recompiles rules, swaps the
// hotkey table, and pushes the new layout constants into every
// workspace. Any load error leaves the running config untouched.
func (d *Daemon) reloadConfig() ipc.Response {
	path := d.cfgPath
	if path == "" {
		path = config.Resolve()
	}
	if path == "" {
		return ipc.ErrorResponse("no config file to reload")
	}
	cfg, _, err := config.Load(path)
	if err != nil {
		d.logger.WithError(err).Warn("Config reload rejected")
		return ipc.ErrorResponse(err.Error())
	}
	engine, err := rules.Compile(cfg.WindowRules)
	if err != nil {
		return ipc.ErrorResponse(err.Error())
	}

	d.cfg = cfg
	d.cfgPath = path
	d.rules = engine
	d.gesture = gestures.NewRecognizer(cfg.Gestures)

	for _, ws := range d.workspaces {
		ws.SetGap(cfg.Layout.Gap)
		ws.SetOuterGap(cfg.Layout.OuterGap)
		ws.SetDefaultColumnWidth(cfg.Layout.DefaultColumnWidth)
		ws.SetCenteringMode(layout.CenteringMode(cfg.Layout.CenteringMode))
	}

	// The old registration is dropped before the new one installs so the
	// OS never sees the same chord registered twice.
	d.unregisterHotkeys()
	d.registerHotkeys()

	d.metrics.reloadsTotal.Inc()
	d.applyAll()
	d.logger.WithField("config", path).Info("Configuration reloaded")
	return ipc.OKResponse()
}

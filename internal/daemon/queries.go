package daemon

import (
	"github.com/scrollwm/scrollwm/internal/ipc"
	"github.com/scrollwm/scrollwm/pkg/models"
)

// Query handlers run on the loop goroutine, so every snapshot is
// consistent with the state at the moment of handling.

func (d *Daemon) queryWorkspace() ipc.Response {
	info := d.monitors[d.focusedMonitor]
	snapshot := d.workspace().Snapshot()
	return ipc.Response{Workspace: &ipc.WorkspaceInfo{
		MonitorID:  int64(d.focusedMonitor),
		DeviceName: info.DeviceName,
		WorkArea:   info.WorkArea,
		Workspace:  snapshot,
	}}
}

func (d *Daemon) queryFocused() ipc.Response {
	ws := d.workspace()
	id, ok := ws.FocusedWindow()
	if !ok {
		if d.lastFocused != 0 && ws.IsFloating(d.lastFocused) {
			id, ok = d.lastFocused, true
		}
	}
	if !ok {
		return ipc.ErrorResponse("no focused window")
	}
	info := d.windowInfo(id)
	return ipc.Response{FocusedWindow: &info}
}

func (d *Daemon) queryAllWindows() ipc.Response {
	windows := make([]models.WindowInfo, 0, len(d.windowMonitor))
	for _, mid := range d.monitorsByX() {
		for _, id := range d.workspaces[mid].AllWindowIDs() {
			windows = append(windows, d.windowInfo(id))
		}
	}
	return ipc.Response{Windows: windows}
}

func (d *Daemon) queryStatus() ipc.Response {
	now := d.clock()
	return ipc.Response{Status: &models.StatusInfo{
		Version:        d.version,
		StartedAt:      d.startedAt,
		UptimeSeconds:  int64(now.Sub(d.startedAt).Seconds()),
		ManagedWindows: len(d.windowMonitor),
		MonitorCount:   len(d.monitors),
		Paused:         d.paused,
	}}
}

// windowInfo assembles the wire description of one managed window.
func (d *Daemon) windowInfo(id models.WindowID) models.WindowInfo {
	meta := d.meta[id]
	info := models.WindowInfo{
		ID:         uint64(id),
		Title:      meta.Title,
		ClassName:  meta.ClassName,
		ProcessID:  meta.ProcessID,
		Executable: meta.Executable,
	}
	if rect, err := d.plat.GetWindowRect(id); err == nil {
		info.Rect = rect
	}

	mid, managed := d.windowMonitor[id]
	if !managed {
		return info
	}
	info.MonitorID = int64(mid)
	ws := d.workspaces[mid]
	if loc, ok := ws.FindWindowLocation(id); ok {
		if loc.Floating {
			info.IsFloating = true
		} else {
			col, win := loc.ColumnIndex, loc.WindowIndex
			info.ColumnIndex = &col
			info.WindowIndex = &win
		}
	}
	if focused, ok := ws.FocusedWindow(); ok && focused == id && mid == d.focusedMonitor {
		info.IsFocused = true
	}
	return info
}

// Package ipc implements the daemon's control channel: one JSON object
// per line over a named local endpoint. Each client connection carries a
// single request/response exchange.
package ipc

import (
	"github.com/scrollwm/scrollwm/internal/layout"
	"github.com/scrollwm/scrollwm/pkg/models"
)

// Command names. Hotkey bindings, gesture directions, and CLI subcommands
// all resolve to these ids.
const (
	CmdFocusLeft                = "focus_left"
	CmdFocusRight               = "focus_right"
	CmdFocusUp                  = "focus_up"
	CmdFocusDown                = "focus_down"
	CmdMoveColumnLeft           = "move_column_left"
	CmdMoveColumnRight          = "move_column_right"
	CmdScroll                   = "scroll"
	CmdResize                   = "resize"
	CmdSetColumnWidth           = "set_column_width"
	CmdFocusMonitorLeft         = "focus_monitor_left"
	CmdFocusMonitorRight        = "focus_monitor_right"
	CmdMoveWindowToMonitorLeft  = "move_window_to_monitor_left"
	CmdMoveWindowToMonitorRight = "move_window_to_monitor_right"
	CmdCloseWindow              = "close_window"
	CmdToggleFloating           = "toggle_floating"
	CmdToggleFullscreen         = "toggle_fullscreen"
	CmdQueryWorkspace           = "query_workspace"
	CmdQueryFocused             = "query_focused"
	CmdQueryAllWindows          = "query_all_windows"
	CmdQueryStatus              = "query_status"
	CmdRefresh                  = "refresh"
	CmdApply                    = "apply"
	CmdReload                   = "reload"
	CmdPause                    = "pause"
	CmdResume                   = "resume"
	CmdStop                     = "stop"
)

// Column width presets for set_column_width.
const (
	WidthOneThird  = "one_third"
	WidthHalf      = "half"
	WidthTwoThirds = "two_thirds"
	WidthEqualize  = "equalize"
)

// Request is one line sent by a client. Fields beyond Cmd are
// command-specific and omitted when unused.
type Request struct {
	Cmd   string `json:"cmd"`
	Delta int    `json:"delta,omitempty"` // scroll, resize: pixels
	Width string `json:"width,omitempty"` // set_column_width preset
}

// WorkspaceInfo is the query_workspace payload: the focused monitor plus
// its serialized workspace.
type WorkspaceInfo struct {
	MonitorID  int64           `json:"monitor_id"`
	DeviceName string          `json:"device_name"`
	WorkArea   models.Rect     `json:"work_area"`
	Workspace  layout.Snapshot `json:"workspace"`
}

// Response is one line written back to the client. Exactly one variant
// field is populated.
type Response struct {
	OK            bool               `json:"ok,omitempty"`
	Error         string             `json:"error,omitempty"`
	Workspace     *WorkspaceInfo     `json:"workspace,omitempty"`
	FocusedWindow *models.WindowInfo `json:"focused_window,omitempty"`
	Windows       []models.WindowInfo `json:"windows,omitempty"`
	Status        *models.StatusInfo `json:"status,omitempty"`
}

// OKResponse is the plain success reply.
func OKResponse() Response { return Response{OK: true} }

// ErrorResponse wraps an error message.
func ErrorResponse(msg string) Response { return Response{Error: msg} }

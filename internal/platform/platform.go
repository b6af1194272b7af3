// Package platform defines the contract to the OS window-manipulation
// primitives. The daemon core is written entirely against these
// interfaces; the Win32 implementation lives behind them and the tests
// drive a fake.
package platform

import "github.com/scrollwm/scrollwm/pkg/models"

// EventType enumerates window lifecycle events delivered by the OS hooks.
type EventType string

const (
	EventCreated        EventType = "created"
	EventDestroyed      EventType = "destroyed"
	EventFocused        EventType = "focused"
	EventMinimized      EventType = "minimized"
	EventRestored       EventType = "restored"
	EventMovedOrResized EventType = "moved_or_resized"
	EventDisplayChange  EventType = "display_change"
	EventMouseEnter     EventType = "mouse_enter"
)

// WindowEvent is one hook callback, already translated off the OS thread.
type WindowEvent struct {
	Type   EventType
	Window models.WindowID
}

// WheelEvent is one low-level mouse wheel notch; DeltaX is the horizontal
// axis (h-wheel), DeltaY the vertical one.
type WheelEvent struct {
	DeltaX int
	DeltaY int
}

// Guard owns an installed OS resource (hook, message window, tray icon).
// Closing it releases the resource; guards must be closed before exit.
type Guard interface {
	Close() error
}

// Batch collects window placements for one monitor and commits them
// atomically where the OS supports it (DeferWindowPos). Commit reports
// per-window failures so the caller can retry those individually.
type Batch interface {
	Add(id models.WindowID, rect models.Rect)
	// Commit applies the batch. The first return value lists windows the
	// batch could not place; the error is non-nil when the batch commit
	// failed as a whole.
	Commit() ([]models.WindowID, error)
}

// Windows is the window-manipulation contract.
type Windows interface {
	// EnumerateWindows lists manageable top-level windows: visible,
	// non-tool, non-system, non-cloaked, unowned.
	EnumerateWindows() ([]models.WindowID, error)
	IsWindowValid(id models.WindowID) bool
	GetWindowRect(id models.WindowID) (models.Rect, error)
	SetWindowRect(id models.WindowID, rect models.Rect) error
	BeginBatch(capacity int) Batch
	SetCloaked(id models.WindowID, cloaked bool) error
	SetBorderColor(id models.WindowID, color uint32) error
	ClearBorderColor(id models.WindowID) error
	SetForeground(id models.WindowID) error
	RequestClose(id models.WindowID) error
	GetWindowMetadata(id models.WindowID) (models.WindowMetadata, error)
}

// Monitors is the display enumeration contract.
type Monitors interface {
	EnumerateMonitors() ([]models.MonitorInfo, error)
}

// Hooks installs the OS event taps. Callbacks run on OS threads and must
// only forward; the daemon wraps them so they post into the event loop.
type Hooks interface {
	InstallEventHooks(fn func(WindowEvent)) (Guard, error)
	InstallMouseHook(fn func(WheelEvent)) (Guard, error)
	// InstallHotkeyHandler delivers WM_HOTKEY ids from the hotkey message
	// window thread.
	InstallHotkeyHandler(fn func(id int)) (Guard, error)
}

// Hotkeys registers global hotkeys; ids echo back in hotkey messages.
type Hotkeys interface {
	RegisterHotkey(id int, modifiers, virtualKey uint32) error
	UnregisterHotkey(id int) error
}

// Platform aggregates every OS primitive the daemon consumes.
type Platform interface {
	Windows
	Monitors
	Hooks
	Hotkeys
	// DeclareDPIAwareness opts the process into per-monitor DPI awareness.
	// Must run before any window manipulation; failure is fatal.
	DeclareDPIAwareness() error
}

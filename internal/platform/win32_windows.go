//go:build windows

package platform

import (
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/scrollwm/scrollwm/pkg/models"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")
	dwmapi = windows.NewLazySystemDLL("dwmapi.dll")

	procEnumWindows                   = user32.NewProc("EnumWindows")
	procIsWindow                      = user32.NewProc("IsWindow")
	procIsWindowVisible               = user32.NewProc("IsWindowVisible")
	procIsIconic                      = user32.NewProc("IsIconic")
	procGetWindow                     = user32.NewProc("GetWindow")
	procGetWindowLongW                = user32.NewProc("GetWindowLongW")
	procGetWindowRect                 = user32.NewProc("GetWindowRect")
	procSetWindowPos                  = user32.NewProc("SetWindowPos")
	procBeginDeferWindowPos           = user32.NewProc("BeginDeferWindowPos")
	procDeferWindowPos                = user32.NewProc("DeferWindowPos")
	procEndDeferWindowPos             = user32.NewProc("EndDeferWindowPos")
	procGetClassNameW                 = user32.NewProc("GetClassNameW")
	procGetWindowTextW                = user32.NewProc("GetWindowTextW")
	procGetWindowThreadProcessId      = user32.NewProc("GetWindowThreadProcessId")
	procSetForegroundWindow           = user32.NewProc("SetForegroundWindow")
	procPostMessageW                  = user32.NewProc("PostMessageW")
	procEnumDisplayMonitors           = user32.NewProc("EnumDisplayMonitors")
	procGetMonitorInfoW               = user32.NewProc("GetMonitorInfoW")
	procSetWinEventHook               = user32.NewProc("SetWinEventHook")
	procUnhookWinEvent                = user32.NewProc("UnhookWinEvent")
	procSetWindowsHookExW             = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx           = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx                = user32.NewProc("CallNextHookEx")
	procGetMessageW                   = user32.NewProc("GetMessageW")
	procPostThreadMessageW            = user32.NewProc("PostThreadMessageW")
	procGetCurrentThreadId            = windows.NewLazySystemDLL("kernel32.dll").NewProc("GetCurrentThreadId")
	procRegisterHotKey                = user32.NewProc("RegisterHotKey")
	procUnregisterHotKey              = user32.NewProc("UnregisterHotKey")
	procWindowFromPoint               = user32.NewProc("WindowFromPoint")
	procGetAncestor                   = user32.NewProc("GetAncestor")
	procSetProcessDpiAwarenessContext = user32.NewProc("SetProcessDpiAwarenessContext")

	procDwmSetWindowAttribute = dwmapi.NewProc("DwmSetWindowAttribute")
	procDwmGetWindowAttribute = dwmapi.NewProc("DwmGetWindowAttribute")
)

const (
	gwOwner          = 4
	wsExToolWindow   = 0x00000080
	wsExNoActivate   = 0x08000000
	gaRoot           = 2
	wmClose          = 0x0010
	wmQuit           = 0x0012
	wmHotkey         = 0x0312
	wmMouseMove      = 0x0200
	wmMouseWheel     = 0x020A
	wmMouseHWheel    = 0x020E
	whMouseLL        = 14
	wheelDeltaShift  = 16

	dwmwaCloaked     = 14
	dwmwaCloak       = 13
	dwmwaBorderColor = 34
	dwmwaColorNone   = 0xFFFFFFFE

	swpNoActivate = 0x0010
	swpNoZOrder   = 0x0004

	wineventOutOfContext      = 0x0000
	eventObjectCreate         = 0x8000
	eventObjectDestroy        = 0x8001
	eventObjectShow           = 0x8002
	eventObjectHide           = 0x8003
	eventSystemForeground     = 0x0003
	eventSystemMinimizeStart  = 0x0016
	eventSystemMinimizeEnd    = 0x0017
	eventObjectLocationChange = 0x800B
	wmDisplayChange           = 0x007E
	objidWindow               = 0
	childidSelf               = 0

	perMonitorAwareV2 = ^uintptr(3)  // DPI_AWARENESS_CONTEXT_PER_MONITOR_AWARE_V2 (-4)
	gwlExStyle        = ^uintptr(19) // GWL_EXSTYLE (-20)
)

type rect32 struct {
	Left, Top, Right, Bottom int32
}

type point32 struct {
	X, Y int32
}

type monitorInfoEx struct {
	Size    uint32
	Monitor rect32
	Work    rect32
	Flags   uint32
	Device  [32]uint16
}

type msg struct {
	HWND    windows.Handle
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      point32
}

type msLLHookStruct struct {
	Pt        point32
	MouseData uint32
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}

// win32 is the production Platform backed by user32/dwmapi.
type win32 struct {
	mu             sync.Mutex
	hotkeyThreadID uint32
	eventFn        func(WindowEvent)
}

// New returns the Win32 platform implementation.
func New() (Platform, error) {
	return &win32{}, nil
}

func (p *win32) DeclareDPIAwareness() error {
	ret, _, err := procSetProcessDpiAwarenessContext.Call(perMonitorAwareV2)
	if ret == 0 {
		return fmt.Errorf("SetProcessDpiAwarenessContext: %w", err)
	}
	return nil
}

// manageable filters to the window set the daemon tiles: visible,
// top-level, unowned, not a tool window, not cloaked, not minimized.
func (p *win32) manageable(hwnd windows.Handle) bool {
	if ret, _, _ := procIsWindowVisible.Call(uintptr(hwnd)); ret == 0 {
		return false
	}
	if ret, _, _ := procIsIconic.Call(uintptr(hwnd)); ret != 0 {
		return false
	}
	if owner, _, _ := procGetWindow.Call(uintptr(hwnd), gwOwner); owner != 0 {
		return false
	}
	exStyle, _, _ := procGetWindowLongW.Call(uintptr(hwnd), gwlExStyle)
	if exStyle&wsExToolWindow != 0 || exStyle&wsExNoActivate != 0 {
		return false
	}
	var cloaked uint32
	_, _, _ = procDwmGetWindowAttribute.Call(uintptr(hwnd), dwmwaCloaked,
		uintptr(unsafe.Pointer(&cloaked)), unsafe.Sizeof(cloaked))
	return cloaked == 0
}

func (p *win32) EnumerateWindows() ([]models.WindowID, error) {
	var out []models.WindowID
	cb := windows.NewCallback(func(hwnd windows.Handle, _ uintptr) uintptr {
		if p.manageable(hwnd) {
			out = append(out, models.WindowID(hwnd))
		}
		return 1 // continue
	})
	ret, _, err := procEnumWindows.Call(cb, 0)
	if ret == 0 {
		return nil, fmt.Errorf("EnumWindows: %w", err)
	}
	return out, nil
}

func (p *win32) IsWindowValid(id models.WindowID) bool {
	ret, _, _ := procIsWindow.Call(uintptr(id))
	return ret != 0
}

func (p *win32) GetWindowRect(id models.WindowID) (models.Rect, error) {
	var r rect32
	ret, _, err := procGetWindowRect.Call(uintptr(id), uintptr(unsafe.Pointer(&r)))
	if ret == 0 {
		return models.Rect{}, fmt.Errorf("GetWindowRect(%d): %w", id, err)
	}
	return models.NewRect(int(r.Left), int(r.Top), int(r.Right-r.Left), int(r.Bottom-r.Top)), nil
}

func (p *win32) SetWindowRect(id models.WindowID, rect models.Rect) error {
	ret, _, err := procSetWindowPos.Call(uintptr(id), 0,
		uintptr(rect.X()), uintptr(rect.Y()), uintptr(rect.Width()), uintptr(rect.Height()),
		swpNoActivate|swpNoZOrder)
	if ret == 0 {
		return fmt.Errorf("SetWindowPos(%d): %w", id, err)
	}
	return nil
}

type win32Batch struct {
	plat    *win32
	entries []models.Placement
}

func (p *win32) BeginBatch(capacity int) Batch {
	return &win32Batch{plat: p, entries: make([]models.Placement, 0, capacity)}
}

func (b *win32Batch) Add(id models.WindowID, rect models.Rect) {
	b.entries = append(b.entries, models.Placement{Window: id, Rect: rect})
}

// Commit uses the DeferWindowPos family so the whole monitor repaints
// once. A defer handle that dies mid-build fails the batch wholesale; the
// daemon falls back to singles.
func (b *win32Batch) Commit() ([]models.WindowID, error) {
	if len(b.entries) == 0 {
		return nil, nil
	}
	hdwp, _, err := procBeginDeferWindowPos.Call(uintptr(len(b.entries)))
	if hdwp == 0 {
		return nil, fmt.Errorf("BeginDeferWindowPos: %w", err)
	}
	var failed []models.WindowID
	for _, e := range b.entries {
		next, _, _ := procDeferWindowPos.Call(hdwp, uintptr(e.Window), 0,
			uintptr(e.Rect.X()), uintptr(e.Rect.Y()),
			uintptr(e.Rect.Width()), uintptr(e.Rect.Height()),
			swpNoActivate|swpNoZOrder)
		if next == 0 {
			failed = append(failed, e.Window)
			continue
		}
		hdwp = next
	}
	if ret, _, err := procEndDeferWindowPos.Call(hdwp); ret == 0 {
		return nil, fmt.Errorf("EndDeferWindowPos: %w", err)
	}
	return failed, nil
}

func (p *win32) SetCloaked(id models.WindowID, cloaked bool) error {
	var value int32
	if cloaked {
		value = 1
	}
	ret, _, _ := procDwmSetWindowAttribute.Call(uintptr(id), dwmwaCloak,
		uintptr(unsafe.Pointer(&value)), unsafe.Sizeof(value))
	if ret != 0 { // S_OK == 0
		return fmt.Errorf("DwmSetWindowAttribute(cloak, %d): HRESULT 0x%08X", id, ret)
	}
	return nil
}

func (p *win32) setBorder(id models.WindowID, color uint32) error {
	ret, _, _ := procDwmSetWindowAttribute.Call(uintptr(id), dwmwaBorderColor,
		uintptr(unsafe.Pointer(&color)), unsafe.Sizeof(color))
	if ret != 0 {
		return fmt.Errorf("DwmSetWindowAttribute(border, %d): HRESULT 0x%08X", id, ret)
	}
	return nil
}

func (p *win32) SetBorderColor(id models.WindowID, color uint32) error {
	return p.setBorder(id, color)
}

func (p *win32) ClearBorderColor(id models.WindowID) error {
	return p.setBorder(id, dwmwaColorNone)
}

func (p *win32) SetForeground(id models.WindowID) error {
	ret, _, err := procSetForegroundWindow.Call(uintptr(id))
	if ret == 0 {
		return fmt.Errorf("SetForegroundWindow(%d): %w", id, err)
	}
	return nil
}

func (p *win32) RequestClose(id models.WindowID) error {
	ret, _, err := procPostMessageW.Call(uintptr(id), wmClose, 0, 0)
	if ret == 0 {
		return fmt.Errorf("PostMessage(WM_CLOSE, %d): %w", id, err)
	}
	return nil
}

func (p *win32) GetWindowMetadata(id models.WindowID) (models.WindowMetadata, error) {
	var meta models.WindowMetadata

	var class [256]uint16
	if n, _, _ := procGetClassNameW.Call(uintptr(id), uintptr(unsafe.Pointer(&class[0])), 256); n > 0 {
		meta.ClassName = windows.UTF16ToString(class[:n])
	}
	var title [512]uint16
	if n, _, _ := procGetWindowTextW.Call(uintptr(id), uintptr(unsafe.Pointer(&title[0])), 512); n > 0 {
		meta.Title = windows.UTF16ToString(title[:n])
	}

	var pid uint32
	_, _, _ = procGetWindowThreadProcessId.Call(uintptr(id), uintptr(unsafe.Pointer(&pid)))
	if pid == 0 {
		return meta, fmt.Errorf("GetWindowThreadProcessId(%d): no process", id)
	}
	meta.ProcessID = pid

	handle, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		return meta, nil // access denied on elevated processes is routine
	}
	defer windows.CloseHandle(handle)
	var buf [windows.MAX_PATH]uint16
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(handle, 0, &buf[0], &size); err == nil {
		meta.Executable = filepath.Base(windows.UTF16ToString(buf[:size]))
	}
	return meta, nil
}

func (p *win32) EnumerateMonitors() ([]models.MonitorInfo, error) {
	var out []models.MonitorInfo
	cb := windows.NewCallback(func(hmon windows.Handle, _ windows.Handle, _ *rect32, _ uintptr) uintptr {
		var info monitorInfoEx
		info.Size = uint32(unsafe.Sizeof(info))
		if ret, _, _ := procGetMonitorInfoW.Call(uintptr(hmon), uintptr(unsafe.Pointer(&info))); ret != 0 {
			out = append(out, models.MonitorInfo{
				ID:         models.MonitorID(hmon),
				DeviceName: windows.UTF16ToString(info.Device[:]),
				Bounds: models.NewRect(int(info.Monitor.Left), int(info.Monitor.Top),
					int(info.Monitor.Right-info.Monitor.Left), int(info.Monitor.Bottom-info.Monitor.Top)),
				WorkArea: models.NewRect(int(info.Work.Left), int(info.Work.Top),
					int(info.Work.Right-info.Work.Left), int(info.Work.Bottom-info.Work.Top)),
				IsPrimary: info.Flags&1 != 0, // MONITORINFOF_PRIMARY
			})
		}
		return 1
	})
	ret, _, err := procEnumDisplayMonitors.Call(0, 0, cb, 0)
	if ret == 0 {
		return nil, fmt.Errorf("EnumDisplayMonitors: %w", err)
	}
	return out, nil
}

// threadGuard posts WM_QUIT to a hook thread's message loop on Close.
type threadGuard struct {
	threadID uint32
	once     sync.Once
}

func (g *threadGuard) Close() error {
	g.once.Do(func() {
		_, _, _ = procPostThreadMessageW.Call(uintptr(g.threadID), wmQuit, 0, 0)
	})
	return nil
}

// InstallEventHooks runs a locked OS thread with a WinEvent hook set and
// a message loop; events are translated and handed to fn on that thread.
func (p *win32) InstallEventHooks(fn func(WindowEvent)) (Guard, error) {
	p.mu.Lock()
	p.eventFn = fn
	p.mu.Unlock()

	ready := make(chan uint32, 1)
	errCh := make(chan error, 1)

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		hookCB := windows.NewCallback(func(_ windows.Handle, event uint32, hwnd windows.Handle,
			objectID int32, childID int32, _ uint32, _ uint32) uintptr {
			if objectID != objidWindow || childID != childidSelf || hwnd == 0 {
				return 0
			}
			id := models.WindowID(hwnd)
			switch event {
			case eventObjectShow, eventObjectCreate:
				if p.manageable(hwnd) {
					fn(WindowEvent{Type: EventCreated, Window: id})
				}
			case eventObjectDestroy, eventObjectHide:
				fn(WindowEvent{Type: EventDestroyed, Window: id})
			case eventSystemForeground:
				fn(WindowEvent{Type: EventFocused, Window: id})
			case eventSystemMinimizeStart:
				fn(WindowEvent{Type: EventMinimized, Window: id})
			case eventSystemMinimizeEnd:
				fn(WindowEvent{Type: EventRestored, Window: id})
			case eventObjectLocationChange:
				fn(WindowEvent{Type: EventMovedOrResized, Window: id})
			}
			return 0
		})

		events := []struct{ min, max uint32 }{
			{eventSystemForeground, eventSystemForeground},
			{eventSystemMinimizeStart, eventSystemMinimizeEnd},
			{eventObjectCreate, eventObjectHide},
			{eventObjectLocationChange, eventObjectLocationChange},
		}
		var hooks []uintptr
		for _, e := range events {
			h, _, err := procSetWinEventHook.Call(uintptr(e.min), uintptr(e.max),
				0, hookCB, 0, 0, uintptr(wineventOutOfContext))
			if h == 0 {
				errCh <- fmt.Errorf("SetWinEventHook(0x%04X): %w", e.min, err)
				return
			}
			hooks = append(hooks, h)
		}
		tid, _, _ := procGetCurrentThreadId.Call()
		ready <- uint32(tid)

		var m msg
		for {
			ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
			if ret == 0 || int32(ret) == -1 {
				break
			}
			if m.Message == wmDisplayChange {
				fn(WindowEvent{Type: EventDisplayChange})
			}
		}
		for _, h := range hooks {
			_, _, _ = procUnhookWinEvent.Call(h)
		}
	}()

	select {
	case tid := <-ready:
		return &threadGuard{threadID: tid}, nil
	case err := <-errCh:
		return nil, err
	}
}

// InstallMouseHook runs the WH_MOUSE_LL hook on a locked thread, emitting
// wheel deltas to fn and MouseEnter transitions through the shared event
// callback installed by InstallEventHooks.
func (p *win32) InstallMouseHook(fn func(WheelEvent)) (Guard, error) {
	ready := make(chan uint32, 1)
	errCh := make(chan error, 1)

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		var hoverRoot windows.Handle
		hookCB := windows.NewCallback(func(code int32, wParam uintptr, lParam uintptr) uintptr {
			if code >= 0 {
				data := (*msLLHookStruct)(unsafe.Pointer(lParam))
				switch wParam {
				case wmMouseWheel:
					fn(WheelEvent{DeltaY: int(int16(data.MouseData >> wheelDeltaShift))})
				case wmMouseHWheel:
					fn(WheelEvent{DeltaX: int(int16(data.MouseData >> wheelDeltaShift))})
				case wmMouseMove:
					// POINT is passed by value: both coordinates packed
					// into a single 64-bit argument.
					packed := uintptr(uint64(uint32(data.Pt.X)) | uint64(uint32(data.Pt.Y))<<32)
					hwnd, _, _ := procWindowFromPoint.Call(packed)
					if hwnd != 0 {
						root, _, _ := procGetAncestor.Call(hwnd, gaRoot)
						if windows.Handle(root) != hoverRoot {
							hoverRoot = windows.Handle(root)
							p.mu.Lock()
							eventFn := p.eventFn
							p.mu.Unlock()
							if eventFn != nil && hoverRoot != 0 {
								eventFn(WindowEvent{Type: EventMouseEnter, Window: models.WindowID(hoverRoot)})
							}
						}
					}
				}
			}
			ret, _, _ := procCallNextHookEx.Call(0, uintptr(code), wParam, lParam)
			return ret
		})

		hook, _, err := procSetWindowsHookExW.Call(whMouseLL, hookCB, 0, 0)
		if hook == 0 {
			errCh <- fmt.Errorf("SetWindowsHookEx(WH_MOUSE_LL): %w", err)
			return
		}
		tid, _, _ := procGetCurrentThreadId.Call()
		ready <- uint32(tid)

		var m msg
		for {
			ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
			if ret == 0 || int32(ret) == -1 {
				break
			}
		}
		_, _, _ = procUnhookWindowsHookEx.Call(hook)
	}()

	select {
	case tid := <-ready:
		return &threadGuard{threadID: tid}, nil
	case err := <-errCh:
		return nil, err
	}
}

// Hotkey registration must happen on the thread that pumps WM_HOTKEY, so
// a dedicated locked thread owns both and serves register requests.
type hotkeyRequest struct {
	register bool
	id       int
	mods     uint32
	vk       uint32
	done     chan error
}

var hotkeyRequests = make(chan hotkeyRequest, 16)

func (p *win32) InstallHotkeyHandler(fn func(int)) (Guard, error) {
	ready := make(chan uint32, 1)

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		tid, _, _ := procGetCurrentThreadId.Call()
		p.mu.Lock()
		p.hotkeyThreadID = uint32(tid)
		p.mu.Unlock()
		ready <- uint32(tid)

		var m msg
		for {
			// Interleave hotkey requests with the message pump; requests
			// wake the loop via a posted null message.
			select {
			case req := <-hotkeyRequests:
				req.done <- doHotkeyRequest(req)
				continue
			default:
			}
			ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
			if ret == 0 || int32(ret) == -1 {
				return
			}
			if m.Message == wmHotkey {
				fn(int(m.WParam))
			}
			select {
			case req := <-hotkeyRequests:
				req.done <- doHotkeyRequest(req)
			default:
			}
		}
	}()

	tid := <-ready
	return &threadGuard{threadID: tid}, nil
}

func doHotkeyRequest(req hotkeyRequest) error {
	if req.register {
		ret, _, err := procRegisterHotKey.Call(0, uintptr(req.id), uintptr(req.mods), uintptr(req.vk))
		if ret == 0 {
			return fmt.Errorf("RegisterHotKey(%d): %w", req.id, err)
		}
		return nil
	}
	ret, _, err := procUnregisterHotKey.Call(0, uintptr(req.id))
	if ret == 0 {
		return fmt.Errorf("UnregisterHotKey(%d): %w", req.id, err)
	}
	return nil
}

func (p *win32) sendHotkeyRequest(req hotkeyRequest) error {
	p.mu.Lock()
	tid := p.hotkeyThreadID
	p.mu.Unlock()
	if tid == 0 {
		return fmt.Errorf("hotkey thread not running")
	}
	req.done = make(chan error, 1)
	hotkeyRequests <- req
	// Nudge the message loop out of GetMessage.
	_, _, _ = procPostThreadMessageW.Call(uintptr(tid), 0, 0, 0)
	return <-req.done
}

func (p *win32) RegisterHotkey(id int, modifiers, virtualKey uint32) error {
	return p.sendHotkeyRequest(hotkeyRequest{register: true, id: id, mods: modifiers, vk: virtualKey})
}

func (p *win32) UnregisterHotkey(id int) error {
	return p.sendHotkeyRequest(hotkeyRequest{register: false, id: id})
}

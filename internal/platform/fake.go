package platform

import (
	"fmt"
	"sort"
	"sync"

	"github.com/scrollwm/scrollwm/pkg/models"
)

// Fake is an in-memory Platform used by the daemon tests. Windows and
// monitors are seeded by the test; every mutation is recorded.
type Fake struct {
	mu sync.Mutex

	windows  map[models.WindowID]*FakeWindow
	monitors []models.MonitorInfo

	hotkeys      map[int]struct{}
	eventFn      func(WindowEvent)
	wheelFn      func(WheelEvent)
	hotkeyFn     func(int)
	dpiDeclared  bool
	batchFailure bool

	Foreground   models.WindowID
	CloseRequest []models.WindowID
	BatchCommits int
	SingleMoves  int
}

// FakeWindow is one simulated top-level window.
type FakeWindow struct {
	Meta        models.WindowMetadata
	Rect        models.Rect
	Cloaked     bool
	BorderColor *uint32
	Valid       bool
}

// NewFake returns an empty fake platform.
func NewFake() *Fake {
	return &Fake{
		windows: make(map[models.WindowID]*FakeWindow),
		hotkeys: make(map[int]struct{}),
	}
}

// AddWindow seeds a window.
func (f *Fake) AddWindow(id models.WindowID, meta models.WindowMetadata, rect models.Rect) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows[id] = &FakeWindow{Meta: meta, Rect: rect, Valid: true}
}

// DestroyWindow invalidates a window, as the OS does on WM_DESTROY.
func (f *Fake) DestroyWindow(id models.WindowID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.windows[id]; ok {
		w.Valid = false
	}
}

// SetMonitors seeds the monitor list.
func (f *Fake) SetMonitors(monitors []models.MonitorInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.monitors = append([]models.MonitorInfo(nil), monitors...)
}

// FailBatches makes every batch commit fail wholesale, forcing the
// per-window fallback path.
func (f *Fake) FailBatches(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchFailure = fail
}

// Window returns the fake window state for assertions.
func (f *Fake) Window(id models.WindowID) *FakeWindow {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.windows[id]
}

// EmitWindowEvent invokes the installed event hook, as the OS would.
func (f *Fake) EmitWindowEvent(ev WindowEvent) {
	f.mu.Lock()
	fn := f.eventFn
	f.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

// EmitWheel invokes the installed mouse hook.
func (f *Fake) EmitWheel(ev WheelEvent) {
	f.mu.Lock()
	fn := f.wheelFn
	f.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

func (f *Fake) EnumerateWindows() ([]models.WindowID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.WindowID, 0, len(f.windows))
	for id, w := range f.windows {
		if w.Valid {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (f *Fake) IsWindowValid(id models.WindowID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[id]
	return ok && w.Valid
}

func (f *Fake) GetWindowRect(id models.WindowID) (models.Rect, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[id]
	if !ok || !w.Valid {
		return models.Rect{}, fmt.Errorf("window %d not found", id)
	}
	return w.Rect, nil
}

func (f *Fake) SetWindowRect(id models.WindowID, rect models.Rect) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[id]
	if !ok || !w.Valid {
		return fmt.Errorf("window %d not found", id)
	}
	w.Rect = rect
	f.SingleMoves++
	return nil
}

type fakeBatch struct {
	fake    *Fake
	entries []models.Placement
}

func (f *Fake) BeginBatch(capacity int) Batch {
	return &fakeBatch{fake: f, entries: make([]models.Placement, 0, capacity)}
}

func (b *fakeBatch) Add(id models.WindowID, rect models.Rect) {
	b.entries = append(b.entries, models.Placement{Window: id, Rect: rect})
}

func (b *fakeBatch) Commit() ([]models.WindowID, error) {
	b.fake.mu.Lock()
	defer b.fake.mu.Unlock()
	if b.fake.batchFailure {
		return nil, fmt.Errorf("deferred position commit failed")
	}
	b.fake.BatchCommits++
	var failed []models.WindowID
	for _, e := range b.entries {
		w, ok := b.fake.windows[e.Window]
		if !ok || !w.Valid {
			failed = append(failed, e.Window)
			continue
		}
		w.Rect = e.Rect
	}
	return failed, nil
}

func (f *Fake) SetCloaked(id models.WindowID, cloaked bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[id]
	if !ok || !w.Valid {
		return fmt.Errorf("window %d not found", id)
	}
	w.Cloaked = cloaked
	return nil
}

func (f *Fake) SetBorderColor(id models.WindowID, color uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[id]
	if !ok || !w.Valid {
		return fmt.Errorf("window %d not found", id)
	}
	c := color
	w.BorderColor = &c
	return nil
}

func (f *Fake) ClearBorderColor(id models.WindowID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[id]
	if !ok || !w.Valid {
		return fmt.Errorf("window %d not found", id)
	}
	w.BorderColor = nil
	return nil
}

func (f *Fake) SetForeground(id models.WindowID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.windows[id]; !ok || !w.Valid {
		return fmt.Errorf("window %d not found", id)
	}
	f.Foreground = id
	return nil
}

func (f *Fake) RequestClose(id models.WindowID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.windows[id]; !ok || !w.Valid {
		return fmt.Errorf("window %d not found", id)
	}
	f.CloseRequest = append(f.CloseRequest, id)
	return nil
}

func (f *Fake) GetWindowMetadata(id models.WindowID) (models.WindowMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[id]
	if !ok || !w.Valid {
		return models.WindowMetadata{}, fmt.Errorf("window %d not found", id)
	}
	return w.Meta, nil
}

func (f *Fake) EnumerateMonitors() ([]models.MonitorInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.MonitorInfo(nil), f.monitors...), nil
}

type fakeGuard struct{ close func() }

func (g *fakeGuard) Close() error {
	g.close()
	return nil
}

func (f *Fake) InstallEventHooks(fn func(WindowEvent)) (Guard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.eventFn = fn
	return &fakeGuard{close: func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.eventFn = nil
	}}, nil
}

func (f *Fake) InstallMouseHook(fn func(WheelEvent)) (Guard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wheelFn = fn
	return &fakeGuard{close: func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.wheelFn = nil
	}}, nil
}

func (f *Fake) InstallHotkeyHandler(fn func(int)) (Guard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hotkeyFn = fn
	return &fakeGuard{close: func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.hotkeyFn = nil
	}}, nil
}

// EmitHotkey invokes the installed hotkey handler, as the OS message
// window would on WM_HOTKEY.
func (f *Fake) EmitHotkey(id int) {
	f.mu.Lock()
	fn := f.hotkeyFn
	f.mu.Unlock()
	if fn != nil {
		fn(id)
	}
}

func (f *Fake) RegisterHotkey(id int, modifiers, virtualKey uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, dup := f.hotkeys[id]; dup {
		return fmt.Errorf("hotkey id %d already registered", id)
	}
	f.hotkeys[id] = struct{}{}
	return nil
}

func (f *Fake) UnregisterHotkey(id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.hotkeys, id)
	return nil
}

func (f *Fake) DeclareDPIAwareness() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dpiDeclared = true
	return nil
}

// HotkeyCount returns the number of currently registered hotkeys.
func (f *Fake) HotkeyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.hotkeys)
}

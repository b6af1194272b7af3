package daemon

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrollwm/scrollwm/internal/ipc"
	"github.com/scrollwm/scrollwm/internal/layout"
	"github.com/scrollwm/scrollwm/internal/platform"
	"github.com/scrollwm/scrollwm/internal/rules"
	"github.com/scrollwm/scrollwm/pkg/config"
	"github.com/scrollwm/scrollwm/pkg/models"
)

func init() {
	layout.EnableInvariantChecks()
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Layout.Gap = 10
	cfg.Layout.OuterGap = 10
	cfg.Layout.DefaultColumnWidth = 300
	cfg.Layout.CenteringMode = "center"
	cfg.Metrics.Enabled = false
	cfg.Behavior.FocusFollowsMouse = false
	return cfg
}

func primaryMonitor() models.MonitorInfo {
	return models.MonitorInfo{
		ID:         1,
		DeviceName: `\\.\DISPLAY1`,
		Bounds:     models.NewRect(0, 0, 1000, 800),
		WorkArea:   models.NewRect(0, 0, 1000, 800),
		IsPrimary:  true,
	}
}

func secondMonitor() models.MonitorInfo {
	return models.MonitorInfo{
		ID:         2,
		DeviceName: `\\.\DISPLAY2`,
		Bounds:     models.NewRect(1000, 0, 1000, 800),
		WorkArea:   models.NewRect(1000, 0, 1000, 800),
	}
}

// newTestDaemon builds a daemon wired to a fake platform without running
// the loop; tests drive handlers directly, which matches the loop's
// single-threaded execution model.
func newTestDaemon(t *testing.T, cfg config.Config, monitors ...models.MonitorInfo) (*Daemon, *platform.Fake) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	fake := platform.NewFake()
	if len(monitors) == 0 {
		monitors = []models.MonitorInfo{primaryMonitor()}
	}
	fake.SetMonitors(monitors)

	d, err := New(logger, fake, cfg, "", "test")
	require.NoError(t, err)
	d.clock = func() time.Time { return time.Unix(1000, 0) }
	require.NoError(t, d.reconcileMonitors())
	return d, fake
}

func addManagedWindow(t *testing.T, d *Daemon, fake *platform.Fake, id models.WindowID, exe string) {
	t.Helper()
	fake.AddWindow(id, models.WindowMetadata{
		Title: "win", ClassName: "TestClass", Executable: exe,
	}, models.NewRect(0, 0, 640, 480))
	d.handleWindowEvent(platform.WindowEvent{Type: platform.EventCreated, Window: id})
}

func TestCreatedEventTilesWindow(t *testing.T) {
	d, fake := newTestDaemon(t, testConfig())
	addManagedWindow(t, d, fake, 10, "app.exe")

	ws := d.workspace()
	assert.Equal(t, 1, ws.WindowCount())
	got, ok := ws.FocusedWindow()
	require.True(t, ok)
	assert.Equal(t, models.WindowID(10), got)

	// Placement applied to the OS per the single-insert scenario.
	assert.Equal(t, models.NewRect(10, 10, 300, 780), fake.Window(10).Rect)
}

func TestCreatedEventDuplicateIgnored(t *testing.T) {
	d, fake := newTestDaemon(t, testConfig())
	addManagedWindow(t, d, fake, 10, "app.exe")
	d.handleWindowEvent(platform.WindowEvent{Type: platform.EventCreated, Window: 10})
	assert.Equal(t, 1, d.workspace().WindowCount())
}

func TestRuleEvaluationOnCreate(t *testing.T) {
	cfg := testConfig()
	cfg.WindowRules = []rules.Spec{
		{MatchExecutable: "ignored.exe", Action: "ignore"},
		{MatchExecutable: "floaty.exe", Action: "float", Width: 400, Height: 300},
	}
	d, fake := newTestDaemon(t, cfg)

	addManagedWindow(t, d, fake, 20, "ignored.exe")
	addManagedWindow(t, d, fake, 21, "floaty.exe")
	addManagedWindow(t, d, fake, 22, "tiled.exe")

	ws := d.workspace()
	assert.False(t, ws.ContainsWindow(20))
	assert.True(t, ws.IsFloating(21))
	loc, ok := ws.FindWindowLocation(22)
	require.True(t, ok)
	assert.False(t, loc.Floating)

	// Rule dimensions, centered in the work area.
	rect, _ := ws.FloatingRect(21)
	assert.Equal(t, models.NewRect(300, 250, 400, 300), rect)
}

func TestDestroyedEventRemovesWindow(t *testing.T) {
	d, fake := newTestDaemon(t, testConfig())
	addManagedWindow(t, d, fake, 10, "a.exe")
	addManagedWindow(t, d, fake, 11, "b.exe")

	fake.DestroyWindow(10)
	d.handleWindowEvent(platform.WindowEvent{Type: platform.EventDestroyed, Window: 10})

	ws := d.workspace()
	assert.False(t, ws.ContainsWindow(10))
	assert.Equal(t, 1, ws.WindowCount())
	_, tracked := d.windowMonitor[10]
	assert.False(t, tracked)
}

func TestStaleEventForInvalidWindowDropped(t *testing.T) {
	d, fake := newTestDaemon(t, testConfig())
	fake.AddWindow(30, models.WindowMetadata{Executable: "x.exe"}, models.NewRect(0, 0, 100, 100))
	fake.DestroyWindow(30)

	d.handleWindowEvent(platform.WindowEvent{Type: platform.EventCreated, Window: 30})
	assert.Equal(t, 0, d.workspace().WindowCount())
}

func TestMinimizeRestoreCycle(t *testing.T) {
	d, fake := newTestDaemon(t, testConfig())
	addManagedWindow(t, d, fake, 10, "a.exe")
	addManagedWindow(t, d, fake, 11, "b.exe")

	d.handleWindowEvent(platform.WindowEvent{Type: platform.EventMinimized, Window: 10})
	assert.False(t, d.workspace().ContainsWindow(10))
	assert.Contains(t, d.minimized, models.WindowID(10))

	d.handleWindowEvent(platform.WindowEvent{Type: platform.EventRestored, Window: 10})
	assert.True(t, d.workspace().ContainsWindow(10))
	assert.NotContains(t, d.minimized, models.WindowID(10))
}

func TestFocusCommandsActivateForeground(t *testing.T) {
	d, fake := newTestDaemon(t, testConfig())
	addManagedWindow(t, d, fake, 10, "a.exe")
	addManagedWindow(t, d, fake, 11, "b.exe")

	resp := d.handleCommand(ipc.Request{Cmd: ipc.CmdFocusLeft})
	assert.True(t, resp.OK)

	got, _ := d.workspace().FocusedWindow()
	assert.Equal(t, models.WindowID(10), got)
	assert.Equal(t, models.WindowID(10), fake.Foreground)
	require.NotNil(t, fake.Window(10).BorderColor)
	assert.Nil(t, fake.Window(11).BorderColor)
}

func TestMoveWindowToMonitorRight(t *testing.T) {
	d, fake := newTestDaemon(t, testConfig(), primaryMonitor(), secondMonitor())
	addManagedWindow(t, d, fake, 10, "a.exe")
	addManagedWindow(t, d, fake, 11, "b.exe")

	resp := d.handleCommand(ipc.Request{Cmd: ipc.CmdMoveWindowToMonitorRight})
	assert.True(t, resp.OK)

	assert.Equal(t, models.MonitorID(2), d.focusedMonitor)
	assert.False(t, d.workspaces[1].ContainsWindow(11))
	assert.True(t, d.workspaces[2].ContainsWindow(11))
	assert.Equal(t, models.MonitorID(2), d.windowMonitor[11])
	got, ok := d.workspaces[2].FocusedWindow()
	require.True(t, ok)
	assert.Equal(t, models.WindowID(11), got)
	assert.Equal(t, 0, d.workspaces[2].FocusedWindowIndex())
}

func TestMoveWindowAtMonitorEdgeIsNoOp(t *testing.T) {
	d, fake := newTestDaemon(t, testConfig(), primaryMonitor(), secondMonitor())
	addManagedWindow(t, d, fake, 10, "a.exe")

	resp := d.handleCommand(ipc.Request{Cmd: ipc.CmdMoveWindowToMonitorLeft})
	assert.True(t, resp.OK)
	assert.True(t, d.workspaces[1].ContainsWindow(10))
	assert.Equal(t, models.MonitorID(1), d.focusedMonitor)
}

func TestFocusMonitorNavigation(t *testing.T) {
	d, _ := newTestDaemon(t, testConfig(), primaryMonitor(), secondMonitor())

	assert.True(t, d.handleCommand(ipc.Request{Cmd: ipc.CmdFocusMonitorRight}).OK)
	assert.Equal(t, models.MonitorID(2), d.focusedMonitor)
	assert.True(t, d.handleCommand(ipc.Request{Cmd: ipc.CmdFocusMonitorRight}).OK)
	assert.Equal(t, models.MonitorID(2), d.focusedMonitor, "no wrap at the edge")
	assert.True(t, d.handleCommand(ipc.Request{Cmd: ipc.CmdFocusMonitorLeft}).OK)
	assert.Equal(t, models.MonitorID(1), d.focusedMonitor)
}

func TestCloseWindowDefersRemovalToDestroyed(t *testing.T) {
	d, fake := newTestDaemon(t, testConfig())
	addManagedWindow(t, d, fake, 10, "a.exe")

	resp := d.handleCommand(ipc.Request{Cmd: ipc.CmdCloseWindow})
	assert.True(t, resp.OK)
	assert.Equal(t, []models.WindowID{10}, fake.CloseRequest)
	// Still managed until the OS confirms.
	assert.True(t, d.workspace().ContainsWindow(10))
}

func TestToggleFloatingRoundTrip(t *testing.T) {
	d, fake := newTestDaemon(t, testConfig())
	addManagedWindow(t, d, fake, 10, "a.exe")

	resp := d.handleCommand(ipc.Request{Cmd: ipc.CmdToggleFloating})
	require.True(t, resp.OK)
	ws := d.workspace()
	assert.True(t, ws.IsFloating(10))

	resp = d.handleCommand(ipc.Request{Cmd: ipc.CmdToggleFloating})
	require.True(t, resp.OK)
	assert.False(t, ws.IsFloating(10))
	loc, ok := ws.FindWindowLocation(10)
	require.True(t, ok)
	assert.False(t, loc.Floating)
}

func TestToggleFullscreen(t *testing.T) {
	d, fake := newTestDaemon(t, testConfig())
	addManagedWindow(t, d, fake, 10, "a.exe")

	require.True(t, d.handleCommand(ipc.Request{Cmd: ipc.CmdToggleFullscreen}).OK)
	assert.Contains(t, d.fullscreen, models.WindowID(10))
	assert.Equal(t, d.viewport(1), fake.Window(10).Rect)

	require.True(t, d.handleCommand(ipc.Request{Cmd: ipc.CmdToggleFullscreen}).OK)
	assert.NotContains(t, d.fullscreen, models.WindowID(10))
	assert.Equal(t, models.NewRect(10, 10, 300, 780), fake.Window(10).Rect)
}

func TestBatchFallbackToSingles(t *testing.T) {
	d, fake := newTestDaemon(t, testConfig())
	addManagedWindow(t, d, fake, 10, "a.exe")
	addManagedWindow(t, d, fake, 11, "b.exe")

	fake.FailBatches(true)
	before := fake.SingleMoves
	d.applyAll()
	assert.Greater(t, fake.SingleMoves, before, "singles used when batch fails")
}

func TestHiddenWindowsCloaked(t *testing.T) {
	d, fake := newTestDaemon(t, testConfig())
	for id := models.WindowID(10); id < 16; id++ {
		addManagedWindow(t, d, fake, id, "a.exe")
	}
	// Drain the focus scroll animation, then center mode has panned far
	// right and the leftmost columns are out of the viewport.
	d.tickAnimations(time.Unix(1010, 0))

	assert.True(t, fake.Window(10).Cloaked, "leftmost column scrolled out")
	focused, _ := d.workspace().FocusedWindow()
	assert.False(t, fake.Window(focused).Cloaked, "focused window is never cloaked")
}

func TestMoveOffScreenStrategy(t *testing.T) {
	cfg := testConfig()
	cfg.Appearance.UseCloaking = false
	d, fake := newTestDaemon(t, cfg)
	for id := models.WindowID(10); id < 16; id++ {
		addManagedWindow(t, d, fake, id, "a.exe")
	}
	d.tickAnimations(time.Unix(1010, 0))

	parked := false
	for id := models.WindowID(10); id < 16; id++ {
		w := fake.Window(id)
		assert.False(t, w.Cloaked)
		if w.Rect.X() >= 1200 {
			parked = true
		}
	}
	assert.True(t, parked, "hidden windows parked right of all monitors")
}

func TestPauseSuspendsApplication(t *testing.T) {
	d, fake := newTestDaemon(t, testConfig())
	addManagedWindow(t, d, fake, 10, "a.exe")

	require.True(t, d.handleCommand(ipc.Request{Cmd: ipc.CmdPause}).OK)
	addManagedWindow(t, d, fake, 11, "b.exe")
	// State is maintained while paused, but the OS is untouched.
	assert.True(t, d.workspace().ContainsWindow(11))
	assert.Equal(t, models.NewRect(0, 0, 640, 480), fake.Window(11).Rect)

	require.True(t, d.handleCommand(ipc.Request{Cmd: ipc.CmdResume}).OK)
	assert.NotEqual(t, models.NewRect(0, 0, 640, 480), fake.Window(11).Rect)
}

func TestMonitorRemovalMigratesWindows(t *testing.T) {
	d, fake := newTestDaemon(t, testConfig(), primaryMonitor(), secondMonitor())
	addManagedWindow(t, d, fake, 10, "a.exe")
	require.True(t, d.handleCommand(ipc.Request{Cmd: ipc.CmdMoveWindowToMonitorRight}).OK)
	addManagedWindow(t, d, fake, 11, "b.exe") // window center is on monitor 1

	fake.SetMonitors([]models.MonitorInfo{primaryMonitor()})
	d.handleWindowEvent(platform.WindowEvent{Type: platform.EventDisplayChange})

	assert.Len(t, d.workspaces, 1)
	ws := d.workspaces[1]
	assert.True(t, ws.ContainsWindow(10))
	assert.True(t, ws.ContainsWindow(11))
	assert.Equal(t, models.MonitorID(1), d.focusedMonitor)
	assert.Equal(t, models.MonitorID(1), d.windowMonitor[10])
}

func TestMonitorAddedCreatesWorkspace(t *testing.T) {
	d, fake := newTestDaemon(t, testConfig())
	fake.SetMonitors([]models.MonitorInfo{primaryMonitor(), secondMonitor()})
	d.handleWindowEvent(platform.WindowEvent{Type: platform.EventDisplayChange})

	require.Len(t, d.workspaces, 2)
	assert.Equal(t, 0, d.workspaces[2].WindowCount())
}

func TestSetColumnWidthPresets(t *testing.T) {
	d, fake := newTestDaemon(t, testConfig())
	addManagedWindow(t, d, fake, 10, "a.exe")

	require.True(t, d.handleCommand(ipc.Request{Cmd: ipc.CmdSetColumnWidth, Width: ipc.WidthHalf}).OK)
	assert.Equal(t, 500, d.workspace().Columns()[0].Width())

	require.True(t, d.handleCommand(ipc.Request{Cmd: ipc.CmdSetColumnWidth, Width: ipc.WidthOneThird}).OK)
	assert.Equal(t, 333, d.workspace().Columns()[0].Width())

	resp := d.handleCommand(ipc.Request{Cmd: ipc.CmdSetColumnWidth, Width: "seven_eighths"})
	assert.NotEmpty(t, resp.Error)
}

func TestUnknownCommandRejected(t *testing.T) {
	d, _ := newTestDaemon(t, testConfig())
	resp := d.handleCommand(ipc.Request{Cmd: "defenestrate"})
	assert.Contains(t, resp.Error, "unknown command")
}

func TestQueryStatus(t *testing.T) {
	d, fake := newTestDaemon(t, testConfig())
	addManagedWindow(t, d, fake, 10, "a.exe")

	resp := d.handleCommand(ipc.Request{Cmd: ipc.CmdQueryStatus})
	require.NotNil(t, resp.Status)
	assert.Equal(t, 1, resp.Status.ManagedWindows)
	assert.Equal(t, 1, resp.Status.MonitorCount)
	assert.Equal(t, "test", resp.Status.Version)
	assert.False(t, resp.Status.Paused)
}

func TestQueryAllWindows(t *testing.T) {
	d, fake := newTestDaemon(t, testConfig())
	addManagedWindow(t, d, fake, 10, "a.exe")
	addManagedWindow(t, d, fake, 11, "b.exe")

	resp := d.handleCommand(ipc.Request{Cmd: ipc.CmdQueryAllWindows})
	require.Len(t, resp.Windows, 2)

	var focusedCount int
	for _, w := range resp.Windows {
		if w.IsFocused {
			focusedCount++
			assert.Equal(t, uint64(11), w.ID)
		}
		require.NotNil(t, w.ColumnIndex)
		assert.Equal(t, "TestClass", w.ClassName)
	}
	assert.Equal(t, 1, focusedCount)
}

func TestQueryWorkspaceSnapshot(t *testing.T) {
	d, fake := newTestDaemon(t, testConfig())
	addManagedWindow(t, d, fake, 10, "a.exe")

	resp := d.handleCommand(ipc.Request{Cmd: ipc.CmdQueryWorkspace})
	require.NotNil(t, resp.Workspace)
	assert.Equal(t, `\\.\DISPLAY1`, resp.Workspace.DeviceName)
	require.Len(t, resp.Workspace.Workspace.Columns, 1)
	assert.Equal(t, []models.WindowID{10}, resp.Workspace.Workspace.Columns[0].Windows)
}

func TestHotkeyDispatch(t *testing.T) {
	d, fake := newTestDaemon(t, testConfig())
	addManagedWindow(t, d, fake, 10, "a.exe")
	addManagedWindow(t, d, fake, 11, "b.exe")
	d.registerHotkeys()
	defer d.unregisterHotkeys()
	require.Greater(t, fake.HotkeyCount(), 0)

	// Default table binds Win+H (first entry, id 1) to focus_left.
	d.handleHotkey(1)
	got, _ := d.workspace().FocusedWindow()
	assert.Equal(t, models.WindowID(10), got)
}

func TestGestureDispatch(t *testing.T) {
	d, fake := newTestDaemon(t, testConfig())
	addManagedWindow(t, d, fake, 10, "a.exe")
	addManagedWindow(t, d, fake, 11, "b.exe")

	// Default gestures map horizontal wheel to focus movement.
	d.handleWheel(platform.WheelEvent{DeltaX: -360})
	got, _ := d.workspace().FocusedWindow()
	assert.Equal(t, models.WindowID(10), got)
}

func TestStopCommand(t *testing.T) {
	d, _ := newTestDaemon(t, testConfig())
	resp := d.handleCommand(ipc.Request{Cmd: ipc.CmdStop})
	assert.True(t, resp.OK)
	assert.True(t, d.stopping)
}

// Package daemon hosts the scrollwm event loop: it ingests window events,
// hotkeys, gestures, and IPC commands, mutates the per-monitor layout
// state, and applies the computed placements back to the OS.
package daemon

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/scrollwm/scrollwm/internal/gestures"
	"github.com/scrollwm/scrollwm/internal/hotkeys"
	"github.com/scrollwm/scrollwm/internal/ipc"
	"github.com/scrollwm/scrollwm/internal/layout"
	"github.com/scrollwm/scrollwm/internal/persistence"
	"github.com/scrollwm/scrollwm/internal/platform"
	"github.com/scrollwm/scrollwm/internal/rules"
	"github.com/scrollwm/scrollwm/pkg/config"
	"github.com/scrollwm/scrollwm/pkg/models"
)

// animationInterval is the layout tick cadence while a scroll animation
// is in flight (~60 Hz).
const animationInterval = 16 * time.Millisecond

// scrollAnimationDuration is the duration of focus-driven scroll
// transitions.
const scrollAnimationDuration = 200 * time.Millisecond

// message is one unit of work posted into the event loop. All producers
// share the mailbox, so cross-source ordering follows arrival order.
type message interface{}

type cmdMsg struct {
	req   ipc.Request
	reply chan ipc.Response
}

type eventMsg struct{ ev platform.WindowEvent }

type wheelMsg struct{ ev platform.WheelEvent }

type hotkeyMsg struct{ id int }

type reloadMsg struct{}

// Daemon owns all mutable window-manager state. Every field below is
// touched only from the Run goroutine; external threads reach it through
// the mailbox.
type Daemon struct {
	logger  *logrus.Logger
	tracer  trace.Tracer
	plat    platform.Platform
	version string

	cfg     config.Config
	cfgPath string
	rules   *rules.Engine

	workspaces     map[models.MonitorID]*layout.Workspace
	monitors       map[models.MonitorID]models.MonitorInfo
	focusedMonitor models.MonitorID

	meta          map[models.WindowID]models.WindowMetadata
	windowMonitor map[models.WindowID]models.MonitorID
	ignored       map[models.WindowID]struct{}
	minimized     map[models.WindowID]struct{}
	fullscreen    map[models.WindowID]models.Rect
	lastFocused   models.WindowID

	paused    bool
	stopping  bool
	startedAt time.Time

	mailbox chan message

	hotkeyReg *hotkeys.Registration
	gesture   *gestures.Recognizer

	animTicker *time.Ticker
	ffmTimer   *time.Timer
	ffmTarget  models.WindowID

	moveLimiters map[models.WindowID]*rate.Limiter

	ipcServer     *ipc.Server
	metricsServer *http.Server
	cfgWatcher    *config.Watcher
	hookGuard     platform.Guard
	mouseGuard    platform.Guard
	hotkeyGuard   platform.Guard

	metrics *metricsSet

	statePath string
	clock     func() time.Time
}

// New builds a daemon from a validated config. Nothing touches the OS
// until Run.
func New(logger *logrus.Logger, plat platform.Platform, cfg config.Config, cfgPath, version string) (*Daemon, error) {
	engine, err := rules.Compile(cfg.WindowRules)
	if err != nil {
		return nil, fmt.Errorf("compile window rules: %w", err)
	}
	return &Daemon{
		logger:        logger,
		tracer:        otel.Tracer("scrollwm-daemon"),
		plat:          plat,
		version:       version,
		cfg:           cfg,
		cfgPath:       cfgPath,
		rules:         engine,
		workspaces:    make(map[models.MonitorID]*layout.Workspace),
		monitors:      make(map[models.MonitorID]models.MonitorInfo),
		meta:          make(map[models.WindowID]models.WindowMetadata),
		windowMonitor: make(map[models.WindowID]models.MonitorID),
		ignored:       make(map[models.WindowID]struct{}),
		minimized:     make(map[models.WindowID]struct{}),
		fullscreen:    make(map[models.WindowID]models.Rect),
		mailbox:       make(chan message, 4096),
		gesture:       gestures.NewRecognizer(cfg.Gestures),
		moveLimiters:  make(map[models.WindowID]*rate.Limiter),
		metrics:       newMetricsSet(),
		statePath:     persistence.DefaultPath(),
		clock:         time.Now,
	}, nil
}

// layoutOptions translates the config into layout engine constants.
func (d *Daemon) layoutOptions() layout.Options {
	return layout.Options{
		Gap:                d.cfg.Layout.Gap,
		OuterGap:           d.cfg.Layout.OuterGap,
		DefaultColumnWidth: d.cfg.Layout.DefaultColumnWidth,
		CenteringMode:      layout.CenteringMode(d.cfg.Layout.CenteringMode),
	}
}

// workspace returns the focused monitor's workspace.
func (d *Daemon) workspace() *layout.Workspace {
	return d.workspaces[d.focusedMonitor]
}

// viewport returns the work area of the given monitor.
func (d *Daemon) viewport(id models.MonitorID) models.Rect {
	return d.monitors[id].WorkArea
}

// monitorsByX returns monitor ids ordered left to right by bounds.
func (d *Daemon) monitorsByX() []models.MonitorID {
	ids := make([]models.MonitorID, 0, len(d.monitors))
	for id := range d.monitors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := d.monitors[ids[i]].Bounds, d.monitors[ids[j]].Bounds
		if a.X() != b.X() {
			return a.X() < b.X()
		}
		return ids[i] < ids[j]
	})
	return ids
}

// adjacentMonitor returns the monitor next to the focused one in x order.
func (d *Daemon) adjacentMonitor(direction int) (models.MonitorID, bool) {
	ordered := d.monitorsByX()
	for i, id := range ordered {
		if id == d.focusedMonitor {
			j := i + direction
			if j < 0 || j >= len(ordered) {
				return 0, false
			}
			return ordered[j], true
		}
	}
	return 0, false
}

// owningWorkspace resolves the workspace currently holding id.
func (d *Daemon) owningWorkspace(id models.WindowID) (*layout.Workspace, models.MonitorID, bool) {
	mid, ok := d.windowMonitor[id]
	if !ok {
		return nil, 0, false
	}
	ws, ok := d.workspaces[mid]
	if !ok {
		return nil, 0, false
	}
	return ws, mid, true
}

// Run starts the daemon and blocks until Stop, signal cancellation, or a
// fatal error. The OS is always left uncloaked on the way out, including
// on panics.
func (d *Daemon) Run(ctx context.Context) (err error) {
	ctx, span := d.tracer.Start(ctx, "daemon.Run")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			d.logger.WithField("panic", r).Error("Daemon panicked; uncloaking all windows")
			d.uncloakAll()
			panic(r)
		}
	}()

	if err := d.plat.DeclareDPIAwareness(); err != nil {
		return fmt.Errorf("declare DPI awareness: %w", err)
	}

	d.startedAt = d.clock()
	if err := d.reconcileMonitors(); err != nil {
		return fmt.Errorf("enumerate monitors: %w", err)
	}
	if len(d.monitors) == 0 {
		return fmt.Errorf("no monitors found")
	}

	d.restoreOrAdopt()

	if err := d.installHooks(); err != nil {
		return err
	}
	defer d.releaseGuards()

	d.registerHotkeys()
	defer d.unregisterHotkeys()

	if err := d.startIPC(); err != nil {
		return err
	}
	d.startConfigWatcher()
	d.startMetrics()

	d.applyAll()
	d.logger.WithFields(logrus.Fields{
		"monitors": len(d.monitors),
		"windows":  len(d.windowMonitor),
	}).Info("Daemon started")

	d.loop(ctx)

	d.shutdown()
	return nil
}

// loop is the single-threaded cooperative scheduler. All state mutation
// happens here.
func (d *Daemon) loop(ctx context.Context) {
	for !d.stopping {
		var tickCh <-chan time.Time
		if d.animTicker != nil {
			tickCh = d.animTicker.C
		}
		var ffmCh <-chan time.Time
		if d.ffmTimer != nil {
			ffmCh = d.ffmTimer.C
		}

		select {
		case <-ctx.Done():
			d.stopping = true
		case msg := <-d.mailbox:
			d.dispatch(msg)
		case now := <-tickCh:
			d.tickAnimations(now)
		case <-ffmCh:
			d.fireFocusFollowsMouse()
		}
	}
}

// dispatch routes one mailbox message.
func (d *Daemon) dispatch(msg message) {
	switch m := msg.(type) {
	case cmdMsg:
		resp := d.handleCommand(m.req)
		m.reply <- resp
	case eventMsg:
		d.handleWindowEvent(m.ev)
	case wheelMsg:
		d.handleWheel(m.ev)
	case hotkeyMsg:
		d.handleHotkey(m.id)
	case reloadMsg:
		resp := d.handleCommand(ipc.Request{Cmd: ipc.CmdReload})
		if resp.Error != "" {
			d.logger.WithField("error", resp.Error).Warn("Automatic config reload failed")
		}
	}
}

// post delivers a message into the loop; used by hook callbacks and the
// IPC server through the forwarding registry.
func (d *Daemon) post(msg message) {
	select {
	case d.mailbox <- msg:
	default:
		// A full mailbox means thousands of unprocessed events; dropping
		// the newest is the coalesce-friendly behavior.
		d.logger.Warn("Event mailbox full; dropping message")
	}
}

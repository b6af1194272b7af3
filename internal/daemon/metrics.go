package daemon

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metricsSet holds the daemon's Prometheus instruments on a private
// registry so tests can run daemons side by side.
type metricsSet struct {
	registry        *prometheus.Registry
	eventsTotal     *prometheus.CounterVec
	commandsTotal   *prometheus.CounterVec
	placementsTotal prometheus.Counter
	gesturesTotal   prometheus.Counter
	reloadsTotal    prometheus.Counter
	managedWindows  prometheus.Gauge
	monitorCount    prometheus.Gauge
}

func newMetricsSet() *metricsSet {
	m := &metricsSet{
		registry: prometheus.NewRegistry(),
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scrollwm_window_events_total",
			Help: "Window events ingested by type.",
		}, []string{"type"}),
		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scrollwm_commands_total",
			Help: "Commands handled by name.",
		}, []string{"command"}),
		placementsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scrollwm_placements_applied_total",
			Help: "Window placements applied to the OS.",
		}),
		gesturesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scrollwm_gestures_fired_total",
			Help: "Wheel gestures translated into commands.",
		}),
		reloadsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scrollwm_config_reloads_total",
			Help: "Successful configuration reloads.",
		}),
		managedWindows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scrollwm_managed_windows",
			Help: "Windows currently managed across all workspaces.",
		}),
		monitorCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scrollwm_monitors",
			Help: "Monitors currently tracked.",
		}),
	}
	m.registry.MustRegister(
		m.eventsTotal, m.commandsTotal, m.placementsTotal,
		m.gesturesTotal, m.reloadsTotal, m.managedWindows, m.monitorCount,
	)
	return m
}

// startMetrics exposes the debug endpoint when enabled: /metrics for the
// scrape and /healthz for liveness.
func (d *Daemon) startMetrics() {
	if !d.cfg.Metrics.Enabled {
		return
	}
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(d.metrics.registry, promhttp.HandlerOpts{}))
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	d.metricsServer = &http.Server{
		Addr:         d.cfg.Metrics.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		if err := d.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			d.logger.WithError(err).Warn("Metrics server stopped")
		}
	}()
	d.logger.WithField("addr", d.cfg.Metrics.Addr).Info("Metrics endpoint enabled")
}

func (d *Daemon) stopMetrics() {
	if d.metricsServer != nil {
		_ = d.metricsServer.Close()
		d.metricsServer = nil
	}
}

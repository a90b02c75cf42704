// Package metrics exposes supervisor activity as Prometheus collectors and
// serves them, together with the latest status snapshot, over HTTP.
package metrics

import (
	"strconv"

	"github.com/frontendtony/curfew/internal/notify"
	"github.com/frontendtony/curfew/internal/supervisor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "curfew"

// Recorder implements supervisor.Metrics on its own registry.
type Recorder struct {
	Registry *prometheus.Registry

	spawns        *prometheus.CounterVec
	crashes       prometheus.Counter
	cooldownTicks prometheus.Counter
	warnings      *prometheus.CounterVec
	stops         *prometheus.CounterVec
	notifications *prometheus.CounterVec

	running      prometheus.Gauge
	windowOpen   prometheus.Gauge
	minutesLeft  prometheus.Gauge
	recentStarts prometheus.Gauge
	startedAt    prometheus.Gauge
}

var _ supervisor.Metrics = (*Recorder)(nil)

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Recorder{
		Registry: reg,
		spawns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spawn_attempts_total",
			Help:      "Server start attempts by result.",
		}, []string{"result"}),
		crashes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unexpected_exits_total",
			Help:      "Times the server exited without being asked to.",
		}),
		cooldownTicks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cooldown_ticks_total",
			Help:      "Ticks spent in crash-loop cooldown.",
		}),
		warnings: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "countdown_warnings_total",
			Help:      "Countdown announcements sent to the server console.",
		}, []string{"minutes"}),
		stops: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stops_total",
			Help:      "Server stops by how the stop sequence ended.",
		}, []string{"mode"}),
		notifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Status notifications by delivery result.",
		}, []string{"result"}),
		running: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "server_running",
			Help:      "1 while the supervised server is alive.",
		}),
		windowOpen: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "window_open",
			Help:      "1 while the schedule window is open.",
		}),
		minutesLeft: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "window_minutes_left",
			Help:      "Whole minutes until the window closes, -1 when not applicable.",
		}),
		recentStarts: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "crash_ledger_entries",
			Help:      "Start attempts inside the crash-loop horizon.",
		}),
		startedAt: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "server_start_time_seconds",
			Help:      "Unix time the current run started, 0 when stopped.",
		}),
	}
}

func (r *Recorder) SpawnAttempt(ok bool) {
	if ok {
		r.spawns.WithLabelValues("ok").Inc()
		return
	}
	r.spawns.WithLabelValues("error").Inc()
}

func (r *Recorder) Crash()    { r.crashes.Inc() }
func (r *Recorder) Cooldown() { r.cooldownTicks.Inc() }

func (r *Recorder) Warning(minutes int) {
	r.warnings.WithLabelValues(strconv.Itoa(minutes)).Inc()
}

func (r *Recorder) Stop(mode supervisor.StopMode) {
	r.stops.WithLabelValues(string(mode)).Inc()
}

func (r *Recorder) Notification(err error) {
	switch {
	case err == nil:
		r.notifications.WithLabelValues("ok").Inc()
	case notify.IsSkipped(err):
		r.notifications.WithLabelValues("skipped").Inc()
	default:
		r.notifications.WithLabelValues("error").Inc()
	}
}

func (r *Recorder) Observe(s supervisor.Status) {
	r.running.Set(boolGauge(s.Phase == supervisor.PhaseRunning))
	r.windowOpen.Set(boolGauge(s.WindowOpen))
	r.minutesLeft.Set(float64(s.MinutesLeft))
	r.recentStarts.Set(float64(s.RecentStarts))
	if s.StartedAt.IsZero() {
		r.startedAt.Set(0)
	} else {
		r.startedAt.Set(float64(s.StartedAt.Unix()))
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

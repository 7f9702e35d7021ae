package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/veesix-networks/osvswitch/pkg/southbound"
)

const namespace = "osvswitch"

// Result labels for engine commands.
const (
	ResultOK          = "ok"
	ResultBackend     = "backend_error"
	ResultProtocol    = "protocol_error"
	ResultRefused     = "refused"
	ResultTimeout     = "timeout"
	ResultUnavailable = "unavailable"
	ResultOther       = "error"
)

// Metrics holds the engine client's collectors. A nil *Metrics is valid and
// records nothing, so callers never need to check for it.
type Metrics struct {
	commands       *prometheus.CounterVec
	latency        *prometheus.HistogramVec
	notifications  *prometheus.CounterVec
	sinkPanics     prometheus.Counter
	bridgeDomains  prometheus.Counter
	sessionUp      prometheus.Gauge
	watchdogUp     *prometheus.GaugeVec
	watchdogChecks *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "commands_total",
			Help:      "Engine commands issued, by command and result",
		}, []string{"command", "result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "command_duration_seconds",
			Help:      "Round-trip time of engine commands",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 5},
		}, []string{"command"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "notifications_total",
			Help:      "Unsolicited engine messages delivered to the notification sink",
		}, []string{"message"}),
		sinkPanics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "notification_sink_panics_total",
			Help:      "Panics recovered from the notification sink",
		}),
		bridgeDomains: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bridging",
			Name:      "domains_allocated_total",
			Help:      "Bridge domains allocated from the session counter",
		}),
		sessionUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "session_up",
			Help:      "Whether the engine session is connected (1) or not (0)",
		}),
		watchdogUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "watchdog",
			Name:      "target_up",
			Help:      "Whether the watchdog target is healthy (1) or not (0)",
		}, []string{"target"}),
		watchdogChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watchdog",
			Name:      "checks_total",
			Help:      "Watchdog health checks, by target and outcome",
		}, []string{"target", "outcome"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.commands,
			m.latency,
			m.notifications,
			m.sinkPanics,
			m.bridgeDomains,
			m.sessionUp,
			m.watchdogUp,
			m.watchdogChecks,
		)
	}
	return m
}

func (m *Metrics) ObserveCommand(command string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(command, Result(err)).Inc()
	m.latency.WithLabelValues(command).Observe(elapsed.Seconds())
}

func (m *Metrics) Notification(message string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(message).Inc()
}

func (m *Metrics) SinkPanic() {
	if m == nil {
		return
	}
	m.sinkPanics.Inc()
}

func (m *Metrics) BridgeDomainAllocated() {
	if m == nil {
		return
	}
	m.bridgeDomains.Inc()
}

func (m *Metrics) SetSessionUp(up bool) {
	if m == nil {
		return
	}
	m.sessionUp.Set(boolToFloat(up))
}

func (m *Metrics) ObserveWatchdog(target string, healthy bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !healthy {
		outcome = "failed"
	}
	m.watchdogUp.WithLabelValues(target).Set(boolToFloat(healthy))
	m.watchdogChecks.WithLabelValues(target, outcome).Inc()
}

// Result maps a command error onto its result label.
func Result(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, southbound.ErrTimeout):
		return ResultTimeout
	case errors.Is(err, southbound.ErrDuplicateOrRefused):
		return ResultRefused
	case errors.Is(err, southbound.ErrBackendCommand):
		return ResultBackend
	case errors.Is(err, southbound.ErrProtocol):
		return ResultProtocol
	case errors.Is(err, southbound.ErrUnavailable), errors.Is(err, southbound.ErrNotConnected):
		return ResultUnavailable
	default:
		return ResultOther
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

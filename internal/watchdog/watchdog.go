// Package watchdog checks the engine and other dependencies, tracks their
// state and backs the daemon's readiness endpoint.
package watchdog

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/veesix-networks/osvswitch/pkg/component"
	"github.com/veesix-networks/osvswitch/pkg/events"
	"github.com/veesix-networks/osvswitch/pkg/logger"
	"github.com/veesix-networks/osvswitch/pkg/metrics"
)

type StateProvider interface {
	GetAllStates() []StateInfo
	IsReady() bool
}

type Option func(*Watchdog)

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Watchdog) { w.metrics = m }
}

// WithEventBus publishes a WatchdogStateEvent on every state change.
func WithEventBus(bus events.Bus) Option {
	return func(w *Watchdog) { w.bus = bus }
}

type Watchdog struct {
	*component.Base
	logger  *slog.Logger
	metrics *metrics.Metrics
	bus     events.Bus
	runners map[string]*targetRunner
	mu      sync.RWMutex

	fatal     chan string
	fatalOnce sync.Once
}

func New(opts ...Option) *Watchdog {
	w := &Watchdog{
		Base:    component.NewBase("watchdog"),
		logger:  logger.Get(logger.Watchdog),
		runners: make(map[string]*targetRunner),
		fatal:   make(chan string, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Watchdog) Register(target Target, config RunnerConfig) {
	w.mu.Lock()
	defer w.mu.Unlock()

	name := target.Name()
	if _, exists := w.runners[name]; exists {
		w.logger.Warn("Target already registered, replacing", "target", name)
	}

	r := newTargetRunner(target, config, w.logger)
	r.observer = w.observe
	w.runners[name] = r
	w.logger.Info("Registered target", "target", name, "critical", target.Critical(), "action", r.config.OnFailure)
}

// Fatal yields the name of the first critical target that failed under
// ActionFail.
func (w *Watchdog) Fatal() <-chan string {
	return w.fatal
}

func (w *Watchdog) Start(ctx context.Context) error {
	w.StartContext(ctx)
	w.logger.Info("Starting watchdog")

	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, runner := range w.runners {
		runner.start(w.Ctx)
	}

	return nil
}

func (w *Watchdog) Stop(ctx context.Context) error {
	w.logger.Info("Stopping watchdog")

	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, runner := range w.runners {
		runner.stop()
	}

	w.StopContext()
	return nil
}

func (w *Watchdog) observe(r *targetRunner, result *HealthResult, changed bool) {
	name := r.target.Name()
	w.metrics.ObserveWatchdog(name, result.Healthy)

	if !changed {
		return
	}

	state := r.state.Load()
	if w.bus != nil {
		w.bus.Publish(events.TopicWatchdog, events.Event{
			Source: "watchdog",
			Data: events.WatchdogStateEvent{
				Target:   name,
				State:    state.String(),
				Critical: r.target.Critical(),
				Error:    result.ErrorStr,
			},
		})
	}

	if state == StateFailed {
		w.fatalOnce.Do(func() { w.fatal <- name })
	}
}

func (w *Watchdog) GetState(name string) (StateInfo, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	runner, ok := w.runners[name]
	if !ok {
		return StateInfo{}, false
	}
	return runner.getStateInfo(), true
}

func (w *Watchdog) GetAllStates() []StateInfo {
	w.mu.RLock()
	defer w.mu.RUnlock()

	states := make([]StateInfo, 0, len(w.runners))
	for _, runner := range w.runners {
		states = append(states, runner.getStateInfo())
	}
	sort.Slice(states, func(i, j int) bool { return states[i].Name < states[j].Name })
	return states
}

// IsReady reports whether every critical target is up.
func (w *Watchdog) IsReady() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, runner := range w.runners {
		if runner.target.Critical() && runner.state.Load() != StateUp {
			return false
		}
	}
	return true
}

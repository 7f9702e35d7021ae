package watchdog

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

type FailureAction string

const (
	// ActionWarn keeps probing and logs while the target is down.
	ActionWarn FailureAction = "warn"
	// ActionFail marks a critical target failed and asks the process to
	// exit.
	ActionFail FailureAction = "fail"
)

type RunnerConfig struct {
	CheckInterval    time.Duration
	Timeout          time.Duration
	FailureThreshold int
	OnFailure        FailureAction
}

type targetRunner struct {
	target   Target
	config   RunnerConfig
	logger   *slog.Logger
	observer func(r *targetRunner, result *HealthResult, changed bool)

	state           atomicState
	lastCheck       atomic.Pointer[HealthResult]
	consecFailures  atomic.Int64
	totalFailures   atomic.Int64
	totalRecoveries atomic.Int64
	lastStateChange atomic.Pointer[time.Time]
	upSince         atomic.Pointer[time.Time]

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newTargetRunner(target Target, config RunnerConfig, logger *slog.Logger) *targetRunner {
	if config.FailureThreshold < 1 {
		config.FailureThreshold = 1
	}
	if config.OnFailure == "" {
		config.OnFailure = ActionWarn
	}
	r := &targetRunner{
		target: target,
		config: config,
		logger: logger.With("target", target.Name()),
	}
	r.state.Store(StateInit)
	now := time.Now()
	r.lastStateChange.Store(&now)
	return r
}

func (r *targetRunner) start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(ctx)
	}()
}

func (r *targetRunner) stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

func (r *targetRunner) getStateInfo() StateInfo {
	info := StateInfo{
		Name:            r.target.Name(),
		State:           r.state.Load().String(),
		Critical:        r.target.Critical(),
		ConsecFailures:  r.consecFailures.Load(),
		TotalFailures:   r.totalFailures.Load(),
		TotalRecoveries: r.totalRecoveries.Load(),
	}

	if lc := r.lastCheck.Load(); lc != nil {
		info.LastCheck = lc
	}
	if t := r.lastStateChange.Load(); t != nil {
		info.LastStateChange = *t
	}
	if t := r.upSince.Load(); t != nil {
		info.Uptime = time.Since(*t).Truncate(time.Second).String()
	}

	return info
}

func (r *targetRunner) run(ctx context.Context) {
	ticker := time.NewTicker(r.config.CheckInterval)
	defer ticker.Stop()

	r.doCheck(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if r.state.Load() == StateFailed {
				return
			}
			r.doCheck(ctx)
		}
	}
}

func (r *targetRunner) doCheck(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	result := r.target.Check(checkCtx)
	if ctx.Err() != nil {
		return
	}
	r.lastCheck.Store(result)

	var changed bool
	if result.Healthy {
		changed = r.handleSuccess(ctx)
	} else {
		changed = r.handleFailure(result)
	}

	if r.observer != nil {
		r.observer(r, result, changed)
	}
}

func (r *targetRunner) handleSuccess(ctx context.Context) bool {
	prev := r.state.Load()
	if prev == StateUp {
		r.consecFailures.Store(0)
		return false
	}

	if prev == StateDown {
		r.setState(StateRecovering)
		if err := r.target.Recover(ctx); err != nil {
			r.logger.Error("Recovery failed", "error", err)
			r.setState(StateDown)
			return true
		}
		r.totalRecoveries.Add(1)
	}

	r.setState(StateUp)
	now := time.Now()
	r.upSince.Store(&now)
	r.consecFailures.Store(0)
	r.logger.Info("Target is UP", "previous_state", prev.String())
	r.target.OnUp()
	return true
}

func (r *targetRunner) handleFailure(result *HealthResult) bool {
	failures := r.consecFailures.Add(1)
	r.totalFailures.Add(1)

	if int(failures) < r.config.FailureThreshold {
		r.logger.Warn("Health check failed", "failures", failures, "threshold", r.config.FailureThreshold, "error", result.Error)
		return false
	}

	changed := false
	if s := r.state.Load(); s == StateUp || s == StateInit {
		r.setState(StateDown)
		r.upSince.Store(nil)
		r.logger.Error("Target is DOWN", "failures", failures, "error", result.Error)
		r.target.OnDown()
		changed = true
	}

	if r.config.OnFailure == ActionFail && r.target.Critical() {
		r.setState(StateFailed)
		r.logger.Error("Critical target failed, requesting exit")
		return true
	}

	return changed
}

func (r *targetRunner) setState(s TargetState) {
	r.state.Store(s)
	now := time.Now()
	r.lastStateChange.Store(&now)
}

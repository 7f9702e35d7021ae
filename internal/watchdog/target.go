package watchdog

import (
	"context"
	"sync/atomic"
	"time"
)

// Target is something the watchdog checks periodically.
type Target interface {
	Name() string
	Check(ctx context.Context) *HealthResult
	Critical() bool
	OnDown()
	OnUp()
	// Recover runs when a target that was down passes a check again. The
	// target stays down until Recover succeeds.
	Recover(ctx context.Context) error
}

type HealthResult struct {
	Healthy   bool          `json:"healthy"`
	Error     error         `json:"-"`
	ErrorStr  string        `json:"error,omitempty"`
	Detail    string        `json:"detail,omitempty"`
	Latency   time.Duration `json:"-"`
	LatencyMs float64       `json:"latency-ms"`
	Timestamp time.Time     `json:"timestamp"`
}

func NewHealthResult(healthy bool, err error, latency time.Duration) *HealthResult {
	r := &HealthResult{
		Healthy:   healthy,
		Error:     err,
		Latency:   latency,
		LatencyMs: float64(latency.Microseconds()) / 1000.0,
		Timestamp: time.Now(),
	}
	if err != nil {
		r.ErrorStr = err.Error()
	}
	return r
}

type TargetState int32

const (
	StateInit TargetState = iota
	StateUp
	StateDown
	StateRecovering
	StateFailed
)

func (s TargetState) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateUp:
		return "up"
	case StateDown:
		return "down"
	case StateRecovering:
		return "recovering"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type StateInfo struct {
	Name            string        `json:"name"`
	State           string        `json:"state"`
	Critical        bool          `json:"critical"`
	LastCheck       *HealthResult `json:"last-check,omitempty"`
	ConsecFailures  int64         `json:"consecutive-failures"`
	TotalFailures   int64         `json:"total-failures"`
	TotalRecoveries int64         `json:"total-recoveries"`
	LastStateChange time.Time     `json:"last-state-change"`
	Uptime          string        `json:"uptime,omitempty"`
}

type atomicState struct {
	val atomic.Int32
}

func (s *atomicState) Load() TargetState {
	return TargetState(s.val.Load())
}

func (s *atomicState) Store(state TargetState) {
	s.val.Store(int32(state))
}

// Package targets holds the watchdog checks used by the daemon.
package targets

import (
	"context"
	"time"

	"github.com/veesix-networks/osvswitch/internal/watchdog"
	"github.com/veesix-networks/osvswitch/pkg/southbound"
)

type EngineCallbacks struct {
	OnDown    func()
	OnUp      func()
	OnRecover func(ctx context.Context) error
}

// EngineTarget checks the engine session with a version query.
type EngineTarget struct {
	sb        southbound.System
	callbacks EngineCallbacks
	critical  bool
}

func NewEngineTarget(sb southbound.System, critical bool) *EngineTarget {
	return &EngineTarget{sb: sb, critical: critical}
}

func (t *EngineTarget) SetCallbacks(cb EngineCallbacks) {
	t.callbacks = cb
}

func (t *EngineTarget) Name() string { return "engine" }

func (t *EngineTarget) Check(ctx context.Context) *watchdog.HealthResult {
	start := time.Now()
	version, err := t.sb.GetVersion(ctx)
	result := watchdog.NewHealthResult(err == nil, err, time.Since(start))
	result.Detail = version
	return result
}

func (t *EngineTarget) OnDown() {
	if t.callbacks.OnDown != nil {
		t.callbacks.OnDown()
	}
}

func (t *EngineTarget) OnUp() {
	if t.callbacks.OnUp != nil {
		t.callbacks.OnUp()
	}
}

func (t *EngineTarget) Recover(ctx context.Context) error {
	if t.callbacks.OnRecover != nil {
		return t.callbacks.OnRecover(ctx)
	}
	return nil
}

func (t *EngineTarget) Critical() bool { return t.critical }

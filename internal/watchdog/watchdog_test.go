package watchdog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/veesix-networks/osvswitch/pkg/events"
	"github.com/veesix-networks/osvswitch/pkg/events/local"
	"github.com/veesix-networks/osvswitch/pkg/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeTarget struct {
	name       string
	critical   bool
	healthy    atomic.Bool
	recoverErr atomic.Pointer[error]
	ups        atomic.Int32
	downs      atomic.Int32
	recovers   atomic.Int32
}

func newFakeTarget(name string, critical, healthy bool) *fakeTarget {
	t := &fakeTarget{name: name, critical: critical}
	t.healthy.Store(healthy)
	return t
}

func (t *fakeTarget) Name() string   { return t.name }
func (t *fakeTarget) Critical() bool { return t.critical }
func (t *fakeTarget) OnUp()          { t.ups.Add(1) }
func (t *fakeTarget) OnDown()        { t.downs.Add(1) }

func (t *fakeTarget) Check(ctx context.Context) *HealthResult {
	if t.healthy.Load() {
		return NewHealthResult(true, nil, time.Millisecond)
	}
	return NewHealthResult(false, errors.New("check failed"), time.Millisecond)
}

func (t *fakeTarget) Recover(ctx context.Context) error {
	t.recovers.Add(1)
	if p := t.recoverErr.Load(); p != nil {
		return *p
	}
	return nil
}

func fastConfig(threshold int, action FailureAction) RunnerConfig {
	return RunnerConfig{
		CheckInterval:    5 * time.Millisecond,
		Timeout:          time.Second,
		FailureThreshold: threshold,
		OnFailure:        action,
	}
}

func startWatchdog(t *testing.T, w *Watchdog) {
	t.Helper()
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(func() { w.Stop(context.Background()) })
}

func waitState(t *testing.T, w *Watchdog, name string, want TargetState) {
	t.Helper()
	require.Eventually(t, func() bool {
		info, ok := w.GetState(name)
		return ok && info.State == want.String()
	}, 2*time.Second, 5*time.Millisecond, "target %s never reached %s", name, want)
}

func TestHealthyTargetBecomesReady(t *testing.T) {
	reg := prometheus.NewRegistry()
	w := New(WithMetrics(metrics.New(reg)))
	target := newFakeTarget("engine", true, true)
	w.Register(target, fastConfig(3, ActionWarn))

	assert.False(t, w.IsReady())
	startWatchdog(t, w)

	waitState(t, w, "engine", StateUp)
	assert.True(t, w.IsReady())
	assert.EqualValues(t, 1, target.ups.Load())

	require.Eventually(t, func() bool {
		n, err := testutil.GatherAndCount(reg, "osvswitch_watchdog_checks_total")
		return err == nil && n == 1
	}, time.Second, 5*time.Millisecond)
}

func TestDownAfterThresholdThenRecovers(t *testing.T) {
	w := New()
	target := newFakeTarget("engine", true, true)
	w.Register(target, fastConfig(2, ActionWarn))
	startWatchdog(t, w)
	waitState(t, w, "engine", StateUp)

	target.healthy.Store(false)
	waitState(t, w, "engine", StateDown)
	assert.False(t, w.IsReady())
	assert.EqualValues(t, 1, target.downs.Load())

	info, _ := w.GetState("engine")
	assert.GreaterOrEqual(t, info.ConsecFailures, int64(2))
	require.NotNil(t, info.LastCheck)
	assert.Equal(t, "check failed", info.LastCheck.ErrorStr)

	target.healthy.Store(true)
	waitState(t, w, "engine", StateUp)
	assert.EqualValues(t, 1, target.recovers.Load())

	info, _ = w.GetState("engine")
	assert.EqualValues(t, 1, info.TotalRecoveries)
	assert.Zero(t, info.ConsecFailures)
}

func TestFailedRecoveryStaysDown(t *testing.T) {
	w := New()
	target := newFakeTarget("engine", true, false)
	recoverErr := errors.New("resync failed")
	target.recoverErr.Store(&recoverErr)
	w.Register(target, fastConfig(1, ActionWarn))
	startWatchdog(t, w)
	waitState(t, w, "engine", StateDown)

	target.healthy.Store(true)
	require.Eventually(t, func() bool { return target.recovers.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	assert.False(t, w.IsReady())

	target.recoverErr.Store(nil)
	waitState(t, w, "engine", StateUp)
}

func TestActionFailSignalsFatal(t *testing.T) {
	w := New()
	w.Register(newFakeTarget("engine", true, false), fastConfig(1, ActionFail))
	startWatchdog(t, w)

	select {
	case name := <-w.Fatal():
		assert.Equal(t, "engine", name)
	case <-time.After(2 * time.Second):
		t.Fatal("no fatal signal")
	}
	waitState(t, w, "engine", StateFailed)
}

func TestNonCriticalTargetDoesNotAffectReadiness(t *testing.T) {
	w := New()
	w.Register(newFakeTarget("engine", true, true), fastConfig(1, ActionWarn))
	w.Register(newFakeTarget("api-socket", false, false), fastConfig(1, ActionFail))
	startWatchdog(t, w)

	waitState(t, w, "engine", StateUp)
	waitState(t, w, "api-socket", StateDown)
	assert.True(t, w.IsReady())

	select {
	case <-w.Fatal():
		t.Fatal("non-critical target must not request exit")
	default:
	}

	states := w.GetAllStates()
	require.Len(t, states, 2)
	assert.Equal(t, "api-socket", states[0].Name)
}

func TestStateChangesPublished(t *testing.T) {
	bus := local.NewBus()
	defer bus.Close()

	var mu sync.Mutex
	var got []events.WatchdogStateEvent
	bus.Subscribe(events.TopicWatchdog, func(e events.Event) {
		if ev, ok := events.Payload[events.WatchdogStateEvent](e); ok {
			mu.Lock()
			got = append(got, ev)
			mu.Unlock()
		}
	})

	w := New(WithEventBus(bus))
	w.Register(newFakeTarget("engine", true, true), fastConfig(1, ActionWarn))
	startWatchdog(t, w)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, "engine", got[0].Target)
	assert.Equal(t, "up", got[0].State)
	assert.True(t, got[0].Critical)
	mu.Unlock()
}

type staticProvider struct {
	ready bool
}

func (p staticProvider) GetAllStates() []StateInfo {
	return []StateInfo{{Name: "engine", State: "down", Critical: true}}
}

func (p staticProvider) IsReady() bool { return p.ready }

func TestReadyzHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	ReadyzHandler(staticProvider{ready: false})(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_ready", body.Status)
	require.Len(t, body.Targets, 1)

	rec = httptest.NewRecorder()
	ReadyzHandler(staticProvider{ready: true})(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	HealthzHandler()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

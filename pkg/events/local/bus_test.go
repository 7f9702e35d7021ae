package local

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/veesix-networks/osvswitch/pkg/events"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu  sync.Mutex
	got []events.Event
}

func (r *recorder) handle(e events.Event) {
	r.mu.Lock()
	r.got = append(r.got, e)
	r.mu.Unlock()
}

func (r *recorder) events() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.got...)
}

func (r *recorder) waitFor(t *testing.T, n int) []events.Event {
	t.Helper()
	require.Eventually(t, func() bool { return len(r.events()) >= n }, time.Second, 5*time.Millisecond)
	return r.events()
}

func TestPublishFillsDefaults(t *testing.T) {
	b := NewBus()
	defer b.Close()

	var r recorder
	b.Subscribe(events.TopicInterfaceState, r.handle)

	b.Publish(events.TopicInterfaceState, events.Event{Source: "test", Data: events.InterfaceStateEvent{Handle: 3, LinkUp: true}})

	got := r.waitFor(t, 1)
	assert.NotEmpty(t, got[0].ID)
	assert.False(t, got[0].Timestamp.IsZero())
	assert.Equal(t, events.TopicInterfaceState, got[0].Type)

	ev, ok := events.Payload[events.InterfaceStateEvent](got[0])
	require.True(t, ok)
	assert.EqualValues(t, 3, ev.Handle)
	assert.True(t, ev.LinkUp)
}

func TestDeliveryOrder(t *testing.T) {
	b := NewBus()
	defer b.Close()

	var r recorder
	b.Subscribe(events.TopicInterfaceState, r.handle)

	for i := range 50 {
		b.Publish(events.TopicInterfaceState, events.Event{Data: i})
	}

	got := r.waitFor(t, 50)
	for i, e := range got {
		assert.Equal(t, i, e.Data)
	}
}

func TestTopicIsolationAndGlobal(t *testing.T) {
	b := NewBus()
	defer b.Close()

	var topic, all recorder
	b.Subscribe(events.TopicBridgeDomain, topic.handle)
	b.SubscribeAll(all.handle)

	b.Publish(events.TopicInterfaceState, events.Event{})
	b.Publish(events.TopicBridgeDomain, events.Event{})

	all.waitFor(t, 2)
	got := topic.events()
	require.Len(t, got, 1)
	assert.Equal(t, events.TopicBridgeDomain, got[0].Type)
}

func TestUnsubscribe(t *testing.T) {
	b := NewBus()
	defer b.Close()

	var dropped, kept recorder
	s := b.Subscribe(events.TopicWatchdog, dropped.handle)
	g := b.SubscribeAll(dropped.handle)
	b.Subscribe(events.TopicWatchdog, kept.handle)

	s.Unsubscribe()
	g.Unsubscribe()

	b.Publish(events.TopicWatchdog, events.Event{})
	kept.waitFor(t, 1)
	assert.Empty(t, dropped.events())

	stats := b.Stats()
	assert.Equal(t, 0, stats.Global)
	require.Len(t, stats.Topics, 1)
	assert.Equal(t, 1, stats.Topics[0].Subscribers)
}

func TestHandlerPanicDoesNotStopDelivery(t *testing.T) {
	b := NewBus()
	defer b.Close()

	var r recorder
	b.Subscribe(events.TopicEngineNotification, func(events.Event) { panic("boom") })
	b.Subscribe(events.TopicEngineNotification, r.handle)

	b.Publish(events.TopicEngineNotification, events.Event{})
	b.Publish(events.TopicEngineNotification, events.Event{})

	r.waitFor(t, 2)
	assert.EqualValues(t, 2, b.Stats().HandlerPanic)
}

func TestPublishDropsWhenFull(t *testing.T) {
	b := NewBus(WithCapacity(1))
	defer b.Close()

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	b.Subscribe(events.TopicInterfaceState, func(events.Event) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
	})

	b.Publish(events.TopicInterfaceState, events.Event{})
	<-started
	b.Publish(events.TopicInterfaceState, events.Event{})
	b.Publish(events.TopicInterfaceState, events.Event{})
	close(release)

	stats := b.Stats()
	assert.EqualValues(t, 2, stats.Published)
	assert.EqualValues(t, 1, stats.Dropped)
}

func TestPublishAfterClose(t *testing.T) {
	b := NewBus(WithDebugTopics(events.TopicWatchdog))
	require.NoError(t, b.Close())

	b.Publish(events.TopicWatchdog, events.Event{})
	stats := b.Stats()
	assert.EqualValues(t, 0, stats.Published)
	assert.EqualValues(t, 1, stats.Dropped)
	assert.Equal(t, []string{events.TopicWatchdog}, stats.DebugTopics)
}

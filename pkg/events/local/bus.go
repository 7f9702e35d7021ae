// Package local is an in-process implementation of events.Bus.
package local

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/veesix-networks/osvswitch/pkg/events"
	"github.com/veesix-networks/osvswitch/pkg/logger"
)

const DefaultCapacity = 4096

type publishRequest struct {
	topic string
	event events.Event
}

type subscription struct {
	id      uint64
	handler events.Handler
}

type sub struct {
	bus   *Bus
	topic string
	id    uint64
}

func (s *sub) Unsubscribe() {
	s.bus.removeSub(s.topic, s.id)
}

type Option func(*Bus)

func WithCapacity(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.capacity = n
		}
	}
}

// WithDebugTopics logs every event published on the given topics at info
// level.
func WithDebugTopics(topics ...string) Option {
	return func(b *Bus) {
		for _, t := range topics {
			b.debugTopics[t] = true
		}
	}
}

type Bus struct {
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	subs        map[string]map[uint64]*subscription
	globalSubs  map[uint64]*subscription
	mu          sync.RWMutex
	nextID      atomic.Uint64
	capacity    int
	publishCh   chan publishRequest
	logger      *slog.Logger
	published   atomic.Uint64
	dropped     atomic.Uint64
	panics      atomic.Uint64
	debugTopics map[string]bool
}

func NewBus(opts ...Option) *Bus {
	ctx, cancel := context.WithCancel(context.Background())

	b := &Bus{
		ctx:         ctx,
		cancel:      cancel,
		subs:        make(map[string]map[uint64]*subscription),
		globalSubs:  make(map[uint64]*subscription),
		capacity:    DefaultCapacity,
		logger:      logger.Get(logger.Events),
		debugTopics: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.publishCh = make(chan publishRequest, b.capacity)

	b.wg.Add(1)
	go b.publishLoop()

	return b
}

func (b *Bus) Publish(topic string, event events.Event) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Type == "" {
		event.Type = topic
	}

	if b.ctx.Err() != nil {
		b.dropped.Add(1)
		return
	}

	select {
	case b.publishCh <- publishRequest{topic: topic, event: event}:
		b.published.Add(1)
	default:
		b.dropped.Add(1)
		b.logger.Warn("Publish channel full, dropping event", "topic", topic)
	}
}

func (b *Bus) publishLoop() {
	defer b.wg.Done()

	for {
		select {
		case <-b.ctx.Done():
			return
		case req := <-b.publishCh:
			b.deliver(req)
		}
	}
}

func (b *Bus) deliver(req publishRequest) {
	b.mu.RLock()
	topicSubs := b.subs[req.topic]
	ordered := make([]*subscription, 0, len(topicSubs)+len(b.globalSubs))
	for _, s := range topicSubs {
		ordered = append(ordered, s)
	}
	for _, s := range b.globalSubs {
		ordered = append(ordered, s)
	}
	debug := b.debugTopics[req.topic]
	b.mu.RUnlock()

	if debug {
		b.logger.Info("Event", "topic", req.topic, "source", req.event.Source, "data", req.event.Data)
	}

	slices.SortFunc(ordered, func(x, y *subscription) int {
		switch {
		case x.id < y.id:
			return -1
		case x.id > y.id:
			return 1
		}
		return 0
	})

	for _, s := range ordered {
		b.invoke(req.topic, s.handler, req.event)
	}
}

func (b *Bus) invoke(topic string, h events.Handler, ev events.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.panics.Add(1)
			b.logger.Error("Event handler panicked", "topic", topic, "panic", r)
		}
	}()
	h(ev)
}

func (b *Bus) Subscribe(topic string, handler events.Handler) events.Subscription {
	id := b.nextID.Add(1)

	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[uint64]*subscription)
	}
	b.subs[topic][id] = &subscription{id: id, handler: handler}
	handlerCount := len(b.subs[topic])
	b.mu.Unlock()

	b.logger.Debug("Subscribed to topic", "topic", topic, "handler_count", handlerCount)

	return &sub{bus: b, topic: topic, id: id}
}

func (b *Bus) SubscribeAll(handler events.Handler) events.Subscription {
	id := b.nextID.Add(1)

	b.mu.Lock()
	b.globalSubs[id] = &subscription{id: id, handler: handler}
	count := len(b.globalSubs)
	b.mu.Unlock()

	b.logger.Debug("Subscribed to all topics", "global_subscriber_count", count)

	return &sub{bus: b, id: id}
}

func (b *Bus) removeSub(topic string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.globalSubs[id]; ok {
		delete(b.globalSubs, id)
		return
	}
	if topicSubs, ok := b.subs[topic]; ok {
		delete(topicSubs, id)
		if len(topicSubs) == 0 {
			delete(b.subs, topic)
		}
	}
}

func (b *Bus) Stats() events.Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	topics := make([]events.TopicStats, 0, len(b.subs))
	for topic, subs := range b.subs {
		topics = append(topics, events.TopicStats{
			Topic:       topic,
			Subscribers: len(subs),
		})
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].Topic < topics[j].Topic })

	var debugTopics []string
	for t := range b.debugTopics {
		debugTopics = append(debugTopics, t)
	}
	sort.Strings(debugTopics)

	return events.Stats{
		Topics:       topics,
		Global:       len(b.globalSubs),
		PublishChLen: len(b.publishCh),
		PublishChCap: cap(b.publishCh),
		Published:    b.published.Load(),
		Dropped:      b.dropped.Load(),
		HandlerPanic: b.panics.Load(),
		DebugTopics:  debugTopics,
	}
}

// Close stops delivery and waits for the handler in flight, if any. Events
// still queued are discarded.
func (b *Bus) Close() error {
	b.cancel()
	b.wg.Wait()
	return nil
}

var _ events.Bus = (*Bus)(nil)

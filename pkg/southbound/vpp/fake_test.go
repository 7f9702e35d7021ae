package vpp

import (
	"context"
	"fmt"
	"sync"

	"go.fd.io/govpp/api"

	"github.com/veesix-networks/osvswitch/pkg/southbound"
)

type replyFunc func(ctx context.Context, req api.Message) (api.Message, error)

// fakeTransport answers requests from per-message handlers and records
// everything it was asked to do.
type fakeTransport struct {
	mu       sync.Mutex
	handlers map[string]replyFunc
	dumps    map[string][]api.Message
	requests []api.Message
	sent     []api.Message
	sendErr  error
	events   chan api.Message
	closed   bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		handlers: make(map[string]replyFunc),
		dumps:    make(map[string][]api.Message),
		events:   make(chan api.Message, 16),
	}
}

func (f *fakeTransport) on(req api.Message, fn replyFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[req.GetMessageName()] = fn
}

// reply always answers req with msg.
func (f *fakeTransport) reply(req api.Message, msg api.Message) {
	f.on(req, func(context.Context, api.Message) (api.Message, error) { return msg, nil })
}

func (f *fakeTransport) dumpReply(req api.Message, records ...api.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dumps[req.GetMessageName()] = records
}

func (f *fakeTransport) Request(ctx context.Context, req api.Message) (api.Message, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	fn := f.handlers[req.GetMessageName()]
	f.mu.Unlock()

	if fn == nil {
		return nil, fmt.Errorf("%w: no handler for %s", southbound.ErrUnavailable, req.GetMessageName())
	}
	return fn(ctx, req)
}

func (f *fakeTransport) Send(ctx context.Context, req api.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, req)
	return nil
}

func (f *fakeTransport) Dump(ctx context.Context, req api.Message) ([]api.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	records, ok := f.dumps[req.GetMessageName()]
	if !ok {
		return nil, fmt.Errorf("%w: no dump for %s", southbound.ErrUnavailable, req.GetMessageName())
	}
	return records, nil
}

func (f *fakeTransport) Notifications() <-chan api.Message {
	return f.events
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.events)
	}
	return nil
}

func (f *fakeTransport) requestsNamed(name string) []api.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []api.Message
	for _, r := range f.requests {
		if r.GetMessageName() == name {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeTransport) sentMessages() []api.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.Message(nil), f.sent...)
}

func (f *fakeTransport) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

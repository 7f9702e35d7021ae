package vpp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.fd.io/govpp/adapter/socketclient"
	"go.fd.io/govpp/api"
	"go.fd.io/govpp/binapi/memclnt"
	"go.fd.io/govpp/core"

	"github.com/veesix-networks/osvswitch/pkg/logger"
	"github.com/veesix-networks/osvswitch/pkg/southbound"
)

// Transport carries control messages to and from the engine. Request and
// Dump only ever return messages correlated with the request they sent;
// anything unsolicited goes to Notifications.
type Transport interface {
	// Request sends req and returns its reply. A reply that lands after ctx
	// is done is discarded.
	Request(ctx context.Context, req api.Message) (api.Message, error)
	// Send delivers req without waiting for its reply.
	Send(ctx context.Context, req api.Message) error
	// Dump sends a dump request and returns every record up to the
	// terminating control ping reply.
	Dump(ctx context.Context, req api.Message) ([]api.Message, error)
	Notifications() <-chan api.Message
	Close() error
}

type DialConfig struct {
	Socket    string
	ClientTag string
	Attempts  int
	Interval  time.Duration
	// Events lists the unsolicited message types forwarded to
	// Notifications.
	Events []api.Message
}

const (
	DefaultSocket      = "/run/vpp/api.sock"
	notificationBuffer = 256
	sendDrainTimeout   = time.Second
)

type govppTransport struct {
	conn   *core.Connection
	ch     api.Channel
	subs   []api.SubscriptionCtx
	events chan api.Message
	logger *slog.Logger

	closeOnce sync.Once
}

// Dial connects to the engine API socket, registering as cfg.ClientTag. It
// retries up to cfg.Attempts times and never retries once connected.
func Dial(ctx context.Context, cfg DialConfig) (Transport, error) {
	if cfg.ClientTag == "" {
		return nil, &southbound.ConnectionError{
			Target: cfg.Socket,
			Err:    fmt.Errorf("%w: client tag is required", southbound.ErrInvalidArgument),
		}
	}
	if cfg.Socket == "" {
		cfg.Socket = DefaultSocket
	}
	attempts := max(cfg.Attempts, 1)

	log := logger.Get(logger.Engine)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		client := socketclient.NewVppClient(cfg.Socket)
		client.SetClientName(cfg.ClientTag)

		conn, err := core.Connect(client)
		if err == nil {
			t, err := newGoVPPTransport(conn, cfg.Events)
			if err != nil {
				conn.Disconnect()
				return nil, &southbound.ConnectionError{Target: cfg.Socket, ClientTag: cfg.ClientTag, Err: err}
			}
			log.Info("Connected to engine", "socket", cfg.Socket, "client_tag", cfg.ClientTag, "attempt", attempt)
			return t, nil
		}

		lastErr = err
		log.Warn("Engine connection attempt failed", "socket", cfg.Socket, "attempt", attempt, "of", attempts, "error", err)

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, &southbound.ConnectionError{Target: cfg.Socket, ClientTag: cfg.ClientTag, Err: ctx.Err()}
		case <-time.After(cfg.Interval):
		}
	}

	return nil, &southbound.ConnectionError{Target: cfg.Socket, ClientTag: cfg.ClientTag, Err: lastErr}
}

func newGoVPPTransport(conn *core.Connection, events []api.Message) (*govppTransport, error) {
	ch, err := conn.NewAPIChannel()
	if err != nil {
		return nil, fmt.Errorf("create notification channel: %w", err)
	}

	t := &govppTransport{
		conn:   conn,
		ch:     ch,
		events: make(chan api.Message, notificationBuffer),
		logger: logger.Get(logger.Engine),
	}

	for _, ev := range events {
		sub, err := ch.SubscribeNotification(t.events, ev)
		if err != nil {
			t.unsubscribe()
			ch.Close()
			return nil, fmt.Errorf("subscribe %s: %w", ev.GetMessageName(), err)
		}
		t.subs = append(t.subs, sub)
	}

	return t, nil
}

func (t *govppTransport) newStream(ctx context.Context) (api.Stream, error) {
	opts := []api.StreamOption{
		core.WithRequestSize(1),
		core.WithReplySize(16),
	}
	if deadline, ok := ctx.Deadline(); ok {
		opts = append(opts, core.WithReplyTimeout(time.Until(deadline)))
	}

	stream, err := t.conn.NewStream(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: open stream: %v", southbound.ErrUnavailable, err)
	}
	return stream, nil
}

func (t *govppTransport) Request(ctx context.Context, req api.Message) (api.Message, error) {
	stream, err := t.newStream(ctx)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.SendMsg(req); err != nil {
		return nil, fmt.Errorf("%w: send %s: %v", southbound.ErrUnavailable, req.GetMessageName(), err)
	}

	for {
		msg, err := stream.RecvMsg()
		if err != nil {
			return nil, recvError(ctx, err)
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: late %s dropped", err, msg.GetMessageName())
		}
		if t.forward(msg) {
			continue
		}
		return msg, nil
	}
}

func (t *govppTransport) Send(ctx context.Context, req api.Message) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendDrainTimeout)

	stream, err := t.newStream(ctx)
	if err != nil {
		cancel()
		return err
	}

	if err := stream.SendMsg(req); err != nil {
		stream.Close()
		cancel()
		return fmt.Errorf("%w: send %s: %v", southbound.ErrUnavailable, req.GetMessageName(), err)
	}

	// The reply is drained so the stream can be released; its content is
	// only logged.
	go func() {
		defer cancel()
		defer stream.Close()
		msg, err := stream.RecvMsg()
		if err != nil {
			t.logger.Debug("No reply drained for unacknowledged command", "msg", req.GetMessageName(), "error", err)
			return
		}
		t.logger.Debug("Drained reply for unacknowledged command", "msg", req.GetMessageName(), "reply", msg.GetMessageName())
	}()

	return nil
}

func (t *govppTransport) Dump(ctx context.Context, req api.Message) ([]api.Message, error) {
	stream, err := t.newStream(ctx)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.SendMsg(req); err != nil {
		return nil, fmt.Errorf("%w: send %s: %v", southbound.ErrUnavailable, req.GetMessageName(), err)
	}
	if err := stream.SendMsg(&memclnt.ControlPing{}); err != nil {
		return nil, fmt.Errorf("%w: send control_ping: %v", southbound.ErrUnavailable, err)
	}

	var records []api.Message
	for {
		msg, err := stream.RecvMsg()
		if err != nil {
			return nil, recvError(ctx, err)
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: late %s dropped", err, msg.GetMessageName())
		}
		if _, ok := msg.(*memclnt.ControlPingReply); ok {
			return records, nil
		}
		if t.forward(msg) {
			continue
		}
		records = append(records, msg)
	}
}

// forward hands event messages that arrived on a command stream to the
// notification path.
func (t *govppTransport) forward(msg api.Message) bool {
	if msg.GetMessageType() != api.EventMessage {
		return false
	}
	select {
	case t.events <- msg:
	default:
		t.logger.Warn("Notification buffer full, dropping event", "msg", msg.GetMessageName())
	}
	return true
}

func (t *govppTransport) Notifications() <-chan api.Message {
	return t.events
}

func (t *govppTransport) unsubscribe() {
	for _, sub := range t.subs {
		if err := sub.Unsubscribe(); err != nil {
			t.logger.Debug("Failed to unsubscribe", "error", err)
		}
	}
	t.subs = nil
}

func (t *govppTransport) Close() error {
	t.closeOnce.Do(func() {
		t.unsubscribe()
		t.ch.Close()
		t.conn.Disconnect()
		close(t.events)
	})
	return nil
}

// recvError maps a stream receive failure, reporting a reply timeout as a
// deadline expiry so callers can classify it.
func recvError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %v", ctxErr, err)
	}
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < 10*time.Millisecond {
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	var apiErr api.VPPApiError
	if errors.As(err, &apiErr) {
		return err
	}
	return fmt.Errorf("%w: receive: %v", southbound.ErrUnavailable, err)
}

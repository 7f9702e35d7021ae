package vpp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.fd.io/govpp/api"
	interfaces "go.fd.io/govpp/binapi/interface"

	"github.com/veesix-networks/osvswitch/pkg/logger"
	"github.com/veesix-networks/osvswitch/pkg/metrics"
	"github.com/veesix-networks/osvswitch/pkg/southbound"
)

var _ southbound.Southbound = (*Session)(nil)

const DefaultCommandTimeout = 5 * time.Second

// SocketHandoff makes a server-mode vhost-user socket usable by its peer.
type SocketHandoff interface {
	Handoff(ctx context.Context, path string) error
}

// HostLinker brings up the host side of a newly created tap.
type HostLinker interface {
	SetUp(name string) error
}

// Session is one connection to the engine. Commands are serialized: at most
// one is outstanding at any time.
type Session struct {
	transport Transport
	logger    *slog.Logger
	notifyLog *slog.Logger
	metrics   *metrics.Metrics

	timeout         time.Duration
	strictAcks      bool
	interfaceEvents bool
	handoff         SocketHandoff
	hostLink        HostLinker
	tapNetns        string
	tapMTU          uint32

	// cmd is a one-slot semaphore so waiting for the session respects the
	// caller's context.
	cmd       chan struct{}
	connected atomic.Bool

	sinkMu sync.RWMutex
	sink   NotificationHandler

	bdMu   sync.Mutex
	nextBD uint32

	notifyDone chan struct{}
}

type Option func(*Session)

func WithCommandTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithStrictAcks makes DeleteTap and SetLinkUp wait for and validate their
// replies instead of sending them unacknowledged.
func WithStrictAcks(strict bool) Option {
	return func(s *Session) { s.strictAcks = strict }
}

// WithInterfaceEvents subscribes the session to interface state events on
// connect.
func WithInterfaceEvents(enabled bool) Option {
	return func(s *Session) { s.interfaceEvents = enabled }
}

func WithBridgeDomainSeed(seed uint32) Option {
	return func(s *Session) { s.nextBD = seed }
}

func WithSocketHandoff(h SocketHandoff) Option {
	return func(s *Session) { s.handoff = h }
}

func WithHostLink(h HostLinker) Option {
	return func(s *Session) { s.hostLink = h }
}

// WithTapHost places the host side of new taps in netns and sets its MTU.
// Empty and zero values leave the engine defaults.
func WithTapHost(netns string, mtu uint32) Option {
	return func(s *Session) {
		s.tapNetns = netns
		s.tapMTU = mtu
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithNotificationSink installs the sink before the session issues any
// command, so no early event is lost.
func WithNotificationSink(h NotificationHandler) Option {
	return func(s *Session) {
		if h != nil {
			s.sink = h
		}
	}
}

// Connect dials the engine and returns a ready session.
func Connect(ctx context.Context, dial DialConfig, opts ...Option) (*Session, error) {
	if len(dial.Events) == 0 {
		dial.Events = []api.Message{&interfaces.SwInterfaceEvent{}}
	}
	t, err := Dial(ctx, dial)
	if err != nil {
		return nil, err
	}
	s, err := NewSession(ctx, t, opts...)
	if err != nil {
		return nil, &southbound.ConnectionError{Target: dial.Socket, ClientTag: dial.ClientTag, Err: err}
	}
	return s, nil
}

func NewSession(ctx context.Context, transport Transport, opts ...Option) (*Session, error) {
	if transport == nil {
		return nil, fmt.Errorf("transport is required")
	}

	s := &Session{
		transport:  transport,
		logger:     logger.Get(logger.Engine),
		notifyLog:  logger.Get(logger.Notify),
		timeout:    DefaultCommandTimeout,
		cmd:        make(chan struct{}, 1),
		sink:       DiscardNotifications,
		nextBD:     DefaultBridgeDomainSeed,
		notifyDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.connected.Store(true)
	go s.notifyLoop(transport.Notifications())

	if s.interfaceEvents {
		if err := s.wantInterfaceEvents(ctx, true); err != nil {
			s.connected.Store(false)
			transport.Close()
			<-s.notifyDone
			return nil, fmt.Errorf("enable interface events: %w", err)
		}
	}

	s.metrics.SetSessionUp(true)
	s.logger.Debug("Engine session ready",
		"command_timeout", s.timeout,
		"strict_acks", s.strictAcks,
		"interface_events", s.interfaceEvents,
		"bridge_domain_seed", s.nextBD)

	return s, nil
}

// Disconnect releases the session. It waits for an in-flight command to
// finish. A second call returns ErrNotConnected.
func (s *Session) Disconnect() error {
	if !s.connected.CompareAndSwap(true, false) {
		return southbound.ErrNotConnected
	}

	s.cmd <- struct{}{}
	err := s.transport.Close()
	<-s.cmd

	<-s.notifyDone
	s.metrics.SetSessionUp(false)
	s.logger.Info("Engine session closed")

	if err != nil {
		return fmt.Errorf("close transport: %w", err)
	}
	return nil
}

func (s *Session) Connected() bool {
	return s.connected.Load()
}

func (s *Session) wantInterfaceEvents(ctx context.Context, enable bool) error {
	var flag uint32
	if enable {
		flag = 1
	}
	_, err := request[*interfaces.WantInterfaceEventsReply](ctx, s, &interfaces.WantInterfaceEvents{
		EnableDisable: flag,
		PID:           uint32(os.Getpid()),
	})
	return err
}

// commandContext bounds ctx by the session's command timeout unless the
// caller already set an earlier deadline.
func (s *Session) commandContext(ctx context.Context) (context.Context, context.CancelFunc, time.Duration) {
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining <= s.timeout {
			ctx, cancel := context.WithCancel(ctx)
			return ctx, cancel, remaining
		}
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	return ctx, cancel, s.timeout
}

// acquire takes the command slot.
func (s *Session) acquire(ctx context.Context) error {
	select {
	case s.cmd <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	if !s.connected.Load() {
		<-s.cmd
		return southbound.ErrNotConnected
	}
	return nil
}

func (s *Session) release() {
	<-s.cmd
}

// exchange runs fn under the command slot and the command deadline.
func (s *Session) exchange(ctx context.Context, command string, fn func(ctx context.Context) error) error {
	if !s.connected.Load() {
		return southbound.ErrNotConnected
	}

	ctx, cancel, timeout := s.commandContext(ctx)
	defer cancel()

	if err := s.acquire(ctx); err != nil {
		return s.classify(ctx, command, timeout, err)
	}
	defer s.release()

	return s.classify(ctx, command, timeout, fn(ctx))
}

func (s *Session) classify(ctx context.Context, command string, timeout time.Duration, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &southbound.TimeoutError{Command: command, Timeout: timeout, Err: err}
	}
	var apiErr api.VPPApiError
	if errors.As(err, &apiErr) {
		return &southbound.CommandError{Command: command, Retval: int32(apiErr), Reason: apiErr.Error()}
	}
	return err
}

// request sends req, waits for its reply and validates it as R.
func request[R api.Message](ctx context.Context, s *Session, req api.Message) (R, error) {
	var zero R
	command := req.GetMessageName()
	start := time.Now()

	var msg api.Message
	err := s.exchange(ctx, command, func(ctx context.Context) error {
		var err error
		msg, err = s.transport.Request(ctx, req)
		return err
	})
	if err == nil {
		_, err = Validate(command, msg)
	}

	var reply R
	if err == nil {
		var ok bool
		if reply, ok = msg.(R); !ok {
			err = &southbound.ProtocolError{
				Command: command,
				Got:     msg.GetMessageName(),
				Reason:  fmt.Sprintf("expected %s", zero.GetMessageName()),
			}
		}
	}

	s.metrics.ObserveCommand(command, time.Since(start), err)
	if err != nil {
		s.logger.Debug("Engine command failed", "command", command, "error", err)
		return zero, err
	}
	return reply, nil
}

// dump runs a dump request and returns the raw records.
func (s *Session) dump(ctx context.Context, req api.Message) ([]api.Message, error) {
	command := req.GetMessageName()
	start := time.Now()

	var records []api.Message
	err := s.exchange(ctx, command, func(ctx context.Context) error {
		var err error
		records, err = s.transport.Dump(ctx, req)
		return err
	})

	s.metrics.ObserveCommand(command, time.Since(start), err)
	return records, err
}

// send delivers req without waiting for a reply. Only send-path failures are
// reported.
func (s *Session) send(ctx context.Context, req api.Message) error {
	command := req.GetMessageName()
	start := time.Now()

	err := s.exchange(ctx, command, func(ctx context.Context) error {
		return s.transport.Send(ctx, req)
	})

	s.metrics.ObserveCommand(command, time.Since(start), err)
	return err
}

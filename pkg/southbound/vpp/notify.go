package vpp

import "go.fd.io/govpp/api"

// NotificationHandler receives unsolicited engine messages. It runs on the
// session's notification goroutine and must not block.
type NotificationHandler func(msg api.Message)

func DiscardNotifications(api.Message) {}

// ComposeSinks fans a notification out to every handler in order. A panic in
// one handler does not stop the others; the first one is re-raised once all
// handlers have run.
func ComposeSinks(handlers ...NotificationHandler) NotificationHandler {
	var live []NotificationHandler
	for _, h := range handlers {
		if h != nil {
			live = append(live, h)
		}
	}
	if len(live) == 0 {
		return DiscardNotifications
	}
	return func(msg api.Message) {
		var first any
		for _, h := range live {
			if r := callSafely(h, msg); r != nil && first == nil {
				first = r
			}
		}
		if first != nil {
			panic(first)
		}
	}
}

// SetNotificationSink replaces the session's sink. A nil handler restores the
// discarding default.
func (s *Session) SetNotificationSink(h NotificationHandler) {
	if h == nil {
		h = DiscardNotifications
	}
	s.sinkMu.Lock()
	s.sink = h
	s.sinkMu.Unlock()
}

func (s *Session) notifyLoop(ch <-chan api.Message) {
	defer close(s.notifyDone)
	if ch == nil {
		return
	}
	for msg := range ch {
		s.dispatch(msg)
	}
}

func (s *Session) dispatch(msg api.Message) {
	name := msg.GetMessageName()
	s.metrics.Notification(name)
	s.notifyLog.Debug("Notification received", "msg", name)

	s.sinkMu.RLock()
	sink := s.sink
	s.sinkMu.RUnlock()

	if r := callSafely(sink, msg); r != nil {
		s.metrics.SinkPanic()
		s.notifyLog.Error("Notification sink panicked", "msg", name, "panic", r)
	}
}

func callSafely(h NotificationHandler, msg api.Message) (recovered any) {
	defer func() {
		recovered = recover()
	}()
	h(msg)
	return nil
}

package events

import "github.com/veesix-networks/osvswitch/pkg/southbound"

// InterfaceStateEvent is published for every interface event the engine
// reports.
type InterfaceStateEvent struct {
	Handle  southbound.Handle
	AdminUp bool
	LinkUp  bool
	Deleted bool
}

// EngineNotificationEvent carries an unsolicited engine message that has no
// more specific event type.
type EngineNotificationEvent struct {
	Message string
	Payload any
}

type BridgeDomainEvent struct {
	ID      uint32
	Name    string
	Members []southbound.Handle
}

type WatchdogStateEvent struct {
	Target   string
	State    string
	Critical bool
	Error    string
}

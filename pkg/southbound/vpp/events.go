package vpp

import (
	"go.fd.io/govpp/api"
	interfaces "go.fd.io/govpp/binapi/interface"
	"go.fd.io/govpp/binapi/interface_types"

	"github.com/veesix-networks/osvswitch/pkg/events"
	"github.com/veesix-networks/osvswitch/pkg/southbound"
)

const eventSource = "engine"

// EventPublisher returns a notification handler that republishes engine
// notifications on bus. Interface events become InterfaceStateEvents and
// everything else is passed through as an EngineNotificationEvent.
func EventPublisher(bus events.Bus) NotificationHandler {
	return func(msg api.Message) {
		switch m := msg.(type) {
		case *interfaces.SwInterfaceEvent:
			bus.Publish(events.TopicInterfaceState, events.Event{
				Source: eventSource,
				Data:   InterfaceState(m),
			})
		default:
			bus.Publish(events.TopicEngineNotification, events.Event{
				Source: eventSource,
				Data: events.EngineNotificationEvent{
					Message: msg.GetMessageName(),
					Payload: msg,
				},
			})
		}
	}
}

func InterfaceState(m *interfaces.SwInterfaceEvent) events.InterfaceStateEvent {
	return events.InterfaceStateEvent{
		Handle:  southbound.Handle(m.SwIfIndex),
		AdminUp: m.Flags&interface_types.IF_STATUS_API_FLAG_ADMIN_UP != 0,
		LinkUp:  m.Flags&interface_types.IF_STATUS_API_FLAG_LINK_UP != 0,
		Deleted: m.Deleted,
	}
}

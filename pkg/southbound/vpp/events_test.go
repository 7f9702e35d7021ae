package vpp

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	interfaces "go.fd.io/govpp/binapi/interface"
	"go.fd.io/govpp/binapi/interface_types"
	"go.fd.io/govpp/binapi/vpe"

	"github.com/veesix-networks/osvswitch/pkg/events"
	"github.com/veesix-networks/osvswitch/pkg/events/local"
)

func TestEventPublisher(t *testing.T) {
	bus := local.NewBus()
	defer bus.Close()

	var mu sync.Mutex
	var got []events.Event
	bus.SubscribeAll(func(e events.Event) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	})

	publish := EventPublisher(bus)
	publish(&interfaces.SwInterfaceEvent{
		SwIfIndex: 7,
		Flags:     interface_types.IF_STATUS_API_FLAG_ADMIN_UP | interface_types.IF_STATUS_API_FLAG_LINK_UP,
	})
	publish(&interfaces.SwInterfaceEvent{SwIfIndex: 8, Deleted: true})
	publish(&vpe.ShowVersionReply{})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 3
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	assert.Equal(t, events.TopicInterfaceState, got[0].Type)
	st, ok := events.Payload[events.InterfaceStateEvent](got[0])
	require.True(t, ok)
	assert.EqualValues(t, 7, st.Handle)
	assert.True(t, st.AdminUp)
	assert.True(t, st.LinkUp)
	assert.False(t, st.Deleted)

	st, _ = events.Payload[events.InterfaceStateEvent](got[1])
	assert.True(t, st.Deleted)
	assert.False(t, st.LinkUp)

	assert.Equal(t, events.TopicEngineNotification, got[2].Type)
	n, ok := events.Payload[events.EngineNotificationEvent](got[2])
	require.True(t, ok)
	assert.Equal(t, "show_version_reply", n.Message)
}

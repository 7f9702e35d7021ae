package ifmgr

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veesix-networks/osvswitch/pkg/events"
	"github.com/veesix-networks/osvswitch/pkg/southbound"
)

type dumpSource struct {
	southbound.Interfaces
	ifaces []southbound.InterfaceDetails
	err    error
}

func (d *dumpSource) ListInterfaces(ctx context.Context) iter.Seq2[southbound.InterfaceDetails, error] {
	return func(yield func(southbound.InterfaceDetails, error) bool) {
		for _, i := range d.ifaces {
			if !yield(i, nil) {
				return
			}
		}
		if d.err != nil {
			yield(southbound.InterfaceDetails{}, d.err)
		}
	}
}

func TestSync(t *testing.T) {
	m := New()
	src := &dumpSource{ifaces: []southbound.InterfaceDetails{
		{Handle: 2, Name: "tap0"},
		{Handle: 0, Name: "local0"},
		{Handle: 1, Name: "host-eth1"},
	}}

	require.NoError(t, m.Sync(context.Background(), src))
	assert.Equal(t, 3, m.Len())

	list := m.List()
	require.Len(t, list, 3)
	assert.Equal(t, "local0", list[0].Name)
	assert.Equal(t, "tap0", list[2].Name)

	iface, ok := m.GetByName("eth1")
	require.True(t, ok)
	assert.EqualValues(t, 1, iface.Handle)
}

func TestSyncFailureKeepsTable(t *testing.T) {
	m := New()
	m.Add(southbound.InterfaceDetails{Handle: 7, Name: "tap7"})

	src := &dumpSource{
		ifaces: []southbound.InterfaceDetails{{Handle: 1, Name: "tap1"}},
		err:    southbound.ErrUnavailable,
	}
	err := m.Sync(context.Background(), src)
	assert.True(t, errors.Is(err, southbound.ErrUnavailable))

	_, ok := m.Get(7)
	assert.True(t, ok)
	_, ok = m.Get(1)
	assert.False(t, ok)
}

func TestAddRename(t *testing.T) {
	m := New()
	m.Add(southbound.InterfaceDetails{Handle: 4, Name: "old"})
	m.Add(southbound.InterfaceDetails{Handle: 4, Name: "new"})

	_, ok := m.GetByName("old")
	assert.False(t, ok)
	iface, ok := m.GetByName("new")
	require.True(t, ok)
	assert.EqualValues(t, 4, iface.Handle)
	assert.Equal(t, 1, m.Len())
}

func TestApplyState(t *testing.T) {
	m := New()
	m.Add(southbound.InterfaceDetails{Handle: 3, Name: "tap3"})

	assert.True(t, m.ApplyState(events.InterfaceStateEvent{Handle: 3, AdminUp: true, LinkUp: true}))
	iface, _ := m.Get(3)
	assert.True(t, iface.AdminUp)
	assert.True(t, iface.LinkUp)

	assert.False(t, m.ApplyState(events.InterfaceStateEvent{Handle: 9, AdminUp: true}))

	assert.True(t, m.ApplyState(events.InterfaceStateEvent{Handle: 3, Deleted: true}))
	_, ok := m.GetByName("tap3")
	assert.False(t, ok)
	assert.Zero(t, m.Len())
}

func TestHandleEvent(t *testing.T) {
	m := New()
	m.Add(southbound.InterfaceDetails{Handle: 5, Name: "vhost5"})

	m.HandleEvent(events.Event{Data: &events.InterfaceStateEvent{Handle: 5, LinkUp: true}})
	iface, _ := m.Get(5)
	assert.True(t, iface.LinkUp)

	m.HandleEvent(events.Event{Data: "not a state event"})
	iface, _ = m.Get(5)
	assert.True(t, iface.LinkUp)
}

func TestGetReturnsCopy(t *testing.T) {
	m := New()
	m.Add(southbound.InterfaceDetails{Handle: 1, Name: "tap1"})

	iface, _ := m.Get(1)
	iface.Name = "changed"

	again, _ := m.Get(1)
	assert.Equal(t, "tap1", again.Name)
}

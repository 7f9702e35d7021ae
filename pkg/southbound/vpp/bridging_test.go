package vpp

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.fd.io/govpp/api"
	interfaces "go.fd.io/govpp/binapi/interface"
	"go.fd.io/govpp/binapi/interface_types"
	"go.fd.io/govpp/binapi/l2"

	"github.com/veesix-networks/osvswitch/pkg/metrics"
	"github.com/veesix-networks/osvswitch/pkg/southbound"
)

func TestAllocateBridgeDomainSequence(t *testing.T) {
	f := newFakeTransport()
	f.reply(&l2.BridgeDomainAddDel{}, &l2.BridgeDomainAddDelReply{})
	reg := prometheus.NewRegistry()
	s := newTestSession(t, f, WithMetrics(metrics.New(reg)))

	first, err := s.AllocateBridgeDomain(context.Background())
	require.NoError(t, err)
	second, err := s.AllocateBridgeDomain(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint32(5678), first)
	assert.Equal(t, uint32(5679), second)

	reqs := f.requestsNamed("bridge_domain_add_del")
	require.Len(t, reqs, 2)
	req := reqs[0].(*l2.BridgeDomainAddDel)
	assert.Equal(t, uint32(5678), req.BdID)
	assert.True(t, req.IsAdd)
	assert.True(t, req.Flood)
	assert.True(t, req.UuFlood)
	assert.True(t, req.Forward)
	assert.True(t, req.Learn)
	assert.False(t, req.ArpTerm)

	n, err := testutil.GatherAndCount(reg, "osvswitch_bridging_domains_allocated_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAllocateBridgeDomainFailureKeepsCounter(t *testing.T) {
	f := newFakeTransport()
	calls := 0
	f.on(&l2.BridgeDomainAddDel{}, func(_ context.Context, _ api.Message) (api.Message, error) {
		calls++
		if calls == 1 {
			return &l2.BridgeDomainAddDelReply{Retval: -1}, nil
		}
		return &l2.BridgeDomainAddDelReply{}, nil
	})
	s := newTestSession(t, f, WithBridgeDomainSeed(100))

	_, err := s.AllocateBridgeDomain(context.Background())
	assert.ErrorIs(t, err, southbound.ErrBackendCommand)

	id, err := s.AllocateBridgeDomain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint32(100), id)
}

func TestCreateBridgeDomainExplicit(t *testing.T) {
	f := newFakeTransport()
	f.reply(&l2.BridgeDomainAddDel{}, &l2.BridgeDomainAddDelReply{})
	s := newTestSession(t, f)

	id, err := s.CreateBridgeDomain(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), id)

	// Explicit creation leaves the counter alone.
	next, err := s.AllocateBridgeDomain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultBridgeDomainSeed, next)

	_, err = s.CreateBridgeDomain(context.Background(), 0)
	assert.ErrorIs(t, err, southbound.ErrInvalidArgument)
}

func TestAddToBridgePartialFailure(t *testing.T) {
	f := newFakeTransport()
	f.on(&l2.SwInterfaceSetL2Bridge{}, func(_ context.Context, req api.Message) (api.Message, error) {
		if req.(*l2.SwInterfaceSetL2Bridge).RxSwIfIndex == 2 {
			return &l2.SwInterfaceSetL2BridgeReply{Retval: -1}, nil
		}
		return &l2.SwInterfaceSetL2BridgeReply{}, nil
	})
	s := newTestSession(t, f)

	err := s.AddToBridge(context.Background(), 5678, 1, 2, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, southbound.ErrBackendCommand)

	var ae *southbound.AttachError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, uint32(5678), ae.BridgeDomain)
	assert.Equal(t, []southbound.Handle{1}, ae.Attached)
	assert.Equal(t, southbound.Handle(2), ae.Failed)
	assert.Equal(t, []southbound.Handle{3}, ae.NotAttempted)

	reqs := f.requestsNamed("sw_interface_set_l2_bridge")
	require.Len(t, reqs, 2)
	req := reqs[0].(*l2.SwInterfaceSetL2Bridge)
	assert.Equal(t, l2.L2_API_PORT_TYPE_NORMAL, req.PortType)
	assert.Equal(t, uint8(0), req.Shg)
	assert.True(t, req.Enable)
	assert.Equal(t, uint32(5678), req.BdID)
}

func TestAddToBridgeAll(t *testing.T) {
	f := newFakeTransport()
	f.reply(&l2.SwInterfaceSetL2Bridge{}, &l2.SwInterfaceSetL2BridgeReply{})
	s := newTestSession(t, f)

	require.NoError(t, s.AddToBridge(context.Background(), 10, 1, 2, 3))
	assert.Len(t, f.requestsNamed("sw_interface_set_l2_bridge"), 3)

	require.NoError(t, s.AddToBridge(context.Background(), 10))
}

func TestAddToBridgeInvalidHandle(t *testing.T) {
	f := newFakeTransport()
	f.reply(&l2.SwInterfaceSetL2Bridge{}, &l2.SwInterfaceSetL2BridgeReply{})
	s := newTestSession(t, f)

	err := s.AddToBridge(context.Background(), 10, 1, southbound.InvalidHandle)
	assert.ErrorIs(t, err, southbound.ErrInvalidArgument)

	var ae *southbound.AttachError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, []southbound.Handle{1}, ae.Attached)
	assert.Empty(t, ae.NotAttempted)
}

func TestSetLinkUpBestEffort(t *testing.T) {
	f := newFakeTransport()
	s := newTestSession(t, f)

	require.NoError(t, s.SetLinkUp(context.Background(), 1, 2))

	sent := f.sentMessages()
	require.Len(t, sent, 2)
	req := sent[1].(*interfaces.SwInterfaceSetFlags)
	assert.Equal(t, interface_types.InterfaceIndex(2), req.SwIfIndex)
	assert.Equal(t, interface_types.IF_STATUS_API_FLAG_ADMIN_UP|interface_types.IF_STATUS_API_FLAG_LINK_UP, req.Flags)
}

func TestSetLinkUpStrict(t *testing.T) {
	f := newFakeTransport()
	f.reply(&interfaces.SwInterfaceSetFlags{}, &interfaces.SwInterfaceSetFlagsReply{Retval: -1})
	s := newTestSession(t, f, WithStrictAcks(true))

	err := s.SetLinkUp(context.Background(), 1, 2)
	assert.ErrorIs(t, err, southbound.ErrBackendCommand)
	assert.Len(t, f.requestsNamed("sw_interface_set_flags"), 1)
}

func TestListBridgeDomains(t *testing.T) {
	f := newFakeTransport()
	f.dumpReply(&l2.BridgeDomainDump{},
		&l2.BridgeDomainDetails{
			BdID:    5678,
			Flood:   true,
			UuFlood: true,
			Forward: true,
			Learn:   true,
			BdTag:   "vm1\x00\x00",
			SwIfDetails: []l2.BridgeDomainSwIf{
				{SwIfIndex: 1},
				{SwIfIndex: 2, Shg: 1},
			},
		},
	)
	s := newTestSession(t, f)

	bds, err := s.ListBridgeDomains(context.Background())
	require.NoError(t, err)
	require.Len(t, bds, 1)
	assert.Equal(t, uint32(5678), bds[0].ID)
	assert.Equal(t, "vm1", bds[0].Tag)
	assert.True(t, bds[0].Learn)
	assert.False(t, bds[0].ARPTerm)
	assert.Equal(t, []southbound.BridgeMember{{Handle: 1}, {Handle: 2, Shg: 1}}, bds[0].Members)
}

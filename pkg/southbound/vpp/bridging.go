package vpp

import (
	"context"
	"fmt"

	interfaces "go.fd.io/govpp/binapi/interface"
	"go.fd.io/govpp/binapi/interface_types"
	"go.fd.io/govpp/binapi/l2"

	"github.com/veesix-networks/osvswitch/pkg/southbound"
)

const (
	DefaultBridgeDomainSeed uint32 = 5678
	maxBridgeDomainID       uint32 = 0xFFFFFF
)

// CreateBridgeDomain creates bridge domain id with flooding, unknown-unicast
// flooding, forwarding and learning enabled and ARP termination disabled.
func (s *Session) CreateBridgeDomain(ctx context.Context, id uint32) (uint32, error) {
	if id == 0 || id > maxBridgeDomainID {
		return 0, fmt.Errorf("%w: bridge domain id %d out of range 1-%d", southbound.ErrInvalidArgument, id, maxBridgeDomainID)
	}

	_, err := request[*l2.BridgeDomainAddDelReply](ctx, s, &l2.BridgeDomainAddDel{
		BdID:    id,
		Flood:   true,
		UuFlood: true,
		Forward: true,
		Learn:   true,
		ArpTerm: false,
		IsAdd:   true,
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("Created bridge domain", "bd_id", id)
	return id, nil
}

// AllocateBridgeDomain creates a bridge domain with the next identifier from
// the session counter. The counter only advances when the engine accepts the
// domain, and identifiers are never handed out twice.
func (s *Session) AllocateBridgeDomain(ctx context.Context) (uint32, error) {
	s.bdMu.Lock()
	defer s.bdMu.Unlock()

	id := s.nextBD
	if id > maxBridgeDomainID {
		return 0, fmt.Errorf("%w: bridge domain identifiers exhausted at %d", southbound.ErrInvalidArgument, id)
	}

	if _, err := s.CreateBridgeDomain(ctx, id); err != nil {
		return 0, err
	}

	s.nextBD++
	s.metrics.BridgeDomainAllocated()
	return id, nil
}

// AddToBridge attaches each handle to bdID as a normal port in split-horizon
// group 0, in order. It stops at the first failure and returns an
// AttachError; handles attached before that stay attached.
func (s *Session) AddToBridge(ctx context.Context, bdID uint32, handles ...southbound.Handle) error {
	for i, h := range handles {
		var err error
		if !h.Valid() {
			err = fmt.Errorf("%w: handle is invalid", southbound.ErrInvalidArgument)
		} else {
			_, err = request[*l2.SwInterfaceSetL2BridgeReply](ctx, s, &l2.SwInterfaceSetL2Bridge{
				RxSwIfIndex: interface_types.InterfaceIndex(h),
				BdID:        bdID,
				PortType:    l2.L2_API_PORT_TYPE_NORMAL,
				Shg:         0,
				Enable:      true,
			})
		}
		if err != nil {
			return &southbound.AttachError{
				BridgeDomain: bdID,
				Failed:       h,
				Attached:     append([]southbound.Handle(nil), handles[:i]...),
				NotAttempted: append([]southbound.Handle(nil), handles[i+1:]...),
				Err:          err,
			}
		}
		s.logger.Debug("Attached interface to bridge domain", "bd_id", bdID, "sw_if_index", h)
	}
	return nil
}

// SetLinkUp sets the admin-up and link-up flags on each handle. Unless strict
// acknowledgements are enabled the replies are not validated, so an
// interface the engine failed to bring up is not reported.
func (s *Session) SetLinkUp(ctx context.Context, handles ...southbound.Handle) error {
	for _, h := range handles {
		req := &interfaces.SwInterfaceSetFlags{
			SwIfIndex: interface_types.InterfaceIndex(h),
			Flags:     interface_types.IF_STATUS_API_FLAG_ADMIN_UP | interface_types.IF_STATUS_API_FLAG_LINK_UP,
		}

		var err error
		if s.strictAcks {
			_, err = request[*interfaces.SwInterfaceSetFlagsReply](ctx, s, req)
		} else {
			err = s.send(ctx, req)
		}
		if err != nil {
			return fmt.Errorf("set link up on sw_if_index %s: %w", h, err)
		}
	}
	return nil
}

// ListBridgeDomains dumps every bridge domain with its member ports.
func (s *Session) ListBridgeDomains(ctx context.Context) ([]southbound.BridgeDomainInfo, error) {
	records, err := s.dump(ctx, &l2.BridgeDomainDump{
		BdID:      ^uint32(0),
		SwIfIndex: interface_types.InterfaceIndex(^uint32(0)),
	})
	if err != nil {
		return nil, fmt.Errorf("dump bridge domains: %w", err)
	}

	var result []southbound.BridgeDomainInfo
	for _, msg := range records {
		d, ok := msg.(*l2.BridgeDomainDetails)
		if !ok {
			continue
		}
		info := southbound.BridgeDomainInfo{
			ID:      d.BdID,
			Tag:     FixString(d.BdTag),
			Flood:   d.Flood,
			UUFlood: d.UuFlood,
			Forward: d.Forward,
			Learn:   d.Learn,
			ARPTerm: d.ArpTerm,
		}
		for _, m := range d.SwIfDetails {
			info.Members = append(info.Members, southbound.BridgeMember{
				Handle: southbound.Handle(m.SwIfIndex),
				Shg:    m.Shg,
			})
		}
		result = append(result, info)
	}
	return result, nil
}

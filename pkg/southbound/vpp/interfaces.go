package vpp

import (
	"context"
	"fmt"
	"iter"

	interfaces "go.fd.io/govpp/binapi/interface"
	"go.fd.io/govpp/binapi/interface_types"
	"go.fd.io/govpp/binapi/tapv2"
	"go.fd.io/govpp/binapi/vhost_user"

	"github.com/veesix-networks/osvswitch/pkg/logger"
	"github.com/veesix-networks/osvswitch/pkg/southbound"
)

const (
	maxTapNameLen    = 63
	maxSocketPathLen = 255
	maxVlanID        = 4094

	tapRingSize = 1024
)

// ListInterfaces dumps every interface the engine knows about. Each range
// over the returned sequence issues a fresh dump.
func (s *Session) ListInterfaces(ctx context.Context) iter.Seq2[southbound.InterfaceDetails, error] {
	return func(yield func(southbound.InterfaceDetails, error) bool) {
		records, err := s.dump(ctx, &interfaces.SwInterfaceDump{
			SwIfIndex: interface_types.InterfaceIndex(^uint32(0)),
		})
		if err != nil {
			yield(southbound.InterfaceDetails{}, fmt.Errorf("dump interfaces: %w", err))
			return
		}

		for _, msg := range records {
			details, ok := msg.(*interfaces.SwInterfaceDetails)
			if !ok {
				s.logger.Debug("Skipping unrelated message in interface dump", "msg", msg.GetMessageName())
				continue
			}
			if !yield(interfaceFromDetails(details), nil) {
				return
			}
		}
	}
}

func interfaceFromDetails(d *interfaces.SwInterfaceDetails) southbound.InterfaceDetails {
	var mtu uint32
	if len(d.Mtu) > 0 {
		mtu = d.Mtu[0]
	}
	return southbound.InterfaceDetails{
		Handle:          southbound.Handle(d.SwIfIndex),
		SupHandle:       southbound.Handle(d.SupSwIfIndex),
		Name:            FixString(d.InterfaceName),
		DevType:         FixString(d.InterfaceDevType),
		Type:            southbound.IfType(d.Type),
		MAC:             hardwareAddr(d.L2Address),
		AdminUp:         d.Flags&interface_types.IF_STATUS_API_FLAG_ADMIN_UP != 0,
		LinkUp:          d.Flags&interface_types.IF_STATUS_API_FLAG_LINK_UP != 0,
		MTU:             mtu,
		SubID:           d.SubID,
		SubNumberOfTags: d.SubNumberOfTags,
		OuterVlanID:     d.SubOuterVlanID,
		InnerVlanID:     d.SubInnerVlanID,
		Tag:             FixString(d.Tag),
	}
}

// FindInterface returns the first interface whose name matches exactly.
// Not finding it is not an error.
func (s *Session) FindInterface(ctx context.Context, name string) (southbound.InterfaceDetails, bool, error) {
	for iface, err := range s.ListInterfaces(ctx) {
		if err != nil {
			return southbound.InterfaceDetails{}, false, err
		}
		if iface.Name == name {
			return iface, true, nil
		}
	}
	return southbound.InterfaceDetails{}, false, nil
}

// CreateTap creates a tap interface whose host side is named name and whose
// engine side carries mac.
func (s *Session) CreateTap(ctx context.Context, name, mac string) (southbound.Handle, error) {
	if name == "" || len(name) > maxTapNameLen {
		return southbound.InvalidHandle, fmt.Errorf("%w: tap name %q must be 1-%d characters", southbound.ErrInvalidArgument, name, maxTapNameLen)
	}
	hwAddr, err := ParseMAC(mac)
	if err != nil {
		return southbound.InvalidHandle, err
	}

	req := &tapv2.TapCreateV3{
		ID:            ^uint32(0),
		UseRandomMac:  false,
		MacAddress:    hwAddr,
		NumRxQueues:   1,
		TxRingSz:      tapRingSize,
		RxRingSz:      tapRingSize,
		HostIfNameSet: true,
		HostIfName:    name,
	}
	if s.tapNetns != "" {
		req.HostNamespaceSet = true
		req.HostNamespace = s.tapNetns
	}
	if s.tapMTU > 0 {
		req.HostMtuSet = true
		req.HostMtuSize = s.tapMTU
	}
	reply, err := request[*tapv2.TapCreateV3Reply](ctx, s, req)
	if err != nil {
		return southbound.InvalidHandle, err
	}

	handle := southbound.Handle(reply.SwIfIndex)
	if !handle.Valid() {
		return southbound.InvalidHandle, &southbound.RefusedError{Command: req.GetMessageName(), Subject: name}
	}

	log := logger.WithInterface(s.logger, uint32(handle), name)
	log.Info("Created tap interface", "mac", mac)

	if s.hostLink != nil {
		if err := s.hostLink.SetUp(name); err != nil {
			log.Warn("Failed to bring up host side of tap", "error", err)
		}
	}

	return handle, nil
}

// DeleteTap removes a tap. Unless strict acknowledgements are enabled the
// reply is not validated: the call reports only failures to send, and a
// delete the engine rejected goes unnoticed.
func (s *Session) DeleteTap(ctx context.Context, handle southbound.Handle) error {
	req := &tapv2.TapDeleteV2{SwIfIndex: interface_types.InterfaceIndex(handle)}

	if s.strictAcks {
		_, err := request[*tapv2.TapDeleteV2Reply](ctx, s, req)
		return err
	}
	if err := s.send(ctx, req); err != nil {
		return err
	}
	s.logger.Debug("Sent unacknowledged tap delete", "sw_if_index", handle)
	return nil
}

// CreateVhostUser creates a vhost-user interface on the socket at path. In
// server mode the engine creates the socket; it is handed off to its peer
// before the handle is returned, and if that fails the interface is removed
// again.
func (s *Session) CreateVhostUser(ctx context.Context, path, mac string, server bool) (southbound.Handle, error) {
	if path == "" || len(path) > maxSocketPathLen {
		return southbound.InvalidHandle, fmt.Errorf("%w: socket path must be 1-%d characters", southbound.ErrInvalidArgument, maxSocketPathLen)
	}
	hwAddr, err := ParseMAC(mac)
	if err != nil {
		return southbound.InvalidHandle, err
	}

	req := &vhost_user.CreateVhostUserIf{
		IsServer:     server,
		SockFilename: path,
		UseCustomMac: true,
		MacAddress:   hwAddr,
	}
	reply, err := request[*vhost_user.CreateVhostUserIfReply](ctx, s, req)
	if err != nil {
		return southbound.InvalidHandle, err
	}

	handle := southbound.Handle(reply.SwIfIndex)
	if !handle.Valid() {
		return southbound.InvalidHandle, &southbound.RefusedError{Command: req.GetMessageName(), Subject: path}
	}

	log := s.logger.With("sw_if_index", handle, "socket", path)

	if server && s.handoff != nil {
		if err := s.handoff.Handoff(ctx, path); err != nil {
			if delErr := s.DeleteVhostUser(context.WithoutCancel(ctx), handle); delErr != nil {
				log.Warn("Failed to remove vhost-user interface after handoff failure", "error", delErr)
			}
			return southbound.InvalidHandle, fmt.Errorf("hand off vhost-user socket %s: %w", path, err)
		}
	}

	log.Info("Created vhost-user interface", "mac", mac, "server", server)
	return handle, nil
}

func (s *Session) DeleteVhostUser(ctx context.Context, handle southbound.Handle) error {
	_, err := request[*vhost_user.DeleteVhostUserIfReply](ctx, s, &vhost_user.DeleteVhostUserIf{
		SwIfIndex: interface_types.InterfaceIndex(handle),
	})
	if err != nil {
		return err
	}
	s.logger.Info("Deleted vhost-user interface", "sw_if_index", handle)
	return nil
}

// CreateVLANSubInterface creates a dot1q sub-interface of parent.
func (s *Session) CreateVLANSubInterface(ctx context.Context, parent southbound.Handle, vlan uint16) (southbound.Handle, error) {
	if vlan == 0 || vlan > maxVlanID {
		return southbound.InvalidHandle, fmt.Errorf("%w: vlan %d out of range 1-%d", southbound.ErrInvalidArgument, vlan, maxVlanID)
	}
	if !parent.Valid() {
		return southbound.InvalidHandle, fmt.Errorf("%w: parent handle is invalid", southbound.ErrInvalidArgument)
	}

	req := &interfaces.CreateVlanSubif{
		SwIfIndex: interface_types.InterfaceIndex(parent),
		VlanID:    uint32(vlan),
	}
	reply, err := request[*interfaces.CreateVlanSubifReply](ctx, s, req)
	if err != nil {
		return southbound.InvalidHandle, err
	}

	handle := southbound.Handle(reply.SwIfIndex)
	if !handle.Valid() {
		return southbound.InvalidHandle, &southbound.RefusedError{
			Command: req.GetMessageName(),
			Subject: fmt.Sprintf("%s.%d", parent, vlan),
		}
	}

	s.logger.Info("Created VLAN sub-interface", "parent", parent, "vlan", vlan, "sw_if_index", handle)
	return handle, nil
}

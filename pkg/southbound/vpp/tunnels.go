package vpp

import (
	"context"
	"fmt"
	"net"

	"go.fd.io/govpp/binapi/interface_types"
	"go.fd.io/govpp/binapi/ip_types"
	"go.fd.io/govpp/binapi/vxlan"

	"github.com/veesix-networks/osvswitch/pkg/southbound"
)

const maxVNI = 1<<24 - 1

// CreateVXLANTunnel creates a VXLAN tunnel interface for t. A multicast
// destination needs McastHandle; a unicast one ignores it.
func (s *Session) CreateVXLANTunnel(ctx context.Context, t southbound.VXLANTunnel) (southbound.Handle, error) {
	if t.VNI == 0 || t.VNI > maxVNI {
		return southbound.InvalidHandle, fmt.Errorf("%w: vni %d out of range 1-%d", southbound.ErrInvalidArgument, t.VNI, maxVNI)
	}
	src, err := toAddress(t.Src)
	if err != nil {
		return southbound.InvalidHandle, fmt.Errorf("source: %w", err)
	}
	dst, err := toAddress(t.Dst)
	if err != nil {
		return southbound.InvalidHandle, fmt.Errorf("destination: %w", err)
	}
	if src.Af != dst.Af {
		return southbound.InvalidHandle, fmt.Errorf("%w: source %s and destination %s are different address families", southbound.ErrInvalidArgument, t.Src, t.Dst)
	}

	mcast := southbound.InvalidHandle
	if t.Dst.IsMulticast() {
		if !t.McastHandle.Valid() {
			return southbound.InvalidHandle, fmt.Errorf("%w: multicast destination %s needs a multicast interface", southbound.ErrInvalidArgument, t.Dst)
		}
		mcast = t.McastHandle
	}

	req := &vxlan.VxlanAddDelTunnelV3{
		IsAdd:          true,
		Instance:       ^uint32(0),
		SrcAddress:     src,
		DstAddress:     dst,
		McastSwIfIndex: interface_types.InterfaceIndex(mcast),
		EncapVrfID:     t.VrfID,
		DecapNextIndex: ^uint32(0),
		Vni:            t.VNI,
	}
	reply, err := request[*vxlan.VxlanAddDelTunnelV3Reply](ctx, s, req)
	if err != nil {
		return southbound.InvalidHandle, err
	}

	handle := southbound.Handle(reply.SwIfIndex)
	if !handle.Valid() {
		return southbound.InvalidHandle, &southbound.RefusedError{
			Command: req.GetMessageName(),
			Subject: fmt.Sprintf("%s->%s vni %d", t.Src, t.Dst, t.VNI),
		}
	}

	s.logger.Info("Created VXLAN tunnel", "src", t.Src, "dst", t.Dst, "vni", t.VNI, "vrf", t.VrfID, "sw_if_index", handle)
	return handle, nil
}

func toAddress(ip net.IP) (ip_types.Address, error) {
	if ip4 := ip.To4(); ip4 != nil {
		var a ip_types.IP4Address
		copy(a[:], ip4)
		return ip_types.Address{
			Af: ip_types.ADDRESS_IP4,
			Un: ip_types.AddressUnionIP4(a),
		}, nil
	}
	if ip6 := ip.To16(); ip6 != nil {
		var a ip_types.IP6Address
		copy(a[:], ip6)
		return ip_types.Address{
			Af: ip_types.ADDRESS_IP6,
			Un: ip_types.AddressUnionIP6(a),
		}, nil
	}
	return ip_types.Address{}, fmt.Errorf("%w: %q is not an IP address", southbound.ErrInvalidArgument, ip)
}

package southbound

import (
	"net"
	"strconv"
)

// Handle is the engine's sw_if_index for a live interface.
type Handle uint32

// InvalidHandle is the all-ones index the engine returns when it refuses to
// create an interface. It is never handed to callers as a usable handle.
const InvalidHandle = Handle(^uint32(0))

func (h Handle) Valid() bool {
	return h != InvalidHandle
}

func (h Handle) String() string {
	if !h.Valid() {
		return "invalid"
	}
	return strconv.FormatUint(uint64(h), 10)
}

type IfType uint32

const (
	IfTypeHardware IfType = 0
	IfTypeSub      IfType = 1
	IfTypeP2P      IfType = 2
	IfTypePipe     IfType = 3
)

type InterfaceDetails struct {
	Handle          Handle           `json:"sw_if_index"`
	SupHandle       Handle           `json:"sup_sw_if_index"`
	Name            string           `json:"name"`
	DevType         string           `json:"dev_type,omitempty"`
	Type            IfType           `json:"type"`
	MAC             net.HardwareAddr `json:"mac,omitempty"`
	AdminUp         bool             `json:"admin_up"`
	LinkUp          bool             `json:"link_up"`
	MTU             uint32           `json:"mtu"`
	SubID           uint32           `json:"sub_id,omitempty"`
	SubNumberOfTags uint8            `json:"sub_number_of_tags,omitempty"`
	OuterVlanID     uint16           `json:"outer_vlan_id,omitempty"`
	InnerVlanID     uint16           `json:"inner_vlan_id,omitempty"`
	Tag             string           `json:"tag,omitempty"`
}

func (i InterfaceDetails) IsSubinterface() bool {
	return i.Type == IfTypeSub
}

func (i InterfaceDetails) HasParent() bool {
	return i.SupHandle != i.Handle
}

type BridgeDomainInfo struct {
	ID      uint32         `json:"bd_id"`
	Tag     string         `json:"tag,omitempty"`
	Flood   bool           `json:"flood"`
	UUFlood bool           `json:"uu_flood"`
	Forward bool           `json:"forward"`
	Learn   bool           `json:"learn"`
	ARPTerm bool           `json:"arp_term"`
	Members []BridgeMember `json:"members,omitempty"`
}

type BridgeMember struct {
	Handle Handle `json:"sw_if_index"`
	Shg    uint8  `json:"shg"`
}

// VXLANTunnel describes a source-replicated VXLAN tunnel. Dst may be a
// multicast group, in which case McastHandle names the interface used to
// reach it.
type VXLANTunnel struct {
	Src         net.IP
	Dst         net.IP
	VrfID       uint32
	VNI         uint32
	McastHandle Handle
}

package vpp

import (
	"fmt"
	"net"
	"strings"

	"go.fd.io/govpp/binapi/ethernet_types"

	"github.com/veesix-networks/osvswitch/pkg/southbound"
)

// ParseMAC converts a colon-separated sextet such as "aa:bb:cc:dd:ee:ff"
// into the engine's 6-byte form.
func ParseMAC(mac string) (ethernet_types.MacAddress, error) {
	var out ethernet_types.MacAddress

	if strings.ContainsAny(mac, "-.") {
		return out, fmt.Errorf("%w: mac %q: octets must be colon-separated", southbound.ErrInvalidArgument, mac)
	}
	hw, err := net.ParseMAC(mac)
	if err != nil {
		return out, fmt.Errorf("%w: %v", southbound.ErrInvalidArgument, err)
	}
	if len(hw) != len(out) {
		return out, fmt.Errorf("%w: mac %q: want 6 octets, got %d", southbound.ErrInvalidArgument, mac, len(hw))
	}
	copy(out[:], hw)
	return out, nil
}

// MACString renders an engine MAC in lower-case colon form.
func MACString(mac ethernet_types.MacAddress) string {
	return net.HardwareAddr(mac[:]).String()
}

func hardwareAddr(mac ethernet_types.MacAddress) net.HardwareAddr {
	hw := make(net.HardwareAddr, len(mac))
	copy(hw, mac[:])
	return hw
}

// FixString strips the NUL padding the engine leaves on fixed-width string
// fields.
func FixString(s string) string {
	return strings.TrimRight(s, "\x00")
}

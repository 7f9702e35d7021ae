package system

import (
	"os"
	"time"
)

const (
	DefaultVhostUserOwner = "libvirt-qemu"
	DefaultVhostUserGroup = "libvirtd"
	DefaultVhostUserMode  = os.FileMode(0o770)
)

// VhostUserConfig names the peer that consumes vhost-user sockets created in
// server mode.
type VhostUserConfig struct {
	OwnerUser   string        `json:"owner_user,omitempty" yaml:"owner_user,omitempty"`
	OwnerGroup  string        `json:"owner_group,omitempty" yaml:"owner_group,omitempty"`
	Mode        os.FileMode   `json:"mode,omitempty" yaml:"mode,omitempty"`
	WaitTimeout time.Duration `json:"wait_timeout,omitempty" yaml:"wait_timeout,omitempty"`
}

type TapConfig struct {
	HostLinkUp bool   `json:"host_link_up,omitempty" yaml:"host_link_up,omitempty"`
	HostNetns  string `json:"host_netns,omitempty" yaml:"host_netns,omitempty"`
	HostMTU    uint32 `json:"host_mtu,omitempty" yaml:"host_mtu,omitempty"`
}

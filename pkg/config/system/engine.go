package system

import "time"

const (
	DefaultAPISocket      = "/run/vpp/api.sock"
	DefaultClientTag      = "osvswitch"
	DefaultCommandTimeout = 5 * time.Second
)

// EngineConfig describes how the session reaches the VPP binary API.
type EngineConfig struct {
	APISocket       string        `json:"api_socket,omitempty" yaml:"api_socket,omitempty"`
	ClientTag       string        `json:"client_tag,omitempty" yaml:"client_tag,omitempty"`
	CommandTimeout  time.Duration `json:"command_timeout,omitempty" yaml:"command_timeout,omitempty"`
	ConnectAttempts int           `json:"connect_attempts,omitempty" yaml:"connect_attempts,omitempty"`
	ConnectInterval time.Duration `json:"connect_interval,omitempty" yaml:"connect_interval,omitempty"`
	// StrictAcks makes tap deletion and link flag changes wait for and
	// validate their replies instead of being best-effort.
	StrictAcks      bool  `json:"strict_acks,omitempty" yaml:"strict_acks,omitempty"`
	InterfaceEvents *bool `json:"interface_events,omitempty" yaml:"interface_events,omitempty"`
}

func (c EngineConfig) WantInterfaceEvents() bool {
	return c.InterfaceEvents == nil || *c.InterfaceEvents
}

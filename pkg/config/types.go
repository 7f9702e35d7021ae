package config

import (
	"github.com/veesix-networks/osvswitch/pkg/config/system"
)

type Config struct {
	Engine     system.EngineConfig     `json:"engine,omitempty" yaml:"engine,omitempty"`
	VhostUser  system.VhostUserConfig  `json:"vhost_user,omitempty" yaml:"vhost_user,omitempty"`
	Tap        system.TapConfig        `json:"tap,omitempty" yaml:"tap,omitempty"`
	Bridging   system.BridgingConfig   `json:"bridging,omitempty" yaml:"bridging,omitempty"`
	Logging    system.LoggingConfig    `json:"logging,omitempty" yaml:"logging,omitempty"`
	Monitoring system.MonitoringConfig `json:"monitoring,omitempty" yaml:"monitoring,omitempty"`
	Watchdog   system.WatchdogConfig   `json:"watchdog,omitempty" yaml:"watchdog,omitempty"`
}

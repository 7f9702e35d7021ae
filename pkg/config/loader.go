package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/veesix-networks/osvswitch/pkg/config/system"
	"gopkg.in/yaml.v3"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Engine.APISocket == "" {
		c.Engine.APISocket = system.DefaultAPISocket
	}
	if c.Engine.ClientTag == "" {
		c.Engine.ClientTag = system.DefaultClientTag
	}
	if c.Engine.CommandTimeout == 0 {
		c.Engine.CommandTimeout = system.DefaultCommandTimeout
	}
	if c.Engine.ConnectAttempts == 0 {
		c.Engine.ConnectAttempts = 1
	}
	if c.Engine.ConnectInterval == 0 {
		c.Engine.ConnectInterval = time.Second
	}

	if c.VhostUser.OwnerUser == "" {
		c.VhostUser.OwnerUser = system.DefaultVhostUserOwner
	}
	if c.VhostUser.OwnerGroup == "" {
		c.VhostUser.OwnerGroup = system.DefaultVhostUserGroup
	}
	if c.VhostUser.Mode == 0 {
		c.VhostUser.Mode = system.DefaultVhostUserMode
	}
	if c.VhostUser.WaitTimeout == 0 {
		c.VhostUser.WaitTimeout = 2 * time.Second
	}

	if c.Bridging.DomainIDSeed == 0 {
		c.Bridging.DomainIDSeed = system.DefaultBridgeDomainSeed
	}

	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if c.Monitoring.ListenAddress == "" {
		c.Monitoring.ListenAddress = "127.0.0.1:9475"
	}

	defaults := system.DefaultWatchdogConfig()
	if c.Watchdog.CheckInterval == 0 {
		c.Watchdog.CheckInterval = defaults.CheckInterval
	}
	if c.Watchdog.Timeout == 0 {
		c.Watchdog.Timeout = defaults.Timeout
	}
	if c.Watchdog.FailureThreshold == 0 {
		c.Watchdog.FailureThreshold = defaults.FailureThreshold
	}
	if c.Watchdog.Critical == nil {
		c.Watchdog.Critical = defaults.Critical
	}
	if c.Watchdog.OnFailure == "" {
		c.Watchdog.OnFailure = defaults.OnFailure
	}
}

func (c *Config) Validate() error {
	if c.Engine.CommandTimeout < 0 {
		return fmt.Errorf("engine.command_timeout must be positive")
	}
	if c.Engine.ConnectAttempts < 0 {
		return fmt.Errorf("engine.connect_attempts must not be negative")
	}

	if c.VhostUser.Mode&^os.ModePerm != 0 {
		return fmt.Errorf("vhost_user.mode %o has bits outside the permission mask", uint32(c.VhostUser.Mode))
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format %q: must be text or json", c.Logging.Format)
	}

	switch c.Watchdog.OnFailure {
	case "warn", "fail":
	default:
		return fmt.Errorf("watchdog.on-failure %q: must be warn or fail", c.Watchdog.OnFailure)
	}

	seenNames := make(map[string]bool)
	seenIDs := make(map[uint32]string)
	for i, bd := range c.Bridging.Domains {
		if bd.Name == "" {
			return fmt.Errorf("bridging.domains[%d]: name is required", i)
		}
		if seenNames[bd.Name] {
			return fmt.Errorf("bridging.domains[%d]: duplicate name %q", i, bd.Name)
		}
		seenNames[bd.Name] = true

		if bd.ID != 0 {
			if other, ok := seenIDs[bd.ID]; ok {
				return fmt.Errorf("bridging.domains.%s: id %d already used by %s", bd.Name, bd.ID, other)
			}
			seenIDs[bd.ID] = bd.Name
		}

		if bd.UplinkVLAN != 0 && bd.Uplink == "" {
			return fmt.Errorf("bridging.domains.%s: uplink_vlan requires uplink", bd.Name)
		}
		if bd.UplinkVLAN > 4094 {
			return fmt.Errorf("bridging.domains.%s: uplink_vlan %d out of range", bd.Name, bd.UplinkVLAN)
		}
	}

	return nil
}

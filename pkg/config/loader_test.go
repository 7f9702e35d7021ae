package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veesix-networks/osvswitch/pkg/config/system"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, system.DefaultAPISocket, cfg.Engine.APISocket)
	assert.Equal(t, system.DefaultClientTag, cfg.Engine.ClientTag)
	assert.Equal(t, 5*time.Second, cfg.Engine.CommandTimeout)
	assert.Equal(t, 1, cfg.Engine.ConnectAttempts)
	assert.True(t, cfg.Engine.WantInterfaceEvents())
	assert.Equal(t, system.DefaultBridgeDomainSeed, cfg.Bridging.DomainIDSeed)
	assert.Equal(t, os.FileMode(0o770), cfg.VhostUser.Mode)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "info", cfg.Logging.Level)
	require.NotNil(t, cfg.Watchdog.Critical)
	assert.True(t, *cfg.Watchdog.Critical)
	assert.Equal(t, 3, cfg.Watchdog.FailureThreshold)
	assert.Equal(t, "warn", cfg.Watchdog.OnFailure)
	assert.NoError(t, cfg.Validate())
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
engine:
  api_socket: /run/vpp/custom.sock
  client_tag: lab
  command_timeout: 2s
  strict_acks: true
  interface_events: false
vhost_user:
  owner_user: qemu
  mode: 0660
tap:
  host_link_up: true
  host_netns: guests
bridging:
  domain_id_seed: 9000
  domains:
    - name: tenant-a
      uplink: GigabitEthernet0/8/0
      uplink_vlan: 100
      interfaces: [tap0, tap1]
    - name: fixed
      id: 42
logging:
  format: json
  level: debug
  components:
    engine: debug
`))
	require.NoError(t, err)

	assert.Equal(t, "/run/vpp/custom.sock", cfg.Engine.APISocket)
	assert.Equal(t, "lab", cfg.Engine.ClientTag)
	assert.Equal(t, 2*time.Second, cfg.Engine.CommandTimeout)
	assert.True(t, cfg.Engine.StrictAcks)
	assert.False(t, cfg.Engine.WantInterfaceEvents())
	assert.Equal(t, "qemu", cfg.VhostUser.OwnerUser)
	assert.Equal(t, system.DefaultVhostUserGroup, cfg.VhostUser.OwnerGroup)
	assert.Equal(t, os.FileMode(0o660), cfg.VhostUser.Mode)
	assert.True(t, cfg.Tap.HostLinkUp)
	assert.Equal(t, "guests", cfg.Tap.HostNetns)
	assert.EqualValues(t, 9000, cfg.Bridging.DomainIDSeed)
	require.Len(t, cfg.Bridging.Domains, 2)
	assert.Equal(t, []string{"tap0", "tap1"}, cfg.Bridging.Domains[0].Interfaces)
	assert.EqualValues(t, 42, cfg.Bridging.Domains[1].ID)
	assert.Equal(t, "debug", cfg.Logging.Components["engine"])
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad format", "logging: {format: xml}", "logging.format"},
		{"negative timeout", "engine: {command_timeout: -1s}", "command_timeout"},
		{"negative attempts", "engine: {connect_attempts: -2}", "connect_attempts"},
		{"unnamed domain", "bridging: {domains: [{id: 5}]}", "name is required"},
		{"duplicate name", "bridging: {domains: [{name: a}, {name: a}]}", "duplicate name"},
		{"duplicate id", "bridging: {domains: [{name: a, id: 7}, {name: b, id: 7}]}", "already used by a"},
		{"vlan without uplink", "bridging: {domains: [{name: a, uplink_vlan: 10}]}", "requires uplink"},
		{"vlan range", "bridging: {domains: [{name: a, uplink: eth0, uplink_vlan: 4095}]}", "out of range"},
		{"watchdog action", "watchdog: {on-failure: restart}", "watchdog.on-failure"},
		{"mode bits", "vhost_user: {mode: 04770}", "permission mask"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte("engine: [not, a, map]"))
	assert.ErrorContains(t, err, "parse config")
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "osvswitch.yaml")

	cfg := Default()
	cfg.Engine.ClientTag = "saved"
	cfg.Bridging.Domains = []system.BridgeDomainConfig{{Name: "a", Interfaces: []string{"tap0"}}}
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "saved", loaded.Engine.ClientTag)
	assert.Equal(t, cfg.Bridging.Domains, loaded.Bridging.Domains)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config file")
}

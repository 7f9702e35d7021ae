package system

const DefaultBridgeDomainSeed uint32 = 5678

type BridgingConfig struct {
	DomainIDSeed uint32               `json:"domain_id_seed,omitempty" yaml:"domain_id_seed,omitempty"`
	Domains      []BridgeDomainConfig `json:"domains,omitempty" yaml:"domains,omitempty"`
}

// BridgeDomainConfig is a bridge domain provisioned at daemon start. A zero
// ID takes the next value from the allocator.
type BridgeDomainConfig struct {
	Name       string   `json:"name" yaml:"name"`
	ID         uint32   `json:"id,omitempty" yaml:"id,omitempty"`
	Uplink     string   `json:"uplink,omitempty" yaml:"uplink,omitempty"`
	UplinkVLAN uint16   `json:"uplink_vlan,omitempty" yaml:"uplink_vlan,omitempty"`
	Interfaces []string `json:"interfaces,omitempty" yaml:"interfaces,omitempty"`
}

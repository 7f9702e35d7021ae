package system

type LoggingConfig struct {
	Format      string            `json:"format,omitempty" yaml:"format,omitempty"`
	Level       string            `json:"level,omitempty" yaml:"level,omitempty"`
	Components  map[string]string `json:"components,omitempty" yaml:"components,omitempty"`
	DebugEvents []string          `json:"debug_events,omitempty" yaml:"debug_events,omitempty"`
}

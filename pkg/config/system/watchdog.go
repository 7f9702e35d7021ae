package system

import "time"

type WatchdogConfig struct {
	Enabled          bool          `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	CheckInterval    time.Duration `json:"check-interval,omitempty" yaml:"check-interval,omitempty"`
	Timeout          time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	FailureThreshold int           `json:"failure-threshold,omitempty" yaml:"failure-threshold,omitempty"`
	Critical         *bool         `json:"critical,omitempty" yaml:"critical,omitempty"`
	// OnFailure is "warn" or "fail". With "fail" the daemon exits once the
	// engine is declared down.
	OnFailure string `json:"on-failure,omitempty" yaml:"on-failure,omitempty"`
}

func DefaultWatchdogConfig() WatchdogConfig {
	return WatchdogConfig{
		Enabled:          true,
		CheckInterval:    5 * time.Second,
		Timeout:          3 * time.Second,
		FailureThreshold: 3,
		Critical:         boolPtr(true),
		OnFailure:        "warn",
	}
}

func boolPtr(b bool) *bool { return &b }

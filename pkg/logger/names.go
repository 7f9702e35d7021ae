package logger

const (
	Main      = "main"
	Engine    = "engine"
	Notify    = "engine.notify"
	Bridging  = "bridging"
	SockPerm  = "sockperm"
	HostLink  = "hostlink"
	Watchdog  = "watchdog"
	Events    = "events"
	Bootstrap = "bootstrap"
	Metrics   = "metrics"
	CLI       = "cli"
)

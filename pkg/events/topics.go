package events

const (
	TopicInterfaceState     = "osvswitch:events:interface:state"
	TopicEngineNotification = "osvswitch:events:engine:notification"
	TopicBridgeDomain       = "osvswitch:events:bridge:domain"
	TopicWatchdog           = "osvswitch:events:watchdog:state"
)

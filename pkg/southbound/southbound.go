package southbound

type Southbound interface {
	Interfaces
	Bridging
	Tunnels
	System

	Disconnect() error
}

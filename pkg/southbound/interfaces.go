package southbound

import (
	"context"
	"iter"
)

type Interfaces interface {
	// ListInterfaces issues a fresh interface dump every time the sequence
	// is ranged over. A transport or protocol failure is yielded once as the
	// error value and ends the sequence.
	ListInterfaces(ctx context.Context) iter.Seq2[InterfaceDetails, error]
	FindInterface(ctx context.Context, name string) (InterfaceDetails, bool, error)

	CreateTap(ctx context.Context, name, mac string) (Handle, error)
	DeleteTap(ctx context.Context, handle Handle) error

	CreateVhostUser(ctx context.Context, path, mac string, server bool) (Handle, error)
	DeleteVhostUser(ctx context.Context, handle Handle) error

	CreateVLANSubInterface(ctx context.Context, parent Handle, vlan uint16) (Handle, error)
}

type Bridging interface {
	CreateBridgeDomain(ctx context.Context, id uint32) (uint32, error)
	AllocateBridgeDomain(ctx context.Context) (uint32, error)
	AddToBridge(ctx context.Context, bdID uint32, handles ...Handle) error
	SetLinkUp(ctx context.Context, handles ...Handle) error
	ListBridgeDomains(ctx context.Context) ([]BridgeDomainInfo, error)
}

type Tunnels interface {
	CreateVXLANTunnel(ctx context.Context, tunnel VXLANTunnel) (Handle, error)
}

// Package bootstrap provisions the bridge domains declared in the daemon
// configuration once the engine session is up.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/veesix-networks/osvswitch/pkg/component"
	"github.com/veesix-networks/osvswitch/pkg/config/system"
	"github.com/veesix-networks/osvswitch/pkg/events"
	"github.com/veesix-networks/osvswitch/pkg/logger"
	"github.com/veesix-networks/osvswitch/pkg/southbound"
)

func init() {
	component.Register("bootstrap", newComponent)
}

// Domain is a provisioned bridge domain.
type Domain struct {
	Name    string
	ID      uint32
	Members []southbound.Handle
}

type Bootstrap struct {
	sb     southbound.Southbound
	cfg    system.BridgingConfig
	bus    events.Bus
	logger *slog.Logger
}

func New(sb southbound.Southbound, cfg system.BridgingConfig, bus events.Bus) *Bootstrap {
	return &Bootstrap{
		sb:     sb,
		cfg:    cfg,
		bus:    bus,
		logger: logger.Get(logger.Bootstrap),
	}
}

// ProvisionBridgeDomains creates each configured domain, resolves its
// members and attaches them. It stops at the first domain that fails and
// returns the ones already provisioned.
func (b *Bootstrap) ProvisionBridgeDomains(ctx context.Context) ([]Domain, error) {
	if len(b.cfg.Domains) == 0 {
		return nil, nil
	}

	b.logger.Info("Provisioning bridge domains from config", "count", len(b.cfg.Domains))

	done := make([]Domain, 0, len(b.cfg.Domains))
	for _, dc := range b.cfg.Domains {
		d, err := b.provision(ctx, dc)
		if err != nil {
			return done, fmt.Errorf("bridge domain %s: %w", dc.Name, err)
		}
		done = append(done, d)

		if b.bus != nil {
			b.bus.Publish(events.TopicBridgeDomain, events.Event{
				Source: "bootstrap",
				Data: events.BridgeDomainEvent{
					ID:      d.ID,
					Name:    d.Name,
					Members: d.Members,
				},
			})
		}
	}

	b.logger.Info("Bridge domain provisioning complete")
	return done, nil
}

func (b *Bootstrap) provision(ctx context.Context, dc system.BridgeDomainConfig) (Domain, error) {
	d := Domain{Name: dc.Name}

	var linkUp []southbound.Handle
	if dc.Uplink != "" {
		uplink, ok, err := b.sb.FindInterface(ctx, dc.Uplink)
		if err != nil {
			return d, fmt.Errorf("find uplink %s: %w", dc.Uplink, err)
		}
		if !ok {
			return d, fmt.Errorf("uplink %s not found", dc.Uplink)
		}
		member := uplink.Handle
		linkUp = append(linkUp, uplink.Handle)

		if dc.UplinkVLAN != 0 {
			member, err = b.uplinkVLAN(ctx, uplink, dc.UplinkVLAN)
			if err != nil {
				return d, err
			}
			linkUp = append(linkUp, member)
		}
		d.Members = append(d.Members, member)
	}

	for _, name := range dc.Interfaces {
		iface, ok, err := b.sb.FindInterface(ctx, name)
		if err != nil {
			return d, fmt.Errorf("find interface %s: %w", name, err)
		}
		if !ok {
			return d, fmt.Errorf("interface %s not found", name)
		}
		d.Members = append(d.Members, iface.Handle)
		linkUp = append(linkUp, iface.Handle)
	}

	var err error
	if dc.ID != 0 {
		d.ID, err = b.sb.CreateBridgeDomain(ctx, dc.ID)
	} else {
		d.ID, err = b.sb.AllocateBridgeDomain(ctx)
	}
	if err != nil {
		return d, fmt.Errorf("create: %w", err)
	}

	if len(d.Members) > 0 {
		if err := b.sb.AddToBridge(ctx, d.ID, d.Members...); err != nil {
			return d, fmt.Errorf("attach members: %w", err)
		}
	}
	if len(linkUp) > 0 {
		if err := b.sb.SetLinkUp(ctx, linkUp...); err != nil {
			return d, fmt.Errorf("set members up: %w", err)
		}
	}

	b.logger.Info("Provisioned bridge domain", "name", d.Name, "bd_id", d.ID, "members", len(d.Members))
	return d, nil
}

// uplinkVLAN creates the uplink sub-interface, reusing one that already
// exists from an earlier run.
func (b *Bootstrap) uplinkVLAN(ctx context.Context, uplink southbound.InterfaceDetails, vlan uint16) (southbound.Handle, error) {
	h, err := b.sb.CreateVLANSubInterface(ctx, uplink.Handle, vlan)
	if err == nil {
		b.logger.Info("Created uplink VLAN sub-interface", "interface", uplink.Name, "vlan", vlan, "sw_if_index", h)
		return h, nil
	}
	if !errors.Is(err, southbound.ErrDuplicateOrRefused) && !errors.Is(err, southbound.ErrBackendCommand) {
		return southbound.InvalidHandle, fmt.Errorf("create vlan %d on %s: %w", vlan, uplink.Name, err)
	}

	name := fmt.Sprintf("%s.%d", uplink.Name, vlan)
	existing, ok, ferr := b.sb.FindInterface(ctx, name)
	if ferr != nil || !ok {
		return southbound.InvalidHandle, fmt.Errorf("create vlan %d on %s: %w", vlan, uplink.Name, err)
	}
	b.logger.Debug("Reusing uplink VLAN sub-interface", "interface", name, "sw_if_index", existing.Handle)
	return existing.Handle, nil
}

type bootstrapComponent struct {
	*component.Base
	b *Bootstrap
}

func newComponent(deps component.Dependencies) (component.Component, error) {
	if deps.Engine == nil || deps.Config == nil || len(deps.Config.Bridging.Domains) == 0 {
		return nil, nil
	}
	return &bootstrapComponent{
		Base: component.NewBase("bootstrap"),
		b:    New(deps.Engine, deps.Config.Bridging, deps.EventBus),
	}, nil
}

func (c *bootstrapComponent) Start(ctx context.Context) error {
	_, err := c.b.ProvisionBridgeDomains(ctx)
	return err
}

func (c *bootstrapComponent) Stop(ctx context.Context) error {
	return nil
}

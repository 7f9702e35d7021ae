// Package inventory keeps the daemon's interface table in step with the
// engine.
package inventory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/veesix-networks/osvswitch/pkg/component"
	"github.com/veesix-networks/osvswitch/pkg/events"
	"github.com/veesix-networks/osvswitch/pkg/ifmgr"
	"github.com/veesix-networks/osvswitch/pkg/logger"
	"github.com/veesix-networks/osvswitch/pkg/southbound"
)

func init() {
	component.Register("inventory", New)
}

type Component struct {
	*component.Base
	logger *slog.Logger
	sb     southbound.Interfaces
	table  *ifmgr.Manager
	bus    events.Bus
	sub    events.Subscription
	resync chan struct{}
}

func New(deps component.Dependencies) (component.Component, error) {
	if deps.Engine == nil || deps.Interfaces == nil {
		return nil, nil
	}
	return &Component{
		Base:   component.NewBase("inventory"),
		logger: logger.Get(logger.Engine),
		sb:     deps.Engine,
		table:  deps.Interfaces,
		bus:    deps.EventBus,
		resync: make(chan struct{}, 1),
	}, nil
}

func (c *Component) Start(ctx context.Context) error {
	c.StartContext(ctx)

	if err := c.table.Sync(ctx, c.sb); err != nil {
		return fmt.Errorf("initial interface sync: %w", err)
	}
	c.logger.Info("Interface table loaded", "count", c.table.Len())

	if c.bus != nil {
		c.sub = c.bus.Subscribe(events.TopicInterfaceState, c.onState)
	}

	c.Go(c.resyncLoop)
	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	if c.sub != nil {
		c.sub.Unsubscribe()
	}
	c.StopContext()
	return nil
}

// Resync asks for a fresh dump. Requests made while one is pending are
// coalesced.
func (c *Component) Resync() {
	select {
	case c.resync <- struct{}{}:
	default:
	}
}

func (c *Component) onState(e events.Event) {
	ev, ok := events.Payload[events.InterfaceStateEvent](e)
	if !ok {
		return
	}
	if !c.table.ApplyState(ev) && !ev.Deleted {
		c.logger.Debug("State event for unknown interface, resyncing", "sw_if_index", ev.Handle)
		c.Resync()
	}
}

func (c *Component) resyncLoop() {
	for {
		select {
		case <-c.Ctx.Done():
			return
		case <-c.resync:
			if err := c.table.Sync(c.Ctx, c.sb); err != nil {
				c.logger.Warn("Interface resync failed", "error", err)
			}
		}
	}
}

package component

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/veesix-networks/osvswitch/pkg/logger"
)

type Orchestrator struct {
	components []Component
	started    int
	mu         sync.Mutex
	logger     *slog.Logger
}

func NewOrchestrator() *Orchestrator {
	return &Orchestrator{
		components: make([]Component, 0),
		logger:     logger.Get(logger.Main),
	}
}

func (o *Orchestrator) Register(comp Component) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.components = append(o.components, comp)
}

// Start starts components in registration order. If one fails, those already
// started are stopped in reverse order before the error is returned.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i, comp := range o.components {
		if err := comp.Start(ctx); err != nil {
			o.started = i
			o.stopStarted(ctx)
			return fmt.Errorf("failed to start %s: %w", comp.Name(), err)
		}
		o.logger.Debug("Component started", "component", comp.Name())
	}
	o.started = len(o.components)
	return nil
}

// Stop stops every started component in reverse order and joins their
// errors.
func (o *Orchestrator) Stop(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.stopStarted(ctx)
}

func (o *Orchestrator) stopStarted(ctx context.Context) error {
	var errs []error
	for i := o.started - 1; i >= 0; i-- {
		comp := o.components[i]
		if err := comp.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop %s: %w", comp.Name(), err))
		}
	}
	o.started = 0
	return errors.Join(errs...)
}

// Package engine turns daemon configuration into a connected engine session.
package engine

import (
	"context"
	"fmt"

	"github.com/veesix-networks/osvswitch/pkg/config"
	"github.com/veesix-networks/osvswitch/pkg/metrics"
	"github.com/veesix-networks/osvswitch/pkg/southbound/vpp"
)

// Params tweak a connection beyond what the configuration says.
type Params struct {
	// ClientTag overrides cfg.Engine.ClientTag when set.
	ClientTag string
	// Events overrides cfg.Engine.InterfaceEvents when set.
	Events  *bool
	Metrics *metrics.Metrics
	Options []vpp.Option
}

// DialConfig builds the transport settings for cfg.
func DialConfig(cfg *config.Config, p Params) vpp.DialConfig {
	tag := cfg.Engine.ClientTag
	if p.ClientTag != "" {
		tag = p.ClientTag
	}
	return vpp.DialConfig{
		Socket:    cfg.Engine.APISocket,
		ClientTag: tag,
		Attempts:  cfg.Engine.ConnectAttempts,
		Interval:  cfg.Engine.ConnectInterval,
	}
}

// Options returns the session options for cfg. The returned cleanup releases
// host resources the options hold and must be called after the session is
// disconnected.
func Options(cfg *config.Config, p Params) ([]vpp.Option, func(), error) {
	events := cfg.Engine.WantInterfaceEvents()
	if p.Events != nil {
		events = *p.Events
	}

	opts := []vpp.Option{
		vpp.WithCommandTimeout(cfg.Engine.CommandTimeout),
		vpp.WithStrictAcks(cfg.Engine.StrictAcks),
		vpp.WithInterfaceEvents(events),
		vpp.WithBridgeDomainSeed(cfg.Bridging.DomainIDSeed),
		vpp.WithTapHost(cfg.Tap.HostNetns, cfg.Tap.HostMTU),
		vpp.WithMetrics(p.Metrics),
	}

	hostOpts, cleanup, err := hostOptions(cfg)
	if err != nil {
		return nil, nil, err
	}
	opts = append(opts, hostOpts...)
	opts = append(opts, p.Options...)

	return opts, cleanup, nil
}

// Session is a connected engine session plus the host resources behind its
// options.
type Session struct {
	*vpp.Session
	cleanup func()
}

func Connect(ctx context.Context, cfg *config.Config, p Params) (*Session, error) {
	opts, cleanup, err := Options(cfg, p)
	if err != nil {
		return nil, fmt.Errorf("engine options: %w", err)
	}

	s, err := vpp.Connect(ctx, DialConfig(cfg, p), opts...)
	if err != nil {
		cleanup()
		return nil, err
	}
	return &Session{Session: s, cleanup: cleanup}, nil
}

// Disconnect closes the engine session and then releases host resources.
func (s *Session) Disconnect() error {
	err := s.Session.Disconnect()
	if err == nil {
		s.cleanup()
	}
	return err
}

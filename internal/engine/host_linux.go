//go:build linux

package engine

import (
	"fmt"

	"github.com/veesix-networks/osvswitch/pkg/config"
	"github.com/veesix-networks/osvswitch/pkg/hostlink"
	"github.com/veesix-networks/osvswitch/pkg/sockperm"
	"github.com/veesix-networks/osvswitch/pkg/southbound/vpp"
)

func hostOptions(cfg *config.Config) ([]vpp.Option, func(), error) {
	opts := []vpp.Option{vpp.WithSocketHandoff(sockperm.New(cfg.VhostUser))}

	if !cfg.Tap.HostLinkUp {
		return opts, func() {}, nil
	}

	links, err := hostlink.New(cfg.Tap.HostNetns)
	if err != nil {
		return nil, nil, fmt.Errorf("tap host link: %w", err)
	}
	opts = append(opts, vpp.WithHostLink(links))

	return opts, links.Close, nil
}

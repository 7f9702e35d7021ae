//go:build !linux

package engine

import (
	"errors"

	"github.com/veesix-networks/osvswitch/pkg/config"
	"github.com/veesix-networks/osvswitch/pkg/southbound/vpp"
)

func hostOptions(cfg *config.Config) ([]vpp.Option, func(), error) {
	if cfg.Tap.HostLinkUp {
		return nil, nil, errors.New("tap.host_link_up requires linux")
	}
	return nil, func() {}, nil
}

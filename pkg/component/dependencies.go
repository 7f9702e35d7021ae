package component

import (
	"github.com/veesix-networks/osvswitch/pkg/config"
	"github.com/veesix-networks/osvswitch/pkg/events"
	"github.com/veesix-networks/osvswitch/pkg/ifmgr"
	"github.com/veesix-networks/osvswitch/pkg/metrics"
	"github.com/veesix-networks/osvswitch/pkg/southbound"
)

type Dependencies struct {
	EventBus   events.Bus
	Engine     southbound.Southbound
	Interfaces *ifmgr.Manager
	Config     *config.Config
	Metrics    *metrics.Metrics
}

package targets

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/veesix-networks/osvswitch/internal/watchdog"
)

// SocketTarget checks that a unix socket accepts connections. It tells an
// engine that is gone apart from a session that is merely wedged.
type SocketTarget struct {
	name       string
	socketPath string
	critical   bool
}

func NewSocketTarget(name, socketPath string, critical bool) *SocketTarget {
	return &SocketTarget{
		name:       name,
		socketPath: socketPath,
		critical:   critical,
	}
}

func (t *SocketTarget) Name() string { return t.name }

func (t *SocketTarget) Check(ctx context.Context) *watchdog.HealthResult {
	start := time.Now()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", t.socketPath)
	if err != nil {
		return watchdog.NewHealthResult(false, fmt.Errorf("dial %s: %w", t.socketPath, err), time.Since(start))
	}
	conn.Close()

	return watchdog.NewHealthResult(true, nil, time.Since(start))
}

func (t *SocketTarget) OnDown() {}

func (t *SocketTarget) OnUp() {}

func (t *SocketTarget) Recover(ctx context.Context) error { return nil }

func (t *SocketTarget) Critical() bool { return t.critical }

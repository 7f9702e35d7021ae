//go:build linux

// Package sockperm hands a vhost-user socket created by the engine over to
// the process that will connect to it, typically the hypervisor.
package sockperm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/veesix-networks/osvswitch/pkg/config/system"
	"github.com/veesix-networks/osvswitch/pkg/logger"
)

var (
	ErrSocketNotFound = errors.New("socket did not appear")
	ErrNotSocket      = errors.New("path is not a unix socket")
)

const defaultPollInterval = 20 * time.Millisecond

type Handoff struct {
	mode         uint32
	owner        string
	group        string
	waitTimeout  time.Duration
	pollInterval time.Duration
	logger       *slog.Logger

	mu       sync.Mutex
	resolved bool
	uid, gid int
}

// New records the configured owner and group. They are looked up on the
// first Handoff, so a host without those accounts can still run everything
// except server-mode vhost-user creation. An empty owner or group leaves that
// side of the ownership unchanged.
func New(cfg system.VhostUserConfig) *Handoff {
	return &Handoff{
		uid:          -1,
		gid:          -1,
		mode:         uint32(cfg.Mode.Perm()),
		owner:        cfg.OwnerUser,
		group:        cfg.OwnerGroup,
		waitTimeout:  cfg.WaitTimeout,
		pollInterval: defaultPollInterval,
		logger:       logger.Get(logger.SockPerm),
	}
}

// ids resolves owner and group once. A failed lookup is retried on the next
// call since the accounts may be created later.
func (h *Handoff) ids() (int, int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.resolved {
		return h.uid, h.gid, nil
	}

	uid, gid := -1, -1
	if h.owner != "" {
		u, err := user.Lookup(h.owner)
		if err != nil {
			return -1, -1, fmt.Errorf("lookup socket owner %q: %w", h.owner, err)
		}
		if uid, err = strconv.Atoi(u.Uid); err != nil {
			return -1, -1, fmt.Errorf("parse uid of %q: %w", h.owner, err)
		}
	}
	if h.group != "" {
		g, err := user.LookupGroup(h.group)
		if err != nil {
			return -1, -1, fmt.Errorf("lookup socket group %q: %w", h.group, err)
		}
		if gid, err = strconv.Atoi(g.Gid); err != nil {
			return -1, -1, fmt.Errorf("parse gid of %q: %w", h.group, err)
		}
	}

	h.uid, h.gid, h.resolved = uid, gid, true
	return uid, gid, nil
}

// Handoff waits for path to exist as a socket, then applies the configured
// ownership and mode and checks they took effect.
func (h *Handoff) Handoff(ctx context.Context, path string) error {
	uid, gid, err := h.ids()
	if err != nil {
		return err
	}

	st, err := h.wait(ctx, path)
	if err != nil {
		return err
	}
	if st.Mode&unix.S_IFMT != unix.S_IFSOCK {
		return fmt.Errorf("%w: %s", ErrNotSocket, path)
	}

	if uid >= 0 || gid >= 0 {
		if err := unix.Chown(path, uid, gid); err != nil {
			return fmt.Errorf("chown %s to %s:%s: %w", path, h.owner, h.group, err)
		}
	}
	if h.mode != 0 {
		if err := unix.Chmod(path, h.mode); err != nil {
			return fmt.Errorf("chmod %s to %#o: %w", path, h.mode, err)
		}
	}

	if err := unix.Stat(path, &st); err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if uid >= 0 && int(st.Uid) != uid {
		return fmt.Errorf("socket %s owned by uid %d, want %d", path, st.Uid, uid)
	}
	if gid >= 0 && int(st.Gid) != gid {
		return fmt.Errorf("socket %s owned by gid %d, want %d", path, st.Gid, gid)
	}
	if h.mode != 0 && st.Mode&0o777 != h.mode {
		return fmt.Errorf("socket %s has mode %#o, want %#o", path, st.Mode&0o777, h.mode)
	}

	h.logger.Debug("Handed off vhost-user socket", "path", path, "owner", h.owner, "group", h.group, "mode", os.FileMode(h.mode))
	return nil
}

func (h *Handoff) wait(ctx context.Context, path string) (unix.Stat_t, error) {
	var st unix.Stat_t

	deadline := time.Now().Add(h.waitTimeout)
	for {
		err := unix.Stat(path, &st)
		if err == nil {
			return st, nil
		}
		if !errors.Is(err, unix.ENOENT) {
			return st, fmt.Errorf("stat %s: %w", path, err)
		}
		if !time.Now().Before(deadline) {
			return st, fmt.Errorf("%w within %s: %s", ErrSocketNotFound, h.waitTimeout, path)
		}

		select {
		case <-ctx.Done():
			return st, fmt.Errorf("wait for %s: %w", path, ctx.Err())
		case <-time.After(h.pollInterval):
		}
	}
}

//go:build linux

// Package hostlink manages the Linux side of tap interfaces created in the
// engine.
package hostlink

import (
	"fmt"
	"log/slog"
	"net"

	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netns"

	"github.com/veesix-networks/osvswitch/pkg/logger"
)

type Manager struct {
	nsName string
	handle *netlink.Handle
	logger *slog.Logger
}

// New returns a manager operating in the named network namespace, or in the
// current one when nsName is empty.
func New(nsName string) (*Manager, error) {
	m := &Manager{
		nsName: nsName,
		logger: logger.Get(logger.HostLink),
	}

	if nsName == "" {
		h, err := netlink.NewHandle()
		if err != nil {
			return nil, fmt.Errorf("create netlink handle: %w", err)
		}
		m.handle = h
		return m, nil
	}

	nsHandle, err := netns.GetFromName(nsName)
	if err != nil {
		return nil, fmt.Errorf("get netns %q: %w", nsName, err)
	}
	defer nsHandle.Close()

	h, err := netlink.NewHandleAt(nsHandle)
	if err != nil {
		return nil, fmt.Errorf("create netlink handle for netns %q: %w", nsName, err)
	}
	m.handle = h

	if lo, err := h.LinkByName("lo"); err == nil {
		if err := h.LinkSetUp(lo); err != nil {
			m.logger.Warn("Failed to bring up loopback in tap namespace", "netns", nsName, "error", err)
		}
	}

	m.logger.Info("Tap host namespace configured", "netns", nsName)
	return m, nil
}

// SetUp brings the named host interface administratively up.
func (m *Manager) SetUp(name string) error {
	link, err := m.handle.LinkByName(name)
	if err != nil {
		return fmt.Errorf("find host interface %s: %w", name, err)
	}
	if link.Attrs().Flags&net.FlagUp != 0 {
		return nil
	}
	if err := m.handle.LinkSetUp(link); err != nil {
		return fmt.Errorf("set host interface %s up: %w", name, err)
	}
	m.logger.Debug("Host interface up", "interface", name, "netns", m.nsName)
	return nil
}

// Exists reports whether the host interface is present.
func (m *Manager) Exists(name string) bool {
	_, err := m.handle.LinkByName(name)
	return err == nil
}

func (m *Manager) Close() {
	if m.handle != nil {
		m.handle.Close()
	}
}

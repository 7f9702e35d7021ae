// Package ifmgr keeps the daemon's view of engine interfaces. It is seeded
// from an interface dump and kept current from interface state events.
package ifmgr

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/veesix-networks/osvswitch/pkg/events"
	"github.com/veesix-networks/osvswitch/pkg/logger"
	"github.com/veesix-networks/osvswitch/pkg/southbound"
)

type Manager struct {
	mu       sync.RWMutex
	byHandle map[southbound.Handle]*southbound.InterfaceDetails
	byName   map[string]*southbound.InterfaceDetails
	logger   *slog.Logger
}

func New() *Manager {
	return &Manager{
		byHandle: make(map[southbound.Handle]*southbound.InterfaceDetails),
		byName:   make(map[string]*southbound.InterfaceDetails),
		logger:   logger.Get(logger.Engine),
	}
}

// Sync replaces the table with a fresh dump. The table is left untouched if
// the dump fails.
func (m *Manager) Sync(ctx context.Context, sb southbound.Interfaces) error {
	byHandle := make(map[southbound.Handle]*southbound.InterfaceDetails)
	byName := make(map[string]*southbound.InterfaceDetails)

	for d, err := range sb.ListInterfaces(ctx) {
		if err != nil {
			return fmt.Errorf("sync interfaces: %w", err)
		}
		iface := d
		byHandle[iface.Handle] = &iface
		if iface.Name != "" {
			byName[iface.Name] = &iface
		}
	}

	m.mu.Lock()
	m.byHandle = byHandle
	m.byName = byName
	m.mu.Unlock()

	m.logger.Debug("Interface table synced", "count", len(byHandle))
	return nil
}

func (m *Manager) Add(iface southbound.InterfaceDetails) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.byHandle[iface.Handle]; ok && old.Name != iface.Name {
		delete(m.byName, old.Name)
	}
	m.byHandle[iface.Handle] = &iface
	if iface.Name != "" {
		m.byName[iface.Name] = &iface
	}
}

func (m *Manager) Remove(handle southbound.Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if iface, ok := m.byHandle[handle]; ok {
		delete(m.byHandle, handle)
		if iface.Name != "" {
			delete(m.byName, iface.Name)
		}
	}
}

func (m *Manager) Get(handle southbound.Handle) (southbound.InterfaceDetails, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if iface, ok := m.byHandle[handle]; ok {
		return *iface, true
	}
	return southbound.InterfaceDetails{}, false
}

// GetByName also matches the engine's "host-" prefix for af_packet
// interfaces.
func (m *Manager) GetByName(name string) (southbound.InterfaceDetails, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if iface, ok := m.byName[name]; ok {
		return *iface, true
	}
	if iface, ok := m.byName["host-"+name]; ok {
		return *iface, true
	}
	return southbound.InterfaceDetails{}, false
}

// List returns a snapshot ordered by handle.
func (m *Manager) List() []southbound.InterfaceDetails {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]southbound.InterfaceDetails, 0, len(m.byHandle))
	for _, iface := range m.byHandle {
		result = append(result, *iface)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Handle < result[j].Handle })
	return result
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byHandle)
}

// ApplyState folds an interface state event into the table. It reports
// false for a handle the table has not seen, which usually means the table
// needs a resync.
func (m *Manager) ApplyState(ev events.InterfaceStateEvent) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	iface, ok := m.byHandle[ev.Handle]
	if !ok {
		return false
	}
	if ev.Deleted {
		delete(m.byHandle, ev.Handle)
		if iface.Name != "" {
			delete(m.byName, iface.Name)
		}
		return true
	}
	iface.AdminUp = ev.AdminUp
	iface.LinkUp = ev.LinkUp
	return true
}

// HandleEvent is an events.Handler for events.TopicInterfaceState.
func (m *Manager) HandleEvent(e events.Event) {
	ev, ok := events.Payload[events.InterfaceStateEvent](e)
	if !ok {
		return
	}
	if !m.ApplyState(ev) && !ev.Deleted {
		m.logger.Debug("State event for unknown interface", "sw_if_index", ev.Handle)
	}
}

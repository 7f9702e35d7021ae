// Package southboundtest provides an in-memory southbound.Southbound for
// tests of code that drives the engine.
package southboundtest

import (
	"context"
	"fmt"
	"iter"
	"sort"
	"sync"

	"github.com/veesix-networks/osvswitch/pkg/southbound"
)

// Fake keeps interfaces and bridge domains in maps. Errors can be injected
// per operation name through Fail.
type Fake struct {
	mu         sync.Mutex
	nextHandle southbound.Handle
	nextBD     uint32
	ifaces     map[southbound.Handle]*southbound.InterfaceDetails
	domains    map[uint32]*southbound.BridgeDomainInfo
	errs       map[string]error
	Version    string
	Calls      []string
	closed     bool
}

func New() *Fake {
	return &Fake{
		nextHandle: 1,
		nextBD:     5678,
		ifaces:     make(map[southbound.Handle]*southbound.InterfaceDetails),
		domains:    make(map[uint32]*southbound.BridgeDomainInfo),
		errs:       make(map[string]error),
		Version:    "24.10-test",
	}
}

// Fail makes the named operation return err until cleared with a nil err.
func (f *Fake) Fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, op)
		return
	}
	f.errs[op] = err
}

// AddInterface registers an existing interface and returns its handle.
func (f *Fake) AddInterface(name string) southbound.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addLocked(southbound.InterfaceDetails{Name: name})
}

func (f *Fake) Interface(h southbound.Handle) (southbound.InterfaceDetails, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.ifaces[h]
	if !ok {
		return southbound.InterfaceDetails{}, false
	}
	return *d, true
}

func (f *Fake) BridgeDomain(id uint32) (southbound.BridgeDomainInfo, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bd, ok := f.domains[id]
	if !ok {
		return southbound.BridgeDomainInfo{}, false
	}
	return *bd, true
}

func (f *Fake) CallCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c == op {
			n++
		}
	}
	return n
}

func (f *Fake) addLocked(d southbound.InterfaceDetails) southbound.Handle {
	d.Handle = f.nextHandle
	if d.Type != southbound.IfTypeSub {
		d.SupHandle = d.Handle
	}
	f.nextHandle++
	f.ifaces[d.Handle] = &d
	return d.Handle
}

func (f *Fake) begin(op string) error {
	f.Calls = append(f.Calls, op)
	if f.closed {
		return southbound.ErrNotConnected
	}
	return f.errs[op]
}

func (f *Fake) ListInterfaces(ctx context.Context) iter.Seq2[southbound.InterfaceDetails, error] {
	return func(yield func(southbound.InterfaceDetails, error) bool) {
		f.mu.Lock()
		if err := f.begin("ListInterfaces"); err != nil {
			f.mu.Unlock()
			yield(southbound.InterfaceDetails{}, err)
			return
		}
		list := make([]southbound.InterfaceDetails, 0, len(f.ifaces))
		for _, d := range f.ifaces {
			list = append(list, *d)
		}
		f.mu.Unlock()

		sort.Slice(list, func(i, j int) bool { return list[i].Handle < list[j].Handle })
		for _, d := range list {
			if !yield(d, nil) {
				return
			}
		}
	}
}

func (f *Fake) FindInterface(ctx context.Context, name string) (southbound.InterfaceDetails, bool, error) {
	for d, err := range f.ListInterfaces(ctx) {
		if err != nil {
			return southbound.InterfaceDetails{}, false, err
		}
		if d.Name == name {
			return d, true, nil
		}
	}
	return southbound.InterfaceDetails{}, false, nil
}

func (f *Fake) CreateTap(ctx context.Context, name, mac string) (southbound.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("CreateTap"); err != nil {
		return southbound.InvalidHandle, err
	}
	return f.addLocked(southbound.InterfaceDetails{Name: name, DevType: "virtio"}), nil
}

func (f *Fake) DeleteTap(ctx context.Context, handle southbound.Handle) error {
	return f.delete("DeleteTap", handle)
}

func (f *Fake) CreateVhostUser(ctx context.Context, path, mac string, server bool) (southbound.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("CreateVhostUser"); err != nil {
		return southbound.InvalidHandle, err
	}
	name := fmt.Sprintf("VirtualEthernet0/0/%d", len(f.ifaces))
	return f.addLocked(southbound.InterfaceDetails{Name: name, DevType: "vhost-user"}), nil
}

func (f *Fake) DeleteVhostUser(ctx context.Context, handle southbound.Handle) error {
	return f.delete("DeleteVhostUser", handle)
}

func (f *Fake) CreateVLANSubInterface(ctx context.Context, parent southbound.Handle, vlan uint16) (southbound.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("CreateVLANSubInterface"); err != nil {
		return southbound.InvalidHandle, err
	}
	p, ok := f.ifaces[parent]
	if !ok {
		return southbound.InvalidHandle, &southbound.CommandError{Command: "create_vlan_subif", Retval: -2}
	}
	name := fmt.Sprintf("%s.%d", p.Name, vlan)
	for _, d := range f.ifaces {
		if d.Name == name {
			return southbound.InvalidHandle, &southbound.CommandError{Command: "create_vlan_subif", Retval: -56}
		}
	}
	return f.addLocked(southbound.InterfaceDetails{
		Name:        name,
		SupHandle:   parent,
		Type:        southbound.IfTypeSub,
		SubID:       uint32(vlan),
		OuterVlanID: vlan,
	}), nil
}

func (f *Fake) delete(op string, handle southbound.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(op); err != nil {
		return err
	}
	delete(f.ifaces, handle)
	return nil
}

func (f *Fake) CreateBridgeDomain(ctx context.Context, id uint32) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("CreateBridgeDomain"); err != nil {
		return 0, err
	}
	f.domains[id] = &southbound.BridgeDomainInfo{ID: id, Flood: true, UUFlood: true, Forward: true, Learn: true}
	return id, nil
}

func (f *Fake) AllocateBridgeDomain(ctx context.Context) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("AllocateBridgeDomain"); err != nil {
		return 0, err
	}
	id := f.nextBD
	f.domains[id] = &southbound.BridgeDomainInfo{ID: id, Flood: true, UUFlood: true, Forward: true, Learn: true}
	f.nextBD++
	return id, nil
}

func (f *Fake) AddToBridge(ctx context.Context, bdID uint32, handles ...southbound.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("AddToBridge"); err != nil {
		return err
	}
	bd, ok := f.domains[bdID]
	if !ok {
		return &southbound.CommandError{Command: "sw_interface_set_l2_bridge", Retval: -69}
	}
	for _, h := range handles {
		bd.Members = append(bd.Members, southbound.BridgeMember{Handle: h})
	}
	return nil
}

func (f *Fake) SetLinkUp(ctx context.Context, handles ...southbound.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("SetLinkUp"); err != nil {
		return err
	}
	for _, h := range handles {
		if d, ok := f.ifaces[h]; ok {
			d.AdminUp = true
			d.LinkUp = true
		}
	}
	return nil
}

func (f *Fake) ListBridgeDomains(ctx context.Context) ([]southbound.BridgeDomainInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("ListBridgeDomains"); err != nil {
		return nil, err
	}
	out := make([]southbound.BridgeDomainInfo, 0, len(f.domains))
	for _, bd := range f.domains {
		out = append(out, *bd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *Fake) CreateVXLANTunnel(ctx context.Context, tunnel southbound.VXLANTunnel) (southbound.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("CreateVXLANTunnel"); err != nil {
		return southbound.InvalidHandle, err
	}
	name := fmt.Sprintf("vxlan_tunnel%d", tunnel.VNI)
	return f.addLocked(southbound.InterfaceDetails{Name: name, DevType: "VXLAN"}), nil
}

func (f *Fake) GetVersion(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("GetVersion"); err != nil {
		return "", err
	}
	return f.Version, nil
}

func (f *Fake) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return southbound.ErrNotConnected
	}
	f.closed = true
	return nil
}

var _ southbound.Southbound = (*Fake)(nil)

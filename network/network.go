package network

import (
	"sync"
	"sync/atomic"

	"github.com/unbase/unbase/memo"
)

// Network assigns slab ids, tracks the most recently registered ref for
// each slab id, and
// holds the single root-index seed that every joining slab learns from
// the first SlabPresence beacon to carry one: the first non-nil
// RootIndexSeed observed network-wide wins, and later ones are
// advisory only.
type Network struct {
	nextSlabID atomic.Uint32
	transport  Transport

	mu    sync.RWMutex
	refs  map[memo.SlabId]*SlabRef

	rootMu   sync.Mutex
	rootSeed *memo.MemoRefHead
}

// NewNetwork constructs a Network backed by the given transport. Pass a
// *SimulatorTransport for tests, a *LibP2PTransport for a real process.
func NewNetwork(transport Transport) *Network {
	return &Network{transport: transport, refs: make(map[memo.SlabId]*SlabRef)}
}

// NewSlabID allocates the next globally-unique slab id for this
// network. Slab ids start at 1 so that MemoId 0 can remain reserved.
func (n *Network) NewSlabID() memo.SlabId {
	return memo.SlabId(n.nextSlabID.Add(1))
}

// RegisterLocal records the ref for a slab hosted by this process and
// binds it into the transport so inbound packets reach it.
func (n *Network) RegisterLocal(id memo.SlabId, addr memo.Address, recv Transmitter) *SlabRef {
	ref := NewSlabRef(id, addr, n.transport)
	n.mu.Lock()
	n.refs[id] = ref
	n.mu.Unlock()
	n.transport.RegisterSlab(id, addr, recv)
	return ref
}

// RegisterRemote records a ref to a slab this process does not host.
func (n *Network) RegisterRemote(id memo.SlabId, addr memo.Address) *SlabRef {
	ref := NewSlabRef(id, addr, n.transport)
	n.mu.Lock()
	n.refs[id] = ref
	n.mu.Unlock()
	return ref
}

// Ref returns the known ref for a slab id, if any.
func (n *Network) Ref(id memo.SlabId) (*SlabRef, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	r, ok := n.refs[id]
	return r, ok
}

// AllRefs returns the current ref for every slab id this network has
// registered; a ref replaced by a later registration of the same id is
// not included.
func (n *Network) AllRefs() []*SlabRef {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]*SlabRef, 0, len(n.refs))
	for _, r := range n.refs {
		out = append(out, r)
	}
	return out
}

// SeedRootIndex records a root index head the first time any slab
// advertises one; subsequent calls are no-ops.
func (n *Network) SeedRootIndex(head memo.MemoRefHead) {
	if head.IsNull() {
		return
	}
	n.rootMu.Lock()
	defer n.rootMu.Unlock()
	if n.rootSeed == nil {
		h := head
		n.rootSeed = &h
	}
}

// RootIndexSeed returns the network's seeded root index head, if one has
// been observed yet.
func (n *Network) RootIndexSeed() (memo.MemoRefHead, bool) {
	n.rootMu.Lock()
	defer n.rootMu.Unlock()
	if n.rootSeed == nil {
		return memo.MemoRefHead{}, false
	}
	return *n.rootSeed, true
}

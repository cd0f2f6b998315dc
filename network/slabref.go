// Package network implements the transport-facing half of the system:
// SlabRef, a remote handle to a slab, the Transport abstraction, and
// the concrete simulator/libp2p transports.
package network

import (
	"fmt"

	"github.com/unbase/unbase/memo"
)

// SlabRef is a handle to a slab, local or remote, addressable over some
// Transport. It implements memo.PeerHandle so memo.PeerList can hold
// SlabRefs without the memo package importing network.
type SlabRef struct {
	slabID    memo.SlabId
	address   memo.Address
	transport Transport
}

// NewSlabRef constructs a handle to a slab reachable at address via
// transport.
func NewSlabRef(slabID memo.SlabId, address memo.Address, transport Transport) *SlabRef {
	return &SlabRef{slabID: slabID, address: address, transport: transport}
}

// SlabID satisfies memo.PeerHandle.
func (s *SlabRef) SlabID() memo.SlabId { return s.slabID }

// Equal satisfies memo.PeerHandle: two handles refer to the same slab if
// their slab ids match, regardless of which transport instance produced
// them (a slab may be reachable through more than one ref).
func (s *SlabRef) Equal(other memo.PeerHandle) bool {
	if other == nil {
		return false
	}
	return s.slabID == other.SlabID()
}

// Address returns the address this ref believes the slab is reachable
// at.
func (s *SlabRef) Address() memo.Address { return s.address }

// IsLocal reports whether this ref refers to the in-process slab,
// meaning sends should be dispatched directly rather than serialized.
func (s *SlabRef) IsLocal() bool { return s.address.IsLocal() }

func (s *SlabRef) String() string {
	return fmt.Sprintf("SlabRef(%d @ %v)", s.slabID, s.address)
}

// Send transmits a packet to this slab via its transport. The caller
// sets args.From; Send does not change it.
func (s *SlabRef) Send(args TransmitterArgs) error {
	if s.transport == nil {
		return ErrNoTransport
	}
	return s.transport.Send(s.slabID, s.address, args)
}

package network

import (
	"errors"

	"github.com/unbase/unbase/memo"
)

// ErrNoTransport is returned by SlabRef.Send when constructed without a
// transport (e.g. a ref deserialized before its Network wired one in).
var ErrNoTransport = errors.New("network: slabref has no transport")

// ErrUnknownAddress is returned when a Transport is asked to deliver to
// an address it has no route for.
var ErrUnknownAddress = errors.New("network: no route to address")

// Transmitter receives inbound packets for one locally-hosted slab. It
// is implemented by slab.SlabAgent; network stays a leaf package with
// respect to slab and never imports it, matching the PeerHandle pattern
// in package memo.
type Transmitter interface {
	Receive(args TransmitterArgs) error
}

// TransmitterArgs is the payload handed to a Transmitter on delivery.
// From is the sender's ref as the sender set it. SimulatorTransport
// delivers it unchanged; LibP2PTransport carries only the sender's slab
// id and rebuilds From on the receiving side from that id and the
// stream's remote address.
type TransmitterArgs struct {
	From    *SlabRef
	Payload []byte
}

// Transport moves opaque payloads between slabs addressed by
// memo.Address. Implementations: SimulatorTransport (in-process,
// deterministic, used by every test scenario) and LibP2PTransport (real
// remote delivery).
type Transport interface {
	// RegisterSlab binds a locally-hosted slab's address to the
	// Transmitter that should receive packets sent to it.
	RegisterSlab(id memo.SlabId, addr memo.Address, t Transmitter)
	// Send delivers args to the slab identified by (id, addr).
	Send(id memo.SlabId, addr memo.Address, args TransmitterArgs) error
}

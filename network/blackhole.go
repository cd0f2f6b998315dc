package network

import "github.com/unbase/unbase/memo"

// BlackholeTransport silently discards everything sent to it. It exists
// so a slab can be given a SlabRef to a peer that is known to be
// unreachable (e.g. evicted, or a test double for a partitioned node)
// without special-casing nil transports throughout slab.
type BlackholeTransport struct{}

func (BlackholeTransport) RegisterSlab(memo.SlabId, memo.Address, Transmitter) {}

func (BlackholeTransport) Send(memo.SlabId, memo.Address, TransmitterArgs) error { return nil }

package network_test

import (
	"testing"

	"github.com/unbase/unbase/memo"
	"github.com/unbase/unbase/network"
)

type recordingTransmitter struct {
	received []network.TransmitterArgs
}

func (r *recordingTransmitter) Receive(args network.TransmitterArgs) error {
	r.received = append(r.received, args)
	return nil
}

func TestSimulatorTransportRoutesToRegisteredSlab(t *testing.T) {
	transport := network.NewSimulatorTransport(nil)
	net := network.NewNetwork(transport)

	recv := &recordingTransmitter{}
	id := net.NewSlabID()
	ref := net.RegisterLocal(id, memo.SimulatorAddress(), recv)

	if err := ref.Send(network.TransmitterArgs{Payload: []byte("hello")}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(recv.received) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(recv.received))
	}
	if string(recv.received[0].Payload) != "hello" {
		t.Fatalf("unexpected payload: %q", recv.received[0].Payload)
	}
}

func TestSimulatorTransportUnknownSlabReturnsError(t *testing.T) {
	transport := network.NewSimulatorTransport(nil)
	net := network.NewNetwork(transport)

	ref := net.RegisterRemote(net.NewSlabID(), memo.SimulatorAddress())
	if err := ref.Send(network.TransmitterArgs{}); err != network.ErrUnknownAddress {
		t.Fatalf("expected ErrUnknownAddress, got %v", err)
	}
}

func TestSimulatorTransportDiscardsBlackholeAddressSilently(t *testing.T) {
	net := network.NewNetwork(network.NewSimulatorTransport(nil))
	id := net.NewSlabID()
	ref := net.RegisterRemote(id, memo.Address{Kind: memo.AddressBlackhole})

	// A blackhole-addressed send must not error even though no
	// Transmitter was ever registered for this slab id.
	if err := ref.Send(network.TransmitterArgs{Payload: []byte("x")}); err != nil {
		t.Fatalf("blackhole send should succeed silently, got %v", err)
	}
}

func TestNetworkSeedRootIndexSingleAssignment(t *testing.T) {
	net := network.NewNetwork(network.NewSimulatorTransport(nil))

	if _, ok := net.RootIndexSeed(); ok {
		t.Fatalf("fresh network should have no root index seed")
	}

	sid := memo.NewSubjectId(memo.IndexNode, 1, 1)
	m := memo.NewMemo(memo.NewMemoId(1, 1), 1, &sid, memo.NullHead(), memo.EmptyRelationBody())
	ref := memo.NewResidentMemoRef(m, memo.PeerList{})
	first := memo.NewSubjectHead(sid, ref)

	net.SeedRootIndex(first)
	got, ok := net.RootIndexSeed()
	if !ok || !got.Equal(first) {
		t.Fatalf("expected first seed to stick, got %v ok=%v", got, ok)
	}

	other := memo.NewMemo(memo.NewMemoId(2, 1), 2, &sid, memo.NullHead(), memo.EmptyRelationBody())
	otherRef := memo.NewResidentMemoRef(other, memo.PeerList{})
	second := memo.NewSubjectHead(sid, otherRef)
	net.SeedRootIndex(second)

	got, _ = net.RootIndexSeed()
	if !got.Equal(first) {
		t.Fatalf("second SeedRootIndex call should be a no-op, got %v", got)
	}
}

func TestSlabRefEqualBySlabIDRegardlessOfRef(t *testing.T) {
	net := network.NewNetwork(network.NewSimulatorTransport(nil))
	id := net.NewSlabID()

	a := net.RegisterRemote(id, memo.SimulatorAddress())
	b := network.NewSlabRef(id, memo.Address{Kind: memo.AddressRemote, Remote: "elsewhere"}, nil)

	if !a.Equal(b) {
		t.Fatalf("refs to the same slab id should be Equal regardless of address/transport")
	}
}

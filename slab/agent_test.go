package slab

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/unbase/unbase/memo"
	"github.com/unbase/unbase/network"
)

func newTestAgent(t *testing.T, net *network.Network) *SlabAgent {
	t.Helper()
	return NewSlabAgent(net, memo.SimulatorAddress(), DefaultConfig(), nil)
}

func TestAssertMemoRefDedupsByID(t *testing.T) {
	net := network.NewNetwork(network.NewSimulatorTransport(nil))
	a := newTestAgent(t, net)

	id := memo.NewMemoId(99, 1)
	first, firstExisted := a.AssertMemoRef(id, 99, nil, memo.PeerList{})
	second, secondExisted := a.AssertMemoRef(id, 99, nil, memo.PeerList{})

	assert.Same(t, first, second, "expected AssertMemoRef to return the same memoref for a repeated id")
	assert.False(t, firstExisted, "expected the first assertion of a fresh id to report not-existed")
	assert.True(t, secondExisted, "expected the second assertion of the same id to report existed")
}

func TestEditPropagatesBetweenAgentsOverSimulator(t *testing.T) {
	transport := network.NewSimulatorTransport(nil)
	net := network.NewNetwork(transport)

	a1 := newTestAgent(t, net)
	a2 := newTestAgent(t, net)
	a1.AddPeer(a2.SelfRef())
	a2.AddPeer(a1.SelfRef())

	sid := memo.NewSubjectId(memo.Record, a1.ID(), 1)
	ref := a1.NewMemo(&sid, memo.NullHead(), memo.EditBody{Values: map[string]string{"name": "alice"}})

	select {
	case <-a2.MemoWait(ref.ID()):
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for memo to propagate to peer")
	}

	head := a2.SubjectHead(sid)
	view, err := memo.Materialize(head)
	if err != nil {
		t.Fatalf("materialize on receiving agent: %v", err)
	}
	if view.Values["name"] != "alice" {
		t.Fatalf("expected propagated value, got %#v", view.Values)
	}
}

func TestMemoWaitFiresImmediatelyWhenAlreadyResident(t *testing.T) {
	net := network.NewNetwork(network.NewSimulatorTransport(nil))
	a := newTestAgent(t, net)

	ref := a.NewMemo(nil, memo.NullHead(), memo.EditBody{Values: map[string]string{"a": "1"}})

	select {
	case <-a.MemoWait(ref.ID()):
	default:
		t.Fatalf("expected a resident memo's wait channel to be pre-fired")
	}
}

func TestRemotizeRefusesBelowDurabilityFactor(t *testing.T) {
	net := network.NewNetwork(network.NewSimulatorTransport(nil))
	cfg := DefaultConfig()
	cfg.DurabilityFactor = 2
	a := NewSlabAgent(net, memo.SimulatorAddress(), cfg, nil)

	ref := a.NewMemo(nil, memo.NullHead(), memo.EditBody{Values: map[string]string{"a": "1"}})
	if err := a.Remotize(ref); err == nil {
		t.Fatalf("expected remotize to fail with insufficient replication")
	}
}

func TestSubscriberReceivesSubjectHeadUpdates(t *testing.T) {
	net := network.NewNetwork(network.NewSimulatorTransport(nil))
	a := newTestAgent(t, net)

	sid := memo.NewSubjectId(memo.Record, a.ID(), 7)
	var got memo.MemoRefHead
	sub := &recordingSubscriber{apply: func(s memo.SubjectId, h memo.MemoRefHead) { got = h }}
	a.Subscribe(sid, sub)

	a.NewMemo(&sid, memo.NullHead(), memo.EditBody{Values: map[string]string{"a": "1"}})

	if got.IsNull() {
		t.Fatalf("expected subscriber to observe a non-null head")
	}
}

func TestReceiveCountsRedundantAdmissionExactlyOnce(t *testing.T) {
	transport := network.NewSimulatorTransport(nil)
	net := network.NewNetwork(transport)

	a1 := newTestAgent(t, net)
	a2 := newTestAgent(t, net)
	a1.AddPeer(a2.SelfRef())

	sid := memo.NewSubjectId(memo.Record, a1.ID(), 1)
	ref := a1.NewMemo(&sid, memo.NullHead(), memo.EditBody{Values: map[string]string{"name": "alice"}})

	select {
	case <-a2.MemoWait(ref.ID()):
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for memo to propagate to peer")
	}

	if got := a2.MemosReceived(); got != 1 {
		t.Fatalf("expected 1 memo received, got %d", got)
	}
	if got := a2.MemosRedundantlyReceived(); got != 0 {
		t.Fatalf("expected 0 redundant receives on first admission, got %d", got)
	}
	if a2.LastMemoID() != ref.ID() {
		t.Fatalf("expected last memo id to be %v, got %v", ref.ID(), a2.LastMemoID())
	}
	if a2.LastSubjectID() != sid {
		t.Fatalf("expected last subject id to be %v, got %v", sid, a2.LastSubjectID())
	}

	dto, err := a1.toDTO(ref, a2.SelfRef())
	if err != nil {
		t.Fatalf("encode for redelivery: %v", err)
	}
	payload, err := a1.codec.Encode(dto)
	if err != nil {
		t.Fatalf("encode payload: %v", err)
	}
	if err := a2.Receive(network.TransmitterArgs{From: a1.SelfRef(), Payload: payload}); err != nil {
		t.Fatalf("redundant receive: %v", err)
	}

	if got := a2.MemosReceived(); got != 2 {
		t.Fatalf("expected 2 memos received after redelivery, got %d", got)
	}
	if got := a2.MemosRedundantlyReceived(); got != 1 {
		t.Fatalf("expected exactly 1 redundant receive after redelivery, got %d", got)
	}
}

func TestEmitMemoCapsFanoutAndSkipsAlreadyPeeredPeers(t *testing.T) {
	net := network.NewNetwork(network.NewSimulatorTransport(nil))
	cfg := DefaultConfig()
	cfg.PeeringFanout = 1
	a := NewSlabAgent(net, memo.SimulatorAddress(), cfg, nil)

	peers := make([]*SlabAgent, 3)
	for i := range peers {
		peers[i] = newTestAgent(t, net)
		a.AddPeer(peers[i].SelfRef())
	}

	ref := a.NewMemo(nil, memo.NullHead(), memo.EditBody{Values: map[string]string{"a": "1"}})

	delivered := 0
	for _, p := range peers {
		select {
		case <-p.MemoWait(ref.ID()):
			delivered++
		case <-time.After(50 * time.Millisecond):
		}
	}
	if delivered != cfg.PeeringFanout {
		t.Fatalf("expected exactly %d peer(s) to receive the memo, got %d", cfg.PeeringFanout, delivered)
	}
}

func TestReceiveRejectsAfterClose(t *testing.T) {
	net := network.NewNetwork(network.NewSimulatorTransport(nil))
	a := newTestAgent(t, net)
	a.Close()

	if err := a.Receive(network.TransmitterArgs{From: a.SelfRef(), Payload: []byte("{}")}); err == nil {
		t.Fatalf("expected Receive to fail once the agent is closed")
	}
}

type recordingSubscriber struct {
	apply  func(memo.SubjectId, memo.MemoRefHead)
	closed bool
}

func (r *recordingSubscriber) ApplySubjectHead(s memo.SubjectId, h memo.MemoRefHead) { r.apply(s, h) }
func (r *recordingSubscriber) Closed() bool                                         { return r.closed }

package slab

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/unbase/unbase/memo"
	"github.com/unbase/unbase/network"
	"github.com/unbase/unbase/wire"
)

// SlabAgent is the per-node state machine: admission and dedup of
// memorefs by MemoId, the subject-head table, peer-list bookkeeping, and
// the residentize/remotize/gossip lifecycle.
type SlabAgent struct {
	id     memo.SlabId
	net    *network.Network
	self   *network.SlabRef
	cfg    Config
	codec  wire.Codec
	logger *slog.Logger

	counter atomic.Uint32
	closed  atomic.Bool

	counters counters

	mu           sync.RWMutex
	byID         map[memo.MemoId]*memo.MemoRef
	subjectHeads map[memo.SubjectId]memo.MemoRefHead
	subscribers  map[memo.SubjectId][]Subscriber
	peers        memo.PeerList

	// seen is an advisory Bloom-filter dedup hint. A positive hit never
	// short-circuits admission: byID is always consulted for the
	// authoritative answer.
	seenMu sync.Mutex
	seen   *bloom.BloomFilter

	waitMu  sync.Mutex
	waiters map[memo.MemoId][]chan struct{}
}

// NewSlabAgent allocates a slab id from net, registers this agent as
// net's Transmitter for that id at addr, and returns the running agent.
func NewSlabAgent(net *network.Network, addr memo.Address, cfg Config, logger *slog.Logger) *SlabAgent {
	if logger == nil {
		logger = slog.Default()
	}
	id := net.NewSlabID()
	a := &SlabAgent{
		id:           id,
		net:          net,
		cfg:          cfg,
		codec:        wire.JSONCodec{},
		logger:       logger.With("slab_id", id),
		byID:         make(map[memo.MemoId]*memo.MemoRef),
		subjectHeads: make(map[memo.SubjectId]memo.MemoRefHead),
		subscribers:  make(map[memo.SubjectId][]Subscriber),
		seen:         bloom.NewWithEstimates(cfg.BloomExpectedElements, cfg.BloomFalsePositiveRate),
		waiters:      make(map[memo.MemoId][]chan struct{}),
	}
	a.self = net.RegisterLocal(id, addr, a)
	return a
}

// ID returns this agent's slab id.
func (a *SlabAgent) ID() memo.SlabId { return a.id }

// SelfRef returns the network-addressable handle peers use to reach
// this agent.
func (a *SlabAgent) SelfRef() *network.SlabRef { return a.self }

// Close marks this agent as shut down. Subsequent Receive calls are
// rejected with errAgentClosed rather than admitting more traffic.
func (a *SlabAgent) Close() { a.closed.Store(true) }

// Closed reports whether Close has been called.
func (a *SlabAgent) Closed() bool { return a.closed.Load() }

// AddPeer records a peer this agent should consider for gossip fanout
// and durability replication.
func (a *SlabAgent) AddPeer(ref *network.SlabRef) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.peers.Upsert(ref, memo.StatusParticipating)
}

func (a *SlabAgent) markSeen(id memo.MemoId) {
	a.seenMu.Lock()
	defer a.seenMu.Unlock()
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(id >> (8 * i))
	}
	a.seen.Add(buf[:])
}

func (a *SlabAgent) maybeSeen(id memo.MemoId) bool {
	a.seenMu.Lock()
	defer a.seenMu.Unlock()
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(id >> (8 * i))
	}
	return a.seen.Test(buf[:])
}

package slab

import (
	"github.com/unbase/unbase/memo"
	"github.com/unbase/unbase/network"
)

// NewMemo mints a fresh, locally-authored Memo, admits it as a resident
// MemoRef, updates the subject head it belongs to (if any), and, for
// data-bearing bodies, kicks off replication toward known peers.
func (a *SlabAgent) NewMemo(subjectID *memo.SubjectId, parents memo.MemoRefHead, body memo.MemoBody) *memo.MemoRef {
	id := memo.NewMemoId(a.id, a.counter.Add(1))
	m := memo.NewMemo(id, a.id, subjectID, parents, body)
	ref := memo.NewResidentMemoRef(m, memo.PeerList{})

	a.mu.Lock()
	a.byID[id] = ref
	a.mu.Unlock()
	a.markSeen(id)

	if subjectID != nil {
		a.applySubjectHead(*subjectID, ref.ToHead())
	}

	if seed, ok := body.(memo.SlabPresenceBody); ok && seed.RootIndexSeed != nil {
		a.net.SeedRootIndex(*seed.RootIndexSeed)
	}

	if body.DoesPeering() {
		a.emitMemo(ref)
	}

	a.checkWaiters(id)
	return ref
}

// NewSubjectID allocates a fresh, globally-unique subject id owned by
// this slab.
func (a *SlabAgent) NewSubjectID(stype memo.SubjectType) memo.SubjectId {
	return memo.NewSubjectId(stype, a.id, a.counter.Add(1))
}

// AssertMemoRef admits a referenced memoref into this agent's by-id
// table, enforcing at most one MemoRef per MemoId. If one already
// exists, incoming peer info is unioned in and the existing ref is
// returned; otherwise a fresh Remote ref is created. The second return
// value reports whether a memoref for id was already present.
func (a *SlabAgent) AssertMemoRef(id memo.MemoId, owner memo.SlabId, subjectID *memo.SubjectId, peers memo.PeerList) (*memo.MemoRef, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if existing, ok := a.byID[id]; ok {
		existing.ApplyPeers(peers)
		return existing, true
	}
	ref := memo.NewRemoteMemoRef(id, owner, subjectID, peers)
	a.byID[id] = ref
	return ref, false
}

// MemoByID returns a known memoref, if admitted.
func (a *SlabAgent) MemoByID(id memo.MemoId) (*memo.MemoRef, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	ref, ok := a.byID[id]
	return ref, ok
}

// SubjectHead returns this agent's current locally-known head for a
// subject.
func (a *SlabAgent) SubjectHead(subject memo.SubjectId) memo.MemoRefHead {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.subjectHeads[subject]
}

func (a *SlabAgent) applySubjectHead(subject memo.SubjectId, incoming memo.MemoRefHead) {
	a.mu.Lock()
	current := a.subjectHeads[subject]
	merged, changed, err := current.Apply(incoming)
	if err != nil {
		a.mu.Unlock()
		a.logger.Warn("subject head merge hit unknown lineage", "subject", subject.String(), "error", err)
		return
	}
	if changed {
		a.subjectHeads[subject] = merged
	}
	subs := append([]Subscriber(nil), a.subscribers[subject]...)
	a.mu.Unlock()

	if !changed {
		return
	}
	a.notifySubscribers(subject, merged, subs)
}

func (a *SlabAgent) notifySubscribers(subject memo.SubjectId, head memo.MemoRefHead, subs []Subscriber) {
	live := make([]Subscriber, 0, len(subs))
	for _, s := range subs {
		if s.Closed() {
			continue
		}
		s.ApplySubjectHead(subject, head)
		live = append(live, s)
	}
	if len(live) != len(subs) {
		a.mu.Lock()
		a.subscribers[subject] = live
		a.mu.Unlock()
	}
}

// Subscribe registers sub to receive subject head updates. Dead
// subscribers are pruned lazily, on the next dispatch to that subject.
func (a *SlabAgent) Subscribe(subject memo.SubjectId, sub Subscriber) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.subscribers[subject] = append(a.subscribers[subject], sub)
}

// Residentize moves a memoref's payload from Remote to Resident and, if
// that was a real transition, advertises the new Resident status to the
// memoref's known peers. Emitting the Peering advertisement is the
// agent's responsibility, since only it has transport access.
func (a *SlabAgent) Residentize(ref *memo.MemoRef, m *memo.Memo) bool {
	if !ref.Residentize(m) {
		return false
	}
	a.markSeen(ref.ID())
	a.emitPeeringAdvertisement(ref, memo.StatusResident)
	return true
}

// Remotize moves a memoref's payload from Resident to Remote, enforcing
// this agent's durability policy: it refuses if fewer than
// cfg.DurabilityFactor peers are known Resident for the memo, on top of
// memo.MemoRef.Remotize's own zero-peers guard.
func (a *SlabAgent) Remotize(ref *memo.MemoRef) error {
	residentPeers := 0
	for _, e := range ref.PeerList().Entries() {
		if e.Status == memo.StatusResident {
			residentPeers++
		}
	}
	if residentPeers < a.cfg.DurabilityFactor {
		return errZeroPeers(ref.ID()).
			WithContext("resident_peers", residentPeers).
			WithContext("required", a.cfg.DurabilityFactor)
	}
	if err := ref.Remotize(); err != nil {
		return wrapAgentError(ErrCodeZeroPeers, "remotize failed", err).WithContext("memo_id", ref.ID().String())
	}
	return nil
}

func (a *SlabAgent) emitPeeringAdvertisement(ref *memo.MemoRef, status memo.PeerStatus) {
	ref.UpdatePeer(a.self, status)
	peers := ref.PeerListForPeer(a.self)
	for _, e := range peers.Entries() {
		target, ok := e.Handle.(*network.SlabRef)
		if !ok {
			continue
		}
		adv := memo.PeeringBody{MemoID: ref.ID(), SubjectID: ref.SubjectID(), Peers: memo.NewPeerList(memo.PeerEntry{Handle: a.self, Status: status})}
		advRef := a.NewMemo(nil, memo.NullHead(), adv)
		if err := a.sendMemoTo(target, advRef); err != nil {
			a.logger.Debug("peering advertisement send failed", "peer", target.String(), "error", err)
		}
	}
}

// emitMemo pushes a newly-authored, peering-eligible memo out to up to
// cfg.PeeringFanout peers that aren't already peered for this memoref.
// Filtering out already-peered peers and capping the fanout (rather
// than broadcasting to every known peer) is what keeps this from
// turning into a routing loop once gossip starts relaying the memo
// back around.
func (a *SlabAgent) emitMemo(ref *memo.MemoRef) {
	a.mu.RLock()
	targets := a.peers.Entries()
	a.mu.RUnlock()

	fanout := a.cfg.PeeringFanout
	if fanout <= 0 {
		fanout = DefaultConfig().PeeringFanout
	}

	sent := 0
	for _, e := range targets {
		if sent >= fanout {
			break
		}
		peer, ok := e.Handle.(*network.SlabRef)
		if !ok {
			continue
		}
		if ref.IsPeeredWith(peer) {
			continue
		}
		sent++
		if err := a.sendMemoTo(peer, ref); err != nil {
			a.logger.Debug("memo emit failed", "peer", peer.String(), "memo_id", ref.ID().String(), "error", err)
		}
	}
}

func (a *SlabAgent) sendMemoTo(peer *network.SlabRef, ref *memo.MemoRef) error {
	dto, err := a.toDTO(ref, peer)
	if err != nil {
		return err
	}
	payload, err := a.codec.Encode(dto)
	if err != nil {
		return err
	}
	if err := peer.Send(network.TransmitterArgs{From: a.self, Payload: payload}); err != nil {
		return wrapAgentError(ErrCodeTransportFailed, "send failed", err).
			WithContext("peer", peer.String()).
			WithContext("memo_id", ref.ID().String())
	}
	return nil
}

// RequestMemo asks `from` to send the memo identified by id.
func (a *SlabAgent) RequestMemo(id memo.MemoId, from *network.SlabRef) error {
	req := a.NewMemo(nil, memo.NullHead(), memo.MemoRequestBody{MemoIDs: []memo.MemoId{id}, Requester: a.self})
	return a.sendMemoTo(from, req)
}

// Receive implements network.Transmitter: it decodes an inbound packet,
// admits the memo it carries, and dispatches on body kind.
func (a *SlabAgent) Receive(args network.TransmitterArgs) error {
	if a.Closed() {
		return errAgentClosed()
	}

	dto, err := a.codec.Decode(args.Payload)
	if err != nil {
		return err
	}
	m, err := a.reconstituteMemo(dto, args.From)
	if err != nil {
		return err
	}

	ref, existed := a.AssertMemoRef(m.ID, m.OwningSlabID, m.SubjectID, memo.PeerList{})
	a.counters.recordReceive(m.ID, m.SubjectID, existed)

	wasAlreadyResident := ref.IsResident()
	if !wasAlreadyResident {
		a.Residentize(ref, m)
	}
	ref.UpdatePeer(args.From, memo.StatusResident)

	a.handleMemoFromOtherSlab(ref, m, args.From, wasAlreadyResident)
	a.checkWaiters(m.ID)
	return nil
}

func (a *SlabAgent) handleMemoFromOtherSlab(ref *memo.MemoRef, m *memo.Memo, from *network.SlabRef, wasAlreadyResident bool) {
	if m.SubjectID != nil {
		a.applySubjectHead(*m.SubjectID, ref.ToHead())
	}

	expected := wasAlreadyResident
	switch body := m.Body.(type) {
	case memo.MemoRequestBody:
		expected = true
		for _, id := range body.MemoIDs {
			have, ok := a.MemoByID(id)
			if !ok || !have.IsResident() {
				a.logger.Debug("cannot satisfy memo request", "error", errMemoNotFound(id))
				continue
			}
			if err := a.sendMemoTo(from, have); err != nil {
				a.logger.Debug("memo request reply failed", "error", err)
			}
		}
	case memo.PeeringBody:
		expected = true
		if target, ok := a.MemoByID(body.MemoID); ok {
			target.ApplyPeers(body.Peers)
		}
	case memo.SlabPresenceBody:
		expected = true
		a.AddPeer(from)
		if body.RootIndexSeed != nil {
			a.net.SeedRootIndex(*body.RootIndexSeed)
		}
	}

	if !expected && a.cfg.PeeringReplyOnUnexpected {
		// A memo that was not already resident here and is not a
		// request, peering or presence memo gets a Peering reply so the
		// sender learns this slab now holds it. Outstanding requests and
		// waiters are not consulted.
		reply := memo.PeeringBody{MemoID: ref.ID(), SubjectID: ref.SubjectID(), Peers: memo.NewPeerList(memo.PeerEntry{Handle: a.self, Status: memo.StatusResident})}
		replyRef := a.NewMemo(nil, memo.NullHead(), reply)
		if err := a.sendMemoTo(from, replyRef); err != nil {
			a.logger.Debug("unsolicited peering reply failed", "error", err)
		}
	}
}

// MemoWait returns a channel that receives one value once id becomes
// resident on this agent; the channel is never closed. If it already is, the channel is returned
// pre-fired. The channel has capacity 1 so a completion racing the
// registration never blocks the completer.
func (a *SlabAgent) MemoWait(id memo.MemoId) <-chan struct{} {
	ch := make(chan struct{}, 1)
	if ref, ok := a.MemoByID(id); ok && ref.IsResident() {
		ch <- struct{}{}
		return ch
	}

	a.waitMu.Lock()
	if ref, ok := a.MemoByID(id); ok && ref.IsResident() {
		a.waitMu.Unlock()
		ch <- struct{}{}
		return ch
	}
	a.waiters[id] = append(a.waiters[id], ch)
	a.waitMu.Unlock()
	return ch
}

func (a *SlabAgent) checkWaiters(id memo.MemoId) {
	a.waitMu.Lock()
	chans := a.waiters[id]
	delete(a.waiters, id)
	a.waitMu.Unlock()

	for _, ch := range chans {
		ch <- struct{}{}
	}
}

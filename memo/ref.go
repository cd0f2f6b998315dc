package memo

import (
	"errors"
	"sync"
)

// ErrZeroPeers is returned by Remotize when the memoref's peer-list is
// empty: remotizing would orphan the payload.
var ErrZeroPeers = errors.New("memo: cannot remotize a memoref with no peers")

// MemoRef is a slab-local, reference-counted-by-the-runtime handle,
// uniquely identified by MemoId within one slab: at most one MemoRef
// per MemoId per slab, enforced by the owning slab's id->memoref map,
// not by this type itself.
type MemoRef struct {
	id           MemoId
	owningSlabID SlabId
	subjectID    *SubjectId

	mu       sync.RWMutex
	peers    PeerList
	resident *Memo // nil when the payload pointer is Remote
}

// NewRemoteMemoRef creates a memoref whose payload pointer is Remote.
func NewRemoteMemoRef(id MemoId, owningSlabID SlabId, subjectID *SubjectId, peers PeerList) *MemoRef {
	return &MemoRef{id: id, owningSlabID: owningSlabID, subjectID: subjectID, peers: peers}
}

// NewResidentMemoRef creates a memoref whose payload pointer is
// immediately Resident.
func NewResidentMemoRef(m *Memo, peers PeerList) *MemoRef {
	return &MemoRef{id: m.ID, owningSlabID: m.OwningSlabID, subjectID: m.SubjectID, peers: peers, resident: m}
}

func (r *MemoRef) ID() MemoId             { return r.id }
func (r *MemoRef) OwningSlabID() SlabId   { return r.owningSlabID }
func (r *MemoRef) SubjectID() *SubjectId  { return r.subjectID }

// SlabID satisfies PeerHandle: a MemoRef's owning slab is meaningless as
// a peer identity, so PeerHandle is implemented by network.SlabRef, not
// by MemoRef. This method exists only on PeerHandle implementers.

// IsResident reports whether the payload pointer currently holds a Memo.
func (r *MemoRef) IsResident() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resident != nil
}

// MemoIfResident returns the resident Memo, or nil if the payload
// pointer is Remote.
func (r *MemoRef) MemoIfResident() *Memo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resident
}

// Residentize moves the payload pointer from Remote to Resident. It is
// idempotent: if already Resident, it returns false and leaves the
// existing payload untouched. Emitting the resulting Peering
// advertisement to peers is the caller's (SlabAgent's) responsibility,
// since that requires transport access this package does not have.
func (r *MemoRef) Residentize(m *Memo) bool {
	if m.ID != r.id {
		panic("memo: Residentize id mismatch")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resident != nil {
		return false
	}
	r.resident = m
	return true
}

// Remotize moves the payload pointer from Resident to Remote. It fails
// with ErrZeroPeers if the peer-list is empty, to avoid orphaning the
// payload. A memoref that is already Remote is a no-op success.
func (r *MemoRef) Remotize() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resident == nil {
		return nil
	}
	if r.peers.Len() == 0 {
		return ErrZeroPeers
	}
	r.resident = nil
	return nil
}

// PeerList returns a snapshot of the current peer-list.
func (r *MemoRef) PeerList() PeerList {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return PeerList{entries: append([]PeerEntry(nil), r.peers.entries...)}
}

// ApplyPeers unions additional peer information into this memoref's
// peer-list.
func (r *MemoRef) ApplyPeers(other PeerList) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.peers.Union(other)
}

// UpdatePeer sets (or raises, by precedence) a single peer's status.
func (r *MemoRef) UpdatePeer(handle PeerHandle, status PeerStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.peers.Upsert(handle, status)
}

// IsPeeredWith reports whether the given handle already appears in the
// peer-list, regardless of status.
func (r *MemoRef) IsPeeredWith(handle PeerHandle) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.peers.Has(handle)
}

// PeerListForPeer returns the peer list as it is reported to another
// slab, excluding `exclude` (typically that recipient itself) when
// non-nil.
func (r *MemoRef) PeerListForPeer(exclude PeerHandle) PeerList {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.peers.ForPeer(exclude)
}

// ToHead wraps this single memoref in the appropriate MemoRefHead
// variant: Subject if it has a subject id, Anonymous otherwise.
func (r *MemoRef) ToHead() MemoRefHead {
	if r.subjectID != nil {
		return NewSubjectHead(*r.subjectID, r)
	}
	return NewAnonymousHead(r)
}

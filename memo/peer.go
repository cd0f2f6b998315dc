package memo

import "sort"

// PeerStatus describes what a peer is known to hold for a given memo.
type PeerStatus uint8

const (
	StatusUnknown PeerStatus = iota
	StatusNonParticipating
	StatusParticipating
	StatusResident
)

func (s PeerStatus) String() string {
	switch s {
	case StatusResident:
		return "Resident"
	case StatusParticipating:
		return "Participating"
	case StatusNonParticipating:
		return "NonParticipating"
	default:
		return "Unknown"
	}
}

// precedence ranks PeerStatus for peer-list merge conflicts: Resident >
// Participating > NonParticipating > Unknown.
func (s PeerStatus) precedence() int {
	switch s {
	case StatusResident:
		return 3
	case StatusParticipating:
		return 2
	case StatusNonParticipating:
		return 1
	default:
		return 0
	}
}

// PeerHandle identifies a remote slab capable of holding a memo. It is
// implemented by network.SlabRef; memo stays a leaf package and never
// imports network, so callers that need to actually transmit to a
// PeerHandle type-assert it back to their own concrete SlabRef type.
type PeerHandle interface {
	// SlabID returns the identifier of the slab this handle refers to.
	SlabID() SlabId
	// Equal reports whether two handles refer to the same slab.
	Equal(other PeerHandle) bool
}

// PeerEntry pairs a peer handle with its known status for one memo.
type PeerEntry struct {
	Handle PeerHandle
	Status PeerStatus
}

// PeerList is the set of peers known to hold (or not hold) a memo,
// deduplicated by peer identity.
type PeerList struct {
	entries []PeerEntry
}

// NewPeerList builds a PeerList from the given entries, applying the
// same dedup-by-identity/status-precedence rule as Union.
func NewPeerList(entries ...PeerEntry) PeerList {
	var pl PeerList
	for _, e := range entries {
		pl.Upsert(e.Handle, e.Status)
	}
	return pl
}

// Len reports the number of distinct peers.
func (pl *PeerList) Len() int { return len(pl.entries) }

// Entries returns a snapshot copy of the peer entries.
func (pl *PeerList) Entries() []PeerEntry {
	out := make([]PeerEntry, len(pl.entries))
	copy(out, pl.entries)
	return out
}

// Upsert adds or updates a peer's status. On conflict, the higher-
// precedence status wins.
func (pl *PeerList) Upsert(handle PeerHandle, status PeerStatus) {
	for i := range pl.entries {
		if pl.entries[i].Handle.Equal(handle) {
			if status.precedence() > pl.entries[i].Status.precedence() {
				pl.entries[i].Status = status
			}
			return
		}
	}
	pl.entries = append(pl.entries, PeerEntry{Handle: handle, Status: status})
}

// Union merges another peer list into this one in place.
func (pl *PeerList) Union(other PeerList) {
	for _, e := range other.entries {
		pl.Upsert(e.Handle, e.Status)
	}
}

// StatusFor returns the known status of a handle and whether it is present.
func (pl *PeerList) StatusFor(handle PeerHandle) (PeerStatus, bool) {
	for _, e := range pl.entries {
		if e.Handle.Equal(handle) {
			return e.Status, true
		}
	}
	return StatusUnknown, false
}

// Has reports whether the handle already appears in the peer list,
// regardless of status.
func (pl *PeerList) Has(handle PeerHandle) bool {
	_, ok := pl.StatusFor(handle)
	return ok
}

// ForPeer returns the peer list as it is reported to another slab:
// every peer except `exclude` (if non-nil), ordered by slab id for
// deterministic output.
func (pl *PeerList) ForPeer(exclude PeerHandle) PeerList {
	var out PeerList
	for _, e := range pl.entries {
		if exclude != nil && e.Handle.Equal(exclude) {
			continue
		}
		out.Upsert(e.Handle, e.Status)
	}
	out.sortByID()
	return out
}

func (pl *PeerList) sortByID() {
	sort.Slice(pl.entries, func(i, j int) bool {
		return pl.entries[i].Handle.SlabID() < pl.entries[j].Handle.SlabID()
	})
}

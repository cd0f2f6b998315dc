// Package index implements a fixed-fanout addressing tree over subjects,
// keyed by an integer key. Each tier of the tree is one IndexNode
// subject whose Edges map selects the next tier by one base-
// memo.SubjectMaxSlots digit of the key, descending from the most to
// the least significant digit.
package index

import "github.com/unbase/unbase/memo"

// Host is everything IndexFixed needs from the session that owns it. It
// is implemented by view.Context; index never imports view, matching
// the narrow-consumer-interface pattern used between memo and network.
type Host interface {
	// NewSubject mints a fresh subject of the given type with an empty
	// relation/edge table and returns its id.
	NewSubject(stype memo.SubjectType) memo.SubjectId
	// ApplyRelation writes (or overwrites) one edge slot on parent.
	ApplyRelation(parent memo.SubjectId, slot memo.RelationSlotId, target memo.RelationTarget) error
	// GetSubjectByID resolves a subject's current materialized state.
	// It returns (nil, nil), not an error, when id is unknown.
	GetSubjectByID(id memo.SubjectId) (*memo.MaterializedView, error)
}

// DefaultDepth is the tree depth used by Testable Scenario 1's
// fixed-fanout index.
const DefaultDepth = 5

// IndexFixed is a fixed-fanout tree mapping integer keys to subject ids.
type IndexFixed struct {
	host  Host
	root  memo.SubjectId
	depth uint8
}

// New creates a fresh, empty index of the given depth, rooted at a new
// IndexNode subject.
func New(host Host, depth uint8) *IndexFixed {
	root := host.NewSubject(memo.IndexNode)
	return &IndexFixed{host: host, root: root, depth: depth}
}

// Open wraps an existing root subject as an index, for a process that
// learned the root's id from a network.Network root-index seed rather
// than creating it itself.
func Open(host Host, root memo.SubjectId, depth uint8) *IndexFixed {
	return &IndexFixed{host: host, root: root, depth: depth}
}

// Root returns this index's root subject id, e.g. to seed
// network.Network.SeedRootIndex via the owning Context's current head
// for it.
func (idx *IndexFixed) Root() memo.SubjectId { return idx.root }

// tierSlot returns the slot a key addresses at the given tier (0 is the
// tier nearest the root): key / max^exponent % max, where exponent
// counts down from depth-1 to 0 as tier counts up from 0.
func tierSlot(key uint64, tier, depth uint8) memo.RelationSlotId {
	max := uint64(memo.SubjectMaxSlots)
	exponent := depth - 1 - tier
	x := uint64(1)
	for i := uint8(0); i < exponent; i++ {
		x *= max
	}
	return memo.RelationSlotId((key / x) % max)
}

// Insert addresses key through the tree, creating intermediate
// IndexNode subjects as needed, and sets the final slot to target.
func (idx *IndexFixed) Insert(key uint64, target memo.SubjectId) error {
	current := idx.root

	for tier := uint8(0); tier < idx.depth; tier++ {
		slot := tierSlot(key, tier, idx.depth)
		last := tier == idx.depth-1
		if last {
			return idx.host.ApplyRelation(current, slot, memo.RelationTarget{SubjectID: target})
		}

		next, known, err := idx.childAt(current, slot)
		if err != nil {
			return err
		}
		if !known {
			next = idx.host.NewSubject(memo.IndexNode)
			if err := idx.host.ApplyRelation(current, slot, memo.RelationTarget{SubjectID: next}); err != nil {
				return err
			}
		}
		current = next
	}
	return nil
}

// Get addresses key through the tree and returns the subject id stored
// at the leaf, if present.
func (idx *IndexFixed) Get(key uint64) (memo.SubjectId, bool) {
	current := idx.root

	for tier := uint8(0); tier < idx.depth; tier++ {
		slot := tierSlot(key, tier, idx.depth)
		next, known, err := idx.childAt(current, slot)
		if err != nil || !known {
			return memo.SubjectId{}, false
		}
		if tier == idx.depth-1 {
			return next, true
		}
		current = next
	}
	return memo.SubjectId{}, false
}

func (idx *IndexFixed) childAt(node memo.SubjectId, slot memo.RelationSlotId) (memo.SubjectId, bool, error) {
	view, err := idx.host.GetSubjectByID(node)
	if err != nil {
		return memo.SubjectId{}, false, err
	}
	if view == nil {
		return memo.SubjectId{}, false, nil
	}
	target, ok := view.Edges[slot]
	if !ok {
		return memo.SubjectId{}, false, nil
	}
	return target.SubjectID, true, nil
}

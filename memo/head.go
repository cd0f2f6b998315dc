package memo

import (
	"errors"
	"sort"
)

// ErrLineageUnknown is returned when comparing or merging heads requires
// walking the parent chain through a memoref whose payload is Remote.
// view.Context's materialization path issues a MemoRequest and retries
// with bounded backoff before surfacing view.MemoLineageError;
// slab.SlabAgent logs it and drops the head update.
var ErrLineageUnknown = errors.New("memo: lineage crosses a non-resident memoref")

type headKind uint8

const (
	headNull headKind = iota
	headSubject
	headAnonymous
)

// MemoRefHead is the set of concurrent memo-refs forming the causal
// frontier for one object (Null, Subject, or Anonymous).
type MemoRefHead struct {
	kind      headKind
	subjectID SubjectId
	tips      []*MemoRef
}

// NullHead is the bottom element: no knowledge.
func NullHead() MemoRefHead { return MemoRefHead{kind: headNull} }

// NewSubjectHead builds a Subject head from a fresh, known-incomparable
// set of tips, deduplicated by MemoId only: callers that cannot
// guarantee the antichain property, e.g. Merge, must prune separately.
func NewSubjectHead(subjectID SubjectId, tips ...*MemoRef) MemoRefHead {
	deduped := dedupByID(tips)
	if len(deduped) == 0 {
		return NullHead()
	}
	return MemoRefHead{kind: headSubject, subjectID: subjectID, tips: deduped}
}

// NewAnonymousHead builds an Anonymous head (used for non-subject memos
// such as presence and requests that still want parent history).
func NewAnonymousHead(tips ...*MemoRef) MemoRefHead {
	deduped := dedupByID(tips)
	if len(deduped) == 0 {
		return NullHead()
	}
	return MemoRefHead{kind: headAnonymous, tips: deduped}
}

// FromMemoRef wraps a single memoref in the head variant implied by its
// subject id.
func FromMemoRef(r *MemoRef) MemoRefHead { return r.ToHead() }

func dedupByID(tips []*MemoRef) []*MemoRef {
	seen := make(map[MemoId]bool, len(tips))
	out := make([]*MemoRef, 0, len(tips))
	for _, t := range tips {
		if t == nil || seen[t.id] {
			continue
		}
		seen[t.id] = true
		out = append(out, t)
	}
	return out
}

// IsNull reports whether this is the bottom head.
func (h MemoRefHead) IsNull() bool { return h.kind == headNull || len(h.tips) == 0 }

// Len returns the number of tips; 0 implies Null.
func (h MemoRefHead) Len() int { return len(h.tips) }

// Tips returns a snapshot of the current tips. Order is unspecified for
// equality purposes but stable (sorted by MemoId) for serialization.
func (h MemoRefHead) Tips() []*MemoRef {
	out := append([]*MemoRef(nil), h.tips...)
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// SubjectIDOf returns the subject id for a Subject head, and whether
// this head is in fact a Subject head.
func (h MemoRefHead) SubjectIDOf() (SubjectId, bool) {
	if h.kind == headSubject {
		return h.subjectID, true
	}
	return SubjectId{}, false
}

// MemoIds returns the MemoId of every tip.
func (h MemoRefHead) MemoIds() []MemoId {
	out := make([]MemoId, len(h.tips))
	for i, t := range h.tips {
		out[i] = t.id
	}
	return out
}

// Equal reports set equality of tip ids and head kind/subject,
// independent of tip order.
func (h MemoRefHead) Equal(other MemoRefHead) bool {
	if h.IsNull() && other.IsNull() {
		return true
	}
	if h.kind != other.kind || len(h.tips) != len(other.tips) {
		return false
	}
	if h.kind == headSubject && h.subjectID != other.subjectID {
		return false
	}
	want := make(map[MemoId]bool, len(h.tips))
	for _, t := range h.tips {
		want[t.id] = true
	}
	for _, t := range other.tips {
		if !want[t.id] {
			return false
		}
	}
	return true
}

// descends reports whether memoref a descends memoref b: a equals b, or
// a's parent head transitively contains b.
func descends(a, b *MemoRef) (bool, error) {
	if a.id == b.id {
		return true, nil
	}
	memo := a.MemoIfResident()
	if memo == nil {
		return false, ErrLineageUnknown
	}
	return headTransitivelyContains(memo.Parents, b)
}

func headTransitivelyContains(h MemoRefHead, target *MemoRef) (bool, error) {
	for _, tip := range h.tips {
		if tip.id == target.id {
			return true, nil
		}
		memo := tip.MemoIfResident()
		if memo == nil {
			return false, ErrLineageUnknown
		}
		ok, err := headTransitivelyContains(memo.Parents, target)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// DescendsOrContains reports whether h ⊒ other: every tip of `other` has
// some tip of h that descends it, or is it by set identity (the
// reflexive base case). other == Null is always descended-by-or-
// contained-in h.
func (h MemoRefHead) DescendsOrContains(other MemoRefHead) (bool, error) {
	if other.IsNull() {
		return true, nil
	}
	if h.IsNull() {
		return false, nil
	}
	for _, o := range other.tips {
		found := false
		for _, t := range h.tips {
			if t.id == o.id {
				found = true
				break
			}
			d, err := descends(t, o)
			if err != nil {
				return false, err
			}
			if d {
				found = true
				break
			}
		}
		if !found {
			return false, nil
		}
	}
	return true, nil
}

// Merge computes merge(h1, h2) = prune(tips(h1) ∪ tips(h2)), pruning any
// tip strictly descended by another tip in the union.
func Merge(h1, h2 MemoRefHead) (MemoRefHead, error) {
	if h1.IsNull() {
		return h2, nil
	}
	if h2.IsNull() {
		return h1, nil
	}

	union := dedupByID(append(append([]*MemoRef(nil), h1.tips...), h2.tips...))
	pruned, err := prune(union)
	if err != nil {
		return MemoRefHead{}, err
	}

	kind := h1.kind
	subjectID := h1.subjectID
	if kind == headNull {
		kind = h2.kind
		subjectID = h2.subjectID
	}
	if len(pruned) == 0 {
		return NullHead(), nil
	}
	return MemoRefHead{kind: kind, subjectID: subjectID, tips: pruned}, nil
}

// prune removes any element of tips that is strictly descended by
// another element of tips.
func prune(tips []*MemoRef) ([]*MemoRef, error) {
	keep := make([]*MemoRef, 0, len(tips))
	for i, t := range tips {
		dominated := false
		for j, u := range tips {
			if i == j {
				continue
			}
			d, err := descends(u, t)
			if err != nil {
				return nil, err
			}
			if d {
				dominated = true
				break
			}
		}
		if !dominated {
			keep = append(keep, t)
		}
	}
	return keep, nil
}

// Apply replaces h with merge(h, h'), reporting whether the result
// differs from h (ignoring tip order) so callers know whether to notify
// subscribers.
func (h MemoRefHead) Apply(other MemoRefHead) (result MemoRefHead, changed bool, err error) {
	merged, err := Merge(h, other)
	if err != nil {
		return MemoRefHead{}, false, err
	}
	return merged, !h.Equal(merged), nil
}

package memo

// Memo is an immutable update record. Once constructed it is never
// mutated; concurrency safety follows from immutability rather than
// locking.
type Memo struct {
	ID           MemoId
	OwningSlabID SlabId
	SubjectID    *SubjectId
	Parents      MemoRefHead
	Body         MemoBody
}

// NewMemo constructs an immutable Memo. subjectID is nil for
// peering/presence traffic that has no owning subject.
func NewMemo(id MemoId, owner SlabId, subjectID *SubjectId, parents MemoRefHead, body MemoBody) *Memo {
	return &Memo{
		ID:           id,
		OwningSlabID: owner,
		SubjectID:    subjectID,
		Parents:      parents,
		Body:         body,
	}
}

// DoesPeering reports whether this memo's body participates in the
// ordinary peering/durability policy.
func (m *Memo) DoesPeering() bool {
	if m == nil || m.Body == nil {
		return false
	}
	return m.Body.DoesPeering()
}

package view

import "github.com/unbase/unbase/memo"

// NewSubject mints a fresh subject with an empty relation/edge table.
// It satisfies index.Host without this package importing index: Go
// interface satisfaction needs no import, only a matching method set.
func (c *Context) NewSubject(stype memo.SubjectType) memo.SubjectId {
	id := c.agent.NewSubjectID(stype)
	ref := c.agent.NewMemo(&id, memo.NullHead(), memo.EmptyRelationBody())
	c.stash.SetHead(id, ref.ToHead())
	return id
}

// ApplyRelation writes a single edge slot on parent, parented on
// whatever this context currently knows as parent's head. It fails with
// a BadTarget WriteError if parent is not known to this context.
func (c *Context) ApplyRelation(parent memo.SubjectId, slot memo.RelationSlotId, target memo.RelationTarget) error {
	head := c.GetRelevantSubjectHead(parent)
	if head.IsNull() {
		return newWriteError(ErrCodeBadTarget, "parent subject not known to this context").
			WithContext("subject_id", parent.String())
	}

	body := memo.EmptyRelationBody()
	body.Edges[slot] = target
	ref := c.agent.NewMemo(&parent, head, body)
	c.stash.SetHead(parent, ref.ToHead())
	return nil
}

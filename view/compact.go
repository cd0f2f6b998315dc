package view

import "github.com/unbase/unbase/memo"

// Compact attempts to compress the present stash. For every subject
// head currently held, it projects the edge slots that head's history
// resolves to, and for each edge whose target subject the stash already
// has a fresher head for, mints a replacement Edge memo on the parent
// that re-points at that fresher head. Once a referenced subject has
// been pulled below its parent's frontier this way, that subject's own
// stash entry is retired, since the context can now reach it by
// traversing the parent instead of tracking it as an independent head.
// It reports how many subjects were rewritten.
func (c *Context) Compact() (int, error) {
	updated := 0

	for _, subjectID := range c.stash.SubjectIDs() {
		parentHead := c.stash.GetHead(subjectID)
		if parentHead.IsNull() {
			continue
		}

		changed, err := c.compactOne(subjectID, parentHead)
		if err != nil {
			return updated, err
		}
		if changed {
			updated++
		}
	}

	return updated, nil
}

// compactOne compacts a single parent head, returning whether it minted
// a replacement.
func (c *Context) compactOne(subjectID memo.SubjectId, parentHead memo.MemoRefHead) (bool, error) {
	edges, err := memo.ProjectOccupiedEdges(parentHead)
	if err != nil {
		if err == memo.ErrLineageUnknown {
			return false, nil
		}
		return false, wrapWriteError(ErrCodeOther, "compaction could not project edges", err).
			WithContext("subject_id", subjectID.String())
	}

	replacementEdges := make(map[memo.RelationSlotId]memo.RelationTarget)
	var pulled []memo.SubjectId

	for slot, edge := range edges {
		stashHead := c.stash.GetHead(edge.SubjectID)
		if stashHead.IsNull() {
			continue
		}

		descends, err := stashHead.DescendsOrContains(edge.Head)
		if err != nil {
			if err == memo.ErrLineageUnknown {
				continue
			}
			return false, wrapWriteError(ErrCodeOther, "compaction could not compare edge target", err).
				WithContext("subject_id", subjectID.String())
		}
		if !descends {
			continue
		}

		replacementEdges[slot] = memo.RelationTarget{SubjectID: edge.SubjectID, Head: stashHead}
		pulled = append(pulled, edge.SubjectID)
	}

	if len(replacementEdges) == 0 {
		return false, nil
	}

	body := memo.EmptyRelationBody()
	body.Edges = replacementEdges
	replacement := c.agent.NewMemo(&subjectID, parentHead, body)

	if _, err := c.stash.ApplyHead(subjectID, replacement.ToHead()); err != nil {
		return false, wrapWriteError(ErrCodeOther, "compaction could not apply replacement head", err).
			WithContext("subject_id", subjectID.String())
	}
	for _, pulledID := range pulled {
		c.stash.Remove(pulledID)
	}
	return true, nil
}

// CompactIfNeeded runs Compact once the stash's total tip count has
// reached cfg.CompactionThreshold, reporting the number of subjects
// rewritten.
func (c *Context) CompactIfNeeded() (int, error) {
	if c.stash.Cardinality() < c.cfg.CompactionThreshold {
		return 0, nil
	}
	return c.Compact()
}

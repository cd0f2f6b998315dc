package memo

// MaterializedView is the resolved, self-contained projection of a
// subject's current head: every field an application or the index tree
// needs to read, with no further ancestor walk required.
type MaterializedView struct {
	Values      map[string]string
	Relations   map[RelationSlotId]RelationTarget
	Edges       map[RelationSlotId]RelationTarget
	SubjectType SubjectType
}

type valueCandidate struct {
	value string
	id    MemoId
}

type relationCandidate struct {
	target RelationTarget
	id     MemoId
}

// Materialize walks the causal history reachable from head and resolves
// the subject's current field values. Where concurrent branches disagree
// on a key, the write with the larger MemoId wins as an LWW tiebreak.
// A branch's walk stops as soon as it reaches a
// FullyMaterializedBody, since compaction guarantees such a memo already
// reflects every write at or before it. Materialize returns
// ErrLineageUnknown if the walk reaches a non-resident memoref before
// every reachable branch has been resolved.
func Materialize(head MemoRefHead) (*MaterializedView, error) {
	values := make(map[string]valueCandidate)
	relations := make(map[RelationSlotId]relationCandidate)
	edges := make(map[RelationSlotId]relationCandidate)
	var subjectType SubjectType
	haveSubjectType := false

	visited := make(map[MemoId]bool)
	queue := append([]*MemoRef(nil), head.Tips()...)

	for len(queue) > 0 {
		ref := queue[0]
		queue = queue[1:]
		if visited[ref.id] {
			continue
		}
		visited[ref.id] = true

		m := ref.MemoIfResident()
		if m == nil {
			return nil, ErrLineageUnknown
		}

		truncate := false
		switch body := m.Body.(type) {
		case EditBody:
			applyValues(values, body.Values, m.ID)
		case RelationBody:
			applyRelations(relations, body.Relations, m.ID)
			applyRelations(edges, body.Edges, m.ID)
		case FullyMaterializedBody:
			applyValues(values, body.Values, m.ID)
			applyRelations(relations, body.Relations, m.ID)
			applyRelations(edges, body.Edges, m.ID)
			if !haveSubjectType {
				subjectType = body.SubjectType
				haveSubjectType = true
			}
			truncate = true
		case PartiallyMaterializedBody:
			applyValues(values, body.Values, m.ID)
			applyRelations(relations, body.Relations, m.ID)
			applyRelations(edges, body.Edges, m.ID)
		default:
			// Presence/Peering/MemoRequest bodies do not participate in a
			// subject's causal history (DoesPeering == false); encountering
			// one here would mean the head was built incorrectly.
		}

		if !truncate {
			for _, parent := range m.Parents.Tips() {
				if !visited[parent.id] {
					queue = append(queue, parent)
				}
			}
		}
	}

	view := &MaterializedView{
		Values:      make(map[string]string, len(values)),
		Relations:   make(map[RelationSlotId]RelationTarget, len(relations)),
		Edges:       make(map[RelationSlotId]RelationTarget, len(edges)),
		SubjectType: subjectType,
	}
	for k, c := range values {
		view.Values[k] = c.value
	}
	for k, c := range relations {
		view.Relations[k] = c.target
	}
	for k, c := range edges {
		view.Edges[k] = c.target
	}
	return view, nil
}

func applyValues(dst map[string]valueCandidate, src map[string]string, id MemoId) {
	for k, v := range src {
		if cur, ok := dst[k]; !ok || id > cur.id {
			dst[k] = valueCandidate{value: v, id: id}
		}
	}
}

func applyRelations(dst map[RelationSlotId]relationCandidate, src map[RelationSlotId]RelationTarget, id MemoId) {
	for k, v := range src {
		if cur, ok := dst[k]; !ok || id > cur.id {
			dst[k] = relationCandidate{target: v, id: id}
		}
	}
}

// ProjectOccupiedEdges returns the strong-descent edge slots resolved
// from head, for use by compaction when deciding which slots a fresh
// Relation memo must re-assert.
func ProjectOccupiedEdges(head MemoRefHead) (map[RelationSlotId]RelationTarget, error) {
	view, err := Materialize(head)
	if err != nil {
		return nil, err
	}
	return view.Edges, nil
}

package slab

import (
	"encoding/json"
	"fmt"

	"github.com/unbase/unbase/memo"
	"github.com/unbase/unbase/network"
	"github.com/unbase/unbase/wire"
)

// reconstituteMemo rebuilds a *memo.Memo from its wire form, admitting
// every referenced memoref (parents, relation/edge targets, peers) into
// this agent's by-id table along the way, in a single pass.
func (a *SlabAgent) reconstituteMemo(dto wire.MemoDTO, from *network.SlabRef) (*memo.Memo, error) {
	var subjectID *memo.SubjectId
	if dto.SubjectID != nil {
		sid := subjectIDFromDTO(*dto.SubjectID)
		subjectID = &sid
	}

	parents, err := a.headFromDTO(dto.Parents, subjectID)
	if err != nil {
		return nil, err
	}

	body, err := a.bodyFromDTO(dto.Kind, dto.Body, from)
	if err != nil {
		return nil, err
	}

	m := memo.NewMemo(memo.MemoId(dto.ID), memo.SlabId(dto.Owner), subjectID, parents, body)
	return m, nil
}

func (a *SlabAgent) headFromDTO(refs []wire.MemoRefDTO, subjectID *memo.SubjectId) (memo.MemoRefHead, error) {
	if len(refs) == 0 {
		return memo.NullHead(), nil
	}
	tips := make([]*memo.MemoRef, 0, len(refs))
	for _, r := range refs {
		tips = append(tips, a.memoRefFromDTO(r))
	}
	if subjectID != nil {
		return memo.NewSubjectHead(*subjectID, tips...), nil
	}
	return memo.NewAnonymousHead(tips...), nil
}

// memoRefFromDTO admits a referenced memoref into this agent's table,
// merging any peer information the sender attached, and returns the
// agent-local MemoRef (possibly already resident from earlier traffic).
func (a *SlabAgent) memoRefFromDTO(r wire.MemoRefDTO) *memo.MemoRef {
	var subjectID *memo.SubjectId
	if r.SubjectID != nil {
		sid := subjectIDFromDTO(*r.SubjectID)
		subjectID = &sid
	}
	peers := a.peerListFromDTO(r.Peers)
	ref, _ := a.AssertMemoRef(memo.MemoId(r.ID), memo.SlabId(r.Owner), subjectID, peers)
	return ref
}

func (a *SlabAgent) peerListFromDTO(peers []wire.PeerDTO) memo.PeerList {
	var pl memo.PeerList
	for _, p := range peers {
		ref := a.net.RegisterRemote(memo.SlabId(p.SlabID), addressFromDTO(p.Address))
		pl.Upsert(ref, memo.PeerStatus(p.Status))
	}
	return pl
}

func subjectIDFromDTO(d wire.SubjectIDDTO) memo.SubjectId {
	return memo.SubjectId{Stype: memo.SubjectType(d.Stype), Id: d.ID}
}

func relationMapFromDTO(a *SlabAgent, m map[uint8]wire.RelationTargetDTO) map[memo.RelationSlotId]memo.RelationTarget {
	if len(m) == 0 {
		return nil
	}
	out := make(map[memo.RelationSlotId]memo.RelationTarget, len(m))
	for k, v := range m {
		sid := subjectIDFromDTO(v.SubjectID)
		head, _ := a.headFromDTO(v.Head, &sid)
		out[memo.RelationSlotId(k)] = memo.RelationTarget{SubjectID: sid, Head: head}
	}
	return out
}

func (a *SlabAgent) bodyFromDTO(kind string, raw json.RawMessage, from *network.SlabRef) (memo.MemoBody, error) {
	switch kind {
	case wire.KindPresence:
		var d wire.PresenceBodyDTO
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, err
		}
		body := memo.SlabPresenceBody{
			Presence: memo.Presence{
				SlabID:   memo.SlabId(d.SlabID),
				Address:  addressFromDTO(d.Address),
				Lifetime: memo.Lifetime(d.Lifetime),
			},
		}
		if len(d.RootIndexSeed) > 0 {
			head, err := a.headFromDTO(d.RootIndexSeed, nil)
			if err != nil {
				return nil, err
			}
			body.RootIndexSeed = &head
		}
		return body, nil

	case wire.KindRelation:
		var d wire.RelationBodyDTO
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, err
		}
		return memo.RelationBody{
			Relations: relationMapFromDTO(a, d.Relations),
			Edges:     relationMapFromDTO(a, d.Edges),
		}, nil

	case wire.KindEdit:
		var d wire.EditBodyDTO
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, err
		}
		return memo.EditBody{Values: d.Values}, nil

	case wire.KindFullyMaterialized:
		var d wire.FullyMaterializedBodyDTO
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, err
		}
		return memo.FullyMaterializedBody{
			Values:      d.Values,
			Relations:   relationMapFromDTO(a, d.Relations),
			Edges:       relationMapFromDTO(a, d.Edges),
			SubjectType: memo.SubjectType(d.SubjectType),
		}, nil

	case wire.KindPartial:
		var d wire.PartiallyMaterializedBodyDTO
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, err
		}
		return memo.PartiallyMaterializedBody{
			Values:    d.Values,
			Relations: relationMapFromDTO(a, d.Relations),
			Edges:     relationMapFromDTO(a, d.Edges),
		}, nil

	case wire.KindPeering:
		var d wire.PeeringBodyDTO
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, err
		}
		var subjectID *memo.SubjectId
		if d.SubjectID != nil {
			sid := subjectIDFromDTO(*d.SubjectID)
			subjectID = &sid
		}
		return memo.PeeringBody{
			MemoID:    memo.MemoId(d.MemoID),
			SubjectID: subjectID,
			Peers:     a.peerListFromDTO(d.Peers),
		}, nil

	case wire.KindRequest:
		var d wire.RequestBodyDTO
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, err
		}
		ids := make([]memo.MemoId, len(d.MemoIDs))
		for i, id := range d.MemoIDs {
			ids[i] = memo.MemoId(id)
		}
		requester := a.net.RegisterRemote(memo.SlabId(d.Requester.SlabID), addressFromDTO(d.Requester.Address))
		return memo.MemoRequestBody{MemoIDs: ids, Requester: requester}, nil

	default:
		return nil, fmt.Errorf("slab: unknown wire body kind %q", kind)
	}
}

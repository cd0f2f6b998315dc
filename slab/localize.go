package slab

import (
	"fmt"

	"github.com/unbase/unbase/memo"
	"github.com/unbase/unbase/network"
	"github.com/unbase/unbase/wire"
)

// toDTO rewrites a resident memo into its wire form, addressed for
// delivery to `for_`. Peer lists embedded in the parent refs and any
// relation targets exclude for_ itself: a slab is never told its own
// status back.
func (a *SlabAgent) toDTO(ref *memo.MemoRef, for_ *network.SlabRef) (wire.MemoDTO, error) {
	m := ref.MemoIfResident()
	if m == nil {
		return wire.MemoDTO{}, fmt.Errorf("slab: cannot serialize a non-resident memoref %s", ref.ID())
	}

	dto := wire.MemoDTO{
		ID:      uint64(m.ID),
		Owner:   uint32(m.OwningSlabID),
		Parents: a.headToDTO(m.Parents, for_),
	}
	if m.SubjectID != nil {
		dto.SubjectID = subjectIDToDTO(*m.SubjectID)
	}

	kind, body, err := bodyToDTO(m.Body, for_)
	if err != nil {
		return wire.MemoDTO{}, err
	}
	dto.Kind = kind
	dto.Body = body
	return dto, nil
}

func (a *SlabAgent) headToDTO(head memo.MemoRefHead, for_ *network.SlabRef) []wire.MemoRefDTO {
	tips := head.Tips()
	out := make([]wire.MemoRefDTO, 0, len(tips))
	for _, t := range tips {
		out = append(out, memoRefToDTO(t, for_))
	}
	return out
}

func memoRefToDTO(ref *memo.MemoRef, for_ *network.SlabRef) wire.MemoRefDTO {
	var excludeHandle memo.PeerHandle
	if for_ != nil {
		excludeHandle = for_
	}
	peerList := ref.PeerListForPeer(excludeHandle)
	return wire.MemoRefDTO{
		ID:        uint64(ref.ID()),
		Owner:     uint32(ref.OwningSlabID()),
		SubjectID: optionalSubjectIDToDTO(ref.SubjectID()),
		Peers:     peerListToDTO(peerList),
	}
}

func peerListToDTO(pl memo.PeerList) []wire.PeerDTO {
	entries := pl.Entries()
	out := make([]wire.PeerDTO, 0, len(entries))
	for _, e := range entries {
		ref, ok := e.Handle.(*network.SlabRef)
		if !ok {
			continue
		}
		out = append(out, wire.PeerDTO{
			SlabID:  uint32(ref.SlabID()),
			Address: addressToDTO(ref.Address()),
			Status:  uint8(e.Status),
		})
	}
	return out
}

func subjectIDToDTO(s memo.SubjectId) *wire.SubjectIDDTO {
	return &wire.SubjectIDDTO{Stype: uint8(s.Stype), ID: s.Id}
}

func optionalSubjectIDToDTO(s *memo.SubjectId) *wire.SubjectIDDTO {
	if s == nil {
		return nil
	}
	return subjectIDToDTO(*s)
}

func addressToDTO(a memo.Address) wire.AddressDTO {
	return wire.AddressDTO{Kind: uint8(a.Kind), Remote: a.Remote}
}

func addressFromDTO(d wire.AddressDTO) memo.Address {
	return memo.Address{Kind: memo.AddressKind(d.Kind), Remote: d.Remote}
}

func relationTargetToDTO(t memo.RelationTarget, for_ *network.SlabRef) wire.RelationTargetDTO {
	return wire.RelationTargetDTO{
		SubjectID: *subjectIDToDTO(t.SubjectID),
		Head:      headSliceToDTO(t.Head, for_),
	}
}

func headSliceToDTO(head memo.MemoRefHead, for_ *network.SlabRef) []wire.MemoRefDTO {
	tips := head.Tips()
	out := make([]wire.MemoRefDTO, 0, len(tips))
	for _, t := range tips {
		out = append(out, memoRefToDTO(t, for_))
	}
	return out
}

func relationMapToDTO(m map[memo.RelationSlotId]memo.RelationTarget, for_ *network.SlabRef) map[uint8]wire.RelationTargetDTO {
	if len(m) == 0 {
		return nil
	}
	out := make(map[uint8]wire.RelationTargetDTO, len(m))
	for k, v := range m {
		out[uint8(k)] = relationTargetToDTO(v, for_)
	}
	return out
}

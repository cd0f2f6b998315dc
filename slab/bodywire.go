package slab

import (
	"encoding/json"
	"fmt"

	"github.com/unbase/unbase/memo"
	"github.com/unbase/unbase/network"
	"github.com/unbase/unbase/wire"
)

func bodyToDTO(body memo.MemoBody, for_ *network.SlabRef) (kind string, raw json.RawMessage, err error) {
	switch b := body.(type) {
	case memo.SlabPresenceBody:
		var seed []wire.MemoRefDTO
		if b.RootIndexSeed != nil {
			seed = headSliceToDTO(*b.RootIndexSeed, for_)
		}
		raw, err = json.Marshal(wire.PresenceBodyDTO{
			SlabID:        uint32(b.Presence.SlabID),
			Address:       addressToDTO(b.Presence.Address),
			Lifetime:      uint8(b.Presence.Lifetime),
			RootIndexSeed: seed,
		})
		return wire.KindPresence, raw, err

	case memo.RelationBody:
		raw, err = json.Marshal(wire.RelationBodyDTO{
			Relations: relationMapToDTO(b.Relations, for_),
			Edges:     relationMapToDTO(b.Edges, for_),
		})
		return wire.KindRelation, raw, err

	case memo.EditBody:
		raw, err = json.Marshal(wire.EditBodyDTO{Values: b.Values})
		return wire.KindEdit, raw, err

	case memo.FullyMaterializedBody:
		raw, err = json.Marshal(wire.FullyMaterializedBodyDTO{
			Values:      b.Values,
			Relations:   relationMapToDTO(b.Relations, for_),
			Edges:       relationMapToDTO(b.Edges, for_),
			SubjectType: uint8(b.SubjectType),
		})
		return wire.KindFullyMaterialized, raw, err

	case memo.PartiallyMaterializedBody:
		raw, err = json.Marshal(wire.PartiallyMaterializedBodyDTO{
			Values:    b.Values,
			Relations: relationMapToDTO(b.Relations, for_),
			Edges:     relationMapToDTO(b.Edges, for_),
		})
		return wire.KindPartial, raw, err

	case memo.PeeringBody:
		raw, err = json.Marshal(wire.PeeringBodyDTO{
			MemoID:    uint64(b.MemoID),
			SubjectID: optionalSubjectIDToDTO(b.SubjectID),
			Peers:     peerListToDTO(b.Peers),
		})
		return wire.KindPeering, raw, err

	case memo.MemoRequestBody:
		ids := make([]uint64, len(b.MemoIDs))
		for i, id := range b.MemoIDs {
			ids[i] = uint64(id)
		}
		ref, ok := b.Requester.(*network.SlabRef)
		if !ok {
			return "", nil, fmt.Errorf("slab: memo request has no transport-addressable requester")
		}
		raw, err = json.Marshal(wire.RequestBodyDTO{
			MemoIDs: ids,
			Requester: wire.PeerDTO{
				SlabID:  uint32(ref.SlabID()),
				Address: addressToDTO(ref.Address()),
			},
		})
		return wire.KindRequest, raw, err

	default:
		return "", nil, fmt.Errorf("slab: unknown memo body type %T", body)
	}
}

// Package wire defines the over-the-wire representation of a Memo and
// the Codec abstraction used to (de)serialize it. Field keys are kept
// short (i, o, s, p, k, b...) to keep the encoded form compact. JSON is
// the default codec; see DESIGN.md for why no protobuf schema is part
// of this module.
package wire

import "encoding/json"

// SubjectIDDTO is the wire form of memo.SubjectId.
type SubjectIDDTO struct {
	Stype uint8  `json:"t"`
	ID    uint64 `json:"i"`
}

// AddressDTO is the wire form of memo.Address.
type AddressDTO struct {
	Kind   uint8  `json:"k"`
	Remote string `json:"r,omitempty"`
}

// PeerDTO is the wire form of one memo.PeerEntry.
type PeerDTO struct {
	SlabID  uint32     `json:"i"`
	Address AddressDTO `json:"a"`
	Status  uint8      `json:"s"`
}

// MemoRefDTO is the wire form of a memo.MemoRef as seen from outside the
// owning slab: an id, the owner, optional subject, and whatever peers
// the sender knew about. It never carries a resident payload; the
// receiving slab decides independently whether to residentize.
type MemoRefDTO struct {
	ID        uint64        `json:"i"`
	Owner     uint32        `json:"o"`
	SubjectID *SubjectIDDTO `json:"s,omitempty"`
	Peers     []PeerDTO     `json:"p,omitempty"`
}

// MemoDTO is the wire form of a memo.Memo. Body holds the raw encoding
// of the variant named by Kind; see the Kind* constants.
type MemoDTO struct {
	ID        uint64          `json:"i"`
	Owner     uint32          `json:"o"`
	SubjectID *SubjectIDDTO   `json:"s,omitempty"`
	Parents   []MemoRefDTO    `json:"p,omitempty"`
	Kind      string          `json:"k"`
	Body      json.RawMessage `json:"b"`
}

// Body kind discriminants, matching memo.MemoBody's seven variants.
const (
	KindPresence          = "presence"
	KindRelation          = "relation"
	KindEdit              = "edit"
	KindFullyMaterialized = "full"
	KindPartial           = "partial"
	KindPeering           = "peering"
	KindRequest           = "request"
)

// Codec (de)serializes MemoDTO to and from bytes. Kept as an interface
// so an alternate codec can be swapped in without touching package slab.
type Codec interface {
	Encode(dto MemoDTO) ([]byte, error)
	Decode(data []byte) (MemoDTO, error)
}

// JSONCodec is the default Codec.
type JSONCodec struct{}

func (JSONCodec) Encode(dto MemoDTO) ([]byte, error) { return json.Marshal(dto) }

func (JSONCodec) Decode(data []byte) (MemoDTO, error) {
	var dto MemoDTO
	err := json.Unmarshal(data, &dto)
	return dto, err
}

package wire

// PresenceBodyDTO is the wire form of memo.SlabPresenceBody.
type PresenceBodyDTO struct {
	SlabID        uint32        `json:"i"`
	Address       AddressDTO    `json:"a"`
	Lifetime      uint8         `json:"l"`
	RootIndexSeed []MemoRefDTO  `json:"r,omitempty"`
}

// RelationTargetDTO is the wire form of memo.RelationTarget.
type RelationTargetDTO struct {
	SubjectID SubjectIDDTO `json:"s"`
	Head      []MemoRefDTO `json:"h"`
}

// RelationBodyDTO is the wire form of memo.RelationBody.
type RelationBodyDTO struct {
	Relations map[uint8]RelationTargetDTO `json:"r,omitempty"`
	Edges     map[uint8]RelationTargetDTO `json:"e,omitempty"`
}

// EditBodyDTO is the wire form of memo.EditBody.
type EditBodyDTO struct {
	Values map[string]string `json:"v"`
}

// FullyMaterializedBodyDTO is the wire form of memo.FullyMaterializedBody.
type FullyMaterializedBodyDTO struct {
	Values      map[string]string           `json:"v,omitempty"`
	Relations   map[uint8]RelationTargetDTO `json:"r,omitempty"`
	Edges       map[uint8]RelationTargetDTO `json:"e,omitempty"`
	SubjectType uint8                       `json:"t"`
}

// PartiallyMaterializedBodyDTO is the wire form of memo.PartiallyMaterializedBody.
type PartiallyMaterializedBodyDTO struct {
	Values    map[string]string           `json:"v,omitempty"`
	Relations map[uint8]RelationTargetDTO `json:"r,omitempty"`
	Edges     map[uint8]RelationTargetDTO `json:"e,omitempty"`
}

// PeeringBodyDTO is the wire form of memo.PeeringBody.
type PeeringBodyDTO struct {
	MemoID    uint64       `json:"i"`
	SubjectID *SubjectIDDTO `json:"s,omitempty"`
	Peers     []PeerDTO    `json:"p,omitempty"`
}

// RequestBodyDTO is the wire form of memo.MemoRequestBody.
type RequestBodyDTO struct {
	MemoIDs   []uint64 `json:"m"`
	Requester PeerDTO  `json:"r"`
}

package memo

// RelationSlotId names a slot in a subject's relation/edge table. The
// fixed-fanout index (package index) addresses slots 0..SubjectMaxSlots-1.
type RelationSlotId uint8

// SubjectMaxSlots bounds the fanout of a single subject's relation/edge
// table.
const SubjectMaxSlots = 256

// RelationTarget is one named-slot reference to another subject's head.
type RelationTarget struct {
	SubjectID SubjectId
	Head      MemoRefHead
}

// MemoBody is a closed tagged union over the seven memo payload kinds.
// Implementations are exhaustively matched with a type switch (Go's
// equivalent of Rust's pattern matching) rather than dynamic dispatch,
// except DoesPeering which every variant must answer.
type MemoBody interface {
	// DoesPeering reports whether memos of this kind participate in the
	// ordinary peering/durability-by-replication policy. Infrastructure
	// bodies (presence, peering, requests) do not; data-bearing bodies do.
	DoesPeering() bool
	memoBody()
}

// SlabPresenceBody is a liveness beacon. A non-nil RootIndexSeed
// advertises the sender's known root index head (single-assignment on
// the receiving network).
type SlabPresenceBody struct {
	Presence      Presence
	RootIndexSeed *MemoRefHead
}

func (SlabPresenceBody) DoesPeering() bool { return false }
func (SlabPresenceBody) memoBody()         {}

// RelationBody updates named-slot relationships. Relations carries weak,
// by-reference links; Edges carries strong-descent links used for index
// tree structure. A single Relation memo may populate either or both
// maps; compaction mints one that populates only Edges.
type RelationBody struct {
	Relations map[RelationSlotId]RelationTarget
	Edges     map[RelationSlotId]RelationTarget
}

func (RelationBody) DoesPeering() bool { return true }
func (RelationBody) memoBody()         {}

// EmptyRelationBody returns a RelationBody with both maps initialized
// and empty, ready for incremental population.
func EmptyRelationBody() RelationBody {
	return RelationBody{
		Relations: make(map[RelationSlotId]RelationTarget),
		Edges:     make(map[RelationSlotId]RelationTarget),
	}
}

// EditBody mutates scalar fields of the owning subject.
type EditBody struct {
	Values map[string]string
}

func (EditBody) DoesPeering() bool { return true }
func (EditBody) memoBody()         {}

// FullyMaterializedBody is a self-contained snapshot of an object: no
// ancestor walk is needed to resolve its fields.
type FullyMaterializedBody struct {
	Values      map[string]string
	Relations   map[RelationSlotId]RelationTarget
	Edges       map[RelationSlotId]RelationTarget
	SubjectType SubjectType
}

func (FullyMaterializedBody) DoesPeering() bool { return true }
func (FullyMaterializedBody) memoBody()         {}

// PartiallyMaterializedBody is a snapshot missing some fields, used as a
// compaction optimization: it still truncates the ancestor walk for the
// fields it does carry.
type PartiallyMaterializedBody struct {
	Values    map[string]string
	Relations map[RelationSlotId]RelationTarget
	Edges     map[RelationSlotId]RelationTarget
}

func (PartiallyMaterializedBody) DoesPeering() bool { return true }
func (PartiallyMaterializedBody) memoBody()         {}

// PeeringBody carries metadata about who holds some other memo.
type PeeringBody struct {
	MemoID    MemoId
	SubjectID *SubjectId
	Peers     PeerList
}

func (PeeringBody) DoesPeering() bool { return false }
func (PeeringBody) memoBody()         {}

// MemoRequestBody is a pull request for missing memos.
type MemoRequestBody struct {
	MemoIDs   []MemoId
	Requester PeerHandle
}

func (MemoRequestBody) DoesPeering() bool { return false }
func (MemoRequestBody) memoBody()         {}

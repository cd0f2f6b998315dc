package slab

import "github.com/unbase/unbase/memo"

// Subscriber receives subject head updates from a SlabAgent. It is
// implemented by view.Context; slab never imports view, matching the
// memo.PeerHandle pattern used to keep package memo free of network.
//
// Closed substitutes Rust's Weak<Context> + Drop: Go has no destructor
// hook, so instead of holding a weak pointer and discovering a dead
// context on upgrade failure, the agent holds a strong reference and
// asks the subscriber to self-report liveness lazily, on dispatch.
type Subscriber interface {
	ApplySubjectHead(subject memo.SubjectId, head memo.MemoRefHead)
	Closed() bool
}

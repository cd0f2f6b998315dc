package slab

import (
	"sync"

	"github.com/unbase/unbase/memo"
)

// counters tracks per-agent admission statistics: how many memos this
// agent has reconstituted from the wire, how many of those it already
// held a memoref for, and the most recent memo/subject ids it has seen.
// Only remote reconstitution (Receive) advances these; locally-minted
// memos (NewMemo) do not, since they were never "received".
type counters struct {
	mu                       sync.Mutex
	memosReceived            uint64
	memosRedundantlyReceived uint64
	lastMemoID               memo.MemoId
	lastSubjectID            memo.SubjectId
}

// recordReceive advances the counters for one remote reconstitution.
// existed reports whether this agent already held a memoref for id
// before the admission that triggered this call.
func (c *counters) recordReceive(id memo.MemoId, subjectID *memo.SubjectId, existed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.memosReceived++
	if existed {
		c.memosRedundantlyReceived++
	}
	c.lastMemoID = id
	if subjectID != nil {
		c.lastSubjectID = *subjectID
	}
}

// MemosReceived returns the count of memos this agent has reconstituted
// from the wire, redundant or not.
func (a *SlabAgent) MemosReceived() uint64 {
	a.counters.mu.Lock()
	defer a.counters.mu.Unlock()
	return a.counters.memosReceived
}

// MemosRedundantlyReceived returns the count of reconstitutions that
// admitted a memo id this agent already held a memoref for.
func (a *SlabAgent) MemosRedundantlyReceived() uint64 {
	a.counters.mu.Lock()
	defer a.counters.mu.Unlock()
	return a.counters.memosRedundantlyReceived
}

// LastMemoID returns the id of the most recently received memo.
func (a *SlabAgent) LastMemoID() memo.MemoId {
	a.counters.mu.Lock()
	defer a.counters.mu.Unlock()
	return a.counters.lastMemoID
}

// LastSubjectID returns the subject id of the most recently received
// memo that carried one.
func (a *SlabAgent) LastSubjectID() memo.SubjectId {
	a.counters.mu.Lock()
	defer a.counters.mu.Unlock()
	return a.counters.lastSubjectID
}

// Package view implements the session-facing half of the system: Stash,
// a per-session monotonic view over subject heads, and Context. It is
// named view rather than "context" to avoid shadowing the standard
// library's context package, which every blocking operation in this
// package also takes.
package view

import (
	"sync"

	"github.com/unbase/unbase/memo"
)

// Stash is a per-session cache of subject heads: the tips this session
// has observed for each subject it has touched, merged monotonically as
// new knowledge arrives. It never shrinks except through compaction,
// which replaces tips with a fresher, equivalent frontier.
type Stash struct {
	mu    sync.RWMutex
	heads map[memo.SubjectId]memo.MemoRefHead
}

// NewStash returns an empty stash.
func NewStash() *Stash {
	return &Stash{heads: make(map[memo.SubjectId]memo.MemoRefHead)}
}

// GetHead returns the currently known head for a subject, or the Null
// head if this stash has never observed it.
func (s *Stash) GetHead(subject memo.SubjectId) memo.MemoRefHead {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.heads[subject]
}

// ApplyHead merges incoming into the stash's knowledge of subject,
// reporting whether the stash's head actually changed.
func (s *Stash) ApplyHead(subject memo.SubjectId, incoming memo.MemoRefHead) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.heads[subject]
	merged, changed, err := current.Apply(incoming)
	if err != nil {
		return false, err
	}
	if changed {
		s.heads[subject] = merged
	}
	return changed, nil
}

// SetHead overwrites a subject's head outright, bypassing merge. Used by
// Context after it mints a memo parented on the stored head, or after
// it resolves a head already merged with the stored one.
func (s *Stash) SetHead(subject memo.SubjectId, head memo.MemoRefHead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heads[subject] = head
}

// Remove drops a subject's entry entirely. Used by compaction to retire
// a subject once it has been pulled below another subject's frontier,
// so this stash no longer tracks it as an independent top-level head.
func (s *Stash) Remove(subject memo.SubjectId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.heads, subject)
}

// SubjectIDs returns every subject this stash currently holds a
// non-null head for.
func (s *Stash) SubjectIDs() []memo.SubjectId {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]memo.SubjectId, 0, len(s.heads))
	for id, h := range s.heads {
		if !h.IsNull() {
			out = append(out, id)
		}
	}
	return out
}

// Cardinality returns the total number of memoref tips held across every
// subject, the quantity compaction exists to bound.
func (s *Stash) Cardinality() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, h := range s.heads {
		n += h.Len()
	}
	return n
}

// headsSnapshot returns a shallow copy of every subject head currently
// held, for callers (e.g. HackSendContext) that need to iterate outside
// the stash's own lock.
func (s *Stash) headsSnapshot() map[memo.SubjectId]memo.MemoRefHead {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[memo.SubjectId]memo.MemoRefHead, len(s.heads))
	for id, h := range s.heads {
		out[id] = h
	}
	return out
}

// ConciseContents summarizes the stash as subject -> tip count, for
// diagnostics and tests.
func (s *Stash) ConciseContents() map[memo.SubjectId]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[memo.SubjectId]int, len(s.heads))
	for id, h := range s.heads {
		out[id] = h.Len()
	}
	return out
}

// Package memo implements the immutable memo graph and causal head
// algebra: Memo, MemoRef, and MemoRefHead.
package memo

import "fmt"

// SlabId is a node identifier assigned by the network on registration.
type SlabId uint32

// MemoId is globally unique without coordination: the high 32 bits are
// the owning slab id, the low 32 bits are a slab-local monotonically
// increasing counter.
type MemoId uint64

// NewMemoId builds a MemoId from an owning slab and its local counter.
func NewMemoId(owner SlabId, counter uint32) MemoId {
	return MemoId(uint64(owner)<<32 | uint64(counter))
}

// OwningSlab returns the slab id embedded in the high 32 bits.
func (m MemoId) OwningSlab() SlabId {
	return SlabId(uint64(m) >> 32)
}

// Counter returns the slab-local counter embedded in the low 32 bits.
func (m MemoId) Counter() uint32 {
	return uint32(m)
}

func (m MemoId) String() string {
	return fmt.Sprintf("Memo(%d.%d)", m.OwningSlab(), m.Counter())
}

// SubjectType distinguishes index-tree nodes from ordinary records. It
// is the type tag carried by a SubjectId alongside its numeric id.
type SubjectType uint8

const (
	// IndexNode subjects are internal fixed-fanout index tree nodes.
	IndexNode SubjectType = iota
	// Record subjects are ordinary application objects.
	Record
)

func (t SubjectType) String() string {
	switch t {
	case IndexNode:
		return "IndexNode"
	case Record:
		return "Record"
	default:
		return "Unknown"
	}
}

// SubjectId identifies an object's causal history. It carries the same
// globally-unique construction as MemoId plus a type tag.
type SubjectId struct {
	Stype SubjectType
	Id    uint64
}

// NewSubjectId builds a SubjectId from an owning slab and local counter.
func NewSubjectId(stype SubjectType, owner SlabId, counter uint32) SubjectId {
	return SubjectId{Stype: stype, Id: uint64(owner)<<32 | uint64(counter)}
}

func (s SubjectId) String() string {
	return fmt.Sprintf("Subject(%s:%d.%d)", s.Stype, uint32(s.Id>>32), uint32(s.Id))
}

package memo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testSubjectID() SubjectId {
	return NewSubjectId(Record, 1, 1)
}

func mkMemo(t *testing.T, id MemoId, parents MemoRefHead, body MemoBody) *MemoRef {
	t.Helper()
	sid := testSubjectID()
	m := NewMemo(id, id.OwningSlab(), &sid, parents, body)
	return NewResidentMemoRef(m, PeerList{})
}

func TestHeadMergeIdempotent(t *testing.T) {
	r1 := mkMemo(t, NewMemoId(1, 1), NullHead(), EditBody{Values: map[string]string{"a": "1"}})
	h := NewSubjectHead(testSubjectID(), r1)

	merged, err := Merge(h, h)
	require.NoError(t, err)
	require.True(t, merged.Equal(h), "merge(h, h) should equal h")
}

func TestHeadMergeCommutative(t *testing.T) {
	r1 := mkMemo(t, NewMemoId(1, 1), NullHead(), EditBody{Values: map[string]string{"a": "1"}})
	r2 := mkMemo(t, NewMemoId(1, 2), NullHead(), EditBody{Values: map[string]string{"b": "2"}})
	h1 := NewSubjectHead(testSubjectID(), r1)
	h2 := NewSubjectHead(testSubjectID(), r2)

	ab, err := Merge(h1, h2)
	if err != nil {
		t.Fatalf("merge ab: %v", err)
	}
	ba, err := Merge(h2, h1)
	if err != nil {
		t.Fatalf("merge ba: %v", err)
	}
	if !ab.Equal(ba) {
		t.Fatalf("merge should be commutative: %v vs %v", ab.MemoIds(), ba.MemoIds())
	}
	if ab.Len() != 2 {
		t.Fatalf("expected 2 concurrent tips, got %d", ab.Len())
	}
}

func TestHeadMergePrunesAncestor(t *testing.T) {
	root := mkMemo(t, NewMemoId(1, 1), NullHead(), EditBody{Values: map[string]string{"a": "1"}})
	rootHead := NewSubjectHead(testSubjectID(), root)
	child := mkMemo(t, NewMemoId(1, 2), rootHead, EditBody{Values: map[string]string{"a": "2"}})
	childHead := NewSubjectHead(testSubjectID(), child)

	merged, err := Merge(rootHead, childHead)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if merged.Len() != 1 {
		t.Fatalf("expected ancestor to be pruned, got %d tips", merged.Len())
	}
	if merged.MemoIds()[0] != child.id {
		t.Fatalf("expected surviving tip to be the child")
	}
}

func TestHeadDescendsOrContainsNullIsBottom(t *testing.T) {
	r1 := mkMemo(t, NewMemoId(1, 1), NullHead(), EditBody{Values: map[string]string{"a": "1"}})
	h := NewSubjectHead(testSubjectID(), r1)

	ok, err := h.DescendsOrContains(NullHead())
	if err != nil || !ok {
		t.Fatalf("every head should descend-or-contain Null, got ok=%v err=%v", ok, err)
	}

	ok, err = NullHead().DescendsOrContains(h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("Null should not descend-or-contain a non-null head")
	}
}

func TestHeadUnknownLineageOnRemoteParent(t *testing.T) {
	sid := testSubjectID()
	remote := NewRemoteMemoRef(NewMemoId(2, 1), 2, &sid, PeerList{})
	remoteHead := NewSubjectHead(sid, remote)
	child := mkMemo(t, NewMemoId(1, 1), remoteHead, EditBody{Values: map[string]string{"a": "1"}})
	childHead := NewSubjectHead(sid, child)

	// Deciding whether child descends a memo its parent head does not
	// name directly means walking through the remote parent's payload.
	unrelated := NewRemoteMemoRef(NewMemoId(3, 1), 3, &sid, PeerList{})
	_, err := childHead.DescendsOrContains(NewSubjectHead(sid, unrelated))
	if err != ErrLineageUnknown {
		t.Fatalf("expected ErrLineageUnknown, got %v", err)
	}
}

func TestMemoRefRemotizeRequiresPeers(t *testing.T) {
	r := mkMemo(t, NewMemoId(1, 1), NullHead(), EditBody{Values: map[string]string{"a": "1"}})
	if err := r.Remotize(); err != ErrZeroPeers {
		t.Fatalf("expected ErrZeroPeers, got %v", err)
	}
	if !r.IsResident() {
		t.Fatalf("failed remotize must leave the memoref resident")
	}
}

func TestMemoRefResidentizeIdempotent(t *testing.T) {
	sid := testSubjectID()
	id := NewMemoId(1, 1)
	ref := NewRemoteMemoRef(id, 1, &sid, PeerList{})
	m := NewMemo(id, 1, &sid, NullHead(), EditBody{Values: map[string]string{"a": "1"}})

	if !ref.Residentize(m) {
		t.Fatalf("first residentize should succeed")
	}
	if ref.Residentize(m) {
		t.Fatalf("second residentize should be a no-op returning false")
	}
}

func TestMaterializeLWWTiebreak(t *testing.T) {
	sid := testSubjectID()
	root := mkMemo(t, NewMemoId(1, 1), NullHead(), EditBody{Values: map[string]string{"a": "1"}})
	rootHead := NewSubjectHead(sid, root)

	left := mkMemo(t, NewMemoId(1, 2), rootHead, EditBody{Values: map[string]string{"a": "left"}})
	right := mkMemo(t, NewMemoId(1, 3), rootHead, EditBody{Values: map[string]string{"a": "right"}})

	merged, err := Merge(NewSubjectHead(sid, left), NewSubjectHead(sid, right))
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	view, err := Materialize(merged)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if view.Values["a"] != "right" {
		t.Fatalf("expected larger MemoId (right) to win LWW, got %q", view.Values["a"])
	}
}

func TestMaterializeTruncatesAtFullyMaterialized(t *testing.T) {
	sid := testSubjectID()
	snapshot := mkMemo(t, NewMemoId(1, 5), NullHead(), FullyMaterializedBody{
		Values:      map[string]string{"a": "snapshot"},
		SubjectType: Record,
	})
	snapshotHead := NewSubjectHead(sid, snapshot)
	edit := mkMemo(t, NewMemoId(1, 6), snapshotHead, EditBody{Values: map[string]string{"b": "2"}})

	view, err := Materialize(NewSubjectHead(sid, edit))
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if view.Values["a"] != "snapshot" || view.Values["b"] != "2" {
		t.Fatalf("unexpected materialized values: %#v", view.Values)
	}
}

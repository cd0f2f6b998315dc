package view

import (
	"testing"

	"github.com/unbase/unbase/memo"
	"github.com/unbase/unbase/network"
	"github.com/unbase/unbase/slab"
)

func newTestContext(t *testing.T) (*Context, *network.Network) {
	t.Helper()
	net := network.NewNetwork(network.NewSimulatorTransport(nil))
	agent := slab.NewSlabAgent(net, memo.SimulatorAddress(), slab.DefaultConfig(), nil)
	ctx := NewContext(agent, net, DefaultConfig(), nil)
	return ctx, net
}

func TestAddTestSubjectThenGet(t *testing.T) {
	ctx, _ := newTestContext(t)

	id := ctx.AddTestSubject(memo.Record, map[string]string{"name": "alice"})

	v, err := ctx.GetSubjectByID(id)
	if err != nil {
		t.Fatalf("get subject: %v", err)
	}
	if v.Values["name"] != "alice" {
		t.Fatalf("unexpected values: %#v", v.Values)
	}
}

func TestGetSubjectByIDUnknownSubject(t *testing.T) {
	ctx, _ := newTestContext(t)
	unknown := memo.NewSubjectId(memo.Record, 77, 1)

	v, err := ctx.GetSubjectByID(unknown)
	if err != nil {
		t.Fatalf("expected no error resolving an unknown subject, got %v", err)
	}
	if v != nil {
		t.Fatalf("expected a nil view for an unknown subject, got %#v", v)
	}
}

func TestCompactPullsReferencedSubjectsBelowFrontier(t *testing.T) {
	ctx, _ := newTestContext(t)

	a := ctx.AddTestSubject(memo.Record, map[string]string{"name": "a"})
	b := ctx.AddTestSubject(memo.Record, map[string]string{"name": "b"})

	root := ctx.agentForTest().NewSubjectID(memo.Record)
	rootBody := memo.EmptyRelationBody()
	rootBody.Edges[0] = memo.RelationTarget{SubjectID: a, Head: ctx.GetRelevantSubjectHead(a)}
	rootBody.Edges[1] = memo.RelationTarget{SubjectID: b, Head: ctx.GetRelevantSubjectHead(b)}
	rootRef := ctx.agentForTest().NewMemo(&root, memo.NullHead(), rootBody)
	ctx.stash.SetHead(root, rootRef.ToHead())

	// Advance a and b independently, so the stash now knows a head for
	// each that is strictly fresher than what root's edges recorded.
	aAdvanced := ctx.agentForTest().NewMemo(&a, ctx.GetRelevantSubjectHead(a), memo.EditBody{Values: map[string]string{"name": "a2"}})
	ctx.stash.SetHead(a, aAdvanced.ToHead())
	bAdvanced := ctx.agentForTest().NewMemo(&b, ctx.GetRelevantSubjectHead(b), memo.EditBody{Values: map[string]string{"name": "b2"}})
	ctx.stash.SetHead(b, bAdvanced.ToHead())

	if got := len(ctx.stash.SubjectIDs()); got != 3 {
		t.Fatalf("expected 3 tracked subjects before compaction, got %d", got)
	}

	updated, err := ctx.Compact()
	if err != nil {
		t.Fatalf("compact: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected compaction to rewrite exactly 1 subject (root), got %d", updated)
	}

	if got := len(ctx.stash.SubjectIDs()); got != 1 {
		t.Fatalf("expected compaction to collapse the stash to 1 subject, got %d", got)
	}
	if _, ok := ctx.stash.ConciseContents()[root]; !ok {
		t.Fatalf("expected root to remain in the stash after compaction")
	}
}

func TestHackSendContextCopiesStash(t *testing.T) {
	ctx, net := newTestContext(t)
	id := ctx.AddTestSubject(memo.Record, map[string]string{"a": "1"})

	other := NewContext(ctx.agentForTest(), net, DefaultConfig(), nil)
	if _, err := ctx.HackSendContext(other); err != nil {
		t.Fatalf("hack send context: %v", err)
	}

	v, err := other.GetSubjectByID(id)
	if err != nil {
		t.Fatalf("get subject on receiving context: %v", err)
	}
	if v.Values["a"] != "1" {
		t.Fatalf("unexpected values: %#v", v.Values)
	}
}

func TestIsFullyMaterialized(t *testing.T) {
	ctx, _ := newTestContext(t)
	id := ctx.AddTestSubject(memo.Record, map[string]string{"a": "1"})

	if !ctx.IsFullyMaterialized(id) {
		t.Fatalf("expected a freshly written local subject to be resolvable")
	}
}

// agentForTest exposes the private agent field to same-package tests.
func (c *Context) agentForTest() *slab.SlabAgent { return c.agent }

package view

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/unbase/unbase/index"
	"github.com/unbase/unbase/memo"
	"github.com/unbase/unbase/network"
	"github.com/unbase/unbase/slab"
)

// Context is a session's monotonic view over the memo graph: it
// subscribes to every subject it reads through GetSubjectByID,
// accumulates heads in a Stash,
// and resolves application-facing reads by materializing that stash
// against the owning slab's wider knowledge.
//
// It implements slab.Subscriber so SlabAgent can dispatch updates to it
// without importing this package.
type Context struct {
	SessionID uuid.UUID

	agent *slab.SlabAgent
	net   *network.Network
	cfg   Config
	log   *slog.Logger

	stash *Stash

	mu         sync.RWMutex
	subscribed map[memo.SubjectId]bool
	closed     bool
}

// NewContext opens a new session against agent.
func NewContext(agent *slab.SlabAgent, net *network.Network, cfg Config, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.Default()
	}
	sessionID := uuid.New()
	return &Context{
		SessionID:  sessionID,
		agent:      agent,
		net:        net,
		cfg:        cfg,
		log:        logger.With("session_id", sessionID.String()),
		stash:      NewStash(),
		subscribed: make(map[memo.SubjectId]bool),
	}
}

// ApplySubjectHead implements slab.Subscriber.
func (c *Context) ApplySubjectHead(subject memo.SubjectId, head memo.MemoRefHead) {
	if _, err := c.stash.ApplyHead(subject, head); err != nil {
		c.log.Warn("dropped subject head update with unknown lineage", "subject", subject.String(), "error", err)
	}
}

// Closed implements slab.Subscriber.
func (c *Context) Closed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Close marks this session closed; the owning agent will prune it from
// its subscriber lists lazily, on the next dispatch to a subscribed
// subject.
func (c *Context) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *Context) ensureSubscribed(id memo.SubjectId) {
	c.mu.Lock()
	if c.subscribed[id] {
		c.mu.Unlock()
		return
	}
	c.subscribed[id] = true
	c.mu.Unlock()
	c.agent.Subscribe(id, c)
}

// GetRelevantSubjectHead returns the best head this context currently
// knows for subject: the merge of its own stash with whatever the
// owning agent has learned, even if this context never subscribed.
func (c *Context) GetRelevantSubjectHead(id memo.SubjectId) memo.MemoRefHead {
	stashed := c.stash.GetHead(id)
	merged, _, err := stashed.Apply(c.agent.SubjectHead(id))
	if err != nil {
		return stashed
	}
	return merged
}

// GetSubjectByID resolves the current materialized state of a subject,
// subscribing this context to future updates and requesting any missing
// ancestors from peers as needed. It returns (nil, nil), not an error,
// when neither this context's stash nor the owning agent holds a head
// for the subject, including when the root index lists the subject.
func (c *Context) GetSubjectByID(id memo.SubjectId) (*memo.MaterializedView, error) {
	if c.Closed() {
		return nil, newRetrieveError(ErrCodeSubjectNotFound, "context is closed")
	}
	c.ensureSubscribed(id)

	head := c.resolveSubjectHead(id)
	if head.IsNull() {
		return nil, nil
	}

	view, err := c.resolveMaterialization(head)
	if err != nil {
		return nil, err
	}
	c.stash.SetHead(id, head)
	return view, nil
}

// resolveSubjectHead resolves id's head from the stash or the owning
// agent. When neither has it, it looks the subject's numeric id up in
// the network-wide root index; the index stores subject ids, not heads,
// so a hit only leads to a second stash/agent lookup, and the result is
// still the Null head if that lookup finds nothing.
func (c *Context) resolveSubjectHead(id memo.SubjectId) memo.MemoRefHead {
	if head := c.GetRelevantSubjectHead(id); !head.IsNull() {
		return head
	}

	rootHead, ok := c.TryRootIndex()
	if !ok {
		return memo.NullHead()
	}
	rootSubjectID, ok := rootHead.SubjectIDOf()
	if !ok {
		return memo.NullHead()
	}

	if _, found := index.Open(c, rootSubjectID, index.DefaultDepth).Get(id.Id); !found {
		return memo.NullHead()
	}
	return c.GetRelevantSubjectHead(id)
}

// resolveMaterialization materializes head, requesting any non-resident
// ancestor memos from their known peers and retrying with bounded
// backoff until either it succeeds or cfg.RootIndexWaitTimeout elapses.
func (c *Context) resolveMaterialization(head memo.MemoRefHead) (*memo.MaterializedView, error) {
	deadline := time.Now().Add(c.cfg.RootIndexWaitTimeout)
	for {
		view, err := memo.Materialize(head)
		if err == nil {
			return view, nil
		}
		if err != memo.ErrLineageUnknown {
			return nil, wrapRetrieveError(ErrCodeMemoLineageError, "materialize failed", err)
		}
		if time.Now().After(deadline) {
			return nil, wrapRetrieveError(ErrCodeMemoLineageError, "gave up waiting for non-resident ancestors", err)
		}
		c.requestMissingAncestors(head)
		time.Sleep(c.cfg.RootIndexPollInterval)
	}
}

func (c *Context) requestMissingAncestors(head memo.MemoRefHead) {
	for _, tip := range head.Tips() {
		if tip.IsResident() {
			continue
		}
		peers := tip.PeerList().Entries()
		if len(peers) == 0 {
			continue
		}
		if ref, ok := peers[0].Handle.(*network.SlabRef); ok {
			if err := c.agent.RequestMemo(tip.ID(), ref); err != nil {
				c.log.Debug("ancestor request failed", "memo_id", tip.ID().String(), "error", err)
			}
		}
	}
}

// IsFullyMaterialized reports whether this context can currently resolve
// subject without crossing any non-resident memoref. Defined
// pragmatically as "materialize succeeds", since that is the only
// observable distinction an application can act on: whether a true
// FullyMaterializedBody snapshot anchors the chain is an internal
// compaction detail the caller cannot otherwise observe.
func (c *Context) IsFullyMaterialized(id memo.SubjectId) bool {
	head := c.GetRelevantSubjectHead(id)
	if head.IsNull() {
		return false
	}
	_, err := memo.Materialize(head)
	return err == nil
}

// AddTestSubject mints a fresh subject with an initial Edit body,
// registers it in this context's stash, and returns its id. It exists
// for tests and demos that need a subject without going through an
// application-level write path.
func (c *Context) AddTestSubject(stype memo.SubjectType, values map[string]string) memo.SubjectId {
	id := c.agent.NewSubjectID(stype)
	ref := c.agent.NewMemo(&id, memo.NullHead(), memo.EditBody{Values: values})
	c.stash.SetHead(id, ref.ToHead())
	return id
}

// HackSendContext compacts this context, then copies every subject head
// it has accumulated into target's stash, simulating an out-of-band
// transfer of session state (e.g. a UI handing a reader context to a
// worker). It returns the number of memoref tips copied. Exists purely
// for tests and demos.
func (c *Context) HackSendContext(target *Context) (int, error) {
	if _, err := c.Compact(); err != nil {
		return 0, err
	}

	count := 0
	for id, head := range c.stash.headsSnapshot() {
		count += head.Len()
		if _, err := target.stash.ApplyHead(id, head); err != nil {
			target.log.Debug("hack_send_context dropped a subject with unknown lineage", "subject", id.String(), "error", err)
		}
	}
	return count, nil
}

// TryRootIndex returns the network-wide root index seed if one has been
// observed yet, without blocking.
func (c *Context) TryRootIndex() (memo.MemoRefHead, bool) {
	return c.net.RootIndexSeed()
}

// RootIndex blocks, polling at cfg.RootIndexPollInterval, until the root
// index seed is observed or ctx/the configured timeout expires.
func (c *Context) RootIndex(ctx context.Context) (memo.MemoRefHead, error) {
	deadline := time.Now().Add(c.cfg.RootIndexWaitTimeout)
	ticker := time.NewTicker(c.cfg.RootIndexPollInterval)
	defer ticker.Stop()

	for {
		if head, ok := c.TryRootIndex(); ok {
			return head, nil
		}
		if time.Now().After(deadline) {
			return memo.MemoRefHead{}, newRetrieveError(ErrCodeRootIndexTimeout, "root index not seeded within timeout")
		}
		select {
		case <-ctx.Done():
			return memo.MemoRefHead{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

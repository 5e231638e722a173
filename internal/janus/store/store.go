// Package store holds the concurrent in-memory index: tickets, plans,
// docs, and their embedding vectors, kept in sync with the filesystem by
// the locator/hooks layer on the write side and the watcher package on the
// observation side.
package store

import (
	"sync"

	"github.com/janus-md/janus/internal/janus/doc"
	"github.com/janus-md/janus/internal/janus/hooks"
	"github.com/janus-md/janus/internal/janus/plan"
	"github.com/janus-md/janus/internal/janus/ticket"
)

// Store is the process-wide in-memory index. Reads take an RLock and
// return directly; writes take a Lock for the duration of the map
// mutation only, so readers never block on other readers and a write to
// one key does not require excluding readers of other keys beyond the
// brief window needed to swap the map entry.
type Store struct {
	root string

	mu      sync.RWMutex
	tickets map[string]*ticket.Ticket
	plans   map[string]*plan.Plan
	docs    map[string]*doc.Doc

	embMu      sync.RWMutex
	embeddings map[string][]float32

	subMu       sync.Mutex
	subscribers map[uint64]*subscription
	nextSubID   uint64

	hookRunner *hooks.Runner
}

// Event describes one coalesced batch of changes for broadcast to
// subscribers.
type Event struct {
	TicketsChanged bool
	PlansChanged   bool
	ChangedIDs     []string
}

type subscription struct {
	ch chan Event
}

// New constructs an empty Store rooted at root.
func New(root string) *Store {
	return &Store{
		root:        root,
		tickets:     make(map[string]*ticket.Ticket),
		plans:       make(map[string]*plan.Plan),
		docs:        make(map[string]*doc.Doc),
		embeddings:  make(map[string][]float32),
		subscribers: make(map[uint64]*subscription),
	}
}

// Root returns the store's configured root directory.
func (s *Store) Root() string { return s.root }

// SetHookRunner attaches the runner used to fire pre/post lifecycle hooks
// around scoped writes. A nil runner (the default) disables hooks
// entirely rather than erroring, matching their opt-in nature.
func (s *Store) SetHookRunner(r *hooks.Runner) {
	s.hookRunner = r
}

// runPreHook fires the pre-hook for hctx.Event if a matching script
// exists under <root>/hooks/, named after the event
// (e.g. "pre_create"). A script that is missing or fails to resolve
// cleanly (hooks.HasScript reports false) is a no-op; a failing run,
// such as a non-zero exit or a timeout, aborts the caller's write.
func (s *Store) runPreHook(hctx hooks.Context) error {
	if s.hookRunner == nil {
		return nil
	}
	scriptName := string(hctx.Event)
	if !hooks.HasScript(s.root, scriptName) {
		return nil
	}
	return s.hookRunner.RunPre(scriptName, hctx)
}

// runPostHook fires the post-hook for hctx.Event if a matching script
// exists. Failures are logged by the runner, never returned: the write
// has already succeeded.
func (s *Store) runPostHook(hctx hooks.Context) {
	if s.hookRunner == nil {
		return
	}
	scriptName := string(hctx.Event)
	if !hooks.HasScript(s.root, scriptName) {
		return
	}
	s.hookRunner.RunPost(scriptName, hctx)
}

// GetTicket returns the ticket for id, if present.
func (s *Store) GetTicket(id string) (*ticket.Ticket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tickets[id]
	return t, ok
}

// AllTickets returns a snapshot slice of all tickets. Order is
// unspecified; callers needing deterministic order should sort.
func (s *Store) AllTickets() []*ticket.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*ticket.Ticket, 0, len(s.tickets))
	for _, t := range s.tickets {
		out = append(out, t)
	}
	return out
}

// TicketMap returns a shallow copy of the id->ticket map, suitable for
// passing to the graph package as a point-in-time snapshot.
func (s *Store) TicketMap() map[string]*ticket.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*ticket.Ticket, len(s.tickets))
	for k, v := range s.tickets {
		out[k] = v
	}
	return out
}

// UpsertTicket inserts or replaces the ticket under its ID.
func (s *Store) UpsertTicket(t *ticket.Ticket) {
	s.mu.Lock()
	s.tickets[t.ID] = t
	s.mu.Unlock()
}

// RemoveTicket deletes a ticket's in-memory entry and embedding without
// touching sibling files. Used when the file is already gone from disk
// (observed deletion); RemoveTicketWithCascade is for delete operations
// the store itself initiates.
func (s *Store) RemoveTicket(id string) {
	s.mu.Lock()
	delete(s.tickets, id)
	s.mu.Unlock()
	s.RemoveEmbedding(id)
}

// GetPlan returns the plan for id, if present.
func (s *Store) GetPlan(id string) (*plan.Plan, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[id]
	return p, ok
}

// AllPlans returns a snapshot slice of all plans.
func (s *Store) AllPlans() []*plan.Plan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*plan.Plan, 0, len(s.plans))
	for _, p := range s.plans {
		out = append(out, p)
	}
	return out
}

// UpsertPlan inserts or replaces the plan under its ID.
func (s *Store) UpsertPlan(p *plan.Plan) {
	s.mu.Lock()
	s.plans[p.ID] = p
	s.mu.Unlock()
}

// RemovePlan deletes a plan by ID.
func (s *Store) RemovePlan(id string) {
	s.mu.Lock()
	delete(s.plans, id)
	s.mu.Unlock()
}

// GetDoc returns the doc for label, if present.
func (s *Store) GetDoc(label string) (*doc.Doc, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[label]
	return d, ok
}

// AllDocs returns a snapshot slice of all docs.
func (s *Store) AllDocs() []*doc.Doc {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*doc.Doc, 0, len(s.docs))
	for _, d := range s.docs {
		out = append(out, d)
	}
	return out
}

// UpsertDoc inserts or replaces the doc under its label.
func (s *Store) UpsertDoc(d *doc.Doc) {
	s.mu.Lock()
	s.docs[d.Label] = d
	s.mu.Unlock()
}

// RemoveDoc deletes a doc by label, including its embeddings (doc-level
// and all chunk-level keys).
func (s *Store) RemoveDoc(label string) {
	s.mu.Lock()
	delete(s.docs, label)
	s.mu.Unlock()
	s.removeEmbeddingsWithPrefix("doc:" + label)
}

// GetEmbedding returns the embedding vector for key, if present.
func (s *Store) GetEmbedding(key string) ([]float32, bool) {
	s.embMu.RLock()
	defer s.embMu.RUnlock()
	v, ok := s.embeddings[key]
	return v, ok
}

// SetEmbedding stores the embedding vector for key.
func (s *Store) SetEmbedding(key string, vec []float32) {
	s.embMu.Lock()
	s.embeddings[key] = vec
	s.embMu.Unlock()
}

// RemoveEmbedding deletes the embedding vector for key.
func (s *Store) RemoveEmbedding(key string) {
	s.embMu.Lock()
	delete(s.embeddings, key)
	s.embMu.Unlock()
}

// AllEmbeddings returns a snapshot copy of the embedding map.
func (s *Store) AllEmbeddings() map[string][]float32 {
	s.embMu.RLock()
	defer s.embMu.RUnlock()
	out := make(map[string][]float32, len(s.embeddings))
	for k, v := range s.embeddings {
		out[k] = v
	}
	return out
}

func (s *Store) removeEmbeddingsWithPrefix(prefix string) {
	s.embMu.Lock()
	defer s.embMu.Unlock()
	for k := range s.embeddings {
		if k == prefix || len(k) > len(prefix) && k[:len(prefix)+1] == prefix+":" {
			delete(s.embeddings, k)
		}
	}
}

// Subscribe returns a channel of coalesced change events and an
// unsubscribe function.
func (s *Store) Subscribe() (<-chan Event, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	sub := &subscription{ch: make(chan Event, 16)}
	s.subscribers[id] = sub
	return sub.ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if existing, ok := s.subscribers[id]; ok {
			close(existing.ch)
			delete(s.subscribers, id)
		}
	}
}

// Broadcast fans an event out to all subscribers without blocking; slow
// subscribers drop events rather than stalling the publisher.
func (s *Store) Broadcast(ev Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, sub := range s.subscribers {
		select {
		case sub.ch <- ev:
		default:
		}
	}
}

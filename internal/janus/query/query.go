// Package query implements a composable filter pipeline and deterministic
// sort/search over a ticket map.
package query

import (
	"sort"
	"strings"

	"github.com/janus-md/janus/internal/janus/graph"
	"github.com/janus-md/janus/internal/janus/ticket"
)

// Context carries the full ticket map (for dep resolution) plus a set of
// ticket IDs for which a dangling-dep warning has already been emitted,
// so a query never reports the same orphan dep twice.
type Context struct {
	Tickets map[string]*ticket.Ticket
	warned  map[string]bool
}

// NewContext builds a query Context over the given ticket map.
func NewContext(tickets map[string]*ticket.Ticket) *Context {
	return &Context{Tickets: tickets, warned: make(map[string]bool)}
}

// Warn records that a dangling-dep warning was emitted for id, returning
// true if this is the first time (i.e. the caller should actually emit it).
func (c *Context) Warn(id string) bool {
	if c.warned[id] {
		return false
	}
	c.warned[id] = true
	return true
}

// Filter is a predicate over a ticket within a query Context.
type Filter func(t *ticket.Ticket, ctx *Context) bool

// SortField selects the key used to order query results.
type SortField string

const (
	SortPriority SortField = "priority"
	SortCreated  SortField = "created"
	SortID       SortField = "id"
)

// Query describes a composed filter pipeline: AND-filters are conjunctive;
// each OR-group is an any-of across its members; multiple OR-groups are
// intersected, so a ticket must match at least one filter in every group.
type Query struct {
	And    []Filter
	Or     [][]Filter
	Sort   SortField
	Limit  int
}

// Run evaluates q over tickets and returns matching tickets sorted per
// q.Sort (tie-broken by ID), truncated to q.Limit if positive.
func Run(tickets map[string]*ticket.Ticket, q Query) []*ticket.Ticket {
	ctx := NewContext(tickets)

	var result []*ticket.Ticket
	for _, t := range tickets {
		if matches(t, ctx, q) {
			result = append(result, t)
		}
	}

	sortTickets(result, q.Sort)

	if q.Limit > 0 && len(result) > q.Limit {
		result = result[:q.Limit]
	}
	return result
}

func matches(t *ticket.Ticket, ctx *Context, q Query) bool {
	for _, f := range q.And {
		if !f(t, ctx) {
			return false
		}
	}
	for _, group := range q.Or {
		if len(group) == 0 {
			continue
		}
		any := false
		for _, f := range group {
			if f(t, ctx) {
				any = true
				break
			}
		}
		if !any {
			return false
		}
	}
	return true
}

func sortTickets(tickets []*ticket.Ticket, field SortField) {
	sort.Slice(tickets, func(i, j int) bool {
		a, b := tickets[i], tickets[j]
		switch field {
		case SortCreated:
			if !a.Created.Equal(b.Created) {
				return a.Created.Before(b.Created)
			}
		case SortID:
			// fall through to id tie-break below
		default: // SortPriority, "", or unrecognized
			if a.Priority != b.Priority {
				return a.Priority < b.Priority
			}
		}
		return a.ID < b.ID
	})
}

// --- Filters ---

// StatusIn matches tickets whose status is one of statuses.
func StatusIn(statuses ...ticket.Status) Filter {
	set := make(map[ticket.Status]bool, len(statuses))
	for _, s := range statuses {
		set[s] = true
	}
	return func(t *ticket.Ticket, _ *Context) bool { return set[t.Status] }
}

// TypeIn matches tickets whose type is one of types.
func TypeIn(types ...ticket.Type) Filter {
	set := make(map[ticket.Type]bool, len(types))
	for _, ty := range types {
		set[ty] = true
	}
	return func(t *ticket.Ticket, _ *Context) bool { return set[t.Type] }
}

// SizeIn matches tickets whose size is one of sizes.
func SizeIn(sizes ...ticket.Size) Filter {
	set := make(map[ticket.Size]bool, len(sizes))
	for _, sz := range sizes {
		set[sz] = true
	}
	return func(t *ticket.Ticket, _ *Context) bool { return set[t.Size] }
}

// Triaged matches tickets whose Triaged flag equals want.
func Triaged(want bool) Filter {
	return func(t *ticket.Ticket, _ *Context) bool { return t.Triaged == want }
}

// Ready matches workable tickets with every dep at a terminal status.
func Ready() Filter {
	return func(t *ticket.Ticket, ctx *Context) bool {
		return graph.IsReady(t, ctx.Tickets)
	}
}

// Blocked matches workable tickets with at least one non-terminal or
// orphan dep. Each orphan dep is reported through ctx at most once.
func Blocked() Filter {
	return func(t *ticket.Ticket, ctx *Context) bool {
		if !graph.IsBlocked(t, ctx.Tickets) {
			return false
		}
		for _, depID := range t.Deps {
			if _, ok := ctx.Tickets[depID]; !ok {
				ctx.Warn(depID)
			}
		}
		return true
	}
}

// Closed matches tickets whose status is terminal.
func Closed() Filter {
	return func(t *ticket.Ticket, _ *Context) bool { return t.Status.Terminal() }
}

// Active matches tickets currently in progress.
func Active() Filter {
	return func(t *ticket.Ticket, _ *Context) bool { return t.Status == ticket.StatusInProgress }
}

// Spawning matches tickets spawned from parentID. If maxDepth >= 0, only
// tickets at depth <= maxDepth are matched; a negative maxDepth disables
// the depth bound.
func Spawning(parentID string, maxDepth int) Filter {
	return func(t *ticket.Ticket, _ *Context) bool {
		if t.SpawnedFrom != parentID {
			return false
		}
		if maxDepth >= 0 && t.Depth > maxDepth {
			return false
		}
		return true
	}
}

// SpawnDepthEquals matches tickets spawned at exactly depth.
func SpawnDepthEquals(depth int) Filter {
	return func(t *ticket.Ticket, _ *Context) bool {
		return t.SpawnedFrom != "" && t.Depth == depth
	}
}

// PriorityEquals matches tickets with the given priority.
func PriorityEquals(p int) Filter {
	return func(t *ticket.Ticket, _ *Context) bool { return t.Priority == p }
}

// substrContains reports whether haystack case-foldedly contains needle,
// both already folded by the caller.
func substrContains(foldedHaystack, foldedNeedle string) bool {
	return strings.Contains(foldedHaystack, foldedNeedle)
}

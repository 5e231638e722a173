package graph

import (
	"fmt"
	"sort"

	"github.com/janus-md/janus/internal/janus/ticket"
)

// Reason classifies why a WorkItem was included in a next-work result.
type Reason int

const (
	// Ready means the ticket is workable with every dep satisfied.
	Ready Reason = iota
	// Blocking means the ticket is itself ready but was surfaced only
	// because it blocks Target, a ticket later in the result.
	Blocking
	// TargetBlocked means the ticket is workable but has unsatisfied deps.
	TargetBlocked
)

func (r Reason) String() string {
	switch r {
	case Ready:
		return "ready"
	case Blocking:
		return "blocking"
	case TargetBlocked:
		return "target_blocked"
	default:
		return "unknown"
	}
}

// WorkItem is one entry in a next-work result.
type WorkItem struct {
	TicketID string
	Reason   Reason
	// Target is set when Reason == Blocking: the blocked ticket this item
	// unblocks progress toward.
	Target string
}

// NextWork returns up to limit WorkItems describing what to work on next.
// Workable tickets (status new/next) are split into ready and blocked;
// blocked tickets are processed shallowest-dependency-chain first, each
// contributing its ready deps (tagged Blocking) before itself (tagged
// TargetBlocked); any remaining ready tickets are appended last (tagged
// Ready). Tickets on a dependency cycle are skipped with a warning rather
// than failing the whole call. limit <= 0 returns no items.
func NextWork(tickets map[string]*ticket.Ticket, limit int) (items []WorkItem, warnings []string) {
	if limit <= 0 {
		return nil, nil
	}

	var readyIDs, blockedIDs []string
	for id, t := range tickets {
		if !t.Status.Workable() {
			continue
		}
		if AllDepsSatisfied(t, tickets) {
			readyIDs = append(readyIDs, id)
		} else {
			blockedIDs = append(blockedIDs, id)
		}
	}

	readySet := toSet(readyIDs)
	blockedSet := toSet(blockedIDs)

	depthMemo := make(map[string]int)
	depth := func(id string) int {
		return dependencyDepth(id, blockedSet, tickets, depthMemo, make(map[string]bool))
	}

	sortByTotalOrder(blockedIDs, tickets, depth)
	sortByTotalOrder(readyIDs, tickets, nil)

	visited := make(map[string]bool)

	for _, id := range blockedIDs {
		if visited[id] {
			continue
		}
		if cycle := DetectCycle(id, tickets); cycle != nil {
			warnings = append(warnings, fmt.Sprintf("skipping %s: dependency cycle %v", id, cycle))
			visited[id] = true
			continue
		}

		readyDeps := collectAllReadyDeps(id, readySet, blockedSet, tickets, visited)
		sortByTotalOrder(readyDeps, tickets, nil)
		for _, rd := range readyDeps {
			items = append(items, WorkItem{TicketID: rd, Reason: Blocking, Target: id})
		}
		items = append(items, WorkItem{TicketID: id, Reason: TargetBlocked})
		visited[id] = true
	}

	for _, id := range readyIDs {
		if visited[id] {
			continue
		}
		items = append(items, WorkItem{TicketID: id, Reason: Ready})
		visited[id] = true
	}

	if len(items) > limit {
		items = items[:limit]
	}
	return items, warnings
}

func toSet(ids []string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

// dependencyDepth is the length of the longest chain of *blocked* deps
// reachable from id. A ticket whose deps are all ready (or absent) has
// depth 0. Cycle-safe via a per-call recursion guard.
func dependencyDepth(id string, blockedSet map[string]bool, tickets map[string]*ticket.Ticket, memo map[string]int, visiting map[string]bool) int {
	if d, ok := memo[id]; ok {
		return d
	}
	if visiting[id] {
		return 0
	}
	visiting[id] = true
	defer delete(visiting, id)

	t, ok := tickets[id]
	if !ok {
		memo[id] = 0
		return 0
	}

	max := 0
	for _, dep := range t.Deps {
		if !blockedSet[dep] {
			continue
		}
		if d := dependencyDepth(dep, blockedSet, tickets, memo, visiting) + 1; d > max {
			max = d
		}
	}
	memo[id] = max
	return max
}

// collectAllReadyDeps walks id's dep subtree, collecting ready deps
// (deduplicated against the running visited set) and recursing into
// blocked-but-workable deps transitively. It stops at terminal, orphan,
// or already-visited deps.
func collectAllReadyDeps(id string, readySet, blockedSet map[string]bool, tickets map[string]*ticket.Ticket, visited map[string]bool) []string {
	var result []string
	local := map[string]bool{}
	stack := []string{id}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		t, ok := tickets[cur]
		if !ok {
			continue
		}
		for _, dep := range t.Deps {
			if visited[dep] || local[dep] {
				continue
			}
			local[dep] = true

			if readySet[dep] {
				result = append(result, dep)
				visited[dep] = true
				continue
			}
			if blockedSet[dep] {
				stack = append(stack, dep)
			}
			// terminal, in-progress, or orphan deps: stop, don't recurse.
		}
	}
	return result
}

// sortByTotalOrder sorts ids by dependency depth (if depthFn is non-nil),
// then priority (ascending, 0 highest), then created time, then id, giving
// next-work results a deterministic total order.
func sortByTotalOrder(ids []string, tickets map[string]*ticket.Ticket, depthFn func(string) int) {
	sort.Slice(ids, func(i, j int) bool {
		a, b := ids[i], ids[j]
		if depthFn != nil {
			da, db := depthFn(a), depthFn(b)
			if da != db {
				return da < db
			}
		}
		ta, tb := tickets[a], tickets[b]
		if ta != nil && tb != nil {
			if ta.Priority != tb.Priority {
				return ta.Priority < tb.Priority
			}
			if !ta.Created.Equal(tb.Created) {
				return ta.Created.Before(tb.Created)
			}
		}
		return a < b
	})
}

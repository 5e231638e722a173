// Package graph implements dependency-readiness checks, cycle detection,
// and the next-work finder over a ticket map.
package graph

import "github.com/janus-md/janus/internal/janus/ticket"

// AllDepsSatisfied reports whether every dep of t is present in tickets
// and has reached a terminal status. A missing dep (orphan) counts as
// unsatisfied, the safer default.
func AllDepsSatisfied(t *ticket.Ticket, tickets map[string]*ticket.Ticket) bool {
	for _, depID := range t.Deps {
		dep, ok := tickets[depID]
		if !ok {
			return false
		}
		if !dep.Status.Terminal() {
			return false
		}
	}
	return true
}

// IsReady reports whether t is workable and all its deps are satisfied.
func IsReady(t *ticket.Ticket, tickets map[string]*ticket.Ticket) bool {
	return t.Status.Workable() && AllDepsSatisfied(t, tickets)
}

// IsBlocked reports whether t is workable but has at least one
// unsatisfied (non-terminal or orphan) dep.
func IsBlocked(t *ticket.Ticket, tickets map[string]*ticket.Ticket) bool {
	return t.Status.Workable() && !AllDepsSatisfied(t, tickets)
}

package graph

import "github.com/janus-md/janus/internal/janus/ticket"

// DetectCycle runs a DFS with an explicit path stack starting at start,
// following dep edges, and returns the cycle (as a slice of IDs, first
// repeated) if one is reachable from start. Returns nil if no cycle is
// found. Used defensively to skip ill-formed tickets rather than to
// reject them outright.
func DetectCycle(start string, tickets map[string]*ticket.Ticket) []string {
	visited := make(map[string]bool)
	inStack := make(map[string]bool)
	var path []string

	var dfs func(id string) []string
	dfs = func(id string) []string {
		if inStack[id] {
			idx := 0
			for i, p := range path {
				if p == id {
					idx = i
					break
				}
			}
			cycle := append([]string{}, path[idx:]...)
			return append(cycle, id)
		}
		if visited[id] {
			return nil
		}
		visited[id] = true
		inStack[id] = true
		path = append(path, id)

		if t, ok := tickets[id]; ok {
			for _, dep := range t.Deps {
				if cycle := dfs(dep); cycle != nil {
					return cycle
				}
			}
		}

		path = path[:len(path)-1]
		inStack[id] = false
		return nil
	}

	return dfs(start)
}

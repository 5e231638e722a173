package query

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/janus-md/janus/internal/janus/ticket"
)

// folder performs Unicode-correct case folding, used instead of
// strings.ToLower so substring search behaves correctly for inputs like
// the Turkish dotless/dotted I, which ASCII lowercasing gets wrong.
var folder = cases.Fold()

// fold case-folds s. Full folding turns 'İ' into "i" followed by U+0307
// (combining dot above); that mark is dropped so "İstanbul" matches
// "istanbul".
func fold(s string) string {
	return strings.ReplaceAll(folder.String(s), "̇", "")
}

// Search performs a deterministic, case-insensitive substring match over
// {id, title, body, type} independent of the filter pipeline. The first
// "pN" token in the raw query (e.g. "p0 cache") is extracted and applied
// as a priority-equals filter before the remaining text is matched.
func Search(tickets map[string]*ticket.Ticket, raw string) []*ticket.Ticket {
	terms, priority, hasPriority := parseSearchTerms(raw)

	var result []*ticket.Ticket
	for _, t := range tickets {
		if hasPriority && t.Priority != priority {
			continue
		}
		if matchesAllTerms(t, terms) {
			result = append(result, t)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if !a.Created.Equal(b.Created) {
			return a.Created.Before(b.Created)
		}
		return a.ID < b.ID
	})
	return result
}

// parseSearchTerms splits raw on whitespace, pulling out the first "pN"
// shorthand token (0 <= N <= ticket.MaxPriority) as a priority filter and
// returning the rest, case-folded, as plain search terms.
func parseSearchTerms(raw string) (terms []string, priority int, hasPriority bool) {
	for _, tok := range strings.Fields(raw) {
		if !hasPriority {
			if p, ok := parsePriorityShorthand(tok); ok {
				priority = p
				hasPriority = true
				continue
			}
		}
		terms = append(terms, fold(tok))
	}
	return terms, priority, hasPriority
}

func parsePriorityShorthand(tok string) (int, bool) {
	if len(tok) < 2 || (tok[0] != 'p' && tok[0] != 'P') {
		return 0, false
	}
	n, err := strconv.Atoi(tok[1:])
	if err != nil || n < ticket.MinPriority || n > ticket.MaxPriority {
		return 0, false
	}
	return n, true
}

func matchesAllTerms(t *ticket.Ticket, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	haystack := fold(t.ID) + " " + fold(t.Title) + " " + fold(t.Body) + " " + fold(string(t.Type))
	for _, term := range terms {
		if !substrContains(haystack, term) {
			return false
		}
	}
	return true
}

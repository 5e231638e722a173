package plan

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/janus-md/janus/internal/janus/frontmatter"
)

type planFrontMatter struct {
	ID      string    `yaml:"id"`
	UUID    string    `yaml:"uuid"`
	Created time.Time `yaml:"created"`
}

var phaseHeadingPattern = regexp.MustCompile(`(?i)^phase\s+(\S+)(?:\s*:\s*(.+))?$`)
var numberedItemPattern = regexp.MustCompile(`^\d+[.)]\s+(.+)$`)
var bulletItemPattern = regexp.MustCompile(`^[-*]\s+(.+)$`)

type block struct {
	heading string // text after "## "
	lines   []string
}

// Parse reads a Plan from raw Markdown+frontmatter content. filenameID, if
// non-empty, is authoritative the same way it is for tickets.
func Parse(content []byte, filenameID string) (p *Plan, idMismatch bool, err error) {
	var fm planFrontMatter
	body, err := frontmatter.Decode(content, &fm)
	if err != nil {
		return nil, false, fmt.Errorf("parsing plan: %w", err)
	}

	id := fm.ID
	if filenameID != "" {
		if fm.ID != "" && filenameID != fm.ID {
			idMismatch = true
		}
		id = filenameID
	}

	lines := strings.Split(strings.TrimSuffix(body, "\n"), "\n")

	title, preambleStart := "", 0
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "# ") {
			title = strings.TrimSpace(strings.TrimPrefix(trimmed, "#"))
			preambleStart = i + 1
		}
		break
	}

	blocks, preambleLines := splitBlocks(lines[preambleStart:], "## ")
	description := strings.TrimSpace(strings.Join(preambleLines, "\n"))

	p = &Plan{
		ID:      id,
		UUID:    fm.UUID,
		Created: fm.Created,
		Title:   title,
	}

	for _, b := range blocks {
		heading := strings.TrimSpace(b.heading)
		switch {
		case strings.EqualFold(heading, "acceptance criteria"):
			p.AcceptanceCriteria = parseBullets(b.lines)
		case strings.EqualFold(heading, "tickets"):
			p.Sections = append(p.Sections, Section{Kind: SectionTickets, Tickets: parseNumbered(b.lines)})
		default:
			if m := phaseHeadingPattern.FindStringSubmatch(heading); m != nil {
				p.Sections = append(p.Sections, Section{Kind: SectionPhase, Phase: parsePhase(m[1], m[2], b.lines)})
			} else {
				p.Sections = append(p.Sections, Section{
					Kind:     SectionFreeForm,
					FreeForm: &FreeForm{Heading: heading, Content: strings.TrimSpace(strings.Join(b.lines, "\n"))},
				})
			}
		}
	}

	return p, idMismatch, nil
}

// splitBlocks splits lines into blocks starting at lines with the given
// marker prefix (e.g. "## "), returning the blocks and any leading lines
// before the first marker.
func splitBlocks(lines []string, marker string) (blocks []block, preamble []string) {
	i := 0
	for ; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], marker) {
			break
		}
		preamble = append(preamble, lines[i])
	}
	for i < len(lines) {
		heading := strings.TrimPrefix(lines[i], marker)
		i++
		start := i
		for i < len(lines) && !strings.HasPrefix(lines[i], marker) {
			i++
		}
		blocks = append(blocks, block{heading: heading, lines: lines[start:i]})
	}
	return blocks, preamble
}

func parsePhase(number, name string, lines []string) *Phase {
	subBlocks, preamble := splitBlocks(lines, "### ")
	ph := &Phase{
		Number:      strings.TrimSpace(number),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(strings.Join(preamble, "\n")),
	}
	for _, sb := range subBlocks {
		heading := strings.TrimSpace(sb.heading)
		switch {
		case strings.EqualFold(heading, "success criteria"):
			ph.SuccessCriteria = parseBullets(sb.lines)
		case strings.EqualFold(heading, "tickets"):
			ph.Tickets = parseNumbered(sb.lines)
		}
	}
	return ph
}

func parseBullets(lines []string) []string {
	var items []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if m := bulletItemPattern.FindStringSubmatch(trimmed); m != nil {
			items = append(items, strings.TrimSpace(m[1]))
		}
	}
	return items
}

func parseNumbered(lines []string) []string {
	var items []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if m := numberedItemPattern.FindStringSubmatch(trimmed); m != nil {
			items = append(items, strings.TrimSpace(m[1]))
		} else if m := bulletItemPattern.FindStringSubmatch(trimmed); m != nil {
			items = append(items, strings.TrimSpace(m[1]))
		}
	}
	return items
}

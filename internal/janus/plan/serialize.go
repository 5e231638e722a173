package plan

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/janus-md/janus/internal/janus/frontmatter"
)

// Render serializes the plan back to Markdown+frontmatter content,
// preserving section order exactly as stored.
func (p *Plan) Render() ([]byte, error) {
	fm := planFrontMatter{ID: p.ID, UUID: p.UUID, Created: p.Created}

	var fmBuf bytes.Buffer
	enc := yaml.NewEncoder(&fmBuf)
	enc.SetIndent(2)
	if err := enc.Encode(&fm); err != nil {
		return nil, fmt.Errorf("marshaling plan frontmatter: %w", err)
	}
	enc.Close()

	var body strings.Builder
	if p.Title != "" {
		body.WriteString("# ")
		body.WriteString(p.Title)
		body.WriteString("\n\n")
	}
	if p.Description != "" {
		body.WriteString(p.Description)
		body.WriteString("\n\n")
	}
	if len(p.AcceptanceCriteria) > 0 {
		body.WriteString("## Acceptance Criteria\n")
		for _, c := range p.AcceptanceCriteria {
			body.WriteString("- ")
			body.WriteString(c)
			body.WriteString("\n")
		}
		body.WriteString("\n")
	}

	for _, s := range p.Sections {
		switch s.Kind {
		case SectionTickets:
			body.WriteString("## Tickets\n")
			for i, id := range s.Tickets {
				fmt.Fprintf(&body, "%d. %s\n", i+1, id)
			}
			body.WriteString("\n")
		case SectionPhase:
			writePhase(&body, s.Phase)
		case SectionFreeForm:
			body.WriteString("## ")
			body.WriteString(s.FreeForm.Heading)
			body.WriteString("\n")
			if s.FreeForm.Content != "" {
				body.WriteString(s.FreeForm.Content)
				body.WriteString("\n")
			}
			body.WriteString("\n")
		}
	}

	return frontmatter.Join(fmBuf.Bytes(), strings.TrimRight(body.String(), "\n")+"\n"), nil
}

func writePhase(body *strings.Builder, ph *Phase) {
	body.WriteString("## Phase ")
	body.WriteString(ph.Number)
	if ph.Name != "" {
		body.WriteString(": ")
		body.WriteString(ph.Name)
	}
	body.WriteString("\n")
	if ph.Description != "" {
		body.WriteString(ph.Description)
		body.WriteString("\n\n")
	}
	if len(ph.SuccessCriteria) > 0 {
		body.WriteString("### Success Criteria\n")
		for _, c := range ph.SuccessCriteria {
			body.WriteString("- ")
			body.WriteString(c)
			body.WriteString("\n")
		}
		body.WriteString("\n")
	}
	if len(ph.Tickets) > 0 {
		body.WriteString("### Tickets\n")
		for i, id := range ph.Tickets {
			fmt.Fprintf(body, "%d. %s\n", i+1, id)
		}
		body.WriteString("\n")
	}
}

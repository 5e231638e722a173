// Package plan implements the Plan/Phase entity model and the Markdown
// parser/serializer for the phased and simple plan file formats.
package plan

import (
	"regexp"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/janus-md/janus/internal/janus/ticket"
)

// idPattern matches the plan ID grammar: "plan-" followed by lowercase
// letters/digits.
var idPattern = regexp.MustCompile(`^plan-[a-z0-9]+$`)

// ValidID reports whether id matches the plan ID grammar.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewID generates a fresh plan ID.
func NewID() (string, error) {
	suffix, err := gonanoid.Generate(idAlphabet, 8)
	if err != nil {
		return "", err
	}
	return "plan-" + suffix, nil
}

// NewUUID generates a fresh stable secondary identifier for a plan.
func NewUUID() string { return ticket.NewUUID() }

// SectionKind discriminates the three section shapes a plan's body can
// contain, preserving the source order they appeared in.
type SectionKind int

const (
	SectionPhase SectionKind = iota
	SectionTickets
	SectionFreeForm
)

// Phase is one named block of a phased plan.
type Phase struct {
	Number           string
	Name             string
	Description      string
	SuccessCriteria  []string
	Tickets          []string
}

// FreeForm is a "## Heading" block that is not Acceptance Criteria,
// Phase N, or Tickets; its content is preserved verbatim.
type FreeForm struct {
	Heading string
	Content string
}

// Section is one element of a plan's ordered section list.
type Section struct {
	Kind     SectionKind
	Phase    *Phase    // set iff Kind == SectionPhase
	Tickets  []string  // set iff Kind == SectionTickets
	FreeForm *FreeForm // set iff Kind == SectionFreeForm
}

// Plan is an ordered sequence of ticket IDs, optionally partitioned into
// named phases.
type Plan struct {
	ID                 string    `yaml:"id" json:"id"`
	UUID               string    `yaml:"uuid" json:"uuid"`
	Created            time.Time `yaml:"created" json:"created"`
	Title              string    `yaml:"-" json:"title"`
	Description        string    `yaml:"-" json:"description,omitempty"`
	AcceptanceCriteria []string  `yaml:"-" json:"acceptance_criteria,omitempty"`
	Sections           []Section `yaml:"-" json:"-"`

	// Path is the plan file's path, the store root joined with
	// plans/<id>.md, where the loader sets it.
	Path string `yaml:"-" json:"path,omitempty"`
}

// IsSimple reports whether the plan has exactly one Tickets section and no
// Phase sections.
func (p *Plan) IsSimple() bool {
	tickets, phases := 0, 0
	for _, s := range p.Sections {
		switch s.Kind {
		case SectionTickets:
			tickets++
		case SectionPhase:
			phases++
		}
	}
	return tickets == 1 && phases == 0
}

// IsPhased reports whether the plan has one or more Phase sections.
func (p *Plan) IsPhased() bool {
	for _, s := range p.Sections {
		if s.Kind == SectionPhase {
			return true
		}
	}
	return false
}

// AllTicketIDs returns every ticket ID referenced anywhere in the plan, in
// section order: top-level Tickets sections and phases contribute their
// IDs in the order those sections appear.
func (p *Plan) AllTicketIDs() []string {
	var ids []string
	for _, s := range p.Sections {
		switch s.Kind {
		case SectionTickets:
			ids = append(ids, s.Tickets...)
		case SectionPhase:
			ids = append(ids, s.Phase.Tickets...)
		}
	}
	return ids
}

package ticket

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/janus-md/janus/internal/janus/frontmatter"
)

// frontMatter is the serializable subset of Ticket.
type frontMatter struct {
	ID           string    `yaml:"id"`
	UUID         string    `yaml:"uuid"`
	Status       Status    `yaml:"status"`
	Type         Type      `yaml:"type,omitempty"`
	Priority     int       `yaml:"priority"`
	Size         Size      `yaml:"size,omitempty"`
	Deps         []string  `yaml:"deps,omitempty"`
	Links        []string  `yaml:"links,omitempty"`
	Created      time.Time `yaml:"created"`
	ExternalRef  string    `yaml:"external-ref,omitempty"`
	Remote       string    `yaml:"remote,omitempty"`
	Parent       string    `yaml:"parent,omitempty"`
	SpawnedFrom  string    `yaml:"spawned-from,omitempty"`
	SpawnContext string    `yaml:"spawn-context,omitempty"`
	Depth        int       `yaml:"depth,omitempty"`
	Triaged      bool      `yaml:"triaged,omitempty"`
	Assignee     string    `yaml:"assignee,omitempty"`
}

// Parse reads a ticket from raw Markdown+frontmatter file content. The
// filenameID, if non-empty, is compared against the frontmatter id; on
// mismatch filenameID wins and mismatch is reported via the returned bool
// so callers can surface an init warning without failing the parse.
func Parse(content []byte, filenameID string) (t *Ticket, idMismatch bool, err error) {
	var fm frontMatter
	body, err := frontmatter.Decode(content, &fm)
	if err != nil {
		return nil, false, fmt.Errorf("parsing ticket: %w", err)
	}

	id := fm.ID
	if filenameID != "" && fm.ID != "" && filenameID != fm.ID {
		idMismatch = true
		id = filenameID
	} else if filenameID != "" {
		id = filenameID
	}

	body = strings.TrimSuffix(body, "\n")
	title, _ := frontmatter.ExtractTitle(body)
	summary, _ := frontmatter.ExtractSection(body, "Completion Summary")

	t = &Ticket{
		ID:                id,
		UUID:              fm.UUID,
		Status:            fm.Status,
		Type:              fm.Type,
		Priority:          fm.Priority,
		Size:              fm.Size,
		Deps:              fm.Deps,
		Links:             fm.Links,
		Created:           fm.Created,
		ExternalRef:       fm.ExternalRef,
		Remote:            fm.Remote,
		Parent:            fm.Parent,
		SpawnedFrom:       fm.SpawnedFrom,
		SpawnContext:      fm.SpawnContext,
		Depth:             fm.Depth,
		Triaged:           fm.Triaged,
		Assignee:          fm.Assignee,
		Title:             title,
		CompletionSummary: summary,
		Body:              body,
	}
	return t, idMismatch, nil
}

// Render serializes the ticket back to Markdown+frontmatter file content.
func (t *Ticket) Render() ([]byte, error) {
	fm := frontMatter{
		ID:           t.ID,
		UUID:         t.UUID,
		Status:       t.Status,
		Type:         t.Type,
		Priority:     t.Priority,
		Size:         t.Size,
		Deps:         t.Deps,
		Links:        t.Links,
		Created:      t.Created,
		ExternalRef:  t.ExternalRef,
		Remote:       t.Remote,
		Parent:       t.Parent,
		SpawnedFrom:  t.SpawnedFrom,
		SpawnContext: t.SpawnContext,
		Depth:        t.Depth,
		Triaged:      t.Triaged,
		Assignee:     t.Assignee,
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&fm); err != nil {
		return nil, fmt.Errorf("marshaling ticket frontmatter: %w", err)
	}
	enc.Close()

	body := t.Body
	if body == "" && t.Title != "" {
		body = "# " + t.Title + "\n"
	}

	return frontmatter.Join(buf.Bytes(), body), nil
}

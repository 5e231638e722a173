// Package doc defines the Doc entity: named knowledge documents stored as
// Markdown+frontmatter files, and the heading-bounded chunking used by the
// embedding service's doc search.
package doc

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidLabel is the sentinel error for a label that fails ValidLabel.
// ValidLabel itself reports a bool, and Parse does not validate labels.
var ErrInvalidLabel = errors.New("invalid doc label")

// ValidLabel checks a doc label: non-empty after trimming; not "." or
// ".."; no path separators, NUL, newline, or tab; characters limited to
// alphanumeric, whitespace, '-', '_', '.'.
func ValidLabel(label string) bool {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" || trimmed == "." || trimmed == ".." {
		return false
	}
	for _, r := range label {
		switch {
		case r == '/' || r == '\\' || r == 0 || r == '\n' || r == '\t':
			return false
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.' || r == ' ':
		default:
			return false
		}
	}
	return true
}

// Doc is a named knowledge document.
type Doc struct {
	Label       string    `yaml:"-" json:"label"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	Tags        []string  `yaml:"tags,omitempty" json:"tags,omitempty"`
	Created     time.Time `yaml:"created,omitempty" json:"created,omitempty"`
	Updated     time.Time `yaml:"updated,omitempty" json:"updated,omitempty"`

	// Title is derived from the body's H1 at parse time.
	Title string `yaml:"-" json:"title"`
	Body  string `yaml:"-" json:"body,omitempty"`
}

// Chunk is a heading-bounded region of a document's body.
type Chunk struct {
	HeadingPath []string
	StartLine   int // 1-indexed, inclusive
	EndLine     int // 1-indexed, inclusive
	Content     string
}

// Key returns the embedding-map key for this chunk: "doc:<label>:c<start>".
func (c Chunk) Key(label string) string {
	return fmt.Sprintf("doc:%s:c%d", label, c.StartLine)
}

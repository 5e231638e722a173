package ticket

import "errors"

// Sentinel errors for ticket validation and mutation failures, matching
// the error kinds catalogued in the core error-handling design.
var (
	ErrInvalidFormat    = errors.New("invalid ticket format")
	ErrEmptyFrontmatter = errors.New("empty ticket frontmatter")
	ErrInvalidField     = errors.New("invalid field value")
	ErrImmutableField   = errors.New("field is immutable")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrInvalidType      = errors.New("invalid type")
	ErrInvalidPriority  = errors.New("invalid priority")
	ErrInvalidID        = errors.New("invalid ticket id")
	ErrNotFound         = errors.New("ticket not found")
)

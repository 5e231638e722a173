package ticket

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// idAlphabet matches the lowercase-letters-and-digits half of the ID
// grammar; the prefix half is always lowercase letters.
const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// idPattern matches the ID grammar in the external interfaces: lowercase
// letters, a single hyphen, then lowercase letters/digits.
var idPattern = regexp.MustCompile(`^[a-z]+-[a-z0-9]+$`)

// ValidID reports whether id matches the ticket ID grammar.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// NewID generates a fresh ID with the given prefix (e.g. "j"), suffixed
// with a 6-character random token.
func NewID(prefix string) (string, error) {
	suffix, err := gonanoid.Generate(idAlphabet, 6)
	if err != nil {
		return "", fmt.Errorf("generating ticket id: %w", err)
	}
	id := prefix + "-" + suffix
	if !ValidID(id) {
		return "", fmt.Errorf("%w: generated id %q", ErrInvalidID, id)
	}
	return id, nil
}

// NewUUID generates a fresh stable secondary identifier.
func NewUUID() string {
	return uuid.NewString()
}

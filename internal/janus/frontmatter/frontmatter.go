// Package frontmatter splits Markdown files into a YAML frontmatter block
// and a body, and extracts headings from the body.
//
// The split itself is hand-rolled rather than delegated to
// github.com/adrg/frontmatter, because that library collapses missing,
// empty, and unterminated delimiters into a single generic error. Decoding
// the extracted YAML block still goes through gopkg.in/yaml.v3, same as
// the rest of this module.
package frontmatter

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Delimiter is the only frontmatter fence this parser recognizes.
const Delimiter = "---"

// ErrorKind identifies why a document failed to split.
type ErrorKind int

const (
	// MissingFrontmatter means the document does not open with "---".
	MissingFrontmatter ErrorKind = iota
	// EmptyFrontmatter means the delimiters enclose no content.
	EmptyFrontmatter
	// UnterminatedFrontmatter means no closing delimiter was found.
	UnterminatedFrontmatter
)

func (k ErrorKind) String() string {
	switch k {
	case MissingFrontmatter:
		return "missing frontmatter"
	case EmptyFrontmatter:
		return "empty frontmatter"
	case UnterminatedFrontmatter:
		return "unterminated frontmatter"
	default:
		return "unknown frontmatter error"
	}
}

// Error reports a frontmatter split failure.
type Error struct {
	Kind ErrorKind
}

func (e *Error) Error() string { return e.Kind.String() }

func newError(kind ErrorKind) error { return &Error{Kind: kind} }

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	fe, ok := err.(*Error)
	return ok && fe.Kind == kind
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return s
}

// Split separates raw file content into a YAML frontmatter string and a
// body string. Both are newline-normalized (CRLF/CR -> LF). Only the first
// "---"/"---" delimiter pair is recognized; any later "---" line is left
// verbatim in the body.
func Split(content []byte) (yamlStr string, body string, err error) {
	text := normalizeNewlines(string(content))
	lines := strings.Split(text, "\n")

	start := -1
	for i, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		if trimmed == "" {
			continue
		}
		if trimmed == Delimiter {
			start = i
		}
		break
	}
	if start == -1 {
		return "", "", newError(MissingFrontmatter)
	}

	end := -1
	for i := start + 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], " \t") == Delimiter {
			end = i
			break
		}
	}
	if end == -1 {
		return "", "", newError(UnterminatedFrontmatter)
	}

	fmLines := lines[start+1 : end]
	fmText := strings.Join(fmLines, "\n")
	if strings.TrimSpace(fmText) == "" {
		return "", "", newError(EmptyFrontmatter)
	}

	bodyLines := lines[end+1:]
	bodyText := strings.Join(bodyLines, "\n")

	return fmText, bodyText, nil
}

// Decode splits content and unmarshals the frontmatter block into dst,
// which must be a pointer. Decoding runs through the bounded scanner in
// bounds.go before falling back to a direct yaml.v3 decode, so adversarial
// documents (deep nesting, huge sequences, alias amplification) are
// rejected rather than allowed to hang or exhaust memory.
func Decode(content []byte, dst any) (body string, err error) {
	yamlStr, body, err := Split(content)
	if err != nil {
		return "", err
	}
	if err := CheckBounds([]byte(yamlStr)); err != nil {
		return "", fmt.Errorf("frontmatter exceeds safety bounds: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader([]byte(yamlStr)))
	if err := dec.Decode(dst); err != nil {
		return "", fmt.Errorf("decoding frontmatter: %w", err)
	}
	return body, nil
}

// ExtractTitle returns the trimmed text of the first non-empty "# ..." line
// in body, or "" if none exists.
func ExtractTitle(body string) (string, bool) {
	scanner := bufio.NewScanner(strings.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(line, "# ") || line == "#" {
			title := strings.TrimSpace(strings.TrimPrefix(line, "#"))
			return title, title != ""
		}
	}
	return "", false
}

// ExtractSection returns the trimmed text of the named "## heading" section
// (case-insensitive), running from the line after the heading up to (but
// excluding) the next "## " line or EOF.
func ExtractSection(body, heading string) (string, bool) {
	lines := strings.Split(body, "\n")
	target := strings.ToLower(strings.TrimSpace(heading))

	start := -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "## ") && trimmed != "##" {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(trimmed, "##")))
		if name == target {
			start = i + 1
			break
		}
	}
	if start == -1 {
		return "", false
	}

	end := len(lines)
	for i := start; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], "## ") {
			end = i
			break
		}
	}

	section := strings.TrimSpace(strings.Join(lines[start:end], "\n"))
	return section, true
}

// Join renders a YAML frontmatter block and body back into file content,
// matching the conventions Split expects to be able to parse again.
func Join(yamlBytes []byte, body string) []byte {
	var buf bytes.Buffer
	buf.WriteString(Delimiter)
	buf.WriteByte('\n')
	buf.Write(yamlBytes)
	if !bytes.HasSuffix(yamlBytes, []byte("\n")) {
		buf.WriteByte('\n')
	}
	buf.WriteString(Delimiter)
	buf.WriteByte('\n')
	if body != "" {
		buf.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			buf.WriteByte('\n')
		}
	} else {
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

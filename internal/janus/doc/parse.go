package doc

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/janus-md/janus/internal/janus/frontmatter"
)

type frontMatter struct {
	Description string    `yaml:"description,omitempty"`
	Tags        []string  `yaml:"tags,omitempty"`
	Created     time.Time `yaml:"created,omitempty"`
	Updated     time.Time `yaml:"updated,omitempty"`
}

// Parse reads a Doc from raw Markdown+frontmatter content. label is the
// filesystem-derived label (the file stem), which is authoritative.
func Parse(content []byte, label string) (*Doc, error) {
	var fm frontMatter
	body, err := frontmatter.Decode(content, &fm)
	if err != nil {
		return nil, fmt.Errorf("parsing doc: %w", err)
	}
	body = strings.TrimSuffix(body, "\n")
	title, _ := frontmatter.ExtractTitle(body)

	return &Doc{
		Label:       label,
		Description: fm.Description,
		Tags:        fm.Tags,
		Created:     fm.Created,
		Updated:     fm.Updated,
		Title:       title,
		Body:        body,
	}, nil
}

// Render serializes the doc back to Markdown+frontmatter content.
func (d *Doc) Render() ([]byte, error) {
	fm := frontMatter{
		Description: d.Description,
		Tags:        d.Tags,
		Created:     d.Created,
		Updated:     d.Updated,
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&fm); err != nil {
		return nil, fmt.Errorf("marshaling doc frontmatter: %w", err)
	}
	enc.Close()

	body := d.Body
	if body == "" && d.Title != "" {
		body = "# " + d.Title + "\n"
	}
	return frontmatter.Join(buf.Bytes(), body), nil
}

// Chunk splits the document body at "##" and "###" boundaries. Each chunk
// records its heading path from outermost to innermost, and its 1-indexed
// inclusive line range within body.
func Chunk(body string) []Chunk {
	lines := strings.Split(body, "\n")

	type headingLevel struct {
		level int
		text  string
	}
	var stack []headingLevel

	var chunks []Chunk
	var curStart int
	var curPath []string
	haveChunk := false

	flush := func(endLine int) {
		if !haveChunk {
			return
		}
		content := strings.TrimSpace(strings.Join(lines[curStart-1:endLine], "\n"))
		if content == "" {
			haveChunk = false
			return
		}
		pathCopy := make([]string, len(curPath))
		copy(pathCopy, curPath)
		chunks = append(chunks, Chunk{
			HeadingPath: pathCopy,
			StartLine:   curStart,
			EndLine:     endLine,
			Content:     content,
		})
		haveChunk = false
	}

	for i, line := range lines {
		lineNo := i + 1
		level := headingLevelOf(line)
		if level == 2 || level == 3 {
			flush(lineNo - 1)

			text := strings.TrimSpace(line[level:])
			for len(stack) > 0 && stack[len(stack)-1].level >= level {
				stack = stack[:len(stack)-1]
			}
			stack = append(stack, headingLevel{level: level, text: text})

			curPath = curPath[:0]
			for _, h := range stack {
				curPath = append(curPath, h.text)
			}
			curStart = lineNo
			haveChunk = true
		}
	}
	flush(len(lines))

	return chunks
}

// headingLevelOf returns 2 or 3 if line is a "## " or "### " heading, else 0.
func headingLevelOf(line string) int {
	if strings.HasPrefix(line, "### ") {
		return 3
	}
	if strings.HasPrefix(line, "## ") {
		return 2
	}
	return 0
}

package embedding

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/janus-md/janus/internal/janus/doc"
)

// DocMatch is one semantic-search hit against a doc chunk.
type DocMatch struct {
	Label       string
	HeadingPath []string
	Snippet     string
	StartLine   int
	EndLine     int
	Similarity  float64
}

// maxSnippetLen bounds the returned snippet so large chunks don't balloon
// search responses.
const maxSnippetLen = 280

// IndexDoc embeds every chunk of a document body, returning a map from
// chunk key ("doc:<label>:cN") to its vector, ready to merge into the
// store's embeddings map.
func IndexDoc(ctx context.Context, e Embedder, label, body string) (map[string][]float32, error) {
	chunks := doc.Chunk(body)
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vecs, err := e.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding doc %q: %w", label, err)
	}

	out := make(map[string][]float32, len(chunks))
	for i, c := range chunks {
		out[c.Key(label)] = vecs[i]
	}
	return out, nil
}

// SearchDocs runs a semantic search over doc-chunk embeddings, re-deriving
// each hit's snippet and heading path by re-chunking the owning document
// fetched via getBody.
func SearchDocs(embeddings map[string][]float32, query []float32, limit int, getBody func(label string) (string, bool)) []DocMatch {
	matches := KNN(embeddings, query, limit, nil)

	out := make([]DocMatch, 0, len(matches))
	for _, m := range matches {
		label, startLine, ok := parseDocChunkKey(m.Key)
		if !ok {
			continue
		}
		body, ok := getBody(label)
		if !ok {
			continue
		}
		chunk, ok := findChunkByStart(body, startLine)
		if !ok {
			continue
		}
		out = append(out, DocMatch{
			Label:       label,
			HeadingPath: chunk.HeadingPath,
			Snippet:     truncateSnippet(chunk.Content),
			StartLine:   chunk.StartLine,
			EndLine:     chunk.EndLine,
			Similarity:  m.Similarity,
		})
	}
	return out
}

func findChunkByStart(body string, startLine int) (doc.Chunk, bool) {
	for _, c := range doc.Chunk(body) {
		if c.StartLine == startLine {
			return c, true
		}
	}
	return doc.Chunk{}, false
}

func truncateSnippet(content string) string {
	if len(content) <= maxSnippetLen {
		return content
	}
	return content[:maxSnippetLen] + "…"
}

// parseDocChunkKey parses "doc:<label>:c<startLine>" back into its parts.
func parseDocChunkKey(key string) (label string, startLine int, ok bool) {
	const prefix = "doc:"
	if !strings.HasPrefix(key, prefix) {
		return "", 0, false
	}
	rest := key[len(prefix):]
	idx := strings.LastIndex(rest, ":c")
	if idx < 0 {
		return "", 0, false
	}
	n, err := strconv.Atoi(rest[idx+2:])
	if err != nil {
		return "", 0, false
	}
	return rest[:idx], n, true
}

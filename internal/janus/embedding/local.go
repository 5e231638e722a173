package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// LocalEmbedder is a deterministic, dependency-free Embedder: a
// hashed-bag-of-words vectorizer. Each lowercased word is hashed into one
// of Dimensions buckets (feature hashing), accumulated, then the result
// is L2-normalized. It produces no semantic relationships between
// unrelated words, but it is stable, requires no network or model
// runtime, and is sufficient to exercise KNN, chunking, and
// cache-invalidation end to end.
type LocalEmbedder struct{}

// NewLocalEmbedder returns the default Embedder.
func NewLocalEmbedder() *LocalEmbedder {
	return &LocalEmbedder{}
}

// Embed implements Embedder.
func (e *LocalEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return embedText(text), nil
}

// EmbedBatch implements Embedder.
func (e *LocalEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = embedText(t)
	}
	return out, nil
}

func embedText(text string) []float32 {
	vec := make([]float64, Dimensions)
	words := strings.Fields(strings.ToLower(text))
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		bucket := int(h.Sum32() % Dimensions)
		vec[bucket]++
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	out := make([]float32, Dimensions)
	if norm == 0 {
		return out
	}
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out
}

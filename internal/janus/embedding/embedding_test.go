package embedding

import (
	"context"
	"math"
	"testing"
)

func TestCosineSimilarityIdentical(t *testing.T) {
	v := []float32{1, 0, 0}
	if got := CosineSimilarity(v, v); math.Abs(got-1.0) > 1e-6 {
		t.Errorf("got %v, want 1.0", got)
	}
}

func TestCosineSimilarityOrthogonal(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	if got := CosineSimilarity(a, b); math.Abs(got) > 1e-6 {
		t.Errorf("got %v, want 0", got)
	}
}

func TestCosineSimilarityLengthMismatch(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{1, 0, 0}
	if got := CosineSimilarity(a, b); got != 0.0 {
		t.Errorf("got %v, want 0.0", got)
	}
}

func TestCosineSimilarityZeroNorm(t *testing.T) {
	a := []float32{0, 0}
	b := []float32{1, 0}
	if got := CosineSimilarity(a, b); got != 0.0 {
		t.Errorf("got %v, want 0.0", got)
	}
}

func TestLocalEmbedderDeterministic(t *testing.T) {
	e := NewLocalEmbedder()
	v1, _ := e.Embed(context.Background(), "fix the cache bug")
	v2, _ := e.Embed(context.Background(), "fix the cache bug")
	if len(v1) != Dimensions {
		t.Fatalf("len = %d, want %d", len(v1), Dimensions)
	}
	for i := range v1 {
		if v1[i] != v2[i] {
			t.Fatalf("embeddings not deterministic at index %d: %v vs %v", i, v1[i], v2[i])
		}
	}
}

func TestLocalEmbedderNormalized(t *testing.T) {
	e := NewLocalEmbedder()
	v, _ := e.Embed(context.Background(), "some arbitrary text with several words")
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	if math.Abs(norm-1.0) > 1e-4 {
		t.Errorf("norm = %v, want ~1.0", norm)
	}
}

func TestLocalEmbedderEmptyText(t *testing.T) {
	e := NewLocalEmbedder()
	v, _ := e.Embed(context.Background(), "")
	for _, x := range v {
		if x != 0 {
			t.Fatalf("expected zero vector for empty text, got %v", v)
		}
	}
}

func TestLocalEmbedderSimilarTextsMoreSimilarThanUnrelated(t *testing.T) {
	e := NewLocalEmbedder()
	a, _ := e.Embed(context.Background(), "fix cache invalidation bug")
	b, _ := e.Embed(context.Background(), "fix cache invalidation issue")
	c, _ := e.Embed(context.Background(), "plant a garden of flowers")

	simAB := CosineSimilarity(a, b)
	simAC := CosineSimilarity(a, c)
	if simAB <= simAC {
		t.Errorf("expected related texts more similar: simAB=%v simAC=%v", simAB, simAC)
	}
}

func TestKNNReturnsTopLimitDescending(t *testing.T) {
	embeddings := map[string][]float32{
		"a": {1, 0},
		"b": {0.9, 0.1},
		"c": {0, 1},
	}
	query := []float32{1, 0}
	matches := KNN(embeddings, query, 2, nil)
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].Key != "a" {
		t.Errorf("expected a first, got %s", matches[0].Key)
	}
	if matches[0].Similarity < matches[1].Similarity {
		t.Errorf("expected descending order, got %+v", matches)
	}
}

func TestKNNThreshold(t *testing.T) {
	embeddings := map[string][]float32{
		"a": {1, 0},
		"b": {0, 1},
	}
	query := []float32{1, 0}
	threshold := 0.5
	matches := KNN(embeddings, query, 10, &threshold)
	if len(matches) != 1 || matches[0].Key != "a" {
		t.Fatalf("expected only a above threshold, got %+v", matches)
	}
}

func TestKNNLimitZero(t *testing.T) {
	embeddings := map[string][]float32{"a": {1, 0}}
	if got := KNN(embeddings, []float32{1, 0}, 0, nil); got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestParseDocChunkKeyRoundTrip(t *testing.T) {
	label, start, ok := parseDocChunkKey("doc:architecture:c42")
	if !ok || label != "architecture" || start != 42 {
		t.Fatalf("got label=%q start=%d ok=%v", label, start, ok)
	}
}

func TestParseDocChunkKeyRejectsMalformed(t *testing.T) {
	if _, _, ok := parseDocChunkKey("not-a-doc-key"); ok {
		t.Error("expected rejection")
	}
}

func TestIndexDocAndSearchDocs(t *testing.T) {
	e := NewLocalEmbedder()
	body := "# Architecture\n\n## Storage\n\nTickets live as files.\n\n## Search\n\nEmbeddings power semantic search.\n"

	vecs, err := IndexDoc(context.Background(), e, "architecture", body)
	if err != nil {
		t.Fatalf("IndexDoc() error = %v", err)
	}
	if len(vecs) != 2 {
		t.Fatalf("expected 2 chunk vectors, got %d", len(vecs))
	}

	query, _ := e.Embed(context.Background(), "semantic search embeddings")
	getBody := func(label string) (string, bool) {
		if label == "architecture" {
			return body, true
		}
		return "", false
	}
	matches := SearchDocs(vecs, query, 1, getBody)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].Label != "architecture" {
		t.Errorf("Label = %q, want \"architecture\"", matches[0].Label)
	}
	if len(matches[0].HeadingPath) == 0 {
		t.Error("expected non-empty heading path")
	}
}

package embedding

import "container/heap"

// Match is one KNN result: the embeddings-map key and its similarity to
// the query vector.
type Match struct {
	Key        string
	Similarity float64
}

type scoredHeap []Match

func (h scoredHeap) Len() int            { return len(h) }
func (h scoredHeap) Less(i, j int) bool  { return h[i].Similarity < h[j].Similarity }
func (h scoredHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *scoredHeap) Push(x interface{}) { *h = append(*h, x.(Match)) }
func (h *scoredHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// KNN performs a brute-force nearest-neighbor search over embeddings
// using a bounded min-heap of size limit, returning the top-limit matches
// sorted descending by similarity. threshold, if non-nil, excludes
// matches below that similarity.
func KNN(embeddings map[string][]float32, query []float32, limit int, threshold *float64) []Match {
	if limit <= 0 {
		return nil
	}

	h := &scoredHeap{}
	heap.Init(h)

	for key, vec := range embeddings {
		sim := CosineSimilarity(query, vec)
		if threshold != nil && sim < *threshold {
			continue
		}
		if h.Len() < limit {
			heap.Push(h, Match{Key: key, Similarity: sim})
			continue
		}
		if sim > (*h)[0].Similarity {
			heap.Pop(h)
			heap.Push(h, Match{Key: key, Similarity: sim})
		}
	}

	result := make([]Match, h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(h).(Match)
	}
	return result
}

package store

import (
	"context"
	"fmt"
	"math"
	"sort"

	"musicrec/internal/domain"
	"musicrec/internal/port"
)

// snapshot is an immutable in-memory copy of one collection version.
// Uses brute-force search; the catalog is small (GTZAN has 1000 tracks).
type snapshot struct {
	info     port.CollectionInfo
	ids      []int64
	vectors  [][]float32
	norms    []float64
	payloads []port.Payload
}

func newSnapshot(info port.CollectionInfo, capacity int) *snapshot {
	return &snapshot{
		info:     info,
		ids:      make([]int64, 0, capacity),
		vectors:  make([][]float32, 0, capacity),
		norms:    make([]float64, 0, capacity),
		payloads: make([]port.Payload, 0, capacity),
	}
}

func (s *snapshot) add(id int64, vector []float32, payload port.Payload) {
	s.ids = append(s.ids, id)
	s.vectors = append(s.vectors, vector)
	s.norms = append(s.norms, norm(vector))
	s.payloads = append(s.payloads, payload)
}

func (s *snapshot) search(ctx context.Context, query []float32, limit int) ([]port.SearchHit, error) {
	if len(query) != s.info.Dimension {
		return nil, fmt.Errorf("%w: query has %d, collection has %d", domain.ErrDimensionMismatch, len(query), s.info.Dimension)
	}
	if limit <= 0 || len(s.ids) == 0 {
		return nil, nil
	}

	qNorm := norm(query)
	hits := make([]port.SearchHit, len(s.ids))
	for i := range s.ids {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		hits[i] = port.SearchHit{
			ID:      s.ids[i],
			Score:   cosine(query, s.vectors[i], qNorm, s.norms[i]),
			Payload: s.payloads[i],
		}
	}

	return TopK(hits, limit), nil
}

// TopK orders hits by descending score (ties by ascending id) and keeps
// the first k.
func TopK(hits []port.SearchHit, k int) []port.SearchHit {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits
}

// CosineSimilarity calculates the cosine similarity between two vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	return cosine(a, b, norm(a), norm(b))
}

func cosine(a, b []float32, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	var dotProduct float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
	}
	return dotProduct / (normA * normB)
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

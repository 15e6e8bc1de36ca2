// Package vectorutil holds the similarity ranking shared by the vector
// index backends.
package vectorutil

import (
	"math"
	"sort"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// Cosine returns the cosine similarity of a and b.
// Vectors of different length or zero magnitude score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Rank scores candidates against query and returns the best k, highest
// score first. Ties keep candidate order.
func Rank(query []float32, candidates []domain.Segment, k int) []domain.ScoredSegment {
	if k <= 0 || len(candidates) == 0 {
		return []domain.ScoredSegment{}
	}

	scored := make([]domain.ScoredSegment, len(candidates))
	for i := range candidates {
		scored[i] = domain.ScoredSegment{
			Segment: candidates[i],
			Score:   Cosine(query, candidates[i].Embedding),
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

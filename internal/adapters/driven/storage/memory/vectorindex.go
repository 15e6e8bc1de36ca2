package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/vectorutil"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is an in-memory implementation of driven.VectorIndex.
// Search is a brute-force cosine scan.
type VectorIndex struct {
	mu       sync.RWMutex
	segments []domain.Segment
	byID     map[string]int
}

// NewVectorIndex creates a new in-memory vector index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{
		byID: make(map[string]int),
	}
}

// Add upserts segments by ChunkID.
func (v *VectorIndex) Add(_ context.Context, segments []domain.Segment) error {
	for i := range segments {
		if len(segments[i].Embedding) == 0 {
			return fmt.Errorf("%w: segment %s has no embedding", domain.ErrInvalidInput, segments[i].ChunkID)
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	for _, seg := range segments {
		seg.Embedding = slices.Clone(seg.Embedding)
		if idx, ok := v.byID[seg.ChunkID]; ok && seg.ChunkID != "" {
			v.segments[idx] = seg
			continue
		}
		if seg.ChunkID != "" {
			v.byID[seg.ChunkID] = len(v.segments)
		}
		v.segments = append(v.segments, seg)
	}
	return nil
}

// Search returns the k segments closest to query among those the filter matches.
func (v *VectorIndex) Search(
	_ context.Context, query []float32, k int, filter *domain.RetrievalFilter,
) ([]domain.ScoredSegment, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	candidates := make([]domain.Segment, 0, len(v.segments))
	for i := range v.segments {
		if filter.Matches(v.segments[i].Source) {
			candidates = append(candidates, v.segments[i])
		}
	}
	return vectorutil.Rank(query, candidates, k), nil
}

// Sources returns distinct source names in insertion order.
func (v *VectorIndex) Sources(_ context.Context) ([]string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	var names []string
	seen := make(map[string]struct{})
	for i := range v.segments {
		name := v.segments[i].Source
		if _, ok := seen[name]; ok || name == "" {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names, nil
}

// Count returns the number of stored segments.
func (v *VectorIndex) Count(_ context.Context) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.segments), nil
}

// Close is a no-op.
func (v *VectorIndex) Close() error {
	return nil
}

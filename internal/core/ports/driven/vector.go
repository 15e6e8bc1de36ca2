package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// VectorIndex stores embedded segments and runs similarity search over them.
// Implementations must be safe for concurrent writers: ingestion workers
// add segments for different documents at the same time.
type VectorIndex interface {
	// Add upserts segments keyed by ChunkID. Every segment must carry an Embedding.
	Add(ctx context.Context, segments []domain.Segment) error

	// Search returns up to k segments closest to query by cosine similarity,
	// best first. When filter is non-nil only segments whose source it
	// matches are considered.
	Search(ctx context.Context, query []float32, k int, filter *domain.RetrievalFilter) ([]domain.ScoredSegment, error)

	// Sources returns the distinct source names present in the index.
	Sources(ctx context.Context) ([]string, error)

	// Count returns the number of stored segments.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// DefaultEmbedBatchSize is the number of segments embedded per request.
const DefaultEmbedBatchSize = 64

// VectorStore combines an embedding service with a vector index backend.
// It is safe for concurrent use when both collaborators are.
type VectorStore struct {
	embedder  driven.EmbeddingService
	index     driven.VectorIndex
	batchSize int
}

// NewVectorStore creates a vector store over the given embedder and index.
func NewVectorStore(embedder driven.EmbeddingService, index driven.VectorIndex) *VectorStore {
	return &VectorStore{
		embedder:  embedder,
		index:     index,
		batchSize: DefaultEmbedBatchSize,
	}
}

// WithBatchSize overrides the embedding batch size.
func (s *VectorStore) WithBatchSize(n int) *VectorStore {
	if n > 0 {
		s.batchSize = n
	}
	return s
}

// Add embeds and persists segments, returning their chunk ids in order.
// Embedding failures are wrapped with domain.ErrEmbeddingUnavailable and
// index failures with domain.ErrIndexWrite. Nothing is retried.
func (s *VectorStore) Add(ctx context.Context, segments []domain.Segment) ([]string, error) {
	if len(segments) == 0 {
		return nil, nil
	}

	embedded := make([]domain.Segment, len(segments))
	copy(embedded, segments)

	for start := 0; start < len(embedded); start += s.batchSize {
		end := min(start+s.batchSize, len(embedded))

		texts := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			texts = append(texts, embedded[i].Content)
		}

		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
		}
		if len(vectors) != len(texts) {
			return nil, fmt.Errorf("%w: got %d embeddings for %d texts",
				domain.ErrEmbeddingUnavailable, len(vectors), len(texts))
		}
		for i, v := range vectors {
			embedded[start+i].Embedding = v
		}
	}

	if err := s.index.Add(ctx, embedded); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIndexWrite, err)
	}

	ids := make([]string, len(embedded))
	for i := range embedded {
		ids[i] = embedded[i].ChunkID
	}
	logger.Debug("Indexed %d segments", len(ids))
	return ids, nil
}

// Search returns up to k segments most similar to query, restricted to
// filter when it is non-nil.
func (s *VectorStore) Search(
	ctx context.Context, query string, k int, filter *domain.RetrievalFilter,
) ([]domain.ScoredSegment, error) {
	query = strings.TrimSpace(query)
	if query == "" || k <= 0 {
		return []domain.ScoredSegment{}, nil
	}
	if filter != nil && len(filter.Sources) == 0 {
		return []domain.ScoredSegment{}, nil
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	hits, err := s.index.Search(ctx, vector, k, filter)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	logger.Debug("Vector search %q: %d hits", query, len(hits))
	return hits, nil
}

// AsRetriever returns a retriever bound to a constant k and filter.
func (s *VectorStore) AsRetriever(k int, filter *domain.RetrievalFilter) Retriever {
	return &SingleQueryRetriever{store: s, k: k, filter: filter}
}

// Sources returns the names of documents present in the index.
func (s *VectorStore) Sources(ctx context.Context) ([]string, error) {
	return s.index.Sources(ctx)
}

// Count returns the number of indexed segments.
func (s *VectorStore) Count(ctx context.Context) (int, error) {
	return s.index.Count(ctx)
}

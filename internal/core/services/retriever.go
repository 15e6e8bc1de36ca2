package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Retriever turns a query into the segments used as answer context.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]domain.Segment, error)
}

// Ensure retrievers implement the interface.
var (
	_ Retriever = (*SingleQueryRetriever)(nil)
	_ Retriever = (*MultiQueryRetriever)(nil)
)

// SingleQueryRetriever runs one similarity search per query.
type SingleQueryRetriever struct {
	store  *VectorStore
	k      int
	filter *domain.RetrievalFilter
}

// Retrieve returns up to k segments for query.
func (r *SingleQueryRetriever) Retrieve(ctx context.Context, query string) ([]domain.Segment, error) {
	hits, err := r.store.Search(ctx, query, r.k, r.filter)
	if err != nil {
		return nil, err
	}
	return segmentsOf(hits), nil
}

// RetrieverConfig selects and tunes a retrieval strategy.
type RetrieverConfig struct {
	Strategy    domain.RetrievalStrategy
	K           int
	Filter      *domain.RetrievalFilter
	Paraphrases int
}

// NewRetriever builds the retriever for the configured strategy.
// Multi-query needs an LLM; without one it is an error rather than a
// silent downgrade.
func NewRetriever(
	cfg RetrieverConfig,
	store *VectorStore,
	llm driven.LLMService,
	prompts driven.PromptStore,
) (Retriever, error) {
	switch cfg.Strategy {
	case domain.RetrievalSingle, "":
		return store.AsRetriever(cfg.K, cfg.Filter), nil
	case domain.RetrievalMultiQuery:
		if llm == nil {
			return nil, fmt.Errorf("multi-query retrieval: %w", domain.ErrLLMUnavailable)
		}
		return NewMultiQueryRetriever(store, llm, prompts, cfg.Paraphrases, cfg.K, cfg.Filter), nil
	default:
		return nil, fmt.Errorf("%w: unknown retrieval strategy %q", domain.ErrInvalidInput, cfg.Strategy)
	}
}

func segmentsOf(hits []domain.ScoredSegment) []domain.Segment {
	out := make([]domain.Segment, len(hits))
	for i := range hits {
		out[i] = hits[i].Segment
	}
	return out
}

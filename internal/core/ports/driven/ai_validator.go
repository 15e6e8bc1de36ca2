package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// AIConfigValidator checks AI provider configurations by testing
// connectivity to the underlying services.
type AIConfigValidator interface {
	// ValidateEmbedding pings the embedding provider described by config.
	ValidateEmbedding(ctx context.Context, config *domain.EmbeddingSettings) error

	// ValidateLLM pings the LLM provider described by config.
	ValidateLLM(ctx context.Context, config *domain.LLMSettings) error
}

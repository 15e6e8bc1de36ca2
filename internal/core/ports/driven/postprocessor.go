package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// PostProcessor is one stage of the segment pipeline (e.g., chunking, enrichment).
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process takes a loaded document and returns segments.
	// If the processor creates segments (e.g., chunker), it ignores its input and returns new ones.
	// If the processor modifies segments (e.g., enricher), it receives and returns them.
	Process(ctx context.Context, doc *domain.LoadedDocument, segments []domain.Segment) ([]domain.Segment, error)
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the document through all processors in order.
	// Returns the final segments after all processing.
	Process(ctx context.Context, doc *domain.LoadedDocument) ([]domain.Segment, error)
}

// Package enricher attaches provenance metadata to segments.
package enricher

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// Enrich returns a copy of segments with Source, ContentHash and ChunkID set.
// ChunkID is "<fingerprint>-<index>" where index is the segment's position.
// Order and length are unchanged.
func Enrich(segments []domain.Segment, source, fingerprint string) []domain.Segment {
	out := make([]domain.Segment, len(segments))
	for i, s := range segments {
		s.Source = source
		s.ContentHash = fingerprint
		s.ChunkID = ChunkID(fingerprint, i)
		out[i] = s
	}
	return out
}

// ChunkID builds the stable identifier for the segment at ordinal.
func ChunkID(fingerprint string, ordinal int) string {
	return fmt.Sprintf("%s-%d", fingerprint, ordinal)
}

// Processor wraps Enrich as a pipeline stage, taking the source name and
// fingerprint from the loaded document.
// It implements the PostProcessor interface.
type Processor struct{}

// New creates a new enricher processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "enricher"
}

// Process attaches provenance to the incoming segments.
func (p *Processor) Process(_ context.Context, doc *domain.LoadedDocument, segments []domain.Segment) ([]domain.Segment, error) {
	if doc.Fingerprint == "" {
		return nil, fmt.Errorf("%w: document %q has no fingerprint", domain.ErrInvalidInput, doc.Name)
	}
	return Enrich(segments, doc.Name, doc.Fingerprint), nil
}

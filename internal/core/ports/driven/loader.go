package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// DocumentLoader extracts page-level text units from a document on disk.
type DocumentLoader interface {
	// Load returns the document's pages in order.
	// Returns an error for unreadable or corrupt input.
	Load(ctx context.Context, path string) ([]domain.Page, error)

	// Extensions returns the file extensions this loader accepts (e.g. ".pdf").
	Extensions() []string
}

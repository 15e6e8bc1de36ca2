package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// ProgressFunc is called by the orchestrating goroutine each time a
// document finishes, with the number done so far and the batch size.
type ProgressFunc func(done, total int, result domain.IngestResult)

// IngestService indexes uploaded documents.
type IngestService interface {
	// Ingest processes a batch of uploads concurrently and reconciles the
	// results into the session. Per-document failures are reported as error
	// results; the returned error only reports a failure to persist the
	// processed set.
	Ingest(
		ctx context.Context,
		session *domain.Session,
		uploads []domain.Upload,
		progress ProgressFunc,
	) ([]domain.IngestResult, domain.BatchSummary, error)
}

package domain

import (
	"fmt"
	"time"
)

// Upload is a document submitted for ingestion.
type Upload struct {
	// Name is the display name, typically the file base name.
	Name string

	// Data is the raw document bytes.
	Data []byte
}

// IngestStatus is the outcome of ingesting one document.
type IngestStatus string

// Ingestion outcomes.
const (
	IngestSkipped IngestStatus = "skipped"
	IngestSuccess IngestStatus = "success"
	IngestError   IngestStatus = "error"
)

// IngestResult is the value a worker returns for one uploaded document.
type IngestResult struct {
	Name        string
	Status      IngestStatus
	Message     string
	Fingerprint string

	// Pages and Segments are set on success.
	Pages    int
	Segments int

	// Err is the underlying failure for error results.
	Err error

	// DuplicateOf names the earlier upload in the same batch with
	// identical content. Set only on skipped results.
	DuplicateOf string
}

// Indexed reports whether the document is now present in the index,
// either newly added or already there.
func (r IngestResult) Indexed() bool {
	return r.Status == IngestSuccess || r.Status == IngestSkipped
}

// SkippedResult builds the result for an already indexed document.
func SkippedResult(name, fingerprint string) IngestResult {
	return IngestResult{
		Name:        name,
		Status:      IngestSkipped,
		Message:     fmt.Sprintf("Skipping %s: already indexed.", name),
		Fingerprint: fingerprint,
	}
}

// DuplicateResult builds the result for an upload whose bytes match an
// earlier upload in the same batch.
func DuplicateResult(name, fingerprint, original string) IngestResult {
	return IngestResult{
		Name:        name,
		Status:      IngestSkipped,
		Message:     fmt.Sprintf("Skipping %s: same content as %s.", name, original),
		Fingerprint: fingerprint,
		DuplicateOf: original,
	}
}

// SuccessResult builds the result for a newly indexed document.
func SuccessResult(name, fingerprint string, pages, segments int) IngestResult {
	return IngestResult{
		Name:        name,
		Status:      IngestSuccess,
		Message:     fmt.Sprintf("Added %d chunks from %s (%d pages).", segments, name, pages),
		Fingerprint: fingerprint,
		Pages:       pages,
		Segments:    segments,
	}
}

// ErrorResult builds the result for a document that failed to ingest.
func ErrorResult(name, fingerprint string, err error) IngestResult {
	return IngestResult{
		Name:        name,
		Status:      IngestError,
		Message:     fmt.Sprintf("Error processing %s: %v", name, err),
		Fingerprint: fingerprint,
		Err:         err,
	}
}

// BatchSummary totals the results of one ingestion batch.
type BatchSummary struct {
	Processed int
	Skipped   int
	Errors    int
	Elapsed   time.Duration
}

// Summarise counts results by status.
func Summarise(results []IngestResult, elapsed time.Duration) BatchSummary {
	s := BatchSummary{Elapsed: elapsed}
	for i := range results {
		switch results[i].Status {
		case IngestSuccess:
			s.Processed++
		case IngestSkipped:
			s.Skipped++
		case IngestError:
			s.Errors++
		}
	}
	return s
}

// String renders the summary for display.
func (s BatchSummary) String() string {
	return fmt.Sprintf("Processed: %d, Skipped: %d, Errors: %d (%.1fs)",
		s.Processed, s.Skipped, s.Errors, s.Elapsed.Seconds())
}

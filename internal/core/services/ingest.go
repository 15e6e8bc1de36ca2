package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure IngestOrchestrator implements the interface.
var _ driving.IngestService = (*IngestOrchestrator)(nil)

// IngestOrchestrator indexes batches of uploaded documents with a bounded
// worker pool. Workers only see a snapshot of the processed set; the
// calling goroutine reconciles their results into the session.
type IngestOrchestrator struct {
	loader    driven.DocumentLoader
	pipeline  driven.PostProcessorPipeline
	store     *VectorStore
	processed driven.ProcessedSetStore
	workers   int
	tempDir   string
}

// IngestOption configures an IngestOrchestrator.
type IngestOption func(*IngestOrchestrator)

// WithWorkers sets the pool size, clamped to 1..domain.MaxIngestWorkers.
func WithWorkers(n int) IngestOption {
	return func(o *IngestOrchestrator) {
		o.workers = min(max(n, 1), domain.MaxIngestWorkers)
	}
}

// WithTempDir sets the directory for per-document temp files.
// The default is the system temp dir.
func WithTempDir(dir string) IngestOption {
	return func(o *IngestOrchestrator) {
		o.tempDir = dir
	}
}

// NewIngestOrchestrator creates an ingestion orchestrator.
func NewIngestOrchestrator(
	loader driven.DocumentLoader,
	pipeline driven.PostProcessorPipeline,
	store *VectorStore,
	processed driven.ProcessedSetStore,
	opts ...IngestOption,
) *IngestOrchestrator {
	o := &IngestOrchestrator{
		loader:    loader,
		pipeline:  pipeline,
		store:     store,
		processed: processed,
		workers:   domain.MaxIngestWorkers,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type ingestJob struct {
	index       int
	upload      domain.Upload
	fingerprint string

	// duplicateOf is the name of an earlier upload with the same bytes.
	duplicateOf string
}

type ingestOutcome struct {
	index  int
	result domain.IngestResult
}

// Ingest processes uploads concurrently. Results are returned in upload
// order. The returned error only reports a failure to persist the
// processed set; per-document failures are error results.
func (o *IngestOrchestrator) Ingest(
	ctx context.Context,
	session *domain.Session,
	uploads []domain.Upload,
	progress driving.ProgressFunc,
) ([]domain.IngestResult, domain.BatchSummary, error) {
	started := time.Now()
	total := len(uploads)
	if total == 0 {
		return nil, domain.Summarise(nil, 0), nil
	}

	// 1. Snapshot the processed set for workers
	session.Lock()
	snapshot := session.Processed.Clone()
	session.Unlock()
	workers := min(o.workers, total)
	logger.Info("Ingesting %d documents with %d workers", total, workers)

	// 2. Fan out
	jobs := make(chan ingestJob)
	outcomes := make(chan ingestOutcome)

	for range workers {
		go func() {
			for job := range jobs {
				outcomes <- ingestOutcome{
					index:  job.index,
					result: o.ingestOne(ctx, job, snapshot),
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, job := range planJobs(uploads) {
			jobs <- job
		}
	}()

	// 3. Collect in arrival order
	results := make([]domain.IngestResult, total)
	for done := 1; done <= total; done++ {
		out := <-outcomes
		results[out.index] = out.result
		logger.Debug("%s", out.result.Message)
		if progress != nil {
			progress(done, total, out.result)
		}
	}

	// 4. Reconcile into the session
	session.Lock()
	defer session.Unlock()
	for i := range results {
		if !results[i].Indexed() {
			continue
		}
		session.Processed.Add(results[i].Fingerprint)
		if results[i].DuplicateOf == "" {
			session.Registry.Add(results[i].Name)
		}
	}

	summary := domain.Summarise(results, time.Since(started))
	logger.Info("Ingestion complete: %s", summary)

	// 5. Persist once per batch
	if o.processed != nil {
		if err := o.processed.Save(session.Processed); err != nil {
			logger.Warn("Failed to save processed set to %s: %v", o.processed.Path(), err)
			return results, summary, fmt.Errorf("save processed set: %w", err)
		}
	}

	return results, summary, nil
}

// planJobs fingerprints uploads in upload order. Only the first upload of
// each distinct content is indexed; chunk ids derive from the fingerprint,
// so a later copy would overwrite the first one's source.
func planJobs(uploads []domain.Upload) []ingestJob {
	first := make(map[string]string, len(uploads))
	jobs := make([]ingestJob, len(uploads))
	for i, u := range uploads {
		fp := Fingerprint(u.Data)
		jobs[i] = ingestJob{index: i, upload: u, fingerprint: fp}
		if name, ok := first[fp]; ok {
			jobs[i].duplicateOf = name
			continue
		}
		first[fp] = u.Name
	}
	return jobs
}

// ingestOne runs the per-document steps. It never touches the session.
func (o *IngestOrchestrator) ingestOne(
	ctx context.Context,
	job ingestJob,
	snapshot domain.FingerprintSet,
) domain.IngestResult {
	upload, fingerprint := job.upload, job.fingerprint

	if err := ctx.Err(); err != nil {
		return domain.ErrorResult(upload.Name, fingerprint, err)
	}
	if job.duplicateOf != "" {
		return domain.DuplicateResult(upload.Name, fingerprint, job.duplicateOf)
	}
	if snapshot.Has(fingerprint) {
		return domain.SkippedResult(upload.Name, fingerprint)
	}

	pages, segments, err := o.index(ctx, upload, fingerprint)
	if err != nil {
		return domain.ErrorResult(upload.Name, fingerprint, err)
	}
	return domain.SuccessResult(upload.Name, fingerprint, pages, segments)
}

// index writes the upload to a temp file, loads it, splits it and adds
// the segments to the vector store. Returns page and segment counts.
func (o *IngestOrchestrator) index(
	ctx context.Context,
	upload domain.Upload,
	fingerprint string,
) (int, int, error) {
	path, cleanup, err := o.writeTemp(upload)
	if err != nil {
		return 0, 0, err
	}
	defer cleanup()

	pages, err := o.loader.Load(ctx, path)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", domain.ErrLoadFailed, err)
	}

	doc := &domain.LoadedDocument{
		Name:        upload.Name,
		Fingerprint: fingerprint,
		Pages:       pages,
	}
	segments, err := o.pipeline.Process(ctx, doc)
	if err != nil {
		return 0, 0, fmt.Errorf("split: %w", err)
	}

	if len(segments) > 0 {
		if _, err := o.store.Add(ctx, segments); err != nil {
			return 0, 0, err
		}
	}

	return len(pages), len(segments), nil
}

// writeTemp stores upload in a uniquely named temp file. The returned
// cleanup removes it.
func (o *IngestOrchestrator) writeTemp(upload domain.Upload) (string, func(), error) {
	ext := filepath.Ext(upload.Name)
	if ext == "" {
		ext = ".pdf"
	}

	f, err := os.CreateTemp(o.tempDir, "docqa-*"+ext)
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()
	cleanup := func() {
		_ = os.Remove(path)
	}

	if _, err := f.Write(upload.Data); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close temp file: %w", err)
	}

	return path, cleanup, nil
}

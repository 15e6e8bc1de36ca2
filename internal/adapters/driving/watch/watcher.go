// Package watch ingests documents dropped into a directory.
//
// File events are debounced: a burst of creates and writes becomes one
// ingestion batch once the directory has been quiet for the debounce
// interval.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/core/services"
	"github.com/custodia-labs/docqa/internal/logger"
)

// DefaultDebounce is how long the directory must be quiet before a batch runs.
const DefaultDebounce = 750 * time.Millisecond

// ErrMissingIngestService is returned when no ingest service is provided.
var ErrMissingIngestService = errors.New("watch: ingest service is required")

// BatchFunc receives the outcome of each ingestion batch.
type BatchFunc func(results []domain.IngestResult, summary domain.BatchSummary, err error)

// Config configures a Watcher.
type Config struct {
	// Dir is the directory to watch. It is not watched recursively.
	Dir string

	// Extensions limits which files are ingested. Empty accepts everything.
	Extensions []string

	// Debounce overrides DefaultDebounce when positive.
	Debounce time.Duration

	// IngestExisting ingests matching files already in Dir on start.
	IngestExisting bool

	// OnBatch, when set, is called after every batch.
	OnBatch BatchFunc
}

// Watcher feeds new documents in a directory to an ingest service.
type Watcher struct {
	ingest  driving.IngestService
	session *domain.Session
	cfg     Config
}

// New creates a watcher that ingests into session.
func New(ingest driving.IngestService, session *domain.Session, cfg Config) (*Watcher, error) {
	if ingest == nil {
		return nil, ErrMissingIngestService
	}
	if session == nil {
		return nil, fmt.Errorf("%w: session is required", domain.ErrInvalidInput)
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("%w: watch directory is required", domain.ErrInvalidInput)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	return &Watcher{ingest: ingest, session: session, cfg: cfg}, nil
}

// Run watches until ctx is cancelled. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.cfg.Dir)
	if err != nil {
		return fmt.Errorf("watch %s: %w", w.cfg.Dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, w.cfg.Dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.cfg.Dir, err)
	}
	logger.Info("Watching %s for new documents", w.cfg.Dir)

	pending := make(map[string]struct{})
	if w.cfg.IngestExisting {
		existing, err := w.existing()
		if err != nil {
			return err
		}
		for _, p := range existing {
			pending[p] = struct{}{}
		}
	}

	timer := time.NewTimer(w.cfg.Debounce)
	if len(pending) == 0 {
		timer.Stop()
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			path, ok := w.handleEvent(event)
			if !ok {
				continue
			}
			logger.Debug("watch: %s %s", event.Op, path)
			pending[path] = struct{}{}
			timer.Reset(w.cfg.Debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)

		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			clear(pending)
			slices.Sort(paths)
			w.ingestBatch(ctx, paths)
		}
	}
}

// handleEvent returns the path to ingest for an event, if any.
// Only creates and writes of visible regular files with an accepted
// extension count.
func (w *Watcher) handleEvent(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return "", false
	}
	if !services.HasExtension(event.Name, w.cfg.Extensions) {
		return "", false
	}
	info, err := os.Stat(event.Name)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return event.Name, true
}

// existing lists matching files already in the directory.
func (w *Watcher) existing() ([]string, error) {
	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", w.cfg.Dir, err)
	}
	var paths []string
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if services.HasExtension(e.Name(), w.cfg.Extensions) {
			paths = append(paths, filepath.Join(w.cfg.Dir, e.Name()))
		}
	}
	return paths, nil
}

func (w *Watcher) ingestBatch(ctx context.Context, paths []string) {
	uploads, readErr := services.ReadUploads(paths, w.cfg.Extensions)
	if readErr != nil {
		logger.Warn("watch: %v", readErr)
	}
	if len(uploads) == 0 {
		return
	}

	results, summary, err := w.ingest.Ingest(ctx, w.session, uploads, nil)
	if err != nil {
		logger.Warn("watch: %v", err)
	}
	logger.Info("watch: %s", summary)
	if w.cfg.OnBatch != nil {
		w.cfg.OnBatch(results, summary, err)
	}
}

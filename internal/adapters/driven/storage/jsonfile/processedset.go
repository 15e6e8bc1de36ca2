// Package jsonfile persists small records as JSON documents on disk.
package jsonfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// ProcessedFile is the file name of the processed fingerprint record.
const ProcessedFile = "processed_hashes.json"

// Verify interface compliance at compile time.
var _ driven.ProcessedSetStore = (*ProcessedSetStore)(nil)

// ProcessedSetStore keeps the processed fingerprint set as a JSON array.
type ProcessedSetStore struct {
	path string
}

// NewProcessedSetStore returns a store that reads and writes
// <dir>/processed_hashes.json. The directory is created on first Save.
func NewProcessedSetStore(dir string) *ProcessedSetStore {
	return &ProcessedSetStore{path: filepath.Join(dir, ProcessedFile)}
}

// Load returns the persisted set. A missing or corrupt file yields an empty set.
func (s *ProcessedSetStore) Load() domain.FingerprintSet {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Debug("Could not read processed set %s: %v", s.path, err)
		}
		return domain.NewFingerprintSet()
	}

	var fingerprints []string
	if err := json.Unmarshal(data, &fingerprints); err != nil {
		logger.Debug("Ignoring corrupt processed set %s: %v", s.path, err)
		return domain.NewFingerprintSet()
	}
	return domain.NewFingerprintSet(fingerprints...)
}

// Save overwrites the record with the set's fingerprints in sorted order.
// The write goes through a temporary file so a crash never leaves a
// truncated record behind.
func (s *ProcessedSetStore) Save(set domain.FingerprintSet) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	data, err := json.Marshal(set.Sorted())
	if err != nil {
		return fmt.Errorf("marshal processed set: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ProcessedFile+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck,gosec // write error takes precedence
		return fmt.Errorf("write processed set: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close processed set: %w", err)
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		return fmt.Errorf("chmod processed set: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replace processed set: %w", err)
	}
	return nil
}

// Path returns the record's file path.
func (s *ProcessedSetStore) Path() string {
	return s.path
}

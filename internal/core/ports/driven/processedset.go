package driven

import "github.com/custodia-labs/docqa/internal/core/domain"

// ProcessedSetStore is the durable record of fingerprints already indexed.
type ProcessedSetStore interface {
	// Load returns the persisted set. It never fails: a missing or
	// unreadable record yields an empty set.
	Load() domain.FingerprintSet

	// Save overwrites the persisted set.
	Save(set domain.FingerprintSet) error

	// Path returns where the set is persisted.
	Path() string
}

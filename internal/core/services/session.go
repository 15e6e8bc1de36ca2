package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure SessionService implements the interface.
var _ driving.SessionService = (*SessionService)(nil)

// SessionService creates sessions seeded from persisted state.
type SessionService struct {
	processed driven.ProcessedSetStore
	index     driven.VectorIndex
}

// NewSessionService creates a session service. index may be nil, in
// which case sessions are never restored from the index.
func NewSessionService(processed driven.ProcessedSetStore, index driven.VectorIndex) *SessionService {
	return &SessionService{processed: processed, index: index}
}

// Start creates a new session with a fresh id.
func (s *SessionService) Start(ctx context.Context, restore bool) (*domain.Session, error) {
	var processed domain.FingerprintSet
	if s.processed != nil {
		processed = s.processed.Load()
	}

	session := domain.NewSession(uuid.NewString(), processed)
	logger.Debug("Session %s started with %d processed documents", session.ID, session.Processed.Len())

	if !restore || s.index == nil {
		return session, nil
	}

	sources, err := s.index.Sources(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list indexed documents: %w", domain.ErrVectorIndexUnavailable, err)
	}
	for _, name := range sources {
		session.Registry.Add(name)
	}
	logger.Debug("Restored %d documents into session registry", session.Registry.Len())

	return session, nil
}

package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// SessionService starts interactive sessions.
type SessionService interface {
	// Start creates a session seeded with the persisted processed set.
	// When restore is true, documents already in the index are added to
	// the session's registry so they can be selected without re-uploading.
	Start(ctx context.Context, restore bool) (*domain.Session, error)
}

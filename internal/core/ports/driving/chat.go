package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// AskOptions tunes a single question.
type AskOptions struct {
	// Broad retrieves top_k_broad segments instead of top_k.
	Broad bool
}

// ChatService answers questions grounded in the session's documents.
type ChatService interface {
	// Ask answers question using documents in selection.
	// Returns domain.ErrNoDocuments or domain.ErrNoScopeSelected for
	// user-input problems and domain.ErrAnswerUnavailable when the
	// answering flow fails after all attempts.
	Ask(
		ctx context.Context,
		session *domain.Session,
		question string,
		selection []string,
		opts AskOptions,
	) (*domain.Answer, error)
}

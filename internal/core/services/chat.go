package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// ChatService answers questions over a session's documents.
type ChatService struct {
	store    *VectorStore
	llm      driven.LLMService
	prompts  driven.PromptStore
	chain    *Chain
	settings domain.RetrievalSettings
	answer   domain.AnswerSettings
}

// NewChatService creates a chat service. prompts may be nil.
func NewChatService(
	store *VectorStore,
	llm driven.LLMService,
	prompts driven.PromptStore,
	retrieval domain.RetrievalSettings,
	answer domain.AnswerSettings,
) *ChatService {
	return &ChatService{
		store:    store,
		llm:      llm,
		prompts:  prompts,
		chain:    NewChain(llm, prompts, retrieval.HistoryTurns),
		settings: retrieval,
		answer:   answer,
	}
}

// Chain returns the underlying chain, for observing state changes.
func (s *ChatService) Chain() *Chain {
	return s.chain
}

// Ask answers question restricted to the documents in selection.
// Questions in one session are answered one at a time.
func (s *ChatService) Ask(
	ctx context.Context,
	session *domain.Session,
	question string,
	selection []string,
	opts driving.AskOptions,
) (*domain.Answer, error) {
	session.Lock()
	defer session.Unlock()

	// 1. Check preconditions
	if session.Registry.Len() == 0 {
		return nil, domain.ErrNoDocuments
	}
	if len(selection) == 0 {
		return nil, domain.ErrNoScopeSelected
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	// 2. Build filter and retriever
	registry := session.Registry.Names()
	filter := BuildFilter(selection, registry)
	if filter == nil {
		filter = domain.NewSourceFilter(registry...)
	}

	k := s.settings.TopK
	if opts.Broad {
		k = s.settings.TopKBroad
	}
	retriever, err := NewRetriever(RetrieverConfig{
		Strategy:    s.settings.Strategy,
		K:           k,
		Filter:      filter,
		Paraphrases: s.settings.Paraphrases,
	}, s.store, s.llm, s.prompts)
	if err != nil {
		return nil, err
	}

	// 3. Run the chain, retrying service failures
	history := session.Conversation.Turns()
	var answer *domain.Answer
	err = retry.Do(
		func() error {
			a, err := s.chain.Invoke(ctx, history, question, retriever)
			if err != nil {
				return err
			}
			answer = a
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(max(s.answer.Attempts, 1))),
		retry.Delay(s.backoff()),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("Answer attempt %d failed: %v", n+1, err)
		}),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.Error("Answering failed: %v", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrAnswerUnavailable, err)
	}

	// 4. Record the exchange
	session.Conversation.Append(question, answer.Text)
	return answer, nil
}

func (s *ChatService) backoff() time.Duration {
	if s.answer.Backoff > 0 {
		return s.answer.Backoff
	}
	return domain.DefaultAppSettings().Answer.Backoff
}

// isRetryable reports whether a chain failure is worth another attempt.
// Cancellation and invalid input are not.
func isRetryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, domain.ErrInvalidInput):
		return false
	default:
		return true
	}
}

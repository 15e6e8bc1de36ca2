package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

func newChatFixture(t *testing.T, llm *mockLLMService) (*ChatService, *domain.Session) {
	t.Helper()
	ctx := context.Background()
	store := NewVectorStore(&mockEmbeddingService{}, memory.NewVectorIndex())
	_, err := store.Add(ctx, segments("alpha.pdf", "alpha project budget is ten thousand"))
	require.NoError(t, err)
	_, err = store.Add(ctx, segments("beta.pdf", "beta project budget is twenty thousand"))
	require.NoError(t, err)

	settings := domain.DefaultAppSettings()
	answer := domain.AnswerSettings{Attempts: 3, Backoff: time.Millisecond}
	svc := NewChatService(store, llm, nil, settings.Retrieval, answer)

	session := domain.NewSession("s1", nil)
	session.Registry.Add("alpha.pdf")
	session.Registry.Add("beta.pdf")
	return svc, session
}

func TestChatService_Ask_Guidance(t *testing.T) {
	svc, session := newChatFixture(t, &mockLLMService{})

	_, err := svc.Ask(context.Background(), domain.NewSession("empty", nil), "q", []string{domain.AllFiles}, driving.AskOptions{})
	assert.ErrorIs(t, err, domain.ErrNoDocuments)
	msg, ok := domain.GuidanceMessage(err)
	assert.True(t, ok)
	assert.Equal(t, "Please upload at least one PDF document first.", msg)

	_, err = svc.Ask(context.Background(), session, "q", nil, driving.AskOptions{})
	assert.ErrorIs(t, err, domain.ErrNoScopeSelected)

	_, err = svc.Ask(context.Background(), session, "   ", []string{domain.AllFiles}, driving.AskOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.Zero(t, session.Conversation.Len())
}

func TestChatService_Ask_ScopeFilter(t *testing.T) {
	svc, session := newChatFixture(t, &mockLLMService{})

	answer, err := svc.Ask(context.Background(), session, "what is the project budget", []string{"beta.pdf"}, driving.AskOptions{})

	require.NoError(t, err)
	require.NotEmpty(t, answer.Sources)
	for _, s := range answer.Sources {
		assert.Equal(t, "beta.pdf", s.Source)
	}
}

func TestChatService_Ask_AllFiles(t *testing.T) {
	svc, session := newChatFixture(t, &mockLLMService{})

	answer, err := svc.Ask(context.Background(), session, "what is the project budget", []string{domain.AllFiles}, driving.AskOptions{})

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alpha.pdf", "beta.pdf"}, answer.SourceNames())
}

func TestChatService_Ask_BroadUsesTopKBroad(t *testing.T) {
	svc, session := newChatFixture(t, &mockLLMService{})
	svc.settings.TopK = 1
	svc.settings.TopKBroad = 10

	narrow, err := svc.Ask(context.Background(), session, "project budget", []string{domain.AllFiles}, driving.AskOptions{})
	require.NoError(t, err)
	broad, err := svc.Ask(context.Background(), session, "project budget", []string{domain.AllFiles}, driving.AskOptions{Broad: true})
	require.NoError(t, err)

	assert.Len(t, narrow.Sources, 1)
	assert.Len(t, broad.Sources, 2)
}

func TestChatService_Ask_AppendsConversation(t *testing.T) {
	llm := &mockLLMService{chatFn: func(messages []driven.ChatMessage) (string, error) {
		if messages[0].Content == defaultReformulatePrompt {
			return "What is the beta project budget?", nil
		}
		return "Twenty thousand.", nil
	}}
	svc, session := newChatFixture(t, llm)
	ctx := context.Background()

	_, err := svc.Ask(ctx, session, "Tell me about beta", []string{domain.AllFiles}, driving.AskOptions{})
	require.NoError(t, err)
	answer, err := svc.Ask(ctx, session, "What is its budget?", []string{domain.AllFiles}, driving.AskOptions{})
	require.NoError(t, err)

	assert.Equal(t, "What is the beta project budget?", answer.StandaloneQuestion)
	turns := session.Conversation.Turns()
	require.Len(t, turns, 4)
	assert.Equal(t, domain.Turn{Role: domain.RoleUser, Text: "What is its budget?"}, turns[2])
	assert.Equal(t, domain.Turn{Role: domain.RoleAssistant, Text: "Twenty thousand."}, turns[3])
}

func TestChatService_Ask_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	llm := &mockLLMService{chatFn: func([]driven.ChatMessage) (string, error) {
		if calls.Add(1) < 3 {
			return "", errService
		}
		return "ok", nil
	}}
	svc, session := newChatFixture(t, llm)

	answer, err := svc.Ask(context.Background(), session, "budget?", []string{domain.AllFiles}, driving.AskOptions{})

	require.NoError(t, err)
	assert.Equal(t, "ok", answer.Text)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 2, session.Conversation.Len())
}

func TestChatService_Ask_AnswerUnavailable(t *testing.T) {
	var calls atomic.Int32
	llm := &mockLLMService{chatFn: func([]driven.ChatMessage) (string, error) {
		calls.Add(1)
		return "", errService
	}}
	svc, session := newChatFixture(t, llm)

	answer, err := svc.Ask(context.Background(), session, "budget?", []string{domain.AllFiles}, driving.AskOptions{})

	assert.Nil(t, answer)
	assert.ErrorIs(t, err, domain.ErrAnswerUnavailable)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Equal(t, int32(3), calls.Load())
	assert.Zero(t, session.Conversation.Len(), "failed questions are not recorded")
	_, guided := domain.GuidanceMessage(err)
	assert.False(t, guided)
}

func TestChatService_Ask_CancelledIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	llm := &mockLLMService{chatFn: func([]driven.ChatMessage) (string, error) {
		calls.Add(1)
		cancel()
		return "", context.Canceled
	}}
	svc, session := newChatFixture(t, llm)

	_, err := svc.Ask(ctx, session, "budget?", []string{domain.AllFiles}, driving.AskOptions{})

	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errors.Is(err, domain.ErrAnswerUnavailable))
	assert.Equal(t, int32(1), calls.Load())
}

func TestChatService_Ask_MultiQueryStrategy(t *testing.T) {
	llm := &mockLLMService{generateFn: func(string) (string, error) {
		return "alpha budget\nbeta budget", nil
	}}
	svc, session := newChatFixture(t, llm)
	svc.settings.Strategy = domain.RetrievalMultiQuery
	svc.settings.TopK = 1

	answer, err := svc.Ask(context.Background(), session, "project budgets", []string{domain.AllFiles}, driving.AskOptions{})

	require.NoError(t, err)
	assert.Len(t, llm.prompts, 1)
	assert.ElementsMatch(t, []string{"alpha.pdf", "beta.pdf"}, answer.SourceNames())
}

func TestChatService_Ask_MultiQueryParaphraseFailureRetried(t *testing.T) {
	var calls atomic.Int32
	llm := &mockLLMService{generateFn: func(string) (string, error) {
		calls.Add(1)
		return "", errService
	}}
	svc, session := newChatFixture(t, llm)
	svc.settings.Strategy = domain.RetrievalMultiQuery

	answer, err := svc.Ask(context.Background(), session, "project budgets", []string{domain.AllFiles}, driving.AskOptions{})

	assert.Nil(t, answer)
	assert.ErrorIs(t, err, domain.ErrAnswerUnavailable)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Equal(t, int32(3), calls.Load())
	assert.Zero(t, session.Conversation.Len())
}

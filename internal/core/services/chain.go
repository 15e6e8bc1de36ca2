package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// DefaultHistoryTurns is the number of prior turns used for reformulation.
const DefaultHistoryTurns = 5

// Chain is the history-aware retrieval chain. A question moves through
// Reformulating, Retrieving and Generating, then back to AwaitingQuestion,
// whether it succeeded or not.
type Chain struct {
	llm          driven.LLMService
	prompts      driven.PromptStore
	historyTurns int

	mu            sync.RWMutex
	state         domain.ChainState
	onStateChange func(domain.ChainState)
}

// NewChain creates a chain. prompts may be nil to use the built-in templates.
func NewChain(llm driven.LLMService, prompts driven.PromptStore, historyTurns int) *Chain {
	if historyTurns <= 0 {
		historyTurns = DefaultHistoryTurns
	}
	return &Chain{
		llm:          llm,
		prompts:      prompts,
		historyTurns: historyTurns,
		state:        domain.StateAwaitingQuestion,
	}
}

// OnStateChange registers a hook called on every state transition.
func (c *Chain) OnStateChange(fn func(domain.ChainState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onStateChange = fn
}

// State returns the current state.
func (c *Chain) State() domain.ChainState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Chain) setState(s domain.ChainState) {
	c.mu.Lock()
	c.state = s
	hook := c.onStateChange
	c.mu.Unlock()

	logger.Debug("Chain state: %s", s)
	if hook != nil {
		hook(s)
	}
}

// Invoke answers question given the prior conversation. history must not
// include question itself. Any step failure is returned as a single error
// and intermediate results are discarded.
func (c *Chain) Invoke(
	ctx context.Context,
	history []domain.Turn,
	question string,
	retriever Retriever,
) (*domain.Answer, error) {
	logger.Section("History-Aware Retrieval")
	defer c.setState(domain.StateAwaitingQuestion)

	window := lastTurns(history, c.historyTurns)
	logger.Debug("History window: %d turns", len(window))

	// 1. REFORMULATE
	c.setState(domain.StateReformulating)
	standalone, err := c.Reformulate(ctx, window, question)
	if err != nil {
		return nil, fmt.Errorf("reformulate: %w", err)
	}

	// 2. RETRIEVE
	c.setState(domain.StateRetrieving)
	segments, err := retriever.Retrieve(ctx, standalone)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	logger.Debug("Retrieved %d segments", len(segments))

	// 3. GENERATE
	c.setState(domain.StateGenerating)
	text, err := c.generate(ctx, window, question, segments)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	return &domain.Answer{
		Text:               text,
		Question:           question,
		StandaloneQuestion: standalone,
		Sources:            segments,
	}, nil
}

// Reformulate rewrites question into a standalone question using window.
// With an empty window the question is returned unchanged.
func (c *Chain) Reformulate(ctx context.Context, window []domain.Turn, question string) (string, error) {
	if len(window) == 0 {
		return question, nil
	}

	messages := make([]driven.ChatMessage, 0, len(window)+2)
	messages = append(messages, driven.ChatMessage{
		Role:    driven.RoleSystem,
		Content: loadPrompt(c.prompts, driven.PromptReformulate),
	})
	messages = append(messages, chatMessages(window)...)
	messages = append(messages, driven.ChatMessage{Role: driven.RoleUser, Content: question})

	standalone, err := c.llm.Chat(ctx, messages, driven.ChatOptions{})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}

	standalone = strings.TrimSpace(standalone)
	if standalone == "" {
		return question, nil
	}
	logger.Debug("Standalone question: %q", standalone)
	return standalone, nil
}

// generate asks for a grounded answer to the original question.
func (c *Chain) generate(
	ctx context.Context,
	window []domain.Turn,
	question string,
	segments []domain.Segment,
) (string, error) {
	system := renderAnswerSystem(loadPrompt(c.prompts, driven.PromptAnswerSystem), JoinContext(segments))

	messages := make([]driven.ChatMessage, 0, len(window)+2)
	messages = append(messages, driven.ChatMessage{Role: driven.RoleSystem, Content: system})
	messages = append(messages, chatMessages(window)...)
	messages = append(messages, driven.ChatMessage{Role: driven.RoleUser, Content: question})

	text, err := c.llm.Chat(ctx, messages, driven.ChatOptions{})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	return strings.TrimSpace(text), nil
}

// JoinContext renders segments as the context block of the answer prompt.
// Each segment is prefixed with its source and, if known, its page number.
func JoinContext(segments []domain.Segment) string {
	parts := make([]string, len(segments))
	for i, s := range segments {
		var b strings.Builder
		b.WriteString("Source: ")
		if s.Source != "" {
			b.WriteString(s.Source)
		} else {
			b.WriteString("Unknown")
		}
		if s.Page != nil {
			b.WriteString("\nPage No: ")
			b.WriteString(strconv.Itoa(*s.Page))
		}
		b.WriteString("\n")
		b.WriteString(s.Content)
		parts[i] = b.String()
	}
	return strings.Join(parts, "\n")
}

func lastTurns(history []domain.Turn, n int) []domain.Turn {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

func chatMessages(turns []domain.Turn) []driven.ChatMessage {
	out := make([]driven.ChatMessage, len(turns))
	for i, t := range turns {
		role := driven.RoleUser
		if t.Role == domain.RoleAssistant {
			role = driven.RoleAssistant
		}
		out[i] = driven.ChatMessage{Role: role, Content: t.Text}
	}
	return out
}

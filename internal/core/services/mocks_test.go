package services

import (
	"context"
	"errors"
	"hash/fnv"
	"os"
	"strings"
	"sync"
	"unicode"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

var errService = errors.New("service down")

// mockEmbeddingService embeds text as a bag of hashed words, so texts
// sharing words are close.
type mockEmbeddingService struct {
	mu         sync.Mutex
	embedErr   error
	batchErr   error
	batchCalls int
	embedCalls int
}

const mockDims = 256

func bagOfWords(text string) []float32 {
	v := make([]float32, mockDims)
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[h.Sum32()%mockDims]++
	}
	return v
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.embedCalls++
	m.mu.Unlock()
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return bagOfWords(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batchCalls++
	m.mu.Unlock()
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = bagOfWords(t)
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int { return mockDims }
func (m *mockEmbeddingService) ModelName() string { return "mock-embed" }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error { return nil }

// mockLLMService records calls and answers through the configured funcs.
type mockLLMService struct {
	mu         sync.Mutex
	chatFn     func(messages []driven.ChatMessage) (string, error)
	generateFn func(prompt string) (string, error)
	chats      [][]driven.ChatMessage
	prompts    []string
}

func (m *mockLLMService) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	if m.generateFn == nil {
		return "", nil
	}
	return m.generateFn(prompt)
}

func (m *mockLLMService) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.mu.Lock()
	m.chats = append(m.chats, messages)
	m.mu.Unlock()
	if m.chatFn == nil {
		return "answer", nil
	}
	return m.chatFn(messages)
}

func (m *mockLLMService) chatCalls() [][]driven.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.chats
}

func (m *mockLLMService) ModelName() string { return "mock-llm" }
func (m *mockLLMService) Ping(_ context.Context) error { return nil }
func (m *mockLLMService) Close() error { return nil }

// mockProcessedSetStore keeps the set in memory and counts saves.
type mockProcessedSetStore struct {
	mu      sync.Mutex
	saved   domain.FingerprintSet
	saves   int
	saveErr error
}

func (m *mockProcessedSetStore) Load() domain.FingerprintSet {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		return domain.NewFingerprintSet()
	}
	return m.saved.Clone()
}

func (m *mockProcessedSetStore) Save(set domain.FingerprintSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = set.Clone()
	return nil
}

func (m *mockProcessedSetStore) Path() string { return "mock://processed" }

// mockLoader treats the file as plain text with pages separated by form feeds.
// Files containing "CORRUPT" fail to load.
type mockLoader struct {
	mu    sync.Mutex
	paths []string
}

func (m *mockLoader) Load(_ context.Context, path string) ([]domain.Page, error) {
	m.mu.Lock()
	m.paths = append(m.paths, path)
	m.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := string(data)
	if strings.Contains(text, "CORRUPT") {
		return nil, errors.New("malformed document")
	}

	var pages []domain.Page
	for i, p := range strings.Split(text, "\f") {
		pages = append(pages, domain.Page{Text: p, Number: i + 1})
	}
	return pages, nil
}

func (m *mockLoader) Extensions() []string { return []string{".pdf"} }

// failingIndex rejects every write.
type failingIndex struct {
	driven.VectorIndex
}

func (failingIndex) Add(_ context.Context, _ []domain.Segment) error {
	return errors.New("disk full")
}

package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestParseParaphrases(t *testing.T) {
	tests := []struct {
		name string
		text string
		n    int
		want []string
	}{
		{
			name: "one per line",
			text: "What is X?\nHow does X work?\n\nExplain X",
			n:    4,
			want: []string{"What is X?", "How does X work?", "Explain X"},
		},
		{
			name: "bullets stripped",
			text: "- first\n* second\n• third",
			n:    4,
			want: []string{"first", "second", "third"},
		},
		{
			name: "capped at n",
			text: "a\nb\nc\nd\ne",
			n:    2,
			want: []string{"a", "b"},
		},
		{
			name: "run-on line split on punctuation",
			text: "What is X? How is X used. Why X!",
			n:    4,
			want: []string{"What is X?", "How is X used.", "Why X!"},
		},
		{
			name: "abbreviations not split",
			text: "What is the U.S. policy? How did the U.S. policy change",
			n:    4,
			want: []string{"What is the U.S. policy?", "How did the U.S. policy change"},
		},
		{
			name: "lowercase continuation not split",
			text: "Name a fruit, e.g. an apple. Which fruit is red?",
			n:    4,
			want: []string{"Name a fruit, e.g. an apple.", "Which fruit is red?"},
		},
		{
			name: "single question with abbreviation kept",
			text: "What is the U.S. policy?",
			n:    4,
			want: []string{"What is the U.S. policy?"},
		},
		{
			name: "single question kept",
			text: "What is X?",
			n:    4,
			want: []string{"What is X?"},
		},
		{
			name: "empty",
			text: " \n \n",
			n:    4,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseParaphrases(tt.text, tt.n))
		})
	}
}

func TestMultiQueryRetriever_Expand_UsesPrompt(t *testing.T) {
	llm := &mockLLMService{generateFn: func(string) (string, error) {
		return "p1\np2\np3\np4\np5", nil
	}}
	r := NewMultiQueryRetriever(nil, llm, nil, 3, 4, nil)

	got, err := r.Expand(context.Background(), "what is the refund policy")

	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2", "p3"}, got)
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "Generate 3 concise paraphrases")
	assert.Contains(t, llm.prompts[0], "Question: what is the refund policy")
}

func TestMultiQueryRetriever_Expand_FailureReturnsError(t *testing.T) {
	llm := &mockLLMService{generateFn: func(string) (string, error) {
		return "", errService
	}}
	r := NewMultiQueryRetriever(nil, llm, nil, 3, 4, nil)

	got, err := r.Expand(context.Background(), "q")

	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.ErrorIs(t, err, errService)
	assert.Empty(t, got)
}

func TestMultiQueryRetriever_Expand_EmptyCompletion(t *testing.T) {
	llm := &mockLLMService{generateFn: func(string) (string, error) { return " \n", nil }}
	r := NewMultiQueryRetriever(nil, llm, nil, 3, 4, nil)

	got, err := r.Expand(context.Background(), "q")

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNewMultiQueryRetriever_DefaultParaphrases(t *testing.T) {
	r := NewMultiQueryRetriever(nil, &mockLLMService{}, nil, 0, 4, nil)
	assert.Equal(t, DefaultParaphrases, r.n)
}

func scored(ids ...string) []domain.ScoredSegment {
	out := make([]domain.ScoredSegment, len(ids))
	for i, id := range ids {
		out[i] = domain.ScoredSegment{Segment: domain.Segment{ChunkID: id, Content: id}}
	}
	return out
}

func TestMergeUnique_DedupsInFirstSeenOrder(t *testing.T) {
	results := [][]domain.ScoredSegment{
		scored("a", "b"),
		scored("b", "c"),
		scored("c", "a", "d"),
	}

	got := MergeUnique(results, 4)

	ids := make([]string, len(got))
	for i, s := range got {
		ids[i] = s.ChunkID
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids)
}

func TestMergeUnique_TruncatesPerQuery(t *testing.T) {
	results := [][]domain.ScoredSegment{
		scored("a", "b", "c"),
		scored("d", "e", "f"),
	}

	got := MergeUnique(results, 2)

	require.Len(t, got, 4)
	assert.Equal(t, "d", got[2].ChunkID)
}

func TestMergeUnique_FallbackKey(t *testing.T) {
	same := domain.ScoredSegment{Segment: domain.Segment{Source: "a.pdf", Content: "identical text"}}
	other := domain.ScoredSegment{Segment: domain.Segment{Source: "b.pdf", Content: "identical text"}}

	got := MergeUnique([][]domain.ScoredSegment{{same}, {same, other}}, 4)

	assert.Len(t, got, 2)
}

func TestMultiQueryRetriever_Retrieve_MergesAcrossQueries(t *testing.T) {
	ctx := context.Background()
	store := NewVectorStore(&mockEmbeddingService{}, memory.NewVectorIndex())
	_, err := store.Add(ctx, segments("a.pdf",
		"refund policy allows returns within thirty days",
		"shipping takes five business days",
		"warranty covers manufacturing defects",
	))
	require.NoError(t, err)

	llm := &mockLLMService{generateFn: func(string) (string, error) {
		return "shipping takes five business days\nwarranty covers manufacturing defects", nil
	}}
	r := NewMultiQueryRetriever(store, llm, nil, 2, 1, nil)

	got, err := r.Retrieve(ctx, "refund policy allows returns within thirty days")

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, strings.HasPrefix(got[0].Content, "refund"))
	assert.True(t, strings.HasPrefix(got[1].Content, "shipping"))
	assert.True(t, strings.HasPrefix(got[2].Content, "warranty"))

	seen := map[string]bool{}
	for _, s := range got {
		assert.False(t, seen[s.ChunkID], "duplicate %s", s.ChunkID)
		seen[s.ChunkID] = true
	}
}

func TestMultiQueryRetriever_Retrieve_ParaphraseFailurePropagates(t *testing.T) {
	ctx := context.Background()
	embedder := &mockEmbeddingService{}
	store := NewVectorStore(embedder, memory.NewVectorIndex())
	_, _ = store.Add(ctx, segments("a.pdf", "refund policy"))
	llm := &mockLLMService{generateFn: func(string) (string, error) { return "", errService }}
	r := NewMultiQueryRetriever(store, llm, nil, 3, 4, nil)

	got, err := r.Retrieve(ctx, "refund policy")

	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Nil(t, got)
	assert.Zero(t, embedder.embedCalls, "no search runs after a paraphrase failure")
}

func TestMultiQueryRetriever_Retrieve_EmptyCompletionUsesOriginal(t *testing.T) {
	ctx := context.Background()
	store := NewVectorStore(&mockEmbeddingService{}, memory.NewVectorIndex())
	_, _ = store.Add(ctx, segments("a.pdf", "refund policy"))
	llm := &mockLLMService{generateFn: func(string) (string, error) { return "", nil }}
	r := NewMultiQueryRetriever(store, llm, nil, 3, 4, nil)

	got, err := r.Retrieve(ctx, "refund policy")

	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestMultiQueryRetriever_Retrieve_SearchError(t *testing.T) {
	store := NewVectorStore(&mockEmbeddingService{embedErr: errService}, memory.NewVectorIndex())
	llm := &mockLLMService{generateFn: func(string) (string, error) { return "p1", nil }}
	r := NewMultiQueryRetriever(store, llm, nil, 1, 4, nil)

	_, err := r.Retrieve(context.Background(), "q")

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestMultiQueryRetriever_Retrieve_RespectsFilter(t *testing.T) {
	ctx := context.Background()
	store := NewVectorStore(&mockEmbeddingService{}, memory.NewVectorIndex())
	_, _ = store.Add(ctx, segments("a.pdf", "budget forecast for next year"))
	_, _ = store.Add(ctx, segments("b.pdf", "budget forecast for next year"))
	llm := &mockLLMService{generateFn: func(string) (string, error) { return "yearly budget\nforecast", nil }}
	r := NewMultiQueryRetriever(store, llm, nil, 2, 4, domain.NewSourceFilter("a.pdf"))

	got, err := r.Retrieve(ctx, "budget forecast")

	require.NoError(t, err)
	require.NotEmpty(t, got)
	for _, s := range got {
		assert.Equal(t, "a.pdf", s.Source)
	}
}

package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

func segments(source string, contents ...string) []domain.Segment {
	out := make([]domain.Segment, len(contents))
	for i, c := range contents {
		out[i] = domain.Segment{
			Content:     c,
			Source:      source,
			ContentHash: "h" + source,
			ChunkID:     "h" + source + "-" + string(rune('0'+i)),
		}
	}
	return out
}

func TestVectorStore_Add_EmbedsInBatches(t *testing.T) {
	embedder := &mockEmbeddingService{}
	index := memory.NewVectorIndex()
	store := NewVectorStore(embedder, index).WithBatchSize(2)

	ids, err := store.Add(context.Background(), segments("a.pdf", "one", "two", "three", "four", "five"))

	require.NoError(t, err)
	assert.Equal(t, []string{"ha.pdf-0", "ha.pdf-1", "ha.pdf-2", "ha.pdf-3", "ha.pdf-4"}, ids)
	assert.Equal(t, 3, embedder.batchCalls)

	n, _ := index.Count(context.Background())
	assert.Equal(t, 5, n)
}

func TestVectorStore_Add_DoesNotMutateInput(t *testing.T) {
	store := NewVectorStore(&mockEmbeddingService{}, memory.NewVectorIndex())
	in := segments("a.pdf", "one")

	_, err := store.Add(context.Background(), in)

	require.NoError(t, err)
	assert.Nil(t, in[0].Embedding)
}

func TestVectorStore_Add_Empty(t *testing.T) {
	embedder := &mockEmbeddingService{}
	store := NewVectorStore(embedder, memory.NewVectorIndex())

	ids, err := store.Add(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Zero(t, embedder.batchCalls)
}

func TestVectorStore_Add_EmbeddingError(t *testing.T) {
	store := NewVectorStore(&mockEmbeddingService{batchErr: errService}, memory.NewVectorIndex())

	_, err := store.Add(context.Background(), segments("a.pdf", "one"))

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.ErrorIs(t, err, errService)
}

func TestVectorStore_Add_IndexError(t *testing.T) {
	store := NewVectorStore(&mockEmbeddingService{}, failingIndex{})

	_, err := store.Add(context.Background(), segments("a.pdf", "one"))

	assert.ErrorIs(t, err, domain.ErrIndexWrite)
}

func TestVectorStore_Search(t *testing.T) {
	store := NewVectorStore(&mockEmbeddingService{}, memory.NewVectorIndex())
	ctx := context.Background()
	_, err := store.Add(ctx, segments("a.pdf", "the cat sat on the mat", "stock prices fell sharply"))
	require.NoError(t, err)

	hits, err := store.Search(ctx, "where did the cat sit", 1, nil)

	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "the cat sat on the mat", hits[0].Segment.Content)
}

func TestVectorStore_Search_ShortCircuits(t *testing.T) {
	embedder := &mockEmbeddingService{}
	store := NewVectorStore(embedder, memory.NewVectorIndex())
	ctx := context.Background()

	tests := []struct {
		name   string
		query  string
		k      int
		filter *domain.RetrievalFilter
	}{
		{name: "blank query", query: "  ", k: 4},
		{name: "zero k", query: "q", k: 0},
		{name: "empty filter", query: "q", k: 4, filter: domain.NewSourceFilter()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := store.Search(ctx, tt.query, tt.k, tt.filter)
			require.NoError(t, err)
			assert.Empty(t, hits)
		})
	}
	assert.Zero(t, embedder.embedCalls)
}

func TestVectorStore_Search_EmbeddingError(t *testing.T) {
	store := NewVectorStore(&mockEmbeddingService{embedErr: errService}, memory.NewVectorIndex())

	_, err := store.Search(context.Background(), "q", 4, nil)

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestVectorStore_AsRetriever_UsesFilter(t *testing.T) {
	store := NewVectorStore(&mockEmbeddingService{}, memory.NewVectorIndex())
	ctx := context.Background()
	_, _ = store.Add(ctx, segments("a.pdf", "alpha report summary"))
	_, _ = store.Add(ctx, segments("b.pdf", "alpha report summary"))

	got, err := store.AsRetriever(10, domain.NewSourceFilter("b.pdf")).Retrieve(ctx, "alpha report")

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b.pdf", got[0].Source)
}

func TestVectorStore_SourcesAndCount(t *testing.T) {
	store := NewVectorStore(&mockEmbeddingService{}, memory.NewVectorIndex())
	ctx := context.Background()
	_, _ = store.Add(ctx, segments("a.pdf", "one", "two"))

	sources, err := store.Sources(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf"}, sources)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

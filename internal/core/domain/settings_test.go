package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAIProvider_IsValid(t *testing.T) {
	tests := []struct {
		provider AIProvider
		expected bool
	}{
		{AIProviderOllama, true},
		{AIProviderOpenAI, true},
		{AIProviderAnthropic, true},
		{AIProvider(""), false},
		{AIProvider("cohere"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.IsValid())
		})
	}
}

func TestAIProvider_RequiresAPIKey(t *testing.T) {
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
	assert.True(t, AIProviderAnthropic.RequiresAPIKey())
	assert.False(t, AIProviderOllama.RequiresAPIKey())
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	assert.False(t, EmbeddingSettings{Provider: AIProviderOpenAI}.IsConfigured())
	assert.True(t, EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "sk-test"}.IsConfigured())
	assert.True(t, EmbeddingSettings{Provider: AIProviderOllama}.IsConfigured())
	assert.False(t, EmbeddingSettings{}.IsConfigured())
}

func TestLLMSettings_IsConfigured(t *testing.T) {
	assert.False(t, LLMSettings{Provider: AIProviderAnthropic}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderAnthropic, APIKey: "key"}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderOllama}.IsConfigured())
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, AIProviderOpenAI, s.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", s.LLM.Model)
	assert.Equal(t, "text-embedding-3-large", s.Embedding.Model)
	assert.Equal(t, IndexBackendSQLite, s.Index.Backend)
	assert.Equal(t, 1500, s.Chunking.Size)
	assert.Equal(t, 300, s.Chunking.Overlap)
	assert.Equal(t, RetrievalSingle, s.Retrieval.Strategy)
	assert.Equal(t, 4, s.Retrieval.TopK)
	assert.Equal(t, 10, s.Retrieval.TopKBroad)
	assert.Equal(t, 5, s.Retrieval.HistoryTurns)
	assert.Equal(t, MaxIngestWorkers, s.Ingest.Workers)
	assert.Equal(t, 3, s.Answer.Attempts)
	assert.Equal(t, 500*time.Millisecond, s.Answer.Backoff)
	assert.Zero(t, s.RateLimit.RequestsPerSecond)
}

func TestRetrievalStrategy_IsValid(t *testing.T) {
	assert.True(t, RetrievalSingle.IsValid())
	assert.True(t, RetrievalMultiQuery.IsValid())
	assert.False(t, RetrievalStrategy("hybrid").IsValid())
	assert.Equal(t, unknownDescription, RetrievalStrategy("x").Description())
}

func TestIndexBackend_IsValid(t *testing.T) {
	assert.True(t, IndexBackendSQLite.IsValid())
	assert.True(t, IndexBackendMemory.IsValid())
	assert.False(t, IndexBackend("chroma").IsValid())
}

func TestEmbeddingDimensions_KnownModels(t *testing.T) {
	dims := EmbeddingDimensions()

	assert.Equal(t, 3072, dims["text-embedding-3-large"])
	assert.Equal(t, 768, dims["nomic-embed-text"])
}

func TestPipelineConfigFor(t *testing.T) {
	cfg := PipelineConfigFor(ChunkingSettings{Size: 800, Overlap: 100})

	assert.Equal(t, []string{"chunker", "enricher"}, cfg.Processors)
	chunker := cfg.GetProcessorConfig("chunker")
	require.NotNil(t, chunker)
	assert.Equal(t, 800, chunker["chunk_size"])
	assert.Equal(t, 100, chunker["overlap"])
	assert.Nil(t, cfg.GetProcessorConfig("enricher"))
}

func TestPipelineConfig_GetProcessorConfig_NilMap(t *testing.T) {
	cfg := PipelineConfig{}

	assert.Nil(t, cfg.GetProcessorConfig("chunker"))
}

package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// IndexBackend selects the vector index implementation.
type IndexBackend string

// Available index backends.
const (
	// IndexBackendSQLite persists segments and embeddings in SQLite.
	IndexBackendSQLite IndexBackend = "sqlite"

	// IndexBackendMemory keeps segments in process memory only.
	IndexBackendMemory IndexBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b IndexBackend) IsValid() bool {
	return b == IndexBackendSQLite || b == IndexBackendMemory
}

// IndexSettings holds vector index configuration.
type IndexSettings struct {
	// Dir holds the index database and the processed set file.
	Dir string

	// Backend selects the vector index implementation.
	Backend IndexBackend
}

// ChunkingSettings controls how pages are split into segments.
type ChunkingSettings struct {
	// Size is the maximum segment length in characters.
	Size int

	// Overlap is the number of characters shared by consecutive segments.
	Overlap int
}

// RetrievalStrategy selects how questions are turned into retrieved segments.
type RetrievalStrategy string

// Available retrieval strategies.
const (
	// RetrievalSingle runs one similarity search per question.
	RetrievalSingle RetrievalStrategy = "single"

	// RetrievalMultiQuery expands the question into paraphrases and merges results.
	RetrievalMultiQuery RetrievalStrategy = "multi_query"
)

// IsValid returns true if the strategy is recognised.
func (s RetrievalStrategy) IsValid() bool {
	return s == RetrievalSingle || s == RetrievalMultiQuery
}

// Description returns a human-readable description of the strategy.
func (s RetrievalStrategy) Description() string {
	switch s {
	case RetrievalSingle:
		return "Single query"
	case RetrievalMultiQuery:
		return "Multi-query (paraphrase expansion)"
	default:
		return unknownDescription
	}
}

// RetrievalSettings controls the answering flow's retrieval step.
type RetrievalSettings struct {
	// Strategy selects the retriever implementation.
	Strategy RetrievalStrategy

	// TopK is the number of segments retrieved per query.
	TopK int

	// TopKBroad is the number of segments retrieved for broad questions.
	TopKBroad int

	// Paraphrases is the number of paraphrases requested by multi-query.
	Paraphrases int

	// HistoryTurns is the number of prior turns used for reformulation.
	HistoryTurns int
}

// IngestSettings controls ingestion concurrency.
type IngestSettings struct {
	// Workers is the upper bound on concurrent document workers.
	Workers int
}

// AnswerSettings controls retries of the answering flow.
type AnswerSettings struct {
	// Attempts is the total number of tries per question, including the first.
	Attempts int

	// Backoff is the initial delay between attempts.
	Backoff time.Duration
}

// RateLimitSettings throttles calls to AI providers.
type RateLimitSettings struct {
	// RequestsPerSecond limits provider calls. Zero disables limiting.
	RequestsPerSecond float64
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Index     IndexSettings
	Chunking  ChunkingSettings
	Retrieval RetrievalSettings
	Ingest    IngestSettings
	Answer    AnswerSettings
	RateLimit RateLimitSettings
}

// MaxIngestWorkers caps the ingestion worker pool.
const MaxIngestWorkers = 4

// DefaultAppSettings returns settings with sensible defaults.
// API keys are left empty; they come from the config file or environment.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderOpenAI,
			Model:    "text-embedding-3-large",
		},
		LLM: LLMSettings{
			Provider: AIProviderOpenAI,
			Model:    "gpt-4o-mini",
		},
		Index: IndexSettings{
			Backend: IndexBackendSQLite,
		},
		Chunking: ChunkingSettings{
			Size:    1500,
			Overlap: 300,
		},
		Retrieval: RetrievalSettings{
			Strategy:     RetrievalSingle,
			TopK:         4,
			TopKBroad:    10,
			Paraphrases:  4,
			HistoryTurns: 5,
		},
		Ingest: IngestSettings{
			Workers: MaxIngestWorkers,
		},
		Answer: AnswerSettings{
			Attempts: 3,
			Backoff:  500 * time.Millisecond,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-large",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// PipelineConfig holds segment pipeline configuration.
// Uses generic map-based config so processors can be added
// without modifying this struct.
type PipelineConfig struct {
	// Processors is the ordered list of processor names to run.
	Processors []string

	// ProcessorConfigs holds per-processor configuration as generic maps.
	// Key is processor name, value is processor-specific config.
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns config for a specific processor, or nil if not set.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	if c.ProcessorConfigs == nil {
		return nil
	}
	return c.ProcessorConfigs[name]
}

// PipelineConfigFor returns the segment pipeline for the given chunking settings:
// split pages into segments, then attach provenance.
func PipelineConfigFor(c ChunkingSettings) PipelineConfig {
	return PipelineConfig{
		Processors: []string{"chunker", "enricher"},
		ProcessorConfigs: map[string]map[string]any{
			"chunker": {
				"chunk_size": c.Size,
				"overlap":    c.Overlap,
			},
		},
	}
}

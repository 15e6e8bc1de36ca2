package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider     = "embedding.provider"
	keyEmbedModel        = "embedding.model"
	keyEmbedBaseURL      = "embedding.base_url"
	keyEmbedAPIKey       = "embedding.api_key"
	keyLLMProvider       = "llm.provider"
	keyLLMModel          = "llm.model"
	keyLLMBaseURL        = "llm.base_url"
	keyLLMAPIKey         = "llm.api_key"
	keyIndexDir          = "index.dir"
	keyIndexBackend      = "index.backend"
	keyChunkSize         = "chunking.size"
	keyChunkOverlap      = "chunking.overlap"
	keyRetrievalStrategy = "retrieval.strategy"
	keyTopK              = "retrieval.top_k"
	keyTopKBroad         = "retrieval.top_k_broad"
	keyParaphrases       = "retrieval.paraphrases"
	keyHistoryTurns      = "retrieval.history_turns"
	keyIngestWorkers     = "ingest.workers"
	keyAnswerAttempts    = "answer.attempts"
	keyAnswerBackoff     = "answer.backoff"
	keyRequestsPerSecond = "ai.requests_per_second"
)

// Environment variables that override the config file.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvChatModel       = "CHAT_MODEL"
	EnvEmbeddingModel  = "EMBEDDING_MODEL"
	EnvIndexDir        = "DOCQA_INDEX_DIR"
	EnvChromaDir       = "CHROMA_DIR"
	EnvChunkSize       = "CHUNK_SIZE"
	EnvChunkOverlap    = "CHUNK_OVERLAP"
	EnvTopK            = "TOP_K"
	EnvTopKBroad       = "TOP_K_BROAD"
)

type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindFloat
	kindDuration
	kindProvider
	kindBackend
	kindStrategy
)

// settingKinds lists every key accepted by Set.
var settingKinds = map[string]settingKind{
	keyEmbedProvider:     kindProvider,
	keyEmbedModel:        kindString,
	keyEmbedBaseURL:      kindString,
	keyEmbedAPIKey:       kindString,
	keyLLMProvider:       kindProvider,
	keyLLMModel:          kindString,
	keyLLMBaseURL:        kindString,
	keyLLMAPIKey:         kindString,
	keyIndexDir:          kindString,
	keyIndexBackend:      kindBackend,
	keyChunkSize:         kindInt,
	keyChunkOverlap:      kindInt,
	keyRetrievalStrategy: kindStrategy,
	keyTopK:              kindInt,
	keyTopKBroad:         kindInt,
	keyParaphrases:       kindInt,
	keyHistoryTurns:      kindInt,
	keyIngestWorkers:     kindInt,
	keyAnswerAttempts:    kindInt,
	keyAnswerBackoff:     kindDuration,
	keyRequestsPerSecond: kindFloat,
}

// SettingKeys returns every settable key in sorted order.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings. Values come from the
// config file, then environment variables, then defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:    s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		Index: domain.IndexSettings{
			Dir:     s.configStore.GetString(keyIndexDir),
			Backend: s.getBackend(defaults.Index.Backend),
		},
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(keyChunkSize, defaults.Chunking.Size),
			Overlap: s.getIntAllowZero(keyChunkOverlap, defaults.Chunking.Overlap),
		},
		Retrieval: domain.RetrievalSettings{
			Strategy:     s.getStrategy(defaults.Retrieval.Strategy),
			TopK:         s.getInt(keyTopK, defaults.Retrieval.TopK),
			TopKBroad:    s.getInt(keyTopKBroad, defaults.Retrieval.TopKBroad),
			Paraphrases:  s.getInt(keyParaphrases, defaults.Retrieval.Paraphrases),
			HistoryTurns: s.getInt(keyHistoryTurns, defaults.Retrieval.HistoryTurns),
		},
		Ingest: domain.IngestSettings{
			Workers: s.getInt(keyIngestWorkers, defaults.Ingest.Workers),
		},
		Answer: domain.AnswerSettings{
			Attempts: s.getInt(keyAnswerAttempts, defaults.Answer.Attempts),
			Backoff:  s.getDuration(keyAnswerBackoff, defaults.Answer.Backoff),
		},
		RateLimit: domain.RateLimitSettings{
			RequestsPerSecond: s.configStore.GetFloat(keyRequestsPerSecond),
		},
	}

	if err := applyEnv(settings); err != nil {
		return nil, err
	}

	dir, err := resolveIndexDir(settings.Index.Dir)
	if err != nil {
		return nil, err
	}
	settings.Index.Dir = dir

	return settings, nil
}

// Set stores a single setting. The value is parsed according to the key.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	value = strings.TrimSpace(value)
	var typed any
	switch kind {
	case kindString:
		typed = value
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, key)
		}
		typed = int64(n)
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidInput, key)
		}
		typed = f
	case kindDuration:
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%w: %s must be a duration like 500ms", domain.ErrInvalidInput, key)
		}
		typed = value
	case kindProvider:
		if !domain.AIProvider(value).IsValid() {
			return fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, value)
		}
		typed = value
	case kindBackend:
		if !domain.IndexBackend(value).IsValid() {
			return fmt.Errorf("%w: unknown index backend %q", domain.ErrInvalidInput, value)
		}
		typed = value
	case kindStrategy:
		if !domain.RetrievalStrategy(value).IsValid() {
			return fmt.Errorf("%w: unknown retrieval strategy %q", domain.ErrInvalidInput, value)
		}
		typed = value
	}

	if err := s.configStore.Set(key, typed); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Validate checks that the current settings can build working services.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Embedding.Provider.IsValid() || !slices.Contains(domain.AllEmbeddingProviders(), settings.Embedding.Provider) {
		return fmt.Errorf("%w: %s does not provide embeddings", domain.ErrInvalidInput, settings.Embedding.Provider)
	}
	if settings.Embedding.Provider.RequiresAPIKey() && settings.Embedding.APIKey == "" {
		return fmt.Errorf("%w: %s embeddings need %s", domain.ErrMissingCredential,
			settings.Embedding.Provider.Description(), envKeyFor(settings.Embedding.Provider))
	}
	if settings.LLM.Provider.RequiresAPIKey() && settings.LLM.APIKey == "" {
		return fmt.Errorf("%w: %s completions need %s", domain.ErrMissingCredential,
			settings.LLM.Provider.Description(), envKeyFor(settings.LLM.Provider))
	}

	if settings.Chunking.Size <= 0 {
		return fmt.Errorf("%w: chunking.size must be positive", domain.ErrInvalidInput)
	}
	if settings.Chunking.Overlap < 0 {
		return fmt.Errorf("%w: chunking.overlap must not be negative", domain.ErrInvalidInput)
	}
	if settings.Retrieval.TopK <= 0 || settings.Retrieval.TopKBroad <= 0 {
		return fmt.Errorf("%w: retrieval.top_k and retrieval.top_k_broad must be positive", domain.ErrInvalidInput)
	}

	return nil
}

// ValidateConnectivity pings the configured embedding and LLM providers.
func (s *SettingsService) ValidateConnectivity(ctx context.Context) error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := s.aiValidator.ValidateEmbedding(ctx, &settings.Embedding); err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	if err := s.aiValidator.ValidateLLM(ctx, &settings.LLM); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Path returns the config file path.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

// applyEnv overlays environment variables onto settings.
func applyEnv(settings *domain.AppSettings) error {
	if v := os.Getenv(EnvChatModel); v != "" {
		settings.LLM.Model = v
	}
	if v := os.Getenv(EnvEmbeddingModel); v != "" {
		settings.Embedding.Model = v
	}
	if v := firstEnv(EnvIndexDir, EnvChromaDir); v != "" {
		settings.Index.Dir = v
	}

	if key := os.Getenv(envKeyFor(settings.Embedding.Provider)); key != "" {
		settings.Embedding.APIKey = key
	}
	if key := os.Getenv(envKeyFor(settings.LLM.Provider)); key != "" {
		settings.LLM.APIKey = key
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{EnvChunkSize, &settings.Chunking.Size},
		{EnvChunkOverlap, &settings.Chunking.Overlap},
		{EnvTopK, &settings.Retrieval.TopK},
		{EnvTopKBroad, &settings.Retrieval.TopKBroad},
	}
	for _, e := range ints {
		v := os.Getenv(e.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", domain.ErrInvalidInput, e.name, v)
		}
		*e.dst = n
	}
	return nil
}

// envKeyFor returns the API key variable for provider, or "" if none.
func envKeyFor(provider domain.AIProvider) string {
	switch provider {
	case domain.AIProviderOpenAI:
		return EnvOpenAIAPIKey
	case domain.AIProviderAnthropic:
		return EnvAnthropicAPIKey
	default:
		return ""
	}
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// resolveIndexDir expands "~" and applies the default location.
func resolveIndexDir(dir string) (string, error) {
	if dir != "" && dir != "~" && !strings.HasPrefix(dir, "~/") {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	switch {
	case dir == "":
		return filepath.Join(home, ".docqa", "index"), nil
	case dir == "~":
		return home, nil
	default:
		return filepath.Join(home, dir[2:]), nil
	}
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getIntAllowZero(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d < 0 {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.IndexBackend) domain.IndexBackend {
	backend := domain.IndexBackend(s.configStore.GetString(keyIndexBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func (s *SettingsService) getStrategy(defaultVal domain.RetrievalStrategy) domain.RetrievalStrategy {
	strategy := domain.RetrievalStrategy(s.configStore.GetString(keyRetrievalStrategy))
	if !strategy.IsValid() {
		return defaultVal
	}
	return strategy
}

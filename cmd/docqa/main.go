// Command docqa answers questions about PDF documents.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/docqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/jsonfile"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docqa/internal/adapters/driving/cli"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/services"
	"github.com/custodia-labs/docqa/internal/loaders/pdf"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/postprocessors"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	prompts, err := file.NewPromptStore("", services.DefaultPrompts())
	if err != nil {
		return fmt.Errorf("opening prompts: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	cli.SetVersion(version)
	cli.SetSettingsService(settingsService)
	cli.SetRuntimeFactory(func(context.Context) (*cli.Runtime, error) {
		if err := settingsService.Validate(); err != nil {
			return nil, err
		}
		settings, err := settingsService.Get()
		if err != nil {
			return nil, err
		}
		return newRuntime(*settings, prompts)
	})

	return cli.Execute()
}

// newRuntime wires the index, AI providers and core services for one
// command invocation.
func newRuntime(settings domain.AppSettings, prompts driven.PromptStore) (*cli.Runtime, error) {
	if err := pdf.CheckAvailable(); err != nil {
		logger.Warn("%v\n%s", err, pdf.InstallInstructions())
	}

	aiServices, err := ai.NewServices(settings)
	if err != nil {
		return nil, err
	}

	index, err := openIndex(settings.Index)
	if err != nil {
		aiServices.Close()
		return nil, err
	}

	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)
	pipeline, err := registry.BuildPipeline(domain.PipelineConfigFor(settings.Chunking))
	if err != nil {
		index.Close()
		aiServices.Close()
		return nil, err
	}

	// An in-memory index starts empty, so its processed set must too.
	processedDir := settings.Index.Dir
	if settings.Index.Backend == domain.IndexBackendMemory {
		processedDir, err = os.MkdirTemp("", "docqa-")
		if err != nil {
			index.Close()
			aiServices.Close()
			return nil, err
		}
	}

	loader := pdf.New()
	processed := jsonfile.NewProcessedSetStore(processedDir)
	store := services.NewVectorStore(aiServices.Embedding, index)
	chat := services.NewChatService(store, aiServices.LLM, prompts, settings.Retrieval, settings.Answer)

	return &cli.Runtime{
		Sessions:    services.NewSessionService(processed, index),
		Ingest:      services.NewIngestOrchestrator(loader, pipeline, store, processed, services.WithWorkers(settings.Ingest.Workers)),
		Chat:        chat,
		Extensions:  loader.Extensions(),
		ChainStates: chat.Chain().OnStateChange,
		Close: func() error {
			errs := []error{index.Close(), aiServices.Close()}
			if processedDir != settings.Index.Dir {
				errs = append(errs, os.RemoveAll(processedDir))
			}
			return errors.Join(errs...)
		},
	}, nil
}

// openIndex opens the configured vector index backend.
func openIndex(cfg domain.IndexSettings) (driven.VectorIndex, error) {
	switch cfg.Backend {
	case domain.IndexBackendMemory:
		return memory.NewVectorIndex(), nil
	case domain.IndexBackendSQLite, "":
		store, err := sqlite.NewStore(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrVectorIndexUnavailable, err)
		}
		logger.Debug("Opened index at %s", store.Path())
		return store.VectorIndex(), nil
	default:
		return nil, fmt.Errorf("%w: unknown index backend %q", domain.ErrInvalidInput, cfg.Backend)
	}
}

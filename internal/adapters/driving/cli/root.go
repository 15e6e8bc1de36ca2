// Package cli implements the docqa command line.
//
// Commands reach the core only through driving ports. The composition
// root in cmd/docqa injects a settings service and a RuntimeFactory;
// the runtime (index, AI providers, services) is built lazily so that
// commands such as settings and version work without credentials.
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// version is set at build time.
var version = "dev"

var verbose bool

// Runtime is the set of services one command invocation works with.
type Runtime struct {
	Sessions driving.SessionService
	Ingest   driving.IngestService
	Chat     driving.ChatService

	// Extensions lists the document extensions the loader accepts.
	Extensions []string

	// ChainStates, when set, registers a callback for answering flow
	// state changes.
	ChainStates func(fn func(domain.ChainState))

	// Close releases the runtime's resources. May be nil.
	Close func() error
}

// RuntimeFactory builds a Runtime from the current settings.
type RuntimeFactory func(ctx context.Context) (*Runtime, error)

var (
	settingsService driving.SettingsService
	runtimeFactory  RuntimeFactory
)

// errNotConfigured is returned when the composition root did not inject services.
var errNotConfigured = errors.New("services not configured")

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Ask questions about your PDF documents",
	Long: `docqa indexes PDF documents and answers questions about them with a
retrieval-augmented language model. Answers are grounded in the documents
you select and follow the conversation so far.

Get started:
  docqa ingest report.pdf
  docqa ask "What are the key findings?"
  docqa chat`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetSettingsService injects the settings service.
func SetSettingsService(s driving.SettingsService) {
	settingsService = s
}

// SetRuntimeFactory injects the runtime factory.
func SetRuntimeFactory(f RuntimeFactory) {
	runtimeFactory = f
}

// SetVersion sets the version reported by "docqa version".
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command. The context is cancelled on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// startSession builds the runtime and starts a session restored from the
// index. The returned cleanup closes the runtime.
func startSession(ctx context.Context) (*Runtime, *domain.Session, func(), error) {
	if runtimeFactory == nil {
		return nil, nil, nil, errNotConfigured
	}
	rt, err := runtimeFactory(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	cleanup := func() {
		if rt.Close == nil {
			return
		}
		if err := rt.Close(); err != nil {
			logger.Warn("closing services: %v", err)
		}
	}

	session, err := rt.Sessions.Start(ctx, true)
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}
	logger.Debug("Started session %s with %d known documents", session.ID, session.Registry.Len())
	return rt, session, cleanup, nil
}

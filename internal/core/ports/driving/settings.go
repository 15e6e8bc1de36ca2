package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings, with environment
	// overrides applied on top of the config file.
	Get() (*domain.AppSettings, error)

	// Set stores a single setting by dotted key (e.g. "retrieval.top_k").
	Set(key, value string) error

	// Validate checks that the settings are usable. A provider that needs
	// an API key without one yields domain.ErrMissingCredential.
	Validate() error

	// ValidateConnectivity pings the configured providers.
	ValidateConnectivity(ctx context.Context) error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}

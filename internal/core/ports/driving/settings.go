package driving

import "github.com/custodia-labs/docsuite/internal/core/domain"

// SettingsService manages process settings.
type SettingsService interface {
	// Get retrieves current settings, with defaults for unset values.
	Get() (*domain.Settings, error)

	// Save persists settings.
	Save(settings *domain.Settings) error

	// Validate checks that settings can be used to build a suite.
	Validate(settings *domain.Settings) error

	// GetDefaults returns default settings.
	GetDefaults() domain.Settings
}

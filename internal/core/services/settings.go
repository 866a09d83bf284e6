package services

import (
	"fmt"
	"net/url"

	"github.com/creasty/defaults"

	"github.com/custodia-labs/docsuite/internal/core/domain"
	"github.com/custodia-labs/docsuite/internal/core/ports/driven"
	"github.com/custodia-labs/docsuite/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keySuiteName    = "suite.name"
	keySuiteBaseURL = "suite.base_url"
	keyStoreBackend = "store.backend"
	keyStoreDataDir = "store.data_dir"
	keyDefinition   = "definition"
	keyVerbose      = "verbose"
)

// SettingsService manages process settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	var settings domain.Settings
	// The default tags are static; Set can only fail on malformed tags.
	_ = defaults.Set(&settings)
	return settings
}

// Get retrieves current settings, with defaults for unset values.
func (s *SettingsService) Get() (*domain.Settings, error) {
	settings := s.GetDefaults()

	settings.Suite.Name = s.getString(keySuiteName, settings.Suite.Name)
	settings.Suite.BaseURL = s.getString(keySuiteBaseURL, settings.Suite.BaseURL)
	settings.Store.DataDir = s.getString(keyStoreDataDir, settings.Store.DataDir)
	settings.Definition = s.getString(keyDefinition, settings.Definition)
	settings.Verbose = s.configStore.GetBool(keyVerbose)

	if backend := domain.StoreBackend(s.configStore.GetString(keyStoreBackend)); backend.IsValid() {
		settings.Store.Backend = backend
	}

	return &settings, nil
}

// Save persists settings.
func (s *SettingsService) Save(settings *domain.Settings) error {
	if err := s.Validate(settings); err != nil {
		return err
	}

	values := []struct {
		key   string
		value any
	}{
		{keySuiteName, settings.Suite.Name},
		{keySuiteBaseURL, settings.Suite.BaseURL},
		{keyStoreBackend, settings.Store.Backend.String()},
		{keyStoreDataDir, settings.Store.DataDir},
		{keyDefinition, settings.Definition},
		{keyVerbose, settings.Verbose},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// Validate checks that settings can be used to build a suite.
func (s *SettingsService) Validate(settings *domain.Settings) error {
	if settings == nil {
		return fmt.Errorf("%w: settings are nil", domain.ErrInvalidInput)
	}
	if !settings.Store.Backend.IsValid() {
		return fmt.Errorf("%w: unknown store backend %q", domain.ErrInvalidInput, settings.Store.Backend)
	}
	u, err := url.Parse(settings.Suite.BaseURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%w: base URL %q must be absolute", domain.ErrInvalidInput, settings.Suite.BaseURL)
	}
	if settings.Suite.Name == "" {
		return fmt.Errorf("%w: suite name is required", domain.ErrInvalidInput)
	}
	return nil
}

// getString returns the stored value or def when unset or empty.
func (s *SettingsService) getString(key, def string) string {
	if v := s.configStore.GetString(key); v != "" {
		return v
	}
	return def
}

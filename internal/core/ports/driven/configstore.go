package driven

// ConfigStore holds process configuration as flat dot-notation keys
// ("suite.base_url" addresses base_url in the [suite] table).
//
// Typed getters return the zero value when a key is missing or holds a
// value of another type.
type ConfigStore interface {
	// Get returns the raw value and whether the key is set.
	Get(key string) (any, bool)

	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetStringSlice(key string) []string

	// Set stores a value and persists the configuration.
	Set(key string, value any) error

	// Save writes the current configuration.
	Save() error

	// Load replaces the in-memory values with the stored configuration.
	Load() error

	// Path returns where the configuration is persisted, or "" when it
	// is not.
	Path() string
}

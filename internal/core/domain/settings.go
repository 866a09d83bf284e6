package domain

const unknownDescription = "Unknown"

// StoreBackend selects the Store implementation behind every application.
type StoreBackend string

// Available store backends.
const (
	// StoreBackendMemory keeps all tables in process memory.
	StoreBackendMemory StoreBackend = "memory"

	// StoreBackendSQLite persists tables in a SQLite database file.
	StoreBackendSQLite StoreBackend = "sqlite"
)

// AllStoreBackends returns every backend in display order.
func AllStoreBackends() []StoreBackend {
	return []StoreBackend{StoreBackendMemory, StoreBackendSQLite}
}

// IsValid returns true if the backend is recognised.
func (b StoreBackend) IsValid() bool {
	switch b {
	case StoreBackendMemory, StoreBackendSQLite:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b StoreBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b StoreBackend) Description() string {
	switch b {
	case StoreBackendMemory:
		return "In-memory (lost on exit)"
	case StoreBackendSQLite:
		return "SQLite database file"
	default:
		return unknownDescription
	}
}

// Settings is the process configuration.
// Zero values are replaced by the `default` tags when loaded.
type Settings struct {
	Suite      SuiteSettings `toml:"suite"`
	Store      StoreSettings `toml:"store"`
	Definition string        `toml:"definition"`
	Verbose    bool          `toml:"verbose"`
}

// SuiteSettings configures the process-wide Suite.
type SuiteSettings struct {
	// Name is the suite's display name.
	Name string `toml:"name" default:"docsuite"`

	// BaseURL is the prefix of every identifier.
	BaseURL string `toml:"base_url" default:"http://localhost:8000"`
}

// StoreSettings configures the store connection.
type StoreSettings struct {
	Backend StoreBackend `toml:"backend" default:"memory"`

	// DataDir holds the SQLite database. Empty means ~/.docsuite/data.
	DataDir string `toml:"data_dir"`
}

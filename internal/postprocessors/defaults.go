package postprocessors

import (
	"github.com/custodia-labs/docsuite/internal/core/domain"
	"github.com/custodia-labs/docsuite/internal/core/ports/driven"
	"github.com/custodia-labs/docsuite/internal/postprocessors/slugger"
	"github.com/custodia-labs/docsuite/internal/postprocessors/timestamp"
)

// RegisterDefaults registers all built-in processors with the registry.
// Call this during startup to enable the standard processors.
func RegisterDefaults(r *Registry) {
	r.Register("slug", buildSlug)
	r.Register("timestamp_on_create", buildTimestamp(timestamp.OnCreate))
	r.Register("timestamp_on_update", buildTimestamp(timestamp.OnUpdate))
}

// buildSlug creates a slug processor from generic config.
// Supported config keys:
//   - sources ([]string): Properties the slug is built from (required)
//   - dest (string): Property to write (default: slug)
func buildSlug(cfg map[string]any) (driven.DocumentProcessor, error) {
	sources := getStringsFromConfig(cfg, "sources")
	if len(sources) == 0 {
		return nil, domain.NewConfigurationError("slug processor", "sources is required")
	}
	dest, _ := cfg["dest"].(string)
	return slugger.New(sources, slugger.WithDestination(dest)), nil
}

// buildTimestamp creates a timestamp processor from generic config.
// Supported config keys:
//   - property (string): Property to stamp (required)
func buildTimestamp(mode timestamp.Mode) BuilderFunc {
	return func(cfg map[string]any) (driven.DocumentProcessor, error) {
		prop, _ := cfg["property"].(string)
		if prop == "" {
			return nil, domain.NewConfigurationError("timestamp processor", "property is required")
		}
		return timestamp.New(prop, mode), nil
	}
}

// getStringsFromConfig safely extracts a string list from generic config.
// Handles []string and the []any produced by YAML/TOML parsing.
func getStringsFromConfig(cfg map[string]any, key string) []string {
	switch v := cfg[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{v}
	default:
		return nil
	}
}

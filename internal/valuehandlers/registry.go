package valuehandlers

import (
	"sort"

	"github.com/custodia-labs/docsuite/internal/core/domain"
)

// BuilderFunc creates a Handler from generic config.
// Config is a map of handler-specific settings parsed from a definition file.
type BuilderFunc func(cfg map[string]any) (Handler, error)

// Registry maps handler names to their builders.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates a new handler registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]BuilderFunc)}
}

// Register adds a handler builder to the registry.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build creates a handler by name with the given config.
// An unknown name is a configuration error.
func (r *Registry) Build(name string, cfg map[string]any) (Handler, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, domain.NewConfigurationError("value handler", "unknown handler %q", name)
	}
	return builder(cfg)
}

// Has returns true if a handler with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns all registered handler names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterDefaults registers the built-in handlers.
//
//   - geometry: types ([]string) restricts the accepted GeoJSON types
//   - datetime: timezone (string) is the storage offset
//   - now: like datetime, defaulting absent values to the current time
func RegisterDefaults(r *Registry) {
	r.Register("geometry", func(cfg map[string]any) (Handler, error) {
		return NewGeometry(stringsFromConfig(cfg, "types")...), nil
	})
	r.Register("datetime", func(cfg map[string]any) (Handler, error) {
		tz, _ := cfg["timezone"].(string)
		return NewTime(tz)
	})
	r.Register("now", func(cfg map[string]any) (Handler, error) {
		tz, _ := cfg["timezone"].(string)
		return NewNow(tz)
	})
}

// NewDefaultRegistry returns a registry holding the built-in handlers.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}

// stringsFromConfig reads a string list that may come from YAML or TOML parsing.
func stringsFromConfig(cfg map[string]any, key string) []string {
	switch v := cfg[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
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

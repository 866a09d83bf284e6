package postprocessors

import (
	"maps"
	"slices"

	"github.com/custodia-labs/docsuite/internal/core/domain"
	"github.com/custodia-labs/docsuite/internal/core/ports/driven"
)

// BuilderFunc creates a DocumentProcessor from the config map of a
// definition file entry.
type BuilderFunc func(cfg map[string]any) (driven.DocumentProcessor, error)

// Registry maps processor names to builders.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]BuilderFunc)}
}

// Register adds or replaces the builder for name.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build creates the processor registered as name. An unknown name is a
// configuration error.
func (r *Registry) Build(name string, cfg map[string]any) (driven.DocumentProcessor, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, domain.NewConfigurationError("processor", "unknown processor %q", name)
	}
	return builder(cfg)
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.builders))
}

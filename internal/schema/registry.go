package schema

import (
	"sort"
	"sync"

	"github.com/custodia-labs/docsuite/internal/core/domain"
)

// DefaultTemplate is used when neither a type nor its ancestors declare one.
const DefaultTemplate = "{id}"

// TypeDecl declares a document type.
type TypeDecl struct {
	// Name is the type name, e.g. "TrackedItem".
	Name string

	// Bases lists the registered types this type extends, in order.
	Bases []string

	// Title defaults to the humanized Name.
	Title string

	Description string

	// Schema holds the type's own fragment: properties, required and any
	// other object-level keywords. Definitions found here are merged with
	// Definitions.
	Schema Fragment

	Definitions map[string]any

	// Template is a display format with {property} placeholders.
	Template string

	// Operations are exposed on every document of the type.
	Operations []Operation
}

// DocumentType is a registered type with the fragments of all its
// ancestors merged in. It is immutable once registered.
type DocumentType struct {
	name        string
	title       string
	description string
	template    string
	ancestors   []*DocumentType
	properties  map[string]any
	required    []string
	definitions map[string]any
	keywords    map[string]any
	operations  []Operation
}

// Name returns the declared type name.
func (t *DocumentType) Name() string { return t.name }

// Title returns the declared or humanized title.
func (t *DocumentType) Title() string { return t.title }

// Description returns the type description.
func (t *DocumentType) Description() string { return t.description }

// Template returns the display template.
func (t *DocumentType) Template() string { return t.template }

// Ancestors returns every type this type extends, most-base first.
func (t *DocumentType) Ancestors() []*DocumentType {
	return append([]*DocumentType(nil), t.ancestors...)
}

// Extends reports whether other is an ancestor of t.
func (t *DocumentType) Extends(other *DocumentType) bool {
	for _, a := range t.ancestors {
		if a == other {
			return true
		}
	}
	return false
}

// Properties returns a copy of the merged property schemas.
func (t *DocumentType) Properties() map[string]any {
	return Clone(t.properties)
}

// Definitions returns a copy of the merged definitions.
func (t *DocumentType) Definitions() map[string]any {
	return Clone(t.definitions)
}

// Required returns the merged list of required properties.
func (t *DocumentType) Required() []string {
	return append([]string(nil), t.required...)
}

// Operations returns the operations exposed on documents of the type.
func (t *DocumentType) Operations() []Operation {
	return append([]Operation(nil), t.operations...)
}

// Schema returns the merged fragment of the type, not yet bound to a collection.
func (t *DocumentType) Schema() Fragment {
	out := Clone(t.keywords)
	if out == nil {
		out = Fragment{}
	}
	out["type"] = "object"
	out["title"] = t.title
	out["description"] = t.description
	out["properties"] = Clone(t.properties)
	out["definitions"] = Clone(t.definitions)
	if len(t.required) > 0 {
		out["required"] = toAnyList(t.required)
	}
	return out
}

// Registry holds registered document types by name.
// Types are registered during startup and read afterwards.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*DocumentType
}

// NewRegistry creates an empty type registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*DocumentType)}
}

// Register merges decl with its bases and records the result.
// Duplicate names, unknown bases and invalid fragments are configuration errors.
func (r *Registry) Register(decl TypeDecl) (*DocumentType, error) {
	if decl.Name == "" {
		return nil, domain.NewConfigurationError("document type", "name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[decl.Name]; exists {
		return nil, &domain.ConfigurationError{
			Subject: decl.Name,
			Reason:  "document type registered twice",
			Err:     domain.ErrAlreadyExists,
		}
	}

	t := &DocumentType{
		name:        decl.Name,
		title:       decl.Title,
		description: decl.Description,
		template:    decl.Template,
		properties:  make(map[string]any),
		definitions: make(map[string]any),
		keywords:    make(map[string]any),
	}

	for _, baseName := range decl.Bases {
		base, ok := r.types[baseName]
		if !ok {
			return nil, domain.NewConfigurationError(decl.Name, "unknown base type %q", baseName)
		}
		for _, a := range base.ancestors {
			t.addAncestor(a)
		}
		t.addAncestor(base)

		mergeInto(t.keywords, base.keywords)
		mergeInto(t.definitions, base.definitions)
		mergeInto(t.properties, base.properties)
		t.required = appendUnique(t.required, base.required...)
		t.operations = mergeOperations(t.operations, base.operations)
		if t.template == "" {
			t.template = base.template
		}
	}

	own := Clone(decl.Schema)
	if defs, ok := asMap(own["definitions"]); ok {
		mergeInto(t.definitions, defs)
	}
	mergeInto(t.definitions, decl.Definitions)
	if props, ok := asMap(own["properties"]); ok {
		mergeInto(t.properties, props)
	}
	t.required = appendUnique(t.required, stringList(own["required"])...)
	for _, k := range []string{"definitions", "properties", "required", "type", "title", "description", "id", "$schema"} {
		delete(own, k)
	}
	mergeInto(t.keywords, own)
	t.operations = mergeOperations(t.operations, decl.Operations)

	if t.title == "" {
		t.title = Humanize(decl.Name)
	}
	if t.template == "" {
		t.template = DefaultTemplate
	}

	if err := checkFragment(decl.Name, t.Schema()); err != nil {
		return nil, err
	}

	r.types[decl.Name] = t
	return t, nil
}

func (t *DocumentType) addAncestor(a *DocumentType) {
	if !t.Extends(a) {
		t.ancestors = append(t.ancestors, a)
	}
}

// Lookup returns the type registered under name.
func (r *Registry) Lookup(name string) (*DocumentType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}

// Names returns the registered type names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

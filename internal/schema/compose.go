package schema

import (
	"sort"

	"github.com/goccy/go-json"
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/custodia-labs/docsuite/internal/core/domain"
)

// Binding ties a document type to a collection.
type Binding struct {
	// URL is the collection address. The schema is published at URL;schema.
	URL string

	// PrimaryKey names the key property. Empty means a synthesized "id".
	PrimaryKey string

	// Operations are exposed on the collection itself.
	Operations []Operation

	// Parents are the schema addresses of collections backing ancestor
	// types. Each becomes an allOf reference.
	Parents []string

	// Lookup finds an already composed schema by address. It resolves the
	// Parents references.
	Lookup func(uri string) (*Composed, bool)
}

// Composed is the merged, checked schema of a document type bound to a
// collection. It is immutable.
type Composed struct {
	typ        *DocumentType
	url        string
	primaryKey string
	doc        Fragment
	defaults   map[string]any
	raw        []byte
	resolved   *jsonschema.Resolved
}

// idProperty is synthesized for types without a declared primary key.
func idProperty() map[string]any {
	return map[string]any{
		"type":        "string",
		"title":       "ID",
		"description": "The primary key.",
	}
}

// Compose binds t to a collection and checks the result against the
// meta-schema. All failures are *domain.ConfigurationError.
func Compose(t *DocumentType, b Binding) (*Composed, error) {
	subject := t.name
	props := Clone(t.properties)
	if props == nil {
		props = make(map[string]any)
	}

	pk := b.PrimaryKey
	_, hasID := props["id"]
	switch {
	case pk == "" && hasID:
		return nil, domain.NewConfigurationError(subject, `property "id" is reserved unless it is declared as the primary key`)
	case pk == "":
		pk = "id"
		props["id"] = idProperty()
	case pk == "id":
		if !hasID {
			props["id"] = idProperty()
		}
	case hasID:
		return nil, domain.NewConfigurationError(subject, `property "id" collides with primary key %q`, pk)
	default:
		if _, ok := props[pk]; !ok {
			return nil, domain.NewConfigurationError(subject, "primary key %q is not a declared property", pk)
		}
	}

	defaults := make(map[string]any)
	for name, p := range props {
		if pm, ok := asMap(p); ok {
			if d, ok := pm["default"]; ok {
				defaults[name] = CloneValue(d)
			}
		}
	}

	schemaURL := b.URL + domain.SchemaSuffix
	doc := Clone(t.keywords)
	if doc == nil {
		doc = Fragment{}
	}
	doc["id"] = schemaURL
	doc["type"] = "object"
	doc["title"] = t.title
	doc["description"] = t.description
	doc["properties"] = props
	doc["definitions"] = Clone(t.definitions)
	if len(t.required) > 0 {
		doc["required"] = toAnyList(t.required)
	}
	doc["methods"] = toAnyList(operationSlugs(b.Operations))
	doc["documentMethods"] = toAnyList(operationSlugs(t.operations))
	doc["template"] = t.template
	doc["defaults"] = Clone(defaults)

	if len(b.Parents) > 0 {
		allOf, _ := doc["allOf"].([]any)
		for _, parent := range b.Parents {
			allOf = append(allOf, map[string]any{"$ref": parent})
		}
		doc["allOf"] = allOf
	}

	raw, resolved, err := resolve(subject, schemaURL, doc, b.Lookup)
	if err != nil {
		return nil, err
	}

	return &Composed{
		typ:        t,
		url:        schemaURL,
		primaryKey: pk,
		doc:        doc,
		defaults:   defaults,
		raw:        raw,
		resolved:   resolved,
	}, nil
}

// Type returns the bound document type.
func (c *Composed) Type() *DocumentType { return c.typ }

// URL returns the schema address, "{collection};schema".
func (c *Composed) URL() string { return c.url }

// PrimaryKey returns the effective primary key property.
func (c *Composed) PrimaryKey() string { return c.primaryKey }

// Template returns the display template.
func (c *Composed) Template() string { return c.typ.template }

// Document returns a copy of the composed schema document.
func (c *Composed) Document() Fragment { return Clone(c.doc) }

// Defaults returns a copy of the property defaults.
func (c *Composed) Defaults() map[string]any { return Clone(c.defaults) }

// Default returns the declared default of a property.
func (c *Composed) Default(name string) (any, bool) {
	v, ok := c.defaults[name]
	return CloneValue(v), ok
}

// PropertyNames returns the declared property names in sorted order.
func (c *Composed) PropertyNames() []string {
	props, _ := asMap(c.doc["properties"])
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Property returns the schema of a declared property.
func (c *Composed) Property(name string) (Fragment, bool) {
	props, _ := asMap(c.doc["properties"])
	p, ok := asMap(props[name])
	if !ok {
		return nil, false
	}
	return Clone(p), true
}

// IsArray reports whether a property is declared with type array.
func (c *Composed) IsArray(name string) bool {
	p, ok := c.Property(name)
	if !ok {
		return false
	}
	switch t := p["type"].(type) {
	case string:
		return t == "array"
	case []any:
		for _, e := range t {
			if e == "array" {
				return true
			}
		}
	}
	return false
}

// Validate checks a wire-shape instance against the composed schema.
// Failures are *domain.ValidationError.
func (c *Composed) Validate(instance map[string]any) error {
	raw, err := json.Marshal(instance)
	if err != nil {
		return &domain.ValidationError{Reason: "document is not JSON", Err: err}
	}
	var normalized any
	if err := json.Unmarshal(raw, &normalized); err != nil {
		return &domain.ValidationError{Reason: "document is not JSON", Err: err}
	}
	if err := c.resolved.Validate(normalized); err != nil {
		return &domain.ValidationError{Path: c.url, Reason: "document does not match schema", Err: err}
	}
	return nil
}

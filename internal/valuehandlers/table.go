package valuehandlers

import (
	"errors"
	"fmt"
	"sort"

	"github.com/custodia-labs/docsuite/internal/core/domain"
)

// Shape is one of the three representations of a document.
type Shape int

const (
	// Native is the in-memory shape.
	Native Shape = iota
	// Wire is the JSON shape.
	Wire
	// Storage is the store-native shape.
	Storage
)

// String returns the shape name.
func (s Shape) String() string {
	switch s {
	case Native:
		return "native"
	case Wire:
		return "wire"
	case Storage:
		return "storage"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// Table maps the special properties of a collection to their handlers.
// It is built once and read concurrently afterwards.
type Table struct {
	handlers map[string]Handler
}

// NewTable builds a table for the given specials. Every special must name a
// declared property; anything else is a configuration error.
func NewTable(specials map[string]Handler, declared []string) (*Table, error) {
	known := make(map[string]bool, len(declared))
	for _, p := range declared {
		known[p] = true
	}

	t := &Table{handlers: make(map[string]Handler, len(specials))}
	for prop, h := range specials {
		if !known[prop] {
			return nil, domain.NewConfigurationError(prop, "special property is not declared in the schema")
		}
		if h == nil {
			return nil, domain.NewConfigurationError(prop, "special property has no handler")
		}
		t.handlers[prop] = h
	}
	return t, nil
}

// Handler returns the handler of a special property.
func (t *Table) Handler(prop string) (Handler, bool) {
	h, ok := t.handlers[prop]
	return h, ok
}

// Properties returns the special property names in sorted order.
func (t *Table) Properties() []string {
	props := make([]string, 0, len(t.handlers))
	for p := range t.handlers {
		props = append(props, p)
	}
	sort.Strings(props)
	return props
}

// IsGeometry reports whether the property is served by a geometry handler.
func (t *Table) IsGeometry(prop string) bool {
	g, ok := t.handlers[prop].(GeometryAware)
	return ok && g.IsGeometry()
}

// Convert returns a copy of doc with every special property converted to
// shape. Absent and nil values are left alone. Sequence values are
// converted element by element.
func (t *Table) Convert(doc map[string]any, shape Shape) (map[string]any, error) {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}

	for prop, h := range t.handlers {
		v, ok := out[prop]
		if !ok || v == nil {
			continue
		}
		converted, err := convertValue(h, v, shape)
		if err != nil {
			return nil, propertyError(prop, err)
		}
		out[prop] = converted
	}
	return out, nil
}

// ToStorage converts doc to the storage shape.
func (t *Table) ToStorage(doc map[string]any) (map[string]any, error) {
	return t.Convert(doc, Storage)
}

// ToWire converts doc to the wire shape.
func (t *Table) ToWire(doc map[string]any) (map[string]any, error) {
	return t.Convert(doc, Wire)
}

// ToNative converts doc to the native shape.
func (t *Table) ToNative(doc map[string]any) (map[string]any, error) {
	return t.Convert(doc, Native)
}

// FillDefaults sets absent special properties whose handler is a Defaulter.
// It returns the names of the properties it set.
func (t *Table) FillDefaults(doc map[string]any) []string {
	var set []string
	for _, prop := range t.Properties() {
		d, ok := t.handlers[prop].(Defaulter)
		if !ok {
			continue
		}
		if v, present := doc[prop]; present && v != nil {
			continue
		}
		doc[prop] = d.Default()
		set = append(set, prop)
	}
	return set
}

func convertValue(h Handler, v any, shape Shape) (any, error) {
	if list, ok := v.([]any); ok {
		out := make([]any, len(list))
		for i, e := range list {
			if e == nil {
				continue
			}
			c, err := convertValue(h, e, shape)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	}

	switch shape {
	case Storage:
		return h.ToStorage(v)
	case Wire:
		return h.ToWire(v)
	default:
		return h.ToNative(v)
	}
}

// propertyError attaches the property name to handler errors.
func propertyError(prop string, err error) error {
	var verr *domain.ValidationError
	if errors.As(err, &verr) && verr.Path == "" {
		cp := *verr
		cp.Path = prop
		return &cp
	}
	return fmt.Errorf("property %s: %w", prop, err)
}

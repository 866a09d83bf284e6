package services

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/goccy/go-json"

	"github.com/custodia-labs/docsuite/internal/core/domain"
	"github.com/custodia-labs/docsuite/internal/schema"
)

var placeholder = regexp.MustCompile(`\{([^{}]+)\}`)

// Document is one record of a collection: an ordered mapping from property
// name to native value.
//
// A Document is Unsaved until a successful Save, Saved afterwards and
// Deleted once removed. On a deleted document, Set, Unset, Update, Save,
// Delete, Validate, Reference, Dereference, Fetch and Invoke fail with an
// error wrapping domain.ErrDeleted. Reads keep returning the last values.
type Document struct {
	coll *Collection
	obj  *linkedhashmap.Map

	saved     bool
	persisted bool
	deleted   bool

	// referenced is true while nested documents are held as identifiers.
	referenced bool
}

func newDocument(c *Collection, obj map[string]any, fromStore bool) *Document {
	d := &Document{
		coll:       c,
		obj:        linkedhashmap.New(),
		saved:      fromStore,
		persisted:  fromStore,
		referenced: fromStore,
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		d.obj.Put(k, obj[k])
	}
	return d
}

// Collection returns the owning collection.
func (d *Document) Collection() *Collection { return d.coll }

// Saved reports whether the document is persisted in its current form.
func (d *Document) Saved() bool { return d.saved }

// Deleted reports whether the document was deleted.
func (d *Document) Deleted() bool { return d.deleted }

// Referenced reports whether nested documents are held as identifiers.
func (d *Document) Referenced() bool { return d.referenced }

// Get returns a property value, falling back to the declared default.
func (d *Document) Get(key string) (any, bool) {
	if v, ok := d.obj.Get(key); ok {
		return v, true
	}
	return d.coll.composed.Default(key)
}

// Set assigns a property and runs the processors that watch it.
func (d *Document) Set(key string, value any) error {
	if d.deleted {
		return fmt.Errorf("set %s: %w", key, domain.ErrDeleted)
	}
	d.obj.Put(key, value)
	d.saved = false
	return d.changed(key)
}

// Unset removes a property and runs the processors that watch it.
func (d *Document) Unset(key string) error {
	if d.deleted {
		return fmt.Errorf("unset %s: %w", key, domain.ErrDeleted)
	}
	d.obj.Remove(key)
	d.saved = false
	return d.changed(key)
}

// Update assigns several properties and runs the processors once.
func (d *Document) Update(values map[string]any) error {
	if d.deleted {
		return fmt.Errorf("update: %w", domain.ErrDeleted)
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		d.obj.Put(k, values[k])
	}
	d.saved = false
	return d.changed(keys...)
}

func (d *Document) changed(keys ...string) error {
	if d.coll.processors == nil || d.coll.processors.Len() == 0 {
		return nil
	}
	m := d.toMap()
	if err := d.coll.processors.OnChange(m, d.coll.PrimaryKey(), keys...); err != nil {
		return err
	}
	d.commit(m)
	return nil
}

// Keys returns the property names in insertion order.
func (d *Document) Keys() []string {
	keys := make([]string, 0, d.obj.Size())
	for _, k := range d.obj.Keys() {
		keys = append(keys, k.(string))
	}
	return keys
}

// Len returns the number of properties.
func (d *Document) Len() int { return d.obj.Size() }

// Obj returns a copy of the native mapping.
func (d *Document) Obj() map[string]any {
	m := d.toMap()
	for k, v := range m {
		m[k] = schema.CloneValue(v)
	}
	return m
}

func (d *Document) toMap() map[string]any {
	m := make(map[string]any, d.obj.Size())
	it := d.obj.Iterator()
	for it.Next() {
		m[it.Key().(string)] = it.Value()
	}
	return m
}

// commit replaces the mapping with m. Existing keys keep their position and
// new keys are appended in sorted order.
func (d *Document) commit(m map[string]any) {
	next := linkedhashmap.New()
	for _, k := range d.obj.Keys() {
		if v, ok := m[k.(string)]; ok {
			next.Put(k, v)
		}
	}
	var added []string
	for k := range m {
		if _, ok := next.Get(k); !ok {
			added = append(added, k)
		}
	}
	sort.Strings(added)
	for _, k := range added {
		next.Put(k, m[k])
	}
	d.obj = next
}

// Key returns the primary key value as a string, or "" if unset.
func (d *Document) Key() string {
	v, ok := d.obj.Get(d.coll.PrimaryKey())
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// ID returns the primary key once the document has been persisted, or ""
// before the first save.
func (d *Document) ID() string {
	if !d.persisted {
		return ""
	}
	return d.Key()
}

// URL returns the document address once its primary key is known.
func (d *Document) URL() string {
	key := d.Key()
	if key == "" {
		return ""
	}
	return domain.JoinURL(d.coll.url, url.PathEscape(key))
}

// SchemaURL returns the address of the collection schema.
func (d *Document) SchemaURL() string { return d.coll.SchemaURL() }

// Save persists the document.
func (d *Document) Save(ctx context.Context) error {
	return d.coll.Save(ctx, d)
}

// Delete removes the document from its collection. It is terminal.
func (d *Document) Delete(ctx context.Context) error {
	return d.coll.delete(ctx, d)
}

// Validate checks the document without saving it.
func (d *Document) Validate(ctx context.Context) error {
	if d.deleted {
		return fmt.Errorf("validate: %w", domain.ErrDeleted)
	}
	return d.coll.Validate(ctx, d.toMap())
}

// Reference replaces nested documents with their identifiers, saving
// unsaved ones first.
func (d *Document) Reference(ctx context.Context) error {
	if d.deleted {
		return fmt.Errorf("reference: %w", domain.ErrDeleted)
	}
	v, err := d.coll.app.suite.ToReferenceForm(ctx, d.toMap())
	if err != nil {
		return err
	}
	d.commit(v.(map[string]any))
	d.referenced = true
	return nil
}

// Dereference replaces identifiers in every property with the live objects
// they address. Identifiers that do not resolve stay strings.
func (d *Document) Dereference(ctx context.Context) error {
	if d.deleted {
		return fmt.Errorf("dereference: %w", domain.ErrDeleted)
	}
	suite := d.coll.app.suite
	for _, k := range d.obj.Keys() {
		v, _ := d.obj.Get(k)
		d.obj.Put(k, suite.ToNativeForm(ctx, v))
	}
	d.referenced = false
	return nil
}

// Fetch returns one property with its identifiers resolved, leaving the
// document unchanged.
func (d *Document) Fetch(ctx context.Context, key string) (any, error) {
	if d.deleted {
		return nil, fmt.Errorf("fetch %s: %w", key, domain.ErrDeleted)
	}
	v, ok := d.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: property %s", domain.ErrNotFound, key)
	}
	return d.coll.app.suite.ToNativeForm(ctx, v), nil
}

// Wire returns the JSON shape of the document. Nested documents appear as
// identifiers when saved and as objects otherwise. Nothing is saved.
func (d *Document) Wire() (map[string]any, error) {
	collapsed, err := collapse(d.toMap())
	if err != nil {
		return nil, err
	}
	return d.coll.handlers.ToWire(collapsed.(map[string]any))
}

// MarshalJSON encodes the wire shape.
func (d *Document) MarshalJSON() ([]byte, error) {
	wire, err := d.Wire()
	if err != nil {
		return nil, err
	}
	return json.Marshal(wire)
}

// Render fills the {property} placeholders of the schema template.
// Missing properties render as empty strings.
func (d *Document) Render() (string, error) {
	wire, err := d.Wire()
	if err != nil {
		return "", err
	}
	out := placeholder.ReplaceAllStringFunc(d.coll.composed.Template(), func(m string) string {
		name := m[1 : len(m)-1]
		if v, ok := wire[name]; ok && v != nil {
			return fmt.Sprint(v)
		}
		if v, ok := d.coll.composed.Default(name); ok && v != nil {
			return fmt.Sprint(v)
		}
		if name == "id" {
			return d.Key()
		}
		return ""
	})
	return out, nil
}

// Invoke runs an operation exposed on documents of this type.
func (d *Document) Invoke(ctx context.Context, slug string, args map[string]any) (any, error) {
	if d.deleted {
		return nil, fmt.Errorf("invoke %s: %w", slug, domain.ErrDeleted)
	}
	for _, op := range d.coll.docType.Operations() {
		if op.Address() != slug {
			continue
		}
		if op.Func == nil {
			return nil, fmt.Errorf("operation %s: %w", slug, domain.ErrNotImplemented)
		}
		return op.Func(ctx, d, args)
	}
	return nil, fmt.Errorf("%w: operation %s on %s", domain.ErrNotFound, slug, d.coll.url)
}

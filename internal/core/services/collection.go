package services

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sort"
	"strconv"

	"github.com/custodia-labs/docsuite/internal/core/domain"
	"github.com/custodia-labs/docsuite/internal/core/ports/driven"
	"github.com/custodia-labs/docsuite/internal/logger"
	"github.com/custodia-labs/docsuite/internal/schema"
	"github.com/custodia-labs/docsuite/internal/valuehandlers"
)

// Validator checks the wire shape of a document after schema validation.
type Validator func(ctx context.Context, wire map[string]any) error

// CollectionSpec declares a collection.
type CollectionSpec struct {
	// Name is the declared name; the slug and table name derive from it.
	Name string

	// Type names a registered document type.
	Type string

	// PrimaryKey names the key property. Empty means a synthesized "id".
	PrimaryKey string

	// Specials maps property names to value handlers.
	Specials map[string]valuehandlers.Handler

	// Indexes lists properties that get secondary indexes.
	Indexes []string

	// Processors maintain derived properties. Nil means none.
	Processors driven.DocumentProcessorPipeline

	// Operations are exposed on the collection.
	Operations []schema.Operation

	Validator Validator

	// Private collections are left out of application schemas.
	Private bool

	Hooks Hooks
}

// Collection owns the documents of one type within an application.
// It is built once at application construction and is read-only afterwards.
type Collection struct {
	app        *Application
	name       string
	slug       string
	table      string
	url        string
	docType    *schema.DocumentType
	composed   *schema.Composed
	handlers   *valuehandlers.Table
	indexes    []string
	processors driven.DocumentProcessorPipeline
	operations []schema.Operation
	validator  Validator
	private    bool
	hooks      Hooks
	log        logger.Logger
}

func newCollection(app *Application, spec CollectionSpec) (*Collection, error) {
	if spec.Name == "" {
		return nil, domain.NewConfigurationError(app.name, "collection name is required")
	}
	slug := schema.Slug(spec.Name)
	subject := app.slug + "/" + slug

	docType, ok := app.suite.types.Lookup(spec.Type)
	if !ok {
		return nil, domain.NewConfigurationError(subject, "unknown document type %q", spec.Type)
	}

	url := domain.JoinURL(app.url, slug)

	var parents []string
	for _, ancestor := range docType.Ancestors() {
		for _, c := range app.stagedOfType(ancestor) {
			parents = append(parents, c.SchemaURL())
		}
	}

	composed, err := schema.Compose(docType, schema.Binding{
		URL:        url,
		PrimaryKey: spec.PrimaryKey,
		Operations: spec.Operations,
		Parents:    parents,
		Lookup: func(uri string) (*schema.Composed, bool) {
			c, ok := app.stagedBySchema(uri)
			if !ok {
				return nil, false
			}
			return c.composed, true
		},
	})
	if err != nil {
		return nil, err
	}

	handlers, err := valuehandlers.NewTable(spec.Specials, composed.PropertyNames())
	if err != nil {
		return nil, &domain.ConfigurationError{Subject: subject, Reason: "invalid special property", Err: err}
	}

	for _, idx := range spec.Indexes {
		if _, ok := composed.Property(idx); !ok {
			return nil, domain.NewConfigurationError(subject, "index on undeclared property %q", idx)
		}
	}

	c := &Collection{
		app:        app,
		name:       spec.Name,
		slug:       slug,
		table:      schema.TableName(app.slug) + "__" + schema.TableName(spec.Name),
		url:        url,
		docType:    docType,
		composed:   composed,
		handlers:   handlers,
		indexes:    append([]string(nil), spec.Indexes...),
		processors: spec.Processors,
		operations: append([]schema.Operation(nil), spec.Operations...),
		validator:  spec.Validator,
		private:    spec.Private,
		hooks:      spec.Hooks,
		log:        logger.Named(app.slug + "." + slug),
	}
	c.log.Debug("registered collection %s (table %s, key %s)", c.url, c.table, composed.PrimaryKey())
	return c, nil
}

// Application returns the owning application.
func (c *Collection) Application() *Application { return c.app }

// Name returns the declared name.
func (c *Collection) Name() string { return c.name }

// Slug returns the address segment of the collection.
func (c *Collection) Slug() string { return c.slug }

// Table returns the store table name.
func (c *Collection) Table() string { return c.table }

// URL returns the collection address.
func (c *Collection) URL() string { return c.url }

// SchemaURL returns the address of the composed schema.
func (c *Collection) SchemaURL() string { return c.composed.URL() }

// PrimaryKey returns the primary key property.
func (c *Collection) PrimaryKey() string { return c.composed.PrimaryKey() }

// DocumentType returns the bound document type.
func (c *Collection) DocumentType() *schema.DocumentType { return c.docType }

// Composed returns the composed schema.
func (c *Collection) Composed() *schema.Composed { return c.composed }

// Handlers returns the special property table.
func (c *Collection) Handlers() *valuehandlers.Table { return c.handlers }

// Private reports whether the collection is left out of application schemas.
func (c *Collection) Private() bool { return c.private }

// Schema returns the composed schema document.
func (c *Collection) Schema() map[string]any { return c.composed.Document() }

// store returns the application store.
func (c *Collection) store() driven.Store { return c.app.store }

// New wraps obj in an unsaved Document. Values may be in any shape the
// collection's handlers accept; they are kept as given.
func (c *Collection) New(ctx context.Context, obj map[string]any) (*Document, error) {
	return c.construct(ctx, obj, false)
}

func (c *Collection) construct(ctx context.Context, obj map[string]any, fromStore bool) (*Document, error) {
	if err := runEntityHook(ctx, c.hooks.BeforeInit, obj); err != nil {
		return nil, fmt.Errorf("%s: before init: %w", c.slug, err)
	}
	doc := newDocument(c, obj, fromStore)
	if err := runEntityHook(ctx, c.hooks.AfterInit, doc); err != nil {
		return nil, fmt.Errorf("%s: after init: %w", c.slug, err)
	}
	return doc, nil
}

// hydrate converts a raw stored document into a saved Document.
func (c *Collection) hydrate(ctx context.Context, raw map[string]any) (*Document, error) {
	native, err := c.handlers.ToNative(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: read stored document: %w", c.slug, err)
	}
	return c.construct(ctx, native, true)
}

// Get returns the document stored under key, or an error wrapping
// domain.ErrNotFound.
func (c *Collection) Get(ctx context.Context, key string) (*Document, error) {
	raw, err := c.store().Get(ctx, c.table, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s/%s", domain.ErrNotFound, c.url, key)
		}
		return nil, err
	}
	return c.hydrate(ctx, raw)
}

// Contains reports whether a document is stored under key.
func (c *Collection) Contains(ctx context.Context, key string) (bool, error) {
	_, err := c.store().Get(ctx, c.table, key)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// All returns every stored document ordered by key.
func (c *Collection) All(ctx context.Context) ([]*Document, error) {
	raws, err := c.store().Scan(ctx, c.table)
	if err != nil {
		return nil, err
	}
	docs := make([]*Document, 0, len(raws))
	for _, raw := range raws {
		d, err := c.hydrate(ctx, raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].Key() < docs[j].Key() })
	return docs, nil
}

// Query returns the stored documents matching keep, ordered by key.
func (c *Collection) Query(ctx context.Context, keep func(*Document) bool) ([]*Document, error) {
	all, err := c.All(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, d := range all {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out, nil
}

// Len returns the number of stored documents.
func (c *Collection) Len(ctx context.Context) (int, error) {
	raws, err := c.store().Scan(ctx, c.table)
	if err != nil {
		return 0, err
	}
	return len(raws), nil
}

// Create saves a new document built from obj. A document already stored
// under the same key is an error wrapping domain.ErrAlreadyExists.
func (c *Collection) Create(ctx context.Context, obj map[string]any) (*Document, error) {
	doc, err := c.New(ctx, obj)
	if err != nil {
		return nil, err
	}
	if err := c.save(ctx, doc, driven.ConflictError); err != nil {
		return nil, err
	}
	return doc, nil
}

// CreateMany creates documents in order and stops at the first failure.
func (c *Collection) CreateMany(ctx context.Context, objs []map[string]any) ([]*Document, error) {
	docs := make([]*Document, 0, len(objs))
	for i, obj := range objs {
		doc, err := c.Create(ctx, obj)
		if err != nil {
			return docs, fmt.Errorf("document %d: %w", i, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Set stores obj under key, replacing any existing document. The primary
// key property is forced to key, converted to the declared key type.
func (c *Collection) Set(ctx context.Context, key string, obj map[string]any) (*Document, error) {
	forced := make(map[string]any, len(obj)+1)
	for k, v := range obj {
		forced[k] = v
	}
	pk := c.PrimaryKey()
	if v, ok := forced[pk]; !ok || v == nil || fmt.Sprint(v) != key {
		typed, err := c.keyValue(key)
		if err != nil {
			return nil, err
		}
		forced[pk] = typed
	}

	doc, err := c.New(ctx, forced)
	if err != nil {
		return nil, err
	}
	if err := c.save(ctx, doc, driven.ConflictReplace); err != nil {
		return nil, err
	}
	return doc, nil
}

// keyValue parses key as the JSON type declared for the primary key.
func (c *Collection) keyValue(key string) (any, error) {
	prop, _ := c.composed.Property(c.PrimaryKey())
	switch declaredType(prop) {
	case "integer":
		n, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: key %q of %s is not an integer", domain.ErrInvalidInput, key, c.url)
		}
		return int(n), nil
	case "number":
		f, err := strconv.ParseFloat(key, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: key %q of %s is not a number", domain.ErrInvalidInput, key, c.url)
		}
		return f, nil
	default:
		return key, nil
	}
}

// declaredType returns the single non-null JSON type of a property schema,
// or "" when it declares none or several.
func declaredType(prop schema.Fragment) string {
	switch t := prop["type"].(type) {
	case string:
		return t
	case []any:
		var found string
		for _, e := range t {
			name, _ := e.(string)
			if name == "null" {
				continue
			}
			if found != "" {
				return ""
			}
			found = name
		}
		return found
	default:
		return ""
	}
}

// Save persists doc, replacing any document stored under its key.
func (c *Collection) Save(ctx context.Context, doc *Document) error {
	return c.save(ctx, doc, driven.ConflictReplace)
}

// save runs the write sequence: reference collapse, processors and
// defaults, wire conversion, schema validation, the custom validator,
// storage conversion and the store write. The document is only updated
// once the write succeeds.
func (c *Collection) save(ctx context.Context, doc *Document, policy driven.ConflictPolicy) error {
	if doc.coll != c {
		return fmt.Errorf("%w: document belongs to %s, not %s", domain.ErrInvalidInput, doc.coll.url, c.url)
	}
	if doc.deleted {
		return fmt.Errorf("save %s: %w", c.slug, domain.ErrDeleted)
	}

	collapsed, err := c.app.suite.ToReferenceForm(ctx, doc.toMap())
	if err != nil {
		return err
	}
	obj := collapsed.(map[string]any)

	c.handlers.FillDefaults(obj)
	if c.processors != nil {
		if err := c.processors.BeforeSave(obj, c.PrimaryKey()); err != nil {
			return fmt.Errorf("%s: %w", c.slug, err)
		}
	}

	wire, err := c.handlers.ToWire(obj)
	if err != nil {
		return err
	}
	if err := c.composed.Validate(wire); err != nil {
		return err
	}
	if c.validator != nil {
		if err := c.validator(ctx, wire); err != nil {
			return err
		}
	}

	stored, err := c.handlers.ToStorage(obj)
	if err != nil {
		return err
	}

	if err := runDocumentHook(ctx, c.hooks.BeforeSave, doc); err != nil {
		return fmt.Errorf("%s: before save: %w", c.slug, err)
	}

	res, err := c.store().Put(ctx, c.table, []map[string]any{stored}, policy)
	if err != nil {
		return fmt.Errorf("save %s: %w", c.slug, err)
	}
	if len(res.GeneratedKeys) > 0 {
		stored[c.PrimaryKey()] = res.GeneratedKeys[0]
	}
	native, err := c.handlers.ToNative(stored)
	if err != nil {
		return fmt.Errorf("%s: %w", c.slug, err)
	}

	doc.commit(native)
	doc.saved = true
	doc.persisted = true
	doc.referenced = true
	c.log.Debug("saved %s", doc.URL())

	if err := runDocumentHook(ctx, c.hooks.AfterSave, doc); err != nil {
		return fmt.Errorf("%s: after save: %w", c.slug, err)
	}
	return nil
}

// Validate runs the schema and custom validation on obj without saving.
// Live documents inside obj are checked as a save would store them: saved
// ones by identifier, unsaved ones against their own collection. Nothing
// is saved.
func (c *Collection) Validate(ctx context.Context, obj map[string]any) error {
	collapsed, err := previewReferences(ctx, obj)
	if err != nil {
		return err
	}
	return c.check(ctx, collapsed.(map[string]any))
}

// check validates a document in reference form the way save does, with
// defaults and processors applied to a copy.
func (c *Collection) check(ctx context.Context, obj map[string]any) error {
	obj = maps.Clone(obj)
	c.handlers.FillDefaults(obj)
	if c.processors != nil {
		if err := c.processors.BeforeSave(obj, c.PrimaryKey()); err != nil {
			return fmt.Errorf("%s: %w", c.slug, err)
		}
	}
	wire, err := c.handlers.ToWire(obj)
	if err != nil {
		return err
	}
	if err := c.composed.Validate(wire); err != nil {
		return err
	}
	if c.validator != nil {
		return c.validator(ctx, wire)
	}
	return nil
}

// Delete removes the document stored under key.
func (c *Collection) Delete(ctx context.Context, key string) error {
	doc, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	return doc.Delete(ctx)
}

func (c *Collection) delete(ctx context.Context, doc *Document) error {
	if doc.deleted {
		return fmt.Errorf("delete %s: %w", c.slug, domain.ErrDeleted)
	}
	if !doc.persisted {
		return fmt.Errorf("%w: delete of an unsaved %s document", domain.ErrInvalidInput, c.slug)
	}
	if err := runDocumentHook(ctx, c.hooks.BeforeDelete, doc); err != nil {
		return fmt.Errorf("%s: before delete: %w", c.slug, err)
	}
	if _, err := c.store().Delete(ctx, c.table, []string{doc.Key()}); err != nil {
		return fmt.Errorf("delete %s: %w", c.slug, err)
	}
	doc.saved = false
	doc.persisted = false
	doc.deleted = true
	c.log.Debug("deleted %s", doc.URL())
	if err := runDocumentHook(ctx, c.hooks.AfterDelete, doc); err != nil {
		return fmt.Errorf("%s: after delete: %w", c.slug, err)
	}
	return nil
}

// DeleteAll removes every stored document and returns how many were removed.
// Delete hooks are not run.
func (c *Collection) DeleteAll(ctx context.Context) (int, error) {
	res, err := c.store().DeleteAll(ctx, c.table)
	if err != nil {
		return 0, err
	}
	return res.Deleted, nil
}

// CreateTable provisions the table and its indexes. An identical existing
// table or index is logged and skipped; a conflicting one is an error.
func (c *Collection) CreateTable(ctx context.Context) error {
	if err := runCollectionHook(ctx, c.hooks.BeforeTableCreate, c); err != nil {
		return fmt.Errorf("%s: before table create: %w", c.slug, err)
	}

	err := c.store().CreateTable(ctx, c.table, c.PrimaryKey())
	switch {
	case errors.Is(err, domain.ErrAlreadyExists):
		c.log.Info("table %s already exists", c.table)
	case err != nil:
		return fmt.Errorf("create table %s: %w", c.table, err)
	default:
		c.log.Info("created table %s", c.table)
	}

	for _, prop := range c.indexes {
		opts := driven.IndexOptions{
			Multi: c.composed.IsArray(prop),
			Geo:   c.handlers.IsGeometry(prop),
		}
		err := c.store().CreateIndex(ctx, c.table, prop, opts)
		switch {
		case errors.Is(err, domain.ErrAlreadyExists):
			c.log.Info("index %s on %s already exists", prop, c.table)
		case err != nil:
			return fmt.Errorf("create index %s on %s: %w", prop, c.table, err)
		}
	}

	if err := runCollectionHook(ctx, c.hooks.AfterTableCreate, c); err != nil {
		return fmt.Errorf("%s: after table create: %w", c.slug, err)
	}
	return nil
}

// DropTable removes the table. A missing table is logged and skipped.
func (c *Collection) DropTable(ctx context.Context) error {
	if err := runCollectionHook(ctx, c.hooks.BeforeTableDrop, c); err != nil {
		return fmt.Errorf("%s: before table drop: %w", c.slug, err)
	}

	err := c.store().DropTable(ctx, c.table)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.log.Info("table %s does not exist", c.table)
	case err != nil:
		return fmt.Errorf("drop table %s: %w", c.table, err)
	default:
		c.log.Info("dropped table %s", c.table)
	}

	if err := runCollectionHook(ctx, c.hooks.AfterTableDrop, c); err != nil {
		return fmt.Errorf("%s: after table drop: %w", c.slug, err)
	}
	return nil
}

// Operation returns a collection operation by slug.
func (c *Collection) Operation(slug string) (schema.Operation, bool) {
	for _, op := range c.operations {
		if op.Address() == slug {
			return op, true
		}
	}
	return schema.Operation{}, false
}

// OperationSchema returns the schema of a collection or document operation.
func (c *Collection) OperationSchema(slug string) (map[string]any, error) {
	op, ok := c.Operation(slug)
	if !ok {
		for _, dop := range c.docType.Operations() {
			if dop.Address() == slug {
				op, ok = dop, true
				break
			}
		}
	}
	if !ok {
		return nil, fmt.Errorf("%w: operation %s on %s", domain.ErrNotFound, slug, c.url)
	}
	out := op.Schema()
	out["id"] = c.url + "." + slug + domain.SchemaSuffix
	return out, nil
}

// Invoke runs a collection operation.
func (c *Collection) Invoke(ctx context.Context, slug string, args map[string]any) (any, error) {
	op, ok := c.Operation(slug)
	if !ok {
		return nil, fmt.Errorf("%w: operation %s on %s", domain.ErrNotFound, slug, c.url)
	}
	if op.Func == nil {
		return nil, fmt.Errorf("operation %s: %w", slug, domain.ErrNotImplemented)
	}
	return op.Func(ctx, c, args)
}

// JSON returns the wire shape of doc with its address under "_url".
func (c *Collection) JSON(doc *Document) (map[string]any, error) {
	wire, err := doc.Wire()
	if err != nil {
		return nil, err
	}
	if u := doc.URL(); u != "" {
		wire["_url"] = u
	}
	return wire, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/docsuite/internal/core/domain"
	"github.com/custodia-labs/docsuite/internal/core/ports/driven"
	"github.com/custodia-labs/docsuite/internal/logger"
	"github.com/custodia-labs/docsuite/internal/schema"
)

// ApplicationSpec declares an application.
type ApplicationSpec struct {
	// Name is the declared name; the slug is derived from it.
	Name        string
	Description string

	// Connection names the suite store used by every collection.
	Connection string

	Definitions map[string]any
	Operations  []schema.Operation
	Collections []CollectionSpec
	Hooks       Hooks
}

// Application is a named group of collections sharing one store.
type Application struct {
	suite       *Suite
	name        string
	slug        string
	url         string
	description string
	connection  string
	store       driven.Store
	definitions map[string]any
	operations  []schema.Operation
	hooks       Hooks
	log         logger.Logger

	mu          sync.RWMutex
	collections map[string]*Collection
	order       []string
}

// NewApplication builds every collection of spec and registers the
// application with the suite. Nothing is registered if any step fails.
func NewApplication(ctx context.Context, suite *Suite, spec ApplicationSpec) (*Application, error) {
	if spec.Name == "" {
		return nil, domain.NewConfigurationError("application", "name is required")
	}
	slug := schema.Slug(spec.Name)
	if err := suite.reserve(spec.Name, slug); err != nil {
		return nil, err
	}
	store, err := suite.Store(spec.Connection)
	if err != nil {
		return nil, err
	}

	app := &Application{
		suite:       suite,
		name:        spec.Name,
		slug:        slug,
		url:         domain.JoinURL(suite.BaseURL(), slug),
		description: spec.Description,
		connection:  spec.Connection,
		store:       store,
		definitions: schema.Clone(spec.Definitions),
		operations:  append([]schema.Operation(nil), spec.Operations...),
		hooks:       spec.Hooks,
		log:         logger.Named(slug),
		collections: make(map[string]*Collection),
	}

	if err := runEntityHook(ctx, spec.Hooks.BeforeInit, app); err != nil {
		return nil, fmt.Errorf("application %s: before init: %w", slug, err)
	}

	// Collections of base types are built first so that derived ones can
	// reference their schemas whatever the declaration order.
	built := make([]*Collection, len(spec.Collections))
	for _, i := range buildOrder(suite.types, spec.Collections) {
		coll, err := newCollection(app, spec.Collections[i])
		if err != nil {
			return nil, err
		}
		if _, exists := app.collections[coll.slug]; exists {
			return nil, &domain.ConfigurationError{
				Subject: spec.Name,
				Reason:  fmt.Sprintf("collection slug %q registered twice", coll.slug),
				Err:     domain.ErrAlreadyExists,
			}
		}
		app.collections[coll.slug] = coll
		app.order = append(app.order, coll.slug)
		built[i] = coll
	}
	app.order = app.order[:0]
	for _, coll := range built {
		app.order = append(app.order, coll.slug)
	}

	if err := suite.register(app); err != nil {
		return nil, err
	}

	if err := runEntityHook(ctx, spec.Hooks.AfterInit, app); err != nil {
		return nil, fmt.Errorf("application %s: after init: %w", slug, err)
	}
	return app, nil
}

// buildOrder returns the indexes of specs ordered by inheritance depth, so
// that a collection is built after the collections of its ancestor types.
// Declaration order is kept among types of equal depth.
func buildOrder(types *schema.Registry, specs []CollectionSpec) []int {
	depth := make([]int, len(specs))
	order := make([]int, len(specs))
	for i, cs := range specs {
		order[i] = i
		if t, ok := types.Lookup(cs.Type); ok {
			depth[i] = len(t.Ancestors())
		}
	}
	sort.SliceStable(order, func(a, b int) bool { return depth[order[a]] < depth[order[b]] })
	return order
}

// Suite returns the owning suite.
func (a *Application) Suite() *Suite { return a.suite }

// Name returns the declared name.
func (a *Application) Name() string { return a.name }

// Slug returns the address segment of the application.
func (a *Application) Slug() string { return a.slug }

// URL returns the application address.
func (a *Application) URL() string { return a.url }

// SchemaURL returns the address of the application schema.
func (a *Application) SchemaURL() string { return a.url + domain.SchemaSuffix }

// Store returns the application's store.
func (a *Application) Store() driven.Store { return a.store }

// Collection returns the collection registered under slug.
func (a *Application) Collection(slug string) (*Collection, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	c, ok := a.collections[slug]
	return c, ok
}

// Collections returns the collections in declaration order.
func (a *Application) Collections() []*Collection {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*Collection, 0, len(a.order))
	for _, slug := range a.order {
		out = append(out, a.collections[slug])
	}
	return out
}

// stagedBySchema finds a collection of this application by schema address,
// including collections built before the application was registered.
func (a *Application) stagedBySchema(uri string) (*Collection, bool) {
	for _, c := range a.collections {
		if c.SchemaURL() == uri {
			return c, true
		}
	}
	return a.suite.collectionBySchema(uri)
}

// stagedOfType returns the collections bound to t, in this application and
// in registered ones.
func (a *Application) stagedOfType(t *schema.DocumentType) []*Collection {
	var out []*Collection
	for _, slug := range a.order {
		if c := a.collections[slug]; c.DocumentType() == t {
			out = append(out, c)
		}
	}
	return append(out, a.suite.collectionsOfType(t)...)
}

// Operation returns an application operation by slug.
func (a *Application) Operation(slug string) (schema.Operation, bool) {
	for _, op := range a.operations {
		if op.Address() == slug {
			return op, true
		}
	}
	return schema.Operation{}, false
}

// Invoke runs an application operation.
func (a *Application) Invoke(ctx context.Context, slug string, args map[string]any) (any, error) {
	op, ok := a.Operation(slug)
	if !ok {
		return nil, fmt.Errorf("%w: operation %s on %s", domain.ErrNotFound, slug, a.url)
	}
	if op.Func == nil {
		return nil, fmt.Errorf("operation %s: %w", slug, domain.ErrNotImplemented)
	}
	return op.Func(ctx, a, args)
}

func (a *Application) baseSchema() map[string]any {
	return map[string]any{
		"id":          a.SchemaURL(),
		"type":        "object",
		"title":       schema.Humanize(a.name),
		"description": a.description,
		"definitions": schema.Clone(a.definitions),
		"methods":     operationSlugs(a.operations),
	}
}

// Schema returns the application schema with collections referenced by
// schema address. Private collections are omitted.
func (a *Application) Schema() map[string]any {
	out := a.baseSchema()
	colls := make(map[string]any)
	for _, c := range a.Collections() {
		if !c.private {
			colls[c.slug] = c.SchemaURL()
		}
	}
	out["collections"] = colls
	return out
}

// FullSchema returns the application schema with collection schemas inlined.
func (a *Application) FullSchema() map[string]any {
	out := a.baseSchema()
	colls := make(map[string]any)
	for _, c := range a.Collections() {
		if !c.private {
			colls[c.slug] = c.Schema()
		}
	}
	out["collections"] = colls
	return out
}

// CreateTables provisions every collection. A failing collection is logged
// and does not stop the others; the failures are returned joined.
func (a *Application) CreateTables(ctx context.Context) error {
	var errs []error
	for _, c := range a.Collections() {
		if err := c.CreateTable(ctx); err != nil {
			a.log.Warn("create table for %s: %v", c.slug, err)
			errs = append(errs, fmt.Errorf("%s: %w", c.slug, err))
		}
	}
	return errors.Join(errs...)
}

// DropTables drops every collection's table, continuing past failures.
func (a *Application) DropTables(ctx context.Context) error {
	var errs []error
	for _, c := range a.Collections() {
		if err := c.DropTable(ctx); err != nil {
			a.log.Warn("drop table for %s: %v", c.slug, err)
			errs = append(errs, fmt.Errorf("%s: %w", c.slug, err))
		}
	}
	return errors.Join(errs...)
}

func operationSlugs(ops []schema.Operation) []any {
	out := make([]any, 0, len(ops))
	for _, op := range ops {
		out = append(out, op.Address())
	}
	return out
}

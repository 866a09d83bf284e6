package services

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/docsuite/internal/core/domain"
	"github.com/custodia-labs/docsuite/internal/core/ports/driven"
	"github.com/custodia-labs/docsuite/internal/core/ports/driving"
	"github.com/custodia-labs/docsuite/internal/logger"
	"github.com/custodia-labs/docsuite/internal/schema"
)

// Ensure Suite implements the interface.
var _ driving.Resolver = (*Suite)(nil)

// DefaultBaseURL is the identifier prefix used when none is configured.
const DefaultBaseURL = "http://localhost:8000"

// DefaultConnection names the store used by applications that do not name one.
const DefaultConnection = "default"

var (
	activeMu sync.Mutex
	active   *Suite
)

// SuiteConfig configures NewSuite.
type SuiteConfig struct {
	Name        string
	Description string

	// BaseURL prefixes every identifier. Defaults to DefaultBaseURL.
	BaseURL string

	// Types holds the registered document types. Nil creates an empty registry.
	Types *schema.Registry

	// Stores maps connection names to stores.
	Stores map[string]driven.Store

	// Definitions are added to the suite schema next to the built-in ones.
	Definitions map[string]any
}

// Suite is the process-wide registry of applications. Only one Suite may be
// active at a time; Close releases the slot.
type Suite struct {
	name        string
	description string
	baseURL     string
	types       *schema.Registry
	stores      map[string]driven.Store
	definitions map[string]any
	log         logger.Logger

	mu           sync.RWMutex
	applications map[string]*Application
	order        []string
	schemas      map[string]*Collection
}

// NewSuite creates the active Suite. Creating a second one before the first
// is closed is a configuration error.
func NewSuite(cfg SuiteConfig) (*Suite, error) {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return nil, domain.NewConfigurationError("suite", "base URL %q must be absolute", cfg.BaseURL)
	}

	name := cfg.Name
	if name == "" {
		name = "suite"
	}

	activeMu.Lock()
	defer activeMu.Unlock()
	if active != nil {
		return nil, domain.NewConfigurationError("suite", "suite %q is already active", active.name)
	}

	types := cfg.Types
	if types == nil {
		types = schema.NewRegistry()
	}
	stores := make(map[string]driven.Store, len(cfg.Stores))
	for k, v := range cfg.Stores {
		stores[k] = v
	}

	s := &Suite{
		name:         name,
		description:  cfg.Description,
		baseURL:      base,
		types:        types,
		stores:       stores,
		definitions:  schema.Clone(cfg.Definitions),
		log:          logger.Named("suite"),
		applications: make(map[string]*Application),
		schemas:      make(map[string]*Collection),
	}
	active = s
	s.log.Debug("created suite %s at %s", name, base)
	return s, nil
}

// Close releases the active-suite slot.
func (s *Suite) Close() {
	activeMu.Lock()
	defer activeMu.Unlock()
	if active == s {
		active = nil
	}
}

// Name returns the suite name.
func (s *Suite) Name() string { return s.name }

// BaseURL returns the identifier prefix.
func (s *Suite) BaseURL() string { return s.baseURL }

// URL returns the suite address, which is its base URL.
func (s *Suite) URL() string { return s.baseURL }

// Types returns the document type registry.
func (s *Suite) Types() *schema.Registry { return s.types }

// Store returns the store registered under a connection name.
func (s *Suite) Store(connection string) (driven.Store, error) {
	if connection == "" {
		connection = DefaultConnection
	}
	st, ok := s.stores[connection]
	if !ok || st == nil {
		return nil, domain.NewConfigurationError("suite", "no store for connection %q", connection)
	}
	return st, nil
}

// Application returns the application registered under slug.
func (s *Suite) Application(slug string) (*Application, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.applications[slug]
	return app, ok
}

// Applications returns the applications in registration order.
func (s *Suite) Applications() []*Application {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Application, 0, len(s.order))
	for _, slug := range s.order {
		out = append(out, s.applications[slug])
	}
	return out
}

// register adds a fully built application.
func (s *Suite) register(app *Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.applications[app.slug]; exists {
		return &domain.ConfigurationError{
			Subject: app.name,
			Reason:  fmt.Sprintf("application slug %q registered twice", app.slug),
			Err:     domain.ErrAlreadyExists,
		}
	}
	for _, c := range app.Collections() {
		for _, slug := range s.order {
			for _, d := range s.applications[slug].Collections() {
				if d.DocumentType().Extends(c.DocumentType()) {
					return domain.NewConfigurationError(app.slug+"/"+c.slug,
						"collection of base type %s must be registered before %s/%s, which extends it",
						c.DocumentType().Name(), slug, d.slug)
				}
			}
		}
	}
	s.applications[app.slug] = app
	s.order = append(s.order, app.slug)
	for _, c := range app.Collections() {
		s.schemas[c.SchemaURL()] = c
	}
	s.log.Debug("registered application %s", app.slug)
	return nil
}

// reserve fails if an application slug is taken.
func (s *Suite) reserve(name, slug string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, exists := s.applications[slug]; exists {
		return &domain.ConfigurationError{
			Subject: name,
			Reason:  fmt.Sprintf("application slug %q registered twice", slug),
			Err:     domain.ErrAlreadyExists,
		}
	}
	return nil
}

// collectionBySchema finds a registered collection by its schema address.
func (s *Suite) collectionBySchema(uri string) (*Collection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.schemas[uri]
	return c, ok
}

// collectionsOfType returns registered collections bound to t.
func (s *Suite) collectionsOfType(t *schema.DocumentType) []*Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Collection
	for _, slug := range s.order {
		for _, c := range s.applications[slug].Collections() {
			if c.DocumentType() == t {
				out = append(out, c)
			}
		}
	}
	return out
}

// Lookup returns the entity addressed by raw: the suite, an *Application, a
// *Collection or a *Document, depending on the number of path segments.
// A ";schema" address returns the entity's schema document.
func (s *Suite) Lookup(ctx context.Context, raw string) (any, error) {
	id, ok := domain.ParseIdentifier(s.baseURL, raw)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an address under %s", domain.ErrNotFound, raw, s.baseURL)
	}

	var target any = s
	switch id.Depth() {
	case 1:
		app, ok := s.Application(id.Application)
		if !ok {
			return nil, fmt.Errorf("%w: application %s", domain.ErrNotFound, id.Application)
		}
		target = app
	case 2, 3:
		app, ok := s.Application(id.Application)
		if !ok {
			return nil, fmt.Errorf("%w: application %s", domain.ErrNotFound, id.Application)
		}
		coll, ok := app.Collection(id.Collection)
		if !ok {
			return nil, fmt.Errorf("%w: collection %s/%s", domain.ErrNotFound, id.Application, id.Collection)
		}
		target = coll
		if id.Depth() == 3 {
			key, err := url.PathUnescape(id.Key)
			if err != nil {
				return nil, fmt.Errorf("%w: key %q", domain.ErrInvalidInput, id.Key)
			}
			if id.Format == "schema" {
				return coll.Schema(), nil
			}
			doc, err := coll.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			target = doc
		}
	}

	switch id.Format {
	case "":
		return target, nil
	case "schema":
		return schemaOf(target), nil
	default:
		return nil, fmt.Errorf("%w: format %q", domain.ErrNotFound, id.Format)
	}
}

func schemaOf(target any) map[string]any {
	switch t := target.(type) {
	case *Suite:
		return t.Schema()
	case *Application:
		return t.Schema()
	case *Collection:
		return t.Schema()
	default:
		return nil
	}
}

// LookupDocument resolves a document address.
func (s *Suite) LookupDocument(ctx context.Context, raw string) (*Document, error) {
	v, err := s.Lookup(ctx, raw)
	if err != nil {
		return nil, err
	}
	doc, ok := v.(*Document)
	if !ok {
		return nil, fmt.Errorf("%w: %s does not address a document", domain.ErrInvalidInput, raw)
	}
	return doc, nil
}

// baseDefinitions are published in every suite schema.
func baseDefinitions() map[string]any {
	return map[string]any{
		"date": map[string]any{
			"type":        "string",
			"format":      "date",
			"description": "A calendar date, YYYY-MM-DD.",
		},
		"datetime": map[string]any{
			"type":        "string",
			"format":      "date-time",
			"description": "An ISO-8601 timestamp with a UTC offset.",
		},
		"timedelta": map[string]any{
			"type":        "object",
			"description": "A duration.",
			"properties": map[string]any{
				"days":         map[string]any{"type": "number"},
				"hours":        map[string]any{"type": "number"},
				"minutes":      map[string]any{"type": "number"},
				"seconds":      map[string]any{"type": "number"},
				"microseconds": map[string]any{"type": "number"},
			},
		},
		"filterOps": map[string]any{
			"enum": []any{"==", "!=", "<", "<=", ">", ">=", "match", "contains", "has_fields"},
		},
		"spatialOps": map[string]any{
			"enum": []any{"distance", "get_intersecting", "get_nearest", "includes", "intersects"},
		},
	}
}

// Schema returns the suite schema: base definitions and the schema
// addresses of every application.
func (s *Suite) Schema() map[string]any {
	defs := baseDefinitions()
	for k, v := range s.definitions {
		defs[k] = schema.CloneValue(v)
	}

	apps := make(map[string]any)
	for _, app := range s.Applications() {
		apps[app.Slug()] = app.SchemaURL()
	}

	return map[string]any{
		"id":           s.baseURL + domain.SchemaSuffix,
		"type":         "object",
		"title":        s.name,
		"description":  s.description,
		"definitions":  defs,
		"applications": apps,
	}
}

// ApplicationSlugs returns the registered application slugs in sorted order.
func (s *Suite) ApplicationSlugs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]string(nil), s.order...)
	sort.Strings(out)
	return out
}

package definition

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docsuite/internal/core/domain"
	"github.com/custodia-labs/docsuite/internal/core/ports/driven"
	"github.com/custodia-labs/docsuite/internal/core/services"
	"github.com/custodia-labs/docsuite/internal/postprocessors"
	"github.com/custodia-labs/docsuite/internal/schema"
	"github.com/custodia-labs/docsuite/internal/valuehandlers"
)

// Loader turns a definition file into types and application specs.
type Loader struct {
	handlers   *valuehandlers.Registry
	processors *postprocessors.Registry
}

// NewLoader creates a loader. Nil registries are replaced by ones holding
// the built-in handlers and processors.
func NewLoader(handlers *valuehandlers.Registry, processors *postprocessors.Registry) *Loader {
	if handlers == nil {
		handlers = valuehandlers.NewDefaultRegistry()
	}
	if processors == nil {
		processors = postprocessors.NewRegistry()
		postprocessors.RegisterDefaults(processors)
	}
	return &Loader{handlers: handlers, processors: processors}
}

// Types registers every declared type. Types may appear in any order
// relative to their bases.
func (l *Loader) Types(f *File) (*schema.Registry, error) {
	reg := schema.NewRegistry()
	pending := append([]TypeDef(nil), f.Types...)

	for len(pending) > 0 {
		var next []TypeDef
		for _, t := range pending {
			if !basesRegistered(reg, t.Bases) {
				next = append(next, t)
				continue
			}
			if _, err := reg.Register(typeDecl(t)); err != nil {
				return nil, err
			}
		}
		if len(next) == len(pending) {
			return nil, domain.NewConfigurationError(next[0].Name,
				"bases %v are undeclared or cyclic", next[0].Bases)
		}
		pending = next
	}
	return reg, nil
}

func basesRegistered(reg *schema.Registry, bases []string) bool {
	for _, b := range bases {
		if _, ok := reg.Lookup(b); !ok {
			return false
		}
	}
	return true
}

func typeDecl(t TypeDef) schema.TypeDecl {
	return schema.TypeDecl{
		Name:        t.Name,
		Bases:       t.Bases,
		Title:       t.Title,
		Description: t.Description,
		Schema:      t.Schema,
		Definitions: t.Definitions,
		Template:    t.Template,
		Operations:  operations(t.Operations),
	}
}

func operations(defs []OperationDef) []schema.Operation {
	if len(defs) == 0 {
		return nil
	}
	ops := make([]schema.Operation, 0, len(defs))
	for _, d := range defs {
		ops = append(ops, schema.Operation{
			Name:        d.Name,
			Slug:        d.Slug,
			Description: d.Description,
			Request:     d.Request,
			Response:    d.Response,
		})
	}
	return ops
}

// Applications builds the application specs, resolving value handlers and
// processors by name.
func (l *Loader) Applications(f *File) ([]services.ApplicationSpec, error) {
	specs := make([]services.ApplicationSpec, 0, len(f.Applications))
	for _, a := range f.Applications {
		spec := services.ApplicationSpec{
			Name:        a.Name,
			Description: a.Description,
			Connection:  a.Connection,
			Definitions: a.Definitions,
			Operations:  operations(a.Operations),
		}
		for _, c := range a.Collections {
			cs, err := l.collection(a.Name, c)
			if err != nil {
				return nil, err
			}
			spec.Collections = append(spec.Collections, cs)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func (l *Loader) collection(app string, c CollectionDef) (services.CollectionSpec, error) {
	subject := app + "/" + c.Name
	spec := services.CollectionSpec{
		Name:       c.Name,
		Type:       c.Type,
		PrimaryKey: c.PrimaryKey,
		Indexes:    c.Indexes,
		Operations: operations(c.Operations),
		Private:    c.Private,
	}

	if len(c.Specials) > 0 {
		spec.Specials = make(map[string]valuehandlers.Handler, len(c.Specials))
		for prop, p := range c.Specials {
			if p.Handler == "" {
				return spec, domain.NewConfigurationError(subject, "special %q names no handler", prop)
			}
			h, err := l.handlers.Build(p.Handler, p.Config)
			if err != nil {
				return spec, fmt.Errorf("%s: special %s: %w", subject, prop, err)
			}
			spec.Specials[prop] = h
		}
	}

	if len(c.Processors) > 0 {
		procs := make([]driven.DocumentProcessor, 0, len(c.Processors))
		for _, p := range c.Processors {
			proc, err := l.processors.Build(p.Name, p.Config)
			if err != nil {
				return spec, fmt.Errorf("%s: processor %s: %w", subject, p.Name, err)
			}
			procs = append(procs, proc)
		}
		spec.Processors = postprocessors.NewPipeline(procs...)
	}
	return spec, nil
}

// SuiteConfig returns the suite configuration for f. Values from the file
// override base where set.
func (l *Loader) SuiteConfig(f *File, base services.SuiteConfig) (services.SuiteConfig, error) {
	types, err := l.Types(f)
	if err != nil {
		return base, err
	}
	cfg := base
	cfg.Types = types
	if f.Suite.Name != "" {
		cfg.Name = f.Suite.Name
	}
	if f.Suite.Description != "" {
		cfg.Description = f.Suite.Description
	}
	if f.Suite.BaseURL != "" {
		cfg.BaseURL = f.Suite.BaseURL
	}
	if f.Suite.Definitions != nil {
		cfg.Definitions = f.Suite.Definitions
	}
	return cfg, nil
}

// Build creates the suite and every application of f. On error the suite
// is closed.
func (l *Loader) Build(ctx context.Context, f *File, base services.SuiteConfig) (*services.Suite, error) {
	cfg, err := l.SuiteConfig(f, base)
	if err != nil {
		return nil, err
	}
	specs, err := l.Applications(f)
	if err != nil {
		return nil, err
	}

	suite, err := services.NewSuite(cfg)
	if err != nil {
		return nil, err
	}
	for _, spec := range specs {
		if _, err := services.NewApplication(ctx, suite, spec); err != nil {
			suite.Close()
			return nil, err
		}
	}
	return suite, nil
}

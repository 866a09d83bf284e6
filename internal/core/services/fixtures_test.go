package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsuite/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docsuite/internal/core/ports/driven"
	"github.com/custodia-labs/docsuite/internal/schema"
)

const testBaseURL = "http://host/api"

// testTypes registers the document types shared by the service tests.
func testTypes(t *testing.T) *schema.Registry {
	t.Helper()
	reg := schema.NewRegistry()

	decls := []schema.TypeDecl{
		{
			Name:     "Product",
			Template: "{name} ({sku})",
			Schema: schema.Fragment{
				"properties": map[string]any{
					"sku":      map[string]any{"type": "string"},
					"name":     map[string]any{"type": "string"},
					"tags":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"stock":    map[string]any{"type": "integer", "default": 0},
					"location": map[string]any{"type": "object"},
					"released": map[string]any{"type": "string"},
				},
				"required": []any{"name"},
			},
		},
		{
			Name: "Review",
			Schema: schema.Fragment{
				"properties": map[string]any{
					"text":    map[string]any{"type": "string"},
					"product": map[string]any{"type": "string"},
					"related": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				},
			},
		},
		{
			Name: "Animal",
			Schema: schema.Fragment{
				"properties":  map[string]any{"name": map[string]any{"type": "string"}},
				"definitions": map[string]any{"colour": map[string]any{"type": "string"}},
			},
		},
		{
			Name:  "Dog",
			Bases: []string{"Animal"},
			Schema: schema.Fragment{
				"properties": map[string]any{"breed": map[string]any{"type": "string"}},
			},
		},
	}
	for _, d := range decls {
		_, err := reg.Register(d)
		require.NoError(t, err)
	}
	return reg
}

// newTestSuite creates the active suite over a fresh memory store and
// releases it when the test ends.
func newTestSuite(t *testing.T) (*Suite, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	s, err := NewSuite(SuiteConfig{
		Name:    "test",
		BaseURL: testBaseURL,
		Types:   testTypes(t),
		Stores:  map[string]driven.Store{DefaultConnection: store},
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, store
}

// newTestApplication registers an application and provisions its tables.
func newTestApplication(t *testing.T, s *Suite, spec ApplicationSpec) *Application {
	t.Helper()
	ctx := context.Background()
	app, err := NewApplication(ctx, s, spec)
	require.NoError(t, err)
	require.NoError(t, app.CreateTables(ctx))
	return app
}

func mustCollection(t *testing.T, app *Application, slug string) *Collection {
	t.Helper()
	c, ok := app.Collection(slug)
	require.True(t, ok, "collection %s", slug)
	return c
}

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsuite/internal/core/domain"
	"github.com/custodia-labs/docsuite/internal/core/ports/driven"
	"github.com/custodia-labs/docsuite/internal/postprocessors"
	"github.com/custodia-labs/docsuite/internal/postprocessors/slugger"
	"github.com/custodia-labs/docsuite/internal/schema"
	"github.com/custodia-labs/docsuite/internal/valuehandlers"
)

func productsApp(t *testing.T, s *Suite, spec CollectionSpec) (*Application, *Collection) {
	t.Helper()
	if spec.Name == "" {
		spec.Name = "products"
	}
	if spec.Type == "" {
		spec.Type = "Product"
	}
	if spec.PrimaryKey == "" {
		spec.PrimaryKey = "sku"
	}
	app := newTestApplication(t, s, ApplicationSpec{Name: "inventory", Collections: []CollectionSpec{spec}})
	return app, mustCollection(t, app, schema.Slug(spec.Name))
}

func TestCollection_EndToEnd(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSuite(t)
	_, products := productsApp(t, s, CollectionSpec{})

	doc, err := products.Create(ctx, map[string]any{"sku": "A1", "name": "Widget"})
	require.NoError(t, err)
	assert.True(t, doc.Saved())
	assert.Equal(t, "A1", doc.ID())
	assert.Equal(t, testBaseURL+"/inventory/products/A1", doc.URL())

	got, err := products.Get(ctx, "A1")
	require.NoError(t, err)
	assert.True(t, got.Saved())
	assert.Equal(t, doc.Obj(), got.Obj())

	require.NoError(t, products.Delete(ctx, "A1"))
	_, err = products.Get(ctx, "A1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCollection_CreateTableTwice(t *testing.T) {
	ctx := context.Background()
	s, store := newTestSuite(t)
	_, products := productsApp(t, s, CollectionSpec{Indexes: []string{"name", "tags"}})

	require.NoError(t, products.CreateTable(ctx))
	require.NoError(t, products.CreateTable(ctx))

	assert.Equal(t, []string{"inventory__products"}, store.Tables())
	assert.Equal(t, map[string]driven.IndexOptions{
		"name": {},
		"tags": {Multi: true},
	}, store.Indexes("inventory__products"))
}

func TestCollection_DropTable_Missing(t *testing.T) {
	ctx := context.Background()
	s, store := newTestSuite(t)
	_, products := productsApp(t, s, CollectionSpec{})

	require.NoError(t, products.DropTable(ctx))
	require.NoError(t, products.DropTable(ctx))
	assert.Empty(t, store.Tables())
}

func TestCollection_CreateTable_Conflict(t *testing.T) {
	ctx := context.Background()
	s, store := newTestSuite(t)
	require.NoError(t, store.CreateTable(ctx, "inventory__products", "name"))

	app, err := NewApplication(ctx, s, ApplicationSpec{
		Name:        "inventory",
		Collections: []CollectionSpec{{Name: "products", Type: "Product", PrimaryKey: "sku"}},
	})
	require.NoError(t, err)

	assert.ErrorIs(t, app.CreateTables(ctx), domain.ErrConflictingDefinition)
}

func TestCollection_Create_Duplicate(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSuite(t)
	_, products := productsApp(t, s, CollectionSpec{})

	_, err := products.Create(ctx, map[string]any{"sku": "A1", "name": "Widget"})
	require.NoError(t, err)
	_, err = products.Create(ctx, map[string]any{"sku": "A1", "name": "Other"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	// Set replaces and forces the key.
	doc, err := products.Set(ctx, "A1", map[string]any{"sku": "ignored", "name": "Other"})
	require.NoError(t, err)
	assert.Equal(t, "A1", doc.Key())
	got, err := products.Get(ctx, "A1")
	require.NoError(t, err)
	name, _ := got.Get("name")
	assert.Equal(t, "Other", name)
}

func TestCollection_Set_TypedKey(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSuite(t)
	_, err := s.Types().Register(schema.TypeDecl{
		Name: "Counter",
		Schema: schema.Fragment{
			"properties": map[string]any{
				"n":     map[string]any{"type": "integer"},
				"label": map[string]any{"type": "string"},
			},
		},
	})
	require.NoError(t, err)
	app := newTestApplication(t, s, ApplicationSpec{
		Name:        "tally",
		Collections: []CollectionSpec{{Name: "counters", Type: "Counter", PrimaryKey: "n"}},
	})
	counters := mustCollection(t, app, "counters")

	doc, err := counters.Set(ctx, "42", map[string]any{"label": "answer"})
	require.NoError(t, err)
	n, _ := doc.Get("n")
	assert.Equal(t, 42, n)
	assert.Equal(t, testBaseURL+"/tally/counters/42", doc.URL())

	got, err := counters.Get(ctx, "42")
	require.NoError(t, err)
	label, _ := got.Get("label")
	assert.Equal(t, "answer", label)

	_, err = counters.Set(ctx, "forty-two", map[string]any{"label": "nope"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCollection_Save_ValidationFailureLeavesState(t *testing.T) {
	ctx := context.Background()
	s, store := newTestSuite(t)
	_, products := productsApp(t, s, CollectionSpec{})

	doc, err := products.New(ctx, map[string]any{"sku": "A1", "name": 42})
	require.NoError(t, err)

	err = doc.Save(ctx)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.False(t, doc.Saved())
	assert.Equal(t, "", doc.ID())
	_, err = store.Get(ctx, "inventory__products", "A1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCollection_CustomValidator(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSuite(t)
	errNoWidgets := errors.New("no widgets")
	_, products := productsApp(t, s, CollectionSpec{
		Validator: func(_ context.Context, wire map[string]any) error {
			if wire["name"] == "Widget" {
				return errNoWidgets
			}
			return nil
		},
	})

	_, err := products.Create(ctx, map[string]any{"sku": "A1", "name": "Widget"})
	assert.ErrorIs(t, err, errNoWidgets)
	assert.ErrorIs(t, products.Validate(ctx, map[string]any{"sku": "A1", "name": "Widget"}), errNoWidgets)
	assert.NoError(t, products.Validate(ctx, map[string]any{"sku": "A1", "name": "Gadget"}))
}

func TestCollection_GeneratedKey(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSuite(t)
	app := newTestApplication(t, s, ApplicationSpec{
		Name:        "zoo",
		Collections: []CollectionSpec{{Name: "animals", Type: "Animal"}},
	})
	animals := mustCollection(t, app, "animals")
	assert.Equal(t, "id", animals.PrimaryKey())

	doc, err := animals.New(ctx, map[string]any{"name": "Rex"})
	require.NoError(t, err)
	assert.Equal(t, "", doc.URL())

	require.NoError(t, doc.Save(ctx))
	assert.NotEmpty(t, doc.ID())
	assert.Equal(t, testBaseURL+"/zoo/animals/"+doc.ID(), doc.URL())

	again, err := animals.Get(ctx, doc.ID())
	require.NoError(t, err)
	name, _ := again.Get("name")
	assert.Equal(t, "Rex", name)
}

func TestCollection_Specials(t *testing.T) {
	ctx := context.Background()
	s, store := newTestSuite(t)
	eastern, err := valuehandlers.NewTime("-05:00")
	require.NoError(t, err)
	_, products := productsApp(t, s, CollectionSpec{
		Indexes: []string{"location"},
		Specials: map[string]valuehandlers.Handler{
			"location": valuehandlers.NewGeometry("Point"),
			"released": eastern,
		},
	})
	assert.Equal(t, driven.IndexOptions{Geo: true}, store.Indexes("inventory__products")["location"])

	created, err := products.Create(ctx, map[string]any{
		"sku":      "A1",
		"name":     "Widget",
		"location": map[string]any{"type": "Point", "coordinates": []any{1.0, 2.0}},
		"released": "2024-01-01T17:00:00Z",
	})
	require.NoError(t, err)

	// The saved document holds native values, like one read back.
	createdReleased, _ := created.Get("released")
	require.IsType(t, time.Time{}, createdReleased)
	assert.Equal(t, 12, createdReleased.(time.Time).Hour())
	createdLocation, _ := created.Get("location")
	assert.Equal(t, orb.Point{1, 2}, createdLocation)

	raw, err := store.Get(ctx, "inventory__products", "A1")
	require.NoError(t, err)
	assert.IsType(t, domain.StoredGeometry{}, raw["location"])
	assert.IsType(t, domain.StoredTime{}, raw["released"])

	got, err := products.Get(ctx, "A1")
	require.NoError(t, err)
	location, _ := got.Get("location")
	assert.Equal(t, orb.Point{1, 2}, location)
	released, _ := got.Get("released")
	require.IsType(t, time.Time{}, released)
	_, offset := released.(time.Time).Zone()
	assert.Equal(t, -5*3600, offset)
	assert.Equal(t, 12, released.(time.Time).Hour())

	wire, err := got.Wire()
	require.NoError(t, err)
	assert.Equal(t, "Point", wire["location"].(map[string]any)["type"])
	assert.Equal(t, "2024-01-01T12:00:00-05:00", wire["released"])

	_, err = products.Create(ctx, map[string]any{
		"sku":  "B2",
		"name": "Fence",
		"location": map[string]any{
			"type":        "Polygon",
			"coordinates": []any{[]any{[]any{0.0, 0.0}, []any{1.0, 0.0}, []any{1.0, 1.0}, []any{0.0, 0.0}}},
		},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCollection_UnknownSpecial(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSuite(t)

	_, err := NewApplication(ctx, s, ApplicationSpec{
		Name: "inventory",
		Collections: []CollectionSpec{{
			Name:       "products",
			Type:       "Product",
			PrimaryKey: "sku",
			Specials:   map[string]valuehandlers.Handler{"colour": valuehandlers.NewGeometry()},
		}},
	})

	assert.ErrorIs(t, err, domain.ErrConfiguration)
	_, ok := s.Application("inventory")
	assert.False(t, ok)
}

func TestCollection_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name string
		spec CollectionSpec
	}{
		{name: "unknown type", spec: CollectionSpec{Name: "things", Type: "Thing"}},
		{name: "undeclared primary key", spec: CollectionSpec{Name: "products", Type: "Product", PrimaryKey: "code"}},
		{name: "index on undeclared property", spec: CollectionSpec{Name: "products", Type: "Product", PrimaryKey: "sku", Indexes: []string{"colour"}}},
		{name: "missing name", spec: CollectionSpec{Type: "Product"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestSuite(t)

			_, err := NewApplication(context.Background(), s, ApplicationSpec{
				Name:        "inventory",
				Collections: []CollectionSpec{tt.spec},
			})

			assert.ErrorIs(t, err, domain.ErrConfiguration)
		})
	}
}

func TestCollection_Processors(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSuite(t)
	_, products := productsApp(t, s, CollectionSpec{
		Processors: postprocessors.NewPipeline(slugger.New([]string{"name"}, slugger.WithDestination("sku"))),
	})

	doc, err := products.New(ctx, map[string]any{"name": "Blue Widget"})
	require.NoError(t, err)
	require.NoError(t, doc.Save(ctx))
	assert.Equal(t, "blue-widget", doc.ID())

	require.NoError(t, doc.Set("name", "Red Widget"))
	assert.Equal(t, "red-widget", doc.Key())
	assert.False(t, doc.Saved())
}

func TestCollection_Queries(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSuite(t)
	_, products := productsApp(t, s, CollectionSpec{})

	_, err := products.CreateMany(ctx, []map[string]any{
		{"sku": "C3", "name": "Gizmo", "stock": 5},
		{"sku": "A1", "name": "Widget"},
		{"sku": "B2", "name": "Gadget", "stock": 1},
	})
	require.NoError(t, err)

	n, err := products.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	all, err := products.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"A1", "B2", "C3"}, []string{all[0].Key(), all[1].Key(), all[2].Key()})

	inStock, err := products.Query(ctx, func(d *Document) bool {
		switch v, _ := d.Get("stock"); n := v.(type) {
		case int:
			return n > 0
		case float64:
			return n > 0
		default:
			return false
		}
	})
	require.NoError(t, err)
	require.Len(t, inStock, 1)
	assert.Equal(t, "C3", inStock[0].Key())

	ok, err := products.Contains(ctx, "B2")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = products.Contains(ctx, "Z9")
	require.NoError(t, err)
	assert.False(t, ok)

	removed, err := products.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)
}

func TestCollection_JSONAndRender(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSuite(t)
	_, products := productsApp(t, s, CollectionSpec{})

	doc, err := products.Create(ctx, map[string]any{"sku": "A1", "name": "Widget"})
	require.NoError(t, err)

	out, err := products.JSON(doc)
	require.NoError(t, err)
	assert.Equal(t, testBaseURL+"/inventory/products/A1", out["_url"])
	assert.Equal(t, "Widget", out["name"])

	rendered, err := doc.Render()
	require.NoError(t, err)
	assert.Equal(t, "Widget (A1)", rendered)

	stock, ok := doc.Get("stock")
	assert.True(t, ok)
	assert.EqualValues(t, 0, stock)
}

func TestCollection_Operations(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSuite(t)
	_, products := productsApp(t, s, CollectionSpec{
		Operations: []schema.Operation{
			{
				Name:     "CountAll",
				Response: schema.Fragment{"type": "integer"},
				Func: func(ctx context.Context, target any, _ map[string]any) (any, error) {
					return target.(*Collection).Len(ctx)
				},
			},
			{Name: "Export"},
		},
	})
	_, err := products.Create(ctx, map[string]any{"sku": "A1", "name": "Widget"})
	require.NoError(t, err)

	assert.Equal(t, []any{"count-all", "export"}, products.Schema()["methods"])

	n, err := products.Invoke(ctx, "count-all", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = products.Invoke(ctx, "export", nil)
	assert.ErrorIs(t, err, domain.ErrNotImplemented)
	_, err = products.Invoke(ctx, "missing", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	opSchema, err := products.OperationSchema("count-all")
	require.NoError(t, err)
	assert.Equal(t, testBaseURL+"/inventory/products.count-all;schema", opSchema["id"])
}

func TestCollection_Hooks(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSuite(t)
	var calls []string
	record := func(name string) func(context.Context, *Document) error {
		return func(context.Context, *Document) error {
			calls = append(calls, name)
			return nil
		}
	}
	errVeto := errors.New("veto")

	_, products := productsApp(t, s, CollectionSpec{
		Hooks: Hooks{
			AfterInit:    func(context.Context, any) error { calls = append(calls, "init"); return nil },
			BeforeSave:   record("before-save"),
			AfterSave:    record("after-save"),
			BeforeDelete: record("before-delete"),
			AfterDelete:  record("after-delete"),
		},
	})

	doc, err := products.Create(ctx, map[string]any{"sku": "A1", "name": "Widget"})
	require.NoError(t, err)
	require.NoError(t, doc.Delete(ctx))

	assert.Equal(t, []string{"init", "before-save", "after-save", "before-delete", "after-delete"}, calls)

	assert.ErrorIs(t, doc.Save(ctx), domain.ErrDeleted)
	assert.ErrorIs(t, doc.Set("name", "x"), domain.ErrDeleted)
	assert.ErrorIs(t, doc.Delete(ctx), domain.ErrDeleted)

	products.hooks.BeforeSave = func(context.Context, *Document) error { return errVeto }
	_, err = products.Create(ctx, map[string]any{"sku": "B2", "name": "Gadget"})
	assert.ErrorIs(t, err, errVeto)
	ok, err := products.Contains(ctx, "B2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDocument_DeletedState(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSuite(t)
	_, products := productsApp(t, s, CollectionSpec{})

	doc, err := products.Create(ctx, map[string]any{"sku": "A1", "name": "Widget"})
	require.NoError(t, err)
	require.NoError(t, doc.Delete(ctx))
	assert.True(t, doc.Deleted())

	assert.ErrorIs(t, doc.Unset("name"), domain.ErrDeleted)
	assert.ErrorIs(t, doc.Update(map[string]any{"name": "x"}), domain.ErrDeleted)
	assert.ErrorIs(t, doc.Validate(ctx), domain.ErrDeleted)
	assert.ErrorIs(t, doc.Reference(ctx), domain.ErrDeleted)
	assert.ErrorIs(t, doc.Dereference(ctx), domain.ErrDeleted)
	_, err = doc.Fetch(ctx, "name")
	assert.ErrorIs(t, err, domain.ErrDeleted)
	_, err = doc.Invoke(ctx, "anything", nil)
	assert.ErrorIs(t, err, domain.ErrDeleted)

	// Reads keep the last values.
	name, ok := doc.Get("name")
	assert.True(t, ok)
	assert.Equal(t, "Widget", name)
	assert.Equal(t, "A1", doc.Key())
	assert.Equal(t, testBaseURL+"/inventory/products/A1", doc.URL())
	assert.Empty(t, doc.ID())
	rendered, err := doc.Render()
	require.NoError(t, err)
	assert.Equal(t, "Widget (A1)", rendered)
}

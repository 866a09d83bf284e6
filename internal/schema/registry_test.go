package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsuite/internal/core/domain"
)

func baseItemDecl() TypeDecl {
	return TypeDecl{
		Name:        "Item",
		Description: "Anything that can be tracked.",
		Schema: Fragment{
			"required": []any{"name"},
			"properties": map[string]any{
				"name":  map[string]any{"type": "string"},
				"notes": map[string]any{"type": "string", "default": ""},
				"price": map[string]any{"$ref": "#/definitions/money"},
			},
		},
		Definitions: map[string]any{
			"money": map[string]any{"type": "number"},
			"tag":   map[string]any{"type": "string"},
		},
		Template: "{name}",
	}
}

func TestRegistry_Register_UsesHumanizedTitle(t *testing.T) {
	r := NewRegistry()

	typ, err := r.Register(TypeDecl{Name: "TrackedItem"})

	require.NoError(t, err)
	assert.Equal(t, "Tracked Item", typ.Title())
	assert.Equal(t, DefaultTemplate, typ.Template())
}

func TestRegistry_Register_InheritsBase(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register(baseItemDecl())
	require.NoError(t, err)

	derived, err := r.Register(TypeDecl{
		Name:  "Product",
		Bases: []string{"Item"},
		Schema: Fragment{
			"required": []any{"sku"},
			"properties": map[string]any{
				"sku": map[string]any{"type": "string"},
			},
		},
		Definitions: map[string]any{
			"money": map[string]any{"type": "integer", "minimum": 0},
		},
	})
	require.NoError(t, err)

	props := derived.Properties()
	assert.Contains(t, props, "name")
	assert.Contains(t, props, "notes")
	assert.Contains(t, props, "sku")

	defs := derived.Definitions()
	assert.Equal(t, map[string]any{"type": "string"}, defs["tag"])
	assert.Equal(t, map[string]any{"type": "integer", "minimum": 0}, defs["money"])

	assert.ElementsMatch(t, []string{"name", "sku"}, derived.Required())
	assert.Equal(t, "{name}", derived.Template())
	require.Len(t, derived.Ancestors(), 1)
	assert.Equal(t, "Item", derived.Ancestors()[0].Name())
}

func TestRegistry_Register_AncestorsMostBaseFirst(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register(TypeDecl{Name: "A"})
	require.NoError(t, err)
	_, err = r.Register(TypeDecl{Name: "B", Bases: []string{"A"}})
	require.NoError(t, err)
	c, err := r.Register(TypeDecl{Name: "C", Bases: []string{"B", "A"}})
	require.NoError(t, err)

	var names []string
	for _, a := range c.Ancestors() {
		names = append(names, a.Name())
	}
	assert.Equal(t, []string{"A", "B"}, names)
}

func TestRegistry_Register_Errors(t *testing.T) {
	tests := []struct {
		name string
		decl TypeDecl
	}{
		{"empty name", TypeDecl{}},
		{"unknown base", TypeDecl{Name: "Orphan", Bases: []string{"Missing"}}},
		{"bad type name", TypeDecl{Name: "Bad", Schema: Fragment{
			"properties": map[string]any{"n": map[string]any{"type": "text"}},
		}}},
		{"properties not an object", TypeDecl{Name: "Bad", Schema: Fragment{"properties": "name"}}},
		{"required not a list", TypeDecl{Name: "Bad", Schema: Fragment{"required": "name"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			_, err := r.Register(tt.decl)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrConfiguration))
		})
	}
}

func TestRegistry_Register_Duplicate(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register(TypeDecl{Name: "Item"})
	require.NoError(t, err)

	_, err = r.Register(TypeDecl{Name: "Item"})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestRegistry_LookupAndNames(t *testing.T) {
	r := NewRegistry()
	_, _ = r.Register(TypeDecl{Name: "Zebra"})
	_, _ = r.Register(TypeDecl{Name: "Apple"})

	typ, ok := r.Lookup("Zebra")
	require.True(t, ok)
	assert.Equal(t, "Zebra", typ.Name())

	_, ok = r.Lookup("Missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"Apple", "Zebra"}, r.Names())
}

func TestOperation_Schema(t *testing.T) {
	op := Operation{
		Name:        "RecentlyAdded",
		Description: "Items added in the last day.",
		Request:     Fragment{"type": "object", "properties": map[string]any{"limit": map[string]any{"type": "integer"}}},
	}

	s := op.Schema()

	assert.Equal(t, "recently-added", op.Address())
	assert.Equal(t, "Recently Added", s["title"])
	defs := s["definitions"].(map[string]any)
	assert.Contains(t, defs, "recently-added-request")
	assert.Contains(t, defs, "recently-added-response")
	assert.Len(t, s["oneOf"], 2)
}

func TestNaming(t *testing.T) {
	assert.Equal(t, "tracked-items", Slug("TrackedItems"))
	assert.Equal(t, "tracked_items", TableName("TrackedItems"))
	assert.Equal(t, "Tracked Items", Humanize("TrackedItems"))
}

package valuehandlers

import (
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsuite/internal/core/domain"
)

func newTestTable(t *testing.T) *Table {
	t.Helper()
	r := NewDefaultRegistry()
	geo, err := r.Build("geometry", map[string]any{"types": []any{"Point"}})
	require.NoError(t, err)
	when, err := r.Build("datetime", nil)
	require.NoError(t, err)
	created, err := r.Build("now", nil)
	require.NoError(t, err)

	table, err := NewTable(map[string]Handler{
		"location": geo,
		"seen":     when,
		"created":  created,
	}, []string{"name", "location", "seen", "created"})
	require.NoError(t, err)
	return table
}

func TestNewTable_UnknownProperty(t *testing.T) {
	_, err := NewTable(map[string]Handler{"missing": NewGeometry()}, []string{"name"})

	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestRegistry_Build_Unknown(t *testing.T) {
	r := NewDefaultRegistry()

	_, err := r.Build("money", nil)

	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Equal(t, []string{"datetime", "geometry", "now"}, r.Names())
	assert.True(t, r.Has("now"))
}

func TestTable_ConvertsOnlySpecials(t *testing.T) {
	table := newTestTable(t)
	doc := map[string]any{
		"name":     "Harbor",
		"location": map[string]any{"type": "Point", "coordinates": []any{1.0, 2.0}},
		"seen":     "2024-03-01T12:30:00-05:00",
	}

	stored, err := table.ToStorage(doc)
	require.NoError(t, err)

	assert.Equal(t, "Harbor", stored["name"])
	assert.IsType(t, domain.StoredGeometry{}, stored["location"])
	assert.IsType(t, domain.StoredTime{}, stored["seen"])
	assert.IsType(t, "", doc["seen"], "input must not be modified")

	native, err := table.ToNative(stored)
	require.NoError(t, err)
	assert.Equal(t, orb.Point{1, 2}, native["location"])
	assert.IsType(t, time.Time{}, native["seen"])

	wire, err := table.ToWire(native)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T12:30:00-05:00", wire["seen"])
}

func TestTable_ErrorNamesProperty(t *testing.T) {
	table := newTestTable(t)

	_, err := table.ToStorage(map[string]any{"location": map[string]any{"type": "Polygon"}})

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "location", verr.Path)
}

func TestTable_ConvertsSequences(t *testing.T) {
	table := newTestTable(t)

	stored, err := table.ToStorage(map[string]any{"seen": []any{"2024-01-01", nil}})
	require.NoError(t, err)

	list := stored["seen"].([]any)
	assert.IsType(t, domain.StoredTime{}, list[0])
	assert.Nil(t, list[1])
}

func TestTable_FillDefaultsAndGeometry(t *testing.T) {
	table := newTestTable(t)
	doc := map[string]any{"name": "Harbor"}

	set := table.FillDefaults(doc)

	assert.Equal(t, []string{"created"}, set)
	assert.IsType(t, time.Time{}, doc["created"])
	assert.True(t, table.IsGeometry("location"))
	assert.False(t, table.IsGeometry("seen"))
	assert.Equal(t, []string{"created", "location", "seen"}, table.Properties())
}

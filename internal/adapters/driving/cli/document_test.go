package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsuite/internal/core/domain"
)

func TestPutCmd_Use(t *testing.T) {
	assert.Equal(t, "put [application/collection] [file]", putCmd.Use)
}

func TestGetCmd_RequiresTwoArgs(t *testing.T) {
	resetCLI(t)

	_, err := execute(t, "", "get", "inventory/products")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 2 arg(s)")
}

func TestPutCmd_FromStdin(t *testing.T) {
	suite := setupTestServices(t)

	out, err := execute(t, `{"sku": "A1", "name": "Blue", "stock": 3}`, "put", "inventory/products")

	require.NoError(t, err)
	assert.Contains(t, out, "Stored http://example.org/api/inventory/products/A1")

	coll, err := collectionArg(suite, "inventory/products")
	require.NoError(t, err)
	doc, err := coll.Get(context.Background(), "A1")
	require.NoError(t, err)
	name, _ := doc.Get("name")
	assert.Equal(t, "Blue", name)
}

func TestPutCmd_ArrayFromFile(t *testing.T) {
	suite := setupTestServices(t)
	path := filepath.Join(t.TempDir(), "docs.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"sku": "A1", "name": "Blue"},
		{"sku": "A2", "name": "Red"}
	]`), 0600))

	_, err := execute(t, "", "put", "inventory/products", path)
	require.NoError(t, err)

	coll, err := collectionArg(suite, "inventory/products")
	require.NoError(t, err)
	n, err := coll.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPutCmd_ReplacesUnlessCreate(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, `{"sku": "A1", "name": "Blue"}`, "put", "inventory/products")
	require.NoError(t, err)
	_, err = execute(t, `{"sku": "A1", "name": "Green"}`, "put", "inventory/products")
	require.NoError(t, err)

	_, err = execute(t, `{"sku": "A1", "name": "Red"}`, "put", "--create", "inventory/products")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	out, err := execute(t, "", "get", "inventory/products", "A1")
	require.NoError(t, err)
	assert.Contains(t, out, `"name":"Green"`)
}

func TestPutCmd_InvalidDocument(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, `{"sku": "A1", "stock": -1}`, "put", "inventory/products")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestReadObjects(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr string
	}{
		{name: "object", input: `{"a": 1}`, want: 1},
		{name: "array", input: `[{"a": 1}, {"a": 2}]`, want: 2},
		{name: "empty array", input: `[]`, want: 0},
		{name: "scalar", input: `3`, wantErr: "must be an object"},
		{name: "array of scalars", input: `[1]`, wantErr: "item 0 is not an object"},
		{name: "invalid JSON", input: `{`, wantErr: "failed to parse input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			objs, err := readObjects(strings.NewReader(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, objs, tt.want)
		})
	}
}

func TestGetCmd_Missing(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "", "get", "inventory/products", "nope")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListCmd_JSON(t *testing.T) {
	setupTestServices(t)
	_, err := execute(t, `[{"sku": "A2", "name": "Red"}, {"sku": "A1", "name": "Blue"}]`, "put", "inventory/products")
	require.NoError(t, err)

	out, err := execute(t, "", "list", "inventory/products")
	require.NoError(t, err)

	var docs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	require.Len(t, docs, 2)
	assert.Equal(t, "A1", docs[0]["sku"])
	assert.Equal(t, "http://example.org/api/inventory/products/A2", docs[1]["_url"])
}

func TestListCmd_Render(t *testing.T) {
	setupTestServices(t)
	_, err := execute(t, `{"sku": "A1", "name": "Blue"}`, "put", "inventory/products")
	require.NoError(t, err)

	out, err := execute(t, "", "list", "--render", "inventory/products")

	require.NoError(t, err)
	assert.Contains(t, out, "Blue (A1)")
	assert.Contains(t, out, "Total: 1 documents")
}

func TestListCmd_RenderEmpty(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "", "list", "-r", "inventory/products")

	require.NoError(t, err)
	assert.Contains(t, out, "No documents found")
}

func TestDeleteCmd_Keys(t *testing.T) {
	setupTestServices(t)
	_, err := execute(t, `[{"sku": "A1", "name": "Blue"}, {"sku": "A2", "name": "Red"}]`, "put", "inventory/products")
	require.NoError(t, err)

	out, err := execute(t, "", "delete", "inventory/products", "A1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted http://example.org/api/inventory/products/A1")

	_, err = execute(t, "", "get", "inventory/products", "A1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = execute(t, "", "get", "inventory/products", "A2")
	assert.NoError(t, err)
}

func TestDeleteCmd_All(t *testing.T) {
	setupTestServices(t)
	_, err := execute(t, `[{"sku": "A1", "name": "Blue"}, {"sku": "A2", "name": "Red"}]`, "put", "inventory/products")
	require.NoError(t, err)

	out, err := execute(t, "", "delete", "--all", "inventory/products")

	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 2 documents")
}

func TestDeleteCmd_RequiresKeys(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "", "delete", "inventory/products")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no keys given")
}

func TestDeleteCmd_MissingKey(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "", "delete", "inventory/products", "nope")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

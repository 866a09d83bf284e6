package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsuite/internal/core/domain"
)

func TestProvisionCmd_AllApplications(t *testing.T) {
	setupTestServices(t)

	// Tables already exist with the same definition.
	out, err := execute(t, "", "provision")

	require.NoError(t, err)
	assert.Contains(t, out, "Provisioned inventory (1 collections)")
}

func TestDropCmd_ThenProvision(t *testing.T) {
	suite := setupTestServices(t)
	coll, err := collectionArg(suite, "inventory/products")
	require.NoError(t, err)
	_, err = execute(t, `{"sku": "A1", "name": "Blue"}`, "put", "inventory/products")
	require.NoError(t, err)

	out, err := execute(t, "", "drop", "inventory")
	require.NoError(t, err)
	assert.Contains(t, out, "Dropped inventory")

	_, err = coll.Len(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = execute(t, "", "provision", "inventory")
	require.NoError(t, err)
	n, err := coll.Len(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDropCmd_RequiresApplication(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "", "drop")

	assert.Error(t, err)
}

func TestProvisionCmd_UnknownApplication(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "", "provision", "warehouse")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

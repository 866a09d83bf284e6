package observable

import (
	"bytes"
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsuite/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docsuite/internal/core/domain"
	"github.com/custodia-labs/docsuite/internal/core/ports/driven"
)

func TestStore_Delegates(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewStore()
	s := New(inner)

	require.NoError(t, s.CreateTable(ctx, "observed_items", "id"))
	require.NoError(t, s.CreateIndex(ctx, "observed_items", "tags", driven.IndexOptions{Multi: true}))

	res, err := s.Put(ctx, "observed_items", []map[string]any{{"id": "a", "tags": []any{"x"}}}, driven.ConflictError)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)

	doc, err := s.Get(ctx, "observed_items", "a")
	require.NoError(t, err)
	assert.Equal(t, "a", doc["id"])

	docs, err := s.Scan(ctx, "observed_items")
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	del, err := s.Delete(ctx, "observed_items", []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, 1, del.Deleted)

	_, err = s.DeleteAll(ctx, "observed_items")
	require.NoError(t, err)
	require.NoError(t, s.DropTable(ctx, "observed_items"))

	assert.Same(t, inner, s.Unwrap())
	assert.Empty(t, inner.Tables())
}

func TestStore_CountsErrors(t *testing.T) {
	ctx := context.Background()
	s := New(memory.NewStore())
	before := testutil.ToFloat64(storeErrors.WithLabelValues("Get", "missing_table"))

	_, err := s.Get(ctx, "missing_table", "a")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, before+1, testutil.ToFloat64(storeErrors.WithLabelValues("Get", "missing_table")))
}

func TestWriteMetrics(t *testing.T) {
	ctx := context.Background()
	s := New(memory.NewStore())
	_, err := s.Get(ctx, "metrics_table", "a")
	require.Error(t, err)

	buf := new(bytes.Buffer)
	require.NoError(t, WriteMetrics(buf, nil))

	out := buf.String()
	assert.Contains(t, out, "# TYPE docsuite_store_operation_latency_seconds histogram")
	assert.Contains(t, out, `docsuite_store_operation_errors_total{operation="Get",table="metrics_table"} 1`)
	assert.NotContains(t, out, "go_goroutines")
}

func TestWriteMetrics_OtherGatherer(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "unrelated_total"}))

	buf := new(bytes.Buffer)
	require.NoError(t, WriteMetrics(buf, reg))

	assert.Empty(t, buf.String())
}

// Package observable wraps a driven.Store with tracing and latency metrics.
package observable

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/custodia-labs/docsuite/internal/core/ports/driven"
)

var (
	tracer = otel.Tracer("docsuite/storage/observable")

	storeLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "docsuite",
		Subsystem: "store",
		Name:      "operation_latency_seconds",
		Buckets:   []float64{.0005, .001, .002, .005, .01, .02, .05, .1, .2, .5},
		Help:      "latency of document store operations",
	}, []string{"operation", "table"})

	storeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docsuite",
		Subsystem: "store",
		Name:      "operation_errors_total",
		Help:      "document store operations that returned an error",
	}, []string{"operation", "table"})
)

const metricPrefix = "docsuite_store_"

var _ driven.Store = (*Store)(nil)

// Store delegates to another driven.Store.
type Store struct {
	delegate driven.Store
}

// New creates a store proxy which adds tracing and metrics to delegate.
func New(delegate driven.Store) *Store {
	return &Store{delegate: delegate}
}

// Unwrap returns the wrapped store.
func (s *Store) Unwrap() driven.Store {
	return s.delegate
}

func (s *Store) Get(ctx context.Context, table, key string) (map[string]any, error) {
	ctx, done := observe(ctx, "Get", table, attribute.String("docsuite.key", key))
	doc, err := s.delegate.Get(ctx, table, key)
	done(err)
	return doc, err
}

func (s *Store) Put(ctx context.Context, table string, docs []map[string]any, policy driven.ConflictPolicy) (driven.PutResult, error) {
	ctx, done := observe(ctx, "Put", table,
		attribute.Int("docsuite.documents", len(docs)),
		attribute.String("docsuite.conflict", policy.String()),
	)
	res, err := s.delegate.Put(ctx, table, docs, policy)
	done(err)
	return res, err
}

func (s *Store) Delete(ctx context.Context, table string, keys []string) (driven.DeleteResult, error) {
	ctx, done := observe(ctx, "Delete", table, attribute.StringSlice("docsuite.keys", keys))
	res, err := s.delegate.Delete(ctx, table, keys)
	done(err)
	return res, err
}

func (s *Store) DeleteAll(ctx context.Context, table string) (driven.DeleteResult, error) {
	ctx, done := observe(ctx, "DeleteAll", table)
	res, err := s.delegate.DeleteAll(ctx, table)
	done(err)
	return res, err
}

func (s *Store) Scan(ctx context.Context, table string) ([]map[string]any, error) {
	ctx, done := observe(ctx, "Scan", table)
	docs, err := s.delegate.Scan(ctx, table)
	done(err)
	return docs, err
}

func (s *Store) CreateTable(ctx context.Context, name, primaryKey string) error {
	ctx, done := observe(ctx, "CreateTable", name, attribute.String("docsuite.primary_key", primaryKey))
	err := s.delegate.CreateTable(ctx, name, primaryKey)
	done(err)
	return err
}

func (s *Store) DropTable(ctx context.Context, name string) error {
	ctx, done := observe(ctx, "DropTable", name)
	err := s.delegate.DropTable(ctx, name)
	done(err)
	return err
}

func (s *Store) CreateIndex(ctx context.Context, table, property string, opts driven.IndexOptions) error {
	ctx, done := observe(ctx, "CreateIndex", table,
		attribute.String("docsuite.property", property),
		attribute.Bool("docsuite.multi", opts.Multi),
		attribute.Bool("docsuite.geo", opts.Geo),
	)
	err := s.delegate.CreateIndex(ctx, table, property, opts)
	done(err)
	return err
}

func observe(ctx context.Context, name, table string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	attrs = append(attrs, attribute.String("docsuite.table", table))
	ctx, span := tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	timer := prometheus.NewTimer(storeLatency.WithLabelValues(name, table))

	return ctx, func(err error) {
		timer.ObserveDuration()
		if err != nil {
			storeErrors.WithLabelValues(name, table).Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// WriteMetrics writes the store metrics gathered from g in the Prometheus
// text format. A nil g means prometheus.DefaultGatherer.
func WriteMetrics(w io.Writer, g prometheus.Gatherer) error {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather store metrics: %w", err)
	}
	for _, fam := range families {
		if !strings.HasPrefix(fam.GetName(), metricPrefix) {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, fam); err != nil {
			return fmt.Errorf("failed to write %s: %w", fam.GetName(), err)
		}
	}
	return nil
}

package database

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/furnacestore/storefront/pkg/database"

var queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "storefront_db_query_duration_seconds",
	Help:    "Catalog query latency by operation and outcome.",
	Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
}, []string{"operation", "outcome"})

// Query names one catalog statement. Op is the repository method, such as
// GetProductsByIDs; Table is the primary table it reads or writes.
type Query struct {
	Op    string
	Table string
	SQL   string
}

type slowQueryLog struct {
	threshold time.Duration
	logger    *slog.Logger
}

var slowQueries atomic.Pointer[slowQueryLog]

// SetSlowQueryLogging logs queries that take at least threshold as warnings.
// A zero threshold or nil logger turns it off.
func SetSlowQueryLogging(threshold time.Duration, logger *slog.Logger) {
	if threshold <= 0 || logger == nil {
		slowQueries.Store(nil)
		return
	}
	slowQueries.Store(&slowQueryLog{threshold: threshold, logger: logger})
}

// Trace starts a client span for q and returns the function that ends it
// with the number of rows returned or written and the final error:
//
//	ctx, done := database.Trace(ctx, database.Query{Op: "GetProductsByIDs", Table: "products", SQL: query})
//	defer func() { done(len(products), err) }()
//
// pgx.ErrNoRows is a lookup miss, not a failure: the span keeps an unset
// status and the outcome label is "empty".
func Trace(ctx context.Context, q Query) (context.Context, func(rows int, err error)) {
	start := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, q.Op+" "+q.Table,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system.name", "postgresql"),
			attribute.String("db.operation.name", q.Op),
			attribute.String("db.collection.name", q.Table),
			attribute.String("db.query.text", q.SQL),
		),
	)

	return ctx, func(rows int, err error) {
		elapsed := time.Since(start)
		outcome := "ok"
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			outcome = "empty"
			rows = 0
		case err != nil:
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.Int("db.response.returned_rows", rows))
		span.End()
		queryDuration.WithLabelValues(q.Op, outcome).Observe(elapsed.Seconds())

		slow := slowQueries.Load()
		if slow == nil || elapsed < slow.threshold {
			return
		}
		attrs := []any{
			slog.String("operation", q.Op),
			slog.String("table", q.Table),
			slog.String("statement", q.SQL),
			slog.Int("rows", rows),
			slog.Duration("duration", elapsed),
		}
		if outcome == "error" {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		slow.logger.WarnContext(ctx, "slow catalog query", attrs...)
	}
}

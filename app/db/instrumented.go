package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/FACorreiaa/go-trip-planner-chat/app/observability/metrics"
)

var _ DBTX = (*InstrumentedDB)(nil)

// InstrumentedDB records query latency and failures for every statement sent
// through the wrapped DBTX. QueryRow is measured when the row is scanned, and
// pgx.ErrNoRows is not counted as a failure.
type InstrumentedDB struct {
	db      DBTX
	metrics *metrics.AppMetrics
}

func Instrument(db DBTX, m *metrics.AppMetrics) *InstrumentedDB {
	return &InstrumentedDB{db: db, metrics: m}
}

func (i *InstrumentedDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	start := time.Now()
	tag, err := i.db.Exec(ctx, sql, args...)
	i.observe(ctx, sql, start, err)
	return tag, err
}

func (i *InstrumentedDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	start := time.Now()
	rows, err := i.db.Query(ctx, sql, args...)
	i.observe(ctx, sql, start, err)
	return rows, err
}

func (i *InstrumentedDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return &observedRow{row: i.db.QueryRow(ctx, sql, args...), ctx: ctx, sql: sql, start: time.Now(), db: i}
}

func (i *InstrumentedDB) Begin(ctx context.Context) (pgx.Tx, error) {
	return i.db.Begin(ctx)
}

func (i *InstrumentedDB) observe(ctx context.Context, sql string, start time.Time, err error) {
	attrs := metric.WithAttributes(attribute.String("db.operation", operation(sql)))
	i.metrics.DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		i.metrics.DbQueryErrorsTotal.Add(ctx, 1, attrs)
	}
}

type observedRow struct {
	row   pgx.Row
	ctx   context.Context
	sql   string
	start time.Time
	db    *InstrumentedDB
}

func (r *observedRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	r.db.observe(r.ctx, r.sql, r.start, err)
	return err
}

// operation is the leading SQL keyword, lowercased. WITH queries report "with".
func operation(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "unknown"
	}
	return strings.ToLower(fields[0])
}

package usage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/go-trip-planner-chat/app/db"
	"github.com/FACorreiaa/go-trip-planner-chat/internal/types"
)

var _ Repository = (*PostgresRepository)(nil)

// Repository stores per-user daily counters. Dates are usage days as
// returned by UsageDate.
type Repository interface {
	// GetUsageForDate returns nil when the user has no record for the day.
	GetUsageForDate(ctx context.Context, userID uuid.UUID, date time.Time) (*types.UsageRecord, error)
	// IncrementUsage atomically adds one to the day's counter and returns the new count.
	IncrementUsage(ctx context.Context, userID uuid.UUID, date time.Time) (int, error)
	GetGlobalUsageForDate(ctx context.Context, date time.Time) (int, error)
	// CountRecentUserMessages counts the user's own messages sent at or after since.
	CountRecentUserMessages(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
}

type PostgresRepository struct {
	logger *slog.Logger
	db     database.DBTX
}

func NewPostgresRepository(db database.DBTX, logger *slog.Logger) *PostgresRepository {
	return &PostgresRepository{logger: logger, db: db}
}

func (r *PostgresRepository) GetUsageForDate(ctx context.Context, userID uuid.UUID, date time.Time) (*types.UsageRecord, error) {
	ctx, span := otel.Tracer("UsageRepo").Start(ctx, "GetUsageForDate", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "chat_usage"),
		attribute.String("db.user.id", userID.String()),
	))
	defer span.End()

	query := `
        SELECT user_id, usage_date, count, updated_at
        FROM chat_usage
        WHERE user_id = $1 AND usage_date = $2`

	var rec types.UsageRecord
	err := r.db.QueryRow(ctx, query, userID, date).Scan(&rec.UserID, &rec.Date, &rec.Count, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to fetch usage record", slog.String("userID", userID.String()), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching usage: %w", err)
	}
	return &rec, nil
}

func (r *PostgresRepository) IncrementUsage(ctx context.Context, userID uuid.UUID, date time.Time) (int, error) {
	ctx, span := otel.Tracer("UsageRepo").Start(ctx, "IncrementUsage", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "chat_usage"),
		attribute.String("db.user.id", userID.String()),
	))
	defer span.End()

	query := `
        INSERT INTO chat_usage (user_id, usage_date, count, updated_at)
        VALUES ($1, $2, 1, now())
        ON CONFLICT (user_id, usage_date)
        DO UPDATE SET count = chat_usage.count + 1, updated_at = now()
        RETURNING count`

	var count int
	if err := r.db.QueryRow(ctx, query, userID, date).Scan(&count); err != nil {
		r.logger.ErrorContext(ctx, "Failed to increment usage", slog.String("userID", userID.String()), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB upsert failed")
		return 0, fmt.Errorf("database error incrementing usage: %w", err)
	}
	span.SetAttributes(attribute.Int("usage.count", count))
	return count, nil
}

func (r *PostgresRepository) GetGlobalUsageForDate(ctx context.Context, date time.Time) (int, error) {
	ctx, span := otel.Tracer("UsageRepo").Start(ctx, "GetGlobalUsageForDate", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "chat_usage"),
	))
	defer span.End()

	var total int
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(count), 0) FROM chat_usage WHERE usage_date = $1`, date).Scan(&total)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to sum global usage", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return 0, fmt.Errorf("database error fetching global usage: %w", err)
	}
	return total, nil
}

func (r *PostgresRepository) CountRecentUserMessages(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	ctx, span := otel.Tracer("UsageRepo").Start(ctx, "CountRecentUserMessages", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "chat_messages"),
		attribute.String("db.user.id", userID.String()),
	))
	defer span.End()

	query := `
        SELECT COUNT(*)
        FROM chat_messages
        WHERE user_id = $1 AND role = 'user' AND created_at >= $2`

	var n int
	if err := r.db.QueryRow(ctx, query, userID, since).Scan(&n); err != nil {
		r.logger.ErrorContext(ctx, "Failed to count recent messages", slog.String("userID", userID.String()), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return 0, fmt.Errorf("database error counting recent messages: %w", err)
	}
	return n, nil
}

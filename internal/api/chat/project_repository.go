package chat

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

var _ ProjectRepository = (*ProjectRepositoryImpl)(nil)

// ProjectRepository is the read side of projects the assistant needs.
type ProjectRepository interface {
	// IsMember reports whether the user owns or belongs to the project.
	IsMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error)
	// GetProjectContext returns types.ErrNotFound for an unknown project.
	GetProjectContext(ctx context.Context, projectID uuid.UUID) (*types.ProjectContext, error)
	ListPlaces(ctx context.Context, projectID uuid.UUID) ([]types.DuplicateCandidate, error)
}

type ProjectRepositoryImpl struct {
	logger *slog.Logger
	db     database.DBTX
}

func NewProjectRepository(db database.DBTX, logger *slog.Logger) *ProjectRepositoryImpl {
	return &ProjectRepositoryImpl{logger: logger, db: db}
}

func (r *ProjectRepositoryImpl) IsMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	ctx, span := otel.Tracer("ProjectRepo").Start(ctx, "IsMember", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "project_members"),
		attribute.String("project.id", projectID.String()),
	))
	defer span.End()

	query := `
        SELECT EXISTS (
            SELECT 1 FROM projects WHERE id = $1 AND owner_id = $2
            UNION ALL
            SELECT 1 FROM project_members WHERE project_id = $1 AND user_id = $2
        )`

	var ok bool
	if err := r.db.QueryRow(ctx, query, projectID, userID).Scan(&ok); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return false, fmt.Errorf("failed to check project membership: %w", err)
	}
	return ok, nil
}

func (r *ProjectRepositoryImpl) GetProjectContext(ctx context.Context, projectID uuid.UUID) (*types.ProjectContext, error) {
	ctx, span := otel.Tracer("ProjectRepo").Start(ctx, "GetProjectContext", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "projects"),
		attribute.String("project.id", projectID.String()),
	))
	defer span.End()

	// Latest itinerary, if any, summarized alongside the project.
	query := `
        SELECT p.id, p.destination, COALESCE(p.country, ''), p.start_date, p.end_date,
               i.id, i.start_date, i.end_date, i.item_count
        FROM projects p
        LEFT JOIN LATERAL (
            SELECT it.id, it.start_date, it.end_date,
                   (SELECT count(*) FROM itinerary_items ii WHERE ii.itinerary_id = it.id) AS item_count
            FROM itineraries it
            WHERE it.project_id = p.id
            ORDER BY it.created_at DESC
            LIMIT 1
        ) i ON true
        WHERE p.id = $1`

	var (
		pc             types.ProjectContext
		itID           *uuid.UUID
		itStart, itEnd *time.Time
		itItems        *int
	)
	err := r.db.QueryRow(ctx, query, projectID).Scan(
		&pc.ProjectID, &pc.Destination, &pc.Country, &pc.StartDate, &pc.EndDate,
		&itID, &itStart, &itEnd, &itItems,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("project %s: %w", projectID, types.ErrNotFound)
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to load project context", slog.String("projectID", projectID.String()), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("failed to load project context: %w", err)
	}

	if itID != nil && itStart != nil && itEnd != nil {
		sum := &types.ItinerarySummary{
			ID:        *itID,
			StartDate: itStart.Format(time.DateOnly),
			EndDate:   itEnd.Format(time.DateOnly),
			DayCount:  int(itEnd.Sub(*itStart).Hours()/24) + 1,
		}
		if itItems != nil {
			sum.ItemCount = *itItems
		}
		pc.Itinerary = sum
	}
	return &pc, nil
}

func (r *ProjectRepositoryImpl) ListPlaces(ctx context.Context, projectID uuid.UUID) ([]types.DuplicateCandidate, error) {
	ctx, span := otel.Tracer("ProjectRepo").Start(ctx, "ListPlaces", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "places"),
		attribute.String("project.id", projectID.String()),
	))
	defer span.End()

	query := `
        SELECT id, name, category, latitude, longitude, google_place_id
        FROM places
        WHERE project_id = $1
        ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("failed to list project places: %w", err)
	}
	defer rows.Close()

	places := []types.DuplicateCandidate{}
	for rows.Next() {
		var p types.DuplicateCandidate
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Latitude, &p.Longitude, &p.GooglePlaceID); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan place row: %w", err)
		}
		places = append(places, p)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error iterating place rows: %w", err)
	}
	span.SetAttributes(attribute.Int("places.count", len(places)))
	return places, nil
}

package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

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

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	// GetOrCreateSession returns the single session of a (project, user) pair.
	GetOrCreateSession(ctx context.Context, projectID, userID uuid.UUID) (*types.ChatSession, error)
	// FindSession returns nil when the user never chatted in the project.
	FindSession(ctx context.Context, projectID, userID uuid.UUID) (*types.ChatSession, error)
	SaveMessage(ctx context.Context, msg types.ChatMessage) (*types.ChatMessage, error)
	// ListMessages returns up to q.Limit messages older than the cursor in
	// chronological order, and whether older ones exist.
	ListMessages(ctx context.Context, sessionID uuid.UUID, q types.HistoryQuery) ([]types.ChatMessage, bool, error)
}

type RepositoryImpl struct {
	logger *slog.Logger
	db     database.DBTX
}

func NewRepository(db database.DBTX, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{logger: logger, db: db}
}

func (r *RepositoryImpl) GetOrCreateSession(ctx context.Context, projectID, userID uuid.UUID) (*types.ChatSession, error) {
	ctx, span := otel.Tracer("ChatRepo").Start(ctx, "GetOrCreateSession", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPSERT"),
		attribute.String("db.sql.table", "chat_sessions"),
		attribute.String("project.id", projectID.String()),
	))
	defer span.End()

	query := `
        INSERT INTO chat_sessions (project_id, user_id)
        VALUES ($1, $2)
        ON CONFLICT (project_id, user_id) DO UPDATE SET updated_at = now()
        RETURNING id, project_id, user_id, created_at, updated_at`

	var s types.ChatSession
	err := r.db.QueryRow(ctx, query, projectID, userID).Scan(&s.ID, &s.ProjectID, &s.UserID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to upsert chat session", slog.String("projectID", projectID.String()), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB upsert failed")
		return nil, fmt.Errorf("failed to get or create chat session: %w", err)
	}
	return &s, nil
}

func (r *RepositoryImpl) FindSession(ctx context.Context, projectID, userID uuid.UUID) (*types.ChatSession, error) {
	ctx, span := otel.Tracer("ChatRepo").Start(ctx, "FindSession", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "chat_sessions"),
	))
	defer span.End()

	query := `
        SELECT id, project_id, user_id, created_at, updated_at
        FROM chat_sessions
        WHERE project_id = $1 AND user_id = $2`

	var s types.ChatSession
	err := r.db.QueryRow(ctx, query, projectID, userID).Scan(&s.ID, &s.ProjectID, &s.UserID, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("failed to find chat session: %w", err)
	}
	return &s, nil
}

func (r *RepositoryImpl) SaveMessage(ctx context.Context, msg types.ChatMessage) (*types.ChatMessage, error) {
	ctx, span := otel.Tracer("ChatRepo").Start(ctx, "SaveMessage", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "chat_messages"),
		attribute.String("chat.role", string(msg.Role)),
	))
	defer span.End()

	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	placesJSON, itineraryJSON, err := encodeAttachments(msg)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	query := `
        INSERT INTO chat_messages (id, session_id, user_id, role, content, places, itinerary)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING created_at`

	err = r.db.QueryRow(ctx, query,
		msg.ID, msg.SessionID, msg.UserID, string(msg.Role), msg.Content, placesJSON, itineraryJSON,
	).Scan(&msg.CreatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to save chat message", slog.String("sessionID", msg.SessionID.String()), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB insert failed")
		return nil, fmt.Errorf("failed to save chat message: %w", err)
	}
	span.SetAttributes(attribute.String("message.id", msg.ID.String()))
	return &msg, nil
}

// encodeAttachments returns nil for absent attachments so the columns stay NULL.
func encodeAttachments(msg types.ChatMessage) ([]byte, []byte, error) {
	var placesJSON, itineraryJSON []byte
	var err error
	if len(msg.Places) > 0 {
		if placesJSON, err = json.Marshal(msg.Places); err != nil {
			return nil, nil, fmt.Errorf("failed to encode message places: %w", err)
		}
	}
	if msg.Itinerary != nil {
		if itineraryJSON, err = json.Marshal(msg.Itinerary); err != nil {
			return nil, nil, fmt.Errorf("failed to encode message itinerary: %w", err)
		}
	}
	return placesJSON, itineraryJSON, nil
}

func (r *RepositoryImpl) ListMessages(ctx context.Context, sessionID uuid.UUID, q types.HistoryQuery) ([]types.ChatMessage, bool, error) {
	ctx, span := otel.Tracer("ChatRepo").Start(ctx, "ListMessages", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "chat_messages"),
		attribute.String("session.id", sessionID.String()),
		attribute.Int("limit", q.Limit),
	))
	defer span.End()

	query := `
        SELECT id, session_id, user_id, role, content, places, itinerary, created_at
        FROM chat_messages
        WHERE session_id = $1
          AND ($2::timestamptz IS NULL OR created_at < $2)
          AND ($3::uuid IS NULL OR created_at < (
              SELECT created_at FROM chat_messages WHERE id = $3 AND session_id = $1))
        ORDER BY created_at DESC, id DESC
        LIMIT $4`

	rows, err := r.db.Query(ctx, query, sessionID, q.BeforeTime, q.BeforeID, q.Limit+1)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, false, fmt.Errorf("failed to list chat messages: %w", err)
	}
	defer rows.Close()

	messages := []types.ChatMessage{}
	for rows.Next() {
		var (
			m                       types.ChatMessage
			role                    string
			placesRaw, itineraryRaw []byte
		)
		if err := rows.Scan(&m.ID, &m.SessionID, &m.UserID, &role, &m.Content, &placesRaw, &itineraryRaw, &m.CreatedAt); err != nil {
			span.RecordError(err)
			return nil, false, fmt.Errorf("failed to scan chat message row: %w", err)
		}
		m.Role = types.MessageRole(role)
		if len(placesRaw) > 0 {
			if err := json.Unmarshal(placesRaw, &m.Places); err != nil {
				r.logger.WarnContext(ctx, "Ignoring undecodable message places", slog.String("messageID", m.ID.String()), slog.Any("error", err))
			}
		}
		if len(itineraryRaw) > 0 {
			var it types.ItineraryPreviewData
			if err := json.Unmarshal(itineraryRaw, &it); err != nil {
				r.logger.WarnContext(ctx, "Ignoring undecodable message itinerary", slog.String("messageID", m.ID.String()), slog.Any("error", err))
			} else {
				m.Itinerary = &it
			}
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, false, fmt.Errorf("error iterating chat message rows: %w", err)
	}

	hasMore := len(messages) > q.Limit
	if hasMore {
		messages = messages[:q.Limit]
	}
	slices.Reverse(messages)
	return messages, hasMore, nil
}

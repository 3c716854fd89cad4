package chat

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-planner-chat/internal/api"
	"github.com/FACorreiaa/go-trip-planner-chat/internal/api/auth"
	"github.com/FACorreiaa/go-trip-planner-chat/internal/api/locale"
	"github.com/FACorreiaa/go-trip-planner-chat/internal/types"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

type HandlerImpl struct {
	service Service
	tr      *locale.Translator
	logger  *slog.Logger
}

func NewHandlerImpl(service Service, tr *locale.Translator, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{service: service, tr: tr, logger: logger}
}

func invalid(field string, cause error) error {
	ce := types.NewChatError(types.KindInvalidRequest, "error_invalid_request", cause)
	ce.Details = map[string]any{"field": field}
	return ce
}

// SendMessage godoc
// @Summary      Send a chat message
// @Description  Streams the assistant reply as server-sent events. Each event is `data: <json>` with type text, place, itinerary, done or error.
// @Tags         Chat
// @Accept       json
// @Produce      text/event-stream
// @Param        projectID path string true "Project ID"
// @Param        request body types.SendMessageRequest true "Message"
// @Success      200 {object} types.ChatEvent
// @Failure      400 {object} api.ErrorBody
// @Failure      401 {object} api.ErrorBody
// @Failure      403 {object} api.ErrorBody
// @Failure      429 {object} api.ErrorBody
// @Failure      502 {object} api.ErrorBody
// @Security     BearerAuth
// @Router       /projects/{projectID}/chat/messages [post]
func (h *HandlerImpl) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ChatHandler").Start(r.Context(), "SendMessage", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/projects/{projectID}/chat/messages"),
	))
	defer span.End()
	r = r.WithContext(ctx)
	l := h.logger.With(slog.String("handler", "SendMessage"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		api.WriteChatError(w, r, h.tr, l, types.NewChatError(types.KindUnauthorized, "error_unauthorized", nil))
		return
	}
	span.SetAttributes(semconv.EnduserIDKey.String(userID.String()))

	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		api.WriteChatError(w, r, h.tr, l, invalid("projectID", err))
		return
	}

	// A malformed body is only reported to users who may use chat in the project.
	var req types.SendMessageRequest
	if decodeErr := api.DecodeJSONBody(w, r, &req); decodeErr != nil {
		if err := h.service.Authorize(ctx, userID, projectID); err != nil {
			api.WriteChatError(w, r, h.tr, l, err)
			return
		}
		api.WriteChatError(w, r, h.tr, l, invalid("body", decodeErr))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		api.WriteChatError(w, r, h.tr, l, types.NewChatError(types.KindUnknown, "error_unknown", fmt.Errorf("response writer cannot flush")))
		return
	}

	stream, err := h.service.SendMessage(ctx, userID, projectID, req)
	if err != nil {
		span.RecordError(err)
		api.WriteChatError(w, r, h.tr, l, err)
		return
	}
	defer stream.Cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-transform")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case ev, ok := <-stream.Events:
			if !ok {
				return
			}
			if ev.Type == types.ChatEventError {
				ev.Content = h.tr.Localize(ctx, ev.Content, nil)
			}
			if err := writeEvent(w, flusher, ev); err != nil {
				l.InfoContext(ctx, "client went away mid-stream", slog.Any("error", err))
				return
			}
		case <-ctx.Done():
			l.InfoContext(ctx, "client disconnected", slog.String("userID", userID.String()))
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, ev types.ChatEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal chat event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// GetHistory godoc
// @Summary      Chat history
// @Description  Returns a page of the caller's chat messages in the project, oldest first.
// @Tags         Chat
// @Produce      json
// @Param        projectID path string true "Project ID"
// @Param        before query string false "RFC3339 timestamp or message id; only older messages are returned"
// @Param        limit query int false "Page size (1-100)" default(50)
// @Success      200 {object} types.ChatHistoryPage
// @Failure      400 {object} api.ErrorBody
// @Failure      401 {object} api.ErrorBody
// @Failure      403 {object} api.ErrorBody
// @Security     BearerAuth
// @Router       /projects/{projectID}/chat/messages [get]
func (h *HandlerImpl) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ChatHandler").Start(r.Context(), "GetHistory", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/projects/{projectID}/chat/messages"),
	))
	defer span.End()
	r = r.WithContext(ctx)
	l := h.logger.With(slog.String("handler", "GetHistory"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		api.WriteChatError(w, r, h.tr, l, types.NewChatError(types.KindUnauthorized, "error_unauthorized", nil))
		return
	}
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		api.WriteChatError(w, r, h.tr, l, invalid("projectID", err))
		return
	}
	q, err := parseHistoryQuery(r)
	if err != nil {
		api.WriteChatError(w, r, h.tr, l, err)
		return
	}

	page, err := h.service.GetHistory(ctx, userID, projectID, q)
	if err != nil {
		span.RecordError(err)
		api.WriteChatError(w, r, h.tr, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, page)
}

func parseHistoryQuery(r *http.Request) (types.HistoryQuery, error) {
	q := types.HistoryQuery{Limit: defaultPageSize}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPageSize {
			return q, invalid("limit", fmt.Errorf("limit %q out of range", raw))
		}
		q.Limit = n
	}
	if raw := r.URL.Query().Get("before"); raw != "" {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			q.BeforeTime = &t
		} else if id, err := uuid.Parse(raw); err == nil {
			q.BeforeID = &id
		} else {
			return q, invalid("before", fmt.Errorf("cursor %q is neither a timestamp nor a message id", raw))
		}
	}
	return q, nil
}

package usage

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-planner-chat/internal/api"
	"github.com/FACorreiaa/go-trip-planner-chat/internal/api/auth"
	"github.com/FACorreiaa/go-trip-planner-chat/internal/api/locale"
	"github.com/FACorreiaa/go-trip-planner-chat/internal/types"
)

// FeatureGate reports whether chat is enabled for a user.
type FeatureGate interface {
	IsEnabled(userID uuid.UUID) bool
}

type HandlerImpl struct {
	service Service
	gate    FeatureGate
	tr      *locale.Translator
	logger  *slog.Logger
}

func NewHandlerImpl(service Service, gate FeatureGate, tr *locale.Translator, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{service: service, gate: gate, tr: tr, logger: logger}
}

// GetUsage godoc
// @Summary      Get chat usage
// @Description  Daily and per-minute chat usage of the current user. usage is null when chat is disabled.
// @Tags         Chat
// @Produce      json
// @Success      200 {object} types.UsageResponse
// @Failure      401 {object} api.ErrorBody
// @Failure      500 {object} api.ErrorBody
// @Security     BearerAuth
// @Router       /chat/usage [get]
func (h *HandlerImpl) GetUsage(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("UsageHandler").Start(r.Context(), "GetUsage", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/chat/usage"),
	))
	defer span.End()
	r = r.WithContext(ctx)

	l := h.logger.With(slog.String("handler", "GetUsage"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		api.WriteChatError(w, r, h.tr, l, types.NewChatError(types.KindUnauthorized, "error_unauthorized", nil))
		return
	}
	span.SetAttributes(semconv.EnduserIDKey.String(userID.String()))

	if !h.gate.IsEnabled(userID) {
		api.WriteJSONResponse(w, r, http.StatusOK, types.UsageResponse{Enabled: false})
		return
	}

	info, err := h.service.GetUsageInfo(ctx, userID)
	if err != nil {
		span.RecordError(err)
		api.WriteChatError(w, r, h.tr, l, types.NewChatError(types.KindUnknown, "error_unknown", err))
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.UsageResponse{Enabled: true, Usage: info})
}

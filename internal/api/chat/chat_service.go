package chat

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/FACorreiaa/go-trip-planner-chat/app/observability/metrics"
	generativeAI "github.com/FACorreiaa/go-trip-planner-chat/internal/api/generative_ai"
	promptFilter "github.com/FACorreiaa/go-trip-planner-chat/internal/api/prompt_filter"
	"github.com/FACorreiaa/go-trip-planner-chat/internal/api/tools"
	"github.com/FACorreiaa/go-trip-planner-chat/internal/api/usage"
	"github.com/FACorreiaa/go-trip-planner-chat/internal/types"
)

const (
	defaultHistoryLimit = 20
	msgStreamFailed     = "error_stream_interrupted"
)

// Stream is an accepted chat turn. Events is closed when the turn ends;
// Cancel aborts it early.
type Stream struct {
	Events <-chan types.ChatEvent
	Cancel context.CancelFunc
}

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	// SendMessage runs every pre-stream check and returns a *types.ChatError
	// for any rejection. Failures after the first chunk are reported in-band.
	SendMessage(ctx context.Context, userID, projectID uuid.UUID, req types.SendMessageRequest) (*Stream, error)
	GetHistory(ctx context.Context, userID, projectID uuid.UUID, q types.HistoryQuery) (*types.ChatHistoryPage, error)
	// Authorize applies the feature flag and then project membership.
	Authorize(ctx context.Context, userID, projectID uuid.UUID) error
}

// Deps are the collaborators of the chat service.
type Deps struct {
	Gate         FeatureGate
	Projects     ProjectRepository
	Chats        Repository
	Usage        usage.Service
	Limits       usage.Limits
	Filter       *promptFilter.Filter
	LLM          generativeAI.ChatStreamer
	Tools        tools.Executor
	HistoryLimit int
}

type ServiceImpl struct {
	Deps
	now    func() time.Time
	logger *slog.Logger
}

func NewService(deps Deps, logger *slog.Logger) *ServiceImpl {
	if deps.HistoryLimit <= 0 {
		deps.HistoryLimit = defaultHistoryLimit
	}
	return &ServiceImpl{Deps: deps, now: time.Now, logger: logger}
}

func chatErr(kind types.ErrorKind, msgID string, cause error) error {
	return types.NewChatError(kind, msgID, cause)
}

func (s *ServiceImpl) Authorize(ctx context.Context, userID, projectID uuid.UUID) error {
	if !s.Gate.IsEnabled(userID) {
		return chatErr(types.KindFeatureDisabled, "error_feature_disabled", nil)
	}
	ok, err := s.Projects.IsMember(ctx, projectID, userID)
	if err != nil {
		return chatErr(types.KindUnknown, "error_unknown", err)
	}
	if !ok {
		return chatErr(types.KindAccessDenied, "error_access_denied", nil)
	}
	return nil
}

func (s *ServiceImpl) SendMessage(ctx context.Context, userID, projectID uuid.UUID, req types.SendMessageRequest) (*Stream, error) {
	ctx, span := otel.Tracer("ChatService").Start(ctx, "SendMessage")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID.String()), attribute.String("project.id", projectID.String()))
	l := s.logger.With(slog.String("method", "SendMessage"), slog.String("userID", userID.String()), slog.String("projectID", projectID.String()))

	fail := func(err error) (*Stream, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rejected")
		metrics.Get().ChatMessagesTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("outcome", string(types.AsChatError(err).Kind))))
		return nil, err
	}

	if err := s.Authorize(ctx, userID, projectID); err != nil {
		return fail(err)
	}

	var messageID uuid.UUID
	if req.MessageID != "" {
		id, err := uuid.Parse(req.MessageID)
		if err != nil {
			ce := types.NewChatError(types.KindInvalidRequest, "error_invalid_request", err)
			ce.Details = map[string]any{"field": "messageId"}
			return fail(ce)
		}
		messageID = id
	}

	limit, err := s.Usage.CheckLimit(ctx, userID)
	if err != nil {
		return fail(chatErr(types.KindUnknown, "error_unknown", err))
	}
	if !limit.Allowed {
		return fail(usage.LimitError(limit, s.Limits))
	}

	if err := s.Filter.Check(req.Message); err != nil {
		var pe *promptFilter.PatternError
		if errors.As(err, &pe) {
			l.WarnContext(ctx, "message blocked by prompt filter", slog.String("pattern", pe.Pattern))
			metrics.Get().PromptFilteredTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("pattern", pe.Pattern)))
		}
		return fail(err)
	}
	message := promptFilter.Sanitize(req.Message)

	pc, err := s.Projects.GetProjectContext(ctx, projectID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return fail(chatErr(types.KindAccessDenied, "error_not_found", err))
		}
		return fail(chatErr(types.KindUnknown, "error_unknown", err))
	}
	existing, err := s.Projects.ListPlaces(ctx, projectID)
	if err != nil {
		return fail(chatErr(types.KindUnknown, "error_unknown", err))
	}
	session, err := s.Chats.GetOrCreateSession(ctx, projectID, userID)
	if err != nil {
		return fail(chatErr(types.KindUnknown, "error_unknown", err))
	}
	previous, _, err := s.Chats.ListMessages(ctx, session.ID, types.HistoryQuery{Limit: s.HistoryLimit})
	if err != nil {
		return fail(chatErr(types.KindUnknown, "error_unknown", err))
	}

	t := &turn{
		userID:    userID,
		sessionID: session.ID,
		tctx: types.ToolExecutionContext{
			ProjectID:      projectID,
			UserID:         userID,
			ExistingPlaces: existing,
			Itinerary:      pc.Itinerary,
			Destination:    pc.Destination,
			Country:        pc.Country,
		},
		logger: l,
	}
	if pc.Itinerary != nil {
		id := pc.Itinerary.ID
		t.tctx.ItineraryID = &id
	}

	streamCtx, cancel := context.WithCancel(ctx)
	next, stop := iter.Pull(s.LLM.StreamChat(streamCtx, generativeAI.StreamRequest{
		SystemPrompt: buildSystemPrompt(pc, existing, s.now()),
		History:      historyMessages(previous),
		Message:      message,
		HandleTool: func(ctx context.Context, call types.ToolCall) types.ToolExecutionResult {
			return s.Tools.Execute(ctx, call.Name, call.Args, t.tctx)
		},
	}))

	// The first chunk decides whether the turn was accepted.
	first, ok := next()
	if !ok || first.Type == types.LLMChunkError {
		stop()
		cancel()
		cause := first.Err
		if !ok {
			cause = errors.New("model stream ended without output")
		}
		return fail(chatErr(types.KindUpstream, "error_upstream", cause))
	}

	if _, err := s.Usage.RecordUsage(context.WithoutCancel(ctx), userID); err != nil {
		l.ErrorContext(ctx, "failed to record usage", slog.Any("error", err))
	}
	if _, err := s.Chats.SaveMessage(ctx, types.ChatMessage{
		ID:        messageID,
		SessionID: session.ID,
		UserID:    userID,
		Role:      types.RoleUser,
		Content:   message,
	}); err != nil {
		l.ErrorContext(ctx, "failed to persist user message", slog.Any("error", err))
	}

	events := make(chan types.ChatEvent)
	go s.run(streamCtx, cancel, next, stop, first, events, t)

	span.SetStatus(codes.Ok, "stream started")
	return &Stream{Events: events, Cancel: cancel}, nil
}

// turn holds the state of one accepted chat turn.
type turn struct {
	userID    uuid.UUID
	sessionID uuid.UUID
	tctx      types.ToolExecutionContext
	logger    *slog.Logger

	text      strings.Builder
	places    []types.ValidatedPlace
	itinerary *types.ItineraryPreviewData
}

func (s *ServiceImpl) run(ctx context.Context, cancel context.CancelFunc, next func() (types.LLMChunk, bool), stop func(),
	first types.LLMChunk, events chan<- types.ChatEvent, t *turn) {
	defer close(events)
	defer cancel()
	defer stop()

	start := s.now()
	outcome := "completed"
	send := func(ev types.ChatEvent) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	chunk, ok := first, true
stream:
	for ; ok; chunk, ok = next() {
		switch chunk.Type {
		case types.LLMChunkText:
			t.text.WriteString(chunk.Text)
			if !send(types.ChatEvent{Type: types.ChatEventText, Content: chunk.Text}) {
				outcome = "disconnected"
				break stream
			}
		case types.LLMChunkToolCall:
			for _, ev := range t.collect(chunk.ToolResult) {
				if !send(ev) {
					outcome = "disconnected"
					break stream
				}
			}
		case types.LLMChunkError:
			if ctx.Err() != nil {
				outcome = "disconnected"
				break stream
			}
			outcome = "upstream_error"
			t.logger.ErrorContext(ctx, "model stream failed mid-turn", slog.Any("error", chunk.Err))
			send(types.ChatEvent{Type: types.ChatEventError, Code: types.KindUpstream, Content: msgStreamFailed})
			break stream
		case types.LLMChunkDone:
			break stream
		}
	}

	// The reply is kept even when the client went away.
	persistCtx := context.WithoutCancel(ctx)
	var saved *types.ChatMessage
	if t.text.Len() > 0 || len(t.places) > 0 || t.itinerary != nil {
		var err error
		saved, err = s.Chats.SaveMessage(persistCtx, types.ChatMessage{
			SessionID: t.sessionID,
			UserID:    t.userID,
			Role:      types.RoleAssistant,
			Content:   t.text.String(),
			Places:    t.places,
			Itinerary: t.itinerary,
		})
		if err != nil {
			t.logger.ErrorContext(persistCtx, "failed to persist assistant message", slog.Any("error", err))
		}
	}

	if outcome == "completed" {
		done := types.ChatEvent{Type: types.ChatEventDone}
		if saved != nil {
			done.MessageID = saved.ID.String()
		}
		send(done)
	}

	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	metrics.Get().ChatMessagesTotal.Add(persistCtx, 1, attrs)
	metrics.Get().ChatStreamDuration.Record(persistCtx, s.now().Sub(start).Seconds(), attrs)
}

// collect turns a successful tool result into outbound events and remembers
// what was shown so it can be persisted with the reply.
func (t *turn) collect(res *types.ToolExecutionResult) []types.ChatEvent {
	if res == nil || !res.Success {
		return nil
	}
	var out []types.ChatEvent
	addPlaces := func(places []types.ValidatedPlace) {
		for i := range places {
			p := places[i]
			t.places = append(t.places, p)
			out = append(out, types.ChatEvent{Type: types.ChatEventPlace, Place: &p})
		}
	}
	switch data := res.Data.(type) {
	case *types.RecommendPlacesResult:
		addPlaces(data.Places)
	case *types.SearchNearbyPlacesResult:
		addPlaces(data.Places)
	case *types.ItineraryPreviewData:
		t.itinerary = data
		out = append(out, types.ChatEvent{Type: types.ChatEventItinerary, Itinerary: data})
	}
	return out
}

func historyMessages(msgs []types.ChatMessage) []types.LLMHistoryMessage {
	out := make([]types.LLMHistoryMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, types.LLMHistoryMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

func (s *ServiceImpl) GetHistory(ctx context.Context, userID, projectID uuid.UUID, q types.HistoryQuery) (*types.ChatHistoryPage, error) {
	ctx, span := otel.Tracer("ChatService").Start(ctx, "GetHistory")
	defer span.End()

	if err := s.Authorize(ctx, userID, projectID); err != nil {
		span.RecordError(err)
		return nil, err
	}
	session, err := s.Chats.FindSession(ctx, projectID, userID)
	if err != nil {
		span.RecordError(err)
		return nil, chatErr(types.KindUnknown, "error_unknown", err)
	}
	if session == nil {
		return &types.ChatHistoryPage{Messages: []types.ChatMessage{}}, nil
	}
	msgs, hasMore, err := s.Chats.ListMessages(ctx, session.ID, q)
	if err != nil {
		span.RecordError(err)
		return nil, chatErr(types.KindUnknown, "error_unknown", fmt.Errorf("history: %w", err))
	}
	id := session.ID
	return &types.ChatHistoryPage{SessionID: &id, Messages: msgs, HasMore: hasMore}, nil
}

package usage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/FACorreiaa/go-trip-planner-chat/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-planner-chat/internal/types"
)

const (
	DefaultDailyLimit       = 50
	DefaultMinuteLimit      = 10
	DefaultGlobalDailyLimit = 10000
)

// Limits are the three usage caps.
type Limits struct {
	Daily       int
	Minute      int
	GlobalDaily int
}

func DefaultLimits() Limits {
	return Limits{Daily: DefaultDailyLimit, Minute: DefaultMinuteLimit, GlobalDaily: DefaultGlobalDailyLimit}
}

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	CheckLimit(ctx context.Context, userID uuid.UUID) (*types.LimitCheckResult, error)
	GetUsageInfo(ctx context.Context, userID uuid.UUID) (*types.UsageInfo, error)
	RecordUsage(ctx context.Context, userID uuid.UUID) (int, error)
}

type ServiceImpl struct {
	repo   Repository
	limits Limits
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*ServiceImpl)

func WithClock(now func() time.Time) Option {
	return func(s *ServiceImpl) { s.now = now }
}

func NewService(repo Repository, limits Limits, logger *slog.Logger, opts ...Option) *ServiceImpl {
	def := DefaultLimits()
	if limits.Daily <= 0 {
		limits.Daily = def.Daily
	}
	if limits.Minute <= 0 {
		limits.Minute = def.Minute
	}
	if limits.GlobalDaily <= 0 {
		limits.GlobalDaily = def.GlobalDaily
	}
	s := &ServiceImpl{repo: repo, limits: limits, now: time.Now, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckLimit evaluates the global, minute and daily caps in that order and
// stops at the first one exhausted. It does not mutate any counter.
func (s *ServiceImpl) CheckLimit(ctx context.Context, userID uuid.UUID) (*types.LimitCheckResult, error) {
	ctx, span := otel.Tracer("UsageService").Start(ctx, "CheckLimit")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID.String()))

	l := s.logger.With(slog.String("method", "CheckLimit"), slog.String("userID", userID.String()))
	now := s.now()
	day := UsageDate(now)

	global, err := s.repo.GetGlobalUsageForDate(ctx, day)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "global usage lookup failed")
		return nil, fmt.Errorf("failed to check global usage: %w", err)
	}
	if global >= s.limits.GlobalDaily {
		l.WarnContext(ctx, "Global daily limit reached", slog.Int("global", global))
		return s.rejected(ctx, types.LimitReasonGlobal, nil, nil), nil
	}

	recent, err := s.repo.CountRecentUserMessages(ctx, userID, now.Add(-time.Minute))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "minute window lookup failed")
		return nil, fmt.Errorf("failed to check minute usage: %w", err)
	}
	if recent >= s.limits.Minute {
		resetsAt := now.Add(time.Minute).UTC()
		l.InfoContext(ctx, "Minute limit reached", slog.Int("recent", recent))
		return s.rejected(ctx, types.LimitReasonMinute, nil, &resetsAt), nil
	}

	used, err := s.dailyCount(ctx, userID, day)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "daily usage lookup failed")
		return nil, err
	}
	resetsAt := NextResetTime(now)
	if used >= s.limits.Daily {
		zero := 0
		l.InfoContext(ctx, "Daily limit reached", slog.Int("used", used))
		return s.rejected(ctx, types.LimitReasonDaily, &zero, &resetsAt), nil
	}

	remaining := s.limits.Daily - used
	return &types.LimitCheckResult{Allowed: true, Remaining: &remaining, ResetsAt: &resetsAt}, nil
}

func (s *ServiceImpl) rejected(ctx context.Context, reason types.LimitReason, remaining *int, resetsAt *time.Time) *types.LimitCheckResult {
	metrics.Get().RateLimitedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", string(reason))))
	return &types.LimitCheckResult{Allowed: false, Reason: reason, Remaining: remaining, ResetsAt: resetsAt}
}

func (s *ServiceImpl) dailyCount(ctx context.Context, userID uuid.UUID, day time.Time) (int, error) {
	rec, err := s.repo.GetUsageForDate(ctx, userID, day)
	if err != nil {
		return 0, fmt.Errorf("failed to check daily usage: %w", err)
	}
	if rec == nil {
		return 0, nil
	}
	return rec.Count, nil
}

func (s *ServiceImpl) GetUsageInfo(ctx context.Context, userID uuid.UUID) (*types.UsageInfo, error) {
	ctx, span := otel.Tracer("UsageService").Start(ctx, "GetUsageInfo")
	defer span.End()

	now := s.now()
	used, err := s.dailyCount(ctx, userID, UsageDate(now))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	minuteUsed, err := s.repo.CountRecentUserMessages(ctx, userID, now.Add(-time.Minute))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to check minute usage: %w", err)
	}

	return &types.UsageInfo{
		Used:        used,
		Limit:       s.limits.Daily,
		Remaining:   max(0, s.limits.Daily-used),
		ResetsAt:    NextResetTime(now),
		MinuteUsed:  minuteUsed,
		MinuteLimit: s.limits.Minute,
	}, nil
}

// RecordUsage charges one message to the user's current day.
func (s *ServiceImpl) RecordUsage(ctx context.Context, userID uuid.UUID) (int, error) {
	ctx, span := otel.Tracer("UsageService").Start(ctx, "RecordUsage")
	defer span.End()

	count, err := s.repo.IncrementUsage(ctx, userID, UsageDate(s.now()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "increment failed")
		return 0, fmt.Errorf("failed to record usage: %w", err)
	}
	return count, nil
}

// LimitError converts a rejected check into the chat error taxonomy.
func LimitError(res *types.LimitCheckResult, limits Limits) error {
	var msgID string
	switch res.Reason {
	case types.LimitReasonGlobal:
		msgID = "error_rate_limit_global"
	case types.LimitReasonMinute:
		msgID = "error_rate_limit_minute"
	default:
		msgID = "error_rate_limit_daily"
	}
	ce := types.NewChatError(types.KindRateLimited, msgID, fmt.Errorf("%s limit exhausted", res.Reason))
	ce.ResetsAt = res.ResetsAt
	details := map[string]any{"reason": string(res.Reason), "limit": limitFor(res.Reason, limits)}
	if res.Remaining != nil {
		details["remaining"] = *res.Remaining
	}
	ce.Details = details
	return ce
}

func limitFor(reason types.LimitReason, limits Limits) int {
	switch reason {
	case types.LimitReasonGlobal:
		return limits.GlobalDaily
	case types.LimitReasonMinute:
		return limits.Minute
	default:
		return limits.Daily
	}
}

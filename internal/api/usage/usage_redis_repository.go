package usage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-trip-planner-chat/internal/types"
)

const (
	redisKeyPrefix = "chat:usage"
	dailyKeyTTL    = 48 * time.Hour
	minuteWindow   = time.Minute
)

var _ Repository = (*RedisRepository)(nil)

// RedisRepository keeps daily counters with INCR and the minute window in a
// sorted set of increment timestamps per user. The minute window therefore
// counts recorded turns, not persisted messages.
type RedisRepository struct {
	rdb    redis.UniversalClient
	now    func() time.Time
	logger *slog.Logger
}

func NewRedisRepository(rdb redis.UniversalClient, logger *slog.Logger) *RedisRepository {
	return &RedisRepository{rdb: rdb, now: time.Now, logger: logger}
}

func dailyKey(date time.Time, userID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:%s", redisKeyPrefix, date.Format(time.DateOnly), userID)
}

func globalKey(date time.Time) string {
	return fmt.Sprintf("%s:%s:global", redisKeyPrefix, date.Format(time.DateOnly))
}

func windowKey(userID uuid.UUID) string {
	return fmt.Sprintf("%s:window:%s", redisKeyPrefix, userID)
}

func (r *RedisRepository) GetUsageForDate(ctx context.Context, userID uuid.UUID, date time.Time) (*types.UsageRecord, error) {
	ctx, span := otel.Tracer("UsageRedisRepo").Start(ctx, "GetUsageForDate")
	defer span.End()

	n, err := r.rdb.Get(ctx, dailyKey(date, userID)).Int()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "redis GET failed")
		return nil, fmt.Errorf("redis error fetching usage: %w", err)
	}
	return &types.UsageRecord{UserID: userID, Date: date, Count: n}, nil
}

func (r *RedisRepository) IncrementUsage(ctx context.Context, userID uuid.UUID, date time.Time) (int, error) {
	ctx, span := otel.Tracer("UsageRedisRepo").Start(ctx, "IncrementUsage")
	defer span.End()

	now := r.now()
	uk, gk, wk := dailyKey(date, userID), globalKey(date), windowKey(userID)

	var userCount *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		userCount = pipe.Incr(ctx, uk)
		pipe.Expire(ctx, uk, dailyKeyTTL)
		pipe.Incr(ctx, gk)
		pipe.Expire(ctx, gk, dailyKeyTTL)
		pipe.ZAdd(ctx, wk, redis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
		pipe.ZRemRangeByScore(ctx, wk, "-inf", strconv.FormatInt(now.Add(-minuteWindow).UnixNano(), 10))
		pipe.Expire(ctx, wk, 2*minuteWindow)
		return nil
	})
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to increment usage in redis", slog.String("userID", userID.String()), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "redis pipeline failed")
		return 0, fmt.Errorf("redis error incrementing usage: %w", err)
	}
	count := int(userCount.Val())
	span.SetAttributes(attribute.Int("usage.count", count))
	return count, nil
}

func (r *RedisRepository) GetGlobalUsageForDate(ctx context.Context, date time.Time) (int, error) {
	n, err := r.rdb.Get(ctx, globalKey(date)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis error fetching global usage: %w", err)
	}
	return n, nil
}

func (r *RedisRepository) CountRecentUserMessages(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	n, err := r.rdb.ZCount(ctx, windowKey(userID), strconv.FormatInt(since.UnixNano(), 10), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("redis error counting recent messages: %w", err)
	}
	return int(n), nil
}

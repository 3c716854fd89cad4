package usage

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-planner-chat/internal/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// memoryRepository counts each increment as one user message at clock time.
type memoryRepository struct {
	mu     sync.Mutex
	clock  *fakeClock
	counts map[string]int
	sent   map[uuid.UUID][]time.Time
}

func newMemoryRepository(clock *fakeClock) *memoryRepository {
	return &memoryRepository{clock: clock, counts: map[string]int{}, sent: map[uuid.UUID][]time.Time{}}
}

func (m *memoryRepository) key(userID uuid.UUID, date time.Time) string {
	return userID.String() + date.Format(time.DateOnly)
}

func (m *memoryRepository) GetUsageForDate(_ context.Context, userID uuid.UUID, date time.Time) (*types.UsageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.counts[m.key(userID, date)]
	if !ok {
		return nil, nil
	}
	return &types.UsageRecord{UserID: userID, Date: date, Count: n}, nil
}

func (m *memoryRepository) IncrementUsage(_ context.Context, userID uuid.UUID, date time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[m.key(userID, date)]++
	m.sent[userID] = append(m.sent[userID], m.clock.Now())
	return m.counts[m.key(userID, date)], nil
}

func (m *memoryRepository) GetGlobalUsageForDate(_ context.Context, date time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	suffix := date.Format(time.DateOnly)
	for k, n := range m.counts {
		if len(k) >= len(suffix) && k[len(k)-len(suffix):] == suffix {
			total += n
		}
	}
	return total, nil
}

func (m *memoryRepository) CountRecentUserMessages(_ context.Context, userID uuid.UUID, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, ts := range m.sent[userID] {
		if !ts.Before(since) {
			n++
		}
	}
	return n, nil
}

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetUsageForDate(ctx context.Context, userID uuid.UUID, date time.Time) (*types.UsageRecord, error) {
	args := m.Called(ctx, userID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.UsageRecord), args.Error(1)
}

func (m *MockRepository) IncrementUsage(ctx context.Context, userID uuid.UUID, date time.Time) (int, error) {
	args := m.Called(ctx, userID, date)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) GetGlobalUsageForDate(ctx context.Context, date time.Time) (int, error) {
	args := m.Called(ctx, date)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) CountRecentUserMessages(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	args := m.Called(ctx, userID, since)
	return args.Int(0), args.Error(1)
}

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) // 09:00 KST

func TestCheckLimit_DailyExhaustion(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: start}
	svc := NewService(newMemoryRepository(clock), DefaultLimits(), testLogger(), WithClock(clock.Now))
	userID := uuid.New()

	for i := 0; i < DefaultDailyLimit; i++ {
		res, err := svc.CheckLimit(ctx, userID)
		require.NoError(t, err)
		require.True(t, res.Allowed, "message %d", i+1)
		assert.Equal(t, DefaultDailyLimit-i, *res.Remaining)
		_, err = svc.RecordUsage(ctx, userID)
		require.NoError(t, err)
		clock.Advance(10 * time.Second)
	}

	res, err := svc.CheckLimit(ctx, userID)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, types.LimitReasonDaily, res.Reason)
	require.NotNil(t, res.Remaining)
	assert.Equal(t, 0, *res.Remaining)
	assert.Equal(t, time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC), *res.ResetsAt)

	// A new local day starts at 15:00 UTC.
	clock.t = time.Date(2024, 1, 1, 15, 0, 1, 0, time.UTC)
	res, err = svc.CheckLimit(ctx, userID)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, DefaultDailyLimit, *res.Remaining)
}

func TestCheckLimit_MinuteWindowSlides(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: start}
	svc := NewService(newMemoryRepository(clock), DefaultLimits(), testLogger(), WithClock(clock.Now))
	userID := uuid.New()

	for i := 0; i < DefaultMinuteLimit; i++ {
		res, err := svc.CheckLimit(ctx, userID)
		require.NoError(t, err)
		require.True(t, res.Allowed)
		_, err = svc.RecordUsage(ctx, userID)
		require.NoError(t, err)
		clock.Advance(5 * time.Second)
	}
	// Ten messages landed between t=0s and t=45s; now t=50s.
	res, err := svc.CheckLimit(ctx, userID)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, types.LimitReasonMinute, res.Reason)
	assert.Nil(t, res.Remaining)
	assert.Equal(t, clock.Now().Add(time.Minute), *res.ResetsAt)

	clock.Advance(61 * time.Second)
	res, err = svc.CheckLimit(ctx, userID)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, DefaultDailyLimit-DefaultMinuteLimit, *res.Remaining)
}

func TestCheckLimit_GlobalCapWins(t *testing.T) {
	repo := new(MockRepository)
	clock := &fakeClock{t: start}
	svc := NewService(repo, Limits{Daily: 5, Minute: 2, GlobalDaily: 3}, testLogger(), WithClock(clock.Now))

	repo.On("GetGlobalUsageForDate", mock.Anything, UsageDate(start)).Return(3, nil).Once()

	res, err := svc.CheckLimit(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, types.LimitReasonGlobal, res.Reason)
	assert.Nil(t, res.Remaining)
	assert.Nil(t, res.ResetsAt)
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "CountRecentUserMessages", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckLimit_RepositoryErrors(t *testing.T) {
	userID := uuid.New()
	clock := &fakeClock{t: start}

	t.Run("global", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, DefaultLimits(), testLogger(), WithClock(clock.Now))
		repo.On("GetGlobalUsageForDate", mock.Anything, mock.Anything).Return(0, errors.New("db down")).Once()
		_, err := svc.CheckLimit(context.Background(), userID)
		assert.ErrorContains(t, err, "db down")
	})

	t.Run("daily", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, DefaultLimits(), testLogger(), WithClock(clock.Now))
		repo.On("GetGlobalUsageForDate", mock.Anything, mock.Anything).Return(0, nil).Once()
		repo.On("CountRecentUserMessages", mock.Anything, userID, start.Add(-time.Minute)).Return(0, nil).Once()
		repo.On("GetUsageForDate", mock.Anything, userID, UsageDate(start)).Return(nil, errors.New("timeout")).Once()
		_, err := svc.CheckLimit(context.Background(), userID)
		assert.ErrorContains(t, err, "failed to check daily usage")
		repo.AssertExpectations(t)
	})
}

func TestGetUsageInfo(t *testing.T) {
	repo := new(MockRepository)
	clock := &fakeClock{t: time.Date(2024, 1, 1, 14, 59, 0, 0, time.UTC)}
	svc := NewService(repo, DefaultLimits(), testLogger(), WithClock(clock.Now))
	userID := uuid.New()

	repo.On("GetUsageForDate", mock.Anything, userID, UsageDate(clock.Now())).
		Return(&types.UsageRecord{UserID: userID, Count: 12}, nil).Once()
	repo.On("CountRecentUserMessages", mock.Anything, userID, clock.Now().Add(-time.Minute)).Return(3, nil).Once()

	info, err := svc.GetUsageInfo(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, types.UsageInfo{
		Used:        12,
		Limit:       DefaultDailyLimit,
		Remaining:   DefaultDailyLimit - 12,
		ResetsAt:    time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC),
		MinuteUsed:  3,
		MinuteLimit: DefaultMinuteLimit,
	}, *info)
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "IncrementUsage", mock.Anything, mock.Anything, mock.Anything)
}

func TestLimitError(t *testing.T) {
	resets := time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC)
	zero := 0
	err := LimitError(&types.LimitCheckResult{Reason: types.LimitReasonDaily, Remaining: &zero, ResetsAt: &resets}, DefaultLimits())

	assert.True(t, errors.Is(err, types.ErrRateLimited))
	ce := types.AsChatError(err)
	assert.Equal(t, types.KindRateLimited, ce.Kind)
	assert.Equal(t, "error_rate_limit_daily", ce.MessageID)
	assert.Equal(t, &resets, ce.ResetsAt)
	assert.Equal(t, map[string]any{"reason": "daily", "limit": DefaultDailyLimit, "remaining": 0}, ce.Details)

	err = LimitError(&types.LimitCheckResult{Reason: types.LimitReasonGlobal}, DefaultLimits())
	assert.Equal(t, "error_rate_limit_global", types.AsChatError(err).MessageID)
}

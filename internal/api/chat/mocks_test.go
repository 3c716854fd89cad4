package chat

import (
	"context"
	"encoding/json"
	"iter"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	generativeAI "github.com/FACorreiaa/go-trip-planner-chat/internal/api/generative_ai"
	"github.com/FACorreiaa/go-trip-planner-chat/internal/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type staticGate bool

func (g staticGate) IsEnabled(uuid.UUID) bool { return bool(g) }

type MockProjects struct {
	mock.Mock
}

func (m *MockProjects) IsMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, projectID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockProjects) GetProjectContext(ctx context.Context, projectID uuid.UUID) (*types.ProjectContext, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.ProjectContext), args.Error(1)
}

func (m *MockProjects) ListPlaces(ctx context.Context, projectID uuid.UUID) ([]types.DuplicateCandidate, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.DuplicateCandidate), args.Error(1)
}

// memoryChats is an in-memory Repository safe for the streaming goroutine.
type memoryChats struct {
	mu      sync.Mutex
	session *types.ChatSession
	saved   []types.ChatMessage
	history []types.ChatMessage
	saveErr error
	savedCh chan types.ChatMessage
}

func newMemoryChats() *memoryChats {
	return &memoryChats{savedCh: make(chan types.ChatMessage, 8)}
}

func (m *memoryChats) GetOrCreateSession(_ context.Context, projectID, userID uuid.UUID) (*types.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		m.session = &types.ChatSession{ID: uuid.New(), ProjectID: projectID, UserID: userID}
	}
	return m.session, nil
}

func (m *memoryChats) FindSession(context.Context, uuid.UUID, uuid.UUID) (*types.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session, nil
}

func (m *memoryChats) SaveMessage(_ context.Context, msg types.ChatMessage) (*types.ChatMessage, error) {
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	m.mu.Lock()
	m.saved = append(m.saved, msg)
	m.mu.Unlock()
	m.savedCh <- msg
	return &msg, nil
}

func (m *memoryChats) ListMessages(_ context.Context, _ uuid.UUID, q types.HistoryQuery) ([]types.ChatMessage, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history, false, nil
}

type MockUsage struct {
	mock.Mock
}

func (m *MockUsage) CheckLimit(ctx context.Context, userID uuid.UUID) (*types.LimitCheckResult, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.LimitCheckResult), args.Error(1)
}

func (m *MockUsage) GetUsageInfo(ctx context.Context, userID uuid.UUID) (*types.UsageInfo, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.UsageInfo), args.Error(1)
}

func (m *MockUsage) RecordUsage(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type MockTools struct {
	mock.Mock
}

func (m *MockTools) Execute(ctx context.Context, name string, args json.RawMessage, tctx types.ToolExecutionContext) types.ToolExecutionResult {
	a := m.Called(ctx, name, args, tctx)
	return a.Get(0).(types.ToolExecutionResult)
}

// scriptedLLM replays chunks. A tool_call chunk is executed through the
// request's handler first, the way the real client does.
type scriptedLLM struct {
	chunks  []types.LLMChunk
	lastReq generativeAI.StreamRequest
	// block makes the stream wait for cancellation after the listed chunks.
	block bool
}

func (s *scriptedLLM) StreamChat(ctx context.Context, req generativeAI.StreamRequest) iter.Seq[types.LLMChunk] {
	s.lastReq = req
	return func(yield func(types.LLMChunk) bool) {
		for _, c := range s.chunks {
			if c.Type == types.LLMChunkToolCall && req.HandleTool != nil {
				res := req.HandleTool(ctx, *c.ToolCall)
				c.ToolResult = &res
			}
			if !yield(c) {
				return
			}
		}
		if s.block {
			<-ctx.Done()
			yield(types.LLMChunk{Type: types.LLMChunkError, Err: ctx.Err()})
		}
	}
}

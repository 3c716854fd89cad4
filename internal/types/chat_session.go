package types

import (
	"time"

	"github.com/google/uuid"
)

type ChatSession struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"project_id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

type ChatMessage struct {
	ID        uuid.UUID             `json:"id"`
	SessionID uuid.UUID             `json:"session_id"`
	UserID    uuid.UUID             `json:"user_id"`
	Role      MessageRole           `json:"role"`
	Content   string                `json:"content"`
	Places    []ValidatedPlace      `json:"places,omitempty"`
	Itinerary *ItineraryPreviewData `json:"itinerary,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
}

// SendMessageRequest is the body of the chat send endpoint.
type SendMessageRequest struct {
	Message   string `json:"message"`
	MessageID string `json:"messageId,omitempty"`
}

// HistoryQuery selects a page of messages older than an optional cursor.
// At most one of BeforeTime and BeforeID is set.
type HistoryQuery struct {
	BeforeTime *time.Time
	BeforeID   *uuid.UUID
	Limit      int
}

// ChatHistoryPage is one page of a session's messages in chronological order.
type ChatHistoryPage struct {
	SessionID *uuid.UUID    `json:"session_id,omitempty"`
	Messages  []ChatMessage `json:"messages"`
	HasMore   bool          `json:"has_more"`
}

// ProjectContext is the project data the assistant works against.
type ProjectContext struct {
	ProjectID   uuid.UUID
	Destination string
	Country     string
	StartDate   *time.Time
	EndDate     *time.Time
	Itinerary   *ItinerarySummary
}

// ChatEventType enumerates the outbound SSE event kinds.
type ChatEventType string

const (
	ChatEventText      ChatEventType = "text"
	ChatEventPlace     ChatEventType = "place"
	ChatEventItinerary ChatEventType = "itinerary"
	ChatEventDone      ChatEventType = "done"
	ChatEventError     ChatEventType = "error"
)

// ChatEvent is one `data: <json>` frame of the chat stream.
type ChatEvent struct {
	Type      ChatEventType         `json:"type"`
	Content   string                `json:"content,omitempty"`
	Place     *ValidatedPlace       `json:"place,omitempty"`
	Itinerary *ItineraryPreviewData `json:"itinerary,omitempty"`
	MessageID string                `json:"messageId,omitempty"`
	Code      ErrorKind             `json:"code,omitempty"`
}

// LLMChunkType enumerates what the model stream yields.
type LLMChunkType string

const (
	LLMChunkText     LLMChunkType = "text"
	LLMChunkToolCall LLMChunkType = "tool_call"
	LLMChunkDone     LLMChunkType = "done"
	LLMChunkError    LLMChunkType = "error"
)

// LLMChunk is one event of the model stream. For tool calls the stream client
// has already executed the call through the request's tool handler and carries
// the result so the orchestrator can surface it.
type LLMChunk struct {
	Type       LLMChunkType
	Text       string
	ToolCall   *ToolCall
	ToolResult *ToolExecutionResult
	Err        error
}

// LLMHistoryMessage is a previous turn replayed to the model.
type LLMHistoryMessage struct {
	Role    MessageRole
	Content string
}

package types

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound        = errors.New("requested item not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrFeatureDisabled = errors.New("chat feature disabled")
	ErrAccessDenied    = errors.New("access denied")
	ErrRateLimited     = errors.New("rate limited")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrContentFiltered = errors.New("content filtered")
	ErrUpstream        = errors.New("upstream service error")
	ErrUnknownTool     = errors.New("unknown tool")
)

// ErrorKind is the chat error taxonomy.
type ErrorKind string

const (
	KindUnauthorized    ErrorKind = "UNAUTHORIZED"
	KindFeatureDisabled ErrorKind = "FEATURE_DISABLED"
	KindAccessDenied    ErrorKind = "ACCESS_DENIED"
	KindRateLimited     ErrorKind = "RATE_LIMITED"
	KindInvalidRequest  ErrorKind = "INVALID_REQUEST"
	KindContentFiltered ErrorKind = "CONTENT_FILTERED"
	KindUpstream        ErrorKind = "UPSTREAM_SERVICE_ERROR"
	KindUnknown         ErrorKind = "UNKNOWN_ERROR"
)

var kindSentinels = map[ErrorKind]error{
	KindUnauthorized:    ErrUnauthorized,
	KindFeatureDisabled: ErrFeatureDisabled,
	KindAccessDenied:    ErrAccessDenied,
	KindRateLimited:     ErrRateLimited,
	KindInvalidRequest:  ErrInvalidRequest,
	KindContentFiltered: ErrContentFiltered,
	KindUpstream:        ErrUpstream,
}

// ChatError is a classified failure of the send-message pipeline.
// MessageID names the localized message shown to the user; Err holds the
// internal cause and is never rendered to clients.
type ChatError struct {
	Kind      ErrorKind
	MessageID string
	Details   any
	ResetsAt  *time.Time
	Err       error
}

func NewChatError(kind ErrorKind, messageID string, cause error) *ChatError {
	return &ChatError{Kind: kind, MessageID: messageID, Err: cause}
}

func (e *ChatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *ChatError) Unwrap() []error {
	var errs []error
	if s, ok := kindSentinels[e.Kind]; ok {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// AsChatError classifies any error, defaulting to KindUnknown.
func AsChatError(err error) *ChatError {
	var ce *ChatError
	if errors.As(err, &ce) {
		return ce
	}
	return &ChatError{Kind: KindUnknown, MessageID: "error_unknown", Err: err}
}

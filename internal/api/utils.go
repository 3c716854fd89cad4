package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"

	"github.com/FACorreiaa/go-trip-planner-chat/internal/api/locale"
	"github.com/FACorreiaa/go-trip-planner-chat/internal/types"
)

// ErrorBody is the JSON error envelope of the chat endpoints.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code      types.ErrorKind `json:"code"`
	Message   string          `json:"message"`
	Details   any             `json:"details,omitempty"`
	ResetsAt  *time.Time      `json:"resetsAt,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
}

// StatusForKind maps the chat error taxonomy to HTTP status codes.
func StatusForKind(kind types.ErrorKind) int {
	switch kind {
	case types.KindUnauthorized:
		return http.StatusUnauthorized
	case types.KindFeatureDisabled, types.KindAccessDenied:
		return http.StatusForbidden
	case types.KindRateLimited:
		return http.StatusTooManyRequests
	case types.KindInvalidRequest, types.KindContentFiltered:
		return http.StatusBadRequest
	case types.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteChatError classifies err, logs the internal cause and writes a
// localized error envelope. Causes never reach the client.
func WriteChatError(w http.ResponseWriter, r *http.Request, tr *locale.Translator, logger *slog.Logger, err error) {
	ce := types.AsChatError(err)
	status := StatusForKind(ce.Kind)
	reqID := middleware.GetReqID(r.Context())

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logger.Log(r.Context(), level, "chat request rejected",
		slog.String("kind", string(ce.Kind)),
		slog.String("request_id", reqID),
		slog.Any("error", err),
	)

	data, _ := ce.Details.(map[string]any)
	body := ErrorBody{Error: ErrorDetail{
		Code:      ce.Kind,
		Message:   tr.Localize(r.Context(), ce.MessageID, data),
		ResetsAt:  ce.ResetsAt,
		RequestID: reqID,
	}}
	if ce.Kind == types.KindInvalidRequest || ce.Kind == types.KindRateLimited {
		body.Error.Details = ce.Details
	}
	if ce.ResetsAt != nil {
		w.Header().Set("Retry-After", fmt.Sprintf("%d", max(0, int(time.Until(*ce.ResetsAt).Seconds()))))
	}
	WriteJSONResponse(w, r, status, body)
}

// WriteJSONResponse encodes the data to JSON and writes the response header and body.
func WriteJSONResponse(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}

	js, err := json.Marshal(data)
	if err != nil {
		reqID := middleware.GetReqID(r.Context())
		slog.ErrorContext(r.Context(), "Failed to marshal JSON response",
			slog.Any("error", err),
			slog.String("request_id", reqID),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	if err != nil {
		reqID := middleware.GetReqID(r.Context())
		slog.ErrorContext(r.Context(), "Failed to write response body",
			slog.Any("error", err),
			slog.String("request_id", reqID),
		)
	}
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

// DecodeJSONBody reads and decodes a JSON request body safely.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)

		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")

		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q (wanted %s)", unmarshalTypeError.Field, unmarshalTypeError.Type)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)

		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")

		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			fieldName = strings.Trim(fieldName, `"`)
			return fmt.Errorf("body contains unknown key %q", fieldName)

		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)

		case errors.As(err, &invalidUnmarshalError):
			panic(fmt.Errorf("developer error: invalid argument passed to json.Unmarshal: %w", err))

		default:
			return fmt.Errorf("error decoding JSON body: %w", err)
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

// VerifyAudience reports whether expectedAudience is among the token audiences.
// An empty expectation always passes.
func VerifyAudience(claimsAudience jwt.ClaimStrings, expectedAudience string) bool {
	if expectedAudience == "" {
		return true
	}
	for _, aud := range claimsAudience {
		if aud == expectedAudience {
			return true
		}
	}
	return false
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/go-trip-planner-chat/internal/api"
	"github.com/FACorreiaa/go-trip-planner-chat/internal/api/locale"
	"github.com/FACorreiaa/go-trip-planner-chat/internal/types"
)

type contextKey string

const (
	UserIDKey    contextKey = "userID"
	UserEmailKey contextKey = "userEmail"
)

// Claims are the access token claims issued by the account service.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type JWTConfig struct {
	SecretKey string
	Issuer    string
	Audience  string
}

// Authenticate validates Bearer access tokens and stores the user id on the
// request context.
func Authenticate(logger *slog.Logger, tr *locale.Translator, jwtCfg JWTConfig) func(next http.Handler) http.Handler {
	secretKey := []byte(jwtCfg.SecretKey)
	if len(secretKey) == 0 {
		logger.Error("FATAL: JWT Secret Key is not configured!")
		panic("JWT Secret Key cannot be empty")
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}), jwt.WithExpirationRequired()}
	if jwtCfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(jwtCfg.Issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := logger.With(slog.String("middleware", "Authenticate"))

			reject := func(reason string, err error) {
				l.WarnContext(ctx, reason, slog.Any("error", err))
				api.WriteChatError(w, r, tr, logger,
					types.NewChatError(types.KindUnauthorized, "error_unauthorized", fmt.Errorf("%s: %w", reason, err)))
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				reject("missing Authorization header", types.ErrUnauthorized)
				return
			}
			scheme, tokenString, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || tokenString == "" {
				reject("invalid Authorization header format", types.ErrUnauthorized)
				return
			}

			claims := &Claims{}
			token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
				return secretKey, nil
			})
			if err != nil {
				switch {
				case errors.Is(err, jwt.ErrTokenExpired):
					reject("token has expired", err)
				case errors.Is(err, jwt.ErrTokenMalformed):
					reject("malformed token", err)
				case errors.Is(err, jwt.ErrTokenSignatureInvalid):
					reject("invalid token signature", err)
				default:
					reject("token validation failed", err)
				}
				return
			}
			if !token.Valid {
				reject("token marked as invalid", types.ErrUnauthorized)
				return
			}
			if !api.VerifyAudience(claims.Audience, jwtCfg.Audience) {
				reject("token audience mismatch", types.ErrUnauthorized)
				return
			}

			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				reject("token user id is not a uuid", err)
				return
			}

			ctx = context.WithValue(ctx, UserIDKey, userID)
			if claims.Email != "" {
				ctx = context.WithValue(ctx, UserEmailKey, claims.Email)
			}
			l.DebugContext(ctx, "Authentication successful", slog.String("userID", userID.String()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserIDFromContext returns the authenticated user, if any.
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok && userID != uuid.Nil
}

// WithUserID is used by tests and internal callers that bypass the middleware.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

package chat

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/FACorreiaa/go-trip-planner-chat/config"
)

// FeatureGate decides whether a user may use the chat assistant.
type FeatureGate interface {
	IsEnabled(userID uuid.UUID) bool
}

var _ FeatureGate = (*FeatureFlag)(nil)

// FeatureFlag is the global chat switch plus an optional user allowlist.
// An empty allowlist lets every user through.
type FeatureFlag struct {
	enabled bool
	allowed map[uuid.UUID]struct{}
}

// NewFeatureFlag fails on any allowlist entry that is not a uuid.
func NewFeatureFlag(cfg config.ChatConfig, logger *slog.Logger) (*FeatureFlag, error) {
	f := &FeatureFlag{enabled: cfg.Enabled}
	if len(cfg.AllowedUserIDs) == 0 {
		return f, nil
	}
	f.allowed = make(map[uuid.UUID]struct{}, len(cfg.AllowedUserIDs))
	for _, raw := range cfg.AllowedUserIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid chat.allowedUserIDs entry %q: %w", raw, err)
		}
		f.allowed[id] = struct{}{}
	}
	logger.Info("chat restricted to allowlisted users", slog.Int("count", len(f.allowed)))
	return f, nil
}

func (f *FeatureFlag) IsEnabled(userID uuid.UUID) bool {
	if !f.enabled {
		return false
	}
	if f.allowed == nil {
		return true
	}
	_, ok := f.allowed[userID]
	return ok
}

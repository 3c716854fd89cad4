package types

import (
	"time"

	"github.com/google/uuid"
)

// UsageRecord is the per-user counter for one KST calendar day.
type UsageRecord struct {
	UserID    uuid.UUID `json:"user_id"`
	Date      time.Time `json:"date"` // day granularity, KST calendar day at 00:00 UTC
	Count     int       `json:"count"`
	UpdatedAt time.Time `json:"updated_at"`
}

type LimitReason string

const (
	LimitReasonGlobal LimitReason = "global_daily"
	LimitReasonDaily  LimitReason = "daily"
	LimitReasonMinute LimitReason = "minute"
)

// LimitCheckResult is the verdict of a three-tier usage check.
// Remaining and ResetsAt are nil when they do not apply (global cap).
type LimitCheckResult struct {
	Allowed   bool        `json:"allowed"`
	Reason    LimitReason `json:"reason,omitempty"`
	Remaining *int        `json:"remaining,omitempty"`
	ResetsAt  *time.Time  `json:"resets_at,omitempty"`
}

// UsageInfo is the read-only usage projection shown to the user.
type UsageInfo struct {
	Used        int       `json:"used"`
	Limit       int       `json:"limit"`
	Remaining   int       `json:"remaining"`
	ResetsAt    time.Time `json:"resetsAt"`
	MinuteUsed  int       `json:"minuteUsed"`
	MinuteLimit int       `json:"minuteLimit"`
}

// UsageResponse is the body of the usage endpoint.
type UsageResponse struct {
	Enabled bool       `json:"enabled"`
	Usage   *UsageInfo `json:"usage"`
}

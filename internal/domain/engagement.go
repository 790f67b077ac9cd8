package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VerificationTier is the user's identity verification level, supplied by
// an external verification provider and consumed here as a plain signal.
type VerificationTier int

const (
	TierUnverified VerificationTier = 0
	TierBasic      VerificationTier = 1
	TierFull       VerificationTier = 2
)

// EngagementEventStatus tracks the lifecycle of a task submission
type EngagementEventStatus string

const (
	EventStatusPending  EngagementEventStatus = "PENDING"
	EventStatusApproved EngagementEventStatus = "APPROVED"
	EventStatusRejected EngagementEventStatus = "REJECTED"
)

// EngagementTask defines a reward-bearing civic task: its SUP reward and
// the eligibility constraints a submission must pass.
// MaxCompletions == 0 means uncapped.
type EngagementTask struct {
	ID                   uuid.UUID       `json:"id"`
	Title                string          `json:"title"`
	RewardSUP            decimal.Decimal `json:"reward_sup"`
	RequiresVerification bool            `json:"requires_verification"`
	MaxCompletions       int             `json:"max_completions"`
	CompletionCount      int             `json:"completion_count"`
	ActiveFrom           time.Time       `json:"active_from"`
	ActiveUntil          time.Time       `json:"active_until"`
	LinkedEventID        *uuid.UUID      `json:"linked_event_id,omitempty"`
	Repeatable           bool            `json:"repeatable"`
	CreatedAt            time.Time       `json:"created_at"`
}

// WindowStart returns the idempotency window for a submission at the given
// instant. Repeatable tasks reset at UTC midnight; one-shot tasks have a
// single window anchored at the task's activation time.
func (t *EngagementTask) WindowStart(now time.Time) time.Time {
	if !t.Repeatable {
		return t.ActiveFrom.UTC()
	}
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EngagementEvent is one user's submission against a task. The unique
// constraint on (user_id, task_id, window_start) makes a second concurrent
// submission resolve to the first row instead of a duplicate reward.
type EngagementEvent struct {
	ID            uuid.UUID             `json:"id"`
	UserID        uuid.UUID             `json:"user_id"`
	TaskID        uuid.UUID             `json:"task_id"`
	WindowStart   time.Time             `json:"window_start"`
	Status        EngagementEventStatus `json:"status"`
	Payload       json.RawMessage       `json:"payload,omitempty"`
	TransactionID *uuid.UUID            `json:"transaction_id,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
}

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RoundKind distinguishes the two scheduled prize periods
type RoundKind string

const (
	RoundKindDaily  RoundKind = "DAILY"
	RoundKindWeekly RoundKind = "WEEKLY"
)

// RoundStatus is the one-way lifecycle of a prize round
type RoundStatus string

const (
	RoundStatusOpen   RoundStatus = "OPEN"
	RoundStatusLocked RoundStatus = "LOCKED"
	RoundStatusDrawn  RoundStatus = "DRAWN"
	RoundStatusPaid   RoundStatus = "PAID"
)

// EntrySource records how tickets were obtained
type EntrySource string

const (
	EntrySourceBuy    EntrySource = "BUY"
	EntrySourceEarned EntrySource = "EARNED"
)

// PoolSplit is the percentage allocation of a round's pool.
// The three shares must sum to exactly 100, checked at round creation.
type PoolSplit struct {
	ProjectsPct int `json:"projects_pct"`
	PrizesPct   int `json:"prizes_pct"`
	PlatformPct int `json:"platform_pct"`
}

// Valid reports whether the split sums to 100 with no negative share
func (s PoolSplit) Valid() bool {
	if s.ProjectsPct < 0 || s.PrizesPct < 0 || s.PlatformPct < 0 {
		return false
	}
	return s.ProjectsPct+s.PrizesPct+s.PlatformPct == 100
}

// Round is one prize period. CommitHash is fixed when the round opens and
// published immediately; RevealSeed is only persisted at draw time and must
// hash back to CommitHash.
type Round struct {
	ID         uuid.UUID       `json:"id"`
	Kind       RoundKind       `json:"kind"`
	Status     RoundStatus     `json:"status"`
	PoolSUP    decimal.Decimal `json:"pool_sup"`
	Split      PoolSplit       `json:"split"`
	CommitHash string          `json:"commit_hash"`
	RevealSeed *string         `json:"reveal_seed,omitempty"`
	OpenedAt   time.Time       `json:"opened_at"`
	ClosesAt   time.Time       `json:"closes_at"`
	LockedAt   *time.Time      `json:"locked_at,omitempty"`
	DrawnAt    *time.Time      `json:"drawn_at,omitempty"`
}

// Entry is a user's tickets in a round. Entries accumulate while the round
// is OPEN and are frozen on the transition to LOCKED.
type Entry struct {
	ID        int64       `json:"id"`
	RoundID   uuid.UUID   `json:"round_id"`
	UserID    uuid.UUID   `json:"user_id"`
	Tickets   int64       `json:"tickets"`
	Source    EntrySource `json:"source"`
	CreatedAt time.Time   `json:"created_at"`
}

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Prize is the settlement record for one winning tier of a round.
// The unique constraint on (round_id, tier) makes settlement idempotent:
// a re-run after a partial crash skips tiers that already have a row.
type Prize struct {
	ID        uuid.UUID       `json:"id"`
	RoundID   uuid.UUID       `json:"round_id"`
	UserID    uuid.UUID       `json:"user_id"`
	Tier      int             `json:"tier"`
	AmountSUP decimal.Decimal `json:"amount_sup"`
	PaidAt    time.Time       `json:"paid_at"`
}

// Winner is one selected entry from a draw, ordered by tier (1 = first).
type Winner struct {
	Tier    int       `json:"tier"`
	EntryID int64     `json:"entry_id"`
	UserID  uuid.UUID `json:"user_id"`
}

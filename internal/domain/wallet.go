package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet holds a user's cached SUP balance and NGN escrow balance.
// Created on first user action, never deleted, and mutated only by the
// ledger service. The balance is a materialized projection of the
// transaction log: sup_balance == SUM(transactions.amount_sup).
type Wallet struct {
	UserID     uuid.UUID       `json:"user_id"`
	SUPBalance decimal.Decimal `json:"sup_balance"`
	NGNEscrow  decimal.Decimal `json:"ngn_escrow"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// NewWallet creates an empty wallet for a user.
func NewWallet(userID uuid.UUID) *Wallet {
	now := time.Now().UTC()
	return &Wallet{
		UserID:     userID,
		SUPBalance: decimal.Zero,
		NGNEscrow:  decimal.Zero,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

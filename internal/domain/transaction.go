package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType enumerates every kind of value movement in the ledger
type TransactionType string

const (
	TxTypeBuy      TransactionType = "BUY"
	TxTypeCashout  TransactionType = "CASHOUT"
	TxTypeTransfer TransactionType = "TRANSFER"
	TxTypePrize    TransactionType = "PRIZE"
	TxTypeEngage   TransactionType = "ENGAGE"
	TxTypeVote     TransactionType = "VOTE"
	TxTypeFee      TransactionType = "FEE"
	TxTypeEntry    TransactionType = "ENTRY"
	TxTypeEarned   TransactionType = "EARNED"
	TxTypeDonation TransactionType = "DONATION"
)

// ValidTransactionTypes is the closed set of accepted transaction types
var ValidTransactionTypes = map[TransactionType]bool{
	TxTypeBuy:      true,
	TxTypeCashout:  true,
	TxTypeTransfer: true,
	TxTypePrize:    true,
	TxTypeEngage:   true,
	TxTypeVote:     true,
	TxTypeFee:      true,
	TxTypeEntry:    true,
	TxTypeEarned:   true,
	TxTypeDonation: true,
}

// RewardBearingTypes are the transaction types that count against a user's
// per-tier daily reward-action cap
var RewardBearingTypes = map[TransactionType]bool{
	TxTypeEarned: true,
	TxTypeEngage: true,
	TxTypeVote:   true,
}

// Transaction is an immutable ledger record. Rows are append-only: once
// written they are never updated or deleted. AmountSUP is signed (debits
// are negative) so the wallet balance is always SUM(amount_sup).
type Transaction struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Type      TransactionType `json:"type"`
	AmountSUP decimal.Decimal `json:"amount_sup"`
	AmountNGN decimal.Decimal `json:"amount_ngn"`
	Metadata  TxMetadata      `json:"metadata"`
	CreatedAt time.Time       `json:"created_at"`
}

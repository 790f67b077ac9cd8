package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/civiclabs-ng/supcore/internal/domain"
)

// Tx is the base interface for a unit of work
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// LedgerTx is the atomic unit for a single wallet mutation: the wallet row
// is locked for update, the transaction row appended, and the cached
// balance rewritten, all before Commit.
type LedgerTx interface {
	Tx

	// GetWalletForUpdate locks and returns the wallet row, or nil when the
	// user has no wallet yet
	GetWalletForUpdate(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	CreateWallet(ctx context.Context, wallet *domain.Wallet) error
	UpdateWalletBalances(ctx context.Context, userID uuid.UUID, supBalance, ngnEscrow decimal.Decimal) error
	InsertTransaction(ctx context.Context, tx *domain.Transaction) error
}

// RewardTx extends LedgerTx with the engagement-event operations so a
// reward issuance is one atomic unit: event upsert, eligibility re-check
// reads, ledger credit, approval mark and completion-count bump.
type RewardTx interface {
	LedgerTx

	// InsertEventIfAbsent inserts a PENDING event on the idempotency key
	// (user, task, window start). When a row already exists it is returned
	// with created == false and nothing is written.
	InsertEventIfAbsent(ctx context.Context, event *domain.EngagementEvent) (existing *domain.EngagementEvent, created bool, err error)
	GetTaskForUpdate(ctx context.Context, taskID uuid.UUID) (*domain.EngagementTask, error)
	MarkEventApproved(ctx context.Context, eventID, transactionID uuid.UUID) error
	MarkEventRejected(ctx context.Context, eventID uuid.UUID) error
	IncrementCompletionCount(ctx context.Context, taskID uuid.UUID) error
	CountRewardActionsSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
}

// RoundTx extends LedgerTx with entry accounting performed under the round
// row lock, so the OPEN check, the ENTRY debit and the entry append cannot
// race a lock transition.
type RoundTx interface {
	LedgerTx

	GetRoundForUpdate(ctx context.Context, roundID uuid.UUID) (*domain.Round, error)
	InsertEntry(ctx context.Context, entry *domain.Entry) error
	AddToPool(ctx context.Context, roundID uuid.UUID, amountSUP decimal.Decimal) error
}

// PrizeTx extends LedgerTx with prize-row insertion so one tier's Prize row
// and its PRIZE credit land in the same unit of work.
type PrizeTx interface {
	LedgerTx

	// InsertPrizeIfAbsent inserts the prize unless (round, tier) already
	// has one; inserted == false means the tier was settled previously.
	InsertPrizeIfAbsent(ctx context.Context, prize *domain.Prize) (inserted bool, err error)
}

package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/civiclabs-ng/supcore/internal/domain"
)

// Ledger defines the data access required by the ledger service
type Ledger interface {
	GetWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Transaction, error)

	BeginLedgerTx(ctx context.Context) (LedgerTx, error)
}

package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/civiclabs-ng/supcore/internal/domain"
	"github.com/civiclabs-ng/supcore/internal/logger"
	"github.com/civiclabs-ng/supcore/internal/metrics"
	"github.com/civiclabs-ng/supcore/internal/repository"
)

// Mutation describes one wallet movement. AmountSUP is always positive;
// the direction comes from calling Credit or Debit.
type Mutation struct {
	UserID    uuid.UUID
	Type      domain.TransactionType
	AmountSUP decimal.Decimal
	AmountNGN decimal.Decimal
	Metadata  domain.TxMetadata
}

// ApplyResult reports the outcome of a ledger mutation
type ApplyResult struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	NewBalance    decimal.Decimal `json:"new_balance"`
}

// Service defines the interface for ledger operations
type Service interface {
	Credit(ctx context.Context, m Mutation) (*ApplyResult, error)
	Debit(ctx context.Context, m Mutation) (*ApplyResult, error)
	BalanceOf(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	History(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Transaction, error)

	// CreditTx and DebitTx apply a mutation inside a caller-owned
	// transaction so a reward, entry or prize lands atomically with its
	// ledger movement.
	CreditTx(ctx context.Context, tx repository.LedgerTx, m Mutation) (*ApplyResult, error)
	DebitTx(ctx context.Context, tx repository.LedgerTx, m Mutation) (*ApplyResult, error)
}

type service struct {
	repo repository.Ledger
	now  func() time.Time
}

// NewService creates a new ledger service
func NewService(repo repository.Ledger) Service {
	return &service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// validateMutation rejects non-positive or sub-cent amounts and metadata
// that does not match the transaction type
func validateMutation(m Mutation) error {
	if !domain.ValidTransactionTypes[m.Type] {
		return fmt.Errorf("%w: unknown transaction type %q", domain.ErrInvalidInput, m.Type)
	}
	if !m.AmountSUP.IsPositive() || !m.AmountSUP.Equal(m.AmountSUP.Round(2)) {
		return fmt.Errorf("%w: %s", domain.ErrInvalidAmount, m.AmountSUP)
	}
	if m.AmountNGN.IsNegative() || !m.AmountNGN.Equal(m.AmountNGN.Round(2)) {
		return fmt.Errorf("%w: %s", domain.ErrInvalidAmount, m.AmountNGN)
	}
	return m.Metadata.Validate(m.Type)
}

func (s *service) Credit(ctx context.Context, m Mutation) (*ApplyResult, error) {
	return s.apply(ctx, m, false)
}

func (s *service) Debit(ctx context.Context, m Mutation) (*ApplyResult, error) {
	return s.apply(ctx, m, true)
}

func (s *service) apply(ctx context.Context, m Mutation, debit bool) (*ApplyResult, error) {
	log := logger.FromContext(ctx)
	if debit {
		log.Info(LogMsgDebitCalled, "userID", m.UserID, "type", m.Type, "amount", m.AmountSUP)
	} else {
		log.Info(LogMsgCreditCalled, "userID", m.UserID, "type", m.Type, "amount", m.AmountSUP)
	}

	if err := validateMutation(m); err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginLedgerTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrContextFailedToBeginTx, err)
	}
	defer repository.SafeRollback(ctx, tx)

	result, err := s.applyTx(ctx, tx, m, debit)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrContextFailedToCommitTx, err)
	}
	return result, nil
}

func (s *service) CreditTx(ctx context.Context, tx repository.LedgerTx, m Mutation) (*ApplyResult, error) {
	if err := validateMutation(m); err != nil {
		return nil, err
	}
	return s.applyTx(ctx, tx, m, false)
}

func (s *service) DebitTx(ctx context.Context, tx repository.LedgerTx, m Mutation) (*ApplyResult, error) {
	if err := validateMutation(m); err != nil {
		return nil, err
	}
	return s.applyTx(ctx, tx, m, true)
}

// applyTx performs the mutation with the wallet row locked. The wallet is
// created on first credit; a debit against a missing wallet fails closed.
func (s *service) applyTx(ctx context.Context, tx repository.LedgerTx, m Mutation, debit bool) (*ApplyResult, error) {
	log := logger.FromContext(ctx)

	wallet, err := tx.GetWalletForUpdate(ctx, m.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrContextFailedToGetWallet, err)
	}
	if wallet == nil {
		if debit {
			return nil, domain.ErrWalletNotFound
		}
		wallet = domain.NewWallet(m.UserID)
		wallet.CreatedAt = s.now()
		wallet.UpdatedAt = wallet.CreatedAt
		if err := tx.CreateWallet(ctx, wallet); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrContextFailedToCreateWallet, err)
		}
		log.Info(LogMsgWalletCreated, "userID", m.UserID)
	}

	amountSUP := m.AmountSUP
	if debit {
		amountSUP = amountSUP.Neg()
	}

	newBalance := wallet.SUPBalance.Add(amountSUP)
	if newBalance.IsNegative() {
		return nil, fmt.Errorf("%w: balance %s, debit %s",
			domain.ErrInsufficientFunds, wallet.SUPBalance, m.AmountSUP)
	}

	// A CASHOUT holds the NGN leg in escrow until the gateway confirms
	ngnEscrow := wallet.NGNEscrow
	if m.Type == domain.TxTypeCashout {
		ngnEscrow = ngnEscrow.Add(m.AmountNGN)
	}

	record := &domain.Transaction{
		ID:        uuid.New(),
		UserID:    m.UserID,
		Type:      m.Type,
		AmountSUP: amountSUP,
		AmountNGN: m.AmountNGN,
		Metadata:  m.Metadata,
		CreatedAt: s.now(),
	}
	if err := tx.InsertTransaction(ctx, record); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrContextFailedToApply, err)
	}
	if err := tx.UpdateWalletBalances(ctx, m.UserID, newBalance, ngnEscrow); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrContextFailedToApply, err)
	}

	metrics.LedgerTransactionsTotal.WithLabelValues(string(m.Type)).Inc()

	return &ApplyResult{TransactionID: record.ID, NewBalance: newBalance}, nil
}

func (s *service) BalanceOf(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	log := logger.FromContext(ctx)
	log.Debug(LogMsgBalanceOfCalled, "userID", userID)

	wallet, err := s.repo.GetWallet(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrContextFailedToGetWallet, err)
	}
	if wallet == nil {
		return nil, domain.ErrWalletNotFound
	}
	return wallet, nil
}

func (s *service) History(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Transaction, error) {
	log := logger.FromContext(ctx)
	log.Debug(LogMsgHistoryCalled, "userID", userID, "limit", limit)

	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return s.repo.ListTransactions(ctx, userID, limit)
}

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/civiclabs-ng/supcore/internal/domain"
	"github.com/civiclabs-ng/supcore/internal/repository"
)

// LedgerRepository implements the ledger repository for PostgreSQL
type LedgerRepository struct {
	db *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository
func NewLedgerRepository(db *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{db: db}
}

const walletColumns = `user_id, sup_balance::text, ngn_escrow::text, created_at, updated_at`

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	var w domain.Wallet
	var sup, ngn string
	if err := row.Scan(&w.UserID, &sup, &ngn, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if w.SUPBalance, err = parseAmount(sup); err != nil {
		return nil, err
	}
	if w.NGNEscrow, err = parseAmount(ngn); err != nil {
		return nil, err
	}
	return &w, nil
}

// GetWallet retrieves a wallet by user ID, or nil when none exists
func (r *LedgerRepository) GetWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1`
	w, err := scanWallet(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetWallet, err)
	}
	return w, nil
}

// ListTransactions returns a user's most recent ledger entries, newest first
func (r *LedgerRepository) ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Transaction, error) {
	query := `
		SELECT id, user_id, type, amount_sup::text, amount_ngn::text, metadata, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToQueryTransactions, err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToQueryTransactions, err)
	}
	return txs, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var tx domain.Transaction
	var sup, ngn string
	var rawMeta []byte
	if err := row.Scan(&tx.ID, &tx.UserID, &tx.Type, &sup, &ngn, &rawMeta, &tx.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if tx.AmountSUP, err = parseAmount(sup); err != nil {
		return nil, err
	}
	if tx.AmountNGN, err = parseAmount(ngn); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(rawMeta, &tx.Metadata); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToDecodeTxMetadata, err)
	}
	return &tx, nil
}

// BeginLedgerTx starts a transaction scoped to a single wallet mutation
func (r *LedgerRepository) BeginLedgerTx(ctx context.Context) (repository.LedgerTx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToBeginTransaction, err)
	}
	return &ledgerTx{tx: tx}, nil
}

// ledgerTx implements repository.LedgerTx on a pgx transaction
type ledgerTx struct {
	tx pgx.Tx
}

func (t *ledgerTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToCommitTransaction, err)
	}
	return nil
}

func (t *ledgerTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

// GetWalletForUpdate locks the wallet row for the rest of the transaction
func (t *ledgerTx) GetWalletForUpdate(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1 FOR UPDATE`
	w, err := scanWallet(t.tx.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetWallet, err)
	}
	return w, nil
}

func (t *ledgerTx) CreateWallet(ctx context.Context, wallet *domain.Wallet) error {
	query := `
		INSERT INTO wallets (user_id, sup_balance, ngn_escrow, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := t.tx.Exec(ctx, query,
		wallet.UserID,
		wallet.SUPBalance.String(),
		wallet.NGNEscrow.String(),
		wallet.CreatedAt,
		wallet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToCreateWallet, err)
	}
	return nil
}

func (t *ledgerTx) UpdateWalletBalances(ctx context.Context, userID uuid.UUID, supBalance, ngnEscrow decimal.Decimal) error {
	query := `
		UPDATE wallets
		SET sup_balance = $2, ngn_escrow = $3, updated_at = NOW()
		WHERE user_id = $1
	`
	_, err := t.tx.Exec(ctx, query, userID, supBalance.String(), ngnEscrow.String())
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToUpdateWallet, err)
	}
	return nil
}

func (t *ledgerTx) InsertTransaction(ctx context.Context, tx *domain.Transaction) error {
	metaBytes, err := json.Marshal(tx.Metadata)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToMarshalTxMetadata, err)
	}

	query := `
		INSERT INTO transactions (id, user_id, type, amount_sup, amount_ngn, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = t.tx.Exec(ctx, query,
		tx.ID,
		tx.UserID,
		string(tx.Type),
		tx.AmountSUP.String(),
		tx.AmountNGN.String(),
		metaBytes,
		tx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToInsertTransaction, err)
	}
	return nil
}

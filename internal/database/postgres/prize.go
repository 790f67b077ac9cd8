package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civiclabs-ng/supcore/internal/domain"
	"github.com/civiclabs-ng/supcore/internal/repository"
)

// PrizeRepository implements the prize repository for PostgreSQL
type PrizeRepository struct {
	db *pgxpool.Pool
}

// NewPrizeRepository creates a new PrizeRepository
func NewPrizeRepository(db *pgxpool.Pool) *PrizeRepository {
	return &PrizeRepository{db: db}
}

// ListPrizes returns a round's settled prizes ordered by tier
func (r *PrizeRepository) ListPrizes(ctx context.Context, roundID uuid.UUID) ([]domain.Prize, error) {
	query := `
		SELECT id, round_id, user_id, tier, amount_sup::text, paid_at
		FROM prizes
		WHERE round_id = $1
		ORDER BY tier
	`
	rows, err := r.db.Query(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToQueryPrizes, err)
	}
	defer rows.Close()

	var prizes []domain.Prize
	for rows.Next() {
		var p domain.Prize
		var amount string
		if err := rows.Scan(&p.ID, &p.RoundID, &p.UserID, &p.Tier, &amount, &p.PaidAt); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToQueryPrizes, err)
		}
		if p.AmountSUP, err = parseAmount(amount); err != nil {
			return nil, err
		}
		prizes = append(prizes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToQueryPrizes, err)
	}
	return prizes, nil
}

// BeginPrizeTx starts a transaction spanning one tier's settlement
func (r *PrizeRepository) BeginPrizeTx(ctx context.Context) (repository.PrizeTx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToBeginTransaction, err)
	}
	return &prizeTx{ledgerTx{tx: tx}}, nil
}

// prizeTx implements repository.PrizeTx on a pgx transaction
type prizeTx struct {
	ledgerTx
}

// InsertPrizeIfAbsent inserts the prize unless (round, tier) already has
// one. inserted == false means the tier settled previously and the caller
// must skip the credit as well.
func (t *prizeTx) InsertPrizeIfAbsent(ctx context.Context, prize *domain.Prize) (bool, error) {
	query := `
		INSERT INTO prizes (id, round_id, user_id, tier, amount_sup, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (round_id, tier) DO NOTHING
	`
	result, err := t.tx.Exec(ctx, query,
		prize.ID, prize.RoundID, prize.UserID, prize.Tier, prize.AmountSUP.String(), prize.PaidAt,
	)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == PgErrorCodeUniqueViolation {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", ErrMsgFailedToInsertPrize, err)
	}
	return result.RowsAffected() == 1, nil
}

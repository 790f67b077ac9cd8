package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/civiclabs-ng/supcore/internal/domain"
	"github.com/civiclabs-ng/supcore/internal/repository"
)

// RoundRepository implements the round repository for PostgreSQL
type RoundRepository struct {
	db *pgxpool.Pool
}

// NewRoundRepository creates a new RoundRepository
func NewRoundRepository(db *pgxpool.Pool) *RoundRepository {
	return &RoundRepository{db: db}
}

const roundColumns = `id, kind, status, pool_sup::text, split_projects_pct, split_prizes_pct,
	split_platform_pct, commit_hash, reveal_seed, opened_at, closes_at, locked_at, drawn_at`

func scanRound(row pgx.Row) (*domain.Round, error) {
	var r domain.Round
	var pool string
	err := row.Scan(&r.ID, &r.Kind, &r.Status, &pool,
		&r.Split.ProjectsPct, &r.Split.PrizesPct, &r.Split.PlatformPct,
		&r.CommitHash, &r.RevealSeed, &r.OpenedAt, &r.ClosesAt, &r.LockedAt, &r.DrawnAt)
	if err != nil {
		return nil, err
	}
	if r.PoolSUP, err = parseAmount(pool); err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateRound inserts a new round record
func (r *RoundRepository) CreateRound(ctx context.Context, round *domain.Round) error {
	query := `
		INSERT INTO rounds (id, kind, status, pool_sup, split_projects_pct, split_prizes_pct,
			split_platform_pct, commit_hash, opened_at, closes_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		round.ID, string(round.Kind), string(round.Status), round.PoolSUP.String(),
		round.Split.ProjectsPct, round.Split.PrizesPct, round.Split.PlatformPct,
		round.CommitHash, round.OpenedAt, round.ClosesAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToCreateRound, err)
	}
	return nil
}

// GetRound retrieves a round by ID, or nil when none exists
func (r *RoundRepository) GetRound(ctx context.Context, roundID uuid.UUID) (*domain.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM rounds WHERE id = $1`
	round, err := scanRound(r.db.QueryRow(ctx, query, roundID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetRound, err)
	}
	return round, nil
}

// ListRoundsByStatus returns rounds in the given status ordered by closes_at
func (r *RoundRepository) ListRoundsByStatus(ctx context.Context, status domain.RoundStatus) ([]domain.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM rounds WHERE status = $1 ORDER BY closes_at`
	rows, err := r.db.Query(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToQueryRounds, err)
	}
	defer rows.Close()

	var rounds []domain.Round
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, *round)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToQueryRounds, err)
	}
	return rounds, nil
}

// ListEntries returns a round's entries in draw order
func (r *RoundRepository) ListEntries(ctx context.Context, roundID uuid.UUID) ([]domain.Entry, error) {
	query := `
		SELECT id, round_id, user_id, tickets, source, created_at
		FROM entries
		WHERE round_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.Query(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToQueryEntries, err)
	}
	defer rows.Close()

	var entries []domain.Entry
	for rows.Next() {
		var e domain.Entry
		if err := rows.Scan(&e.ID, &e.RoundID, &e.UserID, &e.Tickets, &e.Source, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToQueryEntries, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToQueryEntries, err)
	}
	return entries, nil
}

// CountEntries returns the number of entries in a round
func (r *RoundRepository) CountEntries(ctx context.Context, roundID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM entries WHERE round_id = $1`, roundID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgFailedToCountEntries, err)
	}
	return count, nil
}

// UpdateStatusIfMatches performs a compare-and-swap operation on round status.
// Returns the number of rows affected (0 if status didn't match, 1 if updated).
// This prevents duplicate lifecycle transitions under concurrent operators.
func (r *RoundRepository) UpdateStatusIfMatches(ctx context.Context, roundID uuid.UUID, expected, next domain.RoundStatus, at time.Time) (int64, error) {
	query := `
		UPDATE rounds
		SET status = $2,
		    locked_at = CASE WHEN $2 = 'LOCKED' THEN $4 ELSE locked_at END
		WHERE id = $1 AND status = $3
	`
	result, err := r.db.Exec(ctx, query, roundID, string(next), string(expected), at)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgFailedToUpdateRoundStatus, err)
	}
	return result.RowsAffected(), nil
}

// RecordReveal persists the reveal seed with the LOCKED -> DRAWN transition
func (r *RoundRepository) RecordReveal(ctx context.Context, roundID uuid.UUID, revealSeed string, drawnAt time.Time) (int64, error) {
	query := `
		UPDATE rounds
		SET status = $2, reveal_seed = $3, drawn_at = $4
		WHERE id = $1 AND status = $5
	`
	result, err := r.db.Exec(ctx, query, roundID,
		string(domain.RoundStatusDrawn), revealSeed, drawnAt, string(domain.RoundStatusLocked))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgFailedToRecordReveal, err)
	}
	return result.RowsAffected(), nil
}

// DeleteRoundIfEmpty removes an OPEN round with no entries
func (r *RoundRepository) DeleteRoundIfEmpty(ctx context.Context, roundID uuid.UUID) (int64, error) {
	query := `
		DELETE FROM rounds
		WHERE id = $1 AND status = $2
		  AND NOT EXISTS (SELECT 1 FROM entries WHERE round_id = $1)
	`
	result, err := r.db.Exec(ctx, query, roundID, string(domain.RoundStatusOpen))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgFailedToDeleteRound, err)
	}
	return result.RowsAffected(), nil
}

// BeginRoundTx starts a transaction spanning one entry purchase
func (r *RoundRepository) BeginRoundTx(ctx context.Context) (repository.RoundTx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToBeginTransaction, err)
	}
	return &roundTx{ledgerTx{tx: tx}}, nil
}

// roundTx implements repository.RoundTx on a pgx transaction
type roundTx struct {
	ledgerTx
}

// GetRoundForUpdate locks the round row so the OPEN check and the entry
// append cannot race a lock transition
func (t *roundTx) GetRoundForUpdate(ctx context.Context, roundID uuid.UUID) (*domain.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM rounds WHERE id = $1 FOR UPDATE`
	round, err := scanRound(t.tx.QueryRow(ctx, query, roundID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetRound, err)
	}
	return round, nil
}

func (t *roundTx) InsertEntry(ctx context.Context, entry *domain.Entry) error {
	query := `
		INSERT INTO entries (round_id, user_id, tickets, source, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := t.tx.QueryRow(ctx, query,
		entry.RoundID, entry.UserID, entry.Tickets, string(entry.Source), entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToInsertEntry, err)
	}
	return nil
}

func (t *roundTx) AddToPool(ctx context.Context, roundID uuid.UUID, amountSUP decimal.Decimal) error {
	query := `UPDATE rounds SET pool_sup = pool_sup + $2 WHERE id = $1`
	_, err := t.tx.Exec(ctx, query, roundID, amountSUP.String())
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToAddToPool, err)
	}
	return nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civiclabs-ng/supcore/internal/domain"
)

// UserRepository implements the user repository for PostgreSQL
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const profileColumns = `user_id, handle, verification_tier, created_at, updated_at`

func scanProfile(row pgx.Row) (*domain.UserProfile, error) {
	var p domain.UserProfile
	var tier int
	err := row.Scan(&p.UserID, &p.Handle, &tier, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.VerificationTier = domain.VerificationTier(tier)
	return &p, nil
}

// GetProfile returns a profile by user id, or nil when none exists
func (r *UserRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM user_profiles WHERE user_id = $1`
	p, err := scanProfile(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetProfile, err)
	}
	return p, nil
}

// UpsertProfile inserts or updates a profile by user id
func (r *UserRepository) UpsertProfile(ctx context.Context, profile *domain.UserProfile) (*domain.UserProfile, error) {
	query := `
		INSERT INTO user_profiles (user_id, handle, verification_tier)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			handle = EXCLUDED.handle,
			verification_tier = EXCLUDED.verification_tier,
			updated_at = NOW()
		RETURNING ` + profileColumns
	p, err := scanProfile(r.db.QueryRow(ctx, query,
		profile.UserID, profile.Handle, int(profile.VerificationTier)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToUpsertProfile, err)
	}
	return p, nil
}

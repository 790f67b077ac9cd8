package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/civiclabs-ng/supcore/internal/domain"
)

// Round defines the data access required by the round manager
type Round interface {
	CreateRound(ctx context.Context, round *domain.Round) error
	GetRound(ctx context.Context, roundID uuid.UUID) (*domain.Round, error)
	ListRoundsByStatus(ctx context.Context, status domain.RoundStatus) ([]domain.Round, error)

	// ListEntries returns a round's entries in the stable draw order:
	// creation order, then entry id
	ListEntries(ctx context.Context, roundID uuid.UUID) ([]domain.Entry, error)
	CountEntries(ctx context.Context, roundID uuid.UUID) (int64, error)

	// UpdateStatusIfMatches performs a compare-and-swap on round status and
	// returns the number of rows affected (0 when the status moved already)
	UpdateStatusIfMatches(ctx context.Context, roundID uuid.UUID, expected, next domain.RoundStatus, at time.Time) (int64, error)

	// RecordReveal persists the reveal seed and drawn-at alongside the
	// LOCKED -> DRAWN transition; rows affected is 0 when the round was not
	// LOCKED
	RecordReveal(ctx context.Context, roundID uuid.UUID, revealSeed string, drawnAt time.Time) (int64, error)

	// DeleteRoundIfEmpty removes an OPEN round that has no entries
	DeleteRoundIfEmpty(ctx context.Context, roundID uuid.UUID) (int64, error)

	BeginRoundTx(ctx context.Context) (RoundTx, error)
}

// Prize defines the data access required by payout settlement
type Prize interface {
	ListPrizes(ctx context.Context, roundID uuid.UUID) ([]domain.Prize, error)

	BeginPrizeTx(ctx context.Context) (PrizeTx, error)
}

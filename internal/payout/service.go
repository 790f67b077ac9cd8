// Package payout settles a drawn round: the prize share of the pool is
// split across tiers by a fixed weighting table and paid as PRIZE credits,
// idempotently per (round, tier).
package payout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/civiclabs-ng/supcore/internal/domain"
	"github.com/civiclabs-ng/supcore/internal/event"
	"github.com/civiclabs-ng/supcore/internal/ledger"
	"github.com/civiclabs-ng/supcore/internal/logger"
	"github.com/civiclabs-ng/supcore/internal/repository"
)

var oneHundred = decimal.NewFromInt(100)

// Service defines the interface for payout operations
type Service interface {
	Settle(ctx context.Context, round *domain.Round, winners []domain.Winner) ([]domain.Prize, error)
	Settled(ctx context.Context, roundID uuid.UUID, winners []domain.Winner) (bool, error)
	Tiers() int
}

type service struct {
	repo      repository.Prize
	ledgerSvc ledger.Service
	eventBus  event.Bus
	weights   []int
	now       func() time.Time
}

// NewService creates a new payout service. weights is the per-tier prize
// weighting table; nil selects the default 50/30/20 split.
func NewService(repo repository.Prize, ledgerSvc ledger.Service, eventBus event.Bus, weights []int) Service {
	if len(weights) == 0 {
		weights = DefaultTierWeights
	}
	return &service{
		repo:      repo,
		ledgerSvc: ledgerSvc,
		eventBus:  eventBus,
		weights:   weights,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Tiers returns the number of prize tiers the weighting table defines
func (s *service) Tiers() int {
	return len(s.weights)
}

// TierAmounts splits a prize pool across the weighting table. Every amount
// has two decimals; the last tier absorbs the rounding remainder so the
// amounts always sum to the pool's prize share exactly.
func TierAmounts(poolSUP decimal.Decimal, prizesPct int, weights []int) []decimal.Decimal {
	prizePool := poolSUP.Mul(decimal.NewFromInt(int64(prizesPct))).Div(oneHundred).RoundDown(2)

	var sumWeights int64
	for _, w := range weights {
		sumWeights += int64(w)
	}

	amounts := make([]decimal.Decimal, len(weights))
	allocated := decimal.Zero
	for i, w := range weights {
		if i == len(weights)-1 {
			amounts[i] = prizePool.Sub(allocated)
			break
		}
		share := prizePool.Mul(decimal.NewFromInt(int64(w))).
			Div(decimal.NewFromInt(sumWeights)).RoundDown(2)
		amounts[i] = share
		allocated = allocated.Add(share)
	}
	return amounts
}

// Settle pays each winning tier: one Prize row and one PRIZE credit per
// tier in a single transaction. A tier that already has a Prize row is
// skipped, so a partial crash is safe to re-run.
func (s *service) Settle(ctx context.Context, round *domain.Round, winners []domain.Winner) ([]domain.Prize, error) {
	log := logger.FromContext(ctx)
	log.Info(LogMsgSettleCalled, "roundID", round.ID, "winners", len(winners))

	if round.Status != domain.RoundStatusDrawn {
		return nil, fmt.Errorf("%w: status %s", domain.ErrRoundNotDrawn, round.Status)
	}

	amounts := TierAmounts(round.PoolSUP, round.Split.PrizesPct, s.weights)

	for _, w := range winners {
		if w.Tier < 1 || w.Tier > len(amounts) {
			return nil, fmt.Errorf("%w: tier %d outside weighting table", domain.ErrInvalidInput, w.Tier)
		}
		if err := s.settleTier(ctx, round, w, amounts[w.Tier-1]); err != nil {
			return nil, err
		}
	}

	prizes, err := s.repo.ListPrizes(ctx, round.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrContextFailedToListPrizes, err)
	}
	return prizes, nil
}

// Settled reports whether every winning tier already has a Prize row on
// record. A round whose settlement crashed partway returns false until
// Settle is re-run to completion.
func (s *service) Settled(ctx context.Context, roundID uuid.UUID, winners []domain.Winner) (bool, error) {
	prizes, err := s.repo.ListPrizes(ctx, roundID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", ErrContextFailedToListPrizes, err)
	}

	paid := make(map[int]bool, len(prizes))
	for _, p := range prizes {
		paid[p.Tier] = true
	}
	for _, w := range winners {
		if !paid[w.Tier] {
			return false, nil
		}
	}
	return true, nil
}

func (s *service) settleTier(ctx context.Context, round *domain.Round, winner domain.Winner, amount decimal.Decimal) error {
	log := logger.FromContext(ctx)

	tx, err := s.repo.BeginPrizeTx(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrContextFailedToBeginTx, err)
	}
	defer repository.SafeRollback(ctx, tx)

	inserted, err := tx.InsertPrizeIfAbsent(ctx, &domain.Prize{
		ID:        uuid.New(),
		RoundID:   round.ID,
		UserID:    winner.UserID,
		Tier:      winner.Tier,
		AmountSUP: amount,
		PaidAt:    s.now(),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", ErrContextFailedToInsertPrize, err)
	}
	if !inserted {
		log.Info(LogMsgTierSkipped, "roundID", round.ID, "tier", winner.Tier)
		return nil
	}

	_, err = s.ledgerSvc.CreditTx(ctx, tx, ledger.Mutation{
		UserID:    winner.UserID,
		Type:      domain.TxTypePrize,
		AmountSUP: amount,
		Metadata: domain.TxMetadata{
			Prize: &domain.PrizeMetadata{RoundID: round.ID, Tier: winner.Tier},
		},
	})
	if err != nil {
		return fmt.Errorf("%s: %w", ErrContextFailedToCredit, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", ErrContextFailedToCommitTx, err)
	}

	log.Info(LogMsgTierSettled, "roundID", round.ID, "tier", winner.Tier,
		"userID", winner.UserID, "amount", amount)

	if s.eventBus != nil {
		if err := s.eventBus.Publish(ctx, event.NewPrizePaidEvent(
			round.ID.String(), winner.UserID.String(), winner.Tier, amount.String(),
		)); err != nil {
			log.Warn("Failed to publish prize paid event", "error", err)
		}
	}
	return nil
}

// Package round manages the one-way prize round lifecycle:
// OPEN -> LOCKED -> DRAWN -> PAID, with per-round serialization.
package round

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/civiclabs-ng/supcore/internal/concurrency"
	"github.com/civiclabs-ng/supcore/internal/domain"
	"github.com/civiclabs-ng/supcore/internal/draw"
	"github.com/civiclabs-ng/supcore/internal/event"
	"github.com/civiclabs-ng/supcore/internal/ledger"
	"github.com/civiclabs-ng/supcore/internal/logger"
	"github.com/civiclabs-ng/supcore/internal/metrics"
	"github.com/civiclabs-ng/supcore/internal/payout"
	"github.com/civiclabs-ng/supcore/internal/repository"
)

// CreateResult carries the new round and its reveal seed. The seed appears
// here exactly once; it is never persisted at creation, only the commitment
// is. The operator holds the seed until draw time.
type CreateResult struct {
	Round      *domain.Round `json:"round"`
	RevealSeed string        `json:"reveal_seed"`
}

// DrawResult carries the winners and settled prizes of a completed draw
type DrawResult struct {
	Winners []domain.Winner `json:"winners"`
	Prizes  []domain.Prize  `json:"prizes"`
}

// Service defines the interface for round operations
type Service interface {
	CreateRound(ctx context.Context, kind domain.RoundKind, split domain.PoolSplit, closesAt time.Time) (*CreateResult, error)
	GetRound(ctx context.Context, roundID uuid.UUID) (*domain.Round, error)
	ListRoundsByStatus(ctx context.Context, status domain.RoundStatus) ([]domain.Round, error)
	AddEntry(ctx context.Context, roundID, userID uuid.UUID, tickets int64, source domain.EntrySource) (*domain.Entry, error)
	LockRound(ctx context.Context, roundID uuid.UUID) error
	DrawRound(ctx context.Context, roundID uuid.UUID, revealSeed string) (*DrawResult, error)
	MarkPaid(ctx context.Context, roundID uuid.UUID) error
	DeleteRound(ctx context.Context, roundID uuid.UUID) error
}

type service struct {
	repo        repository.Round
	ledgerSvc   ledger.Service
	payoutSvc   payout.Service
	eventBus    event.Bus
	locks       *concurrency.LockManager
	ticketPrice decimal.Decimal
	now         func() time.Time
}

// NewService creates a new round service. ticketPrice is the SUP cost of
// one BUY ticket; it feeds the ENTRY debit and the pool contribution.
func NewService(repo repository.Round, ledgerSvc ledger.Service, payoutSvc payout.Service, eventBus event.Bus, ticketPrice decimal.Decimal) Service {
	return &service{
		repo:        repo,
		ledgerSvc:   ledgerSvc,
		payoutSvc:   payoutSvc,
		eventBus:    eventBus,
		locks:       concurrency.NewLockManager(),
		ticketPrice: ticketPrice,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// lockRound serializes all lifecycle operations for one round in-process.
// The SQL CAS below stays authoritative across processes.
func (s *service) lockRound(roundID uuid.UUID) func() {
	mu := s.locks.GetLock(lockKeyPrefix + roundID.String())
	mu.Lock()
	return mu.Unlock
}

// CreateRound opens a new round. The commitment is published with the
// round; the seed is returned once and forgotten.
func (s *service) CreateRound(ctx context.Context, kind domain.RoundKind, split domain.PoolSplit, closesAt time.Time) (*CreateResult, error) {
	log := logger.FromContext(ctx)
	log.Info(LogMsgCreateRoundCalled, "kind", kind, "closesAt", closesAt)

	if kind != domain.RoundKindDaily && kind != domain.RoundKindWeekly {
		return nil, fmt.Errorf("%w: unknown round kind %q", domain.ErrInvalidInput, kind)
	}
	if !split.Valid() {
		return nil, fmt.Errorf("%w: %d/%d/%d", domain.ErrInvalidPoolSplit,
			split.ProjectsPct, split.PrizesPct, split.PlatformPct)
	}
	now := s.now()
	if !closesAt.After(now) {
		return nil, fmt.Errorf("%w: closes_at must be in the future", domain.ErrInvalidInput)
	}

	seed, err := draw.NewSeed()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrContextFailedToGenerateSeed, err)
	}

	roundID := uuid.New()
	round := &domain.Round{
		ID:         roundID,
		Kind:       kind,
		Status:     domain.RoundStatusOpen,
		PoolSUP:    decimal.Zero,
		Split:      split,
		CommitHash: draw.ComputeCommitment(seed, roundID),
		OpenedAt:   now,
		ClosesAt:   closesAt,
	}

	if err := s.repo.CreateRound(ctx, round); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrContextFailedToCreateRound, err)
	}

	metrics.RoundTransitions.WithLabelValues(string(kind), string(domain.RoundStatusOpen)).Inc()
	log.Info(LogMsgRoundCreated, "roundID", round.ID, "commitHash", round.CommitHash)

	if s.eventBus != nil {
		if err := s.eventBus.Publish(ctx, event.NewRoundOpenedEvent(
			round.ID.String(), string(kind), round.CommitHash, closesAt,
		)); err != nil {
			log.Warn("Failed to publish round opened event", "error", err)
		}
	}

	return &CreateResult{Round: round, RevealSeed: seed}, nil
}

func (s *service) GetRound(ctx context.Context, roundID uuid.UUID) (*domain.Round, error) {
	round, err := s.repo.GetRound(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrContextFailedToGetRound, err)
	}
	if round == nil {
		return nil, domain.ErrRoundNotFound
	}
	return round, nil
}

func (s *service) ListRoundsByStatus(ctx context.Context, status domain.RoundStatus) ([]domain.Round, error) {
	return s.repo.ListRoundsByStatus(ctx, status)
}

// AddEntry appends tickets to an OPEN round. BUY entries debit the buyer
// and add the ticket cost to the pool in the same transaction; EARNED
// entries are granted free of charge by engagement flows.
func (s *service) AddEntry(ctx context.Context, roundID, userID uuid.UUID, tickets int64, source domain.EntrySource) (*domain.Entry, error) {
	log := logger.FromContext(ctx)
	log.Info(LogMsgAddEntryCalled, "roundID", roundID, "userID", userID, "tickets", tickets, "source", source)

	if tickets <= 0 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidTickets, tickets)
	}
	if source != domain.EntrySourceBuy && source != domain.EntrySourceEarned {
		return nil, fmt.Errorf("%w: unknown entry source %q", domain.ErrInvalidInput, source)
	}

	unlock := s.lockRound(roundID)
	defer unlock()

	tx, err := s.repo.BeginRoundTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrContextFailedToBeginTx, err)
	}
	defer repository.SafeRollback(ctx, tx)

	round, err := tx.GetRoundForUpdate(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrContextFailedToGetRound, err)
	}
	if round == nil {
		return nil, domain.ErrRoundNotFound
	}
	if round.Status != domain.RoundStatusOpen {
		return nil, fmt.Errorf("%w: status %s", domain.ErrRoundNotOpen, round.Status)
	}

	if source == domain.EntrySourceBuy {
		cost := s.ticketPrice.Mul(decimal.NewFromInt(tickets))
		_, err := s.ledgerSvc.DebitTx(ctx, tx, ledger.Mutation{
			UserID:    userID,
			Type:      domain.TxTypeEntry,
			AmountSUP: cost,
			Metadata: domain.TxMetadata{
				Entry: &domain.EntryMetadata{RoundID: roundID, Tickets: tickets},
			},
		})
		if err != nil {
			return nil, err
		}
		if err := tx.AddToPool(ctx, roundID, cost); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrContextFailedToAddToPool, err)
		}
	}

	entry := &domain.Entry{
		RoundID:   roundID,
		UserID:    userID,
		Tickets:   tickets,
		Source:    source,
		CreatedAt: s.now(),
	}
	if err := tx.InsertEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrContextFailedToInsertEntry, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrContextFailedToCommitTx, err)
	}

	metrics.EntriesAdded.WithLabelValues(string(source)).Inc()
	return entry, nil
}

// LockRound freezes an OPEN round's entries via compare-and-swap
func (s *service) LockRound(ctx context.Context, roundID uuid.UUID) error {
	log := logger.FromContext(ctx)
	log.Info(LogMsgLockRoundCalled, "roundID", roundID)

	unlock := s.lockRound(roundID)
	defer unlock()

	affected, err := s.repo.UpdateStatusIfMatches(ctx, roundID,
		domain.RoundStatusOpen, domain.RoundStatusLocked, s.now())
	if err != nil {
		return fmt.Errorf("%s: %w", ErrContextFailedToTransition, err)
	}
	if affected == 0 {
		round, err := s.repo.GetRound(ctx, roundID)
		if err != nil {
			return fmt.Errorf("%s: %w", ErrContextFailedToGetRound, err)
		}
		if round == nil {
			return domain.ErrRoundNotFound
		}
		return fmt.Errorf("%w: status %s", domain.ErrRoundNotOpen, round.Status)
	}

	round, err := s.repo.GetRound(ctx, roundID)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrContextFailedToGetRound, err)
	}
	entryCount, err := s.repo.CountEntries(ctx, roundID)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrContextFailedToListEntries, err)
	}

	metrics.RoundTransitions.WithLabelValues(string(round.Kind), string(domain.RoundStatusLocked)).Inc()
	log.Info(LogMsgRoundLocked, "roundID", roundID, "pool", round.PoolSUP, "entries", entryCount)

	if s.eventBus != nil {
		if err := s.eventBus.Publish(ctx, event.NewRoundLockedEvent(
			roundID.String(), round.PoolSUP.String(), entryCount,
		)); err != nil {
			log.Warn("Failed to publish round locked event", "error", err)
		}
	}
	return nil
}

// DrawRound verifies the operator's reveal seed, selects winners and
// settles prizes. Any failure before the reveal is recorded leaves the
// round LOCKED; an invalid seed is never silently retried. On a DRAWN
// round whose seed matches the recorded reveal, the call re-runs
// settlement instead, so a round stuck after a partial Settle failure
// can be completed by repeating the draw request.
func (s *service) DrawRound(ctx context.Context, roundID uuid.UUID, revealSeed string) (*DrawResult, error) {
	log := logger.FromContext(ctx)
	log.Info(LogMsgDrawRoundCalled, "roundID", roundID)

	unlock := s.lockRound(roundID)
	defer unlock()

	round, err := s.GetRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if round.Status == domain.RoundStatusDrawn {
		return s.resettle(ctx, round, revealSeed)
	}
	if round.Status != domain.RoundStatusLocked {
		return nil, fmt.Errorf("%w: status %s", domain.ErrRoundNotLocked, round.Status)
	}

	entries, err := s.repo.ListEntries(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrContextFailedToListEntries, err)
	}

	winners, err := draw.Draw(round, entries, revealSeed, s.payoutSvc.Tiers())
	if err != nil {
		if errors.Is(err, domain.ErrInvalidReveal) {
			metrics.DrawFailures.Inc()
			log.Warn(LogMsgDrawRejected, "roundID", roundID)
		}
		return nil, err
	}

	drawnAt := s.now()
	affected, err := s.repo.RecordReveal(ctx, roundID, revealSeed, drawnAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrContextFailedToTransition, err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: concurrent transition", domain.ErrRoundNotLocked)
	}

	round.Status = domain.RoundStatusDrawn
	round.RevealSeed = &revealSeed
	round.DrawnAt = &drawnAt

	metrics.RoundTransitions.WithLabelValues(string(round.Kind), string(domain.RoundStatusDrawn)).Inc()
	log.Info(LogMsgRoundDrawn, "roundID", roundID, "winners", len(winners))

	if s.eventBus != nil {
		winnerInfos := make([]event.WinnerInfoV1, len(winners))
		for i, w := range winners {
			winnerInfos[i] = event.WinnerInfoV1{Tier: w.Tier, UserID: w.UserID.String(), EntryID: w.EntryID}
		}
		if err := s.eventBus.Publish(ctx, event.NewRoundDrawnEvent(
			roundID.String(), revealSeed, winnerInfos,
		)); err != nil {
			log.Warn("Failed to publish round drawn event", "error", err)
		}
	}

	prizes, err := s.payoutSvc.Settle(ctx, round, winners)
	if err != nil {
		// The round is DRAWN and the reveal recorded; repeating the draw
		// with the same seed re-runs settlement over the unpaid tiers
		return nil, err
	}

	return &DrawResult{Winners: winners, Prizes: prizes}, nil
}

// resettle completes settlement for a round left DRAWN by a partial
// Settle failure. The caller's seed must match the recorded reveal;
// winners are recomputed deterministically from it and Settle skips
// tiers that were already paid.
func (s *service) resettle(ctx context.Context, round *domain.Round, revealSeed string) (*DrawResult, error) {
	log := logger.FromContext(ctx)

	if round.RevealSeed == nil || revealSeed != *round.RevealSeed {
		return nil, fmt.Errorf("%w: seed does not match the recorded reveal", domain.ErrInvalidReveal)
	}

	entries, err := s.repo.ListEntries(ctx, round.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrContextFailedToListEntries, err)
	}

	winners, err := draw.Draw(round, entries, revealSeed, s.payoutSvc.Tiers())
	if err != nil {
		return nil, err
	}

	log.Info(LogMsgRoundResettling, "roundID", round.ID, "winners", len(winners))

	prizes, err := s.payoutSvc.Settle(ctx, round, winners)
	if err != nil {
		return nil, err
	}
	return &DrawResult{Winners: winners, Prizes: prizes}, nil
}

// MarkPaid confirms settlement, completing the lifecycle. A DRAWN round
// whose winning tiers are missing prize rows is refused until the draw is
// repeated and settlement completes.
func (s *service) MarkPaid(ctx context.Context, roundID uuid.UUID) error {
	log := logger.FromContext(ctx)
	log.Info(LogMsgMarkPaidCalled, "roundID", roundID)

	unlock := s.lockRound(roundID)
	defer unlock()

	round, err := s.GetRound(ctx, roundID)
	if err != nil {
		return err
	}
	if round.Status != domain.RoundStatusDrawn {
		return fmt.Errorf("%w: status %s", domain.ErrRoundNotDrawn, round.Status)
	}

	entries, err := s.repo.ListEntries(ctx, roundID)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrContextFailedToListEntries, err)
	}

	if round.RevealSeed == nil {
		return fmt.Errorf("%w: drawn round has no recorded reveal", domain.ErrRoundNotSettled)
	}

	// The recorded reveal makes the winner selection reproducible, which
	// lets us check every winning tier against the prize rows on record
	winners, err := draw.Draw(round, entries, *round.RevealSeed, s.payoutSvc.Tiers())
	if err != nil {
		return err
	}
	settled, err := s.payoutSvc.Settled(ctx, roundID, winners)
	if err != nil {
		return err
	}
	if !settled {
		return fmt.Errorf("%w: a winning tier has no prize on record", domain.ErrRoundNotSettled)
	}

	affected, err := s.repo.UpdateStatusIfMatches(ctx, roundID,
		domain.RoundStatusDrawn, domain.RoundStatusPaid, s.now())
	if err != nil {
		return fmt.Errorf("%s: %w", ErrContextFailedToTransition, err)
	}
	if affected == 0 {
		round, err := s.repo.GetRound(ctx, roundID)
		if err != nil {
			return fmt.Errorf("%s: %w", ErrContextFailedToGetRound, err)
		}
		if round == nil {
			return domain.ErrRoundNotFound
		}
		return fmt.Errorf("%w: status %s", domain.ErrRoundNotDrawn, round.Status)
	}

	log.Info(LogMsgRoundPaid, "roundID", roundID)
	if s.eventBus != nil {
		if err := s.eventBus.Publish(ctx, event.NewRoundPaidEvent(roundID.String())); err != nil {
			log.Warn("Failed to publish round paid event", "error", err)
		}
	}
	return nil
}

// DeleteRound removes an OPEN round that never received entries
func (s *service) DeleteRound(ctx context.Context, roundID uuid.UUID) error {
	log := logger.FromContext(ctx)
	log.Info(LogMsgDeleteRoundCalled, "roundID", roundID)

	unlock := s.lockRound(roundID)
	defer unlock()

	affected, err := s.repo.DeleteRoundIfEmpty(ctx, roundID)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrContextFailedToTransition, err)
	}
	if affected == 0 {
		round, err := s.repo.GetRound(ctx, roundID)
		if err != nil {
			return fmt.Errorf("%s: %w", ErrContextFailedToGetRound, err)
		}
		if round == nil {
			return domain.ErrRoundNotFound
		}
		if round.Status != domain.RoundStatusOpen {
			return fmt.Errorf("%w: status %s", domain.ErrRoundNotOpen, round.Status)
		}
		return domain.ErrRoundNotEmpty
	}

	log.Info(LogMsgRoundDeleted, "roundID", roundID)
	return nil
}

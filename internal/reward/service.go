// Package reward converts an eligible engagement submission into an EARNED
// ledger credit, exactly once per (user, task, window).
package reward

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/civiclabs-ng/supcore/internal/domain"
	"github.com/civiclabs-ng/supcore/internal/eligibility"
	"github.com/civiclabs-ng/supcore/internal/event"
	"github.com/civiclabs-ng/supcore/internal/ledger"
	"github.com/civiclabs-ng/supcore/internal/logger"
	"github.com/civiclabs-ng/supcore/internal/repository"
)

// IssueResult is the success payload of a reward issuance. A duplicate
// submission returns the prior issuance's values with Duplicate set, so
// both writers observe an identical outcome.
type IssueResult struct {
	EventID       uuid.UUID       `json:"event_id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	AmountSUP     decimal.Decimal `json:"amount_sup"`
	NewBalance    decimal.Decimal `json:"new_balance"`
	Duplicate     bool            `json:"duplicate"`
}

// Service defines the interface for reward operations
type Service interface {
	Issue(ctx context.Context, userID, taskID uuid.UUID, payload json.RawMessage) (*IssueResult, error)
}

type service struct {
	repo      repository.Engagement
	ledgerSvc ledger.Service
	gate      eligibility.Gate
	eventBus  event.Bus
	now       func() time.Time
}

// NewService creates a new reward service
func NewService(repo repository.Engagement, ledgerSvc ledger.Service, gate eligibility.Gate, eventBus event.Bus) Service {
	return &service{
		repo:      repo,
		ledgerSvc: ledgerSvc,
		gate:      gate,
		eventBus:  eventBus,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Issue runs one reward issuance as a single database transaction: the
// submission row is claimed on its unique key, the gate re-evaluated on
// rows held under lock, and the credit, approval mark and completion-count
// bump land together or not at all.
func (s *service) Issue(ctx context.Context, userID, taskID uuid.UUID, payload json.RawMessage) (*IssueResult, error) {
	log := logger.FromContext(ctx)
	log.Info(LogMsgIssueCalled, "userID", userID, "taskID", taskID)

	now := s.now()

	task, err := s.gate.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, domain.ErrTaskNotFound
	}

	// External collaborators are consulted outside the transaction; their
	// answers feed the in-transaction evaluation below.
	tier, err := s.gate.TierOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	linkedLive, err := s.gate.LinkedLive(ctx, task)
	if err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginRewardTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrContextFailedToBeginTx, err)
	}
	defer repository.SafeRollback(ctx, tx)

	evt, created, err := tx.InsertEventIfAbsent(ctx, &domain.EngagementEvent{
		ID:          uuid.New(),
		UserID:      userID,
		TaskID:      taskID,
		WindowStart: task.WindowStart(now),
		Status:      domain.EventStatusPending,
		Payload:     payload,
		CreatedAt:   now,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrContextFailedToUpsertEvent, err)
	}

	// A second submission in the same window resolves to the first
	// issuance's result instead of a second credit
	if !created && evt.Status == domain.EventStatusApproved {
		return s.duplicateResult(ctx, task, evt)
	}

	lockedTask, err := tx.GetTaskForUpdate(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if lockedTask == nil {
		return nil, domain.ErrTaskNotFound
	}

	dayStart := now.Truncate(24 * time.Hour)
	actions, err := tx.CountRewardActionsSince(ctx, userID, dayStart)
	if err != nil {
		return nil, err
	}

	gateErr := eligibility.Evaluate(eligibility.Facts{
		Task:         lockedTask,
		Tier:         tier,
		DailyActions: actions,
		LinkedLive:   linkedLive,
		Now:          now,
	}, s.gate.Caps())
	if gateErr != nil {
		// Persist the rejection so the denial is auditable, then surface it
		if err := tx.MarkEventRejected(ctx, evt.ID); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrContextFailedToMarkEvent, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrContextFailedToCommitTx, err)
		}
		log.Info(LogMsgSubmissionRejected, "userID", userID, "taskID", taskID, "error", gateErr)
		return nil, gateErr
	}

	credit, err := s.ledgerSvc.CreditTx(ctx, tx, ledger.Mutation{
		UserID:    userID,
		Type:      domain.TxTypeEarned,
		AmountSUP: lockedTask.RewardSUP,
		Metadata: domain.TxMetadata{
			Earned: &domain.EarnedMetadata{TaskID: taskID, EventID: evt.ID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrContextFailedToCredit, err)
	}

	if err := tx.MarkEventApproved(ctx, evt.ID, credit.TransactionID); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrContextFailedToMarkEvent, err)
	}
	if err := tx.IncrementCompletionCount(ctx, taskID); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrContextFailedToBumpCount, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrContextFailedToCommitTx, err)
	}

	s.gate.InvalidateTask(taskID)
	log.Info(LogMsgRewardIssued, "userID", userID, "taskID", taskID,
		"eventID", evt.ID, "transactionID", credit.TransactionID, "amount", lockedTask.RewardSUP)

	if s.eventBus != nil {
		if err := s.eventBus.Publish(ctx, event.NewRewardIssuedEvent(
			userID.String(), taskID.String(), evt.ID.String(),
			credit.TransactionID.String(), lockedTask.RewardSUP.String(),
		)); err != nil {
			log.Warn("Failed to publish reward issued event", "error", err)
		}
	}

	return &IssueResult{
		EventID:       evt.ID,
		TransactionID: credit.TransactionID,
		AmountSUP:     lockedTask.RewardSUP,
		NewBalance:    credit.NewBalance,
	}, nil
}

// duplicateResult rebuilds the original issuance's payload for a repeat
// submission. DuplicateSubmission is success, not an error.
func (s *service) duplicateResult(ctx context.Context, task *domain.EngagementTask, evt *domain.EngagementEvent) (*IssueResult, error) {
	log := logger.FromContext(ctx)
	log.Info(LogMsgDuplicateResolved, "userID", evt.UserID, "taskID", evt.TaskID, "eventID", evt.ID)

	wallet, err := s.ledgerSvc.BalanceOf(ctx, evt.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrContextFailedToGetBalance, err)
	}

	result := &IssueResult{
		EventID:    evt.ID,
		AmountSUP:  task.RewardSUP,
		NewBalance: wallet.SUPBalance,
		Duplicate:  true,
	}
	if evt.TransactionID != nil {
		result.TransactionID = *evt.TransactionID
	}
	return result, nil
}

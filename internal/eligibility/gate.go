// Package eligibility decides whether a user may earn a reward for a task
// right now. The gate is advisory at the API edge and mandatory inside the
// reward issuer, which re-evaluates the same rules on locked rows.
package eligibility

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/civiclabs-ng/supcore/internal/domain"
	"github.com/civiclabs-ng/supcore/internal/logger"
	"github.com/civiclabs-ng/supcore/internal/metrics"
	"github.com/civiclabs-ng/supcore/internal/repository"
)

// TierProvider reports a user's identity verification tier. Verification
// itself happens in an external system; this module only consumes the level.
type TierProvider interface {
	VerificationTier(ctx context.Context, userID uuid.UUID) (domain.VerificationTier, error)
}

// LinkedEventChecker reports whether a linked civic event is still live.
// Tasks without a linked event skip this check.
type LinkedEventChecker interface {
	EventLive(ctx context.Context, eventID uuid.UUID) (bool, error)
}

// DailyCaps is the per-verification-tier cap on reward-bearing actions per
// UTC day. A zero cap means unlimited for that tier.
type DailyCaps map[domain.VerificationTier]int

// Facts are the already-loaded inputs to one eligibility decision. The
// reward issuer builds Facts from rows it holds under lock so the decision
// inside the transaction cannot be stale.
type Facts struct {
	Task         *domain.EngagementTask
	Tier         domain.VerificationTier
	PriorEvent   *domain.EngagementEvent
	DailyActions int
	LinkedLive   bool
	Now          time.Time
}

// Evaluate applies the eligibility rules to loaded facts. It returns nil or
// an EligibilityError; it never touches storage.
func Evaluate(f Facts, caps DailyCaps) error {
	task := f.Task
	if task == nil {
		return domain.ErrTaskNotFound
	}

	now := f.Now.UTC()
	if now.Before(task.ActiveFrom) || now.After(task.ActiveUntil) {
		return &domain.EligibilityError{Reason: domain.DenialTaskClosed}
	}
	if task.MaxCompletions > 0 && task.CompletionCount >= task.MaxCompletions {
		return &domain.EligibilityError{Reason: domain.DenialTaskClosed}
	}
	if task.LinkedEventID != nil && !f.LinkedLive {
		return &domain.EligibilityError{Reason: domain.DenialTaskClosed}
	}

	if f.PriorEvent != nil && f.PriorEvent.Status != domain.EventStatusRejected {
		return &domain.EligibilityError{Reason: domain.DenialAlreadyCompleted}
	}

	if task.RequiresVerification && f.Tier == domain.TierUnverified {
		return &domain.EligibilityError{Reason: domain.DenialKYCRequired}
	}

	if limit, ok := caps[f.Tier]; ok && limit > 0 && f.DailyActions >= limit {
		return &domain.EligibilityError{Reason: domain.DenialKYCLimitExceeded}
	}

	return nil
}

// Gate defines the interface for eligibility checks
type Gate interface {
	Check(ctx context.Context, userID, taskID uuid.UUID, now time.Time) error
	GetTask(ctx context.Context, taskID uuid.UUID) (*domain.EngagementTask, error)
	Caps() DailyCaps
	LinkedLive(ctx context.Context, task *domain.EngagementTask) (bool, error)
	TierOf(ctx context.Context, userID uuid.UUID) (domain.VerificationTier, error)
	InvalidateTask(taskID uuid.UUID)
}

type gate struct {
	repo   repository.Engagement
	tiers  TierProvider
	linked LinkedEventChecker
	caps   DailyCaps
	cache  *taskCache
}

// NewGate creates a new eligibility gate
func NewGate(repo repository.Engagement, tiers TierProvider, linked LinkedEventChecker, caps DailyCaps) Gate {
	return &gate{
		repo:   repo,
		tiers:  tiers,
		linked: linked,
		caps:   caps,
		cache:  newTaskCache(DefaultTaskCacheSize, DefaultTaskCacheTTL),
	}
}

// Check runs the full gate against current storage. The result can go
// stale immediately; the reward issuer repeats Evaluate inside its
// transaction before crediting.
func (g *gate) Check(ctx context.Context, userID, taskID uuid.UUID, now time.Time) error {
	log := logger.FromContext(ctx)
	log.Debug(LogMsgCheckCalled, "userID", userID, "taskID", taskID)

	task, err := g.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	if task == nil {
		return domain.ErrTaskNotFound
	}

	tier, err := g.TierOf(ctx, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrContextFailedToGetTier, err)
	}

	prior, err := g.repo.GetEvent(ctx, userID, taskID, task.WindowStart(now))
	if err != nil {
		return fmt.Errorf("%s: %w", ErrContextFailedToGetEvent, err)
	}

	linkedLive, err := g.LinkedLive(ctx, task)
	if err != nil {
		return err
	}

	dayStart := now.UTC().Truncate(24 * time.Hour)
	actions, err := g.repo.CountRewardActionsSince(ctx, userID, dayStart)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrContextFailedToCountActions, err)
	}

	err = Evaluate(Facts{
		Task:         task,
		Tier:         tier,
		PriorEvent:   prior,
		DailyActions: actions,
		LinkedLive:   linkedLive,
		Now:          now,
	}, g.caps)
	if err != nil {
		if ee, ok := domain.AsEligibilityError(err); ok {
			log.Info(LogMsgCheckDenied, "userID", userID, "taskID", taskID, "reason", ee.Reason)
			metrics.RewardsDenied.WithLabelValues(string(ee.Reason)).Inc()
		}
		return err
	}
	return nil
}

// GetTask returns a task through the LRU cache, or nil when absent
func (g *gate) GetTask(ctx context.Context, taskID uuid.UUID) (*domain.EngagementTask, error) {
	if task, ok := g.cache.Get(taskID); ok {
		return task, nil
	}

	logger.FromContext(ctx).Debug(LogMsgTaskCacheMiss, "taskID", taskID)
	task, err := g.repo.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrContextFailedToGetTask, err)
	}
	if task != nil {
		g.cache.Set(taskID, task)
	}
	return task, nil
}

func (g *gate) Caps() DailyCaps {
	return g.caps
}

// LinkedLive resolves the liveness of a task's linked civic event
func (g *gate) LinkedLive(ctx context.Context, task *domain.EngagementTask) (bool, error) {
	if task.LinkedEventID == nil {
		return true, nil
	}
	if g.linked == nil {
		return false, nil
	}
	live, err := g.linked.EventLive(ctx, *task.LinkedEventID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", ErrContextFailedToCheckLinked, err)
	}
	return live, nil
}

func (g *gate) TierOf(ctx context.Context, userID uuid.UUID) (domain.VerificationTier, error) {
	return g.tiers.VerificationTier(ctx, userID)
}

func (g *gate) InvalidateTask(taskID uuid.UUID) {
	g.cache.Invalidate(taskID)
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civiclabs-ng/supcore/internal/domain"
	"github.com/civiclabs-ng/supcore/internal/repository"
)

// EngagementRepository implements the engagement repository for PostgreSQL
type EngagementRepository struct {
	db *pgxpool.Pool
}

// NewEngagementRepository creates a new EngagementRepository
func NewEngagementRepository(db *pgxpool.Pool) *EngagementRepository {
	return &EngagementRepository{db: db}
}

const taskColumns = `id, title, reward_sup::text, requires_verification, max_completions,
	completion_count, active_from, active_until, linked_event_id, repeatable, created_at`

func scanTask(row pgx.Row) (*domain.EngagementTask, error) {
	var t domain.EngagementTask
	var reward string
	err := row.Scan(&t.ID, &t.Title, &reward, &t.RequiresVerification, &t.MaxCompletions,
		&t.CompletionCount, &t.ActiveFrom, &t.ActiveUntil, &t.LinkedEventID, &t.Repeatable, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	if t.RewardSUP, err = parseAmount(reward); err != nil {
		return nil, err
	}
	return &t, nil
}

const eventColumns = `id, user_id, task_id, window_start, status, payload, transaction_id, created_at`

func scanEvent(row pgx.Row) (*domain.EngagementEvent, error) {
	var e domain.EngagementEvent
	err := row.Scan(&e.ID, &e.UserID, &e.TaskID, &e.WindowStart, &e.Status,
		&e.Payload, &e.TransactionID, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetTask retrieves a task by ID, or nil when none exists
func (r *EngagementRepository) GetTask(ctx context.Context, taskID uuid.UUID) (*domain.EngagementTask, error) {
	query := `SELECT ` + taskColumns + ` FROM engagement_tasks WHERE id = $1`
	t, err := scanTask(r.db.QueryRow(ctx, query, taskID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetTask, err)
	}
	return t, nil
}

// GetEvent retrieves a submission by its idempotency key, or nil when none exists
func (r *EngagementRepository) GetEvent(ctx context.Context, userID, taskID uuid.UUID, windowStart time.Time) (*domain.EngagementEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM engagement_events
		WHERE user_id = $1 AND task_id = $2 AND window_start = $3`
	e, err := scanEvent(r.db.QueryRow(ctx, query, userID, taskID, windowStart))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetEvent, err)
	}
	return e, nil
}

// UpsertTask inserts or updates a task definition by id. completion_count is
// operational state and is never overwritten on update. xmax = 0 is only true
// for freshly inserted rows, which distinguishes insert from update.
func (r *EngagementRepository) UpsertTask(ctx context.Context, task *domain.EngagementTask) (bool, error) {
	query := `
		INSERT INTO engagement_tasks (id, title, reward_sup, requires_verification, max_completions,
			active_from, active_until, linked_event_id, repeatable)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			reward_sup = EXCLUDED.reward_sup,
			requires_verification = EXCLUDED.requires_verification,
			max_completions = EXCLUDED.max_completions,
			active_from = EXCLUDED.active_from,
			active_until = EXCLUDED.active_until,
			linked_event_id = EXCLUDED.linked_event_id,
			repeatable = EXCLUDED.repeatable
		RETURNING (xmax = 0)
	`
	var created bool
	err := r.db.QueryRow(ctx, query,
		task.ID, task.Title, task.RewardSUP.String(), task.RequiresVerification, task.MaxCompletions,
		task.ActiveFrom, task.ActiveUntil, task.LinkedEventID, task.Repeatable,
	).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("%s: %w", ErrMsgFailedToUpsertTask, err)
	}
	return created, nil
}

// EventLive reports whether a civic event is live right now. An event is
// live when its flag is set and the clock is inside its window.
func (r *EngagementRepository) EventLive(ctx context.Context, eventID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM civic_events
			WHERE id = $1 AND live AND NOW() BETWEEN starts_at AND ends_at
		)
	`
	var live bool
	if err := r.db.QueryRow(ctx, query, eventID).Scan(&live); err != nil {
		return false, fmt.Errorf("%s: %w", ErrMsgFailedToCheckEvent, err)
	}
	return live, nil
}

// CountRewardActionsSince counts a user's approved submissions since the given instant
func (r *EngagementRepository) CountRewardActionsSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	return countRewardActionsSince(ctx, r.db, userID, since)
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func countRewardActionsSince(ctx context.Context, q queryRower, userID uuid.UUID, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM engagement_events
		WHERE user_id = $1 AND status = $2 AND created_at >= $3
	`
	var count int
	err := q.QueryRow(ctx, query, userID, string(domain.EventStatusApproved), since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgFailedToCountActions, err)
	}
	return count, nil
}

// BeginRewardTx starts a transaction spanning one reward issuance
func (r *EngagementRepository) BeginRewardTx(ctx context.Context) (repository.RewardTx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToBeginTransaction, err)
	}
	return &rewardTx{ledgerTx{tx: tx}}, nil
}

// rewardTx implements repository.RewardTx on a pgx transaction
type rewardTx struct {
	ledgerTx
}

// InsertEventIfAbsent inserts a PENDING submission. A conflict on the
// (user, task, window) key returns the winning row with created == false.
func (t *rewardTx) InsertEventIfAbsent(ctx context.Context, event *domain.EngagementEvent) (*domain.EngagementEvent, bool, error) {
	insert := `
		INSERT INTO engagement_events (id, user_id, task_id, window_start, status, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, task_id, window_start) DO NOTHING
		RETURNING ` + eventColumns
	e, err := scanEvent(t.tx.QueryRow(ctx, insert,
		event.ID, event.UserID, event.TaskID, event.WindowStart,
		string(event.Status), event.Payload, event.CreatedAt,
	))
	if err == nil {
		return e, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("%s: %w", ErrMsgFailedToInsertEvent, err)
	}

	// Lost the race: fetch the row that beat us
	query := `SELECT ` + eventColumns + ` FROM engagement_events
		WHERE user_id = $1 AND task_id = $2 AND window_start = $3`
	e, err = scanEvent(t.tx.QueryRow(ctx, query, event.UserID, event.TaskID, event.WindowStart))
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", ErrMsgFailedToGetEvent, err)
	}
	return e, false, nil
}

// GetTaskForUpdate locks the task row so the completion-count check and
// increment cannot race another issuance
func (t *rewardTx) GetTaskForUpdate(ctx context.Context, taskID uuid.UUID) (*domain.EngagementTask, error) {
	query := `SELECT ` + taskColumns + ` FROM engagement_tasks WHERE id = $1 FOR UPDATE`
	task, err := scanTask(t.tx.QueryRow(ctx, query, taskID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetTask, err)
	}
	return task, nil
}

func (t *rewardTx) MarkEventApproved(ctx context.Context, eventID, transactionID uuid.UUID) error {
	query := `UPDATE engagement_events SET status = $2, transaction_id = $3 WHERE id = $1`
	_, err := t.tx.Exec(ctx, query, eventID, string(domain.EventStatusApproved), transactionID)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToUpdateEvent, err)
	}
	return nil
}

func (t *rewardTx) MarkEventRejected(ctx context.Context, eventID uuid.UUID) error {
	query := `UPDATE engagement_events SET status = $2 WHERE id = $1`
	_, err := t.tx.Exec(ctx, query, eventID, string(domain.EventStatusRejected))
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToUpdateEvent, err)
	}
	return nil
}

func (t *rewardTx) IncrementCompletionCount(ctx context.Context, taskID uuid.UUID) error {
	query := `UPDATE engagement_tasks SET completion_count = completion_count + 1 WHERE id = $1`
	_, err := t.tx.Exec(ctx, query, taskID)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToBumpCompletion, err)
	}
	return nil
}

func (t *rewardTx) CountRewardActionsSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	return countRewardActionsSince(ctx, t.tx, userID, since)
}

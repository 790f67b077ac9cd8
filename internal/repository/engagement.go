package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/civiclabs-ng/supcore/internal/domain"
)

// Engagement defines the data access required by the reward issuer and the
// eligibility gate
type Engagement interface {
	GetTask(ctx context.Context, taskID uuid.UUID) (*domain.EngagementTask, error)
	GetEvent(ctx context.Context, userID, taskID uuid.UUID, windowStart time.Time) (*domain.EngagementEvent, error)
	CountRewardActionsSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)

	// UpsertTask inserts or updates a task definition by id, preserving the
	// completion count on update. Returns true when a new row was created.
	UpsertTask(ctx context.Context, task *domain.EngagementTask) (bool, error)

	// EventLive reports whether a linked civic event is currently live.
	// Unknown event ids are simply not live.
	EventLive(ctx context.Context, eventID uuid.UUID) (bool, error)

	BeginRewardTx(ctx context.Context) (RewardTx, error)
}

package eligibility

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiclabs-ng/supcore/internal/domain"
)

func activeTask() *domain.EngagementTask {
	return &domain.EngagementTask{
		ID:          uuid.New(),
		Title:       "Attend town hall",
		RewardSUP:   decimal.NewFromInt(25),
		ActiveFrom:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		ActiveUntil: time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func testCaps() DailyCaps {
	return DailyCaps{
		domain.TierUnverified: 3,
		domain.TierBasic:      20,
		domain.TierFull:       0,
	}
}

var testNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func requireDenial(t *testing.T, err error, reason domain.DenialReason) {
	t.Helper()
	ee, ok := domain.AsEligibilityError(err)
	require.True(t, ok, "expected an eligibility denial, got %v", err)
	assert.Equal(t, reason, ee.Reason)
}

func TestEvaluate_Allows(t *testing.T) {
	err := Evaluate(Facts{
		Task: activeTask(),
		Tier: domain.TierUnverified,
		Now:  testNow,
	}, testCaps())
	assert.NoError(t, err)
}

func TestEvaluate_TaskMissing(t *testing.T) {
	err := Evaluate(Facts{Now: testNow}, testCaps())
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestEvaluate_OutsideActiveWindow(t *testing.T) {
	task := activeTask()

	err := Evaluate(Facts{
		Task: task,
		Now:  task.ActiveFrom.Add(-time.Hour),
	}, testCaps())
	requireDenial(t, err, domain.DenialTaskClosed)

	err = Evaluate(Facts{
		Task: task,
		Now:  task.ActiveUntil.Add(time.Hour),
	}, testCaps())
	requireDenial(t, err, domain.DenialTaskClosed)
}

func TestEvaluate_CompletionCapReached(t *testing.T) {
	task := activeTask()
	task.MaxCompletions = 100
	task.CompletionCount = 100

	err := Evaluate(Facts{Task: task, Now: testNow}, testCaps())
	requireDenial(t, err, domain.DenialTaskClosed)

	// One slot left is still allowed
	task.CompletionCount = 99
	err = Evaluate(Facts{Task: task, Now: testNow}, testCaps())
	assert.NoError(t, err)
}

func TestEvaluate_LinkedEventNotLive(t *testing.T) {
	task := activeTask()
	eventID := uuid.New()
	task.LinkedEventID = &eventID

	err := Evaluate(Facts{Task: task, LinkedLive: false, Now: testNow}, testCaps())
	requireDenial(t, err, domain.DenialTaskClosed)

	err = Evaluate(Facts{Task: task, LinkedLive: true, Now: testNow}, testCaps())
	assert.NoError(t, err)
}

func TestEvaluate_AlreadyCompleted(t *testing.T) {
	task := activeTask()

	for _, status := range []domain.EngagementEventStatus{
		domain.EventStatusPending,
		domain.EventStatusApproved,
	} {
		err := Evaluate(Facts{
			Task:       task,
			PriorEvent: &domain.EngagementEvent{Status: status},
			Now:        testNow,
		}, testCaps())
		requireDenial(t, err, domain.DenialAlreadyCompleted)
	}

	// A rejected submission does not block a retry
	err := Evaluate(Facts{
		Task:       task,
		PriorEvent: &domain.EngagementEvent{Status: domain.EventStatusRejected},
		Now:        testNow,
	}, testCaps())
	assert.NoError(t, err)
}

func TestEvaluate_KYCRequired(t *testing.T) {
	task := activeTask()
	task.RequiresVerification = true

	err := Evaluate(Facts{Task: task, Tier: domain.TierUnverified, Now: testNow}, testCaps())
	requireDenial(t, err, domain.DenialKYCRequired)

	err = Evaluate(Facts{Task: task, Tier: domain.TierBasic, Now: testNow}, testCaps())
	assert.NoError(t, err)
}

func TestEvaluate_DailyCap(t *testing.T) {
	task := activeTask()

	err := Evaluate(Facts{
		Task:         task,
		Tier:         domain.TierUnverified,
		DailyActions: 3,
		Now:          testNow,
	}, testCaps())
	requireDenial(t, err, domain.DenialKYCLimitExceeded)

	err = Evaluate(Facts{
		Task:         task,
		Tier:         domain.TierUnverified,
		DailyActions: 2,
		Now:          testNow,
	}, testCaps())
	assert.NoError(t, err)

	// Zero cap means unlimited
	err = Evaluate(Facts{
		Task:         task,
		Tier:         domain.TierFull,
		DailyActions: 10000,
		Now:          testNow,
	}, testCaps())
	assert.NoError(t, err)
}

func TestTaskCache_VersionInvalidation(t *testing.T) {
	cache := newTaskCache(4, time.Minute)
	task := activeTask()

	cache.Set(task.ID, task)
	got, ok := cache.Get(task.ID)
	require.True(t, ok)
	assert.Equal(t, task.ID, got.ID)

	cache.Invalidate(task.ID)
	_, ok = cache.Get(task.ID)
	assert.False(t, ok)
}

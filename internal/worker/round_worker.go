package worker

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/civiclabs-ng/supcore/internal/domain"
	"github.com/civiclabs-ng/supcore/internal/event"
	"github.com/civiclabs-ng/supcore/internal/logger"
	"github.com/civiclabs-ng/supcore/internal/round"
)

// RoundWorker locks rounds when their close time arrives
type RoundWorker struct {
	BaseWorker
	service round.Service
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewRoundWorker creates a new RoundWorker. The worker carries a lifecycle
// context that Shutdown cancels, so in-flight lock calls stop waiting on
// the database instead of outliving the process.
func NewRoundWorker(service round.Service) *RoundWorker {
	w := &RoundWorker{service: service}
	w.init()
	w.ctx, w.cancel = context.WithCancel(context.Background())
	return w
}

// Start schedules a lock for every round still open on startup, so timers
// lost to a restart are recovered
func (w *RoundWorker) Start() {
	log := logger.FromContext(w.ctx)

	open, err := w.service.ListRoundsByStatus(w.ctx, domain.RoundStatusOpen)
	if err != nil {
		log.Error(LogMsgFailedToCheckOpenRoundsOnStartup, "error", err)
		return
	}

	for _, r := range open {
		w.scheduleLock(r.ID, r.ClosesAt)
	}
}

// Subscribe subscribes the worker to relevant events
func (w *RoundWorker) Subscribe(bus event.Bus) {
	bus.Subscribe(event.RoundOpened, w.handleRoundOpened)
}

func (w *RoundWorker) handleRoundOpened(ctx context.Context, e event.Event) error {
	payload, err := event.DecodePayload[event.RoundOpenedPayloadV1](e.Payload)
	if err != nil {
		return err
	}
	roundID, err := uuid.Parse(payload.RoundID)
	if err != nil {
		return err
	}
	w.scheduleLock(roundID, time.Unix(payload.ClosesAt, 0))
	return nil
}

func (w *RoundWorker) scheduleLock(roundID uuid.UUID, closesAt time.Time) {
	duration := time.Until(closesAt)

	log := logger.FromContext(w.ctx)
	log.Info(LogMsgSchedulingRoundLock, "roundID", roundID, "duration", duration)

	if duration <= 0 {
		w.lockRound(roundID)
		return
	}

	w.stopTimer(roundID)

	timer := time.AfterFunc(duration, func() {
		select {
		case <-w.shutdown:
			return
		default:
		}

		w.lockRound(roundID)
		w.removeTimer(roundID)
	})
	w.registerTimer(roundID, timer)
}

// lockRound locks a round in a tracked goroutine scoped to the worker's
// lifecycle context
func (w *RoundWorker) lockRound(roundID uuid.UUID) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		log := logger.FromContext(w.ctx)
		log.Info(LogMsgLockingScheduledRound, "roundID", roundID)

		if err := w.service.LockRound(w.ctx, roundID); err != nil {
			// Already locked or deleted is fine, someone beat the timer;
			// a cancelled context means the worker is shutting down
			if errors.Is(err, domain.ErrRoundNotOpen) ||
				errors.Is(err, domain.ErrRoundNotFound) ||
				errors.Is(err, context.Canceled) {
				return
			}
			log.Error(LogMsgFailedToLockRound, "roundID", roundID, "error", err)
		}
	}()
}

// Shutdown cancels the lifecycle context and pending timers, then waits
// for in-flight locks to finish
func (w *RoundWorker) Shutdown(ctx context.Context) error {
	w.cancel()
	return w.shutdownInternal(ctx, "round worker")
}

// LockSweepJob is the periodic safety net behind the per-round timers: it
// locks any open round whose close time has passed. A timer can be lost to
// a crash between the round opening and the restart recovery in Start.
type LockSweepJob struct {
	service round.Service
}

// NewLockSweepJob creates a new LockSweepJob
func NewLockSweepJob(service round.Service) *LockSweepJob {
	return &LockSweepJob{service: service}
}

// Process locks every overdue open round
func (j *LockSweepJob) Process(ctx context.Context) error {
	log := logger.FromContext(ctx)

	open, err := j.service.ListRoundsByStatus(ctx, domain.RoundStatusOpen)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, r := range open {
		if r.ClosesAt.After(now) {
			continue
		}
		log.Info(LogMsgSweepingOverdueRound, "roundID", r.ID, "closesAt", r.ClosesAt)
		if err := j.service.LockRound(ctx, r.ID); err != nil {
			if errors.Is(err, domain.ErrRoundNotOpen) || errors.Is(err, domain.ErrRoundNotFound) {
				continue
			}
			log.Error(LogMsgFailedToLockRound, "roundID", r.ID, "error", err)
		}
	}
	return nil
}

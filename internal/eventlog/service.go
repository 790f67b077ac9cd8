// Package eventlog persists bus events as an append-only audit trail. Round
// and reward events land here so a third party can replay a draw against
// the published commitments after the fact.
package eventlog

import (
	"context"

	"github.com/civiclabs-ng/supcore/internal/event"
	"github.com/civiclabs-ng/supcore/internal/logger"
)

// Service handles event logging business logic
type Service interface {
	// Subscribe registers the event logger to listen to all events
	Subscribe(bus event.Bus) error

	// CleanupOldEvents removes events older than retention period
	CleanupOldEvents(ctx context.Context, retentionDays int) (int64, error)
}

type service struct {
	repo Repository
}

// NewService creates a new event logging service
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Subscribe registers event handlers for all event types
func (s *service) Subscribe(bus event.Bus) error {
	eventTypes := []event.Type{
		event.RoundOpened,
		event.RoundLocked,
		event.RoundDrawn,
		event.RoundPaid,
		event.RewardIssued,
		event.PrizePaid,
		event.BuyConfirmed,
		event.CashoutPlaced,
	}

	for _, eventType := range eventTypes {
		bus.Subscribe(eventType, s.handleEvent)
	}

	return nil
}

// handleEvent processes and logs events to the database
func (s *service) handleEvent(ctx context.Context, evt event.Event) error {
	log := logger.FromContext(ctx)

	// Typed payloads round-trip through JSON into a generic map so the
	// audit row stores them uniformly
	payload, err := event.DecodePayload[map[string]interface{}](evt.Payload)
	if err != nil {
		log.Debug(LogMsgFailedToDecodePayload, LogFieldType, evt.Type, LogFieldError, err)
		return nil
	}

	// Extract user_id if present
	var userID *string
	if uid, ok := payload[PayloadKeyUserID].(string); ok {
		userID = &uid
	}

	// Log event to database
	if err := s.repo.LogEvent(ctx, string(evt.Type), userID, payload); err != nil {
		log.Error(LogMsgFailedToLogEvent, LogFieldError, err, LogFieldType, evt.Type)
		return err
	}

	log.Debug(LogMsgEventLogged, LogFieldType, evt.Type, LogFieldUserID, userID)
	return nil
}

// CleanupOldEvents removes events older than the retention period
func (s *service) CleanupOldEvents(ctx context.Context, retentionDays int) (int64, error) {
	return s.repo.CleanupOldEvents(ctx, retentionDays)
}

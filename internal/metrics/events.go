package metrics

import (
	"context"

	"github.com/civiclabs-ng/supcore/internal/event"
	"github.com/civiclabs-ng/supcore/internal/logger"
)

// EventMetricsCollector subscribes to events and records metrics
type EventMetricsCollector struct{}

// NewEventMetricsCollector creates a new event metrics collector
func NewEventMetricsCollector() *EventMetricsCollector {
	return &EventMetricsCollector{}
}

// Register subscribes to all events
func (e *EventMetricsCollector) Register(bus event.Bus) error {
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
		bus.Subscribe(eventType, e.HandleEvent)
	}

	return nil
}

// HandleEvent processes events and updates metrics
func (e *EventMetricsCollector) HandleEvent(ctx context.Context, evt event.Event) error {
	log := logger.FromContext(ctx)

	// Always increment event counter
	EventsPublished.WithLabelValues(string(evt.Type)).Inc()

	switch evt.Type {
	case event.RewardIssued:
		if _, err := event.DecodePayload[event.RewardIssuedPayloadV1](evt.Payload); err != nil {
			log.Debug(LogMsgEventPayloadUnexpected, "type", evt.Type)
			return nil
		}
		RewardsIssued.Inc()
	case event.PrizePaid:
		if _, err := event.DecodePayload[event.PrizePaidPayloadV1](evt.Payload); err != nil {
			log.Debug(LogMsgEventPayloadUnexpected, "type", evt.Type)
			return nil
		}
		PrizesSettled.Inc()
	}

	return nil
}

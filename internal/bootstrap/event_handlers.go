package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/civiclabs-ng/supcore/internal/event"
	"github.com/civiclabs-ng/supcore/internal/eventlog"
	"github.com/civiclabs-ng/supcore/internal/metrics"
)

// RegisterEventHandlers sets up all event subscribers:
// - Metrics collector (event-based Prometheus metrics)
// - Event logger (persists the audit trail to the database)
func RegisterEventHandlers(eventBus event.Bus, eventLogService eventlog.Service) error {
	metricsCollector := metrics.NewEventMetricsCollector()
	if err := metricsCollector.Register(eventBus); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedRegisterMetrics, err)
	}
	slog.Info(LogMsgMetricsCollectorRegistered)

	if err := eventLogService.Subscribe(eventBus); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedSubscribeEventLogger, err)
	}
	slog.Info(LogMsgEventLoggerInitialized)

	return nil
}

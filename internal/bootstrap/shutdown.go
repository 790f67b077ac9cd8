package bootstrap

import (
	"context"
	"log/slog"

	"github.com/civiclabs-ng/supcore/internal/event"
	"github.com/civiclabs-ng/supcore/internal/scheduler"
	"github.com/civiclabs-ng/supcore/internal/server"
	"github.com/civiclabs-ng/supcore/internal/worker"
)

// ShutdownComponents holds all components that need graceful shutdown.
type ShutdownComponents struct {
	Server      *server.Server
	RoundWorker *worker.RoundWorker
	Scheduler   *scheduler.Scheduler
	Pool        *worker.Pool
	Publisher   *event.ResilientPublisher
}

// GracefulShutdown performs graceful shutdown of all application components.
// Order matters:
// 1. HTTP server (stop accepting new requests)
// 2. Round worker (cancel pending lock timers, wait for in-flight locks)
// 3. Scheduler and pool (stop periodic jobs, drain the queue)
// 4. Event publisher (drain retry loops, release the dead-letter file)
//
// Errors during shutdown are logged but do not stop the shutdown sequence.
func GracefulShutdown(ctx context.Context, components ShutdownComponents) {
	slog.Info(LogMsgShuttingDownServer)

	if err := components.Server.Stop(ctx); err != nil {
		slog.Error(LogMsgServerForcedShutdown, "error", err)
	}

	if components.RoundWorker != nil {
		if err := components.RoundWorker.Shutdown(ctx); err != nil {
			slog.Error(LogMsgRoundWorkerShutdownFailed, "error", err)
		}
	}

	if components.Scheduler != nil {
		components.Scheduler.Stop()
	}
	if components.Pool != nil {
		components.Pool.Stop()
	}

	if components.Publisher != nil {
		slog.Info(LogMsgShuttingDownEventPublisher)
		components.Publisher.Wait()
		if err := components.Publisher.Close(); err != nil {
			slog.Error(LogMsgPublisherShutdownFailed, "error", err)
		}
	}

	slog.Info(LogMsgServerStopped)
}

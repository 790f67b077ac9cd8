package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/civiclabs-ng/supcore/internal/bootstrap"
	"github.com/civiclabs-ng/supcore/internal/config"
	"github.com/civiclabs-ng/supcore/internal/database"
	"github.com/civiclabs-ng/supcore/internal/domain"
	"github.com/civiclabs-ng/supcore/internal/eligibility"
	"github.com/civiclabs-ng/supcore/internal/eventlog"
	"github.com/civiclabs-ng/supcore/internal/ledger"
	"github.com/civiclabs-ng/supcore/internal/payment"
	"github.com/civiclabs-ng/supcore/internal/payout"
	"github.com/civiclabs-ng/supcore/internal/reward"
	"github.com/civiclabs-ng/supcore/internal/round"
	"github.com/civiclabs-ng/supcore/internal/scheduler"
	"github.com/civiclabs-ng/supcore/internal/server"
	"github.com/civiclabs-ng/supcore/internal/user"
	"github.com/civiclabs-ng/supcore/internal/worker"
)

// Database pool settings
const (
	dbMaxConns        = 10
	dbMaxConnIdleTime = 30 * time.Minute
	dbMaxConnLifetime = time.Hour
)

// Worker pool settings
const (
	poolWorkers   = 2
	poolQueueSize = 16
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("Fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logFile, err := bootstrap.SetupLogger(cfg)
	if err != nil {
		return err
	}
	defer logFile.Close()

	ctx := context.Background()

	// Database
	dbPool, err := database.NewPool(cfg.GetDBConnString(), dbMaxConns, dbMaxConnIdleTime, dbMaxConnLifetime)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	if err := database.Migrate(dbPool); err != nil {
		return err
	}

	// Event system
	eventBus, publisher, err := bootstrap.InitializeEventSystem(cfg)
	if err != nil {
		return err
	}

	// Repositories
	repos := bootstrap.InitializeRepositories(dbPool)

	// Sync task catalogue from config
	if err := bootstrap.SyncTasks(ctx, repos.Engagement); err != nil {
		return err
	}

	// Services
	ledgerService := ledger.NewService(repos.Ledger)
	userService := user.NewService(repos.User)

	caps := eligibility.DailyCaps{
		// Basic and full verification share the verified cap
		domain.TierUnverified: cfg.DailyCapUnverified,
		domain.TierBasic:      cfg.DailyCapVerified,
		domain.TierFull:       cfg.DailyCapVerified,
	}
	gate := eligibility.NewGate(repos.Engagement, userService, repos.Engagement, caps)

	rewardService := reward.NewService(repos.Engagement, ledgerService, gate, publisher)
	payoutService := payout.NewService(repos.Prize, ledgerService, publisher, cfg.PrizeTierWeights)
	roundService := round.NewService(repos.Round, ledgerService, payoutService, publisher, cfg.TicketPriceSUP)
	paymentService := payment.NewService(ledgerService, roundService, publisher, cfg.NGNPerSUP)
	eventLogService := eventlog.NewService(repos.EventLog)

	// Event subscribers
	if err := bootstrap.RegisterEventHandlers(eventBus, eventLogService); err != nil {
		return err
	}

	// Round worker: schedules lock timers for open rounds
	roundWorker := worker.NewRoundWorker(roundService)
	roundWorker.Subscribe(eventBus)
	roundWorker.Start()

	// Background jobs: lock sweep catches rounds whose timers were lost to
	// a restart, cleanup prunes the audit log
	pool := worker.NewPool(poolWorkers, poolQueueSize)
	pool.Start()

	sched := scheduler.New(pool)
	sched.Schedule(time.Duration(cfg.LockSweepIntervalSeconds)*time.Second, worker.NewLockSweepJob(roundService))
	sched.Schedule(24*time.Hour, eventlog.NewCleanupJob(eventLogService, cfg.EventRetentionDays))

	// HTTP server
	srv := server.NewServer(cfg.Port, cfg.APIKey, cfg.TrustedProxies, dbPool,
		ledgerService, rewardService, roundService, paymentService, userService)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for shutdown signal or server failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case sig := <-quit:
		slog.Info("Received shutdown signal", "signal", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	bootstrap.GracefulShutdown(shutdownCtx, bootstrap.ShutdownComponents{
		Server:      srv,
		RoundWorker: roundWorker,
		Scheduler:   sched,
		Pool:        pool,
		Publisher:   publisher,
	})

	return nil
}

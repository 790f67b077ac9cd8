package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/civiclabs-ng/supcore/internal/config"
	"github.com/civiclabs-ng/supcore/internal/repository"
	"github.com/civiclabs-ng/supcore/internal/reward"
)

// SyncTasks loads, validates, and syncs the engagement task catalogue to the
// database. It handles the complete lifecycle: load JSON, validate, upsert
// to DB, log results. Upserts preserve completion counts, so re-running on
// an unchanged file is harmless.
func SyncTasks(ctx context.Context, engagementRepo repository.Engagement) error {
	slog.Info(LogMsgSyncingTasks)
	taskLoader := reward.NewTaskLoader()

	taskConfig, err := taskLoader.Load(config.ConfigPathTasks)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedLoadTasks, err)
	}

	if err := taskLoader.Validate(taskConfig); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgInvalidTasks, err)
	}

	syncResult, err := taskLoader.SyncToDatabase(ctx, taskConfig, engagementRepo)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedSyncTasks, err)
	}

	slog.Info(LogMsgTasksSynced,
		"inserted", syncResult.TasksInserted,
		"updated", syncResult.TasksUpdated)

	return nil
}

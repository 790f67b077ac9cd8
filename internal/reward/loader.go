package reward

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/civiclabs-ng/supcore/internal/domain"
	"github.com/civiclabs-ng/supcore/internal/logger"
	"github.com/civiclabs-ng/supcore/internal/repository"
	"github.com/civiclabs-ng/supcore/internal/validation"
)

// Sentinel errors for the task loader
var (
	ErrDuplicateTaskID = errors.New("duplicate task id")
	ErrInvalidConfig   = errors.New("invalid configuration")
)

// Schema paths
const (
	TasksSchemaPath = "configs/schemas/tasks.schema.json"
)

// TaskConfig represents the JSON configuration for engagement tasks
type TaskConfig struct {
	Version     string `json:"version"`
	Description string `json:"description"`

	Tasks []TaskDef `json:"tasks"`
}

// TaskDef represents a single task definition in the JSON
type TaskDef struct {
	ID                   string    `json:"id"`
	Title                string    `json:"title"`
	RewardSUP            string    `json:"reward_sup"`
	RequiresVerification bool      `json:"requires_verification"`
	MaxCompletions       int       `json:"max_completions"`
	ActiveFrom           time.Time `json:"active_from"`
	ActiveUntil          time.Time `json:"active_until"`
	LinkedEventID        *string   `json:"linked_event_id,omitempty"`
	Repeatable           bool      `json:"repeatable"`
}

// TaskLoader handles loading and validating task configuration
type TaskLoader interface {
	Load(path string) (*TaskConfig, error)
	Validate(config *TaskConfig) error
	SyncToDatabase(ctx context.Context, config *TaskConfig, repo repository.Engagement) (*TaskSyncResult, error)
}

// TaskSyncResult contains the result of syncing tasks to the database
type TaskSyncResult struct {
	TasksInserted int
	TasksUpdated  int
}

type taskLoader struct {
	schemaValidator validation.SchemaValidator
}

// NewTaskLoader creates a new TaskLoader instance
func NewTaskLoader() TaskLoader {
	return &taskLoader{
		schemaValidator: validation.NewSchemaValidator(),
	}
}

// Load reads and parses a tasks JSON file
func (l *taskLoader) Load(path string) (*TaskConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf(ErrMsgReadTaskConfigFailed, err)
	}

	// Validate against schema first
	if err := l.schemaValidator.ValidateBytes(data, TasksSchemaPath); err != nil {
		return nil, fmt.Errorf("schema validation failed for %s: %w", path, err)
	}

	var config TaskConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf(ErrMsgParseTaskConfigFailed, err)
	}

	return &config, nil
}

// Validate checks the task configuration for errors
func (l *taskLoader) Validate(config *TaskConfig) error {
	if config == nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, ErrMsgTaskConfigNil)
	}

	if len(config.Tasks) == 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, ErrMsgNoTasksDefined)
	}

	seen := make(map[string]bool, len(config.Tasks))
	for i := range config.Tasks {
		if err := l.validateTaskDef(i, &config.Tasks[i], seen); err != nil {
			return err
		}
	}

	return nil
}

func (l *taskLoader) validateTaskDef(index int, def *TaskDef, seen map[string]bool) error {
	if _, err := uuid.Parse(def.ID); err != nil {
		return fmt.Errorf("%w: task at index %d has invalid id %q", ErrInvalidConfig, index, def.ID)
	}
	if seen[def.ID] {
		return fmt.Errorf("%w: '%s'", ErrDuplicateTaskID, def.ID)
	}
	seen[def.ID] = true

	if def.Title == "" {
		return fmt.Errorf("%w: task '%s' has empty title", ErrInvalidConfig, def.ID)
	}

	reward, err := decimal.NewFromString(def.RewardSUP)
	if err != nil || !reward.IsPositive() {
		return fmt.Errorf("%w: task '%s' has invalid reward_sup %q", ErrInvalidConfig, def.ID, def.RewardSUP)
	}

	if def.MaxCompletions < 0 {
		return fmt.Errorf("%w: task '%s' has negative max_completions", ErrInvalidConfig, def.ID)
	}

	if !def.ActiveUntil.After(def.ActiveFrom) {
		return fmt.Errorf("%w: task '%s' active window ends before it starts", ErrInvalidConfig, def.ID)
	}

	if def.LinkedEventID != nil {
		if _, err := uuid.Parse(*def.LinkedEventID); err != nil {
			return fmt.Errorf("%w: task '%s' has invalid linked_event_id", ErrInvalidConfig, def.ID)
		}
	}

	return nil
}

// SyncToDatabase upserts the task configuration into the database. Upserts
// are idempotent per task id, so re-running on an unchanged file is a no-op
// apart from counting everything as updated.
func (l *taskLoader) SyncToDatabase(ctx context.Context, config *TaskConfig, repo repository.Engagement) (*TaskSyncResult, error) {
	log := logger.FromContext(ctx)

	result := &TaskSyncResult{}
	for i := range config.Tasks {
		task, err := l.toDomainTask(&config.Tasks[i])
		if err != nil {
			return nil, err
		}

		created, err := repo.UpsertTask(ctx, task)
		if err != nil {
			return nil, fmt.Errorf(ErrMsgUpsertTaskFailed, task.ID, err)
		}
		if created {
			result.TasksInserted++
			log.Info(LogMsgTaskInserted, "taskID", task.ID, "title", task.Title)
		} else {
			result.TasksUpdated++
		}
	}

	return result, nil
}

func (l *taskLoader) toDomainTask(def *TaskDef) (*domain.EngagementTask, error) {
	// Validate guarantees these parse
	id, _ := uuid.Parse(def.ID)
	reward, _ := decimal.NewFromString(def.RewardSUP)

	var linkedEventID *uuid.UUID
	if def.LinkedEventID != nil {
		parsed, _ := uuid.Parse(*def.LinkedEventID)
		linkedEventID = &parsed
	}

	return &domain.EngagementTask{
		ID:                   id,
		Title:                def.Title,
		RewardSUP:            reward,
		RequiresVerification: def.RequiresVerification,
		MaxCompletions:       def.MaxCompletions,
		ActiveFrom:           def.ActiveFrom,
		ActiveUntil:          def.ActiveUntil,
		LinkedEventID:        linkedEventID,
		Repeatable:           def.Repeatable,
	}, nil
}

package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civiclabs-ng/supcore/internal/eventlog"
)

// EventLogRepository implements the event log repository for PostgreSQL
type EventLogRepository struct {
	db *pgxpool.Pool
}

// NewEventLogRepository creates a new EventLogRepository
func NewEventLogRepository(db *pgxpool.Pool) *EventLogRepository {
	return &EventLogRepository{db: db}
}

// LogEvent stores an event in the event_log table
func (r *EventLogRepository) LogEvent(ctx context.Context, eventType string, userID *string, payload map[string]interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToMarshalPayload, err)
	}

	query := `
		INSERT INTO event_log (event_type, user_id, payload)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.Exec(ctx, query, eventType, userID, payloadJSON); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToLogEvent, err)
	}
	return nil
}

// GetEvents retrieves events based on filter criteria, newest first
func (r *EventLogRepository) GetEvents(ctx context.Context, filter eventlog.EventFilter) ([]eventlog.Event, error) {
	query := `SELECT id, event_type, user_id::text, payload, created_at FROM event_log WHERE 1=1`
	args := []any{}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		query += ` AND user_id = $` + strconv.Itoa(len(args))
	}
	if filter.EventType != nil {
		args = append(args, *filter.EventType)
		query += ` AND event_type = $` + strconv.Itoa(len(args))
	}
	if filter.Since != nil {
		args = append(args, *filter.Since)
		query += ` AND created_at >= $` + strconv.Itoa(len(args))
	}
	if filter.Until != nil {
		args = append(args, *filter.Until)
		query += ` AND created_at < $` + strconv.Itoa(len(args))
	}

	query += ` ORDER BY created_at DESC, id DESC`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToQueryEvents, err)
	}
	defer rows.Close()

	return scanEventLogRows(rows)
}

// GetEventsByUser retrieves the most recent events for a user
func (r *EventLogRepository) GetEventsByUser(ctx context.Context, userID string, limit int) ([]eventlog.Event, error) {
	return r.GetEvents(ctx, eventlog.EventFilter{UserID: &userID, Limit: limit})
}

// GetEventsByType retrieves the most recent events of a type
func (r *EventLogRepository) GetEventsByType(ctx context.Context, eventType string, limit int) ([]eventlog.Event, error) {
	return r.GetEvents(ctx, eventlog.EventFilter{EventType: &eventType, Limit: limit})
}

// CleanupOldEvents removes events older than the retention period and
// returns the number of rows deleted
func (r *EventLogRepository) CleanupOldEvents(ctx context.Context, retentionDays int) (int64, error) {
	query := `DELETE FROM event_log WHERE created_at < NOW() - make_interval(days => $1)`
	tag, err := r.db.Exec(ctx, query, retentionDays)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgFailedToCleanupEvents, err)
	}
	return tag.RowsAffected(), nil
}

func scanEventLogRows(rows pgx.Rows) ([]eventlog.Event, error) {
	var events []eventlog.Event
	for rows.Next() {
		var e eventlog.Event
		var payload []byte
		if err := rows.Scan(&e.ID, &e.EventType, &e.UserID, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToQueryEvents, err)
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &e.Payload); err != nil {
				return nil, fmt.Errorf("%s: %w", ErrMsgFailedToQueryEvents, err)
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToQueryEvents, err)
	}
	return events, nil
}

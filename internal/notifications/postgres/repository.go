// Package postgres provides the PostgreSQL implementation of the
// notification queue store.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/bookhive/bookhive/internal/notifications"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements notifications.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL queue repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const queueColumns = `
	id, type, recipient_id, recipient_type, recipient_email, recipient_phone,
	payload, scheduled_for, status, attempts, last_attempt_at, error,
	created_at, updated_at
`

// Enqueue validates and persists a new queue item.
func (r *Repository) Enqueue(ctx context.Context, item *notifications.QueueItem) (string, error) {
	if err := item.Validate(); err != nil {
		return "", err
	}

	if item.ID == "" {
		item.ID = uuid.New().String()
	}

	query := `
		INSERT INTO notification_queue
			(id, type, recipient_id, recipient_type, recipient_email, recipient_phone, payload, scheduled_for, status, attempts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending', 0)
		RETURNING status, attempts, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		item.ID,
		item.Type,
		item.RecipientID,
		item.RecipientType,
		item.RecipientEmail,
		nullableString(item.RecipientPhone),
		item.Payload,
		item.ScheduledFor,
	).Scan(&item.Status, &item.Attempts, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return "", fmt.Errorf("enqueue notification: %w", err)
	}

	return item.ID, nil
}

// FetchPendingNotifications returns up to limit eligible items ordered
// earliest-due first.
func (r *Repository) FetchPendingNotifications(ctx context.Context, limit int) ([]*notifications.QueueItem, error) {
	query := `
		SELECT ` + queueColumns + `
		FROM notification_queue
		WHERE status = 'pending'
		  AND scheduled_for <= NOW()
		  AND attempts < $2
		ORDER BY scheduled_for ASC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit, notifications.MaxAttempts)
	if err != nil {
		return nil, fmt.Errorf("fetch pending notifications: %w", err)
	}
	defer rows.Close()

	items := make([]*notifications.QueueItem, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// MarkAsProcessed transitions an item to the processed terminal state.
// An item already failed (cancelled while its delivery was in flight)
// stays failed; the ack is a no-op.
func (r *Repository) MarkAsProcessed(ctx context.Context, id string) error {
	query := `
		UPDATE notification_queue
		SET status = 'processed', last_attempt_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'processed')
	`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark as processed: %w", err)
	}
	if result.RowsAffected() == 0 {
		// Zero rows means the item is gone or was cancelled between
		// fetch and ack. failed is terminal: the cancellation record
		// wins over a late delivery ack.
		var exists bool
		err := r.db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM notification_queue WHERE id = $1)`, id,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("mark as processed: %w", err)
		}
		if !exists {
			return notifications.ErrItemNotFound
		}
	}
	return nil
}

// MarkAsFailed records a failed attempt. The item becomes failed at the
// attempt cap and otherwise stays pending with scheduled_for untouched,
// so the next poll tick picks it up again.
func (r *Repository) MarkAsFailed(ctx context.Context, id string, sendErr error) error {
	var errMsg *string
	if sendErr != nil {
		s := sendErr.Error()
		errMsg = &s
	}

	query := `
		UPDATE notification_queue
		SET attempts = attempts + 1,
		    status = CASE WHEN attempts + 1 >= $2 THEN 'failed' ELSE 'pending' END,
		    error = COALESCE($3, error),
		    last_attempt_at = NOW(),
		    updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query, id, notifications.MaxAttempts, errMsg)
	if err != nil {
		return fmt.Errorf("mark as failed: %w", err)
	}
	if result.RowsAffected() == 0 {
		return notifications.ErrItemNotFound
	}
	return nil
}

// Reschedule moves scheduled_for without touching attempts.
func (r *Repository) Reschedule(ctx context.Context, id string, newTime time.Time) error {
	query := `
		UPDATE notification_queue
		SET scheduled_for = $2, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query, id, newTime)
	if err != nil {
		return fmt.Errorf("reschedule notification: %w", err)
	}
	if result.RowsAffected() == 0 {
		return notifications.ErrItemNotFound
	}
	return nil
}

// CancelForAppointment bulk-fails all pending items whose payload
// references the appointment, suppressing now-irrelevant notifications.
func (r *Repository) CancelForAppointment(ctx context.Context, appointmentID string) (int64, error) {
	query := `
		UPDATE notification_queue
		SET status = 'failed', error = $2, updated_at = NOW()
		WHERE status = 'pending'
		  AND payload->>'appointment_id' = $1
	`
	result, err := r.db.Exec(ctx, query, appointmentID, notifications.CancelledByAppointmentError)
	if err != nil {
		return 0, fmt.Errorf("cancel notifications for appointment: %w", err)
	}
	return result.RowsAffected(), nil
}

// DeleteOldNotifications removes terminal-state items older than cutoff.
// Pending items are never deleted regardless of age.
func (r *Repository) DeleteOldNotifications(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM notification_queue
		WHERE status IN ('processed', 'failed')
		  AND updated_at < $1
	`
	result, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old notifications: %w", err)
	}
	return result.RowsAffected(), nil
}

// GetQueueStats returns item counts by status.
func (r *Repository) GetQueueStats(ctx context.Context) (*notifications.QueueStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'processed'),
			COUNT(*) FILTER (WHERE status = 'failed')
		FROM notification_queue
	`
	var stats notifications.QueueStats
	err := r.db.QueryRow(ctx, query).Scan(&stats.Pending, &stats.Processed, &stats.Failed)
	if err != nil {
		return nil, fmt.Errorf("get queue stats: %w", err)
	}
	return &stats, nil
}

// GetItemByID retrieves one queue item. Used by the ops surface and tests.
func (r *Repository) GetItemByID(ctx context.Context, id string) (*notifications.QueueItem, error) {
	query := `SELECT ` + queueColumns + ` FROM notification_queue WHERE id = $1`

	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("get queue item: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get queue item: %w", err)
		}
		return nil, notifications.ErrItemNotFound
	}
	return scanItem(rows)
}

func scanItem(row pgx.Rows) (*notifications.QueueItem, error) {
	var item notifications.QueueItem
	var phone, errMsg *string

	err := row.Scan(
		&item.ID,
		&item.Type,
		&item.RecipientID,
		&item.RecipientType,
		&item.RecipientEmail,
		&phone,
		&item.Payload,
		&item.ScheduledFor,
		&item.Status,
		&item.Attempts,
		&item.LastAttemptAt,
		&errMsg,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan queue item: %w", err)
	}

	if phone != nil {
		item.RecipientPhone = *phone
	}
	if errMsg != nil {
		item.Error = *errMsg
	}
	return &item, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

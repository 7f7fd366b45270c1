package notifications

import (
	"context"
	"time"
)

// Repository is the durable notification queue store. It is the single
// source of truth for delivery state; all mutation goes through this
// narrow method set.
type Repository interface {
	// Enqueue validates and persists a new item with status=pending and
	// attempts=0, returning the assigned id.
	Enqueue(ctx context.Context, item *QueueItem) (string, error)

	// FetchPendingNotifications returns up to limit eligible items
	// (pending, due, under the attempt cap) ordered by scheduled_for
	// ascending so overdue items are never starved by later ones.
	FetchPendingNotifications(ctx context.Context, limit int) ([]*QueueItem, error)

	// MarkAsProcessed transitions an item to the processed terminal
	// state. Calling it twice is a state-wise no-op, and an item that
	// went failed in the meantime (cancelled mid-delivery) stays
	// failed.
	MarkAsProcessed(ctx context.Context, id string) error

	// MarkAsFailed records a failed attempt: attempts+1, status=failed at
	// the attempt cap, otherwise the item stays pending and becomes
	// re-eligible on the next poll (scheduled_for is not advanced).
	MarkAsFailed(ctx context.Context, id string, sendErr error) error

	// Reschedule moves scheduled_for without touching attempts.
	Reschedule(ctx context.Context, id string, newTime time.Time) error

	// CancelForAppointment flips all pending items referencing the
	// appointment to failed with CancelledByAppointmentError, returning
	// the number of items cancelled.
	CancelForAppointment(ctx context.Context, appointmentID string) (int64, error)

	// DeleteOldNotifications removes terminal-state items whose
	// updated_at is before cutoff. Pending items are never deleted.
	DeleteOldNotifications(ctx context.Context, cutoff time.Time) (int64, error)

	// GetQueueStats returns item counts by status.
	GetQueueStats(ctx context.Context) (*QueueStats, error)
}

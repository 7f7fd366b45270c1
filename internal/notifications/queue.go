// Package notifications implements the appointment notification pipeline:
// a durable queue of pending notifications, the scheduler that produces
// queue items from booking lifecycle events, the polling processor that
// drains due items, and the channel dispatch with fallback.
package notifications

import "time"

// MaxAttempts is the processing attempt cap. Reaching it forces an item
// into the failed state with no further retries.
const MaxAttempts = 3

// NotificationType identifies the kind of notification.
type NotificationType string

// Notification types.
const (
	TypeBookingConfirmation NotificationType = "booking_confirmation"
	TypeBookingReminder24h  NotificationType = "booking_reminder_24h"
	TypeBookingReminder2h   NotificationType = "booking_reminder_2h"
	TypeBookingReminder30m  NotificationType = "booking_reminder_30m"
	TypeBookingCancellation NotificationType = "booking_cancellation"
	TypeBookingRescheduled  NotificationType = "booking_rescheduled"

	TypeBusinessNewBooking         NotificationType = "business_new_booking"
	TypeBusinessBookingCancelled   NotificationType = "business_booking_cancelled"
	TypeBusinessBookingReminder    NotificationType = "business_booking_reminder"
	TypeBusinessBookingRescheduled NotificationType = "business_booking_rescheduled"
)

// IsValid checks if the notification type is known.
func (t NotificationType) IsValid() bool {
	switch t {
	case TypeBookingConfirmation, TypeBookingReminder24h, TypeBookingReminder2h,
		TypeBookingReminder30m, TypeBookingCancellation, TypeBookingRescheduled,
		TypeBusinessNewBooking, TypeBusinessBookingCancelled,
		TypeBusinessBookingReminder, TypeBusinessBookingRescheduled:
		return true
	}
	return false
}

// RecipientType distinguishes customer- and business-directed notifications.
type RecipientType string

// Recipient types.
const (
	RecipientCustomer RecipientType = "customer"
	RecipientBusiness RecipientType = "business"
)

// QueueStatus represents the delivery state of a queue item.
// Terminal states are processed and failed.
type QueueStatus string

// Queue statuses.
const (
	QueueStatusPending   QueueStatus = "pending"
	QueueStatusProcessed QueueStatus = "processed"
	QueueStatusFailed    QueueStatus = "failed"
)

// QueuePayload carries the entity identifiers the processor needs to
// reload full entities at send time. The queue stores only ids, so entity
// updates between enqueue and send are picked up naturally.
type QueuePayload struct {
	AppointmentID string `json:"appointment_id"`
	ServiceID     string `json:"service_id"`
	BusinessID    string `json:"business_id"`
}

// QueueItem is the unit of durable notification work.
//
// Recipient contact fields are captured at enqueue time and are never
// re-read from the recipient at send time: a customer changing their
// contact info after booking does not retroactively affect queued items.
type QueueItem struct {
	ID             string           `json:"id"`
	Type           NotificationType `json:"type"`
	RecipientID    string           `json:"recipient_id"`
	RecipientType  RecipientType    `json:"recipient_type"`
	RecipientEmail string           `json:"recipient_email"`
	RecipientPhone string           `json:"recipient_phone,omitempty"`
	Payload        QueuePayload     `json:"payload"`
	ScheduledFor   time.Time        `json:"scheduled_for"`
	Status         QueueStatus      `json:"status"`
	Attempts       int              `json:"attempts"`
	LastAttemptAt  *time.Time       `json:"last_attempt_at,omitempty"`
	Error          string           `json:"error,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// Validate checks the constraints enforced at enqueue time.
func (i *QueueItem) Validate() error {
	if i.ScheduledFor.IsZero() {
		return ErrInvalidScheduleTime
	}
	if i.RecipientEmail == "" {
		return ErrMissingRecipientEmail
	}
	return nil
}

// IsTerminal reports whether the item can no longer change state.
func (i *QueueItem) IsTerminal() bool {
	return i.Status == QueueStatusProcessed || i.Status == QueueStatusFailed
}

// QueueStats contains queue item counts by status.
type QueueStats struct {
	Pending   int64 `json:"pending"`
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
}

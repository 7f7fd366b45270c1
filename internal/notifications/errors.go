package notifications

import "errors"

// Queue store errors.
var (
	ErrItemNotFound          = errors.New("notification queue item not found")
	ErrInvalidScheduleTime   = errors.New("scheduled_for must be a valid timestamp")
	ErrMissingRecipientEmail = errors.New("recipient email is required")
)

// CancelledByAppointmentError is recorded on pending items suppressed by
// an appointment cancellation. The exact text is part of the queue
// contract and is asserted by consumers.
const CancelledByAppointmentError = "Appointment cancelled"

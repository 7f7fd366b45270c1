package bookings

import "errors"

// Sentinel errors for booking operations. The messages double as the
// failure reasons recorded on notification queue items when an entity
// disappears between enqueue and delivery.
var (
	ErrAppointmentNotFound = errors.New("Appointment not found")
	ErrServiceNotFound     = errors.New("Service not found")
	ErrBusinessNotFound    = errors.New("Business not found")

	ErrAppointmentCancelled = errors.New("appointment is already cancelled")
	ErrInvalidTimeRange     = errors.New("start time must be before end time")
)

package domain

import (
	"fmt"
	"time"
)

// AppointmentStatus represents the lifecycle state of an appointment.
type AppointmentStatus string

// Appointment statuses.
const (
	AppointmentStatusPending     AppointmentStatus = "pending"
	AppointmentStatusConfirmed   AppointmentStatus = "confirmed"
	AppointmentStatusCancelled   AppointmentStatus = "cancelled"
	AppointmentStatusRescheduled AppointmentStatus = "rescheduled"
	AppointmentStatusCompleted   AppointmentStatus = "completed"
)

// IsValid checks if the appointment status is valid.
func (s AppointmentStatus) IsValid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed,
		AppointmentStatusCancelled, AppointmentStatusRescheduled,
		AppointmentStatusCompleted:
		return true
	}
	return false
}

// Appointment represents a booked time slot for a service.
// Date carries the calendar day; StartTime and EndTime are wall-clock
// times in "15:04" format, interpreted in the business's location by the
// timezone utilities upstream of this package.
type Appointment struct {
	ID            string            `json:"id"`
	BusinessID    string            `json:"business_id"`
	ServiceID     string            `json:"service_id"`
	CustomerName  string            `json:"customer_name"`
	CustomerEmail string            `json:"customer_email"`
	CustomerPhone string            `json:"customer_phone,omitempty"`
	Date          time.Time         `json:"date"`
	StartTime     string            `json:"start_time"`
	EndTime       string            `json:"end_time"`
	Status        AppointmentStatus `json:"status"`
	Notes         string            `json:"notes,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// StartInstant combines Date and StartTime into the absolute moment the
// appointment begins, in Date's location.
func (a *Appointment) StartInstant() (time.Time, error) {
	t, err := time.Parse("15:04", a.StartTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse start time %q: %w", a.StartTime, err)
	}
	return time.Date(
		a.Date.Year(), a.Date.Month(), a.Date.Day(),
		t.Hour(), t.Minute(), 0, 0,
		a.Date.Location(),
	), nil
}

// IsCancelled returns true if the appointment has been cancelled.
func (a *Appointment) IsCancelled() bool {
	return a.Status == AppointmentStatusCancelled
}

// Package bookings manages businesses, services and appointments, and
// drives the notification pipeline on every booking lifecycle event.
package bookings

import (
	"context"
	"time"

	"github.com/bookhive/bookhive/internal/domain"
)

// Repository defines the interface for booking data operations. It is a
// superset of notifications.BookingDirectory, so the same postgres
// implementation backs both the booking API and the queue processor.
type Repository interface {
	CreateAppointment(ctx context.Context, appt *domain.Appointment) error
	GetAppointmentByID(ctx context.Context, id string) (*domain.Appointment, error)
	ListAppointments(ctx context.Context, filter AppointmentFilter) ([]domain.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id string, status domain.AppointmentStatus) error
	RescheduleAppointment(ctx context.Context, id string, date time.Time, startTime, endTime string) error

	GetServiceByID(ctx context.Context, id string) (*domain.Service, error)
	ListServices(ctx context.Context, businessID string) ([]domain.Service, error)

	GetBusinessByID(ctx context.Context, id string) (*domain.Business, error)

	GetNotificationPreferences(ctx context.Context, businessID string) (*domain.NotificationPreferences, error)
	UpsertNotificationPreferences(ctx context.Context, prefs *domain.NotificationPreferences) error
}

// AppointmentFilter represents filter criteria for listing appointments.
type AppointmentFilter struct {
	BusinessID string
	Status     *domain.AppointmentStatus
	FromDate   *string
	ToDate     *string
	Limit      int
}

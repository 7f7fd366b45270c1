package bookings

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bookhive/bookhive/internal/domain"
)

// Notifier schedules notifications for booking lifecycle events.
// Implemented by notifications.Scheduler.
type Notifier interface {
	ScheduleBookingConfirmation(ctx context.Context, appt *domain.Appointment, svc *domain.Service, biz *domain.Business) error
	ScheduleBookingReminders(ctx context.Context, appt *domain.Appointment, svc *domain.Service, biz *domain.Business) error
	ScheduleBookingCancellation(ctx context.Context, appt *domain.Appointment, svc *domain.Service, biz *domain.Business) error
	ScheduleBookingRescheduled(ctx context.Context, appt *domain.Appointment, svc *domain.Service, biz *domain.Business) error
}

// QueueCanceller removes undelivered notifications for an appointment.
// Implemented by the notification queue repository.
type QueueCanceller interface {
	CancelForAppointment(ctx context.Context, appointmentID string) (int64, error)
}

// Service implements booking business logic.
type Service struct {
	repo     Repository
	notifier Notifier
	queue    QueueCanceller
}

// NewService creates a new bookings service.
func NewService(repo Repository, notifier Notifier, queue QueueCanceller) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		queue:    queue,
	}
}

// CreateBookingInput carries the fields needed to book an appointment.
type CreateBookingInput struct {
	BusinessID    string
	ServiceID     string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Date          time.Time
	StartTime     string
	EndTime       string
	Notes         string
}

// CreateBooking books an appointment and schedules its confirmation and
// reminder notifications. A notification scheduling failure does not
// roll back the booking: the appointment stands and the miss is logged.
func (s *Service) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Appointment, error) {
	svc, err := s.repo.GetServiceByID(ctx, input.ServiceID)
	if err != nil {
		return nil, err
	}

	biz, err := s.repo.GetBusinessByID(ctx, input.BusinessID)
	if err != nil {
		return nil, err
	}

	if input.StartTime >= input.EndTime {
		return nil, ErrInvalidTimeRange
	}

	appt := &domain.Appointment{
		ID:            uuid.New().String(),
		BusinessID:    biz.ID,
		ServiceID:     svc.ID,
		CustomerName:  input.CustomerName,
		CustomerEmail: input.CustomerEmail,
		CustomerPhone: input.CustomerPhone,
		Date:          input.Date,
		StartTime:     input.StartTime,
		EndTime:       input.EndTime,
		Status:        domain.AppointmentStatusConfirmed,
		Notes:         input.Notes,
	}

	if err := s.repo.CreateAppointment(ctx, appt); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	s.notify(ctx, "confirmation", appt, svc, biz, s.notifier.ScheduleBookingConfirmation)
	s.notify(ctx, "reminders", appt, svc, biz, s.notifier.ScheduleBookingReminders)

	return appt, nil
}

// GetBooking retrieves one appointment.
func (s *Service) GetBooking(ctx context.Context, id string) (*domain.Appointment, error) {
	return s.repo.GetAppointmentByID(ctx, id)
}

// ListServices retrieves a business's bookable services.
func (s *Service) ListServices(ctx context.Context, businessID string) ([]domain.Service, error) {
	return s.repo.ListServices(ctx, businessID)
}

// ListBookings retrieves appointments matching the filter.
func (s *Service) ListBookings(ctx context.Context, filter AppointmentFilter) ([]domain.Appointment, error) {
	return s.repo.ListAppointments(ctx, filter)
}

// CancelBooking cancels an appointment. Pending notifications for it are
// withdrawn from the queue before the cancellation notices are enqueued,
// so no stale confirmation or reminder goes out after the fact.
func (s *Service) CancelBooking(ctx context.Context, id string) (*domain.Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.IsCancelled() {
		return nil, ErrAppointmentCancelled
	}

	svc, err := s.repo.GetServiceByID(ctx, appt.ServiceID)
	if err != nil {
		return nil, err
	}

	biz, err := s.repo.GetBusinessByID(ctx, appt.BusinessID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateAppointmentStatus(ctx, id, domain.AppointmentStatusCancelled); err != nil {
		return nil, fmt.Errorf("update appointment status: %w", err)
	}
	appt.Status = domain.AppointmentStatusCancelled

	cancelled, err := s.queue.CancelForAppointment(ctx, id)
	if err != nil {
		slog.Error("failed to withdraw pending notifications", "appointment_id", id, "error", err)
	} else if cancelled > 0 {
		slog.Info("withdrew pending notifications", "appointment_id", id, "count", cancelled)
	}

	s.notify(ctx, "cancellation", appt, svc, biz, s.notifier.ScheduleBookingCancellation)

	return appt, nil
}

// RescheduleBooking moves an appointment to a new slot. Reminders queued
// for the old slot are withdrawn and fresh ones enqueued against the new
// start time.
func (s *Service) RescheduleBooking(ctx context.Context, id string, date time.Time, startTime, endTime string) (*domain.Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.IsCancelled() {
		return nil, ErrAppointmentCancelled
	}

	if startTime >= endTime {
		return nil, ErrInvalidTimeRange
	}

	svc, err := s.repo.GetServiceByID(ctx, appt.ServiceID)
	if err != nil {
		return nil, err
	}

	biz, err := s.repo.GetBusinessByID(ctx, appt.BusinessID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.RescheduleAppointment(ctx, id, date, startTime, endTime); err != nil {
		return nil, fmt.Errorf("reschedule appointment: %w", err)
	}
	appt.Date = date
	appt.StartTime = startTime
	appt.EndTime = endTime
	appt.Status = domain.AppointmentStatusRescheduled

	cancelled, err := s.queue.CancelForAppointment(ctx, id)
	if err != nil {
		slog.Error("failed to withdraw pending notifications", "appointment_id", id, "error", err)
	} else if cancelled > 0 {
		slog.Info("withdrew pending notifications", "appointment_id", id, "count", cancelled)
	}

	s.notify(ctx, "rescheduled", appt, svc, biz, s.notifier.ScheduleBookingRescheduled)
	s.notify(ctx, "reminders", appt, svc, biz, s.notifier.ScheduleBookingReminders)

	return appt, nil
}

// GetNotificationPreferences returns a business's preferences, falling
// back to the defaults when none are stored.
func (s *Service) GetNotificationPreferences(ctx context.Context, businessID string) (*domain.NotificationPreferences, error) {
	if _, err := s.repo.GetBusinessByID(ctx, businessID); err != nil {
		return nil, err
	}
	return s.repo.GetNotificationPreferences(ctx, businessID)
}

// UpdateNotificationPreferences replaces a business's preferences.
func (s *Service) UpdateNotificationPreferences(ctx context.Context, prefs *domain.NotificationPreferences) error {
	if _, err := s.repo.GetBusinessByID(ctx, prefs.BusinessID); err != nil {
		return err
	}
	return s.repo.UpsertNotificationPreferences(ctx, prefs)
}

type scheduleFunc func(ctx context.Context, appt *domain.Appointment, svc *domain.Service, biz *domain.Business) error

func (s *Service) notify(ctx context.Context, kind string, appt *domain.Appointment, svc *domain.Service, biz *domain.Business, fn scheduleFunc) {
	if err := fn(ctx, appt, svc, biz); err != nil {
		slog.Error("failed to schedule notifications",
			"kind", kind,
			"appointment_id", appt.ID,
			"error", err,
		)
	}
}

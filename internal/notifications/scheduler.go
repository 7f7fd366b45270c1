package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bookhive/bookhive/internal/domain"
)

// Reminder lead times. A 30-minute reminder type exists in the enum and
// is fully dispatchable, but the scheduling path emits only the 24h and
// 2h windows.
const (
	reminderLead24h = 24 * time.Hour
	reminderLead2h  = 2 * time.Hour
)

// BookingDirectory provides the entity read accessors the scheduler
// needs. The booking persistence layer owns the implementation.
type BookingDirectory interface {
	GetAppointmentByID(ctx context.Context, id string) (*domain.Appointment, error)
	GetServiceByID(ctx context.Context, id string) (*domain.Service, error)
	GetBusinessByID(ctx context.Context, id string) (*domain.Business, error)
	GetNotificationPreferences(ctx context.Context, businessID string) (*domain.NotificationPreferences, error)
}

// Scheduler is both the producer and the consumer side of the pipeline:
// booking lifecycle events enter through the Schedule* methods, and the
// background processor drains due items through
// ProcessPendingNotifications.
type Scheduler struct {
	queue      Repository
	directory  BookingDirectory
	dispatcher *Dispatcher
}

// NewScheduler creates a scheduler.
func NewScheduler(queue Repository, directory BookingDirectory, dispatcher *Dispatcher) *Scheduler {
	return &Scheduler{
		queue:      queue,
		directory:  directory,
		dispatcher: dispatcher,
	}
}

// ScheduleBookingConfirmation enqueues the immediate customer
// confirmation and, if the business opted into any immediate channel,
// the business new-booking notification.
func (s *Scheduler) ScheduleBookingConfirmation(ctx context.Context, appt *domain.Appointment, svc *domain.Service, biz *domain.Business) error {
	now := time.Now()

	if _, err := s.queue.Enqueue(ctx, s.customerItem(TypeBookingConfirmation, appt, now)); err != nil {
		return fmt.Errorf("enqueue booking confirmation: %w", err)
	}

	if s.preferences(ctx, biz.ID).WantsImmediate() {
		if _, err := s.queue.Enqueue(ctx, s.businessItem(TypeBusinessNewBooking, appt, biz, now)); err != nil {
			return fmt.Errorf("enqueue business new booking: %w", err)
		}
	}

	return nil
}

// ScheduleBookingReminders enqueues the customer 24h and 2h reminders
// and the business 24h reminder, skipping any reminder whose computed
// time is already in the past.
func (s *Scheduler) ScheduleBookingReminders(ctx context.Context, appt *domain.Appointment, svc *domain.Service, biz *domain.Business) error {
	start, err := appt.StartInstant()
	if err != nil {
		return fmt.Errorf("compute appointment start: %w", err)
	}

	now := time.Now()

	customerReminders := []struct {
		typ  NotificationType
		lead time.Duration
	}{
		{TypeBookingReminder24h, reminderLead24h},
		{TypeBookingReminder2h, reminderLead2h},
	}

	for _, r := range customerReminders {
		at := start.Add(-r.lead)
		if !at.After(now) {
			slog.Debug("skipping reminder already in the past",
				"type", r.typ,
				"appointment_id", appt.ID,
				"scheduled_for", at,
			)
			continue
		}
		if _, err := s.queue.Enqueue(ctx, s.customerItem(r.typ, appt, at)); err != nil {
			return fmt.Errorf("enqueue %s: %w", r.typ, err)
		}
	}

	businessAt := start.Add(-reminderLead24h)
	if businessAt.After(now) && s.preferences(ctx, biz.ID).WantsReminders() {
		if _, err := s.queue.Enqueue(ctx, s.businessItem(TypeBusinessBookingReminder, appt, biz, businessAt)); err != nil {
			return fmt.Errorf("enqueue business reminder: %w", err)
		}
	}

	return nil
}

// ScheduleBookingCancellation enqueues the immediate cancellation
// notifications, mirroring the confirmation pattern.
func (s *Scheduler) ScheduleBookingCancellation(ctx context.Context, appt *domain.Appointment, svc *domain.Service, biz *domain.Business) error {
	now := time.Now()

	if _, err := s.queue.Enqueue(ctx, s.customerItem(TypeBookingCancellation, appt, now)); err != nil {
		return fmt.Errorf("enqueue booking cancellation: %w", err)
	}

	if s.preferences(ctx, biz.ID).WantsImmediate() {
		if _, err := s.queue.Enqueue(ctx, s.businessItem(TypeBusinessBookingCancelled, appt, biz, now)); err != nil {
			return fmt.Errorf("enqueue business cancellation: %w", err)
		}
	}

	return nil
}

// ScheduleBookingRescheduled enqueues the immediate reschedule
// notifications, mirroring the confirmation pattern.
func (s *Scheduler) ScheduleBookingRescheduled(ctx context.Context, appt *domain.Appointment, svc *domain.Service, biz *domain.Business) error {
	now := time.Now()

	if _, err := s.queue.Enqueue(ctx, s.customerItem(TypeBookingRescheduled, appt, now)); err != nil {
		return fmt.Errorf("enqueue booking rescheduled: %w", err)
	}

	if s.preferences(ctx, biz.ID).WantsImmediate() {
		if _, err := s.queue.Enqueue(ctx, s.businessItem(TypeBusinessBookingRescheduled, appt, biz, now)); err != nil {
			return fmt.Errorf("enqueue business rescheduled: %w", err)
		}
	}

	return nil
}

// ProcessPendingNotifications drains up to limit due items. Failures are
// contained per item: a missing entity or a down channel marks that item
// failed and the batch continues. Returns the number of items delivered.
func (s *Scheduler) ProcessPendingNotifications(ctx context.Context, limit int) (int, error) {
	items, err := s.queue.FetchPendingNotifications(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("fetch pending notifications: %w", err)
	}

	if len(items) == 0 {
		return 0, nil
	}

	recordQueueFetched(len(items))

	processed := 0
	for _, item := range items {
		if s.processItem(ctx, item) {
			processed++
		}
	}

	return processed, nil
}

// processItem handles one queue item end to end, reporting success.
// Panics are contained and recorded as a failure for this item only.
func (s *Scheduler) processItem(ctx context.Context, item *QueueItem) (ok bool) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("notification processing panicked", "item_id", item.ID, "panic", r)
			s.fail(ctx, item, fmt.Errorf("processing panicked: %v", r))
			ok = false
		}
	}()

	appt, err := s.directory.GetAppointmentByID(ctx, item.Payload.AppointmentID)
	if err != nil {
		s.fail(ctx, item, errors.New("Appointment not found"))
		return false
	}

	svc, err := s.directory.GetServiceByID(ctx, item.Payload.ServiceID)
	if err != nil {
		s.fail(ctx, item, errors.New("Service not found"))
		return false
	}

	biz, err := s.directory.GetBusinessByID(ctx, item.Payload.BusinessID)
	if err != nil {
		s.fail(ctx, item, errors.New("Business not found"))
		return false
	}

	var sent bool
	var channel string

	switch item.RecipientType {
	case RecipientCustomer:
		channel = "email"
		sent = s.dispatcher.SendCustomerNotification(ctx, item.Type, item.RecipientEmail, appt, svc, biz)
	case RecipientBusiness:
		channel = "whatsapp"
		sent = s.dispatcher.SendBusinessNotification(ctx, item.Type, item.RecipientEmail, item.RecipientPhone, appt, svc, biz)
	default:
		slog.Error("unknown recipient type", "item_id", item.ID, "recipient_type", item.RecipientType)
		s.fail(ctx, item, fmt.Errorf("unknown recipient type %q", item.RecipientType))
		return false
	}

	if !sent {
		s.fail(ctx, item, fmt.Errorf("delivery failed for %s", item.Type))
		recordNotificationSent(channel, "failed")
		return false
	}

	if err := s.queue.MarkAsProcessed(ctx, item.ID); err != nil {
		slog.Error("failed to mark as processed", "item_id", item.ID, "error", err)
	}

	recordNotificationSent(channel, "success")
	recordNotificationDuration(channel, time.Since(start))

	slog.Debug("notification delivered",
		"item_id", item.ID,
		"type", item.Type,
		"recipient_type", item.RecipientType,
	)
	return true
}

func (s *Scheduler) fail(ctx context.Context, item *QueueItem, cause error) {
	slog.Warn("notification failed",
		"item_id", item.ID,
		"type", item.Type,
		"attempt", item.Attempts+1,
		"max_attempts", MaxAttempts,
		"error", cause,
	)
	if err := s.queue.MarkAsFailed(ctx, item.ID, cause); err != nil {
		slog.Error("failed to mark as failed", "item_id", item.ID, "error", err)
	}
}

// preferences loads business notification preferences, falling back to
// the all-default set when the lookup fails.
func (s *Scheduler) preferences(ctx context.Context, businessID string) *domain.NotificationPreferences {
	prefs, err := s.directory.GetNotificationPreferences(ctx, businessID)
	if err != nil {
		slog.Warn("failed to load notification preferences, using defaults",
			"business_id", businessID,
			"error", err,
		)
		return domain.DefaultNotificationPreferences(businessID)
	}
	return prefs
}

// customerItem builds a queue item addressed to the appointment's
// customer, with contact info denormalized at enqueue time.
func (s *Scheduler) customerItem(typ NotificationType, appt *domain.Appointment, at time.Time) *QueueItem {
	return &QueueItem{
		Type:           typ,
		RecipientID:    appt.CustomerEmail,
		RecipientType:  RecipientCustomer,
		RecipientEmail: appt.CustomerEmail,
		RecipientPhone: appt.CustomerPhone,
		Payload: QueuePayload{
			AppointmentID: appt.ID,
			ServiceID:     appt.ServiceID,
			BusinessID:    appt.BusinessID,
		},
		ScheduledFor: at,
	}
}

// businessItem builds a queue item addressed to the business.
func (s *Scheduler) businessItem(typ NotificationType, appt *domain.Appointment, biz *domain.Business, at time.Time) *QueueItem {
	return &QueueItem{
		Type:           typ,
		RecipientID:    biz.ID,
		RecipientType:  RecipientBusiness,
		RecipientEmail: biz.Email,
		RecipientPhone: biz.Phone,
		Payload: QueuePayload{
			AppointmentID: appt.ID,
			ServiceID:     appt.ServiceID,
			BusinessID:    appt.BusinessID,
		},
		ScheduledFor: at,
	}
}

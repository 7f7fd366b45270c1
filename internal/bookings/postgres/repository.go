// Package postgres provides PostgreSQL implementation of the bookings repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bookhive/bookhive/internal/bookings"
	"github.com/bookhive/bookhive/internal/domain"
)

// Repository implements the bookings.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const appointmentColumns = `id, business_id, service_id, customer_name, customer_email,
	COALESCE(customer_phone, ''), date, start_time, end_time, status, COALESCE(notes, ''),
	created_at, updated_at`

// CreateAppointment inserts a new appointment.
func (r *Repository) CreateAppointment(ctx context.Context, appt *domain.Appointment) error {
	query := `
		INSERT INTO appointments (id, business_id, service_id, customer_name, customer_email,
			customer_phone, date, start_time, end_time, status, notes)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10, NULLIF($11, ''))
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		appt.ID,
		appt.BusinessID,
		appt.ServiceID,
		appt.CustomerName,
		appt.CustomerEmail,
		appt.CustomerPhone,
		appt.Date,
		appt.StartTime,
		appt.EndTime,
		appt.Status,
		appt.Notes,
	).Scan(&appt.CreatedAt, &appt.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}
	return nil
}

// GetAppointmentByID retrieves an appointment by its ID.
func (r *Repository) GetAppointmentByID(ctx context.Context, id string) (*domain.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	appt, err := scanAppointment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bookings.ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("get appointment by id: %w", err)
	}
	return appt, nil
}

// ListAppointments retrieves appointments for a business, newest day first.
func (r *Repository) ListAppointments(ctx context.Context, filter bookings.AppointmentFilter) ([]domain.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE business_id = $1`
	args := []interface{}{filter.BusinessID}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.FromDate != nil {
		args = append(args, *filter.FromDate)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if filter.ToDate != nil {
		args = append(args, *filter.ToDate)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}

	query += " ORDER BY date DESC, start_time ASC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var appointments []domain.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appointments = append(appointments, *appt)
	}

	return appointments, rows.Err()
}

// UpdateAppointmentStatus transitions an appointment to a new status.
func (r *Repository) UpdateAppointmentStatus(ctx context.Context, id string, status domain.AppointmentStatus) error {
	query := `UPDATE appointments SET status = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return bookings.ErrAppointmentNotFound
	}
	return nil
}

// RescheduleAppointment moves an appointment to a new date and time slot.
func (r *Repository) RescheduleAppointment(ctx context.Context, id string, date time.Time, startTime, endTime string) error {
	query := `
		UPDATE appointments
		SET date = $2, start_time = $3, end_time = $4, status = $5, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, id, date, startTime, endTime, domain.AppointmentStatusRescheduled)
	if err != nil {
		return fmt.Errorf("reschedule appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return bookings.ErrAppointmentNotFound
	}
	return nil
}

// GetServiceByID retrieves a service by its ID.
func (r *Repository) GetServiceByID(ctx context.Context, id string) (*domain.Service, error) {
	query := `
		SELECT id, business_id, name, COALESCE(description, ''), duration_minutes,
			price, currency, is_active, created_at, updated_at, archived_at
		FROM services
		WHERE id = $1
	`
	var svc domain.Service
	err := r.db.QueryRow(ctx, query, id).Scan(
		&svc.ID,
		&svc.BusinessID,
		&svc.Name,
		&svc.Description,
		&svc.DurationMinutes,
		&svc.Price,
		&svc.Currency,
		&svc.IsActive,
		&svc.CreatedAt,
		&svc.UpdatedAt,
		&svc.ArchivedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bookings.ErrServiceNotFound
		}
		return nil, fmt.Errorf("get service by id: %w", err)
	}
	return &svc, nil
}

// ListServices retrieves non-archived services for a business.
func (r *Repository) ListServices(ctx context.Context, businessID string) ([]domain.Service, error) {
	query := `
		SELECT id, business_id, name, COALESCE(description, ''), duration_minutes,
			price, currency, is_active, created_at, updated_at, archived_at
		FROM services
		WHERE business_id = $1 AND archived_at IS NULL
		ORDER BY name ASC
	`
	rows, err := r.db.Query(ctx, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var services []domain.Service
	for rows.Next() {
		var svc domain.Service
		err := rows.Scan(
			&svc.ID,
			&svc.BusinessID,
			&svc.Name,
			&svc.Description,
			&svc.DurationMinutes,
			&svc.Price,
			&svc.Currency,
			&svc.IsActive,
			&svc.CreatedAt,
			&svc.UpdatedAt,
			&svc.ArchivedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		services = append(services, svc)
	}

	return services, rows.Err()
}

// GetBusinessByID retrieves a business by its ID.
func (r *Repository) GetBusinessByID(ctx context.Context, id string) (*domain.Business, error) {
	query := `
		SELECT id, name, email, COALESCE(phone, ''), COALESCE(address, ''),
			timezone, created_at, updated_at
		FROM businesses
		WHERE id = $1
	`
	var biz domain.Business
	err := r.db.QueryRow(ctx, query, id).Scan(
		&biz.ID,
		&biz.Name,
		&biz.Email,
		&biz.Phone,
		&biz.Address,
		&biz.Timezone,
		&biz.CreatedAt,
		&biz.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bookings.ErrBusinessNotFound
		}
		return nil, fmt.Errorf("get business by id: %w", err)
	}
	return &biz, nil
}

// GetNotificationPreferences retrieves a business's notification
// preferences. Businesses without a stored row get the defaults.
func (r *Repository) GetNotificationPreferences(ctx context.Context, businessID string) (*domain.NotificationPreferences, error) {
	query := `
		SELECT business_id, email, whatsapp, sms,
			reminder_email, reminder_whatsapp, reminder_sms, updated_at
		FROM business_notification_preferences
		WHERE business_id = $1
	`
	var prefs domain.NotificationPreferences
	err := r.db.QueryRow(ctx, query, businessID).Scan(
		&prefs.BusinessID,
		&prefs.Email,
		&prefs.WhatsApp,
		&prefs.SMS,
		&prefs.ReminderEmail,
		&prefs.ReminderWhatsApp,
		&prefs.ReminderSMS,
		&prefs.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.DefaultNotificationPreferences(businessID), nil
		}
		return nil, fmt.Errorf("get notification preferences: %w", err)
	}
	return &prefs, nil
}

// UpsertNotificationPreferences stores a business's notification preferences.
func (r *Repository) UpsertNotificationPreferences(ctx context.Context, prefs *domain.NotificationPreferences) error {
	query := `
		INSERT INTO business_notification_preferences
			(business_id, email, whatsapp, sms, reminder_email, reminder_whatsapp, reminder_sms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (business_id) DO UPDATE SET
			email = EXCLUDED.email,
			whatsapp = EXCLUDED.whatsapp,
			sms = EXCLUDED.sms,
			reminder_email = EXCLUDED.reminder_email,
			reminder_whatsapp = EXCLUDED.reminder_whatsapp,
			reminder_sms = EXCLUDED.reminder_sms,
			updated_at = NOW()
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		prefs.BusinessID,
		prefs.Email,
		prefs.WhatsApp,
		prefs.SMS,
		prefs.ReminderEmail,
		prefs.ReminderWhatsApp,
		prefs.ReminderSMS,
	).Scan(&prefs.UpdatedAt)

	if err != nil {
		return fmt.Errorf("upsert notification preferences: %w", err)
	}
	return nil
}

func scanAppointment(row pgx.Row) (*domain.Appointment, error) {
	var appt domain.Appointment
	err := row.Scan(
		&appt.ID,
		&appt.BusinessID,
		&appt.ServiceID,
		&appt.CustomerName,
		&appt.CustomerEmail,
		&appt.CustomerPhone,
		&appt.Date,
		&appt.StartTime,
		&appt.EndTime,
		&appt.Status,
		&appt.Notes,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

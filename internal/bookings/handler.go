package bookings

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/bookhive/bookhive/internal/domain"
	"github.com/bookhive/bookhive/internal/pkg/httputil"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrAppointmentNotFound, Status: http.StatusNotFound, Message: "appointment not found"},
	{Error: ErrServiceNotFound, Status: http.StatusNotFound, Message: "service not found"},
	{Error: ErrBusinessNotFound, Status: http.StatusNotFound, Message: "business not found"},
	{Error: ErrAppointmentCancelled, Status: http.StatusConflict, Message: "appointment is already cancelled"},
	{Error: ErrInvalidTimeRange, Status: http.StatusBadRequest, Message: "start time must be before end time"},
}

// Handler handles HTTP requests for the bookings module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new bookings handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers booking routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", h.CreateBooking)
		r.Get("/{id}", h.GetBooking)
		r.Post("/{id}/cancel", h.CancelBooking)
		r.Post("/{id}/reschedule", h.RescheduleBooking)
	})

	r.Route("/businesses/{businessID}", func(r chi.Router) {
		r.Get("/appointments", h.ListBookings)
		r.Get("/services", h.ListServices)
		r.Get("/notification-preferences", h.GetNotificationPreferences)
		r.Put("/notification-preferences", h.UpdateNotificationPreferences)
	})
}

// CreateBookingRequest represents request body for booking an appointment.
type CreateBookingRequest struct {
	BusinessID    string `json:"business_id" validate:"required,uuid4"`
	ServiceID     string `json:"service_id" validate:"required,uuid4"`
	CustomerName  string `json:"customer_name" validate:"required,max=200"`
	CustomerEmail string `json:"customer_email" validate:"required,email"`
	CustomerPhone string `json:"customer_phone" validate:"omitempty,max=30"`
	Date          string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime     string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime       string `json:"end_time" validate:"required,datetime=15:04"`
	Notes         string `json:"notes" validate:"omitempty,max=1000"`
}

// RescheduleBookingRequest represents request body for moving an appointment.
type RescheduleBookingRequest struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04"`
}

// UpdatePreferencesRequest represents request body for notification preferences.
type UpdatePreferencesRequest struct {
	Email            bool `json:"email"`
	WhatsApp         bool `json:"whatsapp"`
	SMS              bool `json:"sms"`
	ReminderEmail    bool `json:"reminder_email"`
	ReminderWhatsApp bool `json:"reminder_whatsapp"`
	ReminderSMS      bool `json:"reminder_sms"`
}

// CreateBooking handles POST /appointments.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid date")
		return
	}

	appt, err := h.service.CreateBooking(r.Context(), CreateBookingInput{
		BusinessID:    req.BusinessID,
		ServiceID:     req.ServiceID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Date:          date,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Notes:         req.Notes,
	})
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusCreated, appt)
}

// GetBooking handles GET /appointments/{id}.
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	appt, err := h.service.GetBooking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, appt)
}

// ListBookings handles GET /businesses/{businessID}/appointments.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	filter := AppointmentFilter{BusinessID: chi.URLParam(r, "businessID")}

	if s := r.URL.Query().Get("status"); s != "" {
		status := domain.AppointmentStatus(s)
		if !status.IsValid() {
			httputil.Error(w, http.StatusBadRequest, "invalid status")
			return
		}
		filter.Status = &status
	}
	if from := r.URL.Query().Get("from"); from != "" {
		filter.FromDate = &from
	}
	if to := r.URL.Query().Get("to"); to != "" {
		filter.ToDate = &to
	}

	appointments, err := h.service.ListBookings(r.Context(), filter)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	if appointments == nil {
		appointments = []domain.Appointment{}
	}
	httputil.Success(w, http.StatusOK, appointments)
}

// ListServices handles GET /businesses/{businessID}/services.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.service.ListServices(r.Context(), chi.URLParam(r, "businessID"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	if services == nil {
		services = []domain.Service{}
	}
	httputil.Success(w, http.StatusOK, services)
}

// CancelBooking handles POST /appointments/{id}/cancel.
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	appt, err := h.service.CancelBooking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, appt)
}

// RescheduleBooking handles POST /appointments/{id}/reschedule.
func (h *Handler) RescheduleBooking(w http.ResponseWriter, r *http.Request) {
	var req RescheduleBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid date")
		return
	}

	appt, err := h.service.RescheduleBooking(r.Context(), chi.URLParam(r, "id"), date, req.StartTime, req.EndTime)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, appt)
}

// GetNotificationPreferences handles GET /businesses/{businessID}/notification-preferences.
func (h *Handler) GetNotificationPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.service.GetNotificationPreferences(r.Context(), chi.URLParam(r, "businessID"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, prefs)
}

// UpdateNotificationPreferences handles PUT /businesses/{businessID}/notification-preferences.
func (h *Handler) UpdateNotificationPreferences(w http.ResponseWriter, r *http.Request) {
	var req UpdatePreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	prefs := &domain.NotificationPreferences{
		BusinessID:       chi.URLParam(r, "businessID"),
		Email:            req.Email,
		WhatsApp:         req.WhatsApp,
		SMS:              req.SMS,
		ReminderEmail:    req.ReminderEmail,
		ReminderWhatsApp: req.ReminderWhatsApp,
		ReminderSMS:      req.ReminderSMS,
	}

	if err := h.service.UpdateNotificationPreferences(r.Context(), prefs); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, prefs)
}

package notifications

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/bookhive/bookhive/internal/pkg/httputil"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrItemNotFound, Status: http.StatusNotFound, Message: "notification not found"},
	{Error: ErrInvalidScheduleTime, Status: http.StatusBadRequest, Message: "invalid schedule time"},
	{Error: ErrMissingRecipientEmail, Status: http.StatusBadRequest, Message: "recipient email is required"},
}

// Handler exposes operational endpoints for the notification pipeline.
type Handler struct {
	queue     Repository
	drainer   Drainer
	processor *Processor
	cleaner   *Cleaner
	validator *validator.Validate
}

// NewHandler creates a new notifications handler.
func NewHandler(queue Repository, drainer Drainer, processor *Processor, cleaner *Cleaner) *Handler {
	return &Handler{
		queue:     queue,
		drainer:   drainer,
		processor: processor,
		cleaner:   cleaner,
		validator: validator.New(),
	}
}

// RegisterRoutes registers notification admin routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Get("/stats", h.GetStats)
		r.Get("/processor", h.GetProcessorStatus)
		r.Post("/process", h.ProcessNow)
		r.Post("/cleanup", h.CleanupNow)
	})
	r.Post("/appointments/{id}/notifications/cancel", h.CancelForAppointment)
}

// ProcessRequest represents request body for a manual queue drain.
type ProcessRequest struct {
	Limit int `json:"limit" validate:"omitempty,min=1,max=100"`
}

// GetStats handles GET /admin/notifications/stats.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.queue.GetQueueStats(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	RecordQueueStats(stats)
	httputil.Success(w, http.StatusOK, stats)
}

// GetProcessorStatus handles GET /admin/notifications/processor.
func (h *Handler) GetProcessorStatus(w http.ResponseWriter, r *http.Request) {
	httputil.Success(w, http.StatusOK, h.processor.Status())
}

// ProcessNow handles POST /admin/notifications/process. It drains due
// queue items synchronously, independent of the background processor.
func (h *Handler) ProcessNow(w http.ResponseWriter, r *http.Request) {
	var req ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	limit := req.Limit
	if limit == 0 {
		limit = DefaultProcessorConfig().BatchSize
	}

	processed, err := h.drainer.ProcessPendingNotifications(r.Context(), limit)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, map[string]int{"processed": processed})
}

// CleanupNow handles POST /admin/notifications/cleanup.
func (h *Handler) CleanupNow(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.cleaner.RunNow(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

// CancelForAppointment handles POST /admin/appointments/{id}/notifications/cancel.
func (h *Handler) CancelForAppointment(w http.ResponseWriter, r *http.Request) {
	appointmentID := chi.URLParam(r, "id")

	cancelled, err := h.queue.CancelForAppointment(r.Context(), appointmentID)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, map[string]int64{"cancelled": cancelled})
}

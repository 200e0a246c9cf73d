package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lavexpress/booking-platform/pkg/logging"
)

type bookingGetter interface {
	GetByID(ctx context.Context, id int64) (*Booking, error)
}

// Handler exposes the operator-facing booking endpoints.
type Handler struct {
	status *StatusService
	repo   bookingGetter
	logger *logging.Logger
}

// NewHandler creates the bookings HTTP handler.
func NewHandler(status *StatusService, repo bookingGetter, logger *logging.Logger) *Handler {
	if status == nil {
		panic("bookings: status service required")
	}
	if repo == nil {
		panic("bookings: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{status: status, repo: repo, logger: logger}
}

type statusRequest struct {
	Status string `json:"status"`
}

type bookingResponse struct {
	ID               int64  `json:"id"`
	LocationID       int64  `json:"location_id"`
	ServiceID        int64  `json:"service_id"`
	CustomerPhone    string `json:"customer_phone"`
	ScheduledAt      string `json:"scheduled_at"`
	Status           string `json:"status"`
	PaymentReference string `json:"payment_reference,omitempty"`
	PaymentStatus    string `json:"payment_status,omitempty"`
}

func toResponse(b *Booking) bookingResponse {
	return bookingResponse{
		ID:               b.ID,
		LocationID:       b.LocationID,
		ServiceID:        b.ServiceID,
		CustomerPhone:    b.CustomerPhone,
		ScheduledAt:      b.ScheduledAt.Format("2006-01-02 15:04"),
		Status:           string(b.Status),
		PaymentReference: b.PaymentReference,
		PaymentStatus:    b.PaymentStatus,
	}
}

// UpdateStatus handles PATCH /bookings/{id}/status: operators move bookings
// through IN_SERVICE, READY, CANCELLED and the customer gets notified.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	booking, err := h.status.Transition(r.Context(), id, Status(req.Status))
	switch {
	case errors.Is(err, ErrUnknownStatus):
		writeError(w, http.StatusUnprocessableEntity, "unknown status")
		return
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "booking not found")
		return
	case err != nil:
		h.logger.Error("status update failed", "error", err, "booking_id", id)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(booking))
}

// Get handles GET /bookings/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	booking, err := h.repo.GetByID(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "booking not found")
		return
	}
	if err != nil {
		h.logger.Error("booking lookup failed", "error", err, "booking_id", id)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(booking))
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/havenmed/clinic-automation/internal/appointments"
	"github.com/havenmed/clinic-automation/internal/noshow"
	"github.com/havenmed/clinic-automation/pkg/logging"
)

// manualMarker is the manual entry point of the no-show evaluator.
type manualMarker interface {
	MarkManual(ctx context.Context, id uuid.UUID, reason noshow.Reason, now time.Time) (*noshow.Record, error)
}

// recordLister reads the no-show audit trail.
type recordLister interface {
	ListByDate(ctx context.Context, date string) ([]noshow.Record, error)
}

// NoShowHandler serves staff-initiated no-show marking and the audit
// trail listing.
type NoShowHandler struct {
	evaluator manualMarker
	records   recordLister
	logger    *logging.Logger
}

// NewNoShowHandler creates a no-show handler.
func NewNoShowHandler(evaluator manualMarker, records recordLister, logger *logging.Logger) *NoShowHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &NoShowHandler{evaluator: evaluator, records: records, logger: logger}
}

// MarkNoShowRequest carries the staff-supplied reason code.
type MarkNoShowRequest struct {
	Reason string `json:"reason"`
}

// Mark marks one appointment no-show on staff request.
// POST /appointments/{id}/no-show
func (h *NoShowHandler) Mark(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		jsonError(w, "invalid appointment id", http.StatusBadRequest)
		return
	}
	var req MarkNoShowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	record, err := h.evaluator.MarkManual(r.Context(), id, noshow.Reason(req.Reason), time.Now())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, record)
	case errors.Is(err, noshow.ErrInvalidReason):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, appointments.ErrNotFound):
		jsonError(w, "appointment not found", http.StatusNotFound)
	case errors.Is(err, appointments.ErrStatusConflict):
		jsonError(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error("manual no-show failed", "appointment_id", id, "error", err)
		jsonError(w, "manual no-show failed", http.StatusInternalServerError)
	}
}

// List returns the no-show records for one calendar date, defaulting to
// today.
// GET /no-shows?date=YYYY-MM-DD
func (h *NoShowHandler) List(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		jsonError(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	records, err := h.records.ListByDate(r.Context(), date)
	if err != nil {
		h.logger.Error("no-show listing failed", "date", date, "error", err)
		jsonError(w, "could not list no-show records", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []noshow.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

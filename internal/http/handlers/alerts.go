package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/havenmed/clinic-automation/internal/alerts"
	"github.com/havenmed/clinic-automation/pkg/logging"
)

// alertLister lists alerts for the board view.
type alertLister interface {
	ListByStatus(ctx context.Context, status alerts.Status, limit int) ([]alerts.Alert, error)
}

// alertLifecycle drives alert transitions; tests inject fakes.
type alertLifecycle interface {
	Acknowledge(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*alerts.Alert, error)
	Resolve(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*alerts.Alert, error)
	Escalate(ctx context.Context, id uuid.UUID, level int, notes string) (*alerts.Alert, error)
}

// AlertsHandler serves the alert board and lifecycle actions.
type AlertsHandler struct {
	store     alertLister
	lifecycle alertLifecycle
	logger    *logging.Logger
}

// NewAlertsHandler creates an alerts handler.
func NewAlertsHandler(store alertLister, lifecycle alertLifecycle, logger *logging.Logger) *AlertsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AlertsHandler{store: store, lifecycle: lifecycle, logger: logger}
}

var validStatuses = map[alerts.Status]bool{
	alerts.StatusActive:       true,
	alerts.StatusAcknowledged: true,
	alerts.StatusResolved:     true,
	alerts.StatusEscalated:    true,
}

// List returns alerts in one status, newest first.
// GET /alerts?status=ACTIVE
func (h *AlertsHandler) List(w http.ResponseWriter, r *http.Request) {
	status := alerts.Status(r.URL.Query().Get("status"))
	if status == "" {
		status = alerts.StatusActive
	}
	if !validStatuses[status] {
		jsonError(w, "invalid status", http.StatusBadRequest)
		return
	}

	found, err := h.store.ListByStatus(r.Context(), status, 0)
	if err != nil {
		h.logger.Error("failed to list alerts", "status", status, "error", err)
		jsonError(w, "failed to list alerts", http.StatusInternalServerError)
		return
	}
	if found == nil {
		found = []alerts.Alert{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": found})
}

// ActorRequest carries the staff identity performing a lifecycle action.
type ActorRequest struct {
	ActorID uuid.UUID `json:"actor_id"`
}

// EscalateRequest carries the escalation tier and context notes.
type EscalateRequest struct {
	Level int    `json:"level"`
	Notes string `json:"notes"`
}

// Acknowledge marks an alert as seen.
// POST /alerts/{id}/acknowledge
func (h *AlertsHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	id, ok := alertID(w, r)
	if !ok {
		return
	}
	var req ActorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ActorID == uuid.Nil {
		jsonError(w, "actor_id is required", http.StatusBadRequest)
		return
	}

	alert, err := h.lifecycle.Acknowledge(r.Context(), id, req.ActorID)
	if err != nil {
		h.respondTransitionError(w, "acknowledge", id, err)
		return
	}
	writeJSON(w, http.StatusOK, alert)
}

// Resolve closes an alert.
// POST /alerts/{id}/resolve
func (h *AlertsHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, ok := alertID(w, r)
	if !ok {
		return
	}
	var req ActorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ActorID == uuid.Nil {
		jsonError(w, "actor_id is required", http.StatusBadRequest)
		return
	}

	alert, err := h.lifecycle.Resolve(r.Context(), id, req.ActorID)
	if err != nil {
		h.respondTransitionError(w, "resolve", id, err)
		return
	}
	writeJSON(w, http.StatusOK, alert)
}

// Escalate raises an alert to the escalation tier.
// POST /alerts/{id}/escalate
func (h *AlertsHandler) Escalate(w http.ResponseWriter, r *http.Request) {
	id, ok := alertID(w, r)
	if !ok {
		return
	}
	var req EscalateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	alert, err := h.lifecycle.Escalate(r.Context(), id, req.Level, req.Notes)
	if err != nil {
		h.respondTransitionError(w, "escalate", id, err)
		return
	}
	writeJSON(w, http.StatusOK, alert)
}

func alertID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		jsonError(w, "invalid alert id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func (h *AlertsHandler) respondTransitionError(w http.ResponseWriter, action string, id uuid.UUID, err error) {
	switch {
	case errors.Is(err, alerts.ErrNotFound):
		jsonError(w, "alert not found", http.StatusNotFound)
	case errors.Is(err, alerts.ErrConflict):
		jsonError(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error("alert transition failed", "action", action, "alert_id", id, "error", err)
		jsonError(w, "alert transition failed", http.StatusInternalServerError)
	}
}

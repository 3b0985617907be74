package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/havenmed/clinic-automation/internal/vitals"
	"github.com/havenmed/clinic-automation/pkg/logging"
)

// observationFinder loads the newest recorded observation of an
// admission.
type observationFinder interface {
	FindLatestByAdmission(ctx context.Context, admissionID uuid.UUID) (*vitals.Observation, error)
}

// ScoreHandler serves deterioration scores: a stateless preview for a
// posted set of readings, and the score of an admission's latest
// recorded observation.
type ScoreHandler struct {
	observations observationFinder
	logger       *logging.Logger
}

// NewScoreHandler creates a score handler.
func NewScoreHandler(observations observationFinder, logger *logging.Logger) *ScoreHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ScoreHandler{observations: observations, logger: logger}
}

// Score computes the deterioration score for the posted readings
// without persisting anything. Intake staff use it to sanity-check a
// manual entry before it is recorded.
// POST /vitals/score
func (h *ScoreHandler) Score(w http.ResponseWriter, r *http.Request) {
	var obs vitals.Observation
	if err := json.NewDecoder(r.Body).Decode(&obs); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if obs.Consciousness == "" {
		obs.Consciousness = vitals.ConsciousnessAlert
	}

	writeJSON(w, http.StatusOK, vitals.Score(obs))
}

// AdmissionScoreResponse pairs an admission's latest score with the
// time the underlying readings were taken.
type AdmissionScoreResponse struct {
	AdmissionID uuid.UUID                 `json:"admission_id"`
	RecordedAt  time.Time                 `json:"recorded_at"`
	Score       vitals.DeteriorationScore `json:"score"`
}

// AdmissionScore scores the latest recorded observation of one
// admission.
// GET /admissions/{id}/score
func (h *ScoreHandler) AdmissionScore(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		jsonError(w, "invalid admission id", http.StatusBadRequest)
		return
	}

	obs, err := h.observations.FindLatestByAdmission(r.Context(), id)
	if err != nil {
		h.logger.Error("admission score lookup failed", "admission_id", id, "error", err)
		jsonError(w, "could not load observations", http.StatusInternalServerError)
		return
	}
	if obs == nil {
		jsonError(w, "no observations recorded for admission", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, AdmissionScoreResponse{
		AdmissionID: id,
		RecordedAt:  obs.RecordedAt,
		Score:       vitals.Score(*obs),
	})
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenmed/clinic-automation/internal/vitals"
)

type fakeObservationFinder struct {
	byAdmission map[uuid.UUID]*vitals.Observation
	err         error
}

func (f *fakeObservationFinder) FindLatestByAdmission(_ context.Context, id uuid.UUID) (*vitals.Observation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byAdmission[id], nil
}

func scoreRouter(finder *fakeObservationFinder) http.Handler {
	h := NewScoreHandler(finder, nil)
	r := chi.NewRouter()
	r.Post("/vitals/score", h.Score)
	r.Get("/admissions/{id}/score", h.AdmissionScore)
	return r
}

func TestScorePreviewHealthyReadings(t *testing.T) {
	h := NewScoreHandler(nil, nil)

	body := `{
		"respiratory_rate": 16,
		"oxygen_saturation": 98,
		"temperature": 37.0,
		"systolic_bp": 120,
		"heart_rate": 72,
		"consciousness": "alert"
	}`
	req := httptest.NewRequest(http.MethodPost, "/vitals/score", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Score(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var score vitals.DeteriorationScore
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &score))
	assert.Zero(t, score.Total)
	assert.Equal(t, vitals.RiskLow, score.Risk)
}

func TestScorePreviewCriticalReadings(t *testing.T) {
	h := NewScoreHandler(nil, nil)

	body := `{
		"respiratory_rate": 26,
		"oxygen_saturation": 90,
		"temperature": 39.5,
		"systolic_bp": 85,
		"heart_rate": 135,
		"consciousness": "confusion"
	}`
	req := httptest.NewRequest(http.MethodPost, "/vitals/score", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Score(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var score vitals.DeteriorationScore
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &score))
	assert.Equal(t, vitals.RiskCritical, score.Risk)
	assert.Equal(t, 3, score.QSOFA)
}

func TestScorePreviewDefaultsConsciousness(t *testing.T) {
	h := NewScoreHandler(nil, nil)

	body := `{"respiratory_rate": 16, "oxygen_saturation": 98, "temperature": 37.0, "systolic_bp": 120, "heart_rate": 72}`
	req := httptest.NewRequest(http.MethodPost, "/vitals/score", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Score(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var score vitals.DeteriorationScore
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &score))
	assert.Zero(t, score.SubScores.Consciousness)
}

func TestScorePreviewRejectsBadBody(t *testing.T) {
	h := NewScoreHandler(nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/vitals/score", strings.NewReader("{nope"))
	rec := httptest.NewRecorder()
	h.Score(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdmissionScoreLatestObservation(t *testing.T) {
	admission := uuid.New()
	recorded := time.Date(2026, 8, 20, 14, 30, 0, 0, time.UTC)
	finder := &fakeObservationFinder{byAdmission: map[uuid.UUID]*vitals.Observation{
		admission: {
			AdmissionID:      admission,
			RespiratoryRate:  26,
			OxygenSaturation: 90,
			Temperature:      39.5,
			SystolicBP:       85,
			HeartRate:        135,
			Consciousness:    vitals.ConsciousnessConfusion,
			RecordedAt:       recorded,
		},
	}}
	router := scoreRouter(finder)

	req := httptest.NewRequest(http.MethodGet, "/admissions/"+admission.String()+"/score", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp AdmissionScoreResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, admission, resp.AdmissionID)
	assert.Equal(t, recorded, resp.RecordedAt.UTC())
	assert.Equal(t, vitals.RiskCritical, resp.Score.Risk)
}

func TestAdmissionScoreNoObservations(t *testing.T) {
	router := scoreRouter(&fakeObservationFinder{byAdmission: map[uuid.UUID]*vitals.Observation{}})

	req := httptest.NewRequest(http.MethodGet, "/admissions/"+uuid.NewString()+"/score", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdmissionScoreBadID(t *testing.T) {
	router := scoreRouter(&fakeObservationFinder{})

	req := httptest.NewRequest(http.MethodGet, "/admissions/not-a-uuid/score", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdmissionScoreLookupFailure(t *testing.T) {
	router := scoreRouter(&fakeObservationFinder{err: errors.New("db down")})

	req := httptest.NewRequest(http.MethodGet, "/admissions/"+uuid.NewString()+"/score", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

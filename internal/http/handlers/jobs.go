package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/havenmed/clinic-automation/internal/jobs"
	"github.com/havenmed/clinic-automation/pkg/logging"
)

// jobRunner is the slice of jobs.Runner the handler needs; tests inject
// fakes.
type jobRunner interface {
	Name() string
	TriggerManually(ctx context.Context) jobs.Result
	Health(ctx context.Context) jobs.HealthStatus
}

// JobsHandler serves manual triggers and health checks for the
// registered background jobs.
type JobsHandler struct {
	runners map[string]jobRunner
	logger  *logging.Logger
}

// NewJobsHandler creates a jobs handler over the given runners.
func NewJobsHandler(logger *logging.Logger, runners ...jobRunner) *JobsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	byName := make(map[string]jobRunner, len(runners))
	for _, r := range runners {
		byName[r.Name()] = r
	}
	return &JobsHandler{runners: byName, logger: logger}
}

// Trigger runs a job outside its schedule.
// POST /jobs/{job}/trigger
func (h *JobsHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "job")
	runner, ok := h.runners[name]
	if !ok {
		jsonError(w, "unknown job", http.StatusNotFound)
		return
	}

	h.logger.Info("manual job trigger", "job", name)
	result := runner.TriggerManually(r.Context())
	writeJSON(w, http.StatusOK, result)
}

// Health reports a job's recent run history and health flag.
// GET /jobs/{job}/health
func (h *JobsHandler) Health(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "job")
	runner, ok := h.runners[name]
	if !ok {
		jsonError(w, "unknown job", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, runner.Health(r.Context()))
}

// Package router assembles the HTTP operator surface.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/havenmed/clinic-automation/internal/http/handlers"
	httpmiddleware "github.com/havenmed/clinic-automation/internal/http/middleware"
	"github.com/havenmed/clinic-automation/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	JobsHandler    *handlers.JobsHandler
	AlertsHandler  *handlers.AlertsHandler
	ScoreHandler   *handlers.ScoreHandler
	NoShowHandler  *handlers.NoShowHandler
	MetricsHandler http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.JobsHandler != nil {
		r.Route("/jobs/{job}", func(r chi.Router) {
			r.Post("/trigger", cfg.JobsHandler.Trigger)
			r.Get("/health", cfg.JobsHandler.Health)
		})
	}

	if cfg.AlertsHandler != nil {
		r.Get("/alerts", cfg.AlertsHandler.List)
		r.Route("/alerts/{id}", func(r chi.Router) {
			r.Post("/acknowledge", cfg.AlertsHandler.Acknowledge)
			r.Post("/resolve", cfg.AlertsHandler.Resolve)
			r.Post("/escalate", cfg.AlertsHandler.Escalate)
		})
	}

	if cfg.ScoreHandler != nil {
		r.Post("/vitals/score", cfg.ScoreHandler.Score)
		r.Get("/admissions/{id}/score", cfg.ScoreHandler.AdmissionScore)
	}
	if cfg.NoShowHandler != nil {
		r.Post("/appointments/{id}/no-show", cfg.NoShowHandler.Mark)
		r.Get("/no-shows", cfg.NoShowHandler.List)
	}

	return r
}

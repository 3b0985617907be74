package jobs

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus tracks one execution of a scheduled job.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
)

// Source records what kicked the run off.
type Source string

const (
	SourceScheduled Source = "scheduled"
	SourceManual    Source = "manual"
)

// Run is an append-only audit row per job execution. The single-flight
// flag and the consecutive-failure counter are process state, not rows;
// they reset on restart, and the RUNNING row's elapsed time is what
// recovery trusts.
type Run struct {
	ID             uuid.UUID  `json:"id"`
	JobName        string     `json:"job_name"`
	Status         RunStatus  `json:"status"`
	Source         Source     `json:"source"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	DurationMS     int64      `json:"duration_ms"`
	ItemsProcessed int        `json:"items_processed"`
	ErrorText      string     `json:"error_text,omitempty"`

	// Metadata carries optional structured context about the run, such
	// as the id of a stuck run this one recovered from.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Result is the uniform outcome shape for scheduled and manual
// invocations alike, so operational tooling treats both the same.
type Result struct {
	Success        bool          `json:"success"`
	Skipped        bool          `json:"skipped"`
	Duration       time.Duration `json:"-"`
	DurationMS     int64         `json:"duration_ms"`
	ItemsProcessed int           `json:"items_processed"`
	Error          string        `json:"error,omitempty"`
}

// HealthStatus summarizes a job's recent behavior for the operator
// surface.
type HealthStatus struct {
	JobName             string     `json:"job_name"`
	IsHealthy           bool       `json:"is_healthy"`
	LastRunTime         *time.Time `json:"last_run_time,omitempty"`
	LastRunStatus       RunStatus  `json:"last_run_status,omitempty"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	RecentRuns          []Run      `json:"recent_runs"`
}

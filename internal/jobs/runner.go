package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/havenmed/clinic-automation/pkg/logging"
)

// JobFunc is the unit of work a runner wraps. It returns how many items
// the sweep processed.
type JobFunc func(ctx context.Context) (int, error)

// runStore is the slice of Store the runner needs; tests inject fakes.
type runStore interface {
	InsertRunning(ctx context.Context, run *Run) error
	MarkCompleted(ctx context.Context, id uuid.UUID, duration time.Duration, items int) error
	MarkFailed(ctx context.Context, id uuid.UUID, duration time.Duration, errText string) error
	MarkAbandoned(ctx context.Context, id uuid.UUID) error
	FindRunning(ctx context.Context, jobName string) (*Run, error)
	Recent(ctx context.Context, jobName string, n int) ([]Run, error)
}

// MetricsObserver receives run outcomes. Implemented by the engine
// metrics; nil is allowed.
type MetricsObserver interface {
	ObserveJobRun(job, status string, seconds float64, items int)
}

// Runner makes one domain evaluator safe to drive from an external
// scheduler: single-flight, stuck-run recovery, audit rows, and a health
// view. Each job owns its Runner instance; there is no global state, so
// several job types coexist in one process and tests build isolated
// runners.
type Runner struct {
	name           string
	fn             JobFunc
	store          runStore
	metrics        MetricsObserver
	logger         *logging.Logger
	timeout        time.Duration
	unhealthyAfter int
	now            func() time.Time

	mu                  sync.Mutex
	running             bool
	startedAt           time.Time
	consecutiveFailures int
}

// NewRunner creates a runner for a named job.
func NewRunner(name string, fn JobFunc, store runStore, metrics MetricsObserver, logger *logging.Logger) *Runner {
	if logger == nil {
		logger = logging.Default()
	}
	return &Runner{
		name:           name,
		fn:             fn,
		store:          store,
		metrics:        metrics,
		logger:         logger.WithJob(name),
		timeout:        10 * time.Minute,
		unhealthyAfter: 3,
		now:            time.Now,
	}
}

// WithTimeout overrides the whole-job wall-clock timeout.
func (r *Runner) WithTimeout(d time.Duration) *Runner {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// WithUnhealthyAfter overrides how many consecutive failures flip the
// health flag.
func (r *Runner) WithUnhealthyAfter(n int) *Runner {
	if n > 0 {
		r.unhealthyAfter = n
	}
	return r
}

// Name returns the job name.
func (r *Runner) Name() string {
	return r.name
}

// Run executes the job as a scheduled invocation.
func (r *Runner) Run(ctx context.Context) Result {
	return r.execute(ctx, SourceScheduled)
}

// TriggerManually executes the job outside its schedule. It goes through
// the same single-flight and recovery path as a scheduled run.
func (r *Runner) TriggerManually(ctx context.Context) Result {
	return r.execute(ctx, SourceManual)
}

func (r *Runner) execute(ctx context.Context, source Source) Result {
	now := r.now()

	r.mu.Lock()
	if r.running {
		if now.Sub(r.startedAt) < r.timeout {
			r.mu.Unlock()
			r.logger.Info("run skipped, prior run still in flight", "source", source)
			return Result{Skipped: true}
		}
		// The in-process flag is stale; the RUNNING row check below
		// handles the audit side.
		r.running = false
	}
	r.running = true
	r.startedAt = now
	r.mu.Unlock()

	// Durable stuck-run check. The flag above is process-local and lost
	// on restart; the RUNNING row's elapsed time is authoritative.
	var recoveredFrom uuid.UUID
	if prior, err := r.store.FindRunning(ctx, r.name); err != nil {
		r.logger.Error("could not check for prior run", "error", err)
	} else if prior != nil {
		elapsed := now.Sub(prior.StartedAt)
		if elapsed < r.timeout {
			r.release()
			r.logger.Info("run skipped, prior run row still within timeout",
				"prior_run_id", prior.ID, "elapsed", elapsed)
			return Result{Skipped: true}
		}
		if err := r.store.MarkAbandoned(ctx, prior.ID); err != nil {
			r.logger.Error("could not abandon stuck run", "prior_run_id", prior.ID, "error", err)
		}
		r.mu.Lock()
		r.consecutiveFailures++
		r.mu.Unlock()
		recoveredFrom = prior.ID
		r.logger.Warn("stuck run recovered", "prior_run_id", prior.ID, "elapsed", elapsed)
	}

	run := &Run{JobName: r.name, Source: source, StartedAt: now}
	if recoveredFrom != uuid.Nil {
		run.Metadata = map[string]any{"recovered_run_id": recoveredFrom.String()}
	}
	if err := r.store.InsertRunning(ctx, run); err != nil {
		r.release()
		r.logger.Error("could not record run start", "error", err)
		return Result{Error: err.Error()}
	}

	r.logger.Info("run started", "run_id", run.ID, "source", source)
	items, err := r.invoke(ctx)
	duration := r.now().Sub(now)

	if err != nil {
		if markErr := r.store.MarkFailed(ctx, run.ID, duration, err.Error()); markErr != nil {
			r.logger.Error("could not record run failure", "run_id", run.ID, "error", markErr)
		}
		r.mu.Lock()
		r.consecutiveFailures++
		failures := r.consecutiveFailures
		r.mu.Unlock()
		r.release()
		if r.metrics != nil {
			r.metrics.ObserveJobRun(r.name, "failed", duration.Seconds(), items)
		}
		r.logger.Error("run failed", "run_id", run.ID, "duration", duration,
			"consecutive_failures", failures, "error", err)
		return Result{Duration: duration, DurationMS: duration.Milliseconds(), Error: err.Error()}
	}

	if markErr := r.store.MarkCompleted(ctx, run.ID, duration, items); markErr != nil {
		r.logger.Error("could not record run completion", "run_id", run.ID, "error", markErr)
	}
	r.mu.Lock()
	r.consecutiveFailures = 0
	r.mu.Unlock()
	r.release()
	if r.metrics != nil {
		r.metrics.ObserveJobRun(r.name, "completed", duration.Seconds(), items)
	}
	r.logger.Info("run completed", "run_id", run.ID, "duration", duration, "items", items)
	return Result{
		Success:        true,
		Duration:       duration,
		DurationMS:     duration.Milliseconds(),
		ItemsProcessed: items,
	}
}

// invoke calls the wrapped evaluator, converting panics into errors so a
// misbehaving sweep can never take the scheduler down.
func (r *Runner) invoke(ctx context.Context) (items int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("job panicked: %v", rec)
		}
	}()
	return r.fn(ctx)
}

func (r *Runner) release() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
}

// Health reports the runner's operational state for the operator
// surface.
func (r *Runner) Health(ctx context.Context) HealthStatus {
	r.mu.Lock()
	failures := r.consecutiveFailures
	r.mu.Unlock()

	status := HealthStatus{
		JobName:             r.name,
		IsHealthy:           failures < r.unhealthyAfter,
		ConsecutiveFailures: failures,
	}

	recent, err := r.store.Recent(ctx, r.name, 10)
	if err != nil {
		r.logger.Error("could not load recent runs", "error", err)
		return status
	}
	status.RecentRuns = recent
	if len(recent) > 0 {
		started := recent[0].StartedAt
		status.LastRunTime = &started
		status.LastRunStatus = recent[0].Status
	}
	return status
}

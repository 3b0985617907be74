// Package deterioration scores the latest vitals of every active
// admission and raises alerts when a patient crosses into moderate or
// critical risk.
package deterioration

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/havenmed/clinic-automation/internal/alerts"
	"github.com/havenmed/clinic-automation/internal/notify"
	"github.com/havenmed/clinic-automation/internal/vitals"
	"github.com/havenmed/clinic-automation/pkg/logging"
)

// observationSource supplies the newest observation per open admission.
type observationSource interface {
	FindLatestForActiveAdmissions(ctx context.Context) ([]vitals.Observation, error)
}

// alertStore creates alerts and answers the existing-alert dedupe check.
type alertStore interface {
	FindActive(ctx context.Context, subjectType alerts.SubjectType, subjectID uuid.UUID, kind alerts.Kind) (*alerts.Alert, error)
	Create(ctx context.Context, a *alerts.Alert) error
}

// raiseGuard is the atomic create-if-absent gate.
type raiseGuard interface {
	FirstRaise(ctx context.Context, subjectType alerts.SubjectType, subjectID uuid.UUID, kind alerts.Kind) bool
	Clear(ctx context.Context, subjectType alerts.SubjectType, subjectID uuid.UUID, kind alerts.Kind)
}

// metricsObserver receives raised-alert counts; nil is allowed.
type metricsObserver interface {
	ObserveAlertRaised(kind string)
}

// Evaluator runs the deterioration sweep.
type Evaluator struct {
	observations observationSource
	alerts       alertStore
	guard        raiseGuard
	notifier     notify.Notifier
	metrics      metricsObserver
	onCall       []uuid.UUID
	logger       *logging.Logger
}

// NewEvaluator creates a deterioration evaluator. onCall lists the staff
// paged directly when a patient scores critical.
func NewEvaluator(observations observationSource, alertSt alertStore, guard raiseGuard, notifier notify.Notifier, metrics metricsObserver, onCall []uuid.UUID, logger *logging.Logger) *Evaluator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Evaluator{
		observations: observations,
		alerts:       alertSt,
		guard:        guard,
		notifier:     notifier,
		metrics:      metrics,
		onCall:       onCall,
		logger:       logger,
	}
}

// Sweep scores the latest observation of every active admission and
// raises a DETERIORATION alert for each one at moderate risk or worse.
// Returns the number of alerts raised. Per-admission failures are logged
// and skipped.
func (e *Evaluator) Sweep(ctx context.Context, _ time.Time) (int, error) {
	observations, err := e.observations.FindLatestForActiveAdmissions(ctx)
	if err != nil {
		return 0, fmt.Errorf("deterioration: sweep: %w", err)
	}

	raised := 0
	for i := range observations {
		obs := &observations[i]
		score := vitals.Score(*obs)
		if score.Risk == vitals.RiskLow {
			continue
		}

		ok, err := e.raise(ctx, obs, score)
		if err != nil {
			e.logger.Error("deterioration: alert failed",
				"admission_id", obs.AdmissionID, "risk", score.Risk, "error", err)
			continue
		}
		if !ok {
			continue
		}
		raised++
		if score.Risk == vitals.RiskCritical {
			e.pageOnCall(ctx, obs, score)
		}
	}
	return raised, nil
}

// raise creates one alert per open admission and kind. The store lookup
// catches alerts from earlier sweeps; the guard closes the concurrent
// read-then-write window.
func (e *Evaluator) raise(ctx context.Context, obs *vitals.Observation, score vitals.DeteriorationScore) (bool, error) {
	existing, err := e.alerts.FindActive(ctx, alerts.SubjectAdmission, obs.AdmissionID, alerts.KindDeterioration)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	if e.guard != nil && !e.guard.FirstRaise(ctx, alerts.SubjectAdmission, obs.AdmissionID, alerts.KindDeterioration) {
		return false, nil
	}

	severity := alerts.SeverityWarning
	if score.Risk == vitals.RiskCritical {
		severity = alerts.SeverityCritical
	}
	alert := &alerts.Alert{
		SubjectType: alerts.SubjectAdmission,
		SubjectID:   obs.AdmissionID,
		Kind:        alerts.KindDeterioration,
		Severity:    severity,
		Message: fmt.Sprintf("deterioration score %d (%s, qSOFA %d): %s",
			score.Total, score.Risk, score.QSOFA, score.Guidance),
	}
	if err := e.alerts.Create(ctx, alert); err != nil {
		if e.guard != nil {
			e.guard.Clear(ctx, alerts.SubjectAdmission, obs.AdmissionID, alerts.KindDeterioration)
		}
		return false, err
	}

	if e.metrics != nil {
		e.metrics.ObserveAlertRaised(string(alerts.KindDeterioration))
	}
	e.logger.Info("deterioration: alert raised",
		"admission_id", obs.AdmissionID, "total", score.Total, "risk", score.Risk,
		"extreme", score.Extreme, "qsofa", score.QSOFA)
	return true, nil
}

func (e *Evaluator) pageOnCall(ctx context.Context, obs *vitals.Observation, score vitals.DeteriorationScore) {
	if e.notifier == nil || len(e.onCall) == 0 {
		return
	}
	payload := fmt.Sprintf("CRITICAL deterioration: admission %s scored %d. %s",
		obs.AdmissionID, score.Total, score.Guidance)
	for _, recipient := range e.onCall {
		err := e.notifier.Send(ctx, recipient, "deterioration_critical", payload,
			[]notify.Channel{notify.ChannelSMS, notify.ChannelPush})
		if err != nil {
			e.logger.Warn("deterioration: on-call notification failed",
				"admission_id", obs.AdmissionID, "recipient_id", recipient, "error", err)
		}
	}
}

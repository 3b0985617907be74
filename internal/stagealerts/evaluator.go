// Package stagealerts watches checked-in appointments for stalled intake
// stages and raises staff alerts when a stage overruns its window.
package stagealerts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/havenmed/clinic-automation/internal/alerts"
	"github.com/havenmed/clinic-automation/internal/appointments"
	"github.com/havenmed/clinic-automation/internal/notify"
	"github.com/havenmed/clinic-automation/internal/schedule"
	"github.com/havenmed/clinic-automation/pkg/logging"
)

// appointmentSource is the slice of the appointment store this evaluator
// reads from.
type appointmentSource interface {
	FindCheckedInWithoutVitals(ctx context.Context, date string) ([]appointments.Appointment, error)
	FindCheckedInWithVitals(ctx context.Context, date string) ([]appointments.Appointment, error)
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

// Evaluator runs the two stage sweeps: vitals not recorded and doctor
// not attending.
type Evaluator struct {
	appts        appointmentSource
	alerts       alertStore
	guard        raiseGuard
	notifier     notify.Notifier
	metrics      metricsObserver
	vitalsBuffer int
	doctorBuffer int
	logger       *logging.Logger
}

// NewEvaluator creates a stage alert evaluator. Buffers are minutes past
// the slot end before each stage counts as stalled.
func NewEvaluator(appts appointmentSource, alertSt alertStore, guard raiseGuard, notifier notify.Notifier, metrics metricsObserver, vitalsBufferMinutes, doctorBufferMinutes int, logger *logging.Logger) *Evaluator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Evaluator{
		appts:        appts,
		alerts:       alertSt,
		guard:        guard,
		notifier:     notifier,
		metrics:      metrics,
		vitalsBuffer: vitalsBufferMinutes,
		doctorBuffer: doctorBufferMinutes,
		logger:       logger,
	}
}

// Sweep runs both stage checks for today's checked-in appointments and
// returns the number of alerts raised. Failures on one appointment are
// logged and skipped.
func (e *Evaluator) Sweep(ctx context.Context, now time.Time) (int, error) {
	date := now.Format(schedule.DateLayout)
	nowMinutes := now.Hour()*60 + now.Minute()

	raised := 0
	noVitals, err := e.appts.FindCheckedInWithoutVitals(ctx, date)
	if err != nil {
		return 0, fmt.Errorf("stagealerts: no-vitals sweep: %w", err)
	}
	for i := range noVitals {
		appt := &noVitals[i]
		if !e.stageOverrun(appt, e.vitalsBuffer, nowMinutes) {
			continue
		}
		message := fmt.Sprintf("no vitals recorded %d minutes after the %s slot started",
			appt.SlotDurationMinutes+e.vitalsBuffer, appt.StartTime)
		ok, err := e.raise(ctx, appt, alerts.KindNoVitals, message)
		if err != nil {
			e.logger.Error("stagealerts: no-vitals alert failed",
				"appointment_id", appt.ID, "error", err)
			continue
		}
		if ok {
			raised++
		}
	}

	withVitals, err := e.appts.FindCheckedInWithVitals(ctx, date)
	if err != nil {
		return raised, fmt.Errorf("stagealerts: no-doctor sweep: %w", err)
	}
	for i := range withVitals {
		appt := &withVitals[i]
		if !e.stageOverrun(appt, e.doctorBuffer, nowMinutes) {
			continue
		}
		message := fmt.Sprintf("vitals recorded but no practitioner attending %d minutes after the %s slot started",
			appt.SlotDurationMinutes+e.doctorBuffer, appt.StartTime)
		ok, err := e.raise(ctx, appt, alerts.KindNoDoctor, message)
		if err != nil {
			e.logger.Error("stagealerts: no-doctor alert failed",
				"appointment_id", appt.ID, "error", err)
			continue
		}
		if !ok {
			continue
		}
		raised++
		e.notifyPractitioner(ctx, appt, message)
	}

	return raised, nil
}

func (e *Evaluator) stageOverrun(appt *appointments.Appointment, buffer, nowMinutes int) bool {
	startMinutes, err := schedule.MinutesSinceMidnight(appt.StartTime)
	if err != nil {
		e.logger.Error("stagealerts: skipping appointment with malformed start time",
			"appointment_id", appt.ID, "start_time", appt.StartTime, "error", err)
		return false
	}
	return schedule.IsPastThreshold(startMinutes, appt.SlotDurationMinutes, buffer, nowMinutes)
}

// raise creates one alert for the appointment unless one is already open.
// The store lookup catches alerts raised in earlier sweeps; the guard
// closes the concurrent read-then-write window. Returns true when a new
// alert was created.
func (e *Evaluator) raise(ctx context.Context, appt *appointments.Appointment, kind alerts.Kind, message string) (bool, error) {
	existing, err := e.alerts.FindActive(ctx, alerts.SubjectAppointment, appt.ID, kind)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	if e.guard != nil && !e.guard.FirstRaise(ctx, alerts.SubjectAppointment, appt.ID, kind) {
		return false, nil
	}

	alert := &alerts.Alert{
		SubjectType: alerts.SubjectAppointment,
		SubjectID:   appt.ID,
		Kind:        kind,
		Severity:    alerts.SeverityWarning,
		Message:     message,
	}
	if err := e.alerts.Create(ctx, alert); err != nil {
		if e.guard != nil {
			e.guard.Clear(ctx, alerts.SubjectAppointment, appt.ID, kind)
		}
		return false, err
	}

	if e.metrics != nil {
		e.metrics.ObserveAlertRaised(string(kind))
	}
	e.logger.Info("stagealerts: alert raised",
		"appointment_id", appt.ID, "kind", kind, "message", message)
	return true, nil
}

func (e *Evaluator) notifyPractitioner(ctx context.Context, appt *appointments.Appointment, message string) {
	if e.notifier == nil {
		return
	}
	payload := fmt.Sprintf("Patient waiting: %s (appointment %s at %s)", message, appt.ID, appt.StartTime)
	err := e.notifier.Send(ctx, appt.PractitionerID, "no_doctor", payload, []notify.Channel{notify.ChannelSMS, notify.ChannelPush})
	if err != nil {
		e.logger.Warn("stagealerts: practitioner notification failed",
			"appointment_id", appt.ID, "practitioner_id", appt.PractitionerID, "error", err)
	}
}

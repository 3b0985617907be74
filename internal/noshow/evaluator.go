// Package noshow marks overdue appointments missed, reclaims their slots
// and writes the audit trail.
package noshow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/havenmed/clinic-automation/internal/appointments"
	"github.com/havenmed/clinic-automation/internal/notify"
	"github.com/havenmed/clinic-automation/internal/schedule"
	"github.com/havenmed/clinic-automation/pkg/logging"
)

// ErrInvalidReason rejects manual no-show calls with an unrecognized
// reason code before any mutation happens.
var ErrInvalidReason = errors.New("noshow: invalid manual reason")

// appointmentStore is the slice of the appointment collaborator the
// evaluator needs.
type appointmentStore interface {
	FindDueForNoShow(ctx context.Context, date string) ([]appointments.Appointment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*appointments.Appointment, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, newStatus appointments.Status, from ...appointments.Status) error
}

// recordStore appends no-show audit rows.
type recordStore interface {
	Insert(ctx context.Context, r *Record) error
}

// slotReleaser is the slot release coordinator.
type slotReleaser interface {
	ReleaseIfBookable(ctx context.Context, appt *appointments.Appointment, now time.Time) bool
}

// metricsObserver receives sweep outcomes; nil is allowed.
type metricsObserver interface {
	ObserveNoShow(reason string)
	ObserveSlotRelease(released bool)
}

// Evaluator runs the no-show sweep and serves manual no-show calls.
type Evaluator struct {
	appts    appointmentStore
	records  recordStore
	slots    slotReleaser
	notifier notify.Notifier
	metrics  metricsObserver
	logger   *logging.Logger
}

// NewEvaluator creates a no-show evaluator.
func NewEvaluator(appts appointmentStore, records recordStore, slots slotReleaser, notifier notify.Notifier, metrics metricsObserver, logger *logging.Logger) *Evaluator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Evaluator{
		appts:    appts,
		records:  records,
		slots:    slots,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
	}
}

// Sweep scans today's SCHEDULED/CONFIRMED appointments and marks the
// overdue ones. Each appointment is handled independently; one failure
// is logged and skipped, never aborting the batch. Returns the number of
// appointments transitioned.
func (e *Evaluator) Sweep(ctx context.Context, now time.Time) (int, error) {
	date := now.Format(schedule.DateLayout)
	due, err := e.appts.FindDueForNoShow(ctx, date)
	if err != nil {
		return 0, fmt.Errorf("noshow: sweep: %w", err)
	}

	nowMinutes := now.Hour()*60 + now.Minute()
	processed := 0
	for i := range due {
		appt := &due[i]
		startMinutes, err := schedule.MinutesSinceMidnight(appt.StartTime)
		if err != nil {
			e.logger.Error("noshow: skipping appointment with malformed start time",
				"appointment_id", appt.ID, "start_time", appt.StartTime, "error", err)
			continue
		}
		if !schedule.IsPastThreshold(startMinutes, appt.SlotDurationMinutes, 0, nowMinutes) {
			continue
		}
		if err := e.mark(ctx, appt, ReasonAutoTimeout, now, appointments.StatusScheduled, appointments.StatusConfirmed); err != nil {
			e.logger.Error("noshow: failed to mark appointment",
				"appointment_id", appt.ID, "error", err)
			continue
		}
		processed++
	}
	return processed, nil
}

// MarkManual marks one appointment no-show on staff request. It rejects
// unknown reason codes and refuses appointments already in a terminal
// state with appointments.ErrStatusConflict.
func (e *Evaluator) MarkManual(ctx context.Context, id uuid.UUID, reason Reason, now time.Time) (*Record, error) {
	if !ValidManualReason(reason) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidReason, reason)
	}

	appt, err := e.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status.IsTerminalForAutomation() {
		return nil, fmt.Errorf("noshow: appointment is %s: %w", appt.Status, appointments.ErrStatusConflict)
	}

	if err := e.mark(ctx, appt, reason, now,
		appointments.StatusScheduled, appointments.StatusConfirmed, appointments.StatusCheckedIn); err != nil {
		return nil, err
	}

	return &Record{AppointmentID: appt.ID}, nil
}

// mark performs the transition, slot release, audit record and
// best-effort notification. The status change and the audit row stand
// even when the slot release or the notification fails.
func (e *Evaluator) mark(ctx context.Context, appt *appointments.Appointment, reason Reason, now time.Time, from ...appointments.Status) error {
	if err := e.appts.TransitionStatus(ctx, appt.ID, appointments.StatusNoShow, from...); err != nil {
		return err
	}

	released := e.slots.ReleaseIfBookable(ctx, appt, now)
	if e.metrics != nil {
		e.metrics.ObserveSlotRelease(released)
	}

	notified := false
	if e.notifier != nil {
		payload := fmt.Sprintf("You missed your %s appointment on %s. Please contact the clinic to rebook.",
			appt.StartTime, appt.Date)
		if err := e.notifier.Send(ctx, appt.PatientID, "no_show", payload, []notify.Channel{notify.ChannelSMS}); err != nil {
			e.logger.Warn("noshow: patient notification failed",
				"appointment_id", appt.ID, "patient_id", appt.PatientID, "error", err)
		} else {
			notified = true
		}
	}

	record := &Record{
		AppointmentID:    appt.ID,
		PatientID:        appt.PatientID,
		Reason:           reason,
		SlotDate:         appt.Date,
		SlotTime:         appt.StartTime,
		TimeoutMinutes:   appt.SlotDurationMinutes,
		SlotReleased:     released,
		NotificationSent: notified,
	}
	if err := e.records.Insert(ctx, record); err != nil {
		// The transition already happened; losing the audit row is a
		// defect worth a loud log, not a rollback.
		e.logger.Error("noshow: audit record write failed",
			"appointment_id", appt.ID, "error", err)
	}

	if e.metrics != nil {
		e.metrics.ObserveNoShow(string(reason))
	}
	e.logger.Info("noshow: appointment marked",
		"appointment_id", appt.ID, "reason", reason, "slot_released", released, "notified", notified)
	return nil
}

// Package slots decides whether a vacated appointment slot returns to
// the bookable pool.
package slots

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/havenmed/clinic-automation/internal/appointments"
	"github.com/havenmed/clinic-automation/internal/schedule"
	"github.com/havenmed/clinic-automation/pkg/logging"
)

// Manager is the external slot-management collaborator.
type Manager interface {
	Release(ctx context.Context, appointmentID uuid.UUID) error
}

// Coordinator wraps the bookability rule around the slot manager. A slot
// that fails to release stays unbookable until staff fix it by hand; the
// failure is logged, not retried.
type Coordinator struct {
	manager       Manager
	bufferMinutes int
	logger        *logging.Logger
}

// NewCoordinator creates a slot release coordinator with the given lead
// buffer.
func NewCoordinator(manager Manager, bufferMinutes int, logger *logging.Logger) *Coordinator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Coordinator{manager: manager, bufferMinutes: bufferMinutes, logger: logger}
}

// ReleaseIfBookable returns the slot to the pool when it is still far
// enough ahead to be rebooked. The returned flag feeds the no-show audit
// record; a release failure never undoes the no-show transition.
func (c *Coordinator) ReleaseIfBookable(ctx context.Context, appt *appointments.Appointment, now time.Time) bool {
	if !schedule.IsSlotStillBookable(appt.Date, appt.StartTime, c.bufferMinutes, now) {
		return false
	}
	if err := c.manager.Release(ctx, appt.ID); err != nil {
		c.logger.Error("slots: release failed, slot stays blocked",
			"appointment_id", appt.ID, "date", appt.Date, "start_time", appt.StartTime, "error", err)
		return false
	}
	c.logger.Info("slots: released back to pool",
		"appointment_id", appt.ID, "date", appt.Date, "start_time", appt.StartTime)
	return true
}

package appointments

import (
	"time"

	"github.com/google/uuid"
)

// Status tracks the lifecycle of a scheduled appointment.
type Status string

const (
	StatusScheduled  Status = "SCHEDULED"
	StatusConfirmed  Status = "CONFIRMED"
	StatusCheckedIn  Status = "CHECKED_IN"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
	StatusNoShow     Status = "NO_SHOW"
)

// IsTerminalForAutomation reports whether automation must leave the
// appointment alone. Once a visit is underway or closed out, only staff
// may change it.
func (s Status) IsTerminalForAutomation() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusInProgress, StatusNoShow:
		return true
	}
	return false
}

// Appointment is a booked slot. The engine reads appointments and
// requests status transitions; it never creates or deletes them.
type Appointment struct {
	ID                  uuid.UUID  `json:"id"`
	PatientID           uuid.UUID  `json:"patient_id"`
	PractitionerID      uuid.UUID  `json:"practitioner_id"`
	FacilityID          uuid.UUID  `json:"facility_id"`
	Date                string     `json:"date"`       // YYYY-MM-DD
	StartTime           string     `json:"start_time"` // HH:MM
	SlotDurationMinutes int        `json:"slot_duration_minutes"`
	Status              Status     `json:"status"`
	VitalsRecordedAt    *time.Time `json:"vitals_recorded_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

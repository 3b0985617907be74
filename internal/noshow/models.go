package noshow

import (
	"time"

	"github.com/google/uuid"
)

// Reason explains why an appointment was marked no-show.
type Reason string

const (
	ReasonAutoTimeout     Reason = "AUTO_TIMEOUT"
	ReasonStaffInitiated  Reason = "STAFF_INITIATED"
	ReasonDoctorInitiated Reason = "DOCTOR_INITIATED"
	ReasonPatientCalled   Reason = "PATIENT_CALLED"
)

// ValidManualReason reports whether a reason code is accepted from the
// manual entry point. AUTO_TIMEOUT is reserved for the sweep.
func ValidManualReason(r Reason) bool {
	switch r {
	case ReasonStaffInitiated, ReasonDoctorInitiated, ReasonPatientCalled:
		return true
	}
	return false
}

// Record is the immutable audit row written for every no-show
// transition. Append-only.
type Record struct {
	ID               uuid.UUID `json:"id"`
	AppointmentID    uuid.UUID `json:"appointment_id"`
	PatientID        uuid.UUID `json:"patient_id"`
	Reason           Reason    `json:"reason"`
	SlotDate         string    `json:"slot_date"`
	SlotTime         string    `json:"slot_time"`
	TimeoutMinutes   int       `json:"timeout_minutes"`
	SlotReleased     bool      `json:"slot_released"`
	NotificationSent bool      `json:"notification_sent"`
	CreatedAt        time.Time `json:"created_at"`
}

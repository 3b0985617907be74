package alerts

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies what condition raised the alert.
type Kind string

const (
	KindNoVitals      Kind = "NO_VITALS"
	KindNoDoctor      Kind = "NO_DOCTOR"
	KindDeterioration Kind = "DETERIORATION"
	KindLowStock      Kind = "LOW_STOCK"
)

// Severity grades how urgently staff should react.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// Status tracks the alert through its lifecycle. Alerts are never
// deleted; RESOLVED is terminal.
type Status string

const (
	StatusActive       Status = "ACTIVE"
	StatusAcknowledged Status = "ACKNOWLEDGED"
	StatusResolved     Status = "RESOLVED"
	StatusEscalated    Status = "ESCALATED"
)

// SubjectType names the entity an alert is about.
type SubjectType string

const (
	SubjectAppointment SubjectType = "appointment"
	SubjectAdmission   SubjectType = "admission"
	SubjectInventory   SubjectType = "inventory_item"
)

// Alert is an automation-raised attention record.
type Alert struct {
	ID              uuid.UUID   `json:"id"`
	SubjectType     SubjectType `json:"subject_type"`
	SubjectID       uuid.UUID   `json:"subject_id"`
	Kind            Kind        `json:"kind"`
	Severity        Severity    `json:"severity"`
	Message         string      `json:"message"`
	Status          Status      `json:"status"`
	TriggeredAt     time.Time   `json:"triggered_at"`
	AcknowledgedBy  *uuid.UUID  `json:"acknowledged_by,omitempty"`
	AcknowledgedAt  *time.Time  `json:"acknowledged_at,omitempty"`
	ResolvedBy      *uuid.UUID  `json:"resolved_by,omitempty"`
	ResolvedAt      *time.Time  `json:"resolved_at,omitempty"`
	EscalationLevel int         `json:"escalation_level,omitempty"`
	EscalationNotes string      `json:"escalation_notes,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

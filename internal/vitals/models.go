package vitals

import (
	"time"

	"github.com/google/uuid"
)

// Consciousness levels follow the ACVPU scale. Anything other than alert
// scores the maximum neuro sub-score.
const (
	ConsciousnessAlert        = "alert"
	ConsciousnessConfusion    = "confusion"
	ConsciousnessVoice        = "voice"
	ConsciousnessPain         = "pain"
	ConsciousnessUnresponsive = "unresponsive"
)

// Observation is a timestamped set of physiological readings attached to
// an admission. Immutable once recorded.
type Observation struct {
	ID                 uuid.UUID `json:"id"`
	AdmissionID        uuid.UUID `json:"admission_id"`
	PatientID          uuid.UUID `json:"patient_id"`
	RespiratoryRate    int       `json:"respiratory_rate"`
	OxygenSaturation   int       `json:"oxygen_saturation"`
	SupplementalOxygen bool      `json:"supplemental_oxygen"`
	Temperature        float64   `json:"temperature"`
	SystolicBP         int       `json:"systolic_bp"`
	DiastolicBP        int       `json:"diastolic_bp"`
	HeartRate          int       `json:"heart_rate"`
	Consciousness      string    `json:"consciousness"`
	RecordedAt         time.Time `json:"recorded_at"`
}

// RiskTier classifies an observation as LOW, MODERATE, or CRITICAL and
// drives alert severity and on-call paging.
type RiskTier string

const (
	RiskLow      RiskTier = "LOW"
	RiskModerate RiskTier = "MODERATE"
	RiskCritical RiskTier = "CRITICAL"
)

// SubScores holds the per-parameter contributions to the aggregate score.
type SubScores struct {
	Respiration   int `json:"respiration"`
	Oxygen        int `json:"oxygen"`
	Supplemental  int `json:"supplemental"`
	Temperature   int `json:"temperature"`
	Systolic      int `json:"systolic"`
	HeartRate     int `json:"heart_rate"`
	Consciousness int `json:"consciousness"`
}

// DeteriorationScore is derived from a single observation and never
// mutated.
type DeteriorationScore struct {
	Total     int       `json:"total"`
	SubScores SubScores `json:"sub_scores"`
	Extreme   bool      `json:"extreme"`
	Risk      RiskTier  `json:"risk"`
	QSOFA     int       `json:"qsofa"`
	Guidance  string    `json:"guidance"`
}

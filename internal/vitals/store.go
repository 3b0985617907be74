package vitals

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store reads vitals observations. The engine never writes observations;
// they are owned by the clinical documentation subsystem.
type Store struct {
	db DB
}

// NewStore creates a vitals store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// FindLatestForActiveAdmissions returns the most recent observation per
// admission that is still open, for the background deterioration sweep.
func (s *Store) FindLatestForActiveAdmissions(ctx context.Context) ([]Observation, error) {
	rows, err := s.db.Query(ctx, `
		SELECT DISTINCT ON (v.admission_id)
			v.id, v.admission_id, v.patient_id, v.respiratory_rate, v.oxygen_saturation,
			v.supplemental_oxygen, v.temperature, v.systolic_bp, v.diastolic_bp,
			v.heart_rate, v.consciousness, v.recorded_at
		FROM vitals_observations v
		JOIN admissions a ON a.id = v.admission_id
		WHERE a.discharged_at IS NULL
		ORDER BY v.admission_id, v.recorded_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("vitals: find latest for active admissions: %w", err)
	}
	defer rows.Close()
	return scanObservations(rows)
}

// FindLatestByAdmission returns the newest observation for one admission,
// or nil when none exists.
func (s *Store) FindLatestByAdmission(ctx context.Context, admissionID uuid.UUID) (*Observation, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, admission_id, patient_id, respiratory_rate, oxygen_saturation,
			supplemental_oxygen, temperature, systolic_bp, diastolic_bp,
			heart_rate, consciousness, recorded_at
		FROM vitals_observations
		WHERE admission_id = $1
		ORDER BY recorded_at DESC LIMIT 1`, admissionID)
	if err != nil {
		return nil, fmt.Errorf("vitals: find latest by admission: %w", err)
	}
	defer rows.Close()
	observations, err := scanObservations(rows)
	if err != nil {
		return nil, err
	}
	if len(observations) == 0 {
		return nil, nil
	}
	return &observations[0], nil
}

func scanObservations(rows pgx.Rows) ([]Observation, error) {
	var result []Observation
	for rows.Next() {
		var o Observation
		err := rows.Scan(
			&o.ID, &o.AdmissionID, &o.PatientID, &o.RespiratoryRate, &o.OxygenSaturation,
			&o.SupplementalOxygen, &o.Temperature, &o.SystolicBP, &o.DiastolicBP,
			&o.HeartRate, &o.Consciousness, &o.RecordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("vitals: scan observation: %w", err)
		}
		result = append(result, o)
	}
	return result, rows.Err()
}

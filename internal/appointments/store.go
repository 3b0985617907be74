package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrStatusConflict is returned when a requested transition is not valid
// from the appointment's current status.
var ErrStatusConflict = errors.New("appointments: status conflict")

// ErrNotFound is returned when the appointment id does not exist.
var ErrNotFound = errors.New("appointments: not found")

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides read and transition access to appointments.
type Store struct {
	db DB
}

// NewStore creates an appointment store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

const appointmentColumns = `id, patient_id, practitioner_id, facility_id, date, start_time,
		slot_duration_minutes, status, vitals_recorded_at, created_at, updated_at`

// FindDueForNoShow returns SCHEDULED and CONFIRMED appointments for the
// given date, the candidate set for the no-show sweep.
func (s *Store) FindDueForNoShow(ctx context.Context, date string) ([]Appointment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE date = $1 AND status IN ('SCHEDULED', 'CONFIRMED')
		ORDER BY start_time ASC`, date)
	if err != nil {
		return nil, fmt.Errorf("appointments: find due for no-show: %w", err)
	}
	defer rows.Close()
	return scanAppointments(rows)
}

// FindCheckedInWithoutVitals returns today's checked-in appointments that
// have no vitals timestamp yet.
func (s *Store) FindCheckedInWithoutVitals(ctx context.Context, date string) ([]Appointment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE date = $1 AND status = 'CHECKED_IN' AND vitals_recorded_at IS NULL
		ORDER BY start_time ASC`, date)
	if err != nil {
		return nil, fmt.Errorf("appointments: find checked-in without vitals: %w", err)
	}
	defer rows.Close()
	return scanAppointments(rows)
}

// FindCheckedInWithVitals returns today's checked-in appointments whose
// vitals are recorded but which have not moved to IN_PROGRESS.
func (s *Store) FindCheckedInWithVitals(ctx context.Context, date string) ([]Appointment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE date = $1 AND status = 'CHECKED_IN' AND vitals_recorded_at IS NOT NULL
		ORDER BY start_time ASC`, date)
	if err != nil {
		return nil, fmt.Errorf("appointments: find checked-in with vitals: %w", err)
	}
	defer rows.Close()
	return scanAppointments(rows)
}

// GetByID loads one appointment.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("appointments: get by id: %w", err)
	}
	defer rows.Close()
	appts, err := scanAppointments(rows)
	if err != nil {
		return nil, err
	}
	if len(appts) == 0 {
		return nil, ErrNotFound
	}
	return &appts[0], nil
}

// TransitionStatus moves an appointment to newStatus, but only when its
// current status is one of from. The conditional UPDATE is the
// compare-and-swap that keeps concurrent sweeps from double-transitioning
// a row; zero rows affected surfaces as ErrStatusConflict.
func (s *Store) TransitionStatus(ctx context.Context, id uuid.UUID, newStatus Status, from ...Status) error {
	if len(from) == 0 {
		return fmt.Errorf("appointments: transition requires at least one source status")
	}
	sources := make([]string, len(from))
	for i, st := range from {
		sources[i] = string(st)
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE appointments SET status = $1, updated_at = $2
		WHERE id = $3 AND status = ANY($4)`,
		string(newStatus), time.Now().UTC(), id, sources)
	if err != nil {
		return fmt.Errorf("appointments: transition status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStatusConflict
	}
	return nil
}

func scanAppointments(rows pgx.Rows) ([]Appointment, error) {
	var result []Appointment
	for rows.Next() {
		var a Appointment
		var status string
		err := rows.Scan(
			&a.ID, &a.PatientID, &a.PractitionerID, &a.FacilityID, &a.Date, &a.StartTime,
			&a.SlotDurationMinutes, &status, &a.VitalsRecordedAt, &a.CreatedAt, &a.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan appointment: %w", err)
		}
		a.Status = Status(status)
		result = append(result, a)
	}
	return result, rows.Err()
}

package noshow

import (
	"context"
	"fmt"
	"time"

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

// Store persists no-show audit records.
type Store struct {
	db DB
}

// NewStore creates a no-show record store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// Insert appends one audit record.
func (s *Store) Insert(ctx context.Context, r *Record) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO no_show_records (id, appointment_id, patient_id, reason, slot_date, slot_time, timeout_minutes, slot_released, notification_sent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.ID, r.AppointmentID, r.PatientID, string(r.Reason), r.SlotDate, r.SlotTime,
		r.TimeoutMinutes, r.SlotReleased, r.NotificationSent, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("noshow: insert record: %w", err)
	}
	return nil
}

// ListByDate returns the records for one calendar date, newest first.
func (s *Store) ListByDate(ctx context.Context, date string) ([]Record, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, appointment_id, patient_id, reason, slot_date, slot_time, timeout_minutes, slot_released, notification_sent, created_at
		FROM no_show_records
		WHERE slot_date = $1
		ORDER BY created_at DESC`, date)
	if err != nil {
		return nil, fmt.Errorf("noshow: list by date: %w", err)
	}
	defer rows.Close()

	var result []Record
	for rows.Next() {
		var r Record
		var reason string
		err := rows.Scan(&r.ID, &r.AppointmentID, &r.PatientID, &reason, &r.SlotDate,
			&r.SlotTime, &r.TimeoutMinutes, &r.SlotReleased, &r.NotificationSent, &r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("noshow: scan record: %w", err)
		}
		r.Reason = Reason(reason)
		result = append(result, r)
	}
	return result, rows.Err()
}

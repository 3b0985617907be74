package noshow

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestInsertFillsDefaults(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := NewStore(mock)
	rec := &Record{
		AppointmentID:  uuid.New(),
		PatientID:      uuid.New(),
		Reason:         ReasonAutoTimeout,
		SlotDate:       "2026-03-10",
		SlotTime:       "09:00",
		TimeoutMinutes: 20,
	}
	mock.ExpectExec("INSERT INTO no_show_records").
		WithArgs(pgxmock.AnyArg(), rec.AppointmentID, rec.PatientID, "AUTO_TIMEOUT",
			"2026-03-10", "09:00", 20, false, false, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := store.Insert(context.Background(), rec); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if rec.ID == uuid.Nil || rec.CreatedAt.IsZero() {
		t.Fatalf("defaults not applied: %#v", rec)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListByDate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := NewStore(mock)
	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{
		"id", "appointment_id", "patient_id", "reason", "slot_date", "slot_time",
		"timeout_minutes", "slot_released", "notification_sent", "created_at",
	}).AddRow(uuid.New(), uuid.New(), uuid.New(), "STAFF_INITIATED", "2026-03-10", "11:30",
		30, true, true, now)
	mock.ExpectQuery("SELECT (.+) FROM no_show_records").
		WithArgs("2026-03-10").
		WillReturnRows(rows)

	found, err := store.ListByDate(context.Background(), "2026-03-10")
	if err != nil {
		t.Fatalf("list by date failed: %v", err)
	}
	if len(found) != 1 || found[0].Reason != ReasonStaffInitiated {
		t.Fatalf("unexpected records: %#v", found)
	}
}

package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestFindBelowThreshold(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := NewStore(mock)
	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{
		"id", "facility_id", "name", "unit", "quantity_on_hand", "reorder_threshold", "updated_at",
	}).AddRow(uuid.New(), uuid.New(), "amoxicillin 500mg", "vials", 12, 0, now)
	mock.ExpectQuery("SELECT (.+) FROM inventory_items").
		WithArgs(50).
		WillReturnRows(rows)

	items, err := store.FindBelowThreshold(context.Background(), 50)
	if err != nil {
		t.Fatalf("find below threshold failed: %v", err)
	}
	if len(items) != 1 || items[0].Name != "amoxicillin 500mg" || items[0].QuantityOnHand != 12 {
		t.Fatalf("unexpected items: %#v", items)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// Package inventory sweeps stock levels and raises reorder alerts.
package inventory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store reads inventory stock levels.
type Store struct {
	db DB
}

// NewStore creates an inventory store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// FindBelowThreshold returns items whose stock has fallen to or below
// their reorder point. Items without their own threshold fall back to
// defaultThreshold.
func (s *Store) FindBelowThreshold(ctx context.Context, defaultThreshold int) ([]Item, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, facility_id, name, unit, quantity_on_hand, reorder_threshold, updated_at
		FROM inventory_items
		WHERE quantity_on_hand <= COALESCE(NULLIF(reorder_threshold, 0), $1)
		ORDER BY quantity_on_hand ASC`, defaultThreshold)
	if err != nil {
		return nil, fmt.Errorf("inventory: find below threshold: %w", err)
	}
	defer rows.Close()

	var result []Item
	for rows.Next() {
		var item Item
		err := rows.Scan(&item.ID, &item.FacilityID, &item.Name, &item.Unit,
			&item.QuantityOnHand, &item.ReorderThreshold, &item.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("inventory: scan item: %w", err)
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

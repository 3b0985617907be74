package slots

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// execDB is the write-only slice of pgx the manager needs.
type execDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PGManager flips the released flag on the appointment row so the
// booking surface offers the slot again.
type PGManager struct {
	db execDB
}

// NewPGManager creates a database-backed slot manager.
func NewPGManager(db execDB) *PGManager {
	return &PGManager{db: db}
}

// Release marks the appointment's slot as open for rebooking.
func (m *PGManager) Release(ctx context.Context, appointmentID uuid.UUID) error {
	tag, err := m.db.Exec(ctx, `
		UPDATE appointments SET slot_released = TRUE, updated_at = NOW()
		WHERE id = $1`, appointmentID)
	if err != nil {
		return fmt.Errorf("slots: release: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("slots: release: appointment %s not found", appointmentID)
	}
	return nil
}

var _ Manager = (*PGManager)(nil)

package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// contactsDB is the pgx slice the contact resolver needs.
type contactsDB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGContacts resolves recipients against the directory's staff_contacts
// table. The engine only reads it; the directory subsystem owns the
// rows.
type PGContacts struct {
	db contactsDB
}

// NewPGContacts creates a contact resolver backed by the directory
// tables.
func NewPGContacts(db contactsDB) *PGContacts {
	return &PGContacts{db: db}
}

// Phone returns the recipient's phone number.
func (c *PGContacts) Phone(ctx context.Context, recipientID uuid.UUID) (string, error) {
	var phone string
	err := c.db.QueryRow(ctx,
		`SELECT phone FROM staff_contacts WHERE staff_id = $1`, recipientID).Scan(&phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("notify: no contact row for %s", recipientID)
	}
	if err != nil {
		return "", fmt.Errorf("notify: resolve phone: %w", err)
	}
	if phone == "" {
		return "", fmt.Errorf("notify: no phone on file for %s", recipientID)
	}
	return phone, nil
}

// Email returns the recipient's email address.
func (c *PGContacts) Email(ctx context.Context, recipientID uuid.UUID) (string, error) {
	var addr string
	err := c.db.QueryRow(ctx,
		`SELECT email FROM staff_contacts WHERE staff_id = $1`, recipientID).Scan(&addr)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("notify: no contact row for %s", recipientID)
	}
	if err != nil {
		return "", fmt.Errorf("notify: resolve email: %w", err)
	}
	if addr == "" {
		return "", fmt.Errorf("notify: no email on file for %s", recipientID)
	}
	return addr, nil
}

var _ ContactResolver = (*PGContacts)(nil)

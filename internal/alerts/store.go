package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when no alert exists for the given id.
var ErrNotFound = errors.New("alerts: not found")

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists automation alerts.
type Store struct {
	db DB
}

// NewStore creates an alert store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

const alertColumns = `id, subject_type, subject_id, kind, severity, message, status,
		triggered_at, acknowledged_by, acknowledged_at, resolved_by, resolved_at,
		escalation_level, escalation_notes, created_at, updated_at`

// Create inserts a new ACTIVE alert.
func (s *Store) Create(ctx context.Context, a *Alert) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.Status == "" {
		a.Status = StatusActive
	}
	if a.TriggeredAt.IsZero() {
		a.TriggeredAt = now
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO automation_alerts (id, subject_type, subject_id, kind, severity, message, status, triggered_at, escalation_level, escalation_notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		a.ID, string(a.SubjectType), a.SubjectID, string(a.Kind), string(a.Severity),
		a.Message, string(a.Status), a.TriggeredAt, a.EscalationLevel, a.EscalationNotes,
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("alerts: create: %w", err)
	}
	return nil
}

// FindActive returns the open alert of the given kind for a subject, or
// nil when none exists. Evaluators consult this before raising so the
// same condition is only alerted once.
func (s *Store) FindActive(ctx context.Context, subjectType SubjectType, subjectID uuid.UUID, kind Kind) (*Alert, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+alertColumns+`
		FROM automation_alerts
		WHERE subject_type = $1 AND subject_id = $2 AND kind = $3 AND status IN ('ACTIVE', 'ESCALATED')
		ORDER BY triggered_at DESC LIMIT 1`,
		string(subjectType), subjectID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("alerts: find active: %w", err)
	}
	defer rows.Close()
	found, err := scanAlerts(rows)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

// GetByID loads one alert.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*Alert, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+alertColumns+`
		FROM automation_alerts
		WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("alerts: get by id: %w", err)
	}
	defer rows.Close()
	found, err := scanAlerts(rows)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	return &found[0], nil
}

// ListByStatus returns alerts in a given status, newest first.
func (s *Store) ListByStatus(ctx context.Context, status Status, limit int) ([]Alert, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `
		SELECT `+alertColumns+`
		FROM automation_alerts
		WHERE status = $1
		ORDER BY triggered_at DESC LIMIT $2`, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("alerts: list by status: %w", err)
	}
	defer rows.Close()
	return scanAlerts(rows)
}

// MarkAcknowledged records the acknowledger on an open alert.
func (s *Store) MarkAcknowledged(ctx context.Context, id uuid.UUID, actor uuid.UUID) (bool, error) {
	now := time.Now().UTC()
	tag, err := s.db.Exec(ctx, `
		UPDATE automation_alerts
		SET status = 'ACKNOWLEDGED', acknowledged_by = $1, acknowledged_at = $2, updated_at = $2
		WHERE id = $3 AND status IN ('ACTIVE', 'ESCALATED')`, actor, now, id)
	if err != nil {
		return false, fmt.Errorf("alerts: mark acknowledged: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkResolved records the resolver. Resolution is allowed from any open
// state.
func (s *Store) MarkResolved(ctx context.Context, id uuid.UUID, actor uuid.UUID) (bool, error) {
	now := time.Now().UTC()
	tag, err := s.db.Exec(ctx, `
		UPDATE automation_alerts
		SET status = 'RESOLVED', resolved_by = $1, resolved_at = $2, updated_at = $2
		WHERE id = $3 AND status IN ('ACTIVE', 'ACKNOWLEDGED', 'ESCALATED')`, actor, now, id)
	if err != nil {
		return false, fmt.Errorf("alerts: mark resolved: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkEscalated raises an ACTIVE alert to the escalation tier.
func (s *Store) MarkEscalated(ctx context.Context, id uuid.UUID, level int, notes string) (bool, error) {
	now := time.Now().UTC()
	tag, err := s.db.Exec(ctx, `
		UPDATE automation_alerts
		SET status = 'ESCALATED', escalation_level = $1, escalation_notes = $2, updated_at = $3
		WHERE id = $4 AND status = 'ACTIVE'`, level, notes, now, id)
	if err != nil {
		return false, fmt.Errorf("alerts: mark escalated: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanAlerts(rows pgx.Rows) ([]Alert, error) {
	var result []Alert
	for rows.Next() {
		var a Alert
		var subjectType, kind, severity, status string
		err := rows.Scan(
			&a.ID, &subjectType, &a.SubjectID, &kind, &severity, &a.Message, &status,
			&a.TriggeredAt, &a.AcknowledgedBy, &a.AcknowledgedAt, &a.ResolvedBy, &a.ResolvedAt,
			&a.EscalationLevel, &a.EscalationNotes, &a.CreatedAt, &a.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("alerts: scan alert: %w", err)
		}
		a.SubjectType = SubjectType(subjectType)
		a.Kind = Kind(kind)
		a.Severity = Severity(severity)
		a.Status = Status(status)
		result = append(result, a)
	}
	return result, rows.Err()
}

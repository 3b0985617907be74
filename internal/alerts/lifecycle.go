package alerts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/havenmed/clinic-automation/pkg/logging"
)

// ErrConflict is returned when a transition is not reachable from the
// alert's current status.
var ErrConflict = errors.New("alerts: transition conflict")

// lifecycleStore is the slice of Store the lifecycle needs; tests inject
// fakes.
type lifecycleStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Alert, error)
	MarkAcknowledged(ctx context.Context, id uuid.UUID, actor uuid.UUID) (bool, error)
	MarkResolved(ctx context.Context, id uuid.UUID, actor uuid.UUID) (bool, error)
	MarkEscalated(ctx context.Context, id uuid.UUID, level int, notes string) (bool, error)
}

// EscalationNotifier re-raises staff attention when an alert escalates.
type EscalationNotifier interface {
	NotifyEscalation(ctx context.Context, alert *Alert) error
}

// guardClearer releases the raise-guard key for a subject. Implemented
// by Guard; nil is allowed.
type guardClearer interface {
	Clear(ctx context.Context, subjectType SubjectType, subjectID uuid.UUID, kind Kind)
}

// Lifecycle drives alert state transitions:
// ACTIVE → ACKNOWLEDGED → RESOLVED, with ACTIVE → ESCALATED as a second
// attention tier. RESOLVED is terminal. Repeating a transition the alert
// has already made is accepted without a second write.
type Lifecycle struct {
	store    lifecycleStore
	notifier EscalationNotifier
	guard    guardClearer
	logger   *logging.Logger
}

// NewLifecycle creates the alert lifecycle service.
func NewLifecycle(store lifecycleStore, notifier EscalationNotifier, guard guardClearer, logger *logging.Logger) *Lifecycle {
	if logger == nil {
		logger = logging.Default()
	}
	return &Lifecycle{store: store, notifier: notifier, guard: guard, logger: logger}
}

// Acknowledge marks an open alert as seen by the given actor.
func (l *Lifecycle) Acknowledge(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*Alert, error) {
	updated, err := l.store.MarkAcknowledged(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if !updated {
		alert, err := l.store.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if alert.Status != StatusAcknowledged {
			return nil, fmt.Errorf("%w: cannot acknowledge %s alert", ErrConflict, alert.Status)
		}
		return alert, nil
	}
	return l.store.GetByID(ctx, id)
}

// Resolve closes an alert. Resolution is reachable from any open state
// and from a repeat resolve, never from anything else. Resolving also
// releases the raise guard for the subject, so a recurrence of the same
// condition can alert again immediately instead of waiting out the
// guard TTL.
func (l *Lifecycle) Resolve(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*Alert, error) {
	updated, err := l.store.MarkResolved(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	alert, err := l.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !updated && alert.Status != StatusResolved {
		return nil, fmt.Errorf("%w: cannot resolve %s alert", ErrConflict, alert.Status)
	}
	if l.guard != nil {
		l.guard.Clear(ctx, alert.SubjectType, alert.SubjectID, alert.Kind)
	}
	return alert, nil
}

// Escalate raises an ACTIVE alert to the escalation tier and re-notifies
// staff. Notification failure is logged, never surfaced: the escalation
// itself has already been recorded.
func (l *Lifecycle) Escalate(ctx context.Context, id uuid.UUID, level int, notes string) (*Alert, error) {
	if level <= 0 {
		level = 1
	}
	updated, err := l.store.MarkEscalated(ctx, id, level, notes)
	if err != nil {
		return nil, err
	}
	if !updated {
		alert, err := l.store.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if alert.Status != StatusEscalated {
			return nil, fmt.Errorf("%w: cannot escalate %s alert", ErrConflict, alert.Status)
		}
		return alert, nil
	}

	alert, err := l.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.notifier != nil {
		if err := l.notifier.NotifyEscalation(ctx, alert); err != nil {
			l.logger.Error("alerts: escalation notification failed", "alert_id", id, "error", err)
		}
	}
	return alert, nil
}

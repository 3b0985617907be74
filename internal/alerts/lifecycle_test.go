package alerts

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore holds alerts in memory and mimics the conditional-update
// semantics of the SQL store.
type fakeStore struct {
	alerts map[uuid.UUID]*Alert
}

func newFakeStore(alerts ...*Alert) *fakeStore {
	s := &fakeStore{alerts: make(map[uuid.UUID]*Alert)}
	for _, a := range alerts {
		s.alerts[a.ID] = a
	}
	return s
}

func (s *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*Alert, error) {
	a, ok := s.alerts[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (s *fakeStore) MarkAcknowledged(_ context.Context, id uuid.UUID, actor uuid.UUID) (bool, error) {
	a, ok := s.alerts[id]
	if !ok || (a.Status != StatusActive && a.Status != StatusEscalated) {
		return false, nil
	}
	a.Status = StatusAcknowledged
	a.AcknowledgedBy = &actor
	return true, nil
}

func (s *fakeStore) MarkResolved(_ context.Context, id uuid.UUID, actor uuid.UUID) (bool, error) {
	a, ok := s.alerts[id]
	if !ok || a.Status == StatusResolved {
		return false, nil
	}
	a.Status = StatusResolved
	a.ResolvedBy = &actor
	return true, nil
}

func (s *fakeStore) MarkEscalated(_ context.Context, id uuid.UUID, level int, notes string) (bool, error) {
	a, ok := s.alerts[id]
	if !ok || a.Status != StatusActive {
		return false, nil
	}
	a.Status = StatusEscalated
	a.EscalationLevel = level
	a.EscalationNotes = notes
	return true, nil
}

type recordingNotifier struct {
	escalations []uuid.UUID
	fail        bool
}

func (n *recordingNotifier) NotifyEscalation(_ context.Context, alert *Alert) error {
	if n.fail {
		return errors.New("sms gateway down")
	}
	n.escalations = append(n.escalations, alert.ID)
	return nil
}

func activeAlert() *Alert {
	return &Alert{
		ID:          uuid.New(),
		SubjectType: SubjectAppointment,
		SubjectID:   uuid.New(),
		Kind:        KindNoVitals,
		Severity:    SeverityWarning,
		Status:      StatusActive,
	}
}

func TestAcknowledgeActiveAlert(t *testing.T) {
	alert := activeAlert()
	lc := NewLifecycle(newFakeStore(alert), nil, nil, nil)
	actor := uuid.New()

	got, err := lc.Acknowledge(context.Background(), alert.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, StatusAcknowledged, got.Status)
	assert.Equal(t, actor, *got.AcknowledgedBy)
}

func TestAcknowledgeIsIdempotent(t *testing.T) {
	alert := activeAlert()
	lc := NewLifecycle(newFakeStore(alert), nil, nil, nil)
	actor := uuid.New()

	_, err := lc.Acknowledge(context.Background(), alert.ID, actor)
	require.NoError(t, err)
	got, err := lc.Acknowledge(context.Background(), alert.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, StatusAcknowledged, got.Status)
}

func TestFullLifecycleToResolved(t *testing.T) {
	alert := activeAlert()
	lc := NewLifecycle(newFakeStore(alert), nil, nil, nil)
	actor := uuid.New()

	_, err := lc.Acknowledge(context.Background(), alert.ID, actor)
	require.NoError(t, err)
	got, err := lc.Resolve(context.Background(), alert.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, StatusResolved, got.Status)
	assert.Equal(t, actor, *got.ResolvedBy)
}

func TestNoTransitionOutOfResolved(t *testing.T) {
	alert := activeAlert()
	lc := NewLifecycle(newFakeStore(alert), nil, nil, nil)
	actor := uuid.New()

	_, err := lc.Resolve(context.Background(), alert.ID, actor)
	require.NoError(t, err)

	_, err = lc.Acknowledge(context.Background(), alert.ID, actor)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = lc.Escalate(context.Background(), alert.ID, 2, "still waiting")
	assert.ErrorIs(t, err, ErrConflict)

	// Resolving again is an accepted no-op.
	got, err := lc.Resolve(context.Background(), alert.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, StatusResolved, got.Status)
}

func TestEscalateNotifies(t *testing.T) {
	alert := activeAlert()
	notifier := &recordingNotifier{}
	lc := NewLifecycle(newFakeStore(alert), notifier, nil, nil)

	got, err := lc.Escalate(context.Background(), alert.ID, 2, "charge nurse paged")
	require.NoError(t, err)
	assert.Equal(t, StatusEscalated, got.Status)
	assert.Equal(t, 2, got.EscalationLevel)
	assert.Equal(t, []uuid.UUID{alert.ID}, notifier.escalations)
}

func TestEscalateNotificationFailureIsSwallowed(t *testing.T) {
	alert := activeAlert()
	lc := NewLifecycle(newFakeStore(alert), &recordingNotifier{fail: true}, nil, nil)

	got, err := lc.Escalate(context.Background(), alert.ID, 1, "")
	require.NoError(t, err)
	assert.Equal(t, StatusEscalated, got.Status)
}

func TestEscalatedAlertCanBeAcknowledged(t *testing.T) {
	alert := activeAlert()
	lc := NewLifecycle(newFakeStore(alert), &recordingNotifier{}, nil, nil)
	actor := uuid.New()

	_, err := lc.Escalate(context.Background(), alert.ID, 1, "")
	require.NoError(t, err)
	got, err := lc.Acknowledge(context.Background(), alert.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, StatusAcknowledged, got.Status)
}

// A resolved alert must never suppress a fresh raise: once staff close
// the alert, the raise-guard key has to go with it, or a recurrence of
// the same condition stays silent until the key expires.
func TestResolveReleasesRaiseGuard(t *testing.T) {
	guard, _ := newTestGuard(t)
	ctx := context.Background()
	alert := activeAlert()

	require.True(t, guard.FirstRaise(ctx, alert.SubjectType, alert.SubjectID, alert.Kind))
	require.False(t, guard.FirstRaise(ctx, alert.SubjectType, alert.SubjectID, alert.Kind))

	lc := NewLifecycle(newFakeStore(alert), nil, guard, nil)
	_, err := lc.Resolve(ctx, alert.ID, uuid.New())
	require.NoError(t, err)

	assert.True(t, guard.FirstRaise(ctx, alert.SubjectType, alert.SubjectID, alert.Kind),
		"recurrence after resolution must be allowed to raise")
}

func TestUnknownAlertIsNotFound(t *testing.T) {
	lc := NewLifecycle(newFakeStore(), nil, nil, nil)

	_, err := lc.Acknowledge(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = lc.Resolve(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = lc.Escalate(context.Background(), uuid.New(), 1, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

package alerts

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGuard(t *testing.T) (*Guard, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewGuard(client, time.Hour, nil), mr
}

func TestFirstRaiseWinsOnce(t *testing.T) {
	guard, _ := newTestGuard(t)
	ctx := context.Background()
	subject := uuid.New()

	assert.True(t, guard.FirstRaise(ctx, SubjectAppointment, subject, KindNoVitals))
	assert.False(t, guard.FirstRaise(ctx, SubjectAppointment, subject, KindNoVitals))

	// A different kind for the same subject is an independent gate.
	assert.True(t, guard.FirstRaise(ctx, SubjectAppointment, subject, KindNoDoctor))
}

func TestFirstRaiseAfterTTLExpiry(t *testing.T) {
	guard, mr := newTestGuard(t)
	ctx := context.Background()
	subject := uuid.New()

	assert.True(t, guard.FirstRaise(ctx, SubjectAdmission, subject, KindDeterioration))
	mr.FastForward(2 * time.Hour)
	assert.True(t, guard.FirstRaise(ctx, SubjectAdmission, subject, KindDeterioration))
}

func TestClearReleasesGate(t *testing.T) {
	guard, _ := newTestGuard(t)
	ctx := context.Background()
	subject := uuid.New()

	assert.True(t, guard.FirstRaise(ctx, SubjectAppointment, subject, KindNoVitals))
	guard.Clear(ctx, SubjectAppointment, subject, KindNoVitals)
	assert.True(t, guard.FirstRaise(ctx, SubjectAppointment, subject, KindNoVitals))
}

func TestNilClientDegradesOpen(t *testing.T) {
	guard := NewGuard(nil, time.Hour, nil)
	ctx := context.Background()
	subject := uuid.New()

	assert.True(t, guard.FirstRaise(ctx, SubjectAppointment, subject, KindNoVitals))
	assert.True(t, guard.FirstRaise(ctx, SubjectAppointment, subject, KindNoVitals))
}

func TestGuardUnavailableDegradesOpen(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	guard := NewGuard(client, time.Hour, nil)
	mr.Close()

	assert.True(t, guard.FirstRaise(context.Background(), SubjectAppointment, uuid.New(), KindNoVitals))
}

package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/havenmed/clinic-automation/pkg/logging"
)

// Guard is an atomic create-if-absent gate in front of alert creation.
// The store's FindActive lookup alone leaves a read-then-write window in
// which two concurrent sweeps could both raise the same alert; a SetNX
// key per (subject, kind) closes it. When Redis is unavailable the guard
// degrades open and the store lookup remains the only protection.
type Guard struct {
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewGuard creates an alert idempotency guard. A nil client is allowed
// and makes every FirstRaise succeed.
func NewGuard(client *redis.Client, ttl time.Duration, logger *logging.Logger) *Guard {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Guard{client: client, ttl: ttl, logger: logger}
}

func guardKey(subjectType SubjectType, subjectID uuid.UUID, kind Kind) string {
	return fmt.Sprintf("alerts:guard:%s:%s:%s", subjectType, subjectID, kind)
}

// FirstRaise reports whether the caller won the right to create the
// alert for this (subject, kind) pair within the guard TTL.
func (g *Guard) FirstRaise(ctx context.Context, subjectType SubjectType, subjectID uuid.UUID, kind Kind) bool {
	if g == nil || g.client == nil {
		return true
	}
	ok, err := g.client.SetNX(ctx, guardKey(subjectType, subjectID, kind), 1, g.ttl).Result()
	if err != nil {
		g.logger.Warn("alerts: guard unavailable, degrading open",
			"subject_id", subjectID, "kind", kind, "error", err)
		return true
	}
	return ok
}

// Clear releases the guard key, letting a fresh alert be raised for the
// subject after the prior one resolved.
func (g *Guard) Clear(ctx context.Context, subjectType SubjectType, subjectID uuid.UUID, kind Kind) {
	if g == nil || g.client == nil {
		return
	}
	if err := g.client.Del(ctx, guardKey(subjectType, subjectID, kind)).Err(); err != nil {
		g.logger.Warn("alerts: guard clear failed",
			"subject_id", subjectID, "kind", kind, "error", err)
	}
}

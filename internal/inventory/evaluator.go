package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/havenmed/clinic-automation/internal/alerts"
	"github.com/havenmed/clinic-automation/pkg/logging"
)

// itemSource lists items in need of a reorder.
type itemSource interface {
	FindBelowThreshold(ctx context.Context, defaultThreshold int) ([]Item, error)
}

// alertStore creates alerts and answers the existing-alert dedupe check.
type alertStore interface {
	FindActive(ctx context.Context, subjectType alerts.SubjectType, subjectID uuid.UUID, kind alerts.Kind) (*alerts.Alert, error)
	Create(ctx context.Context, a *alerts.Alert) error
}

// raiseGuard is the atomic create-if-absent gate.
type raiseGuard interface {
	FirstRaise(ctx context.Context, subjectType alerts.SubjectType, subjectID uuid.UUID, kind alerts.Kind) bool
	Clear(ctx context.Context, subjectType alerts.SubjectType, subjectID uuid.UUID, kind alerts.Kind)
}

// metricsObserver receives raised-alert counts; nil is allowed.
type metricsObserver interface {
	ObserveAlertRaised(kind string)
}

// Evaluator runs the low-stock sweep.
type Evaluator struct {
	items     itemSource
	alerts    alertStore
	guard     raiseGuard
	metrics   metricsObserver
	threshold int
	logger    *logging.Logger
}

// NewEvaluator creates an inventory evaluator. defaultThreshold applies
// to items without a reorder point of their own.
func NewEvaluator(items itemSource, alertSt alertStore, guard raiseGuard, metrics metricsObserver, defaultThreshold int, logger *logging.Logger) *Evaluator {
	if logger == nil {
		logger = logging.Default()
	}
	if defaultThreshold <= 0 {
		defaultThreshold = 50
	}
	return &Evaluator{
		items:     items,
		alerts:    alertSt,
		guard:     guard,
		metrics:   metrics,
		threshold: defaultThreshold,
		logger:    logger,
	}
}

// Sweep raises one LOW_STOCK alert per item at or below its reorder
// point. Returns the number of alerts raised; repeated sweeps of the
// same item are no-ops while its alert stays open.
func (e *Evaluator) Sweep(ctx context.Context, _ time.Time) (int, error) {
	low, err := e.items.FindBelowThreshold(ctx, e.threshold)
	if err != nil {
		return 0, fmt.Errorf("inventory: sweep: %w", err)
	}

	raised := 0
	for i := range low {
		item := &low[i]
		ok, err := e.raise(ctx, item)
		if err != nil {
			e.logger.Error("inventory: low-stock alert failed",
				"item_id", item.ID, "name", item.Name, "error", err)
			continue
		}
		if ok {
			raised++
		}
	}
	return raised, nil
}

func (e *Evaluator) raise(ctx context.Context, item *Item) (bool, error) {
	existing, err := e.alerts.FindActive(ctx, alerts.SubjectInventory, item.ID, alerts.KindLowStock)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	if e.guard != nil && !e.guard.FirstRaise(ctx, alerts.SubjectInventory, item.ID, alerts.KindLowStock) {
		return false, nil
	}

	threshold := item.ReorderThreshold
	if threshold <= 0 {
		threshold = e.threshold
	}
	alert := &alerts.Alert{
		SubjectType: alerts.SubjectInventory,
		SubjectID:   item.ID,
		Kind:        alerts.KindLowStock,
		Severity:    alerts.SeverityInfo,
		Message: fmt.Sprintf("%s down to %d %s (reorder at %d)",
			item.Name, item.QuantityOnHand, item.Unit, threshold),
	}
	if err := e.alerts.Create(ctx, alert); err != nil {
		if e.guard != nil {
			e.guard.Clear(ctx, alerts.SubjectInventory, item.ID, alerts.KindLowStock)
		}
		return false, err
	}

	if e.metrics != nil {
		e.metrics.ObserveAlertRaised(string(alerts.KindLowStock))
	}
	e.logger.Info("inventory: low-stock alert raised",
		"item_id", item.ID, "name", item.Name, "quantity", item.QuantityOnHand, "threshold", threshold)
	return true, nil
}

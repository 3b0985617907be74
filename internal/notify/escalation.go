package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/havenmed/clinic-automation/internal/alerts"
	"github.com/havenmed/clinic-automation/pkg/logging"
)

// EscalationFanout re-raises escalated alerts to the on-call staff list.
type EscalationFanout struct {
	notifier Notifier
	onCall   []uuid.UUID
	logger   *logging.Logger
}

// NewEscalationFanout creates the escalation notifier used by the alert
// lifecycle.
func NewEscalationFanout(notifier Notifier, onCall []uuid.UUID, logger *logging.Logger) *EscalationFanout {
	if logger == nil {
		logger = logging.Default()
	}
	return &EscalationFanout{notifier: notifier, onCall: onCall, logger: logger}
}

// NotifyEscalation sends the escalation to every on-call recipient. One
// failed recipient does not stop the rest.
func (f *EscalationFanout) NotifyEscalation(ctx context.Context, alert *alerts.Alert) error {
	if f.notifier == nil || len(f.onCall) == 0 {
		f.logger.Debug("notify: no on-call recipients configured, skipping escalation fanout")
		return nil
	}

	body := fmt.Sprintf("ESCALATED (level %d): %s alert for %s %s. %s",
		alert.EscalationLevel, alert.Kind, alert.SubjectType, alert.SubjectID, alert.Message)

	failed := 0
	for _, recipient := range f.onCall {
		if err := f.notifier.Send(ctx, recipient, "alert_escalated", body, []Channel{ChannelSMS, ChannelPush}); err != nil {
			f.logger.Error("notify: escalation delivery failed", "recipient_id", recipient, "error", err)
			failed++
		}
	}
	if failed == len(f.onCall) {
		return fmt.Errorf("notify: escalation reached no recipients")
	}
	return nil
}

var _ alerts.EscalationNotifier = (*EscalationFanout)(nil)

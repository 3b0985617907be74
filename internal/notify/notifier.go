// Package notify dispatches best-effort staff and patient notifications.
// Failures are logged and reported, never fatal to the calling sweep.
package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/havenmed/clinic-automation/pkg/logging"
)

// Channel names a delivery mechanism.
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
)

// Notifier is the contract the evaluators depend on.
type Notifier interface {
	Send(ctx context.Context, recipientID uuid.UUID, kind, payload string, channels []Channel) error
}

// SMSSender sends SMS messages.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// EmailSender sends email messages.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// ContactResolver maps a recipient id to reachable addresses. Contact
// data is owned by the directory subsystem.
type ContactResolver interface {
	Phone(ctx context.Context, recipientID uuid.UUID) (string, error)
	Email(ctx context.Context, recipientID uuid.UUID) (string, error)
}

// Service fans a notification out over the requested channels.
type Service struct {
	sms      SMSSender
	email    EmailSender
	contacts ContactResolver
	logger   *logging.Logger
}

// NewService creates a notification service.
func NewService(sms SMSSender, email EmailSender, contacts ContactResolver, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{sms: sms, email: email, contacts: contacts, logger: logger}
}

// Send delivers the payload over each requested channel. Each channel is
// attempted independently; the error reports how many failed.
func (s *Service) Send(ctx context.Context, recipientID uuid.UUID, kind, payload string, channels []Channel) error {
	if len(channels) == 0 {
		channels = []Channel{ChannelSMS}
	}

	var errs []error
	for _, ch := range channels {
		var err error
		switch ch {
		case ChannelSMS:
			err = s.sendSMS(ctx, recipientID, payload)
		case ChannelEmail:
			err = s.sendEmail(ctx, recipientID, kind, payload)
		case ChannelPush:
			// Push delivery rides on SMS until the mobile gateway lands.
			err = s.sendSMS(ctx, recipientID, payload)
		default:
			err = fmt.Errorf("notify: unknown channel %q", ch)
		}
		if err != nil {
			s.logger.Error("notify: delivery failed",
				"recipient_id", recipientID, "kind", kind, "channel", ch, "error", err)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %d notification(s) failed", len(errs))
	}
	s.logger.Info("notify: delivered", "recipient_id", recipientID, "kind", kind, "channels", len(channels))
	return nil
}

func (s *Service) sendSMS(ctx context.Context, recipientID uuid.UUID, body string) error {
	if s.sms == nil {
		return fmt.Errorf("notify: sms sender not configured")
	}
	phone, err := s.contacts.Phone(ctx, recipientID)
	if err != nil {
		return fmt.Errorf("notify: resolve phone: %w", err)
	}
	return s.sms.SendSMS(ctx, phone, body)
}

func (s *Service) sendEmail(ctx context.Context, recipientID uuid.UUID, subject, body string) error {
	if s.email == nil {
		return fmt.Errorf("notify: email sender not configured")
	}
	addr, err := s.contacts.Email(ctx, recipientID)
	if err != nil {
		return fmt.Errorf("notify: resolve email: %w", err)
	}
	return s.email.SendEmail(ctx, addr, subject, body)
}

// StubNotifier logs but doesn't send. Used in development and tests.
type StubNotifier struct {
	logger *logging.Logger
}

// NewStubNotifier creates a stub notifier.
func NewStubNotifier(logger *logging.Logger) *StubNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubNotifier{logger: logger}
}

// Send logs the would-be notification.
func (s *StubNotifier) Send(_ context.Context, recipientID uuid.UUID, kind, payload string, channels []Channel) error {
	s.logger.Info("stub notifier: would send",
		"recipient_id", recipientID, "kind", kind, "channels", len(channels),
		"payload_preview", truncate(payload, 60))
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// Ensure interface compliance
var _ Notifier = (*Service)(nil)
var _ Notifier = (*StubNotifier)(nil)

package sink

import (
	"context"
	"fmt"

	"github.com/ErlanBelekov/timer-trigger/internal/domain"
	"github.com/ErlanBelekov/timer-trigger/internal/email"
)

// EmailSink mails a notification for every fire event.
type EmailSink struct {
	sender email.Sender
	to     string
}

func NewEmailSink(sender email.Sender, to string) *EmailSink {
	return &EmailSink{sender: sender, to: to}
}

func (s *EmailSink) Name() string { return "email" }

func (s *EmailSink) Deliver(ctx context.Context, ev domain.FireEvent) error {
	subject, body := email.FireNotification(ev)
	if err := s.sender.Send(ctx, s.to, subject, body); err != nil {
		return fmt.Errorf("notify %s: %w", s.to, err)
	}
	return nil
}

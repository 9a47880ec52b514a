package email

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/ErlanBelekov/timer-trigger/internal/domain"
	"github.com/resend/resend-go/v2"
)

type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogSender logs emails instead of sending them. Used in ENV=local.
type LogSender struct {
	logger *slog.Logger
}

func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	s.logger.InfoContext(ctx, "fire notification (local dev)", "to", to, "subject", subject, "body", body)
	return nil
}

// ResendSender sends emails via the Resend API. Used in staging/production.
type ResendSender struct {
	client *resend.Client
	from   string
}

func (s *ResendSender) Send(ctx context.Context, to, subject, body string) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    body,
	}
	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// NewSender returns a LogSender for ENV=local, ResendSender otherwise.
func NewSender(env, apiKey, from string, logger *slog.Logger) Sender {
	if env == "local" {
		return &LogSender{logger: logger.With("component", "email")}
	}
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

// FireNotification renders the subject and HTML body announcing ev.
func FireNotification(ev domain.FireEvent) (subject, body string) {
	subject = fmt.Sprintf("Trigger fired at %s", ev.ActualFireTime.Format(time.RFC3339))

	var b strings.Builder
	b.WriteString("<p>The timer trigger fired.</p><table>")
	row := func(label string, t time.Time) {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td></tr>", label, html.EscapeString(t.Format(time.RFC3339Nano)))
	}
	row("Current jittered target", ev.CurrentJitteredTarget)
	row("Current standard target", ev.CurrentStandardTarget)
	row("Next jittered target", ev.NextJitteredTarget)
	row("Actual fire time", ev.ActualFireTime)
	b.WriteString("</table>")
	if ev.SkippedSlots > 0 {
		fmt.Fprintf(&b, "<p>Resynced after a stall: %d slots skipped.</p>", ev.SkippedSlots)
	}
	fmt.Fprintf(&b, "<p>Event id: %s</p>", html.EscapeString(ev.ID))
	return subject, b.String()
}

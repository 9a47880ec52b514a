package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ErlanBelekov/timer-trigger/internal/domain"
)

// WebhookSink sends each fire event as JSON to a fixed URL.
type WebhookSink struct {
	client  *http.Client
	url     string
	method  string
	timeout time.Duration
}

func NewWebhookSink(url, method string, timeout time.Duration) *WebhookSink {
	return &WebhookSink{
		client:  &http.Client{}, // no global timeout, each delivery sets its own
		url:     url,
		method:  method,
		timeout: timeout,
	}
}

func (s *WebhookSink) Name() string { return "webhook" }

type webhookPayload struct {
	ID                    string    `json:"id"`
	CurrentJitteredTarget time.Time `json:"current_jittered_target"`
	CurrentStandardTarget time.Time `json:"current_standard_target"`
	NextJitteredTarget    time.Time `json:"next_jittered_target"`
	ActualFireTime        time.Time `json:"actual_fire_time"`
	NextStandardTarget    time.Time `json:"next_standard_target"`
	SkippedSlots          int       `json:"skipped_slots"`
}

func (s *WebhookSink) Deliver(ctx context.Context, ev domain.FireEvent) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	body, err := json.Marshal(webhookPayload{
		ID:                    ev.ID,
		CurrentJitteredTarget: ev.CurrentJitteredTarget,
		CurrentStandardTarget: ev.CurrentStandardTarget,
		NextJitteredTarget:    ev.NextJitteredTarget,
		ActualFireTime:        ev.ActualFireTime,
		NextStandardTarget:    ev.NextStandardTarget,
		SkippedSlots:          ev.SkippedSlots,
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, s.method, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Fire-Id", ev.ID)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body) // drain so the connection can be reused by the pool

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}

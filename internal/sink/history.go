package sink

import (
	"context"
	"fmt"

	"github.com/ErlanBelekov/timer-trigger/internal/domain"
	"github.com/ErlanBelekov/timer-trigger/internal/repository"
)

// HistorySink persists fire events so the HTTP API can list them.
type HistorySink struct {
	repo repository.FireRepository
}

func NewHistorySink(repo repository.FireRepository) *HistorySink {
	return &HistorySink{repo: repo}
}

func (s *HistorySink) Name() string { return "history" }

func (s *HistorySink) Deliver(ctx context.Context, ev domain.FireEvent) error {
	if err := s.repo.Record(ctx, ev); err != nil {
		return fmt.Errorf("record fire event: %w", err)
	}
	return nil
}

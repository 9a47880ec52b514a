// Package sink delivers fire events to the outside world. The trigger loop
// hands events to a Dispatcher, which fans them out to every configured Sink
// on its own workers.
package sink

import (
	"context"
	"log/slog"

	"github.com/ErlanBelekov/timer-trigger/internal/domain"
)

type Sink interface {
	Name() string
	Deliver(ctx context.Context, ev domain.FireEvent) error
}

// LogSink writes every fire event to the process log.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger.With("component", "sink", "sink", "log")}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Deliver(ctx context.Context, ev domain.FireEvent) error {
	s.logger.InfoContext(ctx, "trigger fired",
		"current_jittered_target", ev.CurrentJitteredTarget,
		"current_standard_target", ev.CurrentStandardTarget,
		"next_jittered_target", ev.NextJitteredTarget,
		"actual_fire_time", ev.ActualFireTime,
		"lateness", ev.Lateness(),
	)
	return nil
}

package trigger

import (
	"github.com/ErlanBelekov/timer-trigger/internal/domain"
)

// Preview simulates the next n firings of a normalized cfg without waiting on
// the clock. Each simulated firing happens exactly at its jittered target, or
// immediately after the previous firing when jitter pulled the target behind it.
func Preview(cfg domain.ScheduleConfig, n int, rng Rand) []domain.FireEvent {
	if n <= 0 {
		return nil
	}

	events := make([]domain.FireEvent, 0, n)
	standard := cfg.InitialTarget
	jittered := Jitter(standard, cfg, rng)

	for i := range n {
		actual := jittered
		if i > 0 && actual.Before(events[i-1].ActualFireTime) {
			actual = events[i-1].ActualFireTime
		}

		next := NextStandardTarget(cfg, standard, actual)
		next, skipped := CatchUp(next, actual, cfg.Interval())
		nextJittered := Jitter(next, cfg, rng)

		events = append(events, domain.FireEvent{
			CurrentJitteredTarget: jittered,
			CurrentStandardTarget: standard,
			NextJitteredTarget:    nextJittered,
			ActualFireTime:        actual,
			NextStandardTarget:    next,
			SkippedSlots:          skipped,
		})

		standard, jittered = next, nextJittered
	}

	return events
}

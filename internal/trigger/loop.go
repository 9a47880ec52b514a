package trigger

import (
	"context"
	"log/slog"
	"time"

	"github.com/ErlanBelekov/timer-trigger/internal/domain"
	"github.com/google/uuid"
)

// Clock reports wall-clock time. Tests substitute a controllable one.
type Clock interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// Observer is notified about loop lifecycle and every firing.
type Observer interface {
	LoopStarted()
	LoopStopped()
	Fired(ev domain.FireEvent)
}

type nopObserver struct{}

func (nopObserver) LoopStarted() {}
func (nopObserver) LoopStopped() {}
func (nopObserver) Fired(domain.FireEvent) {}

// Loop owns the current standard and jittered targets. Its state lives in Run's
// locals; nothing outside Run reads or writes it.
type Loop struct {
	cfg      domain.ScheduleConfig
	rng      Rand
	clock    Clock
	logger   *slog.Logger
	observer Observer
}

// Run polls the clock every cfg.PollInterval() until ctx is cancelled. onFire
// is called on the loop goroutine, so a slow callback delays the next poll.
func (l *Loop) Run(ctx context.Context, onFire func(domain.FireEvent)) {
	currentStandard := l.cfg.InitialTarget
	currentJittered := Jitter(currentStandard, l.cfg, l.rng)

	ticker := time.NewTicker(l.cfg.PollInterval())
	defer ticker.Stop()

	l.observer.LoopStarted()
	defer l.observer.LoopStopped()

	l.logger.Info("trigger loop started",
		"standard_target", currentStandard,
		"jittered_target", currentJittered,
		"interval", l.cfg.Interval(),
		"poll_interval", l.cfg.PollInterval(),
	)

	for {
		if ctx.Err() != nil {
			l.logger.Info("trigger loop shut down")
			return
		}

		select {
		case <-ctx.Done():
			l.logger.Info("trigger loop shut down")
			return
		case <-ticker.C:
		}

		actual := l.clock.Now()
		if !actual.After(currentJittered) {
			continue
		}

		nextStandard := NextStandardTarget(l.cfg, currentStandard, actual)
		nextStandard, skipped := CatchUp(nextStandard, actual, l.cfg.Interval())
		nextJittered := Jitter(nextStandard, l.cfg, l.rng)

		ev := domain.FireEvent{
			ID:                    uuid.NewString(),
			CurrentJitteredTarget: currentJittered,
			CurrentStandardTarget: currentStandard,
			NextJitteredTarget:    nextJittered,
			ActualFireTime:        actual,
			NextStandardTarget:    nextStandard,
			SkippedSlots:          skipped,
		}

		if skipped > 0 {
			l.logger.Warn("trigger resynced after stall", "skipped_slots", skipped, "next_standard_target", nextStandard)
		}
		l.logger.Debug("trigger fired",
			"fire_id", ev.ID,
			"standard_target", currentStandard,
			"jittered_target", currentJittered,
			"lateness", ev.Lateness(),
			"next_jittered_target", nextJittered,
		)

		l.observer.Fired(ev)
		if onFire != nil {
			onFire(ev)
		}

		currentJittered = nextJittered
		currentStandard = nextStandard
	}
}

// NextStandardTarget adds one interval to the actual fire time when
// TargetActualTimeMode is set, otherwise to the current standard target so the
// schedule stays on a fixed grid.
func NextStandardTarget(cfg domain.ScheduleConfig, currentStandard, actual time.Time) time.Time {
	base := currentStandard
	if cfg.TargetActualTimeMode {
		base = actual
	}
	return base.Add(cfg.Interval())
}

// CatchUp advances next by whole intervals until it is no longer before now and
// reports how many slots were passed over. Missed slots are never emitted; the
// schedule resyncs to the first future slot on its grid.
func CatchUp(next, now time.Time, interval time.Duration) (time.Time, int) {
	if !next.Before(now) {
		return next, 0
	}

	gap := now.Sub(next)
	slots := int64(gap / interval)
	if gap%interval != 0 {
		slots++
	}
	return next.Add(time.Duration(slots) * interval), int(slots)
}

// Package trigger implements a recurring interval trigger with optional
// uniform and Gaussian jitter.
//
// A trigger is started once with a domain.ScheduleConfig and reports each
// firing through a callback. The callback runs on the trigger's own goroutine;
// keep it fast or hand the event off (see sink.Dispatcher).
package trigger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ErlanBelekov/timer-trigger/internal/domain"
)

type options struct {
	rng      Rand
	clock    Clock
	logger   *slog.Logger
	observer Observer
}

type Option func(*options)

// WithRand injects the jitter generator. By default each trigger seeds its own.
func WithRand(rng Rand) Option {
	return func(o *options) { o.rng = rng }
}

func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// Handle owns a running trigger's cancellation and its goroutine.
type Handle struct {
	cfg       domain.ScheduleConfig
	startedAt time.Time

	cancel   context.CancelFunc
	stopOnce sync.Once
	done     chan struct{}

	lastFire atomic.Pointer[domain.FireEvent]
	fires    atomic.Int64
}

// Start normalizes cfg and launches the loop in its own goroutine. An invalid
// interval is reported here and no goroutine is started. The loop also stops
// when parent is cancelled.
func Start(parent context.Context, cfg domain.ScheduleConfig, onFire func(domain.FireEvent), opts ...Option) (*Handle, error) {
	o := options{
		clock:    wallClock{},
		logger:   slog.Default(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	now := o.clock.Now()
	normalized, err := Normalize(cfg, now)
	if err != nil {
		return nil, err
	}
	logCorrections(o.logger, cfg, normalized)

	if o.rng == nil {
		o.rng = NewRand(now)
	}

	ctx, cancel := context.WithCancel(parent)
	h := &Handle{
		cfg:       normalized,
		startedAt: now,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	loop := &Loop{
		cfg:      normalized,
		rng:      o.rng,
		clock:    o.clock,
		logger:   o.logger.With("component", "trigger"),
		observer: o.observer,
	}

	go func() {
		defer close(h.done)
		loop.Run(ctx, func(ev domain.FireEvent) {
			h.lastFire.Store(&ev)
			h.fires.Add(1)
			if onFire != nil {
				onFire(ev)
			}
		})
	}()

	return h, nil
}

// Stop requests cancellation. It is safe to call more than once, from any
// goroutine, and after the loop has already exited.
func (h *Handle) Stop() {
	h.stopOnce.Do(h.cancel)
}

// Done is closed once the loop goroutine has returned.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the loop has exited.
func (h *Handle) Wait() {
	<-h.done
}

// Running reports whether the loop goroutine is still alive.
func (h *Handle) Running() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// Config returns the normalized snapshot the loop runs with.
func (h *Handle) Config() domain.ScheduleConfig {
	return h.cfg
}

func (h *Handle) StartedAt() time.Time {
	return h.startedAt
}

// LastFire returns a copy of the most recently emitted event.
func (h *Handle) LastFire() (domain.FireEvent, bool) {
	ev := h.lastFire.Load()
	if ev == nil {
		return domain.FireEvent{}, false
	}
	return *ev, true
}

// Fires is the number of events emitted so far.
func (h *Handle) Fires() int64 {
	return h.fires.Load()
}

func logCorrections(logger *slog.Logger, before, after domain.ScheduleConfig) {
	if !before.InitialTarget.Equal(after.InitialTarget) {
		logger.Debug("initial target missing or older than a year, using now", "initial_target", after.InitialTarget)
	}
	if before.PollIntervalMillis != after.PollIntervalMillis {
		logger.Debug("poll interval out of range, using default", "poll_interval_ms", after.PollIntervalMillis)
	}
	if before.AddUniformJitter && !after.AddUniformJitter {
		logger.Debug("uniform jitter disabled: upper bound not above lower bound",
			"lower", before.UniformLower, "upper", before.UniformUpper)
	}
	if before.AddGaussianJitter && !after.AddGaussianJitter {
		logger.Debug("gaussian jitter disabled: sigma not positive", "sigma", before.Sigma)
	}
}

package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ErlanBelekov/timer-trigger/internal/domain"
	"github.com/ErlanBelekov/timer-trigger/internal/trigger"
)

// TriggerUsecase owns the single trigger this process runs. At most one loop
// is alive at a time.
type TriggerUsecase struct {
	ctx        context.Context // lifetime of the process, not of a request
	defaultCfg domain.ScheduleConfig
	onFire     func(domain.FireEvent)
	opts       []trigger.Option
	logger     *slog.Logger
	now        func() time.Time

	mu          sync.Mutex
	handle      *trigger.Handle
	nextInitial func(now time.Time) time.Time
}

func NewTriggerUsecase(
	ctx context.Context,
	defaultCfg domain.ScheduleConfig,
	onFire func(domain.FireEvent),
	logger *slog.Logger,
	opts ...trigger.Option,
) *TriggerUsecase {
	return &TriggerUsecase{
		ctx:        ctx,
		defaultCfg: defaultCfg,
		onFire:     onFire,
		opts:       append([]trigger.Option{trigger.WithLogger(logger)}, opts...),
		logger:     logger.With("component", "trigger_usecase"),
		now:        time.Now,
	}
}

// AlignInitialTarget makes DefaultConfig resolve the initial target with next
// at call time, so a start long after boot lands on the next aligned slot.
func (u *TriggerUsecase) AlignInitialTarget(next func(now time.Time) time.Time) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.nextInitial = next
}

// DefaultConfig is the schedule the process was configured with.
func (u *TriggerUsecase) DefaultConfig() domain.ScheduleConfig {
	u.mu.Lock()
	next := u.nextInitial
	u.mu.Unlock()

	cfg := u.defaultCfg
	if next != nil {
		cfg.InitialTarget = next(u.now())
	}
	return cfg
}

// Start launches the trigger with cfg. It fails with ErrTriggerRunning while a
// loop is alive and with ErrInvalidInterval before any loop starts.
func (u *TriggerUsecase) Start(cfg domain.ScheduleConfig) (*trigger.Handle, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.handle != nil && u.handle.Running() {
		return nil, domain.ErrTriggerRunning
	}

	h, err := trigger.Start(u.ctx, cfg, u.onFire, u.opts...)
	if err != nil {
		return nil, fmt.Errorf("start trigger: %w", err)
	}
	u.handle = h

	u.logger.Info("trigger started",
		"initial_target", h.Config().InitialTarget,
		"interval_sec", h.Config().IntervalSeconds,
		"uniform_jitter", h.Config().UniformEnabled(),
		"gaussian_jitter", h.Config().GaussianEnabled(),
	)
	return h, nil
}

// Stop cancels the running loop and waits for it to exit, which takes at most
// one poll interval.
func (u *TriggerUsecase) Stop() error {
	u.mu.Lock()
	h := u.handle
	u.mu.Unlock()

	if h == nil || !h.Running() {
		return domain.ErrTriggerNotRunning
	}

	h.Stop()
	h.Wait()
	u.logger.Info("trigger stopped", "fires", h.Fires())
	return nil
}

// Running reports whether a loop is alive. It satisfies health.TriggerProbe.
func (u *TriggerUsecase) Running() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.handle != nil && u.handle.Running()
}

// Wait blocks until the current loop, if any, has exited.
func (u *TriggerUsecase) Wait() {
	u.mu.Lock()
	h := u.handle
	u.mu.Unlock()

	if h != nil {
		h.Wait()
	}
}

type TriggerStatus struct {
	Running   bool
	StartedAt *time.Time
	Config    domain.ScheduleConfig
	Fires     int64
	LastFire  *domain.FireEvent
}

func (u *TriggerUsecase) Status() TriggerStatus {
	u.mu.Lock()
	h := u.handle
	u.mu.Unlock()

	if h == nil {
		return TriggerStatus{Config: u.DefaultConfig()}
	}

	status := TriggerStatus{
		Running: h.Running(),
		Config:  h.Config(),
		Fires:   h.Fires(),
	}
	startedAt := h.StartedAt()
	status.StartedAt = &startedAt
	if ev, ok := h.LastFire(); ok {
		status.LastFire = &ev
	}
	return status
}

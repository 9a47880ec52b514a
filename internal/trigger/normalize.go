package trigger

import (
	"fmt"
	"math"
	"time"

	"github.com/ErlanBelekov/timer-trigger/internal/domain"
)

// Normalize validates cfg and applies the fallback policy:
//   - a zero initial target, or one more than a year before now, becomes now
//   - a non-positive or unrepresentable poll interval becomes the 250ms default
//   - uniform jitter with upper <= lower is disabled
//   - Gaussian jitter with sigma <= 0 is disabled
//
// Hard errors: an interval that is not positive or does not fit a
// time.Duration, and enabled jitter limits beyond domain.MaxJitterSeconds.
func Normalize(cfg domain.ScheduleConfig, now time.Time) (domain.ScheduleConfig, error) {
	if cfg.IntervalSeconds <= 0 || int64(cfg.IntervalSeconds) > domain.MaxIntervalSeconds {
		return domain.ScheduleConfig{}, fmt.Errorf("interval %ds: %w", cfg.IntervalSeconds, domain.ErrInvalidInterval)
	}
	if cfg.AddUniformJitter && (outOfJitterRange(float64(cfg.UniformLower)) || outOfJitterRange(float64(cfg.UniformUpper))) {
		return domain.ScheduleConfig{}, fmt.Errorf("uniform [%d, %d)s: %w", cfg.UniformLower, cfg.UniformUpper, domain.ErrInvalidJitter)
	}
	if cfg.AddGaussianJitter && outOfJitterRange(cfg.Sigma) {
		return domain.ScheduleConfig{}, fmt.Errorf("sigma %gs: %w", cfg.Sigma, domain.ErrInvalidJitter)
	}

	if cfg.InitialTarget.IsZero() || cfg.InitialTarget.Before(now.AddDate(-1, 0, 0)) {
		cfg.InitialTarget = now
	}
	if !cfg.PollIntervalInRange() {
		cfg.PollIntervalMillis = domain.DefaultPollIntervalMillis
	}
	if cfg.UniformUpper <= cfg.UniformLower {
		cfg.AddUniformJitter = false
	}
	if cfg.Sigma <= 0 {
		cfg.AddGaussianJitter = false
	}

	return cfg, nil
}

func outOfJitterRange(sec float64) bool {
	return math.IsNaN(sec) || math.Abs(sec) > domain.MaxJitterSeconds
}

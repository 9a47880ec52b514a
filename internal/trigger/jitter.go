package trigger

import (
	"math"
	"time"

	"github.com/ErlanBelekov/timer-trigger/internal/domain"
)

// Rand is the subset of *rand.Rand the sampler needs. Float64 must return a
// value in [0, 1).
type Rand interface {
	Float64() float64
}

// Jitter returns base perturbed by the uniform and Gaussian offsets enabled in cfg.
// The only side effect is advancing rng.
func Jitter(base time.Time, cfg domain.ScheduleConfig, rng Rand) time.Time {
	return base.Add(Offset(cfg, rng))
}

// Offset draws the combined jitter offset for one target. Disabled jitter
// components draw nothing from rng.
func Offset(cfg domain.ScheduleConfig, rng Rand) time.Duration {
	var offset time.Duration

	if cfg.UniformEnabled() {
		span := float64(cfg.UniformUpper - cfg.UniformLower)
		offset += seconds(rng.Float64()*span + float64(cfg.UniformLower))
	}

	if cfg.GaussianEnabled() {
		offset += seconds(cfg.Sigma * boxMuller(rng))
	}

	return offset
}

// boxMuller draws one standard normal variate. Both uniforms are mapped into
// (0, 1] so the logarithm stays finite.
func boxMuller(rng Rand) float64 {
	d1 := 1.0 - rng.Float64()
	d2 := 1.0 - rng.Float64()
	return math.Sqrt(-2.0*math.Log(d1)) * math.Sin(2.0*math.Pi*d2)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

package domain

import (
	"errors"
	"math"
	"time"
)

var (
	ErrInvalidInterval   = errors.New("interval must be a positive number of seconds")
	ErrTriggerRunning    = errors.New("trigger is already running")
	ErrTriggerNotRunning = errors.New("trigger is not running")
	ErrInvalidJitter     = errors.New("jitter bounds out of range")
)

// DefaultPollIntervalMillis is used when the configured poll interval is not positive.
const DefaultPollIntervalMillis = 250

const (
	// MaxIntervalSeconds is the longest interval a time.Duration can hold.
	MaxIntervalSeconds = math.MaxInt64 / int64(time.Second)

	// MaxJitterSeconds bounds the uniform limits and sigma, ten years.
	MaxJitterSeconds = 10 * 365 * 24 * 3600

	maxPollIntervalMillis = math.MaxInt64 / int64(time.Millisecond)
)

// ScheduleConfig is the snapshot a trigger is started with. It is normalized
// once at start and never mutated afterwards.
type ScheduleConfig struct {
	InitialTarget        time.Time
	IntervalSeconds      int
	TargetActualTimeMode bool

	AddUniformJitter bool
	UniformLower     int // seconds
	UniformUpper     int // seconds

	AddGaussianJitter bool
	Sigma             float64 // seconds

	PollIntervalMillis int
}

func (c ScheduleConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// PollIntervalInRange reports whether PollInterval is positive and representable.
func (c ScheduleConfig) PollIntervalInRange() bool {
	return c.PollIntervalMillis > 0 && int64(c.PollIntervalMillis) <= maxPollIntervalMillis
}

func (c ScheduleConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMillis) * time.Millisecond
}

// UniformEnabled reports whether a uniform offset is applied to each target.
func (c ScheduleConfig) UniformEnabled() bool {
	return c.AddUniformJitter && c.UniformUpper > c.UniformLower
}

// GaussianEnabled reports whether a normally distributed offset is applied to each target.
func (c ScheduleConfig) GaussianEnabled() bool {
	return c.AddGaussianJitter && c.Sigma > 0
}

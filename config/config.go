package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ErlanBelekov/timer-trigger/internal/domain"
	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

type Config struct {
	Env      string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	Port     string `env:"PORT" envDefault:"8080" validate:"required"`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`

	// Optional: enables fire history.
	DatabaseURL string `env:"DATABASE_URL"`

	// Protects the control routes. Required outside local.
	JWTSecret string `env:"JWT_SECRET" validate:"required_if=Env production,required_if=Env staging"`

	// Trigger schedule
	InitialTarget        time.Time `env:"TRIGGER_INITIAL_TARGET"`
	InitialCron          string    `env:"TRIGGER_INITIAL_CRON"`
	IntervalSec          int       `env:"TRIGGER_INTERVAL_SEC,required" validate:"min=1,max=9223372036"`
	TargetActualTimeMode bool      `env:"TRIGGER_TARGET_ACTUAL_TIME_MODE"`
	UniformJitter        bool      `env:"TRIGGER_UNIFORM_JITTER"`
	UniformLowerSec      int       `env:"TRIGGER_UNIFORM_LOWER_SEC" validate:"min=-315360000,max=315360000"`
	UniformUpperSec      int       `env:"TRIGGER_UNIFORM_UPPER_SEC" validate:"min=-315360000,max=315360000"`
	GaussianJitter       bool      `env:"TRIGGER_GAUSSIAN_JITTER"`
	SigmaSec             float64   `env:"TRIGGER_SIGMA_SEC" validate:"min=0,max=315360000"`
	PollIntervalMS       int       `env:"TRIGGER_POLL_INTERVAL_MS" envDefault:"250"`

	// Fire event delivery. More than one worker lets sinks see events out of
	// firing order.
	SinkBuffer  int `env:"SINK_BUFFER" envDefault:"64" validate:"min=1,max=10000"`
	SinkWorkers int `env:"SINK_WORKERS" envDefault:"1" validate:"min=1,max=32"`

	WebhookURL        string `env:"WEBHOOK_URL"         validate:"omitempty,url"`
	WebhookMethod     string `env:"WEBHOOK_METHOD"      envDefault:"POST" validate:"oneof=GET POST PUT PATCH"`
	WebhookTimeoutSec int    `env:"WEBHOOK_TIMEOUT_SEC" envDefault:"10" validate:"min=1,max=300"`

	NotifyEmailTo string `env:"NOTIFY_EMAIL_TO" validate:"omitempty,email"`
	ResendAPIKey  string `env:"RESEND_API_KEY"`
	ResendFrom    string `env:"RESEND_FROM"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if cfg.JWTSecret != "" && len(cfg.JWTSecret) < 32 {
		return nil, errors.New("invalid config: JWT_SECRET must be at least 32 characters")
	}

	// LogSender is used for ENV=local, so Resend credentials only matter elsewhere.
	if cfg.NotifyEmailTo != "" && cfg.Env != "local" && (cfg.ResendAPIKey == "" || cfg.ResendFrom == "") {
		return nil, errors.New("invalid config: RESEND_API_KEY and RESEND_FROM are required with NOTIFY_EMAIL_TO")
	}

	if cfg.InitialCron != "" {
		if _, err := cron.ParseStandard(cfg.InitialCron); err != nil {
			return nil, fmt.Errorf("invalid config: TRIGGER_INITIAL_CRON: %w", err)
		}
	}

	return cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ScheduleConfig builds the trigger snapshot. An explicit initial target wins;
// otherwise the initial cron expression, if any, picks the first slot after now.
func (c *Config) ScheduleConfig(now time.Time) (domain.ScheduleConfig, error) {
	initial := c.InitialTarget
	next, err := c.InitialTargetFunc()
	if err != nil {
		return domain.ScheduleConfig{}, err
	}
	if next != nil {
		initial = next(now)
	}

	return domain.ScheduleConfig{
		InitialTarget:        initial,
		IntervalSeconds:      c.IntervalSec,
		TargetActualTimeMode: c.TargetActualTimeMode,
		AddUniformJitter:     c.UniformJitter,
		UniformLower:         c.UniformLowerSec,
		UniformUpper:         c.UniformUpperSec,
		AddGaussianJitter:    c.GaussianJitter,
		Sigma:                c.SigmaSec,
		PollIntervalMillis:   c.PollIntervalMS,
	}, nil
}

// InitialTargetFunc returns the cron alignment for starts without an explicit
// initial target. It is nil when TRIGGER_INITIAL_TARGET is set or no cron is
// configured.
func (c *Config) InitialTargetFunc() (func(now time.Time) time.Time, error) {
	if !c.InitialTarget.IsZero() || c.InitialCron == "" {
		return nil, nil
	}
	sched, err := cron.ParseStandard(c.InitialCron)
	if err != nil {
		return nil, fmt.Errorf("parse initial cron: %w", err)
	}
	return sched.Next, nil
}

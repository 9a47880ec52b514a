package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ErlanBelekov/timer-trigger/internal/domain"
	"github.com/ErlanBelekov/timer-trigger/internal/trigger"
	"github.com/ErlanBelekov/timer-trigger/internal/usecase"
	"github.com/gin-gonic/gin"
)

type triggerUsecaser interface {
	DefaultConfig() domain.ScheduleConfig
	Start(cfg domain.ScheduleConfig) (*trigger.Handle, error)
	Stop() error
	Status() usecase.TriggerStatus
}

type TriggerHandler struct {
	uc     triggerUsecaser
	logger *slog.Logger
}

func NewTriggerHandler(uc triggerUsecaser, logger *slog.Logger) *TriggerHandler {
	return &TriggerHandler{uc: uc, logger: logger.With("component", "trigger_handler")}
}

// startTriggerRequest overrides fields of the configured schedule. Omitted
// fields keep their configured value; an empty body starts the default.
type startTriggerRequest struct {
	InitialTarget        *time.Time `json:"initial_target"`
	IntervalSeconds      *int       `json:"interval_seconds"        binding:"omitempty,max=9223372036"`
	TargetActualTimeMode *bool      `json:"target_actual_time_mode"`
	UniformJitter        *bool      `json:"uniform_jitter"`
	UniformLower         *int       `json:"uniform_lower"           binding:"omitempty,min=-315360000,max=315360000"`
	UniformUpper         *int       `json:"uniform_upper"           binding:"omitempty,min=-315360000,max=315360000"`
	GaussianJitter       *bool      `json:"gaussian_jitter"`
	Sigma                *float64   `json:"sigma"                   binding:"omitempty,min=0,max=315360000"`
	PollIntervalMillis   *int       `json:"poll_interval_ms"        binding:"omitempty,min=10,max=60000"`
}

func (r startTriggerRequest) apply(cfg domain.ScheduleConfig) domain.ScheduleConfig {
	if r.InitialTarget != nil {
		cfg.InitialTarget = *r.InitialTarget
	}
	if r.IntervalSeconds != nil {
		cfg.IntervalSeconds = *r.IntervalSeconds
	}
	if r.TargetActualTimeMode != nil {
		cfg.TargetActualTimeMode = *r.TargetActualTimeMode
	}
	if r.UniformJitter != nil {
		cfg.AddUniformJitter = *r.UniformJitter
	}
	if r.UniformLower != nil {
		cfg.UniformLower = *r.UniformLower
	}
	if r.UniformUpper != nil {
		cfg.UniformUpper = *r.UniformUpper
	}
	if r.GaussianJitter != nil {
		cfg.AddGaussianJitter = *r.GaussianJitter
	}
	if r.Sigma != nil {
		cfg.Sigma = *r.Sigma
	}
	if r.PollIntervalMillis != nil {
		cfg.PollIntervalMillis = *r.PollIntervalMillis
	}
	return cfg
}

type scheduleConfigResponse struct {
	InitialTarget        time.Time `json:"initial_target"`
	IntervalSeconds      int       `json:"interval_seconds"`
	TargetActualTimeMode bool      `json:"target_actual_time_mode"`
	UniformJitter        bool      `json:"uniform_jitter"`
	UniformLower         int       `json:"uniform_lower"`
	UniformUpper         int       `json:"uniform_upper"`
	GaussianJitter       bool      `json:"gaussian_jitter"`
	Sigma                float64   `json:"sigma"`
	PollIntervalMillis   int       `json:"poll_interval_ms"`
}

func toScheduleConfigResponse(c domain.ScheduleConfig) scheduleConfigResponse {
	return scheduleConfigResponse{
		InitialTarget:        c.InitialTarget,
		IntervalSeconds:      c.IntervalSeconds,
		TargetActualTimeMode: c.TargetActualTimeMode,
		UniformJitter:        c.UniformEnabled(),
		UniformLower:         c.UniformLower,
		UniformUpper:         c.UniformUpper,
		GaussianJitter:       c.GaussianEnabled(),
		Sigma:                c.Sigma,
		PollIntervalMillis:   c.PollIntervalMillis,
	}
}

type triggerStatusResponse struct {
	Running   bool                   `json:"running"`
	StartedAt *time.Time             `json:"started_at,omitempty"`
	Fires     int64                  `json:"fires"`
	Config    scheduleConfigResponse `json:"config"`
	LastFire  *fireEventResponse     `json:"last_fire,omitempty"`
}

func toTriggerStatusResponse(s usecase.TriggerStatus) triggerStatusResponse {
	resp := triggerStatusResponse{
		Running:   s.Running,
		StartedAt: s.StartedAt,
		Fires:     s.Fires,
		Config:    toScheduleConfigResponse(s.Config),
	}
	if s.LastFire != nil {
		ev := toFireEventResponse(*s.LastFire)
		resp.LastFire = &ev
	}
	return resp
}

func (h *TriggerHandler) Status(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, toTriggerStatusResponse(h.uc.Status()))
}

func (h *TriggerHandler) Start(ctx *gin.Context) {
	var req startTriggerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_, err := h.uc.Start(req.apply(h.uc.DefaultConfig()))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTriggerRunning):
			ctx.JSON(http.StatusConflict, gin.H{"error": errTriggerRunning})
		case errors.Is(err, domain.ErrInvalidInterval):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": errInvalidInterval})
		case errors.Is(err, domain.ErrInvalidJitter):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": errInvalidJitter})
		default:
			h.logger.ErrorContext(ctx.Request.Context(), "start trigger", "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	h.logger.InfoContext(ctx.Request.Context(), "trigger started via api", "subject", ctx.GetString("subject"))
	ctx.JSON(http.StatusCreated, toTriggerStatusResponse(h.uc.Status()))
}

func (h *TriggerHandler) Stop(ctx *gin.Context) {
	if err := h.uc.Stop(); err != nil {
		if errors.Is(err, domain.ErrTriggerNotRunning) {
			ctx.JSON(http.StatusConflict, gin.H{"error": errTriggerNotRunning})
			return
		}
		h.logger.ErrorContext(ctx.Request.Context(), "stop trigger", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	h.logger.InfoContext(ctx.Request.Context(), "trigger stopped via api", "subject", ctx.GetString("subject"))
	ctx.Status(http.StatusNoContent)
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ErlanBelekov/timer-trigger/config"
	"github.com/ErlanBelekov/timer-trigger/internal/email"
	"github.com/ErlanBelekov/timer-trigger/internal/health"
	"github.com/ErlanBelekov/timer-trigger/internal/infrastructure/postgres"
	ctxlog "github.com/ErlanBelekov/timer-trigger/internal/log"
	"github.com/ErlanBelekov/timer-trigger/internal/metrics"
	"github.com/ErlanBelekov/timer-trigger/internal/repository"
	"github.com/ErlanBelekov/timer-trigger/internal/sink"
	httptransport "github.com/ErlanBelekov/timer-trigger/internal/transport/http"
	"github.com/ErlanBelekov/timer-trigger/internal/transport/http/handler"
	"github.com/ErlanBelekov/timer-trigger/internal/trigger"
	"github.com/ErlanBelekov/timer-trigger/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := ctxlog.New(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	schedule, err := cfg.ScheduleConfig(time.Now())
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	// Fire history is optional. Interfaces stay nil when it is off.
	var (
		pinger   health.Pinger
		fireRepo repository.FireRepository
	)
	if cfg.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			stop()
			log.Fatalf("db: %v", err)
		}
		defer pool.Close()

		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			stop()
			log.Fatalf("db: %v", err)
		}
		logger.Info("db connected, fire history enabled")

		pinger = pool
		fireRepo = postgres.NewFireRepository(pool, logger)
	}

	metrics.Register()

	// Sinks
	sinks := []sink.Sink{sink.NewLogSink(logger)}
	if fireRepo != nil {
		sinks = append(sinks, sink.NewHistorySink(fireRepo))
	}
	if cfg.WebhookURL != "" {
		sinks = append(sinks, sink.NewWebhookSink(cfg.WebhookURL, cfg.WebhookMethod, time.Duration(cfg.WebhookTimeoutSec)*time.Second))
	}
	if cfg.NotifyEmailTo != "" {
		sender := email.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger)
		sinks = append(sinks, sink.NewEmailSink(sender, cfg.NotifyEmailTo))
	}

	// Deliveries outlive the signal so the queue can drain on shutdown.
	dispatcher := sink.NewDispatcher(sinks, cfg.SinkBuffer, cfg.SinkWorkers, logger)
	dispatcher.Start(context.WithoutCancel(ctx))

	// Trigger
	triggerUsecase := usecase.NewTriggerUsecase(ctx, schedule, dispatcher.Publish, logger,
		trigger.WithObserver(metrics.TriggerObserver{}),
	)
	alignInitial, err := cfg.InitialTargetFunc()
	if err != nil {
		stop()
		log.Fatalf("config error: %v", err)
	}
	if alignInitial != nil {
		triggerUsecase.AlignInitialTarget(alignInitial)
	}
	if _, err := triggerUsecase.Start(triggerUsecase.DefaultConfig()); err != nil {
		stop()
		log.Fatalf("trigger: %v", err)
	}
	triggerHandler := handler.NewTriggerHandler(triggerUsecase, logger)

	// Fires
	fireUsecase := usecase.NewFireUsecase(fireRepo)
	fireHandler := handler.NewFireHandler(fireUsecase, logger)

	checker := health.NewChecker(pinger, triggerUsecase, logger, prometheus.DefaultRegisterer)

	srv := http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httptransport.NewRouter(logger, triggerHandler, fireHandler, []byte(cfg.JWTSecret)),
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	// The trigger observes the cancelled context within one poll interval.
	triggerUsecase.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Error("dispatcher close", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

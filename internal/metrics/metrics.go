package metrics

import (
	"net/http"

	"github.com/ErlanBelekov/timer-trigger/internal/domain"
	"github.com/ErlanBelekov/timer-trigger/internal/health"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Trigger loop metrics

	FiresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "trigger",
		Name:      "fires_total",
		Help:      "Total number of trigger firings.",
	})

	FireLateness = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "trigger",
		Name:      "fire_lateness_seconds",
		Help:      "Time between the jittered target and the actual firing.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 60},
	})

	JitterOffset = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "trigger",
		Name:      "jitter_offset_seconds",
		Help:      "Offset applied to the standard target by uniform and gaussian jitter.",
		Buckets:   []float64{-300, -60, -10, -1, 0, 1, 10, 60, 300},
	})

	CatchUpSkippedSlots = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "trigger",
		Name:      "catchup_skipped_slots_total",
		Help:      "Grid slots passed over while resyncing after a stall.",
	})

	// Loop lifecycle

	LoopRunning = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "trigger",
		Name:      "loop_running",
		Help:      "1 while the trigger loop is running.",
	})

	LoopStartTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "trigger",
		Name:      "loop_start_time_seconds",
		Help:      "Unix timestamp when the trigger loop started.",
	})

	LoopShutdownsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "trigger",
		Name:      "loop_shutdowns_total",
		Help:      "Number of times the trigger loop has shut down.",
	})

	// Sink metrics

	SinkDeliveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trigger",
		Name:      "sink_deliveries_total",
		Help:      "Fire event deliveries, by sink and outcome.",
	}, []string{"sink", "outcome"})

	SinkDeliveryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "trigger",
		Name:      "sink_delivery_duration_seconds",
		Help:      "Duration of a single fire event delivery.",
		Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"sink"})

	SinkDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "trigger",
		Name:      "sink_dropped_total",
		Help:      "Fire events dropped because the dispatch queue was full.",
	})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "trigger",
		Name:      "http_request_duration_seconds",
		Help:      "Control API request latency, by route group and route.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"group", "method", "route", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trigger",
		Name:      "http_requests_total",
		Help:      "Total control API requests, by route group and route.",
	}, []string{"group", "method", "route", "status"})
)

func Register() {
	prometheus.MustRegister(
		FiresTotal,
		FireLateness,
		JitterOffset,
		CatchUpSkippedSlots,
		LoopRunning,
		LoopStartTime,
		LoopShutdownsTotal,
		SinkDeliveriesTotal,
		SinkDeliveryDuration,
		SinkDroppedTotal,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

// TriggerObserver records loop lifecycle and firings. It satisfies trigger.Observer.
type TriggerObserver struct{}

func (TriggerObserver) LoopStarted() {
	LoopRunning.Set(1)
	LoopStartTime.SetToCurrentTime()
}

func (TriggerObserver) LoopStopped() {
	LoopRunning.Set(0)
	LoopShutdownsTotal.Inc()
}

func (TriggerObserver) Fired(ev domain.FireEvent) {
	FiresTotal.Inc()
	FireLateness.Observe(ev.Lateness().Seconds())
	JitterOffset.Observe(ev.JitterOffset().Seconds())
	if ev.SkippedSlots > 0 {
		CatchUpSkippedSlots.Add(float64(ev.SkippedSlots))
	}
}

// NewServer serves /metrics plus the liveness and readiness probes.
func NewServer(addr string, checker *health.Checker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", checker.LivenessHandler)
	mux.HandleFunc("/readyz", checker.ReadinessHandler)
	return &http.Server{Addr: addr, Handler: mux}
}

package metrics_test

import (
	"testing"
	"time"

	"github.com/ErlanBelekov/timer-trigger/internal/domain"
	"github.com/ErlanBelekov/timer-trigger/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestTriggerObserver_LoopLifecycle(t *testing.T) {
	obs := metrics.TriggerObserver{}
	shutdowns := testutil.ToFloat64(metrics.LoopShutdownsTotal)

	obs.LoopStarted()
	if got := testutil.ToFloat64(metrics.LoopRunning); got != 1 {
		t.Errorf("loop_running = %f, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.LoopStartTime); got <= 0 {
		t.Errorf("loop_start_time_seconds = %f, want > 0", got)
	}

	obs.LoopStopped()
	if got := testutil.ToFloat64(metrics.LoopRunning); got != 0 {
		t.Errorf("loop_running = %f, want 0", got)
	}
	if got := testutil.ToFloat64(metrics.LoopShutdownsTotal); got != shutdowns+1 {
		t.Errorf("loop_shutdowns_total = %f, want %f", got, shutdowns+1)
	}
}

func TestTriggerObserver_Fired(t *testing.T) {
	obs := metrics.TriggerObserver{}
	fires := testutil.ToFloat64(metrics.FiresTotal)
	skipped := testutil.ToFloat64(metrics.CatchUpSkippedSlots)

	target := time.Now()
	obs.Fired(domain.FireEvent{
		CurrentStandardTarget: target,
		CurrentJitteredTarget: target.Add(3 * time.Second),
		ActualFireTime:        target.Add(3*time.Second + 100*time.Millisecond),
		SkippedSlots:          4,
	})

	if got := testutil.ToFloat64(metrics.FiresTotal); got != fires+1 {
		t.Errorf("fires_total = %f, want %f", got, fires+1)
	}
	if got := testutil.ToFloat64(metrics.CatchUpSkippedSlots); got != skipped+4 {
		t.Errorf("catchup_skipped_slots_total = %f, want %f", got, skipped+4)
	}
	if n := testutil.CollectAndCount(metrics.FireLateness); n != 1 {
		t.Errorf("fire_lateness_seconds series = %d, want 1", n)
	}
}

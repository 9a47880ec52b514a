package trigger_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/ErlanBelekov/timer-trigger/internal/domain"
	"github.com/ErlanBelekov/timer-trigger/internal/trigger"
)

func TestPreview_NoJitterFollowsGrid(t *testing.T) {
	cfg := domain.ScheduleConfig{InitialTarget: base, IntervalSeconds: 15}

	events := trigger.Preview(cfg, 4, rand.New(rand.NewSource(1)))
	if len(events) != 4 {
		t.Fatalf("len = %d, want 4", len(events))
	}
	for i, ev := range events {
		want := base.Add(time.Duration(i*15) * time.Second)
		if !ev.CurrentStandardTarget.Equal(want) || !ev.ActualFireTime.Equal(want) {
			t.Errorf("event %d: standard %v actual %v, want %v", i, ev.CurrentStandardTarget, ev.ActualFireTime, want)
		}
		if !ev.NextStandardTarget.Equal(want.Add(15 * time.Second)) {
			t.Errorf("event %d: next %v, want %v", i, ev.NextStandardTarget, want.Add(15*time.Second))
		}
	}
}

func TestPreview_JitterKeepsFiringsOrdered(t *testing.T) {
	cfg := domain.ScheduleConfig{
		InitialTarget:     base,
		IntervalSeconds:   5,
		AddUniformJitter:  true,
		UniformLower:      -4,
		UniformUpper:      4,
		AddGaussianJitter: true,
		Sigma:             3,
	}

	events := trigger.Preview(cfg, 500, rand.New(rand.NewSource(3)))
	for i := 1; i < len(events); i++ {
		if events[i].ActualFireTime.Before(events[i-1].ActualFireTime) {
			t.Fatalf("event %d fired before event %d", i, i-1)
		}
		if !events[i].CurrentJitteredTarget.Equal(events[i-1].NextJitteredTarget) {
			t.Fatalf("event %d: jittered target does not chain from the previous event", i)
		}
		if events[i].ActualFireTime.Before(events[i].CurrentJitteredTarget) {
			t.Fatalf("event %d fired before its jittered target", i)
		}
	}
}

func TestPreview_NonPositiveCount(t *testing.T) {
	if got := trigger.Preview(domain.ScheduleConfig{IntervalSeconds: 1}, 0, rand.New(rand.NewSource(1))); got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

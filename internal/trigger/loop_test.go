package trigger_test

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/ErlanBelekov/timer-trigger/internal/domain"
	"github.com/ErlanBelekov/timer-trigger/internal/trigger"
)

// ---- fakes ----

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// collect returns an onFire callback that forwards events to a buffered channel.
func collect() (func(domain.FireEvent), chan domain.FireEvent) {
	ch := make(chan domain.FireEvent, 16)
	return func(ev domain.FireEvent) { ch <- ev }, ch
}

func waitEvent(t *testing.T, ch <-chan domain.FireEvent, timeout time.Duration) domain.FireEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(timeout):
		t.Fatalf("no fire event within %v", timeout)
		return domain.FireEvent{}
	}
}

func waitDone(t *testing.T, h *trigger.Handle, timeout time.Duration) {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(timeout):
		t.Fatalf("loop did not exit within %v", timeout)
	}
}

// ---- next target computation ----

func TestNextStandardTarget_Modes(t *testing.T) {
	cfg := domain.ScheduleConfig{IntervalSeconds: 60}
	actual := base.Add(5 * time.Second)

	if got := trigger.NextStandardTarget(cfg, base, actual); !got.Equal(base.Add(60 * time.Second)) {
		t.Errorf("grid mode: got %v, want T+60s", got.Sub(base))
	}

	cfg.TargetActualTimeMode = true
	if got := trigger.NextStandardTarget(cfg, base, actual); !got.Equal(base.Add(65 * time.Second)) {
		t.Errorf("actual-time mode: got %v, want T+65s", got.Sub(base))
	}
}

func TestNextStandardTarget_ExactInterval(t *testing.T) {
	for _, interval := range []int{1, 7, 60, 86400} {
		cfg := domain.ScheduleConfig{IntervalSeconds: interval}
		current := base
		for i := 1; i <= 100; i++ {
			current = trigger.NextStandardTarget(cfg, current, current)
			want := base.Add(time.Duration(i*interval) * time.Second)
			if !current.Equal(want) {
				t.Fatalf("interval %d step %d: got %v, want %v", interval, i, current, want)
			}
		}
	}
}

func TestCatchUp_NoOpWhenInFuture(t *testing.T) {
	next := base.Add(time.Minute)
	for _, now := range []time.Time{base, next} {
		got, skipped := trigger.CatchUp(next, now, time.Minute)
		if !got.Equal(next) || skipped != 0 {
			t.Errorf("now=%v: got (%v, %d), want (%v, 0)", now, got, skipped, next)
		}
	}
}

func TestCatchUp_ResyncsToGrid(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for range 1000 {
		interval := time.Duration(1+rng.Intn(3600)) * time.Second
		gap := time.Duration(rng.Int63n(int64(400 * 24 * time.Hour)))
		now := base.Add(gap)

		got, skipped := trigger.CatchUp(base, now, interval)

		if got.Before(now) {
			t.Fatalf("interval %v gap %v: %v is before now %v", interval, gap, got, now)
		}
		if !got.Before(now.Add(interval)) {
			t.Fatalf("interval %v gap %v: %v is not before now+interval", interval, gap, got)
		}
		delta := got.Sub(base)
		if delta < 0 || delta%interval != 0 {
			t.Fatalf("interval %v gap %v: delta %v is not a multiple of the interval", interval, gap, delta)
		}
		if time.Duration(skipped)*interval != delta {
			t.Fatalf("skipped = %d, want %d", skipped, delta/interval)
		}
	}
}

func TestCatchUp_ExactlyOnSlot(t *testing.T) {
	now := base.Add(3 * time.Minute)
	got, skipped := trigger.CatchUp(base, now, time.Minute)
	if !got.Equal(now) || skipped != 3 {
		t.Errorf("got (%v, %d), want (now, 3)", got.Sub(base), skipped)
	}
}

// ---- loop ----

func TestStart_InvalidIntervalFailsSynchronously(t *testing.T) {
	called := false
	h, err := trigger.Start(context.Background(), domain.ScheduleConfig{IntervalSeconds: 0}, func(domain.FireEvent) {
		called = true
	})

	if !errors.Is(err, domain.ErrInvalidInterval) {
		t.Fatalf("err = %v, want ErrInvalidInterval", err)
	}
	if h != nil {
		t.Fatal("expected no handle for invalid config")
	}
	time.Sleep(20 * time.Millisecond)
	if called {
		t.Error("callback invoked for invalid config")
	}
}

func TestStart_OverflowingIntervalNeverFiresRepeatedly(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := newFakeClock(base.Add(time.Second))
	onFire, events := collect()

	h, err := trigger.Start(context.Background(), domain.ScheduleConfig{
		InitialTarget:      base,
		IntervalSeconds:    10_000_000_000,
		PollIntervalMillis: 2,
	}, onFire, trigger.WithClock(clock))

	if !errors.Is(err, domain.ErrInvalidInterval) {
		t.Fatalf("err = %v, want ErrInvalidInterval", err)
	}
	if h != nil {
		h.Stop()
		t.Fatal("expected no handle for an interval beyond time.Duration")
	}
	time.Sleep(50 * time.Millisecond)
	if n := len(events); n != 0 {
		t.Errorf("%d events with the clock frozen, want 0", n)
	}
}

func TestLoop_FiresOnceClockPassesTarget(t *testing.T) {
	clock := newFakeClock(base)
	onFire, events := collect()

	h, err := trigger.Start(context.Background(), domain.ScheduleConfig{
		InitialTarget:      base,
		IntervalSeconds:    60,
		PollIntervalMillis: 2,
	}, onFire, trigger.WithClock(clock))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer h.Stop()

	// now == target is not a firing
	select {
	case ev := <-events:
		t.Fatalf("fired before the clock passed the target: %+v", ev)
	case <-time.After(30 * time.Millisecond):
	}

	clock.Set(base.Add(5 * time.Second))
	ev := waitEvent(t, events, time.Second)

	if !ev.CurrentStandardTarget.Equal(base) || !ev.CurrentJitteredTarget.Equal(base) {
		t.Errorf("current targets = (%v, %v), want both %v", ev.CurrentStandardTarget, ev.CurrentJitteredTarget, base)
	}
	if !ev.ActualFireTime.Equal(base.Add(5 * time.Second)) {
		t.Errorf("actual = %v, want T+5s", ev.ActualFireTime.Sub(base))
	}
	if !ev.NextStandardTarget.Equal(base.Add(60*time.Second)) || !ev.NextJitteredTarget.Equal(ev.NextStandardTarget) {
		t.Errorf("next targets = (%v, %v), want T+60s", ev.NextStandardTarget.Sub(base), ev.NextJitteredTarget.Sub(base))
	}
	if ev.ID == "" {
		t.Error("expected event id")
	}
	if ev.Lateness() < 0 {
		t.Errorf("lateness %v < 0", ev.Lateness())
	}

	// no second firing until the next target passes
	select {
	case ev := <-events:
		t.Fatalf("unexpected second firing: %+v", ev)
	case <-time.After(30 * time.Millisecond):
	}

	clock.Set(base.Add(61 * time.Second))
	second := waitEvent(t, events, time.Second)
	if !second.CurrentStandardTarget.Equal(base.Add(60 * time.Second)) {
		t.Errorf("second standard target = %v, want T+60s", second.CurrentStandardTarget.Sub(base))
	}
	if !second.NextStandardTarget.Equal(base.Add(120 * time.Second)) {
		t.Errorf("second next target = %v, want T+120s", second.NextStandardTarget.Sub(base))
	}
}

func TestLoop_ActualTimeMode(t *testing.T) {
	clock := newFakeClock(base)
	onFire, events := collect()

	h, err := trigger.Start(context.Background(), domain.ScheduleConfig{
		InitialTarget:        base,
		IntervalSeconds:      60,
		TargetActualTimeMode: true,
		PollIntervalMillis:   2,
	}, onFire, trigger.WithClock(clock))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer h.Stop()

	clock.Set(base.Add(5 * time.Second))
	ev := waitEvent(t, events, time.Second)
	if !ev.NextStandardTarget.Equal(base.Add(65 * time.Second)) {
		t.Errorf("next standard target = %v, want T+65s", ev.NextStandardTarget.Sub(base))
	}
}

func TestLoop_CatchUpEmitsSingleResyncedEvent(t *testing.T) {
	clock := newFakeClock(base)
	onFire, events := collect()

	h, err := trigger.Start(context.Background(), domain.ScheduleConfig{
		InitialTarget:      base,
		IntervalSeconds:    10,
		PollIntervalMillis: 2,
	}, onFire, trigger.WithClock(clock))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer h.Stop()

	// simulate a stall of 10.5 intervals
	clock.Set(base.Add(105 * time.Second))
	ev := waitEvent(t, events, time.Second)

	if !ev.NextStandardTarget.Equal(base.Add(110 * time.Second)) {
		t.Errorf("next standard target = %v, want T+110s", ev.NextStandardTarget.Sub(base))
	}
	if ev.SkippedSlots != 10 {
		t.Errorf("skipped = %d, want 10", ev.SkippedSlots)
	}

	select {
	case extra := <-events:
		t.Fatalf("missed slots must not be emitted, got %+v", extra)
	case <-time.After(30 * time.Millisecond):
	}
}

func TestLoop_JitteredTargetsUseInjectedRand(t *testing.T) {
	clock := newFakeClock(base)
	onFire, events := collect()

	// every draw is 0.5: uniform offset = 0.5*(20-10)+10 = 15s
	h, err := trigger.Start(context.Background(), domain.ScheduleConfig{
		InitialTarget:      base,
		IntervalSeconds:    60,
		AddUniformJitter:   true,
		UniformLower:       10,
		UniformUpper:       20,
		PollIntervalMillis: 2,
	}, onFire, trigger.WithClock(clock), trigger.WithRand(&seqRand{vals: []float64{0.5}}))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer h.Stop()

	clock.Set(base.Add(14 * time.Second))
	select {
	case ev := <-events:
		t.Fatalf("fired before jittered target: %+v", ev)
	case <-time.After(30 * time.Millisecond):
	}

	clock.Set(base.Add(16 * time.Second))
	ev := waitEvent(t, events, time.Second)
	if !ev.CurrentJitteredTarget.Equal(base.Add(15 * time.Second)) {
		t.Errorf("jittered target = %v, want T+15s", ev.CurrentJitteredTarget.Sub(base))
	}
	if !ev.NextJitteredTarget.Equal(base.Add(75 * time.Second)) {
		t.Errorf("next jittered target = %v, want T+75s", ev.NextJitteredTarget.Sub(base))
	}
	if !ev.ActualFireTime.After(ev.CurrentJitteredTarget) {
		t.Errorf("actual %v not after jittered target %v", ev.ActualFireTime, ev.CurrentJitteredTarget)
	}
}

func TestLoop_StopBeforeFirstFire(t *testing.T) {
	var mu sync.Mutex
	calls := 0

	h, err := trigger.Start(context.Background(), domain.ScheduleConfig{
		InitialTarget:      time.Now().Add(time.Hour),
		IntervalSeconds:    5,
		PollIntervalMillis: 100,
	}, func(domain.FireEvent) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	h.Stop()
	waitDone(t, h, 200*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if calls != 0 {
		t.Errorf("callback invoked %d times, want 0", calls)
	}
	if h.Running() {
		t.Error("handle still reports running")
	}
}

func TestHandle_StopIsIdempotent(t *testing.T) {
	h, err := trigger.Start(context.Background(), domain.ScheduleConfig{IntervalSeconds: 1, PollIntervalMillis: 5}, nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Stop()
		}()
	}
	wg.Wait()
	waitDone(t, h, time.Second)

	// after exit
	h.Stop()
	h.Wait()
}

func TestHandle_ParentCancelStopsLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h, err := trigger.Start(ctx, domain.ScheduleConfig{IntervalSeconds: 1, PollIntervalMillis: 5}, nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	cancel()
	waitDone(t, h, time.Second)
}

func TestHandle_TracksLastFire(t *testing.T) {
	clock := newFakeClock(base)
	onFire, events := collect()

	h, err := trigger.Start(context.Background(), domain.ScheduleConfig{
		InitialTarget:      base,
		IntervalSeconds:    30,
		PollIntervalMillis: 2,
	}, onFire, trigger.WithClock(clock))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer h.Stop()

	if _, ok := h.LastFire(); ok {
		t.Fatal("expected no last fire before the first event")
	}

	clock.Set(base.Add(time.Second))
	ev := waitEvent(t, events, time.Second)

	last, ok := h.LastFire()
	if !ok || last.ID != ev.ID {
		t.Errorf("last fire = (%+v, %v), want %s", last, ok, ev.ID)
	}
	if h.Fires() != 1 {
		t.Errorf("fires = %d, want 1", h.Fires())
	}
	if h.Config().PollIntervalMillis != 2 {
		t.Errorf("config poll = %d, want 2", h.Config().PollIntervalMillis)
	}
}

func TestLoop_RealClockEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("waits on the wall clock")
	}

	const poll = 100 * time.Millisecond
	initial := time.Now()
	onFire, events := collect()

	h, err := trigger.Start(context.Background(), domain.ScheduleConfig{
		InitialTarget:      initial,
		IntervalSeconds:    1,
		PollIntervalMillis: int(poll / time.Millisecond),
	}, onFire)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer h.Stop()

	first := waitEvent(t, events, 2*poll+time.Second)
	if !first.CurrentStandardTarget.Equal(initial) {
		t.Errorf("first standard target = %v, want %v", first.CurrentStandardTarget, initial)
	}
	if !first.NextStandardTarget.Equal(initial.Add(time.Second)) {
		t.Errorf("first next standard target = %v, want initial+1s", first.NextStandardTarget.Sub(initial))
	}

	second := waitEvent(t, events, 2*time.Second)
	lateness := second.ActualFireTime.Sub(initial.Add(time.Second))
	if lateness < 0 || lateness > 2*poll {
		t.Errorf("second firing %v after its target, want within one poll period", lateness)
	}
}

package sink

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ErlanBelekov/timer-trigger/internal/domain"
	ctxlog "github.com/ErlanBelekov/timer-trigger/internal/log"
	"github.com/ErlanBelekov/timer-trigger/internal/metrics"
)

// Dispatcher queues fire events and delivers them to every sink from a fixed
// pool of workers. Publish never blocks, so a slow sink cannot stall the
// trigger loop.
type Dispatcher struct {
	sinks   []Sink
	queue   chan domain.FireEvent
	workers int
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(sinks []Sink, buffer, workers int, logger *slog.Logger) *Dispatcher {
	if buffer < 1 {
		buffer = 1
	}
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		sinks:   sinks,
		queue:   make(chan domain.FireEvent, buffer),
		workers: workers,
		logger:  logger.With("component", "dispatcher"),
	}
}

// Publish enqueues ev. When the queue is full, or the dispatcher is closed,
// the event is dropped and counted.
func (d *Dispatcher) Publish(ev domain.FireEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		metrics.SinkDroppedTotal.Inc()
		d.logger.Warn("dispatcher closed, dropping fire event", "fire_id", ev.ID)
		return
	}

	select {
	case d.queue <- ev:
	default:
		metrics.SinkDroppedTotal.Inc()
		d.logger.Warn("dispatch queue full, dropping fire event", "fire_id", ev.ID, "queue_size", cap(d.queue))
	}
}

// Start launches the workers. ctx bounds each delivery; pass a context that
// outlives the trigger if Close should still drain the queue during shutdown.
func (d *Dispatcher) Start(ctx context.Context) {
	names := make([]string, len(d.sinks))
	for i, s := range d.sinks {
		names[i] = s.Name()
	}
	d.logger.Info("dispatcher started", "workers", d.workers, "sinks", names)

	for range d.workers {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for ev := range d.queue {
				d.deliver(ctx, ev)
			}
		}()
	}
}

// Close stops accepting events and waits for queued ones to be delivered, or
// for ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("dispatcher drained")
		return nil
	case <-ctx.Done():
		d.logger.Warn("dispatcher drain interrupted", "pending", len(d.queue))
		return ctx.Err()
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ev domain.FireEvent) {
	ctx = ctxlog.WithFireID(ctx, ev.ID)

	for _, s := range d.sinks {
		start := time.Now()
		err := s.Deliver(ctx, ev)
		metrics.SinkDeliveryDuration.WithLabelValues(s.Name()).Observe(time.Since(start).Seconds())

		if err != nil {
			metrics.SinkDeliveriesTotal.WithLabelValues(s.Name(), "failure").Inc()
			d.logger.ErrorContext(ctx, "deliver fire event", "sink", s.Name(), "error", err)
			continue
		}
		metrics.SinkDeliveriesTotal.WithLabelValues(s.Name(), "success").Inc()
	}
}

// Package notify delivers engine events to users after the transaction that
// produced them has committed. Delivery is asynchronous and best-effort.
package notify

import (
	"context"
	"sync"
	"time"

	"bobiz-backend/internal/domain"
	"bobiz-backend/internal/logger"
	"bobiz-backend/internal/metrics"
)

// Sink is one delivery channel for engine events.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, ev domain.EngineEvent) error
}

type job struct {
	sink    Sink
	event   domain.EngineEvent
	retries int
}

// Dispatcher fans engine events out to its sinks through a bounded queue
// served by a fixed pool of workers. Failed deliveries are retried with a
// quadratic backoff.
type Dispatcher struct {
	sinks      []Sink
	jobs       chan job
	workers    int
	maxRetries int
	backoff    time.Duration

	wg sync.WaitGroup
}

type Options struct {
	Workers    int
	QueueSize  int
	MaxRetries int
	// Backoff is the base retry delay. Attempt n waits n*n*Backoff.
	Backoff time.Duration
}

func NewDispatcher(opts Options, sinks ...Sink) *Dispatcher {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.QueueSize < 1 {
		opts.QueueSize = 256
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	return &Dispatcher{
		sinks:      sinks,
		jobs:       make(chan job, opts.QueueSize),
		workers:    opts.Workers,
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
	}
}

// Start launches the workers. They stop when ctx is cancelled; Wait blocks
// until they have.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
}

func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()
	log := logger.WithComponent("notify")
	log.Debug("Notification worker started", "worker", id)

	for {
		select {
		case <-ctx.Done():
			log.Debug("Notification worker stopping", "worker", id)
			return
		case j := <-d.jobs:
			d.process(ctx, j)
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, j job) {
	err := j.sink.Deliver(ctx, j.event)
	if err == nil {
		metrics.NotificationsTotal.WithLabelValues(j.sink.Name(), "ok").Inc()
		return
	}

	log := logger.WithComponent("notify").With("sink", j.sink.Name(), "type", j.event.Type, "exchangeID", j.event.ExchangeID)
	if j.retries >= d.maxRetries {
		metrics.NotificationsTotal.WithLabelValues(j.sink.Name(), "failed").Inc()
		log.Error("Notification delivery failed", "error", err, "attempts", j.retries+1)
		return
	}

	j.retries++
	delay := time.Duration(j.retries*j.retries) * d.backoff
	metrics.NotificationsTotal.WithLabelValues(j.sink.Name(), "retry").Inc()
	log.Warn("Notification delivery failed, retrying", "error", err, "attempt", j.retries, "delay", delay)
	time.AfterFunc(delay, func() { d.enqueue(j) })
}

// Notify queues ev for every sink. It never blocks: when the queue is full
// the event is dropped and counted.
func (d *Dispatcher) Notify(_ context.Context, ev domain.EngineEvent) {
	if len(ev.Recipients) == 0 {
		return
	}
	for _, s := range d.sinks {
		d.enqueue(job{sink: s, event: ev})
	}
}

func (d *Dispatcher) enqueue(j job) {
	select {
	case d.jobs <- j:
	default:
		metrics.NotificationsDropped.Inc()
		logger.Warn("Notification queue full, dropping event", "sink", j.sink.Name(), "type", j.event.Type)
	}
}

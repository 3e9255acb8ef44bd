// Package worker runs the relay workers that take dispatch jobs off the
// queue and hand each submission to the relay.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/artchsh/portfolio/internal/adapters/mq/queue"
	"github.com/artchsh/portfolio/internal/domain/contact"
	"github.com/artchsh/portfolio/pkg/logger"
	"github.com/artchsh/portfolio/pkg/metrics"
)

// Job abstracts what workers read off the queue.
type Job = queue.Job

// Dispatcher sends one submission; see contact.Dispatcher.
type Dispatcher = contact.Dispatcher

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// dequeueMarker is implemented by queues that track dequeue metrics.
type dequeueMarker interface {
	MarkDequeued()
}

// Worker processes jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled, the queue is
	// closed and drained, or Shutdown is called.
	Run(ctx context.Context)

	// Shutdown stops the worker and waits for the current job to finish.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue      Queue
	dispatcher Dispatcher
	name       string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, d Dispatcher, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      q,
		dispatcher: d,
		name:       "worker",
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if m, ok := w.queue.(dequeueMarker); ok {
				m.MarkDequeued()
			}
			w.process(ctx, job)
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// process dispatches one job and reports the outcome on job.Result.
func (w *InMemoryWorker) process(ctx context.Context, job Job) { //nolint:gocritic // hugeParam: value semantics over the channel
	start := time.Now()
	metrics.AddBusyWorkers(1)
	defer func() {
		metrics.AddBusyWorkers(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	err := w.dispatcher.Dispatch(contact.WithSubmissionID(ctx, job.ID), job.Submission)
	if err != nil {
		metrics.RecordErrorByComponent("worker", "dispatch_error")
		w.logger.Error(ctx, "dispatch failed",
			logger.String("submission_id", job.ID),
			logger.Error(err),
		)
	} else {
		w.logger.Debug(ctx, "dispatched",
			logger.String("submission_id", job.ID),
			logger.Duration("queued_for", start.Sub(job.Enqueued)),
		)
	}

	select {
	case job.Result <- err:
	default:
		// Result is buffered for exactly one send; a second send means the
		// job was reused, which is a bug upstream.
		w.logger.Warn(ctx, "result already reported", logger.String("submission_id", job.ID))
	}
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers; values below 1 fall back to
// one worker per CPU.
func NewPool(workerCount int, q Queue, d Dispatcher) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewInMemoryWorker(q, d, WithName("worker-"+strconv.Itoa(i)))
	}

	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue, lets the workers drain what is already queued,
// and forces them to stop once ctx expires.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	var timedOut int
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			w.shutdownOnce.Do(func() { close(w.shutdown) })
			timedOut++
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	if timedOut > 0 {
		return fmt.Errorf("%d workers did not drain: %w", timedOut, ctx.Err())
	}
	return nil
}

// Package service provides the submission service that sits between the
// HTTP handlers and the relay: it deduplicates, queues, and waits for the
// relay workers.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/google/uuid"

	jobqueue "github.com/artchsh/portfolio/internal/adapters/mq/queue"
	workerpool "github.com/artchsh/portfolio/internal/adapters/mq/worker"
	"github.com/artchsh/portfolio/internal/domain/contact"
	"github.com/artchsh/portfolio/internal/domain/dedupe"
	"github.com/artchsh/portfolio/internal/domain/model"
	"github.com/artchsh/portfolio/pkg/logger"
	"github.com/artchsh/portfolio/pkg/metrics"
)

// Service relays contact submissions through a bounded worker pool.
type Service struct {
	mu sync.RWMutex

	// Core components
	relay      contact.Dispatcher
	deduper    dedupe.Deduper
	queue      jobqueue.Queue
	workerPool *workerpool.Pool

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int

	// State
	started bool
	stopCh  chan struct{}

	// Submissions with a client id that are queued or being relayed.
	flightMu sync.Mutex
	inflight map[string]*flight

	logger logger.Logger
}

// flight is one relay attempt; done is closed once err is final.
type flight struct {
	id      string
	tracked bool
	done    chan struct{}
	err     error
}

func newFlight(id string, tracked bool) *flight {
	return &flight{id: id, tracked: tracked, done: make(chan struct{})}
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithRelay sets the dispatcher the workers hand submissions to.
func WithRelay(d contact.Dispatcher) Option {
	return func(s *Service) {
		if d != nil {
			s.relay = d
		}
	}
}

// WithWorkerCount sets the number of relay workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of submissions waiting for a worker.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many submission ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   256,
		dedupeSize:  10000,
		stopCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the queue, deduper and worker pool and starts the workers.
// The workers keep ctx's values but not its cancellation; they run until Stop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.relay == nil {
		return ErrNoRelay
	}

	s.logger.Info(ctx, "starting submission service...")

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.queue, s.relay)
	s.workerPool.Start(context.WithoutCancel(ctx))

	s.flightMu.Lock()
	s.inflight = make(map[string]*flight)
	s.flightMu.Unlock()

	s.stopCh = make(chan struct{})
	s.started = true
	s.logger.Info(ctx, "submission service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop closes the queue and waits for queued submissions to be relayed
// until ctx ends. Submitters still waiting get ErrStopped.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping submission service...")

	err := s.workerPool.Shutdown(ctx)
	close(s.stopCh)
	s.started = false

	if err != nil {
		s.logger.Warn(ctx, "submission service stopped with pending work", logger.Error(err))
		return err
	}
	s.logger.Info(ctx, "submission service stopped")
	return nil
}

// Dispatch implements contact.Dispatcher. The submission id, if any, is
// taken from ctx (see contact.WithSubmissionID).
func (s *Service) Dispatch(ctx context.Context, sub model.ContactSubmission) error {
	_, err := s.Relay(ctx, contact.SubmissionID(ctx), sub)
	return err
}

// Relay queues sub for a relay worker and waits for the outcome.
//
// A non-empty id is remembered once it has been relayed; relaying the same
// id again returns duplicate=true without sending anything. While the first
// attempt for an id is still queued or running, a second call waits for it
// and shares its outcome. A failed attempt forgets the id so the visitor
// can retry. A full queue returns ErrBackpressure at once.
func (s *Service) Relay(ctx context.Context, id string, sub model.ContactSubmission) (duplicate bool, err error) {
	s.mu.RLock()
	started, q, d, stopCh := s.started, s.queue, s.deduper, s.stopCh
	s.mu.RUnlock()
	if !started {
		return false, ErrNotStarted
	}

	var f *flight
	if id == "" {
		f = newFlight(uuid.NewString(), false)
	} else {
		s.flightMu.Lock()
		if prev, ok := s.inflight[id]; ok {
			s.flightMu.Unlock()
			return s.follow(ctx, prev)
		}
		if d.SeenAndRecord(ctx, id) {
			s.flightMu.Unlock()
			metrics.RecordDuplicate()
			s.logger.Debug(ctx, "duplicate submission, skipping", logger.String("submission_id", id))
			return true, nil
		}
		f = newFlight(id, true)
		s.inflight[id] = f
		s.flightMu.Unlock()
	}

	job := model.NewDispatchJob(f.id, sub)
	if err := q.Enqueue(ctx, job); err != nil {
		switch {
		case errors.Is(err, jobqueue.ErrFull):
			s.logger.Warn(ctx, "dispatch queue full", logger.String("submission_id", f.id))
			err = fmt.Errorf("%w: %w", ErrBackpressure, err)
		case errors.Is(err, jobqueue.ErrClosed):
			err = ErrStopped
		}
		s.land(ctx, d, f, err)
		return false, err
	}
	go s.settle(context.WithoutCancel(ctx), d, f, job, stopCh)

	select {
	case <-f.done:
		return false, f.err
	case <-ctx.Done():
		// The job stays queued and will still be relayed; the id stays
		// recorded so a resubmission is not sent twice.
		return false, ctx.Err()
	}
}

// follow waits for an attempt started by another call with the same id.
func (s *Service) follow(ctx context.Context, f *flight) (bool, error) {
	s.logger.Debug(ctx, "submission already in flight, waiting", logger.String("submission_id", f.id))
	select {
	case <-f.done:
		if f.err != nil {
			return false, f.err
		}
		metrics.RecordDuplicate()
		return true, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// settle waits for the worker's result, or for Stop, and lands f.
func (s *Service) settle(ctx context.Context, d dedupe.Deduper, f *flight, job model.DispatchJob, stopCh <-chan struct{}) {
	var err error
	select {
	case err = <-job.Result:
	case <-stopCh:
		// Stop drains the queue before closing stopCh, so a result may
		// already be waiting.
		select {
		case err = <-job.Result:
		default:
			err = ErrStopped
		}
	}
	s.land(ctx, d, f, err)
}

// land records the outcome of f and wakes every caller waiting on it.
// A failed attempt forgets its id.
func (s *Service) land(ctx context.Context, d dedupe.Deduper, f *flight, err error) {
	if f.tracked {
		s.flightMu.Lock()
		if s.inflight[f.id] == f {
			delete(s.inflight, f.id)
		}
		if err != nil {
			d.Unrecord(ctx, f.id)
		}
		s.flightMu.Unlock()
	}
	f.err = err
	close(f.done)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}
	if s.started {
		queueLen := s.queue.Len(context.Background())
		stats["queueLength"] = queueLen
		stats["dedupeEntries"] = s.deduper.Size()
		stats["inFlight"] = s.InFlight()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.workerCount)
	}
	return stats
}

// Size returns the current number of remembered submission ids.
func (s *Service) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// InFlight returns how many submissions with an id are queued or being
// relayed.
func (s *Service) InFlight() int {
	s.flightMu.Lock()
	defer s.flightMu.Unlock()
	return len(s.inflight)
}

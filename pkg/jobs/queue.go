package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrQueueFull is returned when the buffer has no room for another job.
var ErrQueueFull = errors.New("queue full")

// Job represents a queued background task.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job.
type Handler func(context.Context, Job) error

// QueueConfig configures worker pool behaviour. RetryDelay doubles with every
// attempt up to MaxRetryDelay. A zero JobTimeout leaves handlers unbounded.
type QueueConfig struct {
	Workers       int
	BufferSize    int
	MaxRetries    int
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
	JobTimeout    time.Duration
	Logger        *zap.Logger
}

// Stats is a point in time view of queue activity.
type Stats struct {
	Name      string `json:"name"`
	Depth     int    `json:"depth"`
	Enqueued  int64  `json:"enqueued"`
	Processed int64  `json:"processed"`
	Retried   int64  `json:"retried"`
	Abandoned int64  `json:"abandoned"`
}

// Queue is an in-memory job dispatcher backed by a fixed goroutine pool.
// Failed jobs are re-enqueued after RetryDelay until MaxRetries is exceeded.
type Queue struct {
	name    string
	handler Handler

	workers       int
	maxRetries    int
	retryDelay    time.Duration
	maxRetryDelay time.Duration
	jobTimeout    time.Duration
	logger        *zap.Logger

	jobs    chan Job
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool

	enqueued  atomic.Int64
	processed atomic.Int64
	retried   atomic.Int64
	abandoned atomic.Int64
}

// NewQueue builds a new queue with the provided handler.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.MaxRetryDelay < cfg.RetryDelay {
		cfg.MaxRetryDelay = 32 * cfg.RetryDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue{
		name:          name,
		handler:       handler,
		workers:       cfg.Workers,
		maxRetries:    cfg.MaxRetries,
		retryDelay:    cfg.RetryDelay,
		maxRetryDelay: cfg.MaxRetryDelay,
		jobTimeout:    cfg.JobTimeout,
		logger:        cfg.Logger.With(zap.String("queue", name)),
		jobs:          make(chan Job, cfg.BufferSize),
	}
}

// MaxRetries returns the number of retries a job gets after its first run.
func (q *Queue) MaxRetries() int {
	return q.maxRetries
}

// Start begins worker consumption. Calls after the first are no-ops.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.started = true
	q.logger.Info("queue started", zap.Int("workers", q.workers))
}

// Stop cancels workers and waits for them to exit. Jobs still buffered are
// dropped; report jobs are recovered from storage on the next start.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.logger.Info("queue stopped", zap.Int("dropped", len(q.jobs)))
}

// Enqueue pushes a job onto the queue without blocking.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	ctx := q.ctx
	started := q.started
	q.mu.Unlock()

	if !started {
		return fmt.Errorf("queue %s not started", q.name)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("queue %s stopped: %w", q.name, err)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	select {
	case q.jobs <- job:
		q.enqueued.Add(1)
		return nil
	default:
		return fmt.Errorf("queue %s: %w", q.name, ErrQueueFull)
	}
}

// Stats reports counters accumulated since the queue was built.
func (q *Queue) Stats() Stats {
	return Stats{
		Name:      q.name,
		Depth:     len(q.jobs),
		Enqueued:  q.enqueued.Load(),
		Processed: q.processed.Load(),
		Retried:   q.retried.Load(),
		Abandoned: q.abandoned.Load(),
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			if err := q.run(job); err != nil {
				q.handleFailure(job, err)
				continue
			}
			q.processed.Add(1)
		}
	}
}

// run invokes the handler, turning a panic into an error so one bad job
// cannot take the worker down.
func (q *Queue) run(job Job) (err error) {
	ctx := q.ctx
	if q.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.jobTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return q.handler(ctx, job)
}

// backoff returns the wait before the given retry attempt (1-based).
func (q *Queue) backoff(attempt int) time.Duration {
	delay := q.retryDelay
	for i := 1; i < attempt && delay < q.maxRetryDelay; i++ {
		delay *= 2
	}
	if delay > q.maxRetryDelay {
		delay = q.maxRetryDelay
	}
	return delay
}

func (q *Queue) handleFailure(job Job, err error) {
	job.Attempt++
	if job.Attempt > q.maxRetries {
		q.abandoned.Add(1)
		q.logger.Error("job exceeded retries", zap.String("job_id", job.ID), zap.String("type", job.Type), zap.Error(err))
		return
	}
	q.retried.Add(1)
	delay := q.backoff(job.Attempt)
	q.logger.Warn("job failed, retrying", zap.String("job_id", job.ID), zap.String("type", job.Type), zap.Int("attempt", job.Attempt), zap.Duration("delay", delay), zap.Error(err))

	go func(j Job) {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
			return
		case <-timer.C:
			if err := q.Enqueue(j); err != nil {
				q.logger.Error("failed to requeue job", zap.String("job_id", j.ID), zap.Error(err))
			}
		}
	}(job)
}

// Package ratelimit gates calls to an external dependency with a token
// bucket and a bounded FIFO wait queue.
package ratelimit

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrQueueFull is returned when a task is submitted while the wait queue is
// at capacity. It is never retried.
var ErrQueueFull = eris.New("ratelimit: queue full")

// Config sizes a Limiter.
type Config struct {
	// Name labels log lines and metrics (e.g. "wikipedia").
	Name string

	// MaxRequestsPerSecond is both the bucket capacity and the refill rate
	// per second. Default: 1.
	MaxRequestsPerSecond int

	// MaxQueueSize bounds the number of tasks waiting to run. Default: 100.
	MaxQueueSize int

	// OnReject is called when a task is rejected with ErrQueueFull.
	OnReject func(name string)
}

// Stats is a point-in-time view of a limiter.
type Stats struct {
	Queued    int   `json:"queued"`
	Processed int64 `json:"processed"`
	Rejected  int64 `json:"rejected"`
	Draining  bool  `json:"draining"`
}

type task struct {
	ctx  context.Context
	fn   func(ctx context.Context) error
	done chan error
}

// Limiter runs submitted tasks one at a time in submission order, each
// after taking a token from the bucket. A single drain goroutine exists
// while the queue is non-empty; a slow task delays every task behind it.
type Limiter struct {
	cfg    Config
	bucket *rate.Limiter

	mu        sync.Mutex
	queue     []*task
	draining  bool
	processed int64
	rejected  int64
}

// New creates a Limiter with a full bucket.
func New(cfg Config) *Limiter {
	if cfg.MaxRequestsPerSecond <= 0 {
		cfg.MaxRequestsPerSecond = 1
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	return &Limiter{
		cfg:    cfg,
		bucket: rate.NewLimiter(rate.Limit(cfg.MaxRequestsPerSecond), cfg.MaxRequestsPerSecond),
	}
}

// Submit queues fn without waiting for it to run. The returned channel
// receives fn's error (or the wait error) exactly once. Submit fails
// immediately with ErrQueueFull when the queue is at capacity.
func (l *Limiter) Submit(ctx context.Context, fn func(ctx context.Context) error) (<-chan error, error) {
	t := &task{ctx: ctx, fn: fn, done: make(chan error, 1)}

	l.mu.Lock()
	if len(l.queue) >= l.cfg.MaxQueueSize {
		l.rejected++
		l.mu.Unlock()
		zap.L().Warn("rate limiter queue full",
			zap.String("limiter", l.cfg.Name),
			zap.Int("max_queue_size", l.cfg.MaxQueueSize),
		)
		if l.cfg.OnReject != nil {
			l.cfg.OnReject(l.cfg.Name)
		}
		return nil, ErrQueueFull
	}
	l.queue = append(l.queue, t)
	if !l.draining {
		l.draining = true
		go l.drain()
	}
	l.mu.Unlock()

	return t.done, nil
}

// Execute queues fn and blocks until it has run, returning its error. If
// ctx ends first, Execute returns ctx.Err() and the queued task is skipped
// when it reaches the head of the queue.
func (l *Limiter) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	done, err := l.Submit(ctx, fn)
	if err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs fn through l and returns its value.
func Do[T any](ctx context.Context, l *Limiter, fn func(ctx context.Context) (T, error)) (T, error) {
	var val T
	err := l.Execute(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		val = v
		return err
	})
	return val, err
}

// drain is the single runner. The head task stays queued (and counts
// against MaxQueueSize) until a token is available for it.
func (l *Limiter) drain() {
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.draining = false
			l.mu.Unlock()
			return
		}
		head := l.queue[0]
		l.mu.Unlock()

		waitErr := l.bucket.Wait(head.ctx)

		l.mu.Lock()
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		if waitErr != nil {
			head.done <- eris.Wrapf(waitErr, "ratelimit: %s: wait", l.cfg.Name)
			continue
		}
		err := head.fn(head.ctx)

		l.mu.Lock()
		l.processed++
		l.mu.Unlock()
		head.done <- err
	}
}

// Stats returns queue depth and counters.
func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Stats{
		Queued:    len(l.queue),
		Processed: l.processed,
		Rejected:  l.rejected,
		Draining:  l.draining,
	}
}

// Name returns the configured limiter name.
func (l *Limiter) Name() string { return l.cfg.Name }

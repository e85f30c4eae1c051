// Package worker runs detached background tasks on a bounded pool of
// goroutines that outlive the request which submitted them.
package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/review-pipeline/internal/metrics"
	"github.com/rs/zerolog"
)

// ErrStopped is returned by Submit after Stop has been called
var ErrStopped = errors.New("worker: pool stopped")

// Task is a unit of background work. The context is owned by the pool and
// is cancelled only when a shutdown deadline passes.
type Task func(ctx context.Context)

// Pool is a semaphore-bounded set of goroutines
type Pool struct {
	log     zerolog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	stopped bool
	// sem caps how many tasks run at once; waiting tasks park on it
	sem chan struct{}
}

// New creates a pool running at most size tasks concurrently
func New(size int, log zerolog.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	ctx, cancel := context.WithCancel(context.Background())

	log.Info().Int("max_workers", size).Msg("Initializing background worker pool")

	return &Pool{
		log:    log.With().Str("component", "worker").Logger(),
		ctx:    ctx,
		cancel: cancel,
		sem:    make(chan struct{}, size),
	}
}

// Submit schedules task and returns its ID immediately. It never blocks
// the caller: when every slot is busy the task waits in its own goroutine.
func (p *Pool) Submit(name string, task Task) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return "", ErrStopped
	}

	id := uuid.NewString()
	p.wg.Add(1)
	metrics.BackgroundTasksInFlight.Inc()

	go func() {
		defer p.wg.Done()
		defer metrics.BackgroundTasksInFlight.Dec()

		select {
		case p.sem <- struct{}{}:
		case <-p.ctx.Done():
			p.log.Warn().Str("task", name).Str("task_id", id).Msg("Task dropped due to shutdown")
			return
		}
		defer func() { <-p.sem }()

		p.run(name, id, task)
	}()

	return id, nil
}

func (p *Pool) run(name, id string, task Task) {
	// Panic recovery keeps one bad task from crashing the process
	defer func() {
		if r := recover(); r != nil {
			metrics.BackgroundTaskPanicsTotal.Inc()
			p.log.Error().
				Interface("panic", r).
				Str("task", name).
				Str("task_id", id).
				Msg("Background task panicked - recovered")
		}
	}()

	p.log.Debug().Str("task", name).Str("task_id", id).Msg("Running background task")
	task(p.ctx)
}

// Wait blocks until every submitted task has finished
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Stop refuses new tasks and waits for in-flight ones. If ctx expires
// first the pool context is cancelled and Stop returns ctx.Err() once
// the tasks have returned.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.log.Info().Msg("Worker pool drained")
		return nil
	case <-ctx.Done():
		p.log.Warn().Msg("Shutdown deadline reached, cancelling background tasks")
		p.cancel()
		<-done
		return ctx.Err()
	}
}

// jobs/pool.go
package jobs

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Pool provides a simple worker pool for async tasks.
// Pool doesn't keep a job queue - Go runs a task immediately with bounded
// concurrency and blocks the caller while the pool is at capacity. Spawn
// parks the task on its own goroutine instead, so the caller never waits.
type Pool struct {
	sem     chan struct{}
	wg      sync.WaitGroup
	logger  *zap.Logger
	running atomic.Int64
}

// NewPool creates a worker pool with the specified concurrency limit.
func NewPool(workers int, logger *zap.Logger) *Pool {
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		sem:    make(chan struct{}, workers),
		logger: logger,
	}
}

// Go runs a task asynchronously, blocking if the pool is at capacity.
func (p *Pool) Go(task func()) {
	p.sem <- struct{}{} // Acquire
	p.wg.Add(1)
	p.running.Add(1)

	go func() {
		defer func() {
			<-p.sem // Release
			p.wg.Done()
			p.running.Add(-1)

			if r := recover(); r != nil {
				p.logger.Error("task panicked", zap.Any("panic", r))
			}
		}()
		task()
	}()
}

// Spawn runs task once a slot is free without blocking the caller. The
// task waits for capacity on its own goroutine, so the pool still bounds
// how many tasks execute at once.
func (p *Pool) Spawn(task func()) {
	// Count the task before returning so Wait covers tasks still parked
	// on the semaphore.
	p.wg.Add(1)

	go func() {
		p.sem <- struct{}{} // Acquire
		p.running.Add(1)

		defer func() {
			<-p.sem // Release
			p.running.Add(-1)
			p.wg.Done()

			if r := recover(); r != nil {
				p.logger.Error("task panicked", zap.Any("panic", r))
			}
		}()
		task()
	}()
}

// Wait blocks until all running tasks complete.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Running returns the number of currently executing tasks.
func (p *Pool) Running() int {
	return int(p.running.Load())
}

// Submit runs a task on the pool and returns a Future for its result.
// It returns at once even when the pool is full; the task starts when a
// slot frees up.
func Submit[T any](p *Pool, task func() (T, error)) *Future[T] {
	f := newFuture[T]()

	p.Spawn(func() {
		// Settle before re-panicking so waiters are never left blocked;
		// Spawn's recover logs the panic.
		defer func() {
			if r := recover(); r != nil {
				var zero T
				f.settle(zero, fmt.Errorf("task panicked: %v", r))
				panic(r)
			}
		}()
		v, err := task()
		f.settle(v, err)
	})

	return f
}

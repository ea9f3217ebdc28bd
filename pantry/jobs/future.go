// jobs/future.go
package jobs

import (
	"context"
	"sync"
)

// Future represents the result of an async task. It settles exactly once,
// either with a value or with an error.
type Future[T any] struct {
	once  sync.Once
	value T
	err   error
	done  chan struct{}
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolved returns a Future already settled with v.
func Resolved[T any](v T) *Future[T] {
	f := newFuture[T]()
	f.settle(v, nil)
	return f
}

// Rejected returns a Future already settled with err.
func Rejected[T any](err error) *Future[T] {
	f := newFuture[T]()
	var zero T
	f.settle(zero, err)
	return f
}

func (f *Future[T]) settle(v T, err error) {
	f.once.Do(func() {
		f.value, f.err = v, err
		close(f.done)
	})
}

// Wait blocks until the task completes and returns the result.
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.value, f.err
}

// WaitContext waits for the result or for ctx to end, whichever comes first.
// Giving up on the wait does not cancel the task itself.
func (f *Future[T]) WaitContext(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done returns a channel that is closed when the task completes.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Ready returns true if the task has completed.
func (f *Future[T]) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Then calls fn with the result once the Future settles. fn runs on its own
// goroutine; the returned channel is closed after fn returns.
func (f *Future[T]) Then(fn func(T, error)) <-chan struct{} {
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		<-f.done
		fn(f.value, f.err)
	}()
	return finished
}

// Map derives a Future by applying fn to a successful result. Errors pass
// through unchanged and fn is not called.
func Map[T, U any](f *Future[T], fn func(T) (U, error)) *Future[U] {
	out := newFuture[U]()
	go func() {
		v, err := f.Wait()
		if err != nil {
			var zero U
			out.settle(zero, err)
			return
		}
		u, err := fn(v)
		out.settle(u, err)
	}()
	return out
}

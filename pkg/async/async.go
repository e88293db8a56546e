package async

import (
	"context"
	"fmt"
	"time"
)

// Future is the eventual result of an asynchronous computation.
type Future[U any] struct {
	result U
	err    error
	done   chan struct{}
}

// Await blocks until the computation finishes.
func (f *Future[U]) Await() (U, error) {
	<-f.done
	return f.result, f.err
}

// AwaitWithTimeout is Await bounded by timeout; on expiry it returns ErrTimeout.
func (f *Future[U]) AwaitWithTimeout(timeout time.Duration) (U, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-f.done:
		return f.result, f.err
	case <-timer.C:
		var zero U
		return zero, ErrTimeout
	}
}

// IsComplete reports completion without blocking.
func (f *Future[U]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Async runs fn(ctx, param) in a new goroutine.
// A context that is already canceled completes the future with ctx.Err() without calling fn.
func Async[T, U any](ctx context.Context, param T, fn func(context.Context, T) (U, error)) *Future[U] {
	f := &Future[U]{done: make(chan struct{})}

	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				var zero U
				f.result, f.err = zero, fmt.Errorf("%w: %v", ErrPanic, r)
			}
		}()

		if err := ctx.Err(); err != nil {
			f.err = err
			return
		}
		f.result, f.err = fn(ctx, param)
	}()

	return f
}

// WaitAll awaits every future and returns their results in order, together
// with the first error encountered. Unlike a short-circuiting join it always
// waits for all futures.
func WaitAll[U any](futures ...*Future[U]) ([]U, error) {
	results := make([]U, len(futures))
	var firstErr error
	for i, future := range futures {
		res, err := future.Await()
		results[i] = res
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return results, firstErr
}

// Detach runs fn in the background, detached from parent's cancellation but
// keeping its values, and bounded by timeout when positive. onDone, if set,
// receives the outcome. The returned future exists for tests; production
// callers drop it.
func Detach[T, U any](
	parent context.Context,
	timeout time.Duration,
	param T,
	fn func(context.Context, T) (U, error),
	onDone func(U, error),
) *Future[U] {
	ctx := context.WithoutCancel(parent)
	cancel := context.CancelFunc(func() {})
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	}

	inner := Async(ctx, param, fn)
	outer := &Future[U]{done: make(chan struct{})}

	go func() {
		defer close(outer.done)
		defer cancel()
		outer.result, outer.err = inner.Await()
		if onDone == nil {
			return
		}
		defer func() { _ = recover() }()
		onDone(outer.result, outer.err)
	}()

	return outer
}

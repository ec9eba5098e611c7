// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package arbor

import (
	"context"
	"sync"
)

// Future is a single-assignment completion handle. It is completed exactly
// once, either successfully or with an error; further attempts to complete
// it are no-ops. Future is safe for concurrent use: one goroutine may
// complete it while any number of others wait on it.
type Future[T any] struct {
	done chan struct{}

	mu    sync.Mutex
	once  sync.Once
	value T
	err   error
}

// NewFuture creates an incomplete Future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Completed returns an already-successfully-completed Future holding value.
func Completed[T any](value T) *Future[T] {
	f := NewFuture[T]()
	f.Complete(value)
	return f
}

// Failed returns an already-failed Future.
func Failed[T any](err error) *Future[T] {
	f := NewFuture[T]()
	f.Fail(err)
	return f
}

// Complete resolves the future successfully with value. Only the first call
// (whether Complete or Fail) has any effect.
func (f *Future[T]) Complete(value T) {
	f.once.Do(func() {
		f.mu.Lock()
		f.value = value
		f.mu.Unlock()
		close(f.done)
	})
}

// Fail resolves the future with an error. Only the first call (whether
// Complete or Fail) has any effect.
func (f *Future[T]) Fail(err error) {
	f.once.Do(func() {
		f.mu.Lock()
		f.err = err
		f.mu.Unlock()
		close(f.done)
	})
}

// Done returns a channel that is closed once the future is resolved, either
// way.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// IsDone reports whether the future has been resolved.
func (f *Future[T]) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Peek returns the future's value/error without blocking, and reports
// whether the future was already resolved.
func (f *Future[T]) Peek() (value T, err error, ok bool) {
	select {
	case <-f.done:
	default:
		return value, nil, false
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err, true
}

// Wait blocks until the future resolves or ctx is done, whichever comes
// first.
func (f *Future[T]) Wait(ctx context.Context) (value T, err error) {
	select {
	case <-f.done:
		f.mu.Lock()
		value, err = f.value, f.err
		f.mu.Unlock()
		return
	case <-ctx.Done():
		return value, ctx.Err()
	}
}

// Get blocks uninterruptibly until the future resolves.
func (f *Future[T]) Get() (value T, err error) {
	<-f.done
	f.mu.Lock()
	value, err = f.value, f.err
	f.mu.Unlock()
	return
}

// StateFuture is the pair of completion handles associated with a
// lifecycle-bearing entity (a Registion or a Booking): one future that
// resolves when the entity's corresponding remote operation (register or
// subscribe) first succeeds or permanently fails, and one that resolves when
// the entity is closed/removed. A StateFuture is replaced wholesale on
// reopen; it is never reset in place, so stale references held by callers
// from a prior lifecycle never observe a spurious second resolution.
type StateFuture struct {
	Open  *Future[URL]
	Close *Future[struct{}]
}

// newStateFuture creates a fresh, unresolved StateFuture.
func newStateFuture() *StateFuture {
	return &StateFuture{
		Open:  NewFuture[URL](),
		Close: NewFuture[struct{}](),
	}
}

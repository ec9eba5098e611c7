// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package arbor

import (
	"sync"
	"time"
)

// taskFunc is the unit of retryable work run by the dispatcher: register,
// deregister, subscribe, or unsubscribe. It returns true when the work is
// done, false when it should be retried, and an error only for conditions
// that should be logged alongside the retry decision.
type taskFunc func() (bool, error)

// task holds one pending unit of dispatcher work, per §3's Task data model.
type task struct {
	url       URL
	future    *Future[URL]
	call      taskFunc
	retryTime int64 // unix ms; due when <= now
}

// newTask creates a task that is immediately due.
func newTask(url URL, future *Future[URL], call taskFunc) *task {
	return &task{url: url, future: future, call: call, retryTime: nowMillis()}
}

// run executes the task body once, reporting whether it completed. A panic
// from call is not recovered here; callers that need isolation (the
// dispatcher) wrap the call themselves.
func (t *task) run() (bool, error) {
	return t.call()
}

// taskQueue is the thread-safe double-ended queue described by §4.2.2:
// fresh work is head-inserted so it runs before already-queued retries with
// an equally-due retryTime; retries are tail-inserted.
type taskQueue struct {
	mu    sync.Mutex
	items []*task
}

func newTaskQueue() *taskQueue {
	return &taskQueue{}
}

// addNew head-inserts t. Used for newly submitted register/deregister/
// subscribe/unsubscribe work.
func (q *taskQueue) addNew(t *task) {
	q.mu.Lock()
	q.items = append([]*task{t}, q.items...)
	q.mu.Unlock()
}

// addRetry tail-inserts t. Used when a task's callable returns false and is
// rescheduled with a later retryTime.
func (q *taskQueue) addRetry(t *task) {
	q.mu.Lock()
	q.items = append(q.items, t)
	q.mu.Unlock()
}

// peekFirst returns the head of the queue without removing it, or nil if
// empty.
func (q *taskQueue) peekFirst() *task {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil
	}

	return q.items[0]
}

// pollFirst removes and returns the head of the queue, or nil if empty. The
// returned task may differ from a prior peekFirst result if a concurrent
// addNew raced ahead of it, which is intentional: fresh work always wins.
func (q *taskQueue) pollFirst() *task {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil
	}

	t := q.items[0]
	q.items = q.items[1:]
	return t
}

// len reports the current queue depth.
func (q *taskQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// drain empties the queue, returning everything that was left. Used at
// shutdown to fail outstanding futures.
func (q *taskQueue) drain() []*task {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.items
	q.items = nil
	return items
}

// reconnectTask holds a thunk and an absolute expiration time, per §3's
// ReconnectTask. It is scheduled by the reconnect loop and run by the
// dispatcher once due.
type reconnectTask struct {
	run    func()
	expire int64 // unix ms
}

func newReconnectTask(run func(), after time.Duration) *reconnectTask {
	return &reconnectTask{run: run, expire: nowMillis() + after.Milliseconds()}
}

func (rt *reconnectTask) isExpired() bool {
	return nowMillis() >= rt.expire
}

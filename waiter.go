// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package arbor

import "time"

// waiter is the single-slot condition variable the dispatcher blocks on
// between turns, per §4.2/§9. wakeup is coalescing: any number of calls
// before the next wait collapse into a single early return.
type waiter struct {
	wake chan struct{}
}

func newWaiter() *waiter {
	return &waiter{wake: make(chan struct{}, 1)}
}

func (w *waiter) wakeup() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// wait blocks until wakeup is called or d elapses, whichever comes first.
func (w *waiter) wait(d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-w.wake:
	case <-t.C:
	}
}

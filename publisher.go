// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package arbor

import "sync"

// safeEqual compares two interface values for identity, guarding against the
// runtime panic that plain == would raise if both a and b happen to hold an
// incomparable dynamic type (for example, two values of a func-backed
// handler type such as ClusterHandlerFunc). Handlers backed by pointer
// types, the common case, compare exactly as == would.
func safeEqual(a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()

	return a == b
}

// subscriber is one handler's private, unbounded FIFO queue and delivery
// goroutine. Pushing never blocks the publisher; delivery happens on the
// subscriber's own goroutine so a slow handler cannot stall other handlers
// or the dispatcher.
type subscriber[H any, E any] struct {
	handler H

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []E
	closed bool
}

func newSubscriber[H any, E any](h H) *subscriber[H, E] {
	s := &subscriber[H, E]{handler: h}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *subscriber[H, E]) push(e E) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	s.queue = append(s.queue, e)
	s.mu.Unlock()
	s.cond.Signal()
}

func (s *subscriber[H, E]) closeQueue() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cond.Broadcast()
}

func (s *subscriber[H, E]) run(deliver func(H, E)) {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}

		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}

		e := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		deliver(s.handler, e)
	}
}

// eventBus is a per-booking fan-out publisher: every handler gets its own
// FIFO delivery goroutine, broadcasts preserve handler-registration order,
// and a single-recipient publish is available for the synthetic join event.
type eventBus[H any, E any] struct {
	deliver func(H, E)

	mu     sync.Mutex
	subs   []*subscriber[H, E]
	wg     sync.WaitGroup
	closed bool
}

// newEventBus creates a started, empty eventBus. deliver is invoked on each
// subscriber's private goroutine, never concurrently for the same handler.
func newEventBus[H any, E any](deliver func(H, E)) *eventBus[H, E] {
	return &eventBus[H, E]{deliver: deliver}
}

// addHandler registers h, returning false if an equal handler (per
// safeEqual) is already present or the bus is closed.
func (b *eventBus[H, E]) addHandler(h H) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}

	for _, s := range b.subs {
		if safeEqual(s.handler, h) {
			return false
		}
	}

	s := newSubscriber[H, E](h)
	b.subs = append(b.subs, s)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		s.run(b.deliver)
	}()

	return true
}

// removeHandler removes h, reporting whether it was present and how many
// handlers remain afterward.
func (b *eventBus[H, E]) removeHandler(h H) (removed bool, remaining int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if safeEqual(s.handler, h) {
			s.closeQueue()
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return true, len(b.subs)
		}
	}

	return false, len(b.subs)
}

// len returns the current handler count.
func (b *eventBus[H, E]) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// broadcast enqueues e for delivery to every currently-registered handler,
// in registration order. It never blocks on a handler's consumption rate.
func (b *eventBus[H, E]) broadcast(e E) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, s := range b.subs {
		s.push(e)
	}
}

// publishTo enqueues e for delivery to h alone, if h is currently
// registered. Used for the one-shot synthetic join event.
func (b *eventBus[H, E]) publishTo(h H, e E) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, s := range b.subs {
		if safeEqual(s.handler, h) {
			s.push(e)
			return
		}
	}
}

// close stops every delivery goroutine. Each goroutine still delivers the
// events already queued for it before exiting; events published after
// close are discarded. close does not block
// waiting for in-flight deliveries — callers that need that should wait on
// Booking-level lifecycle instead.
func (b *eventBus[H, E]) close() {
	b.mu.Lock()
	b.closed = true
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()

	for _, s := range subs {
		s.closeQueue()
	}
}

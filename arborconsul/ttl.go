// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package arborconsul

import (
	"context"
	"sync"
	"time"
)

type ticker func(time.Duration) (<-chan time.Time, func())

func defaultTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

type ttlCheck struct {
	cancel context.CancelFunc
	states chan HealthState
}

// TTL keeps consul TTL checks alive in the background by re-reporting the
// last known HealthState on a fixed interval, so a check never lapses into
// critical merely from the passage of time between real health changes.
type TTL struct {
	updater TTLUpdater
	ticker  ticker

	lock   sync.Mutex
	active map[CheckID]*ttlCheck
}

// NewTTL creates a TTL manager that reports state through updater.
func NewTTL(updater TTLUpdater) *TTL {
	return &TTL{
		updater: updater,
		ticker:  defaultTicker,
		active:  make(map[CheckID]*ttlCheck),
	}
}

// Track starts a background refresh loop for checkID. The returned channel
// accepts state changes; the loop always resends the most recently pushed
// state on every tick, even when nothing changed. Calling Track again for an
// already-tracked checkID replaces the prior loop.
func (t *TTL) Track(checkID CheckID, ttl time.Duration, initial HealthState) chan<- HealthState {
	t.lock.Lock()
	defer t.lock.Unlock()

	if existing, ok := t.active[checkID]; ok {
		existing.cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	states := make(chan HealthState, 1)
	t.active[checkID] = &ttlCheck{cancel: cancel, states: states}

	refresh := ttl / 2
	if refresh <= 0 {
		refresh = ttl
	}

	go t.updateTTLTask(ctx, checkID, refresh, states, initial)
	return states
}

// Untrack stops the background refresh loop for checkID, if any.
func (t *TTL) Untrack(checkID CheckID) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if existing, ok := t.active[checkID]; ok {
		existing.cancel()
		delete(t.active, checkID)
	}
}

// updateTTLTask reports the most recently received HealthState to consul on
// every tick, and immediately whenever a new state arrives on states.
func (t *TTL) updateTTLTask(ctx context.Context, checkID CheckID, interval time.Duration, states <-chan HealthState, initial HealthState) {
	tickCh, stop := t.ticker(interval)
	defer stop()

	current := initial
	t.report(checkID, current)

	for {
		select {
		case <-ctx.Done():
			return

		case s := <-states:
			current = s
			t.report(checkID, current)

		case <-tickCh:
			t.report(checkID, current)
		}
	}
}

func (t *TTL) report(checkID CheckID, state HealthState) {
	_ = t.updater.UpdateTTLOpts(string(checkID), state.Notes, state.Status.StatusText(), nil)
}

// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package arbor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DriverFactory builds a fresh Driver for a new controller lifecycle.
// Called once per Open call.
type DriverFactory func() Driver

// Registry is the external API described in §4.1: open/close/register/
// deregister/subscribe/unsubscribe. It owns the subscription sets, the
// registration map, and the state machine; it delegates the actual
// network-facing work to a RegistryController constructed fresh on every
// Open.
type Registry struct {
	name              string
	driverFactory     DriverFactory
	backup            BackupStore
	logger            *zap.Logger
	taskRetryInterval time.Duration
	maxConnectRetries int

	sm *stateMachine

	mu            sync.Mutex
	registrations map[string]*Registion
	clusters      map[string]*ClusterBooking
	configs       map[string]*ConfigBooking

	// dirty is shared with every booking this registry creates and with
	// each controller it spins up, so a merge on any booking (regardless
	// of which controller generation is current) is visible to the next
	// backup turn.
	dirty atomic.Bool

	controller *RegistryController
}

// NewRegistry creates a Registry in the CLOSED state. cfg supplies the
// registry's name and retry policy; see Config.
func NewRegistry(cfg Config, driverFactory DriverFactory, backup BackupStore, logger *zap.Logger, opts ...RegistryOption) *Registry {
	cfg = cfg.withDefaults()
	for _, o := range opts {
		o(&cfg)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Registry{
		name:              cfg.Name,
		driverFactory:     driverFactory,
		backup:            backup,
		logger:            logger,
		taskRetryInterval: cfg.TaskRetryInterval,
		maxConnectRetries: cfg.MaxConnectRetryTimes,
		sm:                newStateMachine(),
		registrations:     make(map[string]*Registion),
		clusters:          make(map[string]*ClusterBooking),
		configs:           make(map[string]*ConfigBooking),
	}
}

// Open transitions CLOSED -> OPENING -> OPEN and starts a fresh controller,
// handing it every registration and cluster/config booking the registry
// already holds so that recover() re-issues them on the first connect.
// Calling Open while the registry is opening, open or closing starts no
// second controller: it returns an already-failed future carrying
// ErrAlreadyOpen, not the future of the earlier Open.
func (r *Registry) Open() *Future[struct{}] {
	if !r.sm.transition(stateClosed, stateOpening) {
		return Failed[struct{}](ErrAlreadyOpen)
	}

	r.mu.Lock()
	r.controller = NewRegistryController(
		r.name,
		r.driverFactory(),
		r.backup,
		r.logger,
		r.taskRetryInterval,
		r.maxConnectRetries,
		r.sm,
		&r.dirty,
	)
	controller := r.controller
	for _, reg := range r.registrations {
		controller.trackRegistion(reg)
	}
	for k, b := range r.clusters {
		controller.clusters[k] = b
	}
	for k, b := range r.configs {
		controller.configs[k] = b
	}
	r.mu.Unlock()

	return controller.Open()
}

// Close transitions OPEN -> CLOSING -> CLOSED. The controller's own
// graceful shutdown runs first, so unregister() can still see each
// Registion's pre-close open-future and registerTime when deciding what to
// deregister; every tracked Registion is only bumped (StateFuture replaced,
// registerTime reset) once that shutdown has resolved.
func (r *Registry) Close() *Future[struct{}] {
	r.mu.Lock()
	controller := r.controller
	regs := make([]*Registion, 0, len(r.registrations))
	for _, reg := range r.registrations {
		regs = append(regs, reg)
	}
	r.mu.Unlock()

	if controller == nil {
		return Failed[struct{}](ErrNotOpen)
	}

	closeFuture := NewFuture[struct{}]()
	go func() {
		_, err := controller.Close(true).Wait(context.Background())
		for _, reg := range regs {
			reg.Close()
		}

		if err != nil {
			closeFuture.Fail(err)
		} else {
			closeFuture.Complete(struct{}{})
		}
	}()

	return closeFuture
}

// Register computes url's canonical register key, creates a Registion on
// first use, always increments its ref-count, and (when OPEN) enqueues a
// register task. It returns the Registion's current open-future.
func (r *Registry) Register(url URL) *Future[URL] {
	key := newURLKey(url, registerKeyOf(url))

	r.mu.Lock()
	reg, ok := r.registrations[key.Key()]
	if !ok {
		reg = newRegistion(key)
		r.registrations[key.Key()] = reg
	}
	reg.IncRef()
	controller := r.controller
	r.mu.Unlock()

	r.sm.whenOpen(func() {
		controller.trackRegistion(reg)
		controller.Register(reg)
	})

	return reg.Future().Open
}

// Deregister decrements url's ref-count; once it reaches zero the
// Registion is removed and, when OPEN, a deregister task is enqueued with
// the given retry budget.
func (r *Registry) Deregister(url URL, maxRetryTimes int) *Future[URL] {
	key := registerKeyOf(url)

	r.mu.Lock()
	reg, ok := r.registrations[key]
	if !ok {
		r.mu.Unlock()
		return Completed(url)
	}

	remaining := reg.DecRef()
	if remaining > 0 {
		r.mu.Unlock()
		return Completed(url)
	}

	delete(r.registrations, key)
	controller := r.controller
	r.mu.Unlock()

	r.sm.whenOpen(func() {
		controller.forgetRegistion(reg.Key())
		controller.Deregister(reg, maxRetryTimes)
	})

	reg.Close()
	return Completed(url)
}

// SubscribeCluster adds handler to url's cluster subscription. It returns
// false if an equal handler was already subscribed.
func (r *Registry) SubscribeCluster(url URL, handler ClusterHandler) bool {
	key := newURLKey(url, clusterKeyOf(url))

	r.mu.Lock()
	booking, ok := r.clusters[key.Key()]
	if !ok {
		booking = NewClusterBooking(key, &r.dirty, r.logger)
		r.clusters[key.Key()] = booking
	}
	controller := r.controller
	r.mu.Unlock()

	added := booking.AddHandler(handler)
	if added && booking.HandlerCount() == 1 {
		r.sm.whenOpen(func() {
			controller.SubscribeCluster(key, booking)
		})
	}

	return added
}

// UnsubscribeCluster removes handler from url's cluster subscription,
// tearing the booking down and enqueueing an unsubscribe task once the
// last handler is gone.
func (r *Registry) UnsubscribeCluster(url URL, handler ClusterHandler) bool {
	key := clusterKeyOf(url)

	r.mu.Lock()
	booking, ok := r.clusters[key]
	controller := r.controller
	r.mu.Unlock()

	if !ok {
		return false
	}

	removed, remaining := booking.RemoveHandler(handler)
	if removed && remaining == 0 {
		r.mu.Lock()
		delete(r.clusters, key)
		r.mu.Unlock()

		r.sm.whenOpen(func() {
			controller.UnsubscribeCluster(booking.Key())
		})
	}

	return removed
}

// SubscribeConfig is the config counterpart of SubscribeCluster.
func (r *Registry) SubscribeConfig(url URL, handler ConfigHandler) bool {
	key := newURLKey(url, configKeyOf(url))

	r.mu.Lock()
	booking, ok := r.configs[key.Key()]
	if !ok {
		booking = NewConfigBooking(key, &r.dirty)
		r.configs[key.Key()] = booking
	}
	controller := r.controller
	r.mu.Unlock()

	added := booking.AddHandler(handler)
	if added && booking.HandlerCount() == 1 {
		r.sm.whenOpen(func() {
			controller.SubscribeConfig(key, booking)
		})
	}

	return added
}

// UnsubscribeConfig is the config counterpart of UnsubscribeCluster.
func (r *Registry) UnsubscribeConfig(url URL, handler ConfigHandler) bool {
	key := configKeyOf(url)

	r.mu.Lock()
	booking, ok := r.configs[key]
	controller := r.controller
	r.mu.Unlock()

	if !ok {
		return false
	}

	removed, remaining := booking.RemoveHandler(handler)
	if removed && remaining == 0 {
		r.mu.Lock()
		delete(r.configs, key)
		r.mu.Unlock()

		r.sm.whenOpen(func() {
			controller.UnsubscribeConfig(booking.Key())
		})
	}

	return removed
}

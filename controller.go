// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package arbor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// dispatcherIdleWait is the wait issued when the task queue is empty, per
// §4.2.2's pseudo-contract (`t == nil ? 10 s : ...`).
const dispatcherIdleWait = 10 * time.Second

// disconnectedWait is the wait issued on each turn the controller spends
// disconnected and not yet due for a reconnect attempt.
const disconnectedWait = 1 * time.Second

// RegistryController binds components A-G together: the task dispatcher,
// the reconnect loop, and the registration/cluster/config booking maps, per
// §4.2. One controller backs exactly one open/close cycle of an
// AbstractRegistry; the facade constructs a fresh one each time open() is
// called.
type RegistryController struct {
	name                 string
	driver               Driver
	backup               BackupStore
	logger               *zap.Logger
	taskRetryInterval    time.Duration
	maxConnectRetryTimes int

	sm *stateMachine

	mu            sync.Mutex
	registrations map[string]*Registion
	clusters      map[string]*ClusterBooking
	configs       map[string]*ConfigBooking

	tasks     *taskQueue
	waiter    *waiter
	connected atomic.Bool
	dirty     *atomic.Bool

	reconnectMu      sync.Mutex
	pendingReconnect *reconnectTask

	restored BackupDatum

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRegistryController creates a controller bound to driver and backup.
// backup may be nil, disabling persistence entirely. sm is the facade's
// state machine, shared so facade and controller always agree on the
// registry's phase; the controller's Open and Close drive it through
// OPENING -> OPEN and OPEN -> CLOSING -> CLOSED.
func NewRegistryController(name string, driver Driver, backup BackupStore, logger *zap.Logger, taskRetryInterval time.Duration, maxConnectRetryTimes int, sm *stateMachine, dirty *atomic.Bool) *RegistryController {
	if logger == nil {
		logger = zap.NewNop()
	}

	if taskRetryInterval <= 0 {
		taskRetryInterval = 500 * time.Millisecond
	}

	if dirty == nil {
		dirty = new(atomic.Bool)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &RegistryController{
		name:                 name,
		driver:               driver,
		backup:               backup,
		logger:               logger,
		taskRetryInterval:    taskRetryInterval,
		maxConnectRetryTimes: maxConnectRetryTimes,
		sm:                   sm,
		dirty:                dirty,
		registrations:        make(map[string]*Registion),
		clusters:             make(map[string]*ClusterBooking),
		configs:              make(map[string]*ConfigBooking),
		tasks:                newTaskQueue(),
		waiter:               newWaiter(),
		ctx:                  ctx,
		cancel:               cancel,
		done:                 make(chan struct{}),
	}
}

// Open starts the dispatcher worker and the initial reconnect attempt. The
// returned future resolves when the first connect succeeds, or when the
// configured retry budget is exhausted.
func (c *RegistryController) Open() *Future[struct{}] {
	c.sm.transition(stateClosed, stateOpening)

	if c.backup != nil {
		if restored, err := c.backup.Restore(c.name); err != nil {
			c.logger.Warn("backup restore failed", zap.String("name", c.name), zap.Error(err))
		} else {
			c.restored = restored
		}
	}

	c.sm.transition(stateOpening, stateOpen)

	go c.dispatch()

	openFuture := NewFuture[struct{}]()
	go c.reconnect(openFuture, 0, c.maxConnectRetryTimes)

	return openFuture
}

// Close transitions OPEN -> CLOSING -> CLOSED, draining in-flight work via
// unregister() and disconnecting the driver, then stops the dispatcher.
func (c *RegistryController) Close(graceful bool) *Future[struct{}] {
	closeFuture := NewFuture[struct{}]()

	if !c.sm.transition(stateOpen, stateClosing) && !c.sm.is(stateClosing) {
		closeFuture.Complete(struct{}{})
		return closeFuture
	}

	go func() {
		var err error
		if graceful {
			err = c.unregister()
		}

		c.driver.Disconnect()
		c.sm.transition(stateClosing, stateClosed)

		c.cancel()
		<-c.done

		for _, t := range c.tasks.drain() {
			t.future.Fail(ErrAlreadyClosed)
		}

		if err != nil {
			closeFuture.Fail(err)
		} else {
			closeFuture.Complete(struct{}{})
		}
	}()

	return closeFuture
}

// Register enqueues an immediate register task for reg.
func (c *RegistryController) Register(reg *Registion) {
	t := newTask(reg.Key().URL(), reg.Future().Open, func() (bool, error) {
		return c.doRegisterOnce(reg)
	})

	c.tasks.addNew(t)
	c.waiter.wakeup()
}

// Deregister enqueues an immediate deregister task for reg with the given
// retry budget. maxRetry <= 0 means the task is attempted once.
func (c *RegistryController) Deregister(reg *Registion, maxRetry int) {
	attempts := 0
	var call taskFunc
	call = func() (bool, error) {
		ok, err := c.doDeregisterOnce(reg)
		if !ok {
			attempts++
			if maxRetry <= 0 || attempts >= maxRetry {
				return true, err
			}
		}

		return ok, err
	}

	t := newTask(reg.Key().URL(), NewFuture[URL](), call)
	c.tasks.addNew(t)
	c.waiter.wakeup()
}

// SubscribeCluster registers booking under key and enqueues a subscribe
// task. Called by the facade on add-first-handler.
func (c *RegistryController) SubscribeCluster(key URLKey, booking *ClusterBooking) {
	c.mu.Lock()
	c.clusters[key.Key()] = booking
	c.mu.Unlock()

	t := newTask(key.URL(), booking.Future().Open, func() (bool, error) {
		return c.doSubscribeClusterOnce(key, booking)
	})

	c.tasks.addNew(t)
	c.waiter.wakeup()
}

// UnsubscribeCluster is symmetric to SubscribeCluster, called on
// remove-last-handler.
func (c *RegistryController) UnsubscribeCluster(key URLKey) {
	c.mu.Lock()
	booking, ok := c.clusters[key.Key()]
	delete(c.clusters, key.Key())
	c.mu.Unlock()

	if !ok {
		return
	}

	booking.Close()

	t := newTask(key.URL(), NewFuture[URL](), func() (bool, error) {
		_, err := c.driver.DoUnsubscribeCluster(c.ctx, key).Wait(c.ctx)
		return true, err
	})

	c.tasks.addNew(t)
	c.waiter.wakeup()
}

// SubscribeConfig is the config counterpart of SubscribeCluster.
func (c *RegistryController) SubscribeConfig(key URLKey, booking *ConfigBooking) {
	c.mu.Lock()
	c.configs[key.Key()] = booking
	c.mu.Unlock()

	t := newTask(key.URL(), booking.Future().Open, func() (bool, error) {
		return c.doSubscribeConfigOnce(key, booking)
	})

	c.tasks.addNew(t)
	c.waiter.wakeup()
}

// UnsubscribeConfig is the config counterpart of UnsubscribeCluster.
func (c *RegistryController) UnsubscribeConfig(key URLKey) {
	c.mu.Lock()
	booking, ok := c.configs[key.Key()]
	delete(c.configs, key.Key())
	c.mu.Unlock()

	if !ok {
		return
	}

	booking.Close()

	t := newTask(key.URL(), NewFuture[URL](), func() (bool, error) {
		_, err := c.driver.DoUnsubscribeConfig(c.ctx, key).Wait(c.ctx)
		return true, err
	})

	c.tasks.addNew(t)
	c.waiter.wakeup()
}

// recover re-issues, in order, a register task for every Registion and a
// subscribe task for every cluster/config Booking, per §4.2.3. It runs
// after every successful (re)connect.
func (c *RegistryController) recover() {
	c.mu.Lock()
	regs := make([]*Registion, 0, len(c.registrations))
	for _, r := range c.registrations {
		regs = append(regs, r)
	}

	clusterKeys := make([]URLKey, 0, len(c.clusters))
	clusterBookings := make([]*ClusterBooking, 0, len(c.clusters))
	for _, b := range c.clusters {
		clusterKeys = append(clusterKeys, b.Key())
		clusterBookings = append(clusterBookings, b)
	}

	configKeys := make([]URLKey, 0, len(c.configs))
	configBookings := make([]*ConfigBooking, 0, len(c.configs))
	for _, b := range c.configs {
		configKeys = append(configKeys, b.Key())
		configBookings = append(configBookings, b)
	}
	c.mu.Unlock()

	for _, r := range regs {
		c.Register(r)
	}

	for i := range clusterBookings {
		key, booking := clusterKeys[i], clusterBookings[i]
		t := newTask(key.URL(), booking.Future().Open, func() (bool, error) {
			return c.doSubscribeClusterOnce(key, booking)
		})
		c.tasks.addNew(t)
	}

	for i := range configBookings {
		key, booking := configKeys[i], configBookings[i]
		t := newTask(key.URL(), booking.Future().Open, func() (bool, error) {
			return c.doSubscribeConfigOnce(key, booking)
		})
		c.tasks.addNew(t)
	}

	c.waiter.wakeup()
}

// unregister deregisters every Registion whose open-future succeeded and
// unsubscribes every cluster/config Booking whose open-future succeeded,
// per §4.2.3. It blocks until all of them finish and returns their
// aggregated error.
func (c *RegistryController) unregister() error {
	ctx := context.Background()

	c.mu.Lock()
	regs := make([]*Registion, 0, len(c.registrations))
	for _, r := range c.registrations {
		regs = append(regs, r)
	}

	clusterKeys := make([]URLKey, 0, len(c.clusters))
	for k := range c.clusters {
		if _, err, ok := c.clusters[k].Future().Open.Peek(); ok && err == nil {
			clusterKeys = append(clusterKeys, c.clusters[k].Key())
		}
	}

	configKeys := make([]URLKey, 0, len(c.configs))
	for k := range c.configs {
		if _, err, ok := c.configs[k].Future().Open.Peek(); ok && err == nil {
			configKeys = append(configKeys, c.configs[k].Key())
		}
	}
	c.mu.Unlock()

	var errs error

	for _, r := range regs {
		if _, err, ok := r.Future().Open.Peek(); ok && err == nil {
			if _, err := c.driver.DoDeregister(ctx, r.Key()).Wait(ctx); err != nil {
				errs = multierr.Append(errs, err)
			}
		}
	}

	for _, key := range clusterKeys {
		if _, err := c.driver.DoUnsubscribeCluster(ctx, key).Wait(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	for _, key := range configKeys {
		if _, err := c.driver.DoUnsubscribeConfig(ctx, key).Wait(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}

// trackRegistion records reg so recover()/unregister() can find it. Called
// by the facade.
func (c *RegistryController) trackRegistion(reg *Registion) {
	c.mu.Lock()
	c.registrations[reg.Key().Key()] = reg
	c.mu.Unlock()
}

// forgetRegistion removes reg's bookkeeping entry. Called by the facade
// once ref-count reaches zero.
func (c *RegistryController) forgetRegistion(key URLKey) {
	c.mu.Lock()
	delete(c.registrations, key.Key())
	c.mu.Unlock()
}

// dispatch is the single dispatcher worker loop described in §4.2.2.
func (c *RegistryController) dispatch() {
	defer close(c.done)

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		if !c.connected.Load() && !c.sm.is(stateClosed) {
			c.reconnectMu.Lock()
			due := c.pendingReconnect != nil && c.pendingReconnect.isExpired()
			var run func()
			if due {
				run = c.pendingReconnect.run
				c.pendingReconnect = nil
			}
			c.reconnectMu.Unlock()

			if due {
				run()
				continue
			}

			c.waiter.wait(disconnectedWait)
			continue
		}

		t := c.tasks.peekFirst()
		var waitTime time.Duration
		if t == nil {
			waitTime = dispatcherIdleWait
		} else {
			waitTime = time.Duration(t.retryTime-nowMillis()) * time.Millisecond
		}

		if waitTime <= 0 {
			t := c.tasks.pollFirst()
			if t != nil {
				c.execute(t)
			}

			continue
		}

		if c.backup != nil && c.dirty.CompareAndSwap(true, false) {
			c.runBackup()
		}

		c.waiter.wait(waitTime)
	}
}

// execute runs one task's callable and applies §4.2.2's execution rules.
func (c *RegistryController) execute(t *task) {
	ok, err := c.safeRun(t)

	switch {
	case ok:
		t.future.Complete(t.url)

	case c.sm.is(stateClosed):
		t.future.Fail(ErrAlreadyClosed)

	default:
		if err != nil {
			c.logger.Debug("task retrying", zap.String("url", t.url.String()), zap.Error(err))
		}

		t.retryTime = nowMillis() + c.taskRetryInterval.Milliseconds()
		c.tasks.addRetry(t)
	}
}

// safeRun isolates a panicking task body, treating it as a retry signal per
// §7's propagation policy.
func (c *RegistryController) safeRun(t *task) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			c.logger.Error("task panicked", zap.Any("recover", r))
		}
	}()

	return t.run()
}

func (c *RegistryController) runBackup() {
	datum := c.snapshotForBackup()

	if err := c.backup.Backup(c.name, datum); err != nil {
		c.logger.Warn("backup write failed", zap.String("name", c.name), zap.Error(err))
	}
}

func (c *RegistryController) snapshotForBackup() BackupDatum {
	c.mu.Lock()
	defer c.mu.Unlock()

	datum := BackupDatum{
		Clusters: make(map[string][]ShardRecord),
		Configs:  make(map[string]map[string]string),
	}

	for key, b := range c.clusters {
		if !b.Persistable() {
			continue
		}

		shards := b.Datum()
		records := make([]ShardRecord, 0, len(shards))
		for _, s := range shards {
			records = append(records, ShardRecord{
				Name:       s.Name,
				URL:        s.URL.String(),
				Weight:     s.Weight,
				Region:     s.Region,
				Datacenter: s.Datacenter,
				Meta:       s.Meta,
			})
		}

		datum.Clusters[key] = records
	}

	for key, b := range c.configs {
		if !b.Persistable() {
			continue
		}

		datum.Configs[key] = b.Datum()
	}

	return datum
}

// doRegisterOnce attempts one register call. A failure here is always
// retryable from the dispatcher's point of view: the open-future is left
// unresolved so a later successful attempt can still complete it, and
// execute() takes care of failing it with ErrAlreadyClosed if the registry
// closes while this is still retrying.
func (c *RegistryController) doRegisterOnce(reg *Registion) (bool, error) {
	ctx := c.ctx
	_, err := c.driver.DoRegister(ctx, reg.Key()).Wait(ctx)
	if err != nil {
		return false, err
	}

	reg.markRegistered(time.Now())
	return true, nil
}

func (c *RegistryController) doDeregisterOnce(reg *Registion) (bool, error) {
	ctx := c.ctx
	_, err := c.driver.DoDeregister(ctx, reg.Key()).Wait(ctx)
	return err == nil, err
}

// doSubscribeClusterOnce implements §4.2.4's subscribe-task body for
// clusters.
func (c *RegistryController) doSubscribeClusterOnce(key URLKey, booking *ClusterBooking) (bool, error) {
	ctx := c.ctx
	_, err := c.driver.DoSubscribeCluster(ctx, key, booking).Wait(ctx)

	if err != nil {
		c.mu.Lock()
		_, stillPresent := c.clusters[key.Key()]
		c.mu.Unlock()

		if c.sm.is(stateOpen) && stillPresent && c.driver.Retry(err) {
			return false, err
		}

		booking.Future().Open.Fail(err)
		return true, err
	}

	booking.Future().Open.Complete(key.URL())
	return true, nil
}

// doSubscribeConfigOnce is the config counterpart of
// doSubscribeClusterOnce.
func (c *RegistryController) doSubscribeConfigOnce(key URLKey, booking *ConfigBooking) (bool, error) {
	ctx := c.ctx
	_, err := c.driver.DoSubscribeConfig(ctx, key, booking).Wait(ctx)

	if err != nil {
		c.mu.Lock()
		_, stillPresent := c.configs[key.Key()]
		c.mu.Unlock()

		if c.sm.is(stateOpen) && stillPresent && c.driver.Retry(err) {
			return false, err
		}

		booking.Future().Open.Fail(err)
		return true, err
	}

	booking.Future().Open.Complete(key.URL())
	return true, nil
}

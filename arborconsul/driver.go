// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package arborconsul adapts arbor's registry controller to HashiCorp
// Consul: service registration against the agent, cluster subscriptions via
// blocking health-endpoint queries, and config subscriptions via the KV
// store's blocking queries.
package arborconsul

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/consul/api"
	"go.uber.org/zap"

	"github.com/arborrpc/arbor"
)

var _ arbor.Driver = (*ConsulDriver)(nil)

// ConsulDriver implements arbor.Driver against a single *api.Client.
type ConsulDriver struct {
	client *api.Client
	logger *zap.Logger

	registerCfg RegistrationConfig
	watchCfg    WatchConfig

	health      *Health
	ttl         *TTL
	datacenters Datacenters

	mu        sync.Mutex
	clusters  map[string]context.CancelFunc
	configs   map[string]context.CancelFunc
	sregByKey map[string]ServiceRegistration
}

// NewConsulDriver builds a Driver backed by client.
func NewConsulDriver(client *api.Client, logger *zap.Logger, registerCfg RegistrationConfig, watchCfg WatchConfig) *ConsulDriver {
	if logger == nil {
		logger = zap.NewNop()
	}

	health := NewHealth()
	return &ConsulDriver{
		client:      client,
		logger:      logger,
		registerCfg: registerCfg,
		watchCfg:    watchCfg.withDefaults(),
		health:      health,
		ttl:         NewTTL(client.Agent()),
		datacenters: NewDatacenters(client),
		clusters:    make(map[string]context.CancelFunc),
		configs:     make(map[string]context.CancelFunc),
		sregByKey:   make(map[string]ServiceRegistration),
	}
}

// DoConnect verifies connectivity against the agent. Consul's HTTP client
// has no persistent session to open, so this simply confirms the agent is
// reachable and carrying a usable ACL token. It also fetches the known
// datacenters for diagnostic logging; a failure there does not fail the
// connect, since an agent can be reachable even when the catalog query
// itself needs broader ACL permissions.
func (d *ConsulDriver) DoConnect(ctx context.Context) *arbor.Future[struct{}] {
	f := arbor.NewFuture[struct{}]()

	go func() {
		_, err := d.client.Agent().Self()
		if err != nil {
			f.Fail(err)
			return
		}

		if dcs, dcErr := d.datacenters.Get(); dcErr == nil {
			d.logger.Debug("connected to consul agent", zap.Strings("datacenters", dcs))
		} else {
			d.logger.Debug("connected to consul agent", zap.Error(dcErr))
		}

		f.Complete(struct{}{})
	}()

	return f
}

// Disconnect cancels every in-flight watch. The agent connection itself
// needs no teardown.
func (d *ConsulDriver) Disconnect() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key, cancel := range d.clusters {
		cancel()
		delete(d.clusters, key)
	}

	for key, cancel := range d.configs {
		cancel()
		delete(d.configs, key)
	}
}

// DoRegister registers key's service identity with the agent, retrying
// according to the configured policy, and starts a TTL refresh loop when the
// registration carries a TTL check.
func (d *ConsulDriver) DoRegister(ctx context.Context, key arbor.URLKey) *arbor.Future[struct{}] {
	f := arbor.NewFuture[struct{}]()

	go func() {
		sr, err := registrationFromKey(key)
		if err != nil {
			f.Fail(err)
			return
		}

		if err := registerWithRetry(ctx, d.client.Agent(), d.registerCfg.Retry, sr); err != nil {
			f.Fail(err)
			return
		}

		d.mu.Lock()
		d.sregByKey[key.Key()] = sr
		d.mu.Unlock()

		d.health.Track(ServiceID(sr.ID), sr)

		asr := sr.asAgentServiceRegistration()
		d.logger.Debug("service registered", zap.String("serviceID", sr.ID), zap.Int("checks", ChecksLen(*asr)))

		for _, check := range Checks(*asr) {
			if len(check.TTL) > 0 {
				ttl, parseErr := time.ParseDuration(check.TTL)
				if parseErr == nil {
					d.ttl.Track(CheckID(check.CheckID), ttl, HealthState{Status: HealthPassing})
				}
			}
		}

		f.Complete(struct{}{})
	}()

	return f
}

// DoDeregister removes key's service identity from the agent and stops any
// TTL refresh loop associated with it.
func (d *ConsulDriver) DoDeregister(ctx context.Context, key arbor.URLKey) *arbor.Future[struct{}] {
	f := arbor.NewFuture[struct{}]()

	go func() {
		d.mu.Lock()
		sr, ok := d.sregByKey[key.Key()]
		delete(d.sregByKey, key.Key())
		d.mu.Unlock()

		if !ok {
			f.Complete(struct{}{})
			return
		}

		for _, check := range sr.Checks {
			d.ttl.Untrack(CheckID(check.CheckID))
		}

		d.health.Untrack(ServiceID(sr.ID))

		if err := deregisterOnce(d.client.Agent(), sr); err != nil {
			f.Fail(err)
			return
		}

		f.Complete(struct{}{})
	}()

	return f
}

// Retry reports whether err is worth a reconnect/retry attempt.
func (d *ConsulDriver) Retry(err error) bool {
	return Retry(err)
}

// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package arbor

import (
	"context"
	"errors"
	"sync"
)

var errBoom = errors.New("boom")

// fakeDriver is an in-memory Driver used to exercise Registry/
// RegistryController without any real transport. Every call is recorded so
// tests can assert on ordering and arguments.
type fakeDriver struct {
	mu sync.Mutex

	connectErr error
	registerErr map[string]error

	connects      int
	disconnects   int
	registers     []string
	deregisters   []string
	subClusters   []string
	unsubClusters []string
	subConfigs    []string
	unsubConfigs  []string

	retry func(error) bool
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{registerErr: make(map[string]error)}
}

func (d *fakeDriver) DoConnect(ctx context.Context) *Future[struct{}] {
	d.mu.Lock()
	d.connects++
	err := d.connectErr
	d.mu.Unlock()

	if err != nil {
		return Failed[struct{}](err)
	}
	return Completed(struct{}{})
}

func (d *fakeDriver) Disconnect() {
	d.mu.Lock()
	d.disconnects++
	d.mu.Unlock()
}

func (d *fakeDriver) DoRegister(ctx context.Context, key URLKey) *Future[struct{}] {
	d.mu.Lock()
	d.registers = append(d.registers, key.Key())
	err := d.registerErr[key.Key()]
	d.mu.Unlock()

	if err != nil {
		return Failed[struct{}](err)
	}
	return Completed(struct{}{})
}

func (d *fakeDriver) DoDeregister(ctx context.Context, key URLKey) *Future[struct{}] {
	d.mu.Lock()
	d.deregisters = append(d.deregisters, key.Key())
	d.mu.Unlock()
	return Completed(struct{}{})
}

func (d *fakeDriver) DoSubscribeCluster(ctx context.Context, key URLKey, booking *ClusterBooking) *Future[struct{}] {
	d.mu.Lock()
	d.subClusters = append(d.subClusters, key.Key())
	d.mu.Unlock()
	return Completed(struct{}{})
}

func (d *fakeDriver) DoUnsubscribeCluster(ctx context.Context, key URLKey) *Future[struct{}] {
	d.mu.Lock()
	d.unsubClusters = append(d.unsubClusters, key.Key())
	d.mu.Unlock()
	return Completed(struct{}{})
}

func (d *fakeDriver) DoSubscribeConfig(ctx context.Context, key URLKey, booking *ConfigBooking) *Future[struct{}] {
	d.mu.Lock()
	d.subConfigs = append(d.subConfigs, key.Key())
	d.mu.Unlock()
	return Completed(struct{}{})
}

func (d *fakeDriver) DoUnsubscribeConfig(ctx context.Context, key URLKey) *Future[struct{}] {
	d.mu.Lock()
	d.unsubConfigs = append(d.unsubConfigs, key.Key())
	d.mu.Unlock()
	return Completed(struct{}{})
}

func (d *fakeDriver) Retry(err error) bool {
	if d.retry != nil {
		return d.retry(err)
	}
	return false
}

func (d *fakeDriver) setRegisterErr(key string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.registerErr[key] = err
}

func (d *fakeDriver) registerCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.registers)
}

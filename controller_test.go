// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package arbor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type memBackupStore struct {
	datum BackupDatum
	calls int32
}

func newMemBackupStore() *memBackupStore {
	return &memBackupStore{}
}

func (m *memBackupStore) Backup(name string, datum BackupDatum) error {
	atomic.AddInt32(&m.calls, 1)
	m.datum = datum
	return nil
}

func (m *memBackupStore) Restore(name string) (BackupDatum, error) {
	return m.datum, nil
}

type RegistryControllerTestSuite struct {
	suite.Suite
}

func (s *RegistryControllerTestSuite) waitCtx() context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	s.T().Cleanup(cancel)
	return ctx
}

func (s *RegistryControllerTestSuite) newController(driver *fakeDriver, backup BackupStore) *RegistryController {
	sm := newStateMachine()
	sm.transition(stateClosed, stateOpening)
	sm.transition(stateOpening, stateOpen)
	c := NewRegistryController("test", driver, backup, nil, 10*time.Millisecond, -1, sm, nil)
	// these tests drive the dispatcher directly, bypassing reconnect(),
	// so the connected flag has to be set by hand.
	c.connected.Store(true)
	return c
}

func (s *RegistryControllerTestSuite) TestRegisterRetriesUntilDriverSucceeds() {
	driver := newFakeDriver()
	c := s.newController(driver, nil)
	defer c.Close(false)
	go c.dispatch()

	key := newURLKey(URL{Scheme: "consul", Path: "/svc"}, "svc")
	driver.setRegisterErr(key.Key(), errBoom)

	reg := newRegistion(key)
	c.Register(reg)

	// first attempt fails; once it clears, the retry should succeed.
	s.Eventually(func() bool {
		return driver.registerCount() >= 1
	}, time.Second, 5*time.Millisecond)

	driver.setRegisterErr(key.Key(), nil)

	_, err := reg.Future().Open.Wait(s.waitCtx())
	s.NoError(err)
	s.GreaterOrEqual(driver.registerCount(), 2)
}

func (s *RegistryControllerTestSuite) TestDeregisterHonorsRetryBudget() {
	driver := newFakeDriver()
	c := s.newController(driver, nil)
	defer c.Close(false)
	go c.dispatch()

	key := newURLKey(URL{Scheme: "consul", Path: "/svc"}, "svc")
	reg := newRegistion(key)

	c.Deregister(reg, 1)

	s.Eventually(func() bool {
		return len(driver.deregisters) == 1
	}, time.Second, 5*time.Millisecond)
}

func (s *RegistryControllerTestSuite) TestRunBackupPersistsPersistableBookings() {
	driver := newFakeDriver()
	backup := newMemBackupStore()
	c := s.newController(driver, backup)
	defer c.Close(false)

	booking := NewClusterBooking(clusterKeyOf(URL{Scheme: "consul", Path: "/svc"}), c.dirty, nil)
	booking.Handle(ClusterEvent{Type: EventFull, Version: 1, Datum: map[string]Shard{"a": {Name: "a"}}})

	c.mu.Lock()
	c.clusters[booking.Key().Key()] = booking
	c.mu.Unlock()

	go c.dispatch()

	s.Eventually(func() bool {
		return atomic.LoadInt32(&backup.calls) > 0
	}, time.Second, 5*time.Millisecond)

	s.Contains(backup.datum.Clusters, booking.Key().Key())
}

func TestRegistryController(t *testing.T) {
	suite.Run(t, new(RegistryControllerTestSuite))
}

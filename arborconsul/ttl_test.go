// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package arborconsul

import (
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/consul/api"
	"github.com/stretchr/testify/suite"
)

type recordedUpdate struct {
	checkID string
	output  string
	status  string
}

type fakeTTLUpdater struct {
	mu      sync.Mutex
	updates []recordedUpdate
}

func (f *fakeTTLUpdater) UpdateTTLOpts(checkID, output, status string, opts *api.QueryOptions) error {
	f.mu.Lock()
	f.updates = append(f.updates, recordedUpdate{checkID, output, status})
	f.mu.Unlock()
	return nil
}

func (f *fakeTTLUpdater) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

func (f *fakeTTLUpdater) last() recordedUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updates[len(f.updates)-1]
}

type TTLTestSuite struct {
	suite.Suite
}

func (s *TTLTestSuite) TestTrackReportsInitialStateImmediately() {
	updater := &fakeTTLUpdater{}
	ttl := NewTTL(updater)
	defer ttl.Untrack("chk-1")

	ttl.Track("chk-1", 50*time.Millisecond, HealthState{Status: HealthPassing})

	s.Eventually(func() bool {
		return updater.count() >= 1
	}, time.Second, 5*time.Millisecond)
	s.Equal("chk-1", updater.last().checkID)
}

func (s *TTLTestSuite) TestTrackRepeatsOnEachTick() {
	updater := &fakeTTLUpdater{}
	ttl := NewTTL(updater)
	defer ttl.Untrack("chk-1")

	ttl.Track("chk-1", 20*time.Millisecond, HealthState{Status: HealthPassing})

	s.Eventually(func() bool {
		return updater.count() >= 3
	}, time.Second, 5*time.Millisecond)
}

func (s *TTLTestSuite) TestPushedStateIsReportedImmediately() {
	updater := &fakeTTLUpdater{}
	ttl := NewTTL(updater)
	defer ttl.Untrack("chk-1")

	states := ttl.Track("chk-1", time.Hour, HealthState{Status: HealthPassing})
	states <- HealthState{Status: HealthCritical, Notes: "dead"}

	s.Eventually(func() bool {
		last := updater.last()
		return last.status == HealthCritical.StatusText()
	}, time.Second, 5*time.Millisecond)
}

func (s *TTLTestSuite) TestUntrackStopsFurtherReports() {
	updater := &fakeTTLUpdater{}
	ttl := NewTTL(updater)

	ttl.Track("chk-1", 10*time.Millisecond, HealthState{Status: HealthPassing})
	s.Eventually(func() bool { return updater.count() >= 1 }, time.Second, 5*time.Millisecond)

	ttl.Untrack("chk-1")
	seen := updater.count()
	time.Sleep(50 * time.Millisecond)
	s.Equal(seen, updater.count())
}

func (s *TTLTestSuite) TestTrackAgainReplacesPriorLoop() {
	updater := &fakeTTLUpdater{}
	ttl := NewTTL(updater)
	defer ttl.Untrack("chk-1")

	ttl.Track("chk-1", time.Hour, HealthState{Status: HealthPassing})
	s.Eventually(func() bool { return updater.count() >= 1 }, time.Second, 5*time.Millisecond)

	ttl.Track("chk-1", time.Hour, HealthState{Status: HealthWarning})
	s.Eventually(func() bool {
		return updater.last().status == HealthWarning.StatusText()
	}, time.Second, 5*time.Millisecond)
}

func TestTTL(t *testing.T) {
	suite.Run(t, new(TTLTestSuite))
}

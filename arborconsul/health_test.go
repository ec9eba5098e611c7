// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package arborconsul

import (
	"testing"

	"github.com/hashicorp/consul/api"
	"github.com/stretchr/testify/suite"
)

type HealthTestSuite struct {
	suite.Suite
}

func (s *HealthTestSuite) TestTrackSeedsDefaultPassingStatus() {
	h := NewHealth()
	h.Track("svc", ServiceRegistration{
		Checks: []api.AgentServiceCheck{{CheckID: "chk-1"}},
	})

	state, err := h.GetCheck("chk-1")
	s.NoError(err)
	s.Equal(HealthPassing, state.Status)
}

func (s *HealthTestSuite) TestTrackHonorsDeclaredStatus() {
	h := NewHealth()
	h.Track("svc", ServiceRegistration{
		Checks: []api.AgentServiceCheck{{CheckID: "chk-1", Status: api.HealthWarning, Notes: "starting up"}},
	})

	state, err := h.GetCheck("chk-1")
	s.NoError(err)
	s.Equal(HealthWarning, state.Status)
	s.Equal("starting up", state.Notes)
}

func (s *HealthTestSuite) TestUntrackRemovesAllChecksForService() {
	h := NewHealth()
	h.Track("svc", ServiceRegistration{
		Checks: []api.AgentServiceCheck{{CheckID: "chk-1"}, {CheckID: "chk-2"}},
	})

	h.Untrack("svc")

	_, err := h.GetCheck("chk-1")
	s.ErrorIs(err, ErrNoSuchCheckID)
	_, err = h.GetCheck("chk-2")
	s.ErrorIs(err, ErrNoSuchCheckID)
}

func (s *HealthTestSuite) TestSetServiceUpdatesAllItsChecks() {
	h := NewHealth()
	h.Track("svc", ServiceRegistration{
		Checks: []api.AgentServiceCheck{{CheckID: "chk-1"}, {CheckID: "chk-2"}},
	})

	s.Require().NoError(h.SetService("svc", HealthState{Status: HealthCritical}))

	state, _ := h.GetCheck("chk-1")
	s.Equal(HealthCritical, state.Status)
	state, _ = h.GetCheck("chk-2")
	s.Equal(HealthCritical, state.Status)
}

func (s *HealthTestSuite) TestSetServiceUnknownServiceErrors() {
	h := NewHealth()
	s.ErrorIs(h.SetService("nope", HealthState{}), ErrNoSuchServiceID)
}

func (s *HealthTestSuite) TestFromHealthStatusTextAcceptsLegacyForms() {
	s.Equal(HealthPassing, FromHealthStatusText("pass"))
	s.Equal(HealthWarning, FromHealthStatusText("warn"))
	s.Equal(HealthCritical, FromHealthStatusText("fail"))
	s.Equal(HealthCritical, FromHealthStatusText("garbage"))
}

func TestHealth(t *testing.T) {
	suite.Run(t, new(HealthTestSuite))
}

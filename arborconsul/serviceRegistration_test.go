// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package arborconsul

import (
	"testing"

	"github.com/hashicorp/consul/api"
	"github.com/stretchr/testify/suite"

	"github.com/arborrpc/arbor"
)

type ServiceRegistrationTestSuite struct {
	suite.Suite
}

func (s *ServiceRegistrationTestSuite) TestServiceIDPrefersID() {
	sr := ServiceRegistration{ID: "id-1", Name: "name-1"}
	s.Equal(ServiceID("id-1"), sr.serviceID())
}

func (s *ServiceRegistrationTestSuite) TestServiceIDFallsBackToName() {
	sr := ServiceRegistration{Name: "name-1"}
	s.Equal(ServiceID("name-1"), sr.serviceID())
}

func (s *ServiceRegistrationTestSuite) TestValidateRequiresNameOrID() {
	sr := ServiceRegistration{}
	s.Error(sr.validate())
}

func (s *ServiceRegistrationTestSuite) TestValidateAssignsMissingCheckIDs() {
	sr := &ServiceRegistration{
		ID: "svc-1",
		Checks: []api.AgentServiceCheck{
			{TTL: "30s"},
			{CheckID: "explicit", TTL: "30s"},
		},
	}

	s.Require().NoError(sr.validate())
	s.Equal("svc-1:check-0", sr.Checks[0].CheckID)
	s.Equal("explicit", sr.Checks[1].CheckID)
}

func (s *ServiceRegistrationTestSuite) TestRegistrationFromKeyDerivesNameAndAddress() {
	u := arbor.URL{Scheme: "consul", Host: "10.0.0.1:8080", Path: "/billing"}

	sr, err := registrationFromKey(arbor.NewRegisterKey(u))
	s.Require().NoError(err)
	s.Equal("billing", sr.Name)
	s.Equal("10.0.0.1", sr.Address)
	s.Equal(8080, sr.Port)
}

func (s *ServiceRegistrationTestSuite) TestRegistrationFromKeyFallsBackToHostWhenPathEmpty() {
	u := arbor.URL{Scheme: "consul", Host: "svc.local"}

	sr, err := registrationFromKey(arbor.NewRegisterKey(u))
	s.Require().NoError(err)
	s.Equal("svc.local", sr.Name)
	s.Equal("svc.local", sr.Address)
}

func (s *ServiceRegistrationTestSuite) TestRegistrationFromKeyParsesTagsAndTTL() {
	u := arbor.URL{
		Scheme: "consul",
		Host:   "h:1",
		Path:   "/svc",
		Params: map[string]string{"tags": "a,b,c", "ttl": "30s"},
	}

	sr, err := registrationFromKey(arbor.NewRegisterKey(u))
	s.Require().NoError(err)
	s.Equal([]string{"a", "b", "c"}, sr.Tags)
	s.Require().Len(sr.Checks, 1)
	s.Equal("30s", sr.Checks[0].TTL)
	s.NotEmpty(sr.Checks[0].CheckID)
}

func TestServiceRegistration(t *testing.T) {
	suite.Run(t, new(ServiceRegistrationTestSuite))
}

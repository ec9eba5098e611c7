// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package arborconsul

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/hashicorp/consul/api"
	"github.com/stretchr/testify/suite"
	"github.com/xmidt-org/retry"
)

type fakeRegisterer struct {
	mu       sync.Mutex
	failures int
	calls    []*api.AgentServiceRegistration
}

func (f *fakeRegisterer) ServiceRegisterOpts(asr *api.AgentServiceRegistration, opts api.ServiceRegisterOpts) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, asr)
	if f.failures > 0 {
		f.failures--
		return errors.New("register failed")
	}

	return nil
}

type fakeDeregisterer struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (f *fakeDeregisterer) ServiceDeregisterOpts(serviceID string, opts *api.QueryOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ids = append(f.ids, serviceID)
	return f.err
}

type RegistrarTestSuite struct {
	suite.Suite
}

func (s *RegistrarTestSuite) TestRegisterWithRetrySucceedsOnFirstAttempt() {
	fr := &fakeRegisterer{}
	sr := ServiceRegistration{ID: "svc-1", Name: "svc"}

	err := registerWithRetry(context.Background(), fr, retry.Config{}, sr)
	s.NoError(err)
	s.Len(fr.calls, 1)
	s.Equal("svc-1", fr.calls[0].ID)
}

func (s *RegistrarTestSuite) TestDeregisterOnceIsNotRetried() {
	fd := &fakeDeregisterer{err: errors.New("deregister failed")}
	sr := ServiceRegistration{ID: "svc-1", Name: "svc"}

	err := deregisterOnce(fd, sr)
	s.Error(err)
	s.Len(fd.ids, 1)
	s.Equal("svc-1", fd.ids[0])
}

func TestRegistrar(t *testing.T) {
	suite.Run(t, new(RegistrarTestSuite))
}

// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package arborconsul

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

type RetryPolicyTestSuite struct {
	suite.Suite
}

func (s *RetryPolicyTestSuite) TestNilErrorIsNotRetried() {
	s.False(Retry(nil))
}

func (s *RetryPolicyTestSuite) TestUnauthorizedIsNotRetried() {
	s.False(Retry(errors.New("Unexpected response code: 401 (ACL not found)")))
}

func (s *RetryPolicyTestSuite) TestForbiddenIsNotRetried() {
	s.False(Retry(errors.New("Unexpected response code: 403 (Permission denied)")))
}

func (s *RetryPolicyTestSuite) TestOtherErrorsAreRetried() {
	s.True(Retry(errors.New("connection refused")))
	s.True(Retry(errors.New("Unexpected response code: 500 (internal error)")))
}

func TestRetryPolicy(t *testing.T) {
	suite.Run(t, new(RetryPolicyTestSuite))
}

// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package arbor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type WaiterTestSuite struct {
	suite.Suite
}

func (s *WaiterTestSuite) TestWaitReturnsOnWakeup() {
	w := newWaiter()

	start := time.Now()
	go func() {
		time.Sleep(5 * time.Millisecond)
		w.wakeup()
	}()

	w.wait(time.Second)
	s.Less(time.Since(start), 500*time.Millisecond)
}

func (s *WaiterTestSuite) TestWaitReturnsOnTimeout() {
	w := newWaiter()

	start := time.Now()
	w.wait(5 * time.Millisecond)
	s.GreaterOrEqual(time.Since(start), 5*time.Millisecond)
}

func (s *WaiterTestSuite) TestWakeupCoalesces() {
	w := newWaiter()

	w.wakeup()
	w.wakeup()
	w.wakeup()

	start := time.Now()
	w.wait(time.Second)
	s.Less(time.Since(start), 500*time.Millisecond)

	// the single buffered slot was consumed by the first wait, so this
	// one must fall back to the timeout.
	start = time.Now()
	w.wait(5 * time.Millisecond)
	s.GreaterOrEqual(time.Since(start), 5*time.Millisecond)
}

func TestWaiter(t *testing.T) {
	suite.Run(t, new(WaiterTestSuite))
}

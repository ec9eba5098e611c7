// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package arbor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type FutureTestSuite struct {
	suite.Suite
}

func (s *FutureTestSuite) TestCompleteThenPeek() {
	f := NewFuture[int]()
	f.Complete(42)

	v, err, ok := f.Peek()
	s.True(ok)
	s.NoError(err)
	s.Equal(42, v)
}

func (s *FutureTestSuite) TestFailThenWait() {
	boom := errors.New("boom")
	f := NewFuture[int]()
	f.Fail(boom)

	_, err := f.Wait(context.Background())
	s.ErrorIs(err, boom)
}

func (s *FutureTestSuite) TestFirstResolutionWins() {
	f := NewFuture[int]()
	f.Complete(1)
	f.Complete(2)
	f.Fail(errors.New("too late"))

	v, err, ok := f.Peek()
	s.True(ok)
	s.NoError(err)
	s.Equal(1, v)
}

func (s *FutureTestSuite) TestWaitBlocksUntilResolved() {
	f := NewFuture[int]()

	go func() {
		time.Sleep(10 * time.Millisecond)
		f.Complete(7)
	}()

	v, err := f.Wait(context.Background())
	s.NoError(err)
	s.Equal(7, v)
}

func (s *FutureTestSuite) TestWaitRespectsContextCancellation() {
	f := NewFuture[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Wait(ctx)
	s.ErrorIs(err, context.Canceled)
}

func (s *FutureTestSuite) TestCompletedAndFailedHelpers() {
	ok := Completed("value")
	v, err, done := ok.Peek()
	s.True(done)
	s.NoError(err)
	s.Equal("value", v)

	failed := Failed[string](errors.New("nope"))
	_, err, done = failed.Peek()
	s.True(done)
	s.Error(err)
}

func TestFuture(t *testing.T) {
	suite.Run(t, new(FutureTestSuite))
}

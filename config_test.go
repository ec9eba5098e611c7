// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package arbor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
}

func (s *ConfigTestSuite) TestWithDefaultsFillsZeroValues() {
	cfg := Config{}.withDefaults()
	s.Equal("arbor", cfg.Name)
	s.Equal(defaultTaskRetryInterval, cfg.TaskRetryInterval)
}

func (s *ConfigTestSuite) TestWithDefaultsPreservesExplicitValues() {
	cfg := Config{Name: "custom", TaskRetryInterval: time.Minute, MaxConnectRetryTimes: 3}.withDefaults()
	s.Equal("custom", cfg.Name)
	s.Equal(time.Minute, cfg.TaskRetryInterval)
	s.Equal(3, cfg.MaxConnectRetryTimes)
}

func (s *ConfigTestSuite) TestWithDefaultsPreservesNegativeMaxConnectRetryTimes() {
	cfg := Config{MaxConnectRetryTimes: -1}.withDefaults()
	s.Equal(-1, cfg.MaxConnectRetryTimes)
}

func TestConfig(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

type RegistryOptionTestSuite struct {
	suite.Suite
}

func (s *RegistryOptionTestSuite) TestWithNameOverridesName() {
	cfg := Config{Name: "original"}
	WithName("override")(&cfg)
	s.Equal("override", cfg.Name)
}

func (s *RegistryOptionTestSuite) TestWithMaxConnectRetryTimes() {
	cfg := Config{}
	WithMaxConnectRetryTimes(7)(&cfg)
	s.Equal(7, cfg.MaxConnectRetryTimes)
}

func (s *RegistryOptionTestSuite) TestWithTaskRetryInterval() {
	cfg := Config{}
	WithTaskRetryInterval(3 * time.Second)(&cfg)
	s.Equal(3*time.Second, cfg.TaskRetryInterval)
}

func TestRegistryOption(t *testing.T) {
	suite.Run(t, new(RegistryOptionTestSuite))
}

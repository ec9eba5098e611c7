// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package arbor

import "time"

// RegistryOption is a functional option for tailoring a Config prior to
// NewRegistry constructing a Registry from it.
type RegistryOption func(*Config)

// WithName overrides the registry's name (and therefore its BackupStore key).
func WithName(name string) RegistryOption {
	return func(cfg *Config) {
		cfg.Name = name
	}
}

// WithMaxConnectRetryTimes overrides the reconnect loop's attempt budget.
func WithMaxConnectRetryTimes(max int) RegistryOption {
	return func(cfg *Config) {
		cfg.MaxConnectRetryTimes = max
	}
}

// WithTaskRetryInterval overrides the fixed delay between a failed task's
// retry attempts.
func WithTaskRetryInterval(d time.Duration) RegistryOption {
	return func(cfg *Config) {
		cfg.TaskRetryInterval = d
	}
}

// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package arbor

import "time"

// Config is the unmarshalable configuration for a Registry. It is a flat,
// tag-decorated struct: load it from JSON/YAML/env via mapstructure, then
// hand it to NewRegistry.
type Config struct {
	// Name identifies this registry instance, used as the BackupStore key
	// and in log fields.
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// MaxConnectRetryTimes bounds the reconnect loop's attempt count.
	// Negative means retry forever, zero means no retry after the first
	// failed connect, and a positive value is the maximum number of retry
	// attempts after the first failure.
	MaxConnectRetryTimes int `json:"maxConnectRetryTimes" yaml:"maxConnectRetryTimes" mapstructure:"maxConnectRetryTimes"`

	// TaskRetryInterval is the fixed delay before a failed, retryable task
	// is re-attempted from the dispatcher's queue.
	TaskRetryInterval time.Duration `json:"taskRetryInterval" yaml:"taskRetryInterval" mapstructure:"taskRetryInterval"`
}

const defaultTaskRetryInterval = 500 * time.Millisecond

// withDefaults returns a copy of cfg with zero-valued fields replaced by
// their defaults.
func (cfg Config) withDefaults() Config {
	if len(cfg.Name) == 0 {
		cfg.Name = "arbor"
	}

	if cfg.TaskRetryInterval <= 0 {
		cfg.TaskRetryInterval = defaultTaskRetryInterval
	}

	return cfg
}

// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package arborconsul

import (
	"time"

	"github.com/xmidt-org/retry"
)

// RegistrationConfig is the service registration portion of a driver's configuration.
type RegistrationConfig struct {
	// Retry is the backoff configuration for retrying service registrations.  If not
	// supplied, no retries are performed.
	//
	// Service deregistrations are never retried.
	Retry retry.Config `json:"retry" yaml:"retry"`
}

// WatchConfig controls the long-poll behavior of cluster and config
// subscriptions backed by consul blocking queries.
type WatchConfig struct {
	// WaitTime bounds how long a single blocking query may block. Consul
	// caps this server-side; a zero value defaults to two minutes.
	WaitTime time.Duration `json:"waitTime" yaml:"waitTime"`

	// PollInterval is the delay before the next blocking query after a
	// query has failed, guarding against a busy loop on a transient error.
	// Successful queries are followed immediately by the next one. A zero
	// value defaults to one second.
	PollInterval time.Duration `json:"pollInterval" yaml:"pollInterval"`
}

func (w WatchConfig) withDefaults() WatchConfig {
	if w.WaitTime <= 0 {
		w.WaitTime = 2 * time.Minute
	}

	if w.PollInterval <= 0 {
		w.PollInterval = time.Second
	}

	return w
}

// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package arborconsul

import (
	"context"

	"github.com/xmidt-org/retry"
)

// registerWithRetry registers sr against registerer, retrying according to
// rcfg until it succeeds or the policy gives up.
func registerWithRetry(ctx context.Context, registerer AgentRegisterer, rcfg retry.Config, sr ServiceRegistration) error {
	runner, err := retry.NewRunner(
		retry.WithPolicyFactory[bool](rcfg),
	)

	if err != nil {
		return err
	}

	_, err = runner.Run(ctx, func(ctx context.Context) (bool, error) {
		return true, registerer.ServiceRegisterOpts(
			sr.asAgentServiceRegistration(),
			sr.RegisterOptions.WithContext(ctx),
		)
	})

	return err
}

// deregisterOnce removes sr from registerer. Deregistrations are never
// retried: a failed deregister simply leaves a stale entry for consul's own
// health checks to eventually expire.
func deregisterOnce(registerer AgentDeregisterer, sr ServiceRegistration) error {
	opts := sr.DeregisterOptions
	return registerer.ServiceDeregisterOpts(sr.ID, &opts)
}

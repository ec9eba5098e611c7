// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package arbor

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Provide gives a simple, opinionated way of assembling a *Registry within
// an fx.App. It expects a Config, a DriverFactory, a BackupStore, and an
// optional *zap.Logger already present in the container, and emits a global,
// unnamed *Registry that is opened and closed with the application's
// lifecycle.
func Provide(opts ...RegistryOption) fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				func(cfg Config, driverFactory DriverFactory, backup BackupStore, logger *zap.Logger) *Registry {
					return NewRegistry(cfg, driverFactory, backup, logger, opts...)
				},
				fx.ParamTags("", "", "", `optional:"true"`),
			),
		),
		fx.Invoke(func(lc fx.Lifecycle, registry *Registry) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					_, err := registry.Open().Wait(ctx)
					return err
				},
				OnStop: func(ctx context.Context) error {
					_, err := registry.Close().Wait(ctx)
					return err
				},
			})
		}),
	)
}

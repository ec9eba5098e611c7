// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package arborconsul

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/consul/api"
	"go.uber.org/zap"

	"github.com/arborrpc/arbor"
)

// DoSubscribeConfig starts a background blocking-query loop over consul's KV
// store under key's path prefix, translating each answer into a full
// key/value replacement on booking, per §4.4's full-replacement-only
// semantics.
func (d *ConsulDriver) DoSubscribeConfig(ctx context.Context, key arbor.URLKey, booking *arbor.ConfigBooking) *arbor.Future[struct{}] {
	f := arbor.NewFuture[struct{}]()

	prefix := strings.TrimPrefix(key.URL().Path, "/")

	loopCtx, cancel := context.WithCancel(context.Background())

	d.mu.Lock()
	d.configs[key.Key()] = cancel
	d.mu.Unlock()

	go d.configLoop(loopCtx, d.client.KV(), key, prefix, booking)

	f.Complete(struct{}{})
	return f
}

// kvLister is the slice of *api.KV's behavior configLoop depends on,
// narrowed the same way services.go's Services interface narrows the
// health/catalog query surface cluster.go depends on.
type kvLister interface {
	List(prefix string, q *api.QueryOptions) (api.KVPairs, *api.QueryMeta, error)
}

// DoUnsubscribeConfig stops the background loop started by
// DoSubscribeConfig.
func (d *ConsulDriver) DoUnsubscribeConfig(ctx context.Context, key arbor.URLKey) *arbor.Future[struct{}] {
	d.mu.Lock()
	cancel, ok := d.configs[key.Key()]
	delete(d.configs, key.Key())
	d.mu.Unlock()

	if ok {
		cancel()
	}

	return arbor.Completed(struct{}{})
}

func (d *ConsulDriver) configLoop(ctx context.Context, kv kvLister, key arbor.URLKey, prefix string, booking *arbor.ConfigBooking) {
	var waitIndex uint64

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		pairs, meta, err := kv.List(prefix, &api.QueryOptions{
			WaitIndex: waitIndex,
			WaitTime:  d.watchCfg.WaitTime,
		})

		if err != nil {
			d.logger.Warn("config query failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(d.watchCfg.PollInterval):
				continue
			}
		}

		if meta != nil {
			if meta.LastIndex == waitIndex {
				continue
			}

			waitIndex = meta.LastIndex
		}

		datum := make(map[string]string, len(pairs))
		for _, pair := range pairs {
			name := strings.TrimPrefix(pair.Key, prefix)
			name = strings.TrimPrefix(name, "/")
			datum[name] = string(pair.Value)
		}

		booking.Handle(arbor.ConfigEvent{
			Source:  key.Key(),
			Version: int64(waitIndex),
			Datum:   datum,
		})
	}
}

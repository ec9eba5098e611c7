// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package arborconsul

import (
	"context"
	"time"

	"github.com/hashicorp/consul/api"
	"go.uber.org/zap"

	"github.com/arborrpc/arbor"
)

// DoSubscribeCluster starts a background blocking-query loop over consul's
// health endpoint for the service named by key, translating each answer
// into a FULL ClusterEvent on booking. A full snapshot is always sent,
// never a diff: consul's blocking queries already return the complete
// member set on every wakeup, so computing an ADD/UPDATE/DELETE diff
// client-side would just be reproducing what booking.Handle's own merge
// engine already does from two FULL events.
func (d *ConsulDriver) DoSubscribeCluster(ctx context.Context, key arbor.URLKey, booking *arbor.ClusterBooking) *arbor.Future[struct{}] {
	f := arbor.NewFuture[struct{}]()
	service := key.URL().Path
	if len(service) > 0 {
		service = service[1:]
	}

	loopCtx, cancel := context.WithCancel(context.Background())

	d.mu.Lock()
	d.clusters[key.Key()] = cancel
	d.mu.Unlock()

	services := NewHealthServices(d.client)
	go d.clusterLoop(loopCtx, services, key, service, booking)

	f.Complete(struct{}{})
	return f
}

// DoUnsubscribeCluster stops the background loop started by
// DoSubscribeCluster.
func (d *ConsulDriver) DoUnsubscribeCluster(ctx context.Context, key arbor.URLKey) *arbor.Future[struct{}] {
	d.mu.Lock()
	cancel, ok := d.clusters[key.Key()]
	delete(d.clusters, key.Key())
	d.mu.Unlock()

	if ok {
		cancel()
	}

	return arbor.Completed(struct{}{})
}

func (d *ConsulDriver) clusterLoop(ctx context.Context, services Services, key arbor.URLKey, service string, booking *arbor.ClusterBooking) {
	var waitIndex uint64
	protect := key.URL().Param("protectNullDatum") == "true"

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		answer, err := services.Get(Query{
			Service:     service,
			PassingOnly: true,
			Options: &api.QueryOptions{
				WaitIndex: waitIndex,
				WaitTime:  d.watchCfg.WaitTime,
			},
		})

		if err != nil {
			d.logger.Warn("cluster query failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(d.watchCfg.PollInterval):
				continue
			}
		}

		if answer.Meta != nil {
			if answer.Meta.LastIndex == waitIndex {
				continue
			}

			waitIndex = answer.Meta.LastIndex
		}

		datum := make(map[string]arbor.Shard, len(answer.Services))
		for _, svc := range answer.Services {
			shard := serviceToShard(svc)
			datum[shard.Name] = shard
		}

		booking.Handle(arbor.ClusterEvent{
			Source:           key.Key(),
			Type:             arbor.EventFull,
			Version:          int64(waitIndex),
			Datum:            datum,
			ProtectNullDatum: protect,
		})
	}
}

func serviceToShard(s Service) arbor.Shard {
	return arbor.Shard{
		Name:       s.ID,
		URL:        arbor.URL{Scheme: "consul", Host: s.Address, Path: "/" + s.Name},
		Weight:     1,
		Region:     s.Partition,
		Datacenter: s.Datacenter,
		Meta:       s.Meta,
	}
}

// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package arbor

import "context"

// Driver is implemented by a concrete registry transport (consul, etcd,
// ZooKeeper, Nacos, an HTTP-based naming service, …). The controller never
// assumes anything about the wire protocol; it only calls these hooks and
// reacts to their futures, per §6.1.
//
// Implementations must route inbound cluster/config events back to the
// booking they belong to by calling ClusterBooking.Handle or
// ConfigBooking.Handle. The controller does not funnel those calls through
// its dispatcher goroutine: they run on whichever goroutine the Driver
// makes them from, and Handle is not safe for concurrent calls on the same
// booking.
type Driver interface {
	// DoConnect establishes the session. The returned future completes on
	// success or with an error. Must tolerate being called again while a
	// prior connect is already established (idempotent against redundant
	// open).
	DoConnect(ctx context.Context) *Future[struct{}]

	// Disconnect tears down the session. It never fails the caller;
	// implementations should log and swallow any error.
	Disconnect()

	// DoRegister transmits a registration for key. The returned future
	// completes when the remote acknowledges, or fails with an error that
	// Retry can classify.
	DoRegister(ctx context.Context, key URLKey) *Future[struct{}]

	// DoDeregister is symmetric to DoRegister.
	DoDeregister(ctx context.Context, key URLKey) *Future[struct{}]

	// DoSubscribeCluster asks the remote to start streaming cluster events
	// for key, routing them to booking.Handle.
	DoSubscribeCluster(ctx context.Context, key URLKey, booking *ClusterBooking) *Future[struct{}]

	// DoUnsubscribeCluster is symmetric to DoSubscribeCluster.
	DoUnsubscribeCluster(ctx context.Context, key URLKey) *Future[struct{}]

	// DoSubscribeConfig asks the remote to start streaming config events
	// for key, routing them to booking.Handle.
	DoSubscribeConfig(ctx context.Context, key URLKey, booking *ConfigBooking) *Future[struct{}]

	// DoUnsubscribeConfig is symmetric to DoSubscribeConfig.
	DoUnsubscribeConfig(ctx context.Context, key URLKey) *Future[struct{}]

	// Retry reports whether err is worth retrying. There is deliberately no
	// default in the core: §9 flags the source's unconditional-true default
	// as too aggressive for authentication failures, so every Driver must
	// decide its own policy (see arborconsul's 401/403 handling for one
	// answer).
	Retry(err error) bool
}

// ShardRecord is a serializable snapshot of one Shard, suitable for a
// BackupStore to persist, per §6.2.
type ShardRecord struct {
	Name       string
	URL        string
	Weight     int
	Region     string
	Datacenter string
	Meta       map[string]string
}

// BackupDatum is the full snapshot handed to a BackupStore, per §6.2:
// the persistable cluster bookings as shard-record lists, and the
// persistable config bookings as key/value maps.
type BackupDatum struct {
	Clusters map[string][]ShardRecord
	Configs  map[string]map[string]string
}

// BackupStore saves and restores a registry's last-known state. Errors are
// logged by the caller and never propagate into task execution, per §4.6.
type BackupStore interface {
	Backup(name string, datum BackupDatum) error
	Restore(name string) (BackupDatum, error)
}

// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package arbor is a transport-agnostic, client-side service-discovery
// registry controller: lifecycle state machine, reconnection loop,
// single-threaded task dispatcher, and a cluster/config event-merge engine,
// all driven through the Driver interface. Concrete transports (consul,
// etcd, ZooKeeper, ...) live in their own subpackages; see arborconsul for
// the HashiCorp Consul binding.
package arbor

// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package arborconsul is a HashiCorp Consul arbor.Driver: agent-based
// service registration with TTL health checks, and cluster/config
// subscriptions backed by consul's blocking queries.
package arborconsul

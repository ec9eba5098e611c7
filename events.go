// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package arbor

// EventType enumerates the kinds of inbound shard update carried by a
// ClusterEvent, per §4.3 and §6.4.
type EventType int

const (
	// EventFull carries a complete snapshot of a cluster.
	EventFull EventType = iota

	// EventAdd introduces a new shard.
	EventAdd

	// EventUpdate replaces an existing shard's attributes.
	EventUpdate

	// EventDelete removes a shard.
	EventDelete

	// EventClear is a full, deliberately-empty snapshot.
	EventClear
)

func (t EventType) String() string {
	switch t {
	case EventFull:
		return "FULL"
	case EventAdd:
		return "ADD"
	case EventUpdate:
		return "UPDATE"
	case EventDelete:
		return "DELETE"
	case EventClear:
		return "CLEAR"
	default:
		return "UNKNOWN"
	}
}

// isFull reports whether this event type represents a full replacement of
// the booking's datum, per §4.3 rule 2 (FULL and CLEAR are full; ADD/UPDATE/
// DELETE are not).
func (t EventType) isFull() bool {
	return t == EventFull || t == EventClear
}

// Shard is one member instance of a service cluster.
type Shard struct {
	Name       string
	URL        URL
	Weight     int
	Region     string
	Datacenter string
	Meta       map[string]string
}

// ShardEvent is a single shard-level delta carried within a ClusterEvent.
type ShardEvent struct {
	Type  EventType
	Shard Shard
}

// ClusterEvent is an inbound update for a cluster subscription, or (after
// merging) a user-visible event dispatched to cluster handlers.
type ClusterEvent struct {
	// Source is the booking's cluster key.
	Source string

	// Handler, if non-nil, addresses this event to a single handler (used
	// for the synthetic FULL sent to a newly-added handler). A nil Handler
	// means broadcast to every handler on the booking.
	Handler ClusterHandler

	Type    EventType
	Version int64

	// ShardEvents carries the deltas for non-full events, and is ignored
	// for FULL/CLEAR (see Datum).
	ShardEvents []ShardEvent

	// Datum carries the complete shard set for FULL and CLEAR events. Per
	// §9's open question, a CLEAR event's emitted Datum is always the raw
	// payload the driver supplied, never the merged view.
	Datum map[string]Shard

	// ProtectNullDatum is a URL-driven policy flag: when true, a DELETE
	// that would empty an already-full, non-empty cluster is refused.
	ProtectNullDatum bool
}

// ClusterHandler receives merged cluster events.
type ClusterHandler interface {
	OnClusterEvent(ClusterEvent)
}

// ClusterHandlerFunc adapts a plain function to ClusterHandler.
type ClusterHandlerFunc func(ClusterEvent)

// OnClusterEvent implements ClusterHandler.
func (f ClusterHandlerFunc) OnClusterEvent(e ClusterEvent) { f(e) }

// ConfigEvent is an inbound update, or user-visible full-replacement event,
// for a config subscription.
type ConfigEvent struct {
	Source  string
	Handler ConfigHandler
	Version int64
	Datum   map[string]string
}

// ConfigHandler receives merged config events.
type ConfigHandler interface {
	OnConfigEvent(ConfigEvent)
}

// ConfigHandlerFunc adapts a plain function to ConfigHandler.
type ConfigHandlerFunc func(ConfigEvent)

// OnConfigEvent implements ConfigHandler.
func (f ConfigHandlerFunc) OnConfigEvent(e ConfigEvent) { f(e) }

// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package arbor

import (
	"reflect"
	"sync/atomic"

	"go.uber.org/zap"
)

// bookingBase holds the state common to ClusterBooking and ConfigBooking:
// identity, the subscribe-task StateFuture, and the dirty flag shared with
// the owning controller's backup cadence.
type bookingBase struct {
	key    URLKey
	future *StateFuture
	dirty  *atomic.Bool

	closed atomic.Bool
}

func newBookingBase(key URLKey, dirty *atomic.Bool) bookingBase {
	return bookingBase{
		key:    key,
		future: newStateFuture(),
		dirty:  dirty,
	}
}

// Key returns the booking's identity.
func (b *bookingBase) Key() URLKey {
	return b.key
}

// Future returns the StateFuture tracking this booking's subscribe task.
func (b *bookingBase) Future() *StateFuture {
	return b.future
}

// ready reports whether this booking is still eligible to publish to
// handlers. A booking stops being ready once it has been removed (its last
// handler unsubscribed), mirroring §4.5's removal contract.
func (b *bookingBase) ready() bool {
	return !b.closed.Load()
}

// markClosed flips the booking to not-ready. Idempotent.
func (b *bookingBase) markClosed() {
	b.closed.Store(true)
}

func cloneShardMap(src map[string]Shard) map[string]Shard {
	dst := make(map[string]Shard, len(src))
	for k, v := range src {
		dst[k] = v
	}

	return dst
}

// applyShardEvent mutates cluster in place per §4.3 rule 6, reporting
// whether a DELETE was refused. DELETE is refused when the cluster holds at
// most one member while protectNullDatum is set, so it can never empty it.
func applyShardEvent(cluster map[string]Shard, se ShardEvent, protectNullDatum bool) (refused bool) {
	switch se.Type {
	case EventAdd, EventUpdate:
		cluster[se.Shard.Name] = se.Shard

	case EventDelete:
		if len(cluster) > 1 || !protectNullDatum {
			delete(cluster, se.Shard.Name)
			return false
		}

		return true
	}

	return false
}

func shardMapsEqual(a, b map[string]Shard) bool {
	if len(a) != len(b) {
		return false
	}

	for k, v := range a {
		bv, ok := b[k]
		if !ok || !reflect.DeepEqual(v, bv) {
			return false
		}
	}

	return true
}

// clusterSnapshot is the atomically-published, immutable view of a
// ClusterBooking's merged state. Bundling version/full/datum into one
// struct behind a single atomic.Pointer guarantees handler threads (and
// AddHandler, called from a caller goroutine) never observe full=true
// alongside a stale or absent datum.
type clusterSnapshot struct {
	version int64
	full    bool
	datum   map[string]Shard
}

// ClusterBooking is the per-subscription shadow state for a cluster
// subscription: the merge engine described in spec §4.3, plus the handler
// fan-out bus.
type ClusterBooking struct {
	bookingBase

	bus *eventBus[ClusterHandler, ClusterEvent]
	snap atomic.Pointer[clusterSnapshot]

	// pending and pendingVersion are mutated only by Handle and have no
	// lock of their own. The controller does not serialize Handle calls,
	// so concurrent Handle calls on one booking race on them.
	pending        map[string]ShardEvent
	pendingVersion int64

	lastEventTime int64

	logger *zap.Logger
}

// NewClusterBooking creates an empty ClusterBooking for key. dirty is the
// controller-owned flag that Handle sets whenever it publishes a new datum.
// A nil logger defaults to zap.NewNop().
func NewClusterBooking(key URLKey, dirty *atomic.Bool, logger *zap.Logger) *ClusterBooking {
	if logger == nil {
		logger = zap.NewNop()
	}

	cb := &ClusterBooking{
		bookingBase:    newBookingBase(key, dirty),
		pendingVersion: -1,
		logger:         logger,
	}

	cb.bus = newEventBus[ClusterHandler, ClusterEvent](func(h ClusterHandler, e ClusterEvent) {
		h.OnClusterEvent(e)
	})

	return cb
}

// Version returns the booking's current version, or -1 if no event has
// arrived yet.
func (cb *ClusterBooking) Version() int64 {
	if s := cb.snap.Load(); s != nil {
		return s.version
	}

	return -1
}

// Full reports whether a full snapshot has been established.
func (cb *ClusterBooking) Full() bool {
	if s := cb.snap.Load(); s != nil {
		return s.full
	}

	return false
}

// Datum returns a copy of the current merged cluster view. Safe to call
// from any goroutine.
func (cb *ClusterBooking) Datum() map[string]Shard {
	s := cb.snap.Load()
	if s == nil {
		return nil
	}

	return cloneShardMap(s.datum)
}

// Persistable reports whether this booking holds a non-empty full snapshot,
// per §4.6's backup eligibility rule.
func (cb *ClusterBooking) Persistable() bool {
	s := cb.snap.Load()
	return s != nil && s.full && len(s.datum) > 0
}

// AddHandler registers h. If this booking is already full and ready, h
// immediately receives a synthetic FULL event addressed only to it (§3's
// "newly added handler" invariant).
func (cb *ClusterBooking) AddHandler(h ClusterHandler) bool {
	added := cb.bus.addHandler(h)
	if !added {
		return false
	}

	if s := cb.snap.Load(); s != nil && s.full && cb.ready() {
		cb.bus.publishTo(h, ClusterEvent{
			Source:  cb.key.Key(),
			Handler: h,
			Type:    EventFull,
			Version: s.version,
			Datum:   cloneShardMap(s.datum),
		})
	}

	return added
}

// RemoveHandler deregisters h.
func (cb *ClusterBooking) RemoveHandler(h ClusterHandler) (removed bool, remaining int) {
	return cb.bus.removeHandler(h)
}

// HandlerCount returns the number of currently registered handlers.
func (cb *ClusterBooking) HandlerCount() int {
	return cb.bus.len()
}

// Close marks the booking not-ready and shuts down its publisher. Per §4.5,
// this happens once the last handler has been removed.
func (cb *ClusterBooking) Close() {
	cb.markClosed()
	cb.bus.close()
}

// LastEventTime returns the wall-clock unix-ms timestamp of the last
// inbound event. Only meaningful when no Handle call on this booking is in
// progress.
func (cb *ClusterBooking) LastEventTime() int64 {
	return cb.lastEventTime
}

// Handle merges one inbound ClusterEvent into the booking's state and
// publishes the resulting user-visible event, per §4.3. It runs on the
// caller's goroutine; the controller does not serialize calls to it, and
// concurrent calls on the same booking are not safe.
func (cb *ClusterBooking) Handle(event ClusterEvent) {
	cb.lastEventTime = nowMillis()

	isFullDatum := event.Type.isFull()
	protectNullDatum := event.ProtectNullDatum

	cur := cb.snap.Load()
	curVersion := int64(-1)
	curFull := false
	var curDatum map[string]Shard
	if cur != nil {
		curVersion, curFull, curDatum = cur.version, cur.full, cur.datum
	}

	// Rule 3: no full snapshot yet and this event isn't one either.
	if !curFull && !isFullDatum {
		if event.Version > curVersion {
			if cb.pending == nil {
				cb.pending = make(map[string]ShardEvent)
			}

			for _, se := range event.ShardEvents {
				cb.pending[se.Shard.Name] = se
			}

			cb.pendingVersion = event.Version
			cb.snap.Store(&clusterSnapshot{version: event.Version, full: false, datum: nil})
		}

		return
	}

	// Rule 4: already full and this event is stale.
	if curFull && curVersion >= event.Version {
		return
	}

	// Rule 5: compute the working cluster view.
	var cluster map[string]Shard
	var deleteRefused bool
	if isFullDatum {
		cluster = cloneShardMap(event.Datum)
	} else {
		cluster = cloneShardMap(curDatum)
		for _, se := range event.ShardEvents {
			if applyShardEvent(cluster, se, protectNullDatum) {
				deleteRefused = true
			}
		}
	}

	transitioning := !curFull && isFullDatum

	// Rule 6/7 combined: a DELETE refused by protectNullDatum left the
	// working view identical to what handlers already have. Advance the
	// version so later events are still compared correctly, but there is
	// nothing new to publish.
	if curFull && !isFullDatum && deleteRefused && shardMapsEqual(cluster, curDatum) {
		advanced := event.Version
		if curVersion > advanced {
			advanced = curVersion
		}

		cb.snap.Store(&clusterSnapshot{version: advanced, full: true, datum: curDatum})
		cb.logger.Warn("cluster delete refused by null-datum protection",
			zap.String("booking", cb.key.Key()),
			zap.Int64("version", advanced),
		)

		return
	}

	// First full snapshot: replay any pending deltas accumulated while we
	// had no baseline. These deltas come from the incremental stream and
	// may name shards the full snapshot's own read did not observe (the
	// full and the incremental stream are independent views at the
	// registry), so every pending delta is applied regardless of how its
	// version compares to the full's — the full never gets to silently
	// drop state the client already knows about.
	if transitioning && cb.pending != nil {
		for _, se := range cb.pending {
			applyShardEvent(cluster, se, protectNullDatum)
		}
	}

	cb.pending = nil
	cb.pendingVersion = -1

	newVersion := event.Version
	if curVersion > newVersion {
		newVersion = curVersion
	}

	// Rule 7: null-protection guard.
	if curFull && len(cluster) == 0 && protectNullDatum {
		cb.snap.Store(&clusterSnapshot{version: newVersion, full: true, datum: curDatum})
		return
	}

	newFull := curFull || isFullDatum
	cb.snap.Store(&clusterSnapshot{version: newVersion, full: newFull, datum: cluster})
	cb.dirty.Store(true)

	var emit ClusterEvent
	switch {
	case event.Type == EventClear:
		emit = ClusterEvent{
			Source:  cb.key.Key(),
			Type:    EventClear,
			Version: newVersion,
			Datum:   event.Datum,
		}

	case transitioning:
		emit = ClusterEvent{
			Source:  cb.key.Key(),
			Type:    EventFull,
			Version: newVersion,
			Datum:   cloneShardMap(cluster),
		}

	case isFullDatum:
		emit = ClusterEvent{
			Source:  cb.key.Key(),
			Type:    event.Type,
			Version: newVersion,
			Datum:   cloneShardMap(cluster),
		}

	default:
		emit = ClusterEvent{
			Source:      cb.key.Key(),
			Type:        event.Type,
			Version:     newVersion,
			ShardEvents: event.ShardEvents,
		}
	}

	cb.bus.broadcast(emit)
}

// configSnapshot is ConfigBooking's atomically-published view.
type configSnapshot struct {
	version int64
	full    bool
	datum   map[string]string
}

// ConfigBooking is the per-subscription shadow state for a config
// subscription: full-replacement-only merge per §4.4.
type ConfigBooking struct {
	bookingBase

	bus  *eventBus[ConfigHandler, ConfigEvent]
	snap atomic.Pointer[configSnapshot]
}

// NewConfigBooking creates an empty ConfigBooking for key.
func NewConfigBooking(key URLKey, dirty *atomic.Bool) *ConfigBooking {
	cfgb := &ConfigBooking{
		bookingBase: newBookingBase(key, dirty),
	}

	cfgb.bus = newEventBus[ConfigHandler, ConfigEvent](func(h ConfigHandler, e ConfigEvent) {
		h.OnConfigEvent(e)
	})

	return cfgb
}

// Version returns the booking's current version, or -1 if no event has
// arrived yet.
func (cfgb *ConfigBooking) Version() int64 {
	if s := cfgb.snap.Load(); s != nil {
		return s.version
	}

	return -1
}

// Full reports whether a full snapshot has been established.
func (cfgb *ConfigBooking) Full() bool {
	if s := cfgb.snap.Load(); s != nil {
		return s.full
	}

	return false
}

// Datum returns a copy of the current config key/value view.
func (cfgb *ConfigBooking) Datum() map[string]string {
	s := cfgb.snap.Load()
	if s == nil {
		return nil
	}

	return cloneStringMap(s.datum)
}

// Persistable reports whether this booking holds a non-empty full snapshot.
func (cfgb *ConfigBooking) Persistable() bool {
	s := cfgb.snap.Load()
	return s != nil && s.full && len(s.datum) > 0
}

// AddHandler registers h, immediately delivering a synthetic full event if
// the booking is already full and ready.
func (cfgb *ConfigBooking) AddHandler(h ConfigHandler) bool {
	added := cfgb.bus.addHandler(h)
	if !added {
		return false
	}

	if s := cfgb.snap.Load(); s != nil && s.full && cfgb.ready() {
		cfgb.bus.publishTo(h, ConfigEvent{
			Source:  cfgb.key.Key(),
			Handler: h,
			Version: s.version,
			Datum:   cloneStringMap(s.datum),
		})
	}

	return added
}

// RemoveHandler deregisters h.
func (cfgb *ConfigBooking) RemoveHandler(h ConfigHandler) (removed bool, remaining int) {
	return cfgb.bus.removeHandler(h)
}

// HandlerCount returns the number of currently registered handlers.
func (cfgb *ConfigBooking) HandlerCount() int {
	return cfgb.bus.len()
}

// Close marks the booking not-ready and shuts down its publisher.
func (cfgb *ConfigBooking) Close() {
	cfgb.markClosed()
	cfgb.bus.close()
}

// Handle merges one inbound ConfigEvent, per §4.4. It runs on the caller's
// goroutine; the controller does not serialize calls to it, and concurrent
// calls on the same booking are not safe.
func (cfgb *ConfigBooking) Handle(event ConfigEvent) {
	cur := cfgb.snap.Load()
	if cur != nil && event.Version <= cur.version {
		return
	}

	datum := event.Datum
	if datum == nil {
		datum = make(map[string]string)
	} else {
		datum = cloneStringMap(datum)
	}

	cfgb.snap.Store(&configSnapshot{version: event.Version, full: true, datum: datum})
	cfgb.dirty.Store(true)

	if cfgb.ready() {
		cfgb.bus.broadcast(ConfigEvent{
			Source:  cfgb.key.Key(),
			Version: event.Version,
			Datum:   cloneStringMap(datum),
		})
	}
}

func cloneStringMap(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}

	return dst
}

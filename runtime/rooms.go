package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"social-relay/contract"
	"social-relay/observability"
)

// Rooms is the broadcast multiplexer. It keeps a dual index: a forward
// room -> connection -> sink map for emission, and a reverse
// connection -> rooms map so a closing connection cleans up without
// scanning every room. Empty rooms are deleted eagerly; emitting to a
// missing room is a silent no-op by contract.
type Rooms struct {
	mu      sync.RWMutex
	members map[string]map[string]contract.EventSink
	joined  map[string]Set
	log     *slog.Logger
	stats   *observability.RelayStats
}

func NewRooms(log *slog.Logger, stats *observability.RelayStats) *Rooms {
	return &Rooms{
		members: make(map[string]map[string]contract.EventSink),
		joined:  make(map[string]Set),
		log:     log,
		stats:   stats,
	}
}

// Join subscribes a connection to one or more rooms. Duplicate joins to the
// same room are no-ops.
func (r *Rooms) Join(connID string, sink contract.EventSink, rooms ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, room := range rooms {
		if r.members[room] == nil {
			r.members[room] = make(map[string]contract.EventSink)
		}
		r.members[room][connID] = sink

		if r.joined[connID] == nil {
			r.joined[connID] = make(Set)
		}
		r.joined[connID][room] = struct{}{}
	}
}

func (r *Rooms) Leave(connID string, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(connID, room)
}

// LeaveAll removes a connection from every room it joined. Called once per
// disconnect; room membership never survives the connection that created it.
func (r *Rooms) LeaveAll(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for room := range r.joined[connID] {
		r.leaveLocked(connID, room)
	}
}

func (r *Rooms) leaveLocked(connID, room string) {
	if members, ok := r.members[room]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.members, room)
		}
	}
	if rooms, ok := r.joined[connID]; ok {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(r.joined, connID)
		}
	}
}

func (r *Rooms) Emit(ctx context.Context, room, event string, payload any) {
	r.EmitExcept(ctx, room, "", event, payload)
}

// EmitExcept snapshots the room's sinks under the read lock, then delivers
// outside it so a slow sink never blocks membership changes. A failed or
// dropped delivery is logged and counted, never surfaced to the emitter.
func (r *Rooms) EmitExcept(ctx context.Context, room, exceptConnID, event string, payload any) {
	r.mu.RLock()
	members := r.members[room]
	sinks := make(map[string]contract.EventSink, len(members))
	for connID, sink := range members {
		if connID == exceptConnID {
			continue
		}
		sinks[connID] = sink
	}
	r.mu.RUnlock()

	for connID, sink := range sinks {
		if err := sink.Consume(ctx, event, payload); err != nil {
			r.stats.IncrDroppedDeliveries()
			r.log.Debug(fmt.Sprintf("Dropped %s for connection %s in %s", event, connID, room), "error", err)
			continue
		}
		r.stats.IncrBroadcasts()
	}
}

// EmitAll sends to every connected sink regardless of room membership.
// Used for global broadcasts: presence changes, feed refresh, profile updates.
func (r *Rooms) EmitAll(ctx context.Context, event string, payload any) {
	r.mu.RLock()
	sinks := make([]contract.EventSink, 0, len(r.joined))
	seen := make(Set, len(r.joined))
	for _, members := range r.members {
		for connID, sink := range members {
			if _, ok := seen[connID]; ok {
				continue
			}
			seen[connID] = struct{}{}
			sinks = append(sinks, sink)
		}
	}
	r.mu.RUnlock()

	for _, sink := range sinks {
		if err := sink.Consume(ctx, event, payload); err != nil {
			r.stats.IncrDroppedDeliveries()
			continue
		}
		r.stats.IncrBroadcasts()
	}
}

// Count reports the current number of connections in a room. Callers that
// must distinguish "nobody listening" from "delivered" query this before
// emitting, since Emit is silent on empty rooms.
func (r *Rooms) Count(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members[room])
}

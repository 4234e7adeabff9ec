package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"social-relay/contract"
	"social-relay/domain"
	"social-relay/domain/event"
)

// CallState is the explicit per-pair negotiation state. The server stores
// nothing beyond this label; signal payloads pass through opaque.
type CallState int

const (
	CallIdle CallState = iota
	CallRinging
	CallActive
)

func (s CallState) String() string {
	switch s {
	case CallRinging:
		return "ringing"
	case CallActive:
		return "active"
	default:
		return "idle"
	}
}

// Coordinator relays WebRTC-style offer/answer/end messages between user
// inbox rooms, tracking an explicit {Idle, Ringing, Active} state per ordered
// (caller, callee) pair. Delivery is best-effort: an empty target room is
// logged for diagnostics but the emit still happens, because a silent drop
// is otherwise indistinguishable from delivered-but-ignored.
//
// No timeout transitions exist: an unanswered ring persists until either
// party ends it. A participant disconnecting mid-call does not auto-end the
// session; clients are expected to time out on their own.
type Coordinator struct {
	mu    sync.Mutex
	calls map[string]CallState
	rooms contract.IRooms
	log   *slog.Logger
}

func NewCoordinator(log *slog.Logger, rooms contract.IRooms) *Coordinator {
	return &Coordinator{calls: make(map[string]CallState), rooms: rooms, log: log}
}

func pairKey(callerID, calleeID string) string {
	return callerID + "|" + calleeID
}

// CallUser starts a ring toward the callee's inbox room.
func (c *Coordinator) CallUser(ctx context.Context, payload event.CallUserPayload) {
	room := domain.UserRoom(payload.UserToCall)
	if members := c.rooms.Count(room); members == 0 {
		c.log.Info(fmt.Sprintf("Calling %s but their inbox room is empty, relaying anyway", payload.UserToCall),
			"caller", payload.From)
	}

	c.mu.Lock()
	c.calls[pairKey(payload.From, payload.UserToCall)] = CallRinging
	c.mu.Unlock()

	c.rooms.Emit(ctx, room, event.CallUser, payload)
}

// AnswerCall relays the callee's acceptance back to the caller.
func (c *Coordinator) AnswerCall(ctx context.Context, calleeID string, payload event.AnswerCallPayload) {
	key := pairKey(payload.To, calleeID)

	c.mu.Lock()
	if c.calls[key] == CallRinging {
		c.calls[key] = CallActive
	} else {
		// Late or unmatched answer: relay anyway, state stays as-is.
		c.log.Debug(fmt.Sprintf("Answer for pair %s in state %s", key, c.calls[key]))
	}
	c.mu.Unlock()

	c.rooms.Emit(ctx, domain.UserRoom(payload.To), event.CallAccepted, payload.Signal)
}

// EndCall tears the session down from either side. call_ended goes only to
// the other party's room, never back to the sender.
func (c *Coordinator) EndCall(ctx context.Context, enderID string, payload event.EndCallPayload) {
	c.mu.Lock()
	delete(c.calls, pairKey(enderID, payload.To))
	delete(c.calls, pairKey(payload.To, enderID))
	c.mu.Unlock()

	c.rooms.Emit(ctx, domain.UserRoom(payload.To), event.CallEnded, nil)
}

// State reports the current state for an ordered pair; CallIdle for unknown
// pairs. Exposed for diagnostics and tests.
func (c *Coordinator) State(callerID, calleeID string) CallState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[pairKey(callerID, calleeID)]
}

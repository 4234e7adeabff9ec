package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"social-relay/auth"
	"social-relay/contract"
	"social-relay/domain"
	"social-relay/domain/event"
	"social-relay/observability"
)

// conn is the relay-side state of one live connection. A connection exists
// before it joins; until the join frame arrives it has no identity and only
// the heartbeat events are honored.
type conn struct {
	sink       contract.EventSink
	identity   domain.Identity
	suppliedID string
	joined     bool
}

// Relay owns the connection lifecycle and dispatches every inbound frame to
// the presence publisher, the call coordinator or the event router. One Relay
// serves all connections; per-connection state is guarded by mu.
type Relay struct {
	log      *slog.Logger
	registry contract.IRegistry
	rooms    contract.IRooms
	resolver contract.IIdentityResolver
	presence *Presence
	router   *Router
	calls    *Coordinator
	tokens   *auth.Tokens
	stats    *observability.RelayStats

	mu    sync.RWMutex
	conns map[string]*conn
}

func NewRelay(
	log *slog.Logger,
	registry contract.IRegistry,
	rooms contract.IRooms,
	resolver contract.IIdentityResolver,
	presence *Presence,
	router *Router,
	calls *Coordinator,
	tokens *auth.Tokens,
	stats *observability.RelayStats,
) *Relay {
	return &Relay{
		log:      log,
		registry: registry,
		rooms:    rooms,
		resolver: resolver,
		presence: presence,
		router:   router,
		calls:    calls,
		tokens:   tokens,
		stats:    stats,
		conns:    make(map[string]*conn),
	}
}

// Connect registers a fresh connection. The connection stays anonymous until
// its join frame arrives.
func (r *Relay) Connect(connID string, sink contract.EventSink) {
	r.mu.Lock()
	r.conns[connID] = &conn{sink: sink}
	r.mu.Unlock()
	r.stats.IncrConnectionsOpened()
	r.log.Debug("Connection opened", "conn", connID)
}

// Disconnect tears a connection down: room memberships are cleared and, when
// this was the user's last live connection, the offline transition is
// published with the current time as last-seen. Ongoing calls are not ended
// here; the peer detects the drop through the presence broadcast.
func (r *Relay) Disconnect(ctx context.Context, connID string) {
	r.mu.Lock()
	c, ok := r.conns[connID]
	delete(r.conns, connID)
	r.mu.Unlock()
	if !ok {
		return
	}

	r.rooms.LeaveAll(connID)
	r.stats.IncrConnectionsClosed()

	if !c.joined {
		r.log.Debug("Anonymous connection closed", "conn", connID)
		return
	}

	if wasLast := r.registry.Remove(c.identity.CanonicalID, connID); wasLast {
		r.presence.AnnounceOffline(ctx, c.identity, time.Now())
	}
	r.log.Debug("Connection closed", "conn", connID, "user", c.identity.CanonicalID)
}

// HandleEvent dispatches one inbound frame. A panicking handler is contained
// here so one malformed frame cannot take the connection's read loop down.
func (r *Relay) HandleEvent(ctx context.Context, connID string, envelope event.Envelope) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error(fmt.Sprintf("Recovered handler panic: %v", rec),
				"event", envelope.Event, "conn", connID)
		}
	}()

	r.mu.RLock()
	c, ok := r.conns[connID]
	r.mu.RUnlock()
	if !ok {
		r.log.Debug("Frame from unknown connection", "conn", connID, "event", envelope.Event)
		return
	}
	r.stats.IncrEventsRouted()

	if envelope.Event == event.PingHeartbeat {
		r.reply(ctx, c, event.PongHeartbeat, nil)
		return
	}
	if envelope.Event == event.Join {
		r.handleJoin(ctx, connID, c, envelope.Data)
		return
	}
	if !c.joined {
		r.log.Debug("Frame before join ignored", "conn", connID, "event", envelope.Event)
		return
	}

	sender := Sender{ConnID: connID, Sink: c.sink, Identity: c.identity, SuppliedID: c.suppliedID}

	switch envelope.Event {
	case event.GetOnlineUsers:
		r.reply(ctx, c, event.InitialOnlineUsers, r.registry.OnlineUsers())

	case event.UpdatePresence:
		if p, err := decode[event.UpdatePresencePayload](envelope.Data); err == nil {
			r.presence.AnnounceHint(ctx, c.identity, domain.Status(p.Status))
		}

	case event.CallUser:
		if p, err := decode[event.CallUserPayload](envelope.Data); err == nil {
			r.calls.CallUser(ctx, p)
		}
	case event.AnswerCall:
		if p, err := decode[event.AnswerCallPayload](envelope.Data); err == nil {
			r.calls.AnswerCall(ctx, c.identity.CanonicalID, p)
		}
	case event.EndCall:
		if p, err := decode[event.EndCallPayload](envelope.Data); err == nil {
			r.calls.EndCall(ctx, c.identity.CanonicalID, p)
		}

	case event.JoinPost:
		if p, err := decode[event.PostRefPayload](envelope.Data); err == nil {
			r.rooms.Join(connID, c.sink, domain.PostRoom(p.PostID))
		}
	case event.LeavePost:
		if p, err := decode[event.PostRefPayload](envelope.Data); err == nil {
			r.rooms.Leave(connID, domain.PostRoom(p.PostID))
		}
	case event.JoinConversation:
		if p, err := decode[event.ConversationPayload](envelope.Data); err == nil {
			r.rooms.Join(connID, c.sink, domain.ConversationRoom(p.ID))
		}
	case event.LeaveConversation:
		if p, err := decode[event.ConversationPayload](envelope.Data); err == nil {
			r.rooms.Leave(connID, domain.ConversationRoom(p.ID))
		}
	case event.JoinStream:
		if p, err := decode[event.StreamPayload](envelope.Data); err == nil {
			r.rooms.Join(connID, c.sink, domain.StreamRoom(p.StreamID))
		}
	case event.LeaveStream:
		if p, err := decode[event.StreamPayload](envelope.Data); err == nil {
			r.rooms.Leave(connID, domain.StreamRoom(p.StreamID))
		}
	case event.StreamOffer, event.StreamAnswer, event.StreamICE:
		if p, err := decode[event.StreamSignalPayload](envelope.Data); err == nil {
			r.router.StreamSignal(ctx, sender, envelope.Event, p, envelope.Data)
		}
	case event.StreamLike:
		if p, err := decode[event.StreamLikePayload](envelope.Data); err == nil {
			r.router.StreamActivity(ctx, envelope.Event, p.StreamID, envelope.Data)
		}
	case event.StreamComment:
		if p, err := decode[event.StreamCommentPayload](envelope.Data); err == nil {
			r.router.StreamActivity(ctx, envelope.Event, p.StreamID, envelope.Data)
		}

	case event.NewPost:
		if p, err := decode[event.NewPostPayload](envelope.Data); err == nil {
			r.router.NewPost(ctx, sender, p)
		}
	case event.NewComment:
		if p, err := decode[event.NewCommentPayload](envelope.Data); err == nil {
			r.router.NewComment(ctx, p)
		}
	case event.DeleteComment:
		if p, err := decode[event.DeleteCommentPayload](envelope.Data); err == nil {
			r.router.DeleteComment(ctx, p)
		}
	case event.LikePost:
		if p, err := decode[event.LikePostPayload](envelope.Data); err == nil {
			r.router.LikePost(ctx, p)
		}
	case event.SharePost:
		if p, err := decode[event.SharePostPayload](envelope.Data); err == nil {
			r.router.SharePost(ctx, p)
		}
	case event.BookmarkPost:
		if p, err := decode[event.BookmarkPostPayload](envelope.Data); err == nil {
			r.router.BookmarkPost(ctx, p)
		}
	case event.AvatarUpdated:
		if p, err := decode[event.AvatarUpdatedPayload](envelope.Data); err == nil {
			r.router.AvatarUpdated(ctx, p)
		}
	case event.ProfileUpdated:
		if p, err := decode[event.ProfileUpdatedPayload](envelope.Data); err == nil {
			r.router.ProfileUpdated(ctx, p)
		}
	case event.FollowUser:
		if p, err := decode[event.FollowPayload](envelope.Data); err == nil {
			r.router.Follow(ctx, p)
		}
	case event.UnfollowUser:
		if p, err := decode[event.FollowPayload](envelope.Data); err == nil {
			r.router.Unfollow(ctx, p)
		}

	case event.SendMessage:
		if p, err := decode[event.SendMessagePayload](envelope.Data); err == nil {
			r.router.SendMessage(ctx, sender, p)
		}
	case event.MessageRead:
		if p, err := decode[event.MessageReadPayload](envelope.Data); err == nil {
			r.router.MessageRead(ctx, p)
		}
	case event.MessageReaction, event.MessageEdited, event.MessageDeleted:
		r.router.MessageMutation(ctx, sender, envelope.Event, envelope.Data)
	case event.Typing:
		if p, err := decode[event.TypingPayload](envelope.Data); err == nil {
			r.router.Typing(ctx, sender, p)
		}

	default:
		r.log.Debug("Unknown event ignored", "event", envelope.Event, "conn", connID)
	}
}

// handleJoin binds an identity to the connection, subscribes its inbox rooms,
// sends the online snapshot and publishes the online transition when this is
// the user's first connection. A second join on the same connection re-runs
// the binding idempotently.
func (r *Relay) handleJoin(ctx context.Context, connID string, c *conn, raw json.RawMessage) {
	payload, err := decode[event.JoinPayload](raw)
	if err != nil {
		r.log.Debug("Malformed join frame", "conn", connID, "error", err)
		return
	}

	userID := payload.UserID
	if payload.Token != "" && r.tokens.Enabled() {
		claims, err := r.tokens.Validate(payload.Token)
		if err != nil {
			r.log.Warn("Join token rejected, falling back to supplied id",
				"conn", connID, "error", err)
		} else {
			userID = claims.UserID
		}
	}
	if userID == "" {
		r.log.Debug("Join without user id ignored", "conn", connID)
		return
	}

	identity := r.resolver.Resolve(ctx, userID)

	r.mu.Lock()
	previous := *c
	c.identity = identity
	c.suppliedID = userID
	c.joined = true
	r.mu.Unlock()

	// A re-join under a different user must fully unbind the old one:
	// leave its inbox rooms and release its registry slot, or the old user
	// stays listed online with no live connection behind the entry.
	if previous.joined && previous.identity.CanonicalID != identity.CanonicalID {
		for _, room := range previous.identity.InboxRooms(previous.suppliedID) {
			r.rooms.Leave(connID, room)
		}
		if wasLast := r.registry.Remove(previous.identity.CanonicalID, connID); wasLast {
			r.presence.AnnounceOffline(ctx, previous.identity, time.Now())
		}
		r.log.Info("Connection rebound", "conn", connID,
			"from", previous.identity.CanonicalID, "to", identity.CanonicalID)
	}

	r.rooms.Join(connID, c.sink, identity.InboxRooms(userID)...)
	first := r.registry.Add(identity.CanonicalID, connID)

	// The snapshot is sent after registration so the joiner sees themselves.
	r.reply(ctx, c, event.InitialOnlineUsers, r.registry.OnlineUsers())

	if first {
		r.presence.AnnounceOnline(ctx, identity)
	}
	r.log.Info("User joined", "conn", connID, "user", identity.CanonicalID)
}

func (r *Relay) reply(ctx context.Context, c *conn, name string, payload any) {
	if err := c.sink.Consume(ctx, name, payload); err != nil {
		r.stats.IncrDroppedDeliveries()
	}
}

func decode[T any](raw json.RawMessage) (T, error) {
	var payload T
	if len(raw) == 0 {
		return payload, nil
	}
	err := json.Unmarshal(raw, &payload)
	return payload, err
}

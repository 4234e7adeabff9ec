package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"social-relay/contract"
	"social-relay/domain"
	"social-relay/domain/event"
	"social-relay/observability"
	"social-relay/repositories"
)

// Sender describes the connection that originated an inbound event. Handlers
// use it to reach the sender's other tabs (every connection of the same
// logical user shares the inbox rooms) and to reply directly on the
// originating socket.
type Sender struct {
	ConnID     string
	Sink       contract.EventSink
	Identity   domain.Identity
	SuppliedID string
}

// InboxRooms is the sender's own per-user room set.
func (s Sender) InboxRooms() []string {
	return s.Identity.InboxRooms(s.SuppliedID)
}

// Router applies the fixed fan-out rule of each inbound event type. It is
// stateless: all live state lives in the registry and the room multiplexer,
// all durable state in the repositories. Content handlers re-read documents
// from the store to build enriched payloads and fresh counts; they never
// compute counts by increment.
type Router struct {
	log           *slog.Logger
	rooms         contract.IRooms
	users         repositories.IUserRepository
	posts         repositories.IPostRepository
	notifications repositories.INotificationRepository
	stats         *observability.RelayStats
}

func NewRouter(
	log *slog.Logger,
	rooms contract.IRooms,
	users repositories.IUserRepository,
	posts repositories.IPostRepository,
	notifications repositories.INotificationRepository,
	stats *observability.RelayStats,
) *Router {
	return &Router{
		log:           log,
		rooms:         rooms,
		users:         users,
		posts:         posts,
		notifications: notifications,
		stats:         stats,
	}
}

// SendMessage forwards an already-persisted direct message to the recipient's
// inbox room and mirrors it to the sender's other tabs. If the message
// carries an id, the originating socket gets a delivery confirmation.
func (r *Router) SendMessage(ctx context.Context, sender Sender, payload event.SendMessagePayload) {
	r.rooms.Emit(ctx, domain.UserRoom(payload.ReceiverID), event.NewMessage, payload.Message)

	for _, room := range sender.InboxRooms() {
		r.rooms.EmitExcept(ctx, room, sender.ConnID, event.NewMessage, payload.Message)
	}

	if id := messageID(payload); id != "" {
		if err := sender.Sink.Consume(ctx, event.MessageDelivered, event.MessageDeliveredPayload{MessageID: id}); err != nil {
			r.stats.IncrDroppedDeliveries()
		}
	}
}

// messageID prefers the explicit field and falls back to an id embedded in
// the raw message document.
func messageID(payload event.SendMessagePayload) string {
	if payload.MessageID != "" {
		return payload.MessageID
	}
	var embedded struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(payload.Message, &embedded); err != nil {
		return ""
	}
	return embedded.ID
}

// Typing notifies the conversation partner and echoes to the sender's other
// tabs with the receiver context attached, so a multi-tab sender UI stays in
// sync. The partner sees the indicator exactly once; the echo excludes the
// originating socket.
func (r *Router) Typing(ctx context.Context, sender Sender, payload event.TypingPayload) {
	r.rooms.Emit(ctx, domain.UserRoom(payload.ReceiverID), event.Typing, event.TypingPayload{
		UserID:   payload.UserID,
		IsTyping: payload.IsTyping,
	})

	for _, room := range sender.InboxRooms() {
		r.rooms.EmitExcept(ctx, room, sender.ConnID, event.Typing, payload)
	}
}

// MessageRead routes a read receipt to the original sender. MessageID may be
// the sentinel "all", meaning every message of the conversation was read.
func (r *Router) MessageRead(ctx context.Context, payload event.MessageReadPayload) {
	r.rooms.Emit(ctx, domain.UserRoom(payload.SenderID), event.MessageRead, payload)
}

// MessageMutation forwards reaction/edit/delete events to both participants'
// inbox rooms: the receiver's, and the acting user's own rooms for multi-tab
// sync. The raw payload passes through untouched; persistence already
// happened in the caller.
func (r *Router) MessageMutation(ctx context.Context, sender Sender, name string, raw json.RawMessage) {
	var routing event.MessageMutationPayload
	if err := json.Unmarshal(raw, &routing); err != nil {
		r.log.Debug(fmt.Sprintf("Unroutable %s payload", name), "error", err)
		return
	}

	if routing.ReceiverID != "" {
		r.rooms.Emit(ctx, domain.UserRoom(routing.ReceiverID), name, raw)
	}
	for _, room := range sender.InboxRooms() {
		r.rooms.EmitExcept(ctx, room, sender.ConnID, name, raw)
	}
}

// postData is the enriched payload built for feed events.
type postData struct {
	Post   domain.Post    `json:"post"`
	Author domain.Summary `json:"author"`
}

// NewPost broadcasts a freshly persisted post globally for feed refresh,
// pushes it explicitly to every follower's inbox room and acknowledges the
// poster on their own socket.
func (r *Router) NewPost(ctx context.Context, sender Sender, payload event.NewPostPayload) {
	post, err := r.posts.GetPost(payload.PostID)
	if err != nil {
		r.log.Warn("Cannot enrich new_post, post lookup failed", "post", payload.PostID, "error", err)
		return
	}
	author, err := r.users.GetByID(post.AuthorID)
	if err != nil {
		// Degraded author: the feed refresh is still worth sending.
		author = domain.User{ID: post.AuthorID, Username: post.AuthorID}
	}
	data := postData{Post: post, Author: author.Summary()}

	r.rooms.EmitAll(ctx, event.NewPost, data)
	for _, followerID := range author.Followers {
		r.rooms.Emit(ctx, domain.UserRoom(followerID), event.NewPost, data)
	}
	if err := sender.Sink.Consume(ctx, event.PostCreated, data); err != nil {
		r.stats.IncrDroppedDeliveries()
	}
}

// NewComment pushes the enriched comment to the post owner's inbox (with a
// notification when the commenter is someone else) and to the post room with
// the re-read comment count.
func (r *Router) NewComment(ctx context.Context, payload event.NewCommentPayload) {
	comment, err := r.posts.GetComment(payload.CommentID)
	if err != nil {
		r.log.Warn("Cannot enrich new_comment, comment lookup failed", "comment", payload.CommentID, "error", err)
		return
	}
	post, err := r.posts.GetPost(payload.PostID)
	if err != nil {
		r.log.Warn("Cannot enrich new_comment, post lookup failed", "post", payload.PostID, "error", err)
		return
	}

	ownerRoom := domain.UserRoom(post.AuthorID)
	if payload.UserID != post.AuthorID {
		r.notify(ctx, domain.Notification{
			RecipientID: post.AuthorID,
			ActorID:     payload.UserID,
			Type:        domain.NotificationComment,
			Title:       "New comment",
			Message:     fmt.Sprintf("%s commented on your post", r.actorName(payload.UserID)),
			Link:        "/posts/" + post.ID,
		}, ownerRoom)
		r.rooms.Emit(ctx, ownerRoom, event.NewComment, comment)
	}

	r.rooms.Emit(ctx, domain.PostRoom(post.ID), event.CommentAdded, struct {
		Comment       domain.Comment `json:"comment"`
		CommentsCount int            `json:"commentsCount"`
	}{Comment: comment, CommentsCount: post.CommentsCount})
}

// DeleteComment refreshes the post room's count after a removal. No
// notification: deletions are housekeeping, not social signals.
func (r *Router) DeleteComment(ctx context.Context, payload event.DeleteCommentPayload) {
	count := 0
	if post, err := r.posts.GetPost(payload.PostID); err == nil {
		count = post.CommentsCount
	}
	r.rooms.Emit(ctx, domain.PostRoom(payload.PostID), event.CommentDeleted, struct {
		PostID        string `json:"postId"`
		CommentID     string `json:"commentId"`
		CommentsCount int    `json:"commentsCount"`
	}{PostID: payload.PostID, CommentID: payload.CommentID, CommentsCount: count})
}

// LikePost refreshes the post room with the store's like count and, on a like
// by someone other than the owner, notifies the owner. Unlikes never notify.
func (r *Router) LikePost(ctx context.Context, payload event.LikePostPayload) {
	post, err := r.posts.GetPost(payload.PostID)
	if err != nil {
		r.log.Warn("Cannot route like_post, post lookup failed", "post", payload.PostID, "error", err)
		return
	}

	update := struct {
		PostID     string `json:"postId"`
		UserID     string `json:"userId"`
		Liked      bool   `json:"liked"`
		LikesCount int    `json:"likesCount"`
	}{PostID: post.ID, UserID: payload.UserID, Liked: payload.Liked, LikesCount: post.LikesCount()}

	r.rooms.Emit(ctx, domain.PostRoom(post.ID), event.LikeUpdated, update)

	if payload.Liked && payload.UserID != post.AuthorID {
		ownerRoom := domain.UserRoom(post.AuthorID)
		r.notify(ctx, domain.Notification{
			RecipientID: post.AuthorID,
			ActorID:     payload.UserID,
			Type:        domain.NotificationLike,
			Title:       "New like",
			Message:     fmt.Sprintf("%s liked your post", r.actorName(payload.UserID)),
			Link:        "/posts/" + post.ID,
		}, ownerRoom)
		r.rooms.Emit(ctx, ownerRoom, event.PostLiked, update)
	}
}

// SharePost mirrors LikePost with the share count.
func (r *Router) SharePost(ctx context.Context, payload event.SharePostPayload) {
	post, err := r.posts.GetPost(payload.PostID)
	if err != nil {
		r.log.Warn("Cannot route share_post, post lookup failed", "post", payload.PostID, "error", err)
		return
	}

	update := struct {
		PostID      string `json:"postId"`
		UserID      string `json:"userId"`
		SharesCount int    `json:"sharesCount"`
	}{PostID: post.ID, UserID: payload.UserID, SharesCount: post.SharesCount}

	r.rooms.Emit(ctx, domain.PostRoom(post.ID), event.ShareUpdated, update)

	if payload.UserID != post.AuthorID {
		ownerRoom := domain.UserRoom(post.AuthorID)
		r.notify(ctx, domain.Notification{
			RecipientID: post.AuthorID,
			ActorID:     payload.UserID,
			Type:        domain.NotificationShare,
			Title:       "Post shared",
			Message:     fmt.Sprintf("%s shared your post", r.actorName(payload.UserID)),
			Link:        "/posts/" + post.ID,
		}, ownerRoom)
		r.rooms.Emit(ctx, ownerRoom, event.PostShared, update)
	}
}

// BookmarkPost is a pure room refresh; bookmarks are private, so no
// notification and no owner push.
func (r *Router) BookmarkPost(ctx context.Context, payload event.BookmarkPostPayload) {
	r.rooms.Emit(ctx, domain.PostRoom(payload.PostID), event.BookmarkUpdated, payload)
}

func (r *Router) AvatarUpdated(ctx context.Context, payload event.AvatarUpdatedPayload) {
	r.rooms.EmitAll(ctx, event.AvatarChanged, payload)
}

func (r *Router) ProfileUpdated(ctx context.Context, payload event.ProfileUpdatedPayload) {
	r.rooms.EmitAll(ctx, event.ProfileChanged, payload)
}

// Follow creates the durable notification and pushes both it and a
// new_follower event to the followed user's inbox. Following yourself is
// silently ignored.
func (r *Router) Follow(ctx context.Context, payload event.FollowPayload) {
	if payload.FollowerID == payload.FollowingID {
		return
	}

	room := domain.UserRoom(payload.FollowingID)
	follower, err := r.users.GetByID(payload.FollowerID)
	if err != nil {
		follower = domain.User{ID: payload.FollowerID, Username: payload.FollowerID}
	}

	r.notify(ctx, domain.Notification{
		RecipientID: payload.FollowingID,
		ActorID:     payload.FollowerID,
		Type:        domain.NotificationFollow,
		Title:       "New follower",
		Message:     fmt.Sprintf("%s started following you", follower.Username),
		Link:        "/profile/" + payload.FollowerID,
	}, room)

	r.rooms.Emit(ctx, room, event.NewFollower, struct {
		FollowerID string         `json:"followerId"`
		Follower   domain.Summary `json:"follower"`
	}{FollowerID: payload.FollowerID, Follower: follower.Summary()})
}

// Unfollow only informs the previously followed user; no notification record.
func (r *Router) Unfollow(ctx context.Context, payload event.FollowPayload) {
	r.rooms.Emit(ctx, domain.UserRoom(payload.FollowingID), event.Unfollowed, struct {
		FollowerID string `json:"followerId"`
	}{FollowerID: payload.FollowerID})
}

// StreamSignal relays WebRTC negotiation frames within a stream room,
// excluding the originating socket.
func (r *Router) StreamSignal(ctx context.Context, sender Sender, name string, payload event.StreamSignalPayload, raw json.RawMessage) {
	r.rooms.EmitExcept(ctx, domain.StreamRoom(payload.StreamID), sender.ConnID, name, raw)
}

// StreamActivity fans likes/comments out to every stream watcher, the
// sender's own tabs included.
func (r *Router) StreamActivity(ctx context.Context, name, streamID string, raw json.RawMessage) {
	r.rooms.Emit(ctx, domain.StreamRoom(streamID), name, raw)
}

// notify produces the two representations of one logical event: the durable
// record and the live push. A failed store write is logged and the live push
// still goes out (availability of the signal over consistency of the copy).
func (r *Router) notify(ctx context.Context, notification domain.Notification, inboxRoom string) {
	created, err := r.notifications.Create(notification)
	if err != nil {
		r.log.Warn("Failed to persist notification, pushing live copy only",
			"recipient", notification.RecipientID, "type", notification.Type, "error", err)
		created = notification
	} else {
		r.stats.IncrNotificationsCreated()
	}
	r.rooms.Emit(ctx, inboxRoom, event.Notification, created)
}

// actorName resolves a display name for notification text, degrading to the
// raw id when the record is missing.
func (r *Router) actorName(userID string) string {
	user, err := r.users.GetByID(userID)
	if err != nil || user.Username == "" {
		return userID
	}
	return user.Username
}

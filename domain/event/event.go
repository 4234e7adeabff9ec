// Package event defines the wire protocol of the relay: the envelope every
// frame carries, the inbound payload shapes and the outbound event names.
// Payloads are free-form JSON from trusted first-party clients; absent fields
// are handled with defaults in the router, never with validation errors.
package event

import "encoding/json"

// Envelope wraps every frame in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound event names.
const (
	Join              = "join"
	GetOnlineUsers    = "get_online_users"
	PingHeartbeat     = "ping_heartbeat"
	UpdatePresence    = "update_presence"
	CallUser          = "call_user"
	AnswerCall        = "answer_call"
	EndCall           = "end_call"
	JoinPost          = "join_post"
	LeavePost         = "leave_post"
	JoinConversation  = "join_conversation"
	LeaveConversation = "leave_conversation"
	JoinStream        = "join_stream"
	LeaveStream       = "leave_stream"
	StreamOffer       = "offer"
	StreamAnswer      = "answer"
	StreamICE         = "ice-candidate"
	StreamLike        = "stream_like"
	StreamComment     = "stream_comment"
	NewPost           = "new_post"
	NewComment        = "new_comment"
	DeleteComment     = "delete_comment"
	LikePost          = "like_post"
	SharePost         = "share_post"
	BookmarkPost      = "bookmark_post"
	AvatarUpdated     = "avatar_updated"
	ProfileUpdated    = "profile_updated"
	FollowUser        = "follow_user"
	UnfollowUser      = "unfollow_user"
	SendMessage       = "send_message"
	MessageRead       = "message_read"
	MessageReaction   = "message_reaction"
	MessageEdited     = "message_edited"
	MessageDeleted    = "message_deleted"
	Typing            = "typing"
)

// Outbound event names. Several inbound names are re-used verbatim on the way
// out (call_user, new_post, new_comment, typing, message_read, stream events).
const (
	PongHeartbeat      = "pong_heartbeat"
	InitialOnlineUsers = "initial_online_users"
	UserStatus         = "user_status"
	CallAccepted       = "call_accepted"
	CallEnded          = "call_ended"
	PostCreated        = "post_created"
	CommentAdded       = "comment_added"
	CommentDeleted     = "comment_deleted"
	PostLiked          = "post_liked"
	LikeUpdated        = "like_updated"
	PostShared         = "post_shared"
	ShareUpdated       = "share_updated"
	BookmarkUpdated    = "bookmark_updated"
	AvatarChanged      = "avatar_changed"
	ProfileChanged     = "profile_changed"
	NewFollower        = "new_follower"
	Unfollowed         = "unfollowed"
	NewMessage         = "new_message"
	MessageDelivered   = "message_delivered"
	Notification       = "notification"
)

// BulkReadSentinel marks a message_read covering every message of the
// conversation rather than a single one.
const BulkReadSentinel = "all"

// JoinPayload identifies the user behind a new connection. Token is optional;
// when present and valid its claims override UserID.
type JoinPayload struct {
	UserID string `json:"userId"`
	Token  string `json:"token,omitempty"`
}

type UpdatePresencePayload struct {
	Status string `json:"status"`
}

type CallUserPayload struct {
	UserToCall string          `json:"userToCall"`
	SignalData json.RawMessage `json:"signalData,omitempty"`
	From       string          `json:"from"`
	Name       string          `json:"name,omitempty"`
	Avatar     string          `json:"avatar,omitempty"`
	IsVideo    bool            `json:"isVideo,omitempty"`
}

type AnswerCallPayload struct {
	To     string          `json:"to"`
	Signal json.RawMessage `json:"signal,omitempty"`
}

type EndCallPayload struct {
	To string `json:"to"`
}

type PostRefPayload struct {
	PostID string `json:"postId"`
}

type ConversationPayload struct {
	ID string `json:"id"`
}

type StreamPayload struct {
	StreamID string `json:"streamId"`
	IsHost   bool   `json:"isHost,omitempty"`
}

type StreamSignalPayload struct {
	StreamID string          `json:"streamId"`
	Signal   json.RawMessage `json:"signal,omitempty"`
	From     string          `json:"from,omitempty"`
}

type StreamLikePayload struct {
	StreamID string `json:"streamId"`
	UserID   string `json:"userId,omitempty"`
}

type StreamCommentPayload struct {
	StreamID string          `json:"streamId"`
	User     json.RawMessage `json:"user,omitempty"`
	Message  string          `json:"message"`
}

type NewPostPayload struct {
	PostID string `json:"postId"`
	UserID string `json:"userId"`
}

type NewCommentPayload struct {
	CommentID string `json:"commentId"`
	PostID    string `json:"postId"`
	UserID    string `json:"userId"`
}

type DeleteCommentPayload struct {
	PostID    string `json:"postId"`
	CommentID string `json:"commentId"`
}

type LikePostPayload struct {
	PostID string `json:"postId"`
	UserID string `json:"userId"`
	Liked  bool   `json:"liked"`
}

type SharePostPayload struct {
	PostID string `json:"postId"`
	UserID string `json:"userId"`
}

type BookmarkPostPayload struct {
	PostID     string `json:"postId"`
	UserID     string `json:"userId"`
	Bookmarked bool   `json:"bookmarked"`
}

type AvatarUpdatedPayload struct {
	UserID string `json:"userId"`
	Avatar string `json:"avatar"`
}

type ProfileUpdatedPayload struct {
	UserID  string          `json:"userId"`
	Profile json.RawMessage `json:"profile,omitempty"`
}

type FollowPayload struct {
	FollowerID  string `json:"followerId"`
	FollowingID string `json:"followingId"`
}

// SendMessagePayload carries a message already persisted by the caller.
// The relay forwards it verbatim; MessageID (when set) triggers the
// delivery confirmation back to the sender.
type SendMessagePayload struct {
	Message    json.RawMessage `json:"message,omitempty"`
	ReceiverID string          `json:"receiverId"`
	MessageID  string          `json:"messageId,omitempty"`
}

type MessageReadPayload struct {
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
	SenderID  string `json:"senderId"`
}

// MessageMutationPayload is the routing subset of reaction/edit/delete
// payloads; the full raw payload is forwarded untouched.
type MessageMutationPayload struct {
	MessageID  string `json:"messageId"`
	UserID     string `json:"userId"`
	ReceiverID string `json:"receiverId"`
}

type TypingPayload struct {
	UserID     string `json:"userId"`
	IsTyping   bool   `json:"isTyping"`
	ReceiverID string `json:"receiverId"`
}

type MessageDeliveredPayload struct {
	MessageID string `json:"messageId"`
}

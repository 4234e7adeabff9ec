package runtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"social-relay/domain"
	"social-relay/domain/event"
	"social-relay/observability"
)

type routerHarness struct {
	router        *Router
	rooms         *Rooms
	users         *fakeUserRepo
	posts         *fakePostRepo
	notifications *fakeNotificationRepo

	sender    *fakeSink // alice, originating socket
	senderTab *fakeSink // alice, second tab
	receiver  *fakeSink // bob
	watcher   *fakeSink // anonymous post room member
}

func newRouterHarness() *routerHarness {
	h := &routerHarness{
		rooms:         newTestRooms(),
		users:         newFakeUserRepo(domain.User{ID: "alice", Username: "Alice"}, domain.User{ID: "bob", Username: "Bob"}),
		posts:         newFakePostRepo(),
		notifications: &fakeNotificationRepo{},
		sender:        &fakeSink{},
		senderTab:     &fakeSink{},
		receiver:      &fakeSink{},
		watcher:       &fakeSink{},
	}
	h.rooms.Join("conn-sender", h.sender, "user:alice")
	h.rooms.Join("conn-tab", h.senderTab, "user:alice")
	h.rooms.Join("conn-receiver", h.receiver, "user:bob")
	h.rooms.Join("conn-watcher", h.watcher, "post:42")
	h.router = NewRouter(slog.Default(), h.rooms, h.users, h.posts, h.notifications, observability.NewRelayStats())
	return h
}

func (h *routerHarness) aliceSender() Sender {
	return Sender{ConnID: "conn-sender", Sink: h.sender, Identity: domain.Identity{CanonicalID: "alice"}, SuppliedID: "alice"}
}

func TestRouter_SendMessage(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	h := newRouterHarness()

	message := json.RawMessage(`{"id":"m-1","text":"hi"}`)

	// When alice sends bob a message from one tab
	h.router.SendMessage(ctx, h.aliceSender(), event.SendMessagePayload{
		Message:    message,
		ReceiverID: "bob",
	})

	// Then bob receives it
	req.Equal(1, h.receiver.count(event.NewMessage))

	// And alice's other tab mirrors it while the originating socket does not
	req.Equal(1, h.senderTab.count(event.NewMessage))
	req.Zero(h.sender.count(event.NewMessage))

	// And the embedded id triggers a delivery confirmation to the origin only
	req.Equal(1, h.sender.count(event.MessageDelivered))
	payload, _ := h.sender.last(event.MessageDelivered)
	req.Equal("m-1", payload.(event.MessageDeliveredPayload).MessageID)
	req.Zero(h.senderTab.count(event.MessageDelivered))
}

func TestRouter_SendMessageWithoutIDSkipsConfirmation(t *testing.T) {
	req := require.New(t)
	h := newRouterHarness()

	h.router.SendMessage(context.Background(), h.aliceSender(), event.SendMessagePayload{
		Message:    json.RawMessage(`{"text":"hi"}`),
		ReceiverID: "bob",
	})

	req.Zero(h.sender.count(event.MessageDelivered))
}

func TestRouter_TypingExcludesOriginAndEchoesTabs(t *testing.T) {
	req := require.New(t)
	h := newRouterHarness()

	// When alice starts typing to bob
	h.router.Typing(context.Background(), h.aliceSender(), event.TypingPayload{
		UserID:     "alice",
		IsTyping:   true,
		ReceiverID: "bob",
	})

	// Then bob sees the indicator exactly once, without receiver context
	req.Equal(1, h.receiver.count(event.Typing))
	payload, _ := h.receiver.last(event.Typing)
	req.Empty(payload.(event.TypingPayload).ReceiverID)

	// And alice's other tab gets the echo with the receiver attached
	req.Equal(1, h.senderTab.count(event.Typing))
	echo, _ := h.senderTab.last(event.Typing)
	req.Equal("bob", echo.(event.TypingPayload).ReceiverID)

	req.Zero(h.sender.count(event.Typing))
}

func TestRouter_MessageReadRoutesToOriginalSender(t *testing.T) {
	req := require.New(t)
	h := newRouterHarness()

	// When alice marks a whole conversation read
	h.router.MessageRead(context.Background(), event.MessageReadPayload{
		MessageID: event.BulkReadSentinel,
		UserID:    "alice",
		SenderID:  "bob",
	})

	// Then the receipt reaches bob with the sentinel intact
	req.Equal(1, h.receiver.count(event.MessageRead))
	payload, _ := h.receiver.last(event.MessageRead)
	req.Equal(event.BulkReadSentinel, payload.(event.MessageReadPayload).MessageID)
}

func TestRouter_MessageMutationReachesBothSides(t *testing.T) {
	req := require.New(t)
	h := newRouterHarness()
	raw := json.RawMessage(`{"messageId":"m-1","userId":"alice","receiverId":"bob","emoji":"+1"}`)

	h.router.MessageMutation(context.Background(), h.aliceSender(), event.MessageReaction, raw)

	req.Equal(1, h.receiver.count(event.MessageReaction))
	req.Equal(1, h.senderTab.count(event.MessageReaction))
	req.Zero(h.sender.count(event.MessageReaction))
}

func TestRouter_NewCommentNotifiesOwnerAndRefreshesRoom(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	h := newRouterHarness()

	req.NoError(h.posts.SavePost(domain.Post{ID: "42", AuthorID: "bob", CommentsCount: 3}))
	req.NoError(h.posts.SaveComment(domain.Comment{ID: "c-1", PostID: "42", AuthorID: "alice", Text: "nice"}))

	// When alice comments on bob's post
	h.router.NewComment(ctx, event.NewCommentPayload{CommentID: "c-1", PostID: "42", UserID: "alice"})

	// Then bob gets a durable notification plus the live pushes
	req.Len(h.notifications.created, 1)
	req.Equal("bob", h.notifications.created[0].RecipientID)
	req.Equal(domain.NotificationComment, h.notifications.created[0].Type)
	req.Equal(1, h.receiver.count(event.Notification))
	req.Equal(1, h.receiver.count(event.NewComment))

	// And the post room gets the re-read count
	req.Equal(1, h.watcher.count(event.CommentAdded))
}

func TestRouter_OwnCommentCreatesNoNotification(t *testing.T) {
	req := require.New(t)
	h := newRouterHarness()

	req.NoError(h.posts.SavePost(domain.Post{ID: "42", AuthorID: "alice"}))
	req.NoError(h.posts.SaveComment(domain.Comment{ID: "c-1", PostID: "42", AuthorID: "alice"}))

	// When alice comments on her own post
	h.router.NewComment(context.Background(), event.NewCommentPayload{CommentID: "c-1", PostID: "42", UserID: "alice"})

	// Then no notification exists but the room refresh still happens
	req.Empty(h.notifications.created)
	req.Equal(1, h.watcher.count(event.CommentAdded))
}

func TestRouter_LikeNotifiesOnlyOnLike(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	h := newRouterHarness()

	req.NoError(h.posts.SavePost(domain.Post{ID: "42", AuthorID: "bob", Likes: []string{"alice"}}))

	// When alice likes bob's post
	h.router.LikePost(ctx, event.LikePostPayload{PostID: "42", UserID: "alice", Liked: true})

	// Then the room sees the fresh count and bob is notified
	req.Equal(1, h.watcher.count(event.LikeUpdated))
	req.Len(h.notifications.created, 1)
	req.Equal(domain.NotificationLike, h.notifications.created[0].Type)
	req.Equal(1, h.receiver.count(event.PostLiked))

	// When she unlikes it
	h.router.LikePost(ctx, event.LikePostPayload{PostID: "42", UserID: "alice", Liked: false})

	// Then the room refresh repeats but no second notification appears
	req.Equal(2, h.watcher.count(event.LikeUpdated))
	req.Len(h.notifications.created, 1)
}

func TestRouter_NewPostFansOutGloballyAndToFollowers(t *testing.T) {
	req := require.New(t)
	h := newRouterHarness()

	req.NoError(h.users.SaveUser(domain.User{ID: "alice", Username: "Alice", Followers: []string{"bob"}}))
	req.NoError(h.posts.SavePost(domain.Post{ID: "99", AuthorID: "alice", Caption: "hello"}))

	// When alice publishes a post
	h.router.NewPost(context.Background(), h.aliceSender(), event.NewPostPayload{PostID: "99", UserID: "alice"})

	// Then every connection gets the feed refresh
	req.Equal(1, h.watcher.count(event.NewPost))

	// Follower bob gets the global push plus the targeted one
	req.Equal(2, h.receiver.count(event.NewPost))

	// And the poster's origin socket is acknowledged
	req.Equal(1, h.sender.count(event.PostCreated))
	payload, _ := h.sender.last(event.PostCreated)
	req.Equal("Alice", payload.(postData).Author.Username)
}

func TestRouter_NewPostMissingDocumentIsDropped(t *testing.T) {
	req := require.New(t)
	h := newRouterHarness()

	// When the post cannot be read back
	h.router.NewPost(context.Background(), h.aliceSender(), event.NewPostPayload{PostID: "missing", UserID: "alice"})

	// Then nothing is emitted anywhere
	req.Zero(h.watcher.count(event.NewPost))
	req.Zero(h.sender.count(event.PostCreated))
}

func TestRouter_FollowAndUnfollow(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	h := newRouterHarness()

	// When alice follows bob
	h.router.Follow(ctx, event.FollowPayload{FollowerID: "alice", FollowingID: "bob"})

	// Then bob gets the durable notification and the live event
	req.Len(h.notifications.created, 1)
	req.Equal(domain.NotificationFollow, h.notifications.created[0].Type)
	req.Equal(1, h.receiver.count(event.Notification))
	req.Equal(1, h.receiver.count(event.NewFollower))

	// When she unfollows him
	h.router.Unfollow(ctx, event.FollowPayload{FollowerID: "alice", FollowingID: "bob"})

	// Then only the live event fires, no notification record
	req.Equal(1, h.receiver.count(event.Unfollowed))
	req.Len(h.notifications.created, 1)
}

func TestRouter_SelfFollowIgnored(t *testing.T) {
	req := require.New(t)
	h := newRouterHarness()

	h.router.Follow(context.Background(), event.FollowPayload{FollowerID: "alice", FollowingID: "alice"})

	req.Empty(h.notifications.created)
	req.Zero(h.sender.count(event.NewFollower))
}

func TestRouter_NotificationStoreFailureStillPushesLive(t *testing.T) {
	req := require.New(t)
	h := newRouterHarness()
	h.notifications.fail = true

	h.router.Follow(context.Background(), event.FollowPayload{FollowerID: "alice", FollowingID: "bob"})

	// Durable copy lost, live copy delivered anyway
	req.Empty(h.notifications.created)
	req.Equal(1, h.receiver.count(event.Notification))
}

func TestRouter_StreamSignalExcludesOrigin(t *testing.T) {
	req := require.New(t)
	h := newRouterHarness()
	host, viewer := &fakeSink{}, &fakeSink{}
	h.rooms.Join("conn-host", host, "stream:live-1")
	h.rooms.Join("conn-viewer", viewer, "stream:live-1")

	sender := Sender{ConnID: "conn-host", Sink: host, Identity: domain.Identity{CanonicalID: "alice"}, SuppliedID: "alice"}
	raw := json.RawMessage(`{"streamId":"live-1","signal":{"sdp":"offer"}}`)

	h.router.StreamSignal(context.Background(), sender, event.StreamOffer, event.StreamSignalPayload{StreamID: "live-1"}, raw)

	req.Zero(host.count(event.StreamOffer))
	req.Equal(1, viewer.count(event.StreamOffer))
}

func TestRouter_StreamActivityReachesWholeRoom(t *testing.T) {
	req := require.New(t)
	h := newRouterHarness()
	host, viewer := &fakeSink{}, &fakeSink{}
	h.rooms.Join("conn-host", host, "stream:live-1")
	h.rooms.Join("conn-viewer", viewer, "stream:live-1")

	h.router.StreamActivity(context.Background(), event.StreamComment, "live-1", json.RawMessage(`{"streamId":"live-1","message":"gg"}`))

	req.Equal(1, host.count(event.StreamComment))
	req.Equal(1, viewer.count(event.StreamComment))
}

func TestRouter_ProfileBroadcastsAreGlobal(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	h := newRouterHarness()

	h.router.AvatarUpdated(ctx, event.AvatarUpdatedPayload{UserID: "alice", Avatar: "a.png"})
	h.router.ProfileUpdated(ctx, event.ProfileUpdatedPayload{UserID: "alice"})

	for _, sink := range []*fakeSink{h.sender, h.senderTab, h.receiver, h.watcher} {
		req.Equal(1, sink.count(event.AvatarChanged))
		req.Equal(1, sink.count(event.ProfileChanged))
	}
}

package runtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"social-relay/domain"
	relayerrors "social-relay/errors"
)

// sunkEvent is one delivery captured by fakeSink.
type sunkEvent struct {
	name    string
	payload any
}

type fakeSink struct {
	mu     sync.Mutex
	fail   bool
	events []sunkEvent
}

func (s *fakeSink) Consume(_ context.Context, name string, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return fmt.Errorf("sink closed")
	}
	s.events = append(s.events, sunkEvent{name: name, payload: payload})
	return nil
}

func (s *fakeSink) count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, e := range s.events {
		if e.name == name {
			total++
		}
	}
	return total
}

func (s *fakeSink) last(name string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].name == name {
			return s.events[i].payload, true
		}
	}
	return nil, false
}

type presenceWrite struct {
	userID   string
	online   bool
	lastSeen *time.Time
}

type fakeUserRepo struct {
	mu             sync.Mutex
	users          map[string]domain.User
	failAll        bool
	presenceWrites []presenceWrite
}

func newFakeUserRepo(users ...domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]domain.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) SaveUser(user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(id string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return domain.User{}, fmt.Errorf("store unavailable")
	}
	user, ok := r.users[id]
	if !ok {
		return domain.User{}, relayerrors.ErrUserNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByExternalID(externalID string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return domain.User{}, fmt.Errorf("store unavailable")
	}
	for _, user := range r.users {
		if user.ExternalID == externalID {
			return user, nil
		}
	}
	return domain.User{}, relayerrors.ErrUserNotFound
}

func (r *fakeUserRepo) SetPresence(id string, online bool, lastSeen *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.presenceWrites = append(r.presenceWrites, presenceWrite{userID: id, online: online, lastSeen: lastSeen})
	user := r.users[id]
	user.ID = id
	user.IsOnline = online
	user.LastSeen = lastSeen
	r.users[id] = user
	return nil
}

type fakePostRepo struct {
	mu       sync.Mutex
	posts    map[string]domain.Post
	comments map[string]domain.Comment
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[string]domain.Post), comments: make(map[string]domain.Comment)}
}

func (r *fakePostRepo) SavePost(post domain.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts[post.ID] = post
	return nil
}

func (r *fakePostRepo) GetPost(id string) (domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return domain.Post{}, relayerrors.ErrPostNotFound
	}
	return post, nil
}

func (r *fakePostRepo) SaveComment(comment domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.comments[comment.ID] = comment
	return nil
}

func (r *fakePostRepo) GetComment(id string) (domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	comment, ok := r.comments[id]
	if !ok {
		return domain.Comment{}, relayerrors.ErrCommentNotFound
	}
	return comment, nil
}

type fakeNotificationRepo struct {
	mu      sync.Mutex
	fail    bool
	created []domain.Notification
}

func (r *fakeNotificationRepo) Create(notification domain.Notification) (domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return domain.Notification{}, fmt.Errorf("store unavailable")
	}
	if notification.ID == "" {
		notification.ID = fmt.Sprintf("n-%d", len(r.created)+1)
	}
	notification.CreatedAt = time.Now().UTC()
	r.created = append(r.created, notification)
	return notification, nil
}

func (r *fakeNotificationRepo) ListForRecipient(recipientID string) ([]domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Notification
	for _, n := range r.created {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out, nil
}

// Package runtime hosts the relay's live state and dispatch machinery:
// connection registry, room multiplexer, identity resolution, presence,
// event routing and call signaling. It contains no transport or storage
// details beyond the repository interfaces it consumes.
package runtime

import (
	"sync"
)

type Set map[string]struct{}

// Registry is the in-memory map from canonical user id to the set of live
// connection ids. A user with zero connections has no entry at all: absence
// of an entry is the canonical offline signal, and an entry with an empty
// set must never persist.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Set
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Set)}
}

// Add records a connection for a user and reports whether it is the user's
// first. Idempotent per (user, conn) pair.
func (r *Registry) Add(userID, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[userID]
	if !ok {
		r.conns[userID] = Set{connID: {}}
		return true
	}
	set[connID] = struct{}{}
	return false
}

// Remove drops a connection from the user's set and reports whether it was
// the last one. The empty set is removed in the same critical section, so no
// interleaved Add can observe a user with zero connections.
func (r *Registry) Remove(userID, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[userID]
	if !ok {
		return false
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(r.conns, userID)
		return true
	}
	return false
}

// OnlineUsers returns the canonical ids currently holding at least one
// connection. This is the snapshot sent to every newly joined connection.
func (r *Registry) OnlineUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.conns))
	for userID := range r.conns {
		users = append(users, userID)
	}
	return users
}

func (r *Registry) Contains(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[userID]
	return ok
}

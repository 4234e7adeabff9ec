package domain

import "time"

// Status is a user's presence label as broadcast to other clients.
type Status string

const (
	StatusOnline  Status = "online"
	StatusAway    Status = "away"
	StatusOffline Status = "offline"
)

// ValidHint reports whether a client-supplied soft status may be broadcast.
// Offline is excluded: it is a connectivity fact derived from the registry,
// never a client claim.
func (s Status) ValidHint() bool {
	return s == StatusOnline || s == StatusAway
}

// UserStatus is the payload of the user_status broadcast.
// LastSeen is only set on the offline transition.
type UserStatus struct {
	UserID   string     `json:"userId"`
	Status   Status     `json:"status"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}

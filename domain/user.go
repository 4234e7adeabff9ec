package domain

import "time"

// User is the subset of the persisted user entity the relay reads and
// writes. The document is owned by the wider application; the relay is the
// sole writer of IsOnline and LastSeen and a reader of everything else.
type User struct {
	ID         string     `json:"id"`
	ExternalID string     `json:"externalId,omitempty"`
	Username   string     `json:"username"`
	Avatar     string     `json:"avatar,omitempty"`
	IsOnline   bool       `json:"isOnline"`
	LastSeen   *time.Time `json:"lastSeen,omitempty"`
	Followers  []string   `json:"followers,omitempty"`
}

// Summary is the compact user shape embedded in enriched event payloads.
type Summary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

func (u User) Summary() Summary {
	return Summary{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
}

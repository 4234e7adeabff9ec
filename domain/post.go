package domain

import "time"

// Post is the relay's read-only view of a post document. Counts are always
// re-read from the store after a mutation has been persisted by the caller;
// the relay never increments them itself.
type Post struct {
	ID            string    `json:"id"`
	AuthorID      string    `json:"authorId"`
	Caption       string    `json:"caption,omitempty"`
	Likes         []string  `json:"likes,omitempty"`
	CommentsCount int       `json:"commentsCount"`
	SharesCount   int       `json:"sharesCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// LikesCount is derived from the likes array so a stale counter field can
// never disagree with the membership list.
func (p Post) LikesCount() int { return len(p.Likes) }

// Comment is the relay's read-only view of a comment document.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	AuthorID  string    `json:"authorId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

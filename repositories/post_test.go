package repositories

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"social-relay/domain"
	relayerrors "social-relay/errors"
)

func TestPostRepository_SaveAndGetPost(t *testing.T) {
	req := require.New(t)
	repo := NewPostRepository(newTestDB(t))

	post := domain.Post{
		ID:            uuid.NewString(),
		AuthorID:      "alice",
		Caption:       "sunset",
		Likes:         []string{"bob", "carol"},
		CommentsCount: 7,
		SharesCount:   2,
		CreatedAt:     time.Now().UTC().Truncate(time.Millisecond),
	}

	req.NoError(repo.SavePost(post))

	got, err := repo.GetPost(post.ID)
	req.NoError(err)
	req.Equal(post.AuthorID, got.AuthorID)
	req.Equal(2, got.LikesCount())
	req.Equal(7, got.CommentsCount)
}

func TestPostRepository_SaveAndGetComment(t *testing.T) {
	req := require.New(t)
	repo := NewPostRepository(newTestDB(t))

	comment := domain.Comment{
		ID:       uuid.NewString(),
		PostID:   "42",
		AuthorID: "alice",
		Text:     "nice shot",
	}

	req.NoError(repo.SaveComment(comment))

	got, err := repo.GetComment(comment.ID)
	req.NoError(err)
	req.Equal(comment.Text, got.Text)
	req.Equal("42", got.PostID)
}

func TestPostRepository_NotFound(t *testing.T) {
	req := require.New(t)
	repo := NewPostRepository(newTestDB(t))

	_, err := repo.GetPost("missing")
	req.ErrorIs(err, relayerrors.ErrPostNotFound)

	_, err = repo.GetComment("missing")
	req.ErrorIs(err, relayerrors.ErrCommentNotFound)
}

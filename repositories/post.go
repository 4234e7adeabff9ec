//go:generate go run go.uber.org/mock/mockgen -source=post.go -destination=../mocks/mock_post_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"social-relay/domain"
	"social-relay/errors"
)

type IPostRepository interface {
	SavePost(post domain.Post) error
	GetPost(id string) (domain.Post, error)
	SaveComment(comment domain.Comment) error
	GetComment(id string) (domain.Comment, error)
}

// PostRepository reads post and comment documents from BadgerDB.
// The wider application owns the mutations; the relay re-reads documents to
// build enriched payloads and fresh counts after a caller has persisted a
// change, so counters never drift from idempotent store-side guards.
type PostRepository struct {
	db *badger.DB
}

func NewPostRepository(db *badger.DB) *PostRepository {
	return &PostRepository{db: db}
}

func postKey(id string) []byte { return []byte("post:" + id) }

func commentKey(id string) []byte { return []byte("comment:" + id) }

func (p *PostRepository) SavePost(post domain.Post) error {
	data, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("marshal post %s: %w", post.ID, err)
	}
	return p.db.Update(func(txn *badger.Txn) error {
		return txn.Set(postKey(post.ID), data)
	})
}

func (p *PostRepository) GetPost(id string) (domain.Post, error) {
	var post domain.Post
	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(postKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &post)
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.Post{}, errors.ErrPostNotFound
	}
	return post, err
}

func (p *PostRepository) SaveComment(comment domain.Comment) error {
	data, err := json.Marshal(comment)
	if err != nil {
		return fmt.Errorf("marshal comment %s: %w", comment.ID, err)
	}
	return p.db.Update(func(txn *badger.Txn) error {
		return txn.Set(commentKey(comment.ID), data)
	})
}

func (p *PostRepository) GetComment(id string) (domain.Comment, error) {
	var comment domain.Comment
	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(commentKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &comment)
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.Comment{}, errors.ErrCommentNotFound
	}
	return comment, err
}

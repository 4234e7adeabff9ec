//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"social-relay/domain"
	"social-relay/errors"
)

type IUserRepository interface {
	SaveUser(user domain.User) error
	GetByID(id string) (domain.User, error)
	GetByExternalID(externalID string) (domain.User, error)
	SetPresence(id string, online bool, lastSeen *time.Time) error
}

// UserRepository reads and writes user documents in BadgerDB.
// Primary key: "user:{id}". A secondary index "user_ext:{externalId}" maps an
// external/provider id back to the canonical id so either scheme resolves to
// the same document.
type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

func userKey(id string) []byte { return []byte("user:" + id) }

func userExtKey(externalID string) []byte { return []byte("user_ext:" + externalID) }

// SaveUser persists the document and maintains the external-id index.
// Documents are stored as JSON: the relay's protocol is free-form JSON and the
// store is shared with callers that read the same shape.
func (u *UserRepository) SaveUser(user domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user %s: %w", user.ID, err)
	}
	return u.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(userKey(user.ID), data); err != nil {
			return err
		}
		if user.ExternalID != "" && user.ExternalID != user.ID {
			return txn.Set(userExtKey(user.ExternalID), []byte(user.ID))
		}
		return nil
	})
}

func (u *UserRepository) GetByID(id string) (domain.User, error) {
	var user domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.User{}, errors.ErrUserNotFound
	}
	return user, err
}

// GetByExternalID resolves the secondary index first, then loads the document
// under its canonical key.
func (u *UserRepository) GetByExternalID(externalID string) (domain.User, error) {
	var canonicalID string
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userExtKey(externalID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			canonicalID = string(val)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.User{}, errors.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	return u.GetByID(canonicalID)
}

// SetPresence is a read-modify-write of the two presence fields. The relay is
// their sole writer, so last-write-wins is acceptable; no lock is held across
// the round-trip.
func (u *UserRepository) SetPresence(id string, online bool, lastSeen *time.Time) error {
	return u.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if err == badger.ErrKeyNotFound {
			return errors.ErrUserNotFound
		}
		if err != nil {
			return err
		}
		var user domain.User
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		}); err != nil {
			return err
		}
		user.IsOnline = online
		if lastSeen != nil {
			user.LastSeen = lastSeen
		}
		data, err := json.Marshal(user)
		if err != nil {
			return err
		}
		return txn.Set(userKey(id), data)
	})
}

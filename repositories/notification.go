//go:generate go run go.uber.org/mock/mockgen -source=notification.go -destination=../mocks/mock_notification_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"social-relay/domain"
)

type INotificationRepository interface {
	Create(notification domain.Notification) (domain.Notification, error)
	ListForRecipient(recipientID string) ([]domain.Notification, error)
}

// NotificationRepository appends notification documents to BadgerDB.
// The key is "notification:{recipient}:{timestamp_padded}:{uuid}" so a prefix
// scan per recipient returns them in chronological order; the 19-digit zero
// padding keeps lexicographic and time order aligned, and the UUID
// disambiguates two notifications created in the same nanosecond.
type NotificationRepository struct {
	db *badger.DB
}

func NewNotificationRepository(db *badger.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create is insert-only. Missing ID, CreatedAt and the initial unread flag
// are filled here so callers only describe the event.
func (n *NotificationRepository) Create(notification domain.Notification) (domain.Notification, error) {
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	notification.Read = false

	key := fmt.Sprintf("notification:%s:%019d:%s",
		notification.RecipientID,
		notification.CreatedAt.UnixNano(),
		notification.ID,
	)
	data, err := json.Marshal(notification)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("marshal notification %s: %w", notification.ID, err)
	}
	err = n.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	return notification, err
}

// ListForRecipient scans the recipient's prefix, newest first.
func (n *NotificationRepository) ListForRecipient(recipientID string) ([]domain.Notification, error) {
	var notifications []domain.Notification
	err := n.db.View(func(txn *badger.Txn) error {
		prefix := []byte("notification:" + recipientID + ":")
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Reverse iteration seeks past the last possible key for the prefix.
		seekKey := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var notification domain.Notification
				if err := json.Unmarshal(val, &notification); err != nil {
					return err
				}
				notifications = append(notifications, notification)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return notifications, err
}

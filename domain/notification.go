package domain

import "time"

// NotificationType tags the action that produced a notification.
type NotificationType string

const (
	NotificationComment NotificationType = "comment"
	NotificationLike    NotificationType = "like"
	NotificationShare   NotificationType = "share"
	NotificationFollow  NotificationType = "follow"
)

// Notification is the durable record created as a side effect of certain
// routed events. The durable copy and the live push to the recipient's inbox
// room are two representations of the same logical event: whenever the
// trigger condition holds (actor is not the content owner), both are produced.
type Notification struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"recipientId"`
	ActorID     string           `json:"actorId"`
	Type        NotificationType `json:"type"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Link        string           `json:"link,omitempty"`
	Read        bool             `json:"read"`
	CreatedAt   time.Time        `json:"createdAt"`
}

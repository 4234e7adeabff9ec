package services

import (
	"context"

	"social-relay/contract"
	"social-relay/domain"
	"social-relay/domain/event"
	"social-relay/repositories"
	"social-relay/runtime"
)

// IRelayService is the surface the transport layer talks to. It hides the
// runtime wiring behind connection-scoped calls plus the read endpoints the
// HTTP side exposes.
type IRelayService interface {
	Connect(connID string, sink contract.EventSink)
	Disconnect(ctx context.Context, connID string)
	HandleEvent(ctx context.Context, connID string, envelope event.Envelope)
	OnlineUsers() []string
	Notifications(recipientID string) ([]domain.Notification, error)
}

type RelayService struct {
	relay         *runtime.Relay
	registry      contract.IRegistry
	notifications repositories.INotificationRepository
}

func NewRelayService(relay *runtime.Relay, registry contract.IRegistry, notifications repositories.INotificationRepository) *RelayService {
	return &RelayService{relay: relay, registry: registry, notifications: notifications}
}

func (s *RelayService) Connect(connID string, sink contract.EventSink) {
	s.relay.Connect(connID, sink)
}

func (s *RelayService) Disconnect(ctx context.Context, connID string) {
	s.relay.Disconnect(ctx, connID)
}

func (s *RelayService) HandleEvent(ctx context.Context, connID string, envelope event.Envelope) {
	s.relay.HandleEvent(ctx, connID, envelope)
}

func (s *RelayService) OnlineUsers() []string {
	return s.registry.OnlineUsers()
}

func (s *RelayService) Notifications(recipientID string) ([]domain.Notification, error) {
	return s.notifications.ListForRecipient(recipientID)
}

package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"social-relay/contract"
	"social-relay/domain"
	"social-relay/domain/event"
	"social-relay/repositories"
)

// Presence publishes online/offline transitions and advisory status hints.
// It writes the two persisted presence fields (the relay is their sole
// writer) and broadcasts user_status for every id variant, since downstream
// consumers may be keyed on either scheme.
type Presence struct {
	users repositories.IUserRepository
	rooms contract.IRooms
	log   *slog.Logger
}

func NewPresence(log *slog.Logger, users repositories.IUserRepository, rooms contract.IRooms) *Presence {
	return &Presence{users: users, rooms: rooms, log: log}
}

// AnnounceOnline runs on the registry's empty-to-non-empty transition.
// The store write is conditional: if the record already says online (e.g. a
// reconnect racing a slow offline settle elsewhere), it is skipped. The
// broadcast still goes out; a failed store write only loses the durable copy,
// never the live signal.
func (p *Presence) AnnounceOnline(ctx context.Context, identity domain.Identity) {
	user, err := p.users.GetByID(identity.CanonicalID)
	switch {
	case err != nil:
		p.log.Debug(fmt.Sprintf("No stored record for %s, skipping presence write", identity.CanonicalID), "error", err)
	case !user.IsOnline:
		if err := p.users.SetPresence(identity.CanonicalID, true, nil); err != nil {
			p.log.Warn("Failed to persist online status", "user", identity.CanonicalID, "error", err)
		}
	}

	p.broadcast(ctx, identity, domain.StatusOnline, nil)
}

// AnnounceOffline runs on the non-empty-to-empty transition.
func (p *Presence) AnnounceOffline(ctx context.Context, identity domain.Identity, lastSeen time.Time) {
	if err := p.users.SetPresence(identity.CanonicalID, false, &lastSeen); err != nil {
		p.log.Warn("Failed to persist offline status", "user", identity.CanonicalID, "error", err)
	}
	p.broadcast(ctx, identity, domain.StatusOffline, &lastSeen)
}

// AnnounceHint broadcasts a client-driven soft status (tab idle, back to
// active). It never touches the registry or the persisted fields: away is
// advisory, not a connectivity fact.
func (p *Presence) AnnounceHint(ctx context.Context, identity domain.Identity, status domain.Status) {
	if !status.ValidHint() {
		p.log.Debug(fmt.Sprintf("Ignoring invalid presence hint %q for %s", status, identity.CanonicalID))
		return
	}
	p.broadcast(ctx, identity, status, nil)
}

// broadcast emits user_status once per id variant: consumers keyed on the
// external id must see the same transition as those keyed on the canonical id.
func (p *Presence) broadcast(ctx context.Context, identity domain.Identity, status domain.Status, lastSeen *time.Time) {
	for _, id := range identity.Variants() {
		p.rooms.EmitAll(ctx, event.UserStatus, domain.UserStatus{
			UserID:   id,
			Status:   status,
			LastSeen: lastSeen,
		})
	}
}

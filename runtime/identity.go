package runtime

import (
	"context"
	"errors"
	"log/slog"

	"social-relay/domain"
	relayerrors "social-relay/errors"
	"social-relay/repositories"
)

// Resolver maps a caller-supplied id to the canonical/external identity pair.
// Callers may address a user by either id scheme depending on call site; all
// room naming downstream goes through the Identity this produces.
type Resolver struct {
	users repositories.IUserRepository
	log   *slog.Logger
}

func NewResolver(log *slog.Logger, users repositories.IUserRepository) *Resolver {
	return &Resolver{users: users, log: log}
}

// Resolve looks the id up as a primary key first, then as an external id.
// When neither matches, the supplied id itself becomes canonical: rejecting
// it would drop legitimate events from the window between account creation
// and the first full profile read, so "user not found" is never an error
// here. Store failures degrade the same way.
func (r *Resolver) Resolve(ctx context.Context, suppliedID string) domain.Identity {
	user, err := r.users.GetByID(suppliedID)
	if err == nil {
		return identityOf(user)
	}
	if !errors.Is(err, relayerrors.ErrUserNotFound) {
		r.log.Warn("Identity lookup by primary id failed, falling back", "user", suppliedID, "error", err)
		return domain.Fallback(suppliedID)
	}

	user, err = r.users.GetByExternalID(suppliedID)
	if err == nil {
		return identityOf(user)
	}
	if !errors.Is(err, relayerrors.ErrUserNotFound) {
		r.log.Warn("Identity lookup by external id failed, falling back", "user", suppliedID, "error", err)
	}
	return domain.Fallback(suppliedID)
}

func identityOf(user domain.User) domain.Identity {
	identity := domain.Identity{CanonicalID: user.ID}
	if user.ExternalID != "" && user.ExternalID != user.ID {
		identity.ExternalID = user.ExternalID
	}
	return identity
}

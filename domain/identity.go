// Package domain contains the core concepts of the relay:
// identities, rooms, presence and the documents the relay reads or writes.
// No transport, storage or runtime logic should be added here.
package domain

// Identity is the resolved pair of identifiers for a logical user.
// CanonicalID is the document store's primary id and the authoritative
// room-naming key. ExternalID is an optional secondary id (for example an
// OAuth provider subject) that some callers use instead; it is empty when
// the user has none or when resolution fell back to the supplied id.
type Identity struct {
	CanonicalID string
	ExternalID  string
}

// Fallback builds the degraded identity used when no user record matches a
// supplied id: the supplied id itself becomes canonical.
func Fallback(suppliedID string) Identity {
	return Identity{CanonicalID: suppliedID}
}

// Variants returns the distinct id strings under which this user may be
// addressed: the canonical id and, when different, the external id.
func (i Identity) Variants() []string {
	if i.ExternalID == "" || i.ExternalID == i.CanonicalID {
		return []string{i.CanonicalID}
	}
	return []string{i.CanonicalID, i.ExternalID}
}

// InboxRooms returns the per-user rooms a connection must join: one room per
// id variant, plus the literal supplied id. The supplied-id join covers
// callers that address a user before resolution has normalized the id.
// Duplicates are removed.
func (i Identity) InboxRooms(suppliedID string) []string {
	seen := make(map[string]struct{}, 3)
	var rooms []string
	for _, id := range append(i.Variants(), suppliedID) {
		if id == "" {
			continue
		}
		room := UserRoom(id)
		if _, ok := seen[room]; ok {
			continue
		}
		seen[room] = struct{}{}
		rooms = append(rooms, room)
	}
	return rooms
}

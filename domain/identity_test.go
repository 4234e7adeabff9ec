package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIdentity_Variants(t *testing.T) {
	req := require.New(t)

	tests := []struct {
		description string
		identity    Identity
		want        []string
	}{
		{
			"Should list both schemes when they differ",
			Identity{CanonicalID: "alice", ExternalID: "oauth-alice"},
			[]string{"alice", "oauth-alice"},
		},
		{
			"Should collapse when external equals canonical",
			Identity{CanonicalID: "alice", ExternalID: "alice"},
			[]string{"alice"},
		},
		{
			"Should degrade to canonical only",
			Fallback("stranger"),
			[]string{"stranger"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			req.Equal(tt.want, tt.identity.Variants())
		})
	}
}

func TestIdentity_InboxRooms(t *testing.T) {
	req := require.New(t)

	// A fully resolved identity joined under a third alias gets three rooms
	identity := Identity{CanonicalID: "alice", ExternalID: "oauth-alice"}
	rooms := identity.InboxRooms("legacy-alice")
	req.Equal([]string{"user:alice", "user:oauth-alice", "user:legacy-alice"}, rooms)

	// The supplied id deduplicates against the variants
	rooms = identity.InboxRooms("alice")
	req.Equal([]string{"user:alice", "user:oauth-alice"}, rooms)

	// An empty supplied id contributes nothing
	rooms = Fallback("bob").InboxRooms("")
	req.Equal([]string{"user:bob"}, rooms)
}

func TestStatus_ValidHint(t *testing.T) {
	req := require.New(t)

	req.True(StatusOnline.ValidHint())
	req.True(StatusAway.ValidHint())
	req.False(StatusOffline.ValidHint())
	req.False(Status("busy").ValidHint())
}

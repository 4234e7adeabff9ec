package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokens_GenerateAndValidate(t *testing.T) {
	req := require.New(t)
	tokens := NewTokens("test-secret", time.Hour)

	// When a token is generated for alice
	token, err := tokens.Generate("alice")
	req.NoError(err)
	req.NotEmpty(token)

	// Then validation returns her claims
	claims, err := tokens.Validate(token)
	req.NoError(err)
	req.Equal("alice", claims.UserID)
}

func TestTokens_RejectsWrongSecret(t *testing.T) {
	req := require.New(t)
	tokens := NewTokens("test-secret", time.Hour)
	other := NewTokens("other-secret", time.Hour)

	token, err := tokens.Generate("alice")
	req.NoError(err)

	_, err = other.Validate(token)
	req.Error(err)
}

func TestTokens_RejectsExpired(t *testing.T) {
	req := require.New(t)
	tokens := NewTokens("test-secret", -time.Minute)

	token, err := tokens.Generate("alice")
	req.NoError(err)

	_, err = tokens.Validate(token)
	req.Error(err)
}

func TestTokens_RejectsGarbage(t *testing.T) {
	req := require.New(t)
	tokens := NewTokens("test-secret", time.Hour)

	_, err := tokens.Validate("not-a-jwt")
	req.Error(err)
}

func TestTokens_EnabledOnlyWithSecret(t *testing.T) {
	req := require.New(t)

	req.True(NewTokens("secret", time.Hour).Enabled())
	req.False(NewTokens("", time.Hour).Enabled())

	var nilTokens *Tokens
	req.False(nilTokens.Enabled())
}

package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	relayerrors "social-relay/errors"
)

// CustomClaims defines the structure of the data stored inside the JWT.
type CustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Tokens signs and validates the join tokens first-party clients present on
// connect. The secret comes from configuration; an empty secret disables
// validation entirely.
type Tokens struct {
	key      []byte
	duration time.Duration
}

func NewTokens(secret string, duration time.Duration) *Tokens {
	return &Tokens{key: []byte(secret), duration: duration}
}

// Enabled reports whether a signing secret is configured.
func (t *Tokens) Enabled() bool {
	return t != nil && len(t.key) > 0
}

// Generate creates a signed JWT for a specific user.
func (t *Tokens) Generate(userID string) (string, error) {
	claims := &CustomClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(t.duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "social-relay",
		},
	}

	// HS256, HMAC with SHA256.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.key)
}

// Validate parses the token and checks its signature and expiration.
func (t *Tokens) Validate(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return t.key, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, relayerrors.ErrInvalidToken
}

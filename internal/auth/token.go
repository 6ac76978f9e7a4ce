package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Claims represents the parts of the backend's access token the client reads.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenInfo is what the client can learn from a token without the signing key.
type TokenInfo struct {
	Username  string
	Role      string
	ExpiresAt time.Time // zero when the token carries no exp claim
}

// Expired reports whether the token's exp has passed. Tokens without exp never expire locally.
func (t TokenInfo) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// ErrMalformedToken is returned for tokens that are not parseable JWTs.
var ErrMalformedToken = errors.New("malformed token")

// Inspect reads claims from token without verifying its signature. Only the backend
// holds the key; the client uses exp to avoid sending requests it knows will be refused.
func Inspect(token string) (TokenInfo, error) {
	if token == "" {
		return TokenInfo{}, ErrMalformedToken
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{}, ErrMalformedToken
	}

	info := TokenInfo{Username: claims.Username, Role: claims.Role}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}

// Usable reports whether token is present and, if it is a JWT, not expired.
// Opaque tokens are passed through; the backend's 401 is the final word on those.
func Usable(token string, now time.Time) bool {
	if token == "" {
		return false
	}
	info, err := Inspect(token)
	if err != nil {
		return strings.Count(token, ".") != 2
	}
	return !info.Expired(now)
}

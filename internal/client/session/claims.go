package session

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the decoded content of the bearer credential.
// The zero value means "no identity".
type Claims struct {
	Subject   string `json:"sub"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// Expired reports whether the credential expiry lies before now.
// Credentials without an expiry never expire client-side.
func (c Claims) Expired(now time.Time) bool {
	if c.ExpiresAt == 0 {
		return false
	}
	return now.Unix() >= c.ExpiresAt
}

// ParseClaims decodes the payload segment of a token WITHOUT verifying its
// signature or looking at its header. Verification is the backend's job;
// the client only needs to know who it is.
// ok is false for an empty or malformed token.
func ParseClaims(token string) (Claims, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Claims{}, false
	}

	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return Claims{}, false
	}

	var registered jwt.RegisteredClaims
	if err := json.Unmarshal(payload, &registered); err != nil {
		return Claims{}, false
	}

	claims := Claims{Subject: registered.Subject}
	if registered.IssuedAt != nil {
		claims.IssuedAt = registered.IssuedAt.Unix()
	}
	if registered.ExpiresAt != nil {
		claims.ExpiresAt = registered.ExpiresAt.Unix()
	}

	return claims, true
}

package auth

import (
	"crypto/subtle"
	"errors"
	"strings"
)

var (
	// ErrMissingCredential indicates the Authorization header was absent or not a bearer header.
	ErrMissingCredential = errors.New("auth: bearer credential required")
	// ErrInvalidCredential indicates a bearer token was presented but does not match the configured secret.
	ErrInvalidCredential = errors.New("auth: invalid bearer credential")
	errEmptySecret       = errors.New("auth: api token must not be empty")
)

// TokenGate authorizes requests by comparing a presented bearer token
// against one configured shared secret. There is no session state, no
// expiry, and no rate limiting.
type TokenGate struct {
	secret []byte
}

// NewTokenGate constructs a gate around the configured API token.
func NewTokenGate(secret string) (*TokenGate, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errEmptySecret
	}
	return &TokenGate{secret: []byte(secret)}, nil
}

// Authorize checks the raw Authorization header value. It distinguishes
// an absent or malformed header (ErrMissingCredential) from a
// well-formed header carrying the wrong token (ErrInvalidCredential).
func (g *TokenGate) Authorize(header string) error {
	if !strings.HasPrefix(header, "Bearer ") {
		return ErrMissingCredential
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return ErrMissingCredential
	}
	if subtle.ConstantTimeCompare([]byte(token), g.secret) != 1 {
		return ErrInvalidCredential
	}
	return nil
}

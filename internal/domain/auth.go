package domain

import (
	"context"
	"time"
)

// TokenKind distinguishes access from refresh tokens. The two are signed with
// the same key; the kind inside the claims is what keeps them apart, so a
// refresh token is never accepted where an access token is required.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// Claims is the decoded payload of a signed token.
type Claims struct {
	Subject   string
	Email     string
	FirstName string
	LastName  string
	Roles     []string
	Kind      TokenKind
}

// HasRole reports whether the claims role set contains code.
func (c *Claims) HasRole(code string) bool {
	for _, r := range c.Roles {
		if r == code {
			return true
		}
	}
	return false
}

// TokenPair is a freshly issued access+refresh token couple.
type TokenPair struct {
	Access  string
	Refresh string
}

// TokenCodec issues and verifies signed expiring claim bundles. Stateless
// beyond the read-only signing secret.
type TokenCodec interface {
	Issue(claims *Claims, kind TokenKind, ttl time.Duration) (string, error)
	// Verify returns ErrInvalidToken for signature mismatch, malformed
	// structure, or expiry, without telling the caller which one it was.
	Verify(token string) (*Claims, error)
}

// PasswordHasher hashes and verifies passwords. The encoded form
// self-describes salt and parameters.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	// Verify returns false (never panics) on a malformed stored hash.
	Verify(encoded, plain string) bool
}

// Registration carries the fields a user submits when redeeming an invitation.
// Email and roles come from the invitation, never from the payload.
type Registration struct {
	FirstName  string
	LastName   string
	Password   string
	StudyGroup string
	Telephone  string
}

// AuthService defines login, token refresh, and invitation-based registration.
type AuthService interface {
	// Login failure is uniform ErrUnauthenticated regardless of whether the
	// email exists or the password mismatched.
	Login(ctx context.Context, email, password string) (*User, *TokenPair, error)
	// Refresh requires a refresh-kind token and re-issues a pair carrying the
	// same claims (roles are as encoded at login time; stale until re-login).
	Refresh(ctx context.Context, refreshToken string) (*Claims, *TokenPair, error)
	Register(ctx context.Context, invitationID string, reg Registration) (*User, error)
	// EnsureAdmin creates the bootstrap admin account if it does not exist.
	EnsureAdmin(ctx context.Context, email, password string) error
}

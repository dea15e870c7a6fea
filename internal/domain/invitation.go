package domain

import (
	"context"
	"time"
)

// Invitation represents an email invited to register, carrying the role set
// the new account will be granted. At most one unexpired invitation exists
// per email; re-inviting is possible only after expiry or supersession.
// swagger:model Invitation
type Invitation struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Roles     []string  `json:"roles"`
	ExpiresAt time.Time `json:"expires_at"`
}

// InvitationRepository defines storage operations for invitations.
type InvitationRepository interface {
	// ListActiveEmails returns which of the given emails already have an
	// unexpired invitation.
	ListActiveEmails(ctx context.Context, emails []string) ([]string, error)
	// CreateBatch inserts all invitations and calls publish with the created
	// rows (ids assigned) inside the same transaction, before commit. If
	// publish fails the whole batch is rolled back: a crash anywhere in
	// between leaves no committed row without its stream entry.
	CreateBatch(ctx context.Context, invs []*Invitation, publish func(ctx context.Context, created []*Invitation) error) error
	// GetActive returns the unexpired invitation with the given id, or
	// ErrNotFound.
	GetActive(ctx context.Context, id string) (*Invitation, error)
	// ExtendExpiry pushes the invitation's expiry to the given time.
	ExtendExpiry(ctx context.Context, id string, until time.Time) error
	// Expire marks the invitation as used by setting its expiry to now.
	Expire(ctx context.Context, id string) error
}

// InvitationService defines the invitation business logic.
type InvitationService interface {
	// SendInvitations enqueues invitation emails for the given addresses.
	// Emails with a registered account fail the whole batch with a conflict;
	// emails with an unexpired invitation are silently skipped. Returns the
	// number of newly enqueued invitations; 0 is a valid outcome.
	SendInvitations(ctx context.Context, sender *Claims, emails, roles []string) (int, error)
	// Get returns the unexpired invitation and extends its expiry so the
	// registration page stays usable while the visitor fills the form.
	Get(ctx context.Context, id string) (*Invitation, error)
}

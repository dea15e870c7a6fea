package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ideahub/internal/domain"
)

const (
	// invitationExpiry is the validity window of a fresh invitation.
	invitationExpiry = 24 * time.Hour
	// invitationViewExtension is how far the expiry is pushed when the
	// registration page fetches the invitation, so the visitor has time to
	// fill the form.
	invitationViewExtension = 3 * time.Hour
)

type invitationService struct {
	invitationRepo domain.InvitationRepository
	userRepo       domain.UserRepository
	stream         domain.InvitationStream
}

// NewInvitationService creates an InvitationService over the given
// repositories and work stream.
func NewInvitationService(invitationRepo domain.InvitationRepository, userRepo domain.UserRepository, stream domain.InvitationStream) domain.InvitationService {
	return &invitationService{
		invitationRepo: invitationRepo,
		userRepo:       userRepo,
		stream:         stream,
	}
}

// SendInvitations is the outbox producer. The whole batch is rejected with a
// conflict if any address already has an account; addresses with an unexpired
// invitation are skipped (re-inviting them is not an error, just a no-op).
// The remaining invitations are inserted and their stream entries appended as
// one atomic unit; the count of newly enqueued invitations is returned, and 0
// means everything had been invited before.
func (s *invitationService) SendInvitations(ctx context.Context, sender *domain.Claims, emails, roles []string) (int, error) {
	normalized := make([]string, 0, len(emails))
	seen := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		email = strings.TrimSpace(strings.ToLower(email))
		if email == "" {
			continue
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		normalized = append(normalized, email)
	}
	if len(normalized) == 0 {
		return 0, domain.Conflictf("no valid emails in request")
	}
	for _, role := range roles {
		if !domain.ValidRole(role) {
			return 0, domain.Conflictf("unknown role: %s", role)
		}
	}

	registered, err := s.userRepo.ListEmails(ctx, normalized)
	if err != nil {
		return 0, fmt.Errorf("failed to check existing users: %w", err)
	}
	if len(registered) > 0 {
		return 0, domain.Conflictf("emails already registered: %s", strings.Join(registered, ", "))
	}

	invited, err := s.invitationRepo.ListActiveEmails(ctx, normalized)
	if err != nil {
		return 0, fmt.Errorf("failed to check existing invitations: %w", err)
	}
	alreadyInvited := make(map[string]struct{}, len(invited))
	for _, email := range invited {
		alreadyInvited[email] = struct{}{}
	}

	expiry := time.Now().Add(invitationExpiry)
	var invs []*domain.Invitation
	for _, email := range normalized {
		if _, ok := alreadyInvited[email]; ok {
			continue
		}
		invs = append(invs, &domain.Invitation{
			Email:     email,
			Roles:     roles,
			ExpiresAt: expiry,
		})
	}
	if len(invs) == 0 {
		return 0, nil
	}

	err = s.invitationRepo.CreateBatch(ctx, invs, func(ctx context.Context, created []*domain.Invitation) error {
		msgs := make([]*domain.StreamMessage, len(created))
		for i, inv := range created {
			msgs[i] = &domain.StreamMessage{
				InvitationID:    inv.ID,
				Receiver:        inv.Email,
				SenderFirstName: sender.FirstName,
				SenderLastName:  sender.LastName,
			}
		}
		return s.stream.Append(ctx, msgs...)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue invitations: %w", err)
	}
	return len(invs), nil
}

// Get returns the unexpired invitation with the given id and extends its
// expiry so the registration window stays open while the form is filled.
func (s *invitationService) Get(ctx context.Context, id string) (*domain.Invitation, error) {
	inv, err := s.invitationRepo.GetActive(ctx, id)
	if err != nil {
		return nil, err
	}
	until := time.Now().Add(invitationViewExtension)
	if err := s.invitationRepo.ExtendExpiry(ctx, inv.ID, until); err != nil {
		return nil, fmt.Errorf("failed to extend invitation expiry: %w", err)
	}
	inv.ExpiresAt = until
	return inv, nil
}

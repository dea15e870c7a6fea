package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"ideahub/internal/domain"
)

const minPasswordLen = 8

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type authService struct {
	userRepo       domain.UserRepository
	invitationRepo domain.InvitationRepository
	codec          domain.TokenCodec
	hasher         domain.PasswordHasher
	accessExpiry   time.Duration
	refreshExpiry  time.Duration
	logger         *slog.Logger
}

// NewAuthService creates an AuthService with the given repositories, token
// codec, and password hasher.
func NewAuthService(userRepo domain.UserRepository, invitationRepo domain.InvitationRepository, codec domain.TokenCodec, hasher domain.PasswordHasher, accessExpiry, refreshExpiry time.Duration, logger *slog.Logger) domain.AuthService {
	return &authService{
		userRepo:       userRepo,
		invitationRepo: invitationRepo,
		codec:          codec,
		hasher:         hasher,
		accessExpiry:   accessExpiry,
		refreshExpiry:  refreshExpiry,
		logger:         logger,
	}
}

// Login authenticates by email and password. Every failure is the same
// ErrUnauthenticated: the caller cannot tell an unknown email from a wrong
// password or a deactivated account.
func (s *authService) Login(ctx context.Context, email, password string) (*domain.User, *domain.TokenPair, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrUnauthenticated
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.IsDeleted || !s.hasher.Verify(user.PasswordHash, password) {
		return nil, nil, domain.ErrUnauthenticated
	}

	pair, err := s.issuePair(claimsFor(user))
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh validates a refresh-kind token and re-issues a fresh pair with the
// same claims. Roles are whatever the token carried at login; a role change
// only takes effect after the next login.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*domain.Claims, *domain.TokenPair, error) {
	claims, err := s.codec.Verify(refreshToken)
	if err != nil {
		return nil, nil, domain.ErrInvalidToken
	}
	if claims.Kind != domain.TokenKindRefresh {
		return nil, nil, domain.ErrInvalidToken
	}

	pair, err := s.issuePair(claims)
	if err != nil {
		return nil, nil, err
	}
	return claims, pair, nil
}

// Register redeems an unexpired invitation: the new account takes the
// invitation's email and role set, never anything from the request payload.
// The invitation is expired afterwards so it cannot be redeemed twice.
func (s *authService) Register(ctx context.Context, invitationID string, reg domain.Registration) (*domain.User, error) {
	if len(reg.Password) < minPasswordLen {
		return nil, domain.Conflictf("password must be at least %d characters", minPasswordLen)
	}
	inv, err := s.invitationRepo.GetActive(ctx, invitationID)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Email:        strings.ToLower(inv.Email),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(reg.FirstName),
		LastName:     strings.TrimSpace(reg.LastName),
		StudyGroup:   strings.TrimSpace(reg.StudyGroup),
		Telephone:    strings.TrimSpace(reg.Telephone),
		Roles:        inv.Roles,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, domain.Conflictf("email already registered: %s", user.Email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// Supersede the invitation. Best effort: the account exists either way,
	// and an unexpired leftover dies on its own within the expiry window.
	if err := s.invitationRepo.Expire(ctx, inv.ID); err != nil {
		s.logger.Error("failed to expire redeemed invitation", "invitation_id", inv.ID, "err", err)
	}

	return user, nil
}

// EnsureAdmin creates the bootstrap admin account on startup if it is
// missing. Safe to call on every boot.
func (s *authService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if !emailRegexp.MatchString(email) {
		return fmt.Errorf("invalid admin email %q", email)
	}
	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("failed to look up admin user: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	admin := &domain.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Portal",
		LastName:     "Admin",
		Roles:        []string{domain.RoleAdmin, domain.RoleInitiator},
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		// Lost a race with a concurrent boot; the account exists.
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil
		}
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	s.logger.Info("bootstrap admin created", "email", email)
	return nil
}

func (s *authService) issuePair(claims *domain.Claims) (*domain.TokenPair, error) {
	access, err := s.codec.Issue(claims, domain.TokenKindAccess, s.accessExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	refresh, err := s.codec.Issue(claims, domain.TokenKindRefresh, s.refreshExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}
	return &domain.TokenPair{Access: access, Refresh: refresh}, nil
}

func claimsFor(user *domain.User) *domain.Claims {
	return &domain.Claims{
		Subject:   user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Roles:     user.Roles,
	}
}

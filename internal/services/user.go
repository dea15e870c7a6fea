package services

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"ideahub/internal/domain"
)

const verificationCodeExpiry = 10 * time.Minute

type userService struct {
	userRepo     domain.UserRepository
	codeRepo     domain.VerificationCodeRepository
	hasher       domain.PasswordHasher
	emailService domain.EmailService
}

// NewUserService creates a UserService with the given repositories, password
// hasher, and email service.
func NewUserService(userRepo domain.UserRepository, codeRepo domain.VerificationCodeRepository, hasher domain.PasswordHasher, emailService domain.EmailService) domain.UserService {
	return &userService{
		userRepo:     userRepo,
		codeRepo:     codeRepo,
		hasher:       hasher,
		emailService: emailService,
	}
}

func (s *userService) List(ctx context.Context, p domain.PaginationParams) ([]*domain.User, int, error) {
	users, total, err := s.userRepo.List(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, upd domain.ProfileUpdate) error {
	upd.FirstName = strings.TrimSpace(upd.FirstName)
	upd.LastName = strings.TrimSpace(upd.LastName)
	upd.StudyGroup = strings.TrimSpace(upd.StudyGroup)
	upd.Telephone = strings.TrimSpace(upd.Telephone)
	if err := s.userRepo.UpdateProfile(ctx, userID, upd); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

func (s *userService) Delete(ctx context.Context, id string) error {
	return s.userRepo.SetDeleted(ctx, id, true)
}

func (s *userService) Restore(ctx context.Context, id string) error {
	return s.userRepo.SetDeleted(ctx, id, false)
}

// RequestPasswordReset issues a one-time code for an existing account. The
// repository expires prior active codes for the email atomically with the
// insert; the plaintext code leaves the process only inside the email.
func (s *userService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if _, err := s.userRepo.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", err
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	code, err := s.createCode(ctx, email)
	if err != nil {
		return "", err
	}
	if err := s.emailService.SendPasswordResetCode(ctx, &domain.VerificationCodeEmailData{
		Email:            email,
		Code:             code.plain,
		ExpiresInMinutes: int(verificationCodeExpiry.Minutes()),
	}); err != nil {
		return "", fmt.Errorf("failed to send password reset code: %w", err)
	}
	return code.id, nil
}

// RequestEmailChange issues a one-time code bound to the address the caller
// wants to move to. The code goes to the new address, proving its ownership.
func (s *userService) RequestEmailChange(ctx context.Context, claims *domain.Claims, newEmail string) (string, error) {
	newEmail = strings.TrimSpace(strings.ToLower(newEmail))
	if !emailRegexp.MatchString(newEmail) {
		return "", domain.Conflictf("invalid email format")
	}
	if _, err := s.userRepo.GetByEmail(ctx, newEmail); err == nil {
		return "", domain.Conflictf("email already registered: %s", newEmail)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return "", fmt.Errorf("failed to check email: %w", err)
	}

	code, err := s.createCode(ctx, newEmail)
	if err != nil {
		return "", err
	}
	if err := s.emailService.SendEmailChangeCode(ctx, &domain.VerificationCodeEmailData{
		Email:            newEmail,
		Code:             code.plain,
		ExpiresInMinutes: int(verificationCodeExpiry.Minutes()),
	}); err != nil {
		return "", fmt.Errorf("failed to send email change code: %w", err)
	}
	return code.id, nil
}

// ConfirmPasswordReset checks the submitted code and, on match, sets the new
// password and expires the code family in one transaction.
func (s *userService) ConfirmPasswordReset(ctx context.Context, codeID, code, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return domain.Conflictf("password must be at least %d characters", minPasswordLen)
	}
	vc, err := s.checkCode(ctx, codeID, code)
	if err != nil {
		return err
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.codeRepo.ConsumeWithPasswordUpdate(ctx, vc, hash); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to apply password reset: %w", err)
	}
	return nil
}

// ConfirmEmailChange checks the submitted code and, on match, moves the
// caller's account to the code's email and expires the code family in one
// transaction.
func (s *userService) ConfirmEmailChange(ctx context.Context, claims *domain.Claims, codeID, code string) error {
	vc, err := s.checkCode(ctx, codeID, code)
	if err != nil {
		return err
	}
	if err := s.codeRepo.ConsumeWithEmailUpdate(ctx, vc, strings.ToLower(claims.Email)); err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrDuplicateEmail) {
			return err
		}
		return fmt.Errorf("failed to apply email change: %w", err)
	}
	return nil
}

// checkCode runs the shared confirm gauntlet. Order matters: the attempt cap
// is checked before the comparison, so a correct code after three wrong tries
// still fails with ErrTooManyAttempts. A mismatch increments the counter
// before returning, and the increment is not part of any rolled-back
// transaction.
func (s *userService) checkCode(ctx context.Context, codeID, code string) (*domain.VerificationCode, error) {
	vc, err := s.codeRepo.GetByID(ctx, codeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get verification code: %w", err)
	}
	if vc.Expired(time.Now()) {
		return nil, domain.ErrCodeExpired
	}
	if vc.WrongTries >= domain.MaxWrongTries {
		return nil, domain.ErrTooManyAttempts
	}
	if !s.hasher.Verify(vc.CodeHash, code) {
		if err := s.codeRepo.IncrementWrongTries(ctx, vc.ID); err != nil {
			return nil, fmt.Errorf("failed to record wrong attempt: %w", err)
		}
		return nil, domain.ErrWrongCode
	}
	return vc, nil
}

type issuedCode struct {
	id    string
	plain string
}

func (s *userService) createCode(ctx context.Context, email string) (*issuedCode, error) {
	plain, err := generateVerificationCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}
	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return nil, fmt.Errorf("failed to hash code: %w", err)
	}
	vc := &domain.VerificationCode{
		Email:     email,
		CodeHash:  hash,
		ExpiresAt: time.Now().Add(verificationCodeExpiry),
	}
	if err := s.codeRepo.Create(ctx, vc); err != nil {
		return nil, fmt.Errorf("failed to store verification code: %w", err)
	}
	return &issuedCode{id: vc.ID, plain: plain}, nil
}

// generateVerificationCode returns a crypto-random 6-digit code in
// [100000, 999999], so it never has a leading zero.
func generateVerificationCode() (string, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	n := binary.BigEndian.Uint32(buf[:])
	return fmt.Sprintf("%06d", 100_000+n%900_000), nil
}

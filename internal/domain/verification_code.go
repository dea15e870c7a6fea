package domain

import (
	"context"
	"time"
)

// MaxWrongTries is the wrong-attempt cap for a verification code. A code at
// the cap is permanently rejected even if still unexpired and even if the
// next submission is correct.
const MaxWrongTries = 3

// VerificationCode is a short-lived one-time code bound to an email. The
// plaintext 6-digit code is only ever sent by mail; the row stores its hash.
// Codes are destroyed logically via expiry, never deleted.
type VerificationCode struct {
	ID         string
	Email      string
	CodeHash   string
	ExpiresAt  time.Time
	WrongTries int
}

// Expired reports whether the code is past its expiry at the given time.
func (c *VerificationCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// VerificationCodeRepository defines storage operations for verification
// codes. Create and the Consume* methods are transactional all-or-nothing.
type VerificationCodeRepository interface {
	// Create expires all active codes for code.Email and inserts the new row
	// in one transaction, so at most one code per email is active. Sets
	// code.ID on success.
	Create(ctx context.Context, code *VerificationCode) error
	GetByID(ctx context.Context, id string) (*VerificationCode, error)
	// IncrementWrongTries persists a failed attempt. Runs outside any
	// surrounding failure handling: the counter survives the error path.
	IncrementWrongTries(ctx context.Context, id string) error
	// ConsumeWithPasswordUpdate sets the password hash of the user owning
	// code.Email and expires all active codes for that email, in one
	// transaction.
	ConsumeWithPasswordUpdate(ctx context.Context, code *VerificationCode, passwordHash string) error
	// ConsumeWithEmailUpdate moves the user currently at currentEmail to
	// code.Email and expires all active codes for code.Email, in one
	// transaction.
	ConsumeWithEmailUpdate(ctx context.Context, code *VerificationCode, currentEmail string) error
}

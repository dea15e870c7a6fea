package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services. Controllers map these to HTTP
// status codes; services wrap unexpected failures with fmt.Errorf("...: %w").
var (
	// ErrUnauthenticated covers missing credentials and failed logins.
	// Deliberately uniform: callers must not learn which check failed.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidToken covers malformed, tampered, expired, or wrong-kind tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrForbidden means a valid identity lacks the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound means the referenced entity is absent or expired.
	ErrNotFound = errors.New("not found")

	// ErrCodeExpired means a verification code is past its expiry.
	ErrCodeExpired = errors.New("verification code expired")
	// ErrTooManyAttempts means a verification code hit the wrong-attempt cap.
	// It wins over everything else, including a later correct submission.
	ErrTooManyAttempts = errors.New("too many attempts")
	// ErrWrongCode means the submitted code did not match; the attempt was counted.
	ErrWrongCode = errors.New("wrong code")
)

// ConflictError is a business-rule violation with a user-facing message,
// e.g. inviting an email that already has an account.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// Conflictf builds a ConflictError from a format string.
func Conflictf(format string, args ...any) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

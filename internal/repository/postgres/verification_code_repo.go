package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ideahub/internal/domain"
)

type verificationCodeRepository struct {
	DB *sql.DB
}

// NewVerificationCodeRepository returns a domain.VerificationCodeRepository
// implemented with Postgres.
func NewVerificationCodeRepository(db *sql.DB) domain.VerificationCodeRepository {
	return &verificationCodeRepository{DB: db}
}

// Create expires all still-active codes for the email and inserts the new
// row in one transaction, keeping at most one code active per email.
func (r *verificationCodeRepository) Create(ctx context.Context, code *domain.VerificationCode) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := expireActiveCodes(ctx, tx, code.Email); err != nil {
		return err
	}

	insert := `
		INSERT INTO verification_codes (email, code_hash, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	if err := tx.QueryRowContext(ctx, insert, code.Email, code.CodeHash, code.ExpiresAt).Scan(&code.ID); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *verificationCodeRepository) GetByID(ctx context.Context, id string) (*domain.VerificationCode, error) {
	query := `
		SELECT id, email, code_hash, expires_at, wrong_tries
		FROM verification_codes
		WHERE id = $1
	`
	code := &domain.VerificationCode{}
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&code.ID, &code.Email, &code.CodeHash, &code.ExpiresAt, &code.WrongTries)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return code, nil
}

// IncrementWrongTries runs on its own connection, outside any surrounding
// transaction, so the counter sticks even though the confirm request fails.
func (r *verificationCodeRepository) IncrementWrongTries(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE verification_codes SET wrong_tries = wrong_tries + 1 WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *verificationCodeRepository) ConsumeWithPasswordUpdate(ctx context.Context, code *domain.VerificationCode, passwordHash string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE email = $2 AND is_deleted = FALSE`, passwordHash, code.Email)
	if err != nil {
		return err
	}
	if err := requireRow(res); err != nil {
		return err
	}

	if err := expireActiveCodes(ctx, tx, code.Email); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *verificationCodeRepository) ConsumeWithEmailUpdate(ctx context.Context, code *domain.VerificationCode, currentEmail string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE users SET email = $1 WHERE email = $2 AND is_deleted = FALSE`, code.Email, currentEmail)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateEmail
		}
		return err
	}
	if err := requireRow(res); err != nil {
		return err
	}

	if err := expireActiveCodes(ctx, tx, code.Email); err != nil {
		return err
	}

	return tx.Commit()
}

func expireActiveCodes(ctx context.Context, tx *sql.Tx, email string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE verification_codes SET expires_at = NOW()
		WHERE email = $1 AND expires_at > NOW()
	`, email)
	return err
}

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ideahub/internal/domain"
)

func TestVerificationCodeRepository_Create_invalidates_prior_codes(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	code := &domain.VerificationCode{
		Email:     "u@example.com",
		CodeHash:  "$argon2id$...",
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE verification_codes SET expires_at = NOW`).
		WithArgs("u@example.com").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(`INSERT INTO verification_codes`).
		WithArgs("u@example.com", "$argon2id$...", code.ExpiresAt).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("code-1"))
	mock.ExpectCommit()

	repo := NewVerificationCodeRepository(db)
	require.NoError(t, repo.Create(ctx, code))
	assert.Equal(t, "code-1", code.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationCodeRepository_GetByID_not_found(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, email, code_hash, expires_at, wrong_tries`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "code_hash", "expires_at", "wrong_tries"}))

	repo := NewVerificationCodeRepository(db)
	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationCodeRepository_IncrementWrongTries(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE verification_codes SET wrong_tries = wrong_tries \+ 1`).
		WithArgs("code-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewVerificationCodeRepository(db)
	require.NoError(t, repo.IncrementWrongTries(ctx, "code-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationCodeRepository_ConsumeWithPasswordUpdate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "success updates password and expires codes in one tx",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE users SET password_hash`).
					WithArgs("new-hash", "u@example.com").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`UPDATE verification_codes SET expires_at = NOW`).
					WithArgs("u@example.com").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "no matching user rolls back",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE users SET password_hash`).
					WithArgs("new-hash", "u@example.com").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectRollback()
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()
			tt.mock(mock)

			repo := NewVerificationCodeRepository(db)
			code := &domain.VerificationCode{ID: "code-1", Email: "u@example.com"}
			err = repo.ConsumeWithPasswordUpdate(ctx, code, "new-hash")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestVerificationCodeRepository_ConsumeWithEmailUpdate_duplicate_email(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE users SET email`).
		WithArgs("new@example.com", "old@example.com").
		WillReturnError(&pq.Error{Code: uniqueViolation})
	mock.ExpectRollback()

	repo := NewVerificationCodeRepository(db)
	code := &domain.VerificationCode{ID: "code-1", Email: "new@example.com"}
	err = repo.ConsumeWithEmailUpdate(ctx, code, "old@example.com")
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
	require.NoError(t, mock.ExpectationsWereMet())
}

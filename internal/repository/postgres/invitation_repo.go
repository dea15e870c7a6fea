package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"ideahub/internal/domain"
)

type invitationRepository struct {
	DB *sql.DB
}

// NewInvitationRepository returns a domain.InvitationRepository implemented
// with Postgres.
func NewInvitationRepository(db *sql.DB) domain.InvitationRepository {
	return &invitationRepository{DB: db}
}

func (r *invitationRepository) ListActiveEmails(ctx context.Context, emails []string) ([]string, error) {
	query := `
		SELECT email FROM invitations
		WHERE email = ANY($1) AND expires_at > NOW()
	`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(emails))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var found []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		found = append(found, email)
	}
	return found, rows.Err()
}

// CreateBatch is the outbox write: invitation rows and their stream entries
// are one atomic unit. The rows are inserted inside a transaction, publish
// appends the stream entries, and only then does the transaction commit. A
// publish failure (or a crash before commit) rolls everything back, so a
// committed invitation can never be missing its stream entry. Insert order
// is the order of invs, and publish sees the created rows in that order.
func (r *invitationRepository) CreateBatch(ctx context.Context, invs []*domain.Invitation, publish func(ctx context.Context, created []*domain.Invitation) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO invitations (email, roles, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	for _, inv := range invs {
		if err := tx.QueryRowContext(ctx, query, inv.Email, pq.Array(inv.Roles), inv.ExpiresAt).Scan(&inv.ID); err != nil {
			return err
		}
	}

	if err := publish(ctx, invs); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *invitationRepository) GetActive(ctx context.Context, id string) (*domain.Invitation, error) {
	query := `
		SELECT id, email, roles, expires_at
		FROM invitations
		WHERE id = $1 AND expires_at > NOW()
	`
	inv := &domain.Invitation{}
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&inv.ID, &inv.Email, pq.Array(&inv.Roles), &inv.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return inv, nil
}

func (r *invitationRepository) ExtendExpiry(ctx context.Context, id string, until time.Time) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE invitations SET expires_at = $1 WHERE id = $2`, until, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *invitationRepository) Expire(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE invitations SET expires_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

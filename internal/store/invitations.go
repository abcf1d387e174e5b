package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/techdict/backend/internal/models"
)

const invitationColumns = `email, token_hash, COALESCE(invited_by::text, ''), issued_at, expires_at`

func scanInvitation(row pgx.Row) (models.Invitation, error) {
	var inv models.Invitation
	err := row.Scan(&inv.Email, &inv.TokenHash, &inv.InvitedBy, &inv.IssuedAt, &inv.ExpiresAt)
	return inv, err
}

// CreateInvitation stores a new invitation. An expired invitation for the same
// email is replaced; a live one yields ErrConflict.
func (s *PostgresStore) CreateInvitation(ctx context.Context, r CreateInvitationRequest) (models.Invitation, error) {
	var inv models.Invitation
	err := s.withTx(ctx, func(tx *PostgresStore) error {
		if _, err := tx.db.Exec(ctx,
			`DELETE FROM invitations WHERE email = $1 AND expires_at <= NOW()`, r.Email,
		); err != nil {
			return fmt.Errorf("purge expired invitation: %w", err)
		}

		var invitedBy *string
		if r.InvitedBy != "" {
			invitedBy = &r.InvitedBy
		}

		var err error
		inv, err = scanInvitation(tx.db.QueryRow(ctx,
			`INSERT INTO invitations (email, token_hash, invited_by, expires_at)
			 VALUES ($1, $2, $3, NOW() + make_interval(secs => $4))
			 RETURNING `+invitationColumns,
			r.Email, r.TokenHash, invitedBy, r.TTL.Seconds(),
		))
		if err != nil {
			if isUniqueViolation(err) {
				return ErrConflict
			}
			return fmt.Errorf("insert invitation: %w", err)
		}
		return nil
	})

	return inv, err
}

// FindLiveInvitation returns the unexpired invitation stored under tokenHash.
func (s *PostgresStore) FindLiveInvitation(ctx context.Context, tokenHash string) (models.Invitation, error) {
	inv, err := scanInvitation(s.db.QueryRow(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE token_hash = $1 AND expires_at > NOW()`, tokenHash,
	))
	if err != nil {
		return models.Invitation{}, notFound(err)
	}
	return inv, nil
}

// FindInvitationByEmail returns the invitation for email whether or not it
// has expired.
func (s *PostgresStore) FindInvitationByEmail(ctx context.Context, email string) (models.Invitation, error) {
	inv, err := scanInvitation(s.db.QueryRow(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE email = $1`, email,
	))
	if err != nil {
		return models.Invitation{}, notFound(err)
	}
	return inv, nil
}

// RotateInvitation replaces the token of an existing invitation and restarts
// its lifetime.
func (s *PostgresStore) RotateInvitation(ctx context.Context, r RotateInvitationRequest) (models.Invitation, error) {
	inv, err := scanInvitation(s.db.QueryRow(ctx,
		`UPDATE invitations
		 SET token_hash = $2, issued_at = NOW(), expires_at = NOW() + make_interval(secs => $3)
		 WHERE email = $1
		 RETURNING `+invitationColumns,
		r.Email, r.TokenHash, r.TTL.Seconds(),
	))
	if err != nil {
		return models.Invitation{}, notFound(err)
	}
	return inv, nil
}

func (s *PostgresStore) ListInvitations(ctx context.Context) ([]models.Invitation, error) {
	rows, err := s.db.Query(ctx, `SELECT `+invitationColumns+` FROM invitations ORDER BY issued_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Invitation, error) {
		return scanInvitation(row)
	})
}

// ConsumeInvitation atomically deletes the live invitation and creates the
// account it authorizes. ErrNotFound means no live invitation matched;
// ErrConflict means the account email is taken. Either way nothing changes.
func (s *PostgresStore) ConsumeInvitation(ctx context.Context, r ConsumeInvitationRequest) (models.Account, error) {
	var acc models.Account
	err := s.withTx(ctx, func(tx *PostgresStore) error {
		var email string
		err := tx.db.QueryRow(ctx,
			`DELETE FROM invitations
			 WHERE token_hash = $1 AND email = $2 AND expires_at > NOW()
			 RETURNING email`,
			r.TokenHash, r.Email,
		).Scan(&email)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("consume invitation: %w", err)
		}

		a := r.Account
		a.Email = email
		acc, err = tx.CreateAccount(ctx, a)
		return err
	})

	return acc, err
}

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/techdict/backend/internal/models"
)

const accountColumns = `id, email, name, password_hash, created_at`

func accountTable(role models.Role) (string, error) {
	switch role {
	case models.RoleSuperAdmin:
		return "superadmins", nil
	case models.RoleAdmin:
		return "admins", nil
	case models.RoleUser:
		return "users", nil
	}
	return "", fmt.Errorf("no account table for role %v", role)
}

func scanAccount(row pgx.Row, role models.Role) (models.Account, error) {
	a := models.Account{Role: role}
	err := row.Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.CreatedAt)
	return a, err
}

// CreateAccount inserts an account into its role table. The email is claimed
// in account_emails first, so it is unique across all roles; a taken email
// yields ErrConflict.
func (s *PostgresStore) CreateAccount(ctx context.Context, r CreateAccountRequest) (models.Account, error) {
	table, err := accountTable(r.Role)
	if err != nil {
		return models.Account{}, err
	}

	var a models.Account
	err = s.withTx(ctx, func(tx *PostgresStore) error {
		if _, err := tx.db.Exec(ctx, `INSERT INTO account_emails (email) VALUES (lower($1))`, r.Email); err != nil {
			if isUniqueViolation(err) {
				return ErrConflict
			}
			return fmt.Errorf("claim email: %w", err)
		}

		var err error
		a, err = scanAccount(tx.db.QueryRow(ctx,
			`INSERT INTO `+table+` (email, name, password_hash)
			 VALUES ($1, $2, $3)
			 RETURNING `+accountColumns,
			r.Email, r.Name, r.PasswordHash,
		), r.Role)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrConflict
			}
			return fmt.Errorf("create %s account: %w", r.Role, err)
		}
		return nil
	})

	return a, err
}

func (s *PostgresStore) FindAccountByEmail(ctx context.Context, role models.Role, email string) (models.Account, error) {
	table, err := accountTable(role)
	if err != nil {
		return models.Account{}, err
	}

	a, err := scanAccount(s.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM `+table+` WHERE lower(email) = lower($1)`, email,
	), role)
	if err != nil {
		return models.Account{}, notFound(err)
	}
	return a, nil
}

func (s *PostgresStore) FindAccountByID(ctx context.Context, role models.Role, id string) (models.Account, error) {
	table, err := accountTable(role)
	if err != nil {
		return models.Account{}, err
	}

	a, err := scanAccount(s.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM `+table+` WHERE id = $1`, id,
	), role)
	if err != nil {
		return models.Account{}, notFound(err)
	}
	return a, nil
}

// EmailTaken reports whether any role table holds email.
func (s *PostgresStore) EmailTaken(ctx context.Context, email string) (bool, error) {
	var taken bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM account_emails WHERE email = lower($1))
		    OR EXISTS (SELECT 1 FROM superadmins WHERE lower(email) = lower($1))
		    OR EXISTS (SELECT 1 FROM admins WHERE lower(email) = lower($1))
		    OR EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($1))`, email,
	).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return taken, nil
}

func (s *PostgresStore) ListAccounts(ctx context.Context, role models.Role) ([]models.Account, error) {
	table, err := accountTable(role)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `SELECT `+accountColumns+` FROM `+table+` ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list %s accounts: %w", role, err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Account, error) {
		return scanAccount(row, role)
	})
}

// DeleteAccount removes the account and releases its email.
func (s *PostgresStore) DeleteAccount(ctx context.Context, role models.Role, id string) error {
	table, err := accountTable(role)
	if err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *PostgresStore) error {
		var email string
		err := tx.db.QueryRow(ctx, `DELETE FROM `+table+` WHERE id = $1 RETURNING email`, id).Scan(&email)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("delete %s account: %w", role, err)
		}

		if _, err := tx.db.Exec(ctx, `DELETE FROM account_emails WHERE email = lower($1)`, email); err != nil {
			return fmt.Errorf("release email: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) CountAccounts(ctx context.Context, role models.Role) (int64, error) {
	table, err := accountTable(role)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s accounts: %w", role, err)
	}
	return n, nil
}

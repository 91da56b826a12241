package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation            = "23505"
	identifierUniqueConstraint = "accounts_user_id_key"
	emailUniqueConstraint      = "accounts_email_key"
)

type AccountStore interface {
	FindByIdentifier(ctx context.Context, identifier string) (Account, error)
	ExistsByIdentifier(ctx context.Context, identifier string) (bool, error)
	ExistsByContact(ctx context.Context, email string) (bool, error)
	Save(ctx context.Context, account Account) error
	FindAll(ctx context.Context) ([]Account, error)
	FindLocked(ctx context.Context, lockedBefore time.Time, limit int) ([]Account, error)
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const accountColumns = `id, user_id, password_hash, email, enabled, locked, failed_attempts, lock_time, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (Account, error) {
	var account Account
	var lockTime sql.NullTime
	if err := row.Scan(
		&account.ID,
		&account.Identifier,
		&account.PasswordHash,
		&account.Email,
		&account.Enabled,
		&account.Locked,
		&account.FailedAttempts,
		&lockTime,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return Account{}, err
	}
	if lockTime.Valid {
		value := lockTime.Time.UTC()
		account.LockedAt = &value
	}
	account.CreatedAt = account.CreatedAt.UTC()
	account.UpdatedAt = account.UpdatedAt.UTC()
	return account, nil
}

func (r *Repository) FindByIdentifier(ctx context.Context, identifier string) (Account, error) {
	account, err := scanAccount(r.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE user_id = $1
	`, identifier))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, fmt.Errorf("query account by user id: %w", err)
	}

	return account, nil
}

func (r *Repository) ExistsByIdentifier(ctx context.Context, identifier string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE user_id = $1)`, identifier).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user id exists: %w", err)
	}
	return exists, nil
}

func (r *Repository) ExistsByContact(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}
	return exists, nil
}

// Save inserts the account or overwrites its mutable columns. user_id and
// created_at are never updated.
func (r *Repository) Save(ctx context.Context, account Account) error {
	var lockTime any
	if account.LockedAt != nil {
		lockTime = account.LockedAt.UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, user_id, password_hash, email, enabled, locked, failed_attempts, lock_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id)
		DO UPDATE SET
			password_hash = EXCLUDED.password_hash,
			email = EXCLUDED.email,
			enabled = EXCLUDED.enabled,
			locked = EXCLUDED.locked,
			failed_attempts = EXCLUDED.failed_attempts,
			lock_time = EXCLUDED.lock_time,
			updated_at = EXCLUDED.updated_at
	`,
		account.ID,
		account.Identifier,
		account.PasswordHash,
		account.Email,
		account.Enabled,
		account.Locked,
		account.FailedAttempts,
		lockTime,
		account.CreatedAt.UTC(),
		account.UpdatedAt.UTC(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			switch pgErr.ConstraintName {
			case identifierUniqueConstraint:
				return ErrDuplicateIdentifier
			case emailUniqueConstraint:
				return ErrDuplicateContact
			}
		}
		return fmt.Errorf("upsert account: %w", err)
	}

	return nil
}

func (r *Repository) FindAll(ctx context.Context) ([]Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	return collectAccounts(rows)
}

func (r *Repository) FindLocked(ctx context.Context, lockedBefore time.Time, limit int) ([]Account, error) {
	if limit <= 0 {
		limit = 500
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE locked = TRUE AND lock_time <= $1
		ORDER BY lock_time ASC
		LIMIT $2
	`, lockedBefore.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("query locked accounts: %w", err)
	}
	defer rows.Close()

	return collectAccounts(rows)
}

func collectAccounts(rows *sql.Rows) ([]Account, error) {
	accounts := make([]Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	return accounts, nil
}

// Package repository provides PostgreSQL persistence for accounts and journal entries.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/surya9901/diary-manager-backend/internal/models"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

// PostgresAccountRepository implements account persistence on PostgreSQL.
// Each operation runs on its own connection which is released on every return path.
type PostgresAccountRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresAccountRepository creates a new PostgresAccountRepository with the given database connection.
func NewPostgresAccountRepository(db *sql.DB) *PostgresAccountRepository {
	return &PostgresAccountRepository{DB: db}
}

// withConn runs fn on a dedicated connection taken from db and releases it afterwards.
func withConn(ctx context.Context, db *sql.DB, fn func(*sql.Conn) error) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	return fn(conn)
}

// CreateAccount inserts a new account and returns its generated ID.
// A concurrent insert of the same email surfaces as models.ErrDuplicate.
func (r *PostgresAccountRepository) CreateAccount(ctx context.Context, email, passwordHash string) (string, error) {
	id := uuid.NewString()
	err := withConn(ctx, r.DB, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(
			ctx,
			`INSERT INTO accounts (id, email, password_hash, reset_pin) VALUES ($1, $2, $3, '')`,
			id, email, passwordHash,
		)
		return err
	})
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return "", models.ErrDuplicate
		}
		return "", fmt.Errorf("insert account: %w", err)
	}
	return id, nil
}

// GetAccountByEmail fetches the account registered under email.
func (r *PostgresAccountRepository) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.getAccount(ctx, `
		SELECT id, email, password_hash, reset_pin FROM accounts WHERE email = $1
	`, email)
}

// GetAccountByID fetches the account with the given ID.
func (r *PostgresAccountRepository) GetAccountByID(ctx context.Context, id string) (*models.Account, error) {
	return r.getAccount(ctx, `
		SELECT id, email, password_hash, reset_pin FROM accounts WHERE id = $1
	`, id)
}

func (r *PostgresAccountRepository) getAccount(ctx context.Context, query string, arg string) (*models.Account, error) {
	var acc models.Account
	err := withConn(ctx, r.DB, func(conn *sql.Conn) error {
		return conn.QueryRowContext(ctx, query, arg).
			Scan(&acc.ID, &acc.Email, &acc.PasswordHash, &acc.ResetPin)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select account: %w", err)
	}
	return &acc, nil
}

// SetResetPin stores pin on the account matching email in a single statement
// and returns the updated account. Any previously issued PIN is overwritten.
func (r *PostgresAccountRepository) SetResetPin(ctx context.Context, email, pin string) (*models.Account, error) {
	var acc models.Account
	err := withConn(ctx, r.DB, func(conn *sql.Conn) error {
		return conn.QueryRowContext(ctx, `
			UPDATE accounts
			   SET reset_pin = $1, reset_pin_issued_at = now(),
			       reset_verified = false, reset_verified_at = NULL
			 WHERE email = $2
			RETURNING id, email, password_hash, reset_pin
		`, pin, email).Scan(&acc.ID, &acc.Email, &acc.PasswordHash, &acc.ResetPin)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("set reset pin: %w", err)
	}
	return &acc, nil
}

// ConsumeResetPin clears the stored PIN only if it still equals pin.
// It reports whether the PIN was consumed; a successful consumption also
// records a one-shot reset grant on the account.
func (r *PostgresAccountRepository) ConsumeResetPin(ctx context.Context, email, pin string) (bool, error) {
	var n int64
	err := withConn(ctx, r.DB, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, `
			UPDATE accounts
			   SET reset_pin = '', reset_pin_issued_at = NULL,
			       reset_verified = true, reset_verified_at = now()
			 WHERE email = $1 AND reset_pin = $2 AND reset_pin <> ''
		`, email, pin)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return false, fmt.Errorf("consume reset pin: %w", err)
	}
	return n == 1, nil
}

// ResetPasswordWithGrant overwrites the stored hash only if a successful PIN
// verification left a reset grant, and clears the grant in the same statement.
// It reports whether the hash was replaced. A failed statement leaves both the
// hash and the grant untouched.
func (r *PostgresAccountRepository) ResetPasswordWithGrant(ctx context.Context, email, passwordHash string) (bool, error) {
	var n int64
	err := withConn(ctx, r.DB, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, `
			UPDATE accounts
			   SET password_hash = $1, reset_verified = false, reset_verified_at = NULL
			 WHERE email = $2 AND reset_verified = true
		`, passwordHash, email)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return false, fmt.Errorf("reset password: %w", err)
	}
	return n == 1, nil
}

// UpdatePasswordHash overwrites the stored hash of the account matching email.
func (r *PostgresAccountRepository) UpdatePasswordHash(ctx context.Context, email, passwordHash string) error {
	var n int64
	err := withConn(ctx, r.DB, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx,
			`UPDATE accounts SET password_hash = $1 WHERE email = $2`,
			passwordHash, email,
		)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// SweepStaleResets clears reset PINs issued before cutoff and reset grants
// recorded before cutoff. It returns how many of each were cleared.
func (r *PostgresAccountRepository) SweepStaleResets(ctx context.Context, cutoff time.Time) (pins, grants int64, err error) {
	err = withConn(ctx, r.DB, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, `
			UPDATE accounts
			   SET reset_pin = '', reset_pin_issued_at = NULL
			 WHERE reset_pin <> ''
			   AND reset_pin_issued_at < $1
		`, cutoff)
		if err != nil {
			return fmt.Errorf("sweep pins: %w", err)
		}
		if pins, err = res.RowsAffected(); err != nil {
			return err
		}

		res, err = conn.ExecContext(ctx, `
			UPDATE accounts
			   SET reset_verified = false, reset_verified_at = NULL
			 WHERE reset_verified = true
			   AND reset_verified_at < $1
		`, cutoff)
		if err != nil {
			return fmt.Errorf("sweep grants: %w", err)
		}
		grants, err = res.RowsAffected()
		return err
	})
	return pins, grants, err
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/surya9901/diary-manager-backend/internal/models"
)

// PostgresEntryRepository implements journal entry persistence on PostgreSQL.
// Every query is scoped to the owning account and runs on its own connection.
type PostgresEntryRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresEntryRepository creates a new PostgresEntryRepository using the provided *sql.DB.
func NewPostgresEntryRepository(db *sql.DB) *PostgresEntryRepository {
	return &PostgresEntryRepository{DB: db}
}

// CreateEntry stores a new entry for userID and returns its generated ID.
func (r *PostgresEntryRepository) CreateEntry(ctx context.Context, userID string, e models.Entry) (string, error) {
	id := uuid.NewString()
	err := withConn(ctx, r.DB, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx, `
			INSERT INTO entries (id, user_id, title, date, memory) VALUES ($1, $2, $3, $4, $5)
		`, id, userID, e.Title, e.Date, e.Memory)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("insert entry: %w", err)
	}
	return id, nil
}

// ListEntries returns all entries owned by userID, oldest first.
func (r *PostgresEntryRepository) ListEntries(ctx context.Context, userID string) ([]models.Entry, error) {
	return r.query(ctx, `
		SELECT id, user_id, title, date, memory FROM entries
		 WHERE user_id = $1
		 ORDER BY created_at
	`, userID)
}

// SearchEntries returns the entries of userID whose title or date equals q, ignoring case.
func (r *PostgresEntryRepository) SearchEntries(ctx context.Context, userID, q string) ([]models.Entry, error) {
	return r.query(ctx, `
		SELECT id, user_id, title, date, memory FROM entries
		 WHERE user_id = $1 AND (lower(date) = lower($2) OR lower(title) = lower($2))
		 ORDER BY created_at
	`, userID, q)
}

func (r *PostgresEntryRepository) query(ctx context.Context, query string, args ...any) ([]models.Entry, error) {
	entries := make([]models.Entry, 0)
	err := withConn(ctx, r.DB, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("select entries: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var e models.Entry
			if err := rows.Scan(&e.ID, &e.UserID, &e.Title, &e.Date, &e.Memory); err != nil {
				return fmt.Errorf("scan: %w", err)
			}
			entries = append(entries, e)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate entries: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// GetEntry retrieves a single entry by ID for the given user.
func (r *PostgresEntryRepository) GetEntry(ctx context.Context, userID, id string) (*models.Entry, error) {
	var e models.Entry
	err := withConn(ctx, r.DB, func(conn *sql.Conn) error {
		return conn.QueryRowContext(ctx, `
			SELECT id, user_id, title, date, memory FROM entries WHERE user_id = $1 AND id = $2
		`, userID, id).Scan(&e.ID, &e.UserID, &e.Title, &e.Date, &e.Memory)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select entry: %w", err)
	}
	return &e, nil
}

// UpdateEntry overwrites title, date and memory of the entry e.ID owned by userID.
func (r *PostgresEntryRepository) UpdateEntry(ctx context.Context, userID string, e models.Entry) error {
	return r.execAffected(ctx, "update entry", `
		UPDATE entries SET title = $1, date = $2, memory = $3 WHERE user_id = $4 AND id = $5
	`, e.Title, e.Date, e.Memory, userID, e.ID)
}

// DeleteEntry removes the entry id owned by userID.
func (r *PostgresEntryRepository) DeleteEntry(ctx context.Context, userID, id string) error {
	return r.execAffected(ctx, "delete entry",
		`DELETE FROM entries WHERE user_id = $1 AND id = $2`,
		userID, id,
	)
}

// execAffected runs a single-row statement and maps zero affected rows to models.ErrNotFound.
func (r *PostgresEntryRepository) execAffected(ctx context.Context, op, query string, args ...any) error {
	var n int64
	err := withConn(ctx, r.DB, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

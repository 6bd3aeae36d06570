package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/messaging-api/internal/apperror"
	"github.com/sakif/messaging-api/internal/model"
)

// EmailExists reports whether any user is registered with email.
func (db *DB) EmailExists(ctx context.Context, email string) (bool, error) {
	var one int
	err := db.conn.QueryRowContext(ctx,
		`SELECT 1 FROM users WHERE email = ? LIMIT 1`,
		email,
	).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("sqlite: checking email: %w", err)
	}
	return true, nil
}

// Create inserts a new user and fills in user.ID.
//
// The UNIQUE constraint on users.email is the authoritative duplicate check.
// A caller's earlier EmailExists may have raced with another registration,
// so a constraint violation here is reported as a Conflict, not a 500.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, first_name, last_name)
		 VALUES (?, ?, ?, ?)`,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("A user with that email already exists.")
		}
		return fmt.Errorf("sqlite: inserting user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new user id: %w", err)
	}
	user.ID = id

	return nil
}

// FindCredentialsByEmail returns the user's id and stored password hash.
// Returns apperror.ErrNotFound if no user has that email.
func (db *DB) FindCredentialsByEmail(ctx context.Context, email string) (*model.Credentials, error) {
	var c model.Credentials

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, password_hash FROM users WHERE email = ? LIMIT 1`,
		email,
	).Scan(&c.UserID, &c.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("No user exists with that email.")
		}
		return nil, fmt.Errorf("sqlite: finding user by email: %w", err)
	}

	return &c, nil
}

// ListExcluding returns all users except requesterID, lowest id first.
func (db *DB) ListExcluding(ctx context.Context, requesterID int64) ([]model.UserSummary, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, email, first_name, last_name
		 FROM users
		 WHERE id <> ?
		 ORDER BY id ASC`,
		requesterID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	// Non-nil so an empty result encodes as [] rather than null.
	users := make([]model.UserSummary, 0)
	for rows.Next() {
		var u model.UserSummary
		if err := rows.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}

	return users, nil
}

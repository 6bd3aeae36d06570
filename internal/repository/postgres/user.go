package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/messaging-api/internal/apperror"
	"github.com/sakif/messaging-api/internal/model"
)

func (db *DB) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`,
		email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: checking email: %w", err)
	}
	return exists, nil
}

// Create inserts the user and sets user.ID from RETURNING id. A unique
// violation on email is a Conflict.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO users (email, password_hash, first_name, last_name)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		user.Email, user.PasswordHash, user.FirstName, user.LastName,
	).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("A user with that email already exists.")
		}
		return fmt.Errorf("postgres: inserting user: %w", err)
	}
	return nil
}

func (db *DB) FindCredentialsByEmail(ctx context.Context, email string) (*model.Credentials, error) {
	var c model.Credentials
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, password_hash FROM users WHERE email = $1`,
		email,
	).Scan(&c.UserID, &c.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("No user exists with that email.")
		}
		return nil, fmt.Errorf("postgres: finding user by email: %w", err)
	}
	return &c, nil
}

func (db *DB) ListExcluding(ctx context.Context, requesterID int64) ([]model.UserSummary, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, email, first_name, last_name
		 FROM users
		 WHERE id <> $1
		 ORDER BY id ASC`,
		requesterID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing users: %w", err)
	}
	defer rows.Close()

	users := make([]model.UserSummary, 0)
	for rows.Next() {
		var u model.UserSummary
		if err := rows.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName); err != nil {
			return nil, fmt.Errorf("postgres: scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating users: %w", err)
	}
	return users, nil
}

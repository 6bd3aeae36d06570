// Package postgres implements the repository interfaces on PostgreSQL using
// the pgx driver through database/sql.
//
// The query shapes mirror the sqlite package. The differences are the
// dialect ones: $n placeholders, RETURNING id instead of LastInsertId, and
// SQLSTATE codes instead of SQLite result codes.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/sakif/messaging-api/internal/repository"
	"github.com/sakif/messaging-api/internal/repository/migrations"
)

var _ repository.Store = (*DB)(nil)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// DB is a PostgreSQL-backed store.
type DB struct {
	conn *sql.DB
}

// New connects to dsn, bounds the pool at maxOpenConns and applies migrations.
func New(ctx context.Context, dsn string, maxOpenConns int) (*DB, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: opening database: %w", err)
	}
	if maxOpenConns > 0 {
		conn.SetMaxOpenConns(maxOpenConns)
		conn.SetMaxIdleConns(maxOpenConns)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("postgres: pinging database: %w", err)
	}

	if err := migrations.Up(ctx, conn, goose.DialectPostgres); err != nil {
		conn.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	return &DB{conn: conn}, nil
}

// NewFromConn wraps an already-open pool without running migrations.
func NewFromConn(conn *sql.DB) *DB {
	return &DB{conn: conn}
}

func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres: ping: %w", err)
	}
	return nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

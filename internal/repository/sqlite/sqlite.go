// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code, so it works everywhere Go works.
//
// DATABASE/SQL OVERVIEW:
// Key types:
//   - sql.DB      a connection pool (NOT a single connection!)
//   - sql.Row     a single result row
//   - sql.Rows    multiple result rows (must be closed!)
//
// The pattern is always:
//  1. sql.Open(driverName, dataSourceName) → creates a pool
//  2. db.QueryContext / db.ExecContext     → runs queries
//  3. rows.Scan(&field1, &field2)          → reads results into Go variables
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/messaging-api/internal/repository"
	"github.com/sakif/messaging-api/internal/repository/migrations"
)

// compile-time check that *DB implements the full store contract
var _ repository.Store = (*DB)(nil)

// connectionPragmas are applied by the driver to EVERY pooled connection.
//
// Running "PRAGMA foreign_keys=ON" through db.Exec only configures whichever
// single connection happened to run it. Passing pragmas in the DSN makes the
// driver run them each time it opens a new connection.
var connectionPragmas = []string{
	"foreign_keys(1)",
	"journal_mode(WAL)",
	"busy_timeout(5000)",
}

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
//
// maxOpenConns bounds the pool. Callers beyond the bound wait for a free
// connection instead of failing. Zero or negative means unbounded.
func New(ctx context.Context, dbPath string, maxOpenConns int) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	if maxOpenConns > 0 {
		conn.SetMaxOpenConns(maxOpenConns)
	}

	// sql.Open does not connect. Ping forces a real connection so a bad path
	// or permissions problem surfaces here, not on the first request.
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if err := migrations.Up(ctx, conn, goose.DialectSQLite3); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: %w", err)
	}

	return &DB{conn: conn}, nil
}

func dsn(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	var b strings.Builder
	b.WriteString(dbPath)
	for _, p := range connectionPragmas {
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(p)
		sep = "&"
	}
	return b.String()
}

// Ping is the health probe.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: ping: %w", err)
	}
	return nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// isUniqueViolation reports whether err is SQLite rejecting a row because
// of a UNIQUE constraint.
func isUniqueViolation(err error) bool {
	var se *msqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

// Package migrations embeds the schema for every supported store and applies
// it with goose.
//
// Each dialect has its own directory of numbered SQL files. goose records
// applied versions in goose_db_version, so Up is safe to run on every start.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

// dirs maps a goose dialect to its migration directory inside files.
var dirs = map[goose.Dialect]string{
	goose.DialectSQLite3:  "sqlite",
	goose.DialectPostgres: "postgres",
}

// Up applies every pending migration for dialect to db.
//
// A goose.Provider is used instead of the package-level goose functions so
// that no global state (base FS, dialect) is shared between databases.
func Up(ctx context.Context, db *sql.DB, dialect goose.Dialect) error {
	dir, ok := dirs[dialect]
	if !ok {
		return fmt.Errorf("migrations: unsupported dialect %q", dialect)
	}

	fsys, err := fs.Sub(files, dir)
	if err != nil {
		return fmt.Errorf("migrations: opening %s: %w", dir, err)
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("migrations: creating provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migrations: applying %s schema: %w", dir, err)
	}
	return nil
}

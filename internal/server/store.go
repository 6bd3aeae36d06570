package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sakif/messaging-api/internal/config"
	"github.com/sakif/messaging-api/internal/repository"
	"github.com/sakif/messaging-api/internal/repository/memory"
	"github.com/sakif/messaging-api/internal/repository/postgres"
	sqliteRepo "github.com/sakif/messaging-api/internal/repository/sqlite"
)

// OpenStore connects to the store named by cfg.Driver and runs migrations.
// The caller owns the result and must Close it.
func OpenStore(ctx context.Context, cfg config.DBConfig) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		// Like `mkdir -p`: the first run creates the data directory.
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
			}
		}
		db, err := sqliteRepo.New(ctx, cfg.DSN(), cfg.PoolSize)
		if err != nil {
			return nil, err
		}
		return db, nil

	case config.DriverPostgres:
		db, err := postgres.New(ctx, cfg.DSN(), cfg.PoolSize)
		if err != nil {
			return nil, err
		}
		return db, nil

	case config.DriverMemory:
		return memory.New(), nil

	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}
}

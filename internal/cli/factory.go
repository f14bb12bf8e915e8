// Package cli wires the application configuration into the graph
// manager and its collaborators for the command line entry points.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/easelab/easel"
	"github.com/easelab/easel/internal/config"
	"github.com/easelab/easel/pkg/adapters/file"
	"github.com/easelab/easel/pkg/adapters/httpgw"
	"github.com/easelab/easel/pkg/adapters/memory"
	"github.com/easelab/easel/pkg/adapters/postgres"
	"github.com/easelab/easel/pkg/adapters/redis"
	"github.com/easelab/easel/pkg/adapters/sqlite"
	"github.com/easelab/easel/pkg/engine"
	"github.com/easelab/easel/pkg/persistence/middleware"
	"github.com/easelab/easel/pkg/ports"
)

// defaultSqlitePath is used when the sqlite backend is selected
// without a configured store path.
const defaultSqlitePath = ".easel/backups.db"

// NewManager initializes a graph manager with standard CLI conventions:
// the remote transport, fallback store and sync parallelism all come
// from the configuration. Extra options are applied last so callers
// can override the wiring. The returned closer releases the store's
// connections and must be called when the command finishes.
func NewManager(ctx context.Context, cfg config.Config, logger *slog.Logger, extra ...easel.Option) (*engine.Manager, func() error, error) {
	store, closeStore, err := newStore(ctx, cfg.Store)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Store.Encryption.Enabled() {
		active, fallback, err := cfg.Store.Encryption.Keys()
		if err != nil {
			_ = closeStore()
			return nil, nil, err
		}
		store = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		})(store)
	}

	opts := []easel.Option{
		easel.WithLogger(logger),
		easel.WithBackupStore(store),
		easel.WithParallelism(cfg.Sync.Parallelism),
		easel.WithHTTPOptions(httpgw.WithTimeout(cfg.Remote.Timeout())),
	}
	opts = append(opts, extra...)

	manager, err := easel.New(cfg.Remote.BaseURL, opts...)
	if err != nil {
		_ = closeStore()
		return nil, nil, fmt.Errorf("error initializing manager: %w", err)
	}

	return manager, closeStore, nil
}

// newStore builds the fallback store selected by the configuration.
// The closer is non-nil even for backends with nothing to release.
func newStore(ctx context.Context, cfg config.StoreConfig) (ports.BackupStore, func() error, error) {
	nothing := func() error { return nil }

	switch cfg.Backend {
	case config.StoreMemory:
		return memory.NewStore(), nothing, nil

	case config.StoreFile:
		return file.New(cfg.Path), nothing, nil

	case config.StoreRedis:
		store := redis.New(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
		return store, store.Close, nil

	case config.StorePostgres:
		store, err := postgres.New(ctx, postgres.Options{ConnString: cfg.Postgres.ConnString})
		if err != nil {
			return nil, nil, fmt.Errorf("error opening postgres store: %w", err)
		}
		if err := store.InitSchema(ctx); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("error preparing postgres schema: %w", err)
		}
		return store, func() error { store.Close(); return nil }, nil

	case config.StoreSqlite:
		path := cfg.Path
		if path == "" {
			path = defaultSqlitePath
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("error creating sqlite directory: %w", err)
			}
		}
		store, err := sqlite.New(sqlite.Options{Path: path})
		if err != nil {
			return nil, nil, fmt.Errorf("error opening sqlite store: %w", err)
		}
		return store, store.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

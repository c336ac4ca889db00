package cli

import (
	"context"
	"fmt"

	"github.com/egehanasal/apidouble/internal/storage"
	"github.com/egehanasal/apidouble/pkg/config"
)

// openStore builds and initializes the Store named by cfg.Storage, used by
// both the server and every storage-only subcommand so they agree on what
// "the storage at this path" means.
func openStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	var store storage.Store
	switch cfg.Type {
	case "sqlite":
		store = storage.NewSQLiteStore(cfg.Path)
	case "lowdb", "":
		store = storage.NewFileJournalStore(cfg.Path)
	default:
		return nil, fmt.Errorf("cli: unrecognized storage type %q", cfg.Type)
	}

	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("cli: failed to initialize storage: %w", err)
	}
	return store, nil
}

// loadConfig loads the effective config from configFile, falling back to
// documented defaults when no file is given or none exists.
func loadConfig() (config.Config, error) {
	if configFile == "" {
		return config.Defaults(), nil
	}
	return config.LoadOrDefaults(configFile)
}

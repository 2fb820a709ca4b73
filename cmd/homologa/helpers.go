package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"github.com/homologa-digital/homologa/internal/cache"
	"github.com/homologa-digital/homologa/internal/common"
	"github.com/homologa-digital/homologa/internal/config"
	"github.com/homologa-digital/homologa/internal/model"
	"github.com/homologa-digital/homologa/internal/storage"
	"github.com/homologa-digital/homologa/internal/tariff"
)

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/homologa/homologa.db"
	}

	// Expand tilde and environment variables
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// loadCatalog opens storage and loads the configured category's snapshot.
func loadCatalog(ctx context.Context) (*model.Catalog, *storage.SQLiteStorage, error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, nil, err
	}

	slug := viper.GetString("catalog.category")
	if slug == "" {
		closeStore(store)
		return nil, nil, fmt.Errorf("%w: catalog.category", common.ErrMissingConfig)
	}
	catalog, err := store.LoadCatalog(ctx, slug)
	if err != nil {
		closeStore(store)
		return nil, nil, err
	}

	return catalog, store, nil
}

// newResolver builds a tier resolver with the configured cache TTL.
func newResolver(catalog *model.Catalog) *tariff.Resolver {
	ttl := viper.GetDuration("cache.tier_ttl")
	if ttl <= 0 {
		ttl = tariff.DefaultTierTTL
	}
	return tariff.NewResolver(catalog, cache.NewMemory(), ttl)
}

func closeStore(store *storage.SQLiteStorage) {
	if err := store.Close(); err != nil {
		slog.Error("failed to close storage", "error", err)
	}
}

func setupLogging() error {
	level := viper.GetString("logging.level")
	format := viper.GetString("logging.format")

	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		return fmt.Errorf("%w: logging.level %q", common.ErrInvalidConfig, level)
	}

	return common.SetupLogger(slogLevel, format)
}

// withTimeout bounds pure computations invoked from the CLI; timeouts are the
// caller's concern, never the core's.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 30*time.Second)
}

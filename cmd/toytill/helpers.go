package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/hmallory/toytill/internal/backend"
	"github.com/hmallory/toytill/internal/config"
	"github.com/hmallory/toytill/internal/storage"
)

// initStorage opens the SQLite database and runs migrations.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	}
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

// backendClient builds the client for the toytill backend service.
func backendClient() (*backend.Client, error) {
	baseURL := viper.GetString("backend.url")
	if baseURL == "" {
		baseURL = "http://localhost:8787"
	}

	appToken := viper.GetString("backend.app_token")
	if appToken == "" {
		return nil, fmt.Errorf("backend.app_token is required (set it in the config file or TOYTILL_BACKEND_APP_TOKEN)")
	}

	return backend.NewClient(baseURL, appToken), nil
}

// spriteCacheDir returns the configured on-disk sprite cache directory.
func spriteCacheDir() string {
	dir := viper.GetString("sprites.cache_dir")
	if dir == "" {
		dir = config.DefaultSpriteCacheDir()
	}
	return config.ExpandPath(dir)
}

// bundleDir returns the configured bundled sprite library directory.
func bundleDir() string {
	dir := viper.GetString("sprites.bundle_dir")
	if dir == "" {
		dir = config.DefaultBundleDir()
	}
	return config.ExpandPath(dir)
}

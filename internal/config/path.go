// Package config provides configuration utilities for the application.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands ~ and environment variables in a file path.
// It handles both ~ for home directory and $VAR style environment variables.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	// First expand tilde if present
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	// Then expand environment variables
	return os.ExpandEnv(path)
}

// DefaultDatabasePath returns the default location of the sqlite database
// backing the sprite cache, rate buckets, and scan history.
func DefaultDatabasePath() string {
	return ExpandPath("~/.local/share/toytill/toytill.db")
}

// DefaultSpriteCacheDir returns the directory holding generated sprite PNGs.
func DefaultSpriteCacheDir() string {
	return ExpandPath("~/.cache/toytill/sprites")
}

// DefaultBundleDir returns the directory holding the bundled sprite library
// and its manifest.json.
func DefaultBundleDir() string {
	return ExpandPath("~/.local/share/toytill/bundle")
}

// EnsureDir creates dir (and parents) if it does not already exist.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o750)
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hmallory/toytill/internal/common"
)

// GetSprite returns the cached image bytes for a normalized sprite key.
// Returns common.ErrNotFound when the key has never been generated.
func (s *SQLiteStorage) GetSprite(ctx context.Context, key string) ([]byte, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(key, "key"); err != nil {
		return nil, err
	}

	var image []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT image FROM sprite_cache WHERE key = ?`, key).Scan(&image)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sprite cache: %w", err)
	}
	return image, nil
}

// PutSprite stores image bytes under a normalized sprite key. Sprites are
// immutable once generated; a concurrent write for the same key is
// equivalent, so last write wins.
func (s *SQLiteStorage) PutSprite(ctx context.Context, key string, image []byte) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(key, "key"); err != nil {
		return err
	}
	if len(image) == 0 {
		return fmt.Errorf("image cannot be empty")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sprite_cache (key, image) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET image = excluded.image`,
		key, image)
	if err != nil {
		return fmt.Errorf("failed to store sprite: %w", err)
	}
	return nil
}

// ListSpriteKeys returns every cached sprite key in insertion order.
func (s *SQLiteStorage) ListSpriteKeys(ctx context.Context) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM sprite_cache ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sprite keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan sprite key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// ClearSprites removes every cached sprite and returns how many were removed.
func (s *SQLiteStorage) ClearSprites(ctx context.Context) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM sprite_cache`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear sprite cache: %w", err)
	}
	return result.RowsAffected()
}

package storage

import (
	"context"
	"fmt"
	"time"
)

// Count returns the current request count for a rate bucket, treating
// expired buckets as empty. Implements ratelimit.Store.
func (s *SQLiteStorage) Count(ctx context.Context, clientKey string, windowStart int64) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(clientKey, "clientKey"); err != nil {
		return 0, err
	}

	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(
			(SELECT count FROM rate_buckets
			 WHERE client_key = ? AND window_start = ? AND expires_at > ?),
			0)`,
		clientKey, windowStart, time.Now().UTC()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to query rate bucket: %w", err)
	}
	return count, nil
}

// Increment atomically adds one to a rate bucket, creating it with the
// given TTL when absent. The UPSERT keeps concurrent increments from the
// same client from undercounting. Implements ratelimit.Store.
func (s *SQLiteStorage) Increment(ctx context.Context, clientKey string, windowStart int64, ttl time.Duration) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(clientKey, "clientKey"); err != nil {
		return 0, err
	}

	var count int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO rate_buckets (client_key, window_start, count, expires_at)
		 VALUES (?, ?, 1, ?)
		 ON CONFLICT(client_key, window_start)
		 DO UPDATE SET count = count + 1
		 RETURNING count`,
		clientKey, windowStart, time.Now().UTC().Add(ttl)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to increment rate bucket: %w", err)
	}
	return count, nil
}

// PruneRateBuckets deletes expired rate buckets and returns how many rows
// were removed. The server calls this periodically.
func (s *SQLiteStorage) PruneRateBuckets(ctx context.Context) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM rate_buckets WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune rate buckets: %w", err)
	}
	return result.RowsAffected()
}

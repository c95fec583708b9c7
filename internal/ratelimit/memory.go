package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// bucket is a single (clientKey, windowStart) counter.
type bucket struct {
	expiry time.Time
	count  int64
}

// MemoryStore is a thread-safe in-process counting store. It backs the
// governor when no database is configured and all of the tests.
type MemoryStore struct {
	buckets map[string]bucket
	stopCh  chan struct{}
	mu      sync.Mutex
}

// NewMemoryStore creates an in-memory counting store with a background
// sweeper for expired buckets.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		buckets: make(map[string]bucket),
		stopCh:  make(chan struct{}),
	}

	go s.cleanup()

	return s
}

// Count returns the current count for the bucket.
func (s *MemoryStore) Count(_ context.Context, clientKey string, windowStart int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[bucketKey(clientKey, windowStart)]
	if !ok || time.Now().After(b.expiry) {
		return 0, nil
	}
	return b.count, nil
}

// Increment adds one to the bucket, creating it with the given TTL.
func (s *MemoryStore) Increment(_ context.Context, clientKey string, windowStart int64, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := bucketKey(clientKey, windowStart)
	b, ok := s.buckets[key]
	if !ok || time.Now().After(b.expiry) {
		b = bucket{expiry: time.Now().Add(ttl)}
	}
	b.count++
	s.buckets[key] = b
	return b.count, nil
}

// cleanup periodically removes expired buckets.
func (s *MemoryStore) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.mu.Lock()
			now := time.Now()
			for key, b := range s.buckets {
				if now.After(b.expiry) {
					delete(s.buckets, key)
				}
			}
			s.mu.Unlock()
		}
	}
}

// Close stops the cleanup goroutine.
func (s *MemoryStore) Close() {
	close(s.stopCh)
}

func bucketKey(clientKey string, windowStart int64) string {
	return fmt.Sprintf("%s:%d", clientKey, windowStart)
}

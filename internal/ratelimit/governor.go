// Package ratelimit implements the request-rate governor protecting the
// remote resolution endpoints.
package ratelimit

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Defaults match the backend policy: 60 requests per 60-second window.
const (
	DefaultLimit  = 60
	DefaultWindow = 60 * time.Second
)

// Store counts requests per (clientKey, windowStart) bucket. Buckets are
// kept for two window widths so boundary-crossing requests stay covered.
type Store interface {
	// Count returns the current count for the bucket, 0 when absent.
	Count(ctx context.Context, clientKey string, windowStart int64) (int64, error)
	// Increment atomically adds one to the bucket, creating it with the
	// given time-to-live when absent, and returns the new count.
	Increment(ctx context.Context, clientKey string, windowStart int64, ttl time.Duration) (int64, error)
}

// Governor enforces a fixed-window request limit per client. When the
// counting store is unreachable it fails open: availability of the product
// feature outranks strict rate enforcement, and the moderation gate already
// fails closed to bound worst-case exposure.
type Governor struct {
	store  Store
	now    func() time.Time
	limit  int64
	window time.Duration
	faults atomic.Int64
}

// Option customizes a Governor.
type Option func(*Governor)

// WithLimit overrides the per-window request limit.
func WithLimit(limit int64) Option {
	return func(g *Governor) {
		g.limit = limit
	}
}

// WithWindow overrides the window width.
func WithWindow(window time.Duration) Option {
	return func(g *Governor) {
		g.window = window
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(g *Governor) {
		g.now = now
	}
}

// NewGovernor creates a governor over the given counting store.
func NewGovernor(store Store, opts ...Option) *Governor {
	g := &Governor{
		store:  store,
		limit:  DefaultLimit,
		window: DefaultWindow,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Allow reports whether a request from clientKey may proceed, counting it
// against the current window when it does.
func (g *Governor) Allow(ctx context.Context, clientKey string) bool {
	windowStart := g.now().Unix() / int64(g.window.Seconds())

	count, err := g.store.Count(ctx, clientKey, windowStart)
	if err != nil {
		g.recordFault(err)
		return true
	}

	if count >= g.limit {
		slog.Warn("Rate limit exceeded",
			"client", clientKey,
			"window_start", windowStart,
			"count", count)
		return false
	}

	if _, err := g.store.Increment(ctx, clientKey, windowStart, 2*g.window); err != nil {
		g.recordFault(err)
	}
	return true
}

// Faults returns how many times the counting store has failed.
func (g *Governor) Faults() int64 {
	return g.faults.Load()
}

func (g *Governor) recordFault(err error) {
	g.faults.Add(1)
	slog.Error("Rate limit store unavailable, failing open", "error", err)
}

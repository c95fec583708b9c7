// Package chain implements ordered first-success resolution.
//
// Both the barcode catalog fallback and the sprite cache tiers share the
// same shape: an ordered list of providers where the first hit wins and a
// provider failure simply advances to the next one. This package models
// that shape once.
package chain

import (
	"context"
	"errors"
	"log/slog"
)

// ErrHalt marks a provider failure that must stop the chain instead of
// falling through. Providers wrap terminal errors with it via Halt.
var ErrHalt = errors.New("resolution halted")

// Resolver is a single named provider in a chain. Fn returns (nil, nil)
// on a miss, a value on a hit, and an error on failure.
type Resolver[A, T any] struct {
	Name string
	Fn   func(ctx context.Context, arg A) (*T, error)
}

// Halt wraps err so the chain stops at this provider.
func Halt(err error) error {
	return errors.Join(ErrHalt, err)
}

// First runs resolvers in order and returns the first hit along with the
// name of the provider that produced it. Misses and failures advance to the
// next provider; failures wrapped in Halt stop the chain immediately. An
// exhausted chain returns (nil, "", nil).
func First[A, T any](ctx context.Context, arg A, resolvers []Resolver[A, T]) (*T, string, error) {
	for _, r := range resolvers {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}

		value, err := r.Fn(ctx, arg)
		if err != nil {
			if errors.Is(err, ErrHalt) {
				return nil, "", err
			}
			slog.Debug("Chain provider failed, advancing",
				"provider", r.Name,
				"error", err)
			continue
		}
		if value != nil {
			return value, r.Name, nil
		}
	}
	return nil, "", nil
}

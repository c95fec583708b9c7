package ratelimit

import (
	"context"
	"log/slog"
	"time"
)

// DefaultPruneInterval is how often expired buckets are swept from a
// persistent store.
const DefaultPruneInterval = 10 * time.Minute

// PruneStore is a counting store that can drop expired buckets. Persistent
// stores need sweeping; expiry filters on read alone would let dead rows
// accumulate forever.
type PruneStore interface {
	PruneRateBuckets(ctx context.Context) (int64, error)
}

// RunPruner sweeps the store once immediately and then on every interval
// tick until ctx is canceled. Prune failures are logged and the loop keeps
// going; enforcement never depends on pruning.
func RunPruner(ctx context.Context, store PruneStore, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPruneInterval
	}

	prune := func() {
		removed, err := store.PruneRateBuckets(ctx)
		if err != nil {
			slog.Error("Failed to prune rate buckets", "error", err)
			return
		}
		if removed > 0 {
			slog.Debug("Pruned expired rate buckets", "removed", removed)
		}
	}

	prune()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune()
		}
	}
}

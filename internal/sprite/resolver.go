package sprite

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hmallory/toytill/internal/backend"
	"github.com/hmallory/toytill/internal/chain"
	"github.com/hmallory/toytill/internal/common"
	"github.com/hmallory/toytill/internal/model"
)

// Generator produces a sprite image for an item, moderating the item name
// first. A safe=false result means the name was rejected and no image may
// be rendered for it, not even a placeholder keyed to that name.
type Generator interface {
	GenerateSprite(ctx context.Context, itemName, category string) (*backend.SpriteResult, error)
}

// Resolver walks the sprite tiers in order: bundle, disk cache,
// generate-and-cache, category placeholder.
type Resolver struct {
	bundle    *BundleStore
	disk      *DiskCache
	generator Generator
}

// NewResolver assembles the tiered resolver. bundle and generator may be
// nil, in which case their tiers are skipped.
func NewResolver(bundle *BundleStore, disk *DiskCache, generator Generator) *Resolver {
	return &Resolver{
		bundle:    bundle,
		disk:      disk,
		generator: generator,
	}
}

// spriteQuery carries one resolution request through the chain.
type spriteQuery struct {
	name     string
	category model.Category
	key      string
}

// Resolve returns a usable sprite state for the item. It never fails with
// a transport error: every tier failure falls through and the category
// placeholder terminates the chain. The single error it can return is
// common.ErrUnsafeName, which must suppress even the placeholder.
func (r *Resolver) Resolve(ctx context.Context, name string, category model.Category) (model.SpriteState, error) {
	query := spriteQuery{
		name:     name,
		category: category,
		key:      NormalizeKey(name, category),
	}

	resolvers := []chain.Resolver[spriteQuery, model.SpriteState]{
		{Name: "bundle", Fn: r.fromBundle},
		{Name: "disk-cache", Fn: r.fromDisk},
		{Name: "generate", Fn: r.generate},
	}

	state, tier, err := chain.First(ctx, query, resolvers)
	if err != nil {
		if errors.Is(err, common.ErrUnsafeName) {
			return model.SpriteState{}, common.ErrUnsafeName
		}
		// Context cancellation and the like: fall back to the placeholder.
		return model.PlaceholderSprite(category.PlaceholderSymbol()), nil
	}
	if state != nil {
		slog.Debug("Sprite resolved", "tier", tier, "key", query.key)
		return *state, nil
	}

	return model.PlaceholderSprite(category.PlaceholderSymbol()), nil
}

func (r *Resolver) fromBundle(_ context.Context, q spriteQuery) (*model.SpriteState, error) {
	if r.bundle == nil {
		return nil, nil
	}
	image, ok := r.bundle.Lookup(q.key, q.category)
	if !ok {
		return nil, nil
	}
	state := model.LocalSprite(image)
	return &state, nil
}

func (r *Resolver) fromDisk(_ context.Context, q spriteQuery) (*model.SpriteState, error) {
	if r.disk == nil {
		return nil, nil
	}
	image, ok := r.disk.Get(q.key)
	if !ok {
		return nil, nil
	}
	state := model.GeneratedSprite(image)
	return &state, nil
}

func (r *Resolver) generate(ctx context.Context, q spriteQuery) (*model.SpriteState, error) {
	if r.generator == nil {
		return nil, nil
	}

	result, err := r.generator.GenerateSprite(ctx, q.name, string(q.category))
	if err != nil {
		// Generation unreachable: fall through to the placeholder.
		return nil, err
	}
	if !result.Safe {
		// Moderation rejected the name. This must not fall through.
		return nil, chain.Halt(common.ErrUnsafeName)
	}

	if r.disk != nil {
		if err := r.disk.Put(q.key, result.Image); err != nil {
			slog.Error("Failed to cache generated sprite", "key", q.key, "error", err)
		}
	}

	state := model.GeneratedSprite(result.Image)
	return &state, nil
}

// Package engine implements the resolution orchestrator: it sequences the
// identification providers, applies pricing, owns the cart, and triggers
// asynchronous sprite resolution.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/hmallory/toytill/internal/chain"
	"github.com/hmallory/toytill/internal/common"
	"github.com/hmallory/toytill/internal/identify"
	"github.com/hmallory/toytill/internal/model"
	"github.com/hmallory/toytill/internal/pricing"
)

// SpriteResolver resolves the visual asset for an item.
type SpriteResolver interface {
	Resolve(ctx context.Context, name string, category model.Category) (model.SpriteState, error)
}

// ScanRecorder persists the trace of an accepted identification.
type ScanRecorder interface {
	RecordScan(ctx context.Context, record model.ScanRecord) error
}

// SpriteUpdate notifies the presentation layer that an entry's sprite
// changed in place.
type SpriteUpdate struct {
	EntryID uuid.UUID
	Sprite  model.SpriteState
}

// Engine runs one identification pipeline at a time per capture session.
type Engine struct {
	providers []identify.Provider
	sprites   SpriteResolver
	recorder  ScanRecorder
	cart      *Cart
	updates   chan SpriteUpdate
	inFlight  atomic.Bool
}

// Option customizes an Engine.
type Option func(*Engine)

// WithScanRecorder enables scan-history persistence.
func WithScanRecorder(recorder ScanRecorder) Option {
	return func(e *Engine) {
		e.recorder = recorder
	}
}

// New creates an engine over the ordered provider chain. Providers are
// tried strictly in the given order; the first acceptance wins.
func New(providers []identify.Provider, sprites SpriteResolver, cart *Cart, opts ...Option) *Engine {
	e := &Engine{
		providers: providers,
		sprites:   sprites,
		cart:      cart,
		updates:   make(chan SpriteUpdate, 16),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Cart returns the cart this engine feeds.
func (e *Engine) Cart() *Cart {
	return e.cart
}

// Updates is the side channel announcing in-place sprite swaps.
func (e *Engine) Updates() <-chan SpriteUpdate {
	return e.updates
}

// Identify runs the escalation chain for one capture and, on acceptance,
// adds a priced entry to the cart with a placeholder sprite. The concrete
// sprite resolves asynchronously and is swapped in place when ready.
//
// The two terminal outcomes — the chain could not identify the item, and
// moderation rejected the frame — both surface as common.ErrUnresolved.
// Keeping them indistinguishable denies callers a probe against the
// moderation boundary.
func (e *Engine) Identify(ctx context.Context, frame identify.Frame, code string) (*model.Entry, error) {
	// A capture already in flight blocks new ones: rapid repeated triggers
	// must not produce duplicate entries or duplicate remote calls.
	if !e.inFlight.CompareAndSwap(false, true) {
		return nil, common.ErrCaptureInFlight
	}
	defer e.inFlight.Store(false)

	capture := identify.Capture{Frame: frame, Code: code}

	resolvers := make([]chain.Resolver[identify.Capture, model.Identity], 0, len(e.providers))
	for _, provider := range e.providers {
		resolvers = append(resolvers, chain.Resolver[identify.Capture, model.Identity]{
			Name: provider.Name(),
			Fn:   provider.TryIdentify,
		})
	}

	identity, providerName, err := chain.First(ctx, capture, resolvers)
	if err != nil {
		if errors.Is(err, identify.ErrFrameRejected) {
			slog.Info("Capture rejected by moderation gate")
		} else {
			common.LogError(err, "Identification chain halted", nil)
		}
		return nil, common.ErrUnresolved
	}
	if identity == nil {
		slog.Info("No provider identified the capture")
		return nil, common.ErrUnresolved
	}

	price := pricing.Suggest(identity.Category, identity.Name)
	entry := model.NewEntry(*identity, price)
	e.cart.Add(entry)

	slog.Info("Capture identified",
		"provider", providerName,
		"name", identity.Name,
		"category", identity.Category,
		"confidence", identity.Confidence,
		"price", price.String())

	e.recordScan(ctx, entry, *identity)

	// Fire-and-forget: sprite resolution must not block or retry the
	// identification chain, and it may outlive this capture's context.
	go e.resolveSprite(context.WithoutCancel(ctx), entry)

	return &entry, nil
}

// recordScan persists the scan trace; failure is logged, never fatal.
func (e *Engine) recordScan(ctx context.Context, entry model.Entry, identity model.Identity) {
	if e.recorder == nil {
		return
	}

	record := model.ScanRecord{
		ID:         entry.ID.String(),
		Name:       entry.Name,
		Category:   entry.Category,
		PriceCents: entry.Price.Cents(),
		Provenance: identity.Provenance,
		Confidence: identity.Confidence,
	}
	if err := e.recorder.RecordScan(ctx, record); err != nil {
		common.LogError(err, "Failed to record scan", common.Fields{"entry_id": record.ID})
	}
}

// resolveSprite is the single writer for its entry's sprite field.
func (e *Engine) resolveSprite(ctx context.Context, entry model.Entry) {
	state, err := e.sprites.Resolve(ctx, entry.Name, entry.Category)
	if err != nil {
		if errors.Is(err, common.ErrUnsafeName) {
			// Policy: never render a sprite keyed to disallowed text. The
			// entry settles in the terminal suppressed state so nothing is
			// left waiting on a resolution that will never come.
			slog.Warn("Sprite suppressed for entry", "entry_id", entry.ID)
			state = model.SuppressedSprite()
		} else {
			common.LogError(err, "Sprite resolution failed", common.Fields{"entry_id": entry.ID})
			return
		}
	}

	// Orphaned-write guard: the entry may have been removed while we
	// resolved. UpdateSprite discards the write in that case.
	if !e.cart.UpdateSprite(entry.ID, state) {
		slog.Debug("Discarded sprite for removed entry", "entry_id", entry.ID)
		return
	}

	select {
	case e.updates <- SpriteUpdate{EntryID: entry.ID, Sprite: state}:
	default:
		// Nobody is draining the side channel; the cart already holds
		// the authoritative state.
	}
}

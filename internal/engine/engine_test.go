package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmallory/toytill/internal/chain"
	"github.com/hmallory/toytill/internal/common"
	"github.com/hmallory/toytill/internal/identify"
	"github.com/hmallory/toytill/internal/model"
)

type recordingRecorder struct {
	mu      sync.Mutex
	records []model.ScanRecord
}

func (r *recordingRecorder) RecordScan(_ context.Context, record model.ScanRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return nil
}

func (r *recordingRecorder) all() []model.ScanRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.ScanRecord(nil), r.records...)
}

func testFrame() identify.Frame {
	return identify.Frame{MIME: "image/jpeg", Bytes: []byte("jpeg-bytes")}
}

func TestIdentifyCatalogShortCircuit(t *testing.T) {
	catalog := &MockProvider{
		ProviderName: "catalog",
		Identity: &model.Identity{
			Name:       "Cheerios",
			Category:   model.CategoryCerealPastaCanned,
			Provenance: model.ProvenanceCatalogLookup,
			Confidence: 1.0,
		},
	}
	local := &MockProvider{ProviderName: "local"}
	remote := &MockProvider{ProviderName: "remote"}

	engine := New(
		[]identify.Provider{catalog, local, remote},
		&MockSpriteResolver{},
		NewCart(),
	)

	entry, err := engine.Identify(context.Background(), testFrame(), "0016000275270")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "Cheerios", entry.Name)

	// Later providers must never run once an earlier one accepts.
	assert.Equal(t, 1, catalog.Calls())
	assert.Equal(t, 0, local.Calls())
	assert.Equal(t, 0, remote.Calls())
}

func TestIdentifyEscalatesToRemote(t *testing.T) {
	catalog := &MockProvider{ProviderName: "catalog"} // no code match
	var localCalls int
	local := identify.NewLocalProvider(func(identify.Frame) (string, float64, error) {
		localCalls++
		return "banana", 0.40, nil // below the acceptance threshold
	}, identify.DefaultConfidenceThreshold)
	remote := &MockProvider{
		ProviderName: "remote",
		Identity: &model.Identity{
			Name:       "Banana",
			Category:   model.CategoryFreshProduce,
			Provenance: model.ProvenanceRemoteClassifier,
			Confidence: 0.93,
		},
	}
	sprites := &MockSpriteResolver{State: model.GeneratedSprite([]byte("png"))}
	recorder := &recordingRecorder{}
	cart := NewCart()

	engine := New(
		[]identify.Provider{catalog, local, remote},
		sprites,
		cart,
		WithScanRecorder(recorder),
	)

	entry, err := engine.Identify(context.Background(), testFrame(), "")
	require.NoError(t, err)
	require.NotNil(t, entry)

	assert.Equal(t, "Banana", entry.Name)
	assert.Equal(t, model.CategoryFreshProduce, entry.Category)
	assert.Equal(t, "$0.99", entry.Price.String())
	assert.Equal(t, model.SpriteLoading, entry.Sprite.Kind)

	assert.Equal(t, 1, catalog.Calls())
	assert.Equal(t, 1, localCalls)
	assert.Equal(t, 1, remote.Calls())

	// The concrete sprite swaps into the cart entry in place.
	require.Eventually(t, func() bool {
		items := cart.Items()
		return len(items) == 1 && items[0].Sprite.Kind == model.SpriteGenerated
	}, time.Second, 5*time.Millisecond)

	select {
	case update := <-engine.Updates():
		assert.Equal(t, entry.ID, update.EntryID)
		assert.Equal(t, model.SpriteGenerated, update.Sprite.Kind)
	case <-time.After(time.Second):
		t.Fatal("expected a sprite update notification")
	}

	records := recorder.all()
	require.Len(t, records, 1)
	assert.Equal(t, "Banana", records[0].Name)
	assert.Equal(t, model.ProvenanceRemoteClassifier, records[0].Provenance)
	assert.InDelta(t, 0.93, records[0].Confidence, 0.001)
}

func TestIdentifyModerationRejectionIsUnresolved(t *testing.T) {
	catalog := &MockProvider{ProviderName: "catalog"}
	local := &MockProvider{ProviderName: "local"}
	gated := &MockProvider{
		ProviderName: "remote",
		Err:          chain.Halt(identify.ErrFrameRejected),
	}
	after := &MockProvider{ProviderName: "manual"}
	cart := NewCart()

	engine := New([]identify.Provider{catalog, local, gated, after}, &MockSpriteResolver{}, cart)

	entry, err := engine.Identify(context.Background(), testFrame(), "")
	require.ErrorIs(t, err, common.ErrUnresolved)
	assert.Nil(t, entry)

	// The rejection halts the chain and produces no entry.
	assert.Equal(t, 0, after.Calls())
	assert.Equal(t, 0, cart.Len())
}

func TestIdentifyExhaustedChainIsUnresolved(t *testing.T) {
	providers := []identify.Provider{
		&MockProvider{ProviderName: "catalog"},
		&MockProvider{ProviderName: "local"},
	}
	engine := New(providers, &MockSpriteResolver{}, NewCart())

	entry, err := engine.Identify(context.Background(), testFrame(), "")
	require.ErrorIs(t, err, common.ErrUnresolved)
	assert.Nil(t, entry)
}

func TestIdentifyOutcomesIndistinguishable(t *testing.T) {
	rejected := New([]identify.Provider{
		&MockProvider{ProviderName: "remote", Err: chain.Halt(identify.ErrFrameRejected)},
	}, &MockSpriteResolver{}, NewCart())
	exhausted := New([]identify.Provider{
		&MockProvider{ProviderName: "remote"},
	}, &MockSpriteResolver{}, NewCart())

	_, rejectedErr := rejected.Identify(context.Background(), testFrame(), "")
	_, exhaustedErr := exhausted.Identify(context.Background(), testFrame(), "")

	// A caller comparing the two failures learns nothing about which
	// boundary produced them.
	assert.Equal(t, rejectedErr, exhaustedErr)
}

func TestIdentifySerializesCaptures(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	slow := &MockProvider{
		ProviderName: "slow",
		Identity: &model.Identity{
			Name:       "Rubber Duck",
			Category:   model.CategoryToy,
			Provenance: model.ProvenanceLocalClassifier,
			Confidence: 0.9,
		},
		Delay: func() {
			once.Do(func() { close(started) })
			<-release
		},
	}
	engine := New([]identify.Provider{slow}, &MockSpriteResolver{}, NewCart())

	done := make(chan error, 1)
	go func() {
		_, err := engine.Identify(context.Background(), testFrame(), "")
		done <- err
	}()

	<-started
	_, err := engine.Identify(context.Background(), testFrame(), "")
	require.ErrorIs(t, err, common.ErrCaptureInFlight)

	close(release)
	require.NoError(t, <-done)

	// Once the first capture settles, new ones proceed.
	_, err = engine.Identify(context.Background(), testFrame(), "")
	require.NoError(t, err)
}

func TestResolveSpriteDiscardsOrphanedWrite(t *testing.T) {
	gate := make(chan struct{})
	sprites := &MockSpriteResolver{
		State: model.GeneratedSprite([]byte("png")),
		Gate:  gate,
	}
	cart := NewCart()
	engine := New([]identify.Provider{
		&MockProvider{
			ProviderName: "catalog",
			Identity: &model.Identity{
				Name:       "Banana",
				Category:   model.CategoryFreshProduce,
				Provenance: model.ProvenanceCatalogLookup,
				Confidence: 1.0,
			},
		},
	}, sprites, cart)

	entry, err := engine.Identify(context.Background(), testFrame(), "banana")
	require.NoError(t, err)

	// The entry disappears while its sprite is still resolving.
	require.True(t, cart.Remove(entry.ID))
	close(gate)

	require.Eventually(t, func() bool {
		return sprites.Calls() == 1
	}, time.Second, 5*time.Millisecond)

	select {
	case update := <-engine.Updates():
		t.Fatalf("unexpected update for removed entry: %+v", update)
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, 0, cart.Len())
}

func TestResolveSpriteUnsafeNameSettlesSuppressed(t *testing.T) {
	sprites := &MockSpriteResolver{Err: common.ErrUnsafeName}
	cart := NewCart()
	engine := New([]identify.Provider{
		&MockProvider{
			ProviderName: "local",
			Identity: &model.Identity{
				Name:       "Mystery Box",
				Category:   model.CategoryToy,
				Provenance: model.ProvenanceLocalClassifier,
				Confidence: 0.88,
			},
		},
	}, sprites, cart)

	entry, err := engine.Identify(context.Background(), testFrame(), "")
	require.NoError(t, err)

	// The entry reaches a terminal state rather than loading forever, and
	// the side channel announces it so the presentation layer can settle.
	select {
	case update := <-engine.Updates():
		assert.Equal(t, entry.ID, update.EntryID)
		assert.Equal(t, model.SpriteSuppressed, update.Sprite.Kind)
	case <-time.After(time.Second):
		t.Fatal("expected a sprite update notification")
	}

	items := cart.Items()
	require.Len(t, items, 1)
	assert.Equal(t, model.SpriteSuppressed, items[0].Sprite.Kind)
	assert.False(t, items[0].Sprite.Concrete())
	assert.Empty(t, items[0].Sprite.Image)
	assert.Empty(t, items[0].Sprite.Symbol)

	// Suppression is terminal; nothing may replace it later.
	assert.False(t, cart.UpdateSprite(entry.ID, model.GeneratedSprite([]byte("png"))))
}

func TestCartTotals(t *testing.T) {
	cart := NewCart()
	cart.Add(model.NewEntry(model.Identity{Name: "Banana", Category: model.CategoryFreshProduce}, model.PriceFromCents(99)))
	cart.Add(model.NewEntry(model.Identity{Name: "Catan", Category: model.CategoryBoardGame}, model.PriceFromCents(1299)))

	assert.Equal(t, int64(1398), cart.Subtotal().Cents())
	// 1398 * 0.13 = 181.74, rounded to 182.
	assert.Equal(t, int64(182), cart.Tax().Cents())
	assert.Equal(t, int64(1580), cart.Total().Cents())
	assert.Equal(t, "$15.80", cart.Total().String())
}

func TestCartUpdateSpriteMonotonic(t *testing.T) {
	cart := NewCart()
	entry := model.NewEntry(model.Identity{
		Name:     "Banana",
		Category: model.CategoryFreshProduce,
	}, model.PriceFromCents(99))
	cart.Add(entry)

	require.True(t, cart.UpdateSprite(entry.ID, model.GeneratedSprite([]byte("png"))))

	// A concrete image never reverts to a placeholder.
	assert.False(t, cart.UpdateSprite(entry.ID, model.PlaceholderSprite("?")))

	items := cart.Items()
	require.Len(t, items, 1)
	assert.Equal(t, model.SpriteGenerated, items[0].Sprite.Kind)
}

func TestCartClearAndRemove(t *testing.T) {
	cart := NewCart()
	entry := model.NewEntry(model.Identity{Name: "Banana", Category: model.CategoryFreshProduce}, model.PriceFromCents(99))
	cart.Add(entry)

	require.Equal(t, 1, cart.Len())
	assert.False(t, cart.Remove(model.NewEntry(model.Identity{}, 0).ID))
	assert.True(t, cart.Remove(entry.ID))
	assert.Equal(t, 0, cart.Len())

	cart.Add(entry)
	cart.Clear()
	assert.Equal(t, 0, cart.Len())
	assert.Equal(t, int64(0), cart.Subtotal().Cents())
}

func TestIdentifyProviderFailureAdvances(t *testing.T) {
	failing := &MockProvider{ProviderName: "catalog", Err: errors.New("upstream timeout")}
	accepting := &MockProvider{
		ProviderName: "local",
		Identity: &model.Identity{
			Name:       "Teddy Bear",
			Category:   model.CategoryStuffedAnimalS,
			Provenance: model.ProvenanceLocalClassifier,
			Confidence: 0.81,
		},
	}
	engine := New([]identify.Provider{failing, accepting}, &MockSpriteResolver{}, NewCart())

	entry, err := engine.Identify(context.Background(), testFrame(), "")
	require.NoError(t, err)
	assert.Equal(t, "Teddy Bear", entry.Name)
	assert.Equal(t, 1, accepting.Calls())
}

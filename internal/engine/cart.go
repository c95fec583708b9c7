package engine

import (
	"math"
	"sync"

	"github.com/google/uuid"
	"github.com/hmallory/toytill/internal/model"
)

// DefaultTaxRate is the flat tax applied to the cart total.
const DefaultTaxRate = 0.13

// Cart owns the resolved entries for a capture session.
type Cart struct {
	entries []model.Entry
	taxRate float64
	mu      sync.RWMutex
}

// NewCart creates an empty cart with the default tax rate.
func NewCart() *Cart {
	return &Cart{taxRate: DefaultTaxRate}
}

// NewCartWithTaxRate creates an empty cart with a custom tax rate.
func NewCartWithTaxRate(rate float64) *Cart {
	return &Cart{taxRate: rate}
}

// Add appends an entry.
func (c *Cart) Add(entry model.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
}

// Remove deletes an entry by ID and reports whether it existed.
func (c *Cart) Remove(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, entry := range c.entries {
		if entry.ID == id {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the cart. In-flight sprite tasks for removed entries are
// discarded by the orphaned-write guard in UpdateSprite.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
}

// Items returns a snapshot of the entries.
func (c *Cart) Items() []model.Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	items := make([]model.Entry, len(c.entries))
	copy(items, c.entries)
	return items
}

// Len returns the number of entries.
func (c *Cart) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// UpdateSprite swaps an entry's sprite in place. It reports false when the
// entry no longer exists (the task outlived its entry) or when the
// transition would revert a concrete image.
func (c *Cart) UpdateSprite(id uuid.UUID, sprite model.SpriteState) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.entries {
		if c.entries[i].ID != id {
			continue
		}
		if !c.entries[i].Sprite.CanTransition(sprite) {
			return false
		}
		c.entries[i].Sprite = sprite
		return true
	}
	return false
}

// Subtotal sums the entry prices.
func (c *Cart) Subtotal() model.Price {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var cents int64
	for _, entry := range c.entries {
		cents += entry.Price.Cents()
	}
	return model.PriceFromCents(cents)
}

// Tax returns the flat tax on the subtotal, rounded to cents.
func (c *Cart) Tax() model.Price {
	subtotal := c.Subtotal()
	return model.PriceFromCents(int64(math.Round(float64(subtotal.Cents()) * c.taxRate)))
}

// Total returns subtotal plus tax.
func (c *Cart) Total() model.Price {
	return model.PriceFromCents(c.Subtotal().Cents() + c.Tax().Cents())
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// Entry is a cart line item built from an accepted Identity. The sprite
// field starts as a loading placeholder and is swapped in place exactly once
// when asynchronous resolution completes.
type Entry struct {
	ID       uuid.UUID
	Name     string
	Category Category
	Price    Price
	Sprite   SpriteState
	AddedAt  time.Time
}

// NewEntry builds a cart entry for an identity with a loading sprite.
func NewEntry(identity Identity, price Price) Entry {
	return Entry{
		ID:       uuid.New(),
		Name:     identity.Name,
		Category: identity.Category,
		Price:    price,
		Sprite:   LoadingSprite(identity.Category.PlaceholderSymbol()),
		AddedAt:  time.Now(),
	}
}

// ScanRecord is the persisted trace of an accepted identification. It is
// written once per accepted capture and never updated.
type ScanRecord struct {
	ID         string
	Name       string
	Category   Category
	PriceCents int64
	Provenance Provenance
	Confidence float64
	CreatedAt  time.Time
}

// Package catalog resolves barcodes against external product databases.
//
// Sources are tried in a fixed fallback order with sub-second budgets;
// the first hit wins. Catalog results come from curated third-party data,
// so identities produced here are exempt from the moderation gate.
package catalog

import (
	"context"

	"github.com/hmallory/toytill/internal/chain"
	"github.com/hmallory/toytill/internal/model"
)

// Source is a single barcode database.
type Source interface {
	// Lookup returns the identity for a barcode, (nil, nil) when the code
	// is unknown to this database, or an error on transport failure.
	Lookup(ctx context.Context, code string) (*model.Identity, error)
	Name() string
}

// Catalog chains barcode sources in a fixed fallback order.
type Catalog struct {
	sources []Source
}

// New creates a catalog over the given sources. Order matters: earlier
// sources are preferred.
func New(sources ...Source) *Catalog {
	return &Catalog{sources: sources}
}

// Lookup queries each source in order and returns the first hit, or
// (nil, nil) if no database knows the code.
func (c *Catalog) Lookup(ctx context.Context, code string) (*model.Identity, error) {
	resolvers := make([]chain.Resolver[string, model.Identity], 0, len(c.sources))
	for _, source := range c.sources {
		resolvers = append(resolvers, chain.Resolver[string, model.Identity]{
			Name: source.Name(),
			Fn:   source.Lookup,
		})
	}

	identity, _, err := chain.First(ctx, code, resolvers)
	if err != nil {
		return nil, err
	}
	return identity, nil
}

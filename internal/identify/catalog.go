package identify

import (
	"context"

	"github.com/hmallory/toytill/internal/catalog"
	"github.com/hmallory/toytill/internal/model"
)

// CatalogProvider resolves a pre-detected barcode against the product
// catalog. Catalog data is curated, so results are accepted unconditionally
// and never moderated.
type CatalogProvider struct {
	catalog *catalog.Catalog
}

// NewCatalogProvider wraps a catalog.
func NewCatalogProvider(c *catalog.Catalog) *CatalogProvider {
	return &CatalogProvider{catalog: c}
}

// Name identifies this provider in logs.
func (p *CatalogProvider) Name() string {
	return "catalog"
}

// TryIdentify looks up the capture's barcode. Captures without a code are
// a miss for this provider.
func (p *CatalogProvider) TryIdentify(ctx context.Context, capture Capture) (*model.Identity, error) {
	if capture.Code == "" {
		return nil, nil
	}
	return p.catalog.Lookup(ctx, capture.Code)
}

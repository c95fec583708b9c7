package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hmallory/toytill/internal/model"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const openFoodFactsUserAgent = "toytill/1.0 (children's play till; contact@example.com)"

// OpenFoodFactsSource queries the Open Food Facts product database.
// Free, no API key required.
type OpenFoodFactsSource struct {
	httpClient *http.Client
	baseURL    string
}

// NewOpenFoodFactsSource creates an Open Food Facts source.
func NewOpenFoodFactsSource() *OpenFoodFactsSource {
	return &OpenFoodFactsSource{
		baseURL: "https://world.openfoodfacts.org",
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// NewOpenFoodFactsSourceWithURL creates a source against a custom endpoint.
// Used by tests.
func NewOpenFoodFactsSourceWithURL(baseURL string) *OpenFoodFactsSource {
	s := NewOpenFoodFactsSource()
	s.baseURL = baseURL
	return s
}

// Name identifies this source in logs.
func (s *OpenFoodFactsSource) Name() string {
	return "Open Food Facts"
}

// Lookup resolves a barcode against Open Food Facts.
func (s *OpenFoodFactsSource) Lookup(ctx context.Context, code string) (*model.Identity, error) {
	url := fmt.Sprintf("%s/api/v2/product/%s?fields=product_name,categories_tags", s.baseURL, code)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", openFoodFactsUserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("open food facts error (status %d)", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var response struct {
		Status  int `json:"status"`
		Product struct {
			ProductName    string   `json:"product_name"`
			CategoriesTags []string `json:"categories_tags"`
		} `json:"product"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	// Status 0 means the barcode is not in the database - a miss, not a failure.
	if response.Status != 1 || response.Product.ProductName == "" {
		return nil, nil
	}

	return &model.Identity{
		Name:       cases.Title(language.English).String(response.Product.ProductName),
		Category:   mapFoodFactsCategory(response.Product.CategoriesTags),
		Provenance: model.ProvenanceCatalogLookup,
		Confidence: 1.0,
	}, nil
}

// mapFoodFactsCategory maps Open Food Facts category tags onto the taxonomy.
// Most barcoded food items are packaged snacks, so that is the default.
func mapFoodFactsCategory(tags []string) model.Category {
	joined := strings.ToLower(strings.Join(tags, " "))

	switch {
	case strings.Contains(joined, "snack"),
		strings.Contains(joined, "chip"),
		strings.Contains(joined, "candy"),
		strings.Contains(joined, "chocolate"),
		strings.Contains(joined, "cookie"):
		return model.CategoryPackagedSnack
	case strings.Contains(joined, "cereal"),
		strings.Contains(joined, "pasta"),
		strings.Contains(joined, "rice"),
		strings.Contains(joined, "canned"),
		strings.Contains(joined, "conserv"):
		return model.CategoryCerealPastaCanned
	case strings.Contains(joined, "fresh"),
		strings.Contains(joined, "fruit"),
		strings.Contains(joined, "vegetable"),
		strings.Contains(joined, "produce"):
		return model.CategoryFreshProduce
	default:
		return model.CategoryPackagedSnack
	}
}

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
)

// UPCItemDBSource queries the UPCitemdb trial endpoint. No key needed for
// limited use; it serves as the fallback behind Open Food Facts.
type UPCItemDBSource struct {
	httpClient *http.Client
	baseURL    string
}

// NewUPCItemDBSource creates a UPCitemdb source.
func NewUPCItemDBSource() *UPCItemDBSource {
	return &UPCItemDBSource{
		baseURL: "https://api.upcitemdb.com",
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// NewUPCItemDBSourceWithURL creates a source against a custom endpoint.
// Used by tests.
func NewUPCItemDBSourceWithURL(baseURL string) *UPCItemDBSource {
	s := NewUPCItemDBSource()
	s.baseURL = baseURL
	return s
}

// Name identifies this source in logs.
func (s *UPCItemDBSource) Name() string {
	return "UPCitemdb"
}

// Lookup resolves a barcode against UPCitemdb.
func (s *UPCItemDBSource) Lookup(ctx context.Context, code string) (*model.Identity, error) {
	url := fmt.Sprintf("%s/prod/trial/lookup?upc=%s", s.baseURL, code)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upcitemdb error (status %d)", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var response struct {
		Items []struct {
			Title    string `json:"title"`
			Category string `json:"category"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(response.Items) == 0 || response.Items[0].Title == "" {
		return nil, nil
	}

	item := response.Items[0]
	return &model.Identity{
		Name:       item.Title,
		Category:   mapUPCCategory(item.Category),
		Provenance: model.ProvenanceCatalogLookup,
		Confidence: 1.0,
	}, nil
}

// mapUPCCategory maps a UPCitemdb category string onto the taxonomy.
func mapUPCCategory(raw string) model.Category {
	lower := strings.ToLower(raw)

	switch {
	case strings.Contains(lower, "toy"):
		return model.CategoryToy
	case strings.Contains(lower, "game"):
		return model.CategoryBoardGame
	case strings.Contains(lower, "book"):
		return model.CategoryChildrensBook
	case strings.Contains(lower, "food"),
		strings.Contains(lower, "grocery"),
		strings.Contains(lower, "beverage"):
		return model.CategoryPackagedSnack
	case strings.Contains(lower, "apparel"),
		strings.Contains(lower, "clothing"):
		return model.CategoryClothing
	default:
		return model.CategoryHouseholdItem
	}
}

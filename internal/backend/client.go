// Package backend provides the typed client for the toytill HTTP service.
//
// API keys for the upstream classification, moderation, and generation
// services never reach this client; it only talks to the proxy, carrying a
// shared app token.
package backend

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// AuthHeader carries the shared secret on every request.
const AuthHeader = "X-App-Token"

// Client calls the toytill backend endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	appToken   string
}

// ClassifyResult is the /classify response.
type ClassifyResult struct {
	ItemName       string
	Category       string
	Confidence     float64
	SuggestedPrice float64
	Safe           bool
}

// SpriteResult is the /generate-sprite response.
type SpriteResult struct {
	Image []byte
	Safe  bool
}

// NewClient creates a backend client.
func NewClient(baseURL, appToken string) *Client {
	return &Client{
		baseURL:  baseURL,
		appToken: appToken,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// Classify submits frame bytes for moderation plus vision classification.
// A safe=false result means moderation rejected the frame; the caller must
// not retry or escalate.
func (c *Client) Classify(ctx context.Context, image []byte, mimeType string) (*ClassifyResult, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	request := map[string]any{
		"image_base64": base64.StdEncoding.EncodeToString(image),
		"mime_type":    mimeType,
	}

	var response struct {
		ItemName       string  `json:"item_name"`
		Category       string  `json:"category"`
		SuggestedPrice float64 `json:"suggested_price"`
		Confidence     float64 `json:"confidence"`
		Safe           bool    `json:"safe"`
	}
	if err := c.post(ctx, "/classify", request, &response); err != nil {
		return nil, err
	}

	return &ClassifyResult{
		Safe:           response.Safe,
		ItemName:       response.ItemName,
		Category:       response.Category,
		SuggestedPrice: response.SuggestedPrice,
		Confidence:     response.Confidence,
	}, nil
}

// GenerateSprite asks the backend for a sprite image. A safe=false result
// means the item name was rejected by moderation.
func (c *Client) GenerateSprite(ctx context.Context, itemName, category string) (*SpriteResult, error) {
	request := map[string]any{
		"item_name": itemName,
		"category":  category,
	}

	var response struct {
		ImageBase64 string `json:"image_base64"`
		Safe        bool   `json:"safe"`
	}
	if err := c.post(ctx, "/generate-sprite", request, &response); err != nil {
		return nil, err
	}

	if !response.Safe {
		return &SpriteResult{Safe: false}, nil
	}

	image, err := base64.StdEncoding.DecodeString(response.ImageBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode sprite image: %w", err)
	}

	return &SpriteResult{Safe: true, Image: image}, nil
}

// ModerateText checks a text string through the backend moderation route.
func (c *Client) ModerateText(ctx context.Context, text string) (bool, error) {
	request := map[string]any{"text": text}

	var response struct {
		Safe bool `json:"safe"`
	}
	if err := c.post(ctx, "/moderate", request, &response); err != nil {
		return false, err
	}
	return response.Safe, nil
}

func (c *Client) post(ctx context.Context, path string, request any, response any) error {
	jsonBody, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(AuthHeader, c.appToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend error on %s (status %d)", path, resp.StatusCode)
	}

	if err := json.Unmarshal(body, response); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

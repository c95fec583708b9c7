package moderation

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultModerationModel = "omni-moderation-latest"

// OpenAIModerator calls the OpenAI moderations API. The omni model accepts
// both text and image inputs.
type OpenAIModerator struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
}

// OpenAIOption customizes an OpenAIModerator.
type OpenAIOption func(*OpenAIModerator)

// WithBaseURL overrides the API endpoint. Used by tests.
func WithBaseURL(url string) OpenAIOption {
	return func(m *OpenAIModerator) {
		m.baseURL = url
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) OpenAIOption {
	return func(m *OpenAIModerator) {
		m.httpClient = client
	}
}

// NewOpenAIModerator creates a moderator backed by the OpenAI API.
func NewOpenAIModerator(apiKey string, opts ...OpenAIOption) (*OpenAIModerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	m := &OpenAIModerator{
		apiKey:  apiKey,
		model:   defaultModerationModel,
		baseURL: "https://api.openai.com/v1/moderations",
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// ModerateText classifies a text string. True means the text is safe.
func (m *OpenAIModerator) ModerateText(ctx context.Context, text string) (bool, error) {
	requestBody := map[string]any{
		"model": m.model,
		"input": text,
	}
	return m.moderate(ctx, requestBody)
}

// ModerateImage classifies image bytes. True means the image is safe.
func (m *OpenAIModerator) ModerateImage(ctx context.Context, image []byte, mimeType string) (bool, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	requestBody := map[string]any{
		"model": m.model,
		"input": []map[string]any{
			{
				"type": "image_url",
				"image_url": map[string]string{
					"url": dataURL,
				},
			},
		},
	}
	return m.moderate(ctx, requestBody)
}

func (m *OpenAIModerator) moderate(ctx context.Context, requestBody map[string]any) (bool, error) {
	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return false, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL, strings.NewReader(string(jsonBody)))
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("moderation API error (status %d)", resp.StatusCode)
	}

	var response moderationResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return false, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(response.Results) == 0 {
		return false, fmt.Errorf("no moderation results returned")
	}

	return !response.Results[0].Flagged, nil
}

// moderationResponse represents the moderations API response structure.
type moderationResponse struct {
	Results []struct {
		Flagged        bool               `json:"flagged"`
		Categories     map[string]bool    `json:"categories"`
		CategoryScores map[string]float64 `json:"category_scores"`
	} `json:"results"`
}

package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hmallory/toytill/internal/model"
)

// DefaultImageModel is the OpenAI image model used for sprite generation.
const DefaultImageModel = "gpt-image-1"

// categoryStyleHints steer generation toward a recognizable silhouette for
// each taxonomy category. Missing categories get no hint.
var categoryStyleHints = map[model.Category]string{
	model.CategoryFreshProduce:      "Bright round fruit or vegetable shape. ",
	model.CategoryPackagedSnack:     "Small rectangular or bag-shaped package. ",
	model.CategoryCerealPastaCanned: "Box or can shape, label facing forward. ",
	model.CategoryStuffedAnimalS:    "Cute fluffy plush toy animal, rounded and soft-looking. ",
	model.CategoryStuffedAnimalL:    "Large cute plush toy animal, front-facing. ",
	model.CategoryChildrensBook:     "Rectangular book with colorful cover, slightly tilted. ",
	model.CategoryToy:               "Fun colorful toy shape. ",
	model.CategoryBoardGame:         "Square box with colorful top. ",
	model.CategoryClothing:          "Flat front-facing clothing item. ",
	model.CategoryHouseholdItem:     "Simple everyday household object. ",
}

// OpenAIImageClient generates pixel-art sprites via the OpenAI images API.
type OpenAIImageClient struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
}

// ImageOption customizes an OpenAIImageClient.
type ImageOption func(*OpenAIImageClient)

// WithImagesBaseURL overrides the API endpoint. Used by tests.
func WithImagesBaseURL(url string) ImageOption {
	return func(c *OpenAIImageClient) {
		c.baseURL = url
	}
}

// WithImagesHTTPClient overrides the HTTP client.
func WithImagesHTTPClient(client *http.Client) ImageOption {
	return func(c *OpenAIImageClient) {
		c.httpClient = client
	}
}

// NewOpenAIImageClient creates an image generator backed by the OpenAI API.
func NewOpenAIImageClient(apiKey string, opts ...ImageOption) (*OpenAIImageClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	c := &OpenAIImageClient{
		apiKey:  apiKey,
		model:   DefaultImageModel,
		baseURL: "https://api.openai.com/v1/images/generations",
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Generate produces sprite PNG bytes for an item name and category.
func (c *OpenAIImageClient) Generate(ctx context.Context, itemName, category string) ([]byte, error) {
	requestBody := map[string]any{
		"model":         c.model,
		"prompt":        spritePrompt(itemName, model.Category(category)),
		"n":             1,
		"size":          "1024x1024",
		"output_format": "png",
		"quality":       "low",
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("images request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read images response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("images API returned status %d", resp.StatusCode)
	}

	var response struct {
		Data []struct {
			B64JSON string `json:"b64_json"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, fmt.Errorf("failed to parse images response: %w", err)
	}
	if len(response.Data) == 0 || response.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("images API returned no image data")
	}

	image, err := base64.StdEncoding.DecodeString(response.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image data: %w", err)
	}
	return image, nil
}

// spritePrompt builds the generation prompt. Pixel-art constraints keep the
// output consistent across items; the category hint anchors the silhouette.
func spritePrompt(itemName string, category model.Category) string {
	return fmt.Sprintf(
		"Simple pixel art sprite of %s. "+
			"8-bit style, cheerful, clean. "+
			"%s"+
			"Transparent background. "+
			"Single object centered in frame, no background scenery, no text. "+
			"Bold outlines, saturated friendly colors. "+
			"Suitable for a young children's store app.",
		itemName, categoryStyleHints[category])
}

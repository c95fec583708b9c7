package server

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"
)

// DefaultGeminiModel is the vision model used for classification.
const DefaultGeminiModel = "gemini-2.0-flash"

// classifyPrompt constrains the model to the store taxonomy and to JSON
// output. Confidence 0.0 is the model's own "cannot identify" signal.
const classifyPrompt = `You are a product identifier for a children's toy store app.
Identify the single main object visible in this image.
Respond ONLY with a JSON object — no markdown, no explanation.

Categories you must choose from:
- fresh_produce (fruits, vegetables)
- packaged_snack (chips, crackers, candy, granola bars)
- cereal_pasta_canned (cereal boxes, pasta boxes, canned goods)
- stuffed_animal_small (small plush toys, stuffed animals under ~30cm)
- stuffed_animal_large (large plush toys, stuffed animals over ~30cm)
- childrens_book (picture books, board books, story books)
- toy (action figures, dolls, vehicles, building sets, puzzles)
- board_game (board games, card games, game boxes)
- clothing (shirts, pants, shoes, hats, socks, jackets)
- household_item (cups, bottles, boxes, bags, containers, electronics)
- other (anything that doesn't fit the above)

JSON format:
{
  "item_name": "short, friendly name (2-4 words, e.g. 'Red Apple', 'Stuffed Bear', 'Lego Set')",
  "category": "one of the categories above",
  "confidence": 0.0
}

Set confidence to 0.0 if you cannot clearly identify a safe, everyday object.
Do not identify people, animals (non-toy), weapons, or anything inappropriate.`

// GeminiClassifier identifies items with the Gemini vision API.
type GeminiClassifier struct {
	client *genai.Client
	model  string
}

// NewGeminiClassifier creates a Gemini-backed classifier.
func NewGeminiClassifier(ctx context.Context, apiKey, model string) (*GeminiClassifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClassifier{client: client, model: model}, nil
}

// Classify sends the frame to Gemini and parses the structured verdict.
func (g *GeminiClassifier) Classify(ctx context.Context, image []byte, mimeType string) (*Classification, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image, mimeType),
			genai.NewPartFromText(classifyPrompt),
		}, genai.RoleUser),
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.1),
		MaxOutputTokens:  200,
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("Gemini classification failed: %w", err)
	}

	raw := result.Text()
	if raw == "" {
		return nil, fmt.Errorf("Gemini returned an empty response")
	}

	var parsed struct {
		ItemName   string  `json:"item_name"`
		Category   string  `json:"category"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse Gemini response: %w", err)
	}
	if parsed.ItemName == "" || parsed.Category == "" {
		return nil, fmt.Errorf("Gemini returned an incomplete classification")
	}

	return &Classification{
		ItemName:   parsed.ItemName,
		Category:   parsed.Category,
		Confidence: parsed.Confidence,
	}, nil
}

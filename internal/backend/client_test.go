package backend

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifySendsTokenAndParsesResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/classify", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get(AuthHeader))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotEmpty(t, body["image_base64"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"safe":            true,
			"item_name":       "Banana",
			"category":        "fresh_produce",
			"suggested_price": 0.99,
			"confidence":      0.93,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret")
	result, err := client.Classify(context.Background(), []byte{0xFF, 0xD8}, "image/jpeg")
	require.NoError(t, err)
	assert.True(t, result.Safe)
	assert.Equal(t, "Banana", result.ItemName)
	assert.Equal(t, "fresh_produce", result.Category)
	assert.InDelta(t, 0.93, result.Confidence, 0.0001)
}

func TestClassifyUnsafeResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"safe": false})
	}))
	defer server.Close()

	result, err := NewClient(server.URL, "secret").Classify(context.Background(), []byte{1}, "")
	require.NoError(t, err)
	assert.False(t, result.Safe)
}

func TestClassifyNonOKStatusIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "secret").Classify(context.Background(), []byte{1}, "")
	assert.Error(t, err)
}

func TestGenerateSpriteDecodesImage(t *testing.T) {
	image := []byte{0x89, 'P', 'N', 'G'}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/generate-sprite", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"safe":         true,
			"image_base64": base64.StdEncoding.EncodeToString(image),
		})
	}))
	defer server.Close()

	result, err := NewClient(server.URL, "secret").GenerateSprite(context.Background(), "Red Apple", "fresh_produce")
	require.NoError(t, err)
	assert.True(t, result.Safe)
	assert.Equal(t, image, result.Image)
}

func TestGenerateSpriteUnsafeName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"safe": false})
	}))
	defer server.Close()

	result, err := NewClient(server.URL, "secret").GenerateSprite(context.Background(), "bad name", "toy")
	require.NoError(t, err)
	assert.False(t, result.Safe)
	assert.Nil(t, result.Image)
}

func TestModerateText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/moderate", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"safe": true})
	}))
	defer server.Close()

	safe, err := NewClient(server.URL, "secret").ModerateText(context.Background(), "Red Apple")
	require.NoError(t, err)
	assert.True(t, safe)
}

func TestModerateTextTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	server.Close()

	_, err := NewClient(server.URL, "secret").ModerateText(context.Background(), "Red Apple")
	assert.Error(t, err)
}

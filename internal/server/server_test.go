package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmallory/toytill/internal/backend"
	"github.com/hmallory/toytill/internal/common"
	"github.com/hmallory/toytill/internal/moderation"
	"github.com/hmallory/toytill/internal/ratelimit"
)

const testToken = "test-app-token"

type stubClassifier struct {
	result *Classification
	err    error
	calls  int
}

func (s *stubClassifier) Classify(_ context.Context, _ []byte, _ string) (*Classification, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubGenerator struct {
	image []byte
	err   error
	calls int
}

func (s *stubGenerator) Generate(_ context.Context, _, _ string) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.image, nil
}

type stubModerator struct {
	safeText  bool
	safeImage bool
	err       error
}

func (s *stubModerator) ModerateText(_ context.Context, _ string) (bool, error) {
	return s.safeText, s.err
}

func (s *stubModerator) ModerateImage(_ context.Context, _ []byte, _ string) (bool, error) {
	return s.safeImage, s.err
}

type memCache struct {
	mu      sync.Mutex
	sprites map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{sprites: make(map[string][]byte)}
}

func (c *memCache) GetSprite(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	image, ok := c.sprites[key]
	if !ok {
		return nil, common.ErrNotFound
	}
	return image, nil
}

func (c *memCache) PutSprite(_ context.Context, key string, image []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sprites[key] = image
	return nil
}

type failingStore struct{}

func (failingStore) Count(_ context.Context, _ string, _ int64) (int64, error) {
	return 0, errors.New("store unavailable")
}

func (failingStore) Increment(_ context.Context, _ string, _ int64, _ time.Duration) (int64, error) {
	return 0, errors.New("store unavailable")
}

type testServer struct {
	*Server
	classifier *stubClassifier
	generator  *stubGenerator
	moderator  *stubModerator
	cache      *memCache
}

func newTestServer(t *testing.T, opts ...func(*testServer)) *testServer {
	t.Helper()

	ts := &testServer{
		classifier: &stubClassifier{
			result: &Classification{ItemName: "Banana", Category: "fresh_produce", Confidence: 0.93},
		},
		generator: &stubGenerator{image: []byte("png-bytes")},
		moderator: &stubModerator{safeText: true, safeImage: true},
		cache:     newMemCache(),
	}
	for _, opt := range opts {
		opt(ts)
	}

	srv, err := New(
		Config{AppToken: testToken},
		ts.classifier,
		ts.generator,
		moderation.NewGate(ts.moderator),
		ts.cache,
		nil,
	)
	require.NoError(t, err)
	ts.Server = srv
	return ts
}

func postJSON(t *testing.T, handler http.Handler, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	jsonBody, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(backend.AuthHeader, token)
	}

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var payload map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	return payload
}

func TestNewRequiresAppToken(t *testing.T) {
	_, err := New(Config{}, nil, nil, nil, nil, nil)
	require.Error(t, err)
}

func TestHealthIsOpen(t *testing.T) {
	handler := newTestServer(t).Handler()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "ok", decodeBody(t, recorder)["status"])
}

func TestProtectedRoutesRejectBadToken(t *testing.T) {
	handler := newTestServer(t).Handler()
	body := map[string]any{"text": "banana"}

	recorder := postJSON(t, handler, "/moderate", body, "")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder = postJSON(t, handler, "/moderate", body, "wrong-token")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestClassifyHappyPath(t *testing.T) {
	ts := newTestServer(t)
	handler := ts.Handler()

	recorder := postJSON(t, handler, "/classify", map[string]any{
		"image_base64": base64.StdEncoding.EncodeToString([]byte("jpeg")),
		"mime_type":    "image/jpeg",
	}, testToken)

	require.Equal(t, http.StatusOK, recorder.Code)
	payload := decodeBody(t, recorder)
	assert.Equal(t, true, payload["safe"])
	assert.Equal(t, "Banana", payload["item_name"])
	assert.Equal(t, "fresh_produce", payload["category"])
	assert.InDelta(t, 0.99, payload["suggested_price"], 0.001)
	assert.InDelta(t, 0.93, payload["confidence"], 0.001)
}

func TestClassifyUnsafeImageShortCircuits(t *testing.T) {
	ts := newTestServer(t, func(ts *testServer) {
		ts.moderator.safeImage = false
	})

	recorder := postJSON(t, ts.Handler(), "/classify", map[string]any{
		"image_base64": base64.StdEncoding.EncodeToString([]byte("jpeg")),
	}, testToken)

	require.Equal(t, http.StatusOK, recorder.Code)
	payload := decodeBody(t, recorder)
	assert.Equal(t, false, payload["safe"])
	assert.NotContains(t, payload, "item_name")

	// The frame never reaches the classifier.
	assert.Equal(t, 0, ts.classifier.calls)
}

func TestClassifyModerationFailureIsUnsafe(t *testing.T) {
	ts := newTestServer(t, func(ts *testServer) {
		ts.moderator.err = errors.New("moderation unreachable")
	})

	recorder := postJSON(t, ts.Handler(), "/classify", map[string]any{
		"image_base64": base64.StdEncoding.EncodeToString([]byte("jpeg")),
	}, testToken)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, false, decodeBody(t, recorder)["safe"])
	assert.Equal(t, 0, ts.classifier.calls)
}

func TestClassifyUpstreamFailure(t *testing.T) {
	ts := newTestServer(t, func(ts *testServer) {
		ts.classifier.err = errors.New("gemini unreachable")
	})

	recorder := postJSON(t, ts.Handler(), "/classify", map[string]any{
		"image_base64": base64.StdEncoding.EncodeToString([]byte("jpeg")),
	}, testToken)

	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
}

func TestClassifyRejectsBadRequests(t *testing.T) {
	handler := newTestServer(t).Handler()

	recorder := postJSON(t, handler, "/classify", map[string]any{}, testToken)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = postJSON(t, handler, "/classify", map[string]any{
		"image_base64": "not!!base64",
	}, testToken)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	req := httptest.NewRequest(http.MethodPost, "/classify", bytes.NewReader([]byte("{broken")))
	req.Header.Set(backend.AuthHeader, testToken)
	raw := httptest.NewRecorder()
	handler.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestGenerateSpriteCachesByKey(t *testing.T) {
	ts := newTestServer(t)
	handler := ts.Handler()
	body := map[string]any{"item_name": "Stuffed Bear", "category": "stuffed_animal_small"}

	recorder := postJSON(t, handler, "/generate-sprite", body, testToken)
	require.Equal(t, http.StatusOK, recorder.Code)
	payload := decodeBody(t, recorder)
	assert.Equal(t, true, payload["safe"])
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("png-bytes")), payload["image_base64"])

	// The second request replays the cache; generation runs exactly once.
	recorder = postJSON(t, handler, "/generate-sprite", body, testToken)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 1, ts.generator.calls)
}

func TestGenerateSpriteUnsafeName(t *testing.T) {
	ts := newTestServer(t, func(ts *testServer) {
		ts.moderator.safeText = false
	})

	recorder := postJSON(t, ts.Handler(), "/generate-sprite", map[string]any{
		"item_name": "Something Nasty",
	}, testToken)

	require.Equal(t, http.StatusOK, recorder.Code)
	payload := decodeBody(t, recorder)
	assert.Equal(t, false, payload["safe"])
	assert.NotContains(t, payload, "image_base64")

	// Nothing is generated or cached for a rejected name.
	assert.Equal(t, 0, ts.generator.calls)
	assert.Empty(t, ts.cache.sprites)
}

func TestGenerateSpriteUpstreamFailure(t *testing.T) {
	ts := newTestServer(t, func(ts *testServer) {
		ts.generator.err = errors.New("images unreachable")
	})

	recorder := postJSON(t, ts.Handler(), "/generate-sprite", map[string]any{
		"item_name": "Stuffed Bear",
	}, testToken)

	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
}

func TestGenerateSpriteRequiresItemName(t *testing.T) {
	handler := newTestServer(t).Handler()

	recorder := postJSON(t, handler, "/generate-sprite", map[string]any{
		"item_name": "   ",
	}, testToken)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestModerateReportsVerdict(t *testing.T) {
	safe := newTestServer(t)
	recorder := postJSON(t, safe.Handler(), "/moderate", map[string]any{"text": "banana"}, testToken)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, true, decodeBody(t, recorder)["safe"])

	unsafe := newTestServer(t, func(ts *testServer) {
		ts.moderator.safeText = false
	})
	recorder = postJSON(t, unsafe.Handler(), "/moderate", map[string]any{"text": "banana"}, testToken)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, false, decodeBody(t, recorder)["safe"])
}

func TestRateLimitRejectsOverBudget(t *testing.T) {
	store := ratelimit.NewMemoryStore()
	defer store.Close()
	governor := ratelimit.NewGovernor(store, ratelimit.WithLimit(1))

	ts := newTestServer(t)
	ts.governor = governor
	handler := ts.Handler()
	body := map[string]any{"text": "banana"}

	recorder := postJSON(t, handler, "/moderate", body, testToken)
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = postJSON(t, handler, "/moderate", body, testToken)
	assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
}

func TestRateLimitFailsOpen(t *testing.T) {
	ts := newTestServer(t)
	ts.governor = ratelimit.NewGovernor(failingStore{}, ratelimit.WithLimit(1))
	handler := ts.Handler()
	body := map[string]any{"text": "banana"}

	// A broken counting store never blocks traffic.
	for range 3 {
		recorder := postJSON(t, handler, "/moderate", body, testToken)
		require.Equal(t, http.StatusOK, recorder.Code)
	}
}

package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/hmallory/toytill/internal/common"
	"github.com/hmallory/toytill/internal/model"
	"github.com/hmallory/toytill/internal/pricing"
	"github.com/hmallory/toytill/internal/sprite"
)

// Longest item name accepted for sprite generation, in runes.
const maxItemNameLength = 100

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"ts":     time.Now().UnixMilli(),
	})
}

// handleClassify moderates the submitted frame and, when it is safe,
// classifies it and attaches a deterministic suggested price. An unsafe
// frame yields {"safe": false} with no further detail.
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ImageBase64 string `json:"image_base64"`
		MIMEType    string `json:"mime_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if body.ImageBase64 == "" {
		writeError(w, http.StatusBadRequest, "image_base64 (string) is required")
		return
	}

	image, err := base64.StdEncoding.DecodeString(body.ImageBase64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "image_base64 must be valid base64")
		return
	}

	mimeType := body.MIMEType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	if !s.gate.CheckImage(r.Context(), image, mimeType) {
		writeJSON(w, http.StatusOK, map[string]any{"safe": false})
		return
	}

	result, err := s.classifier.Classify(r.Context(), image, mimeType)
	if err != nil {
		common.LogError(err, "Classification failed", nil)
		writeError(w, http.StatusServiceUnavailable, "Classification service unavailable")
		return
	}

	category := model.ParseCategory(result.Category)
	price := pricing.Suggest(category, result.ItemName)

	writeJSON(w, http.StatusOK, map[string]any{
		"safe":            true,
		"item_name":       result.ItemName,
		"category":        string(category),
		"suggested_price": float64(price.Cents()) / 100,
		"confidence":      result.Confidence,
	})
}

// handleGenerateSprite moderates the item name and, when it is safe, serves
// the sprite from the persistent cache or generates and caches it. The same
// key is never generated twice.
func (s *Server) handleGenerateSprite(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ItemName string `json:"item_name"`
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	itemName := strings.TrimSpace(body.ItemName)
	if itemName == "" {
		writeError(w, http.StatusBadRequest, "item_name (string) is required")
		return
	}
	if runes := []rune(itemName); len(runes) > maxItemNameLength {
		itemName = string(runes[:maxItemNameLength])
	}

	if !s.gate.CheckText(r.Context(), itemName) {
		writeJSON(w, http.StatusOK, map[string]any{"safe": false})
		return
	}

	category := model.ParseCategory(body.Category)
	key := sprite.NormalizeKey(itemName, category)

	cached, err := s.cache.GetSprite(r.Context(), key)
	if err == nil {
		writeSprite(w, cached)
		return
	}
	if !errors.Is(err, common.ErrNotFound) {
		// A broken cache must not take generation down with it.
		common.LogError(err, "Sprite cache read failed", common.Fields{"key": key})
	}

	image, err := s.generator.Generate(r.Context(), itemName, string(category))
	if err != nil {
		common.LogError(err, "Sprite generation failed", common.Fields{"key": key})
		writeError(w, http.StatusServiceUnavailable, "Image generation service unavailable")
		return
	}

	if err := s.cache.PutSprite(r.Context(), key, image); err != nil {
		common.LogError(err, "Sprite cache write failed", common.Fields{"key": key})
	}

	writeSprite(w, image)
}

// handleModerate checks a text string through the fail-closed gate.
func (s *Server) handleModerate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	text := strings.TrimSpace(body.Text)
	if text == "" {
		writeError(w, http.StatusBadRequest, "text (string) is required")
		return
	}

	safe := s.gate.CheckText(r.Context(), text)
	writeJSON(w, http.StatusOK, map[string]any{"safe": safe})
}

func writeSprite(w http.ResponseWriter, image []byte) {
	writeJSON(w, http.StatusOK, map[string]any{
		"safe":         true,
		"image_base64": base64.StdEncoding.EncodeToString(image),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		common.LogError(err, "Failed to write response", nil)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// Package server implements the backend HTTP service the scanner talks to:
// moderated vision classification, moderated sprite generation with a
// persistent cache, and a standalone text-moderation route. Upstream API
// keys live only on this side of the wire.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hmallory/toytill/internal/moderation"
	"github.com/hmallory/toytill/internal/ratelimit"
)

// Classification is the vision classifier's verdict for one frame.
type Classification struct {
	ItemName   string
	Category   string
	Confidence float64
}

// Classifier identifies the main object in an image.
type Classifier interface {
	Classify(ctx context.Context, image []byte, mimeType string) (*Classification, error)
}

// ImageGenerator produces sprite PNG bytes for an item.
type ImageGenerator interface {
	Generate(ctx context.Context, itemName, category string) ([]byte, error)
}

// SpriteCache is the persistent store for generated sprites. A sprite for
// a given key is generated at most once.
type SpriteCache interface {
	GetSprite(ctx context.Context, key string) ([]byte, error)
	PutSprite(ctx context.Context, key string, image []byte) error
}

// Config holds the server's listen address and shared app token.
type Config struct {
	Addr     string
	AppToken string
}

// Server wires the moderation gate, classifier, generator, sprite cache,
// and rate governor behind the HTTP routes.
type Server struct {
	classifier Classifier
	generator  ImageGenerator
	gate       moderation.Gate
	cache      SpriteCache
	governor   *ratelimit.Governor
	appToken   string
	addr       string
}

// New creates a server. The app token is required; without it every
// protected route would be open.
func New(cfg Config, classifier Classifier, generator ImageGenerator, gate moderation.Gate, cache SpriteCache, governor *ratelimit.Governor) (*Server, error) {
	if cfg.AppToken == "" {
		return nil, fmt.Errorf("app token is required")
	}

	addr := cfg.Addr
	if addr == "" {
		addr = ":8787"
	}

	return &Server{
		classifier: classifier,
		generator:  generator,
		gate:       gate,
		cache:      cache,
		governor:   governor,
		appToken:   cfg.AppToken,
		addr:       addr,
	}, nil
}

// Handler builds the route table. Health is open; everything else sits
// behind the rate governor and then the app-token check, in that order, so
// an unauthenticated flood still burns its budget.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("POST /classify", s.protect(http.HandlerFunc(s.handleClassify)))
	mux.Handle("POST /generate-sprite", s.protect(http.HandlerFunc(s.handleGenerateSprite)))
	mux.Handle("POST /moderate", s.protect(http.HandlerFunc(s.handleModerate)))
	return mux
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	}
}

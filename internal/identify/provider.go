// Package identify implements the ordered identification providers:
// barcode catalog lookup, on-device classification, and remote vision
// classification.
package identify

import (
	"context"
	"errors"

	"github.com/hmallory/toytill/internal/model"
)

// ErrFrameRejected means the moderation gate refused the captured frame.
// The orchestrator merges this with ordinary identification failure before
// anything reaches the caller, so the moderation boundary cannot be probed.
var ErrFrameRejected = errors.New("frame rejected by moderation")

// Frame is a captured camera image.
type Frame struct {
	MIME  string
	Bytes []byte
}

// Capture is one identification request: a frame plus an optional
// pre-detected barcode.
type Capture struct {
	Code  string
	Frame Frame
}

// Provider is a single identification source. TryIdentify returns
// (nil, nil) when this source cannot identify the capture, an Identity on
// acceptance, and an error on failure.
type Provider interface {
	TryIdentify(ctx context.Context, capture Capture) (*model.Identity, error)
	Name() string
}

package identify

import (
	"context"
	"fmt"

	"github.com/hmallory/toytill/internal/chain"
	"github.com/hmallory/toytill/internal/model"
	"github.com/hmallory/toytill/internal/moderation"
)

// RemoteClassifier is the remote vision classification service.
type RemoteClassifier interface {
	Classify(ctx context.Context, image []byte, mimeType string) (name, category string, confidence float64, err error)
}

// RemoteProvider escalates a capture to the remote vision classifier. The
// frame passes the image moderation gate before it is transmitted anywhere;
// an unsafe verdict halts the whole chain. Remote failure is terminal for
// this provider and is never retried with different parameters.
type RemoteProvider struct {
	classifier RemoteClassifier
	gate       moderation.Gate
}

// NewRemoteProvider wraps a remote classifier behind the moderation gate.
// A nil gate defers moderation to the classifier itself, for classifiers
// that moderate the frame on their own side before it reaches the vision
// model. The frame is still never classified unmoderated.
func NewRemoteProvider(classifier RemoteClassifier, gate moderation.Gate) *RemoteProvider {
	return &RemoteProvider{
		classifier: classifier,
		gate:       gate,
	}
}

// Name identifies this provider in logs.
func (p *RemoteProvider) Name() string {
	return "remote"
}

// TryIdentify moderates the frame, then classifies it remotely.
func (p *RemoteProvider) TryIdentify(ctx context.Context, capture Capture) (*model.Identity, error) {
	if p.gate != nil && !p.gate.CheckImage(ctx, capture.Frame.Bytes, capture.Frame.MIME) {
		// Unsafe or unverifiable frames never reach the classifier.
		return nil, chain.Halt(ErrFrameRejected)
	}

	name, category, confidence, err := p.classifier.Classify(ctx, capture.Frame.Bytes, capture.Frame.MIME)
	if err != nil {
		return nil, fmt.Errorf("remote classification failed: %w", err)
	}

	return &model.Identity{
		Name:       name,
		Category:   model.ParseCategory(category),
		Provenance: model.ProvenanceRemoteClassifier,
		Confidence: confidence,
	}, nil
}

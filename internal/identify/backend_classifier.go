package identify

import (
	"context"

	"github.com/hmallory/toytill/internal/backend"
	"github.com/hmallory/toytill/internal/chain"
)

// BackendClassifier adapts the backend /classify route to the
// RemoteClassifier interface. The backend moderates the frame again
// server-side; a safe=false response is treated exactly like a local gate
// rejection.
type BackendClassifier struct {
	client *backend.Client
}

// NewBackendClassifier wraps a backend client.
func NewBackendClassifier(client *backend.Client) *BackendClassifier {
	return &BackendClassifier{client: client}
}

// Classify submits the frame to the backend.
func (b *BackendClassifier) Classify(ctx context.Context, image []byte, mimeType string) (string, string, float64, error) {
	result, err := b.client.Classify(ctx, image, mimeType)
	if err != nil {
		return "", "", 0, err
	}
	if !result.Safe {
		return "", "", 0, chain.Halt(ErrFrameRejected)
	}
	return result.ItemName, result.Category, result.Confidence, nil
}

package identify

import (
	"context"

	"github.com/hmallory/toytill/internal/model"
)

// DefaultConfidenceThreshold is the policy constant below which a local
// classification is discarded and the capture escalates to the remote path.
const DefaultConfidenceThreshold = 0.75

// LabelFunc is the pluggable on-device classifier: it maps a frame to a raw
// model label with a confidence. Purely local, no network. When no model is
// available the whole local stage is skipped.
type LabelFunc func(frame Frame) (label string, confidence float64, err error)

// LocalProvider classifies frames with an on-device model and maps its raw
// labels onto the item taxonomy. Results below the confidence threshold are
// a miss, which escalates the capture to the remote classifier. The frame
// never leaves the device on this path, so no moderation applies.
type LocalProvider struct {
	classify  LabelFunc
	threshold float64
}

// NewLocalProvider wraps a label function. classify may be nil, in which
// case every capture is a miss.
func NewLocalProvider(classify LabelFunc, threshold float64) *LocalProvider {
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	return &LocalProvider{
		classify:  classify,
		threshold: threshold,
	}
}

// Name identifies this provider in logs.
func (p *LocalProvider) Name() string {
	return "local"
}

// TryIdentify runs the on-device classifier and applies the confidence gate.
func (p *LocalProvider) TryIdentify(_ context.Context, capture Capture) (*model.Identity, error) {
	if p.classify == nil {
		return nil, nil
	}

	label, confidence, err := p.classify(capture.Frame)
	if err != nil {
		return nil, err
	}

	identity := mapLabel(label, confidence)
	if identity.Confidence < p.threshold {
		return nil, nil
	}
	return &identity, nil
}

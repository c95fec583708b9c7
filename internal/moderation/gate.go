package moderation

import (
	"context"
	"log/slog"
)

// failClosedGate wraps a Moderator and collapses every failure to unsafe.
type failClosedGate struct {
	moderator Moderator
}

// NewGate wraps a moderator in the fail-closed contract.
func NewGate(moderator Moderator) Gate {
	return &failClosedGate{moderator: moderator}
}

// CheckText reports whether text is safe. Text is capped before submission;
// any moderator failure yields unsafe.
func (g *failClosedGate) CheckText(ctx context.Context, text string) bool {
	runes := []rune(text)
	if len(runes) > maxTextLength {
		text = string(runes[:maxTextLength])
	}

	safe, err := g.moderator.ModerateText(ctx, text)
	if err != nil {
		// Never log the submitted text.
		slog.Error("Text moderation failed, treating as unsafe", "error", err)
		return false
	}
	return safe
}

// CheckImage reports whether an image is safe. Any moderator failure
// yields unsafe.
func (g *failClosedGate) CheckImage(ctx context.Context, image []byte, mimeType string) bool {
	safe, err := g.moderator.ModerateImage(ctx, image, mimeType)
	if err != nil {
		// Never log the image bytes.
		slog.Error("Image moderation failed, treating as unsafe",
			"error", err,
			"mime_type", mimeType)
		return false
	}
	return safe
}

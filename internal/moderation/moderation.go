// Package moderation implements the fail-closed content moderation gate.
//
// The gate never returns an error to the caller: every failure path —
// network error, non-success status, malformed payload — collapses to
// "unsafe". Verdicts are never cached; moderation policy can change over
// time and a stale "safe" must not outlive its call.
package moderation

import "context"

// Maximum text length submitted for moderation, in runes.
const maxTextLength = 500

// Gate classifies content as safe or unsafe. True means safe to proceed.
type Gate interface {
	CheckText(ctx context.Context, text string) bool
	CheckImage(ctx context.Context, image []byte, mimeType string) bool
}

// Moderator is the raw classification service behind a Gate. Implementations
// may fail; the Gate collapses those failures to unsafe.
type Moderator interface {
	ModerateText(ctx context.Context, text string) (bool, error)
	ModerateImage(ctx context.Context, image []byte, mimeType string) (bool, error)
}

package model

// SpriteKind discriminates the states a sprite can be in.
type SpriteKind string

// Sprite state constants.
const (
	SpriteLoading     SpriteKind = "loading"
	SpriteLocal       SpriteKind = "local"
	SpriteGenerated   SpriteKind = "generated"
	SpritePlaceholder SpriteKind = "placeholder"
	SpriteSuppressed  SpriteKind = "suppressed"
)

// SpriteState is the visual asset attached to a cart entry. Exactly one
// state holds at a time: Loading and Placeholder carry a symbol, Local and
// Generated carry PNG bytes, Suppressed carries nothing at all.
type SpriteState struct {
	Kind   SpriteKind
	Symbol string
	Image  []byte
}

// LoadingSprite returns the initial state shown while resolution runs.
func LoadingSprite(symbol string) SpriteState {
	return SpriteState{Kind: SpriteLoading, Symbol: symbol}
}

// LocalSprite wraps an image found in the bundled library.
func LocalSprite(image []byte) SpriteState {
	return SpriteState{Kind: SpriteLocal, Image: image}
}

// GeneratedSprite wraps an image produced by the generation service or
// replayed from a cache of a prior generation.
func GeneratedSprite(image []byte) SpriteState {
	return SpriteState{Kind: SpriteGenerated, Image: image}
}

// PlaceholderSprite returns the terminal fallback state for a category symbol.
func PlaceholderSprite(symbol string) SpriteState {
	return SpriteState{Kind: SpritePlaceholder, Symbol: symbol}
}

// SuppressedSprite returns the terminal state for an entry whose name was
// rejected by moderation: no image and no placeholder may ever be rendered
// for it.
func SuppressedSprite() SpriteState {
	return SpriteState{Kind: SpriteSuppressed}
}

// Concrete reports whether the sprite carries actual image bytes.
func (s SpriteState) Concrete() bool {
	return s.Kind == SpriteLocal || s.Kind == SpriteGenerated
}

// CanTransition reports whether replacing the current state with next
// preserves monotonicity: a concrete image never reverts to a loading
// state or placeholder, and a suppressed sprite stays suppressed.
func (s SpriteState) CanTransition(next SpriteState) bool {
	if s.Kind == SpriteSuppressed {
		return false
	}
	if s.Concrete() && !next.Concrete() {
		return false
	}
	return true
}

// Package sprite resolves visual assets for items through tiered caches:
// bundled library, local disk cache, remote generation, and finally a
// category placeholder that can never fail.
package sprite

import (
	"strings"
	"unicode"

	"github.com/hmallory/toytill/internal/model"
)

// NormalizeKey canonicalizes (name, category) into the cache key shared by
// every tier: category + "_" + the lowercased name reduced to its letters.
// Spaces, punctuation, and digits all drop out, so minor name variations of
// the same item collapse to one entry ("Red Apple" → "fresh_produce_redapple").
func NormalizeKey(name string, category model.Category) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		}
	}

	return string(category) + "_" + b.String()
}

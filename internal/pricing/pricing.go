// Package pricing implements the deterministic category price resolver.
//
// Same (category, seed) always yields the same price, across processes and
// over time, with no network or randomness in the steady path. All prices
// end in .99 unless a category has a single fixed value.
package pricing

import "github.com/hmallory/toytill/internal/model"

// priceRange bounds a category's prices, in cents.
type priceRange struct {
	min int64
	max int64
}

// priceRanges never produces $0.00 and never prices everything identically.
var priceRanges = map[model.Category]priceRange{
	model.CategoryFreshProduce:      {min: 99, max: 99},
	model.CategoryPackagedSnack:     {min: 299, max: 499},
	model.CategoryCerealPastaCanned: {min: 399, max: 599},
	model.CategoryStuffedAnimalS:    {min: 999, max: 1499},
	model.CategoryStuffedAnimalL:    {min: 1999, max: 2499},
	model.CategoryChildrensBook:     {min: 799, max: 1099},
	model.CategoryToy:               {min: 999, max: 1999},
	model.CategoryBoardGame:         {min: 1499, max: 2999},
	model.CategoryClothing:          {min: 1299, max: 2499},
	model.CategoryHouseholdItem:     {min: 499, max: 999},
	model.CategoryOther:             {min: 299, max: 999},
}

// Suggest returns the price for an item in the given category, seeded by the
// item name so identical items always cost the same while different items in
// the same category vary.
func Suggest(category model.Category, seed string) model.Price {
	r, ok := priceRanges[category]
	if !ok {
		r = priceRanges[model.CategoryOther]
	}

	if r.min == r.max {
		return model.PriceFromCents(r.min)
	}

	candidates := dollarNinetyNines(r)
	if len(candidates) == 0 {
		return model.PriceFromCents(r.min)
	}
	if len(candidates) == 1 {
		return model.PriceFromCents(candidates[0])
	}

	idx := seedHash(seed) % int64(len(candidates))
	return model.PriceFromCents(candidates[idx])
}

// dollarNinetyNines enumerates the .99-ending cent values inside the range.
func dollarNinetyNines(r priceRange) []int64 {
	var candidates []int64
	for c := r.min; c <= r.max; c = (c/100)*100 + 199 {
		candidates = append(candidates, c)
	}
	return candidates
}

// seedHash is the stable 32-bit polynomial string hash shared with the
// original pricing table: hash = hash*31 + code, wrapped to int32.
func seedHash(seed string) int64 {
	var h int32
	for _, r := range seed {
		h = h*31 + int32(r)
	}
	h64 := int64(h)
	if h64 < 0 {
		h64 = -h64
	}
	return h64
}

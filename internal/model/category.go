// Package model defines the core domain models used throughout the application.
package model

// Category is the item taxonomy shared by every identification provider,
// the pricing table, and the sprite pipeline.
type Category string

// Category constants.
const (
	CategoryFreshProduce      Category = "fresh_produce"
	CategoryPackagedSnack     Category = "packaged_snack"
	CategoryCerealPastaCanned Category = "cereal_pasta_canned"
	CategoryStuffedAnimalS    Category = "stuffed_animal_small"
	CategoryStuffedAnimalL    Category = "stuffed_animal_large"
	CategoryChildrensBook     Category = "childrens_book"
	CategoryToy               Category = "toy"
	CategoryBoardGame         Category = "board_game"
	CategoryClothing          Category = "clothing"
	CategoryHouseholdItem     Category = "household_item"
	CategoryOther             Category = "other"
)

// Categories returns all known categories in a stable order.
func Categories() []Category {
	return []Category{
		CategoryFreshProduce,
		CategoryPackagedSnack,
		CategoryCerealPastaCanned,
		CategoryStuffedAnimalS,
		CategoryStuffedAnimalL,
		CategoryChildrensBook,
		CategoryToy,
		CategoryBoardGame,
		CategoryClothing,
		CategoryHouseholdItem,
		CategoryOther,
	}
}

// ParseCategory maps an API category string onto the taxonomy.
// Unknown values collapse to CategoryOther rather than failing.
func ParseCategory(s string) Category {
	for _, c := range Categories() {
		if string(c) == s {
			return c
		}
	}
	return CategoryOther
}

// DisplayName returns the human-facing name shown on receipts.
func (c Category) DisplayName() string {
	switch c {
	case CategoryFreshProduce:
		return "Fresh Produce"
	case CategoryPackagedSnack:
		return "Snack"
	case CategoryCerealPastaCanned:
		return "Grocery"
	case CategoryStuffedAnimalS, CategoryStuffedAnimalL:
		return "Stuffed Animal"
	case CategoryChildrensBook:
		return "Book"
	case CategoryToy:
		return "Toy"
	case CategoryBoardGame:
		return "Game"
	case CategoryClothing:
		return "Clothing"
	case CategoryHouseholdItem:
		return "Household"
	default:
		return "Item"
	}
}

// PlaceholderSymbol returns the fallback glyph rendered when no sprite
// is available for an item in this category.
func (c Category) PlaceholderSymbol() string {
	switch c {
	case CategoryFreshProduce:
		return "🍎"
	case CategoryPackagedSnack:
		return "🍫"
	case CategoryCerealPastaCanned:
		return "🥫"
	case CategoryStuffedAnimalS, CategoryStuffedAnimalL:
		return "🧸"
	case CategoryChildrensBook:
		return "📚"
	case CategoryToy:
		return "🧩"
	case CategoryBoardGame:
		return "🎲"
	case CategoryClothing:
		return "👕"
	case CategoryHouseholdItem:
		return "📦"
	default:
		return "🛍️"
	}
}

package identify

import (
	"strings"

	"github.com/hmallory/toytill/internal/model"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Term tables mapping generic image-model labels (ImageNet style) onto the
// item taxonomy.
var produceTerms = []string{
	"banana", "apple", "orange", "lemon", "strawberry", "pineapple",
	"watermelon", "grape", "pear", "peach", "cherry", "mango",
	"carrot", "broccoli", "corn", "potato", "tomato", "cucumber",
	"pepper", "onion", "mushroom", "lettuce", "cauliflower", "eggplant",
}

var bookTerms = []string{"book", "novel", "comic"}

var plushTerms = []string{"teddy", "stuffed", "plush", "doll"}

var toyTerms = []string{"toy", "lego", "block", "puzzle", "ball", "kite"}

var packageTerms = []string{"box", "carton", "package", "bag"}

var clothingTerms = []string{
	"shirt", "jacket", "sock", "shoe", "hat", "jersey", "sweater", "pants",
}

// mapLabel converts a raw classifier label into an Identity with
// local-classifier provenance. Labels that match no term table are capped
// below the confidence threshold so they escalate to the remote path.
func mapLabel(label string, confidence float64) model.Identity {
	lower := strings.ToLower(label)

	identity := model.Identity{
		Provenance: model.ProvenanceLocalClassifier,
		Confidence: confidence,
	}

	switch {
	case containsAny(lower, produceTerms):
		identity.Name = primaryName(label)
		identity.Category = model.CategoryFreshProduce
	case containsAny(lower, bookTerms):
		identity.Name = "Book"
		identity.Category = model.CategoryChildrensBook
	case containsAny(lower, plushTerms):
		identity.Name = "Stuffed Animal"
		identity.Category = model.CategoryStuffedAnimalS
	case containsAny(lower, toyTerms):
		identity.Name = "Toy"
		identity.Category = model.CategoryToy
	case containsAny(lower, packageTerms):
		identity.Name = "Package"
		identity.Category = model.CategoryHouseholdItem
	case containsAny(lower, clothingTerms):
		identity.Name = primaryName(label)
		identity.Category = model.CategoryClothing
	default:
		identity.Name = primaryName(label)
		identity.Category = model.CategoryOther
		// Unknown items must not be trusted at face value.
		if identity.Confidence > 0.5 {
			identity.Confidence = 0.5
		}
	}

	return identity
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}

// primaryName extracts the first alias from a comma-separated model label
// and title-cases it, e.g. "granny smith, apple" becomes "Granny Smith".
func primaryName(label string) string {
	name, _, _ := strings.Cut(label, ",")
	return cases.Title(language.English).String(strings.TrimSpace(name))
}

package catalog

import "slices"

// Kind distinguishes the three catalog collections, each with its own category vocabulary.
type Kind string

const (
	KindService   Kind = "service"
	KindProduct   Kind = "product"
	KindPortfolio Kind = "portfolio"
)

var knownCategories = map[Kind][]string{
	KindService:   {"assignment", "creative", "art-shop"},
	KindProduct:   {"paintings", "portraits", "crafts", "keychains", "bouquets"},
	KindPortfolio: {"creative", "art", "design", "video"},
}

// ValidCategory reports whether category is a known value for kind.
func ValidCategory(kind Kind, category string) bool {
	return slices.Contains(knownCategories[kind], category)
}

// Categories returns the known categories for kind.
func Categories(kind Kind) []string {
	return slices.Clone(knownCategories[kind])
}

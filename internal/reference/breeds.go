// Package reference holds the static lookup tables the valuation and
// withdrawal computations key off: breed base prices and per-vaccination
// withdrawal periods. Both carry a generic fallback entry so unknown
// breeds or drug types still resolve to a usable value.
package reference

import "strings"

// DefaultBreed is the fallback entry applied when a breed is not priced.
const DefaultBreed = "Other"

// breedBasePrices maps breed to base market price in Naira.
var breedBasePrices = map[string]float64{
	"Holstein":           500000,
	"Angus":              450000,
	"Jersey":             400000,
	"Brahman":            480000,
	"Zebu":               380000,
	"Dorper":             120000,
	"Merino":             100000,
	"Boer":               150000,
	"West African Dwarf": 80000,
	"Kano Brown":         90000,
	"Landrace":           250000,
	"Duroc":              280000,
	"Chester White":      260000,
	"Leghorn":            5000,
	"Rhode Island Red":   5500,
	"Cochin":             6000,
	DefaultBreed:         200000,
}

// BasePrice returns the base market price for a breed, falling back to the
// generic entry when the breed is not in the table.
func BasePrice(breed string) float64 {
	if price, ok := breedBasePrices[strings.TrimSpace(breed)]; ok {
		return price
	}
	return breedBasePrices[DefaultBreed]
}

// KnownBreeds returns the priced breed names, fallback included.
func KnownBreeds() []string {
	breeds := make([]string, 0, len(breedBasePrices))
	for breed := range breedBasePrices {
		breeds = append(breeds, breed)
	}
	return breeds
}

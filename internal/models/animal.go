package models

import (
	"strings"
	"time"
)

// Species enumerates the supported livestock species.
type Species string

const (
	SpeciesCattle  Species = "Cattle"
	SpeciesSheep   Species = "Sheep"
	SpeciesGoat    Species = "Goat"
	SpeciesPig     Species = "Pig"
	SpeciesChicken Species = "Chicken"
	SpeciesOther   Species = "Other"
)

// Valid reports whether the species is a known value.
func (s Species) Valid() bool {
	switch s {
	case SpeciesCattle, SpeciesSheep, SpeciesGoat, SpeciesPig, SpeciesChicken, SpeciesOther:
		return true
	}
	return false
}

// Gender enumerates animal gender values.
type Gender string

const (
	GenderMale    Gender = "Male"
	GenderFemale  Gender = "Female"
	GenderUnknown Gender = "Unknown"
)

// Valid reports whether the gender is a known value.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale || g == GenderUnknown
}

// AnimalStatus tracks the herd lifecycle of an animal.
type AnimalStatus string

const (
	AnimalStatusActive   AnimalStatus = "Active"
	AnimalStatusInactive AnimalStatus = "Inactive"
	AnimalStatusSold     AnimalStatus = "Sold"
)

// Animal is a registered head of livestock owned by a single farmer.
// BasePrice is a snapshot of the breed reference table taken at creation
// and refreshed whenever the breed changes. Estimated market value is
// always derived, never stored.
type Animal struct {
	ID           int64        `db:"id" json:"id"`
	TagID        string       `db:"tag_id" json:"tag_id"`
	Breed        string       `db:"breed" json:"breed"`
	Species      Species      `db:"species" json:"species"`
	FarmerID     int64        `db:"farmer_id" json:"farmer_id"`
	DateOfBirth  *time.Time   `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender       *Gender      `db:"gender" json:"gender,omitempty"`
	Status       AnimalStatus `db:"status" json:"status"`
	BasePrice    float64      `db:"base_price" json:"base_price"`
	TargetPrice  float64      `db:"target_price" json:"target_price"`
	RegisteredAt time.Time    `db:"registered_at" json:"registered_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// NormalizeTag folds a tag to its canonical uppercase trimmed form. Tag
// uniqueness is always evaluated on the normalized value.
func NormalizeTag(tag string) string {
	return strings.ToUpper(strings.TrimSpace(tag))
}

// Valuation is the derived market view of one animal.
type Valuation struct {
	BasePrice      float64 `json:"base_price"`
	EstimatedValue float64 `json:"estimated_value"`
	IsCertified    bool    `json:"is_certified"`
	Currency       string  `json:"currency,omitempty"`
}

// FarmEquity aggregates valuations across one farmer's herd.
type FarmEquity struct {
	TotalEquity float64        `json:"total_equity"`
	AnimalCount int            `json:"animal_count"`
	Currency    string         `json:"currency,omitempty"`
	Animals     []AnimalEquity `json:"animals"`
}

// AnimalEquity is one line of the farm equity report.
type AnimalEquity struct {
	ID             int64   `json:"id"`
	TagID          string  `json:"tag_id"`
	Breed          string  `json:"breed"`
	EstimatedValue float64 `json:"estimated_value"`
	IsCertified    bool    `json:"is_certified"`
}

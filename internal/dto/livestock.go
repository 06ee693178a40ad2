package dto

import (
	"time"

	"github.com/farmtrust/livestock-api/internal/models"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// ParseDate parses a wire-format date, empty input yielding nil.
func ParseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FormatDate renders a nullable date in wire format.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}

// RegisterAnimalRequest is the payload for registering a new animal.
type RegisterAnimalRequest struct {
	TagID       string  `json:"tag_id" validate:"required"`
	Breed       string  `json:"breed" validate:"required"`
	Species     string  `json:"species" validate:"required"`
	DateOfBirth string  `json:"date_of_birth,omitempty"`
	Gender      string  `json:"gender,omitempty"`
	TargetPrice float64 `json:"target_price,omitempty" validate:"omitempty,gte=0"`
}

// UpdateAnimalRequest carries the mutable animal profile fields. The tag
// is immutable and never accepted here.
type UpdateAnimalRequest struct {
	Breed       *string  `json:"breed,omitempty"`
	Gender      *string  `json:"gender,omitempty"`
	DateOfBirth *string  `json:"date_of_birth,omitempty"`
	TargetPrice *float64 `json:"target_price,omitempty" validate:"omitempty,gte=0"`
}

// AnimalView is an animal joined with its live valuation.
type AnimalView struct {
	models.Animal
	EstimatedMarketValue float64 `json:"estimated_market_value"`
	IsCertified          bool    `json:"is_certified"`
}

// AnimalSearchResult is the vet-facing tag search response.
type AnimalSearchResult struct {
	models.Animal
	FarmerName string `json:"farmer_name"`
}

// FarmerDashboardResponse is the farmer landing view: the herd with
// per-animal live valuations.
type FarmerDashboardResponse struct {
	Animals     []AnimalView `json:"animals"`
	TotalEquity float64      `json:"total_equity"`
	AnimalCount int          `json:"animal_count"`
}

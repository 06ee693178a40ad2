package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/farmtrust/livestock-api/internal/models"
	"github.com/farmtrust/livestock-api/internal/reference"
	appErrors "github.com/farmtrust/livestock-api/pkg/errors"
)

// CertifiedUpliftRate is the fixed premium applied once any of an animal's
// records carries a vet sign-off. Policy constant, not configurable.
const CertifiedUpliftRate = 0.15

type valuationAnimalStore interface {
	GetByID(ctx context.Context, id int64) (*models.Animal, error)
	ListByFarmer(ctx context.Context, farmerID int64) ([]models.Animal, error)
}

type certificationStore interface {
	HasVerifiedForAnimal(ctx context.Context, animalID int64) (bool, error)
	CertifiedAnimalIDs(ctx context.Context, animalIDs []int64) (map[int64]bool, error)
}

// ValuationService derives market values from certification state. It
// never caches: certification can flip between calls, so every estimate
// reads the record store fresh.
type ValuationService struct {
	animals  valuationAnimalStore
	records  certificationStore
	currency string
	logger   *zap.Logger
}

// NewValuationService constructs the service. The currency is a display
// label stamped onto valuation payloads, not an exchange-rate concern.
func NewValuationService(animals valuationAnimalStore, records certificationStore, currency string, logger *zap.Logger) *ValuationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ValuationService{animals: animals, records: records, currency: currency, logger: logger}
}

// Estimate is the pure valuation rule: base price, with the certification
// uplift applied when any record is vet-verified.
func Estimate(basePrice float64, certified bool) models.Valuation {
	estimated := basePrice
	if certified {
		estimated = basePrice * (1 + CertifiedUpliftRate)
	}
	return models.Valuation{
		BasePrice:      basePrice,
		EstimatedValue: estimated,
		IsCertified:    certified,
	}
}

// animalBasePrice resolves the stored snapshot, falling back to the breed
// reference table for legacy rows that predate snapshotting.
func animalBasePrice(animal *models.Animal) float64 {
	if animal.BasePrice > 0 {
		return animal.BasePrice
	}
	return reference.BasePrice(animal.Breed)
}

// EstimateValue computes the live valuation of one animal.
func (s *ValuationService) EstimateValue(ctx context.Context, animalID int64) (*models.Valuation, error) {
	animal, err := s.animals.GetByID(ctx, animalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "animal not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load animal")
	}

	certified, err := s.records.HasVerifiedForAnimal(ctx, animal.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to check certification")
	}

	valuation := Estimate(animalBasePrice(animal), certified)
	valuation.Currency = s.currency
	return &valuation, nil
}

// FarmEquity sums live valuations across a farmer's herd. Each line is
// produced by the single-animal rule so the aggregate can never drift
// from what individual animal views report.
func (s *ValuationService) FarmEquity(ctx context.Context, farmerID int64) (*models.FarmEquity, error) {
	animals, err := s.animals.ListByFarmer(ctx, farmerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list animals")
	}

	ids := make([]int64, len(animals))
	for i, animal := range animals {
		ids[i] = animal.ID
	}
	certified, err := s.records.CertifiedAnimalIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to check certification")
	}

	equity := &models.FarmEquity{
		AnimalCount: len(animals),
		Currency:    s.currency,
		Animals:     make([]models.AnimalEquity, 0, len(animals)),
	}
	for i := range animals {
		animal := &animals[i]
		valuation := Estimate(animalBasePrice(animal), certified[animal.ID])
		equity.TotalEquity += valuation.EstimatedValue
		equity.Animals = append(equity.Animals, models.AnimalEquity{
			ID:             animal.ID,
			TagID:          animal.TagID,
			Breed:          animal.Breed,
			EstimatedValue: valuation.EstimatedValue,
			IsCertified:    valuation.IsCertified,
		})
	}
	return equity, nil
}

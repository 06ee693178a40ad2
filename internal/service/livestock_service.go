package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/farmtrust/livestock-api/internal/dto"
	"github.com/farmtrust/livestock-api/internal/models"
	"github.com/farmtrust/livestock-api/internal/reference"
	"github.com/farmtrust/livestock-api/internal/repository"
	appErrors "github.com/farmtrust/livestock-api/pkg/errors"
)

type animalStore interface {
	Create(ctx context.Context, animal *models.Animal) error
	GetByID(ctx context.Context, id int64) (*models.Animal, error)
	GetByTag(ctx context.Context, tag string) (*models.Animal, error)
	ExistsByTag(ctx context.Context, tag string) (bool, error)
	ListByFarmer(ctx context.Context, farmerID int64) ([]models.Animal, error)
	ListActiveByFarmer(ctx context.Context, farmerID int64) ([]models.Animal, error)
	UpdateProfile(ctx context.Context, params repository.UpdateAnimalParams) error
	Delete(ctx context.Context, id int64) error
}

type userFinder interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

// LivestockService owns the animal registry: identity, tag uniqueness,
// ownership, and the base-price snapshot the valuation works from.
type LivestockService struct {
	animals   animalStore
	users     userFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLivestockService constructs the service.
func NewLivestockService(animals animalStore, users userFinder, validate *validator.Validate, logger *zap.Logger) *LivestockService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LivestockService{animals: animals, users: users, validator: validate, logger: logger}
}

// Register creates an animal for the calling farmer. The tag is
// normalized and must be unique across the whole registry; the base price
// is snapshotted from the breed reference table.
func (s *LivestockService) Register(ctx context.Context, req dto.RegisterAnimalRequest, farmerID int64) (*models.Animal, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid animal payload")
	}

	species := models.Species(strings.TrimSpace(req.Species))
	if !species.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid species")
	}

	var gender *models.Gender
	if req.Gender != "" {
		g := models.Gender(req.Gender)
		if !g.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid gender")
		}
		gender = &g
	}

	dob, err := dto.ParseDate(req.DateOfBirth)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date of birth")
	}

	tag := models.NormalizeTag(req.TagID)
	if tag == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "tag is required")
	}
	exists, err := s.animals.ExistsByTag(ctx, tag)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to check tag")
	}
	if exists {
		return nil, appErrors.ErrDuplicateTag
	}

	breed := strings.TrimSpace(req.Breed)
	basePrice := reference.BasePrice(breed)
	targetPrice := req.TargetPrice
	if targetPrice <= 0 {
		targetPrice = basePrice
	}

	animal := &models.Animal{
		TagID:       tag,
		Breed:       breed,
		Species:     species,
		FarmerID:    farmerID,
		DateOfBirth: dob,
		Gender:      gender,
		Status:      models.AnimalStatusActive,
		BasePrice:   basePrice,
		TargetPrice: targetPrice,
	}
	if err := s.animals.Create(ctx, animal); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.ErrDuplicateTag
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to register animal")
	}

	s.logger.Info("animal registered",
		zap.Int64("animal_id", animal.ID),
		zap.String("tag", animal.TagID),
		zap.Int64("farmer_id", farmerID),
	)
	return animal, nil
}

// Get returns one animal, restricted to its owner or any vet.
func (s *LivestockService) Get(ctx context.Context, id int64, actor *models.JWTClaims) (*models.Animal, error) {
	animal, err := s.loadAnimal(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleFarmer && animal.FarmerID != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	return animal, nil
}

// ListByOwner returns the farmer's animals, most recently registered first.
func (s *LivestockService) ListByOwner(ctx context.Context, farmerID int64) ([]models.Animal, error) {
	animals, err := s.animals.ListByFarmer(ctx, farmerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list animals")
	}
	return animals, nil
}

// SearchByTag resolves an animal by tag for the vet portal, including the
// owning farmer's display name.
func (s *LivestockService) SearchByTag(ctx context.Context, tag string) (*dto.AnimalSearchResult, error) {
	if strings.TrimSpace(tag) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "tag is required")
	}
	animal, err := s.animals.GetByTag(ctx, tag)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "animal not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to search animal")
	}

	result := &dto.AnimalSearchResult{Animal: *animal, FarmerName: "Unknown"}
	if farmer, err := s.users.FindByID(ctx, animal.FarmerID); err == nil {
		result.FarmerName = farmer.FullName
	}
	return result, nil
}

// Update applies the allowed profile changes. Only the owning farmer may
// update; a breed change re-snapshots the base price.
func (s *LivestockService) Update(ctx context.Context, id int64, req dto.UpdateAnimalRequest, requesterID int64) (*models.Animal, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}

	animal, err := s.loadAnimal(ctx, id)
	if err != nil {
		return nil, err
	}
	if animal.FarmerID != requesterID {
		return nil, appErrors.ErrForbidden
	}

	params := repository.UpdateAnimalParams{ID: id}
	if req.Breed != nil {
		breed := strings.TrimSpace(*req.Breed)
		if breed == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "breed cannot be empty")
		}
		basePrice := reference.BasePrice(breed)
		params.Breed = &breed
		params.BasePrice = &basePrice
		animal.Breed = breed
		animal.BasePrice = basePrice
	}
	if req.Gender != nil {
		g := models.Gender(*req.Gender)
		if !g.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid gender")
		}
		params.Gender = &g
		animal.Gender = &g
	}
	if req.DateOfBirth != nil {
		dob, err := dto.ParseDate(*req.DateOfBirth)
		if err != nil || dob == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date of birth")
		}
		params.DateOfBirth = dob
		animal.DateOfBirth = dob
	}
	if req.TargetPrice != nil {
		if *req.TargetPrice < 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "target price cannot be negative")
		}
		params.TargetPrice = req.TargetPrice
		animal.TargetPrice = *req.TargetPrice
	}

	if err := s.animals.UpdateProfile(ctx, params); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to update animal")
	}
	return animal, nil
}

// Delete removes an animal and, with it, every attached record. Owner
// only; irreversible.
func (s *LivestockService) Delete(ctx context.Context, id int64, requesterID int64) error {
	animal, err := s.loadAnimal(ctx, id)
	if err != nil {
		return err
	}
	if animal.FarmerID != requesterID {
		return appErrors.ErrForbidden
	}

	if err := s.animals.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to delete animal")
	}
	s.logger.Info("animal deleted", zap.Int64("animal_id", id), zap.Int64("farmer_id", requesterID))
	return nil
}

func (s *LivestockService) loadAnimal(ctx context.Context, id int64) (*models.Animal, error) {
	animal, err := s.animals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "animal not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load animal")
	}
	return animal, nil
}

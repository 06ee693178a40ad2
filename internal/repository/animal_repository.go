package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/farmtrust/livestock-api/internal/models"
)

const animalColumns = `id, tag_id, breed, species, farmer_id, date_of_birth, gender, status, base_price, target_price, registered_at, updated_at`

// AnimalRepository persists the animal registry.
type AnimalRepository struct {
	db *sqlx.DB
}

// NewAnimalRepository constructs the repository.
func NewAnimalRepository(db *sqlx.DB) *AnimalRepository {
	return &AnimalRepository{db: db}
}

// Create inserts a new animal and assigns its identity. The tag must
// already be normalized; the unique index on tag_id is the final arbiter
// of duplicates under concurrent registration.
func (r *AnimalRepository) Create(ctx context.Context, animal *models.Animal) error {
	now := time.Now().UTC()
	if animal.RegisteredAt.IsZero() {
		animal.RegisteredAt = now
	}
	animal.UpdatedAt = now
	if animal.Status == "" {
		animal.Status = models.AnimalStatusActive
	}

	const query = `INSERT INTO animals (tag_id, breed, species, farmer_id, date_of_birth, gender, status, base_price, target_price, registered_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		animal.TagID, animal.Breed, animal.Species, animal.FarmerID, animal.DateOfBirth, animal.Gender,
		animal.Status, animal.BasePrice, animal.TargetPrice, animal.RegisteredAt, animal.UpdatedAt,
	).Scan(&animal.ID); err != nil {
		return fmt.Errorf("create animal: %w", err)
	}
	return nil
}

// GetByID fetches an animal by identifier.
func (r *AnimalRepository) GetByID(ctx context.Context, id int64) (*models.Animal, error) {
	query := `SELECT ` + animalColumns + ` FROM animals WHERE id = $1`
	var animal models.Animal
	if err := r.db.GetContext(ctx, &animal, query, id); err != nil {
		return nil, err
	}
	return &animal, nil
}

// GetByTag fetches an animal by its normalized tag.
func (r *AnimalRepository) GetByTag(ctx context.Context, tag string) (*models.Animal, error) {
	query := `SELECT ` + animalColumns + ` FROM animals WHERE tag_id = $1`
	var animal models.Animal
	if err := r.db.GetContext(ctx, &animal, query, models.NormalizeTag(tag)); err != nil {
		return nil, err
	}
	return &animal, nil
}

// ExistsByTag reports whether any animal carries the normalized tag.
func (r *AnimalRepository) ExistsByTag(ctx context.Context, tag string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM animals WHERE tag_id = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, models.NormalizeTag(tag)); err != nil {
		return false, fmt.Errorf("check tag exists: %w", err)
	}
	return exists, nil
}

// ListByFarmer returns a farmer's animals, most recently registered first.
func (r *AnimalRepository) ListByFarmer(ctx context.Context, farmerID int64) ([]models.Animal, error) {
	query := `SELECT ` + animalColumns + ` FROM animals WHERE farmer_id = $1 ORDER BY registered_at DESC, id DESC`
	var animals []models.Animal
	if err := r.db.SelectContext(ctx, &animals, query, farmerID); err != nil {
		return nil, fmt.Errorf("list animals by farmer: %w", err)
	}
	return animals, nil
}

// ListActiveByFarmer returns a farmer's animals still in Active status.
func (r *AnimalRepository) ListActiveByFarmer(ctx context.Context, farmerID int64) ([]models.Animal, error) {
	query := `SELECT ` + animalColumns + ` FROM animals WHERE farmer_id = $1 AND status = $2 ORDER BY registered_at DESC, id DESC`
	var animals []models.Animal
	if err := r.db.SelectContext(ctx, &animals, query, farmerID, models.AnimalStatusActive); err != nil {
		return nil, fmt.Errorf("list active animals: %w", err)
	}
	return animals, nil
}

// UpdateAnimalParams groups the mutable profile columns for an update.
type UpdateAnimalParams struct {
	ID          int64
	Breed       *string
	BasePrice   *float64
	Gender      *models.Gender
	DateOfBirth *time.Time
	TargetPrice *float64
}

// UpdateProfile persists the allowed profile changes. The tag is never
// part of the update surface.
func (r *AnimalRepository) UpdateProfile(ctx context.Context, params UpdateAnimalParams) error {
	setParts := []string{"updated_at = :updated_at"}
	args := map[string]interface{}{
		"id":         params.ID,
		"updated_at": time.Now().UTC(),
	}
	if params.Breed != nil {
		setParts = append(setParts, "breed = :breed")
		args["breed"] = *params.Breed
	}
	if params.BasePrice != nil {
		setParts = append(setParts, "base_price = :base_price")
		args["base_price"] = *params.BasePrice
	}
	if params.Gender != nil {
		setParts = append(setParts, "gender = :gender")
		args["gender"] = *params.Gender
	}
	if params.DateOfBirth != nil {
		setParts = append(setParts, "date_of_birth = :date_of_birth")
		args["date_of_birth"] = *params.DateOfBirth
	}
	if params.TargetPrice != nil {
		setParts = append(setParts, "target_price = :target_price")
		args["target_price"] = *params.TargetPrice
	}

	query := "UPDATE animals SET " + strings.Join(setParts, ", ") + " WHERE id = :id"
	if _, err := r.db.NamedExecContext(ctx, query, args); err != nil {
		return fmt.Errorf("update animal: %w", err)
	}
	return nil
}

// Delete removes an animal and all of its vaccination records in one
// transaction so projections never observe dangling record references.
func (r *AnimalRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete animal: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM vaccination_records WHERE animal_id = $1`, id); err != nil {
		return fmt.Errorf("delete animal records: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM animals WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete animal: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete animal: %w", err)
	}
	return nil
}

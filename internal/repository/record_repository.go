package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/farmtrust/livestock-api/internal/models"
)

const recordColumns = `r.id, r.animal_id, r.vaccination_type, r.vaccination_date, r.next_due_date, r.proposed_date, r.notes,
	r.is_verified, r.request_status, r.vet_id, r.verified_at, r.withdrawal_end_date, r.withdrawal_days,
	r.batch_number, r.dosage, r.clinical_notes, r.created_at`

const recordDetailColumns = recordColumns + `,
	a.tag_id AS animal_tag, a.breed AS animal_breed, a.species AS animal_species, a.farmer_id AS farmer_id,
	a.base_price AS animal_base_price, f.full_name AS farmer_name, v.full_name AS vet_name`

const recordDetailJoins = `
	FROM vaccination_records r
	JOIN animals a ON a.id = r.animal_id
	LEFT JOIN users f ON f.id = a.farmer_id
	LEFT JOIN users v ON v.id = r.vet_id`

// RecordRepository persists vaccination records and applies workflow
// transitions as conditional updates. Every transition carries its
// precondition in the WHERE clause, so concurrent mutators race on the
// database row: the loser matches zero rows and gets sql.ErrNoRows.
type RecordRepository struct {
	db *sqlx.DB
}

// NewRecordRepository constructs the repository.
func NewRecordRepository(db *sqlx.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// Create inserts a record, either a direct completed entry or a pending
// request, and assigns its identity.
func (r *RecordRepository) Create(ctx context.Context, record *models.Record) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if record.RequestStatus == "" {
		record.RequestStatus = models.RequestStatusCompleted
	}

	const query = `INSERT INTO vaccination_records
	(animal_id, vaccination_type, vaccination_date, next_due_date, proposed_date, notes, is_verified, request_status,
	 vet_id, verified_at, withdrawal_end_date, withdrawal_days, batch_number, dosage, clinical_notes, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		record.AnimalID, record.VaccinationType, record.VaccinationDate, record.NextDueDate, record.ProposedDate,
		record.Notes, record.IsVerified, record.RequestStatus, record.VetID, record.VerifiedAt,
		record.WithdrawalEnd, record.WithdrawalDays, record.BatchNumber, record.Dosage, record.ClinicalNotes,
		record.CreatedAt,
	).Scan(&record.ID); err != nil {
		return fmt.Errorf("create record: %w", err)
	}
	return nil
}

// GetByID fetches a record by identifier.
func (r *RecordRepository) GetByID(ctx context.Context, id int64) (*models.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM vaccination_records r WHERE r.id = $1`
	var record models.Record
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByAnimal returns an animal's records newest first, with vet names
// for the health history view.
func (r *RecordRepository) ListByAnimal(ctx context.Context, animalID int64) ([]models.RecordDetail, error) {
	query := `SELECT ` + recordDetailColumns + recordDetailJoins + `
	WHERE r.animal_id = $1
	ORDER BY r.vaccination_date DESC NULLS LAST, r.created_at DESC`
	var records []models.RecordDetail
	if err := r.db.SelectContext(ctx, &records, query, animalID); err != nil {
		return nil, fmt.Errorf("list records by animal: %w", err)
	}
	return records, nil
}

// HasVerifiedForAnimal reports whether the animal carries at least one
// vet-certified record. This is the certification source of truth the
// valuation reads fresh on every call.
func (r *RecordRepository) HasVerifiedForAnimal(ctx context.Context, animalID int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM vaccination_records WHERE animal_id = $1 AND is_verified = TRUE)`
	var verified bool
	if err := r.db.GetContext(ctx, &verified, query, animalID); err != nil {
		return false, fmt.Errorf("check verified records: %w", err)
	}
	return verified, nil
}

// CertifiedAnimalIDs returns the subset of animalIDs holding at least one
// verified record.
func (r *RecordRepository) CertifiedAnimalIDs(ctx context.Context, animalIDs []int64) (map[int64]bool, error) {
	certified := make(map[int64]bool, len(animalIDs))
	if len(animalIDs) == 0 {
		return certified, nil
	}
	const query = `SELECT DISTINCT animal_id FROM vaccination_records WHERE is_verified = TRUE AND animal_id = ANY($1)`
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, pq.Array(animalIDs)); err != nil {
		return nil, fmt.Errorf("list certified animals: %w", err)
	}
	for _, id := range ids {
		certified[id] = true
	}
	return certified, nil
}

// ListPendingRequests returns pending_request records joined with animal
// and owning-farmer display fields, newest first.
func (r *RecordRepository) ListPendingRequests(ctx context.Context) ([]models.RecordDetail, error) {
	query := `SELECT ` + recordDetailColumns + recordDetailJoins + `
	WHERE r.request_status = $1
	ORDER BY r.created_at DESC`
	var records []models.RecordDetail
	if err := r.db.SelectContext(ctx, &records, query, models.RequestStatusPending); err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	return records, nil
}

// ListPendingSignoffs returns approved, not yet verified records awaiting
// a vet's sign-off.
func (r *RecordRepository) ListPendingSignoffs(ctx context.Context) ([]models.RecordDetail, error) {
	query := `SELECT ` + recordDetailColumns + recordDetailJoins + `
	WHERE r.request_status = $1 AND r.is_verified = FALSE
	ORDER BY r.vaccination_date DESC NULLS LAST, r.created_at DESC`
	var records []models.RecordDetail
	if err := r.db.SelectContext(ctx, &records, query, models.RequestStatusApproved); err != nil {
		return nil, fmt.Errorf("list pending signoffs: %w", err)
	}
	return records, nil
}

// ListUnverified returns every record still awaiting verification,
// requests excluded. This backs the vet's pending-treatments queue.
func (r *RecordRepository) ListUnverified(ctx context.Context) ([]models.RecordDetail, error) {
	query := `SELECT ` + recordDetailColumns + recordDetailJoins + `
	WHERE r.is_verified = FALSE AND r.request_status != $1
	ORDER BY r.vaccination_date DESC NULLS LAST, r.created_at DESC`
	var records []models.RecordDetail
	if err := r.db.SelectContext(ctx, &records, query, models.RequestStatusPending); err != nil {
		return nil, fmt.Errorf("list unverified records: %w", err)
	}
	return records, nil
}

// ListVerified returns verified records, optionally restricted to animals
// owned by one farmer.
func (r *RecordRepository) ListVerified(ctx context.Context, farmerID *int64) ([]models.RecordDetail, error) {
	query := `SELECT ` + recordDetailColumns + recordDetailJoins + `
	WHERE r.is_verified = TRUE`
	args := []interface{}{}
	if farmerID != nil {
		query += ` AND a.farmer_id = $1`
		args = append(args, *farmerID)
	}
	query += ` ORDER BY r.vaccination_date DESC NULLS LAST, r.created_at DESC`

	var records []models.RecordDetail
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list verified records: %w", err)
	}
	return records, nil
}

// ListDueForVaccination returns verified records whose next due date has
// passed, restricted to the given animals.
func (r *RecordRepository) ListDueForVaccination(ctx context.Context, animalIDs []int64, today time.Time) ([]models.RecordDetail, error) {
	if len(animalIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + recordDetailColumns + recordDetailJoins + `
	WHERE r.animal_id = ANY($1) AND r.is_verified = TRUE AND r.next_due_date <= $2
	ORDER BY r.next_due_date ASC`
	var records []models.RecordDetail
	if err := r.db.SelectContext(ctx, &records, query, pq.Array(animalIDs), today); err != nil {
		return nil, fmt.Errorf("list due records: %w", err)
	}
	return records, nil
}

// ApproveParams carries the vet-supplied scheduling for an approval.
type ApproveParams struct {
	ID              int64
	VaccinationDate time.Time
	NextDueDate     time.Time
	WithdrawalEnd   time.Time
	WithdrawalDays  int
}

// Approve moves a pending request to approved, filling the vaccination
// schedule and derived withdrawal fields. Returns sql.ErrNoRows when the
// record is no longer pending.
func (r *RecordRepository) Approve(ctx context.Context, params ApproveParams) error {
	const query = `UPDATE vaccination_records
	SET request_status = $2, vaccination_date = $3, next_due_date = $4, withdrawal_end_date = $5, withdrawal_days = $6
	WHERE id = $1 AND request_status = $7`
	result, err := r.db.ExecContext(ctx, query,
		params.ID, models.RequestStatusApproved, params.VaccinationDate, params.NextDueDate,
		params.WithdrawalEnd, params.WithdrawalDays, models.RequestStatusPending,
	)
	if err != nil {
		return fmt.Errorf("approve record: %w", err)
	}
	return requireRows(result)
}

// Reject moves a pending request to its terminal rejected state, storing
// the reason in the notes. Returns sql.ErrNoRows when not pending.
func (r *RecordRepository) Reject(ctx context.Context, id int64, notes string) error {
	const query = `UPDATE vaccination_records
	SET request_status = $2, notes = $3
	WHERE id = $1 AND request_status = $4`
	result, err := r.db.ExecContext(ctx, query, id, models.RequestStatusRejected, notes, models.RequestStatusPending)
	if err != nil {
		return fmt.Errorf("reject record: %w", err)
	}
	return requireRows(result)
}

// SignOffParams carries the professional sign-off detail.
type SignOffParams struct {
	ID             int64
	VetID          int64
	VerifiedAt     time.Time
	WithdrawalEnd  time.Time
	WithdrawalDays int
	BatchNumber    string
	Dosage         string
	ClinicalNotes  string
}

// SignOff verifies a record: sets the certification flag, attaches the
// vet, stores clinical detail and the recomputed withdrawal window. The
// is_verified guard makes a second concurrent sign-off match zero rows.
func (r *RecordRepository) SignOff(ctx context.Context, params SignOffParams) error {
	const query = `UPDATE vaccination_records
	SET is_verified = TRUE, request_status = $2, vet_id = $3, verified_at = $4,
	    withdrawal_end_date = $5, withdrawal_days = $6, batch_number = $7, dosage = $8, clinical_notes = $9
	WHERE id = $1 AND is_verified = FALSE AND request_status IN ($10, $11)`
	result, err := r.db.ExecContext(ctx, query,
		params.ID, models.RequestStatusCompleted, params.VetID, params.VerifiedAt,
		params.WithdrawalEnd, params.WithdrawalDays, params.BatchNumber, params.Dosage, params.ClinicalNotes,
		models.RequestStatusApproved, models.RequestStatusCompleted,
	)
	if err != nil {
		return fmt.Errorf("sign off record: %w", err)
	}
	return requireRows(result)
}

// DeleteVerified removes a verified record. Returns sql.ErrNoRows when the
// record does not exist or is not verified.
func (r *RecordRepository) DeleteVerified(ctx context.Context, id int64) error {
	const query = `DELETE FROM vaccination_records WHERE id = $1 AND is_verified = TRUE`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete verified record: %w", err)
	}
	return requireRows(result)
}

func requireRows(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check affected rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

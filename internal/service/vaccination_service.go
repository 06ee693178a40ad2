package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/farmtrust/livestock-api/internal/dto"
	"github.com/farmtrust/livestock-api/internal/models"
	"github.com/farmtrust/livestock-api/internal/reference"
	"github.com/farmtrust/livestock-api/internal/repository"
	appErrors "github.com/farmtrust/livestock-api/pkg/errors"
)

var digitalPINPattern = regexp.MustCompile(`^\d{4}$`)

type recordStore interface {
	Create(ctx context.Context, record *models.Record) error
	GetByID(ctx context.Context, id int64) (*models.Record, error)
	Approve(ctx context.Context, params repository.ApproveParams) error
	Reject(ctx context.Context, id int64, notes string) error
	SignOff(ctx context.Context, params repository.SignOffParams) error
	DeleteVerified(ctx context.Context, id int64) error
}

type recordAnimalStore interface {
	GetByID(ctx context.Context, id int64) (*models.Animal, error)
}

// VaccinationService drives the record workflow. A record is either a
// direct entry (completed, unverified) or travels the request path
// pending_request -> approved -> completed. Verification is terminal and
// only a vet sign-off sets it. Transition preconditions are re-checked by
// the repository's conditional updates, so two racing callers cannot both
// win the same transition.
type VaccinationService struct {
	records   recordStore
	animals   recordAnimalStore
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewVaccinationService constructs the service.
func NewVaccinationService(records recordStore, animals recordAnimalStore, validate *validator.Validate, logger *zap.Logger) *VaccinationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VaccinationService{
		records:   records,
		animals:   animals,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateDirect records an already-administered vaccination for the
// farmer's own animal. The entry lands completed but unverified, with the
// withdrawal window derived from the vaccination type's reference period.
func (s *VaccinationService) CreateDirect(ctx context.Context, req dto.CreateRecordRequest, farmerID int64) (*models.Record, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid record payload")
	}
	if err := s.requireOwnership(ctx, req.AnimalID, farmerID); err != nil {
		return nil, err
	}

	vaccinationDate, err := dto.ParseDate(req.VaccinationDate)
	if err != nil || vaccinationDate == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid vaccination date")
	}
	nextDueDate, err := dto.ParseDate(req.NextDueDate)
	if err != nil || nextDueDate == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid next due date")
	}
	if nextDueDate.Before(*vaccinationDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "next due date cannot precede vaccination date")
	}

	vaccinationType := strings.TrimSpace(req.VaccinationType)
	withdrawalDays := reference.WithdrawalDays(vaccinationType)
	withdrawalEnd := reference.WithdrawalEnd(*vaccinationDate, withdrawalDays)

	record := &models.Record{
		AnimalID:        req.AnimalID,
		VaccinationType: vaccinationType,
		VaccinationDate: vaccinationDate,
		NextDueDate:     nextDueDate,
		IsVerified:      false,
		RequestStatus:   models.RequestStatusCompleted,
		WithdrawalEnd:   &withdrawalEnd,
		WithdrawalDays:  withdrawalDays,
	}
	if req.Notes != "" {
		record.Notes = &req.Notes
	}
	if err := s.records.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to create record")
	}

	s.logger.Info("vaccination recorded",
		zap.Int64("record_id", record.ID),
		zap.Int64("animal_id", record.AnimalID),
		zap.String("type", record.VaccinationType),
	)
	return record, nil
}

// CreateRequest opens a vaccination request for the farmer's own animal.
// The request carries no schedule yet; the approving vet supplies it.
func (s *VaccinationService) CreateRequest(ctx context.Context, req dto.CreateRequestRequest, farmerID int64) (*models.Record, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload")
	}
	if err := s.requireOwnership(ctx, req.AnimalID, farmerID); err != nil {
		return nil, err
	}

	var proposed *time.Time
	if req.ProposedDate != "" {
		parsed, err := dto.ParseDate(req.ProposedDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid proposed date")
		}
		proposed = parsed
	}

	record := &models.Record{
		AnimalID:        req.AnimalID,
		VaccinationType: strings.TrimSpace(req.VaccinationType),
		ProposedDate:    proposed,
		RequestStatus:   models.RequestStatusPending,
	}
	if req.Notes != "" {
		record.Notes = &req.Notes
	}
	if err := s.records.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to create request")
	}

	s.logger.Info("vaccination requested",
		zap.Int64("record_id", record.ID),
		zap.Int64("animal_id", record.AnimalID),
		zap.String("type", record.VaccinationType),
	)
	return record, nil
}

// Approve moves a pending request to approved with the vet-confirmed
// schedule. The withdrawal window is derived from the confirmed
// vaccination date and the type's reference period.
func (s *VaccinationService) Approve(ctx context.Context, recordID int64, req dto.ApproveRequestRequest) (*models.Record, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid approval payload")
	}

	record, err := s.loadRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record.RequestStatus != models.RequestStatusPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only pending requests can be approved")
	}

	vaccinationDate, err := dto.ParseDate(req.VaccinationDate)
	if err != nil || vaccinationDate == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid vaccination date")
	}
	nextDueDate, err := dto.ParseDate(req.NextDueDate)
	if err != nil || nextDueDate == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid next due date")
	}
	if nextDueDate.Before(*vaccinationDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "next due date cannot precede vaccination date")
	}

	withdrawalDays := reference.WithdrawalDays(record.VaccinationType)
	withdrawalEnd := reference.WithdrawalEnd(*vaccinationDate, withdrawalDays)

	if err := s.records.Approve(ctx, repository.ApproveParams{
		ID:              recordID,
		VaccinationDate: *vaccinationDate,
		NextDueDate:     *nextDueDate,
		WithdrawalEnd:   withdrawalEnd,
		WithdrawalDays:  withdrawalDays,
	}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "request is no longer pending")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to approve request")
	}

	record.RequestStatus = models.RequestStatusApproved
	record.VaccinationDate = vaccinationDate
	record.NextDueDate = nextDueDate
	record.WithdrawalEnd = &withdrawalEnd
	record.WithdrawalDays = withdrawalDays

	s.logger.Info("request approved", zap.Int64("record_id", recordID))
	return record, nil
}

// Reject moves a pending request to its terminal rejected state.
func (s *VaccinationService) Reject(ctx context.Context, recordID int64, req dto.RejectRequestRequest) (*models.Record, error) {
	record, err := s.loadRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record.RequestStatus != models.RequestStatusPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only pending requests can be rejected")
	}

	reason := req.Reason
	if reason == "" {
		reason = "No reason provided"
	}
	notes := fmt.Sprintf("Rejected: %s", reason)

	if err := s.records.Reject(ctx, recordID, notes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "request is no longer pending")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to reject request")
	}

	record.RequestStatus = models.RequestStatusRejected
	record.Notes = &notes

	s.logger.Info("request rejected", zap.Int64("record_id", recordID))
	return record, nil
}

// SignOff verifies a record. The PIN is format-checked only; the
// withdrawal window is recomputed from the record's existing vaccination
// date with the vet-supplied period, which overrides the reference value.
func (s *VaccinationService) SignOff(ctx context.Context, recordID int64, req dto.SignOffRequest, vetID int64) (*models.Record, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid sign-off payload")
	}
	if !digitalPINPattern.MatchString(req.DigitalPIN) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "digital PIN must be exactly 4 digits")
	}

	record, err := s.loadRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record.IsVerified {
		return nil, appErrors.ErrAlreadyVerified
	}
	switch record.RequestStatus {
	case models.RequestStatusPending:
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "request must be approved before sign-off")
	case models.RequestStatusRejected:
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "rejected requests cannot be signed off")
	}
	if record.VaccinationDate == nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "record has no vaccination date")
	}

	withdrawalEnd := reference.WithdrawalEnd(*record.VaccinationDate, req.WithdrawalPeriodDays)
	verifiedAt := s.now()

	if err := s.records.SignOff(ctx, repository.SignOffParams{
		ID:             recordID,
		VetID:          vetID,
		VerifiedAt:     verifiedAt,
		WithdrawalEnd:  withdrawalEnd,
		WithdrawalDays: req.WithdrawalPeriodDays,
		BatchNumber:    req.BatchNumber,
		Dosage:         req.Dosage,
		ClinicalNotes:  req.ClinicalNotes,
	}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrAlreadyVerified
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to sign off record")
	}

	record.IsVerified = true
	record.RequestStatus = models.RequestStatusCompleted
	record.VetID = &vetID
	record.VerifiedAt = &verifiedAt
	record.WithdrawalEnd = &withdrawalEnd
	record.WithdrawalDays = req.WithdrawalPeriodDays
	record.BatchNumber = &req.BatchNumber
	record.Dosage = &req.Dosage
	record.ClinicalNotes = &req.ClinicalNotes

	s.logger.Info("record signed off",
		zap.Int64("record_id", recordID),
		zap.Int64("vet_id", vetID),
		zap.Int("withdrawal_days", req.WithdrawalPeriodDays),
	)
	return record, nil
}

// DeleteVerified removes a verified record from the registry. Vet only.
func (s *VaccinationService) DeleteVerified(ctx context.Context, recordID int64, actor *models.JWTClaims) error {
	if actor.Role != models.RoleVet {
		return appErrors.Clone(appErrors.ErrForbidden, "only veterinarians can delete verified records")
	}

	record, err := s.loadRecord(ctx, recordID)
	if err != nil {
		return err
	}
	if !record.IsVerified {
		return appErrors.Clone(appErrors.ErrInvalidTransition, "only verified records can be deleted")
	}

	if err := s.records.DeleteVerified(ctx, recordID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrInvalidTransition, "record is no longer verified")
		}
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to delete record")
	}

	s.logger.Info("verified record deleted", zap.Int64("record_id", recordID), zap.Int64("vet_id", actor.UserID))
	return nil
}

// Get returns one record, restricted to the owning farmer or any vet.
func (s *VaccinationService) Get(ctx context.Context, recordID int64, actor *models.JWTClaims) (*models.Record, error) {
	record, err := s.loadRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleFarmer {
		if err := s.requireOwnership(ctx, record.AnimalID, actor.UserID); err != nil {
			return nil, err
		}
	}
	return record, nil
}

func (s *VaccinationService) requireOwnership(ctx context.Context, animalID, farmerID int64) error {
	animal, err := s.animals.GetByID(ctx, animalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "animal not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load animal")
	}
	if animal.FarmerID != farmerID {
		return appErrors.Clone(appErrors.ErrForbidden, "animal belongs to another farmer")
	}
	return nil
}

func (s *VaccinationService) loadRecord(ctx context.Context, id int64) (*models.Record, error) {
	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load record")
	}
	return record, nil
}

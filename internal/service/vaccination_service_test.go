package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/farmtrust/livestock-api/internal/dto"
	"github.com/farmtrust/livestock-api/internal/models"
	"github.com/farmtrust/livestock-api/internal/repository"
	appErrors "github.com/farmtrust/livestock-api/pkg/errors"
)

type stubRecordStore struct {
	records    map[int64]*models.Record
	nextID     int64
	signOffErr error
}

func newStubRecordStore() *stubRecordStore {
	return &stubRecordStore{records: make(map[int64]*models.Record), nextID: 1}
}

func (s *stubRecordStore) Create(_ context.Context, record *models.Record) error {
	record.ID = s.nextID
	s.nextID++
	if record.RequestStatus == "" {
		record.RequestStatus = models.RequestStatusCompleted
	}
	clone := *record
	s.records[record.ID] = &clone
	return nil
}

func (s *stubRecordStore) GetByID(_ context.Context, id int64) (*models.Record, error) {
	record, ok := s.records[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *record
	return &clone, nil
}

func (s *stubRecordStore) Approve(_ context.Context, params repository.ApproveParams) error {
	record, ok := s.records[params.ID]
	if !ok || record.RequestStatus != models.RequestStatusPending {
		return sql.ErrNoRows
	}
	record.RequestStatus = models.RequestStatusApproved
	record.VaccinationDate = &params.VaccinationDate
	record.NextDueDate = &params.NextDueDate
	record.WithdrawalEnd = &params.WithdrawalEnd
	record.WithdrawalDays = params.WithdrawalDays
	return nil
}

func (s *stubRecordStore) Reject(_ context.Context, id int64, notes string) error {
	record, ok := s.records[id]
	if !ok || record.RequestStatus != models.RequestStatusPending {
		return sql.ErrNoRows
	}
	record.RequestStatus = models.RequestStatusRejected
	record.Notes = &notes
	return nil
}

func (s *stubRecordStore) SignOff(_ context.Context, params repository.SignOffParams) error {
	if s.signOffErr != nil {
		return s.signOffErr
	}
	record, ok := s.records[params.ID]
	if !ok || record.IsVerified {
		return sql.ErrNoRows
	}
	if record.RequestStatus != models.RequestStatusApproved && record.RequestStatus != models.RequestStatusCompleted {
		return sql.ErrNoRows
	}
	record.IsVerified = true
	record.RequestStatus = models.RequestStatusCompleted
	record.VetID = &params.VetID
	record.VerifiedAt = &params.VerifiedAt
	record.WithdrawalEnd = &params.WithdrawalEnd
	record.WithdrawalDays = params.WithdrawalDays
	record.BatchNumber = &params.BatchNumber
	record.Dosage = &params.Dosage
	record.ClinicalNotes = &params.ClinicalNotes
	return nil
}

func (s *stubRecordStore) DeleteVerified(_ context.Context, id int64) error {
	record, ok := s.records[id]
	if !ok || !record.IsVerified {
		return sql.ErrNoRows
	}
	delete(s.records, id)
	return nil
}

type stubAnimalFinder struct {
	animals map[int64]*models.Animal
}

func (s *stubAnimalFinder) GetByID(_ context.Context, id int64) (*models.Animal, error) {
	animal, ok := s.animals[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *animal
	return &clone, nil
}

func newVaccinationFixture() (*VaccinationService, *stubRecordStore) {
	records := newStubRecordStore()
	animals := &stubAnimalFinder{animals: map[int64]*models.Animal{
		10: {ID: 10, TagID: "COW-001", Breed: "Holstein", FarmerID: 1, BasePrice: 500000},
		20: {ID: 20, TagID: "COW-002", Breed: "Sokoto Gudali", FarmerID: 2, BasePrice: 420000},
	}}
	svc := NewVaccinationService(records, animals, nil, zap.NewNop())
	return svc, records
}

func errorCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	return appErrors.FromError(err).Code
}

func TestCreateDirectDerivesWithdrawal(t *testing.T) {
	svc, _ := newVaccinationFixture()

	record, err := svc.CreateDirect(context.Background(), dto.CreateRecordRequest{
		AnimalID:        10,
		VaccinationType: "Antibiotic",
		VaccinationDate: "2026-01-10",
		NextDueDate:     "2026-07-10",
	}, 1)
	require.NoError(t, err)

	assert.Equal(t, models.RequestStatusCompleted, record.RequestStatus)
	assert.False(t, record.IsVerified)
	assert.Equal(t, 21, record.WithdrawalDays)
	require.NotNil(t, record.WithdrawalEnd)
	assert.Equal(t, "2026-01-31", record.WithdrawalEnd.Format("2006-01-02"))
}

func TestCreateNormalizesVaccinationType(t *testing.T) {
	svc, store := newVaccinationFixture()

	record, err := svc.CreateDirect(context.Background(), dto.CreateRecordRequest{
		AnimalID:        10,
		VaccinationType: "  FMD  ",
		VaccinationDate: "2026-01-10",
		NextDueDate:     "2026-07-10",
	}, 1)
	require.NoError(t, err)

	assert.Equal(t, "FMD", record.VaccinationType)
	assert.Equal(t, "FMD", store.records[record.ID].VaccinationType)
	assert.Equal(t, 0, record.WithdrawalDays)

	request, err := svc.CreateRequest(context.Background(), dto.CreateRequestRequest{
		AnimalID:        10,
		VaccinationType: "\tBrucellosis ",
	}, 1)
	require.NoError(t, err)

	assert.Equal(t, "Brucellosis", request.VaccinationType)
	assert.Equal(t, "Brucellosis", store.records[request.ID].VaccinationType)
}

func TestCreateDirectRejectsForeignAnimal(t *testing.T) {
	svc, _ := newVaccinationFixture()

	_, err := svc.CreateDirect(context.Background(), dto.CreateRecordRequest{
		AnimalID:        20,
		VaccinationType: "FMD",
		VaccinationDate: "2026-01-10",
		NextDueDate:     "2026-07-10",
	}, 1)
	assert.Equal(t, "FORBIDDEN", errorCode(t, err))
}

func TestCreateDirectUnknownAnimal(t *testing.T) {
	svc, _ := newVaccinationFixture()

	_, err := svc.CreateDirect(context.Background(), dto.CreateRecordRequest{
		AnimalID:        99,
		VaccinationType: "FMD",
		VaccinationDate: "2026-01-10",
		NextDueDate:     "2026-07-10",
	}, 1)
	assert.Equal(t, "NOT_FOUND", errorCode(t, err))
}

func TestCreateRequestStartsPending(t *testing.T) {
	svc, store := newVaccinationFixture()

	record, err := svc.CreateRequest(context.Background(), dto.CreateRequestRequest{
		AnimalID:        10,
		VaccinationType: "Brucellosis",
		ProposedDate:    "2026-02-01",
	}, 1)
	require.NoError(t, err)

	stored := store.records[record.ID]
	assert.Equal(t, models.RequestStatusPending, stored.RequestStatus)
	assert.Nil(t, stored.VaccinationDate)
	assert.Nil(t, stored.NextDueDate)
	assert.False(t, stored.IsVerified)
}

func TestApproveFillsSchedule(t *testing.T) {
	svc, store := newVaccinationFixture()
	request, err := svc.CreateRequest(context.Background(), dto.CreateRequestRequest{
		AnimalID:        10,
		VaccinationType: "Brucellosis",
	}, 1)
	require.NoError(t, err)

	approved, err := svc.Approve(context.Background(), request.ID, dto.ApproveRequestRequest{
		VaccinationDate: "2026-03-01",
		NextDueDate:     "2027-03-01",
	})
	require.NoError(t, err)

	assert.Equal(t, models.RequestStatusApproved, approved.RequestStatus)
	assert.Equal(t, 30, approved.WithdrawalDays)
	require.NotNil(t, approved.WithdrawalEnd)
	assert.Equal(t, "2026-03-31", approved.WithdrawalEnd.Format("2006-01-02"))
	assert.False(t, store.records[request.ID].IsVerified)
}

func TestApproveRequiresPending(t *testing.T) {
	svc, _ := newVaccinationFixture()
	request, err := svc.CreateRequest(context.Background(), dto.CreateRequestRequest{AnimalID: 10, VaccinationType: "FMD"}, 1)
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), request.ID, dto.RejectRequestRequest{Reason: "not due"})
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), request.ID, dto.ApproveRequestRequest{
		VaccinationDate: "2026-03-01",
		NextDueDate:     "2027-03-01",
	})
	assert.Equal(t, "INVALID_TRANSITION", errorCode(t, err))
}

func TestRejectIsTerminal(t *testing.T) {
	svc, store := newVaccinationFixture()
	request, err := svc.CreateRequest(context.Background(), dto.CreateRequestRequest{AnimalID: 10, VaccinationType: "FMD"}, 1)
	require.NoError(t, err)

	rejected, err := svc.Reject(context.Background(), request.ID, dto.RejectRequestRequest{Reason: "animal not due"})
	require.NoError(t, err)
	require.NotNil(t, rejected.Notes)
	assert.Equal(t, "Rejected: animal not due", *rejected.Notes)

	_, err = svc.Reject(context.Background(), request.ID, dto.RejectRequestRequest{})
	assert.Equal(t, "INVALID_TRANSITION", errorCode(t, err))

	_, err = svc.SignOff(context.Background(), request.ID, validSignOff(), 7)
	assert.Equal(t, "INVALID_TRANSITION", errorCode(t, err))
	assert.False(t, store.records[request.ID].IsVerified)
}

func validSignOff() dto.SignOffRequest {
	return dto.SignOffRequest{
		BatchNumber:          "BATCH-42",
		Dosage:               "5ml",
		WithdrawalPeriodDays: 28,
		ClinicalNotes:        "No adverse reaction",
		DigitalPIN:           "1234",
	}
}

func TestSignOffVerifiesAndRecomputesWithdrawal(t *testing.T) {
	svc, store := newVaccinationFixture()
	record, err := svc.CreateDirect(context.Background(), dto.CreateRecordRequest{
		AnimalID:        10,
		VaccinationType: "Antibiotic",
		VaccinationDate: "2026-01-10",
		NextDueDate:     "2026-07-10",
	}, 1)
	require.NoError(t, err)

	signed, err := svc.SignOff(context.Background(), record.ID, validSignOff(), 7)
	require.NoError(t, err)

	assert.True(t, signed.IsVerified)
	assert.Equal(t, models.RequestStatusCompleted, signed.RequestStatus)
	require.NotNil(t, signed.VetID)
	assert.Equal(t, int64(7), *signed.VetID)
	assert.Equal(t, 28, signed.WithdrawalDays)
	require.NotNil(t, signed.WithdrawalEnd)
	assert.Equal(t, "2026-02-07", signed.WithdrawalEnd.Format("2006-01-02"))
	assert.True(t, store.records[record.ID].IsVerified)
}

func TestSignOffRejectsMalformedPIN(t *testing.T) {
	svc, _ := newVaccinationFixture()
	record, err := svc.CreateDirect(context.Background(), dto.CreateRecordRequest{
		AnimalID:        10,
		VaccinationType: "FMD",
		VaccinationDate: "2026-01-10",
		NextDueDate:     "2026-07-10",
	}, 1)
	require.NoError(t, err)

	for _, pin := range []string{"12a4", "123", "12345", ""} {
		req := validSignOff()
		req.DigitalPIN = pin
		_, err := svc.SignOff(context.Background(), record.ID, req, 7)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, err), "pin %q", pin)
	}
}

func TestSignOffTwiceConflicts(t *testing.T) {
	svc, _ := newVaccinationFixture()
	record, err := svc.CreateDirect(context.Background(), dto.CreateRecordRequest{
		AnimalID:        10,
		VaccinationType: "FMD",
		VaccinationDate: "2026-01-10",
		NextDueDate:     "2026-07-10",
	}, 1)
	require.NoError(t, err)

	_, err = svc.SignOff(context.Background(), record.ID, validSignOff(), 7)
	require.NoError(t, err)

	_, err = svc.SignOff(context.Background(), record.ID, validSignOff(), 8)
	assert.Equal(t, "ALREADY_VERIFIED", errorCode(t, err))
}

func TestSignOffRequiresApprovalForRequests(t *testing.T) {
	svc, _ := newVaccinationFixture()
	request, err := svc.CreateRequest(context.Background(), dto.CreateRequestRequest{AnimalID: 10, VaccinationType: "FMD"}, 1)
	require.NoError(t, err)

	_, err = svc.SignOff(context.Background(), request.ID, validSignOff(), 7)
	assert.Equal(t, "INVALID_TRANSITION", errorCode(t, err))
}

func TestDeleteVerifiedRequiresVet(t *testing.T) {
	svc, store := newVaccinationFixture()
	record, err := svc.CreateDirect(context.Background(), dto.CreateRecordRequest{
		AnimalID:        10,
		VaccinationType: "FMD",
		VaccinationDate: "2026-01-10",
		NextDueDate:     "2026-07-10",
	}, 1)
	require.NoError(t, err)

	farmer := &models.JWTClaims{UserID: 1, Role: models.RoleFarmer}
	err = svc.DeleteVerified(context.Background(), record.ID, farmer)
	assert.Equal(t, "FORBIDDEN", errorCode(t, err))

	vet := &models.JWTClaims{UserID: 7, Role: models.RoleVet}
	err = svc.DeleteVerified(context.Background(), record.ID, vet)
	assert.Equal(t, "INVALID_TRANSITION", errorCode(t, err))

	_, err = svc.SignOff(context.Background(), record.ID, validSignOff(), 7)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteVerified(context.Background(), record.ID, vet))
	_, ok := store.records[record.ID]
	assert.False(t, ok)
}

func TestSignOffLostRaceMapsToConflict(t *testing.T) {
	records := newStubRecordStore()
	animals := &stubAnimalFinder{animals: map[int64]*models.Animal{10: {ID: 10, FarmerID: 1}}}
	svc := NewVaccinationService(records, animals, nil, zap.NewNop())

	date := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	record := &models.Record{AnimalID: 10, VaccinationType: "FMD", VaccinationDate: &date, RequestStatus: models.RequestStatusCompleted}
	require.NoError(t, records.Create(context.Background(), record))

	// The record looks unverified at load time but the conditional
	// update matches zero rows, as when a concurrent sign-off lands
	// between the read and the write.
	records.signOffErr = sql.ErrNoRows

	_, err := svc.SignOff(context.Background(), record.ID, validSignOff(), 7)
	assert.Equal(t, "ALREADY_VERIFIED", errorCode(t, err))
}

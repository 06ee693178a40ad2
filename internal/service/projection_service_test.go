package service

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/farmtrust/livestock-api/internal/models"
)

type stubProjectionRecords struct {
	byAnimal  map[int64][]models.RecordDetail
	pending   []models.RecordDetail
	signoffs  []models.RecordDetail
	treatable []models.RecordDetail
	verified  []models.RecordDetail
	due       []models.RecordDetail
	certified map[int64]bool
}

func (s *stubProjectionRecords) ListByAnimal(_ context.Context, animalID int64) ([]models.RecordDetail, error) {
	return s.byAnimal[animalID], nil
}

func (s *stubProjectionRecords) ListPendingRequests(_ context.Context) ([]models.RecordDetail, error) {
	return s.pending, nil
}

func (s *stubProjectionRecords) ListPendingSignoffs(_ context.Context) ([]models.RecordDetail, error) {
	return s.signoffs, nil
}

func (s *stubProjectionRecords) ListUnverified(_ context.Context) ([]models.RecordDetail, error) {
	return s.treatable, nil
}

func (s *stubProjectionRecords) ListVerified(_ context.Context, farmerID *int64) ([]models.RecordDetail, error) {
	if farmerID == nil {
		return s.verified, nil
	}
	var out []models.RecordDetail
	for _, record := range s.verified {
		if record.FarmerID == *farmerID {
			out = append(out, record)
		}
	}
	return out, nil
}

func (s *stubProjectionRecords) ListDueForVaccination(_ context.Context, _ []int64, _ time.Time) ([]models.RecordDetail, error) {
	return s.due, nil
}

func (s *stubProjectionRecords) CertifiedAnimalIDs(_ context.Context, animalIDs []int64) (map[int64]bool, error) {
	out := make(map[int64]bool)
	for _, id := range animalIDs {
		if s.certified[id] {
			out[id] = true
		}
	}
	return out, nil
}

func detailRecord(animalID int64, tag, breed string, basePrice float64) models.RecordDetail {
	date := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	vetName := "Dr. Okafor"
	batch := "BATCH-42"
	dosage := "5ml"
	verifiedAt := date.Add(24 * time.Hour)
	end := date.AddDate(0, 0, 21)
	return models.RecordDetail{
		Record: models.Record{
			ID:              1,
			AnimalID:        animalID,
			VaccinationType: "Antibiotic",
			VaccinationDate: &date,
			IsVerified:      true,
			RequestStatus:   models.RequestStatusCompleted,
			VerifiedAt:      &verifiedAt,
			WithdrawalEnd:   &end,
			WithdrawalDays:  21,
			BatchNumber:     &batch,
			Dosage:          &dosage,
		},
		AnimalTag:       tag,
		AnimalBreed:     breed,
		AnimalSpecies:   models.SpeciesCattle,
		FarmerID:        1,
		AnimalBasePrice: basePrice,
		VetName:         &vetName,
	}
}

func TestFarmerDashboardAggregatesEquity(t *testing.T) {
	animals := &stubAnimalStore{animals: map[int64]*models.Animal{
		10: {ID: 10, FarmerID: 1, TagID: "COW-001", Breed: "Holstein", Status: models.AnimalStatusActive, BasePrice: 500000},
		11: {ID: 11, FarmerID: 1, TagID: "COW-002", Breed: "Jersey", Status: models.AnimalStatusActive, BasePrice: 400000},
	}}
	records := &stubProjectionRecords{certified: map[int64]bool{10: true}}
	svc := NewProjectionService(records, animals, 0, nil, zap.NewNop())

	dashboard, err := svc.FarmerDashboard(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 2, dashboard.AnimalCount)
	assert.InDelta(t, 975000.0, dashboard.TotalEquity, 0.001)
	for _, view := range dashboard.Animals {
		if view.ID == 10 {
			assert.True(t, view.IsCertified)
			assert.InDelta(t, 575000.0, view.EstimatedMarketValue, 0.001)
		} else {
			assert.False(t, view.IsCertified)
		}
	}
}

func TestProjectionQueriesFeedDBMetrics(t *testing.T) {
	metrics := NewMetricsService()
	records := &stubProjectionRecords{pending: []models.RecordDetail{detailRecord(10, "COW-001", "Holstein", 500000)}}
	svc := NewProjectionService(records, &stubAnimalStore{}, 0, metrics, zap.NewNop())

	_, err := svc.PendingRequests(context.Background())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), `db_query_duration_seconds_count{query="pending_requests"} 1`)
}

func TestPendingSignoffsCarryUplift(t *testing.T) {
	record := detailRecord(10, "COW-001", "Holstein", 500000)
	record.IsVerified = false
	record.RequestStatus = models.RequestStatusApproved
	records := &stubProjectionRecords{signoffs: []models.RecordDetail{record}}
	svc := NewProjectionService(records, &stubAnimalStore{}, 0, nil, zap.NewNop())

	views, err := svc.PendingSignoffs(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.InDelta(t, 75000.0, views[0].UpliftAmount, 0.001)
}

func TestRecordViewsComputeDaysRemaining(t *testing.T) {
	record := detailRecord(10, "COW-001", "Holstein", 500000)
	records := &stubProjectionRecords{verified: []models.RecordDetail{record}}
	svc := NewProjectionService(records, &stubAnimalStore{}, 0, nil, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 1, 20, 15, 0, 0, 0, time.UTC) }

	views, err := svc.VerifiedRecords(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, 11, views[0].WithdrawalDaysRemaining)
}

func TestVerifiedRecordsScopedToFarmer(t *testing.T) {
	mine := detailRecord(10, "COW-001", "Holstein", 500000)
	theirs := detailRecord(20, "COW-009", "Angus", 450000)
	theirs.FarmerID = 2
	records := &stubProjectionRecords{verified: []models.RecordDetail{mine, theirs}}
	svc := NewProjectionService(records, &stubAnimalStore{}, 0, nil, zap.NewNop())

	farmerID := int64(1)
	views, err := svc.VerifiedRecords(context.Background(), &farmerID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "COW-001", views[0].AnimalTag)

	all, err := svc.VerifiedRecords(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAnimalHistoryEnforcesOwnership(t *testing.T) {
	animals := &stubAnimalStore{animals: map[int64]*models.Animal{
		10: {ID: 10, FarmerID: 1},
	}}
	records := &stubProjectionRecords{byAnimal: map[int64][]models.RecordDetail{
		10: {detailRecord(10, "COW-001", "Holstein", 500000)},
	}}
	svc := NewProjectionService(records, animals, 0, nil, zap.NewNop())

	owner := &models.JWTClaims{UserID: 1, Role: models.RoleFarmer}
	views, err := svc.AnimalHistory(context.Background(), 10, owner)
	require.NoError(t, err)
	assert.Len(t, views, 1)

	stranger := &models.JWTClaims{UserID: 2, Role: models.RoleFarmer}
	_, err = svc.AnimalHistory(context.Background(), 10, stranger)
	assert.Equal(t, "FORBIDDEN", errorCode(t, err))

	vet := &models.JWTClaims{UserID: 7, Role: models.RoleVet}
	_, err = svc.AnimalHistory(context.Background(), 10, vet)
	require.NoError(t, err)
}

func TestExportVerifiedRecordsCSV(t *testing.T) {
	record := detailRecord(10, "COW-001", "Holstein", 500000)
	records := &stubProjectionRecords{verified: []models.RecordDetail{record}}
	svc := NewProjectionService(records, &stubAnimalStore{}, 0, nil, zap.NewNop())

	data, contentType, err := svc.ExportVerifiedRecords(context.Background(), nil, "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)

	body := string(data)
	assert.True(t, strings.HasPrefix(body, "Tag,Breed,Vaccine"))
	assert.Contains(t, body, "COW-001")
	assert.Contains(t, body, "BATCH-42")
}

func TestExportVerifiedRecordsPDF(t *testing.T) {
	record := detailRecord(10, "COW-001", "Holstein", 500000)
	records := &stubProjectionRecords{verified: []models.RecordDetail{record}}
	svc := NewProjectionService(records, &stubAnimalStore{}, 0, nil, zap.NewNop())

	data, contentType, err := svc.ExportVerifiedRecords(context.Background(), nil, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestExportVerifiedRecordsUnknownFormat(t *testing.T) {
	svc := NewProjectionService(&stubProjectionRecords{}, &stubAnimalStore{}, 0, nil, zap.NewNop())

	_, _, err := svc.ExportVerifiedRecords(context.Background(), nil, "xlsx")
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, err))
}

func TestExportRespectsRowBound(t *testing.T) {
	records := &stubProjectionRecords{verified: []models.RecordDetail{
		detailRecord(10, "COW-001", "Holstein", 500000),
		detailRecord(11, "COW-002", "Jersey", 400000),
		detailRecord(12, "COW-003", "Angus", 450000),
	}}
	svc := NewProjectionService(records, &stubAnimalStore{}, 2, nil, zap.NewNop())

	data, _, err := svc.ExportVerifiedRecords(context.Background(), nil, "csv")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 3)
}

package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/farmtrust/livestock-api/internal/dto"
	"github.com/farmtrust/livestock-api/internal/models"
	"github.com/farmtrust/livestock-api/internal/reference"
	appErrors "github.com/farmtrust/livestock-api/pkg/errors"
	"github.com/farmtrust/livestock-api/pkg/export"
)

type recordProjectionStore interface {
	ListByAnimal(ctx context.Context, animalID int64) ([]models.RecordDetail, error)
	ListPendingRequests(ctx context.Context) ([]models.RecordDetail, error)
	ListPendingSignoffs(ctx context.Context) ([]models.RecordDetail, error)
	ListUnverified(ctx context.Context) ([]models.RecordDetail, error)
	ListVerified(ctx context.Context, farmerID *int64) ([]models.RecordDetail, error)
	ListDueForVaccination(ctx context.Context, animalIDs []int64, today time.Time) ([]models.RecordDetail, error)
	CertifiedAnimalIDs(ctx context.Context, animalIDs []int64) (map[int64]bool, error)
}

type projectionAnimalStore interface {
	GetByID(ctx context.Context, id int64) (*models.Animal, error)
	ListByFarmer(ctx context.Context, farmerID int64) ([]models.Animal, error)
	ListActiveByFarmer(ctx context.Context, farmerID int64) ([]models.Animal, error)
}

// ProjectionService assembles the dashboard and work-queue views. Every
// view is computed from the stores on demand; nothing here is cached,
// because certification state and valuations must always reflect the row
// a concurrent sign-off just changed.
type ProjectionService struct {
	records recordProjectionStore
	animals projectionAnimalStore
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	maxRows int
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewProjectionService constructs the service. maxRows bounds export
// sizes; zero disables the bound.
func NewProjectionService(records recordProjectionStore, animals projectionAnimalStore, maxRows int, metrics *MetricsService, logger *zap.Logger) *ProjectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectionService{
		records: records,
		animals: animals,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		maxRows: maxRows,
		metrics: metrics,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// FarmerDashboard returns the farmer's herd with live per-animal
// valuations and the resulting total equity.
func (s *ProjectionService) FarmerDashboard(ctx context.Context, farmerID int64) (*dto.FarmerDashboardResponse, error) {
	start := time.Now()
	animals, err := s.animals.ListByFarmer(ctx, farmerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list animals")
	}
	s.metrics.ObserveDBQuery("farmer_dashboard", time.Since(start))

	ids := make([]int64, len(animals))
	for i, animal := range animals {
		ids[i] = animal.ID
	}
	certified, err := s.records.CertifiedAnimalIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to check certification")
	}

	resp := &dto.FarmerDashboardResponse{
		Animals:     make([]dto.AnimalView, 0, len(animals)),
		AnimalCount: len(animals),
	}
	for i := range animals {
		animal := animals[i]
		valuation := Estimate(animalBasePrice(&animal), certified[animal.ID])
		resp.TotalEquity += valuation.EstimatedValue
		resp.Animals = append(resp.Animals, dto.AnimalView{
			Animal:               animal,
			EstimatedMarketValue: valuation.EstimatedValue,
			IsCertified:          valuation.IsCertified,
		})
	}
	return resp, nil
}

// PendingRequests is the vet queue of open vaccination requests.
func (s *ProjectionService) PendingRequests(ctx context.Context) ([]dto.RecordView, error) {
	start := time.Now()
	records, err := s.records.ListPendingRequests(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list pending requests")
	}
	s.metrics.ObserveDBQuery("pending_requests", time.Since(start))
	return s.recordViews(records), nil
}

// PendingSignoffs lists approved records awaiting verification, each
// annotated with the market-value uplift the sign-off would unlock.
func (s *ProjectionService) PendingSignoffs(ctx context.Context) ([]dto.PendingSignoffView, error) {
	start := time.Now()
	records, err := s.records.ListPendingSignoffs(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list pending signoffs")
	}
	s.metrics.ObserveDBQuery("pending_signoffs", time.Since(start))

	views := make([]dto.PendingSignoffView, 0, len(records))
	for i := range records {
		basePrice := records[i].AnimalBasePrice
		if basePrice <= 0 {
			basePrice = reference.BasePrice(records[i].AnimalBreed)
		}
		views = append(views, dto.PendingSignoffView{
			RecordView:   s.recordView(records[i]),
			UpliftAmount: basePrice * CertifiedUpliftRate,
		})
	}
	return views, nil
}

// PendingTreatments lists every unverified record outside the request
// queue, the vet's catch-all follow-up view.
func (s *ProjectionService) PendingTreatments(ctx context.Context) ([]dto.RecordView, error) {
	start := time.Now()
	records, err := s.records.ListUnverified(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list pending treatments")
	}
	s.metrics.ObserveDBQuery("pending_treatments", time.Since(start))
	return s.recordViews(records), nil
}

// VerifiedRecords lists certified records, farm-scoped when farmerID is
// set and registry-wide for vets otherwise.
func (s *ProjectionService) VerifiedRecords(ctx context.Context, farmerID *int64) ([]dto.RecordView, error) {
	start := time.Now()
	records, err := s.records.ListVerified(ctx, farmerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list verified records")
	}
	s.metrics.ObserveDBQuery("verified_records", time.Since(start))
	return s.recordViews(records), nil
}

// DueForVaccination lists the farmer's verified records whose next due
// date has passed.
func (s *ProjectionService) DueForVaccination(ctx context.Context, farmerID int64) ([]dto.RecordView, error) {
	animals, err := s.animals.ListActiveByFarmer(ctx, farmerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list animals")
	}
	if len(animals) == 0 {
		return []dto.RecordView{}, nil
	}

	ids := make([]int64, len(animals))
	for i, animal := range animals {
		ids[i] = animal.ID
	}
	start := time.Now()
	records, err := s.records.ListDueForVaccination(ctx, ids, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list due records")
	}
	s.metrics.ObserveDBQuery("due_for_vaccination", time.Since(start))
	return s.recordViews(records), nil
}

// AnimalHistory returns an animal's full record timeline, restricted to
// the owning farmer or any vet.
func (s *ProjectionService) AnimalHistory(ctx context.Context, animalID int64, actor *models.JWTClaims) ([]dto.RecordView, error) {
	animal, err := s.animals.GetByID(ctx, animalID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "animal not found")
	}
	if actor.Role == models.RoleFarmer && animal.FarmerID != actor.UserID {
		return nil, appErrors.ErrForbidden
	}

	records, err := s.records.ListByAnimal(ctx, animalID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list records")
	}
	return s.recordViews(records), nil
}

// ExportVerifiedRecords renders the certified-record sheet as CSV or PDF.
func (s *ProjectionService) ExportVerifiedRecords(ctx context.Context, farmerID *int64, format string) ([]byte, string, error) {
	views, err := s.VerifiedRecords(ctx, farmerID)
	if err != nil {
		return nil, "", err
	}
	if s.maxRows > 0 && len(views) > s.maxRows {
		views = views[:s.maxRows]
	}

	dataset := export.Dataset{
		Columns: []string{"Tag", "Breed", "Vaccine", "Date", "Batch", "Dosage", "Withdrawal Ends", "Verified By", "Verified At"},
	}
	for i := range views {
		record := &views[i]
		verifiedAt := ""
		if record.VerifiedAt != nil {
			verifiedAt = record.VerifiedAt.Format(time.RFC3339)
		}
		dataset.Append(
			record.AnimalTag,
			record.AnimalBreed,
			record.VaccinationType,
			dto.FormatDate(record.VaccinationDate),
			stringOrEmpty(record.BatchNumber),
			stringOrEmpty(record.Dosage),
			dto.FormatDate(record.WithdrawalEnd),
			stringOrEmpty(record.VetName),
			verifiedAt,
		)
	}

	switch format {
	case "csv", "":
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
		}
		return data, "text/csv", nil
	case "pdf":
		data, err := s.pdf.Render(dataset, "Vaccination Certificates")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
		}
		return data, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func (s *ProjectionService) recordView(record models.RecordDetail) dto.RecordView {
	return dto.RecordView{
		RecordDetail:            record,
		WithdrawalDaysRemaining: reference.WithdrawalDaysRemaining(record.WithdrawalEnd, s.now()),
	}
}

func (s *ProjectionService) recordViews(records []models.RecordDetail) []dto.RecordView {
	views := make([]dto.RecordView, 0, len(records))
	for i := range records {
		views = append(views, s.recordView(records[i]))
	}
	return views
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package service

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/farmtrust/livestock-api/internal/dto"
	"github.com/farmtrust/livestock-api/internal/models"
	appErrors "github.com/farmtrust/livestock-api/pkg/errors"
	"github.com/farmtrust/livestock-api/pkg/jobs"
	"github.com/farmtrust/livestock-api/pkg/storage"
)

// certificateExporter renders verified records in a downloadable format.
type certificateExporter interface {
	ExportVerifiedRecords(ctx context.Context, farmerID *int64, format string) ([]byte, string, error)
}

// exportJob tracks one asynchronous export. Jobs live in memory only;
// a restart loses the table but archived files are swept by age.
type exportJob struct {
	ID          string
	RequesterID int64
	FarmerID    *int64
	Format      string
	Status      string
	Filename    string
	ContentType string
	Token       string
	RequestedAt time.Time
	CompletedAt *time.Time
	ExpiresAt   *time.Time
}

// ExportOptions tunes the background export pipeline.
type ExportOptions struct {
	Workers  int
	BasePath string
	FileTTL  time.Duration
	Logger   *zap.Logger
}

// ExportService runs certificate exports on a worker queue and serves
// the results through signed download tokens.
type ExportService struct {
	exporter certificateExporter
	archive  *storage.Archive
	signer   *storage.TokenSigner
	queue    *jobs.Queue
	logger   *zap.Logger

	basePath string
	fileTTL  time.Duration

	mu       sync.RWMutex
	jobsByID map[string]*exportJob

	now func() time.Time
}

// NewExportService constructs ExportService.
func NewExportService(exporter certificateExporter, archive *storage.Archive, signer *storage.TokenSigner, opts ExportOptions) *ExportService {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.FileTTL <= 0 {
		opts.FileTTL = 24 * time.Hour
	}
	s := &ExportService{
		exporter: exporter,
		archive:  archive,
		signer:   signer,
		logger:   opts.Logger,
		basePath: opts.BasePath,
		fileTTL:  opts.FileTTL,
		jobsByID: make(map[string]*exportJob),
		now:      time.Now,
	}
	s.queue = jobs.NewQueue("exports", s.process, jobs.Options{
		Workers: opts.Workers,
		Logger:  opts.Logger,
	})
	return s
}

// Start launches the export workers and the archive janitor.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
	go s.janitor(ctx)
}

// Stop drains the export workers.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// Enqueue schedules an export of the actor's verified records. Farmers
// export their own herd, vets the full registry.
func (s *ExportService) Enqueue(ctx context.Context, actor *models.JWTClaims, format string) (dto.ExportJobView, error) {
	switch format {
	case "":
		format = "csv"
	case "csv", "pdf":
	default:
		return dto.ExportJobView{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	job := &exportJob{
		ID:          uuid.NewString(),
		RequesterID: actor.UserID,
		Format:      format,
		Status:      dto.ExportStatusQueued,
		RequestedAt: s.now().UTC(),
	}
	if actor.Role == models.RoleFarmer {
		farmerID := actor.UserID
		job.FarmerID = &farmerID
	}

	s.mu.Lock()
	s.jobsByID[job.ID] = job
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Task{ID: job.ID, Kind: "verified-export"}); err != nil {
		s.mu.Lock()
		delete(s.jobsByID, job.ID)
		s.mu.Unlock()
		return dto.ExportJobView{}, appErrors.Wrap(err, appErrors.ErrTooManyRequests.Code, appErrors.ErrTooManyRequests.Status, "export queue is full, try again later")
	}

	s.logger.Info("export queued",
		zap.String("export_id", job.ID),
		zap.String("format", format),
		zap.Int64("requester_id", actor.UserID))
	return s.view(job), nil
}

// Status returns the job as seen by its requester.
func (s *ExportService) Status(actor *models.JWTClaims, exportID string) (dto.ExportJobView, error) {
	s.mu.RLock()
	job, ok := s.jobsByID[exportID]
	s.mu.RUnlock()
	if !ok || job.RequesterID != actor.UserID {
		return dto.ExportJobView{}, appErrors.Clone(appErrors.ErrNotFound, "export not found")
	}
	return s.view(job), nil
}

// Open validates a download token and returns the archived file.
func (s *ExportService) Open(exportID, token string) (*os.File, string, error) {
	tokenExportID, filename, err := s.signer.Verify(token)
	if err != nil || tokenExportID != exportID {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}

	s.mu.RLock()
	job, ok := s.jobsByID[exportID]
	s.mu.RUnlock()
	if !ok || job.Status != dto.ExportStatusReady || job.Filename != filename {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export not found")
	}

	file, err := s.archive.Open(filename)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "export file unavailable")
	}
	return file, job.ContentType, nil
}

func (s *ExportService) process(ctx context.Context, task jobs.Task) error {
	s.mu.Lock()
	job, ok := s.jobsByID[task.ID]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	job.Status = dto.ExportStatusProcessing
	farmerID := job.FarmerID
	format := job.Format
	s.mu.Unlock()

	data, contentType, err := s.exporter.ExportVerifiedRecords(ctx, farmerID, format)
	if err != nil {
		s.fail(job, err)
		return err
	}

	filename := fmt.Sprintf("%s.%s", job.ID, format)
	if _, err := s.archive.Save(filename, data); err != nil {
		s.fail(job, err)
		return err
	}
	token, expiresAt, err := s.signer.Issue(job.ID, filename)
	if err != nil {
		s.fail(job, err)
		return err
	}

	now := s.now().UTC()
	s.mu.Lock()
	job.Status = dto.ExportStatusReady
	job.Filename = filename
	job.ContentType = contentType
	job.Token = token
	job.CompletedAt = &now
	job.ExpiresAt = &expiresAt
	s.mu.Unlock()

	s.logger.Info("export ready",
		zap.String("export_id", job.ID),
		zap.String("file", filename))
	return nil
}

func (s *ExportService) fail(job *exportJob, err error) {
	s.mu.Lock()
	job.Status = dto.ExportStatusFailed
	s.mu.Unlock()
	s.logger.Error("export failed",
		zap.String("export_id", job.ID),
		zap.Error(err))
}

// janitor sweeps aged files and forgets jobs whose tokens expired.
func (s *ExportService) janitor(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed, err := s.archive.Sweep(s.fileTTL); err != nil {
				s.logger.Warn("archive sweep failed", zap.Error(err))
			} else if removed > 0 {
				s.logger.Info("archive swept", zap.Int("removed", removed))
			}
			cutoff := s.now()
			s.mu.Lock()
			for id, job := range s.jobsByID {
				if job.ExpiresAt != nil && job.ExpiresAt.Before(cutoff) {
					delete(s.jobsByID, id)
				}
			}
			s.mu.Unlock()
		}
	}
}

func (s *ExportService) view(job *exportJob) dto.ExportJobView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	view := dto.ExportJobView{
		ID:          job.ID,
		Status:      job.Status,
		Format:      job.Format,
		RequestedAt: job.RequestedAt,
		CompletedAt: job.CompletedAt,
		ExpiresAt:   job.ExpiresAt,
	}
	if job.Status == dto.ExportStatusReady {
		view.DownloadURL = fmt.Sprintf("%s/exports/%s/download?token=%s", s.basePath, job.ID, job.Token)
	}
	return view
}

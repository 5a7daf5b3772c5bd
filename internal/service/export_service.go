package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/juliasaboya/ScheduleEngine/internal/dto"
	"github.com/juliasaboya/ScheduleEngine/internal/models"
	"github.com/juliasaboya/ScheduleEngine/internal/repository"
	appErrors "github.com/juliasaboya/ScheduleEngine/pkg/errors"
	"github.com/juliasaboya/ScheduleEngine/pkg/export"
	"github.com/juliasaboya/ScheduleEngine/pkg/jobs"
	"github.com/juliasaboya/ScheduleEngine/pkg/storage"
	"github.com/juliasaboya/ScheduleEngine/pkg/telemetry"
)

// ExportJobKind identifies export jobs on the worker queue.
const ExportJobKind = "plan_export"

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error)
}

type proposalLoader interface {
	LoadProposal(ctx context.Context, id string) (*models.WeeklyProposal, map[uuid.UUID]string, error)
}

type jobDispatcher interface {
	Enqueue(ctx context.Context, job jobs.Job) error
}

type renderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	ContentType() string
	Extension() string
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
}

// ExportDownload is a rendered export ready to stream.
type ExportDownload struct {
	Data        []byte
	Filename    string
	ContentType string
	ExpiresAt   time.Time
}

// ExportService records export requests and serves their results.
type ExportService struct {
	repo      exportJobStore
	proposals proposalLoader
	queue     jobDispatcher
	store     storage.ObjectStore
	signer    *storage.SignedURLSigner
	renderers map[models.ExportFormat]renderer
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(
	repo exportJobStore,
	proposals proposalLoader,
	queue jobDispatcher,
	store storage.ObjectStore,
	signer *storage.SignedURLSigner,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ExportConfig,
) *ExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.APIPrefix = strings.TrimRight(cfg.APIPrefix, "/")
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	return &ExportService{
		repo:      repo,
		proposals: proposals,
		queue:     queue,
		store:     store,
		signer:    signer,
		renderers: defaultRenderers(),
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// CreateJob persists an export request for a proposal and enqueues it.
func (s *ExportService) CreateJob(ctx context.Context, proposalID string, req dto.ExportRequest, actorID string) (*dto.ExportJobResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid export payload")
	}
	proposal, _, err := s.proposals.LoadProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}

	job := &models.ExportJob{
		ID:         uuid.NewString(),
		ProposalID: proposal.ID,
		Params: models.ExportParams{
			Format:   models.ExportFormat(req.Format),
			Timezone: proposal.Timezone,
			Title:    strings.TrimSpace(req.Title),
		},
		Status:    models.ExportStatusQueued,
		CreatedBy: actorID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}
	if err := s.queue.Enqueue(ctx, exportQueueJob(job)); err != nil {
		status := models.ExportStatusFailed
		msg := "failed to enqueue job"
		now := time.Now().UTC()
		progress := 100
		_ = s.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
			Status:       &status,
			Progress:     &progress,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		})
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	return s.view(job), nil
}

// GetStatus reports job progress and, once finished, a signed download URL.
func (s *ExportService) GetStatus(ctx context.Context, id string) (*dto.ExportJobResponse, error) {
	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(job), nil
}

// ResolveDownload validates token and loads the stored export.
func (s *ExportService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	grant, err := s.signer.Verify(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.load(ctx, grant.JobID)
	if err != nil {
		return nil, err
	}
	if job.Status != models.ExportStatusFinished || job.ObjectKey == nil || *job.ObjectKey != grant.ObjectKey {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not ready")
	}
	data, err := s.store.Get(ctx, grant.ObjectKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export file no longer available")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read export file")
	}
	contentType := "application/octet-stream"
	if r, ok := s.renderers[job.Params.Format]; ok {
		contentType = r.ContentType()
	}
	return &ExportDownload{
		Data:        data,
		Filename:    path.Base(grant.ObjectKey),
		ContentType: contentType,
		ExpiresAt:   grant.ExpiresAt,
	}, nil
}

// RecoverPendingJobs replays queued jobs (e.g. after process restart).
func (s *ExportService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.repo.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Warn("failed to recover queued export jobs", zap.Error(err))
		return
	}
	for i := range pending {
		if err := s.queue.Enqueue(ctx, exportQueueJob(&pending[i])); err != nil {
			s.logger.Warn("failed to requeue pending job", zap.String("job_id", pending[i].ID), zap.Error(err))
		}
	}
}

func (s *ExportService) load(ctx context.Context, id string) (*models.ExportJob, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	return job, nil
}

func (s *ExportService) view(job *models.ExportJob) *dto.ExportJobResponse {
	resp := &dto.ExportJobResponse{
		JobID:      job.ID,
		ProposalID: job.ProposalID,
		Status:     string(job.Status),
		Progress:   job.Progress,
		FinishedAt: job.FinishedAt,
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	if job.Status == models.ExportStatusFinished && job.ObjectKey != nil {
		token, _, err := s.signer.Sign(job.ID, *job.ObjectKey)
		if err != nil {
			s.logger.Warn("failed to sign download url", zap.String("job_id", job.ID), zap.Error(err))
			return resp
		}
		url := fmt.Sprintf("%s/exports/download/%s", s.cfg.APIPrefix, token)
		resp.DownloadURL = &url
	}
	return resp
}

func exportQueueJob(job *models.ExportJob) jobs.Job {
	return jobs.Job{ID: job.ID, Kind: ExportJobKind, Payload: job.Params.Format}
}

func defaultRenderers() map[models.ExportFormat]renderer {
	return map[models.ExportFormat]renderer{
		models.ExportFormatCSV: export.NewCSVExporter(),
		models.ExportFormatPDF: export.NewPDFExporter(),
	}
}

// ExportWorker renders queued export jobs.
type ExportWorker struct {
	repo      exportJobStore
	proposals proposalLoader
	store     storage.ObjectStore
	renderers map[models.ExportFormat]renderer
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewExportWorker constructs a worker with the CSV and PDF renderers.
func NewExportWorker(repo exportJobStore, proposals proposalLoader, store storage.ObjectStore, metrics *MetricsService, logger *zap.Logger) *ExportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportWorker{
		repo:      repo,
		proposals: proposals,
		store:     store,
		renderers: defaultRenderers(),
		metrics:   metrics,
		logger:    logger,
	}
}

// Handle processes a queue job. A returned error lets the queue retry it.
func (w *ExportWorker) Handle(ctx context.Context, job jobs.Job) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "exports.Render",
		attribute.String("job_id", job.ID),
		attribute.Int("attempt", job.Attempt),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	processing := models.ExportStatusProcessing
	progress := 10
	if err := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:   &processing,
		Progress: &progress,
	}); err != nil {
		return err
	}

	key, err := w.render(ctx, record)
	if err != nil {
		queued := models.ExportStatusQueued
		reset := 0
		msg := err.Error()
		if updateErr := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
			Status:       &queued,
			Progress:     &reset,
			ErrorMessage: &msg,
		}); updateErr != nil {
			w.logger.Warn("failed to mark job queued", zap.String("job_id", job.ID), zap.Error(updateErr))
		}
		return err
	}

	finished := models.ExportStatusFinished
	progress = 100
	now := time.Now().UTC()
	cleared := ""
	if err := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:       &finished,
		Progress:     &progress,
		ObjectKey:    &key,
		ErrorMessage: &cleared,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Warn("failed to mark job finished", zap.String("job_id", job.ID), zap.Error(err))
		return err
	}
	w.metrics.RecordExport(string(record.Params.Format), string(finished))
	return nil
}

// Fail marks a job whose retries are exhausted.
func (w *ExportWorker) Fail(ctx context.Context, job jobs.Job, cause error) {
	failed := models.ExportStatusFailed
	progress := 100
	now := time.Now().UTC()
	msg := cause.Error()
	if err := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:       &failed,
		Progress:     &progress,
		ErrorMessage: &msg,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Warn("failed to mark job failed", zap.String("job_id", job.ID), zap.Error(err))
	}
	format, _ := job.Payload.(models.ExportFormat)
	w.metrics.RecordExport(string(format), string(failed))
}

func (w *ExportWorker) render(ctx context.Context, record *models.ExportJob) (string, error) {
	r, ok := w.renderers[record.Params.Format]
	if !ok {
		return "", fmt.Errorf("unsupported format %s", record.Params.Format)
	}
	proposal, names, err := w.proposals.LoadProposal(ctx, record.ProposalID)
	if err != nil {
		return "", err
	}

	dataset := export.WeeklyPlanDataset(export.WeekView{
		Days:     proposal.Days,
		Slots:    proposal.Slots,
		Names:    names,
		Location: proposal.Location(),
	})
	title := record.Params.Title
	if title == "" {
		title = weeklyTitle(proposal)
	}
	payload, err := r.Render(dataset, title)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("exports/%s/%s.%s", record.ProposalID, record.ID, r.Extension())
	if err := w.store.Put(ctx, key, payload); err != nil {
		return "", err
	}
	return key, nil
}

func weeklyTitle(p *models.WeeklyProposal) string {
	days := p.Days.Days()
	if len(days) == 0 {
		return "Weekly plan"
	}
	return fmt.Sprintf("Weekly plan %s to %s", days[0], days[len(days)-1])
}

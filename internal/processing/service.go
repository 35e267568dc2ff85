package processing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/runningls/internal/lightcurve"
	"github.com/RMahshie/runningls/internal/render"
	"github.com/RMahshie/runningls/internal/repository"
	"github.com/RMahshie/runningls/internal/storage"
	"github.com/RMahshie/runningls/pkg/models"
	"github.com/RMahshie/runningls/pkg/periodogram"
)

// Progress checkpoints reported while a job runs. The engine reports inside
// [computeStart, computeEnd].
const (
	progressStarted    = 5
	progressDownloaded = 15
	computeStart       = 20
	computeEnd         = 80
	progressRendered   = 85
	progressUploaded   = 90
	progressStored     = 95
)

type ProcessingService interface {
	ProcessPeriodogram(ctx context.Context, id uuid.UUID) error
}

// Settings are the server-wide defaults for jobs.
type Settings struct {
	Defaults periodogram.Options
	Colormap string
}

type processingService struct {
	s3         storage.S3Service
	repository repository.PeriodogramRepository
	settings   Settings
}

func NewProcessingService(s3Service storage.S3Service, repo repository.PeriodogramRepository, settings Settings) ProcessingService {
	return &processingService{
		s3:         s3Service,
		repository: repo,
		settings:   settings,
	}
}

// ProcessPeriodogram runs a job end to end. Problems with the uploaded data
// mark the job failed and return nil; infrastructure errors are returned.
func (s *processingService) ProcessPeriodogram(ctx context.Context, id uuid.UUID) error {
	logger := log.With().Str("periodogramID", id.String()).Logger()

	// Step 1: Load the job
	job, err := s.repository.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repository.UpdateStatus(ctx, id, models.StatusProcessing, progressStarted); err != nil {
		return err
	}

	// Step 2: Download and parse the light curve
	if job.InputS3Key == nil {
		return s.fail(ctx, id, "No light curve was uploaded")
	}
	data, err := s.s3.DownloadFile(ctx, *job.InputS3Key)
	if err != nil {
		logger.Warn().Err(err).Str("key", *job.InputS3Key).Msg("Light curve download failed")
		return s.fail(ctx, id, "Failed to download light curve")
	}
	lc, err := lightcurve.Read(bytes.NewReader(data), lightcurve.DefaultOptions())
	if err != nil {
		return s.fail(ctx, id, fmt.Sprintf("Failed to parse light curve: %v", err))
	}
	if err := s.repository.UpdateStatus(ctx, id, models.StatusProcessing, progressDownloaded); err != nil {
		return err
	}

	// Step 3: Compute
	opts, err := job.Options.Apply(s.settings.Defaults)
	if err != nil {
		return s.fail(ctx, id, fmt.Sprintf("Invalid options: %v", err))
	}
	opts.Progress = newRepoProgress(ctx, s.repository, id, logger)
	opts.Logger = &logger

	logger.Info().Int("samples", lc.Len()).Float64("segment_length", opts.SegmentLength).Msg("Computing periodogram")
	res, err := periodogram.Compute(ctx, lc, opts)
	if errors.Is(err, periodogram.ErrInvalidInput) {
		return s.fail(ctx, id, err.Error())
	}
	if err != nil {
		return fmt.Errorf("compute periodogram: %w", err)
	}
	if len(res.Failures) > 0 {
		logger.Warn().Int("failed_windows", len(res.Failures)).Int("windows", len(res.Windows)).Msg("Some windows were left empty")
	}

	// Step 4: Render and upload the image
	cfg := render.DefaultConfig()
	cfg.Colormap = s.settings.Colormap
	if job.Options.Colormap != "" {
		cfg.Colormap = job.Options.Colormap
	}
	var img bytes.Buffer
	if err := render.Render(&img, res, cfg); err != nil {
		return s.fail(ctx, id, fmt.Sprintf("Failed to render image: %v", err))
	}
	if err := s.repository.UpdateStatus(ctx, id, models.StatusProcessing, progressRendered); err != nil {
		return err
	}

	imageKey := fmt.Sprintf("images/%s.png", id)
	if err := s.s3.UploadFile(ctx, imageKey, img.Bytes(), "image/png"); err != nil {
		return err
	}
	if err := s.repository.SetImageKey(ctx, id, imageKey); err != nil {
		return err
	}
	if err := s.repository.UpdateStatus(ctx, id, models.StatusProcessing, progressUploaded); err != nil {
		return err
	}

	// Step 5: Store results
	results := &models.PeriodogramResults{
		ID:              uuid.New().String(),
		PeriodogramID:   job.ID,
		PeriodogramData: models.NewPeriodogramData(res),
	}
	if err := s.repository.StoreResults(ctx, results); err != nil {
		return err
	}
	if err := s.repository.UpdateStatus(ctx, id, models.StatusProcessing, progressStored); err != nil {
		return err
	}

	// Step 6: Mark complete
	if err := s.repository.UpdateStatus(ctx, id, models.StatusCompleted, 100); err != nil {
		return err
	}
	logger.Info().Int("windows", len(res.Windows)).Int("frequencies", len(res.Frequencies)).Msg("Periodogram completed")
	return nil
}

func (s *processingService) fail(ctx context.Context, id uuid.UUID, msg string) error {
	log.Warn().Str("periodogramID", id.String()).Str("reason", msg).Msg("Periodogram failed")
	if err := s.repository.UpdateError(ctx, id, msg); err != nil {
		return err
	}
	return nil
}

// repoProgress maps engine progress onto the job's progress column. Workers
// call Advance concurrently; only changes of a whole percent hit the database.
type repoProgress struct {
	ctx    context.Context
	repo   repository.PeriodogramRepository
	id     uuid.UUID
	logger zerolog.Logger

	total int
	done  atomic.Int64

	mu       sync.Mutex
	reported int
}

func newRepoProgress(ctx context.Context, repo repository.PeriodogramRepository, id uuid.UUID, logger zerolog.Logger) *repoProgress {
	return &repoProgress{ctx: ctx, repo: repo, id: id, logger: logger, reported: -1}
}

func (p *repoProgress) Start(total int) {
	p.total = total
	p.report(computeStart)
}

func (p *repoProgress) Advance(int) {
	if p.total == 0 {
		return
	}
	done := p.done.Add(1)
	p.report(computeStart + int(done)*(computeEnd-computeStart)/p.total)
}

func (p *repoProgress) Finish() {
	p.report(computeEnd)
}

func (p *repoProgress) report(percent int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if percent <= p.reported {
		return
	}
	p.reported = percent
	if err := p.repo.UpdateStatus(p.ctx, p.id, models.StatusProcessing, percent); err != nil {
		p.logger.Warn().Err(err).Int("progress", percent).Msg("Failed to record progress")
	}
}

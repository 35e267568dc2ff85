package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/runningls/internal/processing"
	"github.com/RMahshie/runningls/internal/render"
	"github.com/RMahshie/runningls/internal/repository"
	"github.com/RMahshie/runningls/internal/storage"
	"github.com/RMahshie/runningls/pkg/models"
	"github.com/RMahshie/runningls/pkg/periodogram"
)

const uploadExpiry = 15 * time.Minute

// PeriodogramHandler handles periodogram-related HTTP requests
type PeriodogramHandler struct {
	repo            repository.PeriodogramRepository
	s3Service       storage.S3Service
	processingSvc   processing.ProcessingService
	defaults        periodogram.Options
	maxInlinePoints int
}

// NewPeriodogramHandler creates a new periodogram handler
func NewPeriodogramHandler(repo repository.PeriodogramRepository, s3Service storage.S3Service, processingSvc processing.ProcessingService, defaults periodogram.Options, maxInlinePoints int) *PeriodogramHandler {
	return &PeriodogramHandler{
		repo:            repo,
		s3Service:       s3Service,
		processingSvc:   processingSvc,
		defaults:        defaults,
		maxInlinePoints: maxInlinePoints,
	}
}

// CreatePeriodogram creates a job and returns an upload URL for its light curve
func (h *PeriodogramHandler) CreatePeriodogram(ctx context.Context, req *models.CreatePeriodogramRequest) (*models.CreatePeriodogramResponse, error) {
	log.Info().Int64("fileSize", req.Body.FileSize).Str("mimeType", req.Body.MimeType).Msg("Creating new periodogram job")

	var options models.PeriodogramOptions
	if req.Body.Options != nil {
		options = *req.Body.Options
	}
	if _, err := options.Apply(h.defaults); err != nil {
		return nil, huma.Error400BadRequest("Invalid periodogram options", err)
	}
	if options.Colormap != "" {
		if _, err := render.Colormap(options.Colormap); err != nil {
			return nil, huma.Error400BadRequest("Invalid periodogram options", err)
		}
	}

	id := uuid.New()
	inputKey := fmt.Sprintf("lightcurves/%s.csv", id)

	uploadURL, err := h.s3Service.GenerateUploadURL(ctx, inputKey, req.Body.MimeType)
	if err != nil {
		if strings.Contains(err.Error(), "invalid content type") {
			return nil, huma.Error400BadRequest("Light curve format not supported", err)
		}
		return nil, huma.Error500InternalServerError("Failed to prepare upload", err)
	}

	job := &models.Periodogram{
		ID:         id.String(),
		SessionID:  req.Body.SessionID,
		Status:     models.StatusPending,
		InputS3Key: &inputKey,
		Options:    options,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if err := h.repo.Create(ctx, job); err != nil {
		return nil, huma.Error500InternalServerError("Failed to create periodogram", err)
	}

	log.Info().Str("periodogramID", job.ID).Str("sessionID", job.SessionID).Msg("Periodogram job created")
	return &models.CreatePeriodogramResponse{
		Body: models.CreatePeriodogramResponseBody{
			ID:        job.ID,
			UploadURL: uploadURL,
			ExpiresIn: int(uploadExpiry.Seconds()),
		},
	}, nil
}

// GetPeriodogramStatus returns the current status of a job
func (h *PeriodogramHandler) GetPeriodogramStatus(ctx context.Context, req *models.PeriodogramIDRequest) (*models.GetPeriodogramStatusResponse, error) {
	job, err := h.lookup(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	id := uuid.MustParse(job.ID)

	var resultsID *string
	if job.Status == models.StatusCompleted {
		if results, err := h.repo.GetResults(ctx, id); err == nil && results != nil {
			resultsID = &results.ID
		}
	}

	message := statusMessage(job.Status, job.Progress)
	if job.Status == models.StatusFailed && job.ErrorMsg != nil {
		message = *job.ErrorMsg
	}

	return &models.GetPeriodogramStatusResponse{
		Body: models.GetPeriodogramStatusResponseBody{
			ID:        job.ID,
			Status:    job.Status,
			Progress:  job.Progress,
			Message:   message,
			ResultsID: resultsID,
		},
	}, nil
}

// GetPeriodogramResults returns the computed periodogram of a completed job
func (h *PeriodogramHandler) GetPeriodogramResults(ctx context.Context, req *models.PeriodogramIDRequest) (*models.GetPeriodogramResultsResponse, error) {
	job, err := h.lookup(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if job.Status != models.StatusCompleted {
		return nil, huma.Error409Conflict("Periodogram not yet completed",
			fmt.Errorf("periodogram status is %s", job.Status))
	}

	results, err := h.repo.GetResults(ctx, uuid.MustParse(job.ID))
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to get results", err)
	}

	var imageURL string
	if job.ImageS3Key != nil {
		imageURL, err = h.s3Service.GenerateDownloadURL(ctx, *job.ImageS3Key)
		if err != nil {
			log.Warn().Err(err).Str("periodogramID", job.ID).Msg("Failed to sign image URL")
		}
	}

	return &models.GetPeriodogramResultsResponse{
		Body: models.GetPeriodogramResultsResponseBody{
			ID:              results.ID,
			PeriodogramID:   job.ID,
			PeriodogramData: results.PeriodogramData,
			ImageURL:        imageURL,
			CreatedAt:       results.CreatedAt,
		},
	}, nil
}

// StartProcessing starts processing an uploaded light curve in the background
func (h *PeriodogramHandler) StartProcessing(ctx context.Context, req *models.StartProcessingRequest) (*models.StartProcessingResponse, error) {
	job, err := h.lookup(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if job.Status == models.StatusProcessing || job.Status == models.StatusCompleted {
		return nil, huma.Error409Conflict("Periodogram already " + job.Status)
	}
	id := uuid.MustParse(job.ID)

	if err := h.repo.ClaimForProcessing(ctx, id); err != nil {
		if errors.Is(err, repository.ErrAlreadyClaimed) {
			return nil, huma.Error409Conflict("Periodogram already started", err)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, huma.Error404NotFound("Periodogram not found", err)
		}
		return nil, huma.Error500InternalServerError("Failed to start processing", err)
	}

	log.Info().Str("periodogramID", job.ID).Msg("Starting background processing goroutine")
	go h.process(id)

	resp := &models.StartProcessingResponse{}
	resp.Body.Message = "Processing started successfully"
	return resp, nil
}

// ComputePeriodogram runs a periodogram synchronously on an inline light curve
func (h *PeriodogramHandler) ComputePeriodogram(ctx context.Context, req *models.ComputePeriodogramRequest) (*models.ComputePeriodogramResponse, error) {
	if n := len(req.Body.Time); h.maxInlinePoints > 0 && n > h.maxInlinePoints {
		return nil, huma.NewError(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("Light curve has %d samples; upload files larger than %d samples instead", n, h.maxInlinePoints))
	}

	var options models.PeriodogramOptions
	if req.Body.Options != nil {
		options = *req.Body.Options
	}
	opts, err := options.Apply(h.defaults)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid periodogram options", err)
	}

	lc := periodogram.LightCurve{Time: req.Body.Time, Flux: req.Body.Flux}
	res, err := periodogram.Compute(ctx, lc, opts)
	if errors.Is(err, periodogram.ErrInvalidInput) {
		return nil, huma.Error422UnprocessableEntity(err.Error(), err)
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to compute periodogram", err)
	}

	log.Info().Int("samples", lc.Len()).Int("windows", len(res.Windows)).Int("failed_windows", len(res.Failures)).Msg("Computed inline periodogram")
	return &models.ComputePeriodogramResponse{Body: models.NewPeriodogramData(res)}, nil
}

// process runs a claimed job. Panics are recovered and recorded on the job.
func (h *PeriodogramHandler) process(id uuid.UUID) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("periodogramID", id.String()).Msg("Processing panicked")
			_ = h.repo.UpdateError(context.Background(), id, fmt.Sprintf("Processing failed: %v", r))
		}
	}()

	if err := h.processingSvc.ProcessPeriodogram(context.Background(), id); err != nil {
		log.Error().Err(err).Str("periodogramID", id.String()).Msg("Processing failed")
		_ = h.repo.UpdateError(context.Background(), id, fmt.Sprintf("Processing failed: %v", err))
	}
}

func (h *PeriodogramHandler) lookup(ctx context.Context, rawID string) (*models.Periodogram, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid periodogram ID", err)
	}
	job, err := h.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, huma.Error404NotFound("Periodogram not found", err)
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to load periodogram", err)
	}
	return job, nil
}

// statusMessage creates a human-readable status message
func statusMessage(status string, progress int) string {
	switch status {
	case models.StatusPending:
		return "Waiting for the light curve upload..."
	case models.StatusProcessing:
		switch {
		case progress < 20:
			return "Reading light curve..."
		case progress < 80:
			return "Computing periodogram..."
		default:
			return "Rendering and storing results..."
		}
	case models.StatusCompleted:
		return "Periodogram complete!"
	case models.StatusFailed:
		return "Periodogram failed. Please check the light curve and try again."
	default:
		return "Unknown status"
	}
}

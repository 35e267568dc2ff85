package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/RMahshie/runningls/pkg/models"
)

// ErrNotFound is returned when no row matches the requested ID
var ErrNotFound = errors.New("not found")

// ErrAlreadyClaimed is returned when a job is already processing or completed
var ErrAlreadyClaimed = errors.New("already processing or completed")

// PeriodogramRepository defines the interface for periodogram job data operations
type PeriodogramRepository interface {
	Create(ctx context.Context, p *models.Periodogram) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Periodogram, error)
	GetBySessionID(ctx context.Context, sessionID string) ([]*models.Periodogram, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, progress int) error
	// ClaimForProcessing moves a pending or failed job to processing. Exactly
	// one of several concurrent callers succeeds.
	ClaimForProcessing(ctx context.Context, id uuid.UUID) error
	UpdateError(ctx context.Context, id uuid.UUID, errorMsg string) error
	SetImageKey(ctx context.Context, id uuid.UUID, key string) error
	StoreResults(ctx context.Context, results *models.PeriodogramResults) error
	GetResults(ctx context.Context, periodogramID uuid.UUID) (*models.PeriodogramResults, error)
}

// Package mocks holds testify mocks of the service interfaces.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/RMahshie/runningls/pkg/models"
)

// PeriodogramRepository implements repository.PeriodogramRepository for testing
type PeriodogramRepository struct {
	mock.Mock
}

func (m *PeriodogramRepository) Create(ctx context.Context, p *models.Periodogram) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *PeriodogramRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Periodogram, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*models.Periodogram)
	return p, args.Error(1)
}

func (m *PeriodogramRepository) GetBySessionID(ctx context.Context, sessionID string) ([]*models.Periodogram, error) {
	args := m.Called(ctx, sessionID)
	ps, _ := args.Get(0).([]*models.Periodogram)
	return ps, args.Error(1)
}

func (m *PeriodogramRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, progress int) error {
	args := m.Called(ctx, id, status, progress)
	return args.Error(0)
}

func (m *PeriodogramRepository) ClaimForProcessing(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *PeriodogramRepository) UpdateError(ctx context.Context, id uuid.UUID, errorMsg string) error {
	args := m.Called(ctx, id, errorMsg)
	return args.Error(0)
}

func (m *PeriodogramRepository) SetImageKey(ctx context.Context, id uuid.UUID, key string) error {
	args := m.Called(ctx, id, key)
	return args.Error(0)
}

func (m *PeriodogramRepository) StoreResults(ctx context.Context, results *models.PeriodogramResults) error {
	args := m.Called(ctx, results)
	return args.Error(0)
}

func (m *PeriodogramRepository) GetResults(ctx context.Context, periodogramID uuid.UUID) (*models.PeriodogramResults, error) {
	args := m.Called(ctx, periodogramID)
	r, _ := args.Get(0).(*models.PeriodogramResults)
	return r, args.Error(1)
}

// S3Service implements storage.S3Service for testing
type S3Service struct {
	mock.Mock
}

func (m *S3Service) GenerateUploadURL(ctx context.Context, key string, contentType string) (string, error) {
	args := m.Called(ctx, key, contentType)
	return args.String(0), args.Error(1)
}

func (m *S3Service) GenerateDownloadURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *S3Service) UploadFile(ctx context.Context, key string, data []byte, contentType string) error {
	args := m.Called(ctx, key, data, contentType)
	return args.Error(0)
}

func (m *S3Service) DownloadFile(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

func (m *S3Service) DeleteFile(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// ProcessingService implements processing.ProcessingService for testing
type ProcessingService struct {
	mock.Mock
}

func (m *ProcessingService) ProcessPeriodogram(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

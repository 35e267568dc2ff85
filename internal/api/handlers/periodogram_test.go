package handlers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/RMahshie/runningls/internal/mocks"
	"github.com/RMahshie/runningls/internal/repository"
	"github.com/RMahshie/runningls/pkg/models"
	"github.com/RMahshie/runningls/pkg/periodogram"
)

func newTestHandler() (*PeriodogramHandler, *mocks.PeriodogramRepository, *mocks.S3Service, *mocks.ProcessingService) {
	repo := &mocks.PeriodogramRepository{}
	s3 := &mocks.S3Service{}
	proc := &mocks.ProcessingService{}
	opts := periodogram.DefaultOptions()
	opts.Unit = periodogram.PerDay
	return NewPeriodogramHandler(repo, s3, proc, opts, 5000), repo, s3, proc
}

func assertStatus(t *testing.T, err error, status int) {
	t.Helper()
	var se huma.StatusError
	require.True(t, errors.As(err, &se), "expected a huma status error, got %v", err)
	assert.Equal(t, status, se.GetStatus())
}

func ptr[T any](v T) *T { return &v }

func TestCreatePeriodogram(t *testing.T) {
	tests := []struct {
		name       string
		mimeType   string
		options    *models.PeriodogramOptions
		uploadErr  error
		createErr  error
		wantStatus int
	}{
		{name: "csv upload", mimeType: "text/csv"},
		{name: "with options", mimeType: "text/plain", options: &models.PeriodogramOptions{SegmentLength: ptr(2.0), FrequencyUnit: "1/d", Colormap: "YlOrRd_r"}},
		{name: "invalid options", mimeType: "text/csv", options: &models.PeriodogramOptions{StepSize: ptr(-1.0)}, wantStatus: http.StatusBadRequest},
		{name: "unknown unit", mimeType: "text/csv", options: &models.PeriodogramOptions{FrequencyUnit: "furlongs"}, wantStatus: http.StatusBadRequest},
		{name: "unknown colormap", mimeType: "text/csv", options: &models.PeriodogramOptions{Colormap: "nope"}, wantStatus: http.StatusBadRequest},
		{name: "bad content type", mimeType: "text/csv", uploadErr: fmt.Errorf("invalid content type: video/mp4"), wantStatus: http.StatusBadRequest},
		{name: "storage down", mimeType: "text/csv", uploadErr: fmt.Errorf("connection refused"), wantStatus: http.StatusInternalServerError},
		{name: "database down", mimeType: "text/csv", createErr: fmt.Errorf("connection refused"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, repo, s3, _ := newTestHandler()
			s3.On("GenerateUploadURL", mock.Anything, mock.MatchedBy(func(key string) bool {
				return strings.HasPrefix(key, "lightcurves/") && strings.HasSuffix(key, ".csv")
			}), tt.mimeType).Return("https://example.com/upload", tt.uploadErr).Maybe()
			repo.On("Create", mock.Anything, mock.AnythingOfType("*models.Periodogram")).Return(tt.createErr).Maybe()

			req := &models.CreatePeriodogramRequest{}
			req.Body.SessionID = "session-12345"
			req.Body.FileSize = 1024
			req.Body.MimeType = tt.mimeType
			req.Body.Options = tt.options

			resp, err := h.CreatePeriodogram(context.Background(), req)
			if tt.wantStatus != 0 {
				assertStatus(t, err, tt.wantStatus)
				assert.Nil(t, resp)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "https://example.com/upload", resp.Body.UploadURL)
			assert.Equal(t, 900, resp.Body.ExpiresIn)
			_, err = uuid.Parse(resp.Body.ID)
			assert.NoError(t, err)

			created := repo.Calls[0].Arguments.Get(1).(*models.Periodogram)
			assert.Equal(t, resp.Body.ID, created.ID)
			assert.Equal(t, models.StatusPending, created.Status)
			assert.Equal(t, "lightcurves/"+resp.Body.ID+".csv", *created.InputS3Key)
			if tt.options != nil {
				assert.Equal(t, *tt.options, created.Options)
			}
		})
	}
}

func TestGetPeriodogramStatus(t *testing.T) {
	id := uuid.New()
	failMsg := "Failed to parse light curve: line 3: non-numeric value"

	tests := []struct {
		name        string
		rawID       string
		job         *models.Periodogram
		repoErr     error
		wantStatus  int
		wantMessage string
		wantResults bool
	}{
		{name: "pending", rawID: id.String(), job: &models.Periodogram{ID: id.String(), Status: models.StatusPending}, wantMessage: "Waiting for the light curve upload..."},
		{name: "computing", rawID: id.String(), job: &models.Periodogram{ID: id.String(), Status: models.StatusProcessing, Progress: 50}, wantMessage: "Computing periodogram..."},
		{name: "rendering", rawID: id.String(), job: &models.Periodogram{ID: id.String(), Status: models.StatusProcessing, Progress: 90}, wantMessage: "Rendering and storing results..."},
		{name: "completed", rawID: id.String(), job: &models.Periodogram{ID: id.String(), Status: models.StatusCompleted, Progress: 100}, wantMessage: "Periodogram complete!", wantResults: true},
		{name: "failed", rawID: id.String(), job: &models.Periodogram{ID: id.String(), Status: models.StatusFailed, ErrorMsg: &failMsg}, wantMessage: failMsg},
		{name: "invalid id", rawID: "not-a-uuid", wantStatus: http.StatusBadRequest},
		{name: "missing", rawID: id.String(), repoErr: fmt.Errorf("get periodogram: %w", repository.ErrNotFound), wantStatus: http.StatusNotFound},
		{name: "database down", rawID: id.String(), repoErr: fmt.Errorf("connection refused"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, repo, _, _ := newTestHandler()
			repo.On("GetByID", mock.Anything, id).Return(tt.job, tt.repoErr).Maybe()
			repo.On("GetResults", mock.Anything, id).Return(&models.PeriodogramResults{ID: "results-1"}, nil).Maybe()

			resp, err := h.GetPeriodogramStatus(context.Background(), &models.PeriodogramIDRequest{ID: tt.rawID})
			if tt.wantStatus != 0 {
				assertStatus(t, err, tt.wantStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.job.Status, resp.Body.Status)
			assert.Equal(t, tt.wantMessage, resp.Body.Message)
			if tt.wantResults {
				require.NotNil(t, resp.Body.ResultsID)
				assert.Equal(t, "results-1", *resp.Body.ResultsID)
			} else {
				assert.Nil(t, resp.Body.ResultsID)
			}
		})
	}
}

func TestGetPeriodogramResults(t *testing.T) {
	id := uuid.New()
	imageKey := "images/" + id.String() + ".png"
	stored := &models.PeriodogramResults{
		ID:            "results-1",
		PeriodogramID: id.String(),
		PeriodogramData: models.PeriodogramData{
			Frequencies: []float64{1, 2},
			Matrix:      [][]float64{{0.5, 0.25}},
			Unit:        "1/d",
		},
		CreatedAt: time.Now(),
	}

	t.Run("completed", func(t *testing.T) {
		h, repo, s3, _ := newTestHandler()
		repo.On("GetByID", mock.Anything, id).Return(&models.Periodogram{ID: id.String(), Status: models.StatusCompleted, ImageS3Key: &imageKey}, nil)
		repo.On("GetResults", mock.Anything, id).Return(stored, nil)
		s3.On("GenerateDownloadURL", mock.Anything, imageKey).Return("https://example.com/image.png", nil)

		resp, err := h.GetPeriodogramResults(context.Background(), &models.PeriodogramIDRequest{ID: id.String()})
		require.NoError(t, err)
		assert.Equal(t, "results-1", resp.Body.ID)
		assert.Equal(t, id.String(), resp.Body.PeriodogramID)
		assert.Equal(t, stored.Matrix, resp.Body.Matrix)
		assert.Equal(t, "https://example.com/image.png", resp.Body.ImageURL)
	})

	t.Run("image url failure is not fatal", func(t *testing.T) {
		h, repo, s3, _ := newTestHandler()
		repo.On("GetByID", mock.Anything, id).Return(&models.Periodogram{ID: id.String(), Status: models.StatusCompleted, ImageS3Key: &imageKey}, nil)
		repo.On("GetResults", mock.Anything, id).Return(stored, nil)
		s3.On("GenerateDownloadURL", mock.Anything, imageKey).Return("", fmt.Errorf("signing failed"))

		resp, err := h.GetPeriodogramResults(context.Background(), &models.PeriodogramIDRequest{ID: id.String()})
		require.NoError(t, err)
		assert.Empty(t, resp.Body.ImageURL)
	})

	t.Run("not completed", func(t *testing.T) {
		h, repo, _, _ := newTestHandler()
		repo.On("GetByID", mock.Anything, id).Return(&models.Periodogram{ID: id.String(), Status: models.StatusProcessing}, nil)

		_, err := h.GetPeriodogramResults(context.Background(), &models.PeriodogramIDRequest{ID: id.String()})
		assertStatus(t, err, http.StatusConflict)
		repo.AssertNotCalled(t, "GetResults", mock.Anything, mock.Anything)
	})

	t.Run("results missing", func(t *testing.T) {
		h, repo, _, _ := newTestHandler()
		repo.On("GetByID", mock.Anything, id).Return(&models.Periodogram{ID: id.String(), Status: models.StatusCompleted}, nil)
		repo.On("GetResults", mock.Anything, id).Return(nil, repository.ErrNotFound)

		_, err := h.GetPeriodogramResults(context.Background(), &models.PeriodogramIDRequest{ID: id.String()})
		assertStatus(t, err, http.StatusInternalServerError)
	})
}

func TestStartProcessing(t *testing.T) {
	id := uuid.New()

	t.Run("runs in background", func(t *testing.T) {
		h, repo, _, proc := newTestHandler()
		repo.On("GetByID", mock.Anything, id).Return(&models.Periodogram{ID: id.String(), Status: models.StatusPending}, nil)
		repo.On("ClaimForProcessing", mock.Anything, id).Return(nil)
		done := make(chan struct{})
		proc.On("ProcessPeriodogram", mock.Anything, id).Return(nil).Run(func(mock.Arguments) { close(done) })

		resp, err := h.StartProcessing(context.Background(), &models.StartProcessingRequest{ID: id.String()})
		require.NoError(t, err)
		assert.Equal(t, "Processing started successfully", resp.Body.Message)

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("processing was not started")
		}
	})

	t.Run("records infrastructure failure", func(t *testing.T) {
		h, repo, _, proc := newTestHandler()
		repo.On("GetByID", mock.Anything, id).Return(&models.Periodogram{ID: id.String(), Status: models.StatusFailed}, nil)
		repo.On("ClaimForProcessing", mock.Anything, id).Return(nil)
		proc.On("ProcessPeriodogram", mock.Anything, id).Return(fmt.Errorf("store results: connection refused"))
		recorded := make(chan string, 1)
		repo.On("UpdateError", mock.Anything, id, mock.AnythingOfType("string")).Return(nil).
			Run(func(args mock.Arguments) { recorded <- args.String(2) })

		_, err := h.StartProcessing(context.Background(), &models.StartProcessingRequest{ID: id.String()})
		require.NoError(t, err)

		select {
		case msg := <-recorded:
			assert.Equal(t, "Processing failed: store results: connection refused", msg)
		case <-time.After(5 * time.Second):
			t.Fatal("failure was not recorded")
		}
	})

	t.Run("records panic", func(t *testing.T) {
		h, repo, _, proc := newTestHandler()
		repo.On("GetByID", mock.Anything, id).Return(&models.Periodogram{ID: id.String(), Status: models.StatusPending}, nil)
		repo.On("ClaimForProcessing", mock.Anything, id).Return(nil)
		proc.On("ProcessPeriodogram", mock.Anything, id).Panic("makeslice: len out of range")
		recorded := make(chan string, 1)
		repo.On("UpdateError", mock.Anything, id, mock.AnythingOfType("string")).Return(nil).
			Run(func(args mock.Arguments) { recorded <- args.String(2) })

		_, err := h.StartProcessing(context.Background(), &models.StartProcessingRequest{ID: id.String()})
		require.NoError(t, err)

		select {
		case msg := <-recorded:
			assert.Equal(t, "Processing failed: makeslice: len out of range", msg)
		case <-time.After(5 * time.Second):
			t.Fatal("panic was not recorded")
		}
	})

	t.Run("lost claim race", func(t *testing.T) {
		h, repo, _, proc := newTestHandler()
		repo.On("GetByID", mock.Anything, id).Return(&models.Periodogram{ID: id.String(), Status: models.StatusPending}, nil)
		repo.On("ClaimForProcessing", mock.Anything, id).Return(fmt.Errorf("periodogram %s: %w", id, repository.ErrAlreadyClaimed))

		_, err := h.StartProcessing(context.Background(), &models.StartProcessingRequest{ID: id.String()})
		assertStatus(t, err, http.StatusConflict)
		proc.AssertNotCalled(t, "ProcessPeriodogram", mock.Anything, mock.Anything)
	})

	t.Run("claim fails", func(t *testing.T) {
		h, repo, _, proc := newTestHandler()
		repo.On("GetByID", mock.Anything, id).Return(&models.Periodogram{ID: id.String(), Status: models.StatusPending}, nil)
		repo.On("ClaimForProcessing", mock.Anything, id).Return(fmt.Errorf("connection refused"))

		_, err := h.StartProcessing(context.Background(), &models.StartProcessingRequest{ID: id.String()})
		assertStatus(t, err, http.StatusInternalServerError)
		proc.AssertNotCalled(t, "ProcessPeriodogram", mock.Anything, mock.Anything)
	})

	for _, status := range []string{models.StatusProcessing, models.StatusCompleted} {
		t.Run("already "+status, func(t *testing.T) {
			h, repo, _, proc := newTestHandler()
			repo.On("GetByID", mock.Anything, id).Return(&models.Periodogram{ID: id.String(), Status: status}, nil)

			_, err := h.StartProcessing(context.Background(), &models.StartProcessingRequest{ID: id.String()})
			assertStatus(t, err, http.StatusConflict)
			repo.AssertNotCalled(t, "ClaimForProcessing", mock.Anything, mock.Anything)
			proc.AssertNotCalled(t, "ProcessPeriodogram", mock.Anything, mock.Anything)
		})
	}

	t.Run("missing", func(t *testing.T) {
		h, repo, _, _ := newTestHandler()
		repo.On("GetByID", mock.Anything, id).Return(nil, repository.ErrNotFound)

		_, err := h.StartProcessing(context.Background(), &models.StartProcessingRequest{ID: id.String()})
		assertStatus(t, err, http.StatusNotFound)
	})
}

// sineCurve samples a 2 c/d sinusoid every half hour for the given number of days.
func sineCurve(days float64) ([]float64, []float64) {
	var tm, flux []float64
	for x := 0.0; x < days; x += 1.0 / 48 {
		tm = append(tm, x)
		flux = append(flux, math.Sin(2*math.Pi*2*x))
	}
	return tm, flux
}

func TestComputePeriodogram(t *testing.T) {
	h, _, _, _ := newTestHandler()
	tm, flux := sineCurve(10)

	req := &models.ComputePeriodogramRequest{}
	req.Body.Time = tm
	req.Body.Flux = flux
	req.Body.Options = &models.PeriodogramOptions{MaxFrequency: ptr(4.0)}

	resp, err := h.ComputePeriodogram(context.Background(), req)
	require.NoError(t, err)

	data := resp.Body
	assert.Equal(t, "1/d", data.Unit)
	assert.Equal(t, "amplitude", data.Normalization)
	assert.Len(t, data.Matrix, 6)
	assert.Len(t, data.WindowStarts, 6)
	assert.Empty(t, data.Failures)

	row := data.Matrix[0]
	peak := 0
	for j := range row {
		if row[j] > row[peak] {
			peak = j
		}
	}
	assert.InDelta(t, 2.0, data.Frequencies[peak], 0.05)
	assert.InDelta(t, 1.0, row[peak], 0.1)
}

func TestComputePeriodogramErrors(t *testing.T) {
	tm, flux := sineCurve(10)

	tests := []struct {
		name       string
		time       []float64
		flux       []float64
		options    *models.PeriodogramOptions
		wantStatus int
	}{
		{name: "length mismatch", time: tm, flux: flux[:10], wantStatus: http.StatusUnprocessableEntity},
		{name: "no finite samples", time: []float64{0, 1, 2}, flux: []float64{math.NaN(), math.NaN(), math.Inf(1)}, wantStatus: http.StatusUnprocessableEntity},
		{name: "grid too large", time: tm, flux: flux, options: &models.PeriodogramOptions{MaxFrequency: ptr(1e300)}, wantStatus: http.StatusUnprocessableEntity},
		{name: "bad options", time: tm, flux: flux, options: &models.PeriodogramOptions{Oversample: ptr(0.0)}, wantStatus: http.StatusBadRequest},
		{name: "too large", time: make([]float64, 5001), flux: make([]float64, 5001), wantStatus: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, _, _ := newTestHandler()
			req := &models.ComputePeriodogramRequest{}
			req.Body.Time = tt.time
			req.Body.Flux = tt.flux
			req.Body.Options = tt.options

			resp, err := h.ComputePeriodogram(context.Background(), req)
			assertStatus(t, err, tt.wantStatus)
			assert.Nil(t, resp)
		})
	}
}

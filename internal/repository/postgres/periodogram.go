package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/RMahshie/runningls/internal/repository"
	"github.com/RMahshie/runningls/pkg/models"
)

// PostgresPeriodogramRepository implements PeriodogramRepository for PostgreSQL
type PostgresPeriodogramRepository struct {
	db *sql.DB
}

// NewPostgresPeriodogramRepository creates a new PostgreSQL periodogram repository
func NewPostgresPeriodogramRepository(db *sql.DB) repository.PeriodogramRepository {
	return &PostgresPeriodogramRepository{db: db}
}

const periodogramColumns = `id, session_id, status, progress, input_s3_key, image_s3_key, options, error_message, created_at, updated_at, completed_at`

// Create inserts a new periodogram job
func (r *PostgresPeriodogramRepository) Create(ctx context.Context, p *models.Periodogram) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	options, err := json.Marshal(p.Options)
	if err != nil {
		return fmt.Errorf("failed to marshal options: %w", err)
	}

	query := `
		INSERT INTO periodograms (id, session_id, status, progress, input_s3_key, options, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING updated_at`

	return r.db.QueryRowContext(ctx, query,
		p.ID,
		p.SessionID,
		p.Status,
		p.Progress,
		p.InputS3Key,
		string(options),
		p.CreatedAt).Scan(&p.UpdatedAt)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPeriodogram(row rowScanner) (*models.Periodogram, error) {
	var p models.Periodogram
	var inputKey, imageKey, errorMsg sql.NullString
	var options []byte
	var completedAt sql.NullTime

	err := row.Scan(
		&p.ID,
		&p.SessionID,
		&p.Status,
		&p.Progress,
		&inputKey,
		&imageKey,
		&options,
		&errorMsg,
		&p.CreatedAt,
		&p.UpdatedAt,
		&completedAt)
	if err != nil {
		return nil, err
	}

	if inputKey.Valid {
		p.InputS3Key = &inputKey.String
	}
	if imageKey.Valid {
		p.ImageS3Key = &imageKey.String
	}
	if errorMsg.Valid {
		p.ErrorMsg = &errorMsg.String
	}
	if completedAt.Valid {
		p.CompletedAt = &completedAt.Time
	}
	if len(options) > 0 {
		if err := json.Unmarshal(options, &p.Options); err != nil {
			return nil, fmt.Errorf("failed to unmarshal options: %w", err)
		}
	}
	return &p, nil
}

// GetByID retrieves a periodogram job by ID
func (r *PostgresPeriodogramRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Periodogram, error) {
	query := `SELECT ` + periodogramColumns + ` FROM periodograms WHERE id = $1`

	p, err := scanPeriodogram(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("periodogram %s: %w", id, repository.ErrNotFound)
	}
	return p, err
}

// GetBySessionID retrieves periodogram jobs by session ID, newest first
func (r *PostgresPeriodogramRepository) GetBySessionID(ctx context.Context, sessionID string) ([]*models.Periodogram, error) {
	query := `SELECT ` + periodogramColumns + ` FROM periodograms WHERE session_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Periodogram
	for rows.Next() {
		p, err := scanPeriodogram(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateStatus updates the status and progress of a job
func (r *PostgresPeriodogramRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, progress int) error {
	query := `
		UPDATE periodograms
		SET status = $1, progress = $2, updated_at = NOW(),
		    completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE completed_at END
		WHERE id = $3`

	return r.exec(ctx, id, query, status, progress, id)
}

// ClaimForProcessing atomically moves a pending or failed job to processing
func (r *PostgresPeriodogramRepository) ClaimForProcessing(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE periodograms
		SET status = 'processing', progress = 0, error_message = NULL, updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'failed')`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM periodograms WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("periodogram %s: %w", id, repository.ErrNotFound)
	}
	return fmt.Errorf("periodogram %s: %w", id, repository.ErrAlreadyClaimed)
}

// UpdateError marks a job as failed with a message
func (r *PostgresPeriodogramRepository) UpdateError(ctx context.Context, id uuid.UUID, errorMsg string) error {
	query := `
		UPDATE periodograms
		SET status = 'failed', error_message = $1, updated_at = NOW()
		WHERE id = $2`

	return r.exec(ctx, id, query, errorMsg, id)
}

// SetImageKey records where the rendered image was stored
func (r *PostgresPeriodogramRepository) SetImageKey(ctx context.Context, id uuid.UUID, key string) error {
	query := `UPDATE periodograms SET image_s3_key = $1, updated_at = NOW() WHERE id = $2`
	return r.exec(ctx, id, query, key, id)
}

func (r *PostgresPeriodogramRepository) exec(ctx context.Context, id uuid.UUID, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("periodogram %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

// StoreResults stores the computed periodogram
func (r *PostgresPeriodogramRepository) StoreResults(ctx context.Context, results *models.PeriodogramResults) error {
	if results.ID == "" {
		results.ID = uuid.New().String()
	}
	matrix, err := json.Marshal(results.Matrix)
	if err != nil {
		return fmt.Errorf("failed to marshal matrix: %w", err)
	}
	failures, err := json.Marshal(results.Failures)
	if err != nil {
		return fmt.Errorf("failed to marshal failures: %w", err)
	}

	query := `
		INSERT INTO periodogram_results (id, periodogram_id, frequencies, window_starts, window_stops, window_centers, matrix, failures, unit, normalization, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		RETURNING created_at`

	return r.db.QueryRowContext(ctx, query,
		results.ID,
		results.PeriodogramID,
		pq.Array(nonNil(results.Frequencies)),
		pq.Array(nonNil(results.WindowStarts)),
		pq.Array(nonNil(results.WindowStops)),
		pq.Array(nonNil(results.WindowCenters)),
		string(matrix),
		string(failures),
		results.Unit,
		results.Normalization).Scan(&results.CreatedAt)
}

// nonNil keeps empty arrays from being stored as NULL
func nonNil(xs []float64) []float64 {
	if xs == nil {
		return []float64{}
	}
	return xs
}

// GetResults retrieves the stored periodogram for a job
func (r *PostgresPeriodogramRepository) GetResults(ctx context.Context, periodogramID uuid.UUID) (*models.PeriodogramResults, error) {
	query := `
		SELECT id, periodogram_id, frequencies, window_starts, window_stops, window_centers, matrix, failures, unit, normalization, created_at
		FROM periodogram_results
		WHERE periodogram_id = $1`

	var results models.PeriodogramResults
	var matrix, failures []byte

	err := r.db.QueryRowContext(ctx, query, periodogramID).Scan(
		&results.ID,
		&results.PeriodogramID,
		pq.Array(&results.Frequencies),
		pq.Array(&results.WindowStarts),
		pq.Array(&results.WindowStops),
		pq.Array(&results.WindowCenters),
		&matrix,
		&failures,
		&results.Unit,
		&results.Normalization,
		&results.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("results for %s: %w", periodogramID, repository.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(matrix, &results.Matrix); err != nil {
		return nil, fmt.Errorf("failed to unmarshal matrix: %w", err)
	}
	if err := json.Unmarshal(failures, &results.Failures); err != nil {
		return nil, fmt.Errorf("failed to unmarshal failures: %w", err)
	}
	return &results, nil
}

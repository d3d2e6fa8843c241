package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/geofotos/internal/core/domain"
)

// EnrichmentJobRepo implements ports.EnrichmentJobRepository with pgx.
type EnrichmentJobRepo struct {
	db *DB
}

// NewEnrichmentJobRepo creates a new EnrichmentJobRepo.
func NewEnrichmentJobRepo(db *DB) *EnrichmentJobRepo {
	return &EnrichmentJobRepo{db: db}
}

const jobColumns = `
	id, capture_id,
	ST_Y(location::geometry) as lat,
	ST_X(location::geometry) as lon,
	status, info, attempts, COALESCE(error, ''), created_at, updated_at`

// Create inserts a new job.
func (r *EnrichmentJobRepo) Create(ctx context.Context, job *domain.EnrichmentJob) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO enrichment_jobs (id, capture_id, location, status, attempts, created_at, updated_at)
		VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography, $5, $6, $7, $8)
	`, job.ID, job.CaptureID, job.Point.Lon, job.Point.Lat,
		job.Status, job.Attempts, job.CreatedAt, job.UpdatedAt)
	return err
}

// GetByID returns a job, or domain.ErrNotFound.
func (r *EnrichmentJobRepo) GetByID(ctx context.Context, id string) (*domain.EnrichmentJob, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM enrichment_jobs WHERE id = $1`, id)
	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// MarkRunning flags a job as running and counts the attempt.
func (r *EnrichmentJobRepo) MarkRunning(ctx context.Context, id string) error {
	return r.exec(ctx, `
		UPDATE enrichment_jobs
		SET status = 'running', attempts = attempts + 1, updated_at = now()
		WHERE id = $1
	`, id)
}

// SaveResult stores the resolved info and marks the job done.
func (r *EnrichmentJobRepo) SaveResult(ctx context.Context, id string, info *domain.LocationInfo) error {
	return r.exec(ctx, `
		UPDATE enrichment_jobs
		SET status = 'done', info = $2, error = NULL, updated_at = now()
		WHERE id = $1
	`, id, info)
}

// MarkFailed records why a job could not be enriched.
func (r *EnrichmentJobRepo) MarkFailed(ctx context.Context, id string, reason string) error {
	return r.exec(ctx, `
		UPDATE enrichment_jobs
		SET status = 'failed', error = $2, updated_at = now()
		WHERE id = $1
	`, id, reason)
}

// ListPending returns pending and failed jobs, and running jobs not
// updated since staleBefore, oldest first.
func (r *EnrichmentJobRepo) ListPending(ctx context.Context, staleBefore time.Time, limit int) ([]domain.EnrichmentJob, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+jobColumns+`
		FROM enrichment_jobs
		WHERE status IN ('pending', 'failed')
		   OR (status = 'running' AND updated_at < $2)
		ORDER BY created_at
		LIMIT $1
	`, limit, staleBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.EnrichmentJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

func (r *EnrichmentJobRepo) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := r.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanJob(row pgx.Row) (*domain.EnrichmentJob, error) {
	var j domain.EnrichmentJob
	if err := row.Scan(
		&j.ID, &j.CaptureID,
		&j.Point.Lat, &j.Point.Lon,
		&j.Status, &j.Info, &j.Attempts, &j.Error, &j.CreatedAt, &j.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &j, nil
}

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aitorve/terramotion/internal/core/domain"
)

// RenderJobRepo implements ports.RenderJobRepository.
type RenderJobRepo struct {
	db *DB
}

func NewRenderJobRepo(db *DB) *RenderJobRepo {
	return &RenderJobRepo{db: db}
}

func (r *RenderJobRepo) Insert(ctx context.Context, job *domain.RenderJob) error {
	sweep, err := json.Marshal(job.Sweep)
	if err != nil {
		return fmt.Errorf("marshal sweep: %w", err)
	}
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO render_jobs (region_slug, sweep, major_dim, frame_delay, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, job.RegionSlug, sweep, job.MajorDim, job.FrameDelay, job.Status).
		Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)
}

func (r *RenderJobRepo) GetByID(ctx context.Context, id string) (*domain.RenderJob, error) {
	job := &domain.RenderJob{}
	var sweep []byte
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, region_slug, sweep, major_dim, frame_delay, status,
		       COALESCE(output_path, ''), COALESCE(error, ''), created_at, updated_at
		FROM render_jobs WHERE id = $1
	`, id).Scan(&job.ID, &job.RegionSlug, &sweep, &job.MajorDim, &job.FrameDelay,
		&job.Status, &job.OutputPath, &job.Error, &job.CreatedAt, &job.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: render job %q", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(sweep, &job.Sweep); err != nil {
		return nil, fmt.Errorf("unmarshal sweep: %w", err)
	}
	return job, nil
}

func (r *RenderJobRepo) UpdateStatus(ctx context.Context, id string, status domain.JobStatus, outputPath, errMsg string) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE render_jobs
		SET status = $2, output_path = NULLIF($3, ''), error = NULLIF($4, ''), updated_at = now()
		WHERE id = $1
	`, id, status, outputPath, errMsg)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: render job %q", domain.ErrNotFound, id)
	}
	return nil
}

func (r *RenderJobRepo) ListRecent(ctx context.Context, limit int) ([]domain.RenderJob, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, region_slug, sweep, major_dim, frame_delay, status,
		       COALESCE(output_path, ''), COALESCE(error, ''), created_at, updated_at
		FROM render_jobs ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.RenderJob
	for rows.Next() {
		var job domain.RenderJob
		var sweep []byte
		if err := rows.Scan(&job.ID, &job.RegionSlug, &sweep, &job.MajorDim, &job.FrameDelay,
			&job.Status, &job.OutputPath, &job.Error, &job.CreatedAt, &job.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(sweep, &job.Sweep); err != nil {
			return nil, fmt.Errorf("unmarshal sweep: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

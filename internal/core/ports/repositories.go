package ports

import (
	"context"

	"github.com/aitorve/terramotion/internal/core/domain"
)

// RegionRepository persists saved bounding-box regions.
type RegionRepository interface {
	Upsert(ctx context.Context, region *domain.Region) error
	GetBySlug(ctx context.Context, slug string) (*domain.Region, error)
	List(ctx context.Context) ([]domain.Region, error)
	Delete(ctx context.Context, slug string) error
}

// RenderJobRepository persists async animation jobs.
type RenderJobRepository interface {
	Insert(ctx context.Context, job *domain.RenderJob) error
	GetByID(ctx context.Context, id string) (*domain.RenderJob, error)
	UpdateStatus(ctx context.Context, id string, status domain.JobStatus, outputPath, errMsg string) error
	ListRecent(ctx context.Context, limit int) ([]domain.RenderJob, error)
}

package ports

import (
	"context"
	"image"

	"github.com/aitorve/terramotion/internal/core/domain"
)

// ElevationSource fetches an elevation grid covering a bounding box at a
// requested pixel size.
type ElevationSource interface {
	FetchGrid(ctx context.Context, box domain.BoundingBox, size domain.ImageSize) (*domain.ElevationGrid, error)
}

// ImagerySource fetches a map image covering a bounding box at a
// requested pixel size.
type ImagerySource interface {
	FetchImage(ctx context.Context, box domain.BoundingBox, size domain.ImageSize) (image.Image, error)
}

// EventPublisher publishes render job events to a message broker.
type EventPublisher interface {
	PublishJob(ctx context.Context, job *domain.RenderJob) error
	PublishProgress(ctx context.Context, p *domain.JobProgress) error
}

// EventSubscriber consumes render jobs from a message broker.
type EventSubscriber interface {
	SubscribeJobs(ctx context.Context, handler func(ctx context.Context, job *domain.RenderJob) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

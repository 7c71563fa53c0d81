package usecases

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"image"
	"time"

	"github.com/aitorve/terramotion/internal/adapters/render"
	"github.com/aitorve/terramotion/internal/core/domain"
	"github.com/aitorve/terramotion/internal/core/ports"
	"github.com/aitorve/terramotion/internal/pkg/geospatial"
	"github.com/aitorve/terramotion/internal/pkg/metrics"
)

// RenderService produces static PNG renders for saved regions.
type RenderService struct {
	regions     *RegionService
	elevation   ports.ElevationSource
	imagery     ports.ImagerySource
	renderer    *render.Renderer
	cache       ports.CacheService
	maxMajorDim int
}

// NewRenderService creates a RenderService. maxMajorDim caps the pixel
// size a single request may ask for.
func NewRenderService(regions *RegionService, elevation ports.ElevationSource, imagery ports.ImagerySource,
	renderer *render.Renderer, cache ports.CacheService, maxMajorDim int) *RenderService {
	return &RenderService{
		regions:     regions,
		elevation:   elevation,
		imagery:     imagery,
		renderer:    renderer,
		cache:       cache,
		maxMajorDim: maxMajorDim,
	}
}

// ReliefPNG renders a region's elevation relief with its labels.
func (s *RenderService) ReliefPNG(ctx context.Context, slug string, majorDim int) ([]byte, error) {
	region, size, err := s.prepare(ctx, slug, majorDim)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("render:relief:%s:%d", slug, majorDim)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			metrics.CacheHits.WithLabelValues("relief").Inc()
			return data, nil
		}
		metrics.CacheMisses.WithLabelValues("relief").Inc()
	}

	grid, err := s.Grid(ctx, region, size)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	frame := s.renderer.Relief(grid)
	if err := s.renderer.DrawLabels(frame, region.Box, region.Labels); err != nil {
		return nil, err
	}
	metrics.RenderDuration.WithLabelValues("relief").Observe(time.Since(start).Seconds())

	data, err := render.EncodePNG(frame)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, cacheKey, data, 3600)
	}
	return data, nil
}

// MapPNG renders a region's map imagery with its labels.
func (s *RenderService) MapPNG(ctx context.Context, slug string, majorDim int) ([]byte, error) {
	region, size, err := s.prepare(ctx, slug, majorDim)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("render:map:%s:%d", slug, majorDim)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			metrics.CacheHits.WithLabelValues("map").Inc()
			return data, nil
		}
		metrics.CacheMisses.WithLabelValues("map").Inc()
	}

	img, err := s.imagery.FetchImage(ctx, region.Box, size)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	frame := s.renderer.ToRGBA(img)
	if err := s.renderer.DrawLabels(frame, region.Box, region.Labels); err != nil {
		return nil, err
	}
	metrics.RenderDuration.WithLabelValues("map").Observe(time.Since(start).Seconds())

	data, err := render.EncodePNG(frame)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, cacheKey, data, 3600)
	}
	return data, nil
}

// Imagery fetches a region's map overlay at the given size.
func (s *RenderService) Imagery(ctx context.Context, region *domain.Region, size domain.ImageSize) (image.Image, error) {
	return s.imagery.FetchImage(ctx, region.Box, size)
}

// Grid fetches a region's elevation grid, read-through cached in gob form.
func (s *RenderService) Grid(ctx context.Context, region *domain.Region, size domain.ImageSize) (*domain.ElevationGrid, error) {
	cacheKey := fmt.Sprintf("grid:%s:%dx%d", region.Slug, size.Width, size.Height)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var grid domain.ElevationGrid
			if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&grid); err == nil {
				metrics.CacheHits.WithLabelValues("grid").Inc()
				return &grid, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("grid").Inc()
	}

	grid, err := s.elevation.FetchGrid(ctx, region.Box, size)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(grid); err == nil {
			// Terrain is effectively static; cache for a day.
			_ = s.cache.Set(ctx, cacheKey, buf.Bytes(), 86400)
		}
	}
	return grid, nil
}

// Prepare resolves the region and derives the render size with the
// configured cap applied.
func (s *RenderService) Prepare(ctx context.Context, slug string, majorDim int) (*domain.Region, domain.ImageSize, error) {
	return s.prepare(ctx, slug, majorDim)
}

func (s *RenderService) prepare(ctx context.Context, slug string, majorDim int) (*domain.Region, domain.ImageSize, error) {
	if majorDim > s.maxMajorDim {
		return nil, domain.ImageSize{}, fmt.Errorf("%w: major dimension %d exceeds limit %d", domain.ErrInvalidArgument, majorDim, s.maxMajorDim)
	}

	region, err := s.regions.GetBySlug(ctx, slug)
	if err != nil {
		return nil, domain.ImageSize{}, err
	}

	size, err := geospatial.FitImageSize(region.Box, majorDim)
	if err != nil {
		return nil, domain.ImageSize{}, err
	}
	return region, size, nil
}

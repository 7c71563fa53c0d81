package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/aitorve/terramotion/internal/core/domain"
	"github.com/aitorve/terramotion/internal/core/ports"
	"github.com/aitorve/terramotion/internal/pkg/geospatial"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}$`)

// RegionService handles saved-region business logic.
type RegionService struct {
	regions ports.RegionRepository
	cache   ports.CacheService
}

// NewRegionService creates a new RegionService.
func NewRegionService(regions ports.RegionRepository, cache ports.CacheService) *RegionService {
	return &RegionService{regions: regions, cache: cache}
}

// Save validates and upserts a region, invalidating any cached copy.
func (s *RegionService) Save(ctx context.Context, region *domain.Region) error {
	if !slugPattern.MatchString(region.Slug) {
		return fmt.Errorf("%w: slug must be lowercase letters, digits, and dashes", domain.ErrInvalidArgument)
	}
	if region.Name == "" {
		return fmt.Errorf("%w: name must not be empty", domain.ErrInvalidArgument)
	}
	if err := region.Box.Validate(); err != nil {
		return err
	}
	for _, l := range region.Labels {
		if l.Text == "" {
			return fmt.Errorf("%w: label text must not be empty", domain.ErrInvalidArgument)
		}
	}

	if err := s.regions.Upsert(ctx, region); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, "regions:slug:"+region.Slug)
	}
	return nil
}

// GetBySlug returns a single region, read-through cached.
func (s *RegionService) GetBySlug(ctx context.Context, slug string) (*domain.Region, error) {
	cacheKey := "regions:slug:" + slug
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var region domain.Region
			if err := json.Unmarshal(data, &region); err == nil {
				return &region, nil
			}
		}
	}

	region, err := s.regions.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	// Regions change rarely; 10 minutes is safe.
	if s.cache != nil {
		if data, err := json.Marshal(region); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 600)
		}
	}

	return region, nil
}

// List returns every saved region.
func (s *RegionService) List(ctx context.Context) ([]domain.Region, error) {
	return s.regions.List(ctx)
}

// Delete removes a region and its cached copy.
func (s *RegionService) Delete(ctx context.Context, slug string) error {
	if err := s.regions.Delete(ctx, slug); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, "regions:slug:"+slug)
	}
	return nil
}

// RegionStats describes a region's approximate ground footprint.
type RegionStats struct {
	Slug          string           `json:"slug"`
	EastWestKm    float64          `json:"east_west_km"`
	NorthSouthKm  float64          `json:"north_south_km"`
	AspectRatio   float64          `json:"aspect_ratio"`
	CenterLat     float64          `json:"center_lat"`
	CenterLon     float64          `json:"center_lon"`
	SuggestedSize domain.ImageSize `json:"suggested_size"`
}

// Stats computes the ground extent and a suggested raster size for a region.
func (s *RegionService) Stats(ctx context.Context, slug string) (*RegionStats, error) {
	region, err := s.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	ew, ns := geospatial.GroundExtent(region.Box)
	size, err := geospatial.FitImageSize(region.Box, 1024)
	if err != nil {
		return nil, err
	}

	center := region.Box.Center()
	return &RegionStats{
		Slug:          region.Slug,
		EastWestKm:    ew / 1000,
		NorthSouthKm:  ns / 1000,
		AspectRatio:   ew / ns,
		CenterLat:     center.Lat,
		CenterLon:     center.Lon,
		SuggestedSize: size,
	}, nil
}

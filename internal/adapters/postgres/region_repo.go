package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aitorve/terramotion/internal/core/domain"
)

// RegionRepo implements ports.RegionRepository.
type RegionRepo struct {
	db *DB
}

func NewRegionRepo(db *DB) *RegionRepo {
	return &RegionRepo{db: db}
}

func (r *RegionRepo) Upsert(ctx context.Context, region *domain.Region) error {
	labels, err := json.Marshal(region.Labels)
	if err != nil {
		return fmt.Errorf("marshal labels: %w", err)
	}
	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO regions (slug, name, min_lon, min_lat, max_lon, max_lat, labels)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (slug) DO UPDATE SET
			name = EXCLUDED.name,
			min_lon = EXCLUDED.min_lon, min_lat = EXCLUDED.min_lat,
			max_lon = EXCLUDED.max_lon, max_lat = EXCLUDED.max_lat,
			labels = EXCLUDED.labels
	`, region.Slug, region.Name,
		region.Box.MinLon, region.Box.MinLat, region.Box.MaxLon, region.Box.MaxLat,
		labels)
	return err
}

func (r *RegionRepo) GetBySlug(ctx context.Context, slug string) (*domain.Region, error) {
	region := &domain.Region{}
	var labels []byte
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, slug, name, min_lon, min_lat, max_lon, max_lat, labels, created_at
		FROM regions WHERE slug = $1
	`, slug).Scan(&region.ID, &region.Slug, &region.Name,
		&region.Box.MinLon, &region.Box.MinLat, &region.Box.MaxLon, &region.Box.MaxLat,
		&labels, &region.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: region %q", domain.ErrNotFound, slug)
	}
	if err != nil {
		return nil, err
	}
	if len(labels) > 0 {
		if err := json.Unmarshal(labels, &region.Labels); err != nil {
			return nil, fmt.Errorf("unmarshal labels: %w", err)
		}
	}
	return region, nil
}

func (r *RegionRepo) List(ctx context.Context) ([]domain.Region, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, slug, name, min_lon, min_lat, max_lon, max_lat, labels, created_at
		FROM regions ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regions []domain.Region
	for rows.Next() {
		var region domain.Region
		var labels []byte
		if err := rows.Scan(&region.ID, &region.Slug, &region.Name,
			&region.Box.MinLon, &region.Box.MinLat, &region.Box.MaxLon, &region.Box.MaxLat,
			&labels, &region.CreatedAt); err != nil {
			return nil, err
		}
		if len(labels) > 0 {
			if err := json.Unmarshal(labels, &region.Labels); err != nil {
				return nil, fmt.Errorf("unmarshal labels: %w", err)
			}
		}
		regions = append(regions, region)
	}
	return regions, rows.Err()
}

func (r *RegionRepo) Delete(ctx context.Context, slug string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM regions WHERE slug = $1`, slug)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: region %q", domain.ErrNotFound, slug)
	}
	return nil
}

package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aitorve/terramotion/internal/core/domain"
	"github.com/aitorve/terramotion/internal/core/usecases"
)

// --- Mock RegionRepository ---

type mockRegionRepo struct {
	upsertFn    func(ctx context.Context, region *domain.Region) error
	getBySlugFn func(ctx context.Context, slug string) (*domain.Region, error)
	listFn      func(ctx context.Context) ([]domain.Region, error)
	deleteFn    func(ctx context.Context, slug string) error
}

func (m *mockRegionRepo) Upsert(ctx context.Context, region *domain.Region) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, region)
	}
	return nil
}

func (m *mockRegionRepo) GetBySlug(ctx context.Context, slug string) (*domain.Region, error) {
	if m.getBySlugFn != nil {
		return m.getBySlugFn(ctx, slug)
	}
	return nil, nil
}

func (m *mockRegionRepo) List(ctx context.Context) ([]domain.Region, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockRegionRepo) Delete(ctx context.Context, slug string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, slug)
	}
	return nil
}

func validBox() domain.BoundingBox {
	return domain.BoundingBox{MinLon: -2.2, MinLat: 43.2, MaxLon: -1.8, MaxLat: 43.5}
}

// --- Tests ---

func TestRegionService_Save(t *testing.T) {
	var saved *domain.Region
	repo := &mockRegionRepo{
		upsertFn: func(ctx context.Context, region *domain.Region) error {
			saved = region
			return nil
		},
	}

	svc := usecases.NewRegionService(repo, nil)
	region := &domain.Region{Slug: "urdaibai", Name: "Urdaibai Estuary", Box: validBox()}
	if err := svc.Save(context.Background(), region); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved == nil || saved.Slug != "urdaibai" {
		t.Errorf("repo did not receive the region, got %+v", saved)
	}
}

func TestRegionService_Save_Invalid(t *testing.T) {
	svc := usecases.NewRegionService(&mockRegionRepo{}, nil)

	cases := []struct {
		name   string
		region domain.Region
		want   error
	}{
		{"bad slug", domain.Region{Slug: "Bad Slug!", Name: "x", Box: validBox()}, domain.ErrInvalidArgument},
		{"empty name", domain.Region{Slug: "ok-slug", Name: "", Box: validBox()}, domain.ErrInvalidArgument},
		{"degenerate box", domain.Region{Slug: "ok-slug", Name: "x", Box: domain.BoundingBox{MinLon: 1, MinLat: 1, MaxLon: 1, MaxLat: 2}}, domain.ErrInvalidBoundingBox},
		{"empty label", domain.Region{Slug: "ok-slug", Name: "x", Box: validBox(), Labels: []domain.Label{{Text: ""}}}, domain.ErrInvalidArgument},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.Save(context.Background(), &tc.region)
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestRegionService_GetBySlug(t *testing.T) {
	repo := &mockRegionRepo{
		getBySlugFn: func(ctx context.Context, slug string) (*domain.Region, error) {
			return &domain.Region{Slug: slug, Name: "Test", Box: validBox()}, nil
		},
	}

	svc := usecases.NewRegionService(repo, nil)
	region, err := svc.GetBySlug(context.Background(), "urdaibai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if region.Slug != "urdaibai" {
		t.Errorf("expected slug urdaibai, got %s", region.Slug)
	}
}

func TestRegionService_Stats(t *testing.T) {
	repo := &mockRegionRepo{
		getBySlugFn: func(ctx context.Context, slug string) (*domain.Region, error) {
			// 1x1 degree box at the equator: ~111km each way.
			return &domain.Region{Slug: slug, Name: "Eq", Box: domain.BoundingBox{MinLon: 0, MinLat: -0.5, MaxLon: 1, MaxLat: 0.5}}, nil
		},
	}

	svc := usecases.NewRegionService(repo, nil)
	stats, err := svc.Stats(context.Background(), "eq")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.EastWestKm < 100 || stats.EastWestKm > 120 {
		t.Errorf("expected ~111km east-west, got %.1f", stats.EastWestKm)
	}
	if stats.SuggestedSize.Width <= 0 || stats.SuggestedSize.Height <= 0 {
		t.Errorf("suggested size must be positive, got %+v", stats.SuggestedSize)
	}
	if stats.AspectRatio < 0.95 || stats.AspectRatio > 1.05 {
		t.Errorf("expected near-square aspect at the equator, got %.3f", stats.AspectRatio)
	}
}

func TestRegionService_Delete_PropagatesNotFound(t *testing.T) {
	repo := &mockRegionRepo{
		deleteFn: func(ctx context.Context, slug string) error {
			return domain.ErrNotFound
		},
	}
	svc := usecases.NewRegionService(repo, nil)
	if err := svc.Delete(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

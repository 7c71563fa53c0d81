package usecases_test

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/aitorve/terramotion/internal/adapters/render"
	"github.com/aitorve/terramotion/internal/core/domain"
	"github.com/aitorve/terramotion/internal/core/ports"
	"github.com/aitorve/terramotion/internal/core/usecases"
)

// --- Mock sources ---

type mockElevation struct {
	fetchFn func(ctx context.Context, box domain.BoundingBox, size domain.ImageSize) (*domain.ElevationGrid, error)
	calls   int
}

func (m *mockElevation) FetchGrid(ctx context.Context, box domain.BoundingBox, size domain.ImageSize) (*domain.ElevationGrid, error) {
	m.calls++
	if m.fetchFn != nil {
		return m.fetchFn(ctx, box, size)
	}
	return rampGrid(size.Width, size.Height), nil
}

type mockImagery struct {
	fetchFn func(ctx context.Context, box domain.BoundingBox, size domain.ImageSize) (image.Image, error)
}

func (m *mockImagery) FetchImage(ctx context.Context, box domain.BoundingBox, size domain.ImageSize) (image.Image, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, box, size)
	}
	img := image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+1] = 180 // green-ish map
		img.Pix[i+3] = 255
	}
	return img, nil
}

// memCache is an in-process ports.CacheService for tests.
type memCache struct {
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	return nil, errors.New("miss")
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	delete(c.data, key)
	return nil
}

func rampGrid(w, h int) *domain.ElevationGrid {
	g := domain.NewElevationGrid(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g.Set(x, y, float64(x+y))
		}
	}
	return g
}

func testRegionRepo() *mockRegionRepo {
	return &mockRegionRepo{
		getBySlugFn: func(ctx context.Context, slug string) (*domain.Region, error) {
			if slug != "urdaibai" {
				return nil, domain.ErrNotFound
			}
			return &domain.Region{
				Slug: "urdaibai",
				Name: "Urdaibai Estuary",
				Box:  domain.BoundingBox{MinLon: 0, MinLat: 0, MaxLon: 1, MaxLat: 1},
			}, nil
		},
	}
}

func newRenderService(t *testing.T, elev *mockElevation, cache ports.CacheService) *usecases.RenderService {
	t.Helper()
	renderer, err := render.New()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	regions := usecases.NewRegionService(testRegionRepo(), nil)
	return usecases.NewRenderService(regions, elev, &mockImagery{}, renderer, cache, 512)
}

// --- Tests ---

func TestRenderService_ReliefPNG(t *testing.T) {
	svc := newRenderService(t, &mockElevation{}, nil)

	data, err := svc.ReliefPNG(context.Background(), "urdaibai", 64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data) == 0 || string(data[1:4]) != "PNG" {
		t.Errorf("output does not look like a PNG (%d bytes)", len(data))
	}
}

func TestRenderService_ReliefPNG_CachesResult(t *testing.T) {
	elev := &mockElevation{}
	cache := newMemCache()
	svc := newRenderService(t, elev, cache)

	if _, err := svc.ReliefPNG(context.Background(), "urdaibai", 64); err != nil {
		t.Fatalf("first render: %v", err)
	}
	if _, err := svc.ReliefPNG(context.Background(), "urdaibai", 64); err != nil {
		t.Fatalf("second render: %v", err)
	}
	if elev.calls != 1 {
		t.Errorf("expected a single upstream fetch, got %d", elev.calls)
	}
}

func TestRenderService_MapPNG(t *testing.T) {
	svc := newRenderService(t, &mockElevation{}, nil)

	data, err := svc.MapPNG(context.Background(), "urdaibai", 64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data) == 0 || string(data[1:4]) != "PNG" {
		t.Errorf("output does not look like a PNG (%d bytes)", len(data))
	}
}

func TestRenderService_MajorDimCap(t *testing.T) {
	svc := newRenderService(t, &mockElevation{}, nil)
	_, err := svc.ReliefPNG(context.Background(), "urdaibai", 4096)
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for oversized render, got %v", err)
	}
}

func TestRenderService_UnknownRegion(t *testing.T) {
	svc := newRenderService(t, &mockElevation{}, nil)
	_, err := svc.ReliefPNG(context.Background(), "nowhere", 64)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRenderService_UpstreamFailurePropagates(t *testing.T) {
	elev := &mockElevation{
		fetchFn: func(ctx context.Context, box domain.BoundingBox, size domain.ImageSize) (*domain.ElevationGrid, error) {
			return nil, errors.New("tile endpoint unavailable")
		},
	}
	svc := newRenderService(t, elev, nil)
	if _, err := svc.ReliefPNG(context.Background(), "urdaibai", 64); err == nil {
		t.Error("expected upstream error to propagate")
	}
}

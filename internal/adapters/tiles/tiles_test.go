package tiles

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aitorve/terramotion/internal/core/domain"
	"github.com/aitorve/terramotion/internal/pkg/config"
)

func TestFracTile_Origin(t *testing.T) {
	// Lat/lon (0,0) sits at the center of the tile grid at every zoom.
	for zoom := 0; zoom <= 10; zoom++ {
		x, y := FracTile(0, 0, zoom)
		half := math.Pow(2, float64(zoom)) / 2
		if math.Abs(x-half) > 1e-9 || math.Abs(y-half) > 1e-9 {
			t.Errorf("zoom %d: expected (%v,%v), got (%v,%v)", zoom, half, half, x, y)
		}
	}
}

func TestFracTile_Antimeridian(t *testing.T) {
	x, _ := FracTile(-180, 0, 3)
	if x != 0 {
		t.Errorf("expected x=0 at lon -180, got %v", x)
	}
	x, _ = FracTile(180, 0, 3)
	if x != 8 {
		t.Errorf("expected x=8 at lon 180 zoom 3, got %v", x)
	}
}

func TestFracTile_NorthIsUp(t *testing.T) {
	_, yNorth := FracTile(0, 60, 5)
	_, ySouth := FracTile(0, -60, 5)
	if yNorth >= ySouth {
		t.Errorf("expected northern latitude above southern: yNorth=%v ySouth=%v", yNorth, ySouth)
	}
}

func TestZoomFor(t *testing.T) {
	c := NewClient("test", config.TileConfig{URLTemplate: "http://x/{z}/{x}/{y}.png", MaxZoom: 14})
	box := domain.BoundingBox{MinLon: -2.75, MinLat: 43.3, MaxLon: -2.6, MaxLat: 43.45}

	zSmall := c.ZoomFor(box, 256)
	zLarge := c.ZoomFor(box, 2048)
	if zLarge < zSmall {
		t.Errorf("larger output should not use a lower zoom: %d < %d", zLarge, zSmall)
	}
	if zLarge > 14 {
		t.Errorf("zoom must not exceed max, got %d", zLarge)
	}

	// The chosen zoom really does cover the requested width.
	x0, _ := FracTile(box.MinLon, box.MaxLat, zSmall)
	x1, _ := FracTile(box.MaxLon, box.MinLat, zSmall)
	if (x1-x0)*TileSize < 256 {
		t.Errorf("zoom %d spans only %v px", zSmall, (x1-x0)*TileSize)
	}
}

func TestZoomFor_HugeRequestCapsAtMax(t *testing.T) {
	c := NewClient("test", config.TileConfig{URLTemplate: "http://x/{z}/{x}/{y}.png", MaxZoom: 6})
	box := domain.BoundingBox{MinLon: 0, MinLat: 0, MaxLon: 0.001, MaxLat: 0.001}
	if z := c.ZoomFor(box, 1<<20); z != 6 {
		t.Errorf("expected max zoom 6, got %d", z)
	}
}

// tileServer serves a solid-color generated PNG for any tile request.
func tileServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		img := image.NewRGBA(image.Rect(0, 0, TileSize, TileSize))
		for i := 0; i < len(img.Pix); i += 4 {
			img.Pix[i] = 0x30
			img.Pix[i+1] = 0x60
			img.Pix[i+2] = 0x90
			img.Pix[i+3] = 0xff
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			t.Errorf("encode tile: %v", err)
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(buf.Bytes())
	}))
}

func TestStitch(t *testing.T) {
	srv := tileServer(t)
	defer srv.Close()

	c := NewClient("test", config.TileConfig{
		URLTemplate:    srv.URL + "/{z}/{x}/{y}.png",
		MaxZoom:        14,
		MaxConcurrency: 4,
	})

	box := domain.BoundingBox{MinLon: -2.75, MinLat: 43.3, MaxLon: -2.6, MaxLat: 43.45}
	zoom := c.ZoomFor(box, 512)

	img, err := c.Stitch(context.Background(), box, zoom)
	if err != nil {
		t.Fatalf("stitch: %v", err)
	}
	if img.Bounds().Dx() < 512 {
		t.Errorf("expected at least 512 px wide, got %d", img.Bounds().Dx())
	}

	// Every pixel comes from our solid tiles.
	got := img.RGBAAt(img.Bounds().Dx()/2, img.Bounds().Dy()/2)
	want := color.RGBA{0x30, 0x60, 0x90, 0xff}
	if got != want {
		t.Errorf("expected %v at center, got %v", want, got)
	}
}

func TestStitch_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient("test", config.TileConfig{
		URLTemplate:    srv.URL + "/{z}/{x}/{y}.png",
		MaxZoom:        14,
		MaxConcurrency: 2,
	})

	box := domain.BoundingBox{MinLon: 0, MinLat: 0, MaxLon: 1, MaxLat: 1}
	if _, err := c.Stitch(context.Background(), box, 8); err == nil {
		t.Fatal("expected error when tiles are missing")
	}
}

func TestStitch_InvalidBox(t *testing.T) {
	c := NewClient("test", config.TileConfig{URLTemplate: "http://x/{z}/{x}/{y}.png", MaxZoom: 14})
	box := domain.BoundingBox{MinLon: 1, MinLat: 0, MaxLon: 0, MaxLat: 1}
	if _, err := c.Stitch(context.Background(), box, 8); err == nil {
		t.Fatal("expected error for misordered box")
	}
}

package render_test

import (
	"bytes"
	"image"
	"image/gif"
	"testing"

	"github.com/aitorve/terramotion/internal/adapters/render"
	"github.com/aitorve/terramotion/internal/core/domain"
)

// rampGrid returns a 4x2 grid sloping from 0m (west) to 300m (east).
func rampGrid() *domain.ElevationGrid {
	g := domain.NewElevationGrid(4, 2)
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			g.Set(x, y, float64(x)*100)
		}
	}
	return g
}

func TestRelief_Normalization(t *testing.T) {
	r, err := render.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	img := r.Relief(rampGrid())
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 2 {
		t.Fatalf("expected 4x2 image, got %v", img.Bounds())
	}

	lowest := img.RGBAAt(0, 0)
	highest := img.RGBAAt(3, 0)
	if lowest.R != 0 {
		t.Errorf("lowest cell should be black, got %d", lowest.R)
	}
	if highest.R != 255 {
		t.Errorf("highest cell should be white, got %d", highest.R)
	}
	mid := img.RGBAAt(1, 0)
	if mid.R <= lowest.R || mid.R >= highest.R {
		t.Errorf("interior cell must fall between extremes, got %d", mid.R)
	}
}

func TestRelief_FlatGridDoesNotDivideByZero(t *testing.T) {
	r, _ := render.New()
	g := domain.NewElevationGrid(3, 3)
	for i := range g.Samples {
		g.Samples[i] = 42
	}
	img := r.Relief(g)
	px := img.RGBAAt(1, 1)
	if px.A != 255 {
		t.Errorf("flat grid must still render opaque pixels, got alpha %d", px.A)
	}
}

func TestFlood_TintsBelowLevel(t *testing.T) {
	r, _ := render.New()
	grid := rampGrid()
	base := r.Relief(grid)

	flooded := r.Flood(base, grid, 150)

	// Cells at 0m and 100m are under water; 200m and 300m are dry.
	if flooded.RGBAAt(0, 0) == base.RGBAAt(0, 0) {
		t.Error("cell below water level was not tinted")
	}
	if flooded.RGBAAt(1, 0) == base.RGBAAt(1, 0) {
		t.Error("cell at 100m below 150m level was not tinted")
	}
	if flooded.RGBAAt(3, 0) != base.RGBAAt(3, 0) {
		t.Error("dry cell must not be tinted")
	}
	// The input frame must stay untouched.
	if base.RGBAAt(0, 0).B != base.RGBAAt(0, 0).R {
		t.Error("Flood mutated its input frame")
	}
}

func TestCompose_AlphaExtremes(t *testing.T) {
	r, _ := render.New()
	base := solid(8, 8, 255, 0, 0)
	overlay := solid(8, 8, 0, 0, 255)

	zero := r.Compose(base, overlay, 0)
	if got := zero.RGBAAt(4, 4); got.R != 255 || got.B != 0 {
		t.Errorf("alpha 0 must keep the base, got %v", got)
	}

	full := r.Compose(base, overlay, 1)
	if got := full.RGBAAt(4, 4); got.B != 255 || got.R != 0 {
		t.Errorf("alpha 1 must show the overlay, got %v", got)
	}

	half := r.Compose(base, overlay, 0.5)
	if got := half.RGBAAt(4, 4); got.R == 0 || got.B == 0 {
		t.Errorf("alpha 0.5 must mix both layers, got %v", got)
	}
}

func TestDrawLabels_PlacesWithoutError(t *testing.T) {
	r, _ := render.New()
	frame := solid(200, 100, 30, 30, 30)
	box := domain.BoundingBox{MinLon: 0, MinLat: 0, MaxLon: 2, MaxLat: 1}

	labels := []domain.Label{{Text: "Summit", Point: domain.GeoPoint{Lat: 0.5, Lon: 1}}}
	if err := r.DrawLabels(frame, box, labels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Something near the center must no longer be the flat background.
	changed := false
	for y := 40; y < 60 && !changed; y++ {
		for x := 80; x < 120; x++ {
			if px := frame.RGBAAt(x, y); px.R != 30 {
				changed = true
				break
			}
		}
	}
	if !changed {
		t.Error("label text left no pixels near its anchor")
	}
}

func TestDrawLabels_DegenerateBox(t *testing.T) {
	r, _ := render.New()
	frame := solid(10, 10, 0, 0, 0)
	bad := domain.BoundingBox{MinLon: 1, MinLat: 1, MaxLon: 1, MaxLat: 2}
	err := r.DrawLabels(frame, bad, []domain.Label{{Text: "x", Point: domain.GeoPoint{}}})
	if err == nil {
		t.Error("expected error for degenerate bounding box")
	}
}

func TestEncodeGIF_RoundTrip(t *testing.T) {
	frames := []image.Image{
		solid(16, 16, 255, 0, 0),
		solid(16, 16, 0, 255, 0),
		solid(16, 16, 0, 0, 255),
	}

	data, err := render.EncodeGIF(frames, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	decoded, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded.Image) != 3 {
		t.Errorf("expected 3 frames, got %d", len(decoded.Image))
	}
	for i, d := range decoded.Delay {
		if d != 5 {
			t.Errorf("frame %d: expected delay 5, got %d", i, d)
		}
	}
}

func TestEncodeGIF_NoFrames(t *testing.T) {
	if _, err := render.EncodeGIF(nil, 5); err == nil {
		t.Error("expected error for empty frame list")
	}
}

func TestEncodePNG(t *testing.T) {
	data, err := render.EncodePNG(solid(4, 4, 10, 20, 30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data) == 0 || string(data[1:4]) != "PNG" {
		t.Errorf("output does not look like a PNG (%d bytes)", len(data))
	}
}

func solid(w, h int, r, g, b uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(x, y)
			img.Pix[i] = r
			img.Pix[i+1] = g
			img.Pix[i+2] = b
			img.Pix[i+3] = 255
		}
	}
	return img
}

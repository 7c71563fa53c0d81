// Package elevation fetches terrain rasters from a terrarium-encoded
// elevation tile endpoint (e.g. the public AWS elevation-tiles-prod set).
package elevation

import (
	"context"
	"fmt"
	"math"

	"github.com/aitorve/terramotion/internal/adapters/tiles"
	"github.com/aitorve/terramotion/internal/core/domain"
	"github.com/aitorve/terramotion/internal/pkg/config"
)

// Source implements ports.ElevationSource over a tile endpoint.
type Source struct {
	tiles *tiles.Client
}

// New creates an elevation source from endpoint configuration.
func New(cfg config.TileConfig) *Source {
	return &Source{tiles: tiles.NewClient("elevation", cfg)}
}

// FetchGrid downloads the tiles covering box, decodes the terrarium
// encoding, and resamples the result to exactly size.Width x size.Height.
func (s *Source) FetchGrid(ctx context.Context, box domain.BoundingBox, size domain.ImageSize) (*domain.ElevationGrid, error) {
	if size.Width <= 0 || size.Height <= 0 {
		return nil, fmt.Errorf("%w: grid size must be positive, got %dx%d", domain.ErrInvalidArgument, size.Width, size.Height)
	}

	zoom := s.tiles.ZoomFor(box, size.Width)
	img, err := s.tiles.Stitch(ctx, box, zoom)
	if err != nil {
		return nil, fmt.Errorf("elevation stitch: %w", err)
	}

	// Decode at native tile resolution, then resample the numeric grid.
	// Resampling the encoded pixels directly would interpolate across the
	// terrarium byte boundaries and corrupt elevations.
	b := img.Bounds()
	native := domain.NewElevationGrid(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			i := img.PixOffset(b.Min.X+x, b.Min.Y+y)
			r := float64(img.Pix[i])
			g := float64(img.Pix[i+1])
			bl := float64(img.Pix[i+2])
			native.Set(x, y, r*256+g+bl/256-32768)
		}
	}

	return resample(native, size.Width, size.Height), nil
}

// resample bilinearly interpolates a grid to the requested dimensions.
func resample(src *domain.ElevationGrid, width, height int) *domain.ElevationGrid {
	if src.Width == width && src.Height == height {
		return src
	}

	dst := domain.NewElevationGrid(width, height)
	sx := float64(src.Width-1) / float64(max(width-1, 1))
	sy := float64(src.Height-1) / float64(max(height-1, 1))

	for y := 0; y < height; y++ {
		fy := float64(y) * sy
		y0 := int(math.Floor(fy))
		y1 := min(y0+1, src.Height-1)
		wy := fy - float64(y0)
		for x := 0; x < width; x++ {
			fx := float64(x) * sx
			x0 := int(math.Floor(fx))
			x1 := min(x0+1, src.Width-1)
			wx := fx - float64(x0)

			top := src.At(x0, y0)*(1-wx) + src.At(x1, y0)*wx
			bottom := src.At(x0, y1)*(1-wx) + src.At(x1, y1)*wx
			dst.Set(x, y, top*(1-wy)+bottom*wy)
		}
	}
	return dst
}

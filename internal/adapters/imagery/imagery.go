// Package imagery fetches map raster overlays from an OSM-style tile
// endpoint.
package imagery

import (
	"context"
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/aitorve/terramotion/internal/adapters/tiles"
	"github.com/aitorve/terramotion/internal/core/domain"
	"github.com/aitorve/terramotion/internal/pkg/config"
)

// Source implements ports.ImagerySource over a tile endpoint.
type Source struct {
	tiles *tiles.Client
}

// New creates an imagery source from endpoint configuration.
func New(cfg config.TileConfig) *Source {
	return &Source{tiles: tiles.NewClient("imagery", cfg)}
}

// FetchImage downloads the tiles covering box and resamples the stitched
// result to exactly size.Width x size.Height.
func (s *Source) FetchImage(ctx context.Context, box domain.BoundingBox, size domain.ImageSize) (image.Image, error) {
	if size.Width <= 0 || size.Height <= 0 {
		return nil, fmt.Errorf("%w: image size must be positive, got %dx%d", domain.ErrInvalidArgument, size.Width, size.Height)
	}

	zoom := s.tiles.ZoomFor(box, size.Width)
	stitched, err := s.tiles.Stitch(ctx, box, zoom)
	if err != nil {
		return nil, fmt.Errorf("imagery stitch: %w", err)
	}

	if stitched.Bounds().Dx() == size.Width && stitched.Bounds().Dy() == size.Height {
		return stitched, nil
	}

	out := image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
	xdraw.ApproxBiLinear.Scale(out, out.Bounds(), stitched, stitched.Bounds(), xdraw.Src, nil)
	return out, nil
}

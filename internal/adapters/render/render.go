// Package render composes elevation grids and map imagery into static
// frames and animated GIFs. The relief output is a plain min..max
// normalization; there is deliberately no hillshading model here.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/png"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/aitorve/terramotion/internal/core/domain"
	"github.com/aitorve/terramotion/internal/pkg/geospatial"
)

// Water tint drawn over flooded cells.
var waterColor = color.RGBA{R: 38, G: 92, B: 153, A: 255}

// Renderer draws frames. Safe for concurrent use; the font face is
// parsed once at construction.
type Renderer struct {
	fontFace func(size float64) font.Face
}

// New parses the embedded label font and returns a ready renderer.
func New() (*Renderer, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse label font: %w", err)
	}
	return &Renderer{
		fontFace: func(size float64) font.Face {
			return truetype.NewFace(f, &truetype.Options{Size: size})
		},
	}, nil
}

// Relief renders the grid as a grayscale image, linearly normalized
// between the grid's own min and max elevation.
func (r *Renderer) Relief(grid *domain.ElevationGrid) *image.RGBA {
	lo, hi := grid.MinMax()
	span := hi - lo
	if span <= 0 {
		span = 1
	}

	img := image.NewRGBA(image.Rect(0, 0, grid.Width, grid.Height))
	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			v := uint8(math.Round((grid.At(x, y) - lo) / span * 255))
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

// Flood tints every cell at or below waterLevel, returning a new frame.
func (r *Renderer) Flood(base image.Image, grid *domain.ElevationGrid, waterLevel float64) *image.RGBA {
	out := image.NewRGBA(base.Bounds())
	draw.Draw(out, out.Bounds(), base, base.Bounds().Min, draw.Src)

	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			if grid.At(x, y) <= waterLevel {
				out.SetRGBA(x, y, waterColor)
			}
		}
	}
	return out
}

// ToRGBA copies an image into a drawable RGBA frame.
func (r *Renderer) ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out
}

// Compose alpha-blends overlay on top of base. alpha is clamped to [0,1].
func (r *Renderer) Compose(base, overlay image.Image, alpha float64) *image.RGBA {
	alpha = math.Max(0, math.Min(1, alpha))

	out := image.NewRGBA(base.Bounds())
	draw.Draw(out, out.Bounds(), base, base.Bounds().Min, draw.Src)
	if alpha > 0 {
		mask := image.NewUniform(color.Alpha{A: uint8(math.Round(alpha * 255))})
		draw.DrawMask(out, out.Bounds(), overlay, overlay.Bounds().Min, mask, image.Point{}, draw.Over)
	}
	return out
}

// DrawLabels renders region labels onto the frame, positioned by mapping
// each label's point through the region's bounding box.
func (r *Renderer) DrawLabels(frame *image.RGBA, box domain.BoundingBox, labels []domain.Label) error {
	if len(labels) == 0 {
		return nil
	}

	w := frame.Bounds().Dx()
	h := frame.Bounds().Dy()

	dc := gg.NewContextForRGBA(frame)
	dc.SetFontFace(r.fontFace(math.Max(12, float64(w)/60)))

	for _, l := range labels {
		pos, err := geospatial.MapToPixel(l.Point, box, w, h)
		if err != nil {
			return fmt.Errorf("place label %q: %w", l.Text, err)
		}

		// Halo behind the text keeps labels readable over dark terrain.
		dc.SetRGB(0, 0, 0)
		for _, d := range [][2]float64{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
			dc.DrawStringAnchored(l.Text, float64(pos.X)+d[0], float64(pos.Y)+d[1], 0.5, 0.5)
		}
		dc.SetRGB(1, 1, 1)
		dc.DrawStringAnchored(l.Text, float64(pos.X), float64(pos.Y), 0.5, 0.5)
	}
	return nil
}

// EncodePNG serializes a frame.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeGIF palettizes the frames and assembles an animated GIF.
// delay is per frame in hundredths of a second.
func EncodeGIF(frames []image.Image, delay int) ([]byte, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: no frames to encode", domain.ErrInvalidArgument)
	}
	if delay < 0 {
		delay = 0
	}

	out := &gif.GIF{}
	for _, frame := range frames {
		p := image.NewPaletted(frame.Bounds(), palette.Plan9)
		draw.FloydSteinberg.Draw(p, frame.Bounds(), frame, frame.Bounds().Min)
		out.Image = append(out.Image, p)
		out.Delay = append(out.Delay, delay)
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, out); err != nil {
		return nil, fmt.Errorf("encode gif: %w", err)
	}
	return buf.Bytes(), nil
}

// Package tiles fetches and stitches slippy-map raster tiles
// ({z}/{x}/{y} endpoints) covering a geographic bounding box.
package tiles

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aitorve/terramotion/internal/core/domain"
	"github.com/aitorve/terramotion/internal/pkg/config"
	"github.com/aitorve/terramotion/internal/pkg/metrics"
)

// TileSize is the standard web map tile dimension in pixels.
const TileSize = 256

// Client downloads tiles from one endpoint with bounded concurrency.
type Client struct {
	source      string // metrics label, e.g. "elevation" or "imagery"
	urlTemplate string
	maxZoom     int
	concurrency int
	userAgent   string
	http        *http.Client
}

// NewClient builds a tile client from endpoint configuration.
func NewClient(source string, cfg config.TileConfig) *Client {
	concurrency := cfg.MaxConcurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		source:      source,
		urlTemplate: cfg.URLTemplate,
		maxZoom:     cfg.MaxZoom,
		concurrency: concurrency,
		userAgent:   cfg.UserAgent,
		http:        &http.Client{Timeout: timeout},
	}
}

// FracTile converts a WGS84 point to fractional tile coordinates at the
// given zoom (web-mercator tile scheme).
func FracTile(lon, lat float64, zoom int) (x, y float64) {
	n := math.Pow(2, float64(zoom))
	x = (lon + 180.0) / 360.0 * n
	latRad := lat * math.Pi / 180.0
	y = (1.0 - math.Log(math.Tan(latRad)+1.0/math.Cos(latRad))/math.Pi) / 2.0 * n
	return x, y
}

// ZoomFor picks the lowest zoom at which the box spans at least
// pixelWidth tile pixels east-west, capped by the endpoint's max zoom.
func (c *Client) ZoomFor(box domain.BoundingBox, pixelWidth int) int {
	for z := 0; z < c.maxZoom; z++ {
		x0, _ := FracTile(box.MinLon, box.MaxLat, z)
		x1, _ := FracTile(box.MaxLon, box.MinLat, z)
		if (x1-x0)*TileSize >= float64(pixelWidth) {
			return z
		}
	}
	return c.maxZoom
}

// Stitch downloads every tile intersecting box at the given zoom,
// assembles them, and crops the result to the box's exact pixel extent.
func (c *Client) Stitch(ctx context.Context, box domain.BoundingBox, zoom int) (*image.RGBA, error) {
	if err := box.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()

	// Fractional tile extent: north-west corner up to south-east corner.
	x0f, y0f := FracTile(box.MinLon, box.MaxLat, zoom)
	x1f, y1f := FracTile(box.MaxLon, box.MinLat, zoom)

	tx0, ty0 := int(math.Floor(x0f)), int(math.Floor(y0f))
	tx1, ty1 := int(math.Floor(x1f)), int(math.Floor(y1f))

	cols := tx1 - tx0 + 1
	rows := ty1 - ty0 + 1
	canvas := image.NewRGBA(image.Rect(0, 0, cols*TileSize, rows*TileSize))

	type fetched struct {
		tx, ty int
		img    image.Image
		err    error
	}

	work := make(chan [2]int)
	results := make(chan fetched)

	var wg sync.WaitGroup
	for i := 0; i < c.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range work {
				img, err := c.fetchTile(ctx, zoom, t[0], t[1])
				results <- fetched{t[0], t[1], img, err}
			}
		}()
	}

	go func() {
		for ty := ty0; ty <= ty1; ty++ {
			for tx := tx0; tx <= tx1; tx++ {
				work <- [2]int{tx, ty}
			}
		}
		close(work)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var firstErr error
	for r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		dx := (r.tx - tx0) * TileSize
		dy := (r.ty - ty0) * TileSize
		rect := image.Rect(dx, dy, dx+TileSize, dy+TileSize)
		draw.Draw(canvas, rect, r.img, image.Point{}, draw.Src)
	}
	if firstErr != nil {
		return nil, firstErr
	}

	// Crop to the box's exact pixel rectangle within the stitched canvas.
	px0 := int(math.Round((x0f - float64(tx0)) * TileSize))
	py0 := int(math.Round((y0f - float64(ty0)) * TileSize))
	px1 := int(math.Round((x1f - float64(tx0)) * TileSize))
	py1 := int(math.Round((y1f - float64(ty0)) * TileSize))
	if px1 <= px0 {
		px1 = px0 + 1
	}
	if py1 <= py0 {
		py1 = py0 + 1
	}

	cropped := image.NewRGBA(image.Rect(0, 0, px1-px0, py1-py0))
	draw.Draw(cropped, cropped.Bounds(), canvas, image.Point{X: px0, Y: py0}, draw.Src)

	metrics.TileFetchDuration.WithLabelValues(c.source).Observe(time.Since(start).Seconds())
	slog.Debug("stitched tiles",
		"source", c.source, "zoom", zoom, "tiles", cols*rows,
		"size", fmt.Sprintf("%dx%d", cropped.Bounds().Dx(), cropped.Bounds().Dy()))

	return cropped, nil
}

func (c *Client) fetchTile(ctx context.Context, z, x, y int) (image.Image, error) {
	url := strings.NewReplacer(
		"{z}", fmt.Sprint(z),
		"{x}", fmt.Sprint(x),
		"{y}", fmt.Sprint(y),
	).Replace(c.urlTemplate)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.TileFetchErrors.WithLabelValues(c.source).Inc()
		return nil, fmt.Errorf("fetch tile %d/%d/%d: %w", z, x, y, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.TileFetchErrors.WithLabelValues(c.source).Inc()
		return nil, fmt.Errorf("fetch tile %d/%d/%d: unexpected status %d", z, x, y, resp.StatusCode)
	}

	img, err := png.Decode(resp.Body)
	if err != nil {
		metrics.TileFetchErrors.WithLabelValues(c.source).Inc()
		return nil, fmt.Errorf("decode tile %d/%d/%d: %w", z, x, y, err)
	}

	metrics.TilesFetched.WithLabelValues(c.source).Inc()
	return img, nil
}

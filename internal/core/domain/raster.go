package domain

import "math"

// ElevationGrid is a row-major grid of elevation samples in meters.
// Row 0 is the north edge of the source bounding box.
type ElevationGrid struct {
	Width   int       `json:"width"`
	Height  int       `json:"height"`
	Samples []float64 `json:"samples"`
}

// NewElevationGrid allocates a zeroed grid.
func NewElevationGrid(width, height int) *ElevationGrid {
	return &ElevationGrid{
		Width:   width,
		Height:  height,
		Samples: make([]float64, width*height),
	}
}

// At returns the sample at column x, row y.
func (g *ElevationGrid) At(x, y int) float64 {
	return g.Samples[y*g.Width+x]
}

// Set stores a sample at column x, row y.
func (g *ElevationGrid) Set(x, y int, v float64) {
	g.Samples[y*g.Width+x] = v
}

// MinMax returns the lowest and highest samples in the grid.
func (g *ElevationGrid) MinMax() (lo, hi float64) {
	lo, hi = math.MaxFloat64, -math.MaxFloat64
	for _, v := range g.Samples {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

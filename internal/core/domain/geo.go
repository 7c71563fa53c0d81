package domain

import "fmt"

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// BoundingBox is a rectangular geographic region defined by its
// southwest and northeast corners in decimal degrees.
type BoundingBox struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// Validate enforces southwest/northeast corner ordering with non-zero
// extent on both axes. A degenerate box produces meaningless aspect
// ratios downstream, so it is rejected here.
func (b BoundingBox) Validate() error {
	if b.MinLon >= b.MaxLon {
		return fmt.Errorf("%w: min_lon %v must be less than max_lon %v", ErrInvalidBoundingBox, b.MinLon, b.MaxLon)
	}
	if b.MinLat >= b.MaxLat {
		return fmt.Errorf("%w: min_lat %v must be less than max_lat %v", ErrInvalidBoundingBox, b.MinLat, b.MaxLat)
	}
	return nil
}

// Width returns the east-west extent in degrees of longitude.
func (b BoundingBox) Width() float64 { return b.MaxLon - b.MinLon }

// Height returns the north-south extent in degrees of latitude.
func (b BoundingBox) Height() float64 { return b.MaxLat - b.MinLat }

// Center returns the geographic midpoint of the box.
func (b BoundingBox) Center() GeoPoint {
	return GeoPoint{
		Lat: (b.MinLat + b.MaxLat) / 2,
		Lon: (b.MinLon + b.MaxLon) / 2,
	}
}

// Contains reports whether the point lies inside or on the edge of the box.
func (b BoundingBox) Contains(p GeoPoint) bool {
	return p.Lon >= b.MinLon && p.Lon <= b.MaxLon &&
		p.Lat >= b.MinLat && p.Lat <= b.MaxLat
}

// Axis identifies which image dimension drove a proportional sizing.
type Axis string

const (
	AxisWidth  Axis = "width"
	AxisHeight Axis = "height"
)

// ImageSize is a pixel grid sized to match a bounding box's aspect ratio.
// MajorAxis records which dimension was pinned to the requested length.
type ImageSize struct {
	Width     int  `json:"width"`
	Height    int  `json:"height"`
	MajorAxis Axis `json:"major_axis"`
}

// PixelPosition is a location in image-pixel space, top-left origin.
// Points outside the source bounding box extrapolate beyond
// [0,width]x[0,height]; that is legal, not an error.
type PixelPosition struct {
	X int `json:"x"`
	Y int `json:"y"`
}

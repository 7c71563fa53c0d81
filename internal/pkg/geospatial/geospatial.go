// Package geospatial holds the pure coordinate and image-geometry math
// shared by render services, adapters, and handlers.
package geospatial

import (
	"fmt"
	"math"

	"github.com/aitorve/terramotion/internal/core/domain"
)

const earthRadiusKm = 6371.0

// FitImageSize derives a pixel grid whose aspect ratio matches the box's
// ground-distance aspect ratio, with the larger axis pinned to majorDim.
//
// Longitude extent is scaled by cos(mean latitude) to approximate true
// east-west ground distance in degrees-of-latitude units. This is a
// documented approximation, not a geodetic projection; it is plenty for
// sizing raster downloads.
func FitImageSize(box domain.BoundingBox, majorDim int) (domain.ImageSize, error) {
	if err := box.Validate(); err != nil {
		return domain.ImageSize{}, err
	}
	if majorDim <= 0 {
		return domain.ImageSize{}, fmt.Errorf("%w: major dimension must be positive, got %d", domain.ErrInvalidArgument, majorDim)
	}

	meanLat := (box.MinLat + box.MaxLat) / 2
	projWidth := box.Width() * math.Cos(toRad(meanLat))
	projHeight := box.Height()

	if projWidth >= projHeight {
		h := int(math.Round(float64(majorDim) * projHeight / projWidth))
		if h < 1 {
			h = 1
		}
		return domain.ImageSize{Width: majorDim, Height: h, MajorAxis: domain.AxisWidth}, nil
	}
	w := int(math.Round(float64(majorDim) * projWidth / projHeight))
	if w < 1 {
		w = 1
	}
	return domain.ImageSize{Width: w, Height: majorDim, MajorAxis: domain.AxisHeight}, nil
}

// MapToPixel places a geographic point on an image rendered from box.
// Row 0 is the image's top edge and corresponds to the box's north edge,
// so the southwest corner maps to (0, height) and the northeast corner
// to (width, 0). Points outside the box extrapolate; callers decide
// whether an out-of-range position is acceptable.
func MapToPixel(p domain.GeoPoint, box domain.BoundingBox, width, height int) (domain.PixelPosition, error) {
	if err := box.Validate(); err != nil {
		return domain.PixelPosition{}, err
	}
	if width <= 0 || height <= 0 {
		return domain.PixelPosition{}, fmt.Errorf("%w: image size must be positive, got %dx%d", domain.ErrInvalidArgument, width, height)
	}

	fx := (p.Lon - box.MinLon) / box.Width()
	fy := (box.MaxLat - p.Lat) / box.Height()

	return domain.PixelPosition{
		X: int(math.Round(fx * float64(width))),
		Y: int(math.Round(fy * float64(height))),
	}, nil
}

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c * 1000 // meters
}

// GroundExtent returns a box's approximate east-west and north-south
// ground distances in meters, measured along its southern and western
// edges. Used to report how much terrain a region covers.
func GroundExtent(box domain.BoundingBox) (ewMeters, nsMeters float64) {
	ewMeters = Haversine(box.MinLat, box.MinLon, box.MinLat, box.MaxLon)
	nsMeters = Haversine(box.MinLat, box.MinLon, box.MaxLat, box.MinLon)
	return ewMeters, nsMeters
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

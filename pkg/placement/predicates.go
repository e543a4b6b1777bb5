package placement

import (
	"github.com/beetlebugorg/mappopup/internal/geom"
	"github.com/paulmach/orb/planar"
)

// IsPointInViewport reports whether p lies within bounds, edges included.
// A point with a NaN coordinate is never inside.
func IsPointInViewport(p Point, bounds Bounds) bool {
	return bounds.ContainsPoint(p)
}

// ValidateClickPosition reports whether a click is plausible for a region
// whose semantic center is referenceCenter.
//
// The click must be finite, within the geographic range, and no further than
// 1 degree from referenceCenter measured as a Euclidean distance in
// degree-space. This is a coarse sanity bound against corrupted event data,
// not a geodesic distance.
func ValidateClickPosition(p, referenceCenter Point) bool {
	return validateClick(p, referenceCenter, DefaultOptions().MaxClickDistance)
}

// ValidateClickCoordinates validates a raw [lat, lon] tuple as delivered by
// an event source. Anything other than two finite numbers is rejected.
func ValidateClickCoordinates(values []float64, referenceCenter Point) bool {
	lat, lon, err := geom.ValidatePair(values)
	if err != nil {
		return false
	}
	return ValidateClickPosition(Point{Lat: lat, Lon: lon}, referenceCenter)
}

func validateClick(p, referenceCenter Point, maxDistance float64) bool {
	if geom.ValidateCoordinate(p.Lat, p.Lon) != nil {
		return false
	}
	return degreeDistance(p, referenceCenter) <= maxDistance
}

// degreeDistance is the Euclidean distance between a and b in degree-space.
// NaN inputs yield NaN, which compares false against any bound.
func degreeDistance(a, b Point) float64 {
	return planar.Distance(a.orb(), b.orb())
}

// CreateFallbackBounds returns a small rectangle around center for use when
// the real viewport cannot be determined. The rectangle extends 0.01 degrees
// on every side, limited to the geographic range.
func CreateFallbackBounds(center Point) Bounds {
	return fallbackBounds(center, DefaultOptions().FallbackBoundsMargin)
}

func fallbackBounds(center Point, margin float64) Bounds {
	c := worldBounds.Clamp(center)
	return NewBounds(c.Lat, c.Lat, c.Lon, c.Lon).Expand(margin).Clip(worldBounds)
}

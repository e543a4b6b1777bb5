package geom

import (
	"math"
)

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ValidateCoordinate validates a single coordinate pair.
// Coordinates must be finite and within valid geographic bounds.
func ValidateCoordinate(lat, lon float64) error {
	if !IsFinite(lat) || !IsFinite(lon) {
		return &ErrMalformedCoordinate{Values: []float64{lat, lon}}
	}
	if lat < -90.0 || lat > 90.0 {
		return &ErrInvalidCoordinate{Lat: lat, Lon: lon}
	}
	if lon < -180.0 || lon > 180.0 {
		return &ErrInvalidCoordinate{Lat: lat, Lon: lon}
	}
	return nil
}

// ValidatePair validates a raw [lat, lon] tuple as received from event data.
func ValidatePair(values []float64) (lat, lon float64, err error) {
	if len(values) != 2 {
		return 0, 0, &ErrMalformedCoordinate{Values: values}
	}
	lat, lon = values[0], values[1]
	if err := ValidateCoordinate(lat, lon); err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}

// Clamp limits v to [lo, hi]. A NaN value maps to the middle of the range.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo + (hi-lo)/2
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

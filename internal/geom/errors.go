package geom

import (
	"fmt"
)

// ErrInvalidCoordinate indicates coordinate out of valid bounds
type ErrInvalidCoordinate struct {
	Lat, Lon float64
}

func (e *ErrInvalidCoordinate) Error() string {
	return fmt.Sprintf("invalid coordinate: lat=%f lon=%f (lat must be ±90, lon must be ±180)",
		e.Lat, e.Lon)
}

// ErrMalformedCoordinate indicates a coordinate that is not a pair of finite numbers
type ErrMalformedCoordinate struct {
	Values []float64
}

func (e *ErrMalformedCoordinate) Error() string {
	if len(e.Values) != 2 {
		return fmt.Sprintf("malformed coordinate: expected 2 values [lat, lon], got %d", len(e.Values))
	}
	return fmt.Sprintf("malformed coordinate: non-finite value in %v", e.Values)
}

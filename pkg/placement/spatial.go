package placement

import (
	"fmt"

	"github.com/beetlebugorg/mappopup/internal/geom"
	"github.com/paulmach/orb"
)

// Point is a geographic coordinate in WGS-84 decimal degrees.
//
// Latitude is in [-90, 90] and longitude in [-180, 180]; there is no altitude.
type Point struct {
	Lat float64
	Lon float64
}

// LatLon returns a Point for the given latitude and longitude.
func LatLon(lat, lon float64) Point {
	return Point{Lat: lat, Lon: lon}
}

// Valid reports whether p is finite and within the geographic range.
func (p Point) Valid() bool {
	return geom.ValidateCoordinate(p.Lat, p.Lon) == nil
}

func (p Point) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", p.Lat, p.Lon)
}

func (p Point) orb() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// Bounds represents a geographic bounding box in WGS-84 coordinates.
//
// Coordinates are in decimal degrees.
type Bounds struct {
	MinLon float64 // Western edge
	MaxLon float64 // Eastern edge
	MinLat float64 // Southern edge
	MaxLat float64 // Northern edge
}

// worldBounds covers the whole geographic range.
var worldBounds = Bounds{MinLon: -180, MaxLon: 180, MinLat: -90, MaxLat: 90}

// NewBounds builds Bounds from its south, north, west and east edges.
func NewBounds(south, north, west, east float64) Bounds {
	return Bounds{MinLon: west, MaxLon: east, MinLat: south, MaxLat: north}
}

// Contains returns true if the point (lon, lat) is within the bounds.
// Edges are inclusive.
func (b Bounds) Contains(lon, lat float64) bool {
	return lon >= b.MinLon && lon <= b.MaxLon &&
		lat >= b.MinLat && lat <= b.MaxLat
}

// ContainsPoint returns true if p is within the bounds.
func (b Bounds) ContainsPoint(p Point) bool {
	return b.Contains(p.Lon, p.Lat)
}

// Expand returns a new Bounds expanded by the given margin in all directions.
//
// Margin is in decimal degrees.
func (b Bounds) Expand(margin float64) Bounds {
	return fromOrbBound(b.orb().Pad(margin))
}

// Clip returns the part of b that lies inside limit.
func (b Bounds) Clip(limit Bounds) Bounds {
	return Bounds{
		MinLon: max(b.MinLon, limit.MinLon),
		MaxLon: min(b.MaxLon, limit.MaxLon),
		MinLat: max(b.MinLat, limit.MinLat),
		MaxLat: min(b.MaxLat, limit.MaxLat),
	}
}

// Clamp returns p moved onto the nearest point inside the bounds.
func (b Bounds) Clamp(p Point) Point {
	return Point{
		Lat: geom.Clamp(p.Lat, b.MinLat, b.MaxLat),
		Lon: geom.Clamp(p.Lon, b.MinLon, b.MaxLon),
	}
}

func (b Bounds) String() string {
	return fmt.Sprintf("[S %.6f, N %.6f, W %.6f, E %.6f]", b.MinLat, b.MaxLat, b.MinLon, b.MaxLon)
}

func (b Bounds) orb() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLon, b.MinLat},
		Max: orb.Point{b.MaxLon, b.MaxLat},
	}
}

func fromOrbBound(ob orb.Bound) Bounds {
	return Bounds{
		MinLon: ob.Left(),
		MaxLon: ob.Right(),
		MinLat: ob.Bottom(),
		MaxLat: ob.Top(),
	}
}

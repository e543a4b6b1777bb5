package geom

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// Constants for the spherical Web Mercator projection used by slippy maps.
const (
	TileSize = 256.0

	// MaxMercatorLat is arctan(sinh(π)), the latitude where the square world ends.
	MaxMercatorLat = 85.0511287798066

	halfCircumference = math.Pi * orb.EarthRadius
)

// WorldSize returns the width and height of the world in pixels at zoom.
func WorldSize(zoom int) float64 {
	return TileSize * math.Exp2(float64(zoom))
}

// LatLonToWorld converts WGS-84 coordinates to absolute world pixel
// coordinates at the given zoom level. Latitude is clamped to the Mercator
// limits.
func LatLonToWorld(lat, lon float64, zoom int) (x, y float64) {
	lat = Clamp(lat, -MaxMercatorLat, MaxMercatorLat)
	m := project.WGS84.ToMercator(orb.Point{lon, lat})

	size := WorldSize(zoom)
	x = (m[0] + halfCircumference) / (2 * halfCircumference) * size
	y = (halfCircumference - m[1]) / (2 * halfCircumference) * size
	return x, y
}

// WorldToLatLon is the inverse of LatLonToWorld.
func WorldToLatLon(x, y float64, zoom int) (lat, lon float64) {
	size := WorldSize(zoom)
	mx := x/size*2*halfCircumference - halfCircumference
	my := halfCircumference - y/size*2*halfCircumference

	p := project.Mercator.ToWGS84(orb.Point{mx, my})
	return p.Lat(), p.Lon()
}

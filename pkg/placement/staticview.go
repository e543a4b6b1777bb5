package placement

import (
	"sync"

	"github.com/beetlebugorg/mappopup/internal/geom"
)

// StaticView is an in-process MapView backed by a spherical Web Mercator
// projection. It holds a fixed center, integer zoom, container size and set of
// overlay controls, which makes it suitable for tests, command-line tools and
// server-side previews.
//
// A non-nil failure set with Fail makes every query return that error, which
// simulates a detached host map.
//
// StaticView is safe for concurrent use.
type StaticView struct {
	mu       sync.Mutex
	center   Point
	zoom     int
	size     Size
	controls []ControlRect
	fail     error
	queries  int
}

// NewStaticView creates a view centered on center at the given zoom.
func NewStaticView(center Point, zoom int, size Size) *StaticView {
	return &StaticView{center: center, zoom: zoom, size: size}
}

// SetControls replaces the overlay controls.
func (v *StaticView) SetControls(controls ...ControlRect) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.controls = append([]ControlRect(nil), controls...)
}

// PanTo moves the view center.
func (v *StaticView) PanTo(center Point) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.center = center
}

// SetZoom changes the zoom level.
func (v *StaticView) SetZoom(zoom int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.zoom = zoom
}

// Resize changes the container size.
func (v *StaticView) Resize(size Size) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.size = size
}

// Fail makes every subsequent query return err. Pass nil to recover.
func (v *StaticView) Fail(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.fail = err
}

// Queries returns how many map queries have been answered or failed.
func (v *StaticView) Queries() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.queries
}

// query records a call and returns the configured failure, if any.
// Must be called with v.mu locked.
func (v *StaticView) query() error {
	v.queries++
	return v.fail
}

func (v *StaticView) Bounds() (Bounds, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.query(); err != nil {
		return Bounds{}, err
	}

	north, west := v.unproject(PixelPoint{X: 0, Y: 0})
	south, east := v.unproject(PixelPoint{X: v.size.Width, Y: v.size.Height})
	return Bounds{
		MinLon: geom.Clamp(west, -180, 180),
		MaxLon: geom.Clamp(east, -180, 180),
		MinLat: south,
		MaxLat: north,
	}, nil
}

func (v *StaticView) Center() (Point, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.query(); err != nil {
		return Point{}, err
	}
	return v.center, nil
}

func (v *StaticView) Zoom() (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.query(); err != nil {
		return 0, err
	}
	return v.zoom, nil
}

func (v *StaticView) Size() (Size, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.query(); err != nil {
		return Size{}, err
	}
	return v.size, nil
}

func (v *StaticView) LatLngToContainerPoint(p Point) (PixelPoint, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.query(); err != nil {
		return PixelPoint{}, err
	}

	cx, cy := geom.LatLonToWorld(v.center.Lat, v.center.Lon, v.zoom)
	x, y := geom.LatLonToWorld(p.Lat, p.Lon, v.zoom)
	return PixelPoint{
		X: x - cx + v.size.Width/2,
		Y: y - cy + v.size.Height/2,
	}, nil
}

func (v *StaticView) ContainerPointToLatLng(px PixelPoint) (Point, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.query(); err != nil {
		return Point{}, err
	}
	lat, lon := v.unproject(px)
	return Point{Lat: lat, Lon: lon}, nil
}

func (v *StaticView) ListControlRects() ([]ControlRect, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.query(); err != nil {
		return nil, err
	}
	return append([]ControlRect(nil), v.controls...), nil
}

// unproject converts container pixels to latitude and longitude.
// Must be called with v.mu locked.
func (v *StaticView) unproject(px PixelPoint) (lat, lon float64) {
	cx, cy := geom.LatLonToWorld(v.center.Lat, v.center.Lon, v.zoom)
	return geom.WorldToLatLon(cx+px.X-v.size.Width/2, cy+px.Y-v.size.Height/2, v.zoom)
}

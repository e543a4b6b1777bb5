package placement

import (
	"fmt"
)

// MapView is the slice of a host map widget the placement engine needs.
//
// Implementations wrap a live pan/zoom map. Any method may fail, for example
// while the map is being torn down; such errors are returned to the caller
// wrapped in a *MapQueryError and are never swallowed by the engine.
type MapView interface {
	// Bounds returns the geographic rectangle currently visible.
	Bounds() (Bounds, error)

	// Center returns the geographic center of the view.
	Center() (Point, error)

	// Zoom returns the current integer zoom level.
	Zoom() (int, error)

	// Size returns the pixel size of the map container.
	Size() (Size, error)

	// LatLngToContainerPoint projects a geographic point into container pixels.
	LatLngToContainerPoint(p Point) (PixelPoint, error)

	// ContainerPointToLatLng unprojects container pixels to a geographic point.
	ContainerPointToLatLng(p PixelPoint) (Point, error)
}

// ControlLister is implemented by map views that can enumerate the overlay
// controls mounted on top of the map. Rectangles must be container-relative;
// see TranslateControlRects for page-relative sources.
//
// Views that do not implement ControlLister are treated as having no controls.
type ControlLister interface {
	ListControlRects() ([]ControlRect, error)
}

// MapQueryError reports a failure of the host map while it was being queried.
type MapQueryError struct {
	Op  string // Name of the failing map operation
	Err error
}

func (e *MapQueryError) Error() string {
	return fmt.Sprintf("map query %s: %v", e.Op, e.Err)
}

func (e *MapQueryError) Unwrap() error {
	return e.Err
}

func queryErr(op string, err error) error {
	return &MapQueryError{Op: op, Err: err}
}

func toContainer(view MapView, p Point) (PixelPoint, error) {
	px, err := view.LatLngToContainerPoint(p)
	if err != nil {
		return PixelPoint{}, queryErr("latLngToContainerPoint", err)
	}
	return px, nil
}

func toLatLng(view MapView, px PixelPoint) (Point, error) {
	p, err := view.ContainerPointToLatLng(px)
	if err != nil {
		return Point{}, queryErr("containerPointToLatLng", err)
	}
	return p, nil
}

func containerSize(view MapView) (Size, error) {
	size, err := view.Size()
	if err != nil {
		return Size{}, queryErr("size", err)
	}
	return size, nil
}

// listControls returns the mounted controls of view, or nil when the view
// cannot enumerate them.
func listControls(view MapView) ([]ControlRect, error) {
	lister, ok := view.(ControlLister)
	if !ok {
		return nil, nil
	}
	rects, err := lister.ListControlRects()
	if err != nil {
		return nil, queryErr("listControlRects", err)
	}
	return rects, nil
}

// ViewportSnapshot is an immutable record of the map state at one instant.
//
// PixelBounds is the container rectangle in container-relative pixels, so its
// Left and Top are always zero.
type ViewportSnapshot struct {
	Bounds      Bounds
	Center      Point
	Zoom        int
	PixelBounds PixelRect
}

// Size returns the container size recorded in the snapshot.
func (s ViewportSnapshot) Size() Size {
	return Size{Width: s.PixelBounds.Width(), Height: s.PixelBounds.Height()}
}

// ContainsPoint reports whether p is visible in the snapshot.
func (s ViewportSnapshot) ContainsPoint(p Point) bool {
	return IsPointInViewport(p, s.Bounds)
}

// ReadSnapshot queries view directly, bypassing any cache.
func ReadSnapshot(view MapView) (ViewportSnapshot, error) {
	bounds, err := view.Bounds()
	if err != nil {
		return ViewportSnapshot{}, queryErr("bounds", err)
	}
	center, err := view.Center()
	if err != nil {
		return ViewportSnapshot{}, queryErr("center", err)
	}
	zoom, err := view.Zoom()
	if err != nil {
		return ViewportSnapshot{}, queryErr("zoom", err)
	}
	size, err := containerSize(view)
	if err != nil {
		return ViewportSnapshot{}, err
	}

	return ViewportSnapshot{
		Bounds:      bounds,
		Center:      center,
		Zoom:        zoom,
		PixelBounds: ContainerRect(size),
	}, nil
}

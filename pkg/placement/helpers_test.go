package placement

import (
	"errors"
	"math"
	"testing"
)

var (
	tokyo       = LatLon(35.6762, 139.6503)
	tokyoClick  = LatLon(35.7, 139.7)
	osaka       = LatLon(34.6937, 135.5023)
	errDetached = errors.New("map container detached")
)

// tokyoView returns a desktop-sized view centered on Tokyo at zoom 10.
func tokyoView() *StaticView {
	return NewStaticView(tokyo, 10, Size{Width: 1024, Height: 768})
}

// noControlsView hides the ControlLister implementation of a view.
type noControlsView struct {
	MapView
}

// pixelOf projects p through view, failing the test on error.
func pixelOf(t testing.TB, view MapView, p Point) PixelPoint {
	t.Helper()
	px, err := view.LatLngToContainerPoint(p)
	if err != nil {
		t.Fatalf("Failed to project %v: %v", p, err)
	}
	return px
}

// pointAt unprojects px through view, failing the test on error.
func pointAt(t testing.TB, view MapView, px PixelPoint) Point {
	t.Helper()
	p, err := view.ContainerPointToLatLng(px)
	if err != nil {
		t.Fatalf("Failed to unproject %v: %v", px, err)
	}
	return p
}

func assertPixelNear(t *testing.T, got, want PixelPoint, tol float64) {
	t.Helper()
	if math.Abs(got.X-want.X) > tol || math.Abs(got.Y-want.Y) > tol {
		t.Errorf("Expected pixel %v, got %v", want, got)
	}
}

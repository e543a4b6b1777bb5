package placement

import (
	"fmt"

	"github.com/beetlebugorg/mappopup/internal/geom"
	"github.com/golang/geo/r2"
)

// PixelPoint is a position in container-relative pixels.
// The origin is the top-left corner of the map container and Y grows downwards.
type PixelPoint struct {
	X float64
	Y float64
}

// Add returns p shifted by (dx, dy).
func (p PixelPoint) Add(dx, dy float64) PixelPoint {
	return PixelPoint{X: p.X + dx, Y: p.Y + dy}
}

func (p PixelPoint) String() string {
	return fmt.Sprintf("(%.1fpx, %.1fpx)", p.X, p.Y)
}

// Size is a width and height in pixels.
//
// It describes both the map container and the popup. Popup sizes are supplied
// by the caller; the engine never measures rendered content.
type Size struct {
	Width  float64
	Height float64
}

// Area returns Width*Height.
func (s Size) Area() float64 {
	return s.Width * s.Height
}

// PixelRect is an axis-aligned rectangle in container-relative pixels.
type PixelRect struct {
	Left   float64
	Right  float64
	Top    float64
	Bottom float64
}

// Width returns Right-Left.
func (r PixelRect) Width() float64 { return r.Right - r.Left }

// Height returns Bottom-Top.
func (r PixelRect) Height() float64 { return r.Bottom - r.Top }

// Contains reports whether p lies inside r, edges included.
func (r PixelRect) Contains(p PixelPoint) bool {
	return geom.Within(r.r2(), p.X, p.Y)
}

// Overlaps reports whether r and other share interior area.
func (r PixelRect) Overlaps(other PixelRect) bool {
	return geom.Overlaps(r.r2(), other.r2())
}

// OverlapArea returns the area shared by r and other.
func (r PixelRect) OverlapArea(other PixelRect) float64 {
	return geom.OverlapArea(r.r2(), other.r2())
}

// Pad returns r grown by margin pixels on every side.
func (r PixelRect) Pad(margin float64) PixelRect {
	return fromR2(geom.Pad(r.r2(), margin))
}

// Translate returns r shifted by (dx, dy).
func (r PixelRect) Translate(dx, dy float64) PixelRect {
	return PixelRect{Left: r.Left + dx, Right: r.Right + dx, Top: r.Top + dy, Bottom: r.Bottom + dy}
}

func (r PixelRect) r2() r2.Rect {
	return geom.Rect(r.Left, r.Right, r.Top, r.Bottom)
}

func fromR2(r r2.Rect) PixelRect {
	return PixelRect{Left: r.X.Lo, Right: r.X.Hi, Top: r.Y.Lo, Bottom: r.Y.Hi}
}

// PopupRect returns the rectangle a popup of the given size covers when its
// anchor sits at the bottom-center of the popup.
func PopupRect(anchor PixelPoint, popup Size) PixelRect {
	return fromR2(geom.CalloutRect(anchor.X, anchor.Y, popup.Width, popup.Height))
}

// ContainerRect returns the pixel rectangle of a container of the given size.
func ContainerRect(size Size) PixelRect {
	return PixelRect{Left: 0, Right: size.Width, Top: 0, Bottom: size.Height}
}

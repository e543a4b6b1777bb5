package geom

import (
	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"
)

// Rect builds a pixel rectangle from its edges. Y grows downwards.
func Rect(left, right, top, bottom float64) r2.Rect {
	return r2.Rect{
		X: r1.Interval{Lo: left, Hi: right},
		Y: r1.Interval{Lo: top, Hi: bottom},
	}
}

// CalloutRect returns the rectangle covered by a callout of the given size
// whose anchor sits at the bottom-center edge.
func CalloutRect(anchorX, anchorY, width, height float64) r2.Rect {
	return Rect(anchorX-width/2, anchorX+width/2, anchorY-height, anchorY)
}

// Pad grows r by margin on every side.
func Pad(r r2.Rect, margin float64) r2.Rect {
	if margin == 0 {
		return r
	}
	return r.ExpandedByMargin(margin)
}

// Overlaps reports whether a and b share interior area.
// Rectangles that only touch along an edge do not overlap.
func Overlaps(a, b r2.Rect) bool {
	if a.IsEmpty() || b.IsEmpty() {
		return false
	}
	return a.X.InteriorIntersects(b.X) && a.Y.InteriorIntersects(b.Y)
}

// OverlapArea returns the area of the intersection of a and b, or 0.
func OverlapArea(a, b r2.Rect) float64 {
	if !Overlaps(a, b) {
		return 0
	}
	size := a.Intersection(b).Size()
	return size.X * size.Y
}

// Within reports whether the point (x, y) lies inside r, edges included.
func Within(r r2.Rect, x, y float64) bool {
	return r.ContainsPoint(r2.Point{X: x, Y: y})
}

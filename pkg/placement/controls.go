package placement

import (
	"fmt"

	"github.com/dhconnelly/rtreego"
)

// Corner identifies the map corner an overlay control is anchored to.
type Corner int

const (
	CornerUnknown Corner = iota
	CornerTopLeft
	CornerTopRight
	CornerBottomLeft
	CornerBottomRight
)

func (c Corner) String() string {
	switch c {
	case CornerTopLeft:
		return "top-left"
	case CornerTopRight:
		return "top-right"
	case CornerBottomLeft:
		return "bottom-left"
	case CornerBottomRight:
		return "bottom-right"
	default:
		return "unknown"
	}
}

// ParseCorner converts a corner name such as "top-left" to a Corner.
// Unrecognised names map to CornerUnknown.
func ParseCorner(s string) Corner {
	switch s {
	case "top-left", "topleft":
		return CornerTopLeft
	case "top-right", "topright":
		return CornerTopRight
	case "bottom-left", "bottomleft":
		return CornerBottomLeft
	case "bottom-right", "bottomright":
		return CornerBottomRight
	default:
		return CornerUnknown
	}
}

// ControlRect describes the screen footprint of a mounted overlay control,
// such as zoom buttons or a layer switcher.
type ControlRect struct {
	PixelRect
	Corner Corner
}

func (c ControlRect) String() string {
	return fmt.Sprintf("%s[%.0f,%.0f %.0fx%.0f]", c.Corner, c.Left, c.Top, c.Width(), c.Height())
}

// InferCorner guesses which corner of a container the control hugs from the
// position of its center. Controls that already carry a corner keep it.
func InferCorner(c ControlRect, container Size) Corner {
	if c.Corner != CornerUnknown {
		return c.Corner
	}
	cx := c.Left + c.Width()/2
	cy := c.Top + c.Height()/2
	left := cx < container.Width/2
	top := cy < container.Height/2
	switch {
	case top && left:
		return CornerTopLeft
	case top:
		return CornerTopRight
	case left:
		return CornerBottomLeft
	default:
		return CornerBottomRight
	}
}

// TranslateControlRects converts page-relative control rectangles to
// container-relative ones by subtracting the container's page origin.
func TranslateControlRects(rects []ControlRect, containerOrigin PixelPoint) []ControlRect {
	out := make([]ControlRect, len(rects))
	for i, r := range rects {
		out[i] = ControlRect{
			PixelRect: r.Translate(-containerOrigin.X, -containerOrigin.Y),
			Corner:    r.Corner,
		}
	}
	return out
}

// controlIndex stores padded control rectangles in an R-tree so candidate
// popup positions only test the controls near them.
type controlIndex struct {
	rtree    *rtreego.Rtree
	controls []indexedControl
}

// indexedControl wraps a control with its padded footprint for the R-tree.
type indexedControl struct {
	control ControlRect
	padded  PixelRect
}

// minRectLength keeps degenerate rectangles acceptable to rtreego.NewRect.
const minRectLength = 1e-9

// Bounds implements rtreego.Spatial interface.
func (c *indexedControl) Bounds() rtreego.Rect {
	return pixelRectToRtree(c.padded)
}

func pixelRectToRtree(r PixelRect) rtreego.Rect {
	point := rtreego.Point{r.Left, r.Top}
	lengths := []float64{
		max(r.Width(), minRectLength),
		max(r.Height(), minRectLength),
	}
	rect, _ := rtreego.NewRect(point, lengths)
	return rect
}

// newControlIndex builds the index. Controls are expanded by padding first;
// controls without area are dropped since they cannot overlap anything.
func newControlIndex(controls []ControlRect, padding float64) *controlIndex {
	// Create R-tree (2D, min=25 children, max=50 children)
	idx := &controlIndex{rtree: rtreego.NewTree(2, 25, 50)}
	for _, c := range controls {
		if !(c.Width() > 0) || !(c.Height() > 0) {
			continue
		}
		ic := &indexedControl{control: c, padded: c.Pad(padding)}
		idx.controls = append(idx.controls, *ic)
		idx.rtree.Insert(ic)
	}
	return idx
}

// overlapping returns the controls whose padded footprint overlaps rect, in
// no particular order.
func (idx *controlIndex) overlapping(rect PixelRect) []*indexedControl {
	if idx == nil || len(idx.controls) == 0 {
		return nil
	}
	if !(rect.Width() > 0) || !(rect.Height() > 0) {
		return nil
	}

	// The R-tree only narrows the search; the exact test below decides.
	spatials := idx.rtree.SearchIntersect(pixelRectToRtree(rect.Pad(1)))

	var hits []*indexedControl
	for _, spatial := range spatials {
		ic := spatial.(*indexedControl)
		if ic.padded.Overlaps(rect) {
			hits = append(hits, ic)
		}
	}
	return hits
}

// collides reports whether rect overlaps any padded control.
func (idx *controlIndex) collides(rect PixelRect) bool {
	return len(idx.overlapping(rect)) > 0
}

// overlapArea returns the summed pairwise intersection area of rect with
// every padded control.
func (idx *controlIndex) overlapArea(rect PixelRect) float64 {
	total := 0.0
	for _, ic := range idx.overlapping(rect) {
		total += ic.padded.OverlapArea(rect)
	}
	return total
}

package placement

// collisionOffset is one candidate displacement, in units of the configured
// offset distance.
type collisionOffset struct {
	name   string
	dx, dy float64
}

// collisionOffsets lists the candidates in priority order: the four axis
// directions first, then the diagonals.
var collisionOffsets = []collisionOffset{
	{"up", 0, -1},
	{"left", -1, 0},
	{"right", 1, 0},
	{"down", 0, 1},
	{"up-left", -1, -1},
	{"up-right", 1, -1},
	{"down-left", -1, 1},
	{"down-right", 1, 1},
}

// CheckControlCollision reports whether a popup anchored at pixel would
// overlap any overlay control of view. Each control is first expanded by
// padding pixels on every side.
func CheckControlCollision(view MapView, pixel PixelPoint, popup Size, padding float64) (bool, error) {
	controls, err := listControls(view)
	if err != nil {
		return false, err
	}
	idx := newControlIndex(controls, padding)
	return idx.collides(PopupRect(pixel, popup)), nil
}

// CollisionReport describes how a popup position relates to the controls.
type CollisionReport struct {
	Controls    []ControlRect // Controls whose padded footprint overlaps the popup
	OverlapArea float64       // Summed pairwise overlap in square pixels
}

// Collides reports whether any control overlaps.
func (r CollisionReport) Collides() bool {
	return len(r.Controls) > 0
}

// ReportControlCollision lists the controls a popup anchored at pixel would
// overlap, together with the total overlap area.
func ReportControlCollision(view MapView, pixel PixelPoint, popup Size, padding float64) (CollisionReport, error) {
	controls, err := listControls(view)
	if err != nil {
		return CollisionReport{}, err
	}
	idx := newControlIndex(controls, padding)
	rect := PopupRect(pixel, popup)

	var report CollisionReport
	for _, ic := range idx.overlapping(rect) {
		report.Controls = append(report.Controls, ic.control)
		report.OverlapArea += ic.padded.OverlapArea(rect)
	}
	return report, nil
}

// FindCollisionFreePosition relocates originalPoint when a popup anchored
// there would overlap an overlay control.
//
// Without a collision the original point is returned unchanged. Otherwise
// eight candidates 50 pixels away are tried in order (up, left, right, down,
// then the diagonals), skipping any that leave the container, and the first
// collision-free one wins. When every candidate collides, the one with the
// least total overlap area is returned, earlier candidates winning ties.
// The search always produces a position.
func FindCollisionFreePosition(view MapView, originalPoint Point, popup Size, padding float64) (Point, error) {
	size, err := containerSize(view)
	if err != nil {
		return Point{}, err
	}
	return findCollisionFree(DefaultOptions().CollisionOffset, view, originalPoint, popup, padding, size)
}

func findCollisionFree(offset float64, view MapView, originalPoint Point, popup Size, padding float64, container Size) (Point, error) {
	origin, err := toContainer(view, originalPoint)
	if err != nil {
		return Point{}, err
	}
	controls, err := listControls(view)
	if err != nil {
		return Point{}, err
	}

	idx := newControlIndex(controls, padding)
	if !idx.collides(PopupRect(origin, popup)) {
		return originalPoint, nil
	}

	best, found := searchCandidates(idx, origin, popup, container, offset)
	if !found {
		// No candidate fits inside the container; stay as close as possible.
		bounds := ContainerRect(container)
		best = PixelPoint{
			X: min(max(origin.X, bounds.Left), bounds.Right),
			Y: min(max(origin.Y, bounds.Top), bounds.Bottom),
		}
		if best == origin {
			return originalPoint, nil
		}
	}
	return toLatLng(view, best)
}

// searchCandidates returns the first collision-free candidate, or else the
// least-overlapping one. found is false when no candidate lies inside the
// container.
func searchCandidates(idx *controlIndex, origin PixelPoint, popup Size, container Size, offset float64) (best PixelPoint, found bool) {
	bounds := ContainerRect(container)

	var inBounds []PixelPoint
	for _, o := range collisionOffsets {
		candidate := origin.Add(o.dx*offset, o.dy*offset)
		if !bounds.Contains(candidate) {
			continue
		}
		if !idx.collides(PopupRect(candidate, popup)) {
			return candidate, true
		}
		inBounds = append(inBounds, candidate)
	}
	if len(inBounds) == 0 {
		return PixelPoint{}, false
	}

	best = inBounds[0]
	bestArea := idx.overlapArea(PopupRect(best, popup))
	for _, candidate := range inBounds[1:] {
		if area := idx.overlapArea(PopupRect(candidate, popup)); area < bestArea {
			best, bestArea = candidate, area
		}
	}
	return best, true
}

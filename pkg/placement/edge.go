package placement

// AdjustPositionForVisibility nudges point so a popup of the given size,
// anchored at its bottom-center, stays inside the map container with a
// 20 pixel margin. The result is clamped to viewportBounds, so it is always
// inside them even when projection drift near the edges would push it out.
//
// Errors from view are returned as *MapQueryError.
func AdjustPositionForVisibility(point Point, viewportBounds Bounds, popup Size, view MapView) (Point, error) {
	size, err := containerSize(view)
	if err != nil {
		return Point{}, err
	}
	return adjustForVisibility(DefaultOptions().EdgePadding, point, viewportBounds, popup, view, size)
}

func adjustForVisibility(padding float64, point Point, viewportBounds Bounds, popup Size, view MapView, container Size) (Point, error) {
	anchor, err := toContainer(view, point)
	if err != nil {
		return Point{}, err
	}

	dx, dy := edgeShift(anchor, popup, container, padding)
	if dx == 0 && dy == 0 {
		return viewportBounds.Clamp(point), nil
	}

	shifted, err := toLatLng(view, anchor.Add(dx, dy))
	if err != nil {
		return Point{}, err
	}
	return viewportBounds.Clamp(shifted), nil
}

// edgeShift returns the pixel offset that moves the popup rectangle back
// inside the container inset by padding. The left and top edges win when the
// popup is larger than the space available.
func edgeShift(anchor PixelPoint, popup Size, container Size, padding float64) (dx, dy float64) {
	rect := PopupRect(anchor, popup)

	if rect.Left < padding {
		dx = padding - rect.Left
	} else if rect.Right > container.Width-padding {
		dx = container.Width - padding - rect.Right
	}

	if rect.Top < padding {
		dy = padding - rect.Top
	} else if rect.Bottom > container.Height-padding {
		dy = container.Height - padding - rect.Bottom
	}

	return dx, dy
}

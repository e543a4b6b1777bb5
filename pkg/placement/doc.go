// Package placement positions a single popup over an interactive pan/zoom map.
//
// The popup stays fully visible, stays tied to the place it describes, and
// keeps clear of the overlay controls anchored to the map corners (zoom
// buttons, layer switchers, attribution).
//
// # Basic Usage
//
//	view := placement.NewStaticView(placement.LatLon(35.68, 139.69), 10,
//	    placement.Size{Width: 1024, Height: 768})
//
//	p := placement.NewPlacer(placement.DefaultOptions())
//	res, err := p.Place(view, placement.Interaction{
//	    Region:         "Tokyo",
//	    SemanticCenter: placement.LatLon(35.6762, 139.6503),
//	    Click:          placement.LatLon(35.7, 139.7),
//	    Popup:          placement.Size{Width: 240, Height: 120},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Position)
//
// # Placement Flow
//
// Each interaction goes through three stages:
//
//  1. DetermineSmartPosition picks the base anchor. The region's semantic
//     center is used while it is visible; otherwise the point the user
//     interacted with is used, so the map does not have to pan.
//  2. AdjustPositionForVisibility shifts the anchor so the popup, drawn above
//     its anchor, keeps a margin from the container edges.
//  3. FindCollisionFreePosition moves the popup off any overlay control by
//     trying eight fixed offsets, falling back to the least-overlapping one.
//
// AdjustPositionForVisibilityAndControls chains 2, 3 and 2 again, and every
// point it returns lies inside the viewport bounds it was given.
//
// # Host Maps
//
// The engine talks to the host map through the MapView interface and, when
// available, ControlLister. Map failures are returned as *MapQueryError and
// never swallowed; Placer.PlaceWithFallback shows the recommended recovery.
// StaticView is a Web Mercator implementation for tests and tools.
//
// # Caching
//
// ViewportCache memoizes viewport snapshots for a short TTL. It is an
// explicit object owned by a Placer, so independent placers never share
// state. Call InvalidateOnMapStateChange from the map's move-end handler.
package placement

package placement

import "time"

// Options configures placement behavior.
//
// All pixel values are container-relative pixels and all distances on the
// globe are decimal degrees.
type Options struct {
	// EdgePadding is the clearance kept between the popup and the container edges.
	// Default: 20
	EdgePadding float64

	// CollisionPadding expands every overlay control before overlap tests.
	// Default: 10
	CollisionPadding float64

	// CollisionOffset is the distance of each candidate tried when the popup
	// collides with a control.
	// Default: 50
	CollisionOffset float64

	// ExtremeZoomMin and ExtremeZoomMax delimit the zoom levels treated as
	// extreme (zoom <= ExtremeZoomMin or zoom >= ExtremeZoomMax).
	// Default: 4 and 16
	ExtremeZoomMin int
	ExtremeZoomMax int

	// SmallViewportMinSide and SmallViewportMinArea classify small viewports:
	// a container narrower or shorter than MinSide, or smaller than MinArea,
	// is small.
	// Default: 480 and 300000
	SmallViewportMinSide float64
	SmallViewportMinArea float64

	// MaxClickDistance bounds the Euclidean degree-space distance between a
	// click and the semantic center of the region it targets.
	// Default: 1.0
	MaxClickDistance float64

	// FallbackBoundsMargin is the half-size of the synthetic bounds used when
	// the real viewport cannot be read.
	// Default: 0.01
	FallbackBoundsMargin float64

	// CacheTTL is how long a viewport snapshot stays valid.
	// Default: 1s
	CacheTTL time.Duration

	// CacheMaxEntries bounds the viewport cache (LRU). Set to 0 for unlimited.
	// Default: 64
	CacheMaxEntries int

	// DisableCache makes every placement read the map directly.
	// Default: false
	DisableCache bool

	// SlowPlacement is the duration above which a placement is logged as slow.
	// Default: 50ms
	SlowPlacement time.Duration
}

// DefaultOptions returns default options.
func DefaultOptions() Options {
	return Options{
		EdgePadding:          20,
		CollisionPadding:     10,
		CollisionOffset:      50,
		ExtremeZoomMin:       4,
		ExtremeZoomMax:       16,
		SmallViewportMinSide: 480,
		SmallViewportMinArea: 300000,
		MaxClickDistance:     1.0,
		FallbackBoundsMargin: 0.01,
		CacheTTL:             time.Second,
		CacheMaxEntries:      64,
		DisableCache:         false,
		SlowPlacement:        50 * time.Millisecond,
	}
}

// isExtremeZoom reports whether zoom is at or past either extreme.
func (o Options) isExtremeZoom(zoom int) bool {
	return zoom >= o.ExtremeZoomMax || zoom <= o.ExtremeZoomMin
}

// isSmallViewport reports whether a container of the given size is small.
func (o Options) isSmallViewport(size Size) bool {
	return size.Width < o.SmallViewportMinSide ||
		size.Height < o.SmallViewportMinSide ||
		size.Area() < o.SmallViewportMinArea
}

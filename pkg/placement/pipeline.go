package placement

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geo"
)

// AdjustPositionForVisibilityAndControls refines an anchor point for display.
//
// It keeps the popup inside the container, moves it off any overlay control,
// and then re-applies the container constraint because the control search may
// have pushed it back out. The result is always inside viewportBounds.
// This is the single entry point a renderer calls once the anchor is known.
func AdjustPositionForVisibilityAndControls(point Point, viewportBounds Bounds, popup Size, view MapView) (Point, error) {
	size, err := containerSize(view)
	if err != nil {
		return Point{}, err
	}
	pos, _, err := refine(DefaultOptions(), point, viewportBounds, popup, view, size)
	return pos, err
}

// refine runs edge avoidance, control avoidance and edge avoidance again.
// moved reports whether control avoidance relocated the point.
func refine(opts Options, point Point, viewportBounds Bounds, popup Size, view MapView, container Size) (pos Point, moved bool, err error) {
	edged, err := adjustForVisibility(opts.EdgePadding, point, viewportBounds, popup, view, container)
	if err != nil {
		return Point{}, false, fmt.Errorf("edge avoidance: %w", err)
	}
	free, err := findCollisionFree(opts.CollisionOffset, view, edged, popup, opts.CollisionPadding, container)
	if err != nil {
		return Point{}, false, fmt.Errorf("control avoidance: %w", err)
	}
	final, err := adjustForVisibility(opts.EdgePadding, free, viewportBounds, popup, view, container)
	if err != nil {
		return Point{}, false, fmt.Errorf("edge avoidance: %w", err)
	}
	return final, free != edged, nil
}

// Interaction is a request to open a popup for a region.
type Interaction struct {
	Region         string // Name of the targeted region, used for logging only
	SemanticCenter Point  // The region's predefined representative point
	Click          Point  // Where the user interacted
	Popup          Size   // Size of the popup to place
}

// Result is the outcome of a placement.
type Result struct {
	ID       string          // Correlation id used in log records
	Config   PlacementConfig // Decision, with AdjustedPosition set
	Position Point           // Final anchor handed to the renderer
	Moved    bool            // True when control avoidance relocated the anchor
	Degraded bool            // True when the map failed and a fallback was used
	Err      error           // The map failure behind a degraded result
	Duration time.Duration
}

// Recorder receives an observation for every finished placement.
type Recorder interface {
	ObservePlacement(res Result)
}

// Placer runs the full placement flow with its own options, viewport cache,
// logger and metrics recorder. The zero value is not usable; create one with
// NewPlacer.
//
// Example:
//
//	p := placement.NewPlacer(placement.DefaultOptions()).WithLogger(logger)
//
//	res := p.PlaceWithFallback(view, placement.Interaction{
//	    Region:         "Tokyo",
//	    SemanticCenter: placement.LatLon(35.6762, 139.6503),
//	    Click:          placement.LatLon(35.7, 139.7),
//	    Popup:          placement.Size{Width: 240, Height: 120},
//	})
//	renderer.Open(res.Position)
type Placer struct {
	opts     Options
	cache    *ViewportCache
	logger   *slog.Logger
	recorder Recorder
}

// NewPlacer creates a placer. Unless opts.DisableCache is set it owns a fresh
// viewport cache sized from opts.
func NewPlacer(opts Options) *Placer {
	p := &Placer{
		opts:   opts,
		logger: slog.New(slog.DiscardHandler),
	}
	if !opts.DisableCache {
		p.cache = NewViewportCache(opts.CacheTTL, opts.CacheMaxEntries)
	}
	return p
}

// WithLogger sets the logger. It returns p.
func (p *Placer) WithLogger(logger *slog.Logger) *Placer {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// WithRecorder sets the metrics recorder. It returns p.
func (p *Placer) WithRecorder(r Recorder) *Placer {
	p.recorder = r
	return p
}

// WithCache replaces the viewport cache; nil disables caching. It returns p.
func (p *Placer) WithCache(c *ViewportCache) *Placer {
	p.cache = c
	return p
}

// Cache returns the viewport cache, or nil when caching is disabled.
func (p *Placer) Cache() *ViewportCache {
	return p.cache
}

// Options returns the options the placer was built with.
func (p *Placer) Options() Options {
	return p.opts
}

// Snapshot returns the current viewport snapshot through the cache.
func (p *Placer) Snapshot(view MapView) (ViewportSnapshot, error) {
	return p.cache.Get(view)
}

// ValidateClickPosition applies the click sanity check with the placer's
// distance bound.
func (p *Placer) ValidateClickPosition(click, referenceCenter Point) bool {
	return validateClick(click, referenceCenter, p.opts.MaxClickDistance)
}

// CreateFallbackBounds builds synthetic bounds with the placer's margin.
func (p *Placer) CreateFallbackBounds(center Point) Bounds {
	return fallbackBounds(center, p.opts.FallbackBoundsMargin)
}

// DetermineSmartPosition is the package-level DetermineSmartPosition using
// the placer's thresholds and reading zoom and size through the cache.
func (p *Placer) DetermineSmartPosition(semanticCenter, interactionPoint Point, viewportBounds Bounds, view MapView) (PlacementConfig, error) {
	if view == nil {
		return decide(p.opts, semanticCenter, interactionPoint, viewportBounds, nil), nil
	}
	snap, err := p.cache.Get(view)
	if err != nil {
		return PlacementConfig{}, err
	}
	vs := &viewState{zoom: snap.Zoom, size: snap.Size()}
	return decide(p.opts, semanticCenter, interactionPoint, viewportBounds, vs), nil
}

// AdjustPositionForVisibility is the package-level function using the
// placer's edge padding and cached container size.
func (p *Placer) AdjustPositionForVisibility(point Point, viewportBounds Bounds, popup Size, view MapView) (Point, error) {
	snap, err := p.cache.Get(view)
	if err != nil {
		return Point{}, err
	}
	return adjustForVisibility(p.opts.EdgePadding, point, viewportBounds, popup, view, snap.Size())
}

// FindCollisionFreePosition is the package-level function using the placer's
// offset distance and collision padding.
func (p *Placer) FindCollisionFreePosition(view MapView, originalPoint Point, popup Size) (Point, error) {
	snap, err := p.cache.Get(view)
	if err != nil {
		return Point{}, err
	}
	return findCollisionFree(p.opts.CollisionOffset, view, originalPoint, popup, p.opts.CollisionPadding, snap.Size())
}

// AdjustPositionForVisibilityAndControls is the package-level pipeline using
// the placer's options and cached container size.
func (p *Placer) AdjustPositionForVisibilityAndControls(point Point, viewportBounds Bounds, popup Size, view MapView) (Point, error) {
	snap, err := p.cache.Get(view)
	if err != nil {
		return Point{}, err
	}
	pos, _, err := refine(p.opts, point, viewportBounds, popup, view, snap.Size())
	return pos, err
}

// Place runs the full flow for one interaction: click validation, anchor
// decision and refinement. Map failures are returned unchanged so the caller
// can decide how to recover; see PlaceWithFallback.
func (p *Placer) Place(view MapView, in Interaction) (Result, error) {
	start := time.Now()
	res := Result{ID: uuid.NewString()}
	logger := p.logger.With(slog.String("placement_id", res.ID), slog.String("region", in.Region))

	click := in.Click
	if !p.ValidateClickPosition(click, in.SemanticCenter) {
		logger.Debug("click rejected, using semantic center",
			slog.String("click", click.String()),
			slog.String("center", in.SemanticCenter.String()))
		click = in.SemanticCenter
	} else {
		logger.Debug("click accepted",
			slog.Float64("distance_km", geo.DistanceHaversine(click.orb(), in.SemanticCenter.orb())/1000))
	}

	snap, err := p.cache.Get(view)
	if err != nil {
		return Result{}, fmt.Errorf("read viewport: %w", err)
	}

	cfg := decide(p.opts, in.SemanticCenter, click, snap.Bounds, &viewState{zoom: snap.Zoom, size: snap.Size()})

	pos, moved, err := refine(p.opts, cfg.Anchor(), snap.Bounds, in.Popup, view, snap.Size())
	if err != nil {
		return Result{}, err
	}
	cfg.AdjustedPosition = &pos

	res.Config = cfg
	res.Position = pos
	res.Moved = moved
	res.Duration = time.Since(start)
	p.finish(logger, res)
	return res, nil
}

// PlaceWithFallback runs Place and recovers from map failures so the popup
// always opens.
//
// On failure the semantic center is used with synthetic bounds around it and
// only edge avoidance is retried; control avoidance is best-effort and is
// skipped. If the map cannot project at all the semantic center itself is
// returned. The result is then marked Degraded.
func (p *Placer) PlaceWithFallback(view MapView, in Interaction) Result {
	start := time.Now()
	res, err := p.Place(view, in)
	if err == nil {
		return res
	}

	res = Result{ID: uuid.NewString(), Degraded: true, Err: err}
	logger := p.logger.With(slog.String("placement_id", res.ID), slog.String("region", in.Region))
	logger.Warn("placement failed, falling back to semantic center", slog.Any("err", err))

	bounds := p.CreateFallbackBounds(in.SemanticCenter)
	cfg := PlacementConfig{
		SemanticCenter:   in.SemanticCenter,
		InteractionPoint: in.Click,
		ViewportBounds:   bounds,
		Reason:           ReasonFallback,
	}

	pos := bounds.Clamp(in.SemanticCenter)
	if size, serr := containerSize(view); serr == nil {
		if adjusted, aerr := adjustForVisibility(p.opts.EdgePadding, in.SemanticCenter, bounds, in.Popup, view, size); aerr == nil {
			pos = adjusted
		} else {
			logger.Debug("fallback edge avoidance failed", slog.Any("err", aerr))
		}
	}
	cfg.AdjustedPosition = &pos

	res.Config = cfg
	res.Position = pos
	res.Duration = time.Since(start)
	p.finish(logger, res)
	return res
}

// finish logs and records a completed placement.
func (p *Placer) finish(logger *slog.Logger, res Result) {
	attrs := []any{
		slog.String("reason", res.Config.Reason.String()),
		slog.Bool("use_interaction_point", res.Config.UseInteractionPoint),
		slog.Bool("moved", res.Moved),
		slog.String("position", res.Position.String()),
		slog.Duration("took", res.Duration),
	}
	if p.opts.SlowPlacement > 0 && res.Duration > p.opts.SlowPlacement {
		logger.Warn("slow placement", attrs...)
	} else {
		logger.Debug("placement done", attrs...)
	}
	if p.recorder != nil {
		p.recorder.ObservePlacement(res)
	}
}

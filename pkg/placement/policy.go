package placement

// Reason records which rule settled the anchor decision.
type Reason int

const (
	// ReasonCenterVisible: the semantic center is inside the viewport.
	ReasonCenterVisible Reason = iota
	// ReasonCenterOffscreen: the semantic center is outside the viewport.
	ReasonCenterOffscreen
	// ReasonSmallViewport: the container is small, so visibility alone decided.
	ReasonSmallViewport
	// ReasonExtremeZoom: the zoom is extreme and the semantic center is visible.
	ReasonExtremeZoom
	// ReasonFallback: the map could not be read; the semantic center is used.
	ReasonFallback
)

func (r Reason) String() string {
	switch r {
	case ReasonCenterVisible:
		return "center-visible"
	case ReasonCenterOffscreen:
		return "center-offscreen"
	case ReasonSmallViewport:
		return "small-viewport"
	case ReasonExtremeZoom:
		return "extreme-zoom"
	case ReasonFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// PlacementConfig is the anchor decision for one interaction.
//
// It carries both candidate points and the bounds used for the decision so
// later stages can recompute. A PlacementConfig is built fresh for every
// interaction and never reused.
type PlacementConfig struct {
	SemanticCenter      Point
	InteractionPoint    Point
	UseInteractionPoint bool
	ViewportBounds      Bounds
	Reason              Reason

	// AdjustedPosition is set once the pipeline has refined the anchor.
	AdjustedPosition *Point
}

// Anchor returns the base anchor chosen by the policy.
func (c PlacementConfig) Anchor() Point {
	if c.UseInteractionPoint {
		return c.InteractionPoint
	}
	return c.SemanticCenter
}

// Position returns AdjustedPosition when set, or the base anchor otherwise.
func (c PlacementConfig) Position() Point {
	if c.AdjustedPosition != nil {
		return *c.AdjustedPosition
	}
	return c.Anchor()
}

// viewState is the part of the map state the policy refinements look at.
type viewState struct {
	zoom int
	size Size
}

// DetermineSmartPosition decides whether a popup anchors on the semantic
// center of a region or on the point the user interacted with.
//
// The base rule anchors on the semantic center while it is visible in
// viewportBounds and on the interaction point otherwise. When view is not nil
// its zoom and container size refine the decision: small viewports follow the
// base rule strictly, and at extreme zoom a visible semantic center always
// wins. Errors from view are returned as *MapQueryError.
func DetermineSmartPosition(semanticCenter, interactionPoint Point, viewportBounds Bounds, view MapView) (PlacementConfig, error) {
	return determineSmartPosition(DefaultOptions(), semanticCenter, interactionPoint, viewportBounds, view)
}

func determineSmartPosition(opts Options, semanticCenter, interactionPoint Point, viewportBounds Bounds, view MapView) (PlacementConfig, error) {
	if view == nil {
		return decide(opts, semanticCenter, interactionPoint, viewportBounds, nil), nil
	}

	zoom, err := view.Zoom()
	if err != nil {
		return PlacementConfig{}, queryErr("zoom", err)
	}
	size, err := containerSize(view)
	if err != nil {
		return PlacementConfig{}, err
	}
	return decide(opts, semanticCenter, interactionPoint, viewportBounds, &viewState{zoom: zoom, size: size}), nil
}

// decide applies the anchor rules. vs is nil when no map state is known.
func decide(opts Options, semanticCenter, interactionPoint Point, viewportBounds Bounds, vs *viewState) PlacementConfig {
	visible := IsPointInViewport(semanticCenter, viewportBounds)

	cfg := PlacementConfig{
		SemanticCenter:      semanticCenter,
		InteractionPoint:    interactionPoint,
		UseInteractionPoint: !visible,
		ViewportBounds:      viewportBounds,
		Reason:              ReasonCenterVisible,
	}
	if !visible {
		cfg.Reason = ReasonCenterOffscreen
	}
	if vs == nil {
		return cfg
	}

	switch {
	case opts.isSmallViewport(vs.size):
		// No heuristic overrides on small screens: visibility alone decides.
		cfg.Reason = ReasonSmallViewport
	case opts.isExtremeZoom(vs.zoom) && visible:
		// Pin to the semantic center so the popup does not jitter.
		cfg.UseInteractionPoint = false
		cfg.Reason = ReasonExtremeZoom
	}
	return cfg
}

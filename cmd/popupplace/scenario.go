package main

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/beetlebugorg/mappopup/internal/geom"
	"github.com/beetlebugorg/mappopup/pkg/placement"
)

//go:embed scenario.schema.json
var scenarioSchema []byte

// Scenario describes a map state and the interactions to place popups for.
type Scenario struct {
	Map          MapSpec           `json:"map"`
	Interactions []InteractionSpec `json:"interactions"`
}

type MapSpec struct {
	Center []float64 `json:"center"`
	Zoom   int       `json:"zoom"`
	Size   SizeSpec  `json:"size"`

	// ContainerOrigin is the page position of the map container. When set,
	// control rectangles are page-relative and are translated.
	ContainerOrigin *PointSpec    `json:"containerOrigin,omitempty"`
	Controls        []ControlSpec `json:"controls,omitempty"`

	// Fail makes every map query fail with this message.
	Fail string `json:"fail,omitempty"`
}

type SizeSpec struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type PointSpec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type ControlSpec struct {
	Name   string  `json:"name,omitempty"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	Corner string  `json:"corner,omitempty"`
}

type InteractionSpec struct {
	Region         string    `json:"region"`
	SemanticCenter []float64 `json:"semanticCenter"`
	Click          []float64 `json:"click"`
	Popup          SizeSpec  `json:"popup"`
}

func (s SizeSpec) size() placement.Size {
	return placement.Size{Width: s.Width, Height: s.Height}
}

// ValidationError lists every schema violation of a scenario document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid scenario: " + strings.Join(e.Problems, "; ")
}

// validateScenario checks data against the embedded JSON schema.
func validateScenario(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(scenarioSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("validate scenario: %w", err)
	}
	if result.Valid() {
		return nil
	}
	ve := &ValidationError{}
	for _, e := range result.Errors() {
		ve.Problems = append(ve.Problems, e.String())
	}
	return ve
}

// LoadScenario validates and decodes a scenario document.
func LoadScenario(r io.Reader) (*Scenario, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	if err := validateScenario(data); err != nil {
		return nil, err
	}
	var sc Scenario
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	return &sc, nil
}

// View builds the static map described by the scenario.
func (s *Scenario) View() (*placement.StaticView, error) {
	lat, lon, err := geom.ValidatePair(s.Map.Center)
	if err != nil {
		return nil, fmt.Errorf("map center: %w", err)
	}
	size := s.Map.Size.size()
	view := placement.NewStaticView(placement.LatLon(lat, lon), s.Map.Zoom, size)

	controls := make([]placement.ControlRect, 0, len(s.Map.Controls))
	for _, c := range s.Map.Controls {
		controls = append(controls, placement.ControlRect{
			PixelRect: placement.PixelRect{Left: c.Left, Right: c.Right, Top: c.Top, Bottom: c.Bottom},
			Corner:    placement.ParseCorner(c.Corner),
		})
	}
	if o := s.Map.ContainerOrigin; o != nil {
		controls = placement.TranslateControlRects(controls, placement.PixelPoint{X: o.X, Y: o.Y})
	}
	for i := range controls {
		controls[i].Corner = placement.InferCorner(controls[i], size)
	}
	view.SetControls(controls...)

	if s.Map.Fail != "" {
		view.Fail(errors.New(s.Map.Fail))
	}
	return view, nil
}

// Interaction converts the scenario entry into a placement request. A click that is not
// a plausible coordinate near the semantic center is replaced by the center.
func (i InteractionSpec) Interaction() (placement.Interaction, error) {
	lat, lon, err := geom.ValidatePair(i.SemanticCenter)
	if err != nil {
		return placement.Interaction{}, fmt.Errorf("%s: semantic center: %w", i.Region, err)
	}
	center := placement.LatLon(lat, lon)

	click := center
	if placement.ValidateClickCoordinates(i.Click, center) {
		click = placement.LatLon(i.Click[0], i.Click[1])
	}

	return placement.Interaction{
		Region:         i.Region,
		SemanticCenter: center,
		Click:          click,
		Popup:          i.Popup.size(),
	}, nil
}

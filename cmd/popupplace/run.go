package main

import (
	"fmt"

	"github.com/beetlebugorg/mappopup/pkg/placement"
)

// Outcome is the printable result of one placement.
type Outcome struct {
	ID          string                `json:"id"`
	Region      string                `json:"region"`
	Reason      string                `json:"reason"`
	Anchor      string                `json:"anchor"`
	Lat         float64               `json:"lat"`
	Lon         float64               `json:"lon"`
	Pixel       *placement.PixelPoint `json:"pixel,omitempty"`
	Moved       bool                  `json:"moved"`
	Degraded    bool                  `json:"degraded"`
	Error       string                `json:"error,omitempty"`
	Collisions  []string              `json:"collisions,omitempty"`
	OverlapArea float64               `json:"overlapArea,omitempty"`
}

// runScenario places every interaction of sc repeat times and reports the
// last result of each, with any residual control overlap at the final
// position. workers above 1 places interactions concurrently.
func runScenario(sc *Scenario, placer *placement.Placer, repeat, workers int) ([]Outcome, error) {
	view, err := sc.View()
	if err != nil {
		return nil, err
	}

	ins := make([]placement.Interaction, 0, len(sc.Interactions))
	for _, spec := range sc.Interactions {
		in, err := spec.Interaction()
		if err != nil {
			return nil, err
		}
		ins = append(ins, in)
	}

	batch := placement.BatchOptions{Parallel: workers > 1, Workers: workers}
	var results []placement.Result
	for i := 0; i < repeat; i++ {
		results = placer.PlaceBatch(view, ins, batch)
	}

	outcomes := make([]Outcome, 0, len(results))
	for i, res := range results {
		in := ins[i]
		o := Outcome{
			ID:       res.ID,
			Region:   in.Region,
			Reason:   res.Config.Reason.String(),
			Anchor:   "semantic",
			Lat:      res.Position.Lat,
			Lon:      res.Position.Lon,
			Moved:    res.Moved,
			Degraded: res.Degraded,
		}
		if res.Config.UseInteractionPoint {
			o.Anchor = "interaction"
		}
		if res.Err != nil {
			o.Error = res.Err.Error()
		}

		if !res.Degraded {
			px, err := view.LatLngToContainerPoint(res.Position)
			if err != nil {
				return nil, fmt.Errorf("%s: project result: %w", in.Region, err)
			}
			o.Pixel = &px

			report, err := placement.ReportControlCollision(view, px, in.Popup, placer.Options().CollisionPadding)
			if err != nil {
				return nil, fmt.Errorf("%s: collision report: %w", in.Region, err)
			}
			for _, c := range report.Controls {
				o.Collisions = append(o.Collisions, c.String())
			}
			o.OverlapArea = report.OverlapArea
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, nil
}

package placement

import (
	"fmt"
	"testing"
)

// createCrowdedView builds a view with n small controls tiled across the
// container, leaving a gap around the center.
func createCrowdedView(n int) *StaticView {
	view := tokyoView()
	controls := make([]ControlRect, 0, n)
	for i := 0; len(controls) < n; i++ {
		x := float64((i * 37) % 1000)
		y := float64((i * 53) % 740)
		if x > 400 && x < 620 && y > 250 && y < 420 {
			continue
		}
		controls = append(controls, ControlRect{
			PixelRect: PixelRect{Left: x, Right: x + 20, Top: y, Bottom: y + 20},
		})
	}
	view.SetControls(controls...)
	return view
}

// BenchmarkControlIndex_Rtree benchmarks overlap queries with the R-tree index.
func BenchmarkControlIndex_Rtree(b *testing.B) {
	view := createCrowdedView(2000)
	controls, _ := view.ListControlRects()
	idx := newControlIndex(controls, 10)
	popup := PopupRect(PixelPoint{X: 512, Y: 384}, Size{Width: 240, Height: 120})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = idx.collides(popup)
	}
}

// BenchmarkControlIndex_Linear benchmarks overlap queries with a linear scan.
func BenchmarkControlIndex_Linear(b *testing.B) {
	view := createCrowdedView(2000)
	controls, _ := view.ListControlRects()
	popup := PopupRect(PixelPoint{X: 512, Y: 384}, Size{Width: 240, Height: 120})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, c := range controls {
			if c.Pad(10).Overlaps(popup) {
				break
			}
		}
	}
}

// BenchmarkBuildControlIndex benchmarks R-tree construction.
func BenchmarkBuildControlIndex(b *testing.B) {
	for _, n := range []int{4, 100, 2000} {
		b.Run(fmt.Sprintf("controls=%d", n), func(b *testing.B) {
			view := createCrowdedView(n)
			controls, _ := view.ListControlRects()

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = newControlIndex(controls, 10)
			}
		})
	}
}

// BenchmarkPlace_Cached benchmarks the full flow with a warm viewport cache.
func BenchmarkPlace_Cached(b *testing.B) {
	view := createCrowdedView(4)
	p := NewPlacer(DefaultOptions())
	in := tokyoInteraction()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := p.Place(view, in); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkPlace_Uncached benchmarks the full flow reading the map every time.
func BenchmarkPlace_Uncached(b *testing.B) {
	view := createCrowdedView(4)
	opts := DefaultOptions()
	opts.DisableCache = true
	p := NewPlacer(opts)
	in := tokyoInteraction()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := p.Place(view, in); err != nil {
			b.Fatal(err)
		}
	}
}

package metrics

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beetlebugorg/mappopup/pkg/placement"
)

type fixedStats placement.CacheStats

func (s fixedStats) Stats() placement.CacheStats { return placement.CacheStats(s) }

func TestCacheCollector(t *testing.T) {
	c := NewCacheCollector(fixedStats{Hits: 7, Misses: 3, Evictions: 2, Size: 1, MaxEntries: 64})

	expected := `
# HELP mappopup_viewport_cache_hits_total Viewport cache lookups answered from memory.
# TYPE mappopup_viewport_cache_hits_total counter
mappopup_viewport_cache_hits_total 7
# HELP mappopup_viewport_cache_misses_total Viewport cache lookups that queried the map.
# TYPE mappopup_viewport_cache_misses_total counter
mappopup_viewport_cache_misses_total 3
# HELP mappopup_viewport_cache_entries Snapshots currently cached.
# TYPE mappopup_viewport_cache_entries gauge
mappopup_viewport_cache_entries 1
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"mappopup_viewport_cache_hits_total",
		"mappopup_viewport_cache_misses_total",
		"mappopup_viewport_cache_entries",
	)
	require.NoError(t, err)
	assert.Equal(t, 5, testutil.CollectAndCount(c))
}

func TestCacheCollectorReadsLiveCache(t *testing.T) {
	cache := placement.NewViewportCache(time.Minute, 4)
	view := placement.NewStaticView(placement.LatLon(35.6762, 139.6503), 10, placement.Size{Width: 1024, Height: 768})

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(NewCacheCollector(cache)))

	for i := 0; i < 3; i++ {
		_, err := cache.Get(view)
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, reg))
	assert.Contains(t, buf.String(), "mappopup_viewport_cache_hits_total 2")
	assert.Contains(t, buf.String(), "mappopup_viewport_cache_misses_total 1")
	assert.Contains(t, buf.String(), "mappopup_viewport_cache_max_entries 4")
}

func TestPlacementRecorder(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	rec, err := NewPlacementRecorder(reg)
	require.NoError(t, err)

	rec.ObservePlacement(placement.Result{
		Config:   placement.PlacementConfig{Reason: placement.ReasonCenterVisible},
		Duration: 2 * time.Millisecond,
	})
	rec.ObservePlacement(placement.Result{
		Config:   placement.PlacementConfig{UseInteractionPoint: true, Reason: placement.ReasonCenterOffscreen},
		Moved:    true,
		Duration: time.Millisecond,
	})
	rec.ObservePlacement(placement.Result{
		Config:   placement.PlacementConfig{Reason: placement.ReasonFallback},
		Degraded: true,
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.total.WithLabelValues("semantic", "center-visible", "false", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.total.WithLabelValues("interaction", "center-offscreen", "false", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.total.WithLabelValues("semantic", "fallback", "true", "false")))
	assert.Equal(t, 3, testutil.CollectAndCount(rec.total))

	families, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, mf := range families {
		if mf.GetName() != "mappopup_placement_duration_ms" {
			continue
		}
		found = true
		h := mf.GetMetric()[0].GetHistogram()
		assert.Equal(t, uint64(3), h.GetSampleCount())
		assert.InDelta(t, 3.0, h.GetSampleSum(), 1e-9)
	}
	assert.True(t, found, "histogram not gathered")
}

func TestPlacementRecorderDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPlacementRecorder(reg)
	require.NoError(t, err)

	_, err = NewPlacementRecorder(reg)
	var already prometheus.AlreadyRegisteredError
	assert.ErrorAs(t, err, &already)
}

func TestInstrumentPlacer(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	p := placement.NewPlacer(placement.DefaultOptions())
	rec, err := Instrument(reg, p)
	require.NoError(t, err)

	view := placement.NewStaticView(placement.LatLon(35.6762, 139.6503), 10, placement.Size{Width: 1024, Height: 768})
	in := placement.Interaction{
		Region:         "Tokyo",
		SemanticCenter: placement.LatLon(35.6762, 139.6503),
		Click:          placement.LatLon(35.7, 139.7),
		Popup:          placement.Size{Width: 240, Height: 120},
	}
	for i := 0; i < 2; i++ {
		_, err := p.Place(view, in)
		require.NoError(t, err)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(rec.total.WithLabelValues("semantic", "center-visible", "false", "false")))

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body bytes.Buffer
	_, err = body.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), "mappopup_viewport_cache_hits_total 1")
	assert.Contains(t, body.String(), "mappopup_placements_total")
}

func TestInstrumentPlacerWithoutCache(t *testing.T) {
	opts := placement.DefaultOptions()
	opts.DisableCache = true

	reg := prometheus.NewRegistry()
	_, err := Instrument(reg, placement.NewPlacer(opts))
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		assert.False(t, strings.HasPrefix(mf.GetName(), "mappopup_viewport_cache"), mf.GetName())
	}
}

// Package metrics exports placement and viewport cache behavior to
// Prometheus. Nothing is registered globally; callers pass the registry.
//
// Instrument attaches the collectors to a Placer. Hosts that already run an
// HTTP server mount Handler on their metrics route; batch tools such as
// popupplace print a one-off dump with WriteText.
package metrics

import (
	"io"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"

	"github.com/beetlebugorg/mappopup/pkg/placement"
)

const namespace = "mappopup"

// StatsSource is anything that reports viewport cache statistics, typically
// a *placement.ViewportCache.
type StatsSource interface {
	Stats() placement.CacheStats
}

// CacheCollector exports the counters of a viewport cache as const metrics
// read at scrape time.
type CacheCollector struct {
	src StatsSource

	hits       *prometheus.Desc
	misses     *prometheus.Desc
	evictions  *prometheus.Desc
	size       *prometheus.Desc
	maxEntries *prometheus.Desc
}

// NewCacheCollector creates a collector for src.
func NewCacheCollector(src StatsSource) *CacheCollector {
	name := func(n string) string { return prometheus.BuildFQName(namespace, "viewport_cache", n) }
	return &CacheCollector{
		src:        src,
		hits:       prometheus.NewDesc(name("hits_total"), "Viewport cache lookups answered from memory.", nil, nil),
		misses:     prometheus.NewDesc(name("misses_total"), "Viewport cache lookups that queried the map.", nil, nil),
		evictions:  prometheus.NewDesc(name("evictions_total"), "Snapshots dropped by expiry, LRU, clear or invalidation.", nil, nil),
		size:       prometheus.NewDesc(name("entries"), "Snapshots currently cached.", nil, nil),
		maxEntries: prometheus.NewDesc(name("max_entries"), "Configured entry limit, 0 for unlimited.", nil, nil),
	}
}

func (c *CacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
	ch <- c.evictions
	ch <- c.size
	ch <- c.maxEntries
}

func (c *CacheCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Stats()
	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(s.Hits))
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(s.Misses))
	ch <- prometheus.MustNewConstMetric(c.evictions, prometheus.CounterValue, float64(s.Evictions))
	ch <- prometheus.MustNewConstMetric(c.size, prometheus.GaugeValue, float64(s.Size))
	ch <- prometheus.MustNewConstMetric(c.maxEntries, prometheus.GaugeValue, float64(s.MaxEntries))
}

// PlacementRecorder implements placement.Recorder with a latency histogram
// and an outcome counter.
type PlacementRecorder struct {
	durationMs prometheus.Histogram
	total      *prometheus.CounterVec
}

// NewPlacementRecorder creates a recorder and registers its metrics with reg.
func NewPlacementRecorder(reg prometheus.Registerer) (*PlacementRecorder, error) {
	r := &PlacementRecorder{
		durationMs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "placement_duration_ms",
			Help:      "Placement duration in milliseconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 20, 50, 100, 500},
		}),
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "placements_total",
			Help:      "Total placements by anchor, reason and outcome",
		}, []string{"anchor", "reason", "degraded", "collision_moved"}),
	}
	for _, c := range []prometheus.Collector{r.durationMs, r.total} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ObservePlacement records one finished placement.
func (r *PlacementRecorder) ObservePlacement(res placement.Result) {
	anchor := "semantic"
	if res.Config.UseInteractionPoint {
		anchor = "interaction"
	}
	r.total.WithLabelValues(
		anchor,
		res.Config.Reason.String(),
		strconv.FormatBool(res.Degraded),
		strconv.FormatBool(res.Moved),
	).Inc()
	r.durationMs.Observe(float64(res.Duration.Microseconds()) / 1000)
}

// Instrument registers a cache collector for p's cache (when it has one) and
// attaches a new PlacementRecorder to p.
func Instrument(reg prometheus.Registerer, p *placement.Placer) (*PlacementRecorder, error) {
	if cache := p.Cache(); cache != nil {
		if err := reg.Register(NewCacheCollector(cache)); err != nil {
			return nil, err
		}
	}
	rec, err := NewPlacementRecorder(reg)
	if err != nil {
		return nil, err
	}
	p.WithRecorder(rec)
	return rec, nil
}

// Handler serves the metrics gathered by g in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// WriteText writes every metric family gathered by g to w in the text
// exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

package marionette

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RendererMetrics exports renderer frame counters as Prometheus
// collectors.
type RendererMetrics struct {
	frames      prometheus.Counter
	packets     prometheus.Counter
	vetoed      prometheus.Counter
	culled      prometheus.Counter
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
	evictions   prometheus.Counter
	missing     prometheus.Counter
	cachedNodes prometheus.Gauge
	layers      prometheus.Gauge
	drawSeconds prometheus.Histogram
	tracks      *prometheus.CounterVec
}

// NewRendererMetrics creates the collectors under namespace and registers
// them on reg. A nil reg skips registration.
func NewRendererMetrics(namespace string, reg prometheus.Registerer) (*RendererMetrics, error) {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "renderer", Name: name, Help: help,
		})
	}
	m := &RendererMetrics{
		frames:      counter("frames_total", "Frames drawn."),
		packets:     counter("packets_total", "Draw packets submitted to the painter."),
		vetoed:      counter("vetoed_packets_total", "Draw packets dropped by a draw hook."),
		culled:      counter("culled_packets_total", "Draw packets outside the cull rect."),
		cacheHits:   counter("cache_hits_total", "Paint nodes reused without rebuilding."),
		cacheMisses: counter("cache_misses_total", "Paint nodes that rebuilt a material or drawable."),
		evictions:   counter("cache_evictions_total", "Paint nodes erased at end of frame."),
		missing:     counter("missing_class_total", "Nodes skipped for a missing class."),
		cachedNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "renderer", Name: "cached_nodes",
			Help: "Paint nodes held in the cache.",
		}),
		layers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "renderer", Name: "layers",
			Help: "Layers painted in the last frame.",
		}),
		drawSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "renderer", Name: "draw_seconds",
			Help:    "Time spent in Renderer.Draw per frame.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		tracks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "animation", Name: "track_events_total",
			Help: "Track lifecycle events by type.",
		}, []string{"event"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *RendererMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.frames, m.packets, m.vetoed, m.culled, m.cacheHits, m.cacheMisses,
		m.evictions, m.missing, m.cachedNodes, m.layers, m.drawSeconds, m.tracks,
	}
}

// Observe records one frame.
func (m *RendererMetrics) Observe(s FrameStats) {
	m.frames.Inc()
	m.packets.Add(float64(s.Packets))
	m.vetoed.Add(float64(s.Vetoed))
	m.culled.Add(float64(s.Culled))
	m.cacheHits.Add(float64(s.CacheHits))
	m.cacheMisses.Add(float64(s.CacheMisses))
	m.evictions.Add(float64(s.Evictions))
	m.missing.Add(float64(s.Missing))
	m.cachedNodes.Set(float64(s.CachedNodes))
	m.layers.Set(float64(s.Layers))
	m.drawSeconds.Observe(s.DrawTime.Seconds())
}

// EmitTrackEvent implements TrackObserver by counting events.
func (m *RendererMetrics) EmitTrackEvent(e TrackEvent) {
	m.tracks.WithLabelValues(e.Type.String()).Inc()
}

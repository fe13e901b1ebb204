package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ComposeMetrics holds Prometheus metrics for compositing and filters.
type ComposeMetrics struct {
	Compositions    *prometheus.CounterVec
	Placeholders    prometheus.Counter
	ComposeDuration prometheus.Histogram
	Filters         *prometheus.CounterVec
	MirrorEvictions prometheus.Counter
}

// NewComposeMetrics creates and registers compose metrics on the given registry.
func NewComposeMetrics(reg prometheus.Registerer) *ComposeMetrics {
	m := &ComposeMetrics{
		Compositions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compositions_total",
			Help:      "Total number of composed prints, by layout.",
		}, []string{"layout"}),
		Placeholders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "composition_placeholders_total",
			Help:      "Total number of slots filled with the placeholder colour.",
		}),
		ComposeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "composition_duration_seconds",
			Help:      "Duration of one composition in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		}),
		Filters: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filters_applied_total",
			Help:      "Total number of filter applications, by filter name.",
		}, []string{"filter"}),
		MirrorEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mirror_cache_evictions_total",
			Help:      "Total number of mirrored files removed by cache cleanup.",
		}),
	}

	reg.MustRegister(m.Compositions, m.Placeholders, m.ComposeDuration, m.Filters, m.MirrorEvictions)
	return m
}

// Composed records one composition.
func (m *ComposeMetrics) Composed(layout string, placeholders int, d time.Duration) {
	if m == nil {
		return
	}
	m.Compositions.WithLabelValues(layout).Inc()
	m.Placeholders.Add(float64(placeholders))
	m.ComposeDuration.Observe(d.Seconds())
}

// Filtered records one filter application.
func (m *ComposeMetrics) Filtered(name string) {
	if m == nil {
		return
	}
	m.Filters.WithLabelValues(name).Inc()
}

// Evicted records n removed mirror-cache entries.
func (m *ComposeMetrics) Evicted(n int) {
	if m == nil || n == 0 {
		return
	}
	m.MirrorEvictions.Add(float64(n))
}

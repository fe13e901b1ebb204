package metrics

import "github.com/prometheus/client_golang/prometheus"

// CaptureMetrics holds Prometheus metrics for the capture watcher.
type CaptureMetrics struct {
	FilesAccepted  prometheus.Counter
	TransientDrops prometheus.Counter
	Watches        *prometheus.CounterVec
}

// NewCaptureMetrics creates and registers capture metrics on the given registry.
func NewCaptureMetrics(reg prometheus.Registerer) *CaptureMetrics {
	m := &CaptureMetrics{
		FilesAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_files_accepted_total",
			Help:      "Total number of stabilized files accepted from the watch directory.",
		}),
		TransientDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_transient_drops_total",
			Help:      "Total number of candidates that vanished between observations.",
		}),
		Watches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_watches_total",
			Help:      "Total number of finished watch runs, by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(m.FilesAccepted, m.TransientDrops, m.Watches)
	return m
}

// Accepted counts one accepted file.
func (m *CaptureMetrics) Accepted() {
	if m == nil {
		return
	}
	m.FilesAccepted.Inc()
}

// Dropped counts one vanished candidate.
func (m *CaptureMetrics) Dropped() {
	if m == nil {
		return
	}
	m.TransientDrops.Inc()
}

// WatchDone counts one finished watch with result "complete", "timed_out"
// or "canceled".
func (m *CaptureMetrics) WatchDone(result string) {
	if m == nil {
		return
	}
	m.Watches.WithLabelValues(result).Inc()
}

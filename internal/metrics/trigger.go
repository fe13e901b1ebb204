package metrics

import "github.com/prometheus/client_golang/prometheus"

// TriggerMetrics holds Prometheus metrics for the shutter trigger.
type TriggerMetrics struct {
	Triggers *prometheus.CounterVec
}

// NewTriggerMetrics creates and registers trigger metrics on the given registry.
func NewTriggerMetrics(reg prometheus.Registerer) *TriggerMetrics {
	m := &TriggerMetrics{
		Triggers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shutter_triggers_total",
			Help:      "Total number of shutter trigger attempts, by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(m.Triggers)
	return m
}

// Outcome counts one trigger with the given outcome label.
func (m *TriggerMetrics) Outcome(outcome string) {
	if m == nil {
		return
	}
	m.Triggers.WithLabelValues(outcome).Inc()
}

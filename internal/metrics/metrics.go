// Package metrics holds the Prometheus collectors exported by the booth.
//
// Every metrics struct is created against a caller-supplied Registerer and
// its recording methods are safe to call on a nil receiver, so components can
// run without metrics in tests and library use.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tetherbooth"

// NewRegistry creates a Prometheus registry with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Handler returns an http.Handler that serves Prometheus metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Set bundles every booth metric.
type Set struct {
	Capture *CaptureMetrics
	Trigger *TriggerMetrics
	Compose *ComposeMetrics
}

// NewSet creates and registers all booth metrics on reg.
func NewSet(reg prometheus.Registerer) *Set {
	return &Set{
		Capture: NewCaptureMetrics(reg),
		Trigger: NewTriggerMetrics(reg),
		Compose: NewComposeMetrics(reg),
	}
}

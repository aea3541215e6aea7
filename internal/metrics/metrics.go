// Package metrics exposes Prometheus instrumentation for the data loader:
// registration counters, build outcomes by status, build latency, and
// gauges for the registry's and orchestrator's current sizes.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector is a Prometheus metrics collector for one DataLoader instance.
type Collector struct {
	registrations    prometheus.Counter
	loadFailures     prometheus.Counter
	buildsByStatus   *prometheus.CounterVec
	buildLatency     prometheus.Histogram
	buildsInFlight   prometheus.Gauge
	registryDepth    prometheus.Gauge
	registryEligible prometheus.Gauge
}

// NewCollector builds and registers the data loader's metric set against
// the default Prometheus registry.
func NewCollector() *Collector {
	c := &Collector{
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dataloader_registrations_total",
			Help: "Total number of RegisterRequest calls",
		}),
		loadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dataloader_load_failures_reported_total",
			Help: "Total number of ReportLoadFailure calls",
		}),
		buildsByStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dataloader_builds_total",
			Help: "Total number of completed builds, by terminal status",
		}, []string{"status"}),
		buildLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dataloader_build_latency_seconds",
			Help:    "Latency of PackageLoader.Load from dispatch to settle",
			Buckets: prometheus.DefBuckets,
		}),
		buildsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dataloader_builds_in_flight",
			Help: "Current number of pending (in-flight) builds",
		}),
		registryDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dataloader_registry_entries",
			Help: "Current total number of registry entries",
		}),
		registryEligible: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dataloader_registry_eligible_entries",
			Help: "Current number of eligible (non-unregistered) registry entries",
		}),
	}

	prometheus.MustRegister(c.registrations)
	prometheus.MustRegister(c.loadFailures)
	prometheus.MustRegister(c.buildsByStatus)
	prometheus.MustRegister(c.buildLatency)
	prometheus.MustRegister(c.buildsInFlight)
	prometheus.MustRegister(c.registryDepth)
	prometheus.MustRegister(c.registryEligible)

	return c
}

// RecordRegistration increments the registration counter.
func (c *Collector) RecordRegistration() {
	c.registrations.Inc()
}

// RecordLoadFailureReported increments the ReportLoadFailure counter.
func (c *Collector) RecordLoadFailureReported() {
	c.loadFailures.Inc()
}

// RecordBuild increments the per-status build counter and observes latency.
func (c *Collector) RecordBuild(status string, latencySeconds float64) {
	c.buildsByStatus.WithLabelValues(status).Inc()
	c.buildLatency.Observe(latencySeconds)
}

// SetRegistryStats updates the registry depth gauges.
func (c *Collector) SetRegistryStats(total, eligible int) {
	c.registryDepth.Set(float64(total))
	c.registryEligible.Set(float64(eligible))
}

// SetBuildsInFlight updates the in-flight build gauge.
func (c *Collector) SetBuildsInFlight(n int) {
	c.buildsInFlight.Set(float64(n))
}

// StartServer starts the /metrics HTTP endpoint on port. It blocks until the
// server exits.
func StartServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	return http.ListenAndServe(addr, mux)
}

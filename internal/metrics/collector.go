// Package metrics exposes run, stream, tool and HTTP metrics in
// Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/user/storeops/internal/gateway"
	"github.com/user/storeops/internal/stream"
)

// Collector owns a private registry so several collectors can coexist in
// one process.
type Collector struct {
	registry *prometheus.Registry

	runsStarted   prometheus.Counter
	runsFinished  *prometheus.CounterVec
	runDuration   prometheus.Histogram
	activeRuns    prometheus.Gauge
	stepDuration  *prometheus.HistogramVec
	stepFailures  *prometheus.CounterVec
	toolCalls     *prometheus.CounterVec
	events        *prometheus.CounterVec
	eventsDropped prometheus.Counter
	heartbeats    prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewCollector creates a collector whose metrics are prefixed with namespace.
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Collector{
		registry: reg,
		runsStarted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_started_total",
			Help:      "Runs that acquired an execution slot.",
		}),
		runsFinished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_finished_total",
			Help:      "Finished runs by final status.",
		}, []string{"status"}),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Run execution time.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		}),
		activeRuns: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_runs",
			Help:      "Runs currently executing.",
		}),
		stepDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Pipeline step execution time.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"step"}),
		stepFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_failures_total",
			Help:      "Pipeline steps that failed.",
		}, []string{"step"}),
		toolCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool invocations by tool and outcome.",
		}, []string{"tool", "status"}),
		events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_events_total",
			Help:      "Events written to subscribers by kind.",
		}, []string{"kind"}),
		eventsDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_events_dropped_total",
			Help:      "Events discarded after their subscriber went away.",
		}),
		heartbeats: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_heartbeats_total",
			Help:      "Heartbeats sent to idle subscribers.",
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the collector's metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// RunStarted implements gateway.Observer.
func (c *Collector) RunStarted() {
	c.runsStarted.Inc()
	c.activeRuns.Inc()
}

// RunFinished implements gateway.Observer.
func (c *Collector) RunFinished(status gateway.RunStatus, elapsed time.Duration, dropped int64) {
	c.runsFinished.WithLabelValues(string(status)).Inc()
	c.activeRuns.Dec()
	c.runDuration.Observe(elapsed.Seconds())
	c.EventsDropped(dropped)
}

// StepStarted implements pipeline.Observer.
func (c *Collector) StepStarted(string) {}

// StepFinished implements pipeline.Observer.
func (c *Collector) StepFinished(step string, elapsed time.Duration, err error) {
	c.stepDuration.WithLabelValues(step).Observe(elapsed.Seconds())
	if err != nil {
		c.stepFailures.WithLabelValues(step).Inc()
	}
}

// ToolCalled implements tools.CallObserver.
func (c *Collector) ToolCalled(name string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.toolCalls.WithLabelValues(name, status).Inc()
}

// EventSent counts one event delivered to a subscriber.
func (c *Collector) EventSent(kind stream.Kind) {
	c.events.WithLabelValues(string(kind)).Inc()
}

// HeartbeatSent counts one heartbeat.
func (c *Collector) HeartbeatSent() { c.heartbeats.Inc() }

// EventsDropped adds n discarded events.
func (c *Collector) EventsDropped(n int64) {
	if n > 0 {
		c.eventsDropped.Add(float64(n))
	}
}

// RecordHTTPRequest records one served request.
func (c *Collector) RecordHTTPRequest(method, path string, status int, elapsed time.Duration) {
	c.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

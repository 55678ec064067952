// Package metrics exposes intake counters and sink latencies in the
// Prometheus text format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "postulaciones"

// Collectors holds the service's metrics on a private registry.
// It implements core.Metrics.
type Collectors struct {
	registry *prometheus.Registry

	submissions    *prometheus.CounterVec
	sinkWrites     *prometheus.CounterVec
	sinkDuration   *prometheus.HistogramVec
	recordsSkipped prometheus.Counter
	rateLimited    *prometheus.CounterVec
}

// New creates and registers the collectors, plus the Go runtime and
// process collectors.
func New() *Collectors {
	c := &Collectors{
		registry: prometheus.NewRegistry(),
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "submissions_total",
				Help:      "Submissions by outcome (accepted, partial, failed, invalid, rejected).",
			},
			[]string{"outcome"},
		),
		sinkWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sink_writes_total",
				Help:      "Sink write attempts by sink and result.",
			},
			[]string{"sink", "result"},
		),
		sinkDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sink_write_duration_seconds",
				Help:      "Latency of a single sink write.",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"sink"},
		),
		recordsSkipped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_skipped_total",
				Help:      "Stored records that could not be read while listing.",
			},
		),
		rateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limited_total",
				Help:      "Requests rejected by the per-client rate limiter.",
			},
			[]string{"bucket"},
		),
	}

	c.registry.MustRegister(
		c.submissions,
		c.sinkWrites,
		c.sinkDuration,
		c.recordsSkipped,
		c.rateLimited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// ObserveSink implements core.Metrics.
func (c *Collectors) ObserveSink(sink string, ok bool, elapsed time.Duration) {
	result := "ok"
	if !ok {
		result = "error"
	}
	c.sinkWrites.WithLabelValues(sink, result).Inc()
	c.sinkDuration.WithLabelValues(sink).Observe(elapsed.Seconds())
}

// ObserveSubmission implements core.Metrics.
func (c *Collectors) ObserveSubmission(outcome string) {
	c.submissions.WithLabelValues(outcome).Inc()
}

// RecordSkipped counts a record the local store could not read.
func (c *Collectors) RecordSkipped(string, error) {
	c.recordsSkipped.Inc()
}

// RecordRateLimited counts a request rejected by the named limiter bucket.
func (c *Collectors) RecordRateLimited(bucket string) {
	c.rateLimited.WithLabelValues(bucket).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

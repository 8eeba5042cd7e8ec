// Package metrics provides Prometheus metrics for the prescription API.
//
// HTTP traffic:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//
// Pipeline runs:
//   - pipeline_runs_total: Counter with source and outcome labels
//   - pipeline_duration_seconds: Histogram with source label
//   - pipeline_candidates: Histogram of extracted candidates per run
//   - knowledge_source_up: Gauge set by the scheduled probe
//
// All metrics are registered with the Prometheus default registry during
// package initialization.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/giygas/prescription-api/analyzer"
)

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (clients seen since last cleanup)",
		},
	)

	PipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Pipeline runs by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	PipelineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_duration_seconds",
			Help:    "Pipeline run latency, knowledge request included",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"source"},
	)

	PipelineCandidates = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_candidates",
			Help:    "Candidate names per run",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 20, 50},
		},
		[]string{"source"},
	)

	PipelineSuffixedCandidates = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_suffixed_candidates_total",
			Help: "Candidates carrying a known pharmacological stem",
		},
	)

	KnowledgeSourceUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "knowledge_source_up",
			Help: "1 when the last knowledge source probe succeeded",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(PipelineRunsTotal)
	prometheus.MustRegister(PipelineDuration)
	prometheus.MustRegister(PipelineCandidates)
	prometheus.MustRegister(PipelineSuffixedCandidates)
	prometheus.MustRegister(KnowledgeSourceUp)
}

// ObservePipeline records one pipeline outcome. It is meant to be passed to
// analyzer.WithObserver.
func ObservePipeline(o analyzer.Outcome) {
	PipelineRunsTotal.WithLabelValues(o.Source, analyzer.Classify(o.Err)).Inc()
	PipelineDuration.WithLabelValues(o.Source).Observe(o.Duration.Seconds())
	PipelineCandidates.WithLabelValues(o.Source).Observe(float64(o.Candidates))
	PipelineSuffixedCandidates.Add(float64(o.Suffixed))
}

// SetKnowledgeSourceUp records the result of a reachability probe.
func SetKnowledgeSourceUp(up bool) {
	if up {
		KnowledgeSourceUp.Set(1)
		return
	}
	KnowledgeSourceUp.Set(0)
}

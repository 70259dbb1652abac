package metrics

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"route", "method"},
	)

	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "Total number of model invocations by task and outcome",
		},
		[]string{"task", "outcome"},
	)
	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "Model invocation duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60, 120},
		},
		[]string{"task"},
	)

	PipelineFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_fallbacks_total",
			Help: "Degraded pipeline stages by stage and reason",
		},
		[]string{"stage", "reason"},
	)
	PipelineStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
		[]string{"stage"},
	)

	AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyses_total",
			Help: "Analysis record operations by kind",
		},
		[]string{"operation"},
	)
)

var registerOnce sync.Once

// Register adds all collectors to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			LLMRequestsTotal,
			LLMRequestDuration,
			PipelineFallbacksTotal,
			PipelineStageDuration,
			AnalysesTotal,
		)
	})
}

// Handler exposes the default registry in Prometheus text format.
func Handler() gin.HandlerFunc {
	Register()
	return gin.WrapH(promhttp.Handler())
}

// ObserveLLM records one model invocation.
func ObserveLLM(task, outcome string, elapsed time.Duration) {
	LLMRequestsTotal.WithLabelValues(task, outcome).Inc()
	LLMRequestDuration.WithLabelValues(task).Observe(elapsed.Seconds())
}

// IncFallback counts a degraded stage.
func IncFallback(stage, reason string) {
	PipelineFallbacksTotal.WithLabelValues(stage, reason).Inc()
}

// ObserveStage records how long a pipeline stage took.
func ObserveStage(stage string, elapsed time.Duration) {
	PipelineStageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// IncAnalysis counts an analysis record operation (process, regenerate, questions).
func IncAnalysis(operation string) {
	AnalysesTotal.WithLabelValues(operation).Inc()
}

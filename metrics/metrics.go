package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	routingPath = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "knowrouter_routing_path_total",
		Help: "Routing outcomes by path taken",
	}, []string{"path"})

	complexityScore = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "knowrouter_complexity_score",
		Help:    "Classifier complexity score distribution",
		Buckets: []float64{0.05, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
	})

	toolLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "knowrouter_tool_latency_ms",
		Help:    "Latency of tool dispatches in milliseconds",
		Buckets: []float64{5, 10, 25, 50, 75, 100, 150, 200, 300, 500, 800, 1200},
	}, []string{"tool"})

	toolStatus = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "knowrouter_tool_status_total",
		Help: "Tool dispatch outcomes by status",
	}, []string{"tool", "status"})

	degraded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "knowrouter_degraded_total",
		Help: "Requests resolved through fallback",
	})

	deciderLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "knowrouter_decider_latency_ms",
		Help:    "Latency of decision-maker tool selection in milliseconds",
		Buckets: []float64{50, 100, 200, 400, 800, 1200, 1600, 2400},
	})

	contextChars = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "knowrouter_context_chars",
		Help:    "Size of the fused enriched context in characters",
		Buckets: []float64{0, 200, 500, 1000, 2000, 3000, 4000, 6000, 8000},
	})

	droppedToolCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "knowrouter_dropped_tool_calls_total",
		Help: "Tool calls rejected before dispatch",
	}, []string{"reason"})
)

func ensureRegistered() {
	once.Do(func() {
		prometheus.MustRegister(routingPath, complexityScore, toolLatency, toolStatus,
			degraded, deciderLatency, contextChars, droppedToolCalls)
	})
}

// IncPath records which routing path resolved a request.
func IncPath(path string) {
	ensureRegistered()
	routingPath.WithLabelValues(path).Inc()
}

// ObserveComplexity records a classifier score.
func ObserveComplexity(score float64) {
	ensureRegistered()
	complexityScore.Observe(score)
}

// ObserveTool records latency and status for a tool dispatch.
func ObserveTool(tool string, start time.Time, status string) {
	ensureRegistered()
	toolLatency.WithLabelValues(tool).Observe(float64(time.Since(start).Milliseconds()))
	toolStatus.WithLabelValues(tool, status).Inc()
}

// IncDegraded counts a fallback resolution.
func IncDegraded() {
	ensureRegistered()
	degraded.Inc()
}

// ObserveDecider records decision-maker call latency.
func ObserveDecider(start time.Time) {
	ensureRegistered()
	deciderLatency.Observe(float64(time.Since(start).Milliseconds()))
}

// ObserveContext records the fused context size.
func ObserveContext(chars int) {
	ensureRegistered()
	contextChars.Observe(float64(chars))
}

// IncDropped counts a tool call rejected before dispatch.
func IncDropped(reason string) {
	ensureRegistered()
	droppedToolCalls.WithLabelValues(reason).Inc()
}

// Collectors exposes all collectors for registration with a custom registry.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		routingPath, complexityScore, toolLatency, toolStatus,
		degraded, deciderLatency, contextChars, droppedToolCalls,
	}
}

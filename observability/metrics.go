package observability

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// engineMetrics tracks call-level activity across the kyc, vault and property
// engines, mirroring the module-level RPC instrumentation the teacher wires
// per JSON-RPC handler.
type engineMetrics struct {
	calls   *prometheus.CounterVec
	errors  *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

var (
	engineMetricsOnce sync.Once
	engineRegistry    *engineMetrics
)

// EngineMetrics returns the lazily-initialised metrics registry used to
// record kyc/vault/property engine call activity.
func EngineMetrics() *engineMetrics {
	engineMetricsOnce.Do(func() {
		engineRegistry = &engineMetrics{
			calls: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "verse",
				Subsystem: "engine",
				Name:      "calls_total",
				Help:      "Total engine calls segmented by engine, method and outcome.",
			}, []string{"engine", "method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "verse",
				Subsystem: "engine",
				Name:      "errors_total",
				Help:      "Total engine call errors segmented by engine, method and reason.",
			}, []string{"engine", "method", "reason"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "verse",
				Subsystem: "engine",
				Name:      "call_duration_seconds",
				Help:      "Latency distribution for engine calls.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"engine", "method"}),
		}
		prometheus.MustRegister(
			engineRegistry.calls,
			engineRegistry.errors,
			engineRegistry.latency,
		)
	})
	return engineRegistry
}

// Observe records the outcome of a single engine call.
func (m *engineMetrics) Observe(engine, method string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	if engine == "" {
		engine = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
		m.errors.WithLabelValues(engine, method, fmt.Sprintf("%v", err)).Inc()
	}
	m.calls.WithLabelValues(engine, method, outcome).Inc()
	m.latency.WithLabelValues(engine, method).Observe(duration.Seconds())
}

package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type eventMetrics struct {
	transfers *prometheus.CounterVec
	mints     *prometheus.CounterVec
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *eventMetrics
)

// Events returns the metrics registry tracking ledger-level stablecoin
// movement.
func Events() *eventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = &eventMetrics{
			transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "verse",
				Subsystem: "ledger",
				Name:      "transfers_total",
				Help:      "Count of stablecoin transfers segmented by asset.",
			}, []string{"asset"}),
			mints: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "verse",
				Subsystem: "ledger",
				Name:      "mints_total",
				Help:      "Count of stablecoin mints segmented by asset.",
			}, []string{"asset"}),
		}
		prometheus.MustRegister(eventRegistry.transfers, eventRegistry.mints)
	})
	return eventRegistry
}

// RecordTransfer increments the transfer counter for the supplied asset
// ticker.
func (m *eventMetrics) RecordTransfer(asset string) {
	if m == nil {
		return
	}
	m.transfers.WithLabelValues(normalizeAsset(asset)).Inc()
}

// RecordMint increments the mint counter for the supplied asset ticker.
func (m *eventMetrics) RecordMint(asset string) {
	if m == nil {
		return
	}
	m.mints.WithLabelValues(normalizeAsset(asset)).Inc()
}

func normalizeAsset(asset string) string {
	normalized := strings.TrimSpace(strings.ToUpper(asset))
	if normalized == "" {
		return "UNKNOWN"
	}
	return normalized
}
